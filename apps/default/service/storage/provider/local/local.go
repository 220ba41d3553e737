package local

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pitabwire/util"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	"gocloud.dev/gcerrors"
)

type ProviderLocal struct {
	name          string
	privateBucket string
}

func (provider *ProviderLocal) Name() string {
	return provider.name
}

func (provider *ProviderLocal) PrivateBucket() string {
	return provider.privateBucket
}

func (provider *ProviderLocal) Setup(_ context.Context) error {
	return os.MkdirAll(provider.privateBucket, 0755)
}

func (provider *ProviderLocal) Init(ctx context.Context, bucketName string) (*blob.Bucket, error) {
	return blob.OpenBucket(ctx, fmt.Sprintf("file://%s?create_dir=true", bucketName))
}

// UploadBlob streams content into the bucket under key and returns the number
// of bytes written.
func (provider *ProviderLocal) UploadBlob(ctx context.Context, bucketName string, key string, content io.Reader, contentType string) (int64, error) {
	bucket, err := provider.Init(ctx, bucketName)
	if err != nil {
		return 0, err
	}
	defer util.CloseAndLogOnError(ctx, bucket)

	return WriteBlob(ctx, bucket, key, content, contentType)
}

func (provider *ProviderLocal) DownloadBlob(ctx context.Context, bucketName string, key string) (io.Reader, func(), error) {
	bucket, err := provider.Init(ctx, bucketName)
	if err != nil {
		return nil, nil, err
	}
	return ReadBlob(ctx, bucket, key)
}

func (provider *ProviderLocal) DeleteBlob(ctx context.Context, bucketName string, key string) error {
	bucket, err := provider.Init(ctx, bucketName)
	if err != nil {
		return err
	}
	defer util.CloseAndLogOnError(ctx, bucket)

	return RemoveBlob(ctx, bucket, key)
}

// WriteBlob copies content to key in an opened bucket. Providers share it so
// only Init differs between object stores.
func WriteBlob(ctx context.Context, bucket *blob.Bucket, key string, content io.Reader, contentType string) (int64, error) {
	writeCtx, cancelWrite := context.WithCancel(ctx)
	defer cancelWrite()

	w, err := bucket.NewWriter(writeCtx, key, &blob.WriterOptions{ContentType: contentType})
	if err != nil {
		return 0, err
	}

	written, err := io.Copy(w, content)
	if err != nil {
		cancelWrite()
		_ = w.Close()
		return 0, err
	}

	if err = w.Close(); err != nil {
		return 0, err
	}
	return written, nil
}

// ReadBlob opens key for reading; the returned func releases the reader and the bucket.
func ReadBlob(ctx context.Context, bucket *blob.Bucket, key string) (io.Reader, func(), error) {
	r, err := bucket.NewReader(ctx, key, nil)
	if err != nil {
		util.CloseAndLogOnError(ctx, bucket)
		return nil, nil, err
	}

	return r, func() {
		util.CloseAndLogOnError(ctx, r)
		util.CloseAndLogOnError(ctx, bucket)
	}, nil
}

// RemoveBlob deletes key from an opened bucket, ignoring keys that do not exist.
func RemoveBlob(ctx context.Context, bucket *blob.Bucket, key string) error {
	err := bucket.Delete(ctx, key)
	if err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return err
	}
	return nil
}

func NewProvider(name, privateBucket string) *ProviderLocal {
	return &ProviderLocal{
		name:          name,
		privateBucket: privateBucket,
	}
}
