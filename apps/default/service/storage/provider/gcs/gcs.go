package gcs

import (
	"context"
	"io"

	"github.com/antinvestor/service-filemovement/apps/default/service/storage/provider/local"
	"github.com/pitabwire/util"
	"gocloud.dev/blob"
	"gocloud.dev/blob/gcsblob"
	"gocloud.dev/gcp"
)

type ProviderGCS struct {
	*local.ProviderLocal
	client *gcp.HTTPClient
}

func (provider *ProviderGCS) Setup(ctx context.Context) error {
	creds, err := gcp.DefaultCredentials(ctx)
	if err != nil {
		return err
	}

	provider.client, err = gcp.NewHTTPClient(
		gcp.DefaultTransport(),
		gcp.CredentialsTokenSource(creds))

	return err
}

func (provider *ProviderGCS) Init(ctx context.Context, bucketName string) (*blob.Bucket, error) {
	return gcsblob.OpenBucket(ctx, provider.client, bucketName, nil)
}

func (provider *ProviderGCS) UploadBlob(ctx context.Context, bucketName string, key string, content io.Reader, contentType string) (int64, error) {
	bucket, err := provider.Init(ctx, bucketName)
	if err != nil {
		return 0, err
	}
	defer util.CloseAndLogOnError(ctx, bucket)

	return local.WriteBlob(ctx, bucket, key, content, contentType)
}

func (provider *ProviderGCS) DownloadBlob(ctx context.Context, bucketName string, key string) (io.Reader, func(), error) {
	bucket, err := provider.Init(ctx, bucketName)
	if err != nil {
		return nil, nil, err
	}
	return local.ReadBlob(ctx, bucket, key)
}

func (provider *ProviderGCS) DeleteBlob(ctx context.Context, bucketName string, key string) error {
	bucket, err := provider.Init(ctx, bucketName)
	if err != nil {
		return err
	}
	defer util.CloseAndLogOnError(ctx, bucket)

	return local.RemoveBlob(ctx, bucket, key)
}

func NewProvider(name, privateBucket string) *ProviderGCS {
	return &ProviderGCS{
		ProviderLocal: local.NewProvider(name, privateBucket),
	}
}
