package business

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/antinvestor/service-filemovement/apps/default/service/storage"
	"github.com/antinvestor/service-filemovement/apps/default/service/types"
	"github.com/antinvestor/service-filemovement/apps/default/service/utils"
	"github.com/pitabwire/util"
	"github.com/rs/xid"
	"gocloud.dev/gcerrors"
)

type attachmentService struct {
	db           storage.Database
	provider     storage.Provider
	actors       *ActorLookup
	policy       *Policy
	maxSizeBytes int64
}

// NewAttachmentService manages documents attached to files. A maxSizeBytes
// of zero accepts documents of any size.
func NewAttachmentService(db storage.Database, provider storage.Provider, actors *ActorLookup, policy *Policy, maxSizeBytes int64) AttachmentService {
	return &attachmentService{
		db:           db,
		provider:     provider,
		actors:       actors,
		policy:       policy,
		maxSizeBytes: maxSizeBytes,
	}
}

func (as *attachmentService) validateBlob(blob *types.BlobUpload) error {
	if blob == nil {
		return types.Validation("document is required")
	}
	if strings.TrimSpace(blob.Name) == "" {
		return types.Validation("document name is required")
	}
	if len(blob.Content) == 0 {
		return types.Validation("document %s is empty", blob.Name)
	}
	if as.maxSizeBytes > 0 && int64(len(blob.Content)) > as.maxSizeBytes {
		return types.Validation("document %s is larger than the %d byte limit", blob.Name, as.maxSizeBytes)
	}
	return nil
}

func (as *attachmentService) StoreBlobs(ctx context.Context, actor types.ActorContext, blobs []*types.BlobUpload) ([]*types.Attachment, error) {
	for _, blob := range blobs {
		if err := as.validateBlob(blob); err != nil {
			return nil, err
		}
	}

	attachments := make([]*types.Attachment, 0, len(blobs))
	for _, blob := range blobs {
		storedAt := now()
		id := xid.New().String()
		key := utils.BlobKey(storedAt, id, blob.Name)

		written, err := as.provider.UploadBlob(ctx, as.provider.PrivateBucket(), key, bytes.NewReader(blob.Content), blob.ContentType)
		if err != nil {
			util.Log(ctx).WithError(err).WithField("key", key).Error("could not store document")
			as.DiscardBlobs(ctx, attachments...)
			return nil, err
		}

		attachments = append(attachments, &types.Attachment{
			ID:          id,
			Name:        strings.TrimSpace(blob.Name),
			BlobRef:     key,
			SizeBytes:   written,
			ContentType: blob.ContentType,
			Checksum:    utils.CreateHash(blob.Content),
			AddedBy:     actor.ActorID,
			CreatedAt:   storedAt,
		})
	}
	return attachments, nil
}

func (as *attachmentService) DiscardBlobs(ctx context.Context, attachments ...*types.Attachment) {
	for _, attachment := range attachments {
		if attachment == nil || attachment.BlobRef == "" {
			continue
		}
		err := as.provider.DeleteBlob(ctx, as.provider.PrivateBucket(), attachment.BlobRef)
		if err != nil {
			util.Log(ctx).WithError(err).WithField("key", attachment.BlobRef).Warn("could not discard document")
		}
	}
}

func (as *attachmentService) Add(ctx context.Context, actor types.ActorContext, fileID string, blobs []*types.BlobUpload) ([]*types.Attachment, error) {
	if len(blobs) == 0 {
		return nil, types.Validation("at least one document is required")
	}

	file, err := as.db.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.Status.Terminal() {
		return nil, types.InvalidTransition("file %s is %s", file.ID, file.Status)
	}
	if file.CurrentHolderID != actor.ActorID {
		return nil, types.Forbidden("only the current holder may attach documents to file %s", file.ID)
	}

	attachments, err := as.StoreBlobs(ctx, actor, blobs)
	if err != nil {
		return nil, err
	}

	if err = as.db.AddAttachments(ctx, file.ID, actor.ActorID, attachments); err != nil {
		as.DiscardBlobs(ctx, attachments...)
		return nil, err
	}

	util.Log(ctx).
		WithField("file_id", file.ID).
		WithField("count", len(attachments)).
		WithField("actor_id", actor.ActorID).
		Info("documents attached")
	return attachments, nil
}

func (as *attachmentService) Remove(ctx context.Context, actor types.ActorContext, attachmentID string) error {
	remover, err := registeredActor(ctx, as.actors, actor.ActorID)
	if err != nil {
		return err
	}
	if !as.policy.MayRemoveAttachments(remover.Role) {
		return types.Forbidden("role %s may not remove attachments", remover.Role)
	}

	attachment, err := as.db.GetAttachment(ctx, attachmentID)
	if err != nil {
		return err
	}
	if err = as.db.RemoveAttachment(ctx, attachmentID); err != nil {
		return err
	}

	util.Log(ctx).
		WithField("attachment_id", attachment.ID).
		WithField("file_id", attachment.FileID).
		WithField("blob_ref", attachment.BlobRef).
		WithField("actor_id", actor.ActorID).
		Info("attachment removed")
	return nil
}

func (as *attachmentService) download(ctx context.Context, key string) (io.Reader, func(), error) {
	reader, release, err := as.provider.DownloadBlob(ctx, as.provider.PrivateBucket(), key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, nil, types.NotFound("document %s is no longer stored", key)
		}
		return nil, nil, err
	}
	return reader, release, nil
}

func (as *attachmentService) Open(ctx context.Context, actor types.ActorContext, attachmentID string) (*types.Attachment, io.Reader, func(), error) {
	attachment, err := as.db.GetAttachment(ctx, attachmentID)
	if err != nil {
		return nil, nil, nil, err
	}
	file, err := as.db.GetFile(ctx, attachment.FileID)
	if err != nil {
		return nil, nil, nil, err
	}
	if err = mayRead(ctx, as.db, as.actors, as.policy, actor, file); err != nil {
		return nil, nil, nil, err
	}

	reader, release, err := as.download(ctx, attachment.BlobRef)
	if err != nil {
		return nil, nil, nil, err
	}
	return attachment, reader, release, nil
}

func (as *attachmentService) OpenPuc(ctx context.Context, actor types.ActorContext, fileID string) (*types.File, io.Reader, func(), error) {
	file, err := as.db.GetFile(ctx, fileID)
	if err != nil {
		return nil, nil, nil, err
	}
	if err = mayRead(ctx, as.db, as.actors, as.policy, actor, file); err != nil {
		return nil, nil, nil, err
	}

	reader, release, err := as.download(ctx, file.PucDocumentRef)
	if err != nil {
		return nil, nil, nil, err
	}
	return file, reader, release, nil
}
