package repository

import (
	"context"

	"github.com/antinvestor/service-filemovement/apps/default/service/storage/models"
	"github.com/pkg/errors"
)

type AttachmentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Attachment, error)
	ListByFile(ctx context.Context, fileID string) ([]*models.Attachment, error)
	Create(ctx context.Context, attachments ...*models.Attachment) error
	Delete(ctx context.Context, id string) error
}

func NewAttachmentRepository(provider DBProvider) AttachmentRepository {
	return &attachmentRepository{provider: provider}
}

type attachmentRepository struct {
	provider DBProvider
}

func (ar *attachmentRepository) GetByID(ctx context.Context, id string) (*models.Attachment, error) {
	attachment := &models.Attachment{}
	err := ar.provider.DB(ctx, true).First(attachment, " id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return attachment, nil
}

func (ar *attachmentRepository) ListByFile(ctx context.Context, fileID string) ([]*models.Attachment, error) {
	attachments := make([]*models.Attachment, 0)
	err := ar.provider.DB(ctx, true).
		Where("file_id = ?", fileID).
		Order("created_at ASC, id ASC").
		Find(&attachments).Error
	if err != nil {
		return nil, errors.Wrap(err, "list attachments")
	}
	return attachments, nil
}

func (ar *attachmentRepository) Create(ctx context.Context, attachments ...*models.Attachment) error {
	if len(attachments) == 0 {
		return nil
	}
	return errors.Wrap(ar.provider.DB(ctx, false).Create(attachments).Error, "create attachments")
}

// Delete removes the row outright rather than soft deleting it.
func (ar *attachmentRepository) Delete(ctx context.Context, id string) error {
	return errors.Wrap(
		ar.provider.DB(ctx, false).Unscoped().Delete(&models.Attachment{}, "id = ?", id).Error,
		"delete attachment")
}
