package repository

import (
	"context"

	"github.com/antinvestor/service-filemovement/apps/default/service/storage/models"
	"github.com/antinvestor/service-filemovement/apps/default/service/types"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStaleRevision is returned when a compare and swap finds a newer revision.
var ErrStaleRevision = errors.New("file revision has changed")

type FileRepository interface {
	GetByID(ctx context.Context, id string) (*models.File, error)
	// GetForShare reads the file and holds a share lock on it until the
	// surrounding transaction ends.
	GetForShare(ctx context.Context, id string) (*models.File, error)
	Create(ctx context.Context, file *models.File) error
	CompareAndSwap(ctx context.Context, file *models.File, expectedRevision int64) error
	ListMailbox(ctx context.Context, query *types.MailboxQuery) ([]*models.File, error)
	CountMailbox(ctx context.Context, holderID string, kind types.MailboxKind) (int64, error)
	CountCreatedByStatus(ctx context.Context, creatorID string) (map[string]int64, error)
}

func NewFileRepository(provider DBProvider) FileRepository {
	return &fileRepository{provider: provider}
}

type fileRepository struct {
	provider DBProvider
}

func (fr *fileRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	file := &models.File{}
	err := fr.provider.DB(ctx, true).First(file, " id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (fr *fileRepository) GetForShare(ctx context.Context, id string) (*models.File, error) {
	file := &models.File{}
	err := fr.provider.DB(ctx, false).
		Clauses(clause.Locking{Strength: "SHARE"}).
		First(file, " id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (fr *fileRepository) Create(ctx context.Context, file *models.File) error {
	return errors.Wrap(fr.provider.DB(ctx, false).Create(file).Error, "create file")
}

// CompareAndSwap writes the mutable holder and lifecycle fields only when the
// stored revision still equals expectedRevision.
func (fr *fileRepository) CompareAndSwap(ctx context.Context, file *models.File, expectedRevision int64) error {
	result := fr.provider.DB(ctx, false).
		Model(&models.File{}).
		Where("id = ? AND revision = ?", file.ID, expectedRevision).
		Updates(map[string]any{
			"status":             file.Status,
			"is_verified":        file.IsVerified,
			"current_holder_id":  file.CurrentHolderID,
			"holder_designation": file.HolderDesignation,
			"holder_department":  file.HolderDepartment,
			"revision":           file.Revision,
		})
	if result.Error != nil {
		return errors.Wrap(result.Error, "update file")
	}
	if result.RowsAffected != 1 {
		return ErrStaleRevision
	}
	return nil
}

func mailboxScope(holderID string, kind types.MailboxKind) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch kind {
		case types.MailboxDrafts:
			return db.Where("current_holder_id = ? AND creator_id = ? AND status = ?",
				holderID, holderID, string(types.StatusDraft))
		case types.MailboxOutbox:
			return db.Where("current_holder_id <> ? AND EXISTS ("+
				"SELECT 1 FROM movements m WHERE m.file_id = files.id AND m.actor_id = ? AND m.deleted_at IS NULL)",
				holderID, holderID)
		default:
			return db.Where("current_holder_id = ? AND status = ?", holderID, string(types.StatusInTransit))
		}
	}
}

func (fr *fileRepository) ListMailbox(ctx context.Context, query *types.MailboxQuery) ([]*models.File, error) {
	fileList := make([]*models.File, 0, query.Limit)

	tx := fr.provider.DB(ctx, true).
		Model(&models.File{}).
		Scopes(mailboxScope(query.HolderID, query.Kind))

	if query.After != nil {
		tx = tx.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			query.After.CreatedAt, query.After.CreatedAt, query.After.ID)
	}

	err := tx.Order("created_at DESC, id DESC").
		Limit(query.Limit).
		Find(&fileList).Error
	if err != nil {
		return nil, errors.Wrap(err, "list mailbox")
	}
	return fileList, nil
}

func (fr *fileRepository) CountMailbox(ctx context.Context, holderID string, kind types.MailboxKind) (int64, error) {
	var total int64
	err := fr.provider.DB(ctx, true).
		Model(&models.File{}).
		Scopes(mailboxScope(holderID, kind)).
		Count(&total).Error
	return total, errors.Wrap(err, "count mailbox")
}

func (fr *fileRepository) CountCreatedByStatus(ctx context.Context, creatorID string) (map[string]int64, error) {
	var rows []struct {
		Status string
		Total  int64
	}
	err := fr.provider.DB(ctx, true).
		Model(&models.File{}).
		Select("status, count(*) AS total").
		Where("creator_id = ?", creatorID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "count created files")
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}
