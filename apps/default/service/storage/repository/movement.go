package repository

import (
	"context"

	"github.com/antinvestor/service-filemovement/apps/default/service/storage/models"
	"github.com/antinvestor/service-filemovement/apps/default/service/types"
	"github.com/pkg/errors"
)

// ErrSequenceGap is returned when a movement does not directly follow the last stored one.
var ErrSequenceGap = errors.New("movement sequence number is out of order")

type MovementRepository interface {
	Append(ctx context.Context, movement *models.Movement) error
	ListByFile(ctx context.Context, fileID string, afterSequence int64, limit int) ([]*models.Movement, error)
	Last(ctx context.Context, fileID string) (*models.Movement, error)
	LastForFiles(ctx context.Context, fileIDs []string) ([]*models.Movement, error)
	LastForwardTo(ctx context.Context, fileID string, receiverID string) (*models.Movement, error)
}

func NewMovementRepository(provider DBProvider) MovementRepository {
	return &movementRepository{provider: provider}
}

type movementRepository struct {
	provider DBProvider
}

// Append inserts the movement after checking it extends the sequence by one.
// The unique (file_id, sequence_number) index backs the check under races.
func (mr *movementRepository) Append(ctx context.Context, movement *models.Movement) error {
	db := mr.provider.DB(ctx, false)

	var lastSequence int64
	err := db.Model(&models.Movement{}).
		Where("file_id = ?", movement.FileID).
		Select("COALESCE(MAX(sequence_number), 0)").
		Scan(&lastSequence).Error
	if err != nil {
		return errors.Wrap(err, "read last sequence")
	}

	if movement.SequenceNumber != lastSequence+1 {
		return errors.Wrapf(ErrSequenceGap, "file %s expects %d got %d",
			movement.FileID, lastSequence+1, movement.SequenceNumber)
	}

	err = db.Create(movement).Error
	if IsUniqueViolation(err) {
		return errors.Wrapf(ErrSequenceGap, "file %s sequence %d already recorded",
			movement.FileID, movement.SequenceNumber)
	}
	return errors.Wrap(err, "append movement")
}

func (mr *movementRepository) ListByFile(ctx context.Context, fileID string, afterSequence int64, limit int) ([]*models.Movement, error) {
	movements := make([]*models.Movement, 0, limit)
	err := mr.provider.DB(ctx, true).
		Where("file_id = ? AND sequence_number > ?", fileID, afterSequence).
		Order("sequence_number ASC").
		Limit(limit).
		Find(&movements).Error
	if err != nil {
		return nil, errors.Wrap(err, "list movements")
	}
	return movements, nil
}

func (mr *movementRepository) Last(ctx context.Context, fileID string) (*models.Movement, error) {
	movement := &models.Movement{}
	err := mr.provider.DB(ctx, true).
		Where("file_id = ?", fileID).
		Order("sequence_number DESC").
		First(movement).Error
	if err != nil {
		return nil, err
	}
	return movement, nil
}

func (mr *movementRepository) LastForFiles(ctx context.Context, fileIDs []string) ([]*models.Movement, error) {
	movements := make([]*models.Movement, 0, len(fileIDs))
	if len(fileIDs) == 0 {
		return movements, nil
	}

	err := mr.provider.DB(ctx, true).
		Raw("SELECT DISTINCT ON (file_id) * FROM movements "+
			"WHERE file_id IN ? AND deleted_at IS NULL "+
			"ORDER BY file_id, sequence_number DESC", fileIDs).
		Scan(&movements).Error
	if err != nil {
		return nil, errors.Wrap(err, "last movements")
	}
	return movements, nil
}

func (mr *movementRepository) LastForwardTo(ctx context.Context, fileID string, receiverID string) (*models.Movement, error) {
	movement := &models.Movement{}
	err := mr.provider.DB(ctx, true).
		Where("file_id = ? AND action = ? AND receiver_id = ?", fileID, string(types.ActionForward), receiverID).
		Order("sequence_number DESC").
		First(movement).Error
	if err != nil {
		return nil, err
	}
	return movement, nil
}
