package repository

import (
	"context"
	"time"

	"github.com/antinvestor/service-filemovement/apps/default/service/storage/models"
	"github.com/pkg/errors"
	"gorm.io/gorm/clause"
)

type ActorRepository interface {
	GetByID(ctx context.Context, id string) (*models.Actor, error)
	// Save creates the actor or updates its profile fields. The PIN hash is
	// never touched here.
	Save(ctx context.Context, actor *models.Actor) error
	SetPin(ctx context.Context, id string, pinHash string) error
	List(ctx context.Context, afterID string, limit int) ([]*models.Actor, error)
}

func NewActorRepository(provider DBProvider) ActorRepository {
	return &actorRepository{provider: provider}
}

type actorRepository struct {
	provider DBProvider
}

func (ar *actorRepository) GetByID(ctx context.Context, id string) (*models.Actor, error) {
	actor := &models.Actor{}
	err := ar.provider.DB(ctx, false).First(actor, " id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return actor, nil
}

func (ar *actorRepository) Save(ctx context.Context, actor *models.Actor) error {
	err := ar.provider.DB(ctx, false).
		Omit("pin_hash", "pin_set_at").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "role", "designation", "department"}),
		}).
		Create(actor).Error
	return errors.Wrap(err, "save actor")
}

func (ar *actorRepository) SetPin(ctx context.Context, id string, pinHash string) error {
	result := ar.provider.DB(ctx, false).
		Model(&models.Actor{}).
		Where("id = ?", id).
		Updates(map[string]any{"pin_hash": pinHash, "pin_set_at": time.Now().UTC()})
	if result.Error != nil {
		return errors.Wrap(result.Error, "set actor pin")
	}
	if result.RowsAffected == 0 {
		return errors.Wrapf(errActorMissing, "actor %s", id)
	}
	return nil
}

func (ar *actorRepository) List(ctx context.Context, afterID string, limit int) ([]*models.Actor, error) {
	actorList := make([]*models.Actor, 0, limit)
	err := ar.provider.DB(ctx, true).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Find(&actorList).Error
	if err != nil {
		return nil, errors.Wrap(err, "list actors")
	}
	return actorList, nil
}

var errActorMissing = errors.New("actor not found")

// IsActorMissing reports whether SetPin found no actor to update.
func IsActorMissing(err error) bool {
	return errors.Is(err, errActorMissing)
}
