package repository

import (
	"context"

	"github.com/antinvestor/service-filemovement/apps/default/service/storage/models"
	"github.com/pitabwire/frame"
)

func Migrate(ctx context.Context, svc *frame.Service, migrationPath string) error {
	return svc.MigrateDatastore(ctx, migrationPath,
		&models.File{}, &models.Attachment{}, &models.Movement{}, &models.Actor{})
}
