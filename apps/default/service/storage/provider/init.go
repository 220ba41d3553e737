package provider

import (
	"context"

	"github.com/antinvestor/service-filemovement/apps/default/config"
	"github.com/antinvestor/service-filemovement/apps/default/service/storage"
	"github.com/antinvestor/service-filemovement/apps/default/service/storage/provider/gcs"
	"github.com/antinvestor/service-filemovement/apps/default/service/storage/provider/local"
	"github.com/antinvestor/service-filemovement/apps/default/service/storage/provider/s3"
)

func GetStorageProvider(ctx context.Context, cfg *config.MovementConfig) (storage.Provider, error) {
	var provider storage.Provider
	switch cfg.StorageProvider {
	case "GCS":
		provider = gcs.NewProvider("GCS", cfg.ProviderGcsPrivateBucket)

	case "S3":
		provider = s3.NewProvider("S3", cfg.ProviderS3PrivateBucket,
			cfg.ProviderS3Endpoint, cfg.ProviderS3Region, cfg.ProviderS3AccessKeySecret,
			cfg.ProviderS3SessionToken, cfg.ProviderS3AccessKeyId)

	default:
		provider = local.NewProvider("LOCAL", cfg.LocalPrivateDirectory)
	}

	err := provider.Setup(ctx)
	return provider, err
}
