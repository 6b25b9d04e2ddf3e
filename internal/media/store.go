package media

import (
	"context"
	"fmt"

	"socialnest/internal/config"
)

// NewStoreFromConfig picks the backend named by MEDIA_BACKEND.
func NewStoreFromConfig(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.MediaBackend {
	case "", "local":
		return NewLocalStore(cfg.MediaDir, cfg.MediaBaseURL)
	case "s3":
		return NewS3Store(ctx, S3Options{
			Endpoint:       cfg.S3Endpoint,
			Region:         cfg.S3Region,
			Bucket:         cfg.S3Bucket,
			AccessKey:      cfg.S3AccessKey,
			SecretKey:      cfg.S3SecretKey,
			PublicURL:      cfg.S3PublicURL,
			ForcePathStyle: cfg.S3ForcePathStyle,
		})
	default:
		return nil, fmt.Errorf("unsupported MEDIA_BACKEND %q", cfg.MediaBackend)
	}
}
