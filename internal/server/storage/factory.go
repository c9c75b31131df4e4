package storage

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/dmitrijs2005/ingestgate/internal/server/config"
)

// New builds the Writer selected by cfg.StorageBackend.
func New(ctx context.Context, cfg *config.Config) (Writer, error) {
	switch cfg.StorageBackend {
	case config.StorageWebHDFS:
		return NewWebHDFS(cfg.HDFSURL, cfg.HDFSUser, nil), nil
	case config.StorageS3:
		w, err := NewS3(ctx, S3Options{
			Region:       cfg.S3Region,
			AccessKey:    cfg.S3RootUser,
			SecretKey:    cfg.S3RootPassword,
			BaseEndpoint: cfg.S3BaseEndpoint,
			Bucket:       cfg.S3Bucket,
		})
		if err != nil {
			return nil, err
		}
		return w, nil
	case config.StorageMinio:
		w, err := NewMinio(MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.S3RootUser,
			SecretKey: cfg.S3RootPassword,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			return nil, err
		}
		return w, nil
	case config.StorageLocal:
		return NewLocal(cfg.LocalRoot), nil
	default:
		return nil, errors.Newf("unknown storage backend %q", cfg.StorageBackend)
	}
}
