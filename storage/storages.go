package storage

import (
	"context"
	"fmt"

	"github.com/MKhiriev/passvault/config"
	"github.com/MKhiriev/passvault/logger"
)

// New initialises the storage backend selected by cfg.Type and returns it
// behind the [Store] interface. It performs the following steps:
//  1. Matches cfg.Type against the Type* constants.
//  2. Opens the backend (creating files and applying schema migrations
//     where the backend needs them).
//  3. Verifies connectivity for the networked backends.
//
// Returns an error if cfg.Type is unknown or the backend cannot be opened.
func New(ctx context.Context, cfg config.Storage, log *logger.Logger) (Store, error) {
	if log == nil {
		log = logger.Nop()
	}
	log.Info().Str("func", "New").Str("type", cfg.Type).Msg("creating new storage...")

	switch cfg.Type {
	case TypeMemory, "":
		return NewMemoryStore(), nil

	case TypeFile:
		return NewFileStore(cfg.Path, log)

	case TypeSQLite:
		return NewSQLiteStore(ctx, cfg.Path, log)

	case TypePostgres:
		return NewPostgresStore(ctx, cfg.DSN, log)

	case TypeS3:
		return NewS3Store(ctx, S3Config{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			Bucket:    cfg.S3.Bucket,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
		}, log)

	default:
		return nil, fmt.Errorf("unknown storage type: %q", cfg.Type)
	}
}
