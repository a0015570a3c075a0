// Package storage provides pluggable blob persistence for the vault.
//
// Every value handled by this package is an opaque string produced by the
// service layer: either a serialized encrypted container or a serialized
// master-password binding. Adapters never inspect, parse, or index blob
// contents; they only move bytes keyed by a caller-chosen string. This keeps
// the zero-knowledge property of the vault intact regardless of where the
// blobs physically live.
//
// Five backends are available out of the box:
//   - [MemoryStore] — process-local map, used in tests and ephemeral setups;
//   - [FileStore] — single JSON document on the local filesystem;
//   - [SQLiteStore] — embedded SQLite database for desktop installs;
//   - [PostgresStore] — shared PostgreSQL database for multi-device setups;
//   - [S3Store] — S3-compatible object storage (AWS, MinIO).
//
// Use [New] to construct the backend selected by configuration, or the
// individual constructors for direct wiring.
package storage

//go:generate mockgen -source=storage.go -destination=../internal/mock/store_mock.go -package=mock

import "context"

// Backend identifiers accepted by [New] via the storage configuration.
const (
	TypeMemory   = "memory"
	TypeFile     = "file"
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
	TypeS3       = "s3"
)

// Store is the persistence contract the vault service layer depends on.
// Implementations must be safe for concurrent use.
//
// Keys are flat strings chosen by the caller (e.g. "vault:container",
// "binding:user-42"); adapters must treat them as opaque identifiers.
type Store interface {
	// Get returns the blob stored under key. If no blob exists under key,
	// [ErrNotFound] is returned.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous blob.
	Set(ctx context.Context, key string, value string) error

	// Delete removes the blob stored under key. Deleting a key that does
	// not exist is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the adapter (connections, file
	// handles). The Store must not be used after Close returns.
	Close() error
}
