package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/MKhiriev/passvault/logger"
	"github.com/MKhiriev/passvault/migrations"
)

// SQLiteStore is a [Store] backed by an embedded SQLite database. It is the
// durable single-machine backend: everything lives in one file, no server
// process is needed, and concurrent access from a single process is handled
// by the driver.
type SQLiteStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
	log     *logger.Logger
}

// NewSQLiteStore opens the SQLite database at path, creating the file if it
// does not yet exist, and applies pending schema migrations.
func NewSQLiteStore(ctx context.Context, path string, log *logger.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = logger.Nop()
	}

	// db will be in file
	if err := createLocalDBFileIfNotExists(path); err != nil {
		log.Err(err).Str("func", "NewSQLiteStore").Msg("error creating database file")
		return nil, fmt.Errorf("%w: error creating database file: %w", ErrStorage, err)
	}

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		log.Err(err).Str("func", "NewSQLiteStore").Msg("error connecting database")
		return nil, fmt.Errorf("%w: error opening connection to DB: %w", ErrStorage, err)
	}

	// ping database
	if err = conn.PingContext(ctx); err != nil {
		log.Err(err).Str("func", "NewSQLiteStore").Msg("error connecting database (ping)")
		conn.Close()
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	if err = migrations.Migrate(conn, migrations.DialectSQLite); err != nil {
		log.Err(err).Str("func", "NewSQLiteStore").Msg("migration failed")
		conn.Close()
		return nil, fmt.Errorf("%w: migration failed: %w", ErrStorage, err)
	}
	log.Debug().Str("func", "NewSQLiteStore").Msg("connected to database successfully")

	return &SQLiteStore{
		db:      conn,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
		log:     log,
	}, nil
}

// Get implements [Store].
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, error) {
	query, args, err := s.builder.
		Select("blob_value").
		From("vault_blobs").
		Where(sq.Eq{"blob_key": key}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("%w: build select query: %w", ErrStorage, err)
	}

	var value string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		s.log.Err(err).Str("func", "SQLiteStore.Get").Str("key", key).Msg("failed to execute query")
		return "", fmt.Errorf("%w: %w", ErrStorage, err)
	}

	return value, nil
}

// Set implements [Store]. An existing blob under the same key is replaced.
func (s *SQLiteStore) Set(ctx context.Context, key string, value string) error {
	query, args, err := s.builder.
		Insert("vault_blobs").
		Columns("blob_key", "blob_value", "updated_at").
		Values(key, value, time.Now().UnixMilli()).
		Suffix("ON CONFLICT (blob_key) DO UPDATE SET blob_value = excluded.blob_value, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: build upsert query: %w", ErrStorage, err)
	}

	if _, err = s.db.ExecContext(ctx, query, args...); err != nil {
		s.log.Err(err).Str("func", "SQLiteStore.Set").Str("key", key).Msg("failed to execute statement")
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}

	return nil
}

// Delete implements [Store].
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	query, args, err := s.builder.
		Delete("vault_blobs").
		Where(sq.Eq{"blob_key": key}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: build delete query: %w", ErrStorage, err)
	}

	if _, err = s.db.ExecContext(ctx, query, args...); err != nil {
		s.log.Err(err).Str("func", "SQLiteStore.Delete").Str("key", key).Msg("failed to execute statement")
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}

	return nil
}

// Close implements [Store].
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func createLocalDBFileIfNotExists(dbFile string) error {
	if _, err := os.Stat(dbFile); os.IsNotExist(err) {
		// if not found - create
		f, err := os.Create(dbFile)
		if err != nil {
			return fmt.Errorf("error creating DB file: %w", err)
		}
		f.Close()
	}

	// file already exists
	return nil
}
