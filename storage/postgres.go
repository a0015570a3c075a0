package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/MKhiriev/passvault/logger"
	"github.com/MKhiriev/passvault/migrations"
)

// retryAttempts bounds how many times a statement is re-issued after a
// transient PostgreSQL failure (connection loss, serialization conflict).
const retryAttempts = 3

// PostgresStore is a [Store] backed by a shared PostgreSQL database, the
// backend of choice when several devices point at the same vault. Transient
// driver errors are classified via [PostgresErrorClassifier] and retried a
// bounded number of times before surfacing to the caller.
type PostgresStore struct {
	db                 *sql.DB
	builder            sq.StatementBuilderType
	errorClassificator *PostgresErrorClassifier
	log                *logger.Logger
}

// NewPostgresStore connects to the PostgreSQL instance described by dsn,
// verifies the connection with a ping, and applies pending schema migrations.
func NewPostgresStore(ctx context.Context, dsn string, log *logger.Logger) (*PostgresStore, error) {
	if log == nil {
		log = logger.Nop()
	}

	// establish connection
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Err(err).Str("func", "NewPostgresStore").Msg("error occured during database connection")
		return nil, fmt.Errorf("%w: error occured during database connection: %w", ErrStorage, err)
	}

	// setup connections
	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(4)

	// ping database
	if err = conn.PingContext(ctx); err != nil {
		log.Err(err).Str("func", "NewPostgresStore").Msg("error connecting database (ping)")
		conn.Close()
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	if err = migrations.Migrate(conn, migrations.DialectPostgres); err != nil {
		log.Err(err).Str("func", "NewPostgresStore").Msg("migration failed")
		conn.Close()
		return nil, fmt.Errorf("%w: migration failed: %w", ErrStorage, err)
	}
	log.Info().Str("func", "NewPostgresStore").Msg("connected to database successfully")

	return newPostgresStoreFromSQL(conn, log), nil
}

// newPostgresStoreFromSQL wires a PostgresStore around an already open
// connection. Migrations are not run.
func newPostgresStoreFromSQL(conn *sql.DB, log *logger.Logger) *PostgresStore {
	return &PostgresStore{
		db:                 conn,
		builder:            sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		errorClassificator: NewPostgresErrorClassifier(),
		log:                log,
	}
}

// Get implements [Store].
func (s *PostgresStore) Get(ctx context.Context, key string) (string, error) {
	query, args, err := s.builder.
		Select("blob_value").
		From("vault_blobs").
		Where(sq.Eq{"blob_key": key}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("%w: build select query: %w", ErrStorage, err)
	}

	var value string
	err = s.withRetry(ctx, func() error {
		return s.db.QueryRowContext(ctx, query, args...).Scan(&value)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		s.log.Err(err).Str("func", "PostgresStore.Get").Str("key", key).Msg("failed to execute query")
		return "", fmt.Errorf("%w: %w", ErrStorage, err)
	}

	return value, nil
}

// Set implements [Store]. An existing blob under the same key is replaced.
func (s *PostgresStore) Set(ctx context.Context, key string, value string) error {
	query, args, err := s.builder.
		Insert("vault_blobs").
		Columns("blob_key", "blob_value", "updated_at").
		Values(key, value, time.Now().UnixMilli()).
		Suffix("ON CONFLICT (blob_key) DO UPDATE SET blob_value = EXCLUDED.blob_value, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: build upsert query: %w", ErrStorage, err)
	}

	err = s.withRetry(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx, query, args...)
		return execErr
	})
	if err != nil {
		s.log.Err(err).Str("func", "PostgresStore.Set").Str("key", key).Msg("failed to execute statement")
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}

	return nil
}

// Delete implements [Store].
func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	query, args, err := s.builder.
		Delete("vault_blobs").
		Where(sq.Eq{"blob_key": key}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: build delete query: %w", ErrStorage, err)
	}

	err = s.withRetry(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx, query, args...)
		return execErr
	})
	if err != nil {
		s.log.Err(err).Str("func", "PostgresStore.Delete").Str("key", key).Msg("failed to execute statement")
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}

	return nil
}

// Close implements [Store].
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// withRetry runs op, re-issuing it after a short growing pause while the
// classifier reports the failure as [Retryable]. Non-retryable errors and
// context cancellation are returned immediately.
func (s *PostgresStore) withRetry(ctx context.Context, op func() error) error {
	var err error

	for attempt := 1; attempt <= retryAttempts; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if s.errorClassificator.Classify(err) != Retryable {
			return err
		}

		s.log.Warn().
			Str("func", "PostgresStore.withRetry").
			Int("attempt", attempt).
			Msg("retryable database error")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
		}
	}

	return err
}
