package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/passvault/logger"
)

const (
	selectBlobSQL = `SELECT blob_value FROM vault_blobs WHERE blob_key = $1`
	upsertBlobSQL = `INSERT INTO vault_blobs (blob_key,blob_value,updated_at) VALUES ($1,$2,$3) ON CONFLICT (blob_key) DO UPDATE SET blob_value = EXCLUDED.blob_value, updated_at = EXCLUDED.updated_at`
	deleteBlobSQL = `DELETE FROM vault_blobs WHERE blob_key = $1`
)

func newTestPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return newPostgresStoreFromSQL(db, logger.Nop()), mock
}

func TestPostgresStore_Get(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestPostgresStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectBlobSQL)).
		WithArgs("vault:container").
		WillReturnRows(sqlmock.NewRows([]string{"blob_value"}).AddRow(`{"version":"1.0"}`))

	got, err := s.Get(ctx, "vault:container")
	require.NoError(t, err)
	assert.Equal(t, `{"version":"1.0"}`, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetNotFound(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestPostgresStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectBlobSQL)).
		WithArgs("binding:nobody").
		WillReturnError(sql.ErrNoRows)

	_, err := s.Get(ctx, "binding:nobody")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Set(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestPostgresStore(t)

	mock.ExpectExec(regexp.QuoteMeta(upsertBlobSQL)).
		WithArgs("vault:container", `{"version":"1.0"}`, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Set(ctx, "vault:container", `{"version":"1.0"}`))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Delete(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestPostgresStore(t)

	mock.ExpectExec(regexp.QuoteMeta(deleteBlobSQL)).
		WithArgs("vault:container").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Delete(ctx, "vault:container"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SetRetriesTransientFailure(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestPostgresStore(t)

	mock.ExpectExec(regexp.QuoteMeta(upsertBlobSQL)).
		WithArgs("vault:container", "{}", sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.ConnectionFailure})
	mock.ExpectExec(regexp.QuoteMeta(upsertBlobSQL)).
		WithArgs("vault:container", "{}", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Set(ctx, "vault:container", "{}"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SetDoesNotRetryConstraintViolation(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestPostgresStore(t)

	mock.ExpectExec(regexp.QuoteMeta(upsertBlobSQL)).
		WithArgs("vault:container", "{}", sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

	err := s.Set(ctx, "vault:container", "{}")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresErrorClassifier_Classify(t *testing.T) {
	classifier := NewPostgresErrorClassifier()

	tests := []struct {
		name string
		err  error
		want ErrorClassification
	}{
		{name: "nil error", err: nil, want: NonRetryable},
		{name: "plain error", err: errors.New("boom"), want: NonRetryable},
		{name: "connection failure", err: &pgconn.PgError{Code: pgerrcode.ConnectionFailure}, want: Retryable},
		{name: "deadlock detected", err: &pgconn.PgError{Code: pgerrcode.DeadlockDetected}, want: Retryable},
		{name: "serialization failure", err: &pgconn.PgError{Code: pgerrcode.SerializationFailure}, want: Retryable},
		{name: "cannot connect now", err: &pgconn.PgError{Code: pgerrcode.CannotConnectNow}, want: Retryable},
		{name: "unique violation", err: &pgconn.PgError{Code: pgerrcode.UniqueViolation}, want: NonRetryable},
		{name: "undefined table", err: &pgconn.PgError{Code: pgerrcode.UndefinedTable}, want: NonRetryable},
		{name: "syntax error", err: &pgconn.PgError{Code: pgerrcode.SyntaxError}, want: NonRetryable},
		{
			name: "wrapped pg error",
			err:  fmt.Errorf("exec: %w", &pgconn.PgError{Code: pgerrcode.ConnectionDoesNotExist}),
			want: Retryable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifier.Classify(tt.err))
		})
	}
}
