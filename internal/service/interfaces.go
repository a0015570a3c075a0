package service

import (
	"context"

	"github.com/MKhiriev/passvault/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/services_mock.go -package=mock

// BindingService implements the one-time master-password binding protocol.
// A binding ties an account identity to its key-derivation salt, is created
// exactly once, and is never rotated; the only way out is the explicitly
// gated development reset.
//
// The accountID parameter on every method is the identity of the caller as
// reported by the configured identity provider. A stored binding whose
// account does not match is treated as foreign or corrupt, never trusted.
type BindingService interface {
	// Setup performs the one-time master-password setup for accountID:
	// it checks passphrase strength, derives the key-derivation salt,
	// proves the derivation works by unlocking the session, and persists
	// the immutable binding.
	//
	// Returns ErrAlreadySet when a binding already exists, ErrWeakPassword
	// when the passphrase fails the strength policy, ErrCrypto when key
	// derivation fails.
	Setup(ctx context.Context, accountID, email, passphrase string) error

	// Unlock derives the session key from the passphrase and the stored
	// salt and proves it by unwrapping an existing record. An empty vault
	// unlocks vacuously.
	//
	// Returns ErrNoBinding when no (trustworthy) binding exists for
	// accountID; ErrInvalidPassword when the proof fails, deliberately
	// without distinguishing a wrong passphrase from corrupted data.
	Unlock(ctx context.Context, accountID, passphrase string) error

	// Status reports whether a binding exists for accountID and its
	// lifecycle timestamps. Read-only: an untrustworthy binding makes
	// Status report "not set" but is not discarded here.
	Status(ctx context.Context, accountID string) (models.BindingStatus, error)

	// Reset deletes the binding and the record container, locking the
	// session first. Only permitted when the binding-reset config flag is
	// on; otherwise ErrResetDisabled. Everything the vault stored for the
	// account is unrecoverable afterwards.
	Reset(ctx context.Context, accountID string) error
}

// RecordService is the envelope-encryption data layer: every record is
// encrypted under its own random key, which is in turn wrapped under the
// current session key inside the persisted container.
//
// Every operation requires the unlocked session and returns
// ErrVaultLocked otherwise, including the ones that decrypt nothing.
type RecordService interface {
	// Save encrypts record.Data under a brand-new record key and upserts
	// it into the container, replacing any prior record with the same
	// (ID, Type). An empty ID gets a generated one. Returns the stored
	// record: assigned ID, stamped modification time, Data as passed.
	Save(ctx context.Context, record models.Record) (models.Record, error)

	// Get decrypts and returns all records of recordType, in container
	// order. A record that fails to unwrap or decrypt is skipped and
	// counted; the int return is the number of such corrupted records.
	Get(ctx context.Context, recordType models.RecordType) ([]models.Record, int, error)

	// Update is Save restricted to an existing (ID, Type); it returns
	// ErrRecordNotFound instead of inserting. The payload is re-encrypted
	// under a fresh record key.
	Update(ctx context.Context, record models.Record) (models.Record, error)

	// Delete removes the record with the given ID and type. Deleting an
	// absent record is not an error.
	Delete(ctx context.Context, recordID string, recordType models.RecordType) error

	// DeleteMany removes all records of recordType whose ID is in
	// recordIDs. Absent IDs are ignored.
	DeleteMany(ctx context.Context, recordIDs []string, recordType models.RecordType) error

	// Stats aggregates per-type counts, the total, and the most recent
	// modification time. Nothing is decrypted.
	Stats(ctx context.Context) (models.Stats, error)

	// Export returns the serialized container, records still fully
	// encrypted, safe to hand to the user as a backup file.
	Export(ctx context.Context) ([]byte, error)

	// Import validates data structurally and applies it atomically:
	// nothing is written unless the whole container is acceptable
	// (ErrInvalidContainer otherwise). With merge true, existing
	// (ID, Type) pairs win over incoming duplicates; with merge false,
	// the container is replaced outright.
	Import(ctx context.Context, data []byte, merge bool) error
}
