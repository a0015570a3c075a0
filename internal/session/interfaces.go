package session

import (
	"github.com/MKhiriev/passvault/internal/crypto"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/session_manager_mock.go -package=mock

// Manager holds the single in-memory session key for an unlocked vault. The
// key and its salt live only in process memory and are never serialized;
// locking, whether explicit or by inactivity timeout, discards them.
//
// State machine: Locked (initial) -> Unlocked -> Locked, re-enterable.
type Manager interface {
	// Unlock derives the session key from the passphrase and salt and
	// transitions to Unlocked, (re)starting the auto-lock timer. It
	// returns false on any internal derivation failure — a deliberately
	// uniform signal that carries no detail an attacker could use.
	// Whether the derived key is *correct* is not knowable here; that is
	// proven by decrypting an existing record afterwards.
	Unlock(passphrase string, salt []byte) bool

	// Lock discards the session key and salt and cancels the timer.
	// Idempotent; reports whether the state actually changed, so callers
	// can emit a lock notification exactly once.
	Lock() bool

	// IsUnlocked reports the current state.
	IsUnlocked() bool

	// Key returns the session key, or ErrVaultLocked when there is none.
	// Every successful access restarts the sliding inactivity window.
	Key() (*crypto.Key, error)
}
