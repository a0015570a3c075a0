package service

import "errors"

// Sentinel errors of the binding and record services. Callers should match
// with [errors.Is]; most of them mark a specific recoverable condition the
// embedding application is expected to branch on.
var (
	// ErrAlreadySet is returned by Setup when a master-password binding
	// already exists for the account. The binding is immutable; there is
	// nothing to update.
	ErrAlreadySet = errors.New("master password already set")

	// ErrWeakPassword is returned by Setup when the passphrase fails the
	// strength policy. Recoverable: the user picks a stronger one.
	ErrWeakPassword = errors.New("master password too weak")

	// ErrNoBinding is returned by Unlock when no trustworthy binding
	// exists for the account, signalling the UI to branch into setup.
	ErrNoBinding = errors.New("no master password binding")

	// ErrInvalidPassword is returned by Unlock when the derived key fails
	// the decryption proof. Deliberately generic: it does not distinguish
	// a wrong passphrase from corrupted data.
	ErrInvalidPassword = errors.New("invalid master password")

	// ErrCrypto is returned when key derivation or random generation
	// fails during setup. Not recoverable by retrying with another
	// passphrase.
	ErrCrypto = errors.New("cryptographic failure")

	// ErrRecordNotFound is returned by Update when no record with the
	// given ID and type exists.
	ErrRecordNotFound = errors.New("record not found")

	// ErrInvalidContainer is returned by Import when the incoming data is
	// structurally invalid. The existing container is left untouched.
	ErrInvalidContainer = errors.New("invalid container")

	// ErrResetDisabled is returned by Reset unless the development-only
	// binding-reset flag is set in the configuration.
	ErrResetDisabled = errors.New("binding reset disabled")
)
