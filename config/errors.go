package config

import "errors"

// Validation errors returned by [Config] validation when required
// configuration groups are incomplete or invalid.
var (
	// ErrInvalidVaultConfigs indicates invalid vault policy settings
	// (for example, a KDF iteration count below the supported floor or a
	// negative auto-lock timeout).
	ErrInvalidVaultConfigs = errors.New("invalid vault configuration")
	// ErrInvalidStorageConfigs indicates invalid storage settings
	// (for example, an unknown backend type or a missing path/DSN for the
	// selected backend).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidIdentityConfigs indicates invalid identity provider settings
	// (for example, an unknown provider or a token provider without a sign
	// key).
	ErrInvalidIdentityConfigs = errors.New("invalid identity configuration")
)
