// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// Defaults applied by the loader when a field is left unset by every source.
const (
	// DefaultAutoLockTimeout is the sliding inactivity window after which an
	// unlocked vault locks itself.
	DefaultAutoLockTimeout = 15 * time.Minute

	// DefaultKDFIterations is the PBKDF2 iteration count used for key
	// derivation. Configured values below this floor are rejected.
	DefaultKDFIterations = 100_000

	// DefaultContainerKey is the blob key the encrypted container is stored
	// under.
	DefaultContainerKey = "vault:container"

	// DefaultStorageType selects the in-memory backend when no storage is
	// configured.
	DefaultStorageType = "memory"

	// DefaultIdentityProvider selects the static identity provider when no
	// identity source is configured.
	DefaultIdentityProvider = "static"

	// DefaultAccountID is the account the static provider reports when none
	// is configured, giving single-user installs a working zero-config setup.
	DefaultAccountID = "local"
)

// Config is the top-level configuration container for the vault. It
// aggregates all sub-configurations and is populated by merging values from
// environment variables, an optional JSON file, and built-in defaults.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
//
// All environment lookups additionally carry the global PASSVAULT_ prefix,
// so Vault.KDFIterations, for example, reads PASSVAULT_VAULT_KDF_ITERATIONS.
type Config struct {
	// Vault holds cryptography and session policy settings.
	Vault Vault `envPrefix:"VAULT_"`

	// Storage selects and parameterises the blob persistence backend.
	Storage Storage `envPrefix:"STORAGE_"`

	// Identity selects and parameterises the identity provider.
	Identity Identity `envPrefix:"IDENTITY_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged underneath the values
	// already loaded from environment variables.
	// Populated via the PASSVAULT_CONFIG environment variable.
	JSONFilePath string `env:"CONFIG"`
}

// Vault holds the security policy knobs of the vault itself.
type Vault struct {
	// AutoLockTimeout is the sliding inactivity window after which the
	// session key is destroyed and the vault locks itself (e.g. "15m").
	// Env: PASSVAULT_VAULT_AUTO_LOCK_TIMEOUT
	AutoLockTimeout time.Duration `env:"AUTO_LOCK_TIMEOUT"`

	// KDFIterations is the PBKDF2-SHA256 iteration count for deriving the
	// session key from the master passphrase. Values below
	// [DefaultKDFIterations] fail validation.
	// Env: PASSVAULT_VAULT_KDF_ITERATIONS
	KDFIterations int `env:"KDF_ITERATIONS"`

	// ContainerKey is the blob key the encrypted record container is stored
	// under. Change it only when several vaults share one storage backend.
	// Env: PASSVAULT_VAULT_CONTAINER_KEY
	ContainerKey string `env:"CONTAINER_KEY"`

	// AllowBindingReset permits the destructive reset flow that wipes the
	// container together with the master-password binding. Off by default.
	// Env: PASSVAULT_VAULT_ALLOW_BINDING_RESET
	AllowBindingReset bool `env:"ALLOW_BINDING_RESET"`
}

// Storage selects the persistence backend and carries its settings. Only
// the fields relevant to the selected Type need to be populated.
type Storage struct {
	// Type picks the backend: "memory", "file", "sqlite", "postgres", "s3".
	// Env: PASSVAULT_STORAGE_TYPE
	Type string `env:"TYPE"`

	// Path is the filesystem location used by the "file" and "sqlite"
	// backends.
	// Env: PASSVAULT_STORAGE_PATH
	Path string `env:"PATH"`

	// DSN is the PostgreSQL connection string used by the "postgres"
	// backend.
	// Env: PASSVAULT_STORAGE_DATABASE_URI
	DSN string `env:"DATABASE_URI"`

	// S3 holds the object-store settings used by the "s3" backend.
	S3 S3 `envPrefix:"S3_"`
}

// S3 carries the settings for an S3-compatible object store.
type S3 struct {
	// Endpoint overrides the AWS endpoint, e.g. for MinIO. Empty means AWS.
	// Env: PASSVAULT_STORAGE_S3_ENDPOINT
	Endpoint string `env:"ENDPOINT"`

	// Region is the bucket region.
	// Env: PASSVAULT_STORAGE_S3_REGION
	Region string `env:"REGION"`

	// Bucket is the bucket holding the vault blobs. Must already exist.
	// Env: PASSVAULT_STORAGE_S3_BUCKET
	Bucket string `env:"BUCKET"`

	// AccessKey and SecretKey are the static credentials presented to the
	// object store.
	// Env: PASSVAULT_STORAGE_S3_ACCESS_KEY / PASSVAULT_STORAGE_S3_SECRET_KEY
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
}

// Identity selects the identity provider and carries its settings. Only the
// fields relevant to the selected Provider need to be populated.
type Identity struct {
	// Provider picks the implementation: "static", "token", "remote".
	// Env: PASSVAULT_IDENTITY_PROVIDER
	Provider string `env:"PROVIDER"`

	// AccountID and Email describe the fixed account of the "static"
	// provider.
	// Env: PASSVAULT_IDENTITY_ACCOUNT_ID / PASSVAULT_IDENTITY_EMAIL
	AccountID string `env:"ACCOUNT_ID"`
	Email     string `env:"EMAIL"`

	// TokenSignKey is the HMAC secret identity tokens are verified with.
	// Used by the "token" provider.
	// Env: PASSVAULT_IDENTITY_TOKEN_SIGN_KEY
	TokenSignKey string `env:"TOKEN_SIGN_KEY"`

	// TokenIssuer is the issuer (iss) claim identity tokens must carry.
	// Used by the "token" provider.
	// Env: PASSVAULT_IDENTITY_TOKEN_ISSUER
	TokenIssuer string `env:"TOKEN_ISSUER"`

	// BaseURL is the account server root polled by the "remote" provider.
	// Env: PASSVAULT_IDENTITY_BASE_URL
	BaseURL string `env:"BASE_URL"`

	// PollInterval is how often the "remote" provider re-reads the account
	// endpoint (e.g. "5m").
	// Env: PASSVAULT_IDENTITY_POLL_INTERVAL
	PollInterval time.Duration `env:"POLL_INTERVAL"`
}

// GetConfig loads, merges, and validates the vault configuration from all
// available sources in the following priority order (first source wins for
// fields it sets):
//  1. Environment variables
//  2. JSON file (path resolved from PASSVAULT_CONFIG)
//  3. Built-in defaults
//
// Returns a fully populated *Config or an error if any source fails to load
// or the final config fails validation.
func GetConfig() (*Config, error) {
	return newConfigBuilder().
		withEnv().
		withJSON().
		withDefaults().
		build()
}

// GetConfigFromFile behaves like [GetConfig] but reads the JSON file at
// jsonFilePath instead of resolving the path from the environment.
// Environment variables still take priority over file values.
func GetConfigFromFile(jsonFilePath string) (*Config, error) {
	return newConfigBuilder().
		withEnv().
		withJSONFile(jsonFilePath).
		withDefaults().
		build()
}
