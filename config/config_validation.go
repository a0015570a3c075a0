// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import "fmt"

// validate checks that the final merged [Config] satisfies all invariants
// before it is used to assemble a vault.
//
// Backend-specific fields are only required when the matching backend is
// selected: a memory vault does not need a DSN, a static identity does not
// need a sign key.
//
// Returns nil if the configuration is valid, or a descriptive error
// wrapping one of the ErrInvalid*Configs sentinels otherwise.
func (cfg *Config) validate() error {
	if cfg.Vault.KDFIterations < DefaultKDFIterations {
		return fmt.Errorf("%w: kdf iterations %d below the minimum of %d",
			ErrInvalidVaultConfigs, cfg.Vault.KDFIterations, DefaultKDFIterations)
	}
	if cfg.Vault.AutoLockTimeout < 0 {
		return fmt.Errorf("%w: negative auto-lock timeout", ErrInvalidVaultConfigs)
	}
	if cfg.Vault.ContainerKey == "" {
		return fmt.Errorf("%w: empty container key", ErrInvalidVaultConfigs)
	}

	if err := cfg.Storage.validate(); err != nil {
		return err
	}

	return cfg.Identity.validate()
}

func (s *Storage) validate() error {
	switch s.Type {
	case "memory":
	case "file", "sqlite":
		if s.Path == "" {
			return fmt.Errorf("%w: %s storage requires a path", ErrInvalidStorageConfigs, s.Type)
		}
	case "postgres":
		if s.DSN == "" {
			return fmt.Errorf("%w: postgres storage requires a dsn", ErrInvalidStorageConfigs)
		}
	case "s3":
		if s.S3.Bucket == "" {
			return fmt.Errorf("%w: s3 storage requires a bucket", ErrInvalidStorageConfigs)
		}
	default:
		return fmt.Errorf("%w: unknown storage type %q", ErrInvalidStorageConfigs, s.Type)
	}

	return nil
}

func (i *Identity) validate() error {
	switch i.Provider {
	case "static":
		if i.AccountID == "" {
			return fmt.Errorf("%w: static identity requires an account id", ErrInvalidIdentityConfigs)
		}
	case "token":
		if i.TokenSignKey == "" || i.TokenIssuer == "" {
			return fmt.Errorf("%w: token identity requires a sign key and an issuer", ErrInvalidIdentityConfigs)
		}
	case "remote":
		if i.BaseURL == "" {
			return fmt.Errorf("%w: remote identity requires a base url", ErrInvalidIdentityConfigs)
		}
	default:
		return fmt.Errorf("%w: unknown identity provider %q", ErrInvalidIdentityConfigs, i.Provider)
	}

	return nil
}
