// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// MasterPasswordBinding links an account identity to its key-derivation
// salt. It is created exactly once per account and never updated afterwards
// except to refresh LastUsedTimestamp on a successful unlock; there is no
// rotation path. The binding holds no secret material: the salt is public
// by design, and nothing derived from the passphrase is stored.
type MasterPasswordBinding struct {
	// AccountID is the external identity the binding belongs to. A loaded
	// binding whose AccountID differs from the requesting account is
	// treated as foreign or corrupt and discarded.
	AccountID string `json:"accountId"`

	// Email of the account at setup time, kept for display purposes.
	Email string `json:"email"`

	// Salt is the 32-byte key-derivation salt fixed at setup.
	Salt []byte `json:"salt"`

	// SetupTimestamp is the Unix-millisecond time of the one-time setup.
	SetupTimestamp int64 `json:"setupTimestamp"`

	// LastUsedTimestamp is the Unix-millisecond time of the last
	// successful unlock.
	LastUsedTimestamp int64 `json:"lastUsedTimestamp"`

	// Immutable is always true; the field is persisted to make the
	// contract explicit in the stored form.
	Immutable bool `json:"immutable"`
}

// BindingStatus is the read-only projection of a binding's lifecycle,
// safe to show in a UI.
type BindingStatus struct {
	// IsSet reports whether a binding exists for the account.
	IsSet bool

	// SetupTime is the time of the one-time setup; zero when IsSet is
	// false.
	SetupTime time.Time

	// LastUsedTime is the time of the last successful unlock; zero when
	// IsSet is false.
	LastUsedTime time.Time
}
