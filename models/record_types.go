// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// RecordType defines the semantic type of an encrypted vault record.
// The value is persisted verbatim inside the vault container and
// determines how the decrypted payload must be interpreted.
type RecordType string

const (
	// RecordTypePassword represents website or application credentials.
	RecordTypePassword RecordType = "password"

	// RecordTypeAPIKey represents a service API key or token.
	RecordTypeAPIKey RecordType = "api_key"

	// RecordTypeBackupCodeSet represents a set of one-time recovery codes
	// issued by a service when two-factor authentication is enabled.
	RecordTypeBackupCodeSet RecordType = "backup_code_set"

	// RecordTypeNote represents free-form secret text.
	RecordTypeNote RecordType = "note"
)

// PasswordData is the decrypted payload of a RecordTypePassword record.
type PasswordData struct {
	// Site is the website or application the credentials belong to.
	Site string `json:"site"`

	// Login is the account identifier used to sign in.
	Login string `json:"login,omitempty"`

	// Secret is the password itself.
	Secret string `json:"secret"`

	// Notes holds optional free-form remarks.
	Notes string `json:"notes,omitempty"`
}

// APIKeyData is the decrypted payload of a RecordTypeAPIKey record.
type APIKeyData struct {
	// Service is the provider the key was issued by.
	Service string `json:"service"`

	// KeyID is the non-secret identifier of the key, when the provider
	// issues key pairs (e.g. access key id / secret access key).
	KeyID string `json:"keyId,omitempty"`

	// Secret is the key material itself.
	Secret string `json:"secret"`

	// Notes holds optional free-form remarks.
	Notes string `json:"notes,omitempty"`
}

// BackupCodeSetData is the decrypted payload of a RecordTypeBackupCodeSet
// record.
type BackupCodeSetData struct {
	// Service is the provider that issued the recovery codes.
	Service string `json:"service"`

	// Codes are the one-time recovery codes, unused ones included.
	Codes []string `json:"codes"`
}

// NoteData is the decrypted payload of a RecordTypeNote record.
type NoteData struct {
	// Title is the display name of the note.
	Title string `json:"title"`

	// Body is the secret text.
	Body string `json:"body"`
}
