package crypto

import "github.com/MKhiriev/passvault/models"

//go:generate mockgen -source=interfaces.go -destination=../mock/keychain_service_mock.go -package=mock

// KeyChainService owns all key material handling for the zero-knowledge
// vault. It knows nothing about storage, sessions, or accounts; its only job
// is deriving, generating, and protecting keys.
//
// Envelope scheme:
//
//	sessionKey, salt = DeriveKey(passphrase, salt)    (unlock)
//	recordKey        = GenerateRecordKey()            (per save)
//	wrappedData      = Encrypt(payload, recordKey)
//	wrappedKey       = WrapKey(recordKey, sessionKey)
type KeyChainService interface {
	// DeriveKey derives a 256-bit key from the passphrase and salt with
	// PBKDF2-SHA256. A nil or empty salt means "generate a fresh 32-byte
	// salt"; the salt actually used is always returned. Derivation is
	// deterministic for identical passphrase and salt. The salt is not a
	// secret — it is persisted openly inside the master-password binding.
	DeriveKey(passphrase string, salt []byte) (*Key, []byte, error)

	// GenerateRecordKey returns a fresh random 256-bit key, independent
	// per call. One is generated for every record save and never reused
	// across record versions.
	GenerateRecordKey() (*Key, error)

	// Encrypt seals plaintext under key with AES-256-GCM using a fresh
	// random 96-bit IV. Ciphertext and IV are returned as separate blob
	// fields; the IV is never reused under the same key.
	Encrypt(plaintext []byte, key *Key) (models.EncryptedBlob, error)

	// Decrypt opens a blob produced by Encrypt. It fails with
	// [ErrDecryptionFailed] when the key is wrong or the blob was
	// tampered with — it never returns unauthenticated plaintext.
	Decrypt(blob models.EncryptedBlob, key *Key) ([]byte, error)

	// WrapKey encrypts the record key's raw bytes under the session key.
	// The wrapped form is safe to persist: without the session key it is
	// indistinguishable from random noise.
	WrapKey(recordKey, sessionKey *Key) (models.EncryptedBlob, error)

	// UnwrapKey reverses WrapKey, returning a usable record-key handle.
	// Fails with [ErrDecryptionFailed] under a wrong session key.
	UnwrapKey(blob models.EncryptedBlob, sessionKey *Key) (*Key, error)
}
