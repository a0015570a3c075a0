// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"github.com/MKhiriev/passvault/models"
)

const (
	// MinIterations is the lowest PBKDF2 iteration count the keychain will
	// run. Configured values below it are raised to it.
	MinIterations = 100_000

	// DefaultIterations is the PBKDF2 iteration count used when the host
	// does not configure one.
	DefaultIterations = 100_000

	saltSize = 32
	keySize  = 32
)

// keyChainService is the private implementation of [KeyChainService].
type keyChainService struct {
	// PBKDF2 iteration count. Stored in the struct so it can be raised per
	// deployment target; derived keys are only interchangeable between
	// keychains configured with the same count.
	iterations int
}

// NewKeyChainService constructs a [KeyChainService] running PBKDF2-SHA256
// with the given iteration count. Counts below [MinIterations] (including
// zero for "use the default") are raised to the minimum; the derived key
// length is fixed at 32 bytes (256 bits, AES-256).
func NewKeyChainService(iterations int) KeyChainService {
	if iterations < MinIterations {
		iterations = DefaultIterations
	}
	return &keyChainService{iterations: iterations}
}

// DeriveKey implements [KeyChainService]. With an empty salt it first reads
// 32 random bytes from the OS CSPRNG. The passphrase and salt are then
// stretched with PBKDF2-SHA256 into a 256-bit key that exists only in
// process memory.
func (k *keyChainService) DeriveKey(passphrase string, salt []byte) (*Key, []byte, error) {
	if len(salt) == 0 {
		salt = make([]byte, saltSize)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return nil, nil, fmt.Errorf("generate salt: %w", err)
		}
	}

	raw := pbkdf2.Key([]byte(passphrase), salt, k.iterations, keySize, sha256.New)
	return newKey(raw), salt, nil
}

// GenerateRecordKey implements [KeyChainService]. It reads 32 random bytes
// from the OS CSPRNG and returns them as a fresh record key. Returns an
// error if the random read fails.
func (k *keyChainService) GenerateRecordKey() (*Key, error) {
	raw := make([]byte, keySize)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return nil, fmt.Errorf("generate record key: %w", err)
	}
	return newKey(raw), nil
}

// Encrypt implements [KeyChainService]. It seals plaintext with AES-256-GCM
// under key. A random 12-byte IV is generated per call and returned in the
// blob's own field, next to the ciphertext rather than prepended to it, so
// the persisted format keeps the two values separate.
func (k *keyChainService) Encrypt(plaintext []byte, key *Key) (models.EncryptedBlob, error) {
	if !key.valid() {
		return models.EncryptedBlob{}, ErrInvalidKey
	}

	gcm, err := newGCM(key.raw)
	if err != nil {
		return models.EncryptedBlob{}, err
	}

	iv := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return models.EncryptedBlob{}, fmt.Errorf("generate iv: %w", err)
	}

	return models.EncryptedBlob{
		Ciphertext: gcm.Seal(nil, iv, plaintext, nil),
		IV:         iv,
	}, nil
}

// Decrypt implements [KeyChainService]. It opens a blob produced by
// [keyChainService.Encrypt]. The IV must be exactly the GCM nonce size.
// Returns the plaintext, or [ErrDecryptionFailed] if the IV length is wrong,
// the key is wrong, or the ciphertext is corrupted (authentication-tag
// mismatch). An error here almost always means the user entered the wrong
// master passphrase, producing a wrong session key.
func (k *keyChainService) Decrypt(blob models.EncryptedBlob, key *Key) ([]byte, error) {
	if !key.valid() {
		return nil, ErrInvalidKey
	}

	gcm, err := newGCM(key.raw)
	if err != nil {
		return nil, err
	}

	// gcm.Open panics on a wrong-size nonce, so the length is checked here
	// and reported as a normal decryption failure.
	if len(blob.IV) != gcm.NonceSize() {
		return nil, fmt.Errorf("%w: bad iv length %d", ErrDecryptionFailed, len(blob.IV))
	}

	plaintext, err := gcm.Open(nil, blob.IV, blob.Ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	return plaintext, nil
}

// WrapKey implements [KeyChainService]. It encrypts the record key's raw
// bytes under the session key. This is the only path on which key material
// crosses the package boundary, and it crosses it encrypted.
func (k *keyChainService) WrapKey(recordKey, sessionKey *Key) (models.EncryptedBlob, error) {
	if !recordKey.valid() {
		return models.EncryptedBlob{}, ErrInvalidKey
	}
	return k.Encrypt(recordKey.raw, sessionKey)
}

// UnwrapKey implements [KeyChainService]. It unwraps a blob produced by
// [keyChainService.WrapKey] and returns a usable record-key handle. A blob
// that opens but does not contain exactly 32 bytes is rejected as invalid.
func (k *keyChainService) UnwrapKey(blob models.EncryptedBlob, sessionKey *Key) (*Key, error) {
	raw, err := k.Decrypt(blob, sessionKey)
	if err != nil {
		return nil, err
	}
	if len(raw) != keySize {
		return nil, fmt.Errorf("%w: unwrapped %d bytes", ErrInvalidKey, len(raw))
	}
	return newKey(raw), nil
}

func newGCM(raw []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(raw)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}

	return gcm, nil
}
