package crypto

import "errors"

// Sentinel errors returned by [KeyChainService] implementations.
// Callers should use [errors.Is] to test for them.
var (
	// ErrDecryptionFailed indicates that an authenticated decryption did
	// not verify: the key is wrong or the blob was tampered with. The two
	// causes are deliberately not distinguished.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrInvalidKey indicates that a key handle is nil, destroyed, or of
	// the wrong length for AES-256.
	ErrInvalidKey = errors.New("invalid or destroyed key")
)
