package models

// EncryptedBlob is a single authenticated-encryption result. Ciphertext and
// IV are kept as separate fields; the IV is generated fresh for every
// encryption call and is never reused under the same key. Byte fields are
// base64-encoded when the blob is serialized to JSON.
type EncryptedBlob struct {
	// Ciphertext is the encrypted payload including the authentication tag.
	Ciphertext []byte `json:"ciphertext"`

	// IV is the 96-bit nonce the payload was sealed with.
	IV []byte `json:"iv"`

	// Salt optionally records the key-derivation salt for blobs whose key
	// was derived from a passphrase. Wrapped record keys leave it empty.
	Salt []byte `json:"salt,omitempty"`
}
