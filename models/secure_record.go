package models

// SecureRecord is the persisted envelope form of one vault item. The payload
// is encrypted under a record-specific key (WrappedData) and that key's raw
// bytes are in turn encrypted under the session key (WrappedKey), so every
// record can be re-keyed or discarded independently of the others.
type SecureRecord struct {
	// ID uniquely identifies the record within its type.
	ID string `json:"id"`

	// RecordType tells how the decrypted payload is to be interpreted.
	RecordType RecordType `json:"recordType"`

	// WrappedData is the payload encrypted under the record key.
	WrappedData EncryptedBlob `json:"wrappedData"`

	// WrappedKey is the record key encrypted under the session key.
	WrappedKey EncryptedBlob `json:"wrappedKey"`

	// LastModified is the Unix-millisecond timestamp of the last save.
	LastModified int64 `json:"lastModified"`
}
