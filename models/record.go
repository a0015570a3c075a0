package models

import (
	"encoding/json"
	"time"
)

// Record is the plaintext view of a vault item. It exists only in process
// memory: saving encrypts Data into a SecureRecord, reading decrypts a
// SecureRecord back into a Record. It is never serialized as-is.
type Record struct {
	// ID uniquely identifies the record within its type. Left empty on
	// save, an ID is assigned automatically.
	ID string

	// Type determines the payload shape (see the *Data structs).
	Type RecordType

	// Data is the secret payload. On save it may be any JSON-marshalable
	// value; records returned from a read carry it as json.RawMessage.
	Data any

	// LastModified is the time of the last save.
	LastModified time.Time
}

// DecodeData unmarshals the record payload into v. It accepts both records
// returned from a read (raw JSON) and records built by the caller.
func (r Record) DecodeData(v any) error {
	raw, ok := r.Data.(json.RawMessage)
	if !ok {
		encoded, err := json.Marshal(r.Data)
		if err != nil {
			return err
		}
		raw = encoded
	}

	return json.Unmarshal(raw, v)
}
