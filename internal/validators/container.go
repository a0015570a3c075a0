package validators

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MKhiriev/passvault/models"
)

// Field name constants used to specify which parts of a container should be
// validated. These constants are passed to Validate to restrict validation
// to a subset of checks (field-level scoping).
const (
	// FieldVersion targets the container format version string.
	FieldVersion = "version"

	// FieldRecords targets the presence of the records list itself.
	FieldRecords = "records"

	// FieldRecordFields targets the per-record required fields: id, type,
	// wrapped data, and wrapped key.
	FieldRecordFields = "record_fields"
)

// allowedRecordTypes is the exhaustive set of RecordType values accepted by
// the validator. Any RecordType not present in this slice is considered
// invalid.
var allowedRecordTypes = []models.RecordType{
	models.RecordTypePassword,
	models.RecordTypeAPIKey,
	models.RecordTypeBackupCodeSet,
	models.RecordTypeNote,
}

// rawContainer mirrors models.VaultContainer with pointer fields so that an
// absent JSON key can be told apart from a present-but-empty one. Import of
// a container without a records field must be rejected, not treated as an
// import of zero records.
type rawContainer struct {
	Version *string      `json:"version"`
	Records *[]rawRecord `json:"records"`
}

type rawRecord struct {
	ID           *string               `json:"id"`
	RecordType   *models.RecordType    `json:"recordType"`
	WrappedData  *models.EncryptedBlob `json:"wrappedData"`
	WrappedKey   *models.EncryptedBlob `json:"wrappedKey"`
	LastModified int64                 `json:"lastModified"`
}

// ContainerValidator implements the Validator interface for vault container
// payloads arriving from outside the process (import files). It accepts the
// serialized form ([]byte or json.RawMessage) as well as an already-decoded
// models.VaultContainer.
type ContainerValidator struct {
}

// NewContainerValidator constructs a new ContainerValidator and returns it
// as the Validator interface.
func NewContainerValidator() Validator {
	return &ContainerValidator{}
}

// Validate dispatches validation based on the dynamic type of obj.
//
// Supported types:
//   - []byte / json.RawMessage (serialized container)
//   - models.VaultContainer / *models.VaultContainer
//
// Returns ErrUnsupportedType if obj does not match any supported form.
// Optional fields restrict validation to the named subset; when omitted,
// the full check set is applied.
func (v *ContainerValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case []byte:
		return v.validateRaw(ctx, value, fields...)
	case json.RawMessage:
		return v.validateRaw(ctx, []byte(value), fields...)

	case models.VaultContainer:
		return v.validateContainer(ctx, value, fields...)
	case *models.VaultContainer:
		return v.validateContainer(ctx, *value, fields...)

	default:
		return ErrUnsupportedType
	}
}

// KnownRecordType reports whether rt is one of the recognized RecordType
// values defined in allowedRecordTypes.
func KnownRecordType(rt models.RecordType) bool {
	for _, t := range allowedRecordTypes {
		if rt == t {
			return true
		}
	}
	return false
}

// validateRaw structurally validates a serialized container before it is
// accepted for import: the JSON must decode, the version and records fields
// must be present, and every record must carry the four required fields
// with a known record type.
//
// Returns the first encountered validation error or nil. Errors carry the
// index of the offending record where applicable.
func (v *ContainerValidator) validateRaw(ctx context.Context, data []byte, fields ...string) error {
	var raw rawContainer
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}

	if len(fields) == 0 {
		fields = []string{FieldVersion, FieldRecords, FieldRecordFields}
	}

	for _, f := range fields {
		switch f {
		case FieldVersion:
			if raw.Version == nil || *raw.Version == "" {
				return ErrMissingVersion
			}
		case FieldRecords:
			if raw.Records == nil {
				return ErrMissingRecords
			}
		case FieldRecordFields:
			if raw.Records == nil {
				return ErrMissingRecords
			}
			for i, record := range *raw.Records {
				if err := validateRawRecord(record); err != nil {
					return fmt.Errorf("record %d: %w", i, err)
				}
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func validateRawRecord(record rawRecord) error {
	if record.ID == nil || *record.ID == "" {
		return ErrMissingRecordID
	}
	if record.RecordType == nil || !KnownRecordType(*record.RecordType) {
		return ErrInvalidRecordType
	}
	if record.WrappedData == nil || len(record.WrappedData.Ciphertext) == 0 || len(record.WrappedData.IV) == 0 {
		return ErrEmptyWrappedData
	}
	if record.WrappedKey == nil || len(record.WrappedKey.Ciphertext) == 0 || len(record.WrappedKey.IV) == 0 {
		return ErrEmptyWrappedKey
	}
	return nil
}

// validateContainer applies the same per-record checks to an already-decoded
// container. Presence of the records field cannot be distinguished after
// decoding, so FieldRecords only rejects a nil slice here.
func (v *ContainerValidator) validateContainer(ctx context.Context, container models.VaultContainer, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldVersion, FieldRecords, FieldRecordFields}
	}

	for _, f := range fields {
		switch f {
		case FieldVersion:
			if container.Version == "" {
				return ErrMissingVersion
			}
		case FieldRecords:
			if container.Records == nil {
				return ErrMissingRecords
			}
		case FieldRecordFields:
			for i, record := range container.Records {
				if err := validateSecureRecord(record); err != nil {
					return fmt.Errorf("record %d: %w", i, err)
				}
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func validateSecureRecord(record models.SecureRecord) error {
	if record.ID == "" {
		return ErrMissingRecordID
	}
	if !KnownRecordType(record.RecordType) {
		return ErrInvalidRecordType
	}
	if len(record.WrappedData.Ciphertext) == 0 || len(record.WrappedData.IV) == 0 {
		return ErrEmptyWrappedData
	}
	if len(record.WrappedKey.Ciphertext) == 0 || len(record.WrappedKey.IV) == 0 {
		return ErrEmptyWrappedKey
	}
	return nil
}
