package validators

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrMalformedJSON     = errors.New("malformed container JSON")
	ErrMissingVersion    = errors.New("container version is missing")
	ErrMissingRecords    = errors.New("container records field is missing")
	ErrMissingRecordID   = errors.New("record id is missing")
	ErrInvalidRecordType = errors.New("invalid record type")
	ErrEmptyWrappedData  = errors.New("record wrapped data is empty")
	ErrEmptyWrappedKey   = errors.New("record wrapped key is empty")

	ErrPassphraseTooShort  = errors.New("passphrase is too short")
	ErrPassphraseTooSimple = errors.New("passphrase is too simple")
)
