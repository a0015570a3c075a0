package models

import "time"

// Stats is an aggregate view over the vault container. Computed from the
// wrapped records only; nothing is decrypted to produce it.
type Stats struct {
	// CountsByType is the number of records stored per record type.
	CountsByType map[RecordType]int

	// TotalItems is the overall number of records in the container.
	TotalItems int

	// LastModified is the most recent modification time across all
	// records; zero for an empty container.
	LastModified time.Time
}
