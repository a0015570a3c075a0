package storage

import "errors"

// Sentinel errors returned by [Store] implementations to signal well-known
// failure conditions. Callers should use [errors.Is] to match against these
// values.
var (
	// ErrNotFound is returned by [Store.Get] when no blob exists under the
	// requested key.
	ErrNotFound = errors.New("blob not found")

	// ErrStorage wraps any backend-level failure (I/O error, lost database
	// connection, malformed persisted state). The original driver error is
	// attached to the chain and remains reachable via [errors.As].
	ErrStorage = errors.New("storage failure")
)
