package storage

import "errors"

// Sentinel errors returned by every backend. Stores never update rows, so a
// repeated key is always ErrDuplicateKey.
var (
	ErrNotFound     = errors.New("storage: record not found")
	ErrDuplicateKey = errors.New("storage: duplicate key")
	ErrInvalidInput = errors.New("storage: invalid input")
)
