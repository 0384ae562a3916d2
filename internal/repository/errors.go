package repository

import "errors"

var (
	// ErrNotFound is returned by single-row reads with no match.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateKey is returned when a strict insert hits an existing key.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrInvalidInput is returned for rows rejected before any write.
	ErrInvalidInput = errors.New("invalid input")
)
