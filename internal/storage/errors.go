package storage

import "errors"

var (
	ErrUnreachable       = errors.New("vector store unreachable")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrInvalidLimit      = errors.New("search limit must be positive")
	ErrEmptyQuery        = errors.New("query text is empty")
)
