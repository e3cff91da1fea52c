package db

import "errors"

// ErrKeyNotFound signals a cache miss.
var ErrKeyNotFound = errors.New("db: key not found")

// ErrIndexExists signals an FT.CREATE against an existing index.
var ErrIndexExists = errors.New("db: index already exists")

// ErrIndexNotFound signals an operation against a missing FT index.
var ErrIndexNotFound = errors.New("db: index not found")

// Op constants map to Redis command names for error context.
const (
	OpGet         = "GET"
	OpSet         = "SET"
	OpDel         = "DEL"
	OpHSet        = "HSET"
	OpSearch      = "FT.SEARCH"
	OpCreateIndex = "FT.CREATE"
	OpDropIndex   = "FT.DROPINDEX"
	OpIndexInfo   = "FT.INFO"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
