package domain

import "errors"

var (
	// ErrHillNotFound signals a missing hill record.
	ErrHillNotFound = errors.New("hill not found")
	// ErrInvalidRequest signals a malformed or out-of-bounds client request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrModelUnavailable signals a chat model failure or timeout.
	// Always recovered inside the pipeline, never surfaced to the caller.
	ErrModelUnavailable = errors.New("chat model unavailable")
	// ErrLocationNotFound signals that a place name could not be geocoded.
	// Recovered via lexical fallback, surfaced only as a trace annotation.
	ErrLocationNotFound = errors.New("location not found")
	// ErrCorpusUnavailable signals a broken or empty hill corpus.
	ErrCorpusUnavailable = errors.New("hill corpus unavailable")
)
