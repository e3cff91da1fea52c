package health

import "context"

// StorePinger checks cache store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// CorpusChecker reports how many routes are loaded.
type CorpusChecker interface {
	Size() int
}
