package db

// TextQuery is the input for a full-text FT.SEARCH.
type TextQuery struct {
	IndexName    string
	Query        string // already in FT query syntax
	TopK         int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
