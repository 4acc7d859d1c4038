package db

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName string
	Vector    []float32
	// K is the number of neighbors returned.
	K int
	// CandidatePool widens the runtime search frontier beyond K
	// (EF_RUNTIME). Zero leaves the engine default.
	CandidatePool int
	ReturnFields  []string
}

// Query is a raw FT query against an index. Callers are responsible for
// escaping any user input interpolated into Raw.
type Query struct {
	IndexName    string
	Raw          string
	Limit        int
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
	Scored bool
	Fields map[string]string
}
