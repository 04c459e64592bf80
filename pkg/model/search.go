package model

// Hit is a single retrieved chunk with its metadata and distance from the
// query embedding. Smaller distances mean closer matches.
type Hit struct {
	Document string
	Metadata map[string]any
	Distance float64
}

// SearchResult carries either retrieved hits or an error message intended
// for the model, never both.
type SearchResult struct {
	Hits []Hit
	Err  string
}

// ErrorResult wraps a message the model should see instead of hits.
func ErrorResult(msg string) *SearchResult {
	return &SearchResult{Err: msg}
}

// IsEmpty reports whether the search produced neither hits nor an error.
func (x *SearchResult) IsEmpty() bool {
	return x.Err == "" && len(x.Hits) == 0
}

// Citation is a source reference shown to the user alongside an answer.
type Citation struct {
	Label string `json:"text"`
	Link  string `json:"link,omitempty"`
}
