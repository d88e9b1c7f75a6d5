package core

// SearchResult represents a retrieved memory or knowledge item with a
// relevance score and arbitrary metadata.
type SearchResult struct {
	ID       string
	Content  string
	Score    float64
	Metadata map[string]any
}
