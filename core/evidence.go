package core

// SearchResult represents a retrieved evidence fragment with a relevance
// score and arbitrary metadata.
type SearchResult struct {
	ID       string
	Content  string
	Score    float64
	Metadata map[string]any
}

// EvidenceStore defines persistence + retrieval for evidence fragments
// accumulated during research. Fragments are scoped by session id.
// Implementations can back Search with embeddings, keywords or any
// heuristic, and must be safe for concurrent use.
type EvidenceStore interface {
	Store(sessionID, content string, metadata map[string]any) (string, error)
	Search(sessionID, query string, limit int) ([]SearchResult, error)
	Delete(sessionID, noteID string) error
}
