package evidence

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/archivist/core"
)

// storedNote is the internal representation persisted by InMemoryStore.
type storedNote struct {
	id       string
	seq      int
	content  string
	metadata map[string]any
}

// InMemoryStore is a process-local core.EvidenceStore. It keeps
// append-only evidence notes per session and answers Search with a
// case-insensitive substring scan, newest first. Suitable for tests and
// single-process runs; swap for a vector index for semantic retrieval.
//
// Concurrency: protected by RWMutex.
type InMemoryStore struct {
	mu    sync.RWMutex
	notes map[string]map[string]storedNote // sessionID -> noteID -> note
	seq   map[string]int                   // sessionID -> next sequence number
}

// NewInMemoryStore creates an empty in-memory evidence store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		notes: make(map[string]map[string]storedNote),
		seq:   make(map[string]int),
	}
}

// Store appends a new evidence note and returns its generated id.
func (s *InMemoryStore) Store(sessionID, content string, metadata map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.notes[sessionID]; !exists {
		s.notes[sessionID] = make(map[string]storedNote)
	}

	seq := s.seq[sessionID]
	s.seq[sessionID] = seq + 1

	md := make(map[string]any, len(metadata))
	for k, v := range metadata {
		md[k] = v
	}

	id := fmt.Sprintf("note_%d", seq)
	s.notes[sessionID][id] = storedNote{id: id, seq: seq, content: content, metadata: md}

	return id, nil
}

// Search performs a case-insensitive substring match over the session's
// notes. Results are ordered newest first up to the provided limit; an
// empty query matches everything. Each hit receives a constant score of
// 1.0.
func (s *InMemoryStore) Search(sessionID, query string, limit int) ([]core.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessionNotes, exists := s.notes[sessionID]
	if !exists {
		return []core.SearchResult{}, nil
	}

	needle := strings.ToLower(query)

	matched := make([]storedNote, 0, len(sessionNotes))
	for _, note := range sessionNotes {
		if needle == "" || strings.Contains(strings.ToLower(note.content), needle) {
			matched = append(matched, note)
		}
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].seq > matched[j].seq })

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	results := make([]core.SearchResult, 0, len(matched))
	for _, note := range matched {
		md := make(map[string]any, len(note.metadata))
		for k, v := range note.metadata {
			md[k] = v
		}
		results = append(results, core.SearchResult{ID: note.id, Content: note.content, Score: 1.0, Metadata: md})
	}

	return results, nil
}

// Delete removes a note by id.
func (s *InMemoryStore) Delete(sessionID, noteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessionNotes, exists := s.notes[sessionID]
	if !exists {
		return fmt.Errorf("note not found")
	}
	if _, exists := sessionNotes[noteID]; !exists {
		return fmt.Errorf("note not found")
	}

	delete(sessionNotes, noteID)

	return nil
}
