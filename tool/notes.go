package tool

import (
	"context"
	"fmt"

	"github.com/hupe1980/archivist/core"
)

// NewSaveNoteTool exposes the evidence store as a save_note capability so
// the model can pin down facts worth keeping across iterations. The
// session scope is taken from core.RunInfo on the context, which the loop
// attaches before dispatch; the shared registry stays session-free.
func NewSaveNoteTool(store core.EvidenceStore) *FunctionTool {
	return NewFunctionTool(
		"save_note",
		"Save an evidence note (a fact with its source) for later recall during this research session",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"content": map[string]any{
					"type":        "string",
					"description": "The fact to remember, including its source if available",
				},
				"source": map[string]any{
					"type":        "string",
					"description": "URL or citation the fact was taken from",
				},
			},
			"required": []string{"content"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			info, ok := core.RunInfoFromContext(ctx)
			if !ok {
				return nil, fmt.Errorf("save_note called outside a research run")
			}

			content, _ := args["content"].(string)
			if content == "" {
				return nil, fmt.Errorf("content must not be empty")
			}

			metadata := map[string]any{"run_id": info.RunID}
			if source, ok := args["source"].(string); ok && source != "" {
				metadata["source"] = source
			}

			id, err := store.Store(info.SessionID, content, metadata)
			if err != nil {
				return nil, fmt.Errorf("failed to store note: %w", err)
			}

			return map[string]any{"note_id": id}, nil
		},
	)
}

// NewSearchNotesTool exposes evidence recall as a search_notes capability.
func NewSearchNotesTool(store core.EvidenceStore) *FunctionTool {
	return NewFunctionTool(
		"search_notes",
		"Search the evidence notes saved earlier in this research session",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Keywords to look for; empty returns the most recent notes",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum number of notes to return (default 5)",
				},
			},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			info, ok := core.RunInfoFromContext(ctx)
			if !ok {
				return nil, fmt.Errorf("search_notes called outside a research run")
			}

			query, _ := args["query"].(string)

			limit := 5
			if raw, ok := args["limit"].(float64); ok && raw > 0 {
				limit = int(raw)
			}

			results, err := store.Search(info.SessionID, query, limit)
			if err != nil {
				return nil, fmt.Errorf("failed to search notes: %w", err)
			}

			notes := make([]map[string]any, 0, len(results))
			for _, r := range results {
				notes = append(notes, map[string]any{
					"note_id": r.ID,
					"content": r.Content,
				})
			}

			return map[string]any{"notes": notes}, nil
		},
	)
}
