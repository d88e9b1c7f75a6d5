package tool

import (
	"fmt"
	"strings"

	"github.com/hupe1980/isokit/core"
)

// MemoryTools returns the built-in "remember" and "recall" tools bound to an
// iso's memory store.
func MemoryTools(store core.MemoryStore) []Tool {
	remember := NewFunctionTool(
		"remember",
		"Store a piece of information in long-term memory for later retrieval.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{
					"type":        "string",
					"description": "The information to remember.",
				},
			},
			"required": []string{"text"},
		},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			text, _ := args["text"].(string)
			if strings.TrimSpace(text) == "" {
				return nil, fmt.Errorf("text must not be empty")
			}
			id, err := store.Upsert(text, map[string]any{
				"source":  "remember",
				"turn_id": tc.TurnID(),
			})
			if err != nil {
				return nil, err
			}
			return "remembered (id: " + id + ")", nil
		},
	)

	recall := NewFunctionTool(
		"recall",
		"Search long-term memory for information relevant to a query.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "What to search memory for.",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum number of results. Default: 5.",
				},
			},
			"required": []string{"query"},
		},
		func(_ *core.ToolContext, args map[string]any) (any, error) {
			query, _ := args["query"].(string)
			limit := 5
			if v, ok := args["limit"].(float64); ok && v > 0 {
				limit = int(v)
			}
			results, err := store.Query(query, limit)
			if err != nil {
				return nil, err
			}
			if len(results) == 0 {
				return "no matching memories", nil
			}
			lines := make([]string, 0, len(results))
			for _, r := range results {
				lines = append(lines, fmt.Sprintf("(%.2f) %s", r.Score, r.Content))
			}
			return strings.Join(lines, "\n"), nil
		},
		func(o *FunctionToolOptions) { o.ParallelSafe = true },
	)

	return []Tool{remember, recall}
}
