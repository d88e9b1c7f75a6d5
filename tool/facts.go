package tool

import (
	"fmt"
	"strings"

	"github.com/hupe1980/isokit/core"
)

// FactTools returns the built-in fact management tools bound to an iso's
// fact store.
func FactTools(store core.FactStore) []Tool {
	addFact := NewFunctionTool(
		"add_fact",
		"Record a new fact to remember about the user or the world.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{
					"type":        "string",
					"description": "The fact to record.",
				},
			},
			"required": []string{"text"},
		},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			text, _ := args["text"].(string)
			if strings.TrimSpace(text) == "" {
				return nil, fmt.Errorf("text must not be empty")
			}
			fact, err := store.Append(text, "tool:"+tc.TurnID())
			if err != nil {
				return nil, err
			}
			return "fact recorded (id: " + fact.ID + ")", nil
		},
	)

	supersede := NewFunctionTool(
		"supersede_fact",
		"Mark a previously recorded fact as outdated so it no longer appears in context.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id": map[string]any{
					"type":        "string",
					"description": "The id of the fact to supersede.",
				},
			},
			"required": []string{"id"},
		},
		func(_ *core.ToolContext, args map[string]any) (any, error) {
			id, _ := args["id"].(string)
			if err := store.MarkSuperseded(id); err != nil {
				return nil, err
			}
			return "fact " + id + " superseded", nil
		},
	)

	return []Tool{addFact, supersede}
}
