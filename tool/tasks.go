package tool

import (
	"fmt"
	"strings"

	"github.com/hupe1980/isokit/core"
)

// TaskTools returns the built-in task management tools bound to an iso's
// task store. Status updates surface core.ErrInvalidTaskTransition through
// the ToolResult error so the model learns the task cannot regress.
func TaskTools(store core.TaskStore) []Tool {
	addTask := NewFunctionTool(
		"add_task",
		"Add a new pending task to the task list.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"description": map[string]any{
					"type":        "string",
					"description": "What needs to be done.",
				},
			},
			"required": []string{"description"},
		},
		func(_ *core.ToolContext, args map[string]any) (any, error) {
			description, _ := args["description"].(string)
			if strings.TrimSpace(description) == "" {
				return nil, fmt.Errorf("description must not be empty")
			}
			t, err := store.Add(description)
			if err != nil {
				return nil, err
			}
			return "task added (id: " + t.ID + ")", nil
		},
	)

	updateTask := NewFunctionTool(
		"update_task",
		"Move a task to a new status: pending, in_progress, done or failed. Statuses never regress.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id": map[string]any{
					"type":        "string",
					"description": "The id of the task to update.",
				},
				"status": map[string]any{
					"type":        "string",
					"description": "The new status.",
				},
			},
			"required": []string{"id", "status"},
		},
		func(_ *core.ToolContext, args map[string]any) (any, error) {
			id, _ := args["id"].(string)
			raw, _ := args["status"].(string)
			status := core.TaskStatus(raw)
			if !status.Valid() {
				return nil, fmt.Errorf("unknown status %q", status)
			}
			t, err := store.Transition(id, status)
			if err != nil {
				return nil, err
			}
			return fmt.Sprintf("task %s is now %s", t.ID, t.Status), nil
		},
	)

	listTasks := NewFunctionTool(
		"list_tasks",
		"List all tasks with their status and id.",
		map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		func(_ *core.ToolContext, _ map[string]any) (any, error) {
			tasks, err := store.List()
			if err != nil {
				return nil, err
			}
			if len(tasks) == 0 {
				return "no tasks", nil
			}
			lines := make([]string, 0, len(tasks))
			for _, t := range tasks {
				lines = append(lines, fmt.Sprintf("[%s] %s (id: %s)", t.Status, t.Description, t.ID))
			}
			return strings.Join(lines, "\n"), nil
		},
		func(o *FunctionToolOptions) { o.ParallelSafe = true },
	)

	return []Tool{addTask, updateTask, listTasks}
}
