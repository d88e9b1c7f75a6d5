package adapter

import (
	"fmt"
	"strings"

	"github.com/hupe1980/isokit/core"
)

// TasksAdapter contributes the iso's open tasks so the model can keep
// working toward them across turns.
type TasksAdapter struct {
	Base
	includeClosed bool
}

// NewTasksAdapter creates a tasks adapter listing open tasks only.
func NewTasksAdapter(priority int, tag string) *TasksAdapter {
	return &TasksAdapter{Base: NewBase("tasks", priority, tag)}
}

// NewTasksAdapterWithClosed creates a tasks adapter that also lists
// done/failed tasks.
func NewTasksAdapterWithClosed(priority int, tag string) *TasksAdapter {
	return &TasksAdapter{Base: NewBase("tasks", priority, tag), includeClosed: true}
}

// BuildMessages renders "[status] description" lines in insertion order.
func (a *TasksAdapter) BuildMessages(snap *core.Snapshot) ([]core.Message, error) {
	lines := make([]string, 0, len(snap.Tasks))
	for _, t := range snap.Tasks {
		if !a.includeClosed && !t.Open() {
			continue
		}
		lines = append(lines, fmt.Sprintf("[%s] %s (id: %s)", t.Status, t.Description, t.ID))
	}
	if len(lines) == 0 {
		return nil, nil
	}
	return []core.Message{core.NewMessage(core.RoleSystem, strings.Join(lines, "\n"))}, nil
}
