package adapter

import (
	"strings"

	"github.com/hupe1980/isokit/core"
)

// WorkspaceAdapter summarizes the sandbox directory contents so the model
// knows what files exist before deciding on workspace tool calls. The
// listing is read into the snapshot by the loop; the adapter never touches
// the filesystem.
type WorkspaceAdapter struct {
	Base
}

// NewWorkspaceAdapter creates a workspace adapter with the given priority and tag.
func NewWorkspaceAdapter(priority int, tag string) *WorkspaceAdapter {
	return &WorkspaceAdapter{Base: NewBase("workspace", priority, tag)}
}

// BuildMessages renders the directory listing, one entry per line.
func (a *WorkspaceAdapter) BuildMessages(snap *core.Snapshot) ([]core.Message, error) {
	if len(snap.WorkspaceEntries) == 0 {
		return nil, nil
	}
	return []core.Message{core.NewMessage(core.RoleSystem, strings.Join(snap.WorkspaceEntries, "\n"))}, nil
}
