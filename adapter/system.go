package adapter

import (
	"fmt"

	"github.com/hupe1980/isokit/core"
	"github.com/hupe1980/isokit/internal/util"
)

// SystemAdapter fills the fixed system slot of the pipeline. Its messages
// are emitted unwrapped and first, ahead of every tag-wrapped adapter. The
// instruction may reference snapshot state through template variables
// ({{.user_name}} etc.).
type SystemAdapter struct {
	Base
	instruction Instruction
}

// NewSystemAdapter creates the system-slot adapter.
func NewSystemAdapter(instruction Instruction) *SystemAdapter {
	return &SystemAdapter{
		Base:        NewBase("system", 0, ""),
		instruction: instruction,
	}
}

// BuildMessages resolves and renders the instruction into a single
// system-role message.
func (a *SystemAdapter) BuildMessages(snap *core.Snapshot) ([]core.Message, error) {
	text, err := a.instruction.Resolve(snap)
	if err != nil {
		return nil, fmt.Errorf("resolve instruction: %w", err)
	}

	if snap != nil && snap.State != nil {
		text, err = util.RenderTemplate(text, snap.State)
		if err != nil {
			return nil, fmt.Errorf("render instruction: %w", err)
		}
	}

	if text == "" {
		return nil, nil
	}
	return []core.Message{core.NewMessage(core.RoleSystem, text)}, nil
}
