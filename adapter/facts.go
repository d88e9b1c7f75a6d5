package adapter

import (
	"strings"

	"github.com/hupe1980/isokit/core"
)

// FactsAdapter contributes the iso's non-superseded facts. The snapshot is
// already capped and ordered newest-first by the loop's configured limit.
type FactsAdapter struct {
	Base
}

// NewFactsAdapter creates a facts adapter with the given priority and tag.
func NewFactsAdapter(priority int, tag string) *FactsAdapter {
	return &FactsAdapter{Base: NewBase("facts", priority, tag)}
}

// BuildMessages renders one line per fact.
func (a *FactsAdapter) BuildMessages(snap *core.Snapshot) ([]core.Message, error) {
	if len(snap.Facts) == 0 {
		return nil, nil
	}

	lines := make([]string, 0, len(snap.Facts))
	for _, f := range snap.Facts {
		lines = append(lines, f.Text)
	}
	return []core.Message{core.NewMessage(core.RoleSystem, strings.Join(lines, "\n"))}, nil
}
