package adapter

import (
	"fmt"
	"strings"

	"github.com/hupe1980/isokit/core"
)

// HistoryAdapter replays a bounded window of the cross-turn transcript.
type HistoryAdapter struct {
	Base
	capacity int
}

// NewHistoryAdapter creates a history adapter keeping at most capacity
// transcript messages (0 means no cap beyond what the snapshot carries).
func NewHistoryAdapter(priority int, tag string, capacity int) *HistoryAdapter {
	return &HistoryAdapter{Base: NewBase("history", priority, tag), capacity: capacity}
}

// BuildMessages renders "role: content" lines for the trailing window.
func (a *HistoryAdapter) BuildMessages(snap *core.Snapshot) ([]core.Message, error) {
	msgs := snap.History
	if a.capacity > 0 && len(msgs) > a.capacity {
		msgs = msgs[len(msgs)-a.capacity:]
	}
	if len(msgs) == 0 {
		return nil, nil
	}

	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, m.Content))
	}
	return []core.Message{core.NewMessage(core.RoleSystem, strings.Join(lines, "\n"))}, nil
}
