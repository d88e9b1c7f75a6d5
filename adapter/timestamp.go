package adapter

import (
	"fmt"

	"github.com/hupe1980/isokit/core"
)

// timestampLayout matches the human-readable format the model is prompted
// with, e.g. "Thursday, December 18, 2025 at 02:30 PM".
const timestampLayout = "Monday, January 2, 2006 at 03:04 PM"

// TimestampAdapter contributes the current wall-clock time. It reads the
// instant from the snapshot, which keeps assembly idempotent for an
// unchanged snapshot and makes the adapter trivially testable.
type TimestampAdapter struct {
	Base
}

// NewTimestampAdapter creates a timestamp adapter with the given priority and tag.
func NewTimestampAdapter(priority int, tag string) *TimestampAdapter {
	return &TimestampAdapter{Base: NewBase("timestamp", priority, tag)}
}

// BuildMessages renders the snapshot instant.
func (a *TimestampAdapter) BuildMessages(snap *core.Snapshot) ([]core.Message, error) {
	if snap.Now.IsZero() {
		return nil, nil
	}
	content := fmt.Sprintf("The current date and time is:\n%s", snap.Now.Format(timestampLayout))
	return []core.Message{core.NewMessage(core.RoleSystem, content)}, nil
}
