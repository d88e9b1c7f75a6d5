package adapter

import (
	"strings"

	"github.com/hupe1980/isokit/core"
)

// MemoryAdapter contributes the ranked vector-store results fetched for the
// current request. The query itself ran during the snapshot read, so
// BuildMessages is a pure local read.
type MemoryAdapter struct {
	Base
}

// NewMemoryAdapter creates a memory adapter with the given priority and tag.
func NewMemoryAdapter(priority int, tag string) *MemoryAdapter {
	return &MemoryAdapter{Base: NewBase("memory", priority, tag)}
}

// BuildMessages renders one line per retrieved chunk, ranked order preserved.
func (a *MemoryAdapter) BuildMessages(snap *core.Snapshot) ([]core.Message, error) {
	return resultsMessage(snap.Memories)
}

// KnowledgeAdapter contributes ranked knowledge-base results. Identical in
// shape to MemoryAdapter but reads the Knowledge slice, which is fed by the
// ingestion pipeline rather than by "remember" tool calls.
type KnowledgeAdapter struct {
	Base
}

// NewKnowledgeAdapter creates a knowledge adapter with the given priority and tag.
func NewKnowledgeAdapter(priority int, tag string) *KnowledgeAdapter {
	return &KnowledgeAdapter{Base: NewBase("knowledge", priority, tag)}
}

// BuildMessages renders one line per retrieved chunk, ranked order preserved.
func (a *KnowledgeAdapter) BuildMessages(snap *core.Snapshot) ([]core.Message, error) {
	return resultsMessage(snap.Knowledge)
}

func resultsMessage(results []core.SearchResult) ([]core.Message, error) {
	if len(results) == 0 {
		return nil, nil
	}
	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, r.Content)
	}
	return []core.Message{core.NewMessage(core.RoleSystem, strings.Join(lines, "\n"))}, nil
}
