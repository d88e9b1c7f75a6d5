package adapter

import (
	"testing"
	"time"

	"github.com/hupe1980/isokit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactsAdapter(t *testing.T) {
	a := NewFactsAdapter(20, "facts")

	// Empty snapshot contributes nothing
	msgs, err := a.BuildMessages(&core.Snapshot{})
	require.NoError(t, err)
	assert.Empty(t, msgs)

	msgs, err = a.BuildMessages(&core.Snapshot{
		Facts: []core.Fact{
			{Text: "the sky is blue"},
			{Text: "water is wet"},
		},
	})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, core.RoleSystem, msgs[0].Role)
	assert.Equal(t, "the sky is blue\nwater is wet", msgs[0].Content)
}

func TestMemoryAdapter(t *testing.T) {
	a := NewMemoryAdapter(30, "memory")

	msgs, err := a.BuildMessages(&core.Snapshot{})
	require.NoError(t, err)
	assert.Empty(t, msgs)

	msgs, err = a.BuildMessages(&core.Snapshot{
		Memories: []core.SearchResult{
			{Content: "user prefers dark mode", Score: 0.9},
			{Content: "user lives in Berlin", Score: 0.5},
		},
	})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "user prefers dark mode\nuser lives in Berlin", msgs[0].Content)
}

func TestTasksAdapter(t *testing.T) {
	snap := &core.Snapshot{
		Tasks: []core.Task{
			{ID: "t1", Description: "write report", Status: core.TaskPending},
			{ID: "t2", Description: "old chore", Status: core.TaskDone},
		},
	}

	open := NewTasksAdapter(40, "tasks")
	msgs, err := open.BuildMessages(snap)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Content, "[pending] write report (id: t1)")
	assert.NotContains(t, msgs[0].Content, "old chore")

	withClosed := NewTasksAdapterWithClosed(40, "tasks")
	msgs, err = withClosed.BuildMessages(snap)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Content, "[done] old chore (id: t2)")

	// All tasks closed and closed excluded: no contribution
	msgs, err = open.BuildMessages(&core.Snapshot{
		Tasks: []core.Task{{ID: "t2", Description: "old chore", Status: core.TaskDone}},
	})
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestHistoryAdapter_CapacityTrim(t *testing.T) {
	a := NewHistoryAdapter(50, "history", 2)

	msgs, err := a.BuildMessages(&core.Snapshot{
		History: []core.Message{
			core.NewMessage(core.RoleUser, "one"),
			core.NewMessage(core.RoleAssistant, "two"),
			core.NewMessage(core.RoleUser, "three"),
		},
	})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "assistant: two\nuser: three", msgs[0].Content)
}

func TestTimestampAdapter(t *testing.T) {
	a := NewTimestampAdapter(10, "timestamp")

	// Zero instant contributes nothing
	msgs, err := a.BuildMessages(&core.Snapshot{})
	require.NoError(t, err)
	assert.Empty(t, msgs)

	now := time.Date(2025, time.December, 18, 14, 30, 0, 0, time.UTC)
	msgs, err = a.BuildMessages(&core.Snapshot{Now: now})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Content, "Thursday, December 18, 2025 at 02:30 PM")
}

func TestWorkspaceAdapter(t *testing.T) {
	a := NewWorkspaceAdapter(60, "workspace")

	msgs, err := a.BuildMessages(&core.Snapshot{})
	require.NoError(t, err)
	assert.Empty(t, msgs)

	msgs, err = a.BuildMessages(&core.Snapshot{
		WorkspaceEntries: []string{"docs/", "docs/plan.md", "notes.txt"},
	})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "docs/\ndocs/plan.md\nnotes.txt", msgs[0].Content)
}

func TestSystemAdapter_TemplateRendering(t *testing.T) {
	a := NewSystemAdapter(NewInstructionFromText("You assist {{.user_name}}."))

	msgs, err := a.BuildMessages(&core.Snapshot{
		State: map[string]any{"user_name": "Sam"},
	})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "You assist Sam.", msgs[0].Content)
	assert.Equal(t, "", a.Tag())
	assert.Equal(t, 0, a.Priority())
}

func TestSystemAdapter_DynamicInstruction(t *testing.T) {
	a := NewSystemAdapter(NewInstructionFromFunc(func(snap *core.Snapshot) (string, error) {
		return "iso " + snap.IsoName, nil
	}))

	msgs, err := a.BuildMessages(&core.Snapshot{IsoName: "Clu"})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "iso Clu", msgs[0].Content)
}

func TestBase_WithBestEffort(t *testing.T) {
	b := NewBase("x", 1, "x")
	assert.False(t, b.BestEffort())
	assert.True(t, b.WithBestEffort().BestEffort())
}
