package pipeline

import (
	"errors"
	"testing"

	"github.com/hupe1980/isokit/adapter"
	"github.com/hupe1980/isokit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingAdapter always errors from BuildMessages.
type failingAdapter struct {
	adapter.Base
}

func newFailingAdapter(name string, priority int, bestEffort bool) *failingAdapter {
	base := adapter.NewBase(name, priority, name)
	if bestEffort {
		base = base.WithBestEffort()
	}
	return &failingAdapter{Base: base}
}

func (a *failingAdapter) BuildMessages(*core.Snapshot) ([]core.Message, error) {
	return nil, errors.New("store offline")
}

// staticAdapter contributes fixed content.
type staticAdapter struct {
	adapter.Base
	content string
}

func newStaticAdapter(name string, priority int, content string) *staticAdapter {
	return &staticAdapter{Base: adapter.NewBase(name, priority, name), content: content}
}

func (a *staticAdapter) BuildMessages(*core.Snapshot) ([]core.Message, error) {
	if a.content == "" {
		return nil, nil
	}
	return []core.Message{core.NewMessage(core.RoleSystem, a.content)}, nil
}

func systemSlot(text string) adapter.Adapter {
	return adapter.NewSystemAdapter(adapter.NewInstructionFromText(text))
}

func TestAssemble_CanonicalOrder(t *testing.T) {
	a := New(systemSlot("You are a test agent."))
	a.Register(adapter.NewFactsAdapter(20, "facts"))
	a.Register(adapter.NewMemoryAdapter(30, "memory"))

	snap := &core.Snapshot{
		Facts: []core.Fact{{Text: "sky is blue"}},
		// Memories empty: the memory adapter must be omitted entirely
	}

	msgs, err := a.Assemble(snap, "what color is the sky?")
	require.NoError(t, err)
	require.Len(t, msgs, 4)

	assert.Equal(t, core.RoleSystem, msgs[0].Role)
	assert.Equal(t, "You are a test agent.", msgs[0].Content)

	assert.Equal(t, core.RoleSystem, msgs[1].Role)
	assert.Equal(t, "<facts>sky is blue</facts>", msgs[1].Content)

	assert.Equal(t, core.RoleUser, msgs[2].Role)
	assert.Equal(t, "<user>what color is the sky?</user>", msgs[2].Content)

	assert.Equal(t, core.RoleAssistant, msgs[3].Role)
	assert.Equal(t, "<assistant>", msgs[3].Content)
}

func TestAssemble_Idempotent(t *testing.T) {
	a := New(systemSlot("sys"))
	a.Register(adapter.NewFactsAdapter(20, "facts"))
	a.Register(adapter.NewTasksAdapter(40, "tasks"))

	snap := &core.Snapshot{
		Facts: []core.Fact{{Text: "f1"}, {Text: "f2"}},
		Tasks: []core.Task{{ID: "t1", Description: "d", Status: core.TaskPending}},
	}

	first, err := a.Assemble(snap, "req")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		again, err := a.Assemble(snap, "req")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestAssemble_PriorityAndNameOrdering(t *testing.T) {
	a := New(systemSlot("sys"))
	// Registered out of order; ties on priority break by name
	a.Register(newStaticAdapter("zeta", 10, "z"))
	a.Register(newStaticAdapter("alpha", 10, "a"))
	a.Register(newStaticAdapter("first", 5, "f"))

	msgs, err := a.Assemble(&core.Snapshot{}, "req")
	require.NoError(t, err)
	require.Len(t, msgs, 6)

	assert.Equal(t, "<first>f</first>", msgs[1].Content)
	assert.Equal(t, "<alpha>a</alpha>", msgs[2].Content)
	assert.Equal(t, "<zeta>z</zeta>", msgs[3].Content)
}

func TestAssemble_EmptyAdapterOmitted(t *testing.T) {
	a := New(systemSlot("sys"))
	a.Register(newStaticAdapter("empty", 10, ""))

	msgs, err := a.Assemble(&core.Snapshot{}, "req")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	for _, m := range msgs {
		assert.NotContains(t, m.Content, "<empty>")
	}
}

func TestAssemble_StrictAdapterFailure(t *testing.T) {
	a := New(systemSlot("sys"))
	a.Register(newFailingAdapter("broken", 10, false))

	_, err := a.Assemble(&core.Snapshot{}, "req")
	require.Error(t, err)

	var adapterErr *core.AdapterError
	require.True(t, errors.As(err, &adapterErr))
	assert.Equal(t, "broken", adapterErr.Adapter)
}

func TestAssemble_BestEffortAdapterSkipped(t *testing.T) {
	a := New(systemSlot("sys"))
	a.Register(newFailingAdapter("flaky", 10, true))
	a.Register(newStaticAdapter("solid", 20, "content"))

	msgs, err := a.Assemble(&core.Snapshot{}, "req")
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	for _, m := range msgs {
		assert.NotContains(t, m.Content, "<flaky>")
	}
	assert.Equal(t, "<solid>content</solid>", msgs[1].Content)
}

func TestAssemble_SystemFailureAlwaysFatal(t *testing.T) {
	a := New(adapter.NewSystemAdapter(adapter.NewInstructionFromFunc(
		func(*core.Snapshot) (string, error) {
			return "", errors.New("no instruction source")
		},
	)))

	_, err := a.Assemble(&core.Snapshot{}, "req")
	require.Error(t, err)

	var adapterErr *core.AdapterError
	require.True(t, errors.As(err, &adapterErr))
	assert.Equal(t, "system", adapterErr.Adapter)
}

func TestAssemble_CustomUserTagAndPrefix(t *testing.T) {
	a := New(systemSlot("sys"), func(o *Options) {
		o.UserTag = "request"
		o.AssistantPrefix = "<reply>"
	})

	msgs, err := a.Assemble(&core.Snapshot{}, "hi")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "<request>hi</request>", msgs[1].Content)
	assert.Equal(t, "<reply>", msgs[2].Content)
}
