package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleSystem.Valid())
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleAssistant.Valid())
	assert.False(t, Role("tool").Valid())
	assert.False(t, Role("").Valid())
}

func TestNewMessage_PanicsOnInvalidRole(t *testing.T) {
	assert.Panics(t, func() {
		NewMessage(Role("function"), "x")
	})
}

func TestTaskStatus_CanTransitionTo(t *testing.T) {
	// Forward transitions
	assert.True(t, TaskPending.CanTransitionTo(TaskInProgress))
	assert.True(t, TaskPending.CanTransitionTo(TaskDone))
	assert.True(t, TaskInProgress.CanTransitionTo(TaskDone))
	assert.True(t, TaskInProgress.CanTransitionTo(TaskFailed))

	// Idempotent same-status transitions
	assert.True(t, TaskPending.CanTransitionTo(TaskPending))
	assert.True(t, TaskDone.CanTransitionTo(TaskDone))

	// Regressions
	assert.False(t, TaskInProgress.CanTransitionTo(TaskPending))
	assert.False(t, TaskDone.CanTransitionTo(TaskPending))
	assert.False(t, TaskDone.CanTransitionTo(TaskInProgress))
	assert.False(t, TaskFailed.CanTransitionTo(TaskInProgress))

	// Terminal statuses admit nothing else
	assert.False(t, TaskDone.CanTransitionTo(TaskFailed))
	assert.False(t, TaskFailed.CanTransitionTo(TaskDone))
}

func TestDepthLimiter(t *testing.T) {
	dl := NewDepthLimiter(3)

	for i := 0; i < 3; i++ {
		assert.NoError(t, dl.Increment())
	}
	assert.Equal(t, 3, dl.Count())
	assert.Equal(t, 0, dl.Remaining())

	err := dl.Increment()
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrRecursionLimitExceeded))
}

func TestEncodeToolCall(t *testing.T) {
	msg := EncodeToolCall(ToolCall{
		ID:        "call-1",
		Name:      "get_weather",
		Arguments: map[string]any{"city": "Berlin"},
	})

	assert.Equal(t, RoleAssistant, msg.Role)
	assert.Equal(t, TagToolCall, msg.Tag)
	assert.Contains(t, msg.Content, `<tool_call id="call-1" name="get_weather">`)
	assert.Contains(t, msg.Content, `"city":"Berlin"`)
	assert.True(t, strings.HasSuffix(msg.Content, "</tool_call>"))
}

func TestEncodeToolResult(t *testing.T) {
	ok := EncodeToolResult(ToolResult{CallID: "call-1", Name: "get_weather", Output: "22°C"})
	assert.Equal(t, RoleUser, ok.Role)
	assert.Equal(t, TagToolResult, ok.Tag)
	assert.Contains(t, ok.Content, "22°C")

	failed := EncodeToolResult(ToolResult{CallID: "call-2", Name: "get_weather", Error: "boom"})
	assert.Contains(t, failed.Content, "ERROR: boom")
	assert.True(t, ToolResult{Error: "boom"}.Failed())
	assert.False(t, ToolResult{Output: "x"}.Failed())
}

func TestAdapterError(t *testing.T) {
	cause := errors.New("store offline")
	err := &AdapterError{Adapter: "facts", Err: cause}

	assert.Contains(t, err.Error(), "facts")
	assert.True(t, errors.Is(err, cause))
}

func TestTurnError(t *testing.T) {
	cause := errors.New("provider 500")
	err := &TurnError{
		Phase:      "invoking_model",
		Transcript: []Message{NewMessage(RoleUser, "hi")},
		Err:        cause,
	}

	assert.Contains(t, err.Error(), "invoking_model")
	assert.True(t, errors.Is(err, cause))
	assert.Len(t, err.Transcript, 1)
}
