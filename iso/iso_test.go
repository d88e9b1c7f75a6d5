package iso

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/isokit/adapter"
	"github.com/hupe1980/isokit/core"
	"github.com/hupe1980/isokit/facts"
	"github.com/hupe1980/isokit/history"
	"github.com/hupe1980/isokit/model"
	"github.com/hupe1980/isokit/pipeline"
	"github.com/hupe1980/isokit/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAssembler() *pipeline.Assembler {
	return pipeline.New(adapter.NewSystemAdapter(adapter.NewInstructionFromText("You are a test iso.")))
}

func namedTool(name string, parallelSafe bool, fn func(args map[string]any) (any, error)) tool.Tool {
	return tool.NewFunctionTool(
		name,
		"test tool "+name,
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			return fn(args)
		},
		func(o *tool.FunctionToolOptions) {
			o.ParallelSafe = parallelSafe
		},
	)
}

func TestSend_SimpleTurn(t *testing.T) {
	mock := model.NewMockModel("mock")
	mock.Enqueue(&model.Response{Text: "blue", Usage: &model.TokenUsage{PromptTokens: 10, CompletionTokens: 2, TotalTokens: 12}})

	i := New("test", newAssembler(), mock)

	turn, err := i.Send(context.Background(), "what color is the sky?")
	require.NoError(t, err)

	assert.Equal(t, "blue", turn.Answer)
	assert.Equal(t, 1, turn.Depth)
	assert.Equal(t, 12, turn.Usage.TotalTokens)
	assert.Empty(t, turn.ToolCalls)
	assert.Equal(t, PhaseAwaitingInput, i.Phase())

	// Transcript: system, wrapped user request, final answer
	require.Len(t, turn.Transcript, 3)
	assert.Equal(t, core.RoleSystem, turn.Transcript[0].Role)
	assert.Equal(t, "<user>what color is the sky?</user>", turn.Transcript[1].Content)
	assert.Equal(t, "blue", turn.Transcript[2].Content)

	// The model saw the assistant-prefix anchor as the last message
	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	last := reqs[0].Messages[len(reqs[0].Messages)-1]
	assert.Equal(t, "<assistant>", last.Content)
}

func TestSend_ToolTurn(t *testing.T) {
	mock := model.NewMockModel("mock")
	mock.Enqueue(
		&model.Response{ToolCalls: []core.ToolCall{{ID: "c1", Name: "lookup", Arguments: map[string]any{}}}},
		&model.Response{Text: "done"},
	)

	i := New("test", newAssembler(), mock, func(o *Options) {
		o.Tools = []tool.Tool{namedTool("lookup", false, func(map[string]any) (any, error) {
			return "42", nil
		})}
	})

	turn, err := i.Send(context.Background(), "look it up")
	require.NoError(t, err)

	assert.Equal(t, "done", turn.Answer)
	assert.Equal(t, 2, turn.Depth)
	require.Len(t, turn.ToolCalls, 1)
	require.Len(t, turn.ToolResults, 1)
	assert.Equal(t, "42", turn.ToolResults[0].Output)
	assert.False(t, turn.ToolResults[0].Failed())

	// The second model request carries the encoded tool exchange
	reqs := mock.Requests()
	require.Len(t, reqs, 2)
	second := reqs[1].Messages
	var sawCall, sawResult bool
	for _, m := range second {
		if m.Tag == core.TagToolCall {
			sawCall = true
			assert.Equal(t, core.RoleAssistant, m.Role)
		}
		if m.Tag == core.TagToolResult {
			sawResult = true
			assert.Equal(t, core.RoleUser, m.Role)
			assert.Contains(t, m.Content, "42")
		}
	}
	assert.True(t, sawCall)
	assert.True(t, sawResult)
}

func TestSend_PanickingToolBecomesErrorResult(t *testing.T) {
	mock := model.NewMockModel("mock")
	mock.Enqueue(
		&model.Response{ToolCalls: []core.ToolCall{{ID: "c1", Name: "crash", Arguments: map[string]any{}}}},
		&model.Response{Text: "recovered"},
	)

	i := New("test", newAssembler(), mock, func(o *Options) {
		o.Tools = []tool.Tool{namedTool("crash", true, func(map[string]any) (any, error) {
			var m map[string]int
			m["boom"] = 1
			return nil, nil
		})}
	})

	turn, err := i.Send(context.Background(), "try it")
	require.NoError(t, err)

	assert.Equal(t, "recovered", turn.Answer)
	require.Len(t, turn.ToolResults, 1)
	assert.True(t, turn.ToolResults[0].Failed())
	assert.Contains(t, turn.ToolResults[0].Error, "panic recovered")
	assert.Contains(t, turn.ToolResults[0].Error, "nil map")
}

func TestSend_PhaseResetsBetweenTurns(t *testing.T) {
	mock := model.NewMockModel("mock")
	mock.Enqueue(&model.Response{Text: "one"}, &model.Response{Text: "two"})

	i := New("test", newAssembler(), mock)
	assert.Equal(t, PhaseAwaitingInput, i.Phase())

	_, err := i.Send(context.Background(), "first")
	require.NoError(t, err)
	assert.Equal(t, PhaseAwaitingInput, i.Phase())

	_, err = i.Send(context.Background(), "second")
	require.NoError(t, err)
	assert.Equal(t, PhaseAwaitingInput, i.Phase())
}

func TestSend_ToolResultOrderPreserved(t *testing.T) {
	calls := []core.ToolCall{
		{ID: "a", Name: "slow", Arguments: map[string]any{}},
		{ID: "b", Name: "fast", Arguments: map[string]any{}},
		{ID: "c", Name: "serial", Arguments: map[string]any{}},
	}

	mock := model.NewMockModel("mock")
	mock.Enqueue(
		&model.Response{ToolCalls: calls},
		&model.Response{Text: "done"},
	)

	i := New("test", newAssembler(), mock, func(o *Options) {
		o.Tools = []tool.Tool{
			namedTool("slow", true, func(map[string]any) (any, error) {
				time.Sleep(50 * time.Millisecond)
				return "slow-out", nil
			}),
			namedTool("fast", true, func(map[string]any) (any, error) {
				return "fast-out", nil
			}),
			namedTool("serial", false, func(map[string]any) (any, error) {
				return "serial-out", nil
			}),
		}
	})

	turn, err := i.Send(context.Background(), "run them")
	require.NoError(t, err)

	require.Len(t, turn.ToolResults, 3)
	assert.Equal(t, "a", turn.ToolResults[0].CallID)
	assert.Equal(t, "slow-out", turn.ToolResults[0].Output)
	assert.Equal(t, "b", turn.ToolResults[1].CallID)
	assert.Equal(t, "fast-out", turn.ToolResults[1].Output)
	assert.Equal(t, "c", turn.ToolResults[2].CallID)
	assert.Equal(t, "serial-out", turn.ToolResults[2].Output)

	// Encoded results keep the same order in the transcript
	var resultContents []string
	for _, m := range turn.Transcript {
		if m.Tag == core.TagToolResult {
			resultContents = append(resultContents, m.Content)
		}
	}
	require.Len(t, resultContents, 3)
	assert.Contains(t, resultContents[0], "slow-out")
	assert.Contains(t, resultContents[1], "fast-out")
	assert.Contains(t, resultContents[2], "serial-out")
}

func TestSend_UnknownToolContinuesTurn(t *testing.T) {
	mock := model.NewMockModel("mock")
	mock.Enqueue(
		&model.Response{ToolCalls: []core.ToolCall{{ID: "c1", Name: "nope", Arguments: map[string]any{}}}},
		&model.Response{Text: "recovered"},
	)

	i := New("test", newAssembler(), mock)

	turn, err := i.Send(context.Background(), "try it")
	require.NoError(t, err)

	assert.Equal(t, "recovered", turn.Answer)
	require.Len(t, turn.ToolResults, 1)
	assert.True(t, turn.ToolResults[0].Failed())
	assert.Contains(t, turn.ToolResults[0].Error, "unknown tool")
}

func TestSend_RecursionLimit(t *testing.T) {
	mock := model.NewMockModel("mock")
	// Script one more tool turn than the limit allows
	for idx := 0; idx < 3; idx++ {
		mock.Enqueue(&model.Response{ToolCalls: []core.ToolCall{
			{ID: fmt.Sprintf("c%d", idx), Name: "loop", Arguments: map[string]any{}},
		}})
	}

	i := New("test", newAssembler(), mock, func(o *Options) {
		o.MaxToolDepth = 2
		o.Tools = []tool.Tool{namedTool("loop", false, func(map[string]any) (any, error) {
			return "again", nil
		})}
	})

	_, err := i.Send(context.Background(), "loop forever")
	require.Error(t, err)

	var turnErr *core.TurnError
	require.True(t, errors.As(err, &turnErr))
	assert.True(t, errors.Is(err, core.ErrRecursionLimitExceeded))
	assert.Equal(t, PhaseAwaitingInput, i.Phase())

	// Exactly MaxToolDepth model invocations happened
	assert.Len(t, mock.Requests(), 2)

	// The partial transcript carries the tool traffic so far
	var toolMsgs int
	for _, m := range turnErr.Transcript {
		if m.Tag == core.TagToolCall || m.Tag == core.TagToolResult {
			toolMsgs++
		}
	}
	assert.Equal(t, 4, toolMsgs)
}

func TestSend_AdapterFailureIsFatal(t *testing.T) {
	assembler := pipeline.New(adapter.NewSystemAdapter(adapter.NewInstructionFromFunc(
		func(*core.Snapshot) (string, error) {
			return "", errors.New("instruction source offline")
		},
	)))

	i := New("test", assembler, model.NewMockModel("mock"))

	_, err := i.Send(context.Background(), "hi")
	require.Error(t, err)

	var turnErr *core.TurnError
	require.True(t, errors.As(err, &turnErr))
	assert.Equal(t, PhaseAssembling.String(), turnErr.Phase)

	var adapterErr *core.AdapterError
	assert.True(t, errors.As(err, &adapterErr))
}

// blockingModel parks Generate until released.
type blockingModel struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (m *blockingModel) Generate(ctx context.Context, req model.Request) (*model.Response, error) {
	m.once.Do(func() { close(m.started) })
	select {
	case <-m.release:
		return &model.Response{Text: "late"}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *blockingModel) Info() model.Info {
	return model.Info{Name: "blocking", Provider: "mock"}
}

func TestSend_BusyReject(t *testing.T) {
	blocking := &blockingModel{started: make(chan struct{}), release: make(chan struct{})}

	i := New("test", newAssembler(), blocking, func(o *Options) {
		o.BusyPolicy = BusyReject
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = i.Send(context.Background(), "first")
	}()

	<-blocking.started

	_, err := i.Send(context.Background(), "second")
	assert.True(t, errors.Is(err, core.ErrIsoBusy))

	close(blocking.release)
	<-done
}

func TestSend_QueueWaitsForRunningTurn(t *testing.T) {
	blocking := &blockingModel{started: make(chan struct{}), release: make(chan struct{})}

	i := New("test", newAssembler(), blocking, func(o *Options) {
		o.BusyPolicy = BusyQueue
	})

	go func() {
		_, _ = i.Send(context.Background(), "first")
	}()

	<-blocking.started

	// Queued Send honors its context while waiting for the slot
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := i.Send(ctx, "second")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(blocking.release)
}

func TestSend_AppendsHistory(t *testing.T) {
	historyStore, err := history.NewStore("")
	require.NoError(t, err)

	mock := model.NewMockModel("mock")
	mock.Enqueue(&model.Response{Text: "hello there"})

	i := New("test", newAssembler(), mock, func(o *Options) {
		o.History = historyStore
	})

	_, err = i.Send(context.Background(), "hi")
	require.NoError(t, err)

	msgs, err := historyStore.Recent(10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, core.RoleUser, msgs[0].Role)
	assert.Equal(t, "hi", msgs[0].Content)
	assert.Equal(t, "hello there", msgs[1].Content)
}

func TestSend_SnapshotFeedsAdapters(t *testing.T) {
	factStore, err := facts.NewStore("")
	require.NoError(t, err)
	_, err = factStore.Append("sky is blue", "test")
	require.NoError(t, err)

	assembler := newAssembler()
	assembler.Register(adapter.NewFactsAdapter(20, "facts"))

	mock := model.NewMockModel("mock")
	mock.Enqueue(&model.Response{Text: "ok"})

	i := New("test", assembler, mock, func(o *Options) {
		o.Facts = factStore
	})

	_, err = i.Send(context.Background(), "anything")
	require.NoError(t, err)

	reqs := mock.Requests()
	require.Len(t, reqs, 1)

	var sawFacts bool
	for _, m := range reqs[0].Messages {
		if m.Content == "<facts>sky is blue</facts>" {
			sawFacts = true
		}
	}
	assert.True(t, sawFacts)
}
