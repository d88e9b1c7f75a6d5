package iso

import (
	"time"

	"github.com/hupe1980/isokit/core"
	"github.com/hupe1980/isokit/model"
)

// Turn is the result of one completed Send: the final answer, the full
// message transcript (context, tool traffic, answer) and execution metadata.
type Turn struct {
	// ID uniquely identifies the turn.
	ID string `json:"id"`
	// IsoName identifies the iso that ran the turn.
	IsoName string `json:"iso_name"`
	// Request is the raw user request text.
	Request string `json:"request"`
	// Answer is the model's final text response.
	Answer string `json:"answer"`
	// Transcript is the complete ordered message sequence of the turn.
	Transcript []core.Message `json:"transcript"`
	// ToolCalls lists every tool call the model issued, in call order.
	ToolCalls []core.ToolCall `json:"tool_calls,omitempty"`
	// ToolResults lists the corresponding results, same order as ToolCalls.
	ToolResults []core.ToolResult `json:"tool_results,omitempty"`
	// Depth is the number of model invocations the turn consumed.
	Depth int `json:"depth"`
	// Usage aggregates token usage across all model invocations.
	Usage model.TokenUsage `json:"usage"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration returns the wall-clock time the turn took.
func (t *Turn) Duration() time.Duration {
	return t.FinishedAt.Sub(t.StartedAt)
}

func (t *Turn) addUsage(u *model.TokenUsage) {
	t.Usage.PromptTokens += u.PromptTokens
	t.Usage.CompletionTokens += u.CompletionTokens
	t.Usage.TotalTokens += u.TotalTokens
}
