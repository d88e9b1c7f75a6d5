package core

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ToolCall is a structured request from the model to invoke a registered
// capability. Arguments are the already-decoded JSON payload.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolResult is the outcome of exactly one ToolCall. Every call emitted by
// the model in a turn produces exactly one result before the next model
// invocation; failures are carried in Error rather than aborting the loop.
type ToolResult struct {
	CallID string `json:"call_id"`
	Name   string `json:"name"`
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
}

// Failed reports whether the call produced an error instead of output.
func (r ToolResult) Failed() bool { return r.Error != "" }

// TagToolCall and TagToolResult mark the encoded tool traffic messages kept
// in the transcript.
const (
	TagToolCall   = "tool_call"
	TagToolResult = "tool_result"
)

// EncodeToolCall renders a ToolCall as a tagged assistant message so tool
// traffic survives in the three-role transcript.
func EncodeToolCall(tc ToolCall) Message {
	args, _ := json.Marshal(tc.Arguments)
	content := fmt.Sprintf("<tool_call id=%q name=%q>%s</tool_call>", tc.ID, tc.Name, string(args))
	return NewTaggedMessage(RoleAssistant, content, TagToolCall)
}

// EncodeToolResult renders a ToolResult as a tagged user message. Result
// messages are appended in the exact order the corresponding calls were
// issued so the model can pair results with calls positionally.
func EncodeToolResult(tr ToolResult) Message {
	body := tr.Output
	if tr.Failed() {
		body = fmt.Sprintf("ERROR: %s", tr.Error)
	}
	content := fmt.Sprintf("<tool_result id=%q name=%q>%s</tool_result>", tr.CallID, tr.Name, body)
	return NewTaggedMessage(RoleUser, content, TagToolResult)
}

// NewID generates a unique identifier used for facts, tasks, memories and
// tool-call correlation.
func NewID() string { return uuid.NewString() }
