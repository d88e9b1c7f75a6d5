package core

import (
	"context"

	"github.com/hupe1980/isokit/logging"
)

// ToolContext provides a constrained, auditable surface for tool
// implementations invoked by the loop. It carries correlation identifiers
// (iso, turn, call) and the ambient cancellation context; tools must not
// reach around it into loop internals.
type ToolContext struct {
	ctx     context.Context
	isoName string
	turnID  string
	callID  string
	depth   int

	*loggerAdapter
}

// NewToolContext constructs a tool context bound to one tool call.
func NewToolContext(ctx context.Context, isoName, turnID, callID string, depth int, logger logging.Logger) *ToolContext {
	return &ToolContext{
		ctx:           ctx,
		isoName:       isoName,
		turnID:        turnID,
		callID:        callID,
		depth:         depth,
		loggerAdapter: newLoggerAdapter(logger),
	}
}

// Context returns the cancellation context for the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.ctx }

// IsoName returns the owning iso's name.
func (tc *ToolContext) IsoName() string { return tc.isoName }

// TurnID returns the turn identifier the call belongs to.
func (tc *ToolContext) TurnID() string { return tc.turnID }

// CallID returns the function-call identifier assigned by the model.
func (tc *ToolContext) CallID() string { return tc.callID }

// Depth returns the tool-call recursion depth of the current turn.
func (tc *ToolContext) Depth() int { return tc.depth }

// Logger returns the logger associated with the tool invocation.
func (tc *ToolContext) Logger() logging.Logger { return tc.loggerAdapter.Logger() }
