package iso

// Phase identifies where in the turn lifecycle an iso currently is. The
// loop publishes phase changes so callers can observe progress; a fatal
// error carries the phase it occurred in. Once Send returns, the iso is
// back at PhaseAwaitingInput and ready for the next turn.
type Phase string

// Turn lifecycle phases, in the order a successful turn passes through them.
const (
	PhaseAwaitingInput Phase = "awaiting_input"
	PhaseAssembling    Phase = "assembling"
	PhaseInvokingModel Phase = "invoking_model"
	PhaseToolExecuting Phase = "tool_executing"
	PhaseDone          Phase = "done"
	PhaseFailed        Phase = "failed"
)

func (p Phase) String() string { return string(p) }
