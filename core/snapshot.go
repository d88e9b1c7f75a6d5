package core

import "time"

// Snapshot is the immutable per-turn view of an iso's state handed to
// context adapters. The loop performs every store read (including the vector
// query for the incoming request) before assembly starts, so BuildMessages
// implementations stay synchronous local reads and never block on I/O.
type Snapshot struct {
	// IsoName identifies the owning iso.
	IsoName string
	// Request is the raw user request text for this turn.
	Request string
	// Facts holds the non-superseded facts, newest first, already capped.
	Facts []Fact
	// Memories holds the ranked vector-store results for Request.
	Memories []SearchResult
	// Knowledge holds ranked knowledge-base results for Request.
	Knowledge []SearchResult
	// Tasks holds the current task list in insertion order.
	Tasks []Task
	// History holds the trailing transcript window in chronological order.
	History []Message
	// WorkspaceEntries holds a depth-limited listing of the workspace.
	WorkspaceEntries []string
	// State holds free-form template variables for instruction rendering.
	State map[string]any
	// Now is the wall-clock instant the snapshot was taken.
	Now time.Time
}
