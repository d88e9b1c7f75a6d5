package core

// Store interfaces for an iso's persistent state. Each iso owns exactly one
// instance of every store; instances are never shared across isos, so the
// implementations only need to survive concurrent reads from adapters while
// the owning loop is the single writer.

// FactStore persists append-only fact records with optional supersession.
type FactStore interface {
	// Append stores a new fact and returns it. Implementations may skip
	// inserts whose text duplicates an existing non-superseded fact, in
	// which case the existing record is returned.
	Append(text, source string) (Fact, error)
	// MarkSuperseded flags a fact so it no longer contributes to prompts.
	MarkSuperseded(id string) error
	// Recent returns up to limit non-superseded facts, newest first.
	Recent(limit int) ([]Fact, error)
	// All returns every fact including superseded ones, in insertion order.
	All() ([]Fact, error)
}

// MemoryStore is the vector-store boundary. Index internals (embeddings,
// ANN search) belong to the implementation; the engine only depends on
// upsert and ranked query.
type MemoryStore interface {
	Upsert(text string, metadata map[string]any) (string, error)
	Query(text string, k int) ([]SearchResult, error)
}

// TaskStore persists an ordered task list with monotonic status transitions.
type TaskStore interface {
	Add(description string) (Task, error)
	Get(id string) (Task, error)
	// Transition moves a task to the given status. Illegal transitions
	// (any regression, or leaving a terminal status) fail with an error
	// wrapping ErrInvalidTaskTransition and leave the store unchanged.
	Transition(id string, status TaskStatus) (Task, error)
	// EditDescription rewrites a task's description in place.
	EditDescription(id, description string) (Task, error)
	Delete(id string) error
	List() ([]Task, error)
}

// HistoryStore persists the cross-turn transcript of an iso.
type HistoryStore interface {
	Append(messages ...Message) error
	// Recent returns up to n most recent messages in chronological order.
	Recent(n int) ([]Message, error)
	Len() int
}
