package core

import "time"

// TaskStatus enumerates the lifecycle of a task record.
type TaskStatus string

const (
	// TaskPending marks a task that has not started.
	TaskPending TaskStatus = "pending"
	// TaskInProgress marks a task currently being worked.
	TaskInProgress TaskStatus = "in_progress"
	// TaskDone marks a successfully completed task.
	TaskDone TaskStatus = "done"
	// TaskFailed marks a task that terminated unsuccessfully.
	TaskFailed TaskStatus = "failed"
)

// Valid reports whether the status is one of the four known values.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskDone, TaskFailed:
		return true
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s TaskStatus) Terminal() bool { return s == TaskDone || s == TaskFailed }

// rank orders statuses along the allowed progression. Transitions may never
// decrease rank: pending -> in_progress -> {done, failed}.
func (s TaskStatus) rank() int {
	switch s {
	case TaskPending:
		return 0
	case TaskInProgress:
		return 1
	case TaskDone, TaskFailed:
		return 2
	}
	return -1
}

// CanTransitionTo reports whether moving from s to next is a legal monotonic
// transition. Re-asserting the current status is allowed (idempotent update);
// terminal statuses admit nothing else.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	if !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	if s.Terminal() {
		return false
	}
	return next.rank() > s.rank()
}

// Task is one record in an iso's ordered task list.
type Task struct {
	ID          string     `json:"id" yaml:"id"`
	Description string     `json:"description" yaml:"description"`
	Status      TaskStatus `json:"status" yaml:"status"`
	CreatedAt   time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" yaml:"updated_at"`
}

// NewTask constructs a pending task with a fresh id.
func NewTask(description string) Task {
	now := time.Now().UTC()
	return Task{
		ID:          NewID(),
		Description: description,
		Status:      TaskPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Open reports whether the task still needs work.
func (t Task) Open() bool { return !t.Status.Terminal() }
