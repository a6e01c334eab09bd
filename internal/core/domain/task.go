package domain

import "time"

// Task is one unit of coordinated work: the discover -> extract -> store
// lifecycle of a single source URL. Tasks are persisted so a run can resume
// after an interruption without losing queued or retrying work.
type Task struct {
	ID          string    `db:"id"`
	URL         string    `db:"url"`
	State       TaskState `db:"state"`
	Attempts    int       `db:"attempts"`
	LastError   string    `db:"last_error"`
	NextRetryAt time.Time `db:"next_retry_at"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type TaskState string

const (
	TaskPending    TaskState = "pending"
	TaskInProgress TaskState = "in_progress"
	TaskRetrying   TaskState = "retrying"
	TaskStored     TaskState = "stored"
	TaskFailed     TaskState = "failed"
	TaskAbandoned  TaskState = "abandoned"
)

// Terminal reports whether the task will never be scheduled again.
// Terminal rows are retained for audit.
func (s TaskState) Terminal() bool {
	return s == TaskStored || s == TaskFailed || s == TaskAbandoned
}

// Eligible reports whether the task may be handed to a worker at t.
func (t *Task) Eligible(now time.Time) bool {
	switch t.State {
	case TaskPending:
		return true
	case TaskRetrying:
		return !now.Before(t.NextRetryAt)
	default:
		return false
	}
}
