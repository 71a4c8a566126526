package stores

import (
	"context"
	"time"
)

// RunStatus is the state of a workflow run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// EventLevel is the severity of a run event.
type EventLevel string

const (
	EventLevelDebug   EventLevel = "debug"
	EventLevelInfo    EventLevel = "info"
	EventLevelWarning EventLevel = "warning"
	EventLevelError   EventLevel = "error"
)

// Run is one execution of a workflow.
type Run struct {
	ID             string     `json:"id"`
	Workflow       string     `json:"workflow"`
	Source         string     `json:"source"`
	Status         RunStatus  `json:"status"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	Error          *string    `json:"error,omitempty"`
	ActorCount     int        `json:"actor_count"`
	RecordsHandled int64      `json:"records_handled"`
	RecordsSkipped int64      `json:"records_skipped"`
}

// Duration returns how long the run took, or zero while it is running.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// RunResult is what is known about a run when it finishes.
type RunResult struct {
	Status         RunStatus
	FinishedAt     time.Time
	Error          *string
	RecordsHandled int64
	RecordsSkipped int64
}

// Event is an append-only run log entry.
type Event struct {
	ID        int64      `json:"id"`
	RunID     string     `json:"run_id"`
	Type      string     `json:"type"`
	Level     EventLevel `json:"level"`
	Actor     string     `json:"actor,omitempty"`
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"created_at"`
}

// StoredRecord is a record written by a sink node. Data holds the record
// as an ordered JSON array of {name, value}.
type StoredRecord struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Label     string    `json:"label"`
	Seq       int64     `json:"seq"`
	Data      string    `json:"data"`
	CreatedAt time.Time `json:"created_at"`
}

// RunStore persists run history.
type RunStore interface {
	CreateRun(ctx context.Context, run *Run) error
	FinishRun(ctx context.Context, id string, result RunResult) error
	AppendEvent(ctx context.Context, event *Event) error
}
