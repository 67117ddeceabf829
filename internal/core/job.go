package core

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/emirhncann/portable-thermal-printer/internal/document"
)

type JobState int

const (
	StateQueued JobState = iota
	StateStarted
	StateRendering
	StateTransmitting
	StateCompleted
	StateCancelled
	StateFailed
)

func (s JobState) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StateStarted:
		return "started"
	case StateRendering:
		return "rendering"
	case StateTransmitting:
		return "transmitting"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s JobState) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// Job is one print job driven end-to-end by the orchestrator. State moves
// forward only; Cancelled and Failed are terminal from any non-terminal
// state.
type Job struct {
	ID          string
	Settings    PrintSettings
	Source      document.Source
	SubmittedBy string
	CreatedAt   time.Time

	mu          sync.Mutex
	state       JobState
	page        int
	totalPages  int
	reason      string
	startedAt   *time.Time
	completedAt *time.Time

	cancel atomic.Bool
}

func NewJob(source document.Source, settings PrintSettings, submittedBy string) *Job {
	return &Job{
		ID:          uuid.NewString(),
		Settings:    settings,
		Source:      source,
		SubmittedBy: submittedBy,
		CreatedAt:   time.Now(),
		state:       StateQueued,
	}
}

// RequestCancel arms the cooperative cancellation flag. The worker observes
// it at page boundaries only; a page already in flight runs to completion.
func (j *Job) RequestCancel() {
	j.cancel.Store(true)
}

func (j *Job) cancelRequested() bool {
	return j.cancel.Load()
}

type JobSnapshot struct {
	ID          string
	State       JobState
	Page        int
	TotalPages  int
	Reason      string
	SubmittedBy string
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobSnapshot{
		ID:          j.ID,
		State:       j.state,
		Page:        j.page,
		TotalPages:  j.totalPages,
		Reason:      j.reason,
		SubmittedBy: j.SubmittedBy,
		CreatedAt:   j.CreatedAt,
		StartedAt:   j.startedAt,
		CompletedAt: j.completedAt,
	}
}

func (j *Job) State() JobState {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// advance moves the job to a non-terminal working state. It refuses to move
// backwards or out of a terminal state.
func (j *Job) advance(state JobState, page int) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.state.Terminal() {
		return false
	}
	if state == StateStarted {
		now := time.Now()
		j.startedAt = &now
	}
	j.state = state
	j.page = page
	return true
}

func (j *Job) setTotalPages(n int) {
	j.mu.Lock()
	j.totalPages = n
	j.mu.Unlock()
}

// finish moves the job to a terminal state exactly once. The first caller
// wins; later calls are no-ops.
func (j *Job) finish(state JobState, reason string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.state.Terminal() {
		return false
	}
	now := time.Now()
	j.state = state
	j.reason = reason
	j.completedAt = &now
	return true
}
