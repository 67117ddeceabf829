package core

import "time"

type EventKind string

const (
	EventStarted      EventKind = "job_started"
	EventPageProgress EventKind = "job_page_progress"
	EventCompleted    EventKind = "job_completed"
	EventCancelled    EventKind = "job_cancelled"
	EventFailed       EventKind = "job_failed"
)

type StatusEvent struct {
	JobID      string    `json:"job_id"`
	Kind       EventKind `json:"event"`
	Page       int       `json:"page,omitempty"`
	TotalPages int       `json:"total_pages,omitempty"`
	Message    string    `json:"message,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// StatusSink receives job lifecycle notifications. Sinks are invoked from a
// dedicated notifier goroutine, never from the print worker itself, so a
// slow sink cannot stall a page loop.
type StatusSink interface {
	Notify(event StatusEvent)
}
