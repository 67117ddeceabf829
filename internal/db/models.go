package db

import "time"

// JobRecord is the terminal outcome of a print job. Only finished jobs are
// written here; the live queue never persists.
type JobRecord struct {
	ID           string     `json:"id"`
	State        string     `json:"state"`
	PagesPrinted int        `json:"pages_printed"`
	TotalPages   int        `json:"total_pages"`
	ErrorMessage string     `json:"error_message,omitempty"`
	SubmittedBy  string     `json:"submitted_by"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

type Webhook struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Secret     string    `json:"secret,omitempty"`
	EventsJSON string    `json:"events_json"`
	Enabled    bool      `json:"enabled"`
	CreatedAt  time.Time `json:"created_at"`
}

type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

type JobFilter struct {
	State    string
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
	Offset   int
}

type JobStats struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Cancelled int64 `json:"cancelled"`
	Failed    int64 `json:"failed"`
}
