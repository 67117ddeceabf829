package core

import "errors"

// Fatal failure kinds. Optional-capability gaps never surface here; they
// are absorbed inside the encoder with a logged fallback.
var (
	ErrDocument  = errors.New("document unreadable")
	ErrRender    = errors.New("page render failed")
	ErrTransport = errors.New("printer transport failed")
	ErrQueueFull = errors.New("job queue is full")
	ErrNotFound  = errors.New("job not found")
)
