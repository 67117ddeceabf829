package core

import (
	"sync"
	"testing"
	"time"

	"github.com/emirhncann/portable-thermal-printer/internal/raster"
	"github.com/emirhncann/portable-thermal-printer/internal/tspl"
)

type recordingSink struct {
	mu     sync.Mutex
	events []StatusEvent
}

func (s *recordingSink) Notify(event StatusEvent) {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
}

func (s *recordingSink) kinds() []EventKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EventKind, len(s.events))
	for i, e := range s.events {
		out[i] = e.Kind
	}
	return out
}

type recordingHistory struct {
	mu        sync.Mutex
	snapshots []JobSnapshot
}

func (h *recordingHistory) RecordJob(s JobSnapshot) error {
	h.mu.Lock()
	h.snapshots = append(h.snapshots, s)
	h.mu.Unlock()
	return nil
}

func newTestManager(t *testing.T, ft *fakeTransport, history HistoryRecorder) *Manager {
	t.Helper()
	encoder := tspl.NewEncoder(ft.Capabilities(), nil)
	o := NewOrchestrator(ft, encoder, raster.NewRasterizer(1), t.TempDir(), 0, nil)
	return NewManager(o, history, nil)
}

func waitForTerminal(t *testing.T, job *Job) JobState {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		if s := job.State(); s.Terminal() {
			return s
		}
		select {
		case <-deadline:
			t.Fatalf("job %s never reached a terminal state (stuck at %s)", job.ID, job.State())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestManagerRunsSubmittedJob(t *testing.T) {
	ft := &fakeTransport{}
	history := &recordingHistory{}
	m := newTestManager(t, ft, history)

	sink := &recordingSink{}
	m.AddSink(sink)

	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	job, err := m.Submit(&memorySource{data: pngPage(t, 16, 16)}, DefaultSettings(), "tester")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if got := waitForTerminal(t, job); got != StateCompleted {
		t.Fatalf("state = %s, want completed", got)
	}

	// Events route through the notifier; give it a beat to drain.
	deadline := time.After(2 * time.Second)
	for {
		kinds := sink.kinds()
		if len(kinds) >= 3 && kinds[len(kinds)-1] == EventCompleted {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("sink never saw completion, got %v", sink.kinds())
		case <-time.After(5 * time.Millisecond):
		}
	}

	m.Stop()

	history.mu.Lock()
	defer history.mu.Unlock()
	if len(history.snapshots) != 1 {
		t.Fatalf("recorded %d history entries, want 1", len(history.snapshots))
	}
	if history.snapshots[0].State != StateCompleted {
		t.Errorf("recorded state = %s, want completed", history.snapshots[0].State)
	}
	if history.snapshots[0].SubmittedBy != "tester" {
		t.Errorf("recorded submitter = %q, want tester", history.snapshots[0].SubmittedBy)
	}
}

func TestManagerRejectsInvalidSettings(t *testing.T) {
	m := newTestManager(t, &fakeTransport{}, nil)

	settings := DefaultSettings()
	settings.Threshold = 600

	if _, err := m.Submit(&memorySource{data: pngPage(t, 16, 16)}, settings, "tester"); err == nil {
		t.Error("expected error for invalid settings")
	}
}

func TestManagerCancelUnknownJob(t *testing.T) {
	m := newTestManager(t, &fakeTransport{}, nil)

	if err := m.Cancel("no-such-job"); err != ErrNotFound {
		t.Errorf("Cancel = %v, want ErrNotFound", err)
	}
}

func TestManagerCancelQueuedJob(t *testing.T) {
	ft := &fakeTransport{}
	m := newTestManager(t, ft, nil)

	// Submit before Start: the job sits queued until the worker spins up,
	// so the cancellation flag is armed ahead of any page work.
	job, err := m.Submit(&memorySource{data: pngPage(t, 16, 16)}, DefaultSettings(), "tester")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := m.Cancel(job.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Stop()

	if got := waitForTerminal(t, job); got != StateCancelled {
		t.Fatalf("state = %s, want cancelled", got)
	}
	if ft.writeCount() != 0 {
		t.Errorf("transmitted %d streams, want 0", ft.writeCount())
	}
}

func TestManagerGetAndList(t *testing.T) {
	m := newTestManager(t, &fakeTransport{}, nil)

	job, err := m.Submit(&memorySource{data: pngPage(t, 16, 16)}, DefaultSettings(), "tester")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	got, err := m.GetJob(job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.ID != job.ID {
		t.Errorf("GetJob returned %s, want %s", got.ID, job.ID)
	}

	if _, err := m.GetJob("missing"); err != ErrNotFound {
		t.Errorf("GetJob(missing) = %v, want ErrNotFound", err)
	}

	list := m.ListJobs()
	if len(list) != 1 || list[0].ID != job.ID {
		t.Errorf("ListJobs = %v, want one entry for %s", list, job.ID)
	}
}
