package core

import "testing"

func TestJobStateStrings(t *testing.T) {
	tests := []struct {
		state JobState
		want  string
	}{
		{StateQueued, "queued"},
		{StateStarted, "started"},
		{StateRendering, "rendering"},
		{StateTransmitting, "transmitting"},
		{StateCompleted, "completed"},
		{StateCancelled, "cancelled"},
		{StateFailed, "failed"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestTerminalStates(t *testing.T) {
	for _, s := range []JobState{StateCompleted, StateCancelled, StateFailed} {
		if !s.Terminal() {
			t.Errorf("%s.Terminal() = false, want true", s)
		}
	}
	for _, s := range []JobState{StateQueued, StateStarted, StateRendering, StateTransmitting} {
		if s.Terminal() {
			t.Errorf("%s.Terminal() = true, want false", s)
		}
	}
}

func TestFinishIsExactlyOnce(t *testing.T) {
	job := NewJob(nil, DefaultSettings(), "test")

	if !job.finish(StateFailed, "first") {
		t.Fatal("first finish returned false")
	}
	if job.finish(StateCancelled, "second") {
		t.Error("second finish returned true; terminal state must not change")
	}

	snap := job.Snapshot()
	if snap.State != StateFailed || snap.Reason != "first" {
		t.Errorf("snapshot = %s/%q, want failed/first", snap.State, snap.Reason)
	}
}

func TestAdvanceRefusesTerminalExit(t *testing.T) {
	job := NewJob(nil, DefaultSettings(), "test")
	job.finish(StateCancelled, "done")

	if job.advance(StateRendering, 3) {
		t.Error("advance out of a terminal state returned true")
	}
	if got := job.State(); got != StateCancelled {
		t.Errorf("state = %s, want cancelled", got)
	}
}

func TestAdvanceStampsStartTime(t *testing.T) {
	job := NewJob(nil, DefaultSettings(), "test")

	if job.Snapshot().StartedAt != nil {
		t.Fatal("StartedAt set before the job started")
	}
	job.advance(StateStarted, 0)
	if job.Snapshot().StartedAt == nil {
		t.Error("StartedAt not stamped on start")
	}
}

func TestRequestCancelIsSticky(t *testing.T) {
	job := NewJob(nil, DefaultSettings(), "test")

	if job.cancelRequested() {
		t.Fatal("fresh job reports cancellation")
	}
	job.RequestCancel()
	job.RequestCancel()
	if !job.cancelRequested() {
		t.Error("cancellation flag not set")
	}
}

func TestValidateSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PrintSettings)
		ok     bool
	}{
		{"defaults", func(*PrintSettings) {}, true},
		{"zero width", func(s *PrintSettings) { s.PaperWidthMM = 0 }, false},
		{"bad sensing", func(s *PrintSettings) { s.Sensing = "laser" }, false},
		{"darkness too high", func(s *PrintSettings) { s.Darkness = 9 }, false},
		{"speed too high", func(s *PrintSettings) { s.Speed = 5 }, false},
		{"bad dither mode", func(s *PrintSettings) { s.DitherMode = "sierra" }, false},
		{"threshold too high", func(s *PrintSettings) { s.Threshold = 256 }, false},
		{"contrast too high", func(s *PrintSettings) { s.Contrast = 2.5 }, false},
		{"brightness too low", func(s *PrintSettings) { s.Brightness = -129 }, false},
		{"zero copies", func(s *PrintSettings) { s.Copies = 0 }, false},
		{"max legal values", func(s *PrintSettings) {
			s.Darkness = 8
			s.Speed = 4
			s.Threshold = 255
			s.Contrast = 2
			s.Brightness = 128
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			err := s.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected error, got none")
			}
		})
	}
}
