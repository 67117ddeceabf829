package core

import (
	"archive/zip"
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/emirhncann/portable-thermal-printer/internal/raster"
	"github.com/emirhncann/portable-thermal-printer/internal/tspl"
)

type memorySource struct {
	data []byte
}

func (s *memorySource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

type failingSource struct{}

func (failingSource) Open() (io.ReadCloser, error) {
	return nil, errors.New("source unavailable")
}

// fakeTransport records every page stream it receives. onWrite runs after
// each write, letting tests act at exact page boundaries.
type fakeTransport struct {
	mu      sync.Mutex
	writes  [][]byte
	opens   int
	closes  int
	openErr error
	onWrite func(writeCount int)
}

func (t *fakeTransport) Open() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.openErr != nil {
		return t.openErr
	}
	t.opens++
	return nil
}

func (t *fakeTransport) Write(data []byte) error {
	t.mu.Lock()
	t.writes = append(t.writes, append([]byte(nil), data...))
	n := len(t.writes)
	hook := t.onWrite
	t.mu.Unlock()
	if hook != nil {
		hook(n)
	}
	return nil
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closes++
	return nil
}

func (t *fakeTransport) Name() string { return "test-printer" }

func (t *fakeTransport) Capabilities() tspl.Capabilities {
	return tspl.Capabilities{BlackMark: true, ExtendedBitmap: true}
}

func (t *fakeTransport) writeCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.writes)
}

func pngPage(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode page: %v", err)
	}
	return buf.Bytes()
}

func zipPages(t *testing.T, count int) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i := 0; i < count; i++ {
		w, err := zw.Create(string(rune('a'+i)) + ".png")
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		w.Write(pngPage(t, 16, 16))
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func newTestOrchestrator(t *testing.T, transport *fakeTransport) *Orchestrator {
	t.Helper()
	encoder := tspl.NewEncoder(transport.Capabilities(), nil)
	return NewOrchestrator(transport, encoder, raster.NewRasterizer(1), t.TempDir(), 0, nil)
}

func collectEvents() (func(StatusEvent), *[]StatusEvent, *sync.Mutex) {
	var mu sync.Mutex
	var events []StatusEvent
	emit := func(e StatusEvent) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	}
	return emit, &events, &mu
}

func TestOrchestratorCompletesSinglePage(t *testing.T) {
	ft := &fakeTransport{}
	o := newTestOrchestrator(t, ft)

	job := NewJob(&memorySource{data: pngPage(t, 32, 32)}, DefaultSettings(), "test")
	emit, events, _ := collectEvents()

	o.Run(job, emit)

	if got := job.State(); got != StateCompleted {
		t.Fatalf("state = %s, want completed", got)
	}
	if ft.writeCount() != 1 {
		t.Errorf("transmitted %d streams, want 1", ft.writeCount())
	}
	if ft.closes != 1 {
		t.Errorf("transport closed %d times, want 1", ft.closes)
	}

	kinds := make([]EventKind, 0, len(*events))
	for _, e := range *events {
		kinds = append(kinds, e.Kind)
	}
	want := []EventKind{EventStarted, EventPageProgress, EventCompleted}
	if len(kinds) != len(want) {
		t.Fatalf("events = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, kinds[i], want[i])
		}
	}
}

func TestOrchestratorMultiPage(t *testing.T) {
	ft := &fakeTransport{}
	o := newTestOrchestrator(t, ft)

	job := NewJob(&memorySource{data: zipPages(t, 3)}, DefaultSettings(), "test")
	emit, events, _ := collectEvents()

	o.Run(job, emit)

	if got := job.State(); got != StateCompleted {
		t.Fatalf("state = %s, want completed", got)
	}
	if ft.writeCount() != 3 {
		t.Errorf("transmitted %d streams, want 3", ft.writeCount())
	}

	var progress []int
	for _, e := range *events {
		if e.Kind == EventPageProgress {
			progress = append(progress, e.Page)
			if e.TotalPages != 3 {
				t.Errorf("progress event reports total %d, want 3", e.TotalPages)
			}
		}
	}
	if len(progress) != 3 || progress[0] != 1 || progress[2] != 3 {
		t.Errorf("page progress = %v, want [1 2 3]", progress)
	}
}

func TestOrchestratorEveryStreamIsCompleteProgram(t *testing.T) {
	ft := &fakeTransport{}
	o := newTestOrchestrator(t, ft)

	job := NewJob(&memorySource{data: zipPages(t, 2)}, DefaultSettings(), "test")
	o.Run(job, func(StatusEvent) {})

	for i, stream := range ft.writes {
		raw := string(stream)
		if !strings.HasPrefix(raw, "SIZE ") {
			t.Errorf("stream %d does not start with SIZE", i)
		}
		if !strings.HasSuffix(raw, "PRINT 1\r\n") {
			t.Errorf("stream %d does not end with PRINT", i)
		}
	}
}

func TestOrchestratorCancelAtPageBoundary(t *testing.T) {
	ft := &fakeTransport{}
	o := newTestOrchestrator(t, ft)

	job := NewJob(&memorySource{data: zipPages(t, 5)}, DefaultSettings(), "test")
	ft.onWrite = func(writes int) {
		if writes == 2 {
			job.RequestCancel()
		}
	}

	emit, events, _ := collectEvents()
	o.Run(job, emit)

	if got := job.State(); got != StateCancelled {
		t.Fatalf("state = %s, want cancelled", got)
	}
	// Pages 1 and 2 were in flight or finished; 3-5 must never transmit.
	if ft.writeCount() != 2 {
		t.Errorf("transmitted %d streams, want exactly 2", ft.writeCount())
	}
	if ft.closes != 1 {
		t.Errorf("transport closed %d times, want 1 (resources released on cancel)", ft.closes)
	}

	last := (*events)[len(*events)-1]
	if last.Kind != EventCancelled {
		t.Errorf("last event = %s, want %s", last.Kind, EventCancelled)
	}
}

func TestOrchestratorCancelBeforeStart(t *testing.T) {
	ft := &fakeTransport{}
	o := newTestOrchestrator(t, ft)

	job := NewJob(&memorySource{data: pngPage(t, 16, 16)}, DefaultSettings(), "test")
	job.RequestCancel()

	emit, events, _ := collectEvents()
	o.Run(job, emit)

	if got := job.State(); got != StateCancelled {
		t.Fatalf("state = %s, want cancelled", got)
	}
	if ft.writeCount() != 0 {
		t.Errorf("transmitted %d streams, want 0", ft.writeCount())
	}
	if len(*events) != 1 || (*events)[0].Kind != EventCancelled {
		t.Errorf("events = %v, want single cancelled event", *events)
	}
}

func TestOrchestratorTransportOpenFailure(t *testing.T) {
	ft := &fakeTransport{openErr: errors.New("connection refused")}
	o := newTestOrchestrator(t, ft)

	job := NewJob(&memorySource{data: pngPage(t, 16, 16)}, DefaultSettings(), "test")
	o.Run(job, func(StatusEvent) {})

	if got := job.State(); got != StateFailed {
		t.Fatalf("state = %s, want failed", got)
	}
	if ft.writeCount() != 0 {
		t.Errorf("transmitted %d streams, want 0", ft.writeCount())
	}

	snap := job.Snapshot()
	if !strings.Contains(snap.Reason, "test-printer") {
		t.Errorf("failure reason %q does not name the printer", snap.Reason)
	}
}

func TestOrchestratorBadDocument(t *testing.T) {
	ft := &fakeTransport{}
	o := newTestOrchestrator(t, ft)

	job := NewJob(&memorySource{data: []byte("not an image")}, DefaultSettings(), "test")
	o.Run(job, func(StatusEvent) {})

	if got := job.State(); got != StateFailed {
		t.Fatalf("state = %s, want failed", got)
	}
	if ft.opens != 0 {
		t.Errorf("transport opened %d times, want 0 for an undecodable document", ft.opens)
	}
}

func TestOrchestratorFailedSourceOpen(t *testing.T) {
	ft := &fakeTransport{}
	o := newTestOrchestrator(t, ft)

	job := NewJob(failingSource{}, DefaultSettings(), "test")
	o.Run(job, func(StatusEvent) {})

	if got := job.State(); got != StateFailed {
		t.Fatalf("state = %s, want failed", got)
	}
}
