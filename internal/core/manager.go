package core

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/emirhncann/portable-thermal-printer/internal/document"
)

// HistoryRecorder persists terminal job outcomes. Pending queue state is
// deliberately memory-only: a restart drops queued jobs rather than
// replaying them against the printer.
type HistoryRecorder interface {
	RecordJob(snapshot JobSnapshot) error
}

// Manager accepts submissions and drives them through a single dedicated
// worker, one job at a time. Status notifications fan out from a separate
// notifier goroutine so sinks never run on the worker.
type Manager struct {
	orchestrator *Orchestrator
	history      HistoryRecorder
	log          *zap.Logger

	mu      sync.RWMutex
	jobs    map[string]*Job
	sinks   []StatusSink
	running bool

	jobCh  chan *Job
	events chan StatusEvent
	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewManager(orchestrator *Orchestrator, history HistoryRecorder, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		orchestrator: orchestrator,
		history:      history,
		log:          log,
		jobs:         make(map[string]*Job),
		jobCh:        make(chan *Job, 100),
		events:       make(chan StatusEvent, 256),
		stopCh:       make(chan struct{}),
	}
}

// AddSink registers a status sink. Must be called before Start.
func (m *Manager) AddSink(sink StatusSink) {
	m.mu.Lock()
	m.sinks = append(m.sinks, sink)
	m.mu.Unlock()
}

func (m *Manager) Start() error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = true
	m.mu.Unlock()

	m.wg.Add(2)
	go m.worker()
	go m.notifier()

	return nil
}

func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.mu.Unlock()

	close(m.stopCh)
	m.wg.Wait()
}

func (m *Manager) Submit(source document.Source, settings PrintSettings, submittedBy string) (*Job, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid print settings: %w", err)
	}

	job := NewJob(source, settings, submittedBy)

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	select {
	case m.jobCh <- job:
	default:
		m.mu.Lock()
		delete(m.jobs, job.ID)
		m.mu.Unlock()
		return nil, ErrQueueFull
	}

	m.log.Info("job submitted",
		zap.String("job_id", job.ID),
		zap.String("submitted_by", submittedBy),
	)
	return job, nil
}

// Cancel arms the job's cancellation flag. A queued job terminates before
// rendering its first page; a running job finishes the page in flight and
// stops at the next page boundary.
func (m *Manager) Cancel(id string) error {
	m.mu.RLock()
	job, ok := m.jobs[id]
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	if job.State().Terminal() {
		return fmt.Errorf("job %s already %s", id, job.State())
	}

	job.RequestCancel()
	m.log.Info("job cancellation requested", zap.String("job_id", id))
	return nil
}

func (m *Manager) GetJob(id string) (*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return job, nil
}

func (m *Manager) ListJobs() []JobSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]JobSnapshot, 0, len(m.jobs))
	for _, job := range m.jobs {
		out = append(out, job.Snapshot())
	}
	return out
}

func (m *Manager) emit(event StatusEvent) {
	select {
	case m.events <- event:
	default:
		m.log.Warn("status queue full, dropping event",
			zap.String("job_id", event.JobID),
			zap.String("event", string(event.Kind)),
		)
	}
}

func (m *Manager) worker() {
	defer m.wg.Done()

	for {
		select {
		case <-m.stopCh:
			return
		case job := <-m.jobCh:
			m.orchestrator.Run(job, m.emit)
			m.recordTerminal(job)
		}
	}
}

func (m *Manager) recordTerminal(job *Job) {
	if m.history == nil {
		return
	}
	snapshot := job.Snapshot()
	if !snapshot.State.Terminal() {
		return
	}
	if err := m.history.RecordJob(snapshot); err != nil {
		m.log.Error("failed to record job history",
			zap.String("job_id", job.ID),
			zap.Error(err),
		)
	}
}

func (m *Manager) notifier() {
	defer m.wg.Done()

	for {
		select {
		case <-m.stopCh:
			return
		case event := <-m.events:
			m.mu.RLock()
			sinks := m.sinks
			m.mu.RUnlock()
			for _, sink := range sinks {
				sink.Notify(event)
			}
		}
	}
}
