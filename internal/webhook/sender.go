package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/emirhncann/portable-thermal-printer/internal/core"
	"github.com/emirhncann/portable-thermal-printer/internal/db"
)

type Payload struct {
	Event     string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
	Signature string      `json:"signature,omitempty"`
}

type Config struct {
	RetryCount  int
	RetryDelay  time.Duration
	Timeout     time.Duration
	WorkerCount int
	QueueSize   int
}

type task struct {
	webhookID int64
	event     core.EventKind
	payload   *Payload
	attempt   int
}

// Sender delivers job status events to registered webhook endpoints. It
// implements core.StatusSink; Notify only enqueues, delivery happens on the
// sender's own worker pool.
type Sender struct {
	httpClient *http.Client
	retryCount int
	retryDelay time.Duration
	workers    int
	queue      chan *task
	stopCh     chan struct{}
	wg         sync.WaitGroup
	log        *zap.Logger
}

func NewSender(config Config, log *zap.Logger) *Sender {
	if config.RetryCount <= 0 {
		config.RetryCount = 3
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 5 * time.Second
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = 3
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 100
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Sender{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		retryCount: config.RetryCount,
		retryDelay: config.RetryDelay,
		workers:    config.WorkerCount,
		queue:      make(chan *task, config.QueueSize),
		stopCh:     make(chan struct{}),
		log:        log,
	}
}

func (s *Sender) Start() {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

func (s *Sender) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

// Notify satisfies core.StatusSink.
func (s *Sender) Notify(event core.StatusEvent) {
	s.enqueue(event.Kind, event)
}

func (s *Sender) enqueue(event core.EventKind, data interface{}) {
	webhooks, err := db.Webhooks.ListForEvent(context.Background(), string(event))
	if err != nil {
		s.log.Error("failed to get webhooks for event",
			zap.String("event", string(event)),
			zap.Error(err),
		)
		return
	}

	for _, webhook := range webhooks {
		t := &task{
			webhookID: webhook.ID,
			event:     event,
			payload: &Payload{
				Event:     string(event),
				Timestamp: time.Now(),
				Data:      data,
			},
		}

		select {
		case s.queue <- t:
		default:
			s.log.Warn("webhook queue full, dropping delivery",
				zap.Int64("webhook_id", webhook.ID),
				zap.String("event", string(event)),
			)
		}
	}
}

func (s *Sender) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopCh:
			return
		case t := <-s.queue:
			if err := s.sendWithRetry(t); err != nil {
				s.log.Error("webhook delivery failed",
					zap.Int("worker", id),
					zap.Int64("webhook_id", t.webhookID),
					zap.String("event", string(t.event)),
					zap.Int("attempts", t.attempt),
					zap.Error(err),
				)
			}
		}
	}
}

func (s *Sender) sendWithRetry(t *task) error {
	webhook, err := db.Webhooks.GetWebhookByID(context.Background(), t.webhookID)
	if err != nil {
		return fmt.Errorf("get webhook: %w", err)
	}

	var lastErr error
	for t.attempt < s.retryCount {
		t.attempt++

		err := s.sendRequest(webhook, t.payload)
		if err == nil {
			return nil
		}

		lastErr = err

		if isClientError(err) {
			return err
		}

		if t.attempt < s.retryCount {
			backoff := s.retryDelay * time.Duration(1<<(t.attempt-1))
			s.log.Debug("webhook retry scheduled",
				zap.Int64("webhook_id", webhook.ID),
				zap.Int("attempt", t.attempt),
				zap.Duration("backoff", backoff),
			)

			select {
			case <-s.stopCh:
				return fmt.Errorf("shutdown requested")
			case <-time.After(backoff):
			}
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (s *Sender) sendRequest(webhook *db.Webhook, payload *Payload) error {
	dataBytes, err := json.Marshal(payload.Data)
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}

	if webhook.Secret != "" {
		payload.Signature = signPayload(dataBytes, webhook.Secret)
	}

	fullPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, webhook.URL, bytes.NewReader(fullPayload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", payload.Signature)
	req.Header.Set("X-Webhook-Event", payload.Event)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("http error: %d", resp.StatusCode)
	}

	return nil
}

func signPayload(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

func isClientError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "http error: 4")
}
