// Package queue runs background jobs with retry.
//
//	type SendOrderEmail struct{ OrderID string }
//	func (SendOrderEmail) JobName() string { return "send_order_email" }
//	func (j *SendOrderEmail) Handle(ctx context.Context) error { ... }
//
//	queue.Register("send_order_email", func() queue.Job { return &SendOrderEmail{} })
//	queue.Dispatch(ctx, &SendOrderEmail{OrderID: id})
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/bytekstore/bytek/pkg/logger"
)

// Job is the interface every queued job must satisfy.
type Job interface {
	Handle(ctx context.Context) error
}

// Named jobs choose the registry key they are dispatched under. Jobs that
// don't implement it are keyed by their Go type name.
type Named interface {
	JobName() string
}

// Driver is the queue storage backend.
type Driver interface {
	Push(ctx context.Context, payload []byte) error
	// Pop blocks until a payload is available. A nil payload with a nil
	// error means the wait timed out.
	Pop(ctx context.Context) ([]byte, error)
}

type envelope struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	QueuedAt time.Time       `json:"queued_at"`
}

// Manager owns a driver, the job registry and the retry policy.
type Manager struct {
	mu       sync.RWMutex
	driver   Driver
	registry map[string]func() Job
	maxRetry int
	backoff  func(attempt int) time.Duration
	failures FailureStore
	onFinish func(typeName string, err error)
}

// Option configures a Manager.
type Option func(*Manager)

func WithMaxRetry(n int) Option { return func(m *Manager) { m.maxRetry = n } }

func WithBackoff(fn func(attempt int) time.Duration) Option {
	return func(m *Manager) { m.backoff = fn }
}

func WithFailureStore(s FailureStore) Option { return func(m *Manager) { m.failures = s } }

// WithHook is called after each job finishes, with the final error.
func WithHook(fn func(typeName string, err error)) Option {
	return func(m *Manager) { m.onFinish = fn }
}

func New(d Driver, opts ...Option) *Manager {
	m := &Manager{
		driver:   d,
		registry: map[string]func() Job{},
		maxRetry: 3,
		backoff:  func(attempt int) time.Duration { return time.Duration(attempt) * time.Second },
		failures: NewMemoryFailureStore(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

var defaultManager = New(NewMemoryDriver())

// Default returns the process-wide manager.
func Default() *Manager { return defaultManager }

// SetDefault replaces the process-wide manager.
func SetDefault(m *Manager) { defaultManager = m }

// Register makes a job type available for decoding by name.
func Register(name string, factory func() Job) { defaultManager.Register(name, factory) }

// Dispatch pushes job onto the default manager's queue.
func Dispatch(ctx context.Context, job Job) error { return defaultManager.Dispatch(ctx, job) }

func (m *Manager) Register(name string, factory func() Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry[name] = factory
}

func (m *Manager) Dispatch(ctx context.Context, job Job) error {
	typeName := jobName(job)

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue: marshal job %s: %w", typeName, err)
	}
	env, err := json.Marshal(envelope{Type: typeName, Payload: payload, QueuedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("queue: marshal envelope: %w", err)
	}

	m.mu.RLock()
	d := m.driver
	m.mu.RUnlock()

	return d.Push(ctx, env)
}

// Work runs n workers and blocks until ctx is cancelled and every worker
// has returned.
func (m *Manager) Work(ctx context.Context, n int) {
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.loop(ctx)
		}()
	}
	logger.Info("queue: workers started", "count", n)
	wg.Wait()
}

// Start runs n workers in the background.
func (m *Manager) Start(ctx context.Context, n int) {
	go m.Work(ctx, n)
}

func (m *Manager) loop(ctx context.Context) {
	for ctx.Err() == nil {
		m.mu.RLock()
		d := m.driver
		m.mu.RUnlock()

		raw, err := d.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("queue: pop failed", "error", err)
			sleep(ctx, 500*time.Millisecond)
			continue
		}
		if raw == nil {
			continue
		}
		m.process(ctx, raw)
	}
}

func (m *Manager) process(ctx context.Context, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Error("queue: bad envelope", "error", err)
		return
	}

	m.mu.RLock()
	factory, ok := m.registry[env.Type]
	m.mu.RUnlock()
	if !ok {
		logger.Warn("queue: unregistered job type", "type", env.Type)
		return
	}

	job := factory()
	if err := json.Unmarshal(env.Payload, job); err != nil {
		logger.Error("queue: unmarshal payload", "type", env.Type, "error", err)
		return
	}

	err := m.runWithRetry(ctx, job, env.Type)
	if err != nil {
		m.failures.Record(ctx, FailedJob{
			Type:     env.Type,
			Payload:  string(env.Payload),
			Error:    err.Error(),
			Attempts: m.maxRetry,
			FailedAt: time.Now().UTC(),
		})
	}
	if m.onFinish != nil {
		m.onFinish(env.Type, err)
	}
}

func (m *Manager) runWithRetry(ctx context.Context, job Job, typeName string) error {
	var lastErr error
	for attempt := 1; attempt <= m.maxRetry; attempt++ {
		if lastErr = job.Handle(ctx); lastErr == nil {
			logger.Debug("queue: job processed", "type", typeName, "attempt", attempt)
			return nil
		}
		logger.Warn("queue: job failed", "type", typeName, "attempt", attempt, "error", lastErr)
		if attempt < m.maxRetry {
			sleep(ctx, m.backoff(attempt))
		}
		if ctx.Err() != nil {
			break
		}
	}
	logger.Error("queue: job exhausted retries", "type", typeName, "error", lastErr)
	return lastErr
}

// Failures returns recorded failures from the manager's store.
func (m *Manager) Failures(ctx context.Context) ([]FailedJob, error) {
	return m.failures.List(ctx)
}

func jobName(job Job) string {
	if n, ok := job.(Named); ok {
		return n.JobName()
	}
	return fmt.Sprintf("%T", job)
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
