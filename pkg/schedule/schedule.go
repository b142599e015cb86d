// Package schedule runs recurring tasks on cron expressions.
//
//	s := schedule.New()
//	s.Cron("0 8 * * *").Name("low-stock digest").WithoutOverlapping().Run(digest)
//	s.Every(5).Minutes().Name("sweep").Run(sweep)
//	s.Start(ctx) // blocks until ctx is cancelled
package schedule

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bytekstore/bytek/pkg/logger"
)

// Task is the function run on each tick.
type Task func(ctx context.Context)

// Entry describes one registered task.
type Entry struct {
	Name string
	Spec string
	Next time.Time
}

// Scheduler owns a cron runner and its entries.
type Scheduler struct {
	mu    sync.Mutex
	cron  *cron.Cron
	ctx   context.Context
	names map[cron.EntryID]string
	specs map[cron.EntryID]string
}

func New() *Scheduler {
	return &Scheduler{
		cron:  cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor))),
		ctx:   context.Background(),
		names: map[cron.EntryID]string{},
		specs: map[cron.EntryID]string{},
	}
}

// Schedule is a fluent builder for one entry.
type Schedule struct {
	s         *Scheduler
	spec      string
	name      string
	noOverlap bool
	err       error
}

// Cron schedules with a 5-field expression (min hour dom mon dow) or a
// descriptor such as "@hourly".
func (s *Scheduler) Cron(expr string) *Schedule {
	return &Schedule{s: s, spec: strings.TrimSpace(expr)}
}

// Daily runs at midnight unless At changes the time.
func (s *Scheduler) Daily() *Schedule { return s.Cron("0 0 * * *") }

func (s *Scheduler) Hourly() *Schedule { return s.Cron("@hourly") }

// Every starts an interval builder.
func (s *Scheduler) Every(n int) *Interval { return &Interval{s: s, n: n} }

type Interval struct {
	s *Scheduler
	n int
}

func (i *Interval) Seconds() *Schedule { return i.s.Cron(fmt.Sprintf("@every %ds", i.n)) }
func (i *Interval) Minutes() *Schedule { return i.s.Cron(fmt.Sprintf("@every %dm", i.n)) }
func (i *Interval) Hours() *Schedule   { return i.s.Cron(fmt.Sprintf("@every %dh", i.n)) }

// At sets the time of day ("HH:MM") on a daily schedule.
func (b *Schedule) At(hhmm string) *Schedule {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		b.err = fmt.Errorf("schedule: bad time %q", hhmm)
		return b
	}
	b.spec = fmt.Sprintf("%d %d * * *", t.Minute(), t.Hour())
	return b
}

// Name labels the entry in logs and listings.
func (b *Schedule) Name(n string) *Schedule {
	b.name = n
	return b
}

// WithoutOverlapping skips a tick while the previous run is still going.
func (b *Schedule) WithoutOverlapping() *Schedule {
	b.noOverlap = true
	return b
}

// Run registers task. It returns an error for an invalid expression.
func (b *Schedule) Run(task Task) error {
	if b.err != nil {
		return b.err
	}
	name := b.name
	if name == "" {
		name = b.spec
	}

	var job cron.Job = cron.FuncJob(func() { b.s.run(name, task) })
	if b.noOverlap {
		job = cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(job)
	}

	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	id, err := b.s.cron.AddJob(b.spec, job)
	if err != nil {
		return fmt.Errorf("schedule: %s: %w", name, err)
	}
	b.s.names[id] = name
	b.s.specs[id] = b.spec
	return nil
}

func (s *Scheduler) run(name string, task Task) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("schedule: task panicked", "task", name, "panic", fmt.Sprint(r))
		}
	}()
	task(ctx)
	logger.Info("schedule: task finished", "task", name, "duration", time.Since(start).String())
}

// Start runs the scheduler until ctx is cancelled, then waits for running
// tasks to finish.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	logger.Info("schedule: started", "tasks", len(s.cron.Entries()))
	<-ctx.Done()
	<-s.cron.Stop().Done()
	logger.Info("schedule: stopped")
}

// List returns the registered entries in registration order.
func (s *Scheduler) List() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Entry
	for _, e := range s.cron.Entries() {
		next := e.Next
		if next.IsZero() {
			next = e.Schedule.Next(time.Now())
		}
		out = append(out, Entry{Name: s.names[e.ID], Spec: s.specs[e.ID], Next: next})
	}
	return out
}
