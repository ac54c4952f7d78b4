package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is a named unit of periodic work. Jobs carry no self-scheduling
// logic; the scheduler owns cadence, jobs own behavior.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler invokes registered jobs on fixed cadences, and exposes them
// for one-shot manual runs. Jobs are idempotent by design, so an overlap
// between a slow run and the next tick is tolerated, not prevented.
type Scheduler struct {
	mu     sync.RWMutex
	jobs   map[string]Job
	order  []string
	logger *zap.Logger
}

// New creates an empty scheduler
func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		jobs:   make(map[string]Job),
		logger: logger,
	}
}

// Register adds a job under its name. Registering the same name twice
// replaces the previous job.
func (s *Scheduler) Register(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.Name]; !exists {
		s.order = append(s.order, job.Name)
	}
	s.jobs[job.Name] = job
}

// JobNames returns the registered job names in registration order
func (s *Scheduler) JobNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// RunJob runs a single registered job once and returns its error
func (s *Scheduler) RunJob(ctx context.Context, name string) error {
	s.mu.RLock()
	job, ok := s.jobs[name]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}

	start := time.Now()
	err := job.Run(ctx)
	if err != nil {
		s.logger.Error("Job failed",
			zap.String("job", name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return err
	}

	s.logger.Info("Job finished",
		zap.String("job", name),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// Start runs every registered job on its own ticker until the context is
// cancelled. Job errors are logged and do not stop the ticker; the next
// tick retries from durable state.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.RLock()
	jobs := make([]Job, 0, len(s.order))
	for _, name := range s.order {
		jobs = append(jobs, s.jobs[name])
	}
	s.mu.RUnlock()

	var wg sync.WaitGroup
	for _, job := range jobs {
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			s.runLoop(ctx, job)
		}(job)
	}

	wg.Wait()
}

func (s *Scheduler) runLoop(ctx context.Context, job Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	s.logger.Info("Scheduled job",
		zap.String("job", job.Name),
		zap.Duration("interval", job.Interval))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Errors are already logged by RunJob; a periodic run has
			// nobody else to report to.
			_ = s.RunJob(ctx, job.Name)
		}
	}
}
