// Package scheduler runs periodic jobs. A tick that arrives while the previous
// run of the same job is still in flight is skipped, not queued.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"DayTrader/pkg/logger"
)

var (
	ErrUnknownJob = errors.New("scheduler: unknown job")
	ErrJobRunning = errors.New("scheduler: job already running")
)

// Schedule describes when a job fires.
type Schedule struct {
	interval time.Duration
}

// Every fires at a fixed interval, starting immediately.
func Every(d time.Duration) Schedule {
	return Schedule{interval: d}
}

// Job is one scheduled task.
type Job struct {
	Name     string
	Schedule Schedule
	Handler  func(ctx context.Context) error

	mu      sync.Mutex
	running bool
	nextRun time.Time
	lastRun time.Time
	lastDur time.Duration
	lastErr error
	runs    int
	skipped int
}

// JobStatus is a point-in-time snapshot of a job.
type JobStatus struct {
	Name     string        `json:"name"`
	Interval time.Duration `json:"interval"`
	Running  bool          `json:"running"`
	NextRun  time.Time     `json:"nextRun"`
	LastRun  time.Time     `json:"lastRun"`
	Duration time.Duration `json:"lastDuration"`
	LastErr  string        `json:"lastError,omitempty"`
	Runs     int           `json:"runs"`
	Skipped  int           `json:"skipped"`
}

func (j *Job) status() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	st := JobStatus{
		Name:     j.Name,
		Interval: j.Schedule.interval,
		Running:  j.running,
		NextRun:  j.nextRun,
		LastRun:  j.lastRun,
		Duration: j.lastDur,
		Runs:     j.runs,
		Skipped:  j.skipped,
	}
	if j.lastErr != nil {
		st.LastErr = j.lastErr.Error()
	}
	return st
}

// Option configures Scheduler.
type Option func(*Scheduler)

// WithRunTimeout bounds every run with a context deadline.
func WithRunTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.runTimeout = d }
}

// WithSkipHook is called with the job name whenever a tick is skipped.
func WithSkipHook(fn func(job string)) Option {
	return func(s *Scheduler) { s.onSkip = fn }
}

func WithLogger(l *logger.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// Scheduler owns the job loops. Register jobs before Start.
type Scheduler struct {
	runTimeout time.Duration
	onSkip     func(string)
	log        *logger.Logger

	mu       sync.RWMutex
	jobs     []*Job
	byName   map[string]*Job
	started  bool
	stopChan chan struct{}
	stopOnce sync.Once
	loops    sync.WaitGroup
	runs     sync.WaitGroup
	now      func() time.Time
}

func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		runTimeout: 5 * time.Minute,
		log:        logger.Nop(),
		byName:     make(map[string]*Job),
		stopChan:   make(chan struct{}),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a job. Names must be unique and the interval positive.
func (s *Scheduler) Register(job *Job) error {
	if job.Name == "" || job.Handler == nil {
		return fmt.Errorf("scheduler: job needs a name and a handler")
	}
	if job.Schedule.interval <= 0 {
		return fmt.Errorf("scheduler: job %q: interval must be positive", job.Name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.byName[job.Name]; dup {
		return fmt.Errorf("scheduler: job %q already registered", job.Name)
	}
	if s.started {
		return fmt.Errorf("scheduler: register %q after start", job.Name)
	}
	s.jobs = append(s.jobs, job)
	s.byName[job.Name] = job
	s.log.Info("scheduler job registered",
		logger.String("job", job.Name),
		logger.Duration("interval_ms", job.Schedule.interval),
	)
	return nil
}

// Start launches one loop per job. Each job runs once immediately.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	jobs := append([]*Job(nil), s.jobs...)
	s.mu.Unlock()

	for _, job := range jobs {
		s.loops.Add(1)
		go s.loop(job)
	}
	s.log.Info("scheduler started", logger.Int("jobs", len(jobs)))
}

// Stop ends the loops and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.loops.Wait()
	s.runs.Wait()
	s.log.Info("scheduler stopped")
}

// Jobs returns the status of every job in registration order.
func (s *Scheduler) Jobs() []JobStatus {
	s.mu.RLock()
	jobs := append([]*Job(nil), s.jobs...)
	s.mu.RUnlock()

	out := make([]JobStatus, len(jobs))
	for i, j := range jobs {
		out[i] = j.status()
	}
	return out
}

// Trigger starts an out-of-band run of name. It applies the same
// skip-if-running policy as ticks and returns ErrJobRunning when it skips.
func (s *Scheduler) Trigger(name string) error {
	s.mu.RLock()
	job, ok := s.byName[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	select {
	case <-s.stopChan:
		return fmt.Errorf("scheduler: stopped")
	default:
	}
	if !s.tryRun(job) {
		return fmt.Errorf("%w: %s", ErrJobRunning, name)
	}
	return nil
}

func (s *Scheduler) loop(job *Job) {
	defer s.loops.Done()

	ticker := time.NewTicker(job.Schedule.interval)
	defer ticker.Stop()

	s.tryRun(job)
	for {
		select {
		case <-ticker.C:
			s.tryRun(job)
		case <-s.stopChan:
			return
		}
	}
}

// tryRun starts job in the background unless it is already running.
func (s *Scheduler) tryRun(job *Job) bool {
	job.mu.Lock()
	if job.running {
		job.skipped++
		job.mu.Unlock()
		s.log.Warn("scheduler tick skipped, previous run in flight", logger.String("job", job.Name))
		if s.onSkip != nil {
			s.onSkip(job.Name)
		}
		return false
	}
	job.running = true
	job.mu.Unlock()

	s.runs.Add(1)
	go s.run(job)
	return true
}

func (s *Scheduler) run(job *Job) {
	defer s.runs.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	start := s.now()
	err := s.safeCall(ctx, job)
	elapsed := s.now().Sub(start)

	job.mu.Lock()
	job.running = false
	job.lastRun = start
	job.lastDur = elapsed
	job.lastErr = err
	job.runs++
	job.nextRun = start.Add(job.Schedule.interval)
	job.mu.Unlock()

	if err != nil {
		s.log.Error("scheduler job failed",
			logger.String("job", job.Name),
			logger.Duration("duration_ms", elapsed),
			logger.Error(err),
		)
		return
	}
	s.log.Debug("scheduler job done",
		logger.String("job", job.Name),
		logger.Duration("duration_ms", elapsed),
	)
}

func (s *Scheduler) safeCall(ctx context.Context, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in job %s: %v", job.Name, r)
			s.log.Error("scheduler job panic",
				logger.String("job", job.Name),
				logger.String("stack", string(debug.Stack())),
			)
		}
	}()
	return job.Handler(ctx)
}
