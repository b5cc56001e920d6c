package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	appLog "github.com/jdhoffa/lookout-g/internal/log"
)

// Job is one scheduled refresh.
type Job func(ctx context.Context)

// Scheduler runs a Job on a cron schedule. Overlapping runs are skipped.
type Scheduler struct {
	cron *cron.Cron
	job  Job

	mu    sync.Mutex
	ctx   context.Context
	spec  string
	entry cron.EntryID
}

// cronLogger adapts the application logger to cron.Logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...any) { appLog.Debug("cron: "+msg, kv...) }
func (cronLogger) Error(err error, msg string, kv ...any) {
	appLog.Error("cron: "+msg, err, kv...)
}

// New returns a scheduler evaluating specs in loc (nil means time.Local).
func New(loc *time.Location, job Job) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	logger := cronLogger{}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	return &Scheduler{cron: c, job: job}
}

// Validate reports whether spec is a valid five-field cron expression.
func Validate(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Start schedules the job and blocks until ctx is canceled. Running jobs
// are waited for before Start returns.
func (s *Scheduler) Start(ctx context.Context, spec string) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	if err := s.Reschedule(spec); err != nil {
		return err
	}
	s.cron.Start()
	appLog.Info("scheduler started", "schedule", spec)

	<-ctx.Done()
	<-s.cron.Stop().Done()
	appLog.Info("scheduler stopped")
	return nil
}

// Reschedule replaces the current schedule. It is a no-op when spec is
// unchanged.
func (s *Scheduler) Reschedule(spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if spec == s.spec && s.entry != 0 {
		return nil
	}
	if err := Validate(spec); err != nil {
		return err
	}
	id, err := s.cron.AddFunc(spec, s.run)
	if err != nil {
		return fmt.Errorf("add refresh job: %w", err)
	}
	if s.entry != 0 {
		s.cron.Remove(s.entry)
		appLog.Info("schedule changed", "from", s.spec, "to", spec)
	}
	s.entry = id
	s.spec = spec
	return nil
}

// Next returns the next activation time, or the zero time before Start.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	id := s.entry
	s.mu.Unlock()
	if id == 0 {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}

func (s *Scheduler) run() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return
	}
	s.job(ctx)
}
