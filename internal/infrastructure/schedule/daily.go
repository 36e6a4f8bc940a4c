package schedule

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"arxivmonitor/internal/config"
)

// Job is one named pipeline stage fired daily at a wall-clock time.
type Job struct {
	Name string
	At   string // HH:MM, 24-hour
	Run  func(ctx context.Context) error
}

// Service drives each registered job on its own daily timer. Jobs are
// independent; a fire that arrives while the same job is still running is
// skipped, never queued.
type Service struct {
	jobs   []*guardedJob
	logger *slog.Logger
	now    func() time.Time
	wg     sync.WaitGroup
}

type guardedJob struct {
	Job
	mu sync.Mutex
}

// New builds a scheduler over the given jobs.
func New(logger *slog.Logger, jobs ...Job) *Service {
	s := &Service{logger: logger, now: time.Now}
	for i := range jobs {
		s.jobs = append(s.jobs, &guardedJob{Job: jobs[i]})
	}
	return s
}

// Start launches one timer goroutine per job. It returns immediately;
// Wait blocks until ctx cancellation has stopped every loop.
func (s *Service) Start(ctx context.Context) {
	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, job)
	}
}

// Wait blocks until all timer loops have exited.
func (s *Service) Wait() {
	s.wg.Wait()
}

// TriggerAll runs every job once, sequentially in registration order.
// Used for the immediate-run startup flag and one-shot CLI modes.
func (s *Service) TriggerAll(ctx context.Context) {
	for _, job := range s.jobs {
		s.fire(ctx, job)
	}
}

func (s *Service) loop(ctx context.Context, job *guardedJob) {
	defer s.wg.Done()

	for {
		next, err := nextRun(s.now(), job.At)
		if err != nil {
			// Schedules are validated at config load; this is unreachable
			// unless a job was registered manually with a bad time.
			s.logger.Error("invalid schedule, stopping timer", "job", job.Name, "at", job.At, "error", err)
			return
		}

		s.logger.Info("next run scheduled", "job", job.Name, "at", next.Format(time.RFC3339))

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(next)):
		}

		s.fire(ctx, job)
	}
}

func (s *Service) fire(ctx context.Context, job *guardedJob) {
	if !job.mu.TryLock() {
		s.logger.Warn("previous run still active, skipping", "job", job.Name)
		return
	}
	defer job.mu.Unlock()

	start := s.now()
	s.logger.Info("run started", "job", job.Name)
	if err := job.Run(ctx); err != nil {
		s.logger.Error("run failed", "job", job.Name, "took", time.Since(start).Round(time.Millisecond), "error", err)
		return
	}
	s.logger.Info("run finished", "job", job.Name, "took", time.Since(start).Round(time.Millisecond))
}

// nextRun computes the next occurrence of the HH:MM wall-clock time after
// now, in now's location.
func nextRun(now time.Time, hhmm string) (time.Time, error) {
	hour, minute, err := config.ParseClock(hhmm)
	if err != nil {
		return time.Time{}, err
	}
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next, nil
}
