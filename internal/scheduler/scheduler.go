package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Job is a named unit of background work on a cron schedule.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context, now time.Time) error
}

type Scheduler struct {
	cron    *cron.Cron
	jobs    map[string]Job
	timeout time.Duration
	now     func() time.Time
}

// New builds a scheduler whose runs never overlap for the same job and
// whose panics are recovered and logged.
func New(timeout time.Duration, jobs ...Job) *Scheduler {
	logger := cronLogger{}
	s := &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)), cron.WithLogger(logger)),
		jobs:    make(map[string]Job, len(jobs)),
		timeout: timeout,
		now:     time.Now,
	}
	for _, job := range jobs {
		s.jobs[job.Name] = job
	}
	return s
}

// Start registers every job with cron and starts it. Runs use ctx as parent.
func (s *Scheduler) Start(ctx context.Context) error {
	for _, name := range s.Names() {
		job := s.jobs[name]
		_, err := s.cron.AddFunc(job.Schedule, func() {
			if err := s.RunJob(ctx, job.Name); err != nil {
				log.Error().Err(err).Str("job", job.Name).Msg("scheduled job failed")
			}
		})
		if err != nil {
			return fmt.Errorf("schedule job %q (%s): %w", job.Name, job.Schedule, err)
		}
		log.Info().Str("job", job.Name).Str("schedule", job.Schedule).Msg("job scheduled")
	}
	s.cron.Start()
	return nil
}

// Stop stops scheduling and returns a context that is done once running
// jobs have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// RunJob runs one job immediately.
func (s *Scheduler) RunJob(ctx context.Context, name string) error {
	job, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := s.now()
	log.Info().Str("job", name).Msg("job started")
	if err := job.Run(ctx, start); err != nil {
		return err
	}
	log.Info().Str("job", name).Dur("duration", time.Since(start)).Msg("job finished")
	return nil
}

func (s *Scheduler) Names() []string {
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// cronLogger routes cron's own messages to zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
