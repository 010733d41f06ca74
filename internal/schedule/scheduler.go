// Package schedule fires coordinator runs once per day at a configured local
// time, never concurrently.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"leetdrip/internal/delivery"
	logx "leetdrip/pkg/logx"
)

// ErrRunInProgress is returned by TriggerNow while another run is active.
var ErrRunInProgress = errors.New("a run is already in progress")

// Runner executes one full delivery run. delivery.Coordinator satisfies this.
type Runner interface {
	RunOnce(ctx context.Context) (*delivery.RunReport, error)
}

type Config struct {
	Hour       int
	Minute     int
	Location   *time.Location
	RunOnStart bool
}

// Scheduler wraps a single daily cron entry with an overlap guard. Fires
// missed while the process was down are not replayed; the next future
// occurrence is the first fire after a restart.
type Scheduler struct {
	runner Runner
	cfg    Config
	log    logx.Logger

	mu      sync.Mutex
	running bool

	onReport func(*delivery.RunReport, error)
}

func New(runner Runner, cfg Config, log logx.Logger) (*Scheduler, error) {
	if cfg.Hour < 0 || cfg.Hour > 23 || cfg.Minute < 0 || cfg.Minute > 59 {
		return nil, fmt.Errorf("invalid schedule time %02d:%02d", cfg.Hour, cfg.Minute)
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Scheduler{runner: runner, cfg: cfg, log: log}, nil
}

// OnReport registers a hook called after every run, cadence-driven or manual.
// Must be set before Run.
func (s *Scheduler) OnReport(fn func(*delivery.RunReport, error)) {
	s.onReport = fn
}

// Run blocks until ctx is cancelled. The cadence entry skips a fire when the
// previous run is still active.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New(cron.WithLocation(s.cfg.Location))
	spec := fmt.Sprintf("%d %d * * *", s.cfg.Minute, s.cfg.Hour)
	_, err := c.AddFunc(spec, func() {
		if _, err := s.trigger(ctx, "cron"); errors.Is(err, ErrRunInProgress) {
			s.log.Warn("scheduled run skipped (previous run still running)")
		}
	})
	if err != nil {
		return fmt.Errorf("register cron entry: %w", err)
	}

	c.Start()
	s.log.Info("scheduler started",
		logx.String("at", fmt.Sprintf("%02d:%02d", s.cfg.Hour, s.cfg.Minute)),
		logx.String("tz", s.cfg.Location.String()),
		logx.Time("next_fire", s.NextFire(time.Now())),
	)

	if s.cfg.RunOnStart {
		if _, err := s.trigger(ctx, "startup"); err != nil && !errors.Is(err, ErrRunInProgress) {
			s.log.Error("startup run failed", logx.Err(err))
		}
	}

	<-ctx.Done()
	stopped := c.Stop()
	// Wait for a cron callback that is mid-dispatch; the run itself observes
	// ctx and winds down on its own.
	<-stopped.Done()
	s.log.Info("scheduler stopped")
	return nil
}

// TriggerNow runs a manual trigger synchronously. It respects the same
// overlap guard as the cadence: a second concurrent run is never started.
func (s *Scheduler) TriggerNow(ctx context.Context) (*delivery.RunReport, error) {
	return s.trigger(ctx, "manual")
}

func (s *Scheduler) trigger(ctx context.Context, source string) (*delivery.RunReport, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrRunInProgress
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.log.Info("run triggered", logx.String("source", source))
	report, err := s.runner.RunOnce(ctx)
	if s.onReport != nil {
		s.onReport(report, err)
	}
	if err != nil {
		s.log.Error("run failed", logx.String("source", source), logx.Err(err))
		return nil, err
	}
	return report, nil
}

// NextFire computes the next occurrence of the configured time strictly after
// now, in the configured timezone.
func (s *Scheduler) NextFire(now time.Time) time.Time {
	local := now.In(s.cfg.Location)
	next := time.Date(local.Year(), local.Month(), local.Day(), s.cfg.Hour, s.cfg.Minute, 0, 0, s.cfg.Location)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// ParseHHMM parses a "HH:MM" clock time.
func ParseHHMM(v string) (hour, minute int, err error) {
	v = strings.TrimSpace(v)
	parts := strings.Split(v, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", v)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", v)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", v)
	}
	return h, m, nil
}
