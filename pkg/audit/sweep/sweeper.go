package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"argus-hq/argus/pkg/audit"
	auditlog "argus-hq/argus/pkg/audit/log"
)

// Config contains configuration for the verification sweeper.
type Config struct {
	// Schedule is a standard cron expression, e.g. "0 3 * * *" for daily at
	// 3 AM. Empty disables scheduled sweeps; Run can still be called
	// directly.
	Schedule string
}

// DefaultConfig returns the default sweeper configuration.
func DefaultConfig() *Config {
	return &Config{
		Schedule: "0 3 * * *",
	}
}

// LogReport is the verification outcome for one log in a sweep.
type LogReport struct {
	LogID           string
	Valid           bool
	EntriesVerified int
	Error           string
}

// Report summarizes one full sweep.
type Report struct {
	StartedAt time.Time
	Duration  time.Duration
	Logs      []LogReport
	Invalid   int
}

// Sweeper periodically verifies the hash chains of registered audit logs.
type Sweeper struct {
	config *Config
	cron   *cron.Cron
	logger *slog.Logger

	mu      sync.Mutex
	logs    map[string]*auditlog.Log
	last    *Report
	running bool
}

// NewSweeper creates a sweeper. The config may be nil for defaults.
func NewSweeper(config *Config) *Sweeper {
	if config == nil {
		config = DefaultConfig()
	}
	return &Sweeper{
		config: config,
		cron:   cron.New(),
		logger: slog.Default().With("component", "audit.sweep"),
		logs:   make(map[string]*auditlog.Log),
	}
}

// Register adds a log to the sweep set. Registering the same log ID again
// replaces the previous handle.
func (s *Sweeper) Register(l *auditlog.Log) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[l.ID()] = l
}

// Unregister removes a log from the sweep set.
func (s *Sweeper) Unregister(logID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.logs, logID)
}

// Start begins scheduled sweeps. With an empty schedule it does nothing.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config.Schedule == "" {
		s.logger.Info("sweep schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.config.Schedule, err)
	}

	if _, err := s.cron.AddFunc(s.config.Schedule, func() {
		s.Run(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule verification sweep: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("verification sweeper started", "schedule", s.config.Schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Run executes one sweep over every registered log and returns the report.
// Individual verification failures do not abort the sweep.
func (s *Sweeper) Run(ctx context.Context) *Report {
	s.mu.Lock()
	logs := make([]*auditlog.Log, 0, len(s.logs))
	for _, l := range s.logs {
		logs = append(logs, l)
	}
	s.mu.Unlock()

	report := &Report{StartedAt: time.Now().UTC()}
	for _, l := range logs {
		lr := LogReport{LogID: l.ID()}

		result, err := l.Verify(ctx)
		switch {
		case result != nil:
			lr.Valid = result.Valid
			lr.EntriesVerified = result.EntriesVerified
			lr.Error = result.Error
		case err != nil:
			lr.Error = err.Error()
		}

		if !lr.Valid {
			report.Invalid++
			var cie *audit.ChainIntegrityError
			if errors.As(err, &cie) {
				s.logger.Error("sweep found broken chain",
					"log_id", lr.LogID,
					"first_invalid_sequence", cie.FirstInvalidSequence,
				)
			} else {
				s.logger.Error("sweep verification failed",
					"log_id", lr.LogID,
					"error", lr.Error,
				)
			}
		}
		report.Logs = append(report.Logs, lr)
	}
	report.Duration = time.Since(report.StartedAt)

	s.mu.Lock()
	s.last = report
	s.mu.Unlock()

	if report.Invalid > 0 {
		s.logger.Error("verification sweep completed with failures",
			"logs", len(report.Logs),
			"invalid", report.Invalid,
			"duration", report.Duration,
		)
	} else {
		s.logger.Info("verification sweep completed",
			"logs", len(report.Logs),
			"duration", report.Duration,
		)
	}
	return report
}

// LastReport returns the most recent sweep report, or nil before the first
// sweep.
func (s *Sweeper) LastReport() *Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
		s.logger.Info("verification sweeper stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Sweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled sweep time.
func (s *Sweeper) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
