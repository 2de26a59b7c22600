package usecase

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler triggers the ingestor on a fixed interval in serve mode.
// A zero interval means manual-only ingestion.
type Scheduler struct {
	ingestor *Ingestor
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler wires the periodic driver with the pipeline use case.
func NewScheduler(ingestor *Ingestor, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{ingestor: ingestor, interval: interval, logger: logger}
}

// Start runs the ticker loop until the context is cancelled. The first
// run fires immediately so a fresh deployment is not empty for a full
// interval.
func (s *Scheduler) Start(ctx context.Context) {
	if s.ingestor == nil || s.interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runOnce(ctx)
		for {
			select {
			case <-ticker.C:
				s.runOnce(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *Scheduler) runOnce(ctx context.Context) {
	result := s.ingestor.Run(ctx)
	if s.logger != nil {
		s.logger.Info("scheduled ingest finished", "run", result.RunID, "status", result.Status)
	}
}
