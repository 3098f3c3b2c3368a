package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"intervai/internal/queue"
	"intervai/internal/repositories"
)

// EvaluationSweeper re-enqueues sessions that finished but never got a
// score. A lost queue message (Redis restart, worker crash mid-job past the
// retry cap) would otherwise leave the session pending forever.
type EvaluationSweeper struct {
	sessions  *repositories.SessionRepository
	publisher queue.Publisher
	schedule  string
	grace     time.Duration
	cron      *cron.Cron
	logger    *zap.Logger
}

func NewEvaluationSweeper(
	sessions *repositories.SessionRepository,
	publisher queue.Publisher,
	schedule string,
	grace time.Duration,
	logger *zap.Logger,
) *EvaluationSweeper {
	return &EvaluationSweeper{
		sessions:  sessions,
		publisher: publisher,
		schedule:  schedule,
		grace:     grace,
		cron:      cron.New(),
		logger:    logger,
	}
}

// Start schedules the sweep.
func (s *EvaluationSweeper) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.Sweep(context.Background()); err != nil {
			s.logger.Error("evaluation sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule evaluation sweep: %w", err)
	}
	s.cron.Start()
	s.logger.Info("evaluation sweeper started", zap.String("schedule", s.schedule))
	return nil
}

func (s *EvaluationSweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Sweep publishes one message per stuck session. Sessions completed within
// the grace window are skipped to leave the normal queue path time to run.
func (s *EvaluationSweeper) Sweep(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-s.grace)
	stuck, err := s.sessions.ListUnevaluated(ctx, cutoff)
	if err != nil {
		return err
	}
	if len(stuck) == 0 {
		return nil
	}

	requeued := 0
	for _, session := range stuck {
		msg := queue.EvaluationMessage{
			SessionID: session.ID,
			RequestID: uuid.New().String(),
		}
		if err := s.publisher.Publish(ctx, msg); err != nil {
			s.logger.Error("failed to re-enqueue session",
				zap.String("sessionId", session.ID), zap.Error(err))
			continue
		}
		requeued++
	}

	s.logger.Info("evaluation sweep completed",
		zap.Int("stuck", len(stuck)), zap.Int("requeued", requeued))
	return nil
}
