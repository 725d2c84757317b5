package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vintnerlabs/bop-tracker/internal/queue"
	"github.com/vintnerlabs/bop-tracker/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultRetryScanInterval = 30 * time.Second
	defaultRetryScanLimit    = 100
)

// RetryScanner re-publishes reminders whose retry backoff has elapsed.
// The worker parks a transient failure as QUEUED with next_retry_at set;
// this scanner picks those up and puts them back on the queue.
type RetryScanner struct {
	reminders repository.ReminderRepository
	publisher queue.Publisher
	logger    *zap.Logger
	interval  time.Duration
	limit     int
}

func NewRetryScanner(
	reminders repository.ReminderRepository,
	publisher queue.Publisher,
	interval time.Duration,
	limit int,
	logger *zap.Logger,
) (*RetryScanner, error) {
	if reminders == nil {
		return nil, fmt.Errorf("reminder repository is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if interval <= 0 {
		interval = defaultRetryScanInterval
	}
	if limit <= 0 {
		limit = defaultRetryScanLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RetryScanner{
		reminders: reminders,
		publisher: publisher,
		logger:    logger,
		interval:  interval,
		limit:     limit,
	}, nil
}

func (s *RetryScanner) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.scanDueRetries(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Error("retry scan failed", zap.Error(err))
			}
		}
	}
}

func (s *RetryScanner) scanDueRetries(ctx context.Context) error {
	due, err := s.reminders.GetDueForRetry(ctx, s.limit)
	if err != nil {
		return fmt.Errorf("failed to fetch due retries: %w", err)
	}

	for i := range due {
		reminder := due[i]

		msg := queue.ReminderMessage{
			ReminderID:    reminder.ID,
			WineryID:      reminder.WineryID,
			BatchID:       reminder.BatchID,
			Stage:         reminder.Stage,
			CorrelationID: reminder.CorrelationID,
		}
		if err := s.publisher.Publish(ctx, queue.RemindersQueue, msg); err != nil {
			s.logger.Error("failed to republish reminder for retry",
				zap.String("reminderId", reminder.ID),
				zap.Error(err),
			)
			continue
		}

		if err := s.reminders.ClearNextRetryAt(ctx, reminder.ID); err != nil {
			s.logger.Error("failed to clear retry timestamp",
				zap.String("reminderId", reminder.ID),
				zap.Error(err),
			)
			continue
		}

		s.logger.Info("reminder republished for retry",
			zap.String("reminderId", reminder.ID),
			zap.Int("attemptCount", reminder.AttemptCount),
		)
	}

	return nil
}
