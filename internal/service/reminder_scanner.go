package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vintnerlabs/bop-tracker/internal/domain"
	"github.com/vintnerlabs/bop-tracker/internal/queue"
	"github.com/vintnerlabs/bop-tracker/internal/repository"
	"github.com/vintnerlabs/bop-tracker/internal/schedule"
	"go.uber.org/zap"
)

const (
	defaultReminderScanInterval = 5 * time.Minute
	defaultReminderScanLimit    = 100
	defaultReminderMaxAttempts  = 5

	// stalePendingAge is how long a reminder may sit in PENDING before
	// the scanner treats its publish as lost and re-publishes it.
	stalePendingAge = time.Minute
)

// ReminderScanner periodically finds overdue, un-notified stages and
// enqueues reminder deliveries. A (batch, stage) pair is reminded at
// most once while its reminder is live.
type ReminderScanner struct {
	batches   repository.BatchRepository
	reminders repository.ReminderRepository
	publisher queue.Publisher
	calendar  *schedule.Calendar
	logger    *zap.Logger
	interval  time.Duration
	limit     int
	now       func() time.Time
}

func NewReminderScanner(
	batches repository.BatchRepository,
	reminders repository.ReminderRepository,
	publisher queue.Publisher,
	calendar *schedule.Calendar,
	interval time.Duration,
	limit int,
	logger *zap.Logger,
) (*ReminderScanner, error) {
	if batches == nil {
		return nil, fmt.Errorf("batch repository is required")
	}
	if reminders == nil {
		return nil, fmt.Errorf("reminder repository is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if calendar == nil {
		return nil, fmt.Errorf("calendar is required")
	}
	if interval <= 0 {
		interval = defaultReminderScanInterval
	}
	if limit <= 0 {
		limit = defaultReminderScanLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ReminderScanner{
		batches:   batches,
		reminders: reminders,
		publisher: publisher,
		calendar:  calendar,
		logger:    logger,
		interval:  interval,
		limit:     limit,
		now:       time.Now,
	}, nil
}

func (s *ReminderScanner) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Run an initial scan so an already-overdue backlog does not wait
	// for the first ticker edge.
	if err := s.scan(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("reminder scanner initial scan failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.scan(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Error("reminder scanner scan failed", zap.Error(err))
			}
		}
	}
}

func (s *ReminderScanner) scan(ctx context.Context) error {
	if err := s.scanOverdue(ctx); err != nil {
		return err
	}
	return s.republishStalePending(ctx)
}

func (s *ReminderScanner) scanOverdue(ctx context.Context) error {
	today := s.calendar.Today(s.now())

	overdueBatches, err := s.batches.ListOverdueStageBatches(ctx, today, s.limit)
	if err != nil {
		return fmt.Errorf("failed to fetch overdue batches: %w", err)
	}

	for i := range overdueBatches {
		batch := overdueBatches[i]
		if batch.CustomerEmail == nil || *batch.CustomerEmail == "" {
			continue
		}

		for _, stage := range domain.Stages() {
			if batch.StageDone(stage) {
				continue
			}
			due := batch.StageDate(stage)
			if due == nil || !s.calendar.BeforeDay(*due, today) {
				continue
			}

			if err := s.remindOnce(ctx, &batch, stage, *due); err != nil {
				s.logger.Error("failed to enqueue overdue reminder",
					zap.String("batchId", batch.ID),
					zap.String("stage", stage.String()),
					zap.Error(err),
				)
			}
		}
	}

	return nil
}

func (s *ReminderScanner) remindOnce(ctx context.Context, batch *domain.Batch, stage domain.Stage, dueDate time.Time) error {
	exists, err := s.reminders.HasOpenOrSent(ctx, batch.ID, stage)
	if err != nil {
		return fmt.Errorf("failed to check existing reminder: %w", err)
	}
	if exists {
		return nil
	}

	reminder := &domain.Reminder{
		ID:            uuid.NewString(),
		WineryID:      batch.WineryID,
		BatchID:       batch.ID,
		Stage:         stage,
		DueDate:       s.calendar.DateOnly(dueDate),
		Recipient:     *batch.CustomerEmail,
		CorrelationID: uuid.NewString(),
		Status:        domain.ReminderStatusPending,
		MaxAttempts:   defaultReminderMaxAttempts,
	}
	if err := reminder.Validate(); err != nil {
		return err
	}

	if err := s.reminders.Create(ctx, reminder); err != nil {
		return fmt.Errorf("failed to create reminder: %w", err)
	}

	msg := queue.ReminderMessage{
		ReminderID:    reminder.ID,
		WineryID:      reminder.WineryID,
		BatchID:       reminder.BatchID,
		Stage:         reminder.Stage,
		CorrelationID: reminder.CorrelationID,
	}
	if err := s.publisher.Publish(ctx, queue.RemindersQueue, msg); err != nil {
		return fmt.Errorf("failed to publish reminder: %w", err)
	}

	if err := s.reminders.UpdateStatus(ctx, reminder.ID, domain.ReminderStatusQueued); err != nil {
		return fmt.Errorf("failed to mark reminder as queued: %w", err)
	}

	s.logger.Info("overdue reminder enqueued",
		zap.String("reminderId", reminder.ID),
		zap.String("batchId", batch.ID),
		zap.String("stage", stage.String()),
	)

	return nil
}

// republishStalePending recovers reminders whose publish failed after the
// row was inserted. Those rows sit in PENDING, which HasOpenOrSent counts
// as live, so without this pass the (batch, stage) pair would never be
// reminded.
func (s *ReminderScanner) republishStalePending(ctx context.Context) error {
	olderThan := s.now().Add(-stalePendingAge)

	stale, err := s.reminders.GetStalePending(ctx, olderThan, s.limit)
	if err != nil {
		return fmt.Errorf("failed to fetch stale pending reminders: %w", err)
	}

	for i := range stale {
		reminder := stale[i]

		msg := queue.ReminderMessage{
			ReminderID:    reminder.ID,
			WineryID:      reminder.WineryID,
			BatchID:       reminder.BatchID,
			Stage:         reminder.Stage,
			CorrelationID: reminder.CorrelationID,
		}
		if err := s.publisher.Publish(ctx, queue.RemindersQueue, msg); err != nil {
			s.logger.Error("failed to republish stale pending reminder",
				zap.String("reminderId", reminder.ID),
				zap.Error(err),
			)
			continue
		}

		if err := s.reminders.UpdateStatus(ctx, reminder.ID, domain.ReminderStatusQueued); err != nil {
			s.logger.Error("failed to mark republished reminder as queued",
				zap.String("reminderId", reminder.ID),
				zap.Error(err),
			)
			continue
		}

		s.logger.Info("stale pending reminder republished",
			zap.String("reminderId", reminder.ID),
			zap.String("batchId", reminder.BatchID),
			zap.String("stage", reminder.Stage.String()),
		)
	}

	return nil
}
