package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vintnerlabs/bop-tracker/internal/domain"
	"github.com/vintnerlabs/bop-tracker/internal/observability"
	"github.com/vintnerlabs/bop-tracker/internal/provider"
	"github.com/vintnerlabs/bop-tracker/internal/queue"
	"github.com/vintnerlabs/bop-tracker/internal/ratelimit"
	"github.com/vintnerlabs/bop-tracker/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	minWorkerConcurrency = 1
	maxRetryDelay        = 60 * time.Second
	baseRetryDelay       = time.Second
	maxRetryJitterMillis = 250
)

// ReminderWorker consumes reminder messages and delivers them through
// the webhook provider, throttled per winery.
type ReminderWorker struct {
	reminders   repository.ReminderRepository
	attempts    repository.ReminderAttemptRepository
	batches     repository.BatchRepository
	wineries    repository.WineryRepository
	consumer    queue.Consumer
	provider    provider.Provider
	rateLimiter ratelimit.RateLimiter
	logger      *zap.Logger
	metrics     *observability.Metrics
	concurrency int
	now         func() time.Time
	randIntn    func(n int) int
}

func NewReminderWorker(
	reminders repository.ReminderRepository,
	attempts repository.ReminderAttemptRepository,
	batches repository.BatchRepository,
	wineries repository.WineryRepository,
	consumer queue.Consumer,
	emailProvider provider.Provider,
	rateLimiter ratelimit.RateLimiter,
	concurrency int,
	logger *zap.Logger,
) (*ReminderWorker, error) {
	if concurrency < minWorkerConcurrency {
		concurrency = minWorkerConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ReminderWorker{
		reminders:   reminders,
		attempts:    attempts,
		batches:     batches,
		wineries:    wineries,
		consumer:    consumer,
		provider:    emailProvider,
		rateLimiter: rateLimiter,
		logger:      logger,
		concurrency: concurrency,
		now:         time.Now,
		randIntn:    rand.Intn,
	}, nil
}

func (s *ReminderWorker) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// Start consumes the reminders queue until context cancellation.
func (s *ReminderWorker) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	g, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < s.concurrency; i++ {
		workerID := i + 1

		g.Go(func() error {
			s.logger.Info("reminder worker started", zap.Int("workerId", workerID))

			err := s.consumer.Consume(groupCtx, queue.RemindersQueue, s.processMessage)
			if err != nil {
				s.logger.Error("reminder worker stopped with error",
					zap.Int("workerId", workerID),
					zap.Error(err),
				)
				return err
			}

			s.logger.Info("reminder worker stopped", zap.Int("workerId", workerID))
			return nil
		})
	}

	return g.Wait()
}

func (s *ReminderWorker) processMessage(ctx context.Context, msg queue.ReminderMessage) error {
	reminder, err := s.reminders.LockForSending(ctx, msg.ReminderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("reminder not found during lock, skipping",
				zap.String("reminderId", msg.ReminderID),
			)
			return nil
		}
		return fmt.Errorf("failed to lock reminder for sending: %w", err)
	}

	// Nil means terminal/sending state; ack and skip.
	if reminder == nil {
		return nil
	}

	if s.metrics != nil {
		s.metrics.IncWorkerInFlight()
		defer s.metrics.DecWorkerInFlight()
	}

	if err := s.rateLimiter.Wait(ctx, reminder.WineryID); err != nil {
		return fmt.Errorf("rate limiter wait failed: %w", err)
	}

	email, err := s.buildEmail(ctx, reminder)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Batch or winery deleted since the scan; nothing to remind.
			if updateErr := s.reminders.UpdateStatus(ctx, reminder.ID, domain.ReminderStatusFailed); updateErr != nil {
				return fmt.Errorf("failed to fail orphaned reminder: %w", updateErr)
			}
			return nil
		}
		return err
	}

	attemptNumber := reminder.AttemptCount + 1
	sendStart := s.now()
	providerResp, sendErr := s.provider.Send(ctx, email)
	if s.metrics != nil {
		s.metrics.ObserveReminderSendDuration(s.now().Sub(sendStart))
	}

	if err := s.recordAttempt(ctx, reminder.ID, attemptNumber, providerResp, sendErr); err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}

	if sendErr == nil {
		if err := s.reminders.UpdateStatus(ctx, reminder.ID, domain.ReminderStatusSent); err != nil {
			return fmt.Errorf("failed to update reminder status to sent: %w", err)
		}
		if s.metrics != nil {
			s.metrics.IncReminderSent()
		}
		return nil
	}

	isTransient := provider.IsTransient(sendErr)
	maxAttempts := reminder.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultReminderMaxAttempts
	}

	if isTransient && attemptNumber < maxAttempts {
		nextRetryAt := s.now().Add(s.computeRetryDelay(attemptNumber))
		if err := s.reminders.UpdateStatusWithRetry(ctx, reminder.ID, domain.ReminderStatusQueued, nextRetryAt); err != nil {
			return fmt.Errorf("failed to update reminder for retry: %w", err)
		}
		if s.metrics != nil {
			s.metrics.IncRetryScheduled()
		}
		return nil
	}

	if err := s.reminders.UpdateStatus(ctx, reminder.ID, domain.ReminderStatusFailed); err != nil {
		return fmt.Errorf("failed to update reminder status to failed: %w", err)
	}
	if s.metrics != nil {
		reason := "permanent_error"
		if isTransient {
			reason = "retry_exhausted"
		}
		s.metrics.IncReminderFailed(reason)
	}

	return nil
}

func (s *ReminderWorker) buildEmail(ctx context.Context, reminder *domain.Reminder) (provider.ReminderEmail, error) {
	batch, err := s.batches.GetByID(ctx, reminder.BatchID)
	if err != nil {
		return provider.ReminderEmail{}, err
	}

	winery, err := s.wineries.GetByID(ctx, reminder.WineryID)
	if err != nil {
		return provider.ReminderEmail{}, err
	}

	return provider.ReminderEmail{
		To:           reminder.Recipient,
		WineryName:   winery.Name,
		BOPNumber:    batch.BOPNumber,
		CustomerName: batch.CustomerName,
		WineKitName:  batch.WineKitName,
		Stage:        reminder.Stage,
		DueDate:      reminder.DueDate,
	}, nil
}

func (s *ReminderWorker) computeRetryDelay(attemptNumber int) time.Duration {
	if attemptNumber < 1 {
		attemptNumber = 1
	}

	delay := baseRetryDelay
	for i := 1; i < attemptNumber; i++ {
		delay *= 2
		if delay >= maxRetryDelay {
			delay = maxRetryDelay
			break
		}
	}

	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}

	jitterMillis := 0
	if s.randIntn != nil && maxRetryJitterMillis > 0 {
		jitterMillis = s.randIntn(maxRetryJitterMillis + 1)
	}

	return delay + time.Duration(jitterMillis)*time.Millisecond
}

func (s *ReminderWorker) recordAttempt(
	ctx context.Context,
	reminderID string,
	attemptNumber int,
	providerResp *provider.ProviderResponse,
	sendErr error,
) error {
	var statusCode *int
	var responseBody *string
	var attemptErr *string

	if providerResp != nil {
		if providerResp.StatusCode > 0 {
			value := providerResp.StatusCode
			statusCode = &value
		}
		if body := strings.TrimSpace(providerResp.Body); body != "" {
			value := providerResp.Body
			responseBody = &value
		}
	}

	if sendErr != nil {
		value := sendErr.Error()
		attemptErr = &value

		var providerErr *provider.ProviderError
		if errors.As(sendErr, &providerErr) && providerErr.StatusCode > 0 && statusCode == nil {
			value := providerErr.StatusCode
			statusCode = &value
		}
	}

	attempt := &domain.ReminderAttempt{
		ID:            uuid.NewString(),
		ReminderID:    reminderID,
		AttemptNumber: attemptNumber,
		StatusCode:    statusCode,
		ResponseBody:  responseBody,
		Error:         attemptErr,
		CreatedAt:     s.now().UTC(),
	}

	return s.attempts.Create(ctx, attempt)
}
