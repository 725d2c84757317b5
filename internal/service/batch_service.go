package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vintnerlabs/bop-tracker/internal/domain"
	"github.com/vintnerlabs/bop-tracker/internal/observability"
	"github.com/vintnerlabs/bop-tracker/internal/query"
	"github.com/vintnerlabs/bop-tracker/internal/repository"
	"github.com/vintnerlabs/bop-tracker/internal/schedule"
	"go.uber.org/zap"
)

// BatchService owns the batch lifecycle: creation computes the full
// production schedule, stage toggles drive the derived status, and
// manual date overrides are validated against the ordering invariant.
type BatchService struct {
	batches  repository.BatchRepository
	wineries repository.WineryRepository
	calendar *schedule.Calendar
	logger   *zap.Logger
	metrics  *observability.Metrics
	now      func() time.Time
}

func NewBatchService(
	batches repository.BatchRepository,
	wineries repository.WineryRepository,
	calendar *schedule.Calendar,
	logger *zap.Logger,
) (*BatchService, error) {
	if batches == nil {
		return nil, fmt.Errorf("batch repository is required")
	}
	if wineries == nil {
		return nil, fmt.Errorf("winery repository is required")
	}
	if calendar == nil {
		return nil, fmt.Errorf("calendar is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &BatchService{
		batches:  batches,
		wineries: wineries,
		calendar: calendar,
		logger:   logger,
		now:      time.Now,
	}, nil
}

func (s *BatchService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// CreateBatchInput carries everything needed to open a new batch.
type CreateBatchInput struct {
	WineryID         string
	CustomerName     string
	CustomerEmail    *string
	WineKitName      string
	KitDurationWeeks int
	DateOfSale       time.Time
	Notes            *string
	PutUpDisposition domain.PutUpDisposition
	PutUpDate        *time.Time
}

func (s *BatchService) Create(ctx context.Context, input CreateBatchInput) (*domain.Batch, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	kit, err := domain.ParseKitDuration(input.KitDurationWeeks)
	if err != nil {
		return nil, err
	}

	if _, err := s.wineries.GetByID(ctx, input.WineryID); err != nil {
		return nil, fmt.Errorf("failed to resolve winery: %w", err)
	}

	computed, err := s.calendar.Compute(
		input.PutUpDisposition,
		input.DateOfSale,
		input.PutUpDate,
		kit,
		s.now(),
	)
	if err != nil {
		return nil, err
	}

	batch := &domain.Batch{
		ID:               uuid.NewString(),
		WineryID:         input.WineryID,
		CustomerName:     input.CustomerName,
		CustomerEmail:    input.CustomerEmail,
		WineKitName:      input.WineKitName,
		KitDurationWeeks: kit,
		DateOfSale:       s.calendar.DateOnly(input.DateOfSale),
		Notes:            input.Notes,
		PutUpDate:        &computed.PutUp,
		RackDate:         &computed.Rack,
		FilterDate:       &computed.Filter,
		BottleDate:       &computed.Bottle,
	}
	if input.PutUpDisposition == domain.PutUpAlreadyDone {
		batch.PutUpDone = true
	}

	if err := batch.Validate(); err != nil {
		return nil, err
	}

	if err := s.batches.Create(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to create batch: %w", err)
	}

	if s.metrics != nil {
		s.metrics.IncBatchCreated()
	}

	s.logger.Info("batch created",
		zap.String("batchId", batch.ID),
		zap.String("wineryId", batch.WineryID),
		zap.Int64("bopNumber", batch.BOPNumber),
	)

	return batch, nil
}

func (s *BatchService) Get(ctx context.Context, id string) (*domain.Batch, error) {
	return s.batches.GetByID(ctx, id)
}

// List returns a winery's batches filtered and ordered by params.
// Filtering runs over the snapshot in memory; overdue judgments use the
// business-timezone today.
func (s *BatchService) List(ctx context.Context, wineryID string, params query.Params) ([]domain.Batch, error) {
	batches, err := s.batches.ListByWinery(ctx, wineryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}

	today := s.calendar.Today(s.now())
	return query.Apply(s.calendar, batches, params, today), nil
}

func (s *BatchService) Update(ctx context.Context, id string, update repository.BatchUpdate) (*domain.Batch, error) {
	if update.KitDurationWeeks != nil && !update.KitDurationWeeks.IsValid() {
		return nil, fmt.Errorf("%w: invalid kit duration %d weeks (allowed: 4, 5, 6, 8)", domain.ErrValidation, *update.KitDurationWeeks)
	}
	if update.CustomerName != nil && *update.CustomerName == "" {
		return nil, fmt.Errorf("%w: customer name cannot be empty", domain.ErrValidation)
	}
	if update.WineKitName != nil && *update.WineKitName == "" {
		return nil, fmt.Errorf("%w: wine kit name cannot be empty", domain.ErrValidation)
	}

	return s.batches.Update(ctx, id, update)
}

// ToggleStage flips one stage's completion flag. Overall status is
// derived from the flags on read, so it can never drift out of sync,
// including when a finished batch is un-toggled back to pending.
func (s *BatchService) ToggleStage(ctx context.Context, id string, stage domain.Stage, done bool) (*domain.Batch, error) {
	if !stage.IsValid() {
		return nil, fmt.Errorf("%w: invalid stage %q", domain.ErrValidation, stage)
	}

	batch, err := s.batches.SetStageDone(ctx, id, stage, done)
	if err != nil {
		return nil, err
	}

	s.logger.Info("stage toggled",
		zap.String("batchId", id),
		zap.String("stage", stage.String()),
		zap.Bool("done", done),
		zap.String("status", batch.Status().String()),
	)

	return batch, nil
}

// OverrideStageDate replaces one stage date after validating it against
// the batch's other dates. Violations are rejected with the conflicting
// pair named; existing dates are never silently reordered.
func (s *BatchService) OverrideStageDate(ctx context.Context, id string, stage domain.Stage, date time.Time) (*domain.Batch, error) {
	if !stage.IsValid() {
		return nil, fmt.Errorf("%w: invalid stage %q", domain.ErrValidation, stage)
	}
	if date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", domain.ErrValidation)
	}

	batch, err := s.batches.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	candidate := *batch
	normalized := s.calendar.DateOnly(date)
	if err := candidate.SetStageDate(stage, normalized); err != nil {
		return nil, err
	}
	if err := s.calendar.ValidateStageDates(&candidate); err != nil {
		return nil, err
	}

	return s.batches.SetStageDate(ctx, id, stage, normalized)
}

func (s *BatchService) Delete(ctx context.Context, id string) error {
	return s.batches.Delete(ctx, id)
}
