package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vintnerlabs/bop-tracker/internal/domain"
	"gorm.io/gorm"
)

// BatchUpdate carries the editable customer/kit fields of a batch.
// Nil pointers leave the stored value untouched.
type BatchUpdate struct {
	CustomerName     *string
	CustomerEmail    *string
	WineKitName      *string
	KitDurationWeeks *domain.KitDuration
	Notes            *string
}

type BatchRepository interface {
	// Create inserts the batch and assigns its winery-scoped BOP number
	// atomically relative to concurrent inserts.
	Create(ctx context.Context, b *domain.Batch) error
	GetByID(ctx context.Context, id string) (*domain.Batch, error)
	ListByWinery(ctx context.Context, wineryID string) ([]domain.Batch, error)
	Update(ctx context.Context, id string, update BatchUpdate) (*domain.Batch, error)
	SetStageDone(ctx context.Context, id string, stage domain.Stage, done bool) (*domain.Batch, error)
	SetStageDate(ctx context.Context, id string, stage domain.Stage, date time.Time) (*domain.Batch, error)
	Delete(ctx context.Context, id string) error
	// ListOverdueStageBatches returns batches with at least one unfinished
	// stage dated strictly before the given day.
	ListOverdueStageBatches(ctx context.Context, before time.Time, limit int) ([]domain.Batch, error)
}

type GormBatchRepo struct {
	db *gorm.DB
}

func NewGormBatchRepo(db *gorm.DB) *GormBatchRepo {
	return &GormBatchRepo{db: db}
}

func (r *GormBatchRepo) Create(ctx context.Context, b *domain.Batch) error {
	model := batchModelFromDomain(b)
	if model == nil {
		return fmt.Errorf("%w: batch is required", domain.ErrValidation)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Bump the winery counter and insert in one transaction, so
		// BOP numbers stay strictly increasing and are never reused
		// even when a concurrent insert wins the race.
		var next int64
		result := tx.Raw(
			`UPDATE wineries SET next_bop_number = next_bop_number + 1, updated_at = ? WHERE id = ? RETURNING next_bop_number`,
			time.Now().UTC(), model.WineryID,
		).Scan(&next)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: winery %s", domain.ErrNotFound, model.WineryID)
		}

		model.BOPNumber = next
		return tx.Create(model).Error
	})
	if err != nil {
		return err
	}

	*b = *batchModelToDomain(model)
	return nil
}

func (r *GormBatchRepo) GetByID(ctx context.Context, id string) (*domain.Batch, error) {
	var model BatchModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return batchModelToDomain(&model), nil
}

func (r *GormBatchRepo) ListByWinery(ctx context.Context, wineryID string) ([]domain.Batch, error) {
	var models []BatchModel
	err := r.db.WithContext(ctx).
		Where("winery_id = ?", wineryID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	batches := make([]domain.Batch, 0, len(models))
	for i := range models {
		batches = append(batches, *batchModelToDomain(&models[i]))
	}
	return batches, nil
}

func (r *GormBatchRepo) Update(ctx context.Context, id string, update BatchUpdate) (*domain.Batch, error) {
	fields := map[string]any{}
	if update.CustomerName != nil {
		fields["customer_name"] = *update.CustomerName
	}
	if update.CustomerEmail != nil {
		fields["customer_email"] = *update.CustomerEmail
	}
	if update.WineKitName != nil {
		fields["wine_kit_name"] = *update.WineKitName
	}
	if update.KitDurationWeeks != nil {
		fields["kit_duration_weeks"] = update.KitDurationWeeks.Weeks()
	}
	if update.Notes != nil {
		fields["notes"] = *update.Notes
	}

	if len(fields) > 0 {
		result := r.db.WithContext(ctx).
			Model(&BatchModel{}).
			Where("id = ?", id).
			Updates(fields)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, domain.ErrNotFound
		}
	}

	return r.GetByID(ctx, id)
}

func (r *GormBatchRepo) SetStageDone(ctx context.Context, id string, stage domain.Stage, done bool) (*domain.Batch, error) {
	column, err := stageDoneColumn(stage)
	if err != nil {
		return nil, err
	}

	result := r.db.WithContext(ctx).
		Model(&BatchModel{}).
		Where("id = ?", id).
		Update(column, done)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *GormBatchRepo) SetStageDate(ctx context.Context, id string, stage domain.Stage, date time.Time) (*domain.Batch, error) {
	column, err := stageDateColumn(stage)
	if err != nil {
		return nil, err
	}

	result := r.db.WithContext(ctx).
		Model(&BatchModel{}).
		Where("id = ?", id).
		Update(column, date)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *GormBatchRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&BatchModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormBatchRepo) ListOverdueStageBatches(ctx context.Context, before time.Time, limit int) ([]domain.Batch, error) {
	if limit < 1 {
		limit = 100
	}

	var models []BatchModel
	err := r.db.WithContext(ctx).
		Where(
			`(NOT put_up_done AND put_up_date < @before)
			OR (NOT rack_done AND rack_date < @before)
			OR (NOT filter_done AND filter_date < @before)
			OR (NOT bottle_done AND bottle_date < @before)`,
			map[string]any{"before": before},
		).
		Order("created_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	batches := make([]domain.Batch, 0, len(models))
	for i := range models {
		batches = append(batches, *batchModelToDomain(&models[i]))
	}
	return batches, nil
}

func stageDoneColumn(stage domain.Stage) (string, error) {
	switch stage {
	case domain.StagePutUp:
		return "put_up_done", nil
	case domain.StageRack:
		return "rack_done", nil
	case domain.StageFilter:
		return "filter_done", nil
	case domain.StageBottle:
		return "bottle_done", nil
	}
	return "", fmt.Errorf("%w: invalid stage %q", domain.ErrValidation, stage)
}

func stageDateColumn(stage domain.Stage) (string, error) {
	switch stage {
	case domain.StagePutUp:
		return "put_up_date", nil
	case domain.StageRack:
		return "rack_date", nil
	case domain.StageFilter:
		return "filter_date", nil
	case domain.StageBottle:
		return "bottle_date", nil
	}
	return "", fmt.Errorf("%w: invalid stage %q", domain.ErrValidation, stage)
}
