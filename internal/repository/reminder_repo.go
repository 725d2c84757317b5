package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vintnerlabs/bop-tracker/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReminderRepository interface {
	Create(ctx context.Context, r *domain.Reminder) error
	GetByID(ctx context.Context, id string) (*domain.Reminder, error)
	// HasOpenOrSent reports whether a non-failed reminder already exists
	// for the (batch, stage) pair, so the scanner never double-notifies.
	HasOpenOrSent(ctx context.Context, batchID string, stage domain.Stage) (bool, error)
	UpdateStatus(ctx context.Context, id string, status domain.ReminderStatus) error
	UpdateStatusWithRetry(ctx context.Context, id string, status domain.ReminderStatus, nextRetryAt time.Time) error
	// LockForSending moves a QUEUED reminder to SENDING and returns it.
	// A nil reminder with nil error means the reminder is in a terminal
	// or already-sending state and the message should be acked.
	LockForSending(ctx context.Context, id string) (*domain.Reminder, error)
	GetDueForRetry(ctx context.Context, limit int) ([]domain.Reminder, error)
	// GetStalePending returns PENDING reminders last touched at or before
	// olderThan. A reminder strands in PENDING when the publish after its
	// insert fails; the scanner re-publishes these each tick.
	GetStalePending(ctx context.Context, olderThan time.Time, limit int) ([]domain.Reminder, error)
	ClearNextRetryAt(ctx context.Context, id string) error
}

type ReminderAttemptRepository interface {
	Create(ctx context.Context, a *domain.ReminderAttempt) error
	ListByReminder(ctx context.Context, reminderID string) ([]domain.ReminderAttempt, error)
}

type GormReminderRepo struct {
	db *gorm.DB
}

func NewGormReminderRepo(db *gorm.DB) *GormReminderRepo {
	return &GormReminderRepo{db: db}
}

func (r *GormReminderRepo) Create(ctx context.Context, reminder *domain.Reminder) error {
	model := reminderModelFromDomain(reminder)
	if model == nil {
		return fmt.Errorf("%w: reminder is required", domain.ErrValidation)
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	*reminder = *reminderModelToDomain(model)
	return nil
}

func (r *GormReminderRepo) GetByID(ctx context.Context, id string) (*domain.Reminder, error) {
	var model ReminderModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return reminderModelToDomain(&model), nil
}

func (r *GormReminderRepo) HasOpenOrSent(ctx context.Context, batchID string, stage domain.Stage) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&ReminderModel{}).
		Where("batch_id = ? AND stage = ? AND status <> ?", batchID, stage.String(), domain.ReminderStatusFailed.String()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormReminderRepo) UpdateStatus(ctx context.Context, id string, status domain.ReminderStatus) error {
	result := r.db.WithContext(ctx).
		Model(&ReminderModel{}).
		Where("id = ?", id).
		Update("status", status.String())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormReminderRepo) UpdateStatusWithRetry(ctx context.Context, id string, status domain.ReminderStatus, nextRetryAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&ReminderModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        status.String(),
			"next_retry_at": nextRetryAt,
			"attempt_count": gorm.Expr("attempt_count + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormReminderRepo) LockForSending(ctx context.Context, id string) (*domain.Reminder, error) {
	var locked *domain.Reminder

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model ReminderModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&model, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}

		if model.Status != domain.ReminderStatusQueued.String() {
			// Terminal or already claimed by another worker.
			return nil
		}

		if err := tx.Model(&ReminderModel{}).
			Where("id = ?", id).
			Update("status", domain.ReminderStatusSending.String()).Error; err != nil {
			return err
		}

		model.Status = domain.ReminderStatusSending.String()
		locked = reminderModelToDomain(&model)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return locked, nil
}

func (r *GormReminderRepo) GetDueForRetry(ctx context.Context, limit int) ([]domain.Reminder, error) {
	if limit < 1 {
		limit = 100
	}

	var models []ReminderModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_retry_at IS NOT NULL AND next_retry_at <= ?",
			domain.ReminderStatusQueued.String(), time.Now().UTC()).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	reminders := make([]domain.Reminder, 0, len(models))
	for i := range models {
		reminders = append(reminders, *reminderModelToDomain(&models[i]))
	}
	return reminders, nil
}

func (r *GormReminderRepo) GetStalePending(ctx context.Context, olderThan time.Time, limit int) ([]domain.Reminder, error) {
	if limit < 1 {
		limit = 100
	}

	var models []ReminderModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at <= ?", domain.ReminderStatusPending.String(), olderThan).
		Order("updated_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	reminders := make([]domain.Reminder, 0, len(models))
	for i := range models {
		reminders = append(reminders, *reminderModelToDomain(&models[i]))
	}
	return reminders, nil
}

func (r *GormReminderRepo) ClearNextRetryAt(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&ReminderModel{}).
		Where("id = ?", id).
		Update("next_retry_at", nil)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type GormReminderAttemptRepo struct {
	db *gorm.DB
}

func NewGormReminderAttemptRepo(db *gorm.DB) *GormReminderAttemptRepo {
	return &GormReminderAttemptRepo{db: db}
}

func (r *GormReminderAttemptRepo) Create(ctx context.Context, a *domain.ReminderAttempt) error {
	model := attemptModelFromDomain(a)
	if model == nil {
		return fmt.Errorf("%w: attempt is required", domain.ErrValidation)
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	*a = *attemptModelToDomain(model)
	return nil
}

func (r *GormReminderAttemptRepo) ListByReminder(ctx context.Context, reminderID string) ([]domain.ReminderAttempt, error) {
	var models []ReminderAttemptModel
	err := r.db.WithContext(ctx).
		Where("reminder_id = ?", reminderID).
		Order("attempt_number ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	attempts := make([]domain.ReminderAttempt, 0, len(models))
	for i := range models {
		attempts = append(attempts, *attemptModelToDomain(&models[i]))
	}
	return attempts, nil
}
