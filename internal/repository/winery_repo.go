package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/vintnerlabs/bop-tracker/internal/domain"
	"gorm.io/gorm"
)

type WineryUpdate struct {
	Name         *string
	ContactEmail *string
}

type WineryRepository interface {
	Create(ctx context.Context, w *domain.Winery) error
	GetByID(ctx context.Context, id string) (*domain.Winery, error)
	List(ctx context.Context) ([]domain.Winery, error)
	Update(ctx context.Context, id string, update WineryUpdate) (*domain.Winery, error)
	Delete(ctx context.Context, id string) error
}

type GormWineryRepo struct {
	db *gorm.DB
}

func NewGormWineryRepo(db *gorm.DB) *GormWineryRepo {
	return &GormWineryRepo{db: db}
}

func (r *GormWineryRepo) Create(ctx context.Context, w *domain.Winery) error {
	model := wineryModelFromDomain(w)
	if model == nil {
		return fmt.Errorf("%w: winery is required", domain.ErrValidation)
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	*w = *wineryModelToDomain(model)
	return nil
}

func (r *GormWineryRepo) GetByID(ctx context.Context, id string) (*domain.Winery, error) {
	var model WineryModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return wineryModelToDomain(&model), nil
}

func (r *GormWineryRepo) List(ctx context.Context) ([]domain.Winery, error) {
	var models []WineryModel
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	wineries := make([]domain.Winery, 0, len(models))
	for i := range models {
		wineries = append(wineries, *wineryModelToDomain(&models[i]))
	}
	return wineries, nil
}

func (r *GormWineryRepo) Update(ctx context.Context, id string, update WineryUpdate) (*domain.Winery, error) {
	fields := map[string]any{}
	if update.Name != nil {
		fields["name"] = *update.Name
	}
	if update.ContactEmail != nil {
		fields["contact_email"] = *update.ContactEmail
	}

	if len(fields) > 0 {
		result := r.db.WithContext(ctx).
			Model(&WineryModel{}).
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

func (r *GormWineryRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&WineryModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
