package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/vintnerlabs/bop-tracker/internal/domain"
	"github.com/vintnerlabs/bop-tracker/internal/repository"
	"go.uber.org/zap"
)

type WineryService struct {
	wineries repository.WineryRepository
	logger   *zap.Logger
}

func NewWineryService(wineries repository.WineryRepository, logger *zap.Logger) (*WineryService, error) {
	if wineries == nil {
		return nil, fmt.Errorf("winery repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WineryService{wineries: wineries, logger: logger}, nil
}

func (s *WineryService) Create(ctx context.Context, winery *domain.Winery) (*domain.Winery, error) {
	if winery == nil {
		return nil, fmt.Errorf("%w: winery is required", domain.ErrValidation)
	}
	if err := winery.Validate(); err != nil {
		return nil, err
	}

	winery.ID = uuid.NewString()
	winery.NextBOPNumber = 0

	if err := s.wineries.Create(ctx, winery); err != nil {
		return nil, fmt.Errorf("failed to create winery: %w", err)
	}

	s.logger.Info("winery created", zap.String("wineryId", winery.ID), zap.String("name", winery.Name))
	return winery, nil
}

func (s *WineryService) Get(ctx context.Context, id string) (*domain.Winery, error) {
	return s.wineries.GetByID(ctx, id)
}

func (s *WineryService) List(ctx context.Context) ([]domain.Winery, error) {
	return s.wineries.List(ctx)
}

func (s *WineryService) Update(ctx context.Context, id string, update repository.WineryUpdate) (*domain.Winery, error) {
	if update.Name != nil && *update.Name == "" {
		return nil, fmt.Errorf("%w: winery name cannot be empty", domain.ErrValidation)
	}
	return s.wineries.Update(ctx, id, update)
}

func (s *WineryService) Delete(ctx context.Context, id string) error {
	return s.wineries.Delete(ctx, id)
}
