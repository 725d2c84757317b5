package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vintnerlabs/bop-tracker/internal/observability"
	"github.com/vintnerlabs/bop-tracker/internal/repository"
	"github.com/vintnerlabs/bop-tracker/internal/schedule"
	"github.com/vintnerlabs/bop-tracker/internal/tasklist"
	"go.uber.org/zap"
)

// TaskService materializes the dashboard task list for a viewed date.
// Each call works on a fresh batch snapshot and retains nothing, so the
// dashboard can poll it freely.
type TaskService struct {
	batches  repository.BatchRepository
	calendar *schedule.Calendar
	logger   *zap.Logger
	metrics  *observability.Metrics
	now      func() time.Time
}

func NewTaskService(
	batches repository.BatchRepository,
	calendar *schedule.Calendar,
	logger *zap.Logger,
) (*TaskService, error) {
	if batches == nil {
		return nil, fmt.Errorf("batch repository is required")
	}
	if calendar == nil {
		return nil, fmt.Errorf("calendar is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &TaskService{
		batches:  batches,
		calendar: calendar,
		logger:   logger,
		now:      time.Now,
	}, nil
}

func (s *TaskService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// DashboardTasks returns the winery's tasks for viewedDate. Overdue
// stages surface regardless of the viewed date; "today" is always the
// real current day in the business timezone.
func (s *TaskService) DashboardTasks(ctx context.Context, wineryID string, viewedDate time.Time) ([]tasklist.Task, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	batches, err := s.batches.ListByWinery(ctx, wineryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}

	today := s.calendar.Today(s.now())
	tasks := tasklist.Generate(s.calendar, batches, viewedDate, today)

	if s.metrics != nil {
		s.metrics.AddTasksGenerated(len(tasks))
	}

	s.logger.Debug("dashboard tasks generated",
		zap.String("wineryId", wineryID),
		zap.Time("viewedDate", viewedDate),
		zap.Int("count", len(tasks)),
	)

	return tasks, nil
}
