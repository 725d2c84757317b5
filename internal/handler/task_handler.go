package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/vintnerlabs/bop-tracker/internal/domain"
	"github.com/vintnerlabs/bop-tracker/internal/schedule"
	"github.com/vintnerlabs/bop-tracker/internal/tasklist"
)

type TaskService interface {
	DashboardTasks(ctx context.Context, wineryID string, viewedDate time.Time) ([]tasklist.Task, error)
}

type TaskHandler struct {
	service  TaskService
	calendar *schedule.Calendar
	now      func() time.Time
}

func NewTaskHandler(service TaskService, calendar *schedule.Calendar) (*TaskHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("task service is required")
	}
	if calendar == nil {
		return nil, fmt.Errorf("calendar is required")
	}
	return &TaskHandler{service: service, calendar: calendar, now: time.Now}, nil
}

func RegisterTaskRoutes(router fiber.Router, service TaskService, calendar *schedule.Calendar) error {
	h, err := NewTaskHandler(service, calendar)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Get("/wineries/:wineryId/tasks", h.ListTasks)

	return nil
}

type taskResponse struct {
	BatchID   string `json:"batchId"`
	BOPNumber int64  `json:"bopNumber"`
	Stage     string `json:"stage"`
	DueDate   string `json:"dueDate"`
	Overdue   bool   `json:"overdue"`
	Label     string `json:"label"`
}

type listTasksResponse struct {
	Date string         `json:"date"`
	Data []taskResponse `json:"data"`
}

// ListTasks returns the dashboard task list. The optional date query
// selects the viewed day; it defaults to today in the business timezone.
func (h *TaskHandler) ListTasks(c *fiber.Ctx) error {
	wineryID := strings.TrimSpace(c.Params("wineryId"))

	viewedDate := h.calendar.Today(h.now())
	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		parsed, err := time.ParseInLocation(wireDateLayout, raw, h.calendar.Location())
		if err != nil {
			return toHTTPError(fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrValidation))
		}
		viewedDate = parsed
	}

	tasks, err := h.service.DashboardTasks(c.Context(), wineryID, viewedDate)
	if err != nil {
		return toHTTPError(err)
	}

	responses := make([]taskResponse, 0, len(tasks))
	for _, task := range tasks {
		responses = append(responses, taskResponse{
			BatchID:   task.BatchID,
			BOPNumber: task.BOPNumber,
			Stage:     task.Stage.String(),
			DueDate:   task.DueDate.Format(wireDateLayout),
			Overdue:   task.Overdue,
			Label:     task.Label,
		})
	}

	return c.Status(fiber.StatusOK).JSON(listTasksResponse{
		Date: h.calendar.DateOnly(viewedDate).Format(wireDateLayout),
		Data: responses,
	})
}
