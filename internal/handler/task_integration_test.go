package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/vintnerlabs/bop-tracker/internal/domain"
	"github.com/vintnerlabs/bop-tracker/internal/tasklist"
	"github.com/vintnerlabs/bop-tracker/internal/transport"
	"go.uber.org/zap"
)

type stubTaskService struct {
	dashboardTasksFn func(ctx context.Context, wineryID string, viewedDate time.Time) ([]tasklist.Task, error)
}

func (s *stubTaskService) DashboardTasks(ctx context.Context, wineryID string, viewedDate time.Time) ([]tasklist.Task, error) {
	return s.dashboardTasksFn(ctx, wineryID, viewedDate)
}

func TestTaskIntegrationListTasks(t *testing.T) {
	t.Parallel()

	cal := newTestCalendar(t)
	due := time.Date(2024, 7, 10, 0, 0, 0, 0, cal.Location())

	svc := &stubTaskService{
		dashboardTasksFn: func(ctx context.Context, wineryID string, viewedDate time.Time) ([]tasklist.Task, error) {
			if wineryID != "w1" {
				t.Fatalf("wineryID = %q, want w1", wineryID)
			}
			if !cal.SameDay(viewedDate, due) {
				t.Fatalf("viewedDate = %v, want 2024-07-10", viewedDate)
			}
			return []tasklist.Task{
				{BatchID: "b1", BOPNumber: 7, Stage: domain.StageRack, DueDate: due, Label: "Due today: Rack"},
			}, nil
		},
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(zap.NewNop()),
	})
	if err := RegisterTaskRoutes(app, svc, cal); err != nil {
		t.Fatalf("RegisterTaskRoutes() error = %v", err)
	}

	resp, body := performRequest(t, app, http.MethodGet, "/v1/wineries/w1/tasks?date=2024-07-10", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(body))
	}

	var parsed listTasksResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if parsed.Date != "2024-07-10" {
		t.Fatalf("date = %q, want 2024-07-10", parsed.Date)
	}
	if len(parsed.Data) != 1 {
		t.Fatalf("len(data) = %d, want 1", len(parsed.Data))
	}
	if parsed.Data[0].DueDate != "2024-07-10" || parsed.Data[0].Stage != "RACK" {
		t.Fatalf("task = %+v", parsed.Data[0])
	}

	resp, _ = performRequest(t, app, http.MethodGet, "/v1/wineries/w1/tasks?date=July+10", "")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for malformed date", resp.StatusCode)
	}
}

func TestTaskIntegrationDefaultsToToday(t *testing.T) {
	t.Parallel()

	cal := newTestCalendar(t)
	today := time.Date(2024, 7, 10, 0, 0, 0, 0, cal.Location())

	svc := &stubTaskService{
		dashboardTasksFn: func(ctx context.Context, wineryID string, viewedDate time.Time) ([]tasklist.Task, error) {
			if !cal.SameDay(viewedDate, today) {
				t.Fatalf("viewedDate = %v, want today", viewedDate)
			}
			return nil, nil
		},
	}

	h, err := NewTaskHandler(svc, cal)
	if err != nil {
		t.Fatalf("NewTaskHandler() error = %v", err)
	}
	h.now = func() time.Time { return today }

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(zap.NewNop()),
	})
	app.Get("/v1/wineries/:wineryId/tasks", h.ListTasks)

	resp, _ := performRequest(t, app, http.MethodGet, "/v1/wineries/w1/tasks", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}
