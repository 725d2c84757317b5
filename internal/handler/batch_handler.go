package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/vintnerlabs/bop-tracker/internal/domain"
	"github.com/vintnerlabs/bop-tracker/internal/query"
	"github.com/vintnerlabs/bop-tracker/internal/repository"
	"github.com/vintnerlabs/bop-tracker/internal/schedule"
	"github.com/vintnerlabs/bop-tracker/internal/service"
)

// wireDateLayout is the only date form on the wire. Stage dates carry no
// time component; they are calendar days in the business timezone.
const wireDateLayout = "2006-01-02"

type BatchService interface {
	Create(ctx context.Context, input service.CreateBatchInput) (*domain.Batch, error)
	Get(ctx context.Context, id string) (*domain.Batch, error)
	List(ctx context.Context, wineryID string, params query.Params) ([]domain.Batch, error)
	Update(ctx context.Context, id string, update repository.BatchUpdate) (*domain.Batch, error)
	ToggleStage(ctx context.Context, id string, stage domain.Stage, done bool) (*domain.Batch, error)
	OverrideStageDate(ctx context.Context, id string, stage domain.Stage, date time.Time) (*domain.Batch, error)
	Delete(ctx context.Context, id string) error
}

type BatchHandler struct {
	service  BatchService
	calendar *schedule.Calendar
}

func NewBatchHandler(service BatchService, calendar *schedule.Calendar) (*BatchHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("batch service is required")
	}
	if calendar == nil {
		return nil, fmt.Errorf("calendar is required")
	}
	return &BatchHandler{service: service, calendar: calendar}, nil
}

func RegisterBatchRoutes(router fiber.Router, service BatchService, calendar *schedule.Calendar) error {
	h, err := NewBatchHandler(service, calendar)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/batches", h.CreateBatch)
	v1.Get("/batches/:id", h.GetBatch)
	v1.Patch("/batches/:id", h.UpdateBatch)
	v1.Delete("/batches/:id", h.DeleteBatch)
	v1.Post("/batches/:id/stages/:stage", h.ToggleStage)
	v1.Put("/batches/:id/stages/:stage/date", h.OverrideStageDate)
	v1.Get("/wineries/:wineryId/batches", h.ListBatches)

	return nil
}

type createBatchRequest struct {
	WineryID         string  `json:"wineryId"`
	CustomerName     string  `json:"customerName"`
	CustomerEmail    *string `json:"customerEmail,omitempty"`
	WineKitName      string  `json:"wineKitName"`
	KitDurationWeeks int     `json:"kitDurationWeeks"`
	DateOfSale       string  `json:"dateOfSale"`
	Notes            *string `json:"notes,omitempty"`
	PutUpDisposition string  `json:"putUpDisposition"`
	PutUpDate        *string `json:"putUpDate,omitempty"`
}

type updateBatchRequest struct {
	CustomerName     *string `json:"customerName"`
	CustomerEmail    *string `json:"customerEmail"`
	WineKitName      *string `json:"wineKitName"`
	KitDurationWeeks *int    `json:"kitDurationWeeks"`
	Notes            *string `json:"notes"`
}

type toggleStageRequest struct {
	Done bool `json:"done"`
}

type overrideStageDateRequest struct {
	Date string `json:"date"`
}

type stageResponse struct {
	Stage string  `json:"stage"`
	Date  *string `json:"date,omitempty"`
	Done  bool    `json:"done"`
}

type batchResponse struct {
	ID               string          `json:"id"`
	WineryID         string          `json:"wineryId"`
	BOPNumber        int64           `json:"bopNumber"`
	CustomerName     string          `json:"customerName"`
	CustomerEmail    *string         `json:"customerEmail,omitempty"`
	WineKitName      string          `json:"wineKitName"`
	KitDurationWeeks int             `json:"kitDurationWeeks"`
	DateOfSale       string          `json:"dateOfSale"`
	Notes            *string         `json:"notes,omitempty"`
	Status           string          `json:"status"`
	CurrentStage     string          `json:"currentStage"`
	Stages           []stageResponse `json:"stages"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

type listBatchesResponse struct {
	Data []batchResponse `json:"data"`
}

func (h *BatchHandler) CreateBatch(c *fiber.Ctx) error {
	var req createBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	disposition, err := domain.ParsePutUpDispositionFromString(req.PutUpDisposition)
	if err != nil {
		return toHTTPError(err)
	}

	dateOfSale, err := h.parseWireDate(req.DateOfSale, "dateOfSale")
	if err != nil {
		return toHTTPError(err)
	}

	var putUpDate *time.Time
	if req.PutUpDate != nil && strings.TrimSpace(*req.PutUpDate) != "" {
		parsed, err := h.parseWireDate(*req.PutUpDate, "putUpDate")
		if err != nil {
			return toHTTPError(err)
		}
		putUpDate = &parsed
	}

	batch, err := h.service.Create(c.Context(), service.CreateBatchInput{
		WineryID:         strings.TrimSpace(req.WineryID),
		CustomerName:     strings.TrimSpace(req.CustomerName),
		CustomerEmail:    req.CustomerEmail,
		WineKitName:      strings.TrimSpace(req.WineKitName),
		KitDurationWeeks: req.KitDurationWeeks,
		DateOfSale:       dateOfSale,
		Notes:            req.Notes,
		PutUpDisposition: disposition,
		PutUpDate:        putUpDate,
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(h.toBatchResponse(batch))
}

func (h *BatchHandler) GetBatch(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	batch, err := h.service.Get(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(h.toBatchResponse(batch))
}

func (h *BatchHandler) ListBatches(c *fiber.Ctx) error {
	wineryID := strings.TrimSpace(c.Params("wineryId"))

	params, err := parseQueryParams(c)
	if err != nil {
		return toHTTPError(err)
	}

	batches, err := h.service.List(c.Context(), wineryID, params)
	if err != nil {
		return toHTTPError(err)
	}

	responses := make([]batchResponse, 0, len(batches))
	for i := range batches {
		responses = append(responses, h.toBatchResponse(&batches[i]))
	}

	return c.Status(fiber.StatusOK).JSON(listBatchesResponse{Data: responses})
}

func (h *BatchHandler) UpdateBatch(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))

	var req updateBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	update := repository.BatchUpdate{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		WineKitName:   req.WineKitName,
		Notes:         req.Notes,
	}
	if req.KitDurationWeeks != nil {
		kit := domain.KitDuration(*req.KitDurationWeeks)
		update.KitDurationWeeks = &kit
	}

	batch, err := h.service.Update(c.Context(), id, update)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(h.toBatchResponse(batch))
}

func (h *BatchHandler) ToggleStage(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	stage, err := domain.ParseStageFromString(c.Params("stage"))
	if err != nil {
		return toHTTPError(err)
	}

	var req toggleStageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	batch, err := h.service.ToggleStage(c.Context(), id, stage, req.Done)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(h.toBatchResponse(batch))
}

func (h *BatchHandler) OverrideStageDate(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	stage, err := domain.ParseStageFromString(c.Params("stage"))
	if err != nil {
		return toHTTPError(err)
	}

	var req overrideStageDateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	date, err := h.parseWireDate(req.Date, "date")
	if err != nil {
		return toHTTPError(err)
	}

	batch, err := h.service.OverrideStageDate(c.Context(), id, stage, date)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(h.toBatchResponse(batch))
}

func (h *BatchHandler) DeleteBatch(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if err := h.service.Delete(c.Context(), id); err != nil {
		return toHTTPError(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func parseQueryParams(c *fiber.Ctx) (query.Params, error) {
	status, err := query.ParseStatusFilterFromString(c.Query("status"))
	if err != nil {
		return query.Params{}, err
	}

	sortBy, err := query.ParseSortByFromString(c.Query("sort"))
	if err != nil {
		return query.Params{}, err
	}

	params := query.Params{
		Search: strings.TrimSpace(c.Query("search")),
		Status: status,
		SortBy: sortBy,
	}

	if weeks := c.QueryInt("weeks", 0); weeks != 0 {
		kit, err := domain.ParseKitDuration(weeks)
		if err != nil {
			return query.Params{}, err
		}
		params.KitWeeks = &kit
	}

	return params, nil
}

func (h *BatchHandler) parseWireDate(value string, field string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", domain.ErrValidation, field)
	}

	t, err := time.ParseInLocation(wireDateLayout, trimmed, h.calendar.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", domain.ErrValidation, field)
	}
	return t, nil
}

func (h *BatchHandler) toBatchResponse(b *domain.Batch) batchResponse {
	if b == nil {
		return batchResponse{}
	}

	stages := make([]stageResponse, 0, len(domain.Stages()))
	for _, stage := range domain.Stages() {
		stages = append(stages, stageResponse{
			Stage: stage.String(),
			Date:  h.formatWireDate(b.StageDate(stage)),
			Done:  b.StageDone(stage),
		})
	}

	return batchResponse{
		ID:               b.ID,
		WineryID:         b.WineryID,
		BOPNumber:        b.BOPNumber,
		CustomerName:     b.CustomerName,
		CustomerEmail:    b.CustomerEmail,
		WineKitName:      b.WineKitName,
		KitDurationWeeks: b.KitDurationWeeks.Weeks(),
		DateOfSale:       h.calendar.DateOnly(b.DateOfSale).Format(wireDateLayout),
		Notes:            b.Notes,
		Status:           b.Status().String(),
		CurrentStage:     b.CurrentStage().String(),
		Stages:           stages,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

func (h *BatchHandler) formatWireDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := h.calendar.DateOnly(*t).Format(wireDateLayout)
	return &formatted
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}
