package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/vintnerlabs/bop-tracker/internal/domain"
	"github.com/vintnerlabs/bop-tracker/internal/repository"
)

type WineryService interface {
	Create(ctx context.Context, winery *domain.Winery) (*domain.Winery, error)
	Get(ctx context.Context, id string) (*domain.Winery, error)
	List(ctx context.Context) ([]domain.Winery, error)
	Update(ctx context.Context, id string, update repository.WineryUpdate) (*domain.Winery, error)
	Delete(ctx context.Context, id string) error
}

type WineryHandler struct {
	service WineryService
}

func NewWineryHandler(service WineryService) (*WineryHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("winery service is required")
	}
	return &WineryHandler{service: service}, nil
}

func RegisterWineryRoutes(router fiber.Router, service WineryService) error {
	h, err := NewWineryHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/wineries", h.CreateWinery)
	v1.Get("/wineries", h.ListWineries)
	v1.Get("/wineries/:wineryId", h.GetWinery)
	v1.Patch("/wineries/:wineryId", h.UpdateWinery)
	v1.Delete("/wineries/:wineryId", h.DeleteWinery)

	return nil
}

type createWineryRequest struct {
	Name         string  `json:"name"`
	ContactEmail *string `json:"contactEmail,omitempty"`
}

type updateWineryRequest struct {
	Name         *string `json:"name"`
	ContactEmail *string `json:"contactEmail"`
}

type wineryResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ContactEmail *string   `json:"contactEmail,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type listWineriesResponse struct {
	Data []wineryResponse `json:"data"`
}

func (h *WineryHandler) CreateWinery(c *fiber.Ctx) error {
	var req createWineryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	winery, err := h.service.Create(c.Context(), &domain.Winery{
		Name:         strings.TrimSpace(req.Name),
		ContactEmail: req.ContactEmail,
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(toWineryResponse(winery))
}

func (h *WineryHandler) GetWinery(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("wineryId"))
	winery, err := h.service.Get(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toWineryResponse(winery))
}

func (h *WineryHandler) ListWineries(c *fiber.Ctx) error {
	wineries, err := h.service.List(c.Context())
	if err != nil {
		return toHTTPError(err)
	}

	responses := make([]wineryResponse, 0, len(wineries))
	for i := range wineries {
		responses = append(responses, toWineryResponse(&wineries[i]))
	}

	return c.Status(fiber.StatusOK).JSON(listWineriesResponse{Data: responses})
}

func (h *WineryHandler) UpdateWinery(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("wineryId"))

	var req updateWineryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	winery, err := h.service.Update(c.Context(), id, repository.WineryUpdate{
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toWineryResponse(winery))
}

func (h *WineryHandler) DeleteWinery(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("wineryId"))
	if err := h.service.Delete(c.Context(), id); err != nil {
		return toHTTPError(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func toWineryResponse(w *domain.Winery) wineryResponse {
	if w == nil {
		return wineryResponse{}
	}

	return wineryResponse{
		ID:           w.ID,
		Name:         w.Name,
		ContactEmail: w.ContactEmail,
		CreatedAt:    w.CreatedAt,
		UpdatedAt:    w.UpdatedAt,
	}
}
