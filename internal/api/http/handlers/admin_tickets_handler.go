package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/fixwell/maintenance-service/internal/api/dto"
	"github.com/fixwell/maintenance-service/internal/auth"
	"github.com/fixwell/maintenance-service/internal/service"
	apperrors "github.com/fixwell/maintenance-service/pkg/util"
)

// AdminTicketsHandler manages the admin dashboard endpoints.
type AdminTicketsHandler struct {
	service *service.TicketService
}

// NewAdminTicketsHandler constructs handler.
func NewAdminTicketsHandler(ticketService *service.TicketService) *AdminTicketsHandler {
	return &AdminTicketsHandler{service: ticketService}
}

// List handles GET /api/admin/tickets.
func (h *AdminTicketsHandler) List(c *fiber.Ctx) error {
	sess, _ := auth.SessionFromContext(c)

	tickets, err := h.service.ListTicketsForAdmin(c.Context(), sess)
	if err != nil {
		return err
	}

	items := make([]dto.AdminTicketResponse, 0, len(tickets))
	for _, row := range tickets {
		items = append(items, dto.NewAdminTicketResponse(row))
	}
	return c.JSON(fiber.Map{
		"ok":      true,
		"tickets": items,
	})
}

// UpdateStatus handles PATCH /api/admin/tickets/:id/status.
func (h *AdminTicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	sess, _ := auth.SessionFromContext(c)

	ticketID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || ticketID <= 0 {
		return apperrors.NewBadRequest("Invalid ticket id.")
	}

	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("Invalid payload.")
	}

	if err := h.service.UpdateTicketStatus(c.Context(), sess, ticketID, req.Status); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true})
}
