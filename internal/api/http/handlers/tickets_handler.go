package handlers

import (
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"github.com/fixwell/maintenance-service/internal/auth"
	"github.com/fixwell/maintenance-service/internal/service"
	apperrors "github.com/fixwell/maintenance-service/pkg/util"
)

// TicketsHandler manages end-user ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// Create handles POST /api/tickets (multipart form).
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	sess, ok := auth.SessionFromContext(c)
	if !ok {
		return apperrors.NewForbidden("You must be logged in.")
	}

	var files []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil && form != nil {
		files = form.File["files"]
	}

	ticketID, err := h.service.CreateTicket(c.Context(), sess, service.CreateTicketInput{
		Description: c.FormValue("description"),
		Location:    c.FormValue("location"),
		Category:    c.FormValue("category"),
		Comments:    c.FormValue("comments"),
		Files:       files,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"ok":        true,
		"ticket_id": ticketID,
	})
}
