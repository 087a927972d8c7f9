package dto

import (
	"time"

	"github.com/fixwell/maintenance-service/internal/domain"
)

// UpdateStatusRequest payload for admin status changes.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// TicketOwner identifies the submitting account in admin listings.
type TicketOwner struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// AdminTicketResponse is one row of the admin dashboard listing.
type AdminTicketResponse struct {
	ID          int64               `json:"id"`
	Description string              `json:"description"`
	Location    string              `json:"location"`
	Category    string              `json:"category"`
	Comments    string              `json:"comments"`
	ImagePaths  []string            `json:"image_paths"`
	Status      domain.TicketStatus `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	User        TicketOwner         `json:"user"`
}

// NewAdminTicketResponse maps a joined row to its response shape.
func NewAdminTicketResponse(row domain.TicketWithUser) AdminTicketResponse {
	imagePaths := row.ImagePaths
	if imagePaths == nil {
		imagePaths = []string{}
	}
	return AdminTicketResponse{
		ID:          row.ID,
		Description: row.Description,
		Location:    row.Location,
		Category:    row.Category,
		Comments:    row.Comments,
		ImagePaths:  imagePaths,
		Status:      row.Status,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
		User: TicketOwner{
			Username: row.Username,
			Email:    row.Email,
		},
	}
}
