package service

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fixwell/maintenance-service/internal/domain"
	"github.com/fixwell/maintenance-service/internal/events"
	"github.com/fixwell/maintenance-service/internal/repository"
	"github.com/fixwell/maintenance-service/internal/storage"
	apperrors "github.com/fixwell/maintenance-service/pkg/util"
)

// TicketService coordinates the maintenance-ticket lifecycle.
type TicketService struct {
	tickets    repository.TicketRepository
	uploads    *storage.UploadStore
	dispatcher events.Dispatcher
	logger     *zap.Logger
	maxFiles   int
}

// NewTicketService builds the service.
func NewTicketService(tickets repository.TicketRepository, uploads *storage.UploadStore, dispatcher events.Dispatcher, logger *zap.Logger, maxFiles int) *TicketService {
	if maxFiles <= 0 {
		maxFiles = 10
	}
	return &TicketService{
		tickets:    tickets,
		uploads:    uploads,
		dispatcher: dispatcher,
		logger:     logger,
		maxFiles:   maxFiles,
	}
}

// CreateTicketInput carries the submission form fields and attachments.
type CreateTicketInput struct {
	Description string
	Location    string
	Category    string
	Comments    string
	Files       []*multipart.FileHeader
}

// CreateTicket stores the attachments and persists a new open ticket
// owned by the session's user.
func (s *TicketService) CreateTicket(ctx context.Context, sess *domain.Session, in CreateTicketInput) (int64, error) {
	if sess == nil {
		return 0, apperrors.NewForbidden("You must be logged in.")
	}

	description := strings.TrimSpace(in.Description)
	location := strings.TrimSpace(in.Location)
	category := strings.TrimSpace(in.Category)
	if description == "" || location == "" || category == "" {
		return 0, apperrors.NewBadRequest("Description, location and category are required.")
	}
	if len(in.Files) > s.maxFiles {
		return 0, apperrors.NewBadRequest("At most 10 images may be attached.")
	}

	imagePaths := make([]string, 0, len(in.Files))
	for _, fh := range in.Files {
		ref, err := s.uploads.Save(fh)
		if err != nil {
			s.logger.Error("failed to store upload", zap.String("filename", fh.Filename), zap.Error(err))
			return 0, apperrors.NewInternalError(err)
		}
		imagePaths = append(imagePaths, ref)
	}

	ticket := &domain.Ticket{
		UserID:      sess.UserID,
		Description: description,
		Location:    location,
		Category:    category,
		Comments:    strings.TrimSpace(in.Comments),
		ImagePaths:  imagePaths,
		Status:      domain.TicketStatusOpen,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return 0, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.Event{
		ID:          uuid.NewString(),
		Type:        events.EventTicketCreated,
		TicketID:    ticket.ID,
		ActorUserID: sess.UserID,
		Timestamp:   time.Now(),
		Payload: events.TicketCreatedPayload{
			Category:   ticket.Category,
			Location:   ticket.Location,
			ImageCount: len(imagePaths),
		},
	})
	return ticket.ID, nil
}

// ListTicketsForAdmin returns all tickets joined with their owners,
// newest first.
func (s *TicketService) ListTicketsForAdmin(ctx context.Context, sess *domain.Session) ([]domain.TicketWithUser, error) {
	if sess == nil || !sess.IsAdmin {
		return nil, apperrors.NewForbidden("Admin access required.")
	}
	tickets, err := s.tickets.ListAllWithUsers(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return tickets, nil
}

// UpdateTicketStatus moves a ticket through its lifecycle.
func (s *TicketService) UpdateTicketStatus(ctx context.Context, sess *domain.Session, ticketID int64, rawStatus string) error {
	if sess == nil || !sess.IsAdmin {
		return apperrors.NewForbidden("Admin access required.")
	}
	status, err := domain.ParseTicketStatus(rawStatus)
	if err != nil {
		return apperrors.NewBadRequest("Status must be one of open, in_progress, closed.")
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("Ticket")
		}
		return apperrors.NewInternalError(err)
	}

	if err := s.tickets.UpdateStatus(ctx, ticketID, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("Ticket")
		}
		return apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.Event{
		ID:          uuid.NewString(),
		Type:        events.EventTicketStatusChanged,
		TicketID:    ticketID,
		ActorUserID: sess.UserID,
		Timestamp:   time.Now(),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: ticket.Status,
			NewStatus: status,
		},
	})
	return nil
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
