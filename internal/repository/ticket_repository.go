package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixwell/maintenance-service/internal/domain"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	ListAllWithUsers(ctx context.Context) ([]domain.TicketWithUser, error)
	UpdateStatus(ctx context.Context, id int64, status domain.TicketStatus) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (user_id, description, location, category, comments, image_paths, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		ticket.UserID,
		ticket.Description,
		ticket.Location,
		ticket.Category,
		ticket.Comments,
		domain.EncodeImagePaths(ticket.ImagePaths),
		ticket.Status,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
	return translateError(err)
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	const query = `
        SELECT id, user_id, description, location, category, comments, image_paths, status, created_at, updated_at
        FROM tickets WHERE id=$1`

	var (
		ticket domain.Ticket
		rawImg string
	)
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.UserID,
		&ticket.Description,
		&ticket.Location,
		&ticket.Category,
		&ticket.Comments,
		&rawImg,
		&ticket.Status,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, translateError(err)
	}
	ticket.ImagePaths = domain.DecodeImagePaths(rawImg)
	return &ticket, nil
}

// ListAllWithUsers returns every ticket joined with its owner, newest first.
func (r *ticketRepository) ListAllWithUsers(ctx context.Context) ([]domain.TicketWithUser, error) {
	const query = `
        SELECT t.id, t.user_id, t.description, t.location, t.category, t.comments,
               t.image_paths, t.status, t.created_at, t.updated_at,
               u.username, u.email
        FROM tickets t
        JOIN users u ON u.id = t.user_id
        ORDER BY t.created_at DESC, t.id DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()
	return scanTicketsWithUsers(rows)
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, id int64, status domain.TicketStatus) error {
	const query = `UPDATE tickets SET status=$1, updated_at=NOW() WHERE id=$2`

	cmd, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return translateError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTicketsWithUsers(rows pgx.Rows) ([]domain.TicketWithUser, error) {
	result := []domain.TicketWithUser{}
	for rows.Next() {
		var (
			row    domain.TicketWithUser
			rawImg string
		)
		if err := rows.Scan(
			&row.ID,
			&row.UserID,
			&row.Description,
			&row.Location,
			&row.Category,
			&row.Comments,
			&rawImg,
			&row.Status,
			&row.CreatedAt,
			&row.UpdatedAt,
			&row.Username,
			&row.Email,
		); err != nil {
			return nil, err
		}
		row.ImagePaths = domain.DecodeImagePaths(rawImg)
		result = append(result, row)
	}
	return result, rows.Err()
}
