// Package repotest provides in-memory repository implementations for tests.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fixwell/maintenance-service/internal/domain"
	"github.com/fixwell/maintenance-service/internal/repository"
)

// Users is a map-backed repository.UserRepository.
type Users struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]domain.User
}

// NewUsers builds an empty user store.
func NewUsers() *Users {
	return &Users{nextID: 1, rows: make(map[int64]domain.User)}
}

func (s *Users) Create(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.Email == user.Email || row.Username == user.Username {
			return repository.ErrDuplicate
		}
	}
	user.ID = s.nextID
	s.nextID++
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	s.rows[user.ID] = *user
	return nil
}

func (s *Users) GetByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &row, nil
}

func (s *Users) GetByIdentifier(_ context.Context, identifier string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.Email == identifier || row.Username == identifier {
			found := row
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Users) ExistsByEmailOrUsername(_ context.Context, email, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.Email == email || row.Username == username {
			return true, nil
		}
	}
	return false, nil
}

// Count reports the number of stored users.
func (s *Users) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// Tickets is a map-backed repository.TicketRepository. It joins against
// the Users store the same way the SQL implementation joins tables.
type Tickets struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]domain.Ticket
	users  *Users
}

// NewTickets builds an empty ticket store joined to users.
func NewTickets(users *Users) *Tickets {
	return &Tickets{nextID: 1, rows: make(map[int64]domain.Ticket), users: users}
}

func (s *Tickets) Create(_ context.Context, ticket *domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket.ID = s.nextID
	s.nextID++
	now := time.Now()
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = now
	}
	ticket.UpdatedAt = ticket.CreatedAt
	s.rows[ticket.ID] = *ticket
	return nil
}

func (s *Tickets) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &row, nil
}

func (s *Tickets) ListAllWithUsers(ctx context.Context) ([]domain.TicketWithUser, error) {
	s.mu.Lock()
	rows := make([]domain.Ticket, 0, len(s.rows))
	for _, row := range s.rows {
		rows = append(rows, row)
	}
	s.mu.Unlock()

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].ID > rows[j].ID
		}
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})

	result := make([]domain.TicketWithUser, 0, len(rows))
	for _, row := range rows {
		joined := domain.TicketWithUser{Ticket: row}
		if user, err := s.users.GetByID(ctx, row.UserID); err == nil {
			joined.Username = user.Username
			joined.Email = user.Email
		}
		result = append(result, joined)
	}
	return result, nil
}

func (s *Tickets) UpdateStatus(_ context.Context, id int64, status domain.TicketStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	row.Status = status
	row.UpdatedAt = time.Now()
	s.rows[id] = row
	return nil
}

// Count reports the number of stored tickets.
func (s *Tickets) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
