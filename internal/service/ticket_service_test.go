package service

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/fixwell/maintenance-service/internal/domain"
	"github.com/fixwell/maintenance-service/internal/events"
	"github.com/fixwell/maintenance-service/internal/repository/repotest"
	"github.com/fixwell/maintenance-service/internal/storage"
	apperrors "github.com/fixwell/maintenance-service/pkg/util"
)

type ticketFixture struct {
	users    *repotest.Users
	tickets  *repotest.Tickets
	uploads  *storage.UploadStore
	service  *TicketService
	recorded *eventRecorder
}

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) record(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) all() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event{}, r.events...)
}

func newTicketFixture(t *testing.T) *ticketFixture {
	t.Helper()

	uploads, err := storage.NewUploadStore(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("NewUploadStore() error = %v", err)
	}

	users := repotest.NewUsers()
	tickets := repotest.NewTickets(users)

	recorder := &eventRecorder{}
	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.Subscribe(events.EventTicketCreated, recorder.record)
	dispatcher.Subscribe(events.EventTicketStatusChanged, recorder.record)

	return &ticketFixture{
		users:    users,
		tickets:  tickets,
		uploads:  uploads,
		service:  NewTicketService(tickets, uploads, dispatcher, zap.NewNop(), 10),
		recorded: recorder,
	}
}

func (f *ticketFixture) seedUser(t *testing.T, username, email string) *domain.User {
	t.Helper()
	user := &domain.User{Email: email, Username: username, PasswordHash: "x"}
	if err := f.users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func userSession(user *domain.User) *domain.Session {
	return &domain.Session{ID: "s1", UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour)}
}

func adminSession() *domain.Session {
	return &domain.Session{ID: "s2", UserID: 99, IsAdmin: true, ExpiresAt: time.Now().Add(time.Hour)}
}

// makeFileHeaders builds real multipart file headers the way Fiber hands
// them to the handler.
func makeFileHeaders(t *testing.T, names ...string) []*multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, name := range names {
		part, err := writer.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("CreateFormFile(%q) error = %v", name, err)
		}
		if _, err := part.Write([]byte("image-bytes-" + name)); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatalf("ParseMultipartForm() error = %v", err)
	}
	return req.MultipartForm.File["files"]
}

func validTicketInput() CreateTicketInput {
	return CreateTicketInput{
		Description: "leak",
		Location:    "rm1",
		Category:    "plumbing",
	}
}

func TestCreateTicketRequiresSession(t *testing.T) {
	f := newTicketFixture(t)

	_, err := f.service.CreateTicket(context.Background(), nil, validTicketInput())
	if err == nil {
		t.Fatal("expected forbidden, got nil")
	}
	if status := apperrors.ToDomainError(err).HTTPStatus; status != 403 {
		t.Errorf("status = %d, want 403", status)
	}
	if f.tickets.Count() != 0 {
		t.Errorf("ticket count = %d, want 0", f.tickets.Count())
	}
}

func TestCreateTicketValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateTicketInput)
	}{
		{"missing description", func(in *CreateTicketInput) { in.Description = "" }},
		{"blank description", func(in *CreateTicketInput) { in.Description = "   " }},
		{"missing location", func(in *CreateTicketInput) { in.Location = "" }},
		{"missing category", func(in *CreateTicketInput) { in.Category = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTicketFixture(t)
			user := f.seedUser(t, "alice", "alice@x.com")

			in := validTicketInput()
			tt.mutate(&in)

			_, err := f.service.CreateTicket(context.Background(), userSession(user), in)
			if err == nil {
				t.Fatal("expected bad request, got nil")
			}
			if status := apperrors.ToDomainError(err).HTTPStatus; status != 400 {
				t.Errorf("status = %d, want 400", status)
			}
			if f.tickets.Count() != 0 {
				t.Errorf("ticket count = %d, want 0", f.tickets.Count())
			}
		})
	}
}

func TestCreateTicketSuccess(t *testing.T) {
	f := newTicketFixture(t)
	user := f.seedUser(t, "alice", "alice@x.com")

	id, err := f.service.CreateTicket(context.Background(), userSession(user), validTicketInput())
	if err != nil {
		t.Fatalf("CreateTicket() error = %v", err)
	}
	if id == 0 {
		t.Fatal("ticket id not assigned")
	}

	ticket, err := f.tickets.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if ticket.Status != domain.TicketStatusOpen {
		t.Errorf("status = %q, want open", ticket.Status)
	}
	if ticket.UserID != user.ID {
		t.Errorf("user id = %d, want %d", ticket.UserID, user.ID)
	}

	recorded := f.recorded.all()
	if len(recorded) != 1 || recorded[0].Type != events.EventTicketCreated {
		t.Errorf("events = %v, want one ticket_created", recorded)
	}
}

func TestCreateTicketStoresFiles(t *testing.T) {
	f := newTicketFixture(t)
	user := f.seedUser(t, "alice", "alice@x.com")

	in := validTicketInput()
	in.Files = makeFileHeaders(t, "before.JPG", "after.png")

	id, err := f.service.CreateTicket(context.Background(), userSession(user), in)
	if err != nil {
		t.Fatalf("CreateTicket() error = %v", err)
	}

	ticket, err := f.tickets.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if len(ticket.ImagePaths) != 2 {
		t.Fatalf("image paths = %v, want 2 entries", ticket.ImagePaths)
	}

	wantExts := []string{".jpg", ".png"}
	for i, ref := range ticket.ImagePaths {
		if !strings.HasPrefix(ref, "/uploads/") {
			t.Errorf("reference %q lacks public prefix", ref)
		}
		if !strings.HasSuffix(ref, wantExts[i]) {
			t.Errorf("reference %q lacks extension %q", ref, wantExts[i])
		}
		onDisk := filepath.Join(f.uploads.Dir(), strings.TrimPrefix(ref, "/uploads/"))
		if _, err := os.Stat(onDisk); err != nil {
			t.Errorf("stored file missing: %v", err)
		}
	}
}

func TestCreateTicketTooManyFiles(t *testing.T) {
	f := newTicketFixture(t)
	user := f.seedUser(t, "alice", "alice@x.com")

	names := make([]string, 11)
	for i := range names {
		names[i] = "img.png"
	}
	in := validTicketInput()
	in.Files = makeFileHeaders(t, names...)

	_, err := f.service.CreateTicket(context.Background(), userSession(user), in)
	if err == nil {
		t.Fatal("expected bad request, got nil")
	}
	if status := apperrors.ToDomainError(err).HTTPStatus; status != 400 {
		t.Errorf("status = %d, want 400", status)
	}
	if f.tickets.Count() != 0 {
		t.Errorf("ticket count = %d, want 0", f.tickets.Count())
	}
}

func TestListTicketsForAdminAuthorization(t *testing.T) {
	f := newTicketFixture(t)
	user := f.seedUser(t, "alice", "alice@x.com")

	for _, sess := range []*domain.Session{nil, userSession(user)} {
		_, err := f.service.ListTicketsForAdmin(context.Background(), sess)
		if err == nil {
			t.Fatal("expected forbidden, got nil")
		}
		if status := apperrors.ToDomainError(err).HTTPStatus; status != 403 {
			t.Errorf("status = %d, want 403", status)
		}
	}
}

func TestListTicketsForAdminNewestFirstWithOwners(t *testing.T) {
	f := newTicketFixture(t)
	user := f.seedUser(t, "alice", "alice@x.com")

	older := &domain.Ticket{
		UserID: user.ID, Description: "old", Location: "rm1", Category: "plumbing",
		Status: domain.TicketStatusOpen, CreatedAt: time.Now().Add(-time.Hour),
	}
	newer := &domain.Ticket{
		UserID: user.ID, Description: "new", Location: "rm2", Category: "electrical",
		Status: domain.TicketStatusOpen, CreatedAt: time.Now(),
	}
	for _, ticket := range []*domain.Ticket{older, newer} {
		if err := f.tickets.Create(context.Background(), ticket); err != nil {
			t.Fatalf("seed ticket: %v", err)
		}
	}

	rows, err := f.service.ListTicketsForAdmin(context.Background(), adminSession())
	if err != nil {
		t.Fatalf("ListTicketsForAdmin() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Description != "new" || rows[1].Description != "old" {
		t.Errorf("ordering = [%s, %s], want newest first", rows[0].Description, rows[1].Description)
	}
	if rows[0].Username != "alice" || rows[0].Email != "alice@x.com" {
		t.Errorf("owner join missing: %+v", rows[0])
	}
}

func TestUpdateTicketStatus(t *testing.T) {
	f := newTicketFixture(t)
	user := f.seedUser(t, "alice", "alice@x.com")

	id, err := f.service.CreateTicket(context.Background(), userSession(user), validTicketInput())
	if err != nil {
		t.Fatalf("CreateTicket() error = %v", err)
	}

	tests := []struct {
		name       string
		sess       *domain.Session
		ticketID   int64
		status     string
		wantStatus int
	}{
		{"non-admin forbidden", userSession(user), id, "closed", 403},
		{"invalid status", adminSession(), id, "resolved", 400},
		{"blank status", adminSession(), id, "", 400},
		{"unknown ticket", adminSession(), id + 100, "closed", 404},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.service.UpdateTicketStatus(context.Background(), tt.sess, tt.ticketID, tt.status)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if status := apperrors.ToDomainError(err).HTTPStatus; status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
		})
	}

	before, _ := f.tickets.GetByID(context.Background(), id)
	if err := f.service.UpdateTicketStatus(context.Background(), adminSession(), id, "closed"); err != nil {
		t.Fatalf("UpdateTicketStatus() error = %v", err)
	}
	after, _ := f.tickets.GetByID(context.Background(), id)
	if after.Status != domain.TicketStatusClosed {
		t.Errorf("status = %q, want closed", after.Status)
	}
	if !after.UpdatedAt.After(before.UpdatedAt) && !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Error("updated_at not refreshed")
	}

	var statusEvents int
	for _, event := range f.recorded.all() {
		if event.Type == events.EventTicketStatusChanged {
			statusEvents++
			payload, ok := event.Payload.(events.TicketStatusChangedPayload)
			if !ok {
				t.Fatalf("payload type = %T", event.Payload)
			}
			if payload.OldStatus != domain.TicketStatusOpen || payload.NewStatus != domain.TicketStatusClosed {
				t.Errorf("payload = %+v", payload)
			}
		}
	}
	if statusEvents != 1 {
		t.Errorf("status change events = %d, want 1", statusEvents)
	}
}
