package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/fixwell/maintenance-service/internal/auth"
	"github.com/fixwell/maintenance-service/internal/config"
	"github.com/fixwell/maintenance-service/internal/domain"
	"github.com/fixwell/maintenance-service/internal/repository"
	"github.com/fixwell/maintenance-service/internal/repository/repotest"
	apperrors "github.com/fixwell/maintenance-service/pkg/util"
)

// countingUsers wraps the fake user repository and counts store accesses,
// so tests can assert that validation failures never reach the store.
type countingUsers struct {
	*repotest.Users
	calls int
}

func (c *countingUsers) Create(ctx context.Context, user *domain.User) error {
	c.calls++
	return c.Users.Create(ctx, user)
}

func (c *countingUsers) GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	c.calls++
	return c.Users.GetByIdentifier(ctx, identifier)
}

func (c *countingUsers) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	c.calls++
	return c.Users.ExistsByEmailOrUsername(ctx, email, username)
}

func newAuthService(users repository.UserRepository, cfg config.AuthConfig) *AuthService {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 4
	}
	return NewAuthService(cfg, users, zap.NewNop())
}

func validInput() RegisterInput {
	return RegisterInput{
		Email:                "alice@x.com",
		Username:             "alice",
		Password:             "pw12345678",
		PasswordConfirmation: "pw12345678",
	}
}

func TestRegisterValidationFailsBeforeStoreAccess(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{"missing email", func(in *RegisterInput) { in.Email = "" }},
		{"missing username", func(in *RegisterInput) { in.Username = "" }},
		{"missing password", func(in *RegisterInput) { in.Password = "" }},
		{"missing confirmation", func(in *RegisterInput) { in.PasswordConfirmation = "" }},
		{"invalid email", func(in *RegisterInput) { in.Email = "not-an-email" }},
		{"email with spaces", func(in *RegisterInput) { in.Email = "a b@x.com" }},
		{"password mismatch", func(in *RegisterInput) { in.PasswordConfirmation = "different123" }},
		{"short password", func(in *RegisterInput) {
			in.Password = "pw12345"
			in.PasswordConfirmation = "pw12345"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &countingUsers{Users: repotest.NewUsers()}
			svc := newAuthService(users, config.AuthConfig{})

			in := validInput()
			tt.mutate(&in)

			_, err := svc.Register(context.Background(), in)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if status := apperrors.ToDomainError(err).HTTPStatus; status != 400 {
				t.Errorf("status = %d, want 400", status)
			}
			if users.calls != 0 {
				t.Errorf("store accessed %d times before validation passed", users.calls)
			}
		})
	}
}

func TestRegisterSuccess(t *testing.T) {
	users := repotest.NewUsers()
	svc := newAuthService(users, config.AuthConfig{})

	user, err := svc.Register(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.ID == 0 {
		t.Error("user id not assigned")
	}
	if user.IsAdmin {
		t.Error("registered user must not be admin")
	}
	if user.PasswordHash == "pw12345678" {
		t.Error("password stored in plaintext")
	}
	if err := auth.ComparePassword(user.PasswordHash, "pw12345678"); err != nil {
		t.Errorf("stored hash does not verify: %v", err)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	users := repotest.NewUsers()
	svc := newAuthService(users, config.AuthConfig{})

	if _, err := svc.Register(context.Background(), validInput()); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{"same email", func(in *RegisterInput) { in.Username = "alice2" }},
		{"same username", func(in *RegisterInput) { in.Email = "alice2@x.com" }},
		{"same both", func(in *RegisterInput) {}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			_, err := svc.Register(context.Background(), in)
			if err == nil {
				t.Fatal("expected conflict, got nil")
			}
			if status := apperrors.ToDomainError(err).HTTPStatus; status != 409 {
				t.Errorf("status = %d, want 409", status)
			}
		})
	}

	if users.Count() != 1 {
		t.Errorf("user count = %d, want 1", users.Count())
	}
}

func TestLoginGenericFailureMessage(t *testing.T) {
	users := repotest.NewUsers()
	svc := newAuthService(users, config.AuthConfig{})
	if _, err := svc.Register(context.Background(), validInput()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, unknownErr := svc.Login(context.Background(), "nobody", "pw12345678")
	_, wrongPwErr := svc.Login(context.Background(), "alice", "wrong-password")

	for name, err := range map[string]error{"unknown identifier": unknownErr, "wrong password": wrongPwErr} {
		if err == nil {
			t.Fatalf("%s: expected error, got nil", name)
		}
		if status := apperrors.ToDomainError(err).HTTPStatus; status != 401 {
			t.Errorf("%s: status = %d, want 401", name, status)
		}
	}
	if apperrors.ToDomainError(unknownErr).Message != apperrors.ToDomainError(wrongPwErr).Message {
		t.Error("failure messages differ; identifiers can be enumerated")
	}
}

func TestLoginByUsernameAndEmail(t *testing.T) {
	users := repotest.NewUsers()
	svc := newAuthService(users, config.AuthConfig{})
	if _, err := svc.Register(context.Background(), validInput()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	for _, identifier := range []string{"alice", "alice@x.com"} {
		user, err := svc.Login(context.Background(), identifier, "pw12345678")
		if err != nil {
			t.Fatalf("Login(%q) error = %v", identifier, err)
		}
		if user.Username != "alice" {
			t.Errorf("Login(%q) returned user %q", identifier, user.Username)
		}
	}
}

func TestAdminLogin(t *testing.T) {
	users := repotest.NewUsers()
	cfg := config.AuthConfig{
		AdminEmail:    "admin@x.com",
		AdminUsername: "admin",
		AdminPassword: "adminpass123",
	}
	svc := newAuthService(users, cfg)

	if err := svc.EnsureAdmin(context.Background()); err != nil {
		t.Fatalf("EnsureAdmin() error = %v", err)
	}
	if _, err := svc.Register(context.Background(), validInput()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// A valid non-admin credential pair is Forbidden, not Unauthorized.
	_, err := svc.AdminLogin(context.Background(), "alice", "pw12345678")
	if err == nil {
		t.Fatal("expected forbidden, got nil")
	}
	if status := apperrors.ToDomainError(err).HTTPStatus; status != 403 {
		t.Errorf("status = %d, want 403", status)
	}

	admin, err := svc.AdminLogin(context.Background(), "admin", "adminpass123")
	if err != nil {
		t.Fatalf("AdminLogin() error = %v", err)
	}
	if !admin.IsAdmin {
		t.Error("admin flag not set on returned user")
	}
}

func TestEnsureAdminIdempotent(t *testing.T) {
	users := repotest.NewUsers()
	cfg := config.AuthConfig{
		AdminEmail:    "admin@x.com",
		AdminUsername: "admin",
		AdminPassword: "adminpass123",
	}
	svc := newAuthService(users, cfg)

	for i := 0; i < 3; i++ {
		if err := svc.EnsureAdmin(context.Background()); err != nil {
			t.Fatalf("EnsureAdmin() run %d error = %v", i, err)
		}
	}
	if users.Count() != 1 {
		t.Errorf("user count = %d, want 1", users.Count())
	}
}

func TestEnsureAdminUnconfiguredIsNoop(t *testing.T) {
	users := repotest.NewUsers()
	svc := newAuthService(users, config.AuthConfig{})

	if err := svc.EnsureAdmin(context.Background()); err != nil {
		t.Fatalf("EnsureAdmin() error = %v", err)
	}
	if users.Count() != 0 {
		t.Errorf("user count = %d, want 0", users.Count())
	}
}
