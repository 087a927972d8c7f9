package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/fixwell/maintenance-service/internal/auth"
	"github.com/fixwell/maintenance-service/internal/config"
	"github.com/fixwell/maintenance-service/internal/domain"
	"github.com/fixwell/maintenance-service/internal/repository"
	apperrors "github.com/fixwell/maintenance-service/pkg/util"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	minPasswordLength = 8

	// Identical wording for unknown identifiers and wrong passwords so
	// responses never reveal which accounts exist.
	genericLoginMessage = "Invalid username/email or password."
	duplicateMessage    = "A user with that email or username already exists."
)

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	bcryptCost int
	admin      adminBootstrap
	logger     *zap.Logger
}

type adminBootstrap struct {
	email    string
	username string
	password string
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:      users,
		bcryptCost: cfg.BcryptCost,
		admin: adminBootstrap{
			email:    cfg.AdminEmail,
			username: cfg.AdminUsername,
			password: cfg.AdminPassword,
		},
		logger: logger,
	}
}

// RegisterInput carries the registration form fields.
type RegisterInput struct {
	Email                string
	Username             string
	Password             string
	PasswordConfirmation string
}

// Register validates the input and creates a non-admin account. The
// plaintext password never leaves this call.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := strings.TrimSpace(in.Email)
	username := strings.TrimSpace(in.Username)

	if email == "" || username == "" || in.Password == "" || in.PasswordConfirmation == "" {
		return nil, apperrors.NewBadRequest("All fields are required.")
	}
	if !emailPattern.MatchString(email) {
		return nil, apperrors.NewBadRequest("Please provide a valid email.")
	}
	if in.Password != in.PasswordConfirmation {
		return nil, apperrors.NewBadRequest("Passwords do not match.")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperrors.NewBadRequest("Password must be at least 8 characters.")
	}

	exists, err := s.users.ExistsByEmailOrUsername(ctx, email, username)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if exists {
		return nil, apperrors.NewConflict(duplicateMessage)
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		IsAdmin:      false,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// Concurrent duplicate registrations race past the exists check;
		// the store's unique constraint settles them.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict(duplicateMessage)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

// Login authenticates by username or email.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*domain.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, apperrors.NewBadRequest("Username/email and password are required.")
	}

	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized(genericLoginMessage)
		}
		return nil, apperrors.NewInternalError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized(genericLoginMessage)
	}
	return user, nil
}

// AdminLogin authenticates like Login and additionally requires the
// admin flag.
func (s *AuthService) AdminLogin(ctx context.Context, identifier, password string) (*domain.User, error) {
	user, err := s.Login(ctx, identifier, password)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin {
		return nil, apperrors.NewForbidden("Admin access required.")
	}
	return user, nil
}

// EnsureAdmin seeds the configured admin account when it does not exist
// yet. No registration path can set the admin flag, so this is the only
// way an admin comes into being.
func (s *AuthService) EnsureAdmin(ctx context.Context) error {
	if s.admin.email == "" || s.admin.username == "" || s.admin.password == "" {
		return nil
	}

	exists, err := s.users.ExistsByEmailOrUsername(ctx, s.admin.email, s.admin.username)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	hash, err := auth.HashPassword(s.admin.password, s.bcryptCost)
	if err != nil {
		return err
	}
	admin := &domain.User{
		Email:        s.admin.email,
		Username:     s.admin.username,
		PasswordHash: hash,
		IsAdmin:      true,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil
		}
		return err
	}
	s.logger.Info("seeded admin account", zap.String("username", admin.Username))
	return nil
}
