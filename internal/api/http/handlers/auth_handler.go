package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/fixwell/maintenance-service/internal/api/dto"
	"github.com/fixwell/maintenance-service/internal/auth"
	"github.com/fixwell/maintenance-service/internal/domain"
	"github.com/fixwell/maintenance-service/internal/service"
	"github.com/fixwell/maintenance-service/internal/session"
	apperrors "github.com/fixwell/maintenance-service/pkg/util"
)

// AuthHandler exposes registration, login and session endpoints.
type AuthHandler struct {
	auth     *service.AuthService
	sessions *session.Manager
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, sessions *session.Manager) *AuthHandler {
	return &AuthHandler{auth: authService, sessions: sessions}
}

// Register handles POST /api/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("Invalid payload.")
	}

	if _, err := h.auth.Register(c.Context(), service.RegisterInput{
		Email:                req.Email,
		Username:             req.Username,
		Password:             req.Password,
		PasswordConfirmation: req.Password2,
	}); err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"ok":      true,
		"message": "Registration successful.",
	})
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	return h.login(c, h.auth.Login)
}

// AdminLogin handles POST /api/admin/login.
func (h *AuthHandler) AdminLogin(c *fiber.Ctx) error {
	return h.login(c, h.auth.AdminLogin)
}

func (h *AuthHandler) login(c *fiber.Ctx, authenticate func(ctx context.Context, identifier, password string) (*domain.User, error)) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("Invalid payload.")
	}

	user, err := authenticate(c.Context(), req.Identifier(), req.Password)
	if err != nil {
		return err
	}

	if _, err := h.sessions.Issue(c, user.ID, user.IsAdmin); err != nil {
		return apperrors.NewInternalError(err)
	}

	return c.JSON(fiber.Map{
		"ok": true,
		"user": dto.UserResponse{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			IsAdmin:  user.IsAdmin,
		},
	})
}

// Logout handles POST /api/logout. Always succeeds.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.sessions.Destroy(c); err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// Check handles GET /api/auth/check.
func (h *AuthHandler) Check(c *fiber.Ctx) error {
	_, loggedIn := auth.SessionFromContext(c)
	return c.JSON(fiber.Map{"loggedIn": loggedIn})
}
