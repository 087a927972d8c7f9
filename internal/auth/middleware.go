package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/fixwell/maintenance-service/internal/domain"
	"github.com/fixwell/maintenance-service/internal/session"
	apperrors "github.com/fixwell/maintenance-service/pkg/util"
)

const sessionKey = "auth_session"

// SessionMiddleware resolves the caller's session from the cookie and
// attaches it to the request. Requests without a valid session pass
// through; route guards decide whether one is required.
type SessionMiddleware struct {
	sessions *session.Manager
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(sessions *session.Manager) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions}
}

// Attach loads the session, if any, into request locals.
func (m *SessionMiddleware) Attach(c *fiber.Ctx) error {
	sess, err := m.sessions.Current(c)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return c.Next()
		}
		return apperrors.MapError(err)
	}
	c.Locals(sessionKey, sess)
	return c.Next()
}

// SessionFromContext retrieves the attached session.
func SessionFromContext(c *fiber.Ctx) (*domain.Session, bool) {
	val := c.Locals(sessionKey)
	if val == nil {
		return nil, false
	}
	sess, ok := val.(*domain.Session)
	return sess, ok
}

// RequireUser ensures an authenticated session is present.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := SessionFromContext(c); !ok {
			return apperrors.NewForbidden("You must be logged in.")
		}
		return c.Next()
	}
}

// RequireAdmin ensures the session belongs to an admin account.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, ok := SessionFromContext(c)
		if !ok || !sess.IsAdmin {
			return apperrors.NewForbidden("Admin access required.")
		}
		return c.Next()
	}
}
