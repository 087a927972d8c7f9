package session

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/fixwell/maintenance-service/internal/domain"
)

// CookieName carries the signed session token.
const CookieName = "mt_session"

// Manager issues and resolves cookie-backed sessions. The cookie value is
// an HS256-signed token wrapping the opaque session id; the session state
// itself lives only in the Store.
type Manager struct {
	secret []byte
	ttl    time.Duration
	store  Store
	secure bool
}

// NewManager builds a manager around the given store.
func NewManager(secret string, ttl time.Duration, store Store, secureCookies bool) *Manager {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Manager{secret: []byte(secret), ttl: ttl, store: store, secure: secureCookies}
}

type cookieClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Issue creates a session for the user and sets the HTTP-only cookie.
func (m *Manager) Issue(c *fiber.Ctx, userID int64, isAdmin bool) (*domain.Session, error) {
	sess := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		IsAdmin:   isAdmin,
		ExpiresAt: time.Now().Add(m.ttl),
	}
	if err := m.store.Create(c.Context(), sess); err != nil {
		return nil, err
	}

	claims := &cookieClaims{
		SessionID: sess.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		_ = m.store.Delete(c.Context(), sess.ID)
		return nil, err
	}

	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    token,
		Expires:  sess.ExpiresAt,
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
	return sess, nil
}

// Current resolves the caller's session from the request cookie. It
// returns ErrNotFound for absent, tampered, or expired cookies alike.
func (m *Manager) Current(c *fiber.Ctx) (*domain.Session, error) {
	token := c.Cookies(CookieName)
	if token == "" {
		return nil, ErrNotFound
	}
	id, err := m.parseSessionID(token)
	if err != nil {
		return nil, ErrNotFound
	}
	return m.store.Get(c.Context(), id)
}

// Destroy removes the caller's session and clears the cookie. Destroying
// an absent session is a no-op.
func (m *Manager) Destroy(c *fiber.Ctx) error {
	if token := c.Cookies(CookieName); token != "" {
		if id, err := m.parseSessionID(token); err == nil {
			if err := m.store.Delete(c.Context(), id); err != nil {
				return err
			}
		}
	}
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
	return nil
}

func (m *Manager) parseSessionID(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &cookieClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(*cookieClaims)
	if !ok || !parsed.Valid || claims.SessionID == "" {
		return "", errors.New("invalid session token")
	}
	return claims.SessionID, nil
}
