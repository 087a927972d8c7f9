package ratelimit

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/fixwell/maintenance-service/pkg/util"
)

const advisoryMessage = "Too many requests. Please try again later."

// Middleware enforces the rule per client address before any handler work
// runs. Limiter backend failures fail open with a logged warning rather
// than locking every client out.
func Middleware(limiter Limiter, rule Rule, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		allowed, err := limiter.Allow(c.UserContext(), c.IP(), rule)
		if err != nil {
			logger.Warn("rate limiter unavailable",
				zap.String("rule", rule.Name),
				zap.Error(err))
			return c.Next()
		}
		if !allowed {
			return apperrors.NewTooManyRequests(advisoryMessage)
		}
		return c.Next()
	}
}
