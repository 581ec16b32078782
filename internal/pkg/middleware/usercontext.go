package middleware

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ManuelReschke/PlanAutomator/internal/pkg/identity"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/logger"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/session"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/usercontext"
)

// UserContextMiddleware resolves the session pointer to the stored account
// and its lifecycle state for every request. A stale pointer is anonymous.
func UserContextMiddleware(sessions *session.Manager, ids *identity.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		anonymous := usercontext.UserContext{State: identity.StateUnauthenticated}

		email := sessions.Account(c)
		if email == "" {
			c.Locals(usercontext.KeyUserContext, anonymous)
			return c.Next()
		}

		account, state, err := ids.Resolve(c.UserContext(), email)
		if err != nil {
			logger.Get().Error("failed to resolve session account", zap.String("email", email), zap.Error(err))
		}
		if err != nil || account == nil {
			c.Locals(usercontext.KeyUserContext, anonymous)
			return c.Next()
		}

		c.Locals(usercontext.KeyUserContext, usercontext.UserContext{
			Email:      account.Email,
			Name:       account.Name,
			IsLoggedIn: true,
			State:      state,
		})
		return c.Next()
	}
}
