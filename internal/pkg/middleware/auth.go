package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PlanAutomator/internal/pkg/identity"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/usercontext"
)

// RequireAPISessionAuth ensures a logged-in session for API routes and returns JSON 401 instead of redirect.
func RequireAPISessionAuth(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
			"screen":  identity.ScreenLogin,
		})
	}
	return c.Next()
}

// RequireActive lets only fully onboarded and subscribed accounts through.
// Others get 403 with the screen they must complete first.
func RequireActive(c *fiber.Ctx) error {
	state := usercontext.GetUserContext(c).State
	if state != identity.StateActive {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "forbidden",
			"message": "finish " + string(state.Screen()) + " first",
			"state":   state,
			"screen":  state.Screen(),
		})
	}
	return c.Next()
}
