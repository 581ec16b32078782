package usercontext

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PlanAutomator/internal/pkg/identity"
)

// KeyUserContext is the Locals key holding the resolved UserContext.
const KeyUserContext = "USER_CONTEXT"

// UserContext represents the signed-in account of a request
type UserContext struct {
	Email      string         `json:"email"`
	Name       string         `json:"name"`
	IsLoggedIn bool           `json:"is_logged_in"`
	State      identity.State `json:"state"`
}

// GetUserContext retrieves the user context from fiber context
// Returns an anonymous context if none is set
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx, ok := c.Locals(KeyUserContext).(UserContext); ok {
		return ctx
	}
	return UserContext{State: identity.StateUnauthenticated}
}

// IsLoggedIn checks if the current user is logged in
func IsLoggedIn(c *fiber.Ctx) bool {
	return GetUserContext(c).IsLoggedIn
}

// GetEmail returns the account email, or empty string if not logged in
func GetEmail(c *fiber.Ctx) string {
	return GetUserContext(c).Email
}
