package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PlanAutomator/internal/pkg/constants"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/middleware"
)

type HttpRouter struct {
	h *handlers
}

func (r HttpRouter) InstallRouter(app *fiber.App) {
	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware(r.h.sessions, r.h.identity))

	app.Get(constants.PublicRoute, r.h.dashboard.HandleDashboardPage)
}

func NewHttpRouter(h *handlers) *HttpRouter {
	return &HttpRouter{h: h}
}
