package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ManuelReschke/PlanAutomator/internal/pkg/constants"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/middleware"
)

type ApiRouter struct {
	h *handlers
}

func (r ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group(constants.APIRoute, limiter.New(limiter.Config{
		Max:        r.h.rateLimit,
		Expiration: r.h.rateWindow,
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")

	// identity gate
	v1.Post("/auth/signup", r.h.auth.HandleSignUp)
	v1.Post("/auth/login", r.h.auth.HandleLogin)
	v1.Post("/auth/logout", r.h.auth.HandleLogout)
	v1.Get("/session", r.h.auth.HandleSession)

	authed := v1.Group("", middleware.RequireAPISessionAuth)
	authed.Post("/onboarding/complete", r.h.auth.HandleCompleteOnboarding)
	authed.Post("/subscription/activate", r.h.auth.HandleActivateSubscription)

	active := authed.Group("", middleware.RequireActive)

	// integrations
	active.Get("/integrations", r.h.integrations.HandleListIntegrations)
	active.Put("/integrations/:provider", r.h.integrations.HandleUpdateIntegration)
	active.Get("/endpoint", r.h.integrations.HandleGetEndpoint)
	active.Put("/endpoint", r.h.integrations.HandleUpdateEndpoint)
	active.Get("/plan-mappings", r.h.integrations.HandleGetPlanMappings)
	active.Put("/plan-mappings", r.h.integrations.HandleUpdatePlanMappings)

	// simulator and metrics
	active.Post("/simulate", r.h.simulator.HandleSimulate)
	active.Get("/simulate/stats", r.h.simulator.HandleDeliveryStats)
	active.Get("/dashboard", r.h.dashboard.HandleSnapshot)

	// logs
	active.Get("/logs", r.h.logs.HandleListLogs)
	active.Delete("/logs", r.h.logs.HandleClearLogs)
	active.Post("/logs/:id/troubleshoot", r.h.logs.HandleTroubleshoot)

	// settings
	active.Put("/settings/profile", r.h.settings.HandleUpdateProfile)
	active.Put("/settings/password", r.h.settings.HandleChangePassword)
	active.Post("/settings/reset", r.h.settings.HandleReset)
}

func NewApiRouter(h *handlers) *ApiRouter {
	return &ApiRouter{h: h}
}
