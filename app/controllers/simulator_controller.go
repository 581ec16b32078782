package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ManuelReschke/PlanAutomator/app/models"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/logger"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/retention"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/simulator"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/usercontext"
)

type SimulatorController struct {
	simulator  *simulator.Simulator
	dashboard  *retention.Dashboard
	deliveries *counter.Deliveries
}

func NewSimulatorController(sim *simulator.Simulator, dash *retention.Dashboard, deliveries *counter.Deliveries) *SimulatorController {
	return &SimulatorController{simulator: sim, dashboard: dash, deliveries: deliveries}
}

type simulateRequest struct {
	Provider      string `json:"provider"`
	CustomerEmail string `json:"customer_email"`
	Event         string `json:"event"`
	CheckoutID    string `json:"checkout_id"`
}

// HandleSimulate fires a test webhook. A delivery failure is reported with
// 502 but the event is recorded either way.
func (sc *SimulatorController) HandleSimulate(c *fiber.Ctx) error {
	var in simulateRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	provider, err := models.ParseProvider(in.Provider)
	if err != nil {
		return badRequest(c, err.Error())
	}
	kind, err := models.ParseEventKind(in.Event)
	if err != nil {
		return badRequest(c, err.Error())
	}

	email := usercontext.GetEmail(c)
	res, err := sc.simulator.Simulate(c.UserContext(), email, simulator.Request{
		Provider:      provider,
		CustomerEmail: in.CustomerEmail,
		Kind:          kind,
		CheckoutID:    in.CheckoutID,
	})
	if err != nil {
		if errors.Is(err, simulator.ErrNoEndpoint) {
			return errorJSON(c, fiber.StatusPreconditionFailed, "endpoint_required", err.Error())
		}
		logger.Get().Error("simulation failed", zap.String("account", email), zap.Error(err))
		return internalError(c, "failed to record simulated event")
	}
	sc.dashboard.Invalidate(c.UserContext(), email)
	outcome := counter.OutcomeOf(res.Attempted, res.DeliveryError)
	if err := sc.deliveries.Add(c.UserContext(), email, provider, outcome); err != nil {
		logger.Get().Warn("failed to count delivery", zap.String("account", email), zap.Error(err))
	}

	body := fiber.Map{
		"entry":       res.Entry,
		"payload":     res.Payload,
		"attempted":   res.Attempted,
		"status_code": res.StatusCode,
	}
	if res.DeliveryError != nil {
		body["error"] = "delivery_failed"
		body["message"] = res.DeliveryError.Error()
		return c.Status(fiber.StatusBadGateway).JSON(body)
	}
	body["message"] = "event sent"
	return c.JSON(body)
}

func (sc *SimulatorController) HandleDeliveryStats(c *fiber.Ctx) error {
	counts, err := sc.deliveries.Counts(c.UserContext(), usercontext.GetEmail(c))
	if err != nil {
		return internalError(c, "failed to load delivery counters")
	}
	return c.JSON(fiber.Map{"deliveries": counts})
}
