package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PlanAutomator/app/models"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/integration"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/usercontext"
)

// IntegrationController serves provider connections, the endpoint and plan
// mappings.
type IntegrationController struct {
	integrations *integration.Service
}

func NewIntegrationController(svc *integration.Service) *IntegrationController {
	return &IntegrationController{integrations: svc}
}

func (ic *IntegrationController) HandleListIntegrations(c *fiber.Ctx) error {
	views, err := ic.integrations.List(c.UserContext(), usercontext.GetEmail(c))
	if err != nil {
		return internalError(c, "failed to load integrations")
	}
	return c.JSON(fiber.Map{"integrations": views})
}

func (ic *IntegrationController) HandleUpdateIntegration(c *fiber.Ctx) error {
	provider, err := models.ParseProvider(c.Params("provider"))
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, "not_found", err.Error())
	}
	var in integration.ConnectInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := ic.integrations.Connect(c.UserContext(), usercontext.GetEmail(c), provider, in); err != nil {
		return internalError(c, "failed to save integration")
	}
	return ic.HandleListIntegrations(c)
}

func (ic *IntegrationController) HandleGetEndpoint(c *fiber.Ctx) error {
	cfg, err := ic.integrations.Endpoint(c.UserContext(), usercontext.GetEmail(c))
	if err != nil {
		return internalError(c, "failed to load endpoint")
	}
	return c.JSON(cfg)
}

func (ic *IntegrationController) HandleUpdateEndpoint(c *fiber.Ctx) error {
	var cfg models.EndpointConfig
	if err := c.BodyParser(&cfg); err != nil {
		return badRequest(c, "invalid request body")
	}
	email := usercontext.GetEmail(c)
	if err := ic.integrations.SaveEndpoint(c.UserContext(), email, cfg); err != nil {
		if errors.Is(err, integration.ErrInvalidEndpoint) {
			return errorJSON(c, fiber.StatusUnprocessableEntity, "validation_failed", err.Error())
		}
		return internalError(c, "failed to save endpoint")
	}
	return ic.HandleGetEndpoint(c)
}

func (ic *IntegrationController) HandleGetPlanMappings(c *fiber.Ctx) error {
	mappings, err := ic.integrations.PlanMappings(c.UserContext(), usercontext.GetEmail(c))
	if err != nil {
		return internalError(c, "failed to load plan mappings")
	}
	return c.JSON(fiber.Map{"mappings": mappings})
}

func (ic *IntegrationController) HandleUpdatePlanMappings(c *fiber.Ctx) error {
	var body struct {
		Mappings []models.PlanMapping `json:"mappings"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	err := ic.integrations.SavePlanMappings(c.UserContext(), usercontext.GetEmail(c), body.Mappings)
	switch {
	case errors.Is(err, integration.ErrInvalidMapping), errors.Is(err, integration.ErrDuplicateCheckout):
		return errorJSON(c, fiber.StatusUnprocessableEntity, "validation_failed", err.Error())
	case err != nil:
		return internalError(c, "failed to save plan mappings")
	}
	return ic.HandleGetPlanMappings(c)
}
