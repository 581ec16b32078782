package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ManuelReschke/PlanAutomator/internal/pkg/logger"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/retention"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/settings"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/usercontext"
)

type SettingsController struct {
	settings   *settings.Service
	dashboard  *retention.Dashboard
	deliveries *counter.Deliveries
}

func NewSettingsController(svc *settings.Service, dash *retention.Dashboard, deliveries *counter.Deliveries) *SettingsController {
	return &SettingsController{settings: svc, dashboard: dash, deliveries: deliveries}
}

func (sc *SettingsController) HandleUpdateProfile(c *fiber.Ctx) error {
	var in settings.ProfileInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	account, err := sc.settings.UpdateProfile(c.UserContext(), usercontext.GetEmail(c), in)
	if err != nil {
		return internalError(c, "failed to update profile")
	}
	return c.JSON(fiber.Map{"message": "profile updated", "account": account})
}

func (sc *SettingsController) HandleChangePassword(c *fiber.Ctx) error {
	var in settings.PasswordInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	err := sc.settings.ChangePassword(c.UserContext(), usercontext.GetEmail(c), in)
	switch {
	case errors.Is(err, settings.ErrIncorrectPassword):
		return errorJSON(c, fiber.StatusForbidden, "incorrect_password", err.Error())
	case errors.Is(err, settings.ErrEmptyPassword), errors.Is(err, settings.ErrPasswordTooLong):
		return errorJSON(c, fiber.StatusUnprocessableEntity, "validation_failed", err.Error())
	case err != nil:
		return internalError(c, "failed to change password")
	}
	return c.JSON(fiber.Map{"message": "password changed"})
}

func (sc *SettingsController) HandleReset(c *fiber.Ctx) error {
	var in struct {
		Confirmation string `json:"confirmation"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	email := usercontext.GetEmail(c)
	err := sc.settings.ResetOperationalData(c.UserContext(), email, in.Confirmation)
	switch {
	case errors.Is(err, settings.ErrConfirmationMismatch):
		return errorJSON(c, fiber.StatusBadRequest, "confirmation_mismatch", err.Error())
	case err != nil:
		return internalError(c, "failed to reset data")
	}
	sc.dashboard.Invalidate(c.UserContext(), email)
	if err := sc.deliveries.Reset(c.UserContext(), email); err != nil {
		logger.Get().Warn("failed to reset delivery counters", zap.String("account", email), zap.Error(err))
	}
	return c.JSON(fiber.Map{"message": "data reset"})
}
