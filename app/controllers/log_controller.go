package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PlanAutomator/internal/pkg/eventlog"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/retention"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/troubleshoot"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/usercontext"
)

type LogController struct {
	logs      *eventlog.Service
	dashboard *retention.Dashboard
	assistant *troubleshoot.Assistant
}

func NewLogController(logs *eventlog.Service, dash *retention.Dashboard, assistant *troubleshoot.Assistant) *LogController {
	return &LogController{logs: logs, dashboard: dash, assistant: assistant}
}

func (lc *LogController) HandleListLogs(c *fiber.Ctx) error {
	rows, err := lc.logs.List(c.UserContext(), usercontext.GetEmail(c))
	if err != nil {
		return internalError(c, "failed to load logs")
	}
	return c.JSON(fiber.Map{"logs": rows})
}

// HandleClearLogs needs ?confirm=true; the first call without it returns 409
// so the client can ask the user.
func (lc *LogController) HandleClearLogs(c *fiber.Ctx) error {
	email := usercontext.GetEmail(c)
	err := lc.logs.Clear(c.UserContext(), email, c.QueryBool("confirm"))
	switch {
	case errors.Is(err, eventlog.ErrConfirmationRequired):
		return errorJSON(c, fiber.StatusConflict, "confirmation_required", err.Error())
	case err != nil:
		return internalError(c, "failed to clear logs")
	}
	lc.dashboard.Invalidate(c.UserContext(), email)
	return c.JSON(fiber.Map{"message": "logs cleared"})
}

func (lc *LogController) HandleTroubleshoot(c *fiber.Ctx) error {
	entry, err := lc.logs.Find(c.UserContext(), usercontext.GetEmail(c), c.Params("id"))
	if err != nil {
		if errors.Is(err, eventlog.ErrEntryNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "not_found", err.Error())
		}
		return internalError(c, "failed to load log entry")
	}
	return c.JSON(fiber.Map{
		"entry_id": entry.ID,
		"text":     lc.assistant.Diagnose(c.UserContext(), entry),
	})
}
