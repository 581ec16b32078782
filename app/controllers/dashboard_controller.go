package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PlanAutomator/internal/pkg/identity"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/retention"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/usercontext"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/utils"
)

type DashboardController struct {
	dashboard *retention.Dashboard
}

func NewDashboardController(dash *retention.Dashboard) *DashboardController {
	return &DashboardController{dashboard: dash}
}

func (dc *DashboardController) HandleSnapshot(c *fiber.Ctx) error {
	snap, err := dc.dashboard.Snapshot(c.UserContext(), usercontext.GetEmail(c))
	if err != nil {
		return internalError(c, "failed to compute metrics")
	}
	return c.JSON(snap)
}

// HandleDashboardPage renders the metrics page. Visitors who are not active
// see which screen they still have to complete.
func (dc *DashboardController) HandleDashboardPage(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	data := fiber.Map{
		"User":    userCtx,
		"Screen":  userCtx.State.Screen(),
		"Refresh": int(dc.dashboard.RefreshInterval().Seconds()),
	}
	if userCtx.IsLoggedIn {
		data["Avatar"] = utils.AvatarURL(userCtx.Email, 64)
	}
	if userCtx.State != identity.StateActive {
		return c.Render("dashboard", data)
	}

	snap, err := dc.dashboard.Snapshot(c.UserContext(), userCtx.Email)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to compute metrics")
	}
	data["Snapshot"] = snap
	return c.Render("dashboard", data)
}
