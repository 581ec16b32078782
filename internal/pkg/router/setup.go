package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PlanAutomator/app/controllers"
	"github.com/ManuelReschke/PlanAutomator/app/repository"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/eventlog"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/identity"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/integration"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/retention"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/session"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/settings"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/simulator"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/troubleshoot"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Services are the collaborators the routes are built from.
type Services struct {
	Store      repository.RecordStore
	Sessions   *session.Manager
	Simulator  *simulator.Simulator
	Dashboard  *retention.Dashboard
	Assistant  *troubleshoot.Assistant
	Deliveries *counter.Deliveries
	PublicURL  string
	// RateLimit is the number of API requests per IP and minute.
	RateLimit int
}

type handlers struct {
	sessions     *session.Manager
	identity     *identity.Service
	auth         *controllers.AuthController
	integrations *controllers.IntegrationController
	simulator    *controllers.SimulatorController
	dashboard    *controllers.DashboardController
	logs         *controllers.LogController
	settings     *controllers.SettingsController
	rateLimit    int
	rateWindow   time.Duration
}

func newHandlers(s Services) *handlers {
	if s.Sessions == nil {
		s.Sessions = session.NewMemoryManager()
	}
	if s.Dashboard == nil {
		s.Dashboard = retention.NewDashboard(s.Store, nil, 0)
	}
	if s.Simulator == nil {
		s.Simulator = simulator.New(s.Store, simulator.Config{RecordDelay: -1})
	}
	if s.Assistant == nil {
		s.Assistant = troubleshoot.NewAssistant(nil, 0)
	}
	if s.Deliveries == nil {
		s.Deliveries = counter.NewDeliveries(nil)
	}
	if s.RateLimit <= 0 {
		s.RateLimit = 120
	}

	ids := identity.NewService(s.Store)
	return &handlers{
		sessions:     s.Sessions,
		identity:     ids,
		auth:         controllers.NewAuthController(ids, s.Sessions),
		integrations: controllers.NewIntegrationController(integration.NewService(s.Store, s.PublicURL)),
		simulator:    controllers.NewSimulatorController(s.Simulator, s.Dashboard, s.Deliveries),
		dashboard:    controllers.NewDashboardController(s.Dashboard),
		logs:         controllers.NewLogController(eventlog.NewService(s.Store), s.Dashboard, s.Assistant),
		settings:     controllers.NewSettingsController(settings.NewService(s.Store), s.Dashboard, s.Deliveries),
		rateLimit:    s.RateLimit,
		rateWindow:   time.Minute,
	}
}

func InstallRouter(app *fiber.App, s Services) {
	h := newHandlers(s)
	// HttpRouter installs the UserContext middleware the API routes depend on.
	setup(app, NewHttpRouter(h), NewApiRouter(h))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
