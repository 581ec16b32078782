package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PlanAutomator/app/repository"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/cache"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/constants"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/database"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/env"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/logger"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/retention"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/router"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/session"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/simulator"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/troubleshoot"
)

func main() {
	env.SetupEnvFile()
	if err := logger.Init(env.IsDev(), logger.LogLevel(env.GetEnv("LOG_LEVEL", "info"))); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := NewApplication(ctx)
	if err != nil {
		log.Fatal("failed to build application", zap.Error(err))
	}

	addr := fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000"))
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", addr))
		return app.Listen(addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		return app.ShutdownWithTimeout(10 * time.Second)
	})
	if err := g.Wait(); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func NewApplication(ctx context.Context) (*fiber.App, error) {
	log := logger.Get()
	cache.SetupCache()

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/planautomator to project root
		"../../../", // Fallback
	}

	// Find the correct base path
	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "views"); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}
	if basePath == "" {
		return nil, fmt.Errorf("could not find project root directory")
	}

	driver := env.GetEnv("STORE_DRIVER", repository.DriverMemory)
	var db *gorm.DB
	if driver == repository.DriverMySQL {
		database.SetupDatabase()
		db = database.GetDB()
	}
	repository.InitializeFactory(driver, db, cache.GetClient())
	store := repository.GetGlobalFactory().GetRecordStore()
	log.Info("record store ready", zap.String("driver", driver))

	var (
		snapshots  retention.SnapshotCache
		deliveries *counter.Deliveries
	)
	if cache.Available() {
		snapshots = retention.NewRedisCache(cache.GetClient())
		deliveries = counter.NewDeliveries(cache.GetClient())
	} else {
		snapshots = retention.NewMemoryCache()
		deliveries = counter.NewDeliveries(nil)
	}

	assistant, err := newAssistant(ctx)
	if err != nil {
		return nil, err
	}

	// init fiber app
	app := fiber.New(fiber.Config{
		Views:     html.New(basePath+"views", ".html"),
		BodyLimit: 1 << 20,
	})

	// recovery and logging
	app.Use(recover.New(), fiberlogger.New())

	// fiber metrics
	if pw := env.GetEnv("METRICS_PASSWORD", ""); pw != "" {
		app.Get(constants.MetricsRoute, basicauth.New(basicauth.Config{
			Users: map[string]string{
				env.GetEnv("METRICS_USER", "admin"): pw,
			},
		}), monitor.New())
	}

	// SWAGGER / OPENAPI
	app.Use(swagger.New(swagger.Config{
		BasePath: constants.DocsRoute,
		FilePath: basePath + "public/docs/v1/openapi.yml",
		Path:     "v1",
	}))

	rateLimit, _ := strconv.Atoi(env.GetEnv("API_RATE_LIMIT", "120"))

	// ROUTER
	sim := simulator.New(store, simulator.Config{
		Timeout:     env.GetDuration("SIMULATOR_TIMEOUT", simulator.DefaultTimeout),
		RecordDelay: env.GetDuration("SIMULATOR_RECORD_DELAY", simulator.DefaultRecordDelay),
	})
	dashboard := retention.NewDashboard(store, snapshots, env.GetDuration("DASHBOARD_REFRESH", retention.DefaultRefresh))

	router.InstallRouter(app, router.Services{
		Store:      store,
		Sessions:   session.NewManager(),
		Simulator:  sim,
		Dashboard:  dashboard,
		Assistant:  assistant,
		Deliveries: deliveries,
		PublicURL:  env.GetEnv("PUBLIC_WEBHOOK_URL", ""),
		RateLimit:  rateLimit,
	})

	return app, nil
}

func newAssistant(ctx context.Context) (*troubleshoot.Assistant, error) {
	timeout := env.GetDuration("TROUBLESHOOT_TIMEOUT", troubleshoot.DefaultTimeout)
	gen, err := troubleshoot.NewGeminiGenerator(ctx, env.GetEnv("GEMINI_API_KEY", ""), env.GetEnv("GEMINI_MODEL", troubleshoot.DefaultModel))
	if err != nil {
		return nil, err
	}
	if gen == nil {
		logger.Get().Warn("GEMINI_API_KEY not set, troubleshooting answers with the invalid-key message")
		return troubleshoot.NewAssistant(nil, timeout), nil
	}
	return troubleshoot.NewAssistant(gen, timeout), nil
}
