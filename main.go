package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/nikhilthakur8/payping/app/controllers"
	"github.com/nikhilthakur8/payping/app/repository"
	"github.com/nikhilthakur8/payping/internal/pkg/cache"
	"github.com/nikhilthakur8/payping/internal/pkg/database"
	"github.com/nikhilthakur8/payping/internal/pkg/env"
	"github.com/nikhilthakur8/payping/internal/pkg/payment"
	"github.com/nikhilthakur8/payping/internal/pkg/provider"
	"github.com/nikhilthakur8/payping/internal/pkg/router"
	"github.com/nikhilthakur8/payping/internal/pkg/scheduler"
	"github.com/nikhilthakur8/payping/internal/pkg/webhook"
)

func main() {
	app, manager := NewApplication()

	manager.Start()

	// Graceful shutdown: stop the sweeps before closing the listener so no
	// half-finished webhook attempt is cut off mid-persist.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		log.Info("[App] Shutdown signal received")
		manager.Stop()
		if err := app.Shutdown(); err != nil {
			log.Errorf("[App] Shutdown error: %v", err)
		}
	}()

	addr := fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000"))
	if err := app.Listen(addr); err != nil {
		log.Fatal(err)
	}
}

// NewApplication wires storage, services and routes into a fiber app plus
// the background scheduler.
func NewApplication() (*fiber.App, *scheduler.Manager) {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	db := database.GetDB()
	repository.InitializeFactory(db)
	repos := repository.GetGlobalRepositories()

	registry := provider.DefaultRegistry()
	dispatcher := webhook.NewDispatcher(repos.Callback)
	retrier := webhook.NewRetrier(repos.Callback, repos.User, dispatcher)
	payments := payment.NewService(repos.Order, repos.ProviderAccount, registry, dispatcher)
	manager := scheduler.NewManager(payments, retrier)

	app := fiber.New(fiber.Config{
		AppName: "payping",
	})
	app.Use(recover.New(), logger.New())
	app.Get("/metrics", monitor.New())

	router.InstallRouter(app, router.NewApiRouter(
		controllers.NewOrderController(payments, repos.Order),
		controllers.NewPaymentPageController(repos.Order),
		controllers.NewDashboardController(repos.Order),
		controllers.NewWebhookController(repos.Callback, retrier),
	))

	return app, manager
}
