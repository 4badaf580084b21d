package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/config"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/triage"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	admins triage.AdminDirectory,
	healthHandler *handlers.HealthHandler,
	reportHandler *handlers.ReportHandler,
	analysisHandler *handlers.AnalysisHandler,
) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Submission is stricter: 10 reports/min per IP
	submitLimit := limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})

	authed := middleware.Authenticated(cfg)

	reports := api.Group("/reports")
	reports.Post("/", middleware.JWTProtected(cfg), submitLimit, reportHandler.CreateReport)
	reports.Get("/", authed, reportHandler.ListReports)
	reports.Get("/:id", authed, reportHandler.GetReport)
	reports.Get("/:id/analysis", authed, analysisHandler.GetAnalysis)
	// Admin capability for re-analysis is checked by triage.Service.
	reports.Post("/:id/analysis/reanalyze", authed, analysisHandler.Reanalyze)

	admin := api.Group("/admin", authed, middleware.AdminRequired(admins))
	admin.Put("/reports/:id/status", reportHandler.UpdateStatus)
	admin.Get("/dashboard/stats", reportHandler.DashboardStats)
}
