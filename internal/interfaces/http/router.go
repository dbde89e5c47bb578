package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/jhoicas/NFe-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	NFe        nfeService
	Gatherer   prometheus.Gatherer // nil → prometheus.DefaultGatherer
	Logger     zerolog.Logger
	JWTSecret  string
	Simulation bool
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Use(RequestLogger(deps.Logger))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "simulation": deps.Simulation})
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// Rutas protegidas (requieren Bearer Token)
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	nfeHandler := NewNFeHandler(deps.NFe)
	nfe := api.Group("/nfe")
	nfe.Post("/", RequireRole(jwt.RoleIssuer), nfeHandler.Issue)
	nfe.Post("/batch", RequireRole(jwt.RoleIssuer), nfeHandler.IssueBatch)
	nfe.Get("/", RequireRole(jwt.RoleIssuer, jwt.RoleReader), nfeHandler.ListBySaleRef)
	nfe.Get("/:accessKey", RequireRole(jwt.RoleIssuer, jwt.RoleReader), nfeHandler.GetByAccessKey)
}
