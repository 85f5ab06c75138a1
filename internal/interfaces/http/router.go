package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/Aduana-api/internal/application/ingest"
	"github.com/jhoicas/Aduana-api/internal/application/reconciliation"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ImportUC  *ingest.ImportUseCase
	QueryUC   *ingest.QueryUseCase
	ReconUC   *reconciliation.UseCase
	Extractor ingest.Extractor    // parsea el documento teórico de POST .../divergences
	Gatherer  prometheus.Gatherer // nil = sin /metrics
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")

	declarations := api.Group("/declarations")
	declarationHandler := NewDeclarationHandler(deps.ImportUC, deps.QueryUC)
	declarations.Post("/", declarationHandler.Import)
	declarations.Get("/:number", declarationHandler.GetByNumber)
	declarations.Get("/:number/history", declarationHandler.History)

	divergenceHandler := NewDivergenceHandler(deps.ReconUC, deps.Extractor)
	declarations.Post("/:number/divergences", divergenceHandler.CompareDocument)
	declarations.Get("/:number/divergences", divergenceHandler.CompareWithEngine)
}
