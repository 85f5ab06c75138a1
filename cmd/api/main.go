package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Aduana-api/internal/application/ingest"
	"github.com/jhoicas/Aduana-api/internal/application/reconciliation"
	domainrecon "github.com/jhoicas/Aduana-api/internal/domain/reconciliation"
	"github.com/jhoicas/Aduana-api/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/Aduana-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Aduana-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Aduana-api/internal/infrastructure/siscomex"
	"github.com/jhoicas/Aduana-api/internal/infrastructure/taxengine"
	httpRouter "github.com/jhoicas/Aduana-api/internal/interfaces/http"
	"github.com/jhoicas/Aduana-api/pkg/config"
	"github.com/jhoicas/Aduana-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if cfg.DB.AutoMigrate {
		if err := postgres.MigrateUp(pool); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
		version, _, _ := postgres.MigrationVersion(pool)
		log.Info().Uint("version", version).Msg("esquema actualizado")
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	declarationRepo := postgres.NewDeclarationRepository(pool)
	processedRepo := postgres.NewProcessedDocumentRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	extractor := siscomex.NewExtractor(siscomex.Options{
		ConditionOfSaleFallback: cfg.Ingest.ConditionOfSaleFallback,
	})
	importUC := ingest.NewImportUseCase(
		extractor,
		ingest.NewUpserter(txRunner),
		ingest.NewRegistrar(processedRepo),
		m, log,
		ingest.ImportOptions{MaxDocumentBytes: cfg.Ingest.MaxDocumentBytes},
	)
	queryUC := ingest.NewQueryUseCase(declarationRepo)

	// Motor de tributos teóricos: solo si TAX_ENGINE_URL está definido.
	var engine reconciliation.TaxEngine
	if cfg.TaxEngine.Enabled() {
		engine = taxengine.NewClient(cfg.TaxEngine.URL, time.Duration(cfg.TaxEngine.TimeoutSeconds)*time.Second)
		log.Info().Str("url", cfg.TaxEngine.URL).Msg("motor de cálculo configurado")
	}
	reconUC := reconciliation.NewUseCase(
		domainrecon.NewAnalyzer(decimal.NewFromFloat(cfg.Divergence.ThresholdPct)),
		declarationRepo,
		engine,
		infrapdf.NewMarotoReportGenerator(),
		m,
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    httpRouter.BodyLimit(cfg.Ingest.MaxDocumentBytes),
		ReadTimeout:  time.Second * 30,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Aduana API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		ImportUC:  importUC,
		QueryUC:   queryUC,
		ReconUC:   reconUC,
		Extractor: extractor,
		Gatherer:  prometheus.DefaultGatherer,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
