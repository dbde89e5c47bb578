package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"

	_ "github.com/jhoicas/NFe-api/docs"
	"github.com/jhoicas/NFe-api/internal/application/emission"
	domainnfe "github.com/jhoicas/NFe-api/internal/domain/nfe"
	"github.com/jhoicas/NFe-api/internal/infrastructure/metrics"
	infranfe "github.com/jhoicas/NFe-api/internal/infrastructure/nfe"
	"github.com/jhoicas/NFe-api/internal/infrastructure/nfe/signer"
	"github.com/jhoicas/NFe-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/NFe-api/internal/interfaces/http"
	"github.com/jhoicas/NFe-api/pkg/config"
	"github.com/jhoicas/NFe-api/pkg/logger"
	pkgnfe "github.com/jhoicas/NFe-api/pkg/nfe"
)

// @title                       NF-e API
// @version                     1.0
// @description                 Emisión de NF-e modelo 55 (layout 4.00) ante la SEFAZ.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
// @description                 Token JWT con el prefijo Bearer
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.Log.Level,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Bool("production", cfg.NFe.Production).
		Bool("simulation", cfg.NFe.Simulation()).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	issuerRepo := postgres.NewIssuerRepository(pool)
	clientRepo := postgres.NewClientRepository(pool)
	documentRepo := postgres.NewDocumentRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Credenciales: solo fuera de simulación. Un certificado inválido aborta el arranque.
	var (
		creds      *pkgnfe.Credentials
		httpClient *http.Client
	)
	if !cfg.NFe.Simulation() {
		var loader signer.CredentialLoader = signer.P12Loader{}
		creds, err = loader.Load(cfg.NFe.CertPath, cfg.NFe.CertPassword)
		if err != nil {
			log.Fatal().Err(err).Str("cert_path", cfg.NFe.CertPath).Msg("cargar certificado A1")
		}
		log.Info().
			Str("cn", creds.CommonName).
			Time("not_after", creds.Certificate.NotAfter).
			Msg("certificado A1 cargado")

		httpClient, err = infranfe.NewMTLSHTTPClient(creds, cfg.NFe.Timeout())
		if err != nil {
			log.Fatal().Err(err).Msg("cliente TLS mutuo")
		}
	} else {
		log.Warn().Msg("NFE_CERT_PASSWORD vacío: modo simulación, los documentos no se firman ni se transmiten")
	}

	if issuer, err := issuerRepo.GetActive(ctx); err != nil {
		log.Fatal().Err(err).Msg("leer perfil del emisor")
	} else if issuer == nil {
		log.Warn().Msg("sin perfil de emisor activo: las emisiones fallarán hasta configurarlo")
	} else if err := domainnfe.ValidateIssuer(issuer); err != nil {
		log.Warn().Err(err).Str("cnpj", issuer.CNPJ).Msg("perfil del emisor incompleto")
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	orchestrator, err := emission.NewNFeOrchestrator(emission.Deps{
		TxRunner:    txRunner,
		Issuers:     issuerRepo,
		Clients:     clientRepo,
		Documents:   documentRepo,
		Builder:     infranfe.NewXMLBuilderService(),
		Signer:      signer.NewDigitalSignatureService(),
		Authorizer:  infranfe.NewSOAPAuthorizationClient(httpClient),
		Credentials: creds,
		Metrics:     m,
		Logger:      log.Zerolog(),
	}, emission.Config{
		Production:       cfg.NFe.Production,
		Simulation:       cfg.NFe.Simulation(),
		Timeout:          cfg.NFe.Timeout(),
		BatchConcurrency: cfg.NFe.BatchConcurrency,
		AppVersion:       cfg.NFe.AppVersion,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("orquestador de emisión")
	}

	app := fiber.New(fiber.Config{
		AppName: cfg.App.Name,
		// La transmisión puede tardar hasta NFE_TIMEOUT_SECONDS.
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.NFe.Timeout() + 10*time.Second,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "NF-e API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		NFe:        orchestrator,
		Gatherer:   prometheus.DefaultGatherer,
		Logger:     log.Zerolog(),
		JWTSecret:  cfg.JWT.Secret,
		Simulation: cfg.NFe.Simulation(),
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.NFe.Timeout()+5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
