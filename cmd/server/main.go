package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectoinject/ectocontainer"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"

	"github.com/Ramsey-B/aga/config"
	campaignrepo "github.com/Ramsey-B/aga/internal/repositories/campaign"
	campaignleadrepo "github.com/Ramsey-B/aga/internal/repositories/campaignlead"
	clientmetricsrepo "github.com/Ramsey-B/aga/internal/repositories/clientmetrics"
	profilerepo "github.com/Ramsey-B/aga/internal/repositories/profile"
	runrepo "github.com/Ramsey-B/aga/internal/repositories/run"
	"github.com/Ramsey-B/aga/pkg/dashboard"
	"github.com/Ramsey-B/aga/pkg/database"
	"github.com/Ramsey-B/aga/pkg/deletion"
	"github.com/Ramsey-B/aga/pkg/middleware"
	"github.com/Ramsey-B/aga/pkg/realtime"
	campaignroutes "github.com/Ramsey-B/aga/pkg/routes/campaign"
	dashboardroutes "github.com/Ramsey-B/aga/pkg/routes/dashboard"
	"github.com/Ramsey-B/aga/pkg/routes/health"
	profileroutes "github.com/Ramsey-B/aga/pkg/routes/profile"
	"github.com/Ramsey-B/aga/pkg/startup"
	"github.com/Ramsey-B/aga/pkg/submission"
	"github.com/Ramsey-B/aga/pkg/tracing"
	"github.com/Ramsey-B/aga/pkg/tracing/exporters"
	"github.com/Ramsey-B/aga/pkg/webhook"
)

var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg)
	ctx := context.Background()

	shutdownTracing, err := initTracing(ctx, cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
		os.Exit(1)
	}
	defer shutdownTracing()

	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		logger.WithError(err).Error("Failed to create DI container")
		os.Exit(1)
	}

	app := &application{
		cfg:       cfg,
		logger:    logger,
		container: container,
	}

	boot := startup.NewStartup(logger, cfg.StartupMaxAttempts)
	boot.AddDependency(&databaseDependency{app})
	if cfg.KafkaConsumerEnabled {
		boot.AddDependency(&consumerDependency{app})
	}
	boot.AddDependency(&serverDependency{app})

	if err := boot.Start(ctx); err != nil {
		logger.WithError(err).Error("Startup failed")
		os.Exit(1)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := boot.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("Shutdown did not complete cleanly")
	}
}

func newLogger(cfg config.Config) ectologger.Logger {
	var zapLogger *zap.Logger
	var err error
	if cfg.PrettyLogs {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func initTracing(ctx context.Context, cfg config.Config) (func(), error) {
	if !cfg.TracingEnabled {
		return func() {}, nil
	}

	exporter, err := exporters.NewOTLPExporter(ctx, exporters.OTLPConfig{
		Endpoint: cfg.TracingEndpoint,
		Protocol: cfg.TracingProtocol,
		Insecure: cfg.TracingInsecure,
		Timeout:  10 * time.Second,
	})
	if err != nil {
		return nil, err
	}

	res, err := sdkresource.Merge(sdkresource.Default(), sdkresource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.AppName),
		semconv.ServiceVersion(version),
	))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	tracing.SetTracer(tp.Tracer(cfg.AppName))

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	}, nil
}

// application holds the pieces the startup dependencies build and share
type application struct {
	cfg       config.Config
	logger    ectologger.Logger
	container ectocontainer.DIContainer

	db       *sqlx.DB
	consumer *realtime.Consumer
	server   *echo.Echo
	checker  *health.Checker
}

type databaseDependency struct {
	app *application
}

func (d *databaseDependency) GetName() string { return "database" }
func (d *databaseDependency) DependsOn() []string { return nil }

func (d *databaseDependency) Start(ctx context.Context) error {
	cfg := d.app.cfg

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName, cfg.DatabasePassword, cfg.DatabaseName, cfg.DatabaseSSLMode)

	db, err := sqlx.ConnectContext(ctx, cfg.DatabaseDriver, dsn)
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	db.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)
	d.app.db = db

	driver, err := migratepg.WithInstance(db.DB, &migratepg.Config{})
	if err != nil {
		return err
	}
	migrations := database.NewMigrationService(d.app.logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	})
	if err := migrations.Migrate(cfg.DatabaseName, driver); err != nil {
		return err
	}

	return d.app.registerDependencies()
}

func (d *databaseDependency) Stop(ctx context.Context) error {
	if d.app.db == nil {
		return nil
	}
	return d.app.db.Close()
}

// registerDependencies wires the repositories and services into the DI
// container the route handlers resolve from.
func (a *application) registerDependencies() error {
	dbInstance := database.NewDatabaseInstance(a.db, a.logger)

	campaigns := campaignrepo.NewRepository(dbInstance, a.logger)
	leads := campaignleadrepo.NewRepository(dbInstance, a.logger)
	runs := runrepo.NewRepository(dbInstance, a.logger)
	metrics := clientmetricsrepo.NewRepository(dbInstance, a.logger)
	profiles := profilerepo.NewRepository(dbInstance, a.logger)

	trigger := webhook.NewClient(webhook.Config{
		URL:     a.cfg.WebhookURL,
		Timeout: a.cfg.WebhookTimeout,
	}, a.logger)

	submissions := submission.NewService(campaigns, leads, runs, profiles, trigger, submission.Config{
		LeadCountMin: a.cfg.LeadCountMin,
		LeadCountMax: a.cfg.LeadCountMax,
		DemoMode:     a.cfg.WebhookDemoMode,
	}, a.logger)

	registry := dashboard.NewRegistry()
	aggregator := dashboard.NewAggregator(runs, metrics, a.cfg.RunHistoryLimit, a.logger)
	deletions := deletion.NewService(campaigns, leads, runs, aggregator, a.logger)

	a.consumer = realtime.NewConsumer(realtime.ConsumerConfig{
		Brokers:       a.cfg.KafkaBrokers,
		Topic:         a.cfg.KafkaRunsTopic,
		ConsumerGroup: a.cfg.KafkaConsumerGroup,
	}, registry, aggregator, a.logger)

	if err := ectoinject.RegisterInstance[ectologger.Logger](a.container, a.logger); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[database.DB](a.container, dbInstance); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*campaignrepo.Repository](a.container, campaigns); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*campaignleadrepo.Repository](a.container, leads); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*runrepo.Repository](a.container, runs); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*clientmetricsrepo.Repository](a.container, metrics); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*profilerepo.Repository](a.container, profiles); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*submission.Service](a.container, submissions); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*deletion.Service](a.container, deletions); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*dashboard.Registry](a.container, registry); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*dashboard.Aggregator](a.container, aggregator); err != nil {
		return err
	}

	return nil
}

type consumerDependency struct {
	app *application
}

func (d *consumerDependency) GetName() string { return "kafka-consumer" }
func (d *consumerDependency) DependsOn() []string { return []string{"database"} }

func (d *consumerDependency) Start(ctx context.Context) error {
	return d.app.consumer.Start(ctx)
}

func (d *consumerDependency) Stop(ctx context.Context) error {
	return d.app.consumer.Stop()
}

type serverDependency struct {
	app *application
}

func (d *serverDependency) GetName() string { return "http-server" }
func (d *serverDependency) DependsOn() []string { return []string{"database"} }

func (d *serverDependency) Start(ctx context.Context) error {
	cfg := d.app.cfg

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(d.app.logger)

	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(d.app.logger))

	api := e.Group("/api/v1")
	campaignroutes.Register(api.Group("/campaigns"))
	dashboardroutes.Register(api.Group("/dashboard"))
	profileroutes.Register(api.Group("/profile"))

	checker := health.NewChecker(d.app.db, version)
	checker.RegisterRoutes(e)
	d.app.checker = checker

	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = cfg.MaxHeaderBytes

	d.app.server = e

	go func() {
		if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && err != http.ErrServerClosed {
			d.app.logger.WithError(err).Error("HTTP server stopped unexpectedly")
		}
	}()

	checker.SetReady(true)
	d.app.logger.WithField("port", cfg.Port).Infof("Listening on :%d", cfg.Port)
	return nil
}

func (d *serverDependency) Stop(ctx context.Context) error {
	if d.app.checker != nil {
		d.app.checker.SetReady(false)
	}
	if d.app.server == nil {
		return nil
	}
	return d.app.server.Shutdown(ctx)
}
