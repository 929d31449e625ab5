package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	leadform "github.com/phbpx/leadform"
	"github.com/phbpx/leadform/gemini"
	"github.com/phbpx/leadform/handler"
	"github.com/phbpx/leadform/mailer"
	"github.com/phbpx/leadform/postgres"
	"github.com/phbpx/leadform/sheets"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riandyrn/otelchi"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {

	log, err := newLog("leadform-api")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run("leadform-api", log); err != nil {
		log.Errorw("startup", "err", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(serverName string, log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	// No prefix: the variable names are the ones the form deployment already
	// uses (GEMINI_API_KEY, GMAIL_EMAIL, GOOGLE_SHEETS_CREDS, SHEET_NAME...).
	cfg := struct {
		Http struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:60s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			Host            string        `conf:"default:0.0.0.0:3000"`
		}
		Gemini struct {
			APIKey string `conf:"required,mask"`
			Model  string `conf:"default:gemini-flash-latest"`
		}
		Gmail struct {
			Email       string
			AppPassword string        `conf:"mask"`
			Host        string        `conf:"default:smtp.gmail.com"`
			Port        int           `conf:"default:587"`
			Timeout     time.Duration `conf:"default:0s"`
		}
		GoogleSheets struct {
			Creds string `conf:"mask"`
			Name  string `conf:"default:Lead Tracker,env:SHEET_NAME"`
		}
		Ledger struct {
			Backend string `conf:"default:sheets,help:sheets or postgres"`
		}
		DB struct {
			User         string `conf:"default:leadsvc"`
			Password     string `conf:"default:leadsvc,mask"`
			Host         string `conf:"default:localhost"`
			Name         string `conf:"default:leads"`
			MaxIdleConns int    `conf:"default:2"`
			MaxOpenConns int    `conf:"default:0"`
			DisableTLS   bool   `conf:"default:true"`
		}
		Jaeger struct {
			ReporterURI string  `conf:"default:http://localhost:14268/api/traces"`
			ServiceName string  `conf:"default:leadform-api"`
			Probability float64 `conf:"default:0.5"`
		}
	}{}

	help, err := conf.Parse("", &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Start Tracing Support

	log.Infow("startup", "status", "initializing OT/Jaeger tracing support")

	traceProvider, err := startTracing(
		cfg.Jaeger.ServiceName,
		cfg.Jaeger.ReporterURI,
		cfg.Jaeger.Probability,
	)
	if err != nil {
		return fmt.Errorf("starting tracing: %w", err)
	}
	defer traceProvider.Shutdown(context.Background())

	// =========================================================================
	// Collaborators

	log.Infow("startup", "status", "initializing gemini support", "model", cfg.Gemini.Model)

	generator, err := gemini.New(context.Background(), gemini.Config{
		APIKey: cfg.Gemini.APIKey,
		Model:  cfg.Gemini.Model,
	})
	if err != nil {
		return fmt.Errorf("creating generator: %w", err)
	}

	if cfg.Gmail.Email == "" || cfg.Gmail.AppPassword == "" {
		log.Warnw("startup", "status", "gmail credentials missing, every submission will fail at the mail step")
	}

	smtp := mailer.New(mailer.Config{
		Host:     cfg.Gmail.Host,
		Port:     cfg.Gmail.Port,
		Username: cfg.Gmail.Email,
		Password: cfg.Gmail.AppPassword,
		Timeout:  cfg.Gmail.Timeout,
	})

	var ledger leadform.Ledger
	switch cfg.Ledger.Backend {
	case "sheets":
		log.Infow("startup", "status", "initializing sheets ledger", "sheet", cfg.GoogleSheets.Name)
		ledger = sheets.New(sheets.Config{
			Credentials: []byte(cfg.GoogleSheets.Creds),
			Name:        cfg.GoogleSheets.Name,
		})

	case "postgres":
		db, err := openDB(log, postgres.Config{
			User:         cfg.DB.User,
			Password:     cfg.DB.Password,
			Host:         cfg.DB.Host,
			Name:         cfg.DB.Name,
			MaxIdleConns: cfg.DB.MaxIdleConns,
			MaxOpenConns: cfg.DB.MaxOpenConns,
			DisableTLS:   cfg.DB.DisableTLS,
		})
		if err != nil {
			return err
		}
		defer func() {
			log.Infow("shutdown", "status", "stopping database support", "host", cfg.DB.Host)
			db.Close()
		}()
		ledger = postgres.NewLedger(db)

	default:
		return fmt.Errorf("unknown ledger backend %q", cfg.Ledger.Backend)
	}

	// =========================================================================
	// Create router

	log.Infow("startup", "status", "initializing router")

	otelLog := otelzap.New(log.Desugar(), otelzap.WithStackTrace(true)).Sugar()
	submitHandler := handler.NewSubmitHandler(generator, smtp, ledger, otelLog)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(otelchi.Middleware(serverName, otelchi.WithChiRoutes(r)))

	r.Get("/", handler.Form)
	r.Get("/healthz", handler.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/api/submit", submitHandler.Submit)

	// =========================================================================
	// Start API Server

	log.Infow("startup", "status", "initializing http server", "host", cfg.Http.Host)

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{
		Addr:         cfg.Http.Host,
		Handler:      r,
		ReadTimeout:  cfg.Http.ReadTimeout,
		WriteTimeout: cfg.Http.WriteTimeout,
		IdleTimeout:  cfg.Http.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	serverErrors := make(chan error, 1)

	go func() {
		serverErrors <- server.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Http.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			server.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

func openDB(log *zap.SugaredLogger, cfg postgres.Config) (*sql.DB, error) {
	log.Infow("startup", "status", "initializing database support", "host", cfg.Host)

	db, err := postgres.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to db: %w", err)
	}

	log.Infow("startup", "status", "updating database schema", "database", cfg.Name, "host", cfg.Host)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := postgres.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("updating database schema: %w", err)
	}

	return db, nil
}

func newLog(serviceName string) (*zap.SugaredLogger, error) {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stdout"}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.DisableStacktrace = true
	config.InitialFields = map[string]interface{}{
		"service": serviceName,
	}

	log, err := config.Build()
	if err != nil {
		return nil, err
	}

	return log.Sugar(), nil
}

func startTracing(serviceName, reporterURL string, probability float64) (*tracesdk.TracerProvider, error) {
	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(reporterURL)))
	if err != nil {
		return nil, fmt.Errorf("creating new exporter: %w", err)
	}

	tp := tracesdk.NewTracerProvider(
		tracesdk.WithSampler(tracesdk.ParentBased(tracesdk.TraceIDRatioBased(probability))),
		tracesdk.WithBatcher(exp,
			tracesdk.WithMaxExportBatchSize(tracesdk.DefaultMaxExportBatchSize),
			tracesdk.WithBatchTimeout(tracesdk.DefaultScheduleDelay*time.Millisecond),
		),
		tracesdk.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			attribute.String("exporter", "jaeger"),
		)),
	)

	otel.SetTracerProvider(tp)
	return tp, nil
}
