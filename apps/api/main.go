package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	accesshandler "github.com/vcp-platform/vcp-backend/domains/access/be/handler"
	accessservice "github.com/vcp-platform/vcp-backend/domains/access/be/service"
	billinghandler "github.com/vcp-platform/vcp-backend/domains/billing/be/handler"
	billingrepo "github.com/vcp-platform/vcp-backend/domains/billing/be/repo"
	billingservice "github.com/vcp-platform/vcp-backend/domains/billing/be/service"
	"github.com/vcp-platform/vcp-backend/domains/billing/be/sweep"
	ownershandler "github.com/vcp-platform/vcp-backend/domains/owners/be/handler"
	ownersrepo "github.com/vcp-platform/vcp-backend/domains/owners/be/repo"
	ownersservice "github.com/vcp-platform/vcp-backend/domains/owners/be/service"
	platformauth "github.com/vcp-platform/vcp-backend/platform/go/auth"
	platformlogging "github.com/vcp-platform/vcp-backend/platform/go/logging"
	platformmiddleware "github.com/vcp-platform/vcp-backend/platform/go/middleware"
	"github.com/vcp-platform/vcp-backend/platform/go/persistence"
	"github.com/vcp-platform/vcp-backend/platform/go/schedule"
)

type config struct {
	Port            string        `env:"PORT" envDefault:"3000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseURL     string        `env:"DATABASE_URL,required"`
	JWTSecret       string        `env:"JWT_SECRET,required"`
	CORSOrigins     string        `env:"CORS_ORIGINS"` // comma-separated, empty allows any

	SweepInterval      time.Duration `env:"SWEEP_INTERVAL" envDefault:"24h"`
	SweepStartRetries  int           `env:"SWEEP_STARTUP_RETRIES" envDefault:"3"`
	SweepStartDelay    time.Duration `env:"SWEEP_RETRY_DELAY" envDefault:"5s"`
	BootstrapOnStartup bool          `env:"BOOTSTRAP_ON_STARTUP" envDefault:"true"`
}

func main() {
	ctx := context.Background()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "api-server",
		Level:     cfg.LogLevel,
	})
	if err != nil {
		log.Fatalf("init zap logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: cfg.DatabaseURL})
	if err != nil {
		logger.Fatal("init postgres pool", zap.Error(err))
	}
	defer persistence.ClosePool(pool)

	if cfg.BootstrapOnStartup {
		if err := persistence.Bootstrap(ctx, pool); err != nil {
			logger.Fatal("apply schema", zap.Error(err))
		}
	}

	ownerStore, err := persistence.NewOwnerStore(pool)
	if err != nil {
		logger.Fatal("init owner store", zap.Error(err))
	}
	paymentStore, err := persistence.NewPaymentStore(pool)
	if err != nil {
		logger.Fatal("init payment store", zap.Error(err))
	}
	accessStore, err := persistence.NewAccessStore(pool)
	if err != nil {
		logger.Fatal("init access store", zap.Error(err))
	}

	ownerRepo := ownersrepo.NewPostgresRepository(ownerStore)
	ownerService := ownersservice.New(ownerRepo)
	ownerHTTPHandler := ownershandler.New(ownerService, logger)

	billingRepo := billingrepo.NewPostgresRepository(paymentStore, accessStore)
	billingService := billingservice.New(billingRepo)
	billingHTTPHandler := billinghandler.New(billingService, ownerService, logger)

	accessService := accessservice.New(billingRepo)
	accessHTTPHandler := accesshandler.New(accessService, ownerService, logger)

	sweeper := sweep.New(billingRepo, logger.Named("sweep"))

	// Reconcile expired subscriptions before serving traffic. Failures are
	// retried a few times and then logged; the API still starts because the
	// daily run will catch up.
	go func() {
		err := schedule.RunWithRetry(ctx, logger, cfg.SweepStartRetries, cfg.SweepStartDelay, sweeper.Run)
		if err != nil {
			logger.Error("startup expiry sweep failed", zap.Error(err))
		}
	}()

	recurringSweep := schedule.NewRecurring(cfg.SweepInterval, logger, sweeper.Run)
	recurringSweep.Start(ctx)
	defer recurringSweep.Stop()

	authMiddleware := platformauth.JWT(
		platformauth.HS256TokenVerifier([]byte(cfg.JWTSecret)),
		platformauth.DefaultCredentialExtractor,
	)

	rootRouter := chi.NewRouter()
	rootRouter.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.Timeout(cfg.RequestTimeout),
		platformmiddleware.CORS(splitOrigins(cfg.CORSOrigins)),
	)
	rootRouter.Use(platformlogging.RequestLogger(logger))

	rootRouter.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	apiRouter := chi.NewRouter()
	ownerHTTPHandler.PublicRoutes(apiRouter)

	apiRouter.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(platformmiddleware.RequestTrace)

		ownerHTTPHandler.Routes(r)
		billingHTTPHandler.Routes(r)
		accessHTTPHandler.Routes(r)
	})

	rootRouter.Mount("/api/v1", apiRouter)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      rootRouter,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("starting api server", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
