package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	financeservice "github.com/steepleworks/chorus/domains/finance/be/service"
	moduleshandler "github.com/steepleworks/chorus/domains/modules/be/handler"
	modulesservice "github.com/steepleworks/chorus/domains/modules/be/service"
	shellhandler "github.com/steepleworks/chorus/domains/shell/be/handler"
	tenantsservice "github.com/steepleworks/chorus/domains/tenants/be/service"
	platformlogging "github.com/steepleworks/chorus/platform/go/logging"
	"github.com/steepleworks/chorus/platform/go/metrics"
	platformmiddleware "github.com/steepleworks/chorus/platform/go/middleware"
	"github.com/steepleworks/chorus/platform/go/moduleconf"
	"github.com/steepleworks/chorus/platform/go/resource"
	"github.com/steepleworks/chorus/platform/go/session"
	"github.com/steepleworks/chorus/web"
)

type config struct {
	Port            string        `env:"PORT" envDefault:"3000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	StoreURL        string        `env:"RESOURCE_STORE_URL,required"`
	StoreToken      string        `env:"RESOURCE_STORE_TOKEN"`
	StoreTimeout    time.Duration `env:"RESOURCE_STORE_TIMEOUT" envDefault:"10s"`
	SessionSecret   string        `env:"SESSION_SECRET,required"`
	SessionTTL      time.Duration `env:"SESSION_TTL" envDefault:"12h"`
	ModulesDir      string        `env:"MODULES_DIR" envDefault:"configs/modules"`
}

func main() {
	// Local development reads .env; absence is not an error.
	_ = godotenv.Load()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "console",
		Level:     cfg.LogLevel,
	})
	if err != nil {
		log.Fatalf("init zap logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	store, err := resource.New(resource.Config{
		BaseURL: cfg.StoreURL,
		Token:   cfg.StoreToken,
		Timeout: cfg.StoreTimeout,
	})
	if err != nil {
		logger.Fatal("init resource store client", zap.Error(err))
	}

	loader, err := moduleconf.NewLoader(os.DirFS(cfg.ModulesDir))
	if err != nil {
		logger.Fatal("init module configuration loader", zap.String("dir", cfg.ModulesDir), zap.Error(err))
	}

	sessions, err := session.NewManager(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		logger.Fatal("init session manager", zap.Error(err))
	}

	templates, err := web.Templates()
	if err != nil {
		logger.Fatal("parse templates", zap.Error(err))
	}

	hooks := map[string]modulesservice.SaveHook{
		"finance_transactions": financeservice.NewDirectionHook(),
	}

	tenantsSvc := tenantsservice.New(store)
	shellHTTPHandler := shellhandler.New(tenantsSvc, loader, store, sessions, templates, logger)
	modulesHTTPHandler := moduleshandler.New(loader, store, templates, logger, hooks)

	httpMetrics := metrics.NewHTTPMetrics("console")

	rootRouter := chi.NewRouter()
	rootRouter.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.Timeout(cfg.RequestTimeout),
		platformmiddleware.DefaultCORS(),
	)
	rootRouter.Use(platformlogging.RequestLogger(logger))
	rootRouter.Use(httpMetrics.Middleware)

	rootRouter.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Method(http.MethodGet, "/metrics", metrics.Handler())

	rootRouter.Group(func(r chi.Router) {
		r.Use(session.Middleware(sessions))
		r.Use(session.Require)
		r.Mount("/m", modulesHTTPHandler.Routes())
		r.Mount("/", shellHTTPHandler.Routes())
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      rootRouter,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("starting console server", zap.String("port", cfg.Port))
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
