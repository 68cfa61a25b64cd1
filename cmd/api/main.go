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

	"github.com/go-chi/chi/v5"

	appanalysis "github.com/solsentry/solsentry/internal/application/analysis"
	"github.com/solsentry/solsentry/internal/config"
	"github.com/solsentry/solsentry/internal/infra/artifact"
	"github.com/solsentry/solsentry/internal/infra/engines"
	"github.com/solsentry/solsentry/internal/infra/httpserver"
	"github.com/solsentry/solsentry/internal/infra/store"
	"github.com/solsentry/solsentry/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	// init engine adapters
	runner := engines.NewExecRunner()
	registry := engines.NewRegistry(engines.Config{
		SlitherBin:    cfg.Engines.Slither,
		MythrilBin:    cfg.Engines.Mythril,
		EchidnaBin:    cfg.Engines.Echidna,
		MaianScript:   cfg.Engines.Maian,
		SmartCheckBin: cfg.Engines.SmartCheck,
		ManticoreBin:  cfg.Engines.Manticore,
		PythonBin:     cfg.Engines.Python,
	}, runner)

	// init service
	svc := &appanalysis.Service{
		Registry:       registry,
		Store:          store.New(cfg.Store.Capacity),
		Artifacts:      artifact.NewManager(),
		DefaultTimeout: time.Duration(cfg.Engines.TimeoutSeconds) * time.Second,
	}

	// health checkers per engine binary
	checkers := map[string]middleware.HealthChecker{
		"slither":    &middleware.BinaryHealthChecker{Bin: cfg.Engines.Slither},
		"mythril":    &middleware.BinaryHealthChecker{Bin: cfg.Engines.Mythril},
		"echidna":    &middleware.BinaryHealthChecker{Bin: cfg.Engines.Echidna},
		"smartcheck": &middleware.BinaryHealthChecker{Bin: cfg.Engines.SmartCheck},
		"manticore":  &middleware.BinaryHealthChecker{Bin: cfg.Engines.Manticore},
		"python":     &middleware.BinaryHealthChecker{Bin: cfg.Engines.Python},
	}

	// init router
	mux := chi.NewRouter()
	if cfg.Server.RateLimitBurst > 0 {
		mux.Use(middleware.RateLimitMiddleware(cfg.Server.RateLimitBurst, cfg.Server.RateLimitRefill))
	}
	if len(cfg.Server.APIKeys) > 0 {
		mux.Use(middleware.APIKeyAuth(cfg.Server.APIKeys))
	}
	mux.Mount("/", httpserver.NewRouter(svc, checkers))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		// no WriteTimeout: SSE streams and engine runs outlive any
		// reasonable fixed deadline
		IdleTimeout: 60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
