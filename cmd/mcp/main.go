package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	appanalysis "github.com/solsentry/solsentry/internal/application/analysis"
	"github.com/solsentry/solsentry/internal/config"
	"github.com/solsentry/solsentry/internal/infra/artifact"
	"github.com/solsentry/solsentry/internal/infra/engines"
	"github.com/solsentry/solsentry/internal/infra/mcpserver"
	"github.com/solsentry/solsentry/internal/infra/store"
)

func main() {
	// stdout belongs to the protocol, diagnostics go to stderr
	logger := log.New(os.Stderr, "mcp: ", log.LstdFlags)

	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}
	cfg, err := config.Load(path)
	if err != nil {
		logger.Fatalf("config load error: %v", err)
	}

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

	svc := &appanalysis.Service{
		Registry:       registry,
		Store:          store.New(cfg.Store.Capacity),
		Artifacts:      artifact.NewManager(),
		DefaultTimeout: time.Duration(cfg.Engines.TimeoutSeconds) * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := mcpserver.New(svc, os.Stdin, os.Stdout, logger)
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("server error: %v", err)
	}
}
