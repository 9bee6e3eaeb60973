// Command memorial-api serves catalog lookup, price quotes and saved
// projects over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chazu/memorial/pkg/api"
	"github.com/chazu/memorial/pkg/catalog"
	"github.com/chazu/memorial/pkg/config"
	"github.com/chazu/memorial/pkg/logging"
	"github.com/chazu/memorial/pkg/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "memorial-api:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.SetLogger(logging.NewText(os.Stderr, cfg.Level()))
	log := logging.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	projects, err := sqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer projects.Close()

	loader := catalog.NewLoader(catalog.FileSource{Path: cfg.CatalogPath}, cfg.FetchTimeout)
	if _, err := loader.Load(ctx); err != nil {
		// Serve anyway; /health/ready reports the catalog as missing and
		// handlers retry the load on demand.
		log.Warn("initial catalog load failed", "path", cfg.CatalogPath, "error", err)
	}

	app := api.New(api.NewHandler(loader, projects, cfg.Limits(), cfg.FetchTimeout))

	go func() {
		<-ctx.Done()
		if err := app.Shutdown(); err != nil {
			log.Error("shutdown", "error", err)
		}
	}()

	log.Info("listening", "addr", cfg.HTTPAddr, "catalog", cfg.CatalogPath, "db", cfg.DBPath)
	if err := app.Listen(cfg.HTTPAddr); err != nil {
		return fmt.Errorf("listen %s: %w", cfg.HTTPAddr, err)
	}
	return nil
}
