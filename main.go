package main

import (
	"context"
	"embed"
	"fmt"
	"os"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"github.com/chazu/memorial/pkg/config"
	"github.com/chazu/memorial/pkg/logging"
	"github.com/chazu/memorial/pkg/store/sqlite"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "memorial:", err)
		os.Exit(1)
	}
	logging.SetLogger(logging.NewText(os.Stderr, cfg.Level()))

	projects, err := sqlite.Open(context.Background(), cfg.DBPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "memorial:", err)
		os.Exit(1)
	}

	app := NewApp(cfg, projects)
	err = wails.Run(&options.App{
		Title:  "Memorial Designer",
		Width:  1280,
		Height: 800,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup:  app.startup,
		OnShutdown: app.shutdown,
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		logging.Logger().Error("wails run", "error", err)
		os.Exit(1)
	}
}
