// Package main runs the tiendactl admin console against the configured
// inventory/sales REST service.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/tiendactl/tiendactl/internal/api"
	"github.com/tiendactl/tiendactl/internal/auth"
	"github.com/tiendactl/tiendactl/internal/config"
	"github.com/tiendactl/tiendactl/internal/console"
	"github.com/tiendactl/tiendactl/internal/export"
	"github.com/tiendactl/tiendactl/internal/store"
	"github.com/tiendactl/tiendactl/pkg/bootstrap"
	"github.com/tiendactl/tiendactl/pkg/configloader"
)

const appName = "tiendactl"

func main() {
	configFile := flag.String("config", "", "path to the config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configFile); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configFile string) error {
	cfg, cfgErr := configloader.Load[*config.Config](appName, configFile)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}

	// Logs go to stderr so they do not interleave with the rendered UI.
	logger := bootstrap.NewTextLogger(cfg.Log.Level)

	client := api.NewClient(cfg.API.URL, cfg.API.Timeout, logger)
	exporter := export.NewCSVExporter(cfg.Export.Dir)

	// The console is the navigation collaborator; the session needs it
	// before the stores exist, so wiring happens in two steps.
	var ui *console.Console
	nav := navigatorFunc(func(route string) { ui.To(route) })
	session := auth.NewSession(client, nav, cfg.Auth.CredentialsFile, cfg.Auth.LoginRoute, logger)

	products := store.NewProductStore(client, session, logger)
	users := store.NewUserStore(client, session, logger)
	sales := store.NewSaleStore(client, session, logger)

	ui = console.New(session, products, users, sales, exporter, os.Stdin, os.Stdout, logger)
	return ui.Run(ctx)
}

type navigatorFunc func(route string)

func (f navigatorFunc) To(route string) { f(route) }
