// Package main runs the local development stand-in for the inventory/sales
// REST service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tiendactl/tiendactl/internal/mockapi"
	"github.com/tiendactl/tiendactl/pkg/bootstrap"
	"github.com/tiendactl/tiendactl/pkg/configloader"
	"golang.org/x/sync/errgroup"
)

const appName = "mockapi"

func main() {
	configFile := flag.String("config", "", "path to the config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configFile); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

func run(ctx context.Context, configFile string) error {
	cfg, cfgErr := configloader.Load[*mockapi.Config](appName, configFile)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	store, err := mockapi.NewStore(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		_ = store.Close()
	}()
	if cfg.Seed {
		if err := store.Seed(ctx); err != nil {
			return fmt.Errorf("failed to seed store: %w", err)
		}
		logger.Info("Demo dataset seeded")
	}

	server := mockapi.NewServer(store, logger)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           server.Router(),
		ReadTimeout:       cfg.HTTP.Timeout.Read,
		WriteTimeout:      cfg.HTTP.Timeout.Write,
		IdleTimeout:       cfg.HTTP.Timeout.Idle,
		ReadHeaderTimeout: cfg.HTTP.Timeout.ReadHeader,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}
