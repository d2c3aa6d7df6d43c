// Package main runs the Saleor app HTTP server: manifest, registration
// handshake and the installation store.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/logistiker/saleor-app/internal/app/runtime"
	"github.com/logistiker/saleor-app/internal/config"
	"github.com/logistiker/saleor-app/internal/logging"
)

func main() {
	envFile := flag.String("env-file", ".env", "Environment file loaded before reading configuration")
	appConfig := flag.String("config", "", "Path to the app description (overrides APP_CONFIG)")
	port := flag.String("port", "", "Listen port (overrides PORT)")
	flag.Parse()

	if *appConfig != "" {
		os.Setenv("APP_CONFIG", *appConfig)
	}
	if *port != "" {
		os.Setenv("PORT", *port)
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		logging.Default().WithError(err).Fatal("Failed to load configuration")
	}

	log := logging.New("saleor-app", cfg.Logging.Level, cfg.Logging.Format)
	log.WithFields(map[string]interface{}{
		"addr":       cfg.ListenAddr(),
		"apl_driver": cfg.APL.Driver,
		"app_config": cfg.AppConfigPath,
	}).Info("Starting Saleor app")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := runtime.NewApplication(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialise application")
	}

	if err := app.Run(ctx); err != nil {
		log.WithError(err).Error("Server error")
	}

	log.Info("Shutting down...")
	if err := app.Shutdown(context.Background()); err != nil {
		log.WithError(err).Error("Shutdown error")
		os.Exit(1)
	}
	log.Info("Server stopped")
}
