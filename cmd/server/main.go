package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/uihost/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/uihost/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/uihost/internal/infrastructure/server"
	"github.com/GriffinCanCode/AgentOS/uihost/internal/routing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	port := flag.String("port", cfg.Server.Port, "Server port")
	routes := flag.String("routes", cfg.App.RoutesFile, "Route table file (yaml or toml)")
	webRoot := flag.String("webroot", cfg.App.WebRoot, "Directory with the host page and framework files")
	dev := flag.Bool("dev", cfg.Logging.Development, "Development logging")
	flag.Parse()

	cfg.Server.Port = *port
	cfg.App.RoutesFile = *routes
	cfg.App.WebRoot = *webRoot
	cfg.Logging.Development = *dev

	logger := logging.FromSettings(cfg.Logging.Level, cfg.Logging.Development)

	table, err := routing.LoadTable(cfg.App.RoutesFile)
	if err != nil {
		logger.Fatal("Failed to load route table", zap.String("file", cfg.App.RoutesFile), zap.Error(err))
	}

	srv, err := server.NewServer(cfg, table, logger)
	if err != nil {
		logger.Fatal("Failed to create server", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		logger.Info("Shutting down gracefully")
		if err := srv.Close(); err != nil {
			logger.Error("Error during shutdown", zap.Error(err))
		}
	case err := <-errChan:
		logger.Fatal("Server error", zap.Error(err))
	}
}
