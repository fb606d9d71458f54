package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/uihost/internal/boot"
	"github.com/GriffinCanCode/AgentOS/uihost/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/uihost/internal/infrastructure/httpclient"
	"github.com/GriffinCanCode/AgentOS/uihost/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/uihost/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/uihost/internal/navigation"
	"github.com/GriffinCanCode/AgentOS/uihost/internal/platform/sandbox"
	"github.com/GriffinCanCode/AgentOS/uihost/internal/routing"
)

func main() {
	os.Exit(execute())
}

// execute runs the runner and returns the process exit code, so deferred
// cleanup runs before exiting.
func execute() int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return 1
	}

	base := flag.String("base", cfg.Fetch.BaseURL, "Host base URL the application is served from")
	routes := flag.String("routes", cfg.App.RoutesFile, "Route table file (yaml or toml)")
	location := flag.String("location", "", "Location to resolve after boot (default: the base URL)")
	force := flag.Bool("force", false, "Boot even if the host page disables autostart")
	dev := flag.Bool("dev", cfg.Logging.Development, "Development logging")
	flag.Parse()

	cfg.Fetch.BaseURL = *base
	if err := cfg.Validate(); err != nil {
		log.Printf("Invalid configuration: %v", err)
		return 1
	}

	logger := logging.FromSettings(cfg.Logging.Level, *dev)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *routes, *location, *force, logger); err != nil {
		logger.Error("Local boot failed", zap.Error(err))
		return 1
	}
	return 0
}

func run(ctx context.Context, cfg *config.Config, routesFile, location string, force bool, logger *logging.Logger) error {
	metrics := monitoring.NewMetrics()

	client, err := httpclient.New(httpclient.Config{
		BaseURL:    cfg.Fetch.BaseURL,
		Timeout:    cfg.Fetch.Timeout,
		RetryCount: cfg.Fetch.RetryCount,
		RateLimit:  cfg.Fetch.RateLimit,
		UserAgent:  httpclient.DefaultConfig().UserAgent,
	}, logger.Component("fetch"))
	if err != nil {
		return err
	}

	hostPage, err := client.Fetch(ctx, cfg.Fetch.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to fetch host page: %w", err)
	}
	autostart, err := boot.ShouldAutoStart(bytes.NewReader(hostPage.Body), boot.DefaultBootScript)
	if err != nil {
		return err
	}
	if !autostart && !force {
		logger.Info("Host page disables autostart; nothing to do", zap.String("url", hostPage.URL))
		return nil
	}
	showProgress, err := boot.HasProgressElement(bytes.NewReader(hostPage.Body))
	if err != nil {
		return err
	}

	table, err := routing.LoadTable(routesFile)
	if err != nil {
		return err
	}

	runtime, err := sandbox.New(sandbox.DefaultConfig(), client, logger.Component("sandbox"))
	if err != nil {
		return err
	}
	defer runtime.Close()
	document := sandbox.NewDocument(runtime, client, logger.Component("document"))

	interceptor := navigation.NewLocal(runtime, navigation.DefaultCallback, logger.Component("navigation")).
		WithArmObserver(metrics.RecordInterceptionArm)
	coordinator := routing.NewCoordinator(interceptor,
		routing.WithLogger(logger.Component("routing")),
		routing.WithMetrics(metrics),
	)

	runtime.OnLocationChanged(func(uri string, intercepted bool) {
		if !intercepted || !coordinator.Initialized() {
			logger.Info("Navigation outside interception", zap.String("uri", uri))
			return
		}
		report(logger, uri, coordinator)
	})

	opts := []boot.Option{
		boot.WithLogger(logger.Component("boot")),
		boot.WithMetrics(metrics),
	}
	if showProgress {
		display := logger.Component("display")
		opts = append(opts, boot.WithObserver(boot.DisplayObserver(func(text string) {
			display.Info("Boot progress", zap.String("element", boot.ProgressElementID), zap.String("text", text))
		})))
	}
	seq := boot.NewSequencer(&boot.HTTPManifestFetcher{Client: client}, runtime, document, opts...)
	if err := seq.Boot(ctx); err != nil {
		return err
	}
	logger.Info("Application running", zap.String("progress", seq.Progress().String()))

	for _, entry := range runtime.Console() {
		logger.Debug("Application console", zap.String("level", entry.Level), zap.String("message", entry.Message))
	}

	// Routing takes over once the application is live
	if err := coordinator.Initialize(table, cfg.Fetch.BaseURL); err != nil {
		return err
	}

	if location == "" {
		location = cfg.Fetch.BaseURL
	}
	report(logger, location, coordinator)
	return nil
}

func report(logger *logging.Logger, uri string, coordinator *routing.Coordinator) {
	handler, err := coordinator.Route(uri)
	switch {
	case err != nil:
		logger.Warn("Location not routable", zap.String("uri", uri), zap.Error(err))
	case handler == routing.NoMatch:
		logger.Info("No route matches", zap.String("uri", uri))
	default:
		logger.Info("Route resolved", zap.String("uri", uri), zap.String("handler", string(handler)))
	}
}
