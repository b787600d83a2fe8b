// PageTracker - Consent-Gated Page Event Tracking Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagetracker

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/tomtom215/pagetracker/internal/config"
	"github.com/tomtom215/pagetracker/internal/diagnostics"
	"github.com/tomtom215/pagetracker/internal/identity"
	"github.com/tomtom215/pagetracker/internal/intake"
	"github.com/tomtom215/pagetracker/internal/logging"
	"github.com/tomtom215/pagetracker/internal/pageload"
	"github.com/tomtom215/pagetracker/internal/supervisor"
	"github.com/tomtom215/pagetracker/internal/supervisor/services"
	"github.com/tomtom215/pagetracker/internal/tracker"
	"github.com/tomtom215/pagetracker/internal/transport"
)

// flags holds command-line overrides. Empty values leave the config alone.
type flags struct {
	configPath string
	pageURL    string
	pageTitle  string
	pageFile   string
	listen     string
	logLevel   string
}

func parseFlags(args []string) (flags, error) {
	var f flags
	fs := pflag.NewFlagSet("pagetracker", pflag.ContinueOnError)
	fs.StringVar(&f.configPath, "config", "", "path to YAML config file")
	fs.StringVar(&f.pageURL, "page-url", "", "URL reported with every event")
	fs.StringVar(&f.pageTitle, "page-title", "", "page view label")
	fs.StringVar(&f.pageFile, "page-file", "", "HTML page to read title and product data from")
	fs.StringVar(&f.listen, "listen", "", "intake listen address")
	fs.StringVar(&f.logLevel, "log-level", "", "log level")
	if err := fs.Parse(args); err != nil {
		return flags{}, err
	}
	return f, nil
}

// apply overlays non-empty flags on cfg and revalidates.
func (f flags) apply(cfg *config.Config) error {
	if f.pageURL != "" {
		cfg.Tracking.PageURL = f.pageURL
	}
	if f.pageTitle != "" {
		cfg.Tracking.PageTitle = f.pageTitle
	}
	if f.pageFile != "" {
		cfg.Tracking.PageFile = f.pageFile
	}
	if f.listen != "" {
		cfg.Intake.Listen = f.listen
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
	return cfg.Validate()
}

// pageInfo is what the agent reads from the page once at startup.
type pageInfo struct {
	name    string
	product *tracker.ProductData
}

func loadPage(cfg config.TrackingConfig) (pageInfo, error) {
	title := cfg.PageTitle
	var product *tracker.ProductData

	if cfg.PageFile != "" {
		doc, err := pageload.ParseFile(cfg.PageFile)
		if err != nil {
			return pageInfo{}, err
		}
		if title == "" {
			title = pageload.Title(doc)
		}
		if p, ok := pageload.Product(doc, cfg.ProductElementID); ok && p.ID != "" {
			product = &p
		}
	}

	return pageInfo{name: pageload.PageName(title, cfg.PageURL), product: product}, nil
}

// newDispatcher wires the dispatcher and its diagnostics logger. Events and
// diagnostic forwards go through separate transport clients, each with its
// own circuit breaker.
func newDispatcher(cfg *config.Config, store identity.Store, page pageInfo) (*tracker.Dispatcher, *diagnostics.Logger) {
	diag := diagnostics.New(transport.New(transport.BreakerDiagnostics, cfg.Transport), diagnostics.Options{
		Path:    cfg.Transport.LogPath,
		Forward: cfg.Tracking.ForwardLogs,
		Rate:    cfg.Tracking.LogRate,
		Burst:   cfg.Tracking.LogBurst,
	})

	dispatcher := tracker.New(tracker.Options{
		Store:        store,
		Keys:         identity.KeysFromConfig(cfg.Identity),
		TTL:          cfg.Identity.TTL,
		Sender:       transport.New(transport.BreakerCollector, cfg.Transport),
		Diagnostics:  diag,
		EventPath:    cfg.Transport.EventPath,
		ProductPath:  cfg.Transport.ProductPath,
		MaxRetries:   cfg.Tracking.MaxRetries,
		PageURL:      cfg.Tracking.PageURL,
		AutoPageView: cfg.Tracking.AutoPageView,
		PageName:     page.name,
	})
	if page.product != nil {
		dispatcher.Push(tracker.TrackProduct{Product: *page.product})
	}
	return dispatcher, diag
}

func main() {
	f, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, f); err != nil {
		logging.Error().Err(err).Msg("PageTracker exited with error")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, f flags) error {
	cfg, err := config.LoadWithKoanf(f.configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if err := f.apply(cfg); err != nil {
		return fmt.Errorf("apply flags: %w", err)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Format = cfg.Logging.Format
	logCfg.Caller = cfg.Logging.Caller
	logging.Init(logCfg)
	logging.Info().
		Str("endpoint", cfg.Transport.Endpoint).
		Str("identity_backend", cfg.Identity.Backend).
		Bool("intake", cfg.Intake.Enabled).
		Msg("Starting PageTracker")

	store, err := identity.Open(cfg.Identity)
	if err != nil {
		return fmt.Errorf("open identity store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing identity store")
		}
	}()

	page, err := loadPage(cfg.Tracking)
	if err != nil {
		return fmt.Errorf("load page: %w", err)
	}

	dispatcher, diag := newDispatcher(cfg, store, page)
	defer diag.Close()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(cfg.Supervisor))
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}
	tree.AddTrackingService(dispatcher)

	if cfg.Intake.Enabled {
		var cookies identity.CookieRenderer
		if r, ok := store.(identity.CookieRenderer); ok {
			cookies = r
		}
		srv := intake.NewServer(intake.NewHandler(dispatcher, cookies), cfg.Intake)
		tree.AddIntakeService(services.NewHTTPServerService(srv, cfg.Supervisor.ShutdownTimeout))
		logging.Info().Str("addr", srv.Addr).Msg("Intake server added")
	}

	logging.Info().Msg("Starting supervisor tree")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("PageTracker stopped")
	return nil
}
