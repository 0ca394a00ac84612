package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/sync/errgroup"

	"github.com/subham/airportboard/internal/api"
	"github.com/subham/airportboard/internal/assistant"
	"github.com/subham/airportboard/internal/chat"
	"github.com/subham/airportboard/internal/config"
	"github.com/subham/airportboard/internal/flights"
	"github.com/subham/airportboard/internal/mapview"
	"github.com/subham/airportboard/internal/tracker"
	"github.com/subham/airportboard/internal/ui"
)

func main() {
	if err := run(context.Background(), os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "airportboard: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer, args []string) error {
	fs := flag.NewFlagSet("airportboard", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to board.yaml")
	headless := fs.Bool("headless", false, "run the poller and API without a window")
	logFormat := fs.String("log-format", "text", "log format: text or json")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, source, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *headless {
		cfg.Headless = true
	}

	level, _ := config.ParseLogLevel(cfg.LogLevel)
	logger := newLogger(stdout, level, *logFormat)
	slog.SetDefault(logger)

	loc, _ := cfg.Location()

	logger.Info("airport board starting",
		"airport", cfg.Airport,
		"backend", cfg.BackendURL,
		"config", source,
		"poll_interval", cfg.PollInterval,
		"basemap", mapview.Basemap(cfg.MapAPIKey),
		"headless", cfg.Headless)

	hc := &http.Client{}
	flightsClient := flights.NewClient(cfg.BackendURL, flights.WithHTTPClient(hc), flights.WithLogger(logger))
	assistantClient := assistant.NewClient(cfg.BackendURL, assistant.WithHTTPClient(hc), assistant.WithLogger(logger))

	tr := tracker.New(flightsClient, tracker.Options{
		Airport:      cfg.Airport,
		Limit:        cfg.DefaultLimit,
		PollInterval: cfg.PollInterval,
		Logger:       logger,
	})
	chatCtl := chat.New(assistantClient, cfg.Airport, logger)

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := tr.Start(egctx); err != nil {
			return err
		}
		<-egctx.Done()
		tr.Stop()
		return nil
	})

	if cfg.Listen != "" {
		srv := &http.Server{
			Addr:              cfg.Listen,
			Handler:           api.NewServer(tr, assistantClient, api.NewRateLimit(cfg.RefreshBurst, cfg.RefreshWindow), logger, api.WithLocation(loc)).Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		eg.Go(func() error {
			logger.Info("api listening", "addr", cfg.Listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("api server: %w", err)
			}
			return nil
		})
		eg.Go(func() error {
			<-egctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if cfg.Headless {
		err := eg.Wait()
		logger.Info("airport board stopped")
		return err
	}

	game := ui.NewGame(egctx, tr, chatCtl, ui.Options{
		Airport:     cfg.Airport,
		AirportName: cfg.AirportName,
		Center:      mapview.Point{Latitude: cfg.Latitude, Longitude: cfg.Longitude},
		Zoom:        mapview.DefaultZoom,
		MapAPIKey:   cfg.MapAPIKey,
		Location:    loc,
		HTTPClient:  hc,
		Logger:      logger,
	})

	ebiten.SetWindowTitle(fmt.Sprintf("%s Airport Board", cfg.Airport))
	ebiten.SetWindowSize(ui.ScreenWidth, ui.ScreenHeight)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(30)
	ebiten.SetVsyncEnabled(true)

	runErr := ebiten.RunGame(game)
	cancel()
	game.Close()
	waitErr := eg.Wait()
	logger.Info("airport board stopped")
	return errors.Join(runErr, waitErr)
}

// loadConfig applies defaults, the YAML file when one is found, .env and
// then the environment.
func loadConfig(explicit string) (*config.Config, string, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, "", err
	}

	cfg := config.Default()
	source := "defaults"
	path, err := config.FindConfig(explicit)
	switch {
	case err == nil:
		if cfg, err = config.Load(path); err != nil {
			return nil, "", err
		}
		source = path
	case explicit != "":
		return nil, "", err
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid config: %w", err)
	}
	return cfg, source, nil
}

func newLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
