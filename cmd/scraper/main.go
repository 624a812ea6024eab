package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dajimenez/loteriasrd/internal/pkg/config"
	"github.com/dajimenez/loteriasrd/internal/pkg/logging"
	"github.com/dajimenez/loteriasrd/internal/pkg/models"
	"github.com/dajimenez/loteriasrd/internal/pkg/notify"
	"github.com/dajimenez/loteriasrd/internal/pkg/predictions"
	"github.com/dajimenez/loteriasrd/internal/pkg/scraper"
	"github.com/dajimenez/loteriasrd/internal/pkg/server"
	"github.com/dajimenez/loteriasrd/internal/pkg/server/handlers"
	"github.com/dajimenez/loteriasrd/internal/pkg/sources"
	"github.com/dajimenez/loteriasrd/internal/pkg/storage"
)

const defaultConfigPath = "configs/production.yaml"

type cliConfig struct {
	configPath string
	runFor     time.Duration
	lottery    string
	once       bool
}

func main() {
	if err := run(); err != nil {
		slog.Error("Scraper failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := parseFlags()
	slog.Info("Loading config", "path", cfg.configPath)

	appConfig, err := config.Load(cfg.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if _, err := logging.SetupLogger(&appConfig.Logging, "scraper"); err != nil {
		slog.Warn("Failed to setup logging, continuing with default logger", "error", err)
	}
	slog.Info("Config loaded successfully")

	store, err := storage.NewPostgresStorage(&appConfig.Postgres)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 10*time.Second)
	err = store.SeedLotteries(seedCtx, sources.All())
	cancelSeed()
	if err != nil {
		return fmt.Errorf("failed to seed lotteries: %w", err)
	}

	sc, err := scraper.New(appConfig.Scraper, store)
	if err != nil {
		return err
	}
	slog.Info("Scraper initialized", "sources", strings.Join(sc.Sources(), ", "))

	ctx, cancel := createContext(cfg.runFor)
	defer cancel()
	setupSignalHandler(ctx, cancel)

	if cfg.once {
		return runOnce(ctx, sc, cfg.lottery)
	}

	var notifier *notify.TelegramNotifier
	if appConfig.Telegram.Enabled && appConfig.Telegram.BotToken != "" {
		notifier = notify.NewTelegramNotifier(appConfig.Telegram.BotToken, appConfig.Telegram.ChatID)
	}

	gen := predictions.New(store, appConfig.Predictions)

	handlers.SetStorage(store)
	handlers.SetGenerateFunc(gen.Generate)
	handlers.SetScrapeFunc(func(ctx context.Context, lottery string) (*models.RunReport, error) {
		if lottery != "" {
			return sc.RunOne(ctx, lottery)
		}
		return sc.RunAll(ctx)
	}, appConfig.Server.ScrapeTimeout)

	if appConfig.Server.Port > 0 {
		server.Run(ctx, server.AddrFor(appConfig.Server.Port), appConfig.Server.ReadHeaderTimeout)
	} else {
		slog.Info("server.port not set, HTTP endpoints disabled")
	}

	sc.RunPeriodic(ctx, appConfig.Scraper.Interval, notifier.NotifyRun)

	slog.Info("Scraper stopped gracefully")
	return nil
}

// runOnce executes a single pipeline pass and prints the report.
func runOnce(ctx context.Context, sc *scraper.Scraper, lottery string) error {
	var report *models.RunReport
	var err error
	if lottery != "" {
		report, err = sc.RunOne(ctx, lottery)
	} else {
		report, err = sc.RunAll(ctx)
	}
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if !report.Success() {
		return fmt.Errorf("%d source(s) failed", report.Errored)
	}
	return nil
}

func parseFlags() cliConfig {
	var cfg cliConfig

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}

	flag.StringVar(&cfg.configPath, "config", defaultConfig, "Path to config file (can be set via CONFIG_PATH env var)")
	flag.DurationVar(&cfg.runFor, "run-for", 0, "Auto-stop after duration (e.g. 10s, 1m). 0 = run until SIGINT/SIGTERM")
	flag.StringVar(&cfg.lottery, "lottery", "", "Scrape a single lottery by name (e.g. 'Loteka'). Empty = all")
	flag.BoolVar(&cfg.once, "once", false, "Run one scraping pass, print the report and exit")
	flag.Parse()
	return cfg
}

func createContext(runFor time.Duration) (context.Context, context.CancelFunc) {
	if runFor > 0 {
		return context.WithTimeout(context.Background(), runFor)
	}
	return context.WithCancel(context.Background())
}

func setupSignalHandler(ctx context.Context, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("Received shutdown signal, stopping scraper...", "signal", sig.String())
			cancel()
		case <-ctx.Done():
			signal.Stop(sigChan)
			close(sigChan)
		}
	}()
}
