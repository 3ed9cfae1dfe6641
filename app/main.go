package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/weweops/wewe-refresh/app/api"
	"github.com/weweops/wewe-refresh/app/browser"
	"github.com/weweops/wewe-refresh/app/cfg"
	"github.com/weweops/wewe-refresh/app/config"
	"github.com/weweops/wewe-refresh/app/cookies"
	"github.com/weweops/wewe-refresh/app/dash"
	"github.com/weweops/wewe-refresh/app/database"
	"github.com/weweops/wewe-refresh/app/feed"
	"github.com/weweops/wewe-refresh/app/runner"
	"github.com/weweops/wewe-refresh/app/trpc"
)

func main() {
	// Optional .env next to the binary; real env always wins.
	_ = godotenv.Load()

	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogging(appCfg.Debug)
	slog.Info("wewe-refresh starting", "version", appCfg.Version, "mode", appCfg.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, appCfg); err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Info("Interrupted by operator")
			return
		}
		slog.Error("Run failed", "error", err)
		os.Exit(1)
	}
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func run(ctx context.Context, appCfg *cfg.Cfg) error {
	switch appCfg.Mode {
	case "refresh":
		return runRefresh(ctx, appCfg)
	case "batch":
		return runBatch(ctx, appCfg)
	case "verify":
		return runVerify(ctx, appCfg)
	case "history":
		return runHistory(appCfg)
	case "serve":
		return runServe(ctx, appCfg)
	default:
		return fmt.Errorf("unknown mode %q", appCfg.Mode)
	}
}

// resolveTargets returns the dashboards to refresh: either the YAML targets
// file or a single target synthesized from flags.
func resolveTargets(appCfg *cfg.Cfg) ([]config.Target, error) {
	if appCfg.TargetsFile != "" {
		return config.NewLoader(appCfg.TargetsFile).Load()
	}

	if appCfg.AuthCode == "" {
		return nil, errors.New("no authorization code configured (--auth-code or --targets)")
	}

	return []config.Target{{
		Name:       "default",
		URL:        appCfg.URL,
		AuthCode:   appCfg.AuthCode,
		CookieFile: appCfg.CookieFile,
	}}, nil
}

// loadTargetCookies reads a target's cookie file before any session work so
// "not configured" and "misconfigured" surface early and distinguishably.
func loadTargetCookies(target config.Target) ([]cookies.Cookie, error) {
	if target.CookieFile == "" {
		return nil, nil
	}

	cs, err := cookies.Load(target.CookieFile)
	if err != nil {
		if errors.Is(err, cookies.ErrNotConfigured) {
			return nil, fmt.Errorf("target %s: %w", target.Name, err)
		}
		return nil, fmt.Errorf("target %s: cookie file unreadable: %w", target.Name, err)
	}
	return cs, nil
}

// openStore opens the run-history database. History is best-effort: a
// storage problem is reported but never blocks a refresh.
func openStore(appCfg *cfg.Cfg) (database.RunStore, func()) {
	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Warn("Run history disabled", "error", err)
		return nil, func() {}
	}

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Warn("Run history disabled", "error", err)
		db.Close()
		return nil, func() {}
	}
	slog.Debug("History database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	return database.NewRunRepository(db), func() { db.Close() }
}

func newRunner(appCfg *cfg.Cfg, target config.Target, cs []cookies.Cookie, store database.RunStore) *runner.Runner {
	opts := runner.Opts{
		Cycles:     appCfg.Cycles,
		CycleDelay: appCfg.CycleDelay,
		EntryPause: appCfg.EntryPause,
		Target:     target.URL,
		Version:    appCfg.Version,
	}
	if appCfg.Hold {
		opts.HoldFn = waitForEnter
	}

	return runner.New(
		func() (browser.Driver, error) {
			return browser.NewSession(appCfg.Headless, appCfg.UserAgent, appCfg.LoadTimeout)
		},
		store,
		dash.BootstrapOpts{
			URL:          target.URL,
			AuthCode:     target.AuthCode,
			Cookies:      cs,
			LoadTimeout:  appCfg.LoadTimeout,
			PollInterval: appCfg.PollInterval,
		},
		dash.ListerOpts{
			Timeout:      appCfg.ListTimeout,
			PollInterval: appCfg.PollInterval,
		},
		dash.UpdaterOpts{
			LocateTimeout:   appCfg.ListTimeout,
			BusyTimeout:     appCfg.BusyTimeout,
			PollInterval:    appCfg.PollInterval,
			SentinelTitle:   appCfg.SentinelTitle,
			FastIdleSuccess: appCfg.FastIdleSuccess,
		},
		opts,
	)
}

func runRefresh(ctx context.Context, appCfg *cfg.Cfg) error {
	targets, err := resolveTargets(appCfg)
	if err != nil {
		return err
	}

	store, closeStore := openStore(appCfg)
	defer closeStore()

	for _, target := range targets {
		cs, err := loadTargetCookies(target)
		if err != nil {
			return err
		}

		slog.Info("Refreshing dashboard", "target", target.Name, "url", target.URL, "cycles", appCfg.Cycles)

		summaries, err := newRunner(appCfg, target, cs, store).Run(ctx)
		if len(summaries) > 0 {
			fmt.Println(runner.RenderSummary(summaries))
		}
		if err != nil {
			return fmt.Errorf("target %s: %w", target.Name, err)
		}
	}

	return nil
}

func runBatch(ctx context.Context, appCfg *cfg.Cfg) error {
	targets, err := resolveTargets(appCfg)
	if err != nil {
		return err
	}

	store, closeStore := openStore(appCfg)
	defer closeStore()

	for _, target := range targets {
		slog.Info("Batch refreshing", "target", target.Name, "url", target.URL, "cycles", appCfg.Cycles)

		client := trpc.NewClient(target.URL, target.AuthCode, appCfg.UserAgent, 2*time.Minute)

		summaries, err := newRunner(appCfg, target, nil, store).RunBatch(ctx, client)
		if len(summaries) > 0 {
			fmt.Println(runner.RenderSummary(summaries))
		}
		if err != nil {
			return fmt.Errorf("target %s: %w", target.Name, err)
		}
	}

	return nil
}

func runVerify(ctx context.Context, appCfg *cfg.Cfg) error {
	feedURL := trpc.BaseURL(appCfg.URL) + "/feeds/all.atom"

	verifier := feed.NewVerifier(&http.Client{Timeout: 30 * time.Second}, appCfg.UserAgent)
	report, err := verifier.Run(ctx, feedURL, appCfg.MaxFeedAge)
	if err != nil {
		return err
	}

	for _, source := range report.Sources {
		if source.Stale {
			fmt.Printf("STALE  %-30s latest %s (%d items)\n",
				source.Source, source.Latest.Format(time.RFC3339), source.ItemCount)
		} else {
			fmt.Printf("fresh  %-30s latest %s (%d items)\n",
				source.Source, source.Latest.Format(time.RFC3339), source.ItemCount)
		}
	}
	fmt.Printf("%d/%d sources stale (older than %s)\n",
		report.StaleCount, len(report.Sources), appCfg.MaxFeedAge)

	return nil
}

func runHistory(appCfg *cfg.Cfg) error {
	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, _, err := database.RunMigrations(db); err != nil {
		return err
	}

	repo := database.NewRunRepository(db)
	runs, err := repo.ListRuns(20)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs yet.")
		return nil
	}

	for _, r := range runs {
		finished := "running"
		if r.FinishedAt != nil {
			finished = r.FinishedAt.Format(time.RFC3339)
		}
		fmt.Printf("#%-4d %-8s %-40s started %s  finished %s\n",
			r.ID, r.Mode, r.Target, r.StartedAt.Format(time.RFC3339), finished)
	}

	return nil
}

func runServe(ctx context.Context, appCfg *cfg.Cfg) error {
	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, _, err := database.RunMigrations(db); err != nil {
		return err
	}

	handler := api.NewHandler(database.NewRunRepository(db), appCfg.Version)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Report server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down report server")
	case err := <-serverErrChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return httpServer.Shutdown(shutdownCtx)
}

func waitForEnter() {
	fmt.Println("Press Enter to close the browser...")
	_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
}
