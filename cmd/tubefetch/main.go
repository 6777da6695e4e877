package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v5"
	"github.com/spf13/cobra"
	"github.com/tracyhilton810-ctrl/tubefetch/internal/api"
	"github.com/tracyhilton810-ctrl/tubefetch/internal/app"
	"github.com/tracyhilton810-ctrl/tubefetch/internal/config"
	"github.com/tracyhilton810-ctrl/tubefetch/internal/jobs"
	"github.com/tracyhilton810-ctrl/tubefetch/internal/logger"
	"github.com/tracyhilton810-ctrl/tubefetch/internal/platform"
	"github.com/tracyhilton810-ctrl/tubefetch/internal/store"
	"github.com/tracyhilton810-ctrl/tubefetch/internal/ytdlp"
)

var configPath string

func main() {
	// Optional .env for local development; real deployments use the
	// environment directly.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "tubefetch",
		Short: "Web front-end for downloading YouTube videos via yt-dlp",
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")

	root.AddCommand(serveCmd(), probeCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	appLog, err := logger.New(cfg.Log.Path, logger.ParseLevel(cfg.Log.Level), cfg.Log.IncludeStdout)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer appLog.Close()

	if err := platform.ValidateDependencies(cfg.YTDLP.Binary); err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Download.Dir, 0o755); err != nil {
		return fmt.Errorf("download dir: %w", err)
	}

	db, err := store.NewPersistentStore(cfg.Store.SQLitePath)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := ytdlp.NewClient(cfg.YTDLP.Binary, cfg.YTDLP.ProbeTimeout, appLog)
	tracker := jobs.NewTracker(db)
	orch := jobs.NewOrchestrator(tracker, client, appLog, cfg.Download.Dir, cfg.Download.MaxConcurrentJobs, cfg.Download.SlotWait)
	janitor := jobs.NewJanitor(tracker, appLog, cfg.Download.Retention, cfg.Download.CleanupInterval)

	appCtx := app.NewContext(cfg, appLog)
	appCtx.Tracker = tracker
	appCtx.Orchestrator = orch
	appCtx.Prober = client
	appCtx.History = db
	appCtx.BaseCtx = ctx

	e := echo.New()
	api.RegisterRoutes(e, appCtx)

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go janitor.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("listening on %s", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		appLog.Info("shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("shutdown: %v", err)
	}

	// In-flight downloads were cancelled with ctx; wait for them to
	// record their final state.
	orch.Wait()
	appLog.Info("stopped")
	return nil
}

func probeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe <url>",
		Short: "Analyze a video URL and print the available formats as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}

			appLog, err := logger.New("", logger.LevelError, true)
			if err != nil {
				return err
			}
			defer appLog.Close()

			client := ytdlp.NewClient(cfg.YTDLP.Binary, cfg.YTDLP.ProbeTimeout, appLog)

			info, err := client.Probe(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("probe: %w", err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(info); err != nil {
				log.Fatal(err)
			}
			return nil
		},
	}
}
