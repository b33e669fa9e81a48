package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/giygas/medications-catalog/config"
	"github.com/giygas/medications-catalog/data"
	"github.com/giygas/medications-catalog/handlers"
	"github.com/giygas/medications-catalog/health"
	"github.com/giygas/medications-catalog/logging"
	"github.com/giygas/medications-catalog/scheduler"
	"github.com/giygas/medications-catalog/server"
	"github.com/giygas/medications-catalog/tabledata"
	"github.com/giygas/medications-catalog/validation"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the catalog HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		return runServe(cmd.Context(), cfg)
	},
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logging.InitLoggerWithOptions(logging.Options{
		Dir:            cfg.LogDir,
		Level:          cfg.LogLevel,
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
	})
	defer func() {
		if err := logging.Close(); err != nil {
			fmt.Printf("failed to close log file: %v\n", err)
		}
	}()

	startTime := time.Now()
	validator := validation.NewDataValidator()

	client := tabledata.NewClient(cfg.APIBaseURL,
		tabledata.WithTimeout(cfg.FetchTimeout),
		tabledata.WithValidator(validator),
	)
	store := data.NewSessionStore(client,
		data.WithPageSize(cfg.DefaultPageSize),
		data.WithMaxSessions(cfg.MaxSessions),
	)
	defer store.Close()

	sched := scheduler.NewScheduler(store, cfg.SessionTTL, cfg.SessionSweepInterval)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	handler := handlers.NewHTTPHandler(store, validator, health.NewHealthChecker(store, startTime))
	srv := server.NewServer(cfg, handler)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info("Catalog service starting", "upstream", client.URL(), "env", cfg.Env.String())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logging.Error("Server stopped with error", "error", err)
		return err
	}
	return nil
}
