package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newthinker/prism/internal/api"
	"github.com/newthinker/prism/internal/api/job"
	"github.com/newthinker/prism/internal/app"
	"github.com/newthinker/prism/internal/logger"
	"github.com/newthinker/prism/internal/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the PRISM API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := app.New(cfg, log)
	if err != nil {
		return fmt.Errorf("creating app: %w", err)
	}

	log.Info("starting PRISM server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	jobStore := job.NewStore(cfg.Server.MaxJobs, time.Duration(cfg.Server.JobTTLHours)*time.Hour)

	server, err := api.NewServer(api.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		APIKey:      cfg.Server.APIKey,
		MetricsPath: cfg.Metrics.Path,
	}, api.Dependencies{
		JobStore:    jobStore,
		Runner:      a,
		RegimeStore: a.Regimes(),
		Strategies:  a.Strategies(),
		Metrics:     metricsRegistry(a, cfg.Metrics.Enabled),
	}, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	go func() {
		if err := server.Start(); err != nil {
			log.Error("server error", zap.Error(err))
		}
	}()

	// Expired jobs are dropped in the background so the store stays
	// bounded on long-lived servers.
	pruneCtx, prunerStop := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-pruneCtx.Done():
				return
			case <-ticker.C:
				if n := jobStore.Prune(); n > 0 {
					log.Debug("pruned expired jobs", zap.Int("count", n))
				}
				a.Metrics().SetJobsActive("walkforward", jobStore.Count())
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down PRISM server")
	prunerStop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(ctx)
}

func metricsRegistry(a *app.App, enabled bool) *metrics.Registry {
	if !enabled {
		return nil
	}
	return a.Metrics()
}
