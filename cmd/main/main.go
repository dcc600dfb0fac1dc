package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"libfaq/crawler/internal/config"
	"libfaq/crawler/internal/container"
	"libfaq/crawler/internal/service"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Fatalf("Application exited with error: %v", err)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "crawler",
		Short:         "Crawl the library site menu and pages into structured snapshots",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the YAML config (default ./config.yaml)")

	root.AddCommand(
		newRunCmd(&configPath, "crawl", "Discover the menu, then crawl every page", (*service.Service).RunAll),
		newRunCmd(&configPath, "menu", "Discover the menu and save it", (*service.Service).RunMenu),
		newRunCmd(&configPath, "detail", "Crawl pages of the saved menu", (*service.Service).RunDetail),
		newStatusCmd(&configPath),
	)
	return root
}

func newRunCmd(configPath *string, use, short string, job func(*service.Service, context.Context) error) *cobra.Command {
	var every time.Duration

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := setup(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer app.Close()

			return repeat(cmd.Context(), every, func(ctx context.Context) error {
				return job(app.Service, ctx)
			})
		},
	}
	cmd.Flags().DurationVar(&every, "every", 0, "repeat the job at this interval until interrupted")
	return cmd
}

func newStatusCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the last recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := setup(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer app.Close()

			runs, err := app.Service.LastRuns(cmd.Context())
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
				return nil
			}
			for _, run := range runs {
				fmt.Fprintf(cmd.OutOrStdout(), "%-6s run=%s finished=%s items=%d failed=%d off-domain=%d truncated=%d\n",
					run.Kind, run.RunID, run.FinishedAt.Format(time.RFC3339),
					run.Items, run.Failed, run.SkippedOffDomain, run.Truncated)
			}
			return nil
		},
	}
}

func setup(ctx context.Context, configPath string) (*container.Container, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := container.ConfigureLogging(cfg.Log); err != nil {
		return nil, err
	}
	log.Info("Configuration loaded successfully")

	app, err := container.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize container: %w", err)
	}
	return app, nil
}

// repeat runs job once, or every interval until ctx is done when interval
// is positive. A failed run is logged and retried at the next tick.
func repeat(ctx context.Context, interval time.Duration, job func(context.Context) error) error {
	if interval <= 0 {
		return job(ctx)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := job(ctx); err != nil {
			log.Errorf("❌ Scheduled run failed: %v", err)
		}

		select {
		case <-ctx.Done():
			log.Info("🛑 Stopping scheduled runs")
			return nil
		case <-ticker.C:
		}
	}
}
