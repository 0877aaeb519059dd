// Command ratebot runs the USD/DOP rate report once, the way a cron job would.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ratebot/internal/config"
)

var (
	dryRun bool
	sample bool
)

var rootCmd = &cobra.Command{
	Use:           "ratebot",
	Short:         "USD/DOP bank rate newsletter",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scrape the rates, write the preview and email the report",
	RunE:  runRun,
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Render the report to the preview file without sending it",
	RunE:  runPreview,
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "log the email instead of sending it")
	previewCmd.Flags().BoolVar(&sample, "sample", false, "use fixed example rates instead of scraping")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(previewCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setup() (*config.Config, *zap.SugaredLogger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	zapLogger, err := zap.NewDevelopment()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return cfg, zapLogger.Sugar(), nil
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return runPipeline(ctx, cfg, logger, dryRun)
}

func runPreview(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path, err := renderPreview(ctx, cfg, logger, sample)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Preview written to %s\n", path)
	return nil
}
