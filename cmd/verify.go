package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/privsuite/verify-cli/internal/browser"
	"github.com/privsuite/verify-cli/internal/config"
	"github.com/privsuite/verify-cli/internal/observability"
	"github.com/privsuite/verify-cli/internal/verify"
)

// newVerifyCmd creates and configures the `verify` command.
func newVerifyCmd() *cobra.Command {
	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Crawls the deployment, tests every page, and writes a report",
		Args:  cobra.NoArgs,
		// Flag binding happens in PreRunE so command-line flags correctly
		// override values from the config file and environment variables.
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindPFlag("target.base_url", cmd.Flags().Lookup("base-url")); err != nil {
				return err
			}
			if err := viper.BindPFlag("browser.slow_mo_ms", cmd.Flags().Lookup("slow")); err != nil {
				return err
			}
			if err := viper.BindPFlag("output.dir", cmd.Flags().Lookup("output")); err != nil {
				return err
			}
			return viper.BindPFlag("crawl.max_pages", cmd.Flags().Lookup("max-pages"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Use the context passed from main.go (signal-aware).
			ctx := cmd.Context()
			logger := observability.GetLogger()

			// The headed flag inverts the headless default only when the
			// user actually passed it, so config/env values still apply.
			if cmd.Flags().Changed("headed") {
				headed, _ := cmd.Flags().GetBool("headed")
				viper.Set("browser.headless", !headed)
			}

			cfg, err := config.New(viper.GetViper())
			if err != nil {
				return err
			}

			logger.Info("Starting verification run",
				zap.String("base_url", cfg.Target.BaseURL),
				zap.Bool("headless", cfg.Browser.Headless),
				zap.Int("slow_mo_ms", cfg.Browser.SlowMoMs),
				zap.Int("max_pages", cfg.Crawl.MaxPages),
			)

			manager, err := browser.NewManager(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize browser manager: %w", err)
			}
			defer func() {
				shutdownCtx, cancel := contextWithShutdownTimeout()
				defer cancel()
				if err := manager.Shutdown(shutdownCtx); err != nil {
					logger.Warn("Error during browser shutdown", zap.Error(err))
				}
			}()

			session, err := manager.NewSession()
			if err != nil {
				return fmt.Errorf("failed to open browser session: %w", err)
			}
			defer session.Close()

			crawler, err := verify.NewCrawler(cfg, session, os.Stdout, logger)
			if err != nil {
				return err
			}

			report, runErr := crawler.Run(ctx)
			if report != nil {
				verify.PrintSummary(os.Stdout, report)

				reportPath := filepath.Join(cfg.Output.Dir, cfg.Output.ReportFile)
				if err := verify.WriteJSON(report, reportPath); err != nil {
					logger.Error("Failed to write report file", zap.Error(err))
				} else {
					fmt.Printf("\nReport saved to: %s\n", reportPath)
				}
			}
			if runErr != nil {
				return runErr
			}

			if !report.Succeeded() {
				return fmt.Errorf("verification failed: %d of %d pages broken", report.PagesFailed, report.TotalPages)
			}
			return nil
		},
	}

	verifyCmd.Flags().Bool("headed", false, "Run the browser with a visible window.")
	verifyCmd.Flags().Int("slow", 0, "Minimum delay between navigations, in milliseconds. (Overrides config/env)")
	verifyCmd.Flags().String("base-url", "", "Base URL of the deployment under test. (Overrides config/env)")
	verifyCmd.Flags().StringP("output", "o", "", "Directory for screenshots and the JSON report. (Overrides config/env)")
	verifyCmd.Flags().Int("max-pages", 0, "Maximum number of pages to test. (Overrides config/env)")

	verifyCmd.SilenceUsage = true

	return verifyCmd
}

func contextWithShutdownTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 15*time.Second)
}
