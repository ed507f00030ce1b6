package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ikusi/acta-ui/config"
	"github.com/ikusi/acta-ui/internal/apiclient"
	"github.com/ikusi/acta-ui/internal/app"
	"github.com/ikusi/acta-ui/internal/logging"
)

var (
	// Global flags
	verbose  bool
	mockMode bool
	timeout  time.Duration
	profile  string

	application *app.App
	logger      *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "acta",
	Short: "ACTA document generation client",
	Long: `acta talks to the ACTA backend: list projects, trigger document
generation, check and download generated actas, and send them for client
approval.

Set ACTA_USE_MOCK_API=true or pass --mock to work against canned data with
no network access.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if mockMode {
			if err := os.Setenv("ACTA_USE_MOCK_API", "true"); err != nil {
				return err
			}
		}
		apiclient.ResetMetrics()
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		logger, err = logging.New(logLevel(cfg, verbose), cfg.App.Environment)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logging.SetDefault(logger)

		application, err = app.New(cmd.Context(), cfg, app.Options{
			Profile: profile,
			Mock:    mockMode,
			Timeout: timeout,
		})
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&mockMode, "mock", false, "Use canned responses instead of the backend")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Request timeout (default from ACTA_API_TIMEOUT)")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "Session and AWS profile name")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
	rootCmd.AddCommand(healthCmd, projectsCmd, generateCmd, bulkGenerateCmd)
	rootCmd.AddCommand(checkCmd, downloadCmd, previewCmd, sendApprovalCmd)
	rootCmd.AddCommand(dashboardCmd, awsCmd)
}

// logLevel keeps the CLI quiet unless LOG_LEVEL or --verbose say otherwise.
func logLevel(cfg *config.Config, verbose bool) string {
	if verbose {
		return "debug"
	}
	return cfg.App.LevelOr("warn")
}

// reportedError marks an error already shown to the user as a notification.
type reportedError struct {
	error
}

func (e reportedError) Unwrap() error { return e.error }

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	if verbose {
		printCallStats(rootCmd.ErrOrStderr(), apiclient.GetMetrics())
	}
	shutdown()
	if err != nil {
		var reported reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		}
		return 1
	}
	return 0
}

// shutdown runs after every command, including failed ones.
func shutdown() {
	if application != nil {
		_ = application.Close()
		application = nil
	}
	if logger != nil {
		_ = logger.Sync()
	}
}
