package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/andresmejia3/faceenroll/internal/config"
	"github.com/andresmejia3/faceenroll/internal/logger"
	"github.com/andresmejia3/faceenroll/internal/store"
	"github.com/andresmejia3/faceenroll/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// DB is the enrollment store shared by subcommands
	DB store.Store
	// Cfg is the resolved configuration
	Cfg *config.Config
	// Log is the application logger
	Log *logrus.Entry

	cfgPath string
)

// Version is the application version.
const Version = "0.1.0"

// noStore marks commands that never touch the database.
const noStore = "nostore"

var rootCmd = &cobra.Command{
	Use:   "faceenroll",
	Short: "Enroll faces from a webcam into a local face database",
	Long: `faceenroll captures one frame from the default camera, extracts a 128-d
face descriptor and stores it together with a name. Running it without a
subcommand starts an enrollment.`,
	Version:       Version, // This enables the --version flag
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		Cfg, err = config.Load(cfgPath, cmd.Flags())
		if err != nil {
			utils.ShowError("Invalid configuration", err, nil)
			return reported(err)
		}
		Log = logger.New(logger.Config{Level: Cfg.Log.Level, Format: Cfg.Log.Format})

		if _, ok := cmd.Annotations[noStore]; ok {
			return nil
		}

		// Use the command's context (which will be cancellable) for the connection
		DB, err = store.Open(cmd.Context(), Cfg.Database.URL)
		if err != nil {
			utils.ShowError("Failed to open face database", err, nil)
			return reported(fmt.Errorf("failed to open store: %w", err))
		}
		Log.WithField("db", Cfg.Database.URL).Debug("store opened")
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEnroll(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeStore()
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	// Create a context that listens for Ctrl+C (SIGINT) or Kill (SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// This tells Cobra not to print the version in the help text, which is cleaner.
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	err := rootCmd.ExecuteContext(ctx)
	// PersistentPostRun is skipped when RunE fails
	closeStore()
	if err != nil {
		var r *reportedError
		if !errors.As(err, &r) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default: ./faceenroll.yaml)")
	rootCmd.PersistentFlags().String("db", "", "SQLite path or postgres:// URL (default: faces.db)")
	rootCmd.PersistentFlags().String("device", "", "camera device passed to ffmpeg")
	rootCmd.PersistentFlags().String("engine", "", "face model backend: dlib or python")
	rootCmd.PersistentFlags().String("models", "", "directory holding the dlib model files")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
}

func closeStore() {
	if DB == nil {
		return
	}
	// Use Background here because the main context might be cancelled already (due to Ctrl+C)
	if err := DB.Close(context.Background()); err != nil && Log != nil {
		Log.WithError(err).Warn("failed to close store")
	}
	DB = nil
}

// reportedError marks an error whose diagnostic was already printed.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error { return &reportedError{err: err} }
