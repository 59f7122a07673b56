package cmd

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"bookgenre/internal/app"
	"bookgenre/internal/config"
)

var (
	cfgFile string

	// activeApp is the app built for the running command; closeActiveApp
	// releases it once the command finishes.
	activeApp *app.App
)

var rootCmd = &cobra.Command{
	Use:   "bookgenre",
	Short: "Book genre prediction service",
	Long: `bookgenre predicts a book's genre from its title, authors and description
using a pretrained sequence-classification model, and keeps a small book
catalogue annotated with those predictions.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch cmd.Name() {
		case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return nil
		}

		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		appInstance, err := app.NewApp(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize app: %w", err)
		}
		activeApp = appInstance

		ctx := context.WithValue(cmd.Context(), appKey, appInstance)
		cmd.SetContext(ctx)
		return nil
	},
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Define a custom type for the context key to avoid collisions.
type contextKey string

const appKey contextKey = "app"

// GetAppFromContext returns the app built by PersistentPreRunE.
func GetAppFromContext(ctx context.Context) (*app.App, error) {
	appInstance, ok := ctx.Value(appKey).(*app.App)
	if !ok || appInstance == nil {
		return nil, fmt.Errorf("application instance not found in context")
	}
	return appInstance, nil
}

func closeActiveApp() {
	if activeApp == nil {
		return
	}
	log.Debug("Closing application resources")
	activeApp.Close()
	activeApp = nil
}

func init() {
	cobra.OnFinalize(closeActiveApp)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./config.yaml)")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check database connectivity and model artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		appInstance, err := GetAppFromContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to get app instance: %w", err)
		}

		fmt.Println("Checking database connectivity...")
		if err := appInstance.Ping(ctx); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}
		fmt.Println("Database connection successful.")

		if appInstance.Redis != nil {
			fmt.Println("Checking Redis connectivity...")
			if err := appInstance.Redis.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis ping failed: %w", err)
			}
			fmt.Println("Redis connection successful.")
		}

		fmt.Println("Loading model artifacts...")
		a, err := appInstance.Artifacts.Load(ctx)
		if err != nil {
			return fmt.Errorf("model artifacts unavailable: %w", err)
		}
		fmt.Printf("Model %s loaded: %d classes, max_length %d.\n", a.Info.Name, a.Labels.Len(), a.Tokenizer.MaxLength)
		if !a.Consistent() {
			fmt.Printf("Warning: model declares %d labels but the label encoder has %d.\n", a.Info.NumLabels, a.Labels.Len())
		}
		return nil
	},
}
