package main

import (
	"context"
	"fmt"
	"os"

	"github.com/krishkalaria12/snap-upload/config"
	"github.com/krishkalaria12/snap-upload/database"
	"github.com/krishkalaria12/snap-upload/logging"
	"github.com/krishkalaria12/snap-upload/models"
	"github.com/krishkalaria12/snap-upload/storage"
	"github.com/krishkalaria12/snap-upload/upload"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	settings config.Settings
	logger   *zap.Logger
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "snap-upload",
	Short: "Photo and document service with attached file uploads",
	Long: `snap-upload stores documents, photos and avatars next to their database records.

Uploaded files are written to local disk, Google Cloud Storage or S3 and
image thumbnails are generated per profile configured in uploads.yaml.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		settings = config.Load()
		if logLevel != "" {
			settings.LogLevel = logLevel
		}

		var err error
		logger, err = logging.Init(settings.LogLevel)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	thumbsCmd.Flags().BoolVar(&forceThumbs, "force", false, "remove existing thumbnails before regenerating them")

	rootCmd.AddCommand(serveCmd, migrateCmd, thumbsCmd)
}

// setupUploads connects storage and binds every model's upload set to it.
func setupUploads(ctx context.Context) error {
	store, err := storage.New(ctx, settings)
	if err != nil {
		return fmt.Errorf("failed to set up %s storage: %w", settings.StorageDriver, err)
	}

	uploads, err := config.LoadUploads(settings.UploadsConfig)
	if err != nil {
		return err
	}

	return models.Setup(upload.Env{
		Storage: store,
		Logger:  logger,
		BaseURL: settings.BaseURL,
	}, uploads)
}

func closeDB() {
	if err := database.CloseDB(); err != nil {
		logger.Error("Failed to close the database connection", zap.Error(err))
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
