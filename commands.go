package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-upload/auth"
	"github.com/krishkalaria12/snap-upload/database"
	"github.com/krishkalaria12/snap-upload/models"
	"github.com/krishkalaria12/snap-upload/router"
	"github.com/krishkalaria12/snap-upload/upload"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var forceThumbs bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := setupUploads(ctx); err != nil {
			return err
		}

		_ = database.GetDB()
		defer closeDB()

		if err := database.MigrateModels(models.All()...); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}

		auth.SetupAuthService(settings)

		app := fiber.New(fiber.Config{
			BodyLimit: 32 << 20,
		})
		router.SetupRoutes(app, settings)

		go func() {
			<-ctx.Done()
			logger.Info("Shutting down server")
			if err := app.Shutdown(); err != nil {
				logger.Error("Failed to shut down server", zap.Error(err))
			}
		}()

		logger.Info("Server is listening", zap.String("port", settings.Port))
		return app.Listen(":" + settings.Port)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = database.GetDB()
		defer closeDB()

		if err := database.MigrateModels(models.All()...); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		logger.Info("Database migrated")
		return nil
	},
}

var thumbsCmd = &cobra.Command{
	Use:   "thumbs",
	Short: "Create missing photo and avatar thumbnails",
	Long: `Walks every photo and user with a stored image and writes the thumbnails
that do not exist yet. With --force existing thumbnails are removed first,
which is what you want after changing a profile in uploads.yaml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := setupUploads(ctx); err != nil {
			return err
		}

		db := database.GetDB()
		defer closeDB()

		photos, err := regenerate(ctx, db, models.PhotoUploads, "image", &[]models.Photo{})
		if err != nil {
			return err
		}
		avatars, err := regenerate(ctx, db, models.UserUploads, "avatar", &[]models.User{})
		if err != nil {
			return err
		}

		logger.Info("Thumbnails regenerated", zap.Int("photos", photos), zap.Int("avatars", avatars))
		return nil
	},
}

// regenerate creates the thumbnails of every record of batch's type whose attribute is set.
func regenerate[T any, PT interface {
	*T
	upload.Record
}](ctx context.Context, db *gorm.DB, set *upload.Set, attribute string, batch *[]T) (int, error) {
	b, err := set.Image(attribute)
	if err != nil {
		return 0, err
	}
	store := set.Env().Storage

	count := 0
	result := db.WithContext(ctx).Where(attribute+" <> ''").FindInBatches(batch, 100, func(tx *gorm.DB, _ int) error {
		for i := range *batch {
			rec := PT(&(*batch)[i])

			if forceThumbs {
				for profile := range b.Thumbs {
					key, err := b.ResolveThumbPath(rec, profile)
					if err != nil {
						return err
					}
					if err := store.Delete(ctx, key); err != nil {
						return err
					}
				}
			}

			if err := b.CreateThumbs(ctx, rec); err != nil {
				logger.Warn("Failed to create thumbnails", zap.String("attribute", attribute), zap.Error(err))
				continue
			}
			count++
		}
		return nil
	})
	return count, result.Error
}
