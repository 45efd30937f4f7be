package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/krishkalaria12/snap-upload/config"
	handler "github.com/krishkalaria12/snap-upload/handlers"
	"github.com/krishkalaria12/snap-upload/middleware"
)

// SetupRoutes registers the API behind the JWT middleware and, for local storage,
// serves the web root the uploads are written to.
func SetupRoutes(app *fiber.App, settings config.Settings) {
	Register(app, middleware.AuthMiddleware())

	if settings.StorageDriver == "" || settings.StorageDriver == "local" {
		app.Static("/", settings.WebRoot, fiber.Static{
			Browse: false,
		})
	}
}

// Register mounts the API routes; authRequired guards everything but sign-up and login.
func Register(app *fiber.App, authRequired fiber.Handler) {
	api := app.Group("/api", logger.New())

	// Auth
	auth := api.Group("/auth")
	auth.Post("/login", handler.Login)
	auth.Post("/logout", handler.Logout)

	// User
	user := api.Group("/users")
	user.Post("/", handler.CreateUser)
	user.Get("/:id", handler.GetUser)
	user.Put("/:id", authRequired, handler.UpdateUser)
	user.Delete("/:id", authRequired, handler.DeleteUser)
	user.Post("/:id/avatar", authRequired, handler.UploadAvatar)

	// Documents
	documents := api.Group("/documents", authRequired)
	documents.Post("/", handler.CreateDocument)
	documents.Get("/:id", handler.GetDocument)
	documents.Put("/:id", handler.UpdateDocument)
	documents.Delete("/:id", handler.DeleteDocument)

	// Photos
	photos := api.Group("/photos", authRequired)
	photos.Get("/", handler.GetPhotos)
	photos.Post("/", handler.UploadPhoto)
	photos.Post("/generate", handler.GenerateImage)
	photos.Get("/:id", handler.GetPhoto)
	photos.Get("/:id/thumbs/:profile", handler.GetPhotoThumb)
	photos.Post("/:id/filters", handler.ApplyFilterToPhoto)
	photos.Delete("/:id", handler.DeletePhoto)
}
