package handler

import (
	"bytes"
	"path"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-upload/imaging"
	"github.com/krishkalaria12/snap-upload/middleware"
	"github.com/krishkalaria12/snap-upload/models"
	"github.com/krishkalaria12/snap-upload/upload"
)

// ApplyFilterToPhoto runs the filters named in the query string over a stored photo
// and saves the result as a new photo, e.g. POST /api/photos/1/filters?grayscale=1&rotate=90.
func ApplyFilterToPhoto(c *fiber.Ctx) error {
	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return unauthorized(c)
	}

	photo, err := findPhoto(c, userID)
	if photo == nil {
		return err
	}

	filters, err := imaging.ParseFilters(c.Queries())
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, err.Error())
	}
	if len(filters) == 0 {
		return errorResponse(c, fiber.StatusBadRequest, "No supported filters provided")
	}

	store := models.PhotoUploads.Env().Storage
	if store == nil {
		return errorResponse(c, fiber.StatusInternalServerError, "Storage is not configured")
	}

	rc, err := store.Open(c.UserContext(), photo.Image)
	if err != nil {
		return saveError(c, "Failed to load image", err)
	}
	img, format, err := imaging.Decode(rc)
	rc.Close()
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	ext := strings.TrimPrefix(path.Ext(photo.Image), ".")
	if format == "webp" || imaging.FormatFromExtension(ext) == "" {
		format, ext = "jpeg", "jpg"
	} else {
		format = imaging.FormatFromExtension(ext)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Process(img, filters...), format); err != nil {
		return saveError(c, "Failed to encode processed image", err)
	}

	base := strings.TrimSuffix(photo.Filename, path.Ext(photo.Filename))
	name := "processed_" + base + "." + ext

	return createPhoto(c, userID, upload.FromBytes(name, buf.Bytes()), "Successfully processed image")
}
