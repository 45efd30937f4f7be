package handler

import (
	"errors"
	"sort"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-upload/database"
	"github.com/krishkalaria12/snap-upload/middleware"
	"github.com/krishkalaria12/snap-upload/models"
	"github.com/krishkalaria12/snap-upload/upload"
	"gorm.io/gorm"
)

type PhotoResponse struct {
	ID       uint              `json:"id"`
	Filename string            `json:"filename"`
	Image    string            `json:"image"`
	Status   string            `json:"status"`
	URL      string            `json:"url"`
	Thumbs   map[string]string `json:"thumbs"`
}

func photoResponse(c *fiber.Ctx, photo *models.Photo) (PhotoResponse, error) {
	url, err := models.PhotoUploads.UploadedFileURL(photo, "image")
	if err != nil {
		return PhotoResponse{}, err
	}

	b, err := models.PhotoUploads.Image("image")
	if err != nil {
		return PhotoResponse{}, err
	}

	profiles := make([]string, 0, len(b.Thumbs))
	for name := range b.Thumbs {
		profiles = append(profiles, name)
	}
	sort.Strings(profiles)

	thumbs := make(map[string]string, len(profiles))
	for _, name := range profiles {
		thumbURL, err := models.PhotoUploads.ThumbFileURL(c.UserContext(), photo, "image", name)
		if err != nil {
			return PhotoResponse{}, err
		}
		thumbs[name] = thumbURL
	}

	return PhotoResponse{
		ID:       photo.ID,
		Filename: photo.Filename,
		Image:    photo.Image,
		Status:   photo.Status,
		URL:      url,
		Thumbs:   thumbs,
	}, nil
}

func findPhoto(c *fiber.Ctx, userID uint) (*models.Photo, error) {
	id, err := paramID(c)
	if err != nil {
		return nil, errorResponse(c, fiber.StatusBadRequest, "Invalid photo ID")
	}

	var photo models.Photo
	if err := database.GetDB().Where("user_id = ?", userID).First(&photo, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorResponse(c, fiber.StatusNotFound, "Photo not found")
		}
		return nil, errorResponse(c, fiber.StatusInternalServerError, "Database error")
	}
	return &photo, nil
}

// createPhoto stores file as a new photo of userID and answers with the photo.
func createPhoto(c *fiber.Ctx, userID uint, file *upload.File, message string) error {
	photo := models.Photo{
		UserID:   userID,
		Filename: file.Name,
		Status:   models.PhotoStatusCompleted,
	}
	photo.Attach("image", file)

	if err := database.GetDB().WithContext(c.UserContext()).Create(&photo).Error; err != nil {
		return saveError(c, "Failed to save photo", err)
	}

	response, err := photoResponse(c, &photo)
	if err != nil {
		return saveError(c, "Failed to resolve photo URLs", err)
	}
	return successResponse(c, fiber.StatusCreated, message, response)
}

func UploadPhoto(c *fiber.Ctx) error {
	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return unauthorized(c)
	}

	file, err := c.FormFile("image")
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "No file provided")
	}

	return createPhoto(c, userID, upload.FromFileHeader(file), "Successfully uploaded the file")
}

func GetPhotos(c *fiber.Ctx) error {
	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return unauthorized(c)
	}

	var photos []models.Photo
	if err := database.GetDB().Where("user_id = ?", userID).Order("id").Find(&photos).Error; err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, "Database error")
	}

	responses := make([]PhotoResponse, 0, len(photos))
	for i := range photos {
		response, err := photoResponse(c, &photos[i])
		if err != nil {
			return saveError(c, "Failed to resolve photo URLs", err)
		}
		responses = append(responses, response)
	}
	return successResponse(c, fiber.StatusOK, "Photos found", responses)
}

func GetPhoto(c *fiber.Ctx) error {
	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return unauthorized(c)
	}

	photo, err := findPhoto(c, userID)
	if photo == nil {
		return err
	}

	response, err := photoResponse(c, photo)
	if err != nil {
		return saveError(c, "Failed to resolve photo URLs", err)
	}
	return successResponse(c, fiber.StatusOK, "Photo found", response)
}

// GetPhotoThumb answers with the URL of one thumbnail profile.
func GetPhotoThumb(c *fiber.Ctx) error {
	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return unauthorized(c)
	}

	photo, err := findPhoto(c, userID)
	if photo == nil {
		return err
	}

	profile := c.Params("profile")
	url, err := models.PhotoUploads.ThumbFileURL(c.UserContext(), photo, "image", profile)
	if err != nil {
		if errors.Is(err, upload.ErrUnknownProfile) {
			return errorResponse(c, fiber.StatusNotFound, "Unknown thumbnail profile")
		}
		return saveError(c, "Failed to create thumbnail", err)
	}

	return successResponse(c, fiber.StatusOK, "Thumbnail found", fiber.Map{
		"profile": profile,
		"url":     url,
	})
}

func DeletePhoto(c *fiber.Ctx) error {
	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return unauthorized(c)
	}

	photo, err := findPhoto(c, userID)
	if photo == nil {
		return err
	}

	if err := database.GetDB().WithContext(c.UserContext()).Delete(photo).Error; err != nil {
		return saveError(c, "Failed to delete photo", err)
	}
	return successResponse(c, fiber.StatusOK, "Photo deleted successfully", nil)
}
