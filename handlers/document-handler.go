package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-upload/database"
	"github.com/krishkalaria12/snap-upload/middleware"
	"github.com/krishkalaria12/snap-upload/models"
	"github.com/krishkalaria12/snap-upload/upload"
	"gorm.io/gorm"
)

type DocumentResponse struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
	File  string `json:"file"`
	URL   string `json:"url"`
}

func documentResponse(doc *models.Document) (DocumentResponse, error) {
	url, err := models.DocumentUploads.UploadedFileURL(doc, "file")
	if err != nil {
		return DocumentResponse{}, err
	}
	return DocumentResponse{ID: doc.ID, Title: doc.Title, File: doc.File, URL: url}, nil
}

// findDocument loads a document owned by userID. It writes the error response itself
// and returns nil when the document cannot be used.
func findDocument(c *fiber.Ctx, userID uint) (*models.Document, error) {
	id, err := paramID(c)
	if err != nil {
		return nil, errorResponse(c, fiber.StatusBadRequest, "Invalid document ID")
	}

	var doc models.Document
	if err := database.GetDB().Where("user_id = ?", userID).First(&doc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorResponse(c, fiber.StatusNotFound, "Document not found")
		}
		return nil, errorResponse(c, fiber.StatusInternalServerError, "Database error")
	}
	return &doc, nil
}

func CreateDocument(c *fiber.Ctx) error {
	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return unauthorized(c)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "No file provided")
	}

	doc := models.Document{
		UserID: userID,
		Title:  c.FormValue("title"),
	}
	doc.Attach("file", upload.FromFileHeader(file))

	if err := database.GetDB().WithContext(c.UserContext()).Create(&doc).Error; err != nil {
		return saveError(c, "Failed to save document", err)
	}

	response, err := documentResponse(&doc)
	if err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to resolve document URL")
	}
	return successResponse(c, fiber.StatusCreated, "Document created successfully", response)
}

func GetDocument(c *fiber.Ctx) error {
	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return unauthorized(c)
	}

	doc, err := findDocument(c, userID)
	if doc == nil {
		return err
	}

	response, err := documentResponse(doc)
	if err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to resolve document URL")
	}
	return successResponse(c, fiber.StatusOK, "Document found", response)
}

// UpdateDocument changes the title and, when a file is sent, replaces the stored file.
func UpdateDocument(c *fiber.Ctx) error {
	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return unauthorized(c)
	}

	doc, err := findDocument(c, userID)
	if doc == nil {
		return err
	}

	renamed := false
	if title := c.FormValue("title"); title != "" && title != doc.Title {
		doc.Title = title
		renamed = true
	}

	if file, err := c.FormFile("file"); err == nil {
		doc.Attach("file", upload.FromFileHeader(file))
	} else if renamed {
		// the file name follows the title
		if err := models.DocumentUploads.Reattach(c.UserContext(), doc, "file"); err != nil {
			return saveError(c, "Failed to move document file", err)
		}
	}

	if err := database.GetDB().WithContext(c.UserContext()).Save(doc).Error; err != nil {
		return saveError(c, "Failed to update document", err)
	}

	response, err := documentResponse(doc)
	if err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to resolve document URL")
	}
	return successResponse(c, fiber.StatusOK, "Document updated successfully", response)
}

func DeleteDocument(c *fiber.Ctx) error {
	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return unauthorized(c)
	}

	doc, err := findDocument(c, userID)
	if doc == nil {
		return err
	}

	if err := database.GetDB().WithContext(c.UserContext()).Delete(doc).Error; err != nil {
		return saveError(c, "Failed to delete document", err)
	}
	return successResponse(c, fiber.StatusOK, "Document deleted successfully", nil)
}
