package handler

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-upload/logging"
	"github.com/krishkalaria12/snap-upload/middleware"
	"github.com/krishkalaria12/snap-upload/upload"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	generationModel = "gemini-2.5-flash-image-preview"
	maxPromptLength = 1000
)

func injectSysPrompt(prompt string) string {
	return fmt.Sprintf(`You are an AI image generation assistant. Create detailed, visual descriptions for image generation models. Focus on:

- Clear visual elements (colors, composition, lighting, style)
- Specific artistic techniques or photographic styles when relevant
- Safe, appropriate content only
- Realistic and achievable image concepts

Transform user requests into precise, descriptive prompts that will produce high-quality images.

User request: %s`, prompt)
}

// firstInlineImage returns the first inline data part of the first candidate.
func firstInlineImage(result *genai.GenerateContentResponse) []byte {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return nil
	}
	for _, part := range result.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData.Data
		}
	}
	return nil
}

// GenerateImage asks Gemini for an image and stores the answer as a new photo.
func GenerateImage(c *fiber.Ctx) error {
	ctx := c.UserContext()

	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return unauthorized(c)
	}

	var input struct {
		Prompt string `json:"prompt"`
	}
	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	switch {
	case input.Prompt == "":
		return errorResponse(c, fiber.StatusBadRequest, "Prompt is required")
	case len(input.Prompt) > maxPromptLength:
		return errorResponse(c, fiber.StatusBadRequest, fmt.Sprintf("Prompt too long (max %d characters)", maxPromptLength))
	}

	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		logging.L().Error("Failed to create genai client", zap.Error(err))
		return errorResponse(c, fiber.StatusServiceUnavailable, "Image generation is not available")
	}

	result, err := client.Models.GenerateContent(
		ctx,
		generationModel,
		genai.Text(injectSysPrompt(input.Prompt)),
		&genai.GenerateContentConfig{},
	)
	if err != nil {
		logging.L().Error("Failed to generate image", zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to generate image")
	}

	imageBytes := firstInlineImage(result)
	if imageBytes == nil {
		return errorResponse(c, fiber.StatusInternalServerError, "No image data found in response")
	}

	outputFilename := fmt.Sprintf("generated_%d.png", time.Now().UnixNano())
	return createPhoto(c, userID, upload.FromBytes(outputFilename, imageBytes), "Successfully generated image")
}
