package handler

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-upload/imaging"
	"github.com/krishkalaria12/snap-upload/logging"
	"github.com/krishkalaria12/snap-upload/upload"
	"go.uber.org/zap"
)

func errorResponse(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":  "error",
		"message": message,
		"data":    nil,
	})
}

func successResponse(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"status":  "success",
		"message": message,
		"data":    data,
	})
}

func unauthorized(c *fiber.Ctx) error {
	return errorResponse(c, fiber.StatusUnauthorized, "Authentication required")
}

// saveError answers a failed create/update. Client mistakes become 400, the rest 500.
func saveError(c *fiber.Ctx, message string, err error) error {
	var verrs validator.ValidationErrors
	var ferr imaging.FilterError

	switch {
	case errors.As(err, &verrs):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Validation failed",
			"data":    validationMessages(verrs),
		})
	case errors.Is(err, upload.ErrInvalidFile), errors.As(err, &ferr):
		return errorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	logging.L().Error(message, zap.Error(err))
	return errorResponse(c, fiber.StatusInternalServerError, message)
}

func validationMessages(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = "failed on the '" + fe.Tag() + "' rule"
	}
	return out
}

func paramID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
