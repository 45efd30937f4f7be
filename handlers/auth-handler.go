package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-upload/auth"
	"github.com/krishkalaria12/snap-upload/logging"
	"go.uber.org/zap"
)

// Login checks the credentials and answers with a JWT, also set as the JWT cookie.
func Login(c *fiber.Ctx) error {
	type LoginData struct {
		Identity string `json:"identity"`
		Password string `json:"password"`
	}

	type UserResponse struct {
		ID       uint   `json:"id"`
		Email    string `json:"email"`
		Username string `json:"username"`
		FullName string `json:"name"`
		Token    string `json:"token"`
	}

	input := new(LoginData)
	if err := c.BodyParser(input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	userModel, err := auth.FindUser(input.Identity)
	if err != nil {
		logging.L().Error("Failed to look up user", zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Database error")
	}

	if userModel == nil || !auth.CheckPasswordHash(input.Password, userModel.Password) {
		return errorResponse(c, fiber.StatusUnauthorized, "Invalid identity or password")
	}

	tokenStr, err := auth.IssueToken(userModel)
	if err != nil {
		logging.L().Error("Failed to generate token", zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to generate token")
	}

	c.Cookie(&fiber.Cookie{
		Name:     "JWT",
		Value:    tokenStr,
		Expires:  time.Now().Add(auth.CookieDuration),
		HTTPOnly: true,
		SameSite: "Lax",
	})

	return successResponse(c, fiber.StatusOK, "Login successful", UserResponse{
		ID:       userModel.ID,
		Email:    userModel.Email,
		Username: userModel.Username,
		FullName: userModel.FullName,
		Token:    tokenStr,
	})
}

func clearAuthCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     "JWT",
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
	})
}

func Logout(c *fiber.Ctx) error {
	clearAuthCookie(c)
	return successResponse(c, fiber.StatusOK, "Logout successful", nil)
}
