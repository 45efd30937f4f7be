package middleware

import (
	"errors"
	"strconv"

	"github.com/go-pkgz/auth/v2/token"
	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-upload/auth"
	"github.com/krishkalaria12/snap-upload/logging"
	"go.uber.org/zap"
)

var ErrNoUser = errors.New("no user in request context")

func AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		var tokenStr string

		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		} else {
			tokenStr = c.Cookies("JWT")
		}

		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status":  "error",
				"message": "You are not authorized!",
				"data":    nil,
			})
		}

		claims, err := auth.GetAuthService().TokenService().Parse(tokenStr)
		if err != nil || claims.User == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid token",
				"status":  "error",
				"data":    nil,
			})
		}

		c.Locals("user", *claims.User)
		c.Locals("claims", claims)

		return c.Next()
	}
}

// CheckUserLoggedIn returns the numeric ID of the authenticated user.
func CheckUserLoggedIn(c *fiber.Ctx) (uint, error) {
	user, ok := c.Locals("user").(token.User)
	if !ok {
		return 0, ErrNoUser
	}

	userID, err := strconv.ParseUint(user.ID, 10, 32)
	if err != nil {
		logging.L().Warn("Failed to parse user ID", zap.String("id", user.ID))
		return 0, err
	}

	return uint(userID), nil
}
