package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-upload/auth"
	"github.com/krishkalaria12/snap-upload/database"
	"github.com/krishkalaria12/snap-upload/middleware"
	"github.com/krishkalaria12/snap-upload/models"
	"github.com/krishkalaria12/snap-upload/upload"
	"gorm.io/gorm"
)

type UserResponse struct {
	ID          uint   `json:"id"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	FullName    string `json:"name"`
	AvatarURL   string `json:"avatar_url"`
	AvatarThumb string `json:"avatar_thumb"`
}

func userResponse(c *fiber.Ctx, user *models.User) (UserResponse, error) {
	avatarURL, err := models.UserUploads.UploadedFileURL(user, "avatar")
	if err != nil {
		return UserResponse{}, err
	}

	var thumb string
	if b, err := models.UserUploads.Image("avatar"); err == nil {
		if _, ok := b.Thumbs["small"]; ok {
			if thumb, err = models.UserUploads.ThumbFileURL(c.UserContext(), user, "avatar", "small"); err != nil {
				return UserResponse{}, err
			}
		}
	}

	return UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		Username:    user.Username,
		FullName:    user.FullName,
		AvatarURL:   avatarURL,
		AvatarThumb: thumb,
	}, nil
}

// findSelf loads the user named by :id, which must be the authenticated user.
func findSelf(c *fiber.Ctx) (*models.User, error) {
	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return nil, unauthorized(c)
	}

	id, err := paramID(c)
	if err != nil {
		return nil, errorResponse(c, fiber.StatusBadRequest, "Invalid user ID")
	}
	if id != userID {
		return nil, errorResponse(c, fiber.StatusForbidden, "You can only modify your own account")
	}

	var user models.User
	if err := database.GetDB().First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorResponse(c, fiber.StatusNotFound, "User not found")
		}
		return nil, errorResponse(c, fiber.StatusInternalServerError, "Database error")
	}
	return &user, nil
}

func GetUser(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid user ID")
	}

	var user models.User
	if err := database.GetDB().First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, fiber.StatusNotFound, "No user found with ID")
		}
		return errorResponse(c, fiber.StatusInternalServerError, "Database error")
	}

	response, err := userResponse(c, &user)
	if err != nil {
		return saveError(c, "Failed to resolve avatar URL", err)
	}
	return successResponse(c, fiber.StatusOK, "User found", response)
}

func CreateUser(c *fiber.Ctx) error {
	var input struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		FullName string `json:"name"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Wrong Input Data Format")
	}
	if len(input.Password) < 8 {
		return errorResponse(c, fiber.StatusBadRequest, "Password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to hash password")
	}

	user := models.User{
		Email:    input.Email,
		Username: input.Username,
		FullName: input.FullName,
		Password: hash,
	}

	if err := database.GetDB().WithContext(c.UserContext()).Create(&user).Error; err != nil {
		return saveError(c, "Failed to create user", err)
	}

	response, err := userResponse(c, &user)
	if err != nil {
		return saveError(c, "Failed to resolve avatar URL", err)
	}
	return successResponse(c, fiber.StatusCreated, "User created successfully", response)
}

func UpdateUser(c *fiber.Ctx) error {
	var input struct {
		Username string `json:"username"`
		FullName string `json:"name"`
	}
	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid input")
	}

	if input.Username == "" || input.FullName == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Username and name are required")
	}

	user, err := findSelf(c)
	if user == nil {
		return err
	}

	db := database.GetDB()
	var existing models.User
	if err := db.Where("username = ? AND id != ?", input.Username, user.ID).First(&existing).Error; err == nil {
		return errorResponse(c, fiber.StatusConflict, "Username already taken")
	}

	if user.Username != input.Username {
		user.Username = input.Username
		if err := models.UserUploads.Reattach(c.UserContext(), user, "avatar"); err != nil {
			return saveError(c, "Failed to move avatar", err)
		}
	}
	user.FullName = input.FullName

	if err := db.WithContext(c.UserContext()).Save(user).Error; err != nil {
		return saveError(c, "Failed to update user", err)
	}

	response, err := userResponse(c, user)
	if err != nil {
		return saveError(c, "Failed to resolve avatar URL", err)
	}
	return successResponse(c, fiber.StatusOK, "User successfully updated", response)
}

// UploadAvatar replaces the avatar of the authenticated user with the "avatar" form file.
func UploadAvatar(c *fiber.Ctx) error {
	user, err := findSelf(c)
	if user == nil {
		return err
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "No file provided")
	}
	user.Attach("avatar", upload.FromFileHeader(file))

	if err := database.GetDB().WithContext(c.UserContext()).Save(user).Error; err != nil {
		return saveError(c, "Failed to save avatar", err)
	}

	response, err := userResponse(c, user)
	if err != nil {
		return saveError(c, "Failed to resolve avatar URL", err)
	}
	return successResponse(c, fiber.StatusOK, "Avatar updated successfully", response)
}

func DeleteUser(c *fiber.Ctx) error {
	user, err := findSelf(c)
	if user == nil {
		return err
	}

	if err := database.GetDB().WithContext(c.UserContext()).Delete(user).Error; err != nil {
		return saveError(c, "Failed to delete user", err)
	}

	clearAuthCookie(c)
	return successResponse(c, fiber.StatusOK, "User deleted successfully", nil)
}
