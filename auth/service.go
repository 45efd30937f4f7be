package auth

import (
	"errors"
	"net/mail"
	"strconv"
	"time"

	"github.com/go-pkgz/auth/v2"
	"github.com/go-pkgz/auth/v2/avatar"
	"github.com/go-pkgz/auth/v2/provider"
	"github.com/go-pkgz/auth/v2/token"
	"github.com/golang-jwt/jwt/v5"
	"github.com/krishkalaria12/snap-upload/config"
	"github.com/krishkalaria12/snap-upload/database"
	"github.com/krishkalaria12/snap-upload/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	Issuer         = "snap-upload-app"
	TokenDuration  = time.Hour * 24
	CookieDuration = time.Hour * 24 * 7
)

// Global auth service instance
var authService *auth.Service

// SetupAuthService builds the JWT service with a direct provider backed by the users table.
func SetupAuthService(settings config.Settings) *auth.Service {
	secret := settings.JWTSecret
	url := settings.BaseURL
	if url == "" {
		url = "http://localhost:" + settings.Port
	}

	options := auth.Opts{
		SecretReader: token.SecretFunc(func(id string) (string, error) {
			if secret == "" {
				return "", errors.New("JWT_SECRET not set")
			}
			return secret, nil
		}),
		TokenDuration:  TokenDuration,
		CookieDuration: CookieDuration,
		Issuer:         Issuer,
		URL:            url,
		AvatarStore:    avatar.NewLocalFS("/tmp/avatars"),
	}

	service := auth.NewService(options)

	service.AddDirectProvider("local", provider.CredCheckerFunc(func(identity, password string) (bool, error) {
		return ValidateUserCredentials(identity, password)
	}))

	authService = service
	return service
}

// Get the auth service instance
func GetAuthService() *auth.Service {
	return authService
}

// ValidateUserCredentials validates user credentials against your database
func ValidateUserCredentials(identity, password string) (bool, error) {
	user, err := FindUser(identity)
	if err != nil {
		return false, err
	}

	if user == nil {
		return false, nil
	}

	return CheckPasswordHash(password, user.Password), nil
}

// FindUser looks a user up by email or username. It returns nil when there is no match.
func FindUser(identity string) (*models.User, error) {
	db := database.GetDB()
	var user models.User

	query := db.Where("username = ?", identity)
	if isEmail(identity) {
		query = db.Where("email = ?", identity)
	}

	if err := query.First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// IssueToken signs a JWT whose subject ID is the numeric user ID.
func IssueToken(user *models.User) (string, error) {
	if authService == nil {
		return "", errors.New("auth service not initialized")
	}

	claims := token.Claims{
		User: &token.User{
			ID:    strconv.FormatUint(uint64(user.ID), 10),
			Name:  user.FullName,
			Email: user.Email,
			Attributes: map[string]interface{}{
				"username": user.Username,
			},
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Audience:  []string{Issuer},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	return authService.TokenService().Token(claims)
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	return string(hashed), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func isEmail(identity string) bool {
	_, err := mail.ParseAddress(identity)
	return err == nil
}
