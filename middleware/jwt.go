package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roxas19/DRP/config"
	"github.com/roxas19/DRP/database"
	"github.com/roxas19/DRP/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

// GenerateJWT generates a JWT token for the user
func GenerateJWT(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"userId": user.ID,
		"name":   user.Name,
		"roles":  []string(user.Roles),
		"email":  user.Email,
		"iat":    time.Now().Unix(),                     // issued at
		"exp":    time.Now().Add(24 * time.Hour).Unix(), // expiry 24h
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	jwtSecret := []byte(config.AppConfig.JWTKey)

	return token.SignedString(jwtSecret)
}

var errNoToken = errors.New("missing or invalid Authorization header")

// parseBearer extracts and validates the bearer token, returning the user id claim.
func parseBearer(c *fiber.Ctx) (uint, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return 0, errNoToken
	}

	// The token should be prefixed with "Bearer "
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return 0, errors.New("invalid Authorization header format")
	}
	tokenString := authHeader[len("Bearer "):]

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.AppConfig.JWTKey), nil
	})
	if err != nil || !token.Valid {
		return 0, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("invalid token payload")
	}
	// JWT numbers decode as float64
	userID, ok := claims["userId"].(float64)
	if !ok || userID <= 0 {
		return 0, errors.New("invalid token payload")
	}
	return uint(userID), nil
}

// JWTMiddleware is a middleware to check for valid JWT token in the request
func JWTMiddleware(c *fiber.Ctx) error {
	userID, err := parseBearer(c)
	if err != nil {
		return JsonResponse(c, fiber.StatusUnauthorized, false, capitalize(err.Error()), nil)
	}
	c.Locals("userId", userID)
	return c.Next()
}

// OptionalJWTMiddleware sets userId when a valid token is present and lets
// anonymous requests through. A malformed token is still rejected.
func OptionalJWTMiddleware(c *fiber.Ctx) error {
	userID, err := parseBearer(c)
	if errors.Is(err, errNoToken) {
		return c.Next()
	}
	if err != nil {
		return JsonResponse(c, fiber.StatusUnauthorized, false, capitalize(err.Error()), nil)
	}
	c.Locals("userId", userID)
	return c.Next()
}

// CurrentUser loads the authenticated user once per request. It returns nil
// for anonymous requests and for tokens whose user no longer exists.
func CurrentUser(c *fiber.Ctx) (*models.User, error) {
	if u, ok := c.Locals("user").(*models.User); ok {
		return u, nil
	}
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return nil, nil
	}
	var user models.User
	err := database.Database.Db.WithContext(c.UserContext()).First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	c.Locals("user", &user)
	return &user, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
