package authController

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/roxas19/DRP/config"
	"github.com/roxas19/DRP/database"
	"github.com/roxas19/DRP/middleware"
	"github.com/roxas19/DRP/models"
	"github.com/roxas19/DRP/validators"
	authValidator "github.com/roxas19/DRP/validators/auth"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func Signup(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedUser").(*authValidator.SignupRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	// Check if email already exists
	if err := db.Where("email = ?", reqData.Email).First(&models.User{}).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Email is already registered!", nil)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(reqData.Password), config.AppConfig.SaltRound)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}

	newUser := models.User{
		Name:     reqData.Name,
		Email:    reqData.Email,
		Password: string(hashedPassword),
		Roles:    []string{reqData.Role},
	}
	if reqData.Role == models.RoleInstructor {
		newUser.InstructorProfile = &models.InstructorProfile{}
	} else {
		newUser.StudentProfile = &models.StudentProfile{}
	}

	if err := db.Create(&newUser).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Email is already registered!", nil)
		}
		log.Printf("Error saving user to database: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to Signup user!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "User registered successfully.", newUser)
}

func Login(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedUser").(*authValidator.LoginRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("email = ?", reqData.Email).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(reqData.Password)); err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
	}

	now := time.Now()
	if err := database.Database.Db.Model(&user).UpdateColumn("last_login", now).Error; err != nil {
		log.Printf("Error saving last login time: %v", err)
	}
	user.LastLogin = &now

	token, err := middleware.GenerateJWT(&user)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate token", nil)
	}

	ip := c.IP()
	if forwarded := c.Get("X-Forwarded-For"); forwarded != "" {
		ip = strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	device := c.Get("User-Agent")
	if len(device) > 255 {
		device = device[:255]
	}
	history := models.LoginHistory{UserID: user.ID, IPAddress: ip, Device: device}
	if err := database.Database.Db.Create(&history).Error; err != nil {
		log.Printf("Error saving login history: %v", err)
	}
	log.Printf("User %d logged in from IP: %s", user.ID, ip)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login successful.", fiber.Map{
		"user":  user,
		"token": token,
	})
}

// LoginHistoryList returns the caller's logins, newest first.
func LoginHistoryList(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	page, _ := c.Locals("pagination").(validators.Pagination)

	var history []models.LoginHistory
	var total int64
	q := database.Database.Db.Model(&models.LoginHistory{}).Where("user_id = ?", userID).Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch login history!", nil)
	}
	if err := q.Order("created_at desc, id desc").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&history).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch login history!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login History List.", fiber.Map{
		"loginHistory": history,
		"pagination": fiber.Map{
			"total": total,
			"page":  page.Page,
			"limit": page.Limit,
		},
	})
}
