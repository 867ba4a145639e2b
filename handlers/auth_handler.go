package handlers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	config "github.com/anjiri1684/english_practice/configs"
	"github.com/anjiri1684/english_practice/database"
	"github.com/anjiri1684/english_practice/models"
	"github.com/anjiri1684/english_practice/notifications"
	"github.com/anjiri1684/english_practice/services"
	"github.com/anjiri1684/english_practice/utils"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const resetTokenTTL = time.Hour

var errEmailTaken = errors.New("email already exists")

type RegisterRequest struct {
	Name          string  `json:"name" validate:"required,min=2,max=255"`
	Email         string  `json:"email" validate:"required,email"`
	Password      string  `json:"password" validate:"required,min=8"`
	Language      string  `json:"language" validate:"omitempty,oneof=en id"`
	AgreedToTerms bool    `json:"agreed_to_terms" validate:"eq=true"`
	ReferralCode  *string `json:"referral_code,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func RegisterUser(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash password"})
	}
	hashed := string(hashedPassword)

	language := req.Language
	if language == "" {
		language = "en"
	}

	newUser := models.User{
		Name:          strings.TrimSpace(req.Name),
		Email:         normalizeEmail(req.Email),
		Password:      &hashed,
		Language:      language,
		AgreedToTerms: true,
		Role:          models.RoleUser,
	}
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.User{}).Where("email = ?", newUser.Email).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return errEmailTaken
		}
		if err := tx.Create(&newUser).Error; err != nil {
			return err
		}
		return tx.Create(&models.TokenBalance{UserID: newUser.ID}).Error
	})
	if err != nil {
		if errors.Is(err, errEmailTaken) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Email already exists"})
		}
		log.WithError(err).Error("🔥 Failed to create user")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create user"})
	}

	if req.ReferralCode != nil && strings.TrimSpace(*req.ReferralCode) != "" {
		if _, err := services.ApplyReferralCode(newUser.ID, *req.ReferralCode); err != nil {
			log.WithError(err).WithField("code", *req.ReferralCode).Warn("Referral code at sign-up was not applied")
		}
	}

	subject, body := notifications.WelcomeEmail(newUser.Name)
	go notifications.SendEmail(newUser.Name, newUser.Email, subject, body)

	return c.Status(fiber.StatusCreated).JSON(newUser)
}

func LoginUser(c *fiber.Ctx) error {
	var req LoginRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	var user models.User
	if err := database.DB.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	}
	if user.Password == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.Password), []byte(req.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	}

	t, err := utils.GenerateToken(user, config.App.JWTSecret, config.App.JWTTTL)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create token"})
	}
	return c.JSON(fiber.Map{"token": t})
}

func ForgotPassword(c *fiber.Ctx) error {
	type Request struct {
		Email string `json:"email" validate:"required,email"`
	}
	var req Request
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	okMessage := fiber.Map{"message": "If an account with that email exists, a password reset link has been sent."}

	var user models.User
	if err := database.DB.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error; err != nil {
		return c.Status(fiber.StatusOK).JSON(okMessage)
	}

	token, err := utils.RandomToken(32)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate reset token"})
	}
	expiration := time.Now().Add(resetTokenTTL)

	if err := database.DB.Model(&user).Updates(map[string]interface{}{
		"reset_password_token":      token,
		"reset_password_expires_at": expiration,
	}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save reset token"})
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(config.App.FrontendURL, "/"), token)
	subject, body := notifications.PasswordResetEmail(resetLink)
	go notifications.SendEmail(user.Name, user.Email, subject, body)

	return c.Status(fiber.StatusOK).JSON(okMessage)
}

func ResetPassword(c *fiber.Ctx) error {
	type Request struct {
		Token    string `json:"token" validate:"required"`
		Password string `json:"password" validate:"required,min=8"`
	}
	var req Request
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	invalid := fiber.Map{"error": "Invalid or expired reset token"}

	var user models.User
	if err := database.DB.Where("reset_password_token = ?", req.Token).First(&user).Error; err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(invalid)
	}
	if user.ResetPasswordExpiresAt == nil || user.ResetPasswordExpiresAt.Before(time.Now()) {
		database.DB.Model(&user).Updates(map[string]interface{}{
			"reset_password_token":      nil,
			"reset_password_expires_at": nil,
		})
		return c.Status(fiber.StatusBadRequest).JSON(invalid)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash new password"})
	}

	// The token match in the WHERE clause makes it single-use under concurrency.
	res := database.DB.Model(&models.User{}).
		Where("id = ? AND reset_password_token = ?", user.ID, req.Token).
		Updates(map[string]interface{}{
			"password":                  string(hashedPassword),
			"reset_password_token":      nil,
			"reset_password_expires_at": nil,
		})
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update password"})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(invalid)
	}

	return c.JSON(fiber.Map{"message": "Password has been reset successfully."})
}
