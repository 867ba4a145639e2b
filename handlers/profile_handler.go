package handlers

import (
	"errors"
	"strings"
	"time"

	config "github.com/anjiri1684/english_practice/configs"
	"github.com/anjiri1684/english_practice/database"
	"github.com/anjiri1684/english_practice/models"
	"github.com/anjiri1684/english_practice/services"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UpdateProfileRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=2,max=255"`
	Image    *string `json:"image" validate:"omitempty,url,max=512"`
	Language *string `json:"language" validate:"omitempty,oneof=en id"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

func loadUser(c *fiber.Ctx) (*models.User, error) {
	userID, err := currentUser(c)
	if err != nil {
		return nil, err
	}
	var user models.User
	err = database.DB.Preload("TokenBalance").First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "User not found")
	}
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to load user")
	}
	return &user, nil
}

func GetMyProfile(c *fiber.Ctx) error {
	user, err := loadUser(c)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func UpdateMyProfile(c *fiber.Ctx) error {
	user, err := loadUser(c)
	if err != nil {
		return err
	}

	var req UpdateProfileRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Image != nil {
		updates["image"] = *req.Image
	}
	if req.Language != nil {
		updates["language"] = *req.Language
	}
	if len(updates) == 0 {
		return c.JSON(user)
	}

	if err := database.DB.Model(user).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile"})
	}
	if err := database.DB.Preload("TokenBalance").First(user, "id = ?", user.ID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reload profile"})
	}
	return c.JSON(user)
}

func ChangeMyPassword(c *fiber.Ctx) error {
	user, err := loadUser(c)
	if err != nil {
		return err
	}

	var req ChangePasswordRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	// Accounts created through Google have no password to confirm.
	if user.Password != nil {
		if err := bcrypt.CompareHashAndPassword([]byte(*user.Password), []byte(req.CurrentPassword)); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Current password is incorrect"})
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash new password"})
	}
	if err := database.DB.Model(user).Update("password", string(hashedPassword)).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update password"})
	}
	return c.JSON(fiber.Map{"message": "Password updated successfully."})
}

// GetUploadSignature signs a direct browser upload of a profile picture.
func GetUploadSignature(c *fiber.Ctx) error {
	sig, err := services.SignProfileUpload(config.App.CloudinaryURL, time.Now())
	if err != nil {
		return serviceError(c, err, "Failed to sign upload")
	}
	return c.JSON(sig)
}
