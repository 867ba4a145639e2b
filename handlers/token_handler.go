package handlers

import (
	"github.com/anjiri1684/english_practice/database"
	"github.com/anjiri1684/english_practice/models"
	"github.com/anjiri1684/english_practice/services"
	"github.com/gofiber/fiber/v2"
)

func GetTokenBalance(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	balance, err := services.Balance(database.DB, userID)
	if err != nil {
		return serviceError(c, err, "Failed to load balance")
	}
	return c.JSON(fiber.Map{"balance": balance})
}

func ListTokenPacks(c *fiber.Ctx) error {
	var packs []models.TokenPack
	if err := database.DB.Where("is_active = ?", true).Order("price asc").Find(&packs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load token packs"})
	}
	return c.JSON(packs)
}
