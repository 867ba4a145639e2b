package handlers

import (
	"errors"
	"strings"

	"github.com/anjiri1684/english_practice/database"
	"github.com/anjiri1684/english_practice/models"
	"github.com/anjiri1684/english_practice/services"
	"github.com/anjiri1684/english_practice/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type GrantTokensRequest struct {
	Amount int `json:"amount" validate:"required,min=1,max=100000"`
}

type TokenPackRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Tokens   int    `json:"tokens" validate:"required,min=1"`
	Price    int64  `json:"price" validate:"required,min=1"`
	IsActive *bool  `json:"is_active"`
}

type UpdateTokenPackRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=100"`
	Tokens   *int    `json:"tokens" validate:"omitempty,min=1"`
	Price    *int64  `json:"price" validate:"omitempty,min=1"`
	IsActive *bool   `json:"is_active"`
}

func AdminListUsers(c *fiber.Ctx) error {
	skip, limit := utils.Pagination(c)

	query := database.DB.Model(&models.User{})
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(email) LIKE ? OR LOWER(name) LIKE ?", like, like)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to count users"})
	}

	var users []models.User
	if err := query.Preload("TokenBalance").Order("created_at desc").Offset(skip).Limit(limit).Find(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve users"})
	}
	return c.JSON(pageResponse{Items: users, Total: total, Skip: skip, Limit: limit})
}

func AdminGrantTokens(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}
	var req GrantTokensRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	if err := database.DB.Transaction(func(tx *gorm.DB) error {
		return services.Credit(tx, userID, req.Amount)
	}); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to grant tokens"})
	}

	balance, _ := services.Balance(database.DB, userID)
	log.WithFields(log.Fields{"user_id": userID, "amount": req.Amount}).Info("Admin granted tokens")
	return c.JSON(fiber.Map{"balance": balance})
}

func AdminListTokenPacks(c *fiber.Ctx) error {
	var packs []models.TokenPack
	if err := database.DB.Order("price asc").Find(&packs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load token packs"})
	}
	return c.JSON(packs)
}

func AdminCreateTokenPack(c *fiber.Ctx) error {
	var req TokenPackRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	pack := models.TokenPack{Name: req.Name, Tokens: req.Tokens, Price: req.Price, IsActive: true}
	if req.IsActive != nil {
		pack.IsActive = *req.IsActive
	}
	// Select("*") writes is_active even when false; the column default is true.
	if err := database.DB.Select("*").Create(&pack).Error; err != nil {
		log.WithError(err).Error("🔥 Failed to create token pack")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create token pack"})
	}
	return c.Status(fiber.StatusCreated).JSON(pack)
}

func findPack(c *fiber.Ctx) (*models.TokenPack, error) {
	var pack models.TokenPack
	err := database.DB.First(&pack, "id = ?", c.Params("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "Token pack not found")
	}
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to load token pack")
	}
	return &pack, nil
}

func AdminUpdateTokenPack(c *fiber.Ctx) error {
	if _, err := uuid.Parse(c.Params("id")); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid token pack ID"})
	}
	pack, err := findPack(c)
	if err != nil {
		return err
	}
	var req UpdateTokenPackRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Tokens != nil {
		updates["tokens"] = *req.Tokens
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) > 0 {
		if err := database.DB.Model(pack).Updates(updates).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update token pack"})
		}
	}
	if pack, err = findPack(c); err != nil {
		return err
	}
	return c.JSON(pack)
}

func AdminDeactivateTokenPack(c *fiber.Ctx) error {
	if _, err := uuid.Parse(c.Params("id")); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid token pack ID"})
	}
	pack, err := findPack(c)
	if err != nil {
		return err
	}
	if err := database.DB.Model(pack).Update("is_active", false).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to deactivate token pack"})
	}
	return c.JSON(fiber.Map{"message": "Token pack deactivated."})
}

func AdminListTransactions(c *fiber.Ctx) error {
	skip, limit := utils.Pagination(c)

	query := database.DB.Model(&models.Transaction{})
	if status := strings.ToUpper(c.Query("status")); status != "" {
		switch status {
		case models.TransactionPending, models.TransactionSuccess, models.TransactionFailed:
			query = query.Where("status = ?", status)
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status filter"})
		}
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to count transactions"})
	}
	var txns []models.Transaction
	if err := query.Preload("TokenPack").Order("created_at desc").Offset(skip).Limit(limit).Find(&txns).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve transactions"})
	}
	return c.JSON(pageResponse{Items: txns, Total: total, Skip: skip, Limit: limit})
}

func AdminStats(c *fiber.Ctx) error {
	stats, err := services.Stats()
	if err != nil {
		return serviceError(c, err, "Failed to compute stats")
	}
	return c.JSON(stats)
}
