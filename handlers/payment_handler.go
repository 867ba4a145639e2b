package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/anjiri1684/english_practice/database"
	"github.com/anjiri1684/english_practice/models"
	"github.com/anjiri1684/english_practice/payments"
	"github.com/anjiri1684/english_practice/services"
	"github.com/anjiri1684/english_practice/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type CheckoutRequest struct {
	TokenPackID string `json:"token_pack_id" validate:"required,uuid"`
}

func Checkout(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req CheckoutRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}
	packID, _ := uuid.Parse(req.TokenPackID)

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 20*time.Second)
	defer cancel()

	result, err := services.Checkout(ctx, user, packID)
	if err != nil {
		if errors.Is(err, payments.ErrNotConfigured) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Payments are not available right now"})
		}
		if errors.Is(err, services.ErrPackNotFound) {
			return serviceError(c, err, "")
		}
		log.WithError(err).Error("🔥 Checkout failed")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Failed to create payment"})
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// PaymentNotification is the gateway's server-to-server callback.
func PaymentNotification(c *fiber.Ctx) error {
	var n payments.Notification
	if err := c.BodyParser(&n); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	txn, err := services.HandleNotification(n)
	switch {
	case err == nil:
		return c.JSON(fiber.Map{"message": "OK", "status": txn.Status})
	case errors.Is(err, services.ErrTransactionSettled):
		return c.JSON(fiber.Map{"message": "Already processed", "status": txn.Status})
	case errors.Is(err, services.ErrInvalidSignature):
		log.WithField("order_id", n.OrderID).Warn("Rejected notification with a bad signature")
		return serviceError(c, err, "")
	default:
		return serviceError(c, err, "Failed to process notification")
	}
}

func ListMyTransactions(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	skip, limit := utils.Pagination(c)
	txns, total, err := services.ListTransactions(userID, skip, limit)
	if err != nil {
		return serviceError(c, err, "Failed to list transactions")
	}
	return c.JSON(pageResponse{Items: txns, Total: total, Skip: skip, Limit: limit})
}
