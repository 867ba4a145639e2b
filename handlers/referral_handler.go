package handlers

import (
	"github.com/anjiri1684/english_practice/services"
	"github.com/gofiber/fiber/v2"
)

type ApplyReferralRequest struct {
	Code string `json:"code" validate:"required,min=4,max=10"`
}

func GetReferral(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	stats, err := services.GetReferralStats(userID)
	if err != nil {
		return serviceError(c, err, "Failed to load referral data")
	}
	return c.JSON(stats)
}

func ApplyReferral(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req ApplyReferralRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	result, err := services.ApplyReferralCode(userID, req.Code)
	if err != nil {
		return serviceError(c, err, "Failed to apply referral code")
	}
	return c.JSON(fiber.Map{"message": "Referral code applied.", "bonus": result.Bonus})
}

func ClaimReferral(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	claimed, err := services.ClaimReferralTokens(userID)
	if err != nil {
		return serviceError(c, err, "Failed to claim referral tokens")
	}
	return c.JSON(fiber.Map{"message": "Referral tokens claimed.", "claimed": claimed})
}
