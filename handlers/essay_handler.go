package handlers

import (
	"context"
	"strings"

	"github.com/anjiri1684/english_practice/services"
	"github.com/anjiri1684/english_practice/utils"
	"github.com/gofiber/fiber/v2"
)

type EssayTopicRequest struct {
	Level string `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
}

type SubmitEssayRequest struct {
	Topic   string `json:"topic" validate:"required,max=500"`
	Content string `json:"content" validate:"required,min=50,max=10000"`
}

func GenerateEssayTopic(c *fiber.Ctx) error {
	var req EssayTopicRequest
	if len(c.Body()) > 0 {
		if err := parseAndValidate(c, &req); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), generationTimeout)
	defer cancel()

	topic, err := services.GenerateEssayTopic(ctx, req.Level)
	if err != nil {
		return serviceError(c, err, "Failed to generate topic")
	}
	return c.JSON(fiber.Map{"topic": topic})
}

func SubmitEssay(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req SubmitEssayRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), generationTimeout)
	defer cancel()

	essay, err := services.SubmitEssay(ctx, userID, strings.TrimSpace(req.Topic), strings.TrimSpace(req.Content))
	if err != nil {
		return serviceError(c, err, "Failed to grade essay")
	}
	return c.Status(fiber.StatusCreated).JSON(essay)
}

func ListEssays(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	skip, limit := utils.Pagination(c)
	essays, total, err := services.ListEssays(userID, skip, limit)
	if err != nil {
		return serviceError(c, err, "Failed to list essays")
	}
	return c.JSON(pageResponse{Items: essays, Total: total, Skip: skip, Limit: limit})
}

func GetEssay(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	essay, err := services.GetEssay(userID, c.Params("id"))
	if err != nil {
		return serviceError(c, err, "Failed to load essay")
	}
	return c.JSON(essay)
}
