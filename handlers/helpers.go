package handlers

import (
	"errors"

	"github.com/anjiri1684/english_practice/genai"
	"github.com/anjiri1684/english_practice/middleware"
	"github.com/anjiri1684/english_practice/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
)

var validate = validator.New()

// parseAndValidate returns a *fiber.Error, rendered as {"error": ...} by the app error handler.
func parseAndValidate(c *fiber.Ctx, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Cannot parse JSON")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

func currentUser(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := middleware.CurrentUserID(c)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}
	return id, nil
}

// serviceError maps the service layer's sentinel errors onto HTTP responses.
func serviceError(c *fiber.Ctx, err error, fallback string) error {
	status := fiber.StatusInternalServerError
	message := fallback

	switch {
	case errors.Is(err, services.ErrInsufficientTokens):
		status, message = fiber.StatusForbidden, err.Error()
	case errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, services.ErrEssayNotFound),
		errors.Is(err, services.ErrPackNotFound),
		errors.Is(err, services.ErrTransactionNotFound),
		errors.Is(err, services.ErrReferralNotFound):
		status, message = fiber.StatusNotFound, err.Error()
	case errors.Is(err, services.ErrSessionEnded),
		errors.Is(err, services.ErrSessionActive),
		errors.Is(err, services.ErrAlreadyScored),
		errors.Is(err, services.ErrNotScored),
		errors.Is(err, services.ErrNoAnswers),
		errors.Is(err, services.ErrReferralOwnCode),
		errors.Is(err, services.ErrReferralAlreadyUsed),
		errors.Is(err, services.ErrNothingToClaim),
		errors.Is(err, services.ErrAmountMismatch):
		status, message = fiber.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrInvalidSignature):
		status, message = fiber.StatusForbidden, err.Error()
	case errors.Is(err, genai.ErrBlocked):
		status, message = fiber.StatusBadRequest, "The request was rejected by the content filter"
	case errors.Is(err, services.ErrMalformedReply):
		message = err.Error()
	case errors.Is(err, genai.ErrNotConfigured),
		errors.Is(err, services.ErrStorageNotConfigured),
		errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests):
		status, message = fiber.StatusServiceUnavailable, "The service is temporarily unavailable, please try again later"
	}

	if status >= fiber.StatusInternalServerError {
		log.WithError(err).WithField("path", c.Path()).Error("🔥 " + fallback)
	}
	return c.Status(status).JSON(fiber.Map{"error": message})
}

type pageResponse struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
	Skip  int         `json:"skip"`
	Limit int         `json:"limit"`
}
