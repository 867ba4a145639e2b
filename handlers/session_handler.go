package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	config "github.com/anjiri1684/english_practice/configs"
	"github.com/anjiri1684/english_practice/database"
	"github.com/anjiri1684/english_practice/models"
	"github.com/anjiri1684/english_practice/services"
	"github.com/anjiri1684/english_practice/utils"
	"github.com/gofiber/fiber/v2"
)

const generationTimeout = 90 * time.Second

type CreateSessionRequest struct {
	Theme           string  `json:"theme"`
	Description     string  `json:"description" validate:"max=2000"`
	DurationMinutes int     `json:"duration_minutes" validate:"omitempty,min=1,max=60"`
	Position        *string `json:"position" validate:"omitempty,oneof=pro contra"`
	Level           *string `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
}

type TurnRequest struct {
	History []models.Turn `json:"history" validate:"dive"`
}

type SaveRequest struct {
	History []services.QA `json:"history" validate:"dive"`
}

// SessionHandler serves the routes shared by every conversation kind.
type SessionHandler struct {
	Kind models.SessionKind
}

func NewSessionHandler(kind models.SessionKind) *SessionHandler {
	return &SessionHandler{Kind: kind}
}

func (h *SessionHandler) load(c *fiber.Ctx, withAnswers bool) (*models.Session, error) {
	userID, err := currentUser(c)
	if err != nil {
		return nil, err
	}
	session, err := services.GetSession(userID, h.Kind, c.Params("id"), withAnswers)
	if err != nil {
		return nil, serviceError(c, err, "Failed to load session")
	}
	return session, nil
}

func (h *SessionHandler) Create(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req CreateSessionRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}
	req.Theme = strings.TrimSpace(req.Theme)
	if req.Theme == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Theme is required"})
	}
	if services.Kinds[h.Kind].RequiresPosition && req.Position == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Position must be either pro or contra"})
	}
	if !services.Kinds[h.Kind].RequiresPosition {
		req.Position = nil
	}

	session, err := services.CreateSession(userID, h.Kind, services.CreateSessionInput{
		Theme:           req.Theme,
		Description:     strings.TrimSpace(req.Description),
		DurationMinutes: req.DurationMinutes,
		Position:        req.Position,
		Level:           req.Level,
	})
	if err != nil {
		return serviceError(c, err, "Failed to create session")
	}
	return c.Status(fiber.StatusCreated).JSON(session)
}

func (h *SessionHandler) List(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	skip, limit := utils.Pagination(c)
	sessions, total, err := services.ListSessions(userID, h.Kind, skip, limit)
	if err != nil {
		return serviceError(c, err, "Failed to list sessions")
	}
	return c.JSON(pageResponse{Items: sessions, Total: total, Skip: skip, Limit: limit})
}

func (h *SessionHandler) Get(c *fiber.Ctx) error {
	session, err := h.load(c, true)
	if err != nil || session == nil {
		return err
	}
	return c.JSON(session)
}

func (h *SessionHandler) Turn(c *fiber.Ctx) error {
	session, err := h.load(c, false)
	if err != nil || session == nil {
		return err
	}

	var req TurnRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), generationTimeout)
	defer cancel()

	result, err := services.ExchangeTurn(ctx, session, req.History)
	if err != nil {
		return serviceError(c, err, "Failed to continue the conversation")
	}
	return c.JSON(result)
}

func (h *SessionHandler) End(c *fiber.Ctx) error {
	session, err := h.load(c, false)
	if err != nil || session == nil {
		return err
	}
	if err := services.EndSession(session); err != nil {
		return serviceError(c, err, "Failed to end session")
	}
	return c.JSON(fiber.Map{"ended_at": session.EndedAt, "redirect": services.ResultPath(session)})
}

func (h *SessionHandler) Save(c *fiber.Ctx) error {
	session, err := h.load(c, false)
	if err != nil || session == nil {
		return err
	}

	var req SaveRequest
	if len(c.Body()) > 0 {
		if err := parseAndValidate(c, &req); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), generationTimeout)
	defer cancel()

	saved, err := services.SaveResults(ctx, session, req.History)
	if err != nil {
		return serviceError(c, err, "Failed to save session results")
	}
	return c.JSON(fiber.Map{
		"score":      saved.Score,
		"suggestion": saved.Suggestion,
		"answers":    saved.Answers,
	})
}

func (h *SessionHandler) Illustrate(c *fiber.Ctx) error {
	session, err := h.load(c, false)
	if err != nil || session == nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), generationTimeout)
	defer cancel()

	updated, err := services.GenerateStoryImage(ctx, session)
	if err != nil {
		return serviceError(c, err, "Failed to illustrate story")
	}
	return c.JSON(fiber.Map{"image_url": updated.ImageURL, "cost": config.App.ImageTokenCost})
}

func (h *SessionHandler) Report(c *fiber.Ctx) error {
	session, err := h.load(c, true)
	if err != nil || session == nil {
		return err
	}

	var user models.User
	if err := database.DB.Select("id", "name").First(&user, "id = ?", session.UserID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load user"})
	}

	pdf, err := services.SessionReport(c.UserContext(), session, user.Name)
	if err != nil {
		return serviceError(c, err, "Failed to render report")
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s-%s.pdf"`, services.Kinds[h.Kind].Path, session.ID))
	return c.Send(pdf)
}
