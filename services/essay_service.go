package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	config "github.com/anjiri1684/english_practice/configs"
	"github.com/anjiri1684/english_practice/database"
	"github.com/anjiri1684/english_practice/genai"
	"github.com/anjiri1684/english_practice/models"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func GenerateEssayTopic(ctx context.Context, level string) (string, error) {
	topic, err := genai.Client.Generate(ctx, EssayTopicPrompt(level), false)
	if err != nil {
		return "", fmt.Errorf("failed to generate topic: %w", err)
	}
	return strings.Trim(strings.TrimSpace(topic), `"`), nil
}

// SubmitEssay grades the essay and, only once grading succeeded, debits the
// cost and stores the essay in one transaction.
func SubmitEssay(ctx context.Context, userID uuid.UUID, topic, content string) (*models.Essay, error) {
	cost := config.App.EssayTokenCost
	balance, err := Balance(database.DB, userID)
	if err != nil {
		return nil, err
	}
	if balance < cost {
		return nil, ErrInsufficientTokens
	}

	reply, err := genai.Client.Generate(ctx, EssayGradingPrompt(topic, content), true)
	if err != nil {
		return nil, fmt.Errorf("failed to grade essay: %w", err)
	}
	grade, err := ParseEssayGrading(reply)
	if err != nil {
		log.WithFields(log.Fields{"user_id": userID, "reply": reply}).Warn("Malformed essay grading reply")
		return nil, err
	}

	essay := models.Essay{
		UserID:      userID,
		Topic:       topic,
		Content:     content,
		Score:       grade.Score,
		Feedback:    grade.Feedback,
		Corrections: grade.Corrections,
	}
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := Debit(tx, userID, cost); err != nil {
			return err
		}
		return tx.Create(&essay).Error
	})
	if err != nil {
		return nil, err
	}
	return &essay, nil
}

func ListEssays(userID uuid.UUID, skip, limit int) ([]models.Essay, int64, error) {
	var total int64
	if err := database.DB.Model(&models.Essay{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var essays []models.Essay
	err := database.DB.Where("user_id = ?", userID).
		Order("created_at desc").
		Offset(skip).
		Limit(limit).
		Find(&essays).Error
	return essays, total, err
}

func GetEssay(userID uuid.UUID, id string) (*models.Essay, error) {
	essayID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrEssayNotFound
	}
	var essay models.Essay
	err = database.DB.Where("id = ? AND user_id = ?", essayID, userID).First(&essay).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEssayNotFound
	}
	if err != nil {
		return nil, err
	}
	return &essay, nil
}
