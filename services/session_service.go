package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	config "github.com/anjiri1684/english_practice/configs"
	"github.com/anjiri1684/english_practice/database"
	"github.com/anjiri1684/english_practice/genai"
	"github.com/anjiri1684/english_practice/models"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CreateSessionInput struct {
	Theme           string
	Description     string
	DurationMinutes int
	Position        *string
	Level           *string
}

func CreateSession(userID uuid.UUID, kind models.SessionKind, in CreateSessionInput) (*models.Session, error) {
	minutes := in.DurationMinutes
	if minutes <= 0 {
		minutes = config.App.SessionDefaultMinutes
	}

	session := models.Session{
		Kind:            kind,
		UserID:          userID,
		Theme:           in.Theme,
		Description:     in.Description,
		Position:        in.Position,
		Level:           in.Level,
		StartedAt:       time.Now(),
		DurationSeconds: minutes * 60,
		History:         datatypes.JSON("[]"),
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := Debit(tx, userID, config.App.SessionTokenCost); err != nil {
			return err
		}
		return tx.Create(&session).Error
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"session_id": session.ID, "kind": kind, "user_id": userID}).Info("Session created")
	return &session, nil
}

func GetSession(userID uuid.UUID, kind models.SessionKind, id string, withAnswers bool) (*models.Session, error) {
	sessionID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	q := database.DB
	if withAnswers {
		q = q.Preload("Answers", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") })
	}

	var session models.Session
	err = q.Where("id = ? AND user_id = ? AND kind = ?", sessionID, userID, kind).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func ListSessions(userID uuid.UUID, kind models.SessionKind, skip, limit int) ([]models.Session, int64, error) {
	var total int64
	q := database.DB.Model(&models.Session{}).Where("user_id = ? AND kind = ?", userID, kind)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sessions []models.Session
	err := database.DB.Where("user_id = ? AND kind = ?", userID, kind).
		Order("created_at desc").
		Offset(skip).
		Limit(limit).
		Find(&sessions).Error
	return sessions, total, err
}

func DecodeHistory(s *models.Session) ([]models.Turn, error) {
	if len(s.History) == 0 {
		return nil, nil
	}
	var turns []models.Turn
	if err := json.Unmarshal(s.History, &turns); err != nil {
		return nil, fmt.Errorf("failed to decode session history: %w", err)
	}
	return turns, nil
}

func encodeHistory(turns []models.Turn) (datatypes.JSON, error) {
	if turns == nil {
		turns = []models.Turn{}
	}
	b, err := json.Marshal(turns)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

type TurnResult struct {
	History  []models.Turn `json:"history"`
	Ended    bool          `json:"ended"`
	Redirect string        `json:"redirect,omitempty"`
}

// ExchangeTurn answers the learner's latest turn. History is whatever the
// client sends; it replaces the stored history once the reply is appended.
func ExchangeTurn(ctx context.Context, s *models.Session, history []models.Turn) (*TurnResult, error) {
	if s.Ended() {
		stored, err := DecodeHistory(s)
		if err != nil {
			return nil, err
		}
		return &TurnResult{History: stored, Ended: true, Redirect: ResultPath(s)}, nil
	}

	if time.Now().After(s.Deadline()) {
		history = append(history, models.Turn{Role: models.RoleAssistant, Text: Kinds[s.Kind].Closing})
		if err := finish(s, history); err != nil {
			return nil, err
		}
		return &TurnResult{History: history, Ended: true, Redirect: ResultPath(s)}, nil
	}

	reply, err := genai.Client.Chat(ctx, SystemPrompt(s), history)
	if err != nil {
		return nil, fmt.Errorf("failed to generate reply: %w", err)
	}
	history = append(history, models.Turn{Role: models.RoleAssistant, Text: reply})

	encoded, err := encodeHistory(history)
	if err != nil {
		return nil, err
	}
	res := database.DB.Model(&models.Session{}).
		Where("id = ? AND ended_at IS NULL", s.ID).
		Update("history", encoded)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Ended by a concurrent request or the scheduler while we were waiting on the model.
		return &TurnResult{History: history, Ended: true, Redirect: ResultPath(s)}, nil
	}
	s.History = encoded
	return &TurnResult{History: history, Ended: false}, nil
}

// finish stores the final history and ends the session if it is still active.
func finish(s *models.Session, history []models.Turn) error {
	encoded, err := encodeHistory(history)
	if err != nil {
		return err
	}
	now := time.Now()
	res := database.DB.Model(&models.Session{}).
		Where("id = ? AND ended_at IS NULL", s.ID).
		Updates(map[string]interface{}{"history": encoded, "ended_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		s.History = encoded
		s.EndedAt = &now
	}
	return nil
}

func EndSession(s *models.Session) error {
	now := time.Now()
	res := database.DB.Model(&models.Session{}).
		Where("id = ? AND ended_at IS NULL", s.ID).
		Update("ended_at", now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSessionEnded
	}
	s.EndedAt = &now
	return nil
}

// SaveResults grades an ended session and stores one answer row per pair
// together with the averaged score, all in one transaction.
func SaveResults(ctx context.Context, s *models.Session, pairs []QA) (*models.Session, error) {
	if !s.Ended() {
		return nil, ErrSessionActive
	}
	if s.Score != nil {
		return nil, ErrAlreadyScored
	}

	if len(pairs) == 0 {
		turns, err := DecodeHistory(s)
		if err != nil {
			return nil, err
		}
		pairs = PairsFromHistory(turns)
	}
	if len(pairs) == 0 {
		return nil, ErrNoAnswers
	}

	reply, err := genai.Client.Generate(ctx, GradingPrompt(s, pairs), true)
	if err != nil {
		return nil, fmt.Errorf("failed to grade session: %w", err)
	}
	graded, err := ParseGrading(reply, len(pairs))
	if err != nil {
		log.WithFields(log.Fields{"session_id": s.ID, "reply": reply}).Warn("Malformed grading reply")
		return nil, err
	}

	score := graded.Score()
	var suggestion *string
	if graded.Suggestion != "" {
		suggestion = &graded.Suggestion
	}

	answers := make([]models.Answer, len(pairs))
	for i, p := range pairs {
		g := graded.Grades[i]
		answers[i] = models.Answer{
			SessionID:  s.ID,
			Position:   i,
			Question:   p.Question,
			Answer:     p.Answer,
			Suggestion: g.Suggestion,
			Reason:     g.Reason,
			Mark:       g.Mark,
		}
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Session{}).
			Where("id = ? AND score IS NULL", s.ID).
			Updates(map[string]interface{}{"score": score, "suggestion": suggestion})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyScored
		}
		return tx.Create(&answers).Error
	})
	if err != nil {
		return nil, err
	}

	s.Score = &score
	s.Suggestion = suggestion
	s.Answers = answers
	log.WithFields(log.Fields{"session_id": s.ID, "score": score, "answers": len(answers)}).Info("Session results saved")
	return s, nil
}

// CloseOverdueSessions ends active sessions whose deadline plus grace has
// passed. Turn history is left as the client last saved it.
func CloseOverdueSessions(now time.Time, grace time.Duration) (int, error) {
	var active []models.Session
	if err := database.DB.Select("id", "started_at", "duration_seconds").
		Where("ended_at IS NULL").
		Find(&active).Error; err != nil {
		return 0, err
	}

	closed := 0
	for i := range active {
		s := &active[i]
		if !now.After(s.Deadline().Add(grace)) {
			continue
		}
		res := database.DB.Model(&models.Session{}).
			Where("id = ? AND ended_at IS NULL", s.ID).
			Update("ended_at", now)
		if res.Error != nil {
			return closed, res.Error
		}
		closed += int(res.RowsAffected)
	}
	return closed, nil
}
