package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SessionKind string

const (
	KindDailyTalk    SessionKind = "daily_talk"
	KindDebate       SessionKind = "debate"
	KindStoryTelling SessionKind = "storytelling"
)

const (
	RoleAssistant = "assistant"
	RoleLearner   = "user"
)

// Turn is one role-tagged text block of a conversation.
type Turn struct {
	Role string `json:"role" validate:"required,oneof=user assistant"`
	Text string `json:"text" validate:"required"`
}

type Session struct {
	Base
	Kind            SessionKind    `gorm:"size:20;not null;index" json:"kind"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Theme           string         `gorm:"size:255;not null" json:"theme"`
	Description     string         `gorm:"type:text" json:"description"`
	Position        *string        `gorm:"size:10" json:"position,omitempty"`
	Level           *string        `gorm:"size:20" json:"level,omitempty"`
	StartedAt       time.Time      `gorm:"not null" json:"started_at"`
	DurationSeconds int            `gorm:"not null" json:"duration_seconds"`
	EndedAt         *time.Time     `gorm:"index" json:"ended_at"`
	History         datatypes.JSON `json:"history"`
	Score           *int           `json:"score"`
	Suggestion      *string        `gorm:"type:text" json:"suggestion"`
	ImageURL        *string        `gorm:"size:512" json:"image_url,omitempty"`

	Answers []Answer `gorm:"foreignKey:SessionID" json:"answers,omitempty"`
}

func (s *Session) Ended() bool {
	return s.EndedAt != nil
}

// Deadline is the wall-clock moment after which the session no longer accepts turns.
func (s *Session) Deadline() time.Time {
	return s.StartedAt.Add(time.Duration(s.DurationSeconds) * time.Second)
}

type Answer struct {
	Base
	SessionID  uuid.UUID `gorm:"type:uuid;not null;index" json:"session_id"`
	Position   int       `gorm:"not null" json:"position"`
	Question   string    `gorm:"type:text;not null" json:"question"`
	Answer     string    `gorm:"type:text;not null" json:"answer"`
	Suggestion string    `gorm:"type:text" json:"suggestion"`
	Reason     string    `gorm:"type:text" json:"reason"`
	Mark       int       `gorm:"not null;default:0" json:"mark"`
}
