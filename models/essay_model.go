package models

import "github.com/google/uuid"

type Essay struct {
	Base
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Topic       string    `gorm:"type:text;not null" json:"topic"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	Score       int       `gorm:"not null;default:0" json:"score"`
	Feedback    string    `gorm:"type:text" json:"feedback"`
	Corrections string    `gorm:"type:text" json:"corrections"`
}
