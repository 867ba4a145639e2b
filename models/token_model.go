package models

import "github.com/google/uuid"

type TokenBalance struct {
	Base
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Amount int       `gorm:"not null;default:0" json:"amount"`
}

type TokenPack struct {
	Base
	Name     string `gorm:"size:100;not null" json:"name"`
	Tokens   int    `gorm:"not null" json:"tokens"`
	Price    int64  `gorm:"not null" json:"price"`
	IsActive bool   `gorm:"not null;default:true" json:"is_active"`
}
