package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	Base
	Name          string  `gorm:"size:255;not null" json:"name"`
	Email         string  `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Password      *string `gorm:"size:255" json:"-"`
	GoogleID      *string `gorm:"size:255;uniqueIndex" json:"-"`
	Image         *string `gorm:"size:512" json:"image"`
	Language      string  `gorm:"size:5;not null;default:'en'" json:"language"`
	AgreedToTerms bool    `gorm:"not null;default:false" json:"agreed_to_terms"`
	Role          string  `gorm:"size:20;not null;default:'user'" json:"role"`

	ResetPasswordToken     *string    `gorm:"size:255;uniqueIndex" json:"-"`
	ResetPasswordExpiresAt *time.Time `json:"-"`

	TokenBalance *TokenBalance `gorm:"foreignKey:UserID" json:"token_balance,omitempty"`
}
