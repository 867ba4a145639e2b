package models

import "github.com/google/uuid"

type ReferralCode struct {
	Base
	UserID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Code          string    `gorm:"size:10;not null;uniqueIndex" json:"code"`
	PendingTokens int       `gorm:"not null;default:0" json:"pending_tokens"`
	ClaimedTokens int       `gorm:"not null;default:0" json:"claimed_tokens"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// ReferralUser links a user to the single referral code they applied.
type ReferralUser struct {
	Base
	ReferralCodeID uuid.UUID `gorm:"type:uuid;not null;index" json:"referral_code_id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
}

type ReferralMilestone struct {
	Base
	ReferralCodeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_referral_milestone" json:"referral_code_id"`
	Threshold      int       `gorm:"not null;uniqueIndex:ux_referral_milestone" json:"threshold"`
	Tokens         int       `gorm:"not null" json:"tokens"`
}
