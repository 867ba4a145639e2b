package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TransactionPending = "PENDING"
	TransactionSuccess = "SUCCESS"
	TransactionFailed  = "FAILED"
)

type Transaction struct {
	Base
	OrderID     string     `gorm:"size:64;not null;uniqueIndex" json:"order_id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	TokenPackID uuid.UUID  `gorm:"type:uuid;not null" json:"token_pack_id"`
	Amount      int64      `gorm:"not null" json:"amount"`
	Tokens      int        `gorm:"not null" json:"tokens"`
	Status      string     `gorm:"size:10;not null;default:'PENDING';index" json:"status"`
	SnapToken   *string    `gorm:"size:255" json:"snap_token,omitempty"`
	RedirectURL *string    `gorm:"size:512" json:"redirect_url,omitempty"`
	PaymentType *string    `gorm:"size:50" json:"payment_type,omitempty"`
	SettledAt   *time.Time `json:"settled_at"`

	TokenPack TokenPack `gorm:"foreignKey:TokenPackID" json:"token_pack"`
}
