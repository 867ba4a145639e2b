package services

import (
	"errors"

	"github.com/anjiri1684/english_practice/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Debit takes amount tokens from the user's balance in a single conditional
// update, so a balance can never be driven below zero by concurrent requests.
func Debit(tx *gorm.DB, userID uuid.UUID, amount int) error {
	if amount <= 0 {
		return nil
	}
	res := tx.Model(&models.TokenBalance{}).
		Where("user_id = ? AND amount >= ?", userID, amount).
		Update("amount", gorm.Expr("amount - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientTokens
	}
	return nil
}

func Credit(tx *gorm.DB, userID uuid.UUID, amount int) error {
	if amount <= 0 {
		return nil
	}
	res := tx.Model(&models.TokenBalance{}).
		Where("user_id = ?", userID).
		Update("amount", gorm.Expr("amount + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return tx.Create(&models.TokenBalance{UserID: userID, Amount: amount}).Error
}

func Balance(db *gorm.DB, userID uuid.UUID) (int, error) {
	var balance models.TokenBalance
	err := db.Where("user_id = ?", userID).First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return balance.Amount, nil
}
