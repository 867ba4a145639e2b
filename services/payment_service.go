package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	config "github.com/anjiri1684/english_practice/configs"
	"github.com/anjiri1684/english_practice/database"
	"github.com/anjiri1684/english_practice/models"
	"github.com/anjiri1684/english_practice/notifications"
	"github.com/anjiri1684/english_practice/payments"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type CheckoutResult struct {
	OrderID     string `json:"order_id"`
	SnapToken   string `json:"snap_token"`
	RedirectURL string `json:"redirect_url"`
	ClientKey   string `json:"client_key"`
}

func newOrderID() string {
	return fmt.Sprintf("EP-%d-%s", time.Now().Unix(), strings.ToUpper(uuid.NewString()[:8]))
}

// Checkout records a PENDING transaction for the pack and opens a Snap
// payment for it. A gateway failure leaves the transaction FAILED.
func Checkout(ctx context.Context, user models.User, packID uuid.UUID) (*CheckoutResult, error) {
	if payments.Gateway == nil {
		return nil, payments.ErrNotConfigured
	}

	var pack models.TokenPack
	err := database.DB.Where("id = ? AND is_active = ?", packID, true).First(&pack).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPackNotFound
	}
	if err != nil {
		return nil, err
	}

	txn := models.Transaction{
		OrderID:     newOrderID(),
		UserID:      user.ID,
		TokenPackID: pack.ID,
		Amount:      pack.Price,
		Tokens:      pack.Tokens,
		Status:      models.TransactionPending,
	}
	if err := database.DB.Create(&txn).Error; err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	snap, err := payments.Gateway.CreateTransaction(ctx, payments.SnapRequest{
		TransactionDetails: payments.TransactionDetails{OrderID: txn.OrderID, GrossAmount: pack.Price},
		ItemDetails: []payments.ItemDetail{{
			ID:       pack.ID.String(),
			Name:     pack.Name,
			Price:    pack.Price,
			Quantity: 1,
		}},
		CustomerDetails: &payments.CustomerDetails{FirstName: user.Name, Email: user.Email},
	})
	if err != nil {
		if uerr := database.DB.Model(&models.Transaction{}).
			Where("id = ? AND status = ?", txn.ID, models.TransactionPending).
			Update("status", models.TransactionFailed).Error; uerr != nil {
			log.WithError(uerr).WithField("order_id", txn.OrderID).Error("🔥 Failed to mark checkout as failed")
		}
		return nil, fmt.Errorf("failed to create snap transaction: %w", err)
	}

	if err := database.DB.Model(&txn).Updates(map[string]interface{}{
		"snap_token":   snap.Token,
		"redirect_url": snap.RedirectURL,
	}).Error; err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"order_id": txn.OrderID, "user_id": user.ID, "pack": pack.Name}).Info("Checkout created")
	return &CheckoutResult{
		OrderID:     txn.OrderID,
		SnapToken:   snap.Token,
		RedirectURL: snap.RedirectURL,
		ClientKey:   config.App.MidtransClientKey,
	}, nil
}

// HandleNotification applies a gateway status callback. The PENDING row is
// moved to its final state at most once, and tokens are credited in the same
// transaction as the SUCCESS update.
func HandleNotification(n payments.Notification) (*models.Transaction, error) {
	if !n.Verify(config.App.MidtransServerKey) {
		return nil, ErrInvalidSignature
	}

	var txn models.Transaction
	err := database.DB.Where("order_id = ?", n.OrderID).First(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}

	if txn.Status != models.TransactionPending {
		return &txn, ErrTransactionSettled
	}

	outcome := n.Outcome()
	if outcome == payments.OutcomePending {
		return &txn, nil
	}

	if amount, ok := n.Amount(); !ok || amount != txn.Amount {
		log.WithFields(log.Fields{"order_id": n.OrderID, "gross_amount": n.GrossAmount, "expected": txn.Amount}).Warn("Notification amount mismatch")
		return &txn, ErrAmountMismatch
	}

	status := models.TransactionFailed
	if outcome == payments.OutcomeSuccess {
		status = models.TransactionSuccess
	}

	now := time.Now()
	updates := map[string]interface{}{"status": status, "settled_at": now}
	if n.PaymentType != "" {
		updates["payment_type"] = n.PaymentType
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Transaction{}).
			Where("id = ? AND status = ?", txn.ID, models.TransactionPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTransactionSettled
		}
		if status == models.TransactionSuccess {
			return Credit(tx, txn.UserID, txn.Tokens)
		}
		return nil
	})
	if err != nil {
		return &txn, err
	}

	txn.Status = status
	txn.SettledAt = &now
	log.WithFields(log.Fields{"order_id": txn.OrderID, "status": status}).Info("Transaction settled")

	if status == models.TransactionSuccess {
		var user models.User
		if err := database.DB.First(&user, "id = ?", txn.UserID).Error; err == nil {
			subject, body := notifications.PaymentSuccessEmail(txn.OrderID, txn.Tokens)
			go notifications.SendEmail(user.Name, user.Email, subject, body)
		}
	}
	return &txn, nil
}

func ListTransactions(userID uuid.UUID, skip, limit int) ([]models.Transaction, int64, error) {
	var total int64
	query := database.DB.Model(&models.Transaction{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var txns []models.Transaction
	err := database.DB.Preload("TokenPack").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(skip).Limit(limit).
		Find(&txns).Error
	return txns, total, err
}

// ExpireStaleTransactions fails PENDING transactions created before the cutoff.
func ExpireStaleTransactions(cutoff time.Time) (int64, error) {
	res := database.DB.Model(&models.Transaction{}).
		Where("status = ? AND created_at < ?", models.TransactionPending, cutoff).
		Updates(map[string]interface{}{"status": models.TransactionFailed, "settled_at": time.Now()})
	return res.RowsAffected, res.Error
}
