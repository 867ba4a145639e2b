package payments

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strconv"
)

// Notification is the server-to-server callback body sent after a status change.
type Notification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	PaymentType       string `json:"payment_type"`
	TransactionID     string `json:"transaction_id"`
}

type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeSuccess
	OutcomeFailed
)

func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

func (n Notification) Verify(serverKey string) bool {
	if serverKey == "" || n.SignatureKey == "" {
		return false
	}
	want := Signature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)
	return subtle.ConstantTimeCompare([]byte(want), []byte(n.SignatureKey)) == 1
}

func (n Notification) Outcome() Outcome {
	switch n.TransactionStatus {
	case "capture":
		if n.FraudStatus == "accept" || n.FraudStatus == "" {
			return OutcomeSuccess
		}
		if n.FraudStatus == "deny" {
			return OutcomeFailed
		}
		return OutcomePending
	case "settlement":
		return OutcomeSuccess
	case "deny", "cancel", "expire", "failure":
		return OutcomeFailed
	default:
		return OutcomePending
	}
}

// Amount parses gross_amount, which is sent as a decimal string such as "15000.00".
func (n Notification) Amount() (int64, bool) {
	f, err := strconv.ParseFloat(n.GrossAmount, 64)
	if err != nil {
		return 0, false
	}
	return int64(f), true
}
