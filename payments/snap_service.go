package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	config "github.com/anjiri1684/english_practice/configs"
	log "github.com/sirupsen/logrus"
)

const (
	sandboxBaseURL    = "https://app.sandbox.midtrans.com"
	productionBaseURL = "https://app.midtrans.com"
)

var ErrNotConfigured = errors.New("payment gateway is not configured")

type TransactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
}

type ItemDetail struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

type CustomerDetails struct {
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
}

type SnapRequest struct {
	TransactionDetails TransactionDetails `json:"transaction_details"`
	ItemDetails        []ItemDetail       `json:"item_details,omitempty"`
	CustomerDetails    *CustomerDetails   `json:"customer_details,omitempty"`
}

type SnapResponse struct {
	Token         string   `json:"token"`
	RedirectURL   string   `json:"redirect_url"`
	ErrorMessages []string `json:"error_messages,omitempty"`
}

// SnapClient creates checkout sessions for the client-side Snap popup.
type SnapClient struct {
	ServerKey string
	ClientKey string
	BaseURL   string
	HTTP      *http.Client
}

var Gateway *SnapClient

func Init(s *config.Settings) {
	if s.MidtransServerKey == "" {
		log.Warn("⚠️ Payment gateway not configured, MIDTRANS_SERVER_KEY is empty.")
		Gateway = nil
		return
	}

	baseURL := s.MidtransBaseURL
	if baseURL == "" {
		baseURL = sandboxBaseURL
		if s.MidtransProduction {
			baseURL = productionBaseURL
		}
	}

	Gateway = &SnapClient{
		ServerKey: s.MidtransServerKey,
		ClientKey: s.MidtransClientKey,
		BaseURL:   strings.TrimRight(baseURL, "/"),
		HTTP:      &http.Client{Timeout: 15 * time.Second},
	}
	log.Info("✅ Payment gateway initialized successfully.")
}

func (s *SnapClient) CreateTransaction(ctx context.Context, payload SnapRequest) (*SnapResponse, error) {
	if s == nil {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snap payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/snap/v1/transactions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create snap request: %w", err)
	}
	req.SetBasicAuth(s.ServerKey, "")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send snap request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read snap response body: %w", err)
	}

	var snapResp SnapResponse
	if err := json.Unmarshal(respBody, &snapResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snap response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusCreated || snapResp.Token == "" {
		log.WithFields(log.Fields{"status": resp.StatusCode, "body": string(respBody)}).Error("Snap API error")
		return nil, fmt.Errorf("snap API returned status %d: %s", resp.StatusCode, strings.Join(snapResp.ErrorMessages, "; "))
	}

	return &snapResp, nil
}
