package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anjiri1684/english_practice/database"
	"github.com/anjiri1684/english_practice/models"
	"github.com/anjiri1684/english_practice/payments"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) createPack(tokens int, price int64) models.TokenPack {
	e.t.Helper()
	pack := models.TokenPack{Name: "Pack", Tokens: tokens, Price: price, IsActive: true}
	require.NoError(e.t, database.DB.Create(&pack).Error)
	return pack
}

func (e *testEnv) pendingTransaction(user models.User, pack models.TokenPack, orderID string) models.Transaction {
	e.t.Helper()
	txn := models.Transaction{OrderID: orderID, UserID: user.ID, TokenPackID: pack.ID, Amount: pack.Price, Tokens: pack.Tokens, Status: models.TransactionPending}
	require.NoError(e.t, database.DB.Create(&txn).Error)
	return txn
}

func signedNotification(orderID, status, gross string) payments.Notification {
	n := payments.Notification{OrderID: orderID, StatusCode: "200", GrossAmount: gross, TransactionStatus: status, PaymentType: "qris"}
	n.SignatureKey = payments.Signature(n.OrderID, n.StatusCode, n.GrossAmount, "server-key")
	return n
}

func loadTransaction(t *testing.T, orderID string) models.Transaction {
	t.Helper()
	var txn models.Transaction
	require.NoError(t, database.DB.Where("order_id = ?", orderID).First(&txn).Error)
	return txn
}

func TestCheckoutCreatesPendingTransaction(t *testing.T) {
	env := setup(t)
	user, token := env.createUser("ana@example.com", models.RoleUser, 0)
	pack := env.createPack(10, 15000)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"token":"snap-123","redirect_url":"https://pay.test/snap-123"}`))
	}))
	defer srv.Close()
	payments.Gateway = &payments.SnapClient{ServerKey: "server-key", BaseURL: srv.URL, HTTP: srv.Client()}

	resp, body := env.do(http.MethodPost, "/api/v1/payments/checkout", token, map[string]string{"token_pack_id": pack.ID.String()})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	out := decode[map[string]string](t, body)
	assert.Equal(t, "snap-123", out["snap_token"])
	assert.Equal(t, "client-key", out["client_key"])

	txn := loadTransaction(t, out["order_id"])
	assert.Equal(t, models.TransactionPending, txn.Status)
	assert.Equal(t, user.ID, txn.UserID)
	assert.Equal(t, int64(15000), txn.Amount)
	assert.Equal(t, 10, txn.Tokens)
	require.NotNil(t, txn.SnapToken)
	assert.Equal(t, "snap-123", *txn.SnapToken)
}

func TestCheckoutGatewayFailureMarksFailed(t *testing.T) {
	env := setup(t)
	_, token := env.createUser("ana@example.com", models.RoleUser, 0)
	pack := env.createPack(10, 15000)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error_messages":["Access denied"]}`))
	}))
	defer srv.Close()
	payments.Gateway = &payments.SnapClient{ServerKey: "bad", BaseURL: srv.URL, HTTP: srv.Client()}

	resp, _ := env.do(http.MethodPost, "/api/v1/payments/checkout", token, map[string]string{"token_pack_id": pack.ID.String()})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var txns []models.Transaction
	database.DB.Find(&txns)
	require.Len(t, txns, 1)
	assert.Equal(t, models.TransactionFailed, txns[0].Status)
}

func TestCheckoutRejections(t *testing.T) {
	env := setup(t)
	_, token := env.createUser("ana@example.com", models.RoleUser, 0)
	pack := env.createPack(10, 15000)

	resp, _ := env.do(http.MethodPost, "/api/v1/payments/checkout", token, map[string]string{"token_pack_id": pack.ID.String()})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	payments.Gateway = &payments.SnapClient{ServerKey: "k", BaseURL: "http://127.0.0.1:1", HTTP: http.DefaultClient}
	database.DB.Model(&pack).Update("is_active", false)
	resp, _ = env.do(http.MethodPost, "/api/v1/payments/checkout", token, map[string]string{"token_pack_id": pack.ID.String()})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(http.MethodPost, "/api/v1/payments/checkout", token, map[string]string{"token_pack_id": "nope"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNotificationSettlesExactlyOnce(t *testing.T) {
	env := setup(t)
	user, _ := env.createUser("ana@example.com", models.RoleUser, 1)
	pack := env.createPack(10, 15000)
	env.pendingTransaction(user, pack, "EP-1")

	n := signedNotification("EP-1", "settlement", "15000.00")
	resp, body := env.do(http.MethodPost, "/api/v1/payments/notification", "", n)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	txn := loadTransaction(t, "EP-1")
	assert.Equal(t, models.TransactionSuccess, txn.Status)
	require.NotNil(t, txn.SettledAt)
	require.NotNil(t, txn.PaymentType)
	assert.Equal(t, "qris", *txn.PaymentType)
	assert.Equal(t, 11, env.balance(user.ID))

	resp, _ = env.do(http.MethodPost, "/api/v1/payments/notification", "", n)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 11, env.balance(user.ID))

	expire := signedNotification("EP-1", "expire", "15000.00")
	resp, _ = env.do(http.MethodPost, "/api/v1/payments/notification", "", expire)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.TransactionSuccess, loadTransaction(t, "EP-1").Status)
}

func TestNotificationFailureAndPending(t *testing.T) {
	env := setup(t)
	user, _ := env.createUser("ana@example.com", models.RoleUser, 0)
	pack := env.createPack(10, 15000)
	env.pendingTransaction(user, pack, "EP-2")

	resp, _ := env.do(http.MethodPost, "/api/v1/payments/notification", "", signedNotification("EP-2", "pending", "15000.00"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.TransactionPending, loadTransaction(t, "EP-2").Status)

	resp, _ = env.do(http.MethodPost, "/api/v1/payments/notification", "", signedNotification("EP-2", "deny", "15000.00"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.TransactionFailed, loadTransaction(t, "EP-2").Status)
	assert.Equal(t, 0, env.balance(user.ID))
}

func TestNotificationRejections(t *testing.T) {
	env := setup(t)
	user, _ := env.createUser("ana@example.com", models.RoleUser, 0)
	pack := env.createPack(10, 15000)
	env.pendingTransaction(user, pack, "EP-3")

	forged := signedNotification("EP-3", "settlement", "15000.00")
	forged.SignatureKey = "deadbeef"
	resp, _ := env.do(http.MethodPost, "/api/v1/payments/notification", "", forged)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = env.do(http.MethodPost, "/api/v1/payments/notification", "", signedNotification("EP-404", "settlement", "15000.00"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(http.MethodPost, "/api/v1/payments/notification", "", signedNotification("EP-3", "settlement", "1.00"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Equal(t, models.TransactionPending, loadTransaction(t, "EP-3").Status)
	assert.Equal(t, 0, env.balance(user.ID))
}

func TestListMyTransactions(t *testing.T) {
	env := setup(t)
	user, token := env.createUser("ana@example.com", models.RoleUser, 0)
	other, _ := env.createUser("bo@example.com", models.RoleUser, 0)
	pack := env.createPack(10, 15000)
	env.pendingTransaction(user, pack, "EP-A")
	time.Sleep(2 * time.Millisecond)
	env.pendingTransaction(user, pack, "EP-B")
	env.pendingTransaction(other, pack, "EP-C")

	resp, body := env.do(http.MethodGet, "/api/v1/payments/transactions", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[struct {
		Items []models.Transaction `json:"items"`
		Total int64                `json:"total"`
	}](t, body)
	assert.Equal(t, int64(2), page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "EP-B", page.Items[0].OrderID)
	assert.Equal(t, pack.ID, page.Items[0].TokenPack.ID)
}
