package notifications

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	config "github.com/anjiri1684/english_practice/configs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitEmailServiceUnconfigured(t *testing.T) {
	InitEmailService(&config.Settings{})
	assert.Nil(t, EmailClient)

	// must not panic without a client
	SendEmail("Ann", "ann@example.com", "subject", "<p>hi</p>")
}

func TestSendPostsToBrevo(t *testing.T) {
	var got brevoPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "brevo-key", r.Header.Get("api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"messageId":"1"}`))
	}))
	defer srv.Close()

	client := &BrevoService{APIKey: "brevo-key", SenderEmail: "no-reply@example.com", SenderName: "EP", Endpoint: srv.URL, HTTP: srv.Client()}
	subject, body := WelcomeEmail("Ann")
	require.NoError(t, client.send("ann@example.com", "", subject, body))

	assert.Equal(t, subject, got.Subject)
	assert.Equal(t, "ann", got.To[0]["name"])
	assert.Equal(t, "no-reply@example.com", got.Sender["email"])
}

func TestSendRejectsBadRecipient(t *testing.T) {
	client := &BrevoService{Endpoint: "http://unused"}
	assert.Error(t, client.send("not-an-email", "", "s", "b"))
}

func TestSendReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":"unauthorized"}`))
	}))
	defer srv.Close()

	client := &BrevoService{APIKey: "k", Endpoint: srv.URL, HTTP: srv.Client()}
	err := client.send("ann@example.com", "Ann", "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unauthorized")
}

func TestTemplatesEscapeInput(t *testing.T) {
	_, body := WelcomeEmail("<script>")
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
}
