package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	config "github.com/anjiri1684/english_practice/configs"
	"github.com/anjiri1684/english_practice/database"
	"github.com/anjiri1684/english_practice/genai"
	"github.com/anjiri1684/english_practice/middleware"
	"github.com/anjiri1684/english_practice/models"
	"github.com/anjiri1684/english_practice/notifications"
	"github.com/anjiri1684/english_practice/payments"
	"github.com/anjiri1684/english_practice/routes"
	"github.com/anjiri1684/english_practice/services"
	"github.com/anjiri1684/english_practice/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "correct-horse"

type fakeGenerator struct {
	mu            sync.Mutex
	chatReply     string
	generateReply string
	image         []byte
	err           error
	chatCalls     int
	generateCalls int
}

func (f *fakeGenerator) Chat(_ context.Context, _ string, _ []models.Turn) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chatCalls++
	return f.chatReply, f.err
}

func (f *fakeGenerator) Generate(_ context.Context, _ string, _ bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generateCalls++
	return f.generateReply, f.err
}

func (f *fakeGenerator) GenerateImage(_ context.Context, _ string) ([]byte, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.image, "image/png", f.err
}

type fakeImages struct {
	uploads int
}

func (f *fakeImages) Upload(_ context.Context, _ []byte, folder, publicID string) (string, error) {
	f.uploads++
	return "https://images.test/" + folder + "/" + publicID + ".png", nil
}

type testEnv struct {
	t      *testing.T
	app    *fiber.App
	gen    *fakeGenerator
	images *fakeImages
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	config.App = &config.Settings{
		JWTSecret:               "handlers-test-secret",
		JWTTTL:                  time.Hour,
		BaseURL:                 "http://app.test",
		FrontendURL:             "http://app.test",
		MidtransServerKey:       "server-key",
		MidtransClientKey:       "client-key",
		SessionTokenCost:        1,
		EssayTokenCost:          1,
		ImageTokenCost:          2,
		SessionDefaultMinutes:   10,
		SessionGraceMinutes:     5,
		ReferralApplyBonus:      3,
		ReferralOwnerReward:     2,
		Milestones:              []config.Milestone{{Threshold: 2, Tokens: 10}},
		GenerationRatePerMinute: 6000,
		GenerationBurst:         1000,
		PendingTransactionTTL:   24 * time.Hour,
	}

	require.NoError(t, database.ConnectDB("sqlite://file:"+uuid.NewString()+"?mode=memory&cache=shared"))
	require.NoError(t, database.Migrate())
	t.Cleanup(func() {
		if sqlDB, err := database.DB.DB(); err == nil {
			sqlDB.Close()
		}
	})

	gen := &fakeGenerator{chatReply: "That sounds lovely! What happened next?"}
	genai.Client = gen
	images := &fakeImages{}
	services.Images = images
	services.RenderPDF = func(_ context.Context, html string) ([]byte, error) {
		return []byte("%PDF-1.4 " + html), nil
	}
	notifications.EmailClient = nil
	payments.Gateway = nil

	app := routes.NewApp(middleware.NewRateLimiter(config.App.GenerationRatePerMinute, config.App.GenerationBurst), "")
	return &testEnv{t: t, app: app, gen: gen, images: images}
}

func (e *testEnv) createUser(email, role string, balance int) (models.User, string) {
	e.t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(e.t, err)
	password := string(hashed)

	user := models.User{Name: "Test " + email, Email: email, Password: &password, Role: role, Language: "en", AgreedToTerms: true}
	require.NoError(e.t, database.DB.Create(&user).Error)
	require.NoError(e.t, database.DB.Create(&models.TokenBalance{UserID: user.ID, Amount: balance}).Error)

	token, err := utils.GenerateToken(user, config.App.JWTSecret, time.Hour)
	require.NoError(e.t, err)
	return user, token
}

func (e *testEnv) balance(userID uuid.UUID) int {
	e.t.Helper()
	b, err := services.Balance(database.DB, userID)
	require.NoError(e.t, err)
	return b
}

func (e *testEnv) do(method, path, token string, body interface{}) (*http.Response, []byte) {
	e.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	resp.Body.Close()
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}
