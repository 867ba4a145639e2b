package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	config "github.com/anjiri1684/english_practice/configs"
	"github.com/anjiri1684/english_practice/models"
	"github.com/anjiri1684/english_practice/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-test-secret"

func newTestApp(t *testing.T, limiter *RateLimiter) *fiber.App {
	t.Helper()
	config.App = &config.Settings{JWTSecret: testSecret}

	app := fiber.New()
	app.Get("/me", Protected(), func(c *fiber.Ctx) error {
		id, err := CurrentUserID(c)
		if err != nil {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString(id.String())
	})
	app.Get("/admin", Protected(), AdminRequired(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	if limiter != nil {
		app.Post("/generate", Protected(), limiter.Handler(), func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusOK)
		})
	}
	return app
}

func bearer(t *testing.T, user models.User, secret string, ttl time.Duration) string {
	t.Helper()
	token, err := utils.GenerateToken(user, secret, ttl)
	require.NoError(t, err)
	return "Bearer " + token
}

func testUser(role string) models.User {
	u := models.User{Role: role}
	u.ID = uuid.New()
	return u
}

func TestProtectedRejectsMissingAndInvalidTokens(t *testing.T) {
	app := newTestApp(t, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", bearer(t, testUser(models.RoleUser), "wrong-secret", time.Hour))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", bearer(t, testUser(models.RoleUser), testSecret, -time.Minute))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedExposesUserID(t *testing.T) {
	app := newTestApp(t, nil)
	user := testUser(models.RoleUser)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", bearer(t, user, testSecret, time.Hour))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAdminRequired(t *testing.T) {
	app := newTestApp(t, nil)

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", bearer(t, testUser(models.RoleUser), testSecret, time.Hour))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", bearer(t, testUser(models.RoleAdmin), testSecret, time.Hour))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRateLimitReturnsRetryAfter(t *testing.T) {
	limiter := NewRateLimiter(1, 2)
	app := newTestApp(t, limiter)
	auth := bearer(t, testUser(models.RoleUser), testSecret, time.Hour)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", "/generate", nil)
		req.Header.Set("Authorization", auth)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	req := httptest.NewRequest("POST", "/generate", nil)
	req.Header.Set("Authorization", auth)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	// another user has its own bucket
	req = httptest.NewRequest("POST", "/generate", nil)
	req.Header.Set("Authorization", bearer(t, testUser(models.RoleUser), testSecret, time.Hour))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRateLimiterCleanup(t *testing.T) {
	limiter := NewRateLimiter(60, 1)
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return start }
	limiter.Allow("old")

	limiter.now = func() time.Time { return start.Add(time.Hour) }
	limiter.Allow("fresh")

	assert.Equal(t, 1, limiter.Cleanup(30*time.Minute))
	assert.Len(t, limiter.limiters, 1)
	assert.Contains(t, limiter.limiters, "fresh")
}

func TestAllowReportsWait(t *testing.T) {
	limiter := NewRateLimiter(60, 1)
	ok, _ := limiter.Allow("k")
	assert.True(t, ok)
	ok, wait := limiter.Allow("k")
	assert.False(t, ok)
	assert.Greater(t, wait, time.Duration(0))
	assert.LessOrEqual(t, wait, time.Second)
}
