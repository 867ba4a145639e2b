package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	config "github.com/anjiri1684/english_practice/configs"
	"github.com/anjiri1684/english_practice/database"
	"github.com/anjiri1684/english_practice/models"
	"github.com/anjiri1684/english_practice/notifications"
	"github.com/anjiri1684/english_practice/utils"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
	"gorm.io/gorm"
)

const oauthStateCookie = "oauth_state"

var (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
	googleEndpoint    = endpoints.Google
)

type googleProfile struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func googleOAuthConfig() (*oauth2.Config, bool) {
	s := config.App
	if s.GoogleClientID == "" || s.GoogleClientSecret == "" {
		return nil, false
	}
	return &oauth2.Config{
		ClientID:     s.GoogleClientID,
		ClientSecret: s.GoogleClientSecret,
		RedirectURL:  s.GoogleRedirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     googleEndpoint,
	}, true
}

func GoogleLogin(c *fiber.Ctx) error {
	cfg, ok := googleOAuthConfig()
	if !ok {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Google sign-in is not configured"})
	}

	state, err := utils.RandomToken(16)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to start Google sign-in"})
	}
	c.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
		Secure:   config.App.IsProduction(),
		SameSite: "Lax",
	})
	return c.Redirect(cfg.AuthCodeURL(state), fiber.StatusTemporaryRedirect)
}

func GoogleCallback(c *fiber.Ctx) error {
	cfg, ok := googleOAuthConfig()
	if !ok {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Google sign-in is not configured"})
	}

	state := c.Query("state")
	if state == "" || state != c.Cookies(oauthStateCookie) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid OAuth state"})
	}
	c.ClearCookie(oauthStateCookie)

	code := c.Query("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing authorization code"})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 15*time.Second)
	defer cancel()

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		log.WithError(err).Warn("Google code exchange failed")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Google sign-in failed"})
	}

	profile, err := fetchGoogleProfile(ctx, cfg.Client(ctx, token))
	if err != nil {
		log.WithError(err).Warn("Google profile fetch failed")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Google sign-in failed"})
	}
	if profile.Email == "" || !profile.EmailVerified {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Google account email is not verified"})
	}

	user, created, err := upsertGoogleUser(profile)
	if err != nil {
		log.WithError(err).Error("🔥 Failed to upsert Google user")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to sign in"})
	}
	if created {
		subject, body := notifications.WelcomeEmail(user.Name)
		go notifications.SendEmail(user.Name, user.Email, subject, body)
	}

	t, err := utils.GenerateToken(*user, config.App.JWTSecret, config.App.JWTTTL)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create token"})
	}
	return c.JSON(fiber.Map{"token": t})
}

func fetchGoogleProfile(ctx context.Context, client *http.Client) (*googleProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleUserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}
	var profile googleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// upsertGoogleUser finds the user by Google id, then by email, and links or creates the account.
func upsertGoogleUser(p *googleProfile) (*models.User, bool, error) {
	var user models.User
	created := false
	email := normalizeEmail(p.Email)

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("google_id = ?", p.Sub).First(&user).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		err = tx.Where("email = ?", email).First(&user).Error
		if err == nil {
			return tx.Model(&user).Update("google_id", p.Sub).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		googleID := p.Sub
		name := strings.TrimSpace(p.Name)
		if name == "" {
			name, _, _ = strings.Cut(email, "@")
		}
		user = models.User{
			Name:          name,
			Email:         email,
			GoogleID:      &googleID,
			Language:      "en",
			AgreedToTerms: true,
			Role:          models.RoleUser,
		}
		if p.Picture != "" {
			picture := p.Picture
			user.Image = &picture
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		created = true
		return tx.Create(&models.TokenBalance{UserID: user.ID}).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &user, created, nil
}
