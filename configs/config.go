package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

type Settings struct {
	Env      string `envconfig:"APP_ENV" default:"development"`
	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL"`

	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"72h"`

	BaseURL     string `envconfig:"BASE_URL" default:"http://localhost:3000"`
	FrontendURL string `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`

	BrevoAPIKey     string `envconfig:"BREVO_API_KEY"`
	EmailSender     string `envconfig:"EMAIL_SENDER"`
	EmailSenderName string `envconfig:"EMAIL_SENDER_NAME" default:"English Practice"`

	GoogleClientID     string `envconfig:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `envconfig:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `envconfig:"GOOGLE_REDIRECT_URL"`

	MidtransServerKey  string `envconfig:"MIDTRANS_SERVER_KEY"`
	MidtransClientKey  string `envconfig:"MIDTRANS_CLIENT_KEY"`
	MidtransProduction bool   `envconfig:"MIDTRANS_PRODUCTION" default:"false"`
	MidtransBaseURL    string `envconfig:"MIDTRANS_BASE_URL"`

	GeminiAPIKey     string        `envconfig:"GEMINI_API_KEY"`
	GeminiBaseURL    string        `envconfig:"GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com/v1beta"`
	GeminiTextModel  string        `envconfig:"GEMINI_TEXT_MODEL" default:"gemini-2.0-flash"`
	GeminiImageModel string        `envconfig:"GEMINI_IMAGE_MODEL" default:"gemini-2.0-flash-preview-image-generation"`
	GeminiTimeout    time.Duration `envconfig:"GEMINI_TIMEOUT" default:"45s"`

	CloudinaryURL string `envconfig:"CLOUDINARY_URL"`

	SessionTokenCost      int `envconfig:"SESSION_TOKEN_COST" default:"1"`
	EssayTokenCost        int `envconfig:"ESSAY_TOKEN_COST" default:"1"`
	ImageTokenCost        int `envconfig:"IMAGE_TOKEN_COST" default:"2"`
	SessionDefaultMinutes int `envconfig:"SESSION_DEFAULT_MINUTES" default:"10"`
	SessionGraceMinutes   int `envconfig:"SESSION_GRACE_MINUTES" default:"5"`

	ReferralApplyBonus  int    `envconfig:"REFERRAL_APPLY_BONUS" default:"3"`
	ReferralOwnerReward int    `envconfig:"REFERRAL_OWNER_REWARD" default:"2"`
	ReferralMilestones  string `envconfig:"REFERRAL_MILESTONES" default:"5:10,10:25,25:75"`

	GenerationRatePerMinute int `envconfig:"GENERATION_RATE_PER_MINUTE" default:"20"`
	GenerationBurst         int `envconfig:"GENERATION_BURST" default:"5"`

	PendingTransactionTTL time.Duration `envconfig:"PENDING_TRANSACTION_TTL" default:"24h"`

	AdminEmail    string `envconfig:"ADMIN_EMAIL"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`
	AdminName     string `envconfig:"ADMIN_NAME" default:"Administrator"`

	Milestones []Milestone `ignored:"true"`
}

// Milestone is a referral-count threshold that unlocks a one-time reward.
type Milestone struct {
	Threshold int `json:"threshold"`
	Tokens    int `json:"tokens"`
}

var App *Settings

func Load() (*Settings, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Warn("Warning: .env file not found, reading from system environment variables")
	}

	var s Settings
	if err := envconfig.Process("", &s); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	milestones, err := ParseMilestones(s.ReferralMilestones)
	if err != nil {
		return nil, fmt.Errorf("REFERRAL_MILESTONES: %w", err)
	}
	s.Milestones = milestones

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Settings) Validate() error {
	if strings.TrimSpace(s.JWTSecret) == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if s.SessionTokenCost < 0 || s.EssayTokenCost < 0 || s.ImageTokenCost < 0 {
		return errors.New("token costs must not be negative")
	}
	if s.SessionDefaultMinutes <= 0 {
		return errors.New("SESSION_DEFAULT_MINUTES must be > 0")
	}
	if s.GenerationRatePerMinute <= 0 || s.GenerationBurst <= 0 {
		return errors.New("GENERATION_RATE_PER_MINUTE and GENERATION_BURST must be > 0")
	}
	if s.ReferralApplyBonus < 0 || s.ReferralOwnerReward < 0 {
		return errors.New("referral rewards must not be negative")
	}
	return nil
}

func (s *Settings) IsProduction() bool {
	return s.Env == "production"
}

// ParseMilestones reads "count:tokens" pairs separated by commas, sorted by threshold.
func ParseMilestones(raw string) ([]Milestone, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	seen := make(map[int]bool)
	var out []Milestone
	for _, part := range strings.Split(raw, ",") {
		pair := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(pair) != 2 {
			return nil, fmt.Errorf("bad milestone %q, want count:tokens", part)
		}
		threshold, err := strconv.Atoi(strings.TrimSpace(pair[0]))
		if err != nil || threshold <= 0 {
			return nil, fmt.Errorf("bad milestone threshold %q", pair[0])
		}
		tokens, err := strconv.Atoi(strings.TrimSpace(pair[1]))
		if err != nil || tokens < 0 {
			return nil, fmt.Errorf("bad milestone reward %q", pair[1])
		}
		if seen[threshold] {
			return nil, fmt.Errorf("duplicate milestone threshold %d", threshold)
		}
		seen[threshold] = true
		out = append(out, Milestone{Threshold: threshold, Tokens: tokens})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Threshold < out[j].Threshold })
	return out, nil
}
