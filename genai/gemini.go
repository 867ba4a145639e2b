package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	config "github.com/anjiri1684/english_practice/configs"
	"github.com/anjiri1684/english_practice/models"
	log "github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"
)

const (
	breakerFailureThreshold = 5
	breakerOpenTimeout      = 30 * time.Second
	maxErrorBody            = 512
)

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType   string   `json:"responseMimeType,omitempty"`
	ResponseModalities []string `json:"responseModalities,omitempty"`
	Temperature        *float64 `json:"temperature,omitempty"`
}

type generateRequest struct {
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	Contents          []content         `json:"contents"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// StatusError is a non-200 answer from the generation API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("generation API returned status %d: %s", e.Code, e.Body)
}

// abandonedError marks a request whose caller gave up before the API answered.
type abandonedError struct{ err error }

func (e *abandonedError) Error() string {
	return "generation request abandoned by caller: " + e.err.Error()
}

func (e *abandonedError) Unwrap() error { return e.err }

// callerFault reports errors caused by the request itself rather than by the
// API being unhealthy. They must not trip the shared breaker.
func callerFault(err error) bool {
	var abandoned *abandonedError
	if errors.Is(err, ErrBlocked) || errors.As(err, &abandoned) {
		return true
	}
	var status *StatusError
	if errors.As(err, &status) {
		return status.Code >= 400 && status.Code < 500 && status.Code != http.StatusTooManyRequests
	}
	return false
}

// Gemini is a REST client for the generateContent endpoint.
type Gemini struct {
	APIKey     string
	BaseURL    string
	TextModel  string
	ImageModel string
	HTTP       *http.Client
	Timeout    time.Duration

	breaker *gobreaker.CircuitBreaker[*generateResponse]
}

func NewGemini(apiKey, baseURL, textModel, imageModel string, timeout time.Duration) *Gemini {
	g := &Gemini{
		APIKey:     apiKey,
		BaseURL:    strings.TrimRight(baseURL, "/"),
		TextModel:  textModel,
		ImageModel: imageModel,
		HTTP:       &http.Client{},
		Timeout:    timeout,
	}
	g.breaker = gobreaker.NewCircuitBreaker[*generateResponse](gobreaker.Settings{
		Name:        "gemini",
		MaxRequests: 1,
		Timeout:     breakerOpenTimeout,
		IsSuccessful: func(err error) bool {
			return err == nil || callerFault(err)
		},
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(log.Fields{"breaker": name, "from": from.String(), "to": to.String()}).
				Warn("Generation API circuit breaker changed state")
		},
	})
	return g
}

func Init(s *config.Settings) {
	if s.GeminiAPIKey == "" {
		log.Warn("⚠️ Generation API not configured, GEMINI_API_KEY is empty.")
		Client = disabled{}
		return
	}
	Client = NewGemini(s.GeminiAPIKey, s.GeminiBaseURL, s.GeminiTextModel, s.GeminiImageModel, s.GeminiTimeout)
	log.Info("✅ Generation client initialized successfully.")
}

func (g *Gemini) Chat(ctx context.Context, system string, turns []models.Turn) (string, error) {
	req := generateRequest{Contents: toContents(turns)}
	if system != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: system}}}
	}

	resp, err := g.call(ctx, g.TextModel, req)
	if err != nil {
		return "", err
	}
	return firstText(resp)
}

func (g *Gemini) Generate(ctx context.Context, prompt string, jsonMode bool) (string, error) {
	req := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	}
	if jsonMode {
		req.GenerationConfig = &generationConfig{ResponseMimeType: "application/json"}
	}

	resp, err := g.call(ctx, g.TextModel, req)
	if err != nil {
		return "", err
	}
	return firstText(resp)
}

func (g *Gemini) GenerateImage(ctx context.Context, prompt string) ([]byte, string, error) {
	req := generateRequest{
		Contents:         []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{ResponseModalities: []string{"TEXT", "IMAGE"}},
	}

	resp, err := g.call(ctx, g.ImageModel, req)
	if err != nil {
		return nil, "", err
	}

	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if p.InlineData == nil || p.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				return nil, "", fmt.Errorf("failed to decode image data: %w", err)
			}
			return data, p.InlineData.MimeType, nil
		}
	}
	return nil, "", ErrEmptyReply
}

func (g *Gemini) call(ctx context.Context, model string, body generateRequest) (*generateResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, &abandonedError{err: err}
	}
	return g.breaker.Execute(func() (*generateResponse, error) {
		return g.do(ctx, model, body)
	})
}

func (g *Gemini) do(parent context.Context, model string, body generateRequest) (*generateResponse, error) {
	ctx := parent
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generation request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.BaseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.APIKey)

	resp, err := g.HTTP.Do(req)
	if err != nil {
		if parent.Err() != nil {
			return nil, &abandonedError{err: parent.Err()}
		}
		return nil, fmt.Errorf("failed to send generation request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if parent.Err() != nil {
			return nil, &abandonedError{err: parent.Err()}
		}
		return nil, fmt.Errorf("failed to read generation response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		snippet := string(respBody)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &StatusError{Code: resp.StatusCode, Body: snippet}
	}

	var out generateResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal generation response: %w", err)
	}
	if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("%w: %s", ErrBlocked, out.PromptFeedback.BlockReason)
	}
	return &out, nil
}

func firstText(resp *generateResponse) (string, error) {
	for _, cand := range resp.Candidates {
		var sb strings.Builder
		for _, p := range cand.Content.Parts {
			sb.WriteString(p.Text)
		}
		if text := strings.TrimSpace(sb.String()); text != "" {
			return text, nil
		}
	}
	return "", ErrEmptyReply
}

// toContents maps learner/assistant turns onto the API's user/model roles.
// The API wants the conversation to open with a user turn and to alternate,
// so adjacent turns of the same role are merged.
func toContents(turns []models.Turn) []content {
	var out []content
	for _, t := range turns {
		role := "user"
		if t.Role == models.RoleAssistant {
			role = "model"
		}
		if len(out) == 0 && role == "model" {
			out = append(out, content{Role: "user", Parts: []part{{Text: "Let's begin."}}})
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Parts = append(out[n-1].Parts, part{Text: t.Text})
			continue
		}
		out = append(out, content{Role: role, Parts: []part{{Text: t.Text}}})
	}
	if len(out) == 0 {
		out = append(out, content{Role: "user", Parts: []part{{Text: "Let's begin."}}})
	}
	return out
}
