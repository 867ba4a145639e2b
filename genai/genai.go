// Package genai talks to the generative-language API used for conversation
// replies, grading and illustrations.
package genai

import (
	"context"
	"errors"

	"github.com/anjiri1684/english_practice/models"
)

var ErrNotConfigured = errors.New("generation API is not configured")

// ErrEmptyReply is returned when the model answers without any usable part.
var ErrEmptyReply = errors.New("generation API returned an empty reply")

// ErrBlocked is returned when the API refuses the prompt on safety grounds.
var ErrBlocked = errors.New("generation blocked")

type Generator interface {
	// Chat continues a role-tagged conversation under a system instruction.
	Chat(ctx context.Context, system string, turns []models.Turn) (string, error)
	// Generate answers a single prompt; jsonMode asks for an application/json body.
	Generate(ctx context.Context, prompt string, jsonMode bool) (string, error)
	// GenerateImage returns the image bytes and their mime type.
	GenerateImage(ctx context.Context, prompt string) ([]byte, string, error)
}

// Client is the process-wide generator, set by Init in main.
var Client Generator = disabled{}

type disabled struct{}

func (disabled) Chat(context.Context, string, []models.Turn) (string, error) {
	return "", ErrNotConfigured
}

func (disabled) Generate(context.Context, string, bool) (string, error) {
	return "", ErrNotConfigured
}

func (disabled) GenerateImage(context.Context, string) ([]byte, string, error) {
	return nil, "", ErrNotConfigured
}
