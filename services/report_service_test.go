package services

import (
	"context"
	"testing"
	"time"

	"github.com/anjiri1684/english_practice/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderReportHTML(t *testing.T) {
	score := 83
	suggestion := "Use more linking words."
	ended := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	s := &models.Session{
		Kind:       models.KindStoryTelling,
		Theme:      "The <lost> key",
		StartedAt:  ended.Add(-10 * time.Minute),
		EndedAt:    &ended,
		Score:      &score,
		Suggestion: &suggestion,
		Answers: []models.Answer{
			{Position: 0, Question: "Where was the key?", Answer: "Under the bed.", Mark: 90},
			{Position: 1, Question: "Who found it?", Answer: "My sister founded it.", Suggestion: "My sister found it.", Mark: 76},
		},
	}

	html, err := RenderReportHTML(s, "Ana")
	require.NoError(t, err)
	assert.Contains(t, html, "Storytelling Report")
	assert.Contains(t, html, "The &lt;lost&gt; key")
	assert.Contains(t, html, "March 4, 2025")
	assert.Contains(t, html, "83/100")
	assert.Contains(t, html, "My sister found it.")
	assert.Contains(t, html, "<td>2</td>")
}

func TestSessionReportRequiresScore(t *testing.T) {
	_, err := SessionReport(context.Background(), &models.Session{Kind: models.KindDailyTalk}, "Ana")
	assert.ErrorIs(t, err, ErrNotScored)
}

func TestSessionReportUsesRenderer(t *testing.T) {
	prev := RenderPDF
	t.Cleanup(func() { RenderPDF = prev })

	var got string
	RenderPDF = func(_ context.Context, html string) ([]byte, error) {
		got = html
		return []byte("%PDF"), nil
	}

	score := 50
	pdf, err := SessionReport(context.Background(), &models.Session{Kind: models.KindDebate, Theme: "Homework", Score: &score}, "Ana")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), pdf)
	assert.Contains(t, got, "Debate Report")
}
