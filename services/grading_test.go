package services

import (
	"testing"

	"github.com/anjiri1684/english_practice/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGradingObjectShape(t *testing.T) {
	raw := `{"results":[{"mark":80,"suggestion":"I like tea.","reason":"ok"},{"mark":71,"suggestion":"s","reason":"r"}],"suggestion":"Practise articles."}`
	got, err := ParseGrading(raw, 2)
	require.NoError(t, err)
	require.Len(t, got.Grades, 2)
	assert.Equal(t, 80, got.Grades[0].Mark)
	assert.Equal(t, "I like tea.", got.Grades[0].Suggestion)
	assert.Equal(t, "Practise articles.", got.Suggestion)
	assert.Equal(t, 76, got.Score())
}

func TestParseGradingFencedArrayWithStringMarks(t *testing.T) {
	raw := "Here you go:\n```json\n[{\"score\":\"90\",\"correction\":\"c\",\"explanation\":\"e\"},{\"score\":\"7/100\"}]\n```\nGood luck!"
	got, err := ParseGrading(raw, 2)
	require.NoError(t, err)
	assert.Equal(t, 90, got.Grades[0].Mark)
	assert.Equal(t, "c", got.Grades[0].Suggestion)
	assert.Equal(t, "e", got.Grades[0].Reason)
	assert.Equal(t, 7, got.Grades[1].Mark)
	assert.Equal(t, "", got.Suggestion)
}

func TestParseGradingAlternateKeyAndTruncation(t *testing.T) {
	raw := `{"answers":[{"mark":10},{"mark":20},{"mark":30}]}`
	got, err := ParseGrading(raw, 2)
	require.NoError(t, err)
	assert.Len(t, got.Grades, 2)
}

func TestParseGradingIgnoresBracesInProse(t *testing.T) {
	cases := map[string]string{
		"after":  `{"results":[{"mark":80},{"mark":60}]} (note: {approx})`,
		"before": "Scores {approx} follow: [{\"mark\":80},{\"mark\":60}] thanks [end]",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := ParseGrading(raw, 2)
			require.NoError(t, err)
			assert.Equal(t, 70, got.Score())
		})
	}

	essay, err := ParseEssayGrading(`Result [draft]: {"score":75,"feedback":"Good"} {unused}`)
	require.NoError(t, err)
	assert.Equal(t, 75, essay.Score)
	assert.Equal(t, "Good", essay.Feedback)
}

func TestParseGradingClampsMarks(t *testing.T) {
	got, err := ParseGrading(`[{"mark":140},{"mark":-3}]`, 2)
	require.NoError(t, err)
	assert.Equal(t, 100, got.Grades[0].Mark)
	assert.Equal(t, 0, got.Grades[1].Mark)
}

func TestParseGradingRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":     "I think the learner did well",
		"too few":      `{"results":[{"mark":1}]}`,
		"no mark":      `[{"suggestion":"x"},{"mark":2}]`,
		"scalar items": `[1,2]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseGrading(raw, 2)
			assert.ErrorIs(t, err, ErrMalformedReply)
		})
	}
}

func TestScoreRoundsMean(t *testing.T) {
	r := GradingResult{Grades: []Grade{{Mark: 70}, {Mark: 75}}}
	assert.Equal(t, 73, r.Score())
	assert.Equal(t, 0, (&GradingResult{}).Score())
}

func TestParseEssayGrading(t *testing.T) {
	got, err := ParseEssayGrading("```\n{\"score\":\"88\",\"feedback\":\"Nice\",\"corrections\":[\"a\",\"b\"]}\n```")
	require.NoError(t, err)
	assert.Equal(t, 88, got.Score)
	assert.Equal(t, "Nice", got.Feedback)
	assert.Equal(t, "a\nb", got.Corrections)

	_, err = ParseEssayGrading(`{"feedback":"no score"}`)
	assert.ErrorIs(t, err, ErrMalformedReply)
}

func TestPairsFromHistory(t *testing.T) {
	turns := []models.Turn{
		{Role: models.RoleAssistant, Text: "Q1"},
		{Role: models.RoleLearner, Text: "A1"},
		{Role: models.RoleAssistant, Text: "Q2"},
		{Role: models.RoleAssistant, Text: "Q3"},
		{Role: models.RoleLearner, Text: "A3"},
		{Role: models.RoleAssistant, Text: "closing"},
	}
	assert.Equal(t, []QA{{"Q1", "A1"}, {"Q3", "A3"}}, PairsFromHistory(turns))
}

func TestSystemPromptDebateSides(t *testing.T) {
	contra := "contra"
	s := &models.Session{Kind: models.KindDebate, Theme: "Homework should be banned", Position: &contra}
	p := SystemPrompt(s)
	assert.Contains(t, p, "The learner argues contra, you argue pro.")
	assert.Contains(t, p, "Homework should be banned")
}
