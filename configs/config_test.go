package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMilestonesSortsByThreshold(t *testing.T) {
	got, err := ParseMilestones("10:25, 5:10,25:75")
	require.NoError(t, err)
	assert.Equal(t, []Milestone{{5, 10}, {10, 25}, {25, 75}}, got)
}

func TestParseMilestonesEmpty(t *testing.T) {
	got, err := ParseMilestones("  ")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestParseMilestonesRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"5", "a:1", "5:b", "0:1", "5:-1", "5:1,5:2"} {
		_, err := ParseMilestones(raw)
		assert.Error(t, err, raw)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SESSION_TOKEN_COST", "3")
	t.Setenv("REFERRAL_MILESTONES", "2:4")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, s.SessionTokenCost)
	assert.Equal(t, []Milestone{{2, 4}}, s.Milestones)
	assert.Equal(t, "8080", s.Port)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidateRejectsNegativeCosts(t *testing.T) {
	s := Settings{JWTSecret: "x", SessionTokenCost: -1, SessionDefaultMinutes: 10, GenerationRatePerMinute: 1, GenerationBurst: 1}
	assert.Error(t, s.Validate())
}
