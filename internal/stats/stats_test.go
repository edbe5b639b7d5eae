package stats

import (
	"testing"
	"time"

	"git-repository-manager/internal/git"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activityFor(email string, whens ...time.Time) git.CommitActivity {
	a := git.CommitActivity{
		Author: git.Author{Name: email, Email: email},
		Count:  len(whens),
	}
	for _, w := range whens {
		a.Commits = append(a.Commits, git.CommitRef{When: w})
	}
	return a
}

func repeat(t time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = t
	}
	return out
}

func TestCalculateBusFactor(t *testing.T) {
	now := time.Now()
	activity := []git.CommitActivity{
		activityFor("a@x.com", repeat(now, 6)...),
		activityFor("b@x.com", repeat(now, 3)...),
		activityFor("c@x.com", repeat(now, 1)...),
	}

	result := CalculateBusFactor(activity, BusFactorOptions{Threshold: 0.5})
	assert.Equal(t, 1, result.BusFactor)
	assert.Equal(t, "high", result.RiskLevel)
	assert.Equal(t, 10, result.TotalCommits)
	require.Len(t, result.TopContributors, 3)
	assert.InDelta(t, 60.0, result.TopContributors[0].OwnershipPct, 0.001)

	result = CalculateBusFactor(activity, BusFactorOptions{Threshold: 0.95})
	assert.Equal(t, 3, result.BusFactor)
	assert.Equal(t, "medium", result.RiskLevel)
}

func TestCalculateBusFactorExcludesBots(t *testing.T) {
	now := time.Now()
	activity := []git.CommitActivity{
		activityFor("49699333+dependabot[bot]@users.noreply.github.com", repeat(now, 50)...),
		activityFor("a@x.com", repeat(now, 2)...),
		activityFor("b@x.com", repeat(now, 2)...),
	}

	result := CalculateBusFactor(activity, BusFactorOptions{Threshold: 0.5, ExcludeBots: true})
	assert.Equal(t, 4, result.TotalCommits)
	assert.Equal(t, 1, result.BusFactor)
	assert.Len(t, result.TopContributors, 2)
}

func TestCalculateBusFactorEmpty(t *testing.T) {
	result := CalculateBusFactor(nil, BusFactorOptions{})
	assert.Equal(t, 0, result.BusFactor)
	assert.Equal(t, "unknown", result.RiskLevel)
	assert.Equal(t, 0.5, result.Threshold)
	assert.NotNil(t, result.TopContributors)
}

func TestGetCommitActivity(t *testing.T) {
	now := time.Date(2024, time.June, 10, 15, 0, 0, 0, time.UTC)
	activity := []git.CommitActivity{
		activityFor("a@x.com", now.Add(-time.Hour), now.Add(-2*time.Hour), now.AddDate(0, 0, -2)),
		activityFor("b@x.com", now.AddDate(0, 0, -2), now.AddDate(0, 0, -30)),
	}

	levels := GetCommitActivity(activity, 7, now)
	require.Len(t, levels, 8)
	assert.Equal(t, "2024-06-03", levels[0].Date)
	assert.Equal(t, "2024-06-10", levels[7].Date)
	assert.Equal(t, 2, levels[7].Count)
	assert.Equal(t, 1, levels[7].Level)
	assert.Equal(t, 2, levels[5].Count)
	assert.Equal(t, 0, levels[6].Count)
	assert.Equal(t, 0, levels[6].Level)
}

func TestLevel(t *testing.T) {
	assert.Equal(t, 0, level(0))
	assert.Equal(t, 1, level(2))
	assert.Equal(t, 2, level(5))
	assert.Equal(t, 3, level(10))
	assert.Equal(t, 4, level(11))
}
