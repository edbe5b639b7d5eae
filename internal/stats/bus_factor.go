package stats

import (
	"sort"

	"git-repository-manager/internal/config"
	"git-repository-manager/internal/git"
)

// BusFactorOptions contains optional filters for bus factor calculation
type BusFactorOptions struct {
	Threshold   float64 // Ownership threshold (e.g., 0.5 = 50%)
	ExcludeBots bool    // Whether to drop authors matching config.AuthorExclusions
}

// BusFactorResult holds the calculated bus factor and ownership data
type BusFactorResult struct {
	BusFactor       int                    `json:"bus_factor"`
	Threshold       float64                `json:"threshold"` // e.g., 0.5 for 50%
	TotalCommits    int                    `json:"total_commits"`
	TopContributors []ContributorOwnership `json:"top_contributors"`
	RiskLevel       string                 `json:"risk_level"` // "high", "medium", "low", "unknown"
}

// ContributorOwnership represents a contributor's share of the counted commits
type ContributorOwnership struct {
	Email        string  `json:"email"`
	Name         string  `json:"name"`
	Commits      int     `json:"commits"`
	OwnershipPct float64 `json:"ownership_pct"`
}

// CalculateBusFactor returns the minimum number of authors whose commits
// make up at least the threshold share of all counted commits.
func CalculateBusFactor(activity []git.CommitActivity, opts BusFactorOptions) *BusFactorResult {
	if opts.Threshold <= 0 || opts.Threshold > 1 {
		opts.Threshold = 0.5
	}

	contributors := make([]ContributorOwnership, 0, len(activity))
	totalCommits := 0
	for _, a := range activity {
		if opts.ExcludeBots && config.IsExcludedAuthor(a.Author.Email) {
			continue
		}
		totalCommits += a.Count
		contributors = append(contributors, ContributorOwnership{
			Email:   a.Author.Email,
			Name:    a.Author.Name,
			Commits: a.Count,
		})
	}

	if totalCommits == 0 {
		return &BusFactorResult{
			BusFactor:       0,
			Threshold:       opts.Threshold,
			TotalCommits:    0,
			TopContributors: []ContributorOwnership{},
			RiskLevel:       "unknown",
		}
	}

	// Calculate ownership percentages
	for i := range contributors {
		contributors[i].OwnershipPct = float64(contributors[i].Commits) * 100.0 / float64(totalCommits)
	}

	// Sort by commits descending
	sort.SliceStable(contributors, func(i, j int) bool {
		return contributors[i].Commits > contributors[j].Commits
	})

	// Calculate bus factor: count contributors needed to reach threshold
	busFactor := 0
	cumulativeOwnership := 0.0
	thresholdPct := opts.Threshold * 100.0

	for _, c := range contributors {
		busFactor++
		cumulativeOwnership += c.OwnershipPct
		if cumulativeOwnership >= thresholdPct {
			break
		}
	}

	// Determine risk level
	riskLevel := "low"
	if busFactor == 1 {
		riskLevel = "high"
	} else if busFactor <= 3 {
		riskLevel = "medium"
	}

	return &BusFactorResult{
		BusFactor:       busFactor,
		Threshold:       opts.Threshold,
		TotalCommits:    totalCommits,
		TopContributors: contributors,
		RiskLevel:       riskLevel,
	}
}
