package stats

import (
	"time"

	"git-repository-manager/internal/git"
)

// ActivityLevel represents the commit count for a specific date
type ActivityLevel struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
	Level int    `json:"level"` // 0-4 based on count
}

// GetCommitActivity returns the daily commit activity of the last days days,
// oldest first, including days without commits.
func GetCommitActivity(activity []git.CommitActivity, days int, now time.Time) []ActivityLevel {
	if days <= 0 {
		days = 365 // Default to 1 year
	}

	now = now.UTC()
	startDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -days)

	activityMap := make(map[string]int)
	for _, a := range activity {
		for _, c := range a.Commits {
			when := c.When.UTC()
			if when.Before(startDate) || when.After(now) {
				continue
			}
			activityMap[when.Format("2006-01-02")]++
		}
	}

	// Fill missing dates
	var levels []ActivityLevel
	currentDate := startDate

	for !currentDate.After(now) {
		dateStr := currentDate.Format("2006-01-02")
		count := activityMap[dateStr]

		levels = append(levels, ActivityLevel{
			Date:  dateStr,
			Count: count,
			Level: level(count),
		})
		currentDate = currentDate.AddDate(0, 0, 1)
	}

	return levels
}

func level(count int) int {
	switch {
	case count == 0:
		return 0
	case count <= 2:
		return 1
	case count <= 5:
		return 2
	case count <= 10:
		return 3
	default:
		return 4
	}
}
