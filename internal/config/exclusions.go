package config

import (
	"path"
	"strings"
)

// AuthorExclusions lists automation accounts left out of ownership stats
var AuthorExclusions = ExclusionConfig{
	// Patterns are path.Match globs applied to the lowercased author email
	Patterns: []string{
		// Hosted bots
		`*\[bot\]@users.noreply.github.com`,
		"*-bot@*",
		"bot@*",

		// Dependency update services
		"*dependabot*",
		"*renovate*",
		"*greenkeeper*",

		// CI systems
		"noreply@github.com",
		"*@ci.*",
	},
}

// ExclusionConfig holds author exclusion patterns
type ExclusionConfig struct {
	Patterns []string `json:"patterns"`
}

// IsExcludedAuthor reports whether email matches one of the exclusion patterns
func IsExcludedAuthor(email string) bool {
	email = strings.ToLower(email)
	for _, pattern := range AuthorExclusions.Patterns {
		if ok, _ := path.Match(pattern, email); ok {
			return true
		}
	}
	return false
}
