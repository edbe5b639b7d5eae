package database

import (
	"sort"
	"strings"
	"time"
)

// CloneStatus represents the state of a local clone
type CloneStatus string

const (
	StatusPending CloneStatus = "pending"
	StatusCloning CloneStatus = "cloning"
	StatusCloned  CloneStatus = "cloned"
	StatusFailed  CloneStatus = "failed"
)

// Repository records a clone materialized under the storage root.
// URL never carries credentials.
type Repository struct {
	ID           int64       `json:"id"`
	URL          string      `json:"url"`
	LocalName    string      `json:"local_name"`
	Bare         bool        `json:"bare"`
	Status       CloneStatus `json:"status"`
	LastClonedAt *time.Time  `json:"last_cloned_at,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Report is a stored snapshot of per-author commit counts
type Report struct {
	ID          int64         `json:"id"`
	ReportKey   string        `json:"report_key"`
	Since       *time.Time    `json:"since,omitempty"`
	GeneratedAt time.Time     `json:"generated_at"`
	Entries     []ReportEntry `json:"entries"`
}

// ReportEntry is one author line of a Report
type ReportEntry struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	CommitCount int    `json:"commit_count"`
}

// ReportKey identifies the set of local clones a report covers, independent of order
func ReportKey(localNames []string) string {
	names := append([]string(nil), localNames...)
	sort.Strings(names)
	return strings.Join(names, ",")
}
