package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"git-repository-manager/internal/validation"
)

func (h *Handler) GetLimitOffset(r *http.Request) (int, int) {
	limit := r.URL.Query().Get("limit")
	offset := r.URL.Query().Get("offset")

	limitInt, err := strconv.Atoi(limit)
	if err != nil {
		limitInt = h.httpCfg.Limit
	}

	offsetInt, err := strconv.Atoi(offset)
	if err != nil {
		offsetInt = h.httpCfg.Offset
	}

	return limitInt, offsetInt
}

// repoNames returns the validated repo query parameters, in order
func repoNames(r *http.Request) ([]string, error) {
	names := r.URL.Query()["repo"]

	v := validation.New()
	v.NotEmpty("repo", names)
	for _, name := range names {
		v.Required("repo", name).LocalName("repo", name)
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return names, nil
}

// queryInt parses an optional integer query parameter
func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		v := validation.New()
		v.Custom(key, func() error { return fmt.Errorf("%s must be an integer", key) })
		return 0, v.Validate()
	}
	return value, nil
}

// parseSince reads the since (RFC 3339) or days query parameter. Zero means
// the whole history.
func parseSince(r *http.Request, now time.Time) (time.Time, error) {
	sinceRaw := r.URL.Query().Get("since")
	daysRaw := r.URL.Query().Get("days")

	v := validation.New()
	if sinceRaw != "" && daysRaw != "" {
		v.Custom("since", func() error { return fmt.Errorf("since and days are mutually exclusive") })
		return time.Time{}, v.Validate()
	}

	if sinceRaw != "" {
		since, err := time.Parse(time.RFC3339, sinceRaw)
		if err != nil {
			v.Custom("since", func() error { return fmt.Errorf("since must be an RFC 3339 timestamp") })
			return time.Time{}, v.Validate()
		}
		return since, nil
	}

	if daysRaw != "" {
		days, err := queryInt(r, "days", 0)
		if err != nil {
			return time.Time{}, err
		}
		if err := v.InRange("days", days, 1, maxDays).Validate(); err != nil {
			return time.Time{}, err
		}
		return now.AddDate(0, 0, -days), nil
	}

	return time.Time{}, nil
}

// maxDays bounds every days parameter
const maxDays = 3650
