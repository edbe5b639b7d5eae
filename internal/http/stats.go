package http

import (
	"net/http"
	"strconv"
	"time"

	"git-repository-manager/internal/git"
	"git-repository-manager/internal/stats"
	"git-repository-manager/internal/validation"
)

// GetBusFactor handles GET /api/v1/bus-factor
func (h *Handler) GetBusFactor(w http.ResponseWriter, r *http.Request) {
	opts := stats.BusFactorOptions{
		Threshold:   h.httpCfg.BusFactorThreshold,
		ExcludeBots: true,
	}

	v := validation.New()
	if thresholdStr := r.URL.Query().Get("threshold"); thresholdStr != "" {
		parsed, err := strconv.ParseFloat(thresholdStr, 64)
		if err != nil {
			parsed = -1
		}
		v.FloatInRange("threshold", parsed, 0.01, 1)
		opts.Threshold = parsed
	}

	// Exclude bots unless explicitly disabled
	if excludeStr := r.URL.Query().Get("exclude_bots"); excludeStr != "" {
		opts.ExcludeBots = excludeStr != "false"
	}

	if err := v.Validate(); err != nil {
		Error(w, err, http.StatusBadRequest)
		return
	}

	since, err := parseSince(r, time.Now())
	if err != nil {
		Error(w, err, http.StatusBadRequest)
		return
	}

	_, repos, ok := h.openRepositories(w, r)
	if !ok {
		return
	}
	defer git.CloseAll(repos)

	activity, err := h.aggregator.CountAuthorCommits(r.Context(), since, repos...)
	if err != nil {
		Error(w, err, http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusOK, stats.CalculateBusFactor(activity, opts))
}

// GetDailyActivity handles GET /api/v1/daily-activity
func (h *Handler) GetDailyActivity(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", 365)
	if err != nil {
		Error(w, err, http.StatusBadRequest)
		return
	}
	if err := validation.New().InRange("days", days, 1, maxDays).Validate(); err != nil {
		Error(w, err, http.StatusBadRequest)
		return
	}

	_, repos, ok := h.openRepositories(w, r)
	if !ok {
		return
	}
	defer git.CloseAll(repos)

	now := time.Now()
	// One extra day covers the partial first day of the window.
	activity, err := h.aggregator.CountAuthorCommits(r.Context(), now.AddDate(0, 0, -(days+1)), repos...)
	if err != nil {
		Error(w, err, http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusOK, map[string][]stats.ActivityLevel{
		"activity": stats.GetCommitActivity(activity, days, now),
	})
}
