package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"git-repository-manager/internal/database"
	"git-repository-manager/internal/validation"
)

// CreateReportRequest represents the request body for queuing a contributor report
type CreateReportRequest struct {
	Repositories []string `json:"repositories"`
	Days         int      `json:"days"`
}

// CreateReport handles POST /api/v1/reports
func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		Error(w, fmt.Errorf("background jobs are not enabled"), http.StatusServiceUnavailable)
		return
	}

	var req CreateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, fmt.Errorf("invalid request body"), http.StatusBadRequest)
		return
	}

	v := validation.New()
	v.NotEmpty("repositories", req.Repositories)
	for _, name := range req.Repositories {
		v.Required("repositories", name).LocalName("repositories", name)
	}
	if req.Days != 0 {
		v.InRange("days", req.Days, 1, maxDays)
	}
	if err := v.Validate(); err != nil {
		Error(w, err, http.StatusBadRequest)
		return
	}

	job, err := h.publisher.PublishReportJob(r.Context(), req.Repositories, req.Days)
	if err != nil {
		Error(w, fmt.Errorf("failed to queue report job: %w", err), http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusAccepted, map[string]string{
		"job_id":     job.ID,
		"type":       string(job.Type),
		"report_key": database.ReportKey(req.Repositories),
	})
}

// GetLatestReport handles GET /api/v1/reports/latest
func (h *Handler) GetLatestReport(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		Error(w, fmt.Errorf("report storage is not enabled"), http.StatusServiceUnavailable)
		return
	}

	key := r.URL.Query().Get("key")
	if key == "" {
		names, err := repoNames(r)
		if err != nil {
			Error(w, err, http.StatusBadRequest)
			return
		}
		key = database.ReportKey(names)
	}

	report, err := h.db.GetLatestReport(r.Context(), key)
	if err != nil {
		Error(w, validation.ParseDatabaseError(err), http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusOK, report)
}
