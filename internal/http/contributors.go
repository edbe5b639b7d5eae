package http

import (
	"net/http"
	"time"

	"git-repository-manager/internal/git"
)

// ActivityResponse is the per-author commit count since a point in time
type ActivityResponse struct {
	Since        *time.Time           `json:"since,omitempty"`
	Repositories []string             `json:"repositories"`
	Activity     []git.CommitActivity `json:"activity"`
}

// openRepositories opens the local clones named by the repo query parameters.
// The caller closes them with git.CloseAll.
func (h *Handler) openRepositories(w http.ResponseWriter, r *http.Request) ([]string, []*git.Repository, bool) {
	names, err := repoNames(r)
	if err != nil {
		Error(w, err, http.StatusBadRequest)
		return nil, nil, false
	}

	repos, err := h.acquirer.OpenAll(r.Context(), names...)
	if err != nil {
		Error(w, err, http.StatusInternalServerError)
		return nil, nil, false
	}
	return names, repos, true
}

// ListAuthors handles GET /api/v1/authors
func (h *Handler) ListAuthors(w http.ResponseWriter, r *http.Request) {
	_, repos, ok := h.openRepositories(w, r)
	if !ok {
		return
	}
	defer git.CloseAll(repos)

	authors, err := h.aggregator.FindAuthors(r.Context(), repos...)
	if err != nil {
		Error(w, err, http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusOK, map[string][]git.Author{
		"authors": authors,
	})
}

// GetActivity handles GET /api/v1/activity
func (h *Handler) GetActivity(w http.ResponseWriter, r *http.Request) {
	since, err := parseSince(r, time.Now())
	if err != nil {
		Error(w, err, http.StatusBadRequest)
		return
	}

	names, repos, ok := h.openRepositories(w, r)
	if !ok {
		return
	}
	defer git.CloseAll(repos)

	activity, err := h.aggregator.CountAuthorCommits(r.Context(), since, repos...)
	if err != nil {
		Error(w, err, http.StatusInternalServerError)
		return
	}

	resp := ActivityResponse{
		Repositories: names,
		Activity:     activity,
	}
	if !since.IsZero() {
		resp.Since = &since
	}
	JSON(w, http.StatusOK, resp)
}
