package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"git-repository-manager/internal/database"
	"git-repository-manager/internal/git"
	"git-repository-manager/internal/validation"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// AcquireRepositoryRequest represents the request body for acquiring a repository
type AcquireRepositoryRequest struct {
	URL       string   `json:"url"`
	LocalName string   `json:"local_name"`
	Username  string   `json:"username"`
	Secret    string   `json:"secret"`
	Bare      bool     `json:"bare"`
	Branches  []string `json:"branches"`
	// Async queues the clone instead of cloning within the request
	Async bool `json:"async"`
}

// AcquireRepositoryResponse describes the local clone
type AcquireRepositoryResponse struct {
	LocalName string `json:"local_name"`
	Path      string `json:"path"`
	Bare      bool   `json:"bare"`
	Branch    string `json:"branch,omitempty"`
}

// JobResponse is returned for requests handled in the background
type JobResponse struct {
	JobID string `json:"job_id"`
	Type  string `json:"type"`
}

// extractCredentials moves a password embedded in the URL into Username and
// Secret so that only the bare URL is stored or queued. Explicit fields win.
func (req *AcquireRepositoryRequest) extractCredentials() {
	uri, creds := git.SplitCredentials(req.URL)
	if creds == nil {
		return
	}
	req.URL = uri
	if req.Secret == "" {
		req.Username = creds.Username
		req.Secret = creds.Secret
	}
}

func (req *AcquireRepositoryRequest) validate() error {
	v := validation.New()
	v.Required("url", req.URL).GitURL("url", req.URL).MaxLength("url", req.URL, 2048)
	v.Required("local_name", req.LocalName).
		LocalName("local_name", req.LocalName).
		MaxLength("local_name", req.LocalName, 255)

	for _, b := range req.Branches {
		v.Required("branches", b).
			Matches("branches", b, `^[A-Za-z0-9._/-]+$`, "branches must be valid branch names").
			MaxLength("branches", b, 255)
	}
	if len(req.Branches) > 0 && !req.Bare {
		v.Custom("branches", func() error { return fmt.Errorf("branches can only be selected for bare clones") })
	}
	if req.Username != "" {
		v.Required("secret", req.Secret)
	}
	if req.Async && req.Secret != "" {
		v.Custom("async", func() error { return fmt.Errorf("authenticated clones cannot be queued") })
	}

	return v.Validate()
}

func (h *Handler) credentialsFor(req *AcquireRepositoryRequest) git.Credentials {
	if req.Secret != "" {
		return git.UsernameSecret{Username: req.Username, Secret: req.Secret}
	}
	if h.sshKey != nil && git.IsSSH(req.URL) {
		return git.ExternalProvider{Provider: h.sshKey}
	}
	return git.NoCredentials{}
}

// AcquireRepository handles POST /api/v1/repositories
func (h *Handler) AcquireRepository(w http.ResponseWriter, r *http.Request) {
	var req AcquireRepositoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, fmt.Errorf("invalid request body"), http.StatusBadRequest)
		return
	}

	req.extractCredentials()
	if err := req.validate(); err != nil {
		Error(w, err, http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	if req.Async {
		if h.publisher == nil {
			Error(w, fmt.Errorf("background jobs are not enabled"), http.StatusServiceUnavailable)
			return
		}
		job, err := h.publisher.PublishAcquireJob(ctx, req.URL, req.LocalName, req.Bare, req.Branches)
		if err != nil {
			Error(w, fmt.Errorf("failed to queue acquire job: %w", err), http.StatusInternalServerError)
			return
		}
		JSON(w, http.StatusAccepted, JobResponse{JobID: job.ID, Type: string(job.Type)})
		return
	}

	h.recordStatus(r, &req, database.StatusCloning)

	ref := git.Reference{
		SourceURI:   req.URL,
		LocalName:   req.LocalName,
		Credentials: h.credentialsFor(&req),
	}

	var (
		repo *git.Repository
		err  error
	)
	if req.Bare {
		repo, err = h.acquirer.AcquireBare(ctx, ref, git.CloneOptions{Branches: req.Branches})
	} else {
		repo, err = h.acquirer.Acquire(ctx, ref)
	}
	if err != nil {
		h.recordStatus(r, &req, database.StatusFailed)
		Error(w, err, http.StatusInternalServerError)
		return
	}
	defer repo.Close()

	h.recordStatus(r, &req, database.StatusCloned)

	branch, err := repo.CurrentBranch()
	if err != nil && !errors.Is(err, git.ErrDetachedHead) {
		zerolog.Ctx(ctx).Warn().Err(err).Str("local_name", req.LocalName).Msg("failed to read current branch")
	}

	JSON(w, http.StatusOK, AcquireRepositoryResponse{
		LocalName: req.LocalName,
		Path:      repo.Path(),
		Bare:      repo.IsBare(),
		Branch:    branch,
	})
}

// recordStatus tracks the clone when a store is configured. Tracking
// failures never fail the request.
func (h *Handler) recordStatus(r *http.Request, req *AcquireRepositoryRequest, status database.CloneStatus) {
	if h.db == nil {
		return
	}

	ctx := r.Context()
	var err error
	if status == database.StatusCloning {
		err = h.db.UpsertRepository(ctx, &database.Repository{
			URL:       git.RedactURL(req.URL),
			LocalName: req.LocalName,
			Bare:      req.Bare,
			Status:    status,
		})
	} else {
		err = h.db.UpdateRepositoryStatus(ctx, req.LocalName, status)
	}
	if err != nil {
		zerolog.Ctx(ctx).Warn().
			Err(validation.ParseDatabaseError(err)).
			Str("local_name", req.LocalName).
			Str("status", string(status)).
			Msg("failed to record repository status")
	}
}

// ListRepositories handles GET /api/v1/repositories
func (h *Handler) ListRepositories(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		Error(w, fmt.Errorf("repository tracking is not enabled"), http.StatusServiceUnavailable)
		return
	}

	limit, offset := h.GetLimitOffset(r)

	v := validation.New()
	v.InRange("limit", limit, 1, 100).GreaterThanOrEqual("offset", offset, 0)
	if err := v.Validate(); err != nil {
		Error(w, err, http.StatusBadRequest)
		return
	}

	repos, err := h.db.ListRepositories(r.Context(), limit, offset)
	if err != nil {
		Error(w, validation.ParseDatabaseError(err), http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"repositories": repos,
		"limit":        limit,
		"offset":       offset,
	})
}

// DeleteRepository handles DELETE /api/v1/repositories/{name}
func (h *Handler) DeleteRepository(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	v := validation.New()
	v.Required("name", name).LocalName("name", name)
	if err := v.Validate(); err != nil {
		Error(w, err, http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	if h.publisher != nil {
		job, err := h.publisher.PublishDeleteJob(ctx, name)
		if err != nil {
			Error(w, fmt.Errorf("failed to queue delete job: %w", err), http.StatusInternalServerError)
			return
		}
		JSON(w, http.StatusAccepted, JobResponse{JobID: job.ID, Type: string(job.Type)})
		return
	}

	if err := h.acquirer.Remove(ctx, name); err != nil {
		Error(w, err, http.StatusInternalServerError)
		return
	}
	if h.db != nil {
		if err := h.db.DeleteRepository(ctx, name); err != nil {
			Error(w, validation.ParseDatabaseError(err), http.StatusInternalServerError)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetQueueLength handles GET /api/v1/queue/length
func (h *Handler) GetQueueLength(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		Error(w, fmt.Errorf("background jobs are not enabled"), http.StatusServiceUnavailable)
		return
	}

	length, err := h.publisher.GetQueueLength(r.Context())
	if err != nil {
		Error(w, err, http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusOK, map[string]int64{"length": length})
}
