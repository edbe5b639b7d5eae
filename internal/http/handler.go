package http

import (
	"context"
	"net/http"

	"git-repository-manager/internal/config"
	"git-repository-manager/internal/database"
	"git-repository-manager/internal/git"
	"git-repository-manager/internal/queue"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Store is the persistence the API reads and writes, satisfied by *database.DB
type Store interface {
	UpsertRepository(ctx context.Context, repo *database.Repository) error
	UpdateRepositoryStatus(ctx context.Context, localName string, status database.CloneStatus) error
	ListRepositories(ctx context.Context, limit, offset int) ([]*database.Repository, error)
	DeleteRepository(ctx context.Context, localName string) error
	GetLatestReport(ctx context.Context, key string) (*database.Report, error)
}

type Handler struct {
	router     chi.Router
	acquirer   *git.Acquirer
	aggregator *git.Aggregator
	db         Store
	publisher  queue.IPublisher
	sshKey     git.AuthProvider
	httpCfg    config.HTTPConfig
	logger     zerolog.Logger
}

type Option func(*Handler)

// WithStore enables repository tracking and stored reports
func WithStore(db Store) Option {
	return func(h *Handler) {
		h.db = db
	}
}

// WithPublisher enables background jobs
func WithPublisher(p queue.IPublisher) Option {
	return func(h *Handler) {
		h.publisher = p
	}
}

// WithSSHKey authenticates ssh clones that carry no credentials of their own
func WithSSHKey(provider git.AuthProvider) Option {
	return func(h *Handler) {
		h.sshKey = provider
	}
}

func NewHandler(acquirer *git.Acquirer, aggregator *git.Aggregator, cfg *config.Config, logger zerolog.Logger, opts ...Option) *Handler {
	h := &Handler{
		router:     chi.NewRouter(),
		acquirer:   acquirer,
		aggregator: aggregator,
		httpCfg:    cfg.HTTP,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.registerRoutes()
	return h
}

func (h *Handler) registerRoutes() {
	h.router.Use(middleware.RequestID)
	h.router.Use(h.Logger)
	h.router.Use(middleware.Recoverer)
	h.router.Use(CORS)

	// Health check
	h.router.Get("/ping", h.Ping)

	// API routes
	h.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/repositories", h.AcquireRepository)
		r.Get("/repositories", h.ListRepositories)
		r.Delete("/repositories/{name}", h.DeleteRepository)

		r.Get("/authors", h.ListAuthors)
		r.Get("/activity", h.GetActivity)
		r.Get("/bus-factor", h.GetBusFactor)
		r.Get("/daily-activity", h.GetDailyActivity)

		r.Post("/reports", h.CreateReport)
		r.Get("/reports/latest", h.GetLatestReport)

		r.Get("/queue/length", h.GetQueueLength)
	})
}

func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]string{
		"message": "pong",
	})
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}
