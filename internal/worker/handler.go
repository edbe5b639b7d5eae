package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"git-repository-manager/internal/database"
	"git-repository-manager/internal/git"
	"git-repository-manager/internal/queue"
	"git-repository-manager/internal/validation"

	"github.com/rs/zerolog"
)

// Store is the persistence used by job handling, satisfied by *database.DB
type Store interface {
	UpsertRepository(ctx context.Context, repo *database.Repository) error
	UpdateRepositoryStatus(ctx context.Context, localName string, status database.CloneStatus) error
	DeleteRepository(ctx context.Context, localName string) error
	SaveReport(ctx context.Context, report *database.Report) error
}

// JobHandler implements the queue.JobHandler interface
type JobHandler struct {
	store             Store
	acquirer          *git.Acquirer
	aggregator        *git.Aggregator
	defaultReportDays int
	now               func() time.Time
}

// NewJobHandler creates a new job handler
func NewJobHandler(store Store, acquirer *git.Acquirer, aggregator *git.Aggregator, defaultReportDays int) *JobHandler {
	return &JobHandler{
		store:             store,
		acquirer:          acquirer,
		aggregator:        aggregator,
		defaultReportDays: defaultReportDays,
		now:               time.Now,
	}
}

// HandleJob processes a job from the queue
func (h *JobHandler) HandleJob(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeAcquire:
		return h.handleAcquireJob(ctx, job)
	case queue.JobTypeReport:
		return h.handleReportJob(ctx, job)
	case queue.JobTypeDelete:
		return h.handleDeleteJob(ctx, job)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// handleAcquireJob clones the referenced repository and tracks its status
func (h *JobHandler) handleAcquireJob(ctx context.Context, job *queue.Job) error {
	branches, err := job.Strings(queue.PayloadBranches)
	if err != nil {
		return err
	}

	source := job.String(queue.PayloadURL)
	record := &database.Repository{
		URL:       git.RedactURL(source),
		LocalName: job.String(queue.PayloadLocalName),
		Bare:      job.Bool(queue.PayloadBare),
		Status:    database.StatusCloning,
	}
	if record.URL == "" || record.LocalName == "" {
		return fmt.Errorf("acquire job %s: url and local_name are required", job.ID)
	}

	if err := h.store.UpsertRepository(ctx, record); err != nil {
		return fmt.Errorf("failed to record repository: %w", validation.ParseDatabaseError(err))
	}

	ref := git.Reference{SourceURI: source, LocalName: record.LocalName}
	var repo *git.Repository
	if record.Bare {
		repo, err = h.acquirer.AcquireBare(ctx, ref, git.CloneOptions{Branches: branches})
	} else {
		repo, err = h.acquirer.Acquire(ctx, ref)
	}
	if err != nil {
		if statusErr := h.store.UpdateRepositoryStatus(ctx, record.LocalName, database.StatusFailed); statusErr != nil {
			zerolog.Ctx(ctx).Error().Err(statusErr).Str("local_name", record.LocalName).Msg("failed to mark repository as failed")
		}
		return fmt.Errorf("failed to acquire %s: %w", record.LocalName, err)
	}
	defer repo.Close()

	if err := h.store.UpdateRepositoryStatus(ctx, record.LocalName, database.StatusCloned); err != nil {
		return fmt.Errorf("failed to update repository status: %w", err)
	}

	zerolog.Ctx(ctx).Info().
		Str("local_name", record.LocalName).
		Str("path", repo.Path()).
		Msg("repository acquired")
	return nil
}

// handleReportJob counts commits per author over local clones and stores the result
func (h *JobHandler) handleReportJob(ctx context.Context, job *queue.Job) error {
	names, err := job.Strings(queue.PayloadRepositories)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("report job %s: no repositories", job.ID)
	}

	days, err := job.Int(queue.PayloadDays)
	if err != nil {
		return err
	}
	if days <= 0 {
		days = h.defaultReportDays
	}

	repos, err := h.acquirer.OpenAll(ctx, names...)
	if err != nil {
		return fmt.Errorf("failed to open repositories: %w", err)
	}
	defer git.CloseAll(repos)

	since := h.now().AddDate(0, 0, -days)
	activity, err := h.aggregator.CountAuthorCommits(ctx, since, repos...)
	if err != nil {
		return fmt.Errorf("failed to count commits: %w", err)
	}

	report := &database.Report{
		ReportKey: database.ReportKey(names),
		Since:     &since,
		Entries:   make([]database.ReportEntry, 0, len(activity)),
	}
	for _, a := range activity {
		report.Entries = append(report.Entries, database.ReportEntry{
			Email:       a.Author.Email,
			Name:        a.Author.Name,
			CommitCount: a.Count,
		})
	}

	if err := h.store.SaveReport(ctx, report); err != nil {
		return fmt.Errorf("failed to save report: %w", validation.ParseDatabaseError(err))
	}

	zerolog.Ctx(ctx).Info().
		Str("report_key", report.ReportKey).
		Int("authors", len(report.Entries)).
		Msg("report stored")
	return nil
}

// handleDeleteJob removes the local clone and its record
func (h *JobHandler) handleDeleteJob(ctx context.Context, job *queue.Job) error {
	localName := job.String(queue.PayloadLocalName)

	if err := h.acquirer.Remove(ctx, localName); err != nil {
		return fmt.Errorf("failed to remove local clone: %w", err)
	}

	if err := h.store.DeleteRepository(ctx, localName); err != nil && !errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("failed to delete repository record: %w", err)
	}

	return nil
}
