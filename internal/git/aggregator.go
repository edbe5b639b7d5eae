package git

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/rs/zerolog"
)

// Author is a commit author. Authors are the same iff their emails match.
type Author struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CommitRef points at one counted commit.
type CommitRef struct {
	Hash       string    `json:"hash"`
	When       time.Time `json:"when"`
	Repository string    `json:"repository"`
}

// CommitActivity aggregates the commits of one author.
type CommitActivity struct {
	Author  Author      `json:"author"`
	Count   int         `json:"count"`
	Commits []CommitRef `json:"commits"`
}

// Aggregator derives author statistics by walking HEAD history. It holds no
// state between calls.
type Aggregator struct {
	now func() time.Time
}

func NewAggregator() *Aggregator {
	return &Aggregator{now: time.Now}
}

// FindAuthors returns the distinct authors of all given repositories, sorted
// by email. The name kept for an author is the one on their most recent
// commit, so the input order does not change the result.
func (a *Aggregator) FindAuthors(ctx context.Context, repos ...*Repository) ([]Author, error) {
	seen := make(map[string]*identity)

	for _, repo := range distinct(repos) {
		err := a.walk(ctx, repo, time.Time{}, func(c *object.Commit) {
			observe(seen, c)
		})
		if err != nil {
			return nil, err
		}
	}

	authors := make([]Author, 0, len(seen))
	for _, id := range seen {
		authors = append(authors, id.author)
	}
	sort.Slice(authors, func(i, j int) bool {
		return authors[i].Email < authors[j].Email
	})
	return authors, nil
}

// CountAuthorCommits counts commits per author email across all given
// repositories. A zero since counts all history; otherwise commits whose
// committer time is before since are skipped. A clone passed more than once
// is counted once.
func (a *Aggregator) CountAuthorCommits(ctx context.Context, since time.Time, repos ...*Repository) ([]CommitActivity, error) {
	activity := make(map[string]*CommitActivity)
	seen := make(map[string]*identity)

	for _, repo := range distinct(repos) {
		err := a.walk(ctx, repo, since, func(c *object.Commit) {
			observe(seen, c)
			email := c.Author.Email
			entry, ok := activity[email]
			if !ok {
				entry = &CommitActivity{}
				activity[email] = entry
			}
			entry.Count++
			entry.Commits = append(entry.Commits, CommitRef{
				Hash:       c.Hash.String(),
				When:       c.Committer.When,
				Repository: repo.Path(),
			})
		})
		if err != nil {
			return nil, err
		}
	}

	result := make([]CommitActivity, 0, len(activity))
	for email, entry := range activity {
		entry.Author = seen[email].author
		sort.Slice(entry.Commits, func(i, j int) bool {
			ci, cj := entry.Commits[i], entry.Commits[j]
			if !ci.When.Equal(cj.When) {
				return ci.When.Before(cj.When)
			}
			if ci.Repository != cj.Repository {
				return ci.Repository < cj.Repository
			}
			return ci.Hash < cj.Hash
		})
		result = append(result, *entry)
	}

	// Sort contributors by number of commits
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Author.Email < result[j].Author.Email
	})
	return result, nil
}

// CountAuthorCommitsForDays counts the commits of the last days days. days <= 0
// counts all history.
func (a *Aggregator) CountAuthorCommitsForDays(ctx context.Context, days int, repos ...*Repository) ([]CommitActivity, error) {
	var since time.Time
	if days > 0 {
		since = a.now().AddDate(0, 0, -days)
	}
	return a.CountAuthorCommits(ctx, since, repos...)
}

// identity is the newest name seen for an email.
type identity struct {
	author Author
	when   time.Time
}

// observe records the author of c, keeping the name of the latest authored
// commit. Equal times fall back to the greater name.
func observe(seen map[string]*identity, c *object.Commit) {
	when := c.Author.When
	id, ok := seen[c.Author.Email]
	if !ok {
		seen[c.Author.Email] = &identity{author: Author{Name: c.Author.Name, Email: c.Author.Email}, when: when}
		return
	}
	if when.After(id.when) || (when.Equal(id.when) && c.Author.Name > id.author.Name) {
		id.author.Name = c.Author.Name
		id.when = when
	}
}

// distinct drops repeated handles to the same clone.
func distinct(repos []*Repository) []*Repository {
	seen := make(map[string]bool, len(repos))
	out := make([]*Repository, 0, len(repos))
	for _, r := range repos {
		if r != nil && r.repo != nil {
			if seen[r.path] {
				continue
			}
			seen[r.path] = true
		}
		out = append(out, r)
	}
	return out
}

// walk visits HEAD history of repo. A repository without commits is visited
// as empty; any other read failure is ErrUnreadableRepository.
func (a *Aggregator) walk(ctx context.Context, repo *Repository, since time.Time, fn func(*object.Commit)) error {
	if repo == nil || repo.repo == nil {
		return fmt.Errorf("%w: nil handle", ErrUnreadableRepository)
	}

	ref, err := repo.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		zerolog.Ctx(ctx).Debug().Str("path", repo.Path()).Msg("Repository has no commits")
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %s: failed to get HEAD reference: %w", ErrUnreadableRepository, repo.Path(), err)
	}

	opts := &git.LogOptions{
		From:  ref.Hash(),
		Order: git.LogOrderCommitterTime,
	}
	if !since.IsZero() {
		opts.Since = &since
	}

	commitIter, err := repo.repo.Log(opts)
	if err != nil {
		return fmt.Errorf("%w: %s: failed to get commit log: %w", ErrUnreadableRepository, repo.Path(), err)
	}
	defer commitIter.Close()

	count := 0
	err = commitIter.ForEach(func(c *object.Commit) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		count++
		fn(c)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %s: failed to iterate commits: %w", ErrUnreadableRepository, repo.Path(), err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", repo.Path()).Int("commits", count).Msg("Walked history")
	return nil
}
