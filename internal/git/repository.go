package git

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Repository is an opened handle on a local clone. The caller owns it and
// must Close it.
type Repository struct {
	repo *git.Repository
	path string
	bare bool
}

func newRepository(repo *git.Repository, path string) *Repository {
	_, err := repo.Worktree()
	return &Repository{
		repo: repo,
		path: path,
		bare: errors.Is(err, git.ErrIsBareRepository),
	}
}

// OpenRepository opens the repository stored at repoPath.
func OpenRepository(repoPath string) (*Repository, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}
	return newRepository(repo, repoPath), nil
}

// Path returns the absolute path of the clone.
func (r *Repository) Path() string {
	return r.path
}

func (r *Repository) IsBare() bool {
	return r.bare
}

// CurrentBranch returns the short name of the branch HEAD points to. It does
// not require the branch to have commits.
func (r *Repository) CurrentBranch() (string, error) {
	head, err := r.repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return "", fmt.Errorf("failed to read HEAD: %w", err)
	}
	if head.Type() != plumbing.SymbolicReference {
		return "", ErrDetachedHead
	}
	return head.Target().Short(), nil
}

// Git exposes the underlying go-git repository for callers that need more
// than statistics, e.g. an explicit fetch.
func (r *Repository) Git() *git.Repository {
	return r.repo
}

// Close releases the file descriptors held by the object storage.
func (r *Repository) Close() error {
	if c, ok := r.repo.Storer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
