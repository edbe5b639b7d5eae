package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/rs/zerolog"
)

var errNotPresent = errors.New("no repository at destination")

// Acquirer materializes clones under a storage root. A destination that
// already holds a repository is opened as is; the remote is never contacted
// again for it. Calls racing on the same local name are not safe.
type Acquirer struct {
	root     string
	progress io.Writer
}

type AcquirerOption func(*Acquirer)

// WithProgress streams go-git clone progress to w.
func WithProgress(w io.Writer) AcquirerOption {
	return func(a *Acquirer) {
		a.progress = w
	}
}

// NewAcquirer creates an acquirer rooted at root, creating the directory if needed.
func NewAcquirer(root string, opts ...AcquirerOption) (*Acquirer, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, RootDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}

	a := &Acquirer{root: abs}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Root returns the absolute storage root.
func (a *Acquirer) Root() string {
	return a.root
}

// Acquire returns a non-bare clone of ref, cloning only if the destination
// holds no repository yet.
func (a *Acquirer) Acquire(ctx context.Context, ref Reference) (*Repository, error) {
	return a.acquire(ctx, ref, CloneOptions{Credentials: ref.Credentials})
}

// AcquireBare is Acquire for bare clones. opts.Bare is always forced on.
func (a *Acquirer) AcquireBare(ctx context.Context, ref Reference, opts CloneOptions) (*Repository, error) {
	opts.Bare = true
	if opts.Credentials == nil {
		opts.Credentials = ref.Credentials
	}
	return a.acquire(ctx, ref, opts)
}

// Open returns the existing clone stored under localName without cloning.
func (a *Acquirer) Open(ctx context.Context, localName string) (*Repository, error) {
	path, err := a.Path(localName)
	if err != nil {
		return nil, err
	}
	repo, err := openExisting(path)
	if errors.Is(err, errNotPresent) {
		return nil, fmt.Errorf("%w: %s", ErrNotCloned, localName)
	}
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Debug().Str("path", path).Msg("Opened local repository")
	return repo, nil
}

// OpenAll opens several existing clones. On error the ones already opened
// are closed again.
func (a *Acquirer) OpenAll(ctx context.Context, localNames ...string) ([]*Repository, error) {
	repos := make([]*Repository, 0, len(localNames))
	for _, name := range localNames {
		repo, err := a.Open(ctx, name)
		if err != nil {
			CloseAll(repos)
			return nil, err
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

// CloseAll closes every repository in repos.
func CloseAll(repos []*Repository) {
	for _, r := range repos {
		r.Close()
	}
}

// Remove deletes the clone stored under localName.
func (a *Acquirer) Remove(ctx context.Context, localName string) error {
	path, err := a.Path(localName)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	zerolog.Ctx(ctx).Info().Str("path", path).Msg("Removed local repository")
	return nil
}

// Path resolves localName against the storage root. Names that are absolute,
// empty or contain a ".." element are rejected; symlinks are resolved without
// leaving the root.
func (a *Acquirer) Path(localName string) (string, error) {
	if !filepath.IsLocal(localName) {
		return "", fmt.Errorf("%w: %q is not a local name", ErrInvalidDestination, localName)
	}
	for _, part := range strings.Split(filepath.ToSlash(localName), "/") {
		if part == ".." {
			return "", fmt.Errorf("%w: %q contains a parent reference", ErrInvalidDestination, localName)
		}
	}

	path, err := securejoin.SecureJoin(a.root, localName)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidDestination, err)
	}
	if path == a.root {
		return "", fmt.Errorf("%w: %q resolves to the storage root", ErrInvalidDestination, localName)
	}
	return path, nil
}

func (a *Acquirer) acquire(ctx context.Context, ref Reference, opts CloneOptions) (*Repository, error) {
	path, err := a.Path(ref.LocalName)
	if err != nil {
		return nil, err
	}

	log := zerolog.Ctx(ctx).With().
		Str("source", RedactURL(ref.SourceURI)).
		Str("path", path).
		Bool("bare", opts.Bare).
		Logger()

	repo, err := openExisting(path)
	if err == nil {
		if repo.IsBare() != opts.Bare {
			repo.Close()
			return nil, fmt.Errorf("%w: %s exists with different bareness (bare=%t)", ErrInvalidDestination, path, repo.IsBare())
		}
		log.Debug().Msg("Repository already cloned, skipping clone")
		return repo, nil
	}
	if !errors.Is(err, errNotPresent) {
		return nil, err
	}

	auth, err := resolveAuth(ctx, opts.Credentials, ref.SourceURI)
	if err != nil {
		return nil, err
	}

	cloneOpts := &git.CloneOptions{
		URL:      ref.SourceURI,
		Auth:     auth,
		Progress: a.progress,
	}
	if len(opts.Branches) > 0 {
		cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(opts.Branches[0])
		cloneOpts.SingleBranch = true
	}

	_, statErr := os.Stat(path)
	preexisting := statErr == nil

	log.Info().Strs("branches", opts.Branches).Msg("Cloning repository")
	r, err := git.PlainCloneContext(ctx, path, opts.Bare, cloneOpts)
	if err != nil {
		log.Warn().Err(err).Msg("Clone failed")
		return nil, classifyCloneError(RedactURL(ref.SourceURI), err)
	}

	if len(opts.Branches) > 1 {
		if err := fetchBranches(ctx, r, opts.Branches[1:], auth, a.progress); err != nil {
			repo := newRepository(r, path)
			repo.Close()
			discardClone(path, preexisting)
			log.Warn().Err(err).Msg("Fetching additional branches failed")
			return nil, classifyCloneError(RedactURL(ref.SourceURI), err)
		}
	}

	log.Info().Msg("Repository cloned")
	return newRepository(r, path), nil
}

// openExisting opens the repository at path. It returns errNotPresent when
// path is missing or an empty directory.
func openExisting(path string) (*Repository, error) {
	entries, err := os.ReadDir(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errNotPresent
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidDestination, path, err)
	}
	if len(entries) == 0 {
		return nil, errNotPresent
	}

	r, err := git.PlainOpen(path)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("%w: %s exists and is not a repository", ErrInvalidDestination, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidDestination, path, err)
	}
	return newRepository(r, path), nil
}

// fetchBranches brings additional branches into a single-branch clone and
// creates a local branch for each of them.
func fetchBranches(ctx context.Context, r *git.Repository, branches []string, auth transport.AuthMethod, progress io.Writer) error {
	specs := make([]config.RefSpec, 0, len(branches))
	for _, b := range branches {
		specs = append(specs, config.RefSpec(fmt.Sprintf("+%s:%s",
			plumbing.NewBranchReferenceName(b),
			plumbing.NewRemoteReferenceName(git.DefaultRemoteName, b),
		)))
	}

	err := r.FetchContext(ctx, &git.FetchOptions{
		RemoteName: git.DefaultRemoteName,
		RefSpecs:   specs,
		Auth:       auth,
		Progress:   progress,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return err
	}

	for _, b := range branches {
		remote, err := r.Reference(plumbing.NewRemoteReferenceName(git.DefaultRemoteName, b), true)
		if err != nil {
			return fmt.Errorf("branch %s: %w", b, err)
		}
		local := plumbing.NewHashReference(plumbing.NewBranchReferenceName(b), remote.Hash())
		if err := r.Storer.SetReference(local); err != nil {
			return fmt.Errorf("failed to create branch %s: %w", b, err)
		}
	}
	return nil
}

func discardClone(path string, preexisting bool) {
	os.RemoveAll(path)
	if preexisting {
		os.MkdirAll(path, RootDirPerm)
	}
}
