package git

import (
	"context"
	"net/http"
	"net/http/cgi"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireClonesOnce(t *testing.T) {
	ctx := context.Background()
	source := createSourceRepo(t, time.Now())
	a := newTestAcquirer(t)
	ref := Reference{SourceURI: source, LocalName: "test-repo-cloned"}

	first, err := a.Acquire(ctx, ref)
	require.NoError(t, err)
	head, err := first.Git().Head()
	require.NoError(t, err)
	require.NoError(t, first.Close())

	// Without the remote the second call can only succeed from the local copy.
	require.NoError(t, os.RemoveAll(source))

	second, err := a.Acquire(ctx, ref)
	require.NoError(t, err)
	defer second.Close()

	again, err := second.Git().Head()
	require.NoError(t, err)
	assert.Equal(t, head.Hash(), again.Hash())
	assert.Equal(t, filepath.Join(a.Root(), "test-repo-cloned"), second.Path())
}

func TestAcquireNonBare(t *testing.T) {
	source := createSourceRepo(t, time.Now())
	a := newTestAcquirer(t)

	repo, err := a.Acquire(context.Background(), Reference{SourceURI: source, LocalName: "plain"})
	require.NoError(t, err)
	defer repo.Close()

	assert.False(t, repo.IsBare())
	branch, err := repo.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "master", branch)
	assert.DirExists(t, filepath.Join(repo.Path(), ".git"))
}

func TestAcquireIntoExistingEmptyDirectory(t *testing.T) {
	source := createSourceRepo(t, time.Now())
	a := newTestAcquirer(t)
	require.NoError(t, os.Mkdir(filepath.Join(a.Root(), "empty"), 0755))

	repo, err := a.Acquire(context.Background(), Reference{SourceURI: source, LocalName: "empty"})
	require.NoError(t, err)
	defer repo.Close()

	_, err = repo.Git().Head()
	assert.NoError(t, err)
}

func TestAcquireWithCredentialsOnLocalSource(t *testing.T) {
	source := createSourceRepo(t, time.Now())
	a := newTestAcquirer(t)

	repo, err := a.Acquire(context.Background(), Reference{
		SourceURI:   source,
		LocalName:   "with-credentials",
		Credentials: UsernameSecret{Username: "test author", Secret: "TestAccessCode"},
	})
	require.NoError(t, err)
	defer repo.Close()
	assert.NotNil(t, repo)
}

func TestAcquireBare(t *testing.T) {
	source := createSourceRepo(t, time.Now())
	a := newTestAcquirer(t)

	repo, err := a.AcquireBare(context.Background(), Reference{SourceURI: source, LocalName: "bare"}, CloneOptions{})
	require.NoError(t, err)
	defer repo.Close()

	assert.True(t, repo.IsBare())
	branch, err := repo.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "master", branch)
	assert.NoDirExists(t, filepath.Join(repo.Path(), ".git"))
}

func TestAcquireBareReopensAsBare(t *testing.T) {
	ctx := context.Background()
	source := createSourceRepo(t, time.Now())
	a := newTestAcquirer(t)
	ref := Reference{SourceURI: source, LocalName: "bare"}

	repo, err := a.AcquireBare(ctx, ref, CloneOptions{})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	reopened, err := a.AcquireBare(ctx, ref, CloneOptions{})
	require.NoError(t, err)
	defer reopened.Close()
	assert.True(t, reopened.IsBare())
}

func TestAcquireRejectsDifferentBareness(t *testing.T) {
	ctx := context.Background()
	source := createSourceRepo(t, time.Now())
	a := newTestAcquirer(t)

	repo, err := a.Acquire(ctx, Reference{SourceURI: source, LocalName: "working"})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	_, err = a.AcquireBare(ctx, Reference{SourceURI: source, LocalName: "working"}, CloneOptions{})
	assert.ErrorIs(t, err, ErrInvalidDestination)

	repo, err = a.AcquireBare(ctx, Reference{SourceURI: source, LocalName: "mirror"}, CloneOptions{})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	_, err = a.Acquire(ctx, Reference{SourceURI: source, LocalName: "mirror"})
	assert.ErrorIs(t, err, ErrInvalidDestination)

	// Neither clone was touched.
	opened, err := a.Open(ctx, "working")
	require.NoError(t, err)
	assert.False(t, opened.IsBare())
	require.NoError(t, opened.Close())
}

func TestAcquireBareBranches(t *testing.T) {
	dir, source := createTempRepo(t)
	commitFile(t, source, dir, "a.txt", "a", testAuthor, time.Now())

	w, err := source.Worktree()
	require.NoError(t, err)
	require.NoError(t, w.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName("feature"),
		Create: true,
	}))
	featureHash := commitFile(t, source, dir, "b.txt", "b", testAuthor, time.Now())
	require.NoError(t, w.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName("master"),
	}))

	a := newTestAcquirer(t)
	repo, err := a.AcquireBare(context.Background(), Reference{SourceURI: dir, LocalName: "branches"}, CloneOptions{
		Branches: []string{"feature", "master"},
	})
	require.NoError(t, err)
	defer repo.Close()

	branch, err := repo.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "feature", branch)

	feature, err := repo.Git().Reference(plumbing.NewBranchReferenceName("feature"), true)
	require.NoError(t, err)
	assert.Equal(t, featureHash, feature.Hash().String())

	_, err = repo.Git().Reference(plumbing.NewBranchReferenceName("master"), true)
	assert.NoError(t, err)
}

func TestAcquireRejectsUnsafeLocalNames(t *testing.T) {
	a := newTestAcquirer(t)

	for _, name := range []string{"", ".", "../escape", "a/../../escape", "nested/../sibling", "/absolute"} {
		t.Run(name, func(t *testing.T) {
			// The source is never contacted: an unreachable URL must not matter.
			_, err := a.Acquire(context.Background(), Reference{SourceURI: "https://invalid.invalid/repo.git", LocalName: name})
			assert.ErrorIs(t, err, ErrInvalidDestination)
		})
	}

	entries, err := os.ReadDir(a.Root())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAcquireRejectsNonRepositoryDirectory(t *testing.T) {
	a := newTestAcquirer(t)
	dest := filepath.Join(a.Root(), "occupied")
	require.NoError(t, os.Mkdir(dest, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "README"), []byte("not a repo"), 0644))

	_, err := a.Acquire(context.Background(), Reference{SourceURI: "https://invalid.invalid/repo.git", LocalName: "occupied"})
	assert.ErrorIs(t, err, ErrInvalidDestination)
}

// newGitHTTPServer serves a bare copy of source over smart HTTP through
// git http-backend, behind Basic auth.
func newGitHTTPServer(t *testing.T, source, username, password string) *httptest.Server {
	t.Helper()
	gitBin, err := exec.LookPath("git")
	if err != nil {
		t.Skip("git binary not available")
	}

	root := t.TempDir()
	_, err = git.PlainClone(filepath.Join(root, "repo.git"), true, &git.CloneOptions{URL: source})
	require.NoError(t, err)

	backend := &cgi.Handler{
		Path: gitBin,
		Args: []string{"http-backend"},
		Env: []string{
			"GIT_PROJECT_ROOT=" + root,
			"GIT_HTTP_EXPORT_ALL=1",
		},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != username || p != password {
			w.Header().Set("WWW-Authenticate", `Basic realm="git"`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		backend.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestAcquireAuthentication(t *testing.T) {
	const username, password = "agitter", "letmein"

	dir, source := createTempRepo(t)
	head := commitFile(t, source, dir, "test.txt", "test content", testAuthor, time.Now())

	server := newGitHTTPServer(t, dir, username, password)
	a := newTestAcquirer(t)
	uri := server.URL + "/repo.git"

	t.Run("wrong credentials", func(t *testing.T) {
		repo, err := a.Acquire(context.Background(), Reference{
			SourceURI:   uri,
			LocalName:   "wrong",
			Credentials: UsernameSecret{Username: "invalidusername", Secret: "invalidpassword"},
		})
		assert.ErrorIs(t, err, ErrAuthentication)
		assert.Nil(t, repo)
		assert.NoDirExists(t, filepath.Join(a.Root(), "wrong"))
	})

	t.Run("no credentials", func(t *testing.T) {
		_, err := a.Acquire(context.Background(), Reference{SourceURI: uri, LocalName: "anonymous"})
		assert.ErrorIs(t, err, ErrAuthentication)
	})

	t.Run("valid credentials", func(t *testing.T) {
		repo, err := a.Acquire(context.Background(), Reference{
			SourceURI:   uri,
			LocalName:   "valid",
			Credentials: UsernameSecret{Username: username, Secret: password},
		})
		require.NoError(t, err)
		require.NotNil(t, repo)
		defer repo.Close()

		ref, err := repo.Git().Head()
		require.NoError(t, err)
		assert.Equal(t, head, ref.Hash().String())
		assert.False(t, repo.IsBare())
	})
}

func TestAcquireMissingRemoteIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	a := newTestAcquirer(t)
	_, err := a.Acquire(context.Background(), Reference{
		SourceURI:   server.URL + "/missing.git",
		LocalName:   "missing",
		Credentials: UsernameSecret{Username: "agitter", Secret: "letmein"},
	})
	assert.ErrorIs(t, err, ErrTransport)
	assert.NotErrorIs(t, err, ErrAuthentication)
	assert.NoDirExists(t, filepath.Join(a.Root(), "missing"))
}

func TestOpenRequiresExistingClone(t *testing.T) {
	ctx := context.Background()
	a := newTestAcquirer(t)

	_, err := a.Open(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotCloned)

	source := createSourceRepo(t, time.Now())
	repo, err := a.Acquire(ctx, Reference{SourceURI: source, LocalName: "present"})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	opened, err := a.Open(ctx, "present")
	require.NoError(t, err)
	defer opened.Close()
	assert.False(t, opened.IsBare())
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	source := createSourceRepo(t, time.Now())
	a := newTestAcquirer(t)

	repo, err := a.AcquireBare(ctx, Reference{SourceURI: source, LocalName: "gone"}, CloneOptions{})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	require.NoError(t, a.Remove(ctx, "gone"))
	assert.NoDirExists(t, filepath.Join(a.Root(), "gone"))

	assert.ErrorIs(t, a.Remove(ctx, "../gone"), ErrInvalidDestination)
}

func TestOpenAll(t *testing.T) {
	ctx := context.Background()
	a := newTestAcquirer(t)

	for _, name := range []string{"one", "two"} {
		repo, err := a.AcquireBare(ctx, Reference{SourceURI: createSourceRepo(t, time.Now()), LocalName: name}, CloneOptions{})
		require.NoError(t, err)
		require.NoError(t, repo.Close())
	}

	repos, err := a.OpenAll(ctx, "one", "two")
	require.NoError(t, err)
	assert.Len(t, repos, 2)
	CloseAll(repos)

	repos, err = a.OpenAll(ctx, "one", "missing")
	assert.ErrorIs(t, err, ErrNotCloned)
	assert.Nil(t, repos)
}
