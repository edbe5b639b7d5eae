package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

var (
	testAuthor    = &object.Signature{Name: "test author", Email: "author@doe.com"}
	testCommitter = &object.Signature{Name: "test committer", Email: "committer@doe.com"}
)

// createTempRepo initializes a non-bare repository in a temporary directory.
func createTempRepo(t testing.TB) (string, *git.Repository) {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	return dir, repo
}

// commitFile writes content to name and commits it with the given author at when.
func commitFile(t testing.TB, repo *git.Repository, dir, name, content string, author *object.Signature, when time.Time) string {
	t.Helper()

	w, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Add(name); err != nil {
		t.Fatal(err)
	}

	a := *author
	a.When = when
	c := *testCommitter
	c.When = when

	hash, err := w.Commit("commit "+name, &git.CommitOptions{
		Author:    &a,
		Committer: &c,
	})
	if err != nil {
		t.Fatal(err)
	}
	return hash.String()
}

// createSourceRepo creates a repository with one commit by testAuthor at when.
func createSourceRepo(t testing.TB, when time.Time) string {
	t.Helper()
	dir, repo := createTempRepo(t)
	commitFile(t, repo, dir, "test.txt", "test content", testAuthor, when)
	return dir
}

func newTestAcquirer(t testing.TB) *Acquirer {
	t.Helper()
	a, err := NewAcquirer(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return a
}
