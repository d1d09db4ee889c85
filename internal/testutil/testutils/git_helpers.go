// Package helpers holds test helpers for building throwaway git repositories.
package helpers

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// SetupTestGitRepo initializes a git repository in dir, or in a new temporary
// directory when dir is empty. Returns the repository and its path.
func SetupTestGitRepo(t *testing.T, dir string) (*git.Repository, string) {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err, "init git repo")
	return repo, dir
}

// CommitFile writes filename under the repository root, stages it and commits
// it as author at when.
func CommitFile(t *testing.T, repo *git.Repository, dir, filename, content, msg, author string, when time.Time) plumbing.Hash {
	t.Helper()
	wt, err := repo.Worktree()
	require.NoError(t, err)

	full := filepath.Join(dir, filename)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
	_, err = wt.Add(filepath.ToSlash(filename))
	require.NoError(t, err)

	hash, err := wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: author, Email: author + "@example.com", When: when},
	})
	require.NoError(t, err)
	return hash
}
