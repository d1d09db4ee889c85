package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	helpers "git.home.luguber.info/inful/gendocs/internal/testutil/testutils"
)

func TestRead_NotARepository(t *testing.T) {
	info, err := Read(t.TempDir(), Options{})
	require.NoError(t, err)
	assert.False(t, info.Available)
}

func TestRead_Repository(t *testing.T) {
	repo, dir := helpers.SetupTestGitRepo(t, "")
	_, err := repo.CreateRemote(&gitconfig.RemoteConfig{Name: "origin", URLs: []string{"https://example.com/acme/widget.git"}})
	require.NoError(t, err)

	when := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	helpers.CommitFile(t, repo, dir, "a.txt", "A", "Initial import", "alice", when)
	last := helpers.CommitFile(t, repo, dir, "b.txt", "B", "Add generator\n\nLonger body.", "bob", when.Add(time.Hour))

	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(sub, 0o750))

	info, err := Read(sub, Options{})
	require.NoError(t, err)
	require.True(t, info.Available)
	assert.Equal(t, last.String(), info.Commit)
	assert.Equal(t, last.String()[:7], info.ShortCommit)
	assert.Equal(t, "bob", info.Author)
	assert.Equal(t, "Add generator", info.Subject)
	assert.True(t, info.Date.Equal(when.Add(time.Hour)))
	assert.Equal(t, "https://example.com/acme/widget.git", info.RemoteURL)
	assert.Equal(t, 2, info.CommitCount)
	assert.False(t, info.CountCapped)
	assert.Equal(t, []string{"alice", "bob"}, info.Contributors)
	assert.NotEmpty(t, info.Branch)
	assert.False(t, info.Dirty)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("changed"), 0o600))
	info, err = Read(dir, Options{})
	require.NoError(t, err)
	assert.True(t, info.Dirty)

	info, err = Read(dir, Options{SkipStatus: true})
	require.NoError(t, err)
	assert.False(t, info.Dirty)
}

func TestRead_UnbornBranch(t *testing.T) {
	_, dir := helpers.SetupTestGitRepo(t, "")

	info, err := Read(dir, Options{})
	require.NoError(t, err)
	assert.True(t, info.Available)
	assert.Empty(t, info.Commit)
	assert.NotEmpty(t, info.Branch)
	assert.Zero(t, info.CommitCount)
}

func TestShortHash(t *testing.T) {
	assert.Equal(t, "abcdef1", ShortHash("abcdef1234567890"))
	assert.Equal(t, "abc", ShortHash("abc"))
}
