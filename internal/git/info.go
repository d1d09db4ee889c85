package git

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"git.home.luguber.info/inful/gendocs/internal/util/sets"
)

// MaxCountedCommits caps the history walk used for commit and contributor counts.
const MaxCountedCommits = 10000

// Info describes the repository containing a project.
type Info struct {
	Available    bool
	Branch       string // empty when HEAD is detached
	Commit       string
	ShortCommit  string
	Author       string
	Date         time.Time
	Subject      string
	RemoteURL    string
	CommitCount  int
	CountCapped  bool
	Contributors []string
	Dirty        bool
}

// Options tunes Read.
type Options struct {
	// SkipStatus disables the worktree status check, which can be slow on large trees.
	SkipStatus bool
}

// Read opens the repository containing root (searching parent directories).
// A directory outside any repository yields Info{Available: false} and no error.
func Read(root string, opts Options) (*Info, error) {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return &Info{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	info := &Info{Available: true}
	info.RemoteURL = originURL(repo)

	head, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		// Unborn branch: repository initialised but nothing committed yet.
		info.Branch = unbornBranch(repo)
		return info, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}
	info.Commit = head.Hash().String()
	info.ShortCommit = ShortHash(info.Commit)

	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("read HEAD commit: %w", err)
	}
	info.Author = commit.Author.Name
	info.Date = commit.Author.When
	info.Subject = firstLine(commit.Message)

	if err := countHistory(repo, head.Hash(), info); err != nil {
		return nil, err
	}

	if !opts.SkipStatus {
		if wt, wtErr := repo.Worktree(); wtErr == nil {
			if status, stErr := wt.Status(); stErr == nil {
				info.Dirty = !status.IsClean()
			}
		}
	}
	return info, nil
}

func countHistory(repo *git.Repository, from plumbing.Hash, info *Info) error {
	iter, err := repo.Log(&git.LogOptions{From: from})
	if err != nil {
		return fmt.Errorf("walk history: %w", err)
	}
	defer iter.Close()

	authors := sets.New[string]()
	err = iter.ForEach(func(c *object.Commit) error {
		if info.CommitCount >= MaxCountedCommits {
			info.CountCapped = true
			return storer.ErrStop
		}
		info.CommitCount++
		authors.Add(c.Author.Name)
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return fmt.Errorf("walk history: %w", err)
	}

	info.Contributors = sets.Sorted(authors)
	return nil
}

func originURL(repo *git.Repository) string {
	remote, err := repo.Remote("origin")
	if err != nil {
		return ""
	}
	if urls := remote.Config().URLs; len(urls) > 0 {
		return urls[0]
	}
	return ""
}

func unbornBranch(repo *git.Repository) string {
	ref, err := repo.Storer.Reference(plumbing.HEAD)
	if err != nil || ref.Type() != plumbing.SymbolicReference {
		return ""
	}
	return ref.Target().Short()
}

// ShortHash abbreviates a commit hash to seven characters.
func ShortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}

func firstLine(msg string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(msg), "\n")
	return strings.TrimSpace(line)
}
