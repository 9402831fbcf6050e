// Package workspace inspects the directory the assistant works in.
package workspace

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Info describes a working directory.
type Info struct {
	Dir string
	// Root is the top of the enclosing git worktree, empty outside a repository.
	Root   string
	Branch string
	// Detached is set when HEAD points at a commit rather than a branch.
	Detached bool
	Dirty    bool
}

// IsRepo reports whether Dir is inside a git worktree.
func (i Info) IsRepo() bool {
	return i.Root != ""
}

// RepoError is returned when a repository exists but cannot be read.
type RepoError struct {
	Dir   string
	Cause error
}

func (e *RepoError) Error() string {
	return fmt.Sprintf("failed to inspect git repository at %s: %v", e.Dir, e.Cause)
}
func (e *RepoError) Unwrap() error { return e.Cause }

// Describe inspects dir and any enclosing git repository. A directory
// outside a repository is not an error.
func Describe(dir string) (Info, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Info{}, err
	}
	info := Info{Dir: abs}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return info, nil
		}
		return info, &RepoError{Dir: abs, Cause: err}
	}

	wt, err := repo.Worktree()
	if err != nil {
		// Bare repository: nothing to report.
		if errors.Is(err, git.ErrIsBareRepository) {
			return info, nil
		}
		return info, &RepoError{Dir: abs, Cause: err}
	}
	info.Root = wt.Filesystem.Root()

	branch, detached, err := headName(repo)
	if err != nil {
		return info, &RepoError{Dir: abs, Cause: err}
	}
	info.Branch, info.Detached = branch, detached

	status, err := wt.Status()
	if err != nil {
		return info, &RepoError{Dir: abs, Cause: err}
	}
	info.Dirty = !status.IsClean()

	return info, nil
}

// headName resolves HEAD without requiring a commit, so a freshly
// initialized repository still reports its branch.
func headName(repo *git.Repository) (string, bool, error) {
	ref, err := repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", false, err
	}
	if ref.Type() == plumbing.SymbolicReference {
		return ref.Target().Short(), false, nil
	}
	return ref.Hash().String()[:7], true, nil
}
