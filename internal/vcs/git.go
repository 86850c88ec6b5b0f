package vcs

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitSource reads changed paths from a git repository on disk.
type GitSource struct {
	dir     string
	base    string
	timeout time.Duration
}

// NewGitSource creates a GitSource for the repository containing dir; the
// .git directory is searched upwards from dir. A positive timeout bounds
// every diff.
func NewGitSource(dir string, timeout time.Duration) *GitSource {
	return &GitSource{dir: dir, timeout: timeout}
}

// WithBase makes ChangedPaths report paths relative to base instead of the
// work tree root. Paths outside base come back with a leading "../".
func (g *GitSource) WithBase(base string) *GitSource {
	g.base = base
	return g
}

// ChangedPaths diffs the trees at both ends of r and returns every path that
// was added, modified, or deleted, sorted and deduplicated.
func (g *GitSource) ChangedPaths(ctx context.Context, r Range) ([]string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	repo, err := git.PlainOpenWithOptions(g.dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("vcs: open repo %s: %w", g.dir, err)
	}
	prefix, err := g.basePrefix(repo)
	if err != nil {
		return nil, err
	}

	from, err := resolveCommit(repo, r.From)
	if err != nil {
		return nil, err
	}
	to, err := resolveCommit(repo, r.To)
	if err != nil {
		return nil, err
	}
	if r.MergeBase {
		bases, err := from.MergeBase(to)
		if err != nil {
			return nil, fmt.Errorf("vcs: merge base %s: %w", r, err)
		}
		if len(bases) == 0 {
			return nil, fmt.Errorf("vcs: no merge base for %s", r)
		}
		from = bases[0]
	}

	fromTree, err := from.Tree()
	if err != nil {
		return nil, fmt.Errorf("vcs: tree %s: %w", r.From, err)
	}
	toTree, err := to.Tree()
	if err != nil {
		return nil, fmt.Errorf("vcs: tree %s: %w", r.To, err)
	}

	changes, err := fromTree.DiffContext(ctx, toTree)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("vcs: diff %s timed out after %s: %w", r, g.timeout, err)
		}
		return nil, fmt.Errorf("vcs: diff %s: %w", r, err)
	}

	seen := make(map[string]struct{}, len(changes))
	out := make([]string, 0, len(changes))
	for _, ch := range changes {
		for _, name := range []string{ch.From.Name, ch.To.Name} {
			if name == "" {
				continue
			}
			name = rebase(prefix, name)
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

func resolveCommit(repo *git.Repository, rev string) (*object.Commit, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("vcs: resolve %s: %w", rev, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("vcs: commit %s: %w", rev, err)
	}
	return commit, nil
}

// basePrefix returns the base directory relative to the work tree root, or
// "." when no base is set or the repository has no work tree.
func (g *GitSource) basePrefix(repo *git.Repository) (string, error) {
	if g.base == "" {
		return ".", nil
	}
	wt, err := repo.Worktree()
	if err != nil {
		if errors.Is(err, git.ErrIsBareRepository) {
			return ".", nil
		}
		return "", fmt.Errorf("vcs: worktree: %w", err)
	}
	root, err := realPath(wt.Filesystem.Root())
	if err != nil {
		return "", fmt.Errorf("vcs: worktree root: %w", err)
	}
	base, err := realPath(g.base)
	if err != nil {
		return "", fmt.Errorf("vcs: base %s: %w", g.base, err)
	}
	rel, err := filepath.Rel(root, base)
	if err != nil {
		return "", fmt.Errorf("vcs: base %s outside work tree: %w", g.base, err)
	}
	return filepath.ToSlash(rel), nil
}

// rebase turns a work-tree-relative name into one relative to prefix.
func rebase(prefix, name string) string {
	if prefix == "." {
		return name
	}
	rel, err := filepath.Rel(filepath.FromSlash(prefix), filepath.FromSlash(name))
	if err != nil {
		return name
	}
	return filepath.ToSlash(rel)
}

func realPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}
