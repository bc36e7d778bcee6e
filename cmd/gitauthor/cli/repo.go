package cli

import (
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/entireio/gitauthor/internal/gitutil"
	"github.com/entireio/gitauthor/internal/paths"
)

// allTrackedPaths lists every file path in ref's tree, used when a command
// isn't given explicit pathspecs.
func allTrackedPaths(repo *gitutil.Repo, ref string) ([]string, error) {
	commit, err := repo.ResolveCommit(ref)
	if err != nil {
		return nil, err
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("reading tree at %s: %w", ref, err)
	}

	var paths []string
	walker := tree.Files()
	defer walker.Close()
	for {
		f, err := walker.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("walking tree at %s: %w", ref, err)
		}
		paths = append(paths, f.Name)
	}
	return paths, nil
}

// openRepo resolves the repository root from the current directory and
// opens it, returning both since almost every command needs them together.
func openRepo() (*gitutil.Repo, string, error) {
	root, err := paths.RepoRoot()
	if err != nil {
		return nil, "", fmt.Errorf("not a git repository: %w", err)
	}
	repo, err := gitutil.Open(root)
	if err != nil {
		return nil, "", err
	}
	return repo, root, nil
}

// localGitUser returns the configured git user.name, used as the default
// human author fallback when no CI context applies.
func localGitUser() string {
	out, err := exec.Command("git", "config", "user.name").Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}
