// Package gitutil wraps the host VCS operations the attribution engine
// treats as an external black box (spec §1: "the host VCS itself ... invoked
// as a black box for diffs, merge-base, tree reads, and note storage"):
// tree/blob reads, blame, merge-base, and the authorship-log notes store.
package gitutil

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrNotFound is returned when a requested object does not exist at the
// given commit; callers treat it as "file absent", never as an engine error.
var ErrNotFound = errors.New("gitutil: object not found")

// Repo wraps a go-git repository with the read/write operations the
// reconciler and virtual-attribution layer need.
type Repo struct {
	repo *git.Repository
}

// Open opens the repository rooted at path (or any subdirectory of it).
func Open(path string) (*Repo, error) {
	r, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repository: %w", err)
	}
	return &Repo{repo: r}, nil
}

// Raw exposes the underlying go-git repository for packages that need
// lower-level access (tree building, reference plumbing).
func (r *Repo) Raw() *git.Repository { return r.repo }

// ResolveCommit resolves a revision string (branch, tag, short or full SHA)
// to a commit object.
func (r *Repo) ResolveCommit(rev string) (*object.Commit, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("resolving revision %q: %w", rev, err)
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("loading commit %s: %w", hash, err)
	}
	return commit, nil
}

// ReadFile reads path's content as of commit. Returns ErrNotFound if the
// path does not exist in that commit's tree.
func (r *Repo) ReadFile(commit *object.Commit, path string) (string, error) {
	tree, err := commit.Tree()
	if err != nil {
		return "", fmt.Errorf("loading tree for %s: %w", commit.Hash, err)
	}
	file, err := tree.File(path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("reading %s at %s: %w", path, commit.Hash, err)
	}
	content, err := file.Contents()
	if err != nil {
		return "", fmt.Errorf("reading contents of %s at %s: %w", path, commit.Hash, err)
	}
	return content, nil
}

// ChangedPaths returns the set of file paths whose blob differs between two
// commits (nil base compares against an empty tree), used to derive
// pathspecs for the reconciler.
func (r *Repo) ChangedPaths(base, head *object.Commit) ([]string, error) {
	headTree, err := head.Tree()
	if err != nil {
		return nil, fmt.Errorf("loading head tree: %w", err)
	}

	var baseTree *object.Tree
	if base != nil {
		baseTree, err = base.Tree()
		if err != nil {
			return nil, fmt.Errorf("loading base tree: %w", err)
		}
	}

	changes, err := object.DiffTree(baseTree, headTree)
	if err != nil {
		return nil, fmt.Errorf("diffing trees: %w", err)
	}

	seen := make(map[string]bool)
	var paths []string
	for _, c := range changes {
		for _, p := range []string{c.From.Name, c.To.Name} {
			if p == "" || seen[p] {
				continue
			}
			seen[p] = true
			paths = append(paths, p)
		}
	}
	return paths, nil
}

// MergeBase returns the merge-base commit of a and b.
func (r *Repo) MergeBase(a, b *object.Commit) (*object.Commit, error) {
	bases, err := a.MergeBase(b)
	if err != nil {
		return nil, fmt.Errorf("computing merge-base: %w", err)
	}
	if len(bases) == 0 {
		return nil, errors.New("gitutil: no merge base found")
	}
	return bases[0], nil
}

// AncestorsUpTo walks up to limit first-parent-and-merge ancestors of start
// (inclusive), in commit-log order, used by foreign-prompt discovery.
func (r *Repo) AncestorsUpTo(start *object.Commit, limit int) ([]*object.Commit, error) {
	iter, err := r.repo.Log(&git.LogOptions{From: start.Hash})
	if err != nil {
		return nil, fmt.Errorf("walking history from %s: %w", start.Hash, err)
	}
	defer iter.Close()

	var out []*object.Commit
	for len(out) < limit {
		c, err := iter.Next()
		if err != nil {
			break
		}
		out = append(out, c)
	}
	return out, nil
}

// CreateBlob creates a blob object from content and returns its hash.
func CreateBlob(repo *git.Repository, content []byte) (plumbing.Hash, error) {
	obj := repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(len(content)))

	w, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("opening blob writer: %w", err)
	}
	if _, err := w.Write(content); err != nil {
		_ = w.Close()
		return plumbing.ZeroHash, fmt.Errorf("writing blob: %w", err)
	}
	if err := w.Close(); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("closing blob writer: %w", err)
	}
	return repo.Storer.SetEncodedObject(obj)
}

// FlattenTree recursively flattens a tree into a map of full paths to entries.
func FlattenTree(repo *git.Repository, tree *object.Tree, prefix string, entries map[string]object.TreeEntry) error {
	for _, entry := range tree.Entries {
		fullPath := entry.Name
		if prefix != "" {
			fullPath = prefix + "/" + entry.Name
		}
		if entry.Mode == filemode.Dir {
			subtree, err := repo.TreeObject(entry.Hash)
			if err != nil {
				return fmt.Errorf("loading subtree %s: %w", fullPath, err)
			}
			if err := FlattenTree(repo, subtree, fullPath, entries); err != nil {
				return err
			}
			continue
		}
		entries[fullPath] = object.TreeEntry{Name: fullPath, Mode: entry.Mode, Hash: entry.Hash}
	}
	return nil
}

// treeNode is an intermediate structure for BuildTreeFromEntries.
type treeNode struct {
	entries map[string]*treeNode
	files   []object.TreeEntry
}

// BuildTreeFromEntries builds a proper (nested, sorted) git tree object from
// a flat map of full paths to entries.
func BuildTreeFromEntries(repo *git.Repository, entries map[string]object.TreeEntry) (plumbing.Hash, error) {
	root := &treeNode{entries: make(map[string]*treeNode)}
	for fullPath, entry := range entries {
		insertIntoTree(root, splitPath(fullPath), entry)
	}
	return buildTreeObject(repo, root)
}

func splitPath(p string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(p); i++ {
		if p[i] == '/' {
			parts = append(parts, p[start:i])
			start = i + 1
		}
	}
	parts = append(parts, p[start:])
	return parts
}

func insertIntoTree(node *treeNode, pathParts []string, entry object.TreeEntry) {
	if len(pathParts) == 1 {
		node.files = append(node.files, object.TreeEntry{Name: pathParts[0], Mode: entry.Mode, Hash: entry.Hash})
		return
	}
	dirName := pathParts[0]
	if node.entries[dirName] == nil {
		node.entries[dirName] = &treeNode{entries: make(map[string]*treeNode)}
	}
	insertIntoTree(node.entries[dirName], pathParts[1:], entry)
}

func buildTreeObject(repo *git.Repository, node *treeNode) (plumbing.Hash, error) {
	entries := append([]object.TreeEntry{}, node.files...)
	for name, sub := range node.entries {
		hash, err := buildTreeObject(repo, sub)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		entries = append(entries, object.TreeEntry{Name: name, Mode: filemode.Dir, Hash: hash})
	}
	sortTreeEntries(entries)

	tree := &object.Tree{Entries: entries}
	obj := repo.Storer.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("encoding tree: %w", err)
	}
	return repo.Storer.SetEncodedObject(obj)
}

func sortTreeEntries(entries []object.TreeEntry) {
	less := func(i, j int) bool {
		ni, nj := entries[i].Name, entries[j].Name
		if entries[i].Mode == filemode.Dir {
			ni += "/"
		}
		if entries[j].Mode == filemode.Dir {
			nj += "/"
		}
		return ni < nj
	}
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && less(j, j-1); j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
}

// CreateCommit creates a commit object with the given tree and parents (no
// parents means a root commit) and returns its hash. Used for the
// authorship-notes store and the after-the-fact-squash hanging commit.
func CreateCommit(repo *git.Repository, treeHash plumbing.Hash, parents []plumbing.Hash, message string, sig object.Signature) (plumbing.Hash, error) {
	commit := &object.Commit{
		TreeHash:     treeHash,
		Author:       sig,
		Committer:    sig,
		Message:      message,
		ParentHashes: parents,
	}
	obj := repo.Storer.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("encoding commit: %w", err)
	}
	return repo.Storer.SetEncodedObject(obj)
}
