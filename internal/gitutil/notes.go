package gitutil

import (
	"fmt"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// NotesRef is the dedicated ref holding authorship-log notes, one entry per
// commit SHA, propagated on fetch/push like any other notes ref (spec §6,
// "Notes storage").
const NotesRef = "refs/notes/gitauthor"

// ReadNote returns the authorship-log text attached to commitSHA, or
// ("", false, nil) if none exists.
func (r *Repo) ReadNote(commitSHA string) (string, bool, error) {
	ref, err := r.repo.Reference(plumbing.ReferenceName(NotesRef), true)
	if err != nil {
		return "", false, nil //nolint:nilerr // no notes ref yet is expected
	}
	commit, err := r.repo.CommitObject(ref.Hash())
	if err != nil {
		return "", false, fmt.Errorf("loading notes commit: %w", err)
	}
	content, err := r.ReadFile(commit, commitSHA)
	if err != nil {
		if err == ErrNotFound {
			return "", false, nil
		}
		return "", false, err
	}
	return content, true, nil
}

// WriteNote attaches (or overwrites) the authorship-log text for commitSHA,
// creating a new commit on NotesRef whose tree adds/replaces that one entry.
func (r *Repo) WriteNote(commitSHA, content string) error {
	entries := make(map[string]object.TreeEntry)

	var parents []plumbing.Hash
	if ref, err := r.repo.Reference(plumbing.ReferenceName(NotesRef), true); err == nil {
		parent, err := r.repo.CommitObject(ref.Hash())
		if err != nil {
			return fmt.Errorf("loading notes parent commit: %w", err)
		}
		tree, err := parent.Tree()
		if err != nil {
			return fmt.Errorf("loading notes tree: %w", err)
		}
		if err := FlattenTree(r.repo, tree, "", entries); err != nil {
			return fmt.Errorf("flattening notes tree: %w", err)
		}
		parents = []plumbing.Hash{ref.Hash()}
	}

	blobHash, err := CreateBlob(r.repo, []byte(content))
	if err != nil {
		return fmt.Errorf("creating note blob: %w", err)
	}
	entries[commitSHA] = object.TreeEntry{Name: commitSHA, Mode: filemode.Regular, Hash: blobHash}

	treeHash, err := BuildTreeFromEntries(r.repo, entries)
	if err != nil {
		return fmt.Errorf("building notes tree: %w", err)
	}

	sig := object.Signature{Name: "gitauthor", Email: "gitauthor@localhost", When: time.Now()}
	commitHash, err := CreateCommit(r.repo, treeHash, parents, "gitauthor: update authorship note for "+commitSHA, sig)
	if err != nil {
		return fmt.Errorf("creating notes commit: %w", err)
	}

	newRef := plumbing.NewHashReference(plumbing.ReferenceName(NotesRef), commitHash)
	if err := r.repo.Storer.SetReference(newRef); err != nil {
		return fmt.Errorf("updating notes ref: %w", err)
	}
	return nil
}

// DeleteNote removes the authorship-log entry for commitSHA, if any.
func (r *Repo) DeleteNote(commitSHA string) error {
	ref, err := r.repo.Reference(plumbing.ReferenceName(NotesRef), true)
	if err != nil {
		return nil //nolint:nilerr // nothing to delete
	}
	parent, err := r.repo.CommitObject(ref.Hash())
	if err != nil {
		return fmt.Errorf("loading notes parent commit: %w", err)
	}
	tree, err := parent.Tree()
	if err != nil {
		return fmt.Errorf("loading notes tree: %w", err)
	}

	entries := make(map[string]object.TreeEntry)
	if err := FlattenTree(r.repo, tree, "", entries); err != nil {
		return fmt.Errorf("flattening notes tree: %w", err)
	}
	if _, ok := entries[commitSHA]; !ok {
		return nil
	}
	delete(entries, commitSHA)

	treeHash, err := BuildTreeFromEntries(r.repo, entries)
	if err != nil {
		return fmt.Errorf("building notes tree: %w", err)
	}
	sig := object.Signature{Name: "gitauthor", Email: "gitauthor@localhost", When: time.Now()}
	commitHash, err := CreateCommit(r.repo, treeHash, []plumbing.Hash{ref.Hash()}, "gitauthor: remove authorship note for "+commitSHA, sig)
	if err != nil {
		return fmt.Errorf("creating notes commit: %w", err)
	}
	return r.repo.Storer.SetReference(plumbing.NewHashReference(plumbing.ReferenceName(NotesRef), commitHash))
}
