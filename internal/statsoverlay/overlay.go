// Package statsoverlay implements the stats/blame overlay (spec §2, "Stats
// / blame overlay"): it walks a commit's blame output and classifies every
// line as human- or AI-authored by looking up the originating commit's
// authorship log, then aggregates the result per file and per author.
package statsoverlay

import (
	"context"
	"fmt"

	"github.com/entireio/gitauthor/internal/authorshiplog"
	"github.com/entireio/gitauthor/internal/gitutil"
)

// LineClass is the overlay's per-line verdict.
type LineClass struct {
	Line      int
	Human     bool
	AgentHash string // prompt-session hash, empty when Human is true
}

// FileOverlay is the per-file result of applying an authorship log to a
// file's blame.
type FileOverlay struct {
	Path  string
	Lines []LineClass
	Err   error
}

// Overlay builds the overlay for every path in pathspecs as of ref: each
// line is attributed to the authorship log of the commit blame says last
// touched it, falling back to human when that commit has no attestation
// covering the line (invariant 2: absence means human-authored).
func Overlay(ctx context.Context, repo *gitutil.Repo, ref string, pathspecs []string) ([]FileOverlay, error) {
	commit, err := repo.ResolveCommit(ref)
	if err != nil {
		return nil, fmt.Errorf("statsoverlay: resolving %s: %w", ref, err)
	}

	blames := gitutil.BlameFiles(ctx, repo, commit, pathspecs)

	logCache := map[string]authorshiplog.Log{}
	logCacheHit := map[string]bool{}
	loadLog := func(sha string) (authorshiplog.Log, bool) {
		if hit, ok := logCacheHit[sha]; ok {
			return logCache[sha], hit
		}
		log, ok, err := authorshiplog.Load(repo, sha)
		if err != nil || !ok {
			logCacheHit[sha] = false
			return authorshiplog.Log{}, false
		}
		logCache[sha] = log
		logCacheHit[sha] = true
		return log, true
	}

	out := make([]FileOverlay, 0, len(blames))
	for _, fb := range blames {
		if fb.Err != nil {
			out = append(out, FileOverlay{Path: fb.Path, Err: fb.Err})
			continue
		}

		lines := make([]LineClass, len(fb.Lines))
		for i, originSHA := range fb.Lines {
			lineNo := i + 1
			lines[i] = LineClass{Line: lineNo, Human: true}
			if originSHA == "" {
				continue
			}
			log, ok := loadLog(originSHA)
			if !ok {
				continue
			}
			if hash, found := entryOwning(log, fb.Path, lineNo); found {
				lines[i] = LineClass{Line: lineNo, Human: false, AgentHash: hash}
			}
		}
		out = append(out, FileOverlay{Path: fb.Path, Lines: lines})
	}
	return out, nil
}

// entryOwning returns the prompt hash of the entry in path's attestation
// that covers line, if any.
func entryOwning(log authorshiplog.Log, path string, line int) (string, bool) {
	for _, att := range log.Attestations {
		if att.FilePath != path {
			continue
		}
		for _, entry := range att.Entries {
			if entry.LineRanges.Contains(line) {
				return entry.Hash, true
			}
		}
	}
	return "", false
}
