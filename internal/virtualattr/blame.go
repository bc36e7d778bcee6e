package virtualattr

import (
	"context"
	"fmt"
	"time"

	"github.com/entireio/gitauthor/internal/attribution"
	"github.com/entireio/gitauthor/internal/authorshiplog"
	"github.com/entireio/gitauthor/internal/gitutil"
	"github.com/entireio/gitauthor/internal/prompt"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// foreignPromptWalkLimit bounds how many ancestors of base_commit are
// searched for a prompt hash not already known locally (spec §9,
// "foreign-prompt discovery walks history").
const foreignPromptWalkLimit = 100

// FromBlame builds a VA for pathspecs as of baseCommit by running blame
// restricted to commits no later than baseCommit, mapping each blamed line
// to the prompt-session hash (or the human sentinel) that owns it in the
// blamed commit's authorship log, and then discovering any referenced
// prompt hash not yet known locally by walking baseCommit's history
// (spec §4.4, from_blame).
func FromBlame(ctx context.Context, repo *gitutil.Repo, baseCommit string, pathspecs []string, ts time.Time) (*VA, error) {
	commit, err := repo.ResolveCommit(baseCommit)
	if err != nil {
		return nil, fmt.Errorf("virtualattr: resolving base commit %s: %w", baseCommit, err)
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

	charAttrs := map[string][]attribution.Attribution{}
	fileContents := map[string]string{}
	prompts := prompt.Table{}

	for _, fb := range blames {
		content, err := repo.ReadFile(commit, fb.Path)
		if err != nil && err != gitutil.ErrNotFound {
			return nil, fmt.Errorf("virtualattr: reading %s at %s: %w", fb.Path, baseCommit, err)
		}
		fileContents[fb.Path] = content

		if fb.Err != nil {
			// Per-file blame failures are logged and skipped (spec §7); the
			// file is still present with no attributions, i.e. all human.
			continue
		}

		lineAuthors := make([]string, len(fb.Lines))
		for i, blamedSHA := range fb.Lines {
			if blamedSHA == "" {
				lineAuthors[i] = prompt.Human
				continue
			}
			log, ok := loadLog(blamedSHA)
			if !ok {
				lineAuthors[i] = prompt.Human
				continue
			}
			lineAuthors[i] = authorOfLine(log, fb.Path, i+1)
		}

		var lineAttrs []attribution.LineAttribution
		for i := 0; i < len(lineAuthors); {
			author := lineAuthors[i]
			j := i + 1
			for j < len(lineAuthors) && lineAuthors[j] == author {
				j++
			}
			if author != prompt.Human {
				lineAttrs = append(lineAttrs, attribution.LineAttribution{StartLine: i + 1, EndLine: j, AuthorID: author})
			}
			i = j
		}

		charAttrs[fb.Path] = attribution.LineToChar(lineAttrs, content, ts)
	}

	if err := discoverForeignPrompts(repo, commit, charAttrs, prompts); err != nil {
		return nil, err
	}

	return FromRaw(baseCommit, charAttrs, fileContents, prompts, ts), nil
}

// authorOfLine finds the prompt-session hash (or human sentinel) owning
// lineNum in path within log. git blame's reported commit identifies the
// content's origin but not that commit's own line numbering once later
// history has shifted surrounding lines, so this takes the blamed commit's
// authorship log at face value for the same line number — exact when no
// drift has occurred, and conservatively human otherwise.
func authorOfLine(log authorshiplog.Log, path string, lineNum int) string {
	for _, fa := range log.Attestations {
		if fa.FilePath != path {
			continue
		}
		for _, entry := range fa.Entries {
			for _, r := range entry.LineRanges {
				if r.Contains(lineNum) {
					return entry.Hash
				}
			}
		}
		break
	}
	return prompt.Human
}

// discoverForeignPrompts walks up to foreignPromptWalkLimit ancestors of
// commit looking for a matching prompt entry for every hash referenced in
// charAttrs but absent from prompts, caching both hits and misses.
func discoverForeignPrompts(repo *gitutil.Repo, commit *object.Commit, charAttrs map[string][]attribution.Attribution, prompts prompt.Table) error {
	missing := map[string]bool{}
	for _, attrs := range charAttrs {
		for _, a := range attrs {
			if a.AuthorID != prompt.Human {
				if _, known := prompts[a.AuthorID]; !known {
					missing[a.AuthorID] = true
				}
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}

	ancestors, err := repo.AncestorsUpTo(commit, foreignPromptWalkLimit)
	if err != nil {
		return fmt.Errorf("virtualattr: walking ancestors of %s: %w", commit.Hash, err)
	}

	resolved := map[string]bool{}
	for _, ancestor := range ancestors {
		if len(missing) == len(resolved) {
			break
		}
		log, ok, err := authorshiplog.Load(repo, ancestor.Hash.String())
		if err != nil || !ok {
			continue
		}
		for hash := range missing {
			if resolved[hash] {
				continue
			}
			if rec, found := log.Metadata.Prompts[hash]; found {
				prompts[hash] = rec
				resolved[hash] = true
			}
		}
	}
	return nil
}
