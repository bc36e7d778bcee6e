// Package virtualattr implements the in-memory virtual attribution (VA): the
// composition of git blame and working-log state into a single
// per-character/per-line attribution view of a set of files, and the
// transformations the reconciler drives it through (spec §4.4).
package virtualattr

import (
	"sort"
	"time"

	"github.com/entireio/gitauthor/internal/attribution"
	"github.com/entireio/gitauthor/internal/authorshiplog"
	"github.com/entireio/gitauthor/internal/prompt"
	"github.com/entireio/gitauthor/internal/rangeset"
)

// dummyAuthor is the sentinel author_id used by transformToFinalState while
// a new insertion's true owner is still unresolved (spec §4.4).
const dummyAuthor = "__DUMMY__"

// VA is the in-memory virtual attribution: per-file character attributions,
// the file content they're valid against, the prompt-session side table
// those attributions reference, and the moment they were computed.
type VA struct {
	baseCommit string
	ts         time.Time

	charAttrs    map[string][]attribution.Attribution
	fileContents map[string]string
	prompts      prompt.Table
}

// FromRaw constructs a VA directly from its components, for tests and as the
// building block every other constructor reduces to (spec §4.4, from_raw).
func FromRaw(baseCommit string, charAttrs map[string][]attribution.Attribution, fileContents map[string]string, prompts prompt.Table, ts time.Time) *VA {
	if charAttrs == nil {
		charAttrs = map[string][]attribution.Attribution{}
	}
	if fileContents == nil {
		fileContents = map[string]string{}
	}
	if prompts == nil {
		prompts = prompt.Table{}
	}
	return &VA{baseCommit: baseCommit, ts: ts, charAttrs: charAttrs, fileContents: fileContents, prompts: prompts}
}

// Files returns the sorted set of paths this VA covers.
func (v *VA) Files() []string {
	out := make([]string, 0, len(v.fileContents))
	for path := range v.fileContents {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// CharAttributions returns path's character-level attributions.
func (v *VA) CharAttributions(path string) []attribution.Attribution { return v.charAttrs[path] }

// LineAttributions derives path's line-level attributions from its current
// character attributions and content, applying the dominant-author rule.
func (v *VA) LineAttributions(path string) []attribution.LineAttribution {
	content, ok := v.fileContents[path]
	if !ok {
		return nil
	}
	return attribution.CharToLine(v.charAttrs[path], content)
}

// FileContent returns path's content and whether the VA has an entry for it.
func (v *VA) FileContent(path string) (string, bool) {
	c, ok := v.fileContents[path]
	return c, ok
}

// Prompts returns the VA's prompt-session side table.
func (v *VA) Prompts() prompt.Table { return v.prompts }

// BaseCommit returns the commit this VA was constructed against.
func (v *VA) BaseCommit() string { return v.baseCommit }

// Timestamp returns the moment this VA's attributions were computed.
func (v *VA) Timestamp() time.Time { return v.ts }

// TransformToFinalState is the exported entry point for spec §4.4's
// transform_to_final_state, used directly by the rebase/cherry-pick
// pipeline (spec §4.5) rather than only as MergeFavoringPrimary's internal
// building block.
func TransformToFinalState(tracker *attribution.Tracker, source *VA, newContents map[string]string, fallback *VA, ts time.Time) (*VA, error) {
	return transformToFinalState(tracker, source, newContents, fallback, ts)
}

// transformToFinalState runs every file's attributions through the tracker
// against its content in newContents, rescuing newly-dummy-attributed
// insertions from fallback when available, and dropping whatever remains
// unrescued (spec §4.4, transform_to_final_state).
func transformToFinalState(tracker *attribution.Tracker, source *VA, newContents map[string]string, fallback *VA, ts time.Time) (*VA, error) {
	charAttrs := make(map[string][]attribution.Attribution, len(newContents))

	for path, newContent := range newContents {
		sourceContent, hadSource := source.fileContents[path]
		sourceAttrs := source.charAttrs[path]

		if newContent == "" {
			if hadSource {
				charAttrs[path] = sourceAttrs
			}
			continue
		}

		transformed, err := tracker.Update(sourceContent, newContent, sourceAttrs, dummyAuthor, ts)
		if err != nil {
			return nil, err
		}

		if fallback != nil {
			transformed = rescueFromFallback(transformed, newContent, fallback, path)
		}

		final := make([]attribution.Attribution, 0, len(transformed))
		for _, a := range transformed {
			if a.AuthorID == dummyAuthor {
				continue
			}
			final = append(final, a)
		}
		charAttrs[path] = final
	}

	return FromRaw(source.baseCommit, charAttrs, newContents, source.prompts, ts), nil
}

// rescueFromFallback resolves dummy-attributed spans in transformed by
// checking whether fallback carries the same content for path (in which
// case its attributions are adopted wholesale) or, failing that, by locating
// each dummy span's text in fallback's content and copying whatever
// attribution covers that position there.
func rescueFromFallback(transformed []attribution.Attribution, newContent string, fallback *VA, path string) []attribution.Attribution {
	fallbackContent, ok := fallback.fileContents[path]
	if !ok {
		return transformed
	}
	if fallbackContent == newContent {
		out := make([]attribution.Attribution, len(fallback.charAttrs[path]))
		copy(out, fallback.charAttrs[path])
		return out
	}

	newRunes := []rune(newContent)
	fallbackRunes := []rune(fallbackContent)
	fallbackAttrs := fallback.charAttrs[path]

	out := make([]attribution.Attribution, 0, len(transformed))
	for _, a := range transformed {
		if a.AuthorID != dummyAuthor {
			out = append(out, a)
			continue
		}
		if a.Start < 0 || a.End > len(newRunes) || a.Start >= a.End {
			out = append(out, a)
			continue
		}
		needle := string(newRunes[a.Start:a.End])
		pos := indexOfRunes(fallbackRunes, []rune(needle))
		if pos < 0 {
			out = append(out, a)
			continue
		}
		rescued := false
		for _, fa := range fallbackAttrs {
			if pos >= fa.Start && pos < fa.End {
				out = append(out, attribution.Attribution{Start: a.Start, End: a.End, AuthorID: fa.AuthorID, Ts: fa.Ts})
				rescued = true
				break
			}
		}
		if !rescued {
			out = append(out, a)
		}
	}
	return out
}

func indexOfRunes(haystack, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
	for i := 0; i <= len(haystack)-len(needle); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// MergeFavoringPrimary transforms both primary and secondary to finalState
// independently, then emits every primary attribution plus whatever maximal
// subranges of secondary's attributions fall entirely on positions primary
// doesn't cover (spec §4.4, merge_favoring_primary).
func MergeFavoringPrimary(tracker *attribution.Tracker, primary, secondary *VA, finalState map[string]string, ts time.Time) (*VA, error) {
	primaryFinal, err := transformToFinalState(tracker, primary, finalState, nil, ts)
	if err != nil {
		return nil, err
	}
	secondaryFinal, err := transformToFinalState(tracker, secondary, finalState, nil, ts)
	if err != nil {
		return nil, err
	}

	mergedAttrs := make(map[string][]attribution.Attribution, len(finalState))
	for path, content := range finalState {
		runes := []rune(content)
		covered := make([]bool, len(runes))

		primaryAttrs := primaryFinal.charAttrs[path]
		for _, a := range primaryAttrs {
			markCovered(covered, a.Start, a.End)
		}

		var merged []attribution.Attribution
		merged = append(merged, primaryAttrs...)

		for _, a := range secondaryFinal.charAttrs[path] {
			merged = append(merged, uncoveredSubranges(a, covered)...)
		}

		mergedAttrs[path] = merged
	}

	mergedPrompts := primary.prompts.Merge(secondary.prompts)
	return FromRaw(primary.baseCommit, mergedAttrs, finalState, mergedPrompts, ts), nil
}

func markCovered(covered []bool, start, end int) {
	if start < 0 {
		start = 0
	}
	if end > len(covered) {
		end = len(covered)
	}
	for i := start; i < end; i++ {
		covered[i] = true
	}
}

// uncoveredSubranges splits a into maximal contiguous subranges that lie
// entirely within positions covered[i] == false.
func uncoveredSubranges(a attribution.Attribution, covered []bool) []attribution.Attribution {
	start := a.Start
	if start < 0 {
		start = 0
	}
	end := a.End
	if end > len(covered) {
		end = len(covered)
	}

	var out []attribution.Attribution
	i := start
	for i < end {
		if covered[i] {
			i++
			continue
		}
		runStart := i
		for i < end && !covered[i] {
			i++
		}
		out = append(out, attribution.Attribution{Start: runStart, End: i, AuthorID: a.AuthorID, Ts: a.Ts})
	}
	return out
}

// ToAuthorshipLog groups each file's line attributions by author_id,
// coalesces consecutive lines, and emits an authorshiplog.Log whose prompt
// table is this VA's, with accepted_lines recomputed from the emitted ranges
// (spec §4.4, to_authorship_log).
func (v *VA) ToAuthorshipLog() authorshiplog.Log {
	acceptedLines := map[string]int{}
	var attestations []authorshiplog.FileAttestation

	for _, path := range v.Files() {
		lineAttrs := v.LineAttributions(path)
		byAuthor := map[string][]int{}
		for _, la := range lineAttrs {
			for line := la.StartLine; line <= la.EndLine; line++ {
				byAuthor[la.AuthorID] = append(byAuthor[la.AuthorID], line)
			}
		}
		if len(byAuthor) == 0 {
			continue
		}

		hashes := make([]string, 0, len(byAuthor))
		for h := range byAuthor {
			hashes = append(hashes, h)
		}
		sort.Strings(hashes)

		var entries []authorshiplog.Entry
		for _, h := range hashes {
			lines := byAuthor[h]
			sort.Ints(lines)
			ranges := rangeset.Compress(lines)
			entries = append(entries, authorshiplog.Entry{Hash: h, LineRanges: ranges})
			acceptedLines[h] += len(lines)
		}
		attestations = append(attestations, authorshiplog.FileAttestation{FilePath: path, Entries: entries})
	}

	prompts := make(prompt.Table, len(v.prompts))
	for hash, rec := range v.prompts {
		rec.AcceptedLines = acceptedLines[hash]
		prompts[hash] = rec
	}

	return authorshiplog.Log{
		Attestations: attestations,
		Metadata: authorshiplog.Metadata{
			SchemaVersion: authorshiplog.SchemaVersion,
			BaseCommitSHA: v.baseCommit,
			Prompts:       prompts,
		},
	}
}
