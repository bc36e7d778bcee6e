package virtualattr

import (
	"sort"
	"strings"

	"github.com/entireio/gitauthor/internal/attribution"
	"github.com/entireio/gitauthor/internal/authorshiplog"
	"github.com/entireio/gitauthor/internal/prompt"
	"github.com/entireio/gitauthor/internal/rangeset"
	"github.com/entireio/gitauthor/internal/workinglog"
)

// Split partitions v's attributions against committedContents (the new
// commit's tree) into the authorship log for the commit and the INITIAL
// seed for the working log that survives it (spec §4.4, split).
//
// A working line is "committed" if its exact content is present, and not
// yet claimed by an earlier working line, in the corresponding committed
// file (the "first unused occurrence" rule); its attribution then moves to
// the authorship log keyed by the committed line number. Everything else
// stays in the INITIAL seed keyed by its working line number.
func (v *VA) Split(committedContents map[string]string) (authorshiplog.Log, workinglog.Seed) {
	committedByAuthor := map[string]map[string][]int{} // path -> author -> committed line numbers
	initialByAuthor := map[string]map[string][]int{}   // path -> author -> working line numbers

	initialUsedPrompts := map[string]bool{}

	for _, path := range v.Files() {
		workingContent := v.fileContents[path]
		lineAttrs := v.LineAttributions(path)

		committedContent, isCommitted := committedContents[path]
		if !isCommitted {
			bucket := map[string][]int{}
			for _, la := range lineAttrs {
				for line := la.StartLine; line <= la.EndLine; line++ {
					bucket[la.AuthorID] = append(bucket[la.AuthorID], line)
					initialUsedPrompts[la.AuthorID] = true
				}
			}
			if len(bucket) > 0 {
				initialByAuthor[path] = bucket
			}
			continue
		}

		workingLines := splitLinesKeepEmpty(workingContent)
		committedLines := splitLinesKeepEmpty(committedContent)
		authorOf := lineAuthorIndex(lineAttrs, len(workingLines))

		used := make([]bool, len(committedLines))
		committedBucket := map[string][]int{}
		initialBucket := map[string][]int{}

		for i, author := range authorOf {
			if author == "" {
				continue // human line, nothing to carry
			}
			workingLine := i + 1
			if j := firstUnusedOccurrence(committedLines, used, workingLines[i]); j >= 0 {
				used[j] = true
				committedBucket[author] = append(committedBucket[author], j+1)
			} else {
				initialBucket[author] = append(initialBucket[author], workingLine)
				initialUsedPrompts[author] = true
			}
		}

		if len(committedBucket) > 0 {
			committedByAuthor[path] = committedBucket
		}
		if len(initialBucket) > 0 {
			initialByAuthor[path] = initialBucket
		}
	}

	log := authorshiplog.Log{
		Attestations: buildAttestations(committedByAuthor),
		Metadata: authorshiplog.Metadata{
			SchemaVersion: authorshiplog.SchemaVersion,
			BaseCommitSHA: v.baseCommit,
			Prompts:       acceptedLinesForCommitted(v.prompts, committedByAuthor),
		},
	}

	seed := workinglog.Seed{
		Files:   buildLineAttributionFiles(initialByAuthor),
		Prompts: filterPrompts(v.prompts, initialUsedPrompts),
	}

	return log, seed
}

// lineAuthorIndex expands lineAttrs (1-indexed ranges) into a 0-indexed
// per-line author slice of length numLines; unauthored (human) lines hold
// the empty string.
func lineAuthorIndex(lineAttrs []attribution.LineAttribution, numLines int) []string {
	out := make([]string, numLines)
	for _, la := range lineAttrs {
		for line := la.StartLine; line <= la.EndLine && line <= numLines; line++ {
			out[line-1] = la.AuthorID
		}
	}
	return out
}

// firstUnusedOccurrence returns the index of the first line in candidates
// equal to target that isn't already marked used, or -1.
func firstUnusedOccurrence(candidates []string, used []bool, target string) int {
	for i, c := range candidates {
		if !used[i] && c == target {
			return i
		}
	}
	return -1
}

// splitLinesKeepEmpty splits content into its constituent lines (without
// trailing newlines), matching the line numbering attribution.LineAttribution
// uses; a trailing newline does not produce a spurious final empty line,
// matching lineSpans' own treatment of EOF.
func splitLinesKeepEmpty(content string) []string {
	if content == "" {
		return nil
	}
	trimmed := strings.TrimSuffix(content, "\n")
	return strings.Split(trimmed, "\n")
}

func buildAttestations(byPath map[string]map[string][]int) []authorshiplog.FileAttestation {
	var out []authorshiplog.FileAttestation
	paths := make([]string, 0, len(byPath))
	for p := range byPath {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		byAuthor := byPath[path]
		hashes := make([]string, 0, len(byAuthor))
		for h := range byAuthor {
			hashes = append(hashes, h)
		}
		sort.Strings(hashes)

		var entries []authorshiplog.Entry
		for _, h := range hashes {
			lines := byAuthor[h]
			sort.Ints(lines)
			entries = append(entries, authorshiplog.Entry{Hash: h, LineRanges: rangeset.Compress(lines)})
		}
		out = append(out, authorshiplog.FileAttestation{FilePath: path, Entries: entries})
	}
	return out
}

func buildLineAttributionFiles(byPath map[string]map[string][]int) map[string][]attribution.LineAttribution {
	out := make(map[string][]attribution.LineAttribution, len(byPath))
	for path, byAuthor := range byPath {
		var attrs []attribution.LineAttribution
		for author, lines := range byAuthor {
			sort.Ints(lines)
			for _, r := range rangeset.Compress(lines) {
				attrs = append(attrs, attribution.LineAttribution{StartLine: r.Start, EndLine: r.End, AuthorID: author})
			}
		}
		sort.Slice(attrs, func(i, j int) bool { return attrs[i].StartLine < attrs[j].StartLine })
		out[path] = attrs
	}
	return out
}

// acceptedLinesForCommitted returns a copy of all with AcceptedLines
// recomputed per hash as the total number of lines committedByAuthor
// attributes to it, matching spec §3 invariant 4 ("accepted_lines for a
// prompt = sum of line counts in the final authorship log attributed to
// it") the same way ToAuthorshipLog recomputes it for its own emission.
func acceptedLinesForCommitted(all prompt.Table, committedByAuthor map[string]map[string][]int) prompt.Table {
	acceptedLines := map[string]int{}
	for _, byAuthor := range committedByAuthor {
		for hash, lines := range byAuthor {
			acceptedLines[hash] += len(lines)
		}
	}

	out := make(prompt.Table, len(all))
	for hash, rec := range all {
		rec.AcceptedLines = acceptedLines[hash]
		out[hash] = rec
	}
	return out
}

func filterPrompts(all prompt.Table, used map[string]bool) prompt.Table {
	out := make(prompt.Table, len(used))
	for hash := range used {
		if rec, ok := all[hash]; ok {
			out[hash] = rec
		}
	}
	return out
}
