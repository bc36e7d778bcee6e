package statsoverlay

import (
	"context"
	"fmt"
	"sort"

	"github.com/entireio/gitauthor/internal/gitutil"
)

// AuthorTotals is one author's (human, or one prompt hash) aggregate line
// count across the overlay.
type AuthorTotals struct {
	AuthorHash string // "" for the human sentinel
	Lines      int
}

// FileTotals is one file's human/AI split.
type FileTotals struct {
	Path        string
	HumanLines  int
	AgentLines  map[string]int
}

// Stats is the full aggregation produced by Compute: per-file totals, a
// flattened per-author ranking, and the overall human/AI split.
type Stats struct {
	Ref         string
	Files       []FileTotals
	ByAuthor    []AuthorTotals
	HumanLines  int
	AgentLines  int
}

// Compute builds the blame overlay for ref and aggregates it into Stats.
// Per-file blame failures are skipped, matching the overlay's own
// best-effort handling of unreadable files (spec §7).
func Compute(ctx context.Context, repo *gitutil.Repo, ref string, pathspecs []string) (Stats, error) {
	overlays, err := Overlay(ctx, repo, ref, pathspecs)
	if err != nil {
		return Stats{}, fmt.Errorf("statsoverlay: compute: %w", err)
	}

	stats := Stats{Ref: ref}
	authorTotals := map[string]int{}

	for _, fo := range overlays {
		if fo.Err != nil {
			continue
		}
		ft := FileTotals{Path: fo.Path, AgentLines: map[string]int{}}
		for _, lc := range fo.Lines {
			if lc.Human {
				ft.HumanLines++
				stats.HumanLines++
				authorTotals[""]++
				continue
			}
			ft.AgentLines[lc.AgentHash]++
			stats.AgentLines++
			authorTotals[lc.AgentHash]++
		}
		stats.Files = append(stats.Files, ft)
	}

	for hash, lines := range authorTotals {
		stats.ByAuthor = append(stats.ByAuthor, AuthorTotals{AuthorHash: hash, Lines: lines})
	}
	sort.Slice(stats.ByAuthor, func(i, j int) bool {
		if stats.ByAuthor[i].Lines != stats.ByAuthor[j].Lines {
			return stats.ByAuthor[i].Lines > stats.ByAuthor[j].Lines
		}
		return stats.ByAuthor[i].AuthorHash < stats.ByAuthor[j].AuthorHash
	})
	sort.Slice(stats.Files, func(i, j int) bool { return stats.Files[i].Path < stats.Files[j].Path })

	return stats, nil
}
