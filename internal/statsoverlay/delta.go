package statsoverlay

import (
	"context"
	"fmt"
	"sort"

	"github.com/entireio/gitauthor/internal/gitutil"
)

// Delta is the human/AI line-count difference between two refs, supplementing
// the stats overlay with a `stats --since <ref>` comparison (the original
// implementation's stats_delta command, adapted: rather than scanning for
// stray working-log state, this compares two committed snapshots).
type Delta struct {
	FromRef       string
	ToRef         string
	HumanDelta    int
	AgentDelta    int
	ByAuthorDelta map[string]int
}

// Since computes the change in human/AI line counts between fromRef and
// toRef for pathspecs.
func Since(ctx context.Context, repo *gitutil.Repo, fromRef, toRef string, pathspecs []string) (Delta, error) {
	from, err := Compute(ctx, repo, fromRef, pathspecs)
	if err != nil {
		return Delta{}, fmt.Errorf("statsoverlay: since: %w", err)
	}
	to, err := Compute(ctx, repo, toRef, pathspecs)
	if err != nil {
		return Delta{}, fmt.Errorf("statsoverlay: since: %w", err)
	}

	fromByAuthor := map[string]int{}
	for _, a := range from.ByAuthor {
		fromByAuthor[a.AuthorHash] = a.Lines
	}
	toByAuthor := map[string]int{}
	for _, a := range to.ByAuthor {
		toByAuthor[a.AuthorHash] = a.Lines
	}

	authors := map[string]struct{}{}
	for h := range fromByAuthor {
		authors[h] = struct{}{}
	}
	for h := range toByAuthor {
		authors[h] = struct{}{}
	}

	byAuthorDelta := make(map[string]int, len(authors))
	for h := range authors {
		byAuthorDelta[h] = toByAuthor[h] - fromByAuthor[h]
	}

	return Delta{
		FromRef:       fromRef,
		ToRef:         toRef,
		HumanDelta:    to.HumanLines - from.HumanLines,
		AgentDelta:    to.AgentLines - from.AgentLines,
		ByAuthorDelta: byAuthorDelta,
	}, nil
}

// SortedAuthors returns the authors touched by the delta, in descending
// magnitude order, for stable CLI rendering.
func (d Delta) SortedAuthors() []string {
	authors := make([]string, 0, len(d.ByAuthorDelta))
	for h := range d.ByAuthorDelta {
		authors = append(authors, h)
	}
	sort.Slice(authors, func(i, j int) bool {
		di, dj := d.ByAuthorDelta[authors[i]], d.ByAuthorDelta[authors[j]]
		if di != dj {
			return di > dj
		}
		return authors[i] < authors[j]
	})
	return authors
}
