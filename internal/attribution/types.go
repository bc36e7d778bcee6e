// Package attribution implements the attribution tracker: transforming a
// vector of character-keyed attribution ranges across an old->new text diff,
// detecting moves, and converting between character- and line-level
// attribution using the dominant-author-per-line rule (spec §4.2).
package attribution

import (
	"sort"
	"time"
)

// Attribution is a character-offset range tagged with an author. Start/End
// are 0-indexed, half-open [Start,End) rune offsets into the text they were
// computed against.
type Attribution struct {
	Start    int
	End      int
	AuthorID string
	Ts       time.Time
}

// Len returns the number of characters this attribution covers.
func (a Attribution) Len() int { return a.End - a.Start }

// LineAttribution is a 1-indexed, inclusive line-range tagged with an
// author. Overridden marks an attribution whose author was explicitly
// corrected rather than derived (reserved for future manual-correction
// workflows; the tracker itself never sets it).
type LineAttribution struct {
	StartLine int
	EndLine   int
	AuthorID  string
	Overridden bool
}

// Config holds the tracker's three tunable knobs (spec §6, "Configuration
// surface"). Zero-value Config is invalid; use DefaultConfig().
type Config struct {
	// MoveThreshold is the minimum Jaro-Winkler similarity ([0,1]) for a
	// deletion/insertion pair to be treated as a move. Default 0.8.
	MoveThreshold float64

	// MinMoveLength is the minimum length in characters a deletion must
	// have to be considered for move detection. Default 10.
	MinMoveLength int

	// RescueThreshold is the minimum length in characters a within-old
	// rescue match must have to be honored. Default 100.
	RescueThreshold int
}

// DefaultConfig returns the tracker's documented defaults.
func DefaultConfig() Config {
	return Config{
		MoveThreshold:   0.8,
		MinMoveLength:   10,
		RescueThreshold: 100,
	}
}

// Tracker transforms attribution vectors across text diffs according to a
// fixed Config. It holds no mutable state; a single Tracker is safe for
// concurrent use across files.
type Tracker struct {
	Config Config
}

// New returns a Tracker with the given config.
func New(cfg Config) *Tracker { return &Tracker{Config: cfg} }

// sortAttributions sorts by (start, end, author_id) and removes exact
// duplicates, per the tracker's merge/cleanup step. Overlapping attributions
// from distinct authors are intentionally preserved.
func sortAttributions(attrs []Attribution) []Attribution {
	sort.Slice(attrs, func(i, j int) bool {
		if attrs[i].Start != attrs[j].Start {
			return attrs[i].Start < attrs[j].Start
		}
		if attrs[i].End != attrs[j].End {
			return attrs[i].End < attrs[j].End
		}
		return attrs[i].AuthorID < attrs[j].AuthorID
	})

	var out []Attribution
	for i, a := range attrs {
		if i > 0 {
			p := attrs[i-1]
			if p.Start == a.Start && p.End == a.End && p.AuthorID == a.AuthorID && p.Ts.Equal(a.Ts) {
				continue
			}
		}
		out = append(out, a)
	}
	return out
}
