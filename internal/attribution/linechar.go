package attribution

import (
	"strings"
	"time"

	"github.com/entireio/gitauthor/internal/prompt"
)

// charSpan is the rune-offset span of one line, trailing newline included
// when present (the last line of a file may lack one).
type charSpan struct {
	Start int
	End   int
}

// lineSpans computes the per-line character spans of content. Spans are
// 0-indexed internally; callers map to 1-indexed line numbers via index+1.
func lineSpans(content string) []charSpan {
	runes := []rune(content)
	if len(runes) == 0 {
		return nil
	}

	var spans []charSpan
	start := 0
	for i, r := range runes {
		if r == '\n' {
			spans = append(spans, charSpan{Start: start, End: i + 1})
			start = i + 1
		}
	}
	if start < len(runes) {
		spans = append(spans, charSpan{Start: start, End: len(runes)})
	}
	return spans
}

// LineToChar converts line-level attributions into character-level
// attributions against content, using ts as the timestamp for every
// resulting Attribution. Line ranges past EOF are silently skipped.
func LineToChar(lineAttrs []LineAttribution, content string, ts time.Time) []Attribution {
	spans := lineSpans(content)

	var out []Attribution
	for _, la := range lineAttrs {
		if la.StartLine < 1 || la.EndLine < la.StartLine || la.EndLine > len(spans) {
			continue
		}
		out = append(out, Attribution{
			Start:    spans[la.StartLine-1].Start,
			End:      spans[la.EndLine-1].End,
			AuthorID: la.AuthorID,
			Ts:       ts,
		})
	}
	return sortAttributions(out)
}

// CharToLine converts character-level attributions into line-level
// attributions against content, applying the dominant-author-per-line rule:
// whitespace-only contributions are ignored, the surviving candidate with
// the largest Ts wins (ties broken by encounter order), lines with no
// surviving candidate are human, consecutive same-author lines are
// coalesced, and human entries are stripped from the result (spec §4.2).
func CharToLine(charAttrs []Attribution, content string) []LineAttribution {
	spans := lineSpans(content)
	runes := []rune(content)

	lineAuthor := make([]string, len(spans))
	for idx, span := range spans {
		best := ""
		var bestTs time.Time
		haveBest := false

		for _, a := range charAttrs {
			if a.End <= span.Start || a.Start >= span.End {
				continue
			}
			s, e := a.Start, a.End
			if s < span.Start {
				s = span.Start
			}
			if e > span.End {
				e = span.End
			}
			if strings.TrimSpace(string(runes[s:e])) == "" {
				continue
			}
			if !haveBest || a.Ts.After(bestTs) {
				best = a.AuthorID
				bestTs = a.Ts
				haveBest = true
			}
		}

		if !haveBest {
			best = prompt.Human
		}
		lineAuthor[idx] = best
	}

	var out []LineAttribution
	for i := 0; i < len(lineAuthor); {
		author := lineAuthor[i]
		j := i + 1
		for j < len(lineAuthor) && lineAuthor[j] == author {
			j++
		}
		if author != prompt.Human {
			out = append(out, LineAttribution{StartLine: i + 1, EndLine: j, AuthorID: author})
		}
		i = j
	}
	return out
}
