package attribution

import "time"

// Update transforms oldAttrs (valid against oldText) into the attribution
// vector valid against newText, driving the transformation from the diff
// between oldText and newText. New content introduced by the diff (that
// can't be rescued from old content or explained by a move) is attributed
// to currentAuthor at ts. Update fails only if the external diff provider
// fails, which go-diff's in-process implementation never does; the error
// return exists for interface symmetry with future pluggable providers.
func (t *Tracker) Update(oldText, newText string, oldAttrs []Attribution, currentAuthor string, ts time.Time) ([]Attribution, error) {
	ops := computeDiffOps(oldText, newText)
	moves := detectMoves(ops, t.Config)
	destinations := insertionDestinations(moves)

	var out []Attribution
	oldPos, newPos := 0, 0

	for i, op := range ops {
		n := op.runeLen()
		switch op.Kind {
		case opEqual:
			rangeStart, rangeEnd := oldPos, oldPos+n
			delta := newPos - oldPos
			out = append(out, translateRange(oldAttrs, rangeStart, rangeEnd, func(off int) int {
				return rangeStart + off + delta
			}, nil)...)
			oldPos += n
			newPos += n

		case opDelete:
			if m, ok := moves[i]; ok {
				rangeStart, rangeEnd := oldPos, oldPos+n
				out = append(out, translateRange(oldAttrs, rangeStart, rangeEnd, func(off int) int {
					return m.mapOffset(off)
				}, nil)...)
			}
			// Unmatched deletions simply lose their attributions.
			oldPos += n

		case opInsert:
			if destinations[i] {
				// Already emitted while handling the corresponding Delete.
				newPos += n
				continue
			}
			out = append(out, rescueInsert(oldAttrs, oldText, op.Text, oldPos, newPos, currentAuthor, ts, t.Config.RescueThreshold)...)
			newPos += n
		}
	}

	return sortAttributions(out), nil
}

// translateRange emits, for every attribution overlapping [rangeStart,
// rangeEnd), the portion of it inside that window translated through
// mapOffset (applied to the offset relative to rangeStart). tsOverride, if
// non-nil, replaces the attribution's timestamp; otherwise the original
// timestamp is preserved.
func translateRange(attrs []Attribution, rangeStart, rangeEnd int, mapOffset func(int) int, tsOverride *time.Time) []Attribution {
	var out []Attribution
	for _, a := range attrs {
		clipStart := a.Start
		if clipStart < rangeStart {
			clipStart = rangeStart
		}
		clipEnd := a.End
		if clipEnd > rangeEnd {
			clipEnd = rangeEnd
		}
		if clipStart >= clipEnd {
			continue
		}
		newStart := mapOffset(clipStart - rangeStart)
		newEnd := mapOffset(clipEnd - rangeStart)
		if newEnd <= newStart {
			continue
		}
		ts := a.Ts
		if tsOverride != nil {
			ts = *tsOverride
		}
		out = append(out, Attribution{Start: newStart, End: newEnd, AuthorID: a.AuthorID, Ts: ts})
	}
	return out
}

// rescueInsert implements the within-old-content rescue: rather than
// anchoring at old_pos, it searches for the longest prefix of the inserted
// text that occurs anywhere in old_text at or after old_pos (the case this
// exists for is content between a cut and a paste operation, which the diff
// provider usually doesn't mark Equal precisely because it has shifted).
// Candidate prefix lengths are tried from the full insertion length down to
// threshold; the first (longest) one found wins. The matched span's
// attributions are copied to the new position with ts updated to the
// current transformation's ts; any trailing, unmatched characters are
// attributed to currentAuthor at ts.
func rescueInsert(oldAttrs []Attribution, oldText string, insertedText []rune, oldPos, newPos int, currentAuthor string, ts time.Time, threshold int) []Attribution {
	oldRunes := []rune(oldText)
	searchSpace := oldRunes[oldPos:]

	matchLen, matchPos := 0, -1
	for searchLen := len(insertedText); searchLen >= threshold; searchLen-- {
		if idx := indexRunes(searchSpace, insertedText[:searchLen]); idx >= 0 {
			matchLen = searchLen
			matchPos = oldPos + idx
			break
		}
	}

	var out []Attribution
	if matchPos >= 0 {
		rescueTs := ts
		out = append(out, translateRange(oldAttrs, matchPos, matchPos+matchLen, func(off int) int {
			return newPos + off
		}, &rescueTs)...)
	}

	if remaining := len(insertedText) - matchLen; remaining > 0 {
		out = append(out, Attribution{
			Start:    newPos + matchLen,
			End:      newPos + len(insertedText),
			AuthorID: currentAuthor,
			Ts:       ts,
		})
	}

	return out
}

// indexRunes returns the index of the first occurrence of needle in
// haystack, or -1 if needle does not occur (the []rune analogue of
// strings.Index, needed because rune lengths and byte lengths diverge for
// multi-byte content and the search/offsets here are rune-indexed
// throughout the tracker).
func indexRunes(haystack, needle []rune) int {
	if len(needle) == 0 {
		return 0
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
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

// AttributeUnattributed assigns every character position in content not
// covered by prevAttributions to author, coalescing contiguous uncovered
// runs into single attributions, and returns the union with the existing
// attributions.
func (t *Tracker) AttributeUnattributed(content string, prevAttributions []Attribution, author string, ts time.Time) []Attribution {
	runes := []rune(content)
	covered := make([]bool, len(runes))
	for _, a := range prevAttributions {
		s, e := a.Start, a.End
		if s < 0 {
			s = 0
		}
		if e > len(runes) {
			e = len(runes)
		}
		for i := s; i < e; i++ {
			covered[i] = true
		}
	}

	out := make([]Attribution, len(prevAttributions))
	copy(out, prevAttributions)

	i := 0
	for i < len(covered) {
		if covered[i] {
			i++
			continue
		}
		start := i
		for i < len(covered) && !covered[i] {
			i++
		}
		out = append(out, Attribution{Start: start, End: i, AuthorID: author, Ts: ts})
	}

	return sortAttributions(out)
}
