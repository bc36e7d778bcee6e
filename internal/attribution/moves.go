package attribution

import "sort"

// deletion is a catalogued Delete op, positioned in old-text rune space.
type deletion struct {
	opIndex  int
	OldStart int
	OldEnd   int
	Text     []rune
}

// insertion is a catalogued Insert op, positioned in new-text rune space.
type insertion struct {
	opIndex  int
	NewStart int
	NewEnd   int
	Text     []rune
}

// move records that a deletion's content relocated to an insertion's
// position, plus how to map an offset within the deletion to an offset
// within the insertion.
type move struct {
	deletionOpIndex  int
	insertionOpIndex int
	insertionStart   int

	// exact, when true, means the deletion's text is a literal substring of
	// the insertion's text at substringOffset; otherwise the whole
	// insertion is the moved block and offsets are scaled linearly from
	// deletion length to insertion length.
	exact           bool
	substringOffset int
	deletionLen     int
	insertionLen    int
}

// mapOffset translates an offset (0..deletionLen) within the deleted block
// to the corresponding offset within the insertion's new-text range.
func (m move) mapOffset(offsetInDeletion int) int {
	if m.exact {
		return m.insertionStart + m.substringOffset + offsetInDeletion
	}
	if m.deletionLen == 0 {
		return m.insertionStart
	}
	scaled := offsetInDeletion * m.insertionLen / m.deletionLen
	if scaled > m.insertionLen {
		scaled = m.insertionLen
	}
	return m.insertionStart + scaled
}

// detectMoves builds the deletion/insertion catalogs from the diff op
// stream and pairs deletions of sufficient length with their best-matching
// not-yet-used insertion by Jaro-Winkler similarity, per spec §4.2. Returns
// a map keyed by deletion op index.
func detectMoves(ops []diffOp, cfg Config) map[int]move {
	var dels []deletion
	var inss []insertion

	oldPos, newPos := 0, 0
	for i, op := range ops {
		switch op.Kind {
		case opEqual:
			oldPos += op.runeLen()
			newPos += op.runeLen()
		case opDelete:
			dels = append(dels, deletion{opIndex: i, OldStart: oldPos, OldEnd: oldPos + op.runeLen(), Text: op.Text})
			oldPos += op.runeLen()
		case opInsert:
			inss = append(inss, insertion{opIndex: i, NewStart: newPos, NewEnd: newPos + op.runeLen(), Text: op.Text})
			newPos += op.runeLen()
		}
	}

	// Descending deletion length, ties broken by original order (stable
	// sort preserves catalog order for ties, an arbitrary but deterministic
	// tiebreak per spec).
	sort.SliceStable(dels, func(i, j int) bool {
		return len(dels[i].Text) > len(dels[j].Text)
	})

	used := make(map[int]bool, len(inss))
	moves := make(map[int]move, len(dels))

	for _, d := range dels {
		if len(d.Text) < cfg.MinMoveLength {
			continue
		}
		bestIdx := -1
		bestScore := 0.0
		for idx, ins := range inss {
			if used[idx] {
				continue
			}
			score := jaroWinkler(d.Text, ins.Text)
			if score > bestScore {
				bestScore = score
				bestIdx = idx
			}
		}
		if bestIdx == -1 || bestScore < cfg.MoveThreshold {
			continue
		}
		used[bestIdx] = true
		ins := inss[bestIdx]
		moves[d.opIndex] = buildMove(d, ins)
	}

	return moves
}

// insertionDestinations returns the set of op indices (into the original
// ops slice) that serve as a move destination, so the Insert-handling step
// can recognize and skip them.
func insertionDestinations(moves map[int]move) map[int]bool {
	out := make(map[int]bool, len(moves))
	for _, m := range moves {
		out[m.insertionOpIndex] = true
	}
	return out
}

func buildMove(d deletion, ins insertion) move {
	if offset := runesIndex(ins.Text, d.Text); offset >= 0 {
		return move{
			deletionOpIndex:  d.opIndex,
			insertionOpIndex: ins.opIndex,
			insertionStart:   ins.NewStart,
			exact:            true,
			substringOffset:  offset,
			deletionLen:      len(d.Text),
			insertionLen:     len(ins.Text),
		}
	}
	return move{
		deletionOpIndex:  d.opIndex,
		insertionOpIndex: ins.opIndex,
		insertionStart:   ins.NewStart,
		exact:            false,
		deletionLen:      len(d.Text),
		insertionLen:     len(ins.Text),
	}
}

// runesIndex returns the index of the first occurrence of needle in
// haystack, or -1 if not present. Rune-slice analog of strings.Index.
func runesIndex(haystack, needle []rune) int {
	if len(needle) == 0 {
		return 0
	}
	if len(needle) > len(haystack) {
		return -1
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
