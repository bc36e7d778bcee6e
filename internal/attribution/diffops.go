package attribution

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

// opKind identifies one element of a diff op stream.
type opKind int

const (
	opEqual opKind = iota
	opDelete
	opInsert
)

// diffOp is one element of the ordered {Equal,Delete,Insert} operation list
// the tracker consumes from the external diff provider (spec §4.2).
type diffOp struct {
	Kind opKind
	Text []rune
}

// runeLen returns the character count of the op's text.
func (o diffOp) runeLen() int { return len(o.Text) }

// computeDiffOps runs the external diff provider (go-diff's
// diffmatchpatch) over old and new content and returns the ordered
// Equal/Delete/Insert operation stream. This is the "diff produced by an
// external provider" the tracker treats as a black box (spec §1 Non-goals:
// "It is not a diff algorithm").
func computeDiffOps(old, new string) []diffOp {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(old, new, false)

	ops := make([]diffOp, 0, len(diffs))
	for _, d := range diffs {
		var kind opKind
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			kind = opEqual
		case diffmatchpatch.DiffDelete:
			kind = opDelete
		case diffmatchpatch.DiffInsert:
			kind = opInsert
		}
		ops = append(ops, diffOp{Kind: kind, Text: []rune(d.Text)})
	}
	return ops
}
