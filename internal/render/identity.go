package render

import "github.com/dshills/mdsync/internal/anchor"

// maxDiffCells bounds the Myers trace size. Larger block lists fall back to
// positional pairing.
const maxDiffCells = 1 << 22

type blockOp uint8

const (
	opEqual blockOp = iota
	opDelete
	opInsert
)

type blockEdit struct {
	op       blockOp
	oldIndex int
	newIndex int
}

// CarryIDs returns a copy of next whose anchors reuse the block ids of prev
// where blocks match. Blocks with identical source text are matched by a
// Myers diff over the block fingerprints; within a run of replaced blocks
// the i-th deleted block pairs with the i-th inserted one when their kinds
// agree. Unmatched blocks get fresh ids above prev.MaxID. next is never
// modified. When either result is nil or lacks fingerprints, next is
// returned as is.
func CarryIDs(prev, next *Result) *Result {
	if prev == nil || next == nil {
		return next
	}
	if len(prev.Fingerprints) != len(prev.Anchors) || len(next.Fingerprints) != len(next.Anchors) {
		return next
	}

	ids := make([]anchor.BlockID, len(next.Anchors))
	var deleted, inserted []int
	pairRun := func() {
		for i := 0; i < len(deleted) && i < len(inserted); i++ {
			o, n := deleted[i], inserted[i]
			if prev.Anchors[o].Kind == next.Anchors[n].Kind {
				ids[n] = prev.Anchors[o].BlockID
			}
		}
		deleted, inserted = deleted[:0], inserted[:0]
	}

	for _, e := range diffBlocks(prev.Fingerprints, next.Fingerprints) {
		switch e.op {
		case opEqual:
			pairRun()
			ids[e.newIndex] = prev.Anchors[e.oldIndex].BlockID
		case opDelete:
			deleted = append(deleted, e.oldIndex)
		case opInsert:
			inserted = append(inserted, e.newIndex)
		}
	}
	pairRun()

	high := prev.MaxID
	for _, a := range prev.Anchors {
		if a.BlockID > high {
			high = a.BlockID
		}
	}

	out := *next
	out.Anchors = next.Anchors.Clone()
	for i := range out.Anchors {
		if ids[i] == 0 {
			high++
			ids[i] = high
		}
		out.Anchors[i].BlockID = ids[i]
	}
	out.MaxID = high
	return &out
}

// diffBlocks computes an edit script turning a into b.
func diffBlocks(a, b []string) []blockEdit {
	n, m := len(a), len(b)
	switch {
	case n == 0 && m == 0:
		return nil
	case n == 0 || m == 0 || (n+m)*(n+m) > maxDiffCells:
		return positionalEdits(a, b)
	}

	maxD := n + m
	offset := maxD
	v := make([]int, 2*maxD+1)
	var trace [][]int

outer:
	for d := 0; d <= maxD; d++ {
		trace = append(trace, append([]int(nil), v...))
		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || (k != d && v[offset+k-1] < v[offset+k+1]) {
				x = v[offset+k+1]
			} else {
				x = v[offset+k-1] + 1
			}
			y := x - k
			for x < n && y < m && a[x] == b[y] {
				x++
				y++
			}
			v[offset+k] = x
			if x >= n && y >= m {
				trace = append(trace, append([]int(nil), v...))
				break outer
			}
		}
	}
	return backtrack(trace, n, m, offset)
}

func backtrack(trace [][]int, n, m, offset int) []blockEdit {
	x, y := n, m
	var edits []blockEdit
	for d := len(trace) - 2; d >= 0; d-- {
		v := trace[d]
		k := x - y
		var prevK int
		if k == -d || (k != d && v[offset+k-1] < v[offset+k+1]) {
			prevK = k + 1
		} else {
			prevK = k - 1
		}
		prevX := v[offset+prevK]
		prevY := prevX - prevK

		for x > prevX && y > prevY {
			x--
			y--
			edits = append(edits, blockEdit{op: opEqual, oldIndex: x, newIndex: y})
		}
		if d > 0 {
			if x > prevX {
				x--
				edits = append(edits, blockEdit{op: opDelete, oldIndex: x})
			} else if y > prevY {
				y--
				edits = append(edits, blockEdit{op: opInsert, newIndex: y})
			}
		}
	}
	for i, j := 0, len(edits)-1; i < j; i, j = i+1, j-1 {
		edits[i], edits[j] = edits[j], edits[i]
	}
	return edits
}

// positionalEdits pairs blocks by index, keeping equal ones.
func positionalEdits(a, b []string) []blockEdit {
	var edits []blockEdit
	for i := 0; i < len(a) || i < len(b); i++ {
		switch {
		case i < len(a) && i < len(b) && a[i] == b[i]:
			edits = append(edits, blockEdit{op: opEqual, oldIndex: i, newIndex: i})
		default:
			if i < len(a) {
				edits = append(edits, blockEdit{op: opDelete, oldIndex: i})
			}
			if i < len(b) {
				edits = append(edits, blockEdit{op: opInsert, newIndex: i})
			}
		}
	}
	return edits
}
