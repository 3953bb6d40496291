// Package align computes banded global edit-distance alignments between two
// sequences and locates the high-confidence span inside an alignment path.
package align

import "math"

// Op is one alignment column.
type Op uint8

const (
	// Match consumes one base of each sequence, equal bases.
	Match Op = iota
	// Mismatch consumes one base of each sequence, different bases.
	Mismatch
	// Insert consumes one base of the first sequence only.
	Insert
	// Delete consumes one base of the second sequence only.
	Delete
)

func (o Op) String() string {
	switch o {
	case Match:
		return "="
	case Mismatch:
		return "X"
	case Insert:
		return "I"
	case Delete:
		return "D"
	default:
		return "?"
	}
}

// ConsumesA reports whether the column advances the first sequence.
func (o Op) ConsumesA() bool { return o != Delete }

// ConsumesB reports whether the column advances the second sequence.
func (o Op) ConsumesB() bool { return o != Insert }

// DefaultBand is the extra diagonal slack added to the length difference.
const DefaultBand = 128

// Alignment is a global path from (0, 0) to (len(a), len(b)).
type Alignment struct {
	Ops      []Op
	Distance int
}

const inf = math.MaxInt / 2

const (
	dirDiag byte = iota + 1
	dirInsert
	dirDelete
)

// Global aligns a against b with unit edit costs. Only cells within
// |len(a)-len(b)| + band of the main diagonal are explored; a band <= 0
// explores the full matrix. Ties prefer the diagonal, then Insert.
func Global(a, b string, band int) Alignment {
	n, m := len(a), len(b)
	if n == 0 && m == 0 {
		return Alignment{}
	}

	w := n - m
	if w < 0 {
		w = -w
	}
	if band <= 0 {
		w = max(n, m)
	} else {
		w += band
	}

	prev := make([]int, m+1)
	cur := make([]int, m+1)
	dirs := make([][]byte, n+1)
	offs := make([]int, n+1)

	hi := min(m, w)
	dirs[0] = make([]byte, hi+1)
	for j := 0; j <= hi; j++ {
		prev[j] = j
		dirs[0][j] = dirDelete
	}
	if hi < m {
		prev[hi+1] = inf
	}

	for i := 1; i <= n; i++ {
		lo := max(0, i-w)
		hi := min(m, i+w)
		if lo > 0 {
			cur[lo-1] = inf
		}
		if hi < m {
			cur[hi+1] = inf
		}
		row := make([]byte, hi-lo+1)

		for j := lo; j <= hi; j++ {
			if j == 0 {
				cur[0] = i
				row[0] = dirInsert
				continue
			}

			best, dir := inf, byte(0)
			if d := prev[j-1]; d < inf {
				if a[i-1] != b[j-1] {
					d++
				}
				best, dir = d, dirDiag
			}
			if d := prev[j]; d < inf && d+1 < best {
				best, dir = d+1, dirInsert
			}
			if d := cur[j-1]; d < inf && d+1 < best {
				best, dir = d+1, dirDelete
			}
			cur[j] = best
			row[j-lo] = dir
		}

		dirs[i] = row
		offs[i] = lo
		prev, cur = cur, prev
	}

	distance := prev[m]

	ops := make([]Op, 0, max(n, m))
	i, j := n, m
	for i > 0 || j > 0 {
		switch dirs[i][j-offs[i]] {
		case dirDiag:
			if a[i-1] == b[j-1] {
				ops = append(ops, Match)
			} else {
				ops = append(ops, Mismatch)
			}
			i--
			j--
		case dirInsert:
			ops = append(ops, Insert)
			i--
		default:
			ops = append(ops, Delete)
			j--
		}
	}
	for l, r := 0, len(ops)-1; l < r; l, r = l+1, r-1 {
		ops[l], ops[r] = ops[r], ops[l]
	}

	return Alignment{Ops: ops, Distance: distance}
}
