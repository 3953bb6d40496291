package align

// Span is a half-open range of alignment columns, with the positions in
// each sequence of the column at Start.
type Span struct {
	Start   int
	End     int
	ACursor int
	BCursor int
}

// Columns returns the number of alignment columns in the span.
func (s Span) Columns() int { return s.End - s.Start }

// Trim finds the span that starts at the first run of flank consecutive
// matches and ends after the last such run. ok is false when no run exists
// or the span is empty or inverted.
func Trim(ops []Op, flank int) (span Span, ok bool) {
	if flank <= 0 {
		flank = 1
	}

	run, a, b := 0, 0, 0
	runA, runB, runStart := 0, 0, 0
	found := false
	for k, op := range ops {
		if op == Match {
			if run == 0 {
				runStart, runA, runB = k, a, b
			}
			run++
			if run == flank {
				span.Start, span.ACursor, span.BCursor = runStart, runA, runB
				found = true
				break
			}
		} else {
			run = 0
		}
		if op.ConsumesA() {
			a++
		}
		if op.ConsumesB() {
			b++
		}
	}
	if !found {
		return Span{}, false
	}

	run = 0
	found = false
	for k := len(ops) - 1; k >= 0; k-- {
		if ops[k] != Match {
			run = 0
			continue
		}
		run++
		if run == flank {
			span.End = k + flank
			found = true
			break
		}
	}
	if !found || span.Start >= span.End {
		return Span{}, false
	}
	return span, true
}
