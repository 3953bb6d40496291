// Package subread reassembles read families. A physical read may be split
// into several simplex fragments and may yield duplex reads; all of them
// share a tag. Reassembler holds a family until every fragment and every
// expected duplex read has arrived, then emits it with split counts and
// subread ids that describe the whole family.
package subread
