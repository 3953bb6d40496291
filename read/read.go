package read

import (
	"strings"

	"github.com/kbukum/readflow/pipeline"
)

// DuplexSeparator joins the parent ids of a duplex read.
const DuplexSeparator = ";"

// Read is one basecalled record.
type Read struct {
	ID        string    `json:"id"`
	Sequence  string    `json:"sequence"`
	Qualities string    `json:"qualities,omitempty"`
	RawSignal []float32 `json:"raw_signal,omitempty"`
	Moves     []uint8   `json:"moves,omitempty"`

	// Tag groups every fragment and derivative of one physical read.
	Tag string `json:"tag,omitempty"`
	// SplitCount is the number of simplex fragments sharing Tag.
	// Zero means the read was not split.
	SplitCount int `json:"split_count,omitempty"`
	SubreadID  int `json:"subread_id"`
	// NumDuplexCandidatePairs is how many duplex reads this fragment may
	// eventually take part in.
	NumDuplexCandidatePairs int `json:"num_duplex_candidate_pairs,omitempty"`

	IsDuplex       bool `json:"is_duplex,omitempty"`
	IsDuplexParent bool `json:"is_duplex_parent,omitempty"`

	// Stereo is the merged multi-channel signal of a duplex read.
	Stereo *Features `json:"stereo,omitempty"`
}

var _ pipeline.Cloner = (*Read)(nil)

// Clone returns a deep copy of r.
func (r *Read) Clone() pipeline.Message {
	c := *r
	if r.RawSignal != nil {
		c.RawSignal = append([]float32(nil), r.RawSignal...)
	}
	if r.Moves != nil {
		c.Moves = append([]uint8(nil), r.Moves...)
	}
	if r.Stereo != nil {
		c.Stereo = r.Stereo.Clone()
	}
	return &c
}

// ParentIDs returns the template and complement ids of a duplex read.
func (r *Read) ParentIDs() (template, complement string, ok bool) {
	if !r.IsDuplex {
		return "", "", false
	}
	return strings.Cut(r.ID, DuplexSeparator)
}

// ExpectedFragments returns SplitCount, treating an unsplit read as a
// single fragment.
func (r *Read) ExpectedFragments() int {
	if r.SplitCount <= 0 {
		return 1
	}
	return r.SplitCount
}

// DuplexID builds the id of the duplex read derived from a pair.
func DuplexID(template, complement string) string {
	return template + DuplexSeparator + complement
}
