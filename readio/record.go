package readio

import "github.com/kbukum/readflow/read"

// record is the JSON Lines shape of a read. Moves are written as numbers
// rather than the base64 string a byte slice would become.
type record struct {
	ID                      string         `json:"id"`
	Sequence                string         `json:"sequence,omitempty"`
	Qualities               string         `json:"qualities,omitempty"`
	RawSignal               []float32      `json:"raw_signal,omitempty"`
	Moves                   []int          `json:"moves,omitempty"`
	Tag                     string         `json:"tag,omitempty"`
	SplitCount              int            `json:"split_count,omitempty"`
	SubreadID               int            `json:"subread_id"`
	NumDuplexCandidatePairs int            `json:"num_duplex_candidate_pairs,omitempty"`
	IsDuplex                bool           `json:"is_duplex,omitempty"`
	IsDuplexParent          bool           `json:"is_duplex_parent,omitempty"`
	Stereo                  *read.Features `json:"stereo,omitempty"`
}

func (rec *record) toRead() *read.Read {
	r := &read.Read{
		ID:                      rec.ID,
		Sequence:                rec.Sequence,
		Qualities:               rec.Qualities,
		RawSignal:               rec.RawSignal,
		Tag:                     rec.Tag,
		SplitCount:              rec.SplitCount,
		SubreadID:               rec.SubreadID,
		NumDuplexCandidatePairs: rec.NumDuplexCandidatePairs,
		IsDuplex:                rec.IsDuplex,
		IsDuplexParent:          rec.IsDuplexParent,
		Stereo:                  rec.Stereo,
	}
	if rec.Moves != nil {
		r.Moves = make([]uint8, len(rec.Moves))
		for i, m := range rec.Moves {
			r.Moves[i] = uint8(m)
		}
	}
	return r
}

func fromRead(r *read.Read, withSignal bool) *record {
	rec := &record{
		ID:                      r.ID,
		Sequence:                r.Sequence,
		Qualities:               r.Qualities,
		Tag:                     r.Tag,
		SplitCount:              r.SplitCount,
		SubreadID:               r.SubreadID,
		NumDuplexCandidatePairs: r.NumDuplexCandidatePairs,
		IsDuplex:                r.IsDuplex,
		IsDuplexParent:          r.IsDuplexParent,
	}
	if !withSignal {
		return rec
	}
	rec.RawSignal = r.RawSignal
	rec.Stereo = r.Stereo
	if r.Moves != nil {
		rec.Moves = make([]int, len(r.Moves))
		for i, m := range r.Moves {
			rec.Moves[i] = int(m)
		}
	}
	return rec
}
