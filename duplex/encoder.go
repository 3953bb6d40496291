package duplex

import (
	"github.com/kbukum/readflow/align"
	"github.com/kbukum/readflow/errors"
	"github.com/kbukum/readflow/read"
)

// Feature rows of the stereo block.
const (
	NumFeatures                = 13
	FeatureTemplateSignal      = 0
	FeatureComplementSignal    = 1
	FeatureTemplateFirstBase   = 2
	FeatureComplementFirstBase = 6
	FeatureMoveTable           = 10
	FeatureTemplateQuality     = 11
	FeatureComplementQuality   = 12
)

// Qualities are phred+33 bytes scaled into roughly [0, 1].
const (
	qualityOffset = 33
	qualityScale  = 90
)

// DefaultRecentPairs bounds the pairing encoder's memory of matched pairs.
const DefaultRecentPairs = 4096

// Config holds the encoder thresholds.
type Config struct {
	// MaxLengthRatio rejects pairs whose sequence lengths differ by more
	// than this fraction of the longer one.
	MaxLengthRatio float64 `yaml:"max_length_ratio" mapstructure:"max_length_ratio" validate:"gte=0,lte=1"`
	// MinTrimmedColumns rejects pairs whose trimmed alignment is shorter.
	MinTrimmedColumns int `yaml:"min_trimmed_columns" mapstructure:"min_trimmed_columns" validate:"gte=1"`
	// FlankMatches is the run of consecutive matches bounding the trimmed span.
	FlankMatches int `yaml:"flank_matches" mapstructure:"flank_matches" validate:"gte=1"`
	// Stride is the number of raw samples per move-table step.
	Stride int `yaml:"stride" mapstructure:"stride" validate:"gte=1"`
	// PadFactor scales the minimum raw sample into the padding value.
	PadFactor float32 `yaml:"pad_factor" mapstructure:"pad_factor"`
	// Band is the alignment band slack beyond the length difference.
	Band int `yaml:"band" mapstructure:"band" validate:"gte=0"`
	// RecentPairs is how many matched pairs the pairing encoder remembers
	// so a re-delivered read cannot be paired twice.
	RecentPairs int `yaml:"recent_pairs" mapstructure:"recent_pairs" validate:"gte=0"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.MaxLengthRatio == 0 {
		c.MaxLengthRatio = 0.05
	}
	if c.MinTrimmedColumns == 0 {
		c.MinTrimmedColumns = 200
	}
	if c.FlankMatches == 0 {
		c.FlankMatches = 11
	}
	if c.Stride == 0 {
		c.Stride = 5
	}
	if c.PadFactor == 0 {
		c.PadFactor = 0.8
	}
	if c.Band == 0 {
		c.Band = align.DefaultBand
	}
	if c.RecentPairs == 0 {
		c.RecentPairs = DefaultRecentPairs
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.MaxLengthRatio < 0 || c.MaxLengthRatio > 1 {
		return errors.InvalidConfig("max_length_ratio", "must be within [0, 1]")
	}
	if c.MinTrimmedColumns < 1 {
		return errors.InvalidConfig("min_trimmed_columns", "must be positive")
	}
	if c.FlankMatches < 1 {
		return errors.InvalidConfig("flank_matches", "must be positive")
	}
	if c.Stride < 1 {
		return errors.InvalidConfig("stride", "must be positive")
	}
	if c.RecentPairs < 0 {
		return errors.InvalidConfig("recent_pairs", "must not be negative")
	}
	return nil
}

// Rejection explains why a pair produced no duplex read.
type Rejection string

const (
	Accepted        Rejection = ""
	RejectLength    Rejection = "length_ratio"
	RejectAlignment Rejection = "short_alignment"
	RejectSignal    Rejection = "empty_signal"
)

// Encode merges a template read and its complement into one duplex read
// carrying a stereo feature block. The duplex read has no sequence until a
// duplex caller consumes the block. Encode returns nil and the reason when
// the pair is too dissimilar to encode.
func Encode(template, complement *read.Read, cfg Config) (*read.Read, Rejection) {
	tlen, clen := len(template.Sequence), len(complement.Sequence)
	longer, shorter := max(tlen, clen), min(tlen, clen)
	if longer == 0 || float64(longer-shorter)/float64(longer) > cfg.MaxLengthRatio {
		return nil, RejectLength
	}
	if len(template.RawSignal) == 0 || len(complement.RawSignal) == 0 {
		return nil, RejectSignal
	}

	compSeq := read.ReverseComplement(complement.Sequence)
	compQual := read.Reverse(complement.Qualities)

	aln := align.Global(template.Sequence, compSeq, cfg.Band)
	span, ok := align.Trim(aln.Ops, cfg.FlankMatches)
	if !ok || span.Columns() < cfg.MinTrimmedColumns {
		return nil, RejectAlignment
	}

	tMoves := expandMoves(template.Moves, cfg.Stride, len(template.RawSignal))
	cMoves := expandMoves(complement.Moves, cfg.Stride, len(complement.RawSignal))
	cMoves = append(cMoves, 1)
	reverseBytes(cMoves)
	cMoves = cMoves[:len(cMoves)-1]
	cSignal := reverseSignal(complement.RawSignal)

	tc := &channel{
		signal:  template.RawSignal,
		moves:   tMoves,
		cursor:  nthMove(tMoves, span.ACursor),
		seq:     template.Sequence,
		qual:    template.Qualities,
		base:    span.ACursor,
		sigRow:  FeatureTemplateSignal,
		baseRow: FeatureTemplateFirstBase,
		qualRow: FeatureTemplateQuality,
	}
	cc := &channel{
		signal:  cSignal,
		moves:   cMoves,
		cursor:  nthMove(cMoves, span.BCursor),
		seq:     compSeq,
		qual:    compQual,
		base:    span.BCursor,
		sigRow:  FeatureComplementSignal,
		baseRow: FeatureComplementFirstBase,
		qualRow: FeatureComplementQuality,
	}

	out := read.NewFeatures(NumFeatures, len(template.RawSignal)+len(complement.RawSignal))
	pad := cfg.PadFactor * min(minSample(template.RawSignal), minSample(cSignal))
	for _, row := range []int{FeatureTemplateSignal, FeatureComplementSignal} {
		r := out.Row(row)
		for i := range r {
			r[i] = pad
		}
	}

	written := 0
	for _, op := range aln.Ops[span.Start:span.End] {
		tn, cn := 0, 0
		if op.ConsumesA() {
			tn = tc.copySignal(out, written)
		}
		if op.ConsumesB() {
			cn = cc.copySignal(out, written)
		}
		segment := max(tn, cn)
		if segment == 0 {
			break
		}

		if op.ConsumesA() {
			tc.fillBase(out, written, segment)
		}
		if op.ConsumesB() {
			cc.fillBase(out, written, segment)
		}
		out.Set(FeatureMoveTable, written, 1)
		written += segment
	}

	out.Truncate(written)
	if !out.TwoDimensional() {
		return nil, RejectSignal
	}

	return &read.Read{
		ID:       read.DuplexID(template.ID, complement.ID),
		Tag:      template.Tag,
		IsDuplex: true,
		Stereo:   out,
	}, Accepted
}

// channel walks one strand's signal along the alignment.
type channel struct {
	signal []float32
	moves  []uint8
	cursor int

	seq  string
	qual string
	base int

	sigRow, baseRow, qualRow int
}

// copySignal writes the samples of the next base into the feature block at
// column at and returns how many were written.
func (c *channel) copySignal(out *read.Features, at int) int {
	limit := min(len(c.moves), len(c.signal))
	if c.cursor >= limit {
		return 0
	}

	end := c.cursor + 1
	for end < limit && c.moves[end] == 0 {
		end++
	}
	if room := out.Cols - at; end-c.cursor > room {
		end = c.cursor + room
	}

	row := out.Row(c.sigRow)
	n := copy(row[at:], c.signal[c.cursor:end])
	c.cursor = end
	return n
}

// fillBase marks the nucleotide and quality of the current base over the
// segment and advances to the next base.
func (c *channel) fillBase(out *read.Features, at, segment int) {
	if c.base < len(c.seq) {
		baseRow := out.Row(c.baseRow + read.BaseIndex(c.seq[c.base]))
		for i := at; i < at+segment; i++ {
			baseRow[i] = 1
		}
	}
	q := float32(0)
	if c.base < len(c.qual) {
		q = float32(int(c.qual[c.base])-qualityOffset) / qualityScale
	}
	qualRow := out.Row(c.qualRow)
	for i := at; i < at+segment; i++ {
		qualRow[i] = q
	}
	c.base++
}

// expandMoves repeats each move-table step stride times (flag then zeros)
// and truncates the result to the raw signal length.
func expandMoves(moves []uint8, stride, samples int) []uint8 {
	out := make([]uint8, 0, len(moves)*stride)
	for _, m := range moves {
		out = append(out, m)
		for j := 1; j < stride; j++ {
			out = append(out, 0)
		}
	}
	if len(out) > samples {
		out = out[:samples]
	}
	return out
}

// nthMove returns the sample index of the (n+1)-th base boundary.
func nthMove(moves []uint8, n int) int {
	seen := 0
	for i, m := range moves {
		if m == 0 {
			continue
		}
		if seen == n {
			return i
		}
		seen++
	}
	return len(moves)
}

func reverseBytes(b []uint8) {
	for l, r := 0, len(b)-1; l < r; l, r = l+1, r-1 {
		b[l], b[r] = b[r], b[l]
	}
}

func reverseSignal(s []float32) []float32 {
	out := make([]float32, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}

func minSample(s []float32) float32 {
	m := s[0]
	for _, v := range s[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
