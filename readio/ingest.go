package readio

import (
	"context"
	"sync/atomic"

	"github.com/kbukum/readflow/errors"
	"github.com/kbukum/readflow/pipeline"
	"github.com/kbukum/readflow/read"
)

// IngestNodeName is the node name Ingest reports in its errors.
const IngestNodeName = "ingest"

// Ingest is the source node body. It fills in the fields downstream nodes
// rely on and fans every read out to its sinks:
//
//   - Tag defaults to the read id.
//   - Reads named by the pair table are marked as duplex parent candidates.
//   - With deriveCandidates, a template whose NumDuplexCandidatePairs is
//     unset expects one duplex read. Duplex reads inherit the template's
//     tag, so complements expect none.
type Ingest struct {
	pairs            *read.PairTable
	deriveCandidates bool

	ingested   atomic.Int64
	candidates atomic.Int64
}

// NewIngest creates the source node body. pairs may be nil.
func NewIngest(pairs *read.PairTable, deriveCandidates bool) *Ingest {
	return &Ingest{pairs: pairs, deriveCandidates: deriveCandidates}
}

// Process implements pipeline.Worker.
func (in *Ingest) Process(ctx context.Context, msg pipeline.Message, out pipeline.Emitter) error {
	r, ok := msg.(*read.Read)
	if !ok {
		return errors.UnexpectedMessage(IngestNodeName, msg)
	}

	if r.Tag == "" {
		r.Tag = r.ID
	}
	if in.pairs != nil && !r.IsDuplex {
		if _, isTemplate, ok := in.pairs.Partner(r.ID); ok {
			r.IsDuplexParent = true
			if in.deriveCandidates && isTemplate && r.NumDuplexCandidatePairs == 0 {
				r.NumDuplexCandidatePairs = 1
			}
			in.candidates.Add(1)
		}
	}

	in.ingested.Add(1)
	return out.Emit(ctx, r)
}

// Reset implements pipeline.Resetter.
func (in *Ingest) Reset() {
	in.ingested.Store(0)
	in.candidates.Store(0)
}

// Counters implements pipeline.CounterReporter.
func (in *Ingest) Counters() map[string]int64 {
	return map[string]int64{
		"ingested":   in.ingested.Load(),
		"candidates": in.candidates.Load(),
	}
}

// PairedOnly keeps reads named by pairs.
func PairedOnly(it pipeline.Iterator[*read.Read], pairs *read.PairTable) pipeline.Iterator[*read.Read] {
	ids := pairs.ReadIDs()
	return pipeline.Filter(it, func(r *read.Read) bool {
		_, ok := ids[r.ID]
		return ok
	})
}
