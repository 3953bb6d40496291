package duplex

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/readflow/errors"
	"github.com/kbukum/readflow/logger"
	"github.com/kbukum/readflow/observability"
	"github.com/kbukum/readflow/pipeline"
	"github.com/kbukum/readflow/read"
)

// EncoderNodeName is the node name PairingEncoder reports in its errors.
const EncoderNodeName = "duplex-encoder"

// PairingEncoder is a node body that holds each simplex read until its
// partner from the pair table arrives, then encodes the pair into a duplex
// read. Rejected pairs and reads absent from the table produce no output.
type PairingEncoder struct {
	pairs *read.PairTable
	cfg   Config
	log   *logger.Logger

	mu      sync.Mutex
	pending map[string]*read.Read
	recent  *recentPairs

	paired            atomic.Int64
	encoded           atomic.Int64
	rejectedLength    atomic.Int64
	rejectedAlignment atomic.Int64
	rejectedSignal    atomic.Int64
	unpaired          atomic.Int64
}

// NewPairingEncoder creates the node body.
func NewPairingEncoder(pairs *read.PairTable, cfg Config, log *logger.Logger) *PairingEncoder {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.WithComponent(EncoderNodeName)
	}
	return &PairingEncoder{
		pairs:   pairs,
		cfg:     cfg,
		log:     log,
		pending: make(map[string]*read.Read),
		recent:  newRecentPairs(cfg.RecentPairs),
	}
}

// Process implements pipeline.Worker.
func (e *PairingEncoder) Process(ctx context.Context, msg pipeline.Message, out pipeline.Emitter) error {
	r, ok := msg.(*read.Read)
	if !ok {
		return errors.UnexpectedMessage(EncoderNodeName, msg)
	}

	partnerID, isTemplate, ok := e.pairs.Partner(r.ID)
	if !ok {
		e.unpaired.Add(1)
		return nil
	}

	partner := e.match(r, partnerID)
	if partner == nil {
		return nil
	}
	e.paired.Add(1)

	template, complement := r, partner
	if !isTemplate {
		template, complement = partner, r
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanEncode, trace.WithAttributes(
		attribute.String(observability.AttrTemplateID, template.ID),
		attribute.String(observability.AttrComplementID, complement.ID),
	))
	defer span.End()

	start := time.Now()
	duplex, reason := Encode(template, complement, e.cfg)
	status := "encoded"
	if duplex == nil {
		status = string(reason)
	}
	observability.DefaultMetrics().RecordOperation(ctx, EncoderNodeName, "encode", status, time.Since(start))

	if duplex == nil {
		e.reject(reason)
		span.SetAttributes(attribute.String(observability.AttrRejection, string(reason)))
		e.log.Debug("pair rejected", logger.Fields(
			"template", template.ID,
			"complement", complement.ID,
			"reason", string(reason),
		))
		return nil
	}

	e.encoded.Add(1)
	span.SetAttributes(attribute.Int(observability.AttrSamples, duplex.Stereo.Cols))
	return out.Emit(ctx, duplex)
}

// match stores r or, when its partner is already waiting, removes and
// returns the partner. A read from one of the recently matched pairs is
// ignored.
func (e *PairingEncoder) match(r *read.Read, partnerID string) *read.Read {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.recent.contains(r.ID) {
		return nil
	}
	partner, found := e.pending[partnerID]
	if !found {
		if _, waiting := e.pending[r.ID]; !waiting {
			e.pending[r.ID] = r
		}
		return nil
	}

	delete(e.pending, partnerID)
	e.recent.add(r.ID, partnerID)
	return partner
}

func (e *PairingEncoder) reject(reason Rejection) {
	switch reason {
	case RejectLength:
		e.rejectedLength.Add(1)
	case RejectAlignment:
		e.rejectedAlignment.Add(1)
	default:
		e.rejectedSignal.Add(1)
	}
}

// Drain implements pipeline.Drainer. Reads still waiting for a partner are
// dropped.
func (e *PairingEncoder) Drain(_ context.Context, _ pipeline.Emitter) error {
	if n := e.Pending(); n > 0 {
		e.log.Debug("unmatched reads at shutdown", logger.Fields("count", n))
	}
	return nil
}

// Reset implements pipeline.Resetter.
func (e *PairingEncoder) Reset() {
	e.mu.Lock()
	e.pending = make(map[string]*read.Read)
	e.recent = newRecentPairs(e.cfg.RecentPairs)
	e.mu.Unlock()

	e.paired.Store(0)
	e.encoded.Store(0)
	e.rejectedLength.Store(0)
	e.rejectedAlignment.Store(0)
	e.rejectedSignal.Store(0)
	e.unpaired.Store(0)
}

// Pending returns the number of reads waiting for their partner.
func (e *PairingEncoder) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// Remembered returns the number of read ids kept to suppress re-delivered
// pairs. It never exceeds twice Config.RecentPairs.
func (e *PairingEncoder) Remembered() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recent.len()
}

// Counters implements pipeline.CounterReporter.
func (e *PairingEncoder) Counters() map[string]int64 {
	return map[string]int64{
		"pending":            int64(e.Pending()),
		"remembered":         int64(e.Remembered()),
		"paired":             e.paired.Load(),
		"encoded":            e.encoded.Load(),
		"rejected_length":    e.rejectedLength.Load(),
		"rejected_alignment": e.rejectedAlignment.Load(),
		"rejected_signal":    e.rejectedSignal.Load(),
		"unpaired":           e.unpaired.Load(),
	}
}

// recentPairs is a fixed-size ring of the last matched pairs.
type recentPairs struct {
	ids  map[string]struct{}
	ring [][2]string
	next int
}

func newRecentPairs(size int) *recentPairs {
	if size < 1 {
		size = 1
	}
	return &recentPairs{
		ids:  make(map[string]struct{}, 2*size),
		ring: make([][2]string, 0, size),
	}
}

func (p *recentPairs) contains(id string) bool {
	_, ok := p.ids[id]
	return ok
}

// add records a matched pair, evicting the oldest one when full.
func (p *recentPairs) add(a, b string) {
	pair := [2]string{a, b}
	if len(p.ring) < cap(p.ring) {
		p.ring = append(p.ring, pair)
	} else {
		old := p.ring[p.next]
		delete(p.ids, old[0])
		delete(p.ids, old[1])
		p.ring[p.next] = pair
		p.next = (p.next + 1) % len(p.ring)
	}
	p.ids[a] = struct{}{}
	p.ids[b] = struct{}{}
}

func (p *recentPairs) len() int { return len(p.ids) }
