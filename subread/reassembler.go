package subread

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"

	"github.com/kbukum/readflow/errors"
	"github.com/kbukum/readflow/logger"
	"github.com/kbukum/readflow/pipeline"
	"github.com/kbukum/readflow/read"
)

// NodeName is the node name Reassembler reports in its errors.
const NodeName = "subread-reassembler"

// Policy decides what happens to families still buffered at shutdown.
type Policy string

const (
	// Discard drops incomplete families.
	Discard Policy = "discard"
	// Flush emits incomplete families with split counts matching what is emitted.
	Flush Policy = "flush"
)

// ParsePolicy validates a policy name. The empty string means Discard.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", Discard:
		return Discard, nil
	case Flush:
		return Flush, nil
	default:
		return "", errors.InvalidConfig("incomplete_families", "must be discard or flush, got "+s)
	}
}

type family struct {
	simplex        []*read.Read
	expectedDuplex int
}

// Reassembler is a node body that buffers split simplex fragments and the
// duplex reads derived from them until each tag's family is complete, then
// emits the family simplex first with corrected split counts and duplex
// subread ids.
//
// Workers only update the ledger. A reconciliation goroutine started with
// the node checks tags marked dirty and emits complete families.
type Reassembler struct {
	policy Policy
	log    *logger.Logger

	mu      sync.Mutex
	groups  map[string][]*read.Read
	waiting map[string]*family
	duplex  map[string][]*read.Read
	dirty   map[string]struct{}
	wake    chan struct{}
	stop    chan struct{}
	done    chan struct{}
	loopErr error

	families  atomic.Int64
	emitted   atomic.Int64
	discarded atomic.Int64
	flushed   atomic.Int64
}

// NewReassembler creates the node body.
func NewReassembler(policy Policy, log *logger.Logger) *Reassembler {
	if policy == "" {
		policy = Discard
	}
	if log == nil {
		log = logger.WithComponent(NodeName)
	}
	r := &Reassembler{policy: policy, log: log}
	r.resetLedger()
	return r
}

func (r *Reassembler) resetLedger() {
	r.groups = make(map[string][]*read.Read)
	r.waiting = make(map[string]*family)
	r.duplex = make(map[string][]*read.Read)
	r.dirty = make(map[string]struct{})
}

// Start implements pipeline.Starter by launching the reconciliation loop.
func (r *Reassembler) Start(ctx context.Context, out pipeline.Emitter) error {
	r.mu.Lock()
	r.wake = make(chan struct{}, 1)
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	r.loopErr = nil
	wake, stop, done := r.wake, r.stop, r.done
	r.mu.Unlock()

	go r.loop(ctx, out, wake, stop, done)
	return nil
}

func (r *Reassembler) loop(ctx context.Context, out pipeline.Emitter, wake, stop, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-wake:
			r.reconcile(ctx, out)
		case <-stop:
			r.reconcile(ctx, out)
			return
		}
	}
}

// Process implements pipeline.Worker.
func (r *Reassembler) Process(ctx context.Context, msg pipeline.Message, out pipeline.Emitter) error {
	rd, ok := msg.(*read.Read)
	if !ok {
		return errors.UnexpectedMessage(NodeName, msg)
	}

	if rd.IsDuplex {
		r.mu.Lock()
		r.duplex[rd.Tag] = append(r.duplex[rd.Tag], rd)
		r.dirty[rd.Tag] = struct{}{}
		r.mu.Unlock()
		r.notify()
		return nil
	}

	r.mu.Lock()
	group := append(r.groups[rd.Tag], rd)
	if len(group) != rd.ExpectedFragments() {
		r.groups[rd.Tag] = group
		r.mu.Unlock()
		return nil
	}
	delete(r.groups, rd.Tag)

	expected := 0
	for _, s := range group {
		expected += s.NumDuplexCandidatePairs
	}
	if expected > 0 {
		r.waiting[rd.Tag] = &family{simplex: group, expectedDuplex: expected}
		r.dirty[rd.Tag] = struct{}{}
		r.mu.Unlock()
		r.notify()
		return nil
	}
	r.mu.Unlock()

	r.families.Add(1)
	return r.emit(ctx, out, group, nil, false)
}

func (r *Reassembler) notify() {
	r.mu.Lock()
	wake := r.wake
	r.mu.Unlock()
	if wake == nil {
		return
	}
	select {
	case wake <- struct{}{}:
	default:
	}
}

// reconcile emits every dirty tag whose waiting simplex group has received
// all of its expected duplex reads.
func (r *Reassembler) reconcile(ctx context.Context, out pipeline.Emitter) {
	r.mu.Lock()
	var ready []*family
	var readyDuplex [][]*read.Read
	for tag := range r.dirty {
		fam, ok := r.waiting[tag]
		if !ok || len(r.duplex[tag]) != fam.expectedDuplex {
			continue
		}
		ready = append(ready, fam)
		readyDuplex = append(readyDuplex, r.duplex[tag])
		delete(r.waiting, tag)
		delete(r.duplex, tag)
	}
	r.dirty = make(map[string]struct{})
	r.mu.Unlock()

	for i, fam := range ready {
		if err := r.emit(ctx, out, fam.simplex, readyDuplex[i], true); err != nil {
			r.restore(ready[i+1:], readyDuplex[i+1:])
			r.mu.Lock()
			if r.loopErr == nil {
				r.loopErr = err
			}
			r.mu.Unlock()
			return
		}
		r.families.Add(1)
	}
}

// restore puts complete families that were not emitted back into the ledger
// so the incomplete-family policy still sees them at drain.
func (r *Reassembler) restore(families []*family, duplex [][]*read.Read) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, fam := range families {
		tag := fam.simplex[0].Tag
		r.waiting[tag] = fam
		r.duplex[tag] = append(duplex[i], r.duplex[tag]...)
	}
}

// emit sends simplex then duplex reads. With rewrite set every read gets
// the family size as its split count. Duplex reads are numbered after the
// simplex ones.
func (r *Reassembler) emit(ctx context.Context, out pipeline.Emitter, simplex, duplex []*read.Read, rewrite bool) error {
	total := len(simplex) + len(duplex)
	for _, s := range simplex {
		if rewrite {
			s.SplitCount = total
		}
		if err := out.Emit(ctx, s); err != nil {
			return err
		}
		r.emitted.Add(1)
	}
	for i, d := range duplex {
		d.SplitCount = total
		d.SubreadID = len(simplex) + i
		if err := out.Emit(ctx, d); err != nil {
			return err
		}
		r.emitted.Add(1)
	}
	return nil
}

// Drain implements pipeline.Drainer. It stops the reconciliation loop after
// a final pass and then applies the incomplete-family policy. An emit
// failure from the loop is returned after the policy has run.
func (r *Reassembler) Drain(ctx context.Context, out pipeline.Emitter) error {
	r.mu.Lock()
	stop, done := r.stop, r.done
	r.stop = nil
	r.mu.Unlock()
	if stop != nil {
		close(stop)
		<-done
	}

	r.mu.Lock()
	loopErr := r.loopErr
	simplex, duplex := r.leftovers()
	r.resetLedger()
	r.mu.Unlock()

	tags := make([]string, 0, len(simplex)+len(duplex))
	count := 0
	for tag, s := range simplex {
		tags = append(tags, tag)
		count += len(s)
	}
	for tag, d := range duplex {
		if _, ok := simplex[tag]; !ok {
			tags = append(tags, tag)
		}
		count += len(d)
	}
	if count == 0 {
		return loopErr
	}

	if r.policy == Discard {
		r.discarded.Add(int64(count))
		r.log.Warn("discarding incomplete families", logger.Fields("families", len(tags), "reads", count))
		return loopErr
	}

	sort.Strings(tags)
	r.log.Warn("flushing incomplete families", logger.Fields("families", len(tags), "reads", count))
	for _, tag := range tags {
		s, d := simplex[tag], duplex[tag]
		if err := r.emit(ctx, out, s, d, true); err != nil {
			return multierr.Append(loopErr, err)
		}
		r.flushed.Add(int64(len(s) + len(d)))
	}
	return loopErr
}

// leftovers collects buffered reads per tag. Callers hold r.mu.
func (r *Reassembler) leftovers() (simplex, duplex map[string][]*read.Read) {
	simplex = make(map[string][]*read.Read)
	for tag, g := range r.groups {
		simplex[tag] = append(simplex[tag], g...)
	}
	for tag, fam := range r.waiting {
		simplex[tag] = append(simplex[tag], fam.simplex...)
	}
	duplex = make(map[string][]*read.Read, len(r.duplex))
	for tag, d := range r.duplex {
		duplex[tag] = d
	}
	return simplex, duplex
}

// Reset implements pipeline.Resetter.
func (r *Reassembler) Reset() {
	r.mu.Lock()
	r.resetLedger()
	r.loopErr = nil
	r.mu.Unlock()

	r.families.Store(0)
	r.emitted.Store(0)
	r.discarded.Store(0)
	r.flushed.Store(0)
}

// Counters implements pipeline.CounterReporter.
func (r *Reassembler) Counters() map[string]int64 {
	r.mu.Lock()
	collecting, waiting, duplex := len(r.groups), len(r.waiting), 0
	for _, d := range r.duplex {
		duplex += len(d)
	}
	r.mu.Unlock()

	return map[string]int64{
		"collecting":       int64(collecting),
		"waiting":          int64(waiting),
		"buffered_duplex":  int64(duplex),
		"families_emitted": r.families.Load(),
		"reads_emitted":    r.emitted.Load(),
		"reads_discarded":  r.discarded.Load(),
		"reads_flushed":    r.flushed.Load(),
	}
}
