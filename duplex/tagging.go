package duplex

import (
	"context"
	"sync"

	"github.com/kbukum/readflow/errors"
	"github.com/kbukum/readflow/logger"
	"github.com/kbukum/readflow/pipeline"
	"github.com/kbukum/readflow/read"
)

// TaggerNodeName is the node name ParentTagger reports in its errors.
const TaggerNodeName = "parent-tagger"

// ParentTagger confirms IsDuplexParent on simplex reads. A read marked as a
// candidate parent is held until a duplex read naming it arrives; reads
// still held when the input ends are released with IsDuplexParent false.
// Every other read passes straight through.
type ParentTagger struct {
	log *logger.Logger

	mu        sync.Mutex
	held      map[string]*read.Read
	confirmed map[string]struct{}
}

// NewParentTagger creates the node body.
func NewParentTagger(log *logger.Logger) *ParentTagger {
	if log == nil {
		log = logger.WithComponent(TaggerNodeName)
	}
	return &ParentTagger{
		log:       log,
		held:      make(map[string]*read.Read),
		confirmed: make(map[string]struct{}),
	}
}

// Process implements pipeline.Worker.
func (t *ParentTagger) Process(ctx context.Context, msg pipeline.Message, out pipeline.Emitter) error {
	r, ok := msg.(*read.Read)
	if !ok {
		return errors.UnexpectedMessage(TaggerNodeName, msg)
	}

	if r.IsDuplex {
		if err := out.Emit(ctx, r); err != nil {
			return err
		}
		for _, parent := range t.confirm(r) {
			if err := out.Emit(ctx, parent); err != nil {
				return err
			}
		}
		return nil
	}

	if r.IsDuplexParent && t.hold(r) {
		return nil
	}
	return out.Emit(ctx, r)
}

// confirm releases the held parents of duplex read d and remembers the
// ones that have not arrived yet.
func (t *ParentTagger) confirm(d *read.Read) []*read.Read {
	tmpl, comp, ok := d.ParentIDs()
	if !ok {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var released []*read.Read
	for _, id := range []string{tmpl, comp} {
		if r, found := t.held[id]; found {
			delete(t.held, id)
			r.IsDuplexParent = true
			released = append(released, r)
			continue
		}
		t.confirmed[id] = struct{}{}
	}
	return released
}

// hold keeps r until its duplex read arrives. It returns false when the
// duplex read was already seen and r can go straight out.
func (t *ParentTagger) hold(r *read.Read) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.confirmed[r.ID]; ok {
		delete(t.confirmed, r.ID)
		return false
	}
	t.held[r.ID] = r
	return true
}

// Drain implements pipeline.Drainer.
func (t *ParentTagger) Drain(ctx context.Context, out pipeline.Emitter) error {
	t.mu.Lock()
	held := t.held
	t.held = make(map[string]*read.Read)
	t.mu.Unlock()

	if len(held) > 0 {
		t.log.Debug("releasing unconfirmed parents", logger.Fields("count", len(held)))
	}
	for _, r := range held {
		r.IsDuplexParent = false
		if err := out.Emit(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// Reset implements pipeline.Resetter.
func (t *ParentTagger) Reset() {
	t.mu.Lock()
	t.held = make(map[string]*read.Read)
	t.confirmed = make(map[string]struct{})
	t.mu.Unlock()
}

// Counters implements pipeline.CounterReporter.
func (t *ParentTagger) Counters() map[string]int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return map[string]int64{
		"held":      int64(len(t.held)),
		"confirmed": int64(len(t.confirmed)),
	}
}
