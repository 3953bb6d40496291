package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/kbukum/readflow/errors"
	"github.com/kbukum/readflow/pipeline"
	"github.com/kbukum/readflow/read"
)

// CollectorName is the node name of the collector in a Harness.
const CollectorName = "collector"

// Collector is a terminal node body that records every read it receives.
type Collector struct {
	mu    sync.Mutex
	reads []*read.Read
}

// Process implements pipeline.Worker.
func (c *Collector) Process(_ context.Context, msg pipeline.Message, _ pipeline.Emitter) error {
	r, ok := msg.(*read.Read)
	if !ok {
		return errors.UnexpectedMessage(CollectorName, msg)
	}
	c.mu.Lock()
	c.reads = append(c.reads, r)
	c.mu.Unlock()
	return nil
}

// Reset implements pipeline.Resetter.
func (c *Collector) Reset() {
	c.mu.Lock()
	c.reads = nil
	c.mu.Unlock()
}

// Reads returns the collected reads in arrival order.
func (c *Collector) Reads() []*read.Read {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*read.Read(nil), c.reads...)
}

// IDs returns the collected read ids, sorted.
func (c *Collector) IDs() []string {
	reads := c.Reads()
	ids := make([]string, 0, len(reads))
	for _, r := range reads {
		ids = append(ids, r.ID)
	}
	sort.Strings(ids)
	return ids
}

// ByID returns the first collected read with id, or nil.
func (c *Collector) ByID(id string) *read.Read {
	for _, r := range c.Reads() {
		if r.ID == id {
			return r
		}
	}
	return nil
}
