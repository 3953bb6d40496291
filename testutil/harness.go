package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/kbukum/readflow/logger"
	"github.com/kbukum/readflow/pipeline"
)

// StopTimeout bounds how long Stop waits for the cascade.
const StopTimeout = 5 * time.Second

// Harness is a running two-node graph: the body under test feeding a
// Collector.
type Harness struct {
	t     *testing.T
	Graph *pipeline.Graph
	In    pipeline.Handle
	Out   *Collector
}

// NewHarness builds and runs the graph. It fails the test on wiring errors.
func NewHarness(t *testing.T, name string, body pipeline.Worker, workers int) *Harness {
	t.Helper()
	g := pipeline.NewGraph(pipeline.WithLogger(logger.NewNop()))
	out := &Collector{}
	o, err := g.AddNode(pipeline.NodeSpec{Name: CollectorName, Worker: out})
	if err != nil {
		t.Fatal(err)
	}
	in, err := g.AddNode(pipeline.NodeSpec{Name: name, Worker: body, Workers: workers}, o)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	h := &Harness{t: t, Graph: g, In: in, Out: out}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), StopTimeout)
		defer cancel()
		_ = g.Stop(ctx)
	})
	return h
}

// Push feeds msgs into the body node, failing the test on error.
func (h *Harness) Push(msgs ...pipeline.Message) {
	h.t.Helper()
	for _, m := range msgs {
		if err := h.Graph.Push(context.Background(), h.In, m); err != nil {
			h.t.Fatalf("push: %v", err)
		}
	}
}

// Stop closes the body's input and waits for both nodes to terminate. It
// returns the structural errors of the run and fails the test if the
// cascade does not finish within StopTimeout.
func (h *Harness) Stop() error {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), StopTimeout)
	defer cancel()
	err := h.Graph.Stop(ctx)
	if err == context.DeadlineExceeded {
		h.t.Fatal("graph did not terminate")
	}
	return err
}

// Rerun restarts the stopped graph for an independent input stream.
func (h *Harness) Rerun() {
	h.t.Helper()
	if err := h.Graph.Restart(); err != nil {
		h.t.Fatal(err)
	}
	if err := h.Graph.Run(context.Background()); err != nil {
		h.t.Fatal(err)
	}
}

// WaitFor polls until the collector holds at least n reads.
func (h *Harness) WaitFor(n int) {
	h.t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(h.Out.Reads()) >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	h.t.Fatalf("expected %d reads, got %d", n, len(h.Out.Reads()))
}
