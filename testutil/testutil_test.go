package testutil

import (
	"context"
	"testing"

	"github.com/kbukum/readflow/errors"
	"github.com/kbukum/readflow/pipeline"
	"github.com/kbukum/readflow/read"
)

func TestHarnessPassThrough(t *testing.T) {
	body := pipeline.WorkerFunc(func(ctx context.Context, msg pipeline.Message, out pipeline.Emitter) error {
		return out.Emit(ctx, msg)
	})
	h := NewHarness(t, "echo", body, 2)
	h.Push(&read.Read{ID: "b"}, &read.Read{ID: "a"})
	h.WaitFor(2)
	if err := h.Stop(); err != nil {
		t.Fatal(err)
	}

	ids := h.Out.IDs()
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("unexpected ids %v", ids)
	}
	if h.Out.ByID("a") == nil || h.Out.ByID("z") != nil {
		t.Error("ByID lookup mismatch")
	}

	h.Rerun()
	if n := len(h.Out.Reads()); n != 0 {
		t.Errorf("rerun should reset the collector, got %d reads", n)
	}
}

func TestCollectorRejectsNonReads(t *testing.T) {
	var c Collector
	err := c.Process(context.Background(), "bogus", nil)
	if !errors.HasCode(err, errors.ErrCodeUnexpectedMessage) {
		t.Errorf("expected UNEXPECTED_MESSAGE, got %v", err)
	}
}
