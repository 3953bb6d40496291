// Package testutil provides graph fixtures for node body tests.
//
// A Harness wires one body node in front of a Collector and runs the graph:
//
//	h := testutil.NewHarness(t, "encoder", body, 4)
//	h.Push(a, b)
//	if err := h.Stop(); err != nil {
//	    t.Fatal(err)
//	}
//	got := h.Out.IDs()
//
// The graph is stopped on test cleanup if the test did not stop it.
package testutil
