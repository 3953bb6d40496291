package pipeline

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type countingSink struct {
	collector
}

func (c *countingSink) Counters() map[string]int64 {
	return map[string]int64{"seen": int64(len(c.snapshot()))}
}

func TestRegisterMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	g := testGraph()
	sink := &countingSink{}
	out := mustAdd(t, g, NodeSpec{Name: "sink", Worker: sink})
	in := mustAdd(t, g, NodeSpec{Name: "double", Worker: double()}, out)

	reg, err := g.RegisterMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}
	defer reg.Unregister()

	ctx := context.Background()
	if err := g.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := Feed(ctx, g, in, FromSlice([]int{1, 2, 3})); err != nil {
		t.Fatal(err)
	}
	if err := stopWithin(t, g); err != nil {
		t.Fatal(err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatal(err)
	}

	values := make(map[string]map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			values[m.Name] = make(map[string]int64)
			var points []metricdata.DataPoint[int64]
			switch d := m.Data.(type) {
			case metricdata.Sum[int64]:
				points = d.DataPoints
			case metricdata.Gauge[int64]:
				points = d.DataPoints
			}
			for _, p := range points {
				node, _ := p.Attributes.Value(attribute.Key("node"))
				key := node.AsString()
				if c, ok := p.Attributes.Value(attribute.Key("counter")); ok {
					key += "/" + c.AsString()
				}
				values[m.Name][key] = p.Value
			}
		}
	}

	if got := values["readflow.node.processed"]["double"]; got != 3 {
		t.Errorf("processed(double) = %d, want 3", got)
	}
	if got := values["readflow.node.emitted"]["double"]; got != 3 {
		t.Errorf("emitted(double) = %d, want 3", got)
	}
	if got := values["readflow.node.queue.depth"]["sink"]; got != 0 {
		t.Errorf("queue depth(sink) = %d, want 0", got)
	}
	if got := values["readflow.node.counter"]["sink/seen"]; got != 3 {
		t.Errorf("counter sink/seen = %d, want 3", got)
	}
}
