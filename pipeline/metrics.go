package pipeline

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RegisterMetrics exports every node's stats as observable instruments on
// meter. Values are read from Stats at collection time. Unregister the
// returned registration when the graph is discarded.
func (g *Graph) RegisterMetrics(meter metric.Meter) (metric.Registration, error) {
	depth, err := meter.Int64ObservableGauge("readflow.node.queue.depth",
		metric.WithDescription("Messages waiting in the node input queue"))
	if err != nil {
		return nil, err
	}
	active, err := meter.Int64ObservableGauge("readflow.node.workers.active",
		metric.WithDescription("Workers still consuming the node input"))
	if err != nil {
		return nil, err
	}
	processed, err := meter.Int64ObservableCounter("readflow.node.processed",
		metric.WithDescription("Messages handed to the node body"))
	if err != nil {
		return nil, err
	}
	emitted, err := meter.Int64ObservableCounter("readflow.node.emitted",
		metric.WithDescription("Messages pushed to sink nodes"))
	if err != nil {
		return nil, err
	}
	failed, err := meter.Int64ObservableCounter("readflow.node.failed",
		metric.WithDescription("Messages whose processing returned an error"))
	if err != nil {
		return nil, err
	}
	counters, err := meter.Int64ObservableGauge("readflow.node.counter",
		metric.WithDescription("Node body counters such as pending pairs or waiting families"))
	if err != nil {
		return nil, err
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		for _, s := range g.Stats() {
			node := metric.WithAttributes(attribute.String("node", s.Name))
			o.ObserveInt64(depth, int64(s.QueueDepth), node)
			o.ObserveInt64(active, int64(s.ActiveWorkers), node)
			o.ObserveInt64(processed, s.Processed, node)
			o.ObserveInt64(emitted, s.Emitted, node)
			o.ObserveInt64(failed, s.Failed, node)
			for name, v := range s.Counters {
				o.ObserveInt64(counters, v, metric.WithAttributes(
					attribute.String("node", s.Name),
					attribute.String("counter", name),
				))
			}
		}
		return nil
	}, depth, active, processed, emitted, failed, counters)
}
