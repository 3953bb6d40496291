package pipeline

import (
	"context"
	"fmt"

	"github.com/kbukum/readflow/component"
)

var _ component.Component = (*Graph)(nil)

// Name implements component.Component.
func (g *Graph) Name() string { return "pipeline" }

// Start implements component.Component by running the graph.
func (g *Graph) Start(ctx context.Context) error { return g.Run(ctx) }

// Health reports unhealthy before Run, degraded once any node has recorded
// a structural fault.
func (g *Graph) Health(_ context.Context) component.Health {
	g.mu.Lock()
	running := g.running
	g.mu.Unlock()

	h := component.Health{Name: g.Name(), Status: component.StatusHealthy}
	if !running {
		h.Status = component.StatusUnhealthy
		h.Message = "not running"
		return h
	}

	var failed int64
	for _, s := range g.Stats() {
		failed += s.Failed
	}
	if failed > 0 {
		h.Status = component.StatusDegraded
		h.Message = fmt.Sprintf("%d structural faults", failed)
	}
	return h
}

// Describe implements component.Describable.
func (g *Graph) Describe() component.Description {
	g.mu.Lock()
	defer g.mu.Unlock()
	return component.Description{
		Name:    "Pipeline",
		Type:    "pipeline",
		Details: fmt.Sprintf("nodes=%d edges=%d", len(g.nodes), len(g.edges)),
	}
}
