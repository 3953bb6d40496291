package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/kbukum/readflow/errors"
	"github.com/kbukum/readflow/logger"
)

// Handle identifies a node inside the graph that created it.
type Handle int

// InvalidHandle is returned alongside errors from AddNode.
const InvalidHandle Handle = -1

// NodeSpec declares a node.
type NodeSpec struct {
	// Name must be unique within the graph.
	Name string
	// Worker is the node body.
	Worker Worker
	// Workers is the size of the worker pool (default 1).
	Workers int
	// Capacity is the input queue capacity (default DefaultCapacity).
	Capacity int
	// Source marks a node fed by an external producer through Graph.Push.
	// Stop closes the input of every source node. Nodes without incoming
	// edges are sources whether or not this is set.
	Source bool
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the logger the graph and its nodes log through.
func WithLogger(l *logger.Logger) Option {
	return func(g *Graph) {
		if l != nil {
			g.log = l
		}
	}
}

// Graph owns a set of nodes wired into a DAG and their shared lifecycle.
// Edges may be added in any order once both ends exist, so a node can feed
// one constructed before it.
type Graph struct {
	log *logger.Logger

	mu      sync.Mutex
	nodes   []*Node
	specs   []NodeSpec
	index   map[string]Handle
	edges   []edge
	edgeSet map[edge]struct{}
	roots   []Handle
	runID   string
	running bool
	stopped bool
}

// NewGraph creates an empty graph.
func NewGraph(opts ...Option) *Graph {
	g := &Graph{
		log:     logger.WithComponent("pipeline"),
		index:   make(map[string]Handle),
		edgeSet: make(map[edge]struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AddNode registers a node and wires it to the given existing sinks.
func (g *Graph) AddNode(spec NodeSpec, sinks ...Handle) (Handle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.running {
		return InvalidHandle, errors.InvalidState("graph", "running", "add node")
	}
	if spec.Name == "" {
		return InvalidHandle, errors.InvalidConfig("name", "node name is required")
	}
	if spec.Worker == nil {
		return InvalidHandle, errors.InvalidConfig("worker", "node "+spec.Name+" has no worker")
	}
	if _, exists := g.index[spec.Name]; exists {
		return InvalidHandle, errors.InvalidConfig("name", fmt.Sprintf("node %q already exists", spec.Name))
	}
	for _, s := range sinks {
		if !g.valid(s) {
			return InvalidHandle, errors.NotFound("node", fmt.Sprint(int(s)))
		}
	}
	if spec.Workers <= 0 {
		spec.Workers = 1
	}
	if spec.Capacity <= 0 {
		spec.Capacity = DefaultCapacity
	}

	h := Handle(len(g.nodes))
	g.nodes = append(g.nodes, newNode(spec, g.log))
	g.specs = append(g.specs, spec)
	g.index[spec.Name] = h

	for _, s := range sinks {
		if err := g.addEdge(h, s); err != nil {
			return h, err
		}
	}
	return h, nil
}

// AddEdge routes the output of from into the input queue of to.
func (g *Graph) AddEdge(from, to Handle) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.running {
		return errors.InvalidState("graph", "running", "add edge")
	}
	if !g.valid(from) {
		return errors.NotFound("node", fmt.Sprint(int(from)))
	}
	if !g.valid(to) {
		return errors.NotFound("node", fmt.Sprint(int(to)))
	}
	return g.addEdge(from, to)
}

func (g *Graph) addEdge(from, to Handle) error {
	e := edge{From: from, To: to}
	if _, dup := g.edgeSet[e]; dup {
		return errors.InvalidConfig("edge", fmt.Sprintf("duplicate edge %s -> %s", g.nodes[from].name, g.nodes[to].name))
	}
	g.edgeSet[e] = struct{}{}
	g.edges = append(g.edges, e)
	return nil
}

func (g *Graph) valid(h Handle) bool {
	return h >= 0 && int(h) < len(g.nodes)
}

// Lookup returns the handle of the named node.
func (g *Graph) Lookup(name string) (Handle, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	h, ok := g.index[name]
	return h, ok
}

// Node returns the node behind h, or nil.
func (g *Graph) Node(h Handle) *Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.valid(h) {
		return nil
	}
	return g.nodes[h]
}

// RunID identifies the current or last run.
func (g *Graph) RunID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.runID
}

// Run validates the wiring and starts every node's workers. Sinks start
// before their producers. It fails with CYCLE_DETECTED if the edges do not
// form a DAG.
func (g *Graph) Run(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.running {
		return errors.InvalidState("graph", "running", "run")
	}
	if len(g.nodes) == 0 {
		return errors.InvalidConfig("nodes", "graph has no nodes")
	}

	levels, err := buildLevels(len(g.nodes), g.edges)
	if err != nil {
		g.log.Error("graph wiring rejected", logger.ErrorFields("run", err))
		return err
	}

	in := indegrees(len(g.nodes), g.edges)
	sinks := make([][]*Node, len(g.nodes))
	for _, e := range g.edges {
		sinks[e.From] = append(sinks[e.From], g.nodes[e.To])
	}

	g.roots = g.roots[:0]
	for h, n := range g.nodes {
		source := g.specs[h].Source || in[h] == 0
		producers := in[h]
		if source {
			producers++
			g.roots = append(g.roots, Handle(h))
		}
		n.wire(sinks[h], producers)
	}

	g.runID = uuid.NewString()
	log := g.log.WithFields(logger.Fields(logger.FieldRunID, g.runID))

	var started []*Node
	for i := len(levels) - 1; i >= 0; i-- {
		for _, h := range levels[i] {
			if err := g.nodes[h].start(ctx); err != nil {
				log.Error("node start failed", logger.Fields(logger.FieldNode, g.nodes[h].name, logger.FieldError, err.Error()))
				abortStarted(ctx, started)
				return fmt.Errorf("start %s: %w", g.nodes[h].name, err)
			}
			started = append(started, g.nodes[h])
		}
	}

	g.running = true
	g.stopped = false
	log.Info("graph running", logger.Fields("nodes", len(g.nodes), "edges", len(g.edges), "levels", len(levels)))
	return nil
}

// abortStarted shuts down nodes started before a failed start. Nodes are
// closed upstream first so anything they drain still reaches their sinks.
func abortStarted(ctx context.Context, started []*Node) {
	for i := len(started) - 1; i >= 0; i-- {
		n := started[i]
		n.input().Close()
		select {
		case <-n.Done():
		case <-ctx.Done():
			return
		}
	}
}

// Push feeds msg into the node behind h.
func (g *Graph) Push(ctx context.Context, h Handle, msg Message) error {
	n := g.Node(h)
	if n == nil {
		return errors.NotFound("node", fmt.Sprint(int(h)))
	}
	return n.Push(ctx, msg)
}

// Stop closes the input of every source node and blocks until every node
// has terminated or ctx is done. It returns the structural faults recorded
// by the nodes during the run. Calling Stop again waits for the same run.
func (g *Graph) Stop(ctx context.Context) error {
	g.mu.Lock()
	if !g.running {
		g.mu.Unlock()
		return nil
	}
	if !g.stopped {
		g.stopped = true
		for _, h := range g.roots {
			g.nodes[h].closeInput()
		}
	}
	nodes := append([]*Node(nil), g.nodes...)
	g.mu.Unlock()

	for _, n := range nodes {
		select {
		case <-n.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	var errs error
	for _, n := range nodes {
		errs = multierr.Append(errs, n.Err())
	}

	g.mu.Lock()
	g.running = false
	g.mu.Unlock()

	g.log.Info("graph stopped", logger.Fields(logger.FieldRunID, g.RunID(), "errors", len(multierr.Errors(errs))))
	return errs
}

// Restart rebuilds every node's queue and resets node bodies so the same
// graph can process an independent input stream. The graph must have been
// stopped.
func (g *Graph) Restart() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.running {
		return errors.InvalidState("graph", "running", "restart")
	}
	for _, n := range g.nodes {
		if err := n.restart(); err != nil {
			return err
		}
	}
	g.stopped = false
	return nil
}

// Stats returns a point-in-time snapshot of every node, in insertion order.
func (g *Graph) Stats() []NodeStats {
	g.mu.Lock()
	nodes := append([]*Node(nil), g.nodes...)
	g.mu.Unlock()

	stats := make([]NodeStats, 0, len(nodes))
	for _, n := range nodes {
		stats = append(stats, n.Stats())
	}
	return stats
}
