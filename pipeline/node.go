package pipeline

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"

	"github.com/kbukum/readflow/errors"
	"github.com/kbukum/readflow/logger"
	"github.com/kbukum/readflow/observability"
)

// State is a node's lifecycle state.
type State int32

const (
	// StateIdle is a constructed node that has not been started.
	StateIdle State = iota
	// StateRunning means workers are consuming the input queue.
	StateRunning
	// StateDraining means every worker has exited and the drain hook is running.
	StateDraining
	// StateTerminated means the node's sinks have been closed.
	StateTerminated
	// StateRestarted is a terminated node whose queue and body were rebuilt.
	StateRestarted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateTerminated:
		return "terminated"
	case StateRestarted:
		return "restarted"
	default:
		return "unknown"
	}
}

// Worker is the body of a node. Process runs on one of the node's worker
// goroutines for a single message and forwards zero or more results
// through out. Returning an error marks a structural fault: the node
// records it, keeps draining, and the graph reports it from Stop.
type Worker interface {
	Process(ctx context.Context, msg Message, out Emitter) error
}

// WorkerFunc adapts a function to the Worker interface.
type WorkerFunc func(ctx context.Context, msg Message, out Emitter) error

// Process calls f.
func (f WorkerFunc) Process(ctx context.Context, msg Message, out Emitter) error {
	return f(ctx, msg, out)
}

// Starter is implemented by bodies that run background work alongside the
// worker pool. Start is called before any worker goroutine is spawned.
type Starter interface {
	Start(ctx context.Context, out Emitter) error
}

// Drainer is implemented by bodies that hold messages across calls.
// Drain runs once after every worker has exited and before the node's
// sinks are closed, so anything it emits still reaches them.
type Drainer interface {
	Drain(ctx context.Context, out Emitter) error
}

// Resetter is implemented by bodies with per-run state. Reset is called
// when a terminated node is restarted.
type Resetter interface {
	Reset()
}

// CounterReporter is implemented by bodies exposing their own counters
// through NodeStats.
type CounterReporter interface {
	Counters() map[string]int64
}

// Emitter forwards messages to a node's sinks.
type Emitter interface {
	// Emit pushes msg to every sink. Sinks after the first receive a clone
	// when msg implements Cloner.
	Emit(ctx context.Context, msg Message) error
	// EmitTo pushes msg to the sink with the given node name only.
	EmitTo(ctx context.Context, sink string, msg Message) error
}

// Node is a named unit owning one bounded queue, a pool of worker
// goroutines and a set of downstream sinks.
type Node struct {
	name     string
	worker   Worker
	workers  int
	capacity int
	log      *logger.Logger

	mu        sync.Mutex
	queue     *Queue
	sinks     []*Node
	producers int
	closes    int
	done      chan struct{}
	err       error

	state     atomic.Int32
	active    atomic.Int32
	processed atomic.Int64
	emitted   atomic.Int64
	failed    atomic.Int64
}

func newNode(spec NodeSpec, log *logger.Logger) *Node {
	n := &Node{
		name:     spec.Name,
		worker:   spec.Worker,
		workers:  spec.Workers,
		capacity: spec.Capacity,
		log:      log.WithComponent(spec.Name),
		queue:    NewQueue(spec.Capacity),
		done:     make(chan struct{}),
	}
	n.state.Store(int32(StateIdle))
	return n
}

// Name returns the node name.
func (n *Node) Name() string { return n.name }

// State returns the current lifecycle state.
func (n *Node) State() State { return State(n.state.Load()) }

// Done is closed once the node reaches StateTerminated.
func (n *Node) Done() <-chan struct{} {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.done
}

// Err returns the structural faults recorded during the current run.
func (n *Node) Err() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.err
}

// Push enqueues msg on the node's input queue.
func (n *Node) Push(ctx context.Context, msg Message) error {
	return n.input().Push(ctx, msg)
}

func (n *Node) input() *Queue {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.queue
}

func (n *Node) wire(sinks []*Node, producers int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sinks = sinks
	n.producers = producers
	n.closes = 0
}

// closeInput is called once by each producer feeding this node. The queue
// closes when the last producer has done so.
func (n *Node) closeInput() {
	n.mu.Lock()
	n.closes++
	last := n.closes >= n.producers
	q := n.queue
	n.mu.Unlock()

	if last {
		q.Close()
	}
}

func (n *Node) start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if st := n.State(); st != StateIdle && st != StateRestarted {
		return errors.InvalidState("node "+n.name, st.String(), "start")
	}

	out := &fanout{node: n}
	if s, ok := n.worker.(Starter); ok {
		if err := s.Start(ctx, out); err != nil {
			return err
		}
	}

	n.state.Store(int32(StateRunning))
	n.active.Store(int32(n.workers))
	for i := 0; i < n.workers; i++ {
		go n.run(ctx, n.queue, out)
	}

	n.log.Debug("node started", logger.Fields(
		"workers", n.workers,
		"capacity", n.queue.Cap(),
		"sinks", len(n.sinks),
	))
	return nil
}

func (n *Node) run(ctx context.Context, q *Queue, out *fanout) {
	for {
		msg, ok, err := q.Pop(ctx)
		if err != nil || !ok {
			break
		}
		if err := n.worker.Process(ctx, msg, out); err != nil {
			n.fail(err)
		}
		n.processed.Add(1)
	}

	if n.active.Add(-1) == 0 {
		n.finish(ctx, out)
	}
}

// finish runs on the last worker to exit.
func (n *Node) finish(ctx context.Context, out *fanout) {
	n.state.Store(int32(StateDraining))

	if d, ok := n.worker.(Drainer); ok {
		if err := d.Drain(ctx, out); err != nil {
			n.fail(err)
		}
	}

	for _, sink := range n.sinks {
		sink.closeInput()
	}

	n.mu.Lock()
	n.state.Store(int32(StateTerminated))
	close(n.done)
	n.mu.Unlock()

	n.log.Info("node terminated", logger.Fields(
		"processed", n.processed.Load(),
		"emitted", n.emitted.Load(),
		"failed", n.failed.Load(),
	))
}

func (n *Node) fail(err error) {
	n.failed.Add(1)
	n.log.Error("structural fault", logger.ErrorFields("process", err))

	code := string(errors.ErrCodeInternal)
	if appErr, ok := errors.AsAppError(err); ok {
		code = string(appErr.Code)
	}
	observability.DefaultMetrics().RecordError(context.Background(), code, n.name)

	n.mu.Lock()
	n.err = multierr.Append(n.err, err)
	n.mu.Unlock()
}

// restart rebuilds the input queue and resets the body after termination.
func (n *Node) restart() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if st := n.State(); st != StateTerminated {
		return errors.InvalidState("node "+n.name, st.String(), "restart")
	}

	n.queue = NewQueue(n.capacity)
	n.closes = 0
	n.err = nil
	n.done = make(chan struct{})
	n.processed.Store(0)
	n.emitted.Store(0)
	n.failed.Store(0)
	if r, ok := n.worker.(Resetter); ok {
		r.Reset()
	}
	n.state.Store(int32(StateRestarted))
	return nil
}

// fanout is the Emitter handed to a node's body.
type fanout struct {
	node *Node
}

// Emit copies msg for every extra sink before the first push, since sink
// workers may mutate what they receive.
func (f *fanout) Emit(ctx context.Context, msg Message) error {
	msgs := make([]Message, len(f.node.sinks))
	for i := range msgs {
		msgs[i] = msg
		if i > 0 {
			if c, ok := msg.(Cloner); ok {
				msgs[i] = c.Clone()
			}
		}
	}
	for i, sink := range f.node.sinks {
		if err := sink.Push(ctx, msgs[i]); err != nil {
			return err
		}
		f.node.emitted.Add(1)
	}
	return nil
}

func (f *fanout) EmitTo(ctx context.Context, name string, msg Message) error {
	for _, sink := range f.node.sinks {
		if sink.name == name {
			if err := sink.Push(ctx, msg); err != nil {
				return err
			}
			f.node.emitted.Add(1)
			return nil
		}
	}
	return errors.NotFound("sink", name).WithDetail("node", f.node.name)
}
