// Package pipeline is the concurrent dataflow engine readflow is built on.
//
// A Graph owns Nodes. Each Node owns one bounded Queue, a pool of worker
// goroutines running the node's Worker body, and a set of sink Nodes it
// forwards results to. Queues provide backpressure: a slow downstream node
// stalls its producers instead of growing memory.
//
// # Termination cascade
//
// Closing a queue is itself a message. A node's input queue closes once every
// producer feeding it has closed it. When the last worker of a node observes
// its exhausted queue the node runs its optional Drainer hook and then closes
// the input of each sink, so sinks only see closure after every message the
// node could still emit has been pushed.
//
// # Usage
//
//	g := pipeline.NewGraph()
//	out, _ := g.AddNode(pipeline.NodeSpec{Name: "writer", Worker: writer})
//	enc, _ := g.AddNode(pipeline.NodeSpec{Name: "encoder", Worker: encoder, Workers: 8}, out)
//	_ = g.Run(ctx)
//	_ = g.Push(ctx, enc, read)
//	err := g.Stop(ctx)
package pipeline
