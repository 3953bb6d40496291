package pipeline

// NodeStats is a point-in-time view of one node. It is a monitoring side
// channel and never feeds back into the data flow.
type NodeStats struct {
	Name          string           `json:"name"`
	State         string           `json:"state"`
	QueueDepth    int              `json:"queue_depth"`
	QueueCapacity int              `json:"queue_capacity"`
	Workers       int              `json:"workers"`
	ActiveWorkers int              `json:"active_workers"`
	Processed     int64            `json:"processed"`
	Emitted       int64            `json:"emitted"`
	Failed        int64            `json:"failed"`
	Counters      map[string]int64 `json:"counters,omitempty"`
}

// Stats returns the node's counters.
func (n *Node) Stats() NodeStats {
	q := n.input()
	st := n.State()

	active := 0
	if st == StateRunning || st == StateDraining {
		active = int(n.active.Load())
	}

	s := NodeStats{
		Name:          n.name,
		State:         st.String(),
		QueueDepth:    q.Len(),
		QueueCapacity: q.Cap(),
		Workers:       n.workers,
		ActiveWorkers: active,
		Processed:     n.processed.Load(),
		Emitted:       n.emitted.Load(),
		Failed:        n.failed.Load(),
	}
	if c, ok := n.worker.(CounterReporter); ok {
		s.Counters = c.Counters()
	}
	return s
}
