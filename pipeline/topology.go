package pipeline

import "github.com/kbukum/readflow/errors"

// edge is a directed link: messages flow from From into To's queue.
type edge struct {
	From Handle
	To   Handle
}

// buildLevels uses Kahn's algorithm to group nodes by distance from the
// graph's roots. Level 0 holds nodes without incoming edges.
// Returns CYCLE_DETECTED if the wiring is not a DAG.
func buildLevels(count int, edges []edge) ([][]Handle, error) {
	inDegree := make([]int, count)
	dependents := make([][]Handle, count)

	for _, e := range edges {
		inDegree[e.To]++
		dependents[e.From] = append(dependents[e.From], e.To)
	}

	var queue []Handle
	for h := 0; h < count; h++ {
		if inDegree[h] == 0 {
			queue = append(queue, Handle(h))
		}
	}

	var levels [][]Handle
	visited := 0

	for len(queue) > 0 {
		levels = append(levels, queue)
		visited += len(queue)

		var next []Handle
		for _, h := range queue {
			for _, dep := range dependents[h] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		queue = next
	}

	if visited != count {
		return nil, errors.CycleDetected(visited, count)
	}
	return levels, nil
}

// indegrees counts incoming edges per node.
func indegrees(count int, edges []edge) []int {
	in := make([]int, count)
	for _, e := range edges {
		in[e.To]++
	}
	return in
}
