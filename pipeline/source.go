package pipeline

import "context"

// Iterator provides pull-based sequential access to a stream of values.
type Iterator[T any] interface {
	// Next returns the next value. Returns (zero, false, nil) when exhausted.
	Next(ctx context.Context) (T, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// FromSlice returns an iterator over items.
func FromSlice[T any](items []T) Iterator[T] {
	return &sliceIter[T]{items: items}
}

// Filter returns an iterator yielding only the values of it accepted by keep.
func Filter[T any](it Iterator[T], keep func(T) bool) Iterator[T] {
	return &filterIter[T]{src: it, keep: keep}
}

// Feed pulls every value from it and pushes it into the node behind h.
// It closes the iterator but not the node's input; call Graph.Stop for that.
// Returns the number of values pushed.
func Feed[T any](ctx context.Context, g *Graph, h Handle, it Iterator[T]) (int, error) {
	defer it.Close()

	n := 0
	for {
		val, ok, err := it.Next(ctx)
		if err != nil {
			return n, err
		}
		if !ok {
			return n, nil
		}
		if err := g.Push(ctx, h, val); err != nil {
			return n, err
		}
		n++
	}
}

type sliceIter[T any] struct {
	items []T
	pos   int
}

func (it *sliceIter[T]) Next(_ context.Context) (T, bool, error) {
	if it.pos >= len(it.items) {
		var zero T
		return zero, false, nil
	}
	v := it.items[it.pos]
	it.pos++
	return v, true, nil
}

func (it *sliceIter[T]) Close() error { return nil }

type filterIter[T any] struct {
	src  Iterator[T]
	keep func(T) bool
}

func (it *filterIter[T]) Next(ctx context.Context) (T, bool, error) {
	for {
		v, ok, err := it.src.Next(ctx)
		if err != nil || !ok {
			return v, ok, err
		}
		if it.keep(v) {
			return v, true, nil
		}
	}
}

func (it *filterIter[T]) Close() error { return it.src.Close() }
