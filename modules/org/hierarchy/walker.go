package hierarchy

import "context"

// Walker enumerates the descendants of a node breadth-first, lazily: each
// Next call performs at most one child lookup. The walk is finite even on
// corrupt data because visited nodes are never re-queued. Reset restarts
// the walk from the root.
type Walker struct {
	children ChildSource
	root     int64
	queue    []int64
	seen     map[int64]bool
	started  bool
}

func NewWalker(children ChildSource, root int64) *Walker {
	w := &Walker{children: children, root: root}
	w.Reset()
	return w
}

func (w *Walker) Reset() {
	w.queue = nil
	w.seen = map[int64]bool{w.root: true}
	w.started = false
}

// Next returns the next descendant id in breadth-first order. The root
// itself is not yielded. ok is false once the subtree is exhausted.
func (w *Walker) Next(ctx context.Context) (id int64, ok bool, err error) {
	if !w.started {
		w.started = true
		if err := w.enqueueChildren(ctx, w.root); err != nil {
			return 0, false, err
		}
	}

	for len(w.queue) > 0 {
		next := w.queue[0]
		w.queue = w.queue[1:]
		if w.seen[next] {
			continue
		}
		w.seen[next] = true
		if err := w.enqueueChildren(ctx, next); err != nil {
			return 0, false, err
		}
		return next, true, nil
	}
	return 0, false, nil
}

func (w *Walker) enqueueChildren(ctx context.Context, id int64) error {
	children, err := w.children.Children(ctx, id)
	if err != nil {
		return err
	}
	w.queue = append(w.queue, children...)
	return nil
}

// CollectDescendants drains a fresh walk into a slice, breadth-first.
func CollectDescendants(ctx context.Context, children ChildSource, root int64) ([]int64, error) {
	w := NewWalker(children, root)
	var out []int64
	for {
		id, ok, err := w.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, id)
	}
}
