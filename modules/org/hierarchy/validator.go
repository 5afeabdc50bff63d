package hierarchy

import (
	"context"
	"fmt"
)

// Node is the flat, identifier-keyed view of a hierarchy member. Parent and
// supervisor edges are plain ids, never live references, so cycle checks are
// upward index walks.
type Node struct {
	ID              int64
	ParentID        int64 // 0 = root
	BusinessGroupID int64
	CompanyID       int64
	Active          bool
}

// NodeSource answers point lookups against persisted hierarchy edges. The
// walk must happen inside the same transaction as the edge write it guards;
// see Validator.ValidateEdge.
type NodeSource interface {
	Node(ctx context.Context, id int64) (Node, error)
}

// ChildSource lists the direct children (or subordinates) of a node.
type ChildSource interface {
	Children(ctx context.Context, id int64) ([]int64, error)
}

// NodeLocker is an optional NodeSource extension. NodeForUpdate holds a row
// lock on the returned node until the surrounding transaction ends, so two
// transactions moving nodes under each other serialize instead of each
// validating against the other's pre-write chain.
type NodeLocker interface {
	NodeForUpdate(ctx context.Context, id int64) (Node, error)
}

type CycleError struct {
	ChildID    int64
	ParentID   int64
	DetectedAt int64
}

func (e *CycleError) Error() string {
	if e.ChildID == e.ParentID {
		return fmt.Sprintf("hierarchy: node %d cannot be its own parent", e.ChildID)
	}
	return fmt.Sprintf("hierarchy: assigning parent %d to node %d creates a cycle at %d", e.ParentID, e.ChildID, e.DetectedAt)
}

type TenantMismatchError struct {
	ChildID  int64
	ParentID int64
}

func (e *TenantMismatchError) Error() string {
	return fmt.Sprintf("hierarchy: node %d and parent %d belong to different tenants", e.ChildID, e.ParentID)
}

type DepthExceededError struct {
	Limit int
}

func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("hierarchy: chain exceeds the maximum depth of %d", e.Limit)
}

type InactiveNodeError struct {
	NodeID int64
}

func (e *InactiveNodeError) Error() string {
	return fmt.Sprintf("hierarchy: node %d is inactive and cannot take children", e.NodeID)
}

// Validator checks candidate parent/supervisor edges before they are
// written. It never mutates anything itself; callers apply the edge only
// after a nil verdict, inside the same transaction that performed the walk.
type Validator struct {
	source   NodeSource
	maxDepth int // 0 = unbounded; cycles still terminate the walk
}

type Option func(*Validator)

// WithMaxDepth bounds the resulting chain length in edges from the node to
// its root.
func WithMaxDepth(depth int) Option {
	return func(v *Validator) {
		v.maxDepth = depth
	}
}

func NewValidator(source NodeSource, opts ...Option) *Validator {
	v := &Validator{source: source}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateEdge verifies that making proposedParentID the parent of child
// introduces no cycle, crosses no tenant boundary, targets an active parent,
// and stays within the depth bound. The walk is a single upward traversal
// proportional to chain length. The proposed parent is loaded with a row
// lock when the source supports it: two transactions attaching nodes under
// each other then contend on the first hop, so neither walk can run against
// the other's pre-write chain.
func (v *Validator) ValidateEdge(ctx context.Context, child Node, proposedParentID int64) error {
	if proposedParentID == child.ID {
		return &CycleError{ChildID: child.ID, ParentID: proposedParentID, DetectedAt: child.ID}
	}

	parent, err := v.lockNode(ctx, proposedParentID)
	if err != nil {
		return err
	}
	if !parent.Active {
		return &InactiveNodeError{NodeID: proposedParentID}
	}
	if parent.BusinessGroupID != child.BusinessGroupID ||
		(child.CompanyID != 0 && parent.CompanyID != child.CompanyID) {
		return &TenantMismatchError{ChildID: child.ID, ParentID: proposedParentID}
	}

	visited := map[int64]bool{child.ID: true}
	links := 1 // the candidate edge itself
	current := parent
	for {
		if visited[current.ID] {
			return &CycleError{ChildID: child.ID, ParentID: proposedParentID, DetectedAt: current.ID}
		}
		visited[current.ID] = true

		if v.maxDepth > 0 && links > v.maxDepth {
			return &DepthExceededError{Limit: v.maxDepth}
		}
		if current.ParentID == 0 {
			return nil
		}

		next, err := v.source.Node(ctx, current.ParentID)
		if err != nil {
			return err
		}
		current = next
		links++
	}
}

func (v *Validator) lockNode(ctx context.Context, id int64) (Node, error) {
	if locker, ok := v.source.(NodeLocker); ok {
		return locker.NodeForUpdate(ctx, id)
	}
	return v.source.Node(ctx, id)
}

// AncestorPath returns the nodes from id up to its root, the node itself
// first. The walk is cycle-guarded so corrupt data cannot hang callers.
func (v *Validator) AncestorPath(ctx context.Context, id int64) ([]Node, error) {
	var path []Node
	visited := map[int64]bool{}
	currentID := id
	for currentID != 0 {
		if visited[currentID] {
			return nil, &CycleError{ChildID: id, ParentID: currentID, DetectedAt: currentID}
		}
		visited[currentID] = true

		node, err := v.source.Node(ctx, currentID)
		if err != nil {
			return nil, err
		}
		path = append(path, node)
		currentID = node.ParentID
	}
	return path, nil
}
