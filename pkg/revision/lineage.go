package revision

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Loader loads revisions for a Lineage. storage.Driver implementations
// satisfy it.
type Loader interface {
	// Get retrieves a revision by id.
	Get(ctx context.Context, id string) (*Revision, error)

	// Children returns the revisions whose parent is id.
	Children(ctx context.Context, id string) ([]*Revision, error)

	// Ancestry returns the path from a revision back to its root (revision
	// first, root last).
	Ancestry(ctx context.Context, id string) ([]*Revision, error)
}

// Lineage is an in-memory view of the revision tree around one revision:
// every ancestor up to the root and every descendant down to the leaves.
type Lineage struct {
	// Root is the first revision of the loaded chain.
	Root *LineageNode

	index map[string]*LineageNode
}

// LineageNode wraps a Revision with its loaded relationships.
type LineageNode struct {
	*Revision

	// Parent is nil for the root.
	Parent *LineageNode

	// Children are ordered by creation time.
	Children []*LineageNode
}

// NewLineage returns an empty lineage.
func NewLineage() *Lineage {
	return &Lineage{
		index: make(map[string]*LineageNode),
	}
}

// LoadLineage loads the ancestors and all descendants of id.
func LoadLineage(ctx context.Context, loader Loader, id string) (*Lineage, error) {
	ancestry, err := loader.Ancestry(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting ancestry for %s: %w", id, err)
	}
	if len(ancestry) == 0 {
		return nil, fmt.Errorf("revision %s not found", id)
	}

	l := NewLineage()
	for i := len(ancestry) - 1; i >= 0; i-- {
		if _, err := l.add(ancestry[i]); err != nil {
			return nil, fmt.Errorf("adding ancestor: %w", err)
		}
	}

	start := l.Get(id)
	if start == nil {
		return nil, fmt.Errorf("revision %s not in lineage after adding ancestry", id)
	}

	if err := l.loadDescendants(ctx, loader, start); err != nil {
		return nil, fmt.Errorf("loading descendants: %w", err)
	}
	return l, nil
}

// Get returns the node for id, or nil.
func (l *Lineage) Get(id string) *LineageNode {
	return l.index[id]
}

// Size returns the number of loaded revisions.
func (l *Lineage) Size() int {
	return len(l.index)
}

// Walk traverses depth-first from the root. Traversal stops when fn returns
// false or an error.
func (l *Lineage) Walk(fn func(*LineageNode) (bool, error)) error {
	if l.Root == nil {
		return nil
	}
	_, err := walk(l.Root, fn)
	return err
}

func walk(n *LineageNode, fn func(*LineageNode) (bool, error)) (bool, error) {
	ok, err := fn(n)
	if !ok || err != nil {
		return false, err
	}
	for _, child := range n.Children {
		ok, err := walk(child, fn)
		if !ok || err != nil {
			return false, err
		}
	}
	return true, nil
}

// Ancestors returns the path from id to the root (id first, root last).
func (l *Lineage) Ancestors(id string) []*LineageNode {
	n := l.Get(id)
	if n == nil {
		return nil
	}
	var out []*LineageNode
	for cur := n; cur != nil; cur = cur.Parent {
		out = append(out, cur)
	}
	return out
}

// Descendants returns every revision below id in depth-first order.
func (l *Lineage) Descendants(id string) []*LineageNode {
	n := l.Get(id)
	if n == nil {
		return nil
	}
	out := []*LineageNode{}
	for _, child := range n.Children {
		_, _ = walk(child, func(d *LineageNode) (bool, error) {
			out = append(out, d)
			return true, nil
		})
	}
	return out
}

// Leaves returns revisions without children, in depth-first order.
func (l *Lineage) Leaves() []*LineageNode {
	leaves := []*LineageNode{}
	_ = l.Walk(func(n *LineageNode) (bool, error) {
		if len(n.Children) == 0 {
			leaves = append(leaves, n)
		}
		return true, nil
	})
	return leaves
}

// BranchPoints returns revisions with more than one child.
func (l *Lineage) BranchPoints() []*LineageNode {
	points := []*LineageNode{}
	_ = l.Walk(func(n *LineageNode) (bool, error) {
		if len(n.Children) > 1 {
			points = append(points, n)
		}
		return true, nil
	})
	return points
}

// add links rev under its parent, which must already be loaded unless rev
// is the root. Adding a known revision is a no-op.
func (l *Lineage) add(rev *Revision) (*LineageNode, error) {
	if rev == nil {
		return nil, errors.New("cannot add nil revision to lineage")
	}
	if n, ok := l.index[rev.ID]; ok {
		return n, nil
	}

	n := &LineageNode{Revision: rev, Children: []*LineageNode{}}
	if rev.ParentID == nil {
		if l.Root != nil {
			return nil, errors.New("lineage already has a root")
		}
		l.Root = n
	} else {
		parent, ok := l.index[*rev.ParentID]
		if !ok {
			return nil, fmt.Errorf("parent revision %s not found in lineage", *rev.ParentID)
		}
		n.Parent = parent
		parent.Children = append(parent.Children, n)
	}

	l.index[rev.ID] = n
	return n, nil
}

func (l *Lineage) loadDescendants(ctx context.Context, loader Loader, n *LineageNode) error {
	children, err := loader.Children(ctx, n.ID)
	if err != nil {
		return fmt.Errorf("getting children of %s: %w", n.ID, err)
	}
	SortByCreation(children)

	for _, child := range children {
		if l.Get(child.ID) != nil {
			continue
		}
		cn, err := l.add(child)
		if err != nil {
			return fmt.Errorf("adding child %s: %w", child.ID, err)
		}
		if err := l.loadDescendants(ctx, loader, cn); err != nil {
			return err
		}
	}
	return nil
}

// SortByCreation orders revisions by creation time, then id.
func SortByCreation(revs []*Revision) {
	sort.SliceStable(revs, func(i, j int) bool {
		if !revs[i].CreatedAt.Equal(revs[j].CreatedAt) {
			return revs[i].CreatedAt.Before(revs[j].CreatedAt)
		}
		return revs[i].ID < revs[j].ID
	})
}
