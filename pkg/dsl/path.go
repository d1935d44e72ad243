package dsl

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// NodePath is the sequence of child indices from the root to a node.
// The root itself has an empty path.
type NodePath []int

func (p NodePath) String() string {
	if len(p) == 0 {
		return "/"
	}
	parts := make([]string, len(p))
	for i, idx := range p {
		parts[i] = strconv.Itoa(idx)
	}
	return "/" + strings.Join(parts, "/")
}

// Parent returns the path of the parent node and the child index within it.
// ok is false for the root path.
func (p NodePath) Parent() (parent NodePath, index int, ok bool) {
	if len(p) == 0 {
		return nil, 0, false
	}
	return p[:len(p)-1], p[len(p)-1], true
}

// Walk visits the tree depth-first in pre-order. Returning false from fn
// stops the traversal. The path handed to fn is only valid during the call.
func Walk(tree *Node, fn func(n *Node, path NodePath) bool) {
	if tree == nil {
		return
	}
	walk(tree, make(NodePath, 0, 8), fn)
}

func walk(n *Node, path NodePath, fn func(*Node, NodePath) bool) bool {
	if !fn(n, path) {
		return false
	}
	for i, child := range n.Children {
		if child == nil {
			continue
		}
		if !walk(child, append(path, i), fn) {
			return false
		}
	}
	return true
}

// FindByID returns the path to the first node with the given id in
// depth-first pre-order.
func FindByID(tree *Node, id string) (NodePath, bool) {
	var found NodePath
	ok := false
	Walk(tree, func(n *Node, path NodePath) bool {
		if n.ID == id {
			found = append(NodePath{}, path...)
			ok = true
			return false
		}
		return true
	})
	return found, ok
}

// At returns the node addressed by path.
func At(tree *Node, path NodePath) (*Node, error) {
	cur := tree
	for depth, idx := range path {
		if cur == nil || idx < 0 || idx >= len(cur.Children) {
			return nil, fmt.Errorf("%w: %s at depth %d", ErrInvalidPath, path, depth)
		}
		cur = cur.Children[idx]
	}
	if cur == nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}
	return cur, nil
}

// ReplaceAt returns a new tree with the node at path replaced. Every ancestor
// along path is shallow-copied; all other subtrees are shared with tree.
func ReplaceAt(tree *Node, path NodePath, replacement *Node) (*Node, error) {
	if len(path) == 0 {
		return replacement, nil
	}
	if tree == nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}

	idx := path[0]
	if idx < 0 || idx >= len(tree.Children) {
		return nil, fmt.Errorf("%w: index %d out of range", ErrInvalidPath, idx)
	}

	child, err := ReplaceAt(tree.Children[idx], path[1:], replacement)
	if err != nil {
		return nil, err
	}

	cp := tree.ShallowCopy()
	cp.Children[idx] = child
	return cp, nil
}

// UpdateAt applies fn to a shallow copy of the node at path and splices the
// result back in with ReplaceAt.
func UpdateAt(tree *Node, path NodePath, fn func(n *Node) *Node) (*Node, error) {
	target, err := At(tree, path)
	if err != nil {
		return nil, err
	}
	return ReplaceAt(tree, path, fn(target.ShallowCopy()))
}

// InsertChild returns a new tree with child inserted into the children of the
// node at parentPath. index == -1 appends.
func InsertChild(tree *Node, parentPath NodePath, index int, child *Node) (*Node, error) {
	parent, err := At(tree, parentPath)
	if err != nil {
		return nil, err
	}
	if index == -1 {
		index = len(parent.Children)
	}
	if index < 0 || index > len(parent.Children) {
		return nil, fmt.Errorf("%w: insert index %d out of range [0,%d]", ErrInvalidPath, index, len(parent.Children))
	}

	cp := *parent
	cp.Children = make([]*Node, 0, len(parent.Children)+1)
	cp.Children = append(cp.Children, parent.Children[:index]...)
	cp.Children = append(cp.Children, child)
	cp.Children = append(cp.Children, parent.Children[index:]...)

	return ReplaceAt(tree, parentPath, &cp)
}

// RemoveAt returns a new tree without the node at path, along with the
// removed node and its former index. The root cannot be removed.
func RemoveAt(tree *Node, path NodePath) (*Node, *Node, int, error) {
	parentPath, index, ok := path.Parent()
	if !ok {
		return nil, nil, 0, fmt.Errorf("%w: cannot remove root", ErrInvalidPath)
	}

	parent, err := At(tree, parentPath)
	if err != nil {
		return nil, nil, 0, err
	}
	if index < 0 || index >= len(parent.Children) {
		return nil, nil, 0, fmt.Errorf("%w: index %d out of range", ErrInvalidPath, index)
	}
	removed := parent.Children[index]

	cp := *parent
	cp.Children = nil
	if len(parent.Children) > 1 {
		cp.Children = make([]*Node, 0, len(parent.Children)-1)
		cp.Children = append(cp.Children, parent.Children[:index]...)
		cp.Children = append(cp.Children, parent.Children[index+1:]...)
	}

	out, err := ReplaceAt(tree, parentPath, &cp)
	if err != nil {
		return nil, nil, 0, err
	}
	return out, removed, index, nil
}

// IDs returns every node id in pre-order.
func IDs(tree *Node) []string {
	var ids []string
	Walk(tree, func(n *Node, _ NodePath) bool {
		ids = append(ids, n.ID)
		return true
	})
	return ids
}

// IDSet returns the set of node ids in tree.
func IDSet(tree *Node) map[string]struct{} {
	set := make(map[string]struct{})
	Walk(tree, func(n *Node, _ NodePath) bool {
		set[n.ID] = struct{}{}
		return true
	})
	return set
}

// DuplicateIDs returns ids that occur more than once, in first-seen order.
func DuplicateIDs(tree *Node) []string {
	seen := make(map[string]int)
	var dups []string
	Walk(tree, func(n *Node, _ NodePath) bool {
		seen[n.ID]++
		if seen[n.ID] == 2 {
			dups = append(dups, n.ID)
		}
		return true
	})
	return dups
}

// NullChildren returns the paths of nil entries in children arrays, in
// depth-first pre-order. Walk skips such entries.
func NullChildren(tree *Node) []NodePath {
	var paths []NodePath
	Walk(tree, func(n *Node, path NodePath) bool {
		for i, child := range n.Children {
			if child == nil {
				paths = append(paths, append(slices.Clone(path), i))
			}
		}
		return true
	})
	return paths
}
