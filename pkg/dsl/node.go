// Package dsl is the UI-DSL tree model: typed nodes, id-addressed lookup and
// path-copy updates that never mutate the input tree.
package dsl

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Built-in structural node kinds. Any other Type value names a registry
// component directly.
const (
	KindPage      = "page"
	KindContainer = "container"
	KindText      = "text"
	KindComponent = "component"
)

// ErrNullChild is returned when a children array holds a null entry.
var ErrNullChild = errors.New("null child node")

// ErrInvalidPath is returned when a NodePath does not address a node.
var ErrInvalidPath = errors.New("invalid node path")

// Node is a single node in a UI-DSL tree.
//
// Nodes are treated as immutable values once they are part of a tree: every
// mutation in this package and in pkg/patch copies the nodes along the
// modified path and shares everything else.
type Node struct {
	// ID is unique within a tree.
	ID string `json:"id"`

	// Type is the discriminating tag: "page", "container", "text",
	// "component", or a registry component name.
	Type string `json:"type"`

	// Component names the registry component for Type "component".
	Component string `json:"component,omitempty"`

	// Props is the component configuration.
	Props map[string]any `json:"props,omitempty"`

	// Layout holds layout and design-token values addressed by setToken.
	Layout map[string]any `json:"layout,omitempty"`

	// Children is ordered. Ignored for leaf components.
	Children []*Node `json:"children,omitempty"`
}

// ComponentName returns the registry component the node refers to, or ""
// for structural kinds.
func (n *Node) ComponentName() string {
	switch n.Type {
	case KindComponent:
		return n.Component
	case KindPage, KindContainer, KindText:
		return ""
	default:
		return n.Type
	}
}

// IsStructural reports whether the node is a built-in kind rather than a
// component reference.
func (n *Node) IsStructural() bool {
	switch n.Type {
	case KindPage, KindContainer, KindText:
		return true
	}
	return false
}

// ShallowCopy returns a copy of n with its own Children slice. Props, Layout
// and the child nodes themselves are shared.
func (n *Node) ShallowCopy() *Node {
	cp := *n
	if n.Children != nil {
		cp.Children = make([]*Node, len(n.Children))
		copy(cp.Children, n.Children)
	}
	return &cp
}

// Prop returns the top-level prop value for key.
func (n *Node) Prop(key string) (any, bool) {
	if n.Props == nil {
		return nil, false
	}
	v, ok := n.Props[key]
	return v, ok
}

// Parse decodes a DSL document.
func Parse(data []byte) (*Node, error) {
	var n Node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("parsing dsl: %w", err)
	}
	if nulls := NullChildren(&n); len(nulls) > 0 {
		return nil, fmt.Errorf("parsing dsl: %w at %s", ErrNullChild, nulls[0])
	}
	return &n, nil
}

// FromValue converts a decoded JSON value (e.g. map[string]any) into a Node.
func FromValue(v any) (*Node, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding dsl value: %w", err)
	}
	return Parse(data)
}

// ToValue converts n into its generic JSON form.
func ToValue(n *Node) (map[string]any, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("encoding dsl: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding dsl value: %w", err)
	}
	return out, nil
}
