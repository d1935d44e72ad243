package dsl

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gowebpki/jcs"
)

// Canonical returns the RFC 8785 canonical JSON encoding of n.
// Empty props, layout and children are omitted, so nil and empty values
// canonicalize identically.
func Canonical(n *Node) ([]byte, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("marshaling node: %w", err)
	}

	out, err := jcs.Transform(data)
	if err != nil {
		return nil, fmt.Errorf("canonicalizing node: %w", err)
	}
	return out, nil
}

// CanonicalValue returns the RFC 8785 encoding of an arbitrary JSON value.
func CanonicalValue(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling value: %w", err)
	}
	return jcs.Transform(data)
}

// Hash is the hex SHA-256 of the canonical encoding of n.
func Hash(n *Node) (string, error) {
	c, err := Canonical(n)
	if err != nil {
		return "", err
	}
	h := sha256.Sum256(c)
	return hex.EncodeToString(h[:]), nil
}

// Equal reports whether a and b are structurally identical trees.
func Equal(a, b *Node) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	ca, err := Canonical(a)
	if err != nil {
		return false
	}
	cb, err := Canonical(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ca, cb)
}

// ValueEqual reports whether two JSON values are identical after
// canonicalization, so 1 and 1.0 compare equal.
func ValueEqual(a, b any) bool {
	ca, err := CanonicalValue(a)
	if err != nil {
		return false
	}
	cb, err := CanonicalValue(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ca, cb)
}

// Clone returns a deep copy of n.
func Clone(n *Node) *Node {
	if n == nil {
		return nil
	}
	cp := &Node{
		ID:        n.ID,
		Type:      n.Type,
		Component: n.Component,
		Props:     cloneMap(n.Props),
		Layout:    cloneMap(n.Layout),
	}
	if n.Children != nil {
		cp.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			cp.Children[i] = Clone(c)
		}
	}
	return cp
}

// CloneValue deep copies a JSON value.
func CloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = CloneValue(e)
		}
		return out
	default:
		return v
	}
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CloneValue(v)
	}
	return out
}

// NewID returns a fresh node id prefixed with a slug of kind,
// e.g. "button-3f2a9c1d".
func NewID(kind string) string {
	prefix := strings.ToLower(strings.TrimSpace(kind))
	prefix = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, prefix)
	prefix = strings.Trim(prefix, "-")
	if prefix == "" {
		prefix = "node"
	}

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return prefix + "-" + suffix
}
