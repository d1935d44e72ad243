package dsl

import (
	"errors"
	"fmt"
	"maps"
	"strings"
)

// ErrInvalidKeyPath is returned for malformed dotted key paths, or when a
// path walks through a value that is not an object.
var ErrInvalidKeyPath = errors.New("invalid key path")

// SplitKeyPath splits a dotted key path such as "layout.gap".
func SplitKeyPath(p string) ([]string, error) {
	if p == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidKeyPath)
	}
	keys := strings.Split(p, ".")
	for _, k := range keys {
		if k == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", ErrInvalidKeyPath, p)
		}
	}
	return keys, nil
}

// GetPath looks up a nested key.
func GetPath(m map[string]any, keys []string) (any, bool) {
	var cur any = m
	for _, k := range keys {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[k]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// SetPath returns a copy of m with the nested key set to value, creating
// intermediate objects as needed. Every map along the key path is copied; m
// itself is never written.
//
// firstCreated is the index of the shallowest key that did not exist before
// the call, or -1 when the full path already existed.
func SetPath(m map[string]any, keys []string, value any) (out map[string]any, firstCreated int, err error) {
	if len(keys) == 0 {
		return nil, -1, fmt.Errorf("%w: empty path", ErrInvalidKeyPath)
	}

	out = maps.Clone(m)
	if out == nil {
		out = make(map[string]any)
	}

	head := keys[0]
	existing, exists := out[head]

	if len(keys) == 1 {
		out[head] = value
		if exists {
			return out, -1, nil
		}
		return out, 0, nil
	}

	var child map[string]any
	if exists {
		obj, ok := existing.(map[string]any)
		if !ok {
			return nil, -1, fmt.Errorf("%w: %q is not an object", ErrInvalidKeyPath, head)
		}
		child = obj
	}

	sub, created, err := SetPath(child, keys[1:], value)
	if err != nil {
		return nil, -1, err
	}
	out[head] = sub

	switch {
	case !exists:
		return out, 0, nil
	case created >= 0:
		return out, created + 1, nil
	default:
		return out, -1, nil
	}
}

// DeletePath returns a copy of m without the nested key. removed is false
// when the key was not present, in which case m is returned unchanged.
func DeletePath(m map[string]any, keys []string) (out map[string]any, removed bool) {
	if len(keys) == 0 || m == nil {
		return m, false
	}

	head := keys[0]
	existing, ok := m[head]
	if !ok {
		return m, false
	}

	if len(keys) == 1 {
		out = maps.Clone(m)
		delete(out, head)
		return out, true
	}

	child, isObj := existing.(map[string]any)
	if !isObj {
		return m, false
	}
	sub, removed := DeletePath(child, keys[1:])
	if !removed {
		return m, false
	}

	out = maps.Clone(m)
	out[head] = sub
	return out, true
}
