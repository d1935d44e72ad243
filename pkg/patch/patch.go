// Package patch applies addressed, typed mutations to UI-DSL trees. Every
// application returns a new tree and leaves its input untouched, and can
// produce the inverse patch that restores the input exactly.
package patch

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/papercomputeco/uidsl/pkg/dsl"
)

// Op names a patch operation on the wire.
type Op string

const (
	OpSetProp       Op = "setProp"
	OpSetCopy       Op = "setCopy"
	OpAddNode       Op = "addNode"
	OpRemoveNode    Op = "removeNode"
	OpToggleVariant Op = "toggleVariant"
	OpSetToken      Op = "setToken"
)

// ErrUnsupportedOperation is returned by Decode for unknown ops.
var ErrUnsupportedOperation = errors.New("unsupported operation")

// Patch is the wire form of a single mutation request.
type Patch struct {
	TargetID string          `json:"targetId"`
	Op       Op              `json:"op"`
	Args     json.RawMessage `json:"args,omitempty"`
}

func (p Patch) String() string {
	return fmt.Sprintf("%s(%s)", p.Op, p.TargetID)
}

// Operation is the typed form of a patch's op and args. The concrete types
// are SetProp, SetCopy, AddNode, RemoveNode, ToggleVariant and SetToken.
type Operation interface {
	Op() Op
}

// SetProp sets a (possibly nested, dot separated) key under the target's
// props. Unset removes the key instead; inverse patches use it to restore a
// key that did not exist.
type SetProp struct {
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
	Unset bool   `json:"unset,omitempty"`
}

// SetCopy sets the target's text content prop.
type SetCopy struct {
	Value any `json:"value"`
}

// AddNode inserts Node as a child of the target. A nil Index appends.
type AddNode struct {
	Node  *dsl.Node `json:"node"`
	Index *int      `json:"index,omitempty"`
}

// RemoveNode removes the target from its parent.
type RemoveNode struct{}

// ToggleVariant replaces the target's variant prop.
type ToggleVariant struct {
	Variant string `json:"variant"`
}

// SetToken is SetProp addressed under the target's layout namespace.
type SetToken struct {
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
	Unset bool   `json:"unset,omitempty"`
}

func (SetProp) Op() Op       { return OpSetProp }
func (SetCopy) Op() Op       { return OpSetCopy }
func (AddNode) Op() Op       { return OpAddNode }
func (RemoveNode) Op() Op    { return OpRemoveNode }
func (ToggleVariant) Op() Op { return OpToggleVariant }
func (SetToken) Op() Op      { return OpSetToken }

// New encodes a typed operation into a Patch addressed at targetID.
func New(targetID string, op Operation) (Patch, error) {
	p := Patch{TargetID: targetID, Op: op.Op()}
	if _, ok := op.(RemoveNode); ok {
		return p, nil
	}

	args, err := json.Marshal(op)
	if err != nil {
		return Patch{}, fmt.Errorf("encoding %s args: %w", op.Op(), err)
	}
	p.Args = args
	return p, nil
}

// Decode parses the patch args into the typed operation for its op.
func Decode(p Patch) (Operation, error) {
	switch p.Op {
	case OpSetProp:
		return decodeArgs[SetProp](p)
	case OpSetCopy:
		return decodeArgs[SetCopy](p)
	case OpAddNode:
		return decodeArgs[AddNode](p)
	case OpRemoveNode:
		return RemoveNode{}, nil
	case OpToggleVariant:
		return decodeArgs[ToggleVariant](p)
	case OpSetToken:
		return decodeArgs[SetToken](p)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedOperation, p.Op)
	}
}

func decodeArgs[T Operation](p Patch) (Operation, error) {
	var op T
	if len(p.Args) == 0 {
		return op, nil
	}
	if err := json.Unmarshal(p.Args, &op); err != nil {
		return nil, fmt.Errorf("decoding %s args: %w", p.Op, err)
	}
	return op, nil
}
