package patch

import (
	"errors"
	"strings"

	"github.com/papercomputeco/uidsl/pkg/diagnostic"
	"github.com/papercomputeco/uidsl/pkg/dsl"
	"github.com/papercomputeco/uidsl/pkg/registry"
)

// ApplyOptions configures a single application.
type ApplyOptions struct {
	// GenerateInverse requests the patch that undoes this one.
	GenerateInverse bool
}

// Result is the outcome of applying one patch.
type Result struct {
	DSL         *dsl.Node               `json:"dsl"`
	Diagnostics []diagnostic.Diagnostic `json:"diagnostics"`
	Inverse     *Patch                  `json:"inversePatch,omitempty"`
}

// OK reports whether the patch applied without a structural error.
func (r Result) OK() bool {
	return !diagnostic.HasErrors(r.Diagnostics)
}

// Engine applies patches. The zero value is not usable; use NewEngine.
type Engine struct {
	registry func() *registry.Registry
	newID    func(kind string) string
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry makes setCopy resolve copy props through reg.
func WithRegistry(reg *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = func() *registry.Registry { return reg }
	}
}

// WithRegistryHolder makes the engine read the current registry from h on
// every application, so hot reloads are picked up.
func WithRegistryHolder(h *registry.Holder) Option {
	return func(e *Engine) {
		e.registry = h.Get
	}
}

// WithIDGenerator overrides how fresh node ids are minted.
func WithIDGenerator(fn func(kind string) string) Option {
	return func(e *Engine) {
		e.newID = fn
	}
}

// NewEngine creates an Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		registry: func() *registry.Registry { return nil },
		newID:    dsl.NewID,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply applies p to tree. Structural problems are reported as error
// diagnostics with tree returned unchanged; Apply never returns a Go error
// and never mutates tree. Page validation is not run here.
func (e *Engine) Apply(tree *dsl.Node, p Patch, opts ApplyOptions) Result {
	path, found := dsl.FindByID(tree, p.TargetID)
	if !found {
		return failed(tree, diagnostic.Errorf(diagnostic.CodeTargetNotFound,
			"no node with id %q", p.TargetID).WithNode(p.TargetID, ""))
	}

	op, err := Decode(p)
	if err != nil {
		code := diagnostic.CodeInvalidArgs
		if errors.Is(err, ErrUnsupportedOperation) {
			code = diagnostic.CodeUnsupportedOperation
		}
		return failed(tree, diagnostic.Errorf(code, "%s", err).WithNode(p.TargetID, path.String()))
	}

	target, err := dsl.At(tree, path)
	if err != nil {
		return failed(tree, diagnostic.Errorf(diagnostic.CodeTargetNotFound, "%s", err).WithNode(p.TargetID, path.String()))
	}

	s := &step{
		engine: e,
		tree:   tree,
		path:   path,
		target: target,
	}

	switch o := op.(type) {
	case SetProp:
		s.setProp(o)
	case SetCopy:
		s.setCopy(o)
	case ToggleVariant:
		s.toggleVariant(o)
	case AddNode:
		s.addNode(o)
	case RemoveNode:
		s.removeNode()
	case SetToken:
		s.setToken(o)
	}

	if s.diag != nil {
		return failed(tree, s.diag.WithNode(p.TargetID, path.String()))
	}

	res := Result{DSL: s.out, Diagnostics: []diagnostic.Diagnostic{}}
	if opts.GenerateInverse && s.inverseOp != nil {
		inv, err := New(s.inverseTarget, s.inverseOp)
		if err != nil {
			res.Diagnostics = append(res.Diagnostics, diagnostic.Warnf(diagnostic.CodeInvalidArgs,
				"inverse patch could not be encoded: %s", err).WithNode(p.TargetID, path.String()))
		} else {
			res.Inverse = &inv
		}
	}
	return res
}

func failed(tree *dsl.Node, d diagnostic.Diagnostic) Result {
	return Result{DSL: tree, Diagnostics: []diagnostic.Diagnostic{d}}
}

// step carries the state of one application.
type step struct {
	engine *Engine
	tree   *dsl.Node
	path   dsl.NodePath
	target *dsl.Node

	out           *dsl.Node
	diag          *diagnostic.Diagnostic
	inverseTarget string
	inverseOp     Operation
}

func (s *step) fail(code, format string, args ...any) {
	d := diagnostic.Errorf(code, format, args...)
	s.diag = &d
}

func (s *step) replace(n *dsl.Node) {
	out, err := dsl.ReplaceAt(s.tree, s.path, n)
	if err != nil {
		s.fail(diagnostic.CodeTargetNotFound, "%s", err)
		return
	}
	s.out = out
}

// namespace selects the map a keyed update writes to.
type namespace int

const (
	nsProps namespace = iota
	nsLayout
)

// setKey sets or unsets a nested key and records the inverse as a
// SetProp or SetToken that restores the previous value, or removes the
// shallowest key the update created.
func (s *step) setKey(ns namespace, keyPath string, value any, unset bool) {
	keys, err := dsl.SplitKeyPath(keyPath)
	if err != nil {
		s.fail(diagnostic.CodeInvalidArgs, "%s", err)
		return
	}

	src := s.target.Props
	if ns == nsLayout {
		src = s.target.Layout
	}
	prev, had := dsl.GetPath(src, keys)

	var updated map[string]any
	var inverse keyUpdate

	if unset {
		var removed bool
		updated, removed = dsl.DeletePath(src, keys)
		if removed {
			inverse = keyUpdate{path: keyPath, value: prev}
		} else {
			inverse = keyUpdate{path: keyPath, unset: true}
		}
	} else {
		var created int
		updated, created, err = dsl.SetPath(src, keys, value)
		if err != nil {
			s.fail(diagnostic.CodeInvalidArgs, "%s", err)
			return
		}
		if had {
			inverse = keyUpdate{path: keyPath, value: prev}
		} else {
			inverse = keyUpdate{path: strings.Join(keys[:created+1], "."), unset: true}
		}
	}

	cp := s.target.ShallowCopy()
	if ns == nsLayout {
		cp.Layout = updated
		s.inverseOp = SetToken{Path: inverse.path, Value: inverse.value, Unset: inverse.unset}
	} else {
		cp.Props = updated
		s.inverseOp = SetProp{Path: inverse.path, Value: inverse.value, Unset: inverse.unset}
	}
	s.inverseTarget = s.target.ID
	s.replace(cp)
}

type keyUpdate struct {
	path  string
	value any
	unset bool
}

func (s *step) setProp(o SetProp) {
	s.setKey(nsProps, o.Path, o.Value, o.Unset)
}

func (s *step) setToken(o SetToken) {
	s.setKey(nsLayout, o.Path, o.Value, o.Unset)
}

func (s *step) setCopy(o SetCopy) {
	if o.Value == nil {
		s.fail(diagnostic.CodeInvalidArgs, "setCopy requires a value")
		return
	}
	s.setKey(nsProps, s.engine.copyProp(s.target), o.Value, false)
}

func (s *step) toggleVariant(o ToggleVariant) {
	if o.Variant == "" {
		s.fail(diagnostic.CodeInvalidArgs, "toggleVariant requires a variant")
		return
	}

	prev, had := s.target.Props["variant"]
	s.setKey(nsProps, "variant", o.Variant, false)
	if s.diag != nil {
		return
	}

	if prevVariant, ok := prev.(string); had && ok && prevVariant != "" {
		s.inverseOp = ToggleVariant{Variant: prevVariant}
	}
}

func (s *step) addNode(o AddNode) {
	if o.Node == nil {
		s.fail(diagnostic.CodeInvalidArgs, "addNode requires a node")
		return
	}

	index := -1
	if o.Index != nil {
		index = *o.Index
		if index < 0 || index > len(s.target.Children) {
			s.fail(diagnostic.CodeInvalidArgs, "index %d out of range [0,%d]", index, len(s.target.Children))
			return
		}
	}

	child := dsl.Clone(o.Node)
	existing := dsl.IDSet(s.tree)

	// Supplied ids must not collide with the tree or with each other.
	supplied := make(map[string]struct{})
	var collision string
	dsl.Walk(child, func(n *dsl.Node, _ dsl.NodePath) bool {
		if n.ID == "" {
			return true
		}
		_, inTree := existing[n.ID]
		_, repeated := supplied[n.ID]
		if inTree || repeated {
			collision = n.ID
			return false
		}
		supplied[n.ID] = struct{}{}
		return true
	})
	if collision != "" {
		s.fail(diagnostic.CodeDuplicateID, "node id %q already exists", collision)
		return
	}

	dsl.Walk(child, func(n *dsl.Node, _ dsl.NodePath) bool {
		if n.ID != "" {
			return true
		}
		n.ID = s.engine.freshID(n, existing, supplied)
		supplied[n.ID] = struct{}{}
		return true
	})

	out, err := dsl.InsertChild(s.tree, s.path, index, child)
	if err != nil {
		s.fail(diagnostic.CodeInvalidArgs, "%s", err)
		return
	}
	s.out = out
	s.inverseTarget = child.ID
	s.inverseOp = RemoveNode{}
}

func (s *step) removeNode() {
	parentPath, _, ok := s.path.Parent()
	if !ok {
		s.fail(diagnostic.CodeCannotRemoveRoot, "the root node cannot be removed")
		return
	}
	parent, err := dsl.At(s.tree, parentPath)
	if err != nil {
		s.fail(diagnostic.CodeTargetNotFound, "%s", err)
		return
	}

	out, removed, index, err := dsl.RemoveAt(s.tree, s.path)
	if err != nil {
		s.fail(diagnostic.CodeInvalidArgs, "%s", err)
		return
	}
	s.out = out
	s.inverseTarget = parent.ID
	s.inverseOp = AddNode{Node: removed, Index: &index}
}

// freshID mints an id that collides with neither the tree nor ids already
// handed out for the inserted subtree.
func (e *Engine) freshID(n *dsl.Node, existing, taken map[string]struct{}) string {
	kind := n.ComponentName()
	if kind == "" {
		kind = n.Type
	}
	for {
		id := e.newID(kind)
		_, inTree := existing[id]
		_, used := taken[id]
		if !inTree && !used && id != "" {
			return id
		}
	}
}
