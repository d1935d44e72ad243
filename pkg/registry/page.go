package registry

import (
	"sort"

	"github.com/papercomputeco/uidsl/pkg/diagnostic"
	"github.com/papercomputeco/uidsl/pkg/dsl"
)

// ValidateOptions configures ValidatePage.
type ValidateOptions struct {
	// ForbiddenAsError reports forbidden raw elements as errors instead of
	// warnings. Forbidden elements are never blocking either way.
	ForbiddenAsError bool
}

// PageResult is the outcome of ValidatePage.
type PageResult struct {
	Valid       bool                    `json:"valid"`
	Diagnostics []diagnostic.Diagnostic `json:"diagnostics"`
}

// Blocking returns the diagnostics that must stop code generation.
func (r PageResult) Blocking() []diagnostic.Diagnostic {
	return diagnostic.Blocking(r.Diagnostics)
}

// ValidatePage walks tree and checks every node against reg. A nil registry
// limits the checks to the tree structure itself.
func ValidatePage(tree *dsl.Node, reg *Registry, opts ValidateOptions) PageResult {
	var diags []diagnostic.Diagnostic

	if tree == nil {
		diags = append(diags, diagnostic.Errorf(diagnostic.CodeInvalidRoot, "document has no root node"))
		return PageResult{Valid: false, Diagnostics: diags}
	}

	if tree.Type != dsl.KindPage {
		diags = append(diags, diagnostic.Errorf(diagnostic.CodeInvalidRoot,
			"root node has type %q, expected %q", tree.Type, dsl.KindPage).WithNode(tree.ID, dsl.NodePath{}.String()))
	}

	for _, id := range dsl.DuplicateIDs(tree) {
		diags = append(diags, diagnostic.Errorf(diagnostic.CodeDuplicateNodeID, "node id %q is used more than once", id).
			WithNode(id, ""))
	}

	for _, path := range dsl.NullChildren(tree) {
		diags = append(diags, diagnostic.Errorf(diagnostic.CodeNullNode, "children entry is null").
			WithNode("", path.String()))
	}

	dsl.Walk(tree, func(n *dsl.Node, path dsl.NodePath) bool {
		diags = append(diags, validateNode(n, path, reg, opts)...)
		return true
	})

	if diags == nil {
		diags = []diagnostic.Diagnostic{}
	}
	return PageResult{
		Valid:       !diagnostic.HasErrors(diags),
		Diagnostics: diags,
	}
}

func validateNode(n *dsl.Node, path dsl.NodePath, reg *Registry, opts ValidateOptions) []diagnostic.Diagnostic {
	var diags []diagnostic.Diagnostic
	at := path.String()

	if n.Type == dsl.KindComponent && n.Component == "" {
		return append(diags, diagnostic.Errorf(diagnostic.CodeInvalidComponent,
			"component node does not name a component").WithNode(n.ID, at))
	}

	name := n.ComponentName()
	if name == "" || reg == nil {
		return nil
	}

	spec, canonical, ok := reg.Resolve(name)
	if !ok {
		if forbidden, preferred := reg.IsForbidden(name); forbidden {
			msg := "raw element <" + name + "> is not allowed"
			if preferred != "" {
				msg += "; use " + preferred + " instead"
			}
			d := diagnostic.Warnf(diagnostic.CodeForbiddenElement, "%s", msg)
			if opts.ForbiddenAsError {
				d.Level = diagnostic.LevelError
			}
			return append(diags, d.WithNode(n.ID, at))
		}
		return append(diags, diagnostic.Errorf(diagnostic.CodeInvalidComponent,
			"component %q is not in the registry", name).WithNode(n.ID, at))
	}

	for _, prop := range sortedPropNames(spec.Props) {
		ps := spec.Props[prop]
		if !ps.Required || ps.Default != nil {
			continue
		}
		if v, present := n.Props[prop]; !present || v == nil {
			diags = append(diags, diagnostic.Errorf(diagnostic.CodeMissingRequiredProp,
				"%s is missing required prop %q", canonical, prop).WithNode(n.ID, at))
		}
	}

	if variant, ok := n.Props["variant"].(string); ok && len(spec.Variants) > 0 && !hasVariant(spec, variant) {
		diags = append(diags, diagnostic.Warnf(diagnostic.CodeUnknownVariant,
			"%s has no variant %q", canonical, variant).WithNode(n.ID, at))
	}

	if len(spec.Props) > 0 {
		for _, prop := range sortedKeys(n.Props) {
			if _, declared := spec.Props[prop]; declared {
				continue
			}
			if prop == "variant" && len(spec.Variants) > 0 {
				continue
			}
			diags = append(diags, diagnostic.Infof(diagnostic.CodeUnknownProp,
				"%s does not declare prop %q", canonical, prop).WithNode(n.ID, at))
		}
	}

	return diags
}

func hasVariant(spec ComponentSpec, name string) bool {
	for _, v := range spec.Variants {
		if v.Name == name {
			return true
		}
	}
	return false
}

func sortedPropNames(props map[string]PropSpec) []string {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
