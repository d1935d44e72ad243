package patch

import (
	"github.com/papercomputeco/uidsl/pkg/diagnostic"
	"github.com/papercomputeco/uidsl/pkg/dsl"
)

// Step records one patch of a batch.
type Step struct {
	Patch       Patch                   `json:"patch"`
	Before      *dsl.Node               `json:"before"`
	After       *dsl.Node               `json:"after"`
	Diagnostics []diagnostic.Diagnostic `json:"diagnostics"`
	Inverse     *Patch                  `json:"inversePatch,omitempty"`
}

// Applied reports whether the step applied without a structural error.
func (s Step) Applied() bool {
	return !diagnostic.HasErrors(s.Diagnostics)
}

// Batch is the outcome of ApplyAll.
type Batch struct {
	DSL         *dsl.Node               `json:"dsl"`
	Diagnostics []diagnostic.Diagnostic `json:"diagnostics"`
	Steps       []Step                  `json:"steps"`

	// Inverses undo the successful steps when applied in order: the last
	// step's inverse comes first. Only set when inverses were requested.
	Inverses []Patch `json:"inversePatches,omitempty"`
}

// AppliedCount returns the number of steps that applied.
func (b Batch) AppliedCount() int {
	n := 0
	for _, s := range b.Steps {
		if s.Applied() {
			n++
		}
	}
	return n
}

// ApplyAll applies patches strictly in order, each against the previous
// result. A failing patch leaves the tree as it was for that step only;
// earlier successes are kept, never rolled back.
func (e *Engine) ApplyAll(tree *dsl.Node, patches []Patch, opts ApplyOptions) Batch {
	b := Batch{
		DSL:         tree,
		Diagnostics: []diagnostic.Diagnostic{},
		Steps:       make([]Step, 0, len(patches)),
	}

	for _, p := range patches {
		res := e.Apply(b.DSL, p, opts)
		b.Steps = append(b.Steps, Step{
			Patch:       p,
			Before:      b.DSL,
			After:       res.DSL,
			Diagnostics: res.Diagnostics,
			Inverse:     res.Inverse,
		})
		b.Diagnostics = append(b.Diagnostics, res.Diagnostics...)
		b.DSL = res.DSL
	}

	if opts.GenerateInverse {
		for i := len(b.Steps) - 1; i >= 0; i-- {
			if inv := b.Steps[i].Inverse; inv != nil && b.Steps[i].Applied() {
				b.Inverses = append(b.Inverses, *inv)
			}
		}
	}
	return b
}
