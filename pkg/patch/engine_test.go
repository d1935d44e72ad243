package patch_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/uidsl/pkg/diagnostic"
	"github.com/papercomputeco/uidsl/pkg/dsl"
	"github.com/papercomputeco/uidsl/pkg/patch"
	"github.com/papercomputeco/uidsl/pkg/registry"
)

var withInverse = patch.ApplyOptions{GenerateInverse: true}

var _ = Describe("Engine", func() {
	var engine *patch.Engine

	BeforeEach(func() {
		engine = patch.NewEngine(patch.WithIDGenerator(sequentialIDs()))
	})

	// roundTrip applies p and then its inverse, expecting the original tree.
	roundTrip := func(tree *dsl.Node, p patch.Patch) patch.Result {
		before := canonical(tree)
		res := engine.Apply(tree, p, withInverse)
		Expect(res.OK()).To(BeTrue(), "%v", res.Diagnostics)
		Expect(res.Inverse).NotTo(BeNil())
		Expect(canonical(tree)).To(Equal(before))

		undone := engine.Apply(res.DSL, *res.Inverse, patch.ApplyOptions{})
		Expect(undone.OK()).To(BeTrue(), "%v", undone.Diagnostics)
		Expect(dsl.Equal(undone.DSL, tree)).To(BeTrue(), "got %s", canonical(undone.DSL))
		return res
	}

	Describe("the single-button scenario", func() {
		It("updates copy, swaps the variant and removes the node reversibly", func() {
			tree := t0()

			res := engine.Apply(tree, mustPatch("btn1", patch.SetCopy{Value: "Updated Text"}), withInverse)
			Expect(res.Diagnostics).To(BeEmpty())
			Expect(node(res.DSL, "btn1").Props["label"]).To(Equal("Updated Text"))

			res = engine.Apply(res.DSL, mustPatch("btn1", patch.ToggleVariant{Variant: "outline"}), withInverse)
			Expect(res.Diagnostics).To(BeEmpty())
			Expect(node(res.DSL, "btn1").Props["variant"]).To(Equal("outline"))

			beforeRemoval := node(res.DSL, "btn1")
			removed := engine.Apply(res.DSL, mustPatch("btn1", patch.RemoveNode{}), withInverse)
			Expect(removed.Diagnostics).To(BeEmpty())
			Expect(removed.DSL.Children).To(BeEmpty())

			Expect(removed.Inverse.Op).To(Equal(patch.OpAddNode))
			Expect(removed.Inverse.TargetID).To(Equal("root"))
			restored := engine.Apply(removed.DSL, *removed.Inverse, patch.ApplyOptions{})
			Expect(restored.Diagnostics).To(BeEmpty())
			Expect(restored.DSL.Children).To(HaveLen(1))
			Expect(dsl.Equal(restored.DSL.Children[0], beforeRemoval)).To(BeTrue())
		})

		It("applies a sequential batch without errors", func() {
			b := engine.ApplyAll(t0(), []patch.Patch{
				mustPatch("btn1", patch.SetCopy{Value: "A"}),
				mustPatch("btn1", patch.ToggleVariant{Variant: "ghost"}),
				mustPatch("btn1", patch.SetCopy{Value: "B"}),
			}, patch.ApplyOptions{})

			btn := node(b.DSL, "btn1")
			Expect(btn.Props["label"]).To(Equal("B"))
			Expect(btn.Props["variant"]).To(Equal("ghost"))
			Expect(diagnostic.Count(b.Diagnostics, diagnostic.LevelError)).To(BeZero())
			Expect(b.AppliedCount()).To(Equal(3))
		})
	})

	Describe("target resolution", func() {
		It("returns the tree unchanged with one TargetNotFound error", func() {
			tree := sampleTree()
			res := engine.Apply(tree, mustPatch("nonexistent", patch.SetProp{Path: "x", Value: 1}), withInverse)

			Expect(res.DSL).To(BeIdenticalTo(tree))
			Expect(res.Diagnostics).To(HaveLen(1))
			Expect(res.Diagnostics[0].Level).To(Equal(diagnostic.LevelError))
			Expect(res.Diagnostics[0].Code).To(Equal(diagnostic.CodeTargetNotFound))
			Expect(res.Inverse).To(BeNil())
		})

		It("rejects unknown operations", func() {
			tree := sampleTree()
			res := engine.Apply(tree, patch.Patch{TargetID: "cta", Op: "explode"}, withInverse)

			Expect(res.DSL).To(BeIdenticalTo(tree))
			Expect(res.Diagnostics).To(HaveLen(1))
			Expect(res.Diagnostics[0].Code).To(Equal(diagnostic.CodeUnsupportedOperation))
			Expect(res.Inverse).To(BeNil())
		})
	})

	DescribeTable("malformed arguments",
		func(p patch.Patch) {
			tree := sampleTree()
			res := engine.Apply(tree, p, withInverse)
			Expect(res.DSL).To(BeIdenticalTo(tree))
			Expect(res.Diagnostics).To(HaveLen(1))
			Expect(res.Diagnostics[0].Code).To(Equal(diagnostic.CodeInvalidArgs))
			Expect(res.Inverse).To(BeNil())
		},
		Entry("undecodable args", patch.Patch{TargetID: "cta", Op: patch.OpSetProp, Args: json.RawMessage(`"label"`)}),
		Entry("missing path", patch.Patch{TargetID: "cta", Op: patch.OpSetProp, Args: json.RawMessage(`{"value": 1}`)}),
		Entry("path through a scalar", patch.Patch{TargetID: "cta", Op: patch.OpSetProp, Args: json.RawMessage(`{"path": "label.size", "value": 1}`)}),
		Entry("empty path segment", patch.Patch{TargetID: "cta", Op: patch.OpSetToken, Args: json.RawMessage(`{"path": "a..b", "value": 1}`)}),
		Entry("copy without value", patch.Patch{TargetID: "cta", Op: patch.OpSetCopy, Args: json.RawMessage(`{}`)}),
		Entry("variant without name", patch.Patch{TargetID: "cta", Op: patch.OpToggleVariant}),
		Entry("add without node", patch.Patch{TargetID: "header", Op: patch.OpAddNode, Args: json.RawMessage(`{}`)}),
		Entry("add past the end", patch.Patch{TargetID: "header", Op: patch.OpAddNode, Args: json.RawMessage(`{"node": {"type": "Button"}, "index": 5}`)}),
	)

	Describe("setProp", func() {
		It("replaces an existing value and restores it on undo", func() {
			res := roundTrip(sampleTree(), mustPatch("cta", patch.SetProp{Path: "label", Value: "Go"}))
			Expect(node(res.DSL, "cta").Props["label"]).To(Equal("Go"))

			var inv patch.SetProp
			Expect(json.Unmarshal(res.Inverse.Args, &inv)).To(Succeed())
			Expect(inv).To(Equal(patch.SetProp{Path: "label", Value: "Start"}))
		})

		It("removes a key that did not exist on undo", func() {
			res := roundTrip(sampleTree(), mustPatch("cta", patch.SetProp{Path: "disabled", Value: true}))
			Expect(node(res.DSL, "cta").Props["disabled"]).To(BeTrue())

			var inv patch.SetProp
			Expect(json.Unmarshal(res.Inverse.Args, &inv)).To(Succeed())
			Expect(inv).To(Equal(patch.SetProp{Path: "disabled", Unset: true}))
		})

		It("sets nested keys and unsets the shallowest created key on undo", func() {
			res := roundTrip(sampleTree(), mustPatch("title", patch.SetProp{Path: "layout.gap.x", Value: 4}))
			Expect(node(res.DSL, "title").Props["layout"]).To(Equal(map[string]any{"gap": map[string]any{"x": float64(4)}}))

			var inv patch.SetProp
			Expect(json.Unmarshal(res.Inverse.Args, &inv)).To(Succeed())
			Expect(inv).To(Equal(patch.SetProp{Path: "layout", Unset: true}))
		})

		It("extends an existing nested object", func() {
			res := roundTrip(sampleTree(), mustPatch("cta", patch.SetProp{Path: "style.weight", Value: "bold"}))
			Expect(node(res.DSL, "cta").Props["style"]).To(Equal(map[string]any{"color": "blue", "weight": "bold"}))
		})

		It("unsets keys and restores them on undo", func() {
			res := roundTrip(sampleTree(), mustPatch("cta", patch.SetProp{Path: "style.color", Unset: true}))
			Expect(node(res.DSL, "cta").Props["style"]).To(BeEmpty())
		})

		It("treats setting the current value as a no-op", func() {
			tree := sampleTree()
			p := mustPatch("cta", patch.SetProp{Path: "label", Value: "Start"})
			res := engine.Apply(tree, p, withInverse)

			Expect(dsl.Equal(res.DSL, tree)).To(BeTrue())
			Expect(res.Inverse.Op).To(Equal(p.Op))
			Expect(res.Inverse.TargetID).To(Equal(p.TargetID))
			Expect(res.Inverse.Args).To(MatchJSON(p.Args))
		})

		It("shares untouched subtrees with the input", func() {
			tree := sampleTree()
			res := engine.Apply(tree, mustPatch("cta", patch.SetProp{Path: "label", Value: "Go"}), patch.ApplyOptions{})

			Expect(res.DSL).NotTo(BeIdenticalTo(tree))
			Expect(res.DSL.Children[1]).To(BeIdenticalTo(tree.Children[1]))
			Expect(res.DSL.Children[0].Children[0]).To(BeIdenticalTo(tree.Children[0].Children[0]))
			Expect(tree.Children[0].Children[1].Props["label"]).To(Equal("Start"))
		})

		It("omits the inverse unless requested", func() {
			res := engine.Apply(sampleTree(), mustPatch("cta", patch.SetProp{Path: "label", Value: "Go"}), patch.ApplyOptions{})
			Expect(res.Inverse).To(BeNil())
		})
	})

	Describe("setToken", func() {
		It("writes under layout, not props", func() {
			res := roundTrip(sampleTree(), mustPatch("header", patch.SetToken{Path: "gap", Value: "lg"}))
			header := node(res.DSL, "header")
			Expect(header.Layout["gap"]).To(Equal("lg"))
			Expect(header.Props).To(BeNil())
			Expect(res.Inverse.Op).To(Equal(patch.OpSetToken))
		})

		It("creates the layout namespace when absent", func() {
			res := roundTrip(sampleTree(), mustPatch("cta", patch.SetToken{Path: "spacing.top", Value: "sm"}))
			Expect(node(res.DSL, "cta").Layout).To(Equal(map[string]any{"spacing": map[string]any{"top": "sm"}}))
		})
	})

	Describe("setCopy", func() {
		It("uses the registry copy prop", func() {
			reg, _, err := registry.Parse([]byte(`{
				"version": "1.0.0",
				"components": {"Button": {"import": "ui/button", "copyProp": "children"}},
				"aliases": {"Cta": "Button"}
			}`), registry.FormatJSON)
			Expect(err).NotTo(HaveOccurred())
			engine = patch.NewEngine(patch.WithRegistry(reg))

			res := roundTrip(sampleTree(), mustPatch("cta", patch.SetCopy{Value: "Go"}))
			Expect(node(res.DSL, "cta").Props["children"]).To(Equal("Go"))
			Expect(node(res.DSL, "cta").Props["label"]).To(Equal("Start"))
		})

		It("reads the registry from a holder on every call", func() {
			holder := registry.NewHolder(nil)
			engine = patch.NewEngine(patch.WithRegistryHolder(holder))

			res := engine.Apply(sampleTree(), mustPatch("cta", patch.SetCopy{Value: "Go"}), patch.ApplyOptions{})
			Expect(node(res.DSL, "cta").Props["label"]).To(Equal("Go"))

			reg, _, err := registry.Parse([]byte(`{"version": "1.0.0", "components": {"Button": {"import": "b", "copyProp": "text"}}}`), registry.FormatJSON)
			Expect(err).NotTo(HaveOccurred())
			holder.Set(reg)

			res = engine.Apply(sampleTree(), mustPatch("cta", patch.SetCopy{Value: "Go"}), patch.ApplyOptions{})
			Expect(node(res.DSL, "cta").Props["text"]).To(Equal("Go"))
		})

		It("falls back to the default mapping by component name", func() {
			res := roundTrip(sampleTree(), mustPatch("title", patch.SetCopy{Value: "Hello"}))
			Expect(node(res.DSL, "title").Props["text"]).To(Equal("Hello"))
		})

		It("maps text nodes to their text prop", func() {
			res := roundTrip(sampleTree(), mustPatch("note", patch.SetCopy{Value: "Updated"}))
			Expect(node(res.DSL, "note").Props["text"]).To(Equal("Updated"))
		})

		It("falls back to an existing copy-like prop, then label", func() {
			tree := &dsl.Node{ID: "root", Type: dsl.KindPage, Children: []*dsl.Node{
				{ID: "hero", Type: "Hero", Props: map[string]any{"title": "Old"}},
				{ID: "chip", Type: "Chip"},
			}}
			res := roundTrip(tree, mustPatch("hero", patch.SetCopy{Value: "New"}))
			Expect(node(res.DSL, "hero").Props["title"]).To(Equal("New"))

			res = roundTrip(tree, mustPatch("chip", patch.SetCopy{Value: "New"}))
			Expect(node(res.DSL, "chip").Props["label"]).To(Equal("New"))
		})
	})

	Describe("toggleVariant", func() {
		It("inverts to the previous variant", func() {
			res := roundTrip(t0(), mustPatch("btn1", patch.ToggleVariant{Variant: "ghost"}))
			Expect(res.Inverse.Op).To(Equal(patch.OpToggleVariant))
			Expect(res.Inverse.Args).To(MatchJSON(`{"variant": "primary"}`))
		})

		It("inverts to an unset when there was no variant", func() {
			res := roundTrip(sampleTree(), mustPatch("cta", patch.ToggleVariant{Variant: "ghost"}))
			Expect(res.Inverse.Op).To(Equal(patch.OpSetProp))
			Expect(res.Inverse.Args).To(MatchJSON(`{"path": "variant", "unset": true}`))
		})
	})

	Describe("addNode", func() {
		It("appends by default and assigns fresh ids to the whole subtree", func() {
			res := roundTrip(sampleTree(), mustPatch("header", patch.AddNode{Node: &dsl.Node{
				Type: dsl.KindContainer,
				Children: []*dsl.Node{
					{Type: "Button", Props: map[string]any{"label": "One"}},
					{ID: "keep-me", Type: dsl.KindText},
				},
			}}))

			header := node(res.DSL, "header")
			Expect(header.Children).To(HaveLen(3))
			added := header.Children[2]
			Expect(added.ID).To(Equal("container-1"))
			Expect(added.Children[0].ID).To(Equal("Button-2"))
			Expect(added.Children[1].ID).To(Equal("keep-me"))

			Expect(res.Inverse.Op).To(Equal(patch.OpRemoveNode))
			Expect(res.Inverse.TargetID).To(Equal("container-1"))
		})

		It("inserts at the given index", func() {
			res := roundTrip(sampleTree(), mustPatch("header", patch.AddNode{
				Node:  &dsl.Node{ID: "sub", Type: dsl.KindText},
				Index: intPtr(0),
			}))
			Expect(dsl.IDs(node(res.DSL, "header"))).To(Equal([]string{"header", "sub", "title", "cta"}))
		})

		It("does not alias the supplied node", func() {
			supplied := &dsl.Node{Type: "Button"}
			res := engine.Apply(sampleTree(), mustPatch("header", patch.AddNode{Node: supplied}), patch.ApplyOptions{})
			Expect(res.OK()).To(BeTrue())
			Expect(supplied.ID).To(BeEmpty())
		})

		It("rejects ids that collide with the tree", func() {
			tree := sampleTree()
			res := engine.Apply(tree, mustPatch("header", patch.AddNode{Node: &dsl.Node{ID: "note", Type: dsl.KindText}}), withInverse)

			Expect(res.DSL).To(BeIdenticalTo(tree))
			Expect(res.Diagnostics).To(HaveLen(1))
			Expect(res.Diagnostics[0].Code).To(Equal(diagnostic.CodeDuplicateID))
			Expect(res.Inverse).To(BeNil())
		})

		It("rejects ids repeated inside the inserted subtree", func() {
			res := engine.Apply(sampleTree(), mustPatch("header", patch.AddNode{Node: &dsl.Node{
				ID: "a", Type: dsl.KindContainer, Children: []*dsl.Node{{ID: "a", Type: dsl.KindText}},
			}}), patch.ApplyOptions{})
			Expect(diagnostic.HasCode(res.Diagnostics, diagnostic.CodeDuplicateID)).To(BeTrue())
		})

		It("skips generated ids that are already taken", func() {
			ids := []string{"note", "fresh"}
			engine = patch.NewEngine(patch.WithIDGenerator(func(string) string {
				id := ids[0]
				ids = ids[1:]
				return id
			}))
			res := engine.Apply(sampleTree(), mustPatch("root", patch.AddNode{Node: &dsl.Node{Type: dsl.KindText}}), patch.ApplyOptions{})
			Expect(res.DSL.Children[2].ID).To(Equal("fresh"))
		})
	})

	Describe("removeNode", func() {
		It("refuses to remove the root", func() {
			tree := sampleTree()
			res := engine.Apply(tree, mustPatch("root", patch.RemoveNode{}), withInverse)
			Expect(res.DSL).To(BeIdenticalTo(tree))
			Expect(res.Diagnostics).To(HaveLen(1))
			Expect(res.Diagnostics[0].Code).To(Equal(diagnostic.CodeCannotRemoveRoot))
		})

		It("removes a nested node and restores it at its original index", func() {
			res := roundTrip(sampleTree(), mustPatch("title", patch.RemoveNode{}))
			Expect(dsl.IDs(res.DSL)).To(Equal([]string{"root", "header", "cta", "note"}))
			Expect(res.Inverse.TargetID).To(Equal("header"))
			Expect(res.Inverse.Args).To(MatchJSON(`{"node": {"id": "title", "type": "Heading", "props": {"text": "Welcome"}}, "index": 0}`))
		})

		It("removes whole subtrees", func() {
			res := roundTrip(sampleTree(), mustPatch("header", patch.RemoveNode{}))
			Expect(dsl.IDs(res.DSL)).To(Equal([]string{"root", "note"}))
		})
	})

	Describe("ApplyAll", func() {
		It("keeps earlier successes when a later patch fails", func() {
			tree := sampleTree()
			b := engine.ApplyAll(tree, []patch.Patch{
				mustPatch("cta", patch.SetProp{Path: "label", Value: "Go"}),
				mustPatch("ghost", patch.SetProp{Path: "label", Value: "Boo"}),
				mustPatch("note", patch.SetCopy{Value: "Small"}),
			}, withInverse)

			Expect(b.Steps).To(HaveLen(3))
			Expect(b.Steps[1].Applied()).To(BeFalse())
			Expect(b.Steps[1].After).To(BeIdenticalTo(b.Steps[1].Before))
			Expect(b.AppliedCount()).To(Equal(2))
			Expect(b.Diagnostics).To(HaveLen(1))
			Expect(b.Diagnostics[0].Code).To(Equal(diagnostic.CodeTargetNotFound))

			Expect(node(b.DSL, "cta").Props["label"]).To(Equal("Go"))
			Expect(node(b.DSL, "note").Props["text"]).To(Equal("Small"))
			Expect(canonical(tree)).To(Equal(canonical(sampleTree())))
		})

		It("returns inverses that undo the whole batch in order", func() {
			tree := sampleTree()
			b := engine.ApplyAll(tree, []patch.Patch{
				mustPatch("header", patch.AddNode{Node: &dsl.Node{Type: "Button", Props: map[string]any{"label": "New"}}}),
				mustPatch("Button-1", patch.SetCopy{Value: "Renamed"}),
				mustPatch("title", patch.RemoveNode{}),
				mustPatch("header", patch.SetToken{Path: "gap", Value: "xl"}),
			}, withInverse)
			Expect(b.AppliedCount()).To(Equal(4))
			Expect(b.Inverses).To(HaveLen(4))
			Expect(b.Inverses[0].Op).To(Equal(patch.OpSetToken))
			Expect(b.Inverses[3].Op).To(Equal(patch.OpRemoveNode))

			undone := engine.ApplyAll(b.DSL, b.Inverses, patch.ApplyOptions{})
			Expect(undone.Diagnostics).To(BeEmpty())
			Expect(dsl.Equal(undone.DSL, tree)).To(BeTrue())
		})
	})
})

var _ = Describe("Wire form", func() {
	It("decodes each op into its typed operation", func() {
		var patches []patch.Patch
		Expect(json.Unmarshal([]byte(`[
			{"targetId": "a", "op": "setProp", "args": {"path": "x.y", "value": 1}},
			{"targetId": "a", "op": "setCopy", "args": {"value": "hi"}},
			{"targetId": "a", "op": "addNode", "args": {"node": {"type": "Button"}, "index": 2}},
			{"targetId": "a", "op": "removeNode"},
			{"targetId": "a", "op": "toggleVariant", "args": {"variant": "ghost"}},
			{"targetId": "a", "op": "setToken", "args": {"path": "gap", "unset": true}}
		]`), &patches)).To(Succeed())

		ops := make([]patch.Operation, 0, len(patches))
		for _, p := range patches {
			op, err := patch.Decode(p)
			Expect(err).NotTo(HaveOccurred())
			ops = append(ops, op)
		}

		Expect(ops[0]).To(Equal(patch.SetProp{Path: "x.y", Value: float64(1)}))
		Expect(ops[1]).To(Equal(patch.SetCopy{Value: "hi"}))
		Expect(ops[2].(patch.AddNode).Node.Type).To(Equal("Button"))
		Expect(*ops[2].(patch.AddNode).Index).To(Equal(2))
		Expect(ops[3]).To(Equal(patch.RemoveNode{}))
		Expect(ops[4]).To(Equal(patch.ToggleVariant{Variant: "ghost"}))
		Expect(ops[5]).To(Equal(patch.SetToken{Path: "gap", Unset: true}))
	})

	It("encodes removeNode without args", func() {
		p := mustPatch("a", patch.RemoveNode{})
		data, err := json.Marshal(p)
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(MatchJSON(`{"targetId": "a", "op": "removeNode"}`))
	})

	It("reports unknown ops", func() {
		_, err := patch.Decode(patch.Patch{TargetID: "a", Op: "nope"})
		Expect(err).To(MatchError(patch.ErrUnsupportedOperation))
	})
})
