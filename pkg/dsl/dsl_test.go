package dsl_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/uidsl/pkg/dsl"
)

// testTree builds:
//
//	root (page)
//	├── header (container)
//	│   └── title (Heading)
//	└── btn1 (component Button)
func testTree() *dsl.Node {
	return &dsl.Node{
		ID:   "root",
		Type: dsl.KindPage,
		Children: []*dsl.Node{
			{
				ID:   "header",
				Type: dsl.KindContainer,
				Children: []*dsl.Node{
					{ID: "title", Type: "Heading", Props: map[string]any{"text": "Hello"}},
				},
			},
			{
				ID:        "btn1",
				Type:      dsl.KindComponent,
				Component: "Button",
				Props:     map[string]any{"label": "Go", "variant": "primary"},
			},
		},
	}
}

var _ = Describe("Node", func() {
	It("names the component for component-typed nodes", func() {
		tree := testTree()
		Expect(tree.ComponentName()).To(BeEmpty())
		Expect(tree.Children[1].ComponentName()).To(Equal("Button"))
		Expect(tree.Children[0].Children[0].ComponentName()).To(Equal("Heading"))
	})

	It("round trips through JSON", func() {
		data := []byte(`{"id":"root","type":"page","children":[{"id":"a","type":"component","component":"Button","props":{"label":"x"}}]}`)
		n, err := dsl.Parse(data)
		Expect(err).NotTo(HaveOccurred())
		Expect(n.Children).To(HaveLen(1))
		Expect(n.Children[0].Props["label"]).To(Equal("x"))

		v, err := dsl.ToValue(n)
		Expect(err).NotTo(HaveOccurred())
		back, err := dsl.FromValue(v)
		Expect(err).NotTo(HaveOccurred())
		Expect(dsl.Equal(n, back)).To(BeTrue())
	})

	It("rejects malformed JSON", func() {
		_, err := dsl.Parse([]byte(`{"id":`))
		Expect(err).To(HaveOccurred())
	})

	It("rejects null children with their path", func() {
		_, err := dsl.Parse([]byte(`{"id":"root","type":"page","children":[{"id":"c","type":"container","children":[{"id":"a","type":"text"},null]}]}`))
		Expect(err).To(MatchError(dsl.ErrNullChild))
		Expect(err.Error()).To(ContainSubstring("/0/1"))
	})

	It("lists null children that Walk skips", func() {
		tree := &dsl.Node{ID: "root", Type: dsl.KindPage, Children: []*dsl.Node{
			nil,
			{ID: "c", Type: dsl.KindContainer, Children: []*dsl.Node{{ID: "a", Type: dsl.KindText}, nil}},
		}}
		Expect(dsl.NullChildren(tree)).To(Equal([]dsl.NodePath{{0}, {1, 1}}))
		Expect(dsl.NullChildren(testTree())).To(BeEmpty())
	})
})

var _ = Describe("Tree navigation", func() {
	Describe("FindByID", func() {
		It("returns the child-index path in pre-order", func() {
			path, ok := dsl.FindByID(testTree(), "title")
			Expect(ok).To(BeTrue())
			Expect(path).To(Equal(dsl.NodePath{0, 0}))
		})

		It("returns an empty path for the root", func() {
			path, ok := dsl.FindByID(testTree(), "root")
			Expect(ok).To(BeTrue())
			Expect(path).To(BeEmpty())
		})

		It("reports absent ids", func() {
			_, ok := dsl.FindByID(testTree(), "nope")
			Expect(ok).To(BeFalse())
		})
	})

	Describe("ReplaceAt", func() {
		It("copies only the ancestors along the path", func() {
			tree := testTree()
			replacement := &dsl.Node{ID: "title", Type: "Heading", Props: map[string]any{"text": "Bye"}}

			out, err := dsl.ReplaceAt(tree, dsl.NodePath{0, 0}, replacement)
			Expect(err).NotTo(HaveOccurred())

			Expect(out).NotTo(BeIdenticalTo(tree))
			Expect(out.Children[0]).NotTo(BeIdenticalTo(tree.Children[0]))
			Expect(out.Children[0].Children[0]).To(BeIdenticalTo(replacement))
			// untouched sibling subtree is shared
			Expect(out.Children[1]).To(BeIdenticalTo(tree.Children[1]))
			// input unchanged
			Expect(tree.Children[0].Children[0].Props["text"]).To(Equal("Hello"))
		})

		It("fails on an out of range path", func() {
			_, err := dsl.ReplaceAt(testTree(), dsl.NodePath{5}, &dsl.Node{})
			Expect(err).To(MatchError(dsl.ErrInvalidPath))
		})
	})

	Describe("InsertChild and RemoveAt", func() {
		It("inserts at an index without touching the input", func() {
			tree := testTree()
			out, err := dsl.InsertChild(tree, dsl.NodePath{}, 1, &dsl.Node{ID: "new", Type: dsl.KindText})
			Expect(err).NotTo(HaveOccurred())
			Expect(dsl.IDs(out)).To(Equal([]string{"root", "header", "title", "new", "btn1"}))
			Expect(tree.Children).To(HaveLen(2))
		})

		It("appends with index -1", func() {
			out, err := dsl.InsertChild(testTree(), dsl.NodePath{0}, -1, &dsl.Node{ID: "sub", Type: dsl.KindText})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Children[0].Children[1].ID).To(Equal("sub"))
		})

		It("removes a node and reports its index", func() {
			tree := testTree()
			out, removed, idx, err := dsl.RemoveAt(tree, dsl.NodePath{1})
			Expect(err).NotTo(HaveOccurred())
			Expect(removed.ID).To(Equal("btn1"))
			Expect(idx).To(Equal(1))
			Expect(dsl.IDs(out)).To(Equal([]string{"root", "header", "title"}))
			Expect(tree.Children).To(HaveLen(2))
		})

		It("refuses to remove the root", func() {
			_, _, _, err := dsl.RemoveAt(testTree(), dsl.NodePath{})
			Expect(err).To(MatchError(dsl.ErrInvalidPath))
		})
	})

	It("finds duplicate ids", func() {
		tree := testTree()
		tree.Children[0].Children[0].ID = "btn1"
		Expect(dsl.DuplicateIDs(tree)).To(Equal([]string{"btn1"}))
	})
})

var _ = Describe("Key paths", func() {
	It("sets nested keys with copy on write", func() {
		props := map[string]any{"layout": map[string]any{"gap": 4.0}}
		out, created, err := dsl.SetPath(props, []string{"layout", "gap"}, 8.0)
		Expect(err).NotTo(HaveOccurred())
		Expect(created).To(Equal(-1))
		v, _ := dsl.GetPath(out, []string{"layout", "gap"})
		Expect(v).To(Equal(8.0))
		Expect(props["layout"].(map[string]any)["gap"]).To(Equal(4.0))
	})

	It("reports the shallowest created key", func() {
		_, created, err := dsl.SetPath(nil, []string{"layout", "gap"}, 8.0)
		Expect(err).NotTo(HaveOccurred())
		Expect(created).To(Equal(0))

		_, created, err = dsl.SetPath(map[string]any{"layout": map[string]any{}}, []string{"layout", "gap"}, 8.0)
		Expect(err).NotTo(HaveOccurred())
		Expect(created).To(Equal(1))
	})

	It("refuses to walk through scalars", func() {
		_, _, err := dsl.SetPath(map[string]any{"layout": "grid"}, []string{"layout", "gap"}, 8.0)
		Expect(err).To(MatchError(dsl.ErrInvalidKeyPath))
	})

	It("deletes nested keys without mutating the input", func() {
		props := map[string]any{"a": map[string]any{"b": 1.0, "c": 2.0}}
		out, removed := dsl.DeletePath(props, []string{"a", "b"})
		Expect(removed).To(BeTrue())
		Expect(out["a"]).To(Equal(map[string]any{"c": 2.0}))
		Expect(props["a"]).To(HaveKey("b"))
	})

	It("rejects empty segments", func() {
		_, err := dsl.SplitKeyPath("layout..gap")
		Expect(err).To(MatchError(dsl.ErrInvalidKeyPath))
	})
})

var _ = Describe("Canonical form", func() {
	It("treats nil and empty collections as equal", func() {
		a := &dsl.Node{ID: "x", Type: dsl.KindText}
		b := &dsl.Node{ID: "x", Type: dsl.KindText, Props: map[string]any{}, Children: []*dsl.Node{}}
		Expect(dsl.Equal(a, b)).To(BeTrue())
	})

	It("hashes independently of map ordering", func() {
		a := &dsl.Node{ID: "x", Type: "Button", Props: map[string]any{"a": 1.0, "b": "two"}}
		b := &dsl.Node{ID: "x", Type: "Button", Props: map[string]any{"b": "two", "a": 1}}
		ha, err := dsl.Hash(a)
		Expect(err).NotTo(HaveOccurred())
		hb, err := dsl.Hash(b)
		Expect(err).NotTo(HaveOccurred())
		Expect(ha).To(Equal(hb))
	})

	It("clones deeply", func() {
		tree := testTree()
		cp := dsl.Clone(tree)
		Expect(dsl.Equal(tree, cp)).To(BeTrue())
		cp.Children[1].Props["label"] = "changed"
		Expect(tree.Children[1].Props["label"]).To(Equal("Go"))
	})

	It("generates prefixed ids", func() {
		id := dsl.NewID("Primary Button")
		Expect(id).To(MatchRegexp(`^primary-button-[0-9a-f]{8}$`))
		Expect(dsl.NewID("")).To(HavePrefix("node-"))
	})
})
