// Package storagetest holds the behavior every storage.Driver must share,
// as ginkgo specs that driver test suites register.
package storagetest

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/uidsl/pkg/dsl"
	"github.com/papercomputeco/uidsl/pkg/patch"
	"github.com/papercomputeco/uidsl/pkg/revision"
	"github.com/papercomputeco/uidsl/pkg/storage"
)

var epoch = time.Date(2026, 1, 2, 3, 4, 5, 600, time.UTC)

// Tree returns a small page whose button label is label.
func Tree(label string) *dsl.Node {
	return &dsl.Node{
		ID:   "root",
		Type: dsl.KindPage,
		Children: []*dsl.Node{
			{ID: "btn", Type: "Button", Props: map[string]any{"label": label}},
		},
	}
}

// NewRevision creates a revision of asset under parent, created step
// seconds after a fixed epoch.
func NewRevision(asset string, parent *revision.Revision, step int, label string) *revision.Revision {
	setCopy, err := patch.New("btn", patch.SetCopy{Value: label})
	Expect(err).NotTo(HaveOccurred())

	rev, err := revision.New(revision.Params{
		AssetID:   asset,
		Parent:    parent,
		DSL:       Tree(label),
		Code:      "export default function GeneratedPage() {}\n",
		Patches:   []patch.Patch{setCopy},
		Metadata:  map[string]any{revision.MetaAction: "patch"},
		CreatedAt: epoch.Add(time.Duration(step) * time.Second),
	})
	Expect(err).NotTo(HaveOccurred())
	return rev
}

func ids(revs []*revision.Revision) []string {
	out := make([]string, len(revs))
	for i, r := range revs {
		out[i] = r.ID
	}
	return out
}

func lineageIDs(nodes []*revision.LineageNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

// DescribeDriver registers the shared driver specs. newDriver is called
// before each spec and the driver is closed after it.
func DescribeDriver(newDriver func(ctx context.Context) storage.Driver) {
	var (
		ctx    context.Context
		driver storage.Driver
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = nil
		driver = newDriver(ctx)
	})

	AfterEach(func() {
		if driver != nil {
			Expect(driver.Close()).To(Succeed())
		}
	})

	put := func(revs ...*revision.Revision) {
		for _, r := range revs {
			inserted, err := driver.Put(ctx, r)
			Expect(err).NotTo(HaveOccurred())
			Expect(inserted).To(BeTrue())
		}
	}

	Describe("Put and Get", func() {
		It("round trips every field", func() {
			root := NewRevision("asset-a", nil, 0, "One")
			child := NewRevision("asset-a", root, 1, "Two")
			put(root, child)

			got, err := driver.Get(ctx, child.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(child.ID))
			Expect(got.AssetID).To(Equal("asset-a"))
			Expect(got.Parent()).To(Equal(root.ID))
			Expect(dsl.Equal(got.DSL, child.DSL)).To(BeTrue())
			Expect(got.Code).To(Equal(child.Code))
			Expect(got.Patches).To(HaveLen(1))
			Expect(got.Patches[0].Op).To(Equal(patch.OpSetCopy))
			Expect(got.Patches[0].Args).To(MatchJSON(child.Patches[0].Args))
			Expect(got.Metadata).To(HaveKeyWithValue(revision.MetaAction, "patch"))
			Expect(got.ContentHash).To(Equal(child.ContentHash))
			Expect(got.CreatedAt).To(BeTemporally("==", child.CreatedAt))

			gotRoot, err := driver.Get(ctx, root.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(gotRoot.IsRoot()).To(BeTrue())
		})

		It("treats a repeated id as a no-op", func() {
			rev := NewRevision("asset-a", nil, 0, "One")
			put(rev)

			inserted, err := driver.Put(ctx, rev)
			Expect(err).NotTo(HaveOccurred())
			Expect(inserted).To(BeFalse())
		})

		It("rejects nil revisions", func() {
			_, err := driver.Put(ctx, nil)
			Expect(err).To(HaveOccurred())
		})

		It("returns NotFoundError for unknown ids", func() {
			_, err := driver.Get(ctx, "missing")
			var nf storage.NotFoundError
			Expect(errors.As(err, &nf)).To(BeTrue())
			Expect(nf.ID).To(Equal("missing"))
		})

		It("reports existence", func() {
			rev := NewRevision("asset-a", nil, 0, "One")
			put(rev)

			ok, err := driver.Has(ctx, rev.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			ok, err = driver.Has(ctx, "missing")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})
	})

	Describe("indexes", func() {
		var root, a, b, a1 *revision.Revision

		BeforeEach(func() {
			root = NewRevision("asset-a", nil, 0, "root")
			b = NewRevision("asset-a", root, 2, "b")
			a = NewRevision("asset-a", root, 1, "a")
			a1 = NewRevision("asset-a", a, 3, "a1")
			other := NewRevision("asset-b", nil, 4, "other")
			put(root, b, a, a1, other)
		})

		It("lists children oldest first", func() {
			children, err := driver.Children(ctx, root.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(children)).To(Equal([]string{a.ID, b.ID}))

			none, err := driver.Children(ctx, a1.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(none).To(BeEmpty())
		})

		It("lists revisions per asset", func() {
			revs, err := driver.ListByAsset(ctx, "asset-a")
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(revs)).To(Equal([]string{root.ID, a.ID, b.ID, a1.ID}))
		})

		It("finds the heads of an asset", func() {
			heads, err := driver.Heads(ctx, "asset-a")
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(heads)).To(ConsistOf(b.ID, a1.ID))
		})

		It("walks ancestry and depth", func() {
			path, err := driver.Ancestry(ctx, a1.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(path)).To(Equal([]string{a1.ID, a.ID, root.ID}))

			depth, err := driver.Depth(ctx, a1.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(depth).To(Equal(2))

			_, err = driver.Ancestry(ctx, "missing")
			Expect(err).To(HaveOccurred())
		})

		It("loads a lineage", func() {
			lineage, err := revision.LoadLineage(ctx, driver, a.ID)
			Expect(err).NotTo(HaveOccurred())

			// b is a sibling of a, not an ancestor or descendant.
			Expect(lineage.Size()).To(Equal(3))
			Expect(lineage.Root.ID).To(Equal(root.ID))
			Expect(lineageIDs(lineage.Descendants(a.ID))).To(Equal([]string{a1.ID}))

			full, err := revision.LoadLineage(ctx, driver, root.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(full.Size()).To(Equal(4))
			Expect(lineageIDs(full.BranchPoints())).To(Equal([]string{root.ID}))
			Expect(lineageIDs(full.Leaves())).To(Equal([]string{a1.ID, b.ID}))
		})
	})
}
