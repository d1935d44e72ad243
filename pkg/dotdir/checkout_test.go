package dotdir_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/uidsl/pkg/dotdir"
	"github.com/papercomputeco/uidsl/pkg/dsl"
)

var _ = Describe("dotdir.Manager checkout", func() {
	var tmpDir string
	var m *dotdir.Manager

	tree := func(label string) *dsl.Node {
		return &dsl.Node{ID: "root", Type: dsl.KindPage, Children: []*dsl.Node{
			{ID: "cta", Type: "Button", Props: map[string]any{"label": label}},
		}}
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "dotdir-test-*")
		Expect(err).NotTo(HaveOccurred())
		m = dotdir.NewManager()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("LoadCheckout", func() {
		It("returns nil when no checkout file exists", func() {
			state, err := m.LoadCheckoutState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(BeNil())
		})

		It("loads a valid checkout state", func() {
			data := `{"revisionId":"rev-1","assetId":"asset-1","dsl":{"id":"root","type":"page","children":[{"id":"cta","type":"Button","props":{"label":"Go"}}]}}`
			err := os.WriteFile(filepath.Join(tmpDir, "checkout.json"), []byte(data), 0o644)
			Expect(err).NotTo(HaveOccurred())

			state, err := m.LoadCheckoutState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state).NotTo(BeNil())
			Expect(state.RevisionID).To(Equal("rev-1"))
			Expect(state.AssetID).To(Equal("asset-1"))
			Expect(state.DSL.Children).To(HaveLen(1))
			Expect(state.DSL.Children[0].Props["label"]).To(Equal("Go"))
		})

		It("returns error for invalid JSON", func() {
			err := os.WriteFile(filepath.Join(tmpDir, "checkout.json"), []byte("not json"), 0o644)
			Expect(err).NotTo(HaveOccurred())

			state, err := m.LoadCheckoutState(tmpDir)
			Expect(err).To(HaveOccurred())
			Expect(state).To(BeNil())
		})
	})

	Describe("SaveCheckout", func() {
		It("persists checkout state to disk", func() {
			err := m.SaveCheckout(&dotdir.CheckoutState{RevisionID: "rev-2", AssetID: "asset-1", DSL: tree("Go")}, tmpDir)
			Expect(err).NotTo(HaveOccurred())

			info, err := os.Stat(filepath.Join(tmpDir, "checkout.json"))
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))

			loaded, err := m.LoadCheckoutState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.RevisionID).To(Equal("rev-2"))
		})

		It("returns error for nil state", func() {
			err := m.SaveCheckout(nil, tmpDir)
			Expect(err).To(HaveOccurred())
		})

		It("overwrites existing checkout state", func() {
			Expect(m.SaveCheckout(&dotdir.CheckoutState{RevisionID: "first", DSL: tree("A")}, tmpDir)).To(Succeed())
			Expect(m.SaveCheckout(&dotdir.CheckoutState{RevisionID: "second", DSL: tree("B")}, tmpDir)).To(Succeed())

			loaded, err := m.LoadCheckoutState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.RevisionID).To(Equal("second"))
			Expect(loaded.DSL.Children[0].Props["label"]).To(Equal("B"))
		})
	})

	Describe("ClearCheckout", func() {
		It("removes the checkout file", func() {
			Expect(m.SaveCheckout(&dotdir.CheckoutState{RevisionID: "to-clear"}, tmpDir)).To(Succeed())
			Expect(m.ClearCheckout(tmpDir)).To(Succeed())

			loaded, err := m.LoadCheckoutState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(BeNil())
		})

		It("succeeds when no checkout file exists", func() {
			Expect(m.ClearCheckout(tmpDir)).To(Succeed())
		})
	})

	Describe("round-trip", func() {
		It("saves and loads checkout state correctly", func() {
			state := &dotdir.CheckoutState{
				RevisionID: "rev-3",
				AssetID:    "asset-9",
				SessionID:  "session-1",
				DSL:        tree("Round"),
			}

			Expect(m.SaveCheckout(state, tmpDir)).To(Succeed())

			loaded, err := m.LoadCheckoutState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(dsl.Equal(loaded.DSL, state.DSL)).To(BeTrue())
			Expect(loaded.SessionID).To(Equal("session-1"))
		})
	})
})
