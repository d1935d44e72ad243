package codegen_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/uidsl/pkg/codegen"
	"github.com/papercomputeco/uidsl/pkg/diagnostic"
	"github.com/papercomputeco/uidsl/pkg/dsl"
	"github.com/papercomputeco/uidsl/pkg/registry"
)

const expectedTSX = `import { Button } from "@acme/ui/button";
import { Heading } from "@acme/ui/typography";

export default function GeneratedPage() {
  return (
    <main data-node-id="root">
      <Heading data-node-id="h" text="Hi" />
      <div data-node-id="c" style={{"gap":"md"}}>
        <Button data-node-id="b" disabled={false} label="Go" variant="ghost" />
        <p data-node-id="t">
          {"Fine \"print\""}
        </p>
      </div>
    </main>
  );
}
`

var _ = Describe("GenerateCodeFromDSL", func() {
	var reg *registry.Registry

	BeforeEach(func() {
		var err error
		reg, _, err = registry.Parse([]byte(`{
			"version": "1.0.0",
			"components": {
				"Button": {"import": "@acme/ui/button", "props": {"label": {"required": true}, "disabled": {}}, "variants": [{"name": "ghost"}]},
				"Heading": {"import": "@acme/ui/typography"},
				"Text": {"import": "@acme/ui/typography"}
			},
			"aliases": {"Cta": "Button"},
			"rules": {"forbiddenHtml": ["span"]}
		}`), registry.FormatJSON)
		Expect(err).NotTo(HaveOccurred())
	})

	tree := func() *dsl.Node {
		return &dsl.Node{ID: "root", Type: dsl.KindPage, Children: []*dsl.Node{
			{ID: "h", Type: "Heading", Props: map[string]any{"text": "Hi"}},
			{ID: "c", Type: dsl.KindContainer, Layout: map[string]any{"gap": "md"}, Children: []*dsl.Node{
				{ID: "b", Type: "Cta", Props: map[string]any{"variant": "ghost", "label": "Go", "disabled": false}},
				{ID: "t", Type: dsl.KindText, Props: map[string]any{"text": `Fine "print"`}},
			}},
		}}
	}

	It("renders sorted imports and props", func() {
		out, err := codegen.GenerateCodeFromDSL(tree(), reg, codegen.Options{IncludeImports: true})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(expectedTSX))
	})

	It("is byte-identical across calls", func() {
		first, err := codegen.GenerateCodeFromDSL(tree(), reg, codegen.Options{IncludeImports: true})
		Expect(err).NotTo(HaveOccurred())
		for range 20 {
			again, err := codegen.GenerateCodeFromDSL(tree(), reg, codegen.Options{IncludeImports: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(again).To(Equal(first))
		}
	})

	It("omits imports and honours the component name", func() {
		out, err := codegen.GenerateCodeFromDSL(tree(), reg, codegen.Options{ComponentName: "Landing"})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).NotTo(ContainSubstring("import"))
		Expect(out).To(HavePrefix("export default function Landing() {\n"))
	})

	It("rejects invalid component names", func() {
		_, err := codegen.GenerateCodeFromDSL(tree(), reg, codegen.Options{ComponentName: "my page"})
		Expect(err).To(MatchError(ContainSubstring("invalid component name")))
	})

	It("fails loudly on blocking diagnostics", func() {
		broken := tree()
		broken.Children = append(broken.Children,
			&dsl.Node{ID: "x", Type: "Carousel"},
			&dsl.Node{ID: "y", Type: "Button"},
		)

		out, err := codegen.GenerateCodeFromDSL(broken, reg, codegen.Options{})
		Expect(out).To(BeEmpty())

		var blocking *codegen.BlockingError
		Expect(errors.As(err, &blocking)).To(BeTrue())
		Expect(blocking.Diagnostics).To(HaveLen(2))
		Expect(diagnostic.HasCode(blocking.Diagnostics, diagnostic.CodeInvalidComponent)).To(BeTrue())
		Expect(diagnostic.HasCode(blocking.Diagnostics, diagnostic.CodeMissingRequiredProp)).To(BeTrue())
	})

	It("proceeds past advisory diagnostics", func() {
		t := tree()
		t.Children = append(t.Children, &dsl.Node{ID: "raw", Type: "span", Props: map[string]any{"children": "raw"}})

		out, err := codegen.GenerateCodeFromDSL(t, reg, codegen.Options{Validation: registry.ValidateOptions{ForbiddenAsError: true}})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("<span data-node-id=\"raw\">\n        {\"raw\"}\n      </span>"))
	})

	It("quotes awkward values as expressions", func() {
		t := &dsl.Node{ID: "root", Type: dsl.KindPage, Children: []*dsl.Node{
			{ID: "b", Type: "Button", Props: map[string]any{
				"label":      "a {b}",
				"count":      3,
				"aria-label": "Close",
				"items":      []any{"x", map[string]any{"b": 1, "a": 2}},
			}},
		}}
		out, err := codegen.GenerateCodeFromDSL(t, reg, codegen.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring(`<Button data-node-id="b" count={3} items={["x",{"a":2,"b":1}]} label={"a {b}"} {...{"aria-label":"Close"}} />`))
	})

	It("renders without a registry", func() {
		out, err := codegen.GenerateCodeFromDSL(tree(), nil, codegen.Options{IncludeImports: true})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HavePrefix("export default function"))
		Expect(out).To(ContainSubstring("<Cta data-node-id=\"b\""))
	})

	It("returns an error for a null child instead of rendering it", func() {
		t := tree()
		t.Children[1].Children = append(t.Children[1].Children, nil)

		out, err := codegen.GenerateCodeFromDSL(t, reg, codegen.Options{})
		Expect(err).To(MatchError(codegen.ErrNullChild))
		Expect(err.Error()).To(ContainSubstring(`child 2 of "c"`))
		Expect(out).To(BeEmpty())
	})

	It("rejects a nil tree", func() {
		_, err := codegen.GenerateCodeFromDSL(nil, reg, codegen.Options{})
		Expect(err).To(MatchError(codegen.ErrNilTree))
	})

	It("adapts functions to the Generator interface", func() {
		var g codegen.Generator = codegen.GeneratorFunc(func(*dsl.Node, *registry.Registry, codegen.Options) (string, error) {
			return "stub", nil
		})
		out, err := g.Generate(tree(), reg, codegen.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("stub"))
	})
})
