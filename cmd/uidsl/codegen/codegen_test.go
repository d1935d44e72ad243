package codegencmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	codegencmder "github.com/papercomputeco/uidsl/cmd/uidsl/codegen"
	"github.com/papercomputeco/uidsl/pkg/codegen"
	"github.com/papercomputeco/uidsl/pkg/diagnostic"
)

const registryJSON = `{
  "version": "1.0.0",
  "components": {
    "Button": {
      "import": "@acme/ui/button",
      "props": {"label": {"type": "string", "required": true}}
    }
  }
}`

var _ = Describe("Codegen command execution", func() {
	var (
		tmpDir  string
		origDir string
		out     *bytes.Buffer
		errOut  *bytes.Buffer
	)

	run := func(args ...string) error {
		cmd := codegencmder.NewCodegenCmd()
		cmd.SilenceErrors = true
		cmd.SilenceUsage = true
		cmd.SetOut(out)
		cmd.SetErr(errOut)
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	write := func(name, content string) {
		Expect(os.WriteFile(filepath.Join(tmpDir, name), []byte(content), 0o644)).To(Succeed())
	}

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		out = &bytes.Buffer{}
		errOut = &bytes.Buffer{}

		var err error
		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.MkdirAll(filepath.Join(tmpDir, ".uidsl"), 0o755)).To(Succeed())
		Expect(os.Chdir(tmpDir)).To(Succeed())

		write("registry.json", registryJSON)
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
	})

	It("prints generated code", func() {
		write("page.json", `{"id":"root","type":"page","children":[{"id":"b","type":"Button","props":{"label":"Go"}}]}`)

		Expect(run("page.json")).To(Succeed())
		Expect(out.String()).To(HavePrefix("export default function GeneratedPage() {"))
		Expect(out.String()).To(ContainSubstring(`label="Go"`))
	})

	It("honours the component name and imports flags", func() {
		write("page.json", `{"id":"root","type":"page","children":[{"id":"b","type":"Button","props":{"label":"Go"}}]}`)

		Expect(run("page.json", "--component-name", "Landing", "--include-imports")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("@acme/ui/button"))
		Expect(out.String()).To(ContainSubstring("export default function Landing() {"))
	})

	It("writes to --out", func() {
		write("page.json", `{"id":"root","type":"page","children":[]}`)

		Expect(run("page.json", "--out", "Page.tsx")).To(Succeed())
		data, err := os.ReadFile(filepath.Join(tmpDir, "Page.tsx"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring("GeneratedPage"))
	})

	It("prints blocking diagnostics instead of code", func() {
		write("page.json", `{"id":"root","type":"page","children":[{"id":"b","type":"Button"}]}`)

		err := run("page.json")
		var blocking *codegen.BlockingError
		Expect(err).To(BeAssignableToTypeOf(blocking))
		Expect(out.String()).To(BeEmpty())
		Expect(errOut.String()).To(ContainSubstring(diagnostic.CodeMissingRequiredProp))
	})
})
