// Package codegencmder provides the codegen command for generating source
// code from a local UI-DSL page.
package codegencmder

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/uidsl/cmd/uidsl/cmdinput"
	"github.com/papercomputeco/uidsl/pkg/cliui"
	"github.com/papercomputeco/uidsl/pkg/codegen"
	"github.com/papercomputeco/uidsl/pkg/config"
	"github.com/papercomputeco/uidsl/pkg/registry"
)

var codegenFlags = []string{
	config.FlagRegistry,
	config.FlagIncludeImports,
	config.FlagComponentName,
	config.FlagForbiddenAsError,
}

type codegenCommander struct {
	registryPath     string
	includeImports   bool
	componentName    string
	forbiddenAsError bool
	outPath          string
	raw              bool
}

const codegenLongDesc string = `Generate React/TSX code for a UI-DSL page.

The page is validated against the component registry first. Unknown
components and missing required props block generation; the blocking
diagnostics are printed instead of code.

On a terminal the code is syntax highlighted. Use --raw or --out to get
plain output.

Examples:
  uidsl codegen page.json
  uidsl codegen page.json --include-imports --component-name Landing
  uidsl codegen page.json --out Landing.tsx`

const codegenShortDesc string = "Generate code for a page"

func NewCodegenCmd() *cobra.Command {
	cmder := &codegenCommander{}

	cmd := &cobra.Command{
		Use:   "codegen <page>",
		Short: codegenShortDesc,
		Long:  codegenLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdinput.Config(cmd, codegenFlags)
			if err != nil {
				return err
			}
			return cmder.run(cmd.OutOrStdout(), cmd.ErrOrStderr(), cmd.InOrStdin(), cfg, args[0])
		},
	}

	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagRegistry, &cmder.registryPath)
	config.AddBoolFlag(cmd, config.DefaultFlags, config.FlagIncludeImports, &cmder.includeImports)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagComponentName, &cmder.componentName)
	config.AddBoolFlag(cmd, config.DefaultFlags, config.FlagForbiddenAsError, &cmder.forbiddenAsError)
	cmd.Flags().StringVarP(&cmder.outPath, "out", "o", "", "Write the generated code to this file")
	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print plain code without highlighting")

	return cmd
}

func (c *codegenCommander) run(out, errOut io.Writer, in io.Reader, cfg *config.Config, path string) error {
	reg, err := cmdinput.Registry(cfg)
	if err != nil {
		return err
	}

	tree, err := cmdinput.Tree(path, in)
	if err != nil {
		return err
	}

	code, err := codegen.GenerateCodeFromDSL(tree, reg, codegen.Options{
		IncludeImports: cfg.Codegen.IncludeImports,
		ComponentName:  cfg.Codegen.ComponentName,
		Validation: registry.ValidateOptions{
			ForbiddenAsError: cfg.Validation.ForbiddenAsError,
		},
	})
	if err != nil {
		var blocking *codegen.BlockingError
		if errors.As(err, &blocking) {
			fmt.Fprintf(errOut, "  %s code generation blocked\n", cliui.FailMark)
			cliui.Diagnostics(errOut, blocking.Diagnostics)
		}
		return err
	}

	if c.outPath != "" {
		if err := os.WriteFile(c.outPath, []byte(code), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", c.outPath, err)
		}
		fmt.Fprintf(errOut, "  %s wrote %s\n", cliui.SuccessMark, c.outPath)
		return nil
	}

	if !c.raw && isTerminal(out) {
		rendered, err := cliui.RenderCode("tsx", code)
		if err == nil {
			code = rendered
		}
	}

	_, err = io.WriteString(out, code)
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && cliui.IsTerminal(f)
}
