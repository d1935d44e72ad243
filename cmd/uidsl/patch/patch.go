// Package patchcmder provides the patch command for applying UI-DSL patches
// to a local page file.
package patchcmder

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/uidsl/cmd/uidsl/cmdinput"
	"github.com/papercomputeco/uidsl/pkg/cliui"
	"github.com/papercomputeco/uidsl/pkg/config"
	"github.com/papercomputeco/uidsl/pkg/diagnostic"
	"github.com/papercomputeco/uidsl/pkg/dsl"
	"github.com/papercomputeco/uidsl/pkg/patch"
	"github.com/papercomputeco/uidsl/pkg/registry"
)

// ErrPatchFailed is returned when at least one patch did not apply.
var ErrPatchFailed = errors.New("one or more patches failed")

var patchFlags = []string{
	config.FlagRegistry,
	config.FlagForbiddenAsError,
}

type patchCommander struct {
	registryPath     string
	forbiddenAsError bool
	inverse          bool
	outPath          string
	json             bool
}

// Result is the JSON output of the patch command.
type Result struct {
	DSL         *dsl.Node               `json:"dsl"`
	Applied     int                     `json:"applied"`
	Valid       bool                    `json:"valid"`
	Diagnostics []diagnostic.Diagnostic `json:"diagnostics"`
	Inverses    []patch.Patch           `json:"inversePatches,omitempty"`
}

const patchLongDesc string = `Apply patches to a UI-DSL page.

Patches are applied in order, each against the result of the previous one.
A patch that fails is reported and skipped; the others still apply. The
patched page is validated against the component registry afterwards.

The patched page is written to standard output, or to --out. Diagnostics
go to standard error. The command fails when any patch did not apply.

The patch file holds a JSON array of patches or a single patch:
  [{"targetId": "cta", "op": "setCopy", "args": {"value": "Sign up"}}]

Examples:
  uidsl patch page.json patches.json
  uidsl patch page.json patches.json --out page.json
  echo '{"targetId":"cta","op":"toggleVariant","args":{"variant":"ghost"}}' | uidsl patch page.json -
  uidsl patch page.json patches.json --inverse --json`

const patchShortDesc string = "Apply patches to a page"

func NewPatchCmd() *cobra.Command {
	cmder := &patchCommander{}

	cmd := &cobra.Command{
		Use:   "patch <page> <patches>",
		Short: patchShortDesc,
		Long:  patchLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdinput.Config(cmd, patchFlags)
			if err != nil {
				return err
			}
			return cmder.run(cmd.OutOrStdout(), cmd.ErrOrStderr(), cmd.InOrStdin(), cfg, args[0], args[1])
		},
	}

	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagRegistry, &cmder.registryPath)
	config.AddBoolFlag(cmd, config.DefaultFlags, config.FlagForbiddenAsError, &cmder.forbiddenAsError)
	cmd.Flags().BoolVar(&cmder.inverse, "inverse", false, "Include the inverse patches in JSON output")
	cmd.Flags().StringVarP(&cmder.outPath, "out", "o", "", "Write the patched page to this file")
	cmd.Flags().BoolVar(&cmder.json, "json", false, "Print the full result as JSON")

	return cmd
}

func (c *patchCommander) run(out, errOut io.Writer, in io.Reader, cfg *config.Config, pagePath, patchesPath string) error {
	if pagePath == cmdinput.Stdin && patchesPath == cmdinput.Stdin {
		return errors.New("only one of the page and the patches can be read from stdin")
	}

	reg, err := cmdinput.Registry(cfg)
	if err != nil {
		return err
	}

	tree, err := cmdinput.Tree(pagePath, in)
	if err != nil {
		return err
	}

	patches, err := cmdinput.Patches(patchesPath, in)
	if err != nil {
		return err
	}

	engine := patch.NewEngine(patch.WithRegistry(reg))
	batch := engine.ApplyAll(tree, patches, patch.ApplyOptions{GenerateInverse: c.inverse})

	page := registry.ValidatePage(batch.DSL, reg, registry.ValidateOptions{
		ForbiddenAsError: cfg.Validation.ForbiddenAsError,
	})

	result := Result{
		DSL:         batch.DSL,
		Applied:     batch.AppliedCount(),
		Valid:       page.Valid && !diagnostic.HasErrors(batch.Diagnostics),
		Diagnostics: append(append([]diagnostic.Diagnostic{}, batch.Diagnostics...), page.Diagnostics...),
		Inverses:    batch.Inverses,
	}

	if err := c.write(out, result); err != nil {
		return err
	}

	var failed error
	if diagnostic.HasErrors(batch.Diagnostics) {
		failed = ErrPatchFailed
	}

	if !c.json {
		fmt.Fprintf(errOut, "  %s applied %d of %d patches\n", cliui.Mark(failed), result.Applied, len(patches))
		if len(result.Diagnostics) > 0 {
			cliui.Diagnostics(errOut, result.Diagnostics)
		}
	}

	return failed
}

func (c *patchCommander) write(out io.Writer, result Result) error {
	var v any = result.DSL
	if c.json {
		v = result
	}

	if c.outPath == "" {
		return cmdinput.WriteJSON(out, v)
	}

	f, err := os.Create(c.outPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", c.outPath, err)
	}
	if err := cmdinput.WriteJSON(f, v); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", c.outPath, err)
	}
	return f.Close()
}
