package validatecmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/uidsl/cmd/uidsl/cmdinput"
	"github.com/papercomputeco/uidsl/pkg/cliui"
	"github.com/papercomputeco/uidsl/pkg/config"
	"github.com/papercomputeco/uidsl/pkg/registry"
)

var pageFlags = []string{
	config.FlagRegistry,
	config.FlagForbiddenAsError,
}

type pageCommander struct {
	registryPath     string
	forbiddenAsError bool
	json             bool
}

const pageLongDesc string = `Validate a UI-DSL page against the component registry.

Unknown components and missing required props are errors. Forbidden raw
elements are warnings unless --forbidden-as-error is set. Without a
registry only the tree structure is checked.

Examples:
  uidsl validate page page.json
  uidsl validate page --registry components.yaml page.json`

const pageShortDesc string = "Validate a page"

func newPageCmd() *cobra.Command {
	cmder := &pageCommander{}

	cmd := &cobra.Command{
		Use:   "page <file>",
		Short: pageShortDesc,
		Long:  pageLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdinput.Config(cmd, pageFlags)
			if err != nil {
				return err
			}
			return cmder.run(cmd.OutOrStdout(), cmd.InOrStdin(), cfg, args[0])
		},
	}

	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagRegistry, &cmder.registryPath)
	config.AddBoolFlag(cmd, config.DefaultFlags, config.FlagForbiddenAsError, &cmder.forbiddenAsError)
	cmd.Flags().BoolVar(&cmder.json, "json", false, "Print the result as JSON")

	return cmd
}

func (c *pageCommander) run(out io.Writer, in io.Reader, cfg *config.Config, path string) error {
	reg, err := cmdinput.Registry(cfg)
	if err != nil {
		return err
	}

	tree, err := cmdinput.Tree(path, in)
	if err != nil {
		return err
	}

	res := registry.ValidatePage(tree, reg, registry.ValidateOptions{
		ForbiddenAsError: cfg.Validation.ForbiddenAsError,
	})

	if c.json {
		if err := cmdinput.WriteJSON(out, res); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "\n%s\n\n", cliui.KeyValue("Page", path))
		cliui.Diagnostics(out, res.Diagnostics)
		fmt.Fprintln(out)
	}

	if !res.Valid {
		return ErrInvalid
	}
	return nil
}
