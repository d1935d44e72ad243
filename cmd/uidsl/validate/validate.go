// Package validatecmder provides the validate command for checking registry
// documents and UI-DSL pages from local files.
package validatecmder

import (
	"github.com/spf13/cobra"
)

const validateLongDesc string = `Validate a component registry or a UI-DSL page.

Use subcommands to pick what to validate:
  uidsl validate registry <file>    Validate a registry document (JSON or YAML)
  uidsl validate page <file>        Validate a page against the registry

Pass - as the file to read from standard input.`

const validateShortDesc string = "Validate a registry or a page"

func NewValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: validateShortDesc,
		Long:  validateLongDesc,
	}

	cmd.AddCommand(newRegistryCmd())
	cmd.AddCommand(newPageCmd())

	return cmd
}
