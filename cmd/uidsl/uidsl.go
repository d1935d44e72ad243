// Package uidslcmder
package uidslcmder

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	checkoutcmder "github.com/papercomputeco/uidsl/cmd/uidsl/checkout"
	codegencmder "github.com/papercomputeco/uidsl/cmd/uidsl/codegen"
	configcmder "github.com/papercomputeco/uidsl/cmd/uidsl/config"
	initcmder "github.com/papercomputeco/uidsl/cmd/uidsl/init"
	patchcmder "github.com/papercomputeco/uidsl/cmd/uidsl/patch"
	revisionscmder "github.com/papercomputeco/uidsl/cmd/uidsl/revisions"
	servecmder "github.com/papercomputeco/uidsl/cmd/uidsl/serve"
	statuscmder "github.com/papercomputeco/uidsl/cmd/uidsl/status"
	validatecmder "github.com/papercomputeco/uidsl/cmd/uidsl/validate"
	versioncmder "github.com/papercomputeco/uidsl/cmd/version"
)

const uidslLongDesc string = `uidsl edits UI-DSL pages with patches and keeps every change as a revision.

Run the service using:
  uidsl serve          Run the HTTP API and MCP server

Work with local files using:
  uidsl validate       Validate a registry or a page
  uidsl patch          Apply patches to a page
  uidsl codegen        Generate code for a page

Inspect a running server using:
  uidsl revisions      Show revision history
  uidsl checkout       Check out a revision locally`

const uidslShortDesc string = "uidsl - UI-DSL patch and revision engine"

func NewUIDSLCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "uidsl",
		Short:         uidslShortDesc,
		Long:          uidslLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			// A missing .env file is fine.
			_ = godotenv.Load()
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .uidsl configuration directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(validatecmder.NewValidateCmd())
	cmd.AddCommand(patchcmder.NewPatchCmd())
	cmd.AddCommand(codegencmder.NewCodegenCmd())
	cmd.AddCommand(revisionscmder.NewRevisionsCmd())
	cmd.AddCommand(checkoutcmder.NewCheckoutCmd())
	cmd.AddCommand(statuscmder.NewStatusCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
