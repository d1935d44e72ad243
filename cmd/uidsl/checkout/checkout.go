// Package checkoutcmder provides the checkout subcommand for checking out a
// revision into the local .uidsl directory.
package checkoutcmder

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/uidsl/cmd/uidsl/apiclient"
	"github.com/papercomputeco/uidsl/pkg/cliui"
	"github.com/papercomputeco/uidsl/pkg/dotdir"
	"github.com/papercomputeco/uidsl/pkg/dsl"
	"github.com/papercomputeco/uidsl/pkg/logger"
)

type checkoutCommander struct {
	revisionID string
	sessionID  string
	api        string
	configDir  string
	debug      bool
}

const checkoutLongDesc string = `Check out a revision into the local .uidsl directory.

Fetches the revision from the API server and saves its tree, so the page
can be inspected with "uidsl status" or exported with "uidsl codegen"
without reaching the server again.

If no revision id is provided, clears the checkout state.

Examples:
  uidsl checkout 6f1c2a9e-...          Checkout a specific revision
  uidsl checkout 6f1c2a9e-... -s s1    Checkout and remember the session
  uidsl checkout                       Clear checkout state`

const checkoutShortDesc string = "Checkout a revision"

func NewCheckoutCmd() *cobra.Command {
	cmder := &checkoutCommander{}

	cmd := &cobra.Command{
		Use:   "checkout [revision-id]",
		Short: checkoutShortDesc,
		Long:  checkoutLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				cmder.revisionID = args[0]
			}

			cmder.debug, _ = cmd.Flags().GetBool("debug")
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			return cmder.run(cmd.Context(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&cmder.api, "api", "a", apiclient.DefaultTarget, "uidsl API server address")
	cmd.Flags().StringVarP(&cmder.sessionID, "session", "s", "", "Session to bind the checkout to")

	return cmd
}

func (c *checkoutCommander) run(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	dotdirManager := dotdir.NewManager()
	log := logger.New(logger.WithDebug(c.debug), logger.WithFormat(logger.FormatPretty), logger.WithComponent("checkout"))

	// If no revision provided, clear checkout state
	if c.revisionID == "" {
		if err := dotdirManager.ClearCheckout(c.configDir); err != nil {
			return fmt.Errorf("clearing checkout: %w", err)
		}
		fmt.Fprintln(out, "Checkout cleared.")
		return nil
	}

	log.Debug("checking out revision",
		"revision", c.revisionID,
		"api", c.api,
	)

	rev, err := apiclient.New(c.api).Revision(ctx, c.revisionID)
	if err != nil {
		return fmt.Errorf("fetching revision: %w", err)
	}

	state := &dotdir.CheckoutState{
		RevisionID: rev.ID,
		AssetID:    rev.AssetID,
		SessionID:  c.sessionID,
		DSL:        rev.DSL,
	}
	if err := dotdirManager.SaveCheckout(state, c.configDir); err != nil {
		return fmt.Errorf("saving checkout: %w", err)
	}

	fmt.Fprintf(out, "Checked out %s (%d nodes)\n", cliui.Truncate(rev.ID, 16), len(dsl.IDs(rev.DSL)))
	fmt.Fprintln(out, cliui.KeyValue("Asset", rev.AssetID))
	if rev.ParentID != nil {
		fmt.Fprintln(out, cliui.KeyValue("Parent", *rev.ParentID))
	}

	return nil
}
