// Package revisionscmder provides the revisions subcommand for inspecting
// revision history on a running uidsl server.
package revisionscmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/uidsl/cmd/uidsl/apiclient"
	"github.com/papercomputeco/uidsl/cmd/uidsl/cmdinput"
	"github.com/papercomputeco/uidsl/pkg/cliui"
	"github.com/papercomputeco/uidsl/pkg/dotdir"
	"github.com/papercomputeco/uidsl/pkg/logger"
	"github.com/papercomputeco/uidsl/pkg/revision"
)

// ErrNoRevision is returned when neither an argument nor a checkout names
// a revision.
var ErrNoRevision = errors.New("no revision given and nothing checked out")

type revisionsCommander struct {
	revisionID string
	assetID    string
	api        string
	json       bool
	configDir  string
	debug      bool
}

const revisionsLongDesc string = `Show revision history from a uidsl API server.

With a revision id, walks the parent links from the first revision of the
asset to the given revision. Without one, uses the revision that is
currently checked out.

With --asset, lists every revision of the asset instead and marks its heads.

Examples:
  uidsl revisions                   History of the checked out revision
  uidsl revisions 6f1c2a9e-...      History of a specific revision
  uidsl revisions --asset a1        All revisions of asset a1
  uidsl revisions --json            Print the raw response`

const revisionsShortDesc string = "Show revision history"

func NewRevisionsCmd() *cobra.Command {
	cmder := &revisionsCommander{}

	cmd := &cobra.Command{
		Use:   "revisions [revision-id]",
		Short: revisionsShortDesc,
		Long:  revisionsLongDesc,
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
	cmd.Flags().StringVar(&cmder.assetID, "asset", "", "List all revisions of an asset")
	cmd.Flags().BoolVar(&cmder.json, "json", false, "Print the response as JSON")

	return cmd
}

func (c *revisionsCommander) run(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.New(logger.WithDebug(c.debug), logger.WithFormat(logger.FormatPretty), logger.WithComponent("revisions"))
	client := apiclient.New(c.api)

	if c.assetID != "" {
		log.Debug("listing asset revisions", "asset", c.assetID, "api", c.api)

		resp, err := client.AssetRevisions(ctx, c.assetID)
		if err != nil {
			return fmt.Errorf("listing revisions: %w", err)
		}
		if c.json {
			return cmdinput.WriteJSON(out, resp)
		}

		fmt.Fprintf(out, "Asset %s (%d revisions)\n\n", resp.AssetID, len(resp.Revisions))
		for _, rev := range resp.Revisions {
			writeRevision(out, rev, slices.Contains(resp.Heads, rev.ID))
		}
		return nil
	}

	id := c.revisionID
	if id == "" {
		state, err := dotdir.NewManager().LoadCheckoutState(c.configDir)
		if err != nil {
			return fmt.Errorf("loading checkout state: %w", err)
		}
		if state == nil || state.RevisionID == "" {
			return ErrNoRevision
		}
		id = state.RevisionID
	}

	log.Debug("fetching revision history", "revision", id, "api", c.api)

	resp, err := client.History(ctx, id)
	if err != nil {
		return fmt.Errorf("fetching history: %w", err)
	}
	if c.json {
		return cmdinput.WriteJSON(out, resp)
	}

	fmt.Fprintf(out, "History of %s (depth %d)\n\n", cliui.Truncate(resp.HeadID, 16), resp.Depth)
	for _, rev := range resp.Revisions {
		writeRevision(out, rev, rev.ID == resp.HeadID)
	}
	return nil
}

func writeRevision(w io.Writer, rev *revision.Revision, marked bool) {
	marker := " "
	if marked {
		marker = "*"
	}
	fmt.Fprintf(w, "%s %s  %s  %s\n",
		marker,
		cliui.KeyStyle.Render(cliui.Truncate(rev.ID, 16)),
		cliui.DimStyle.Render(rev.CreatedAt.Format("2006-01-02 15:04:05")),
		fmt.Sprintf("%d patches", len(rev.Patches)),
	)
}
