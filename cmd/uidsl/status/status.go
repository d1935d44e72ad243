// Package statuscmder provides the status command for displaying the current
// checkout state of the local .uidsl directory.
package statuscmder

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/uidsl/pkg/cliui"
	"github.com/papercomputeco/uidsl/pkg/dotdir"
	"github.com/papercomputeco/uidsl/pkg/dsl"
)

const statusLongDesc string = `Show the current uidsl checkout state.

Reads the local .uidsl/ directory (or ~/.uidsl/) to display the checked-out
revision and an outline of its page.

Examples:
  uidsl status`

const statusShortDesc string = "Show current checkout state"

func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: statusShortDesc,
		Long:  statusLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runStatus(cmd.OutOrStdout(), configDir)
		},
	}

	return cmd
}

func runStatus(out io.Writer, configDir string) error {
	manager := dotdir.NewManager()

	state, err := manager.LoadCheckoutState(configDir)
	if err != nil {
		return fmt.Errorf("loading checkout state: %w", err)
	}

	if state == nil {
		fmt.Fprintf(out, "  %s No checkout state.\n", cliui.DimStyle.Render("●"))
		return nil
	}

	fmt.Fprintf(out, "\n  %s  %s\n", cliui.KeyStyle.Render("Checked out:"), cliui.ValueStyle.Render(state.RevisionID))
	fmt.Fprintf(out, "  %s  %s\n", cliui.KeyStyle.Render("Asset:      "), cliui.ValueStyle.Render(state.AssetID))
	if state.SessionID != "" {
		fmt.Fprintf(out, "  %s  %s\n", cliui.KeyStyle.Render("Session:    "), cliui.ValueStyle.Render(state.SessionID))
	}
	fmt.Fprintf(out, "  %s  %s\n\n", cliui.KeyStyle.Render("Nodes:      "), cliui.ValueStyle.Render(strconv.Itoa(len(dsl.IDs(state.DSL)))))

	writeOutline(out, state.DSL)

	fmt.Fprintln(out)
	return nil
}

// writeOutline prints one line per node, indented by depth.
func writeOutline(out io.Writer, tree *dsl.Node) {
	dsl.Walk(tree, func(n *dsl.Node, path dsl.NodePath) bool {
		kind := n.ComponentName()
		if kind == "" {
			kind = n.Type
		}
		fmt.Fprintf(out, "  %s%s %s\n",
			strings.Repeat("  ", len(path)),
			cliui.KeyStyle.Render(kind),
			cliui.DimStyle.Render("#"+n.ID),
		)
		return true
	})
}
