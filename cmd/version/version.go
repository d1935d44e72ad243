// Package versioncmder
package versioncmder

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/uidsl/pkg/utils"
)

type VersionCommander struct {
	json bool
}

func NewVersionCmd() *cobra.Command {
	cmder := &VersionCommander{}

	cmd := &cobra.Command{
		Use:   "version",
		Short: "displays version",
		Long:  "displays the version, commit and build time of this CLI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&cmder.json, "json", false, "Print build information as JSON")

	return cmd
}

func (c *VersionCommander) run(out io.Writer) error {
	info := utils.Info()
	if c.json {
		return json.NewEncoder(out).Encode(info)
	}
	fmt.Fprintf(out, "Version: %s\nSha: %s\nBuilt at: %s\n", info.Version, info.Sha, info.Buildtime)
	return nil
}
