// Package initcmder provides the init command for initializing a local .uidsl
// directory in the current working directory.
package initcmder

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/uidsl/pkg/config"
)

const (
	dirName = ".uidsl"
)

const initLongDesc string = `Initialize a new .uidsl/ directory in the current working directory.

Creates a local .uidsl/ directory that takes precedence over the default
~/.uidsl/ directory for checkout state and configuration, and writes a
config.toml holding the default settings.

This is useful for maintaining separate uidsl state per project or directory.

Examples:
  uidsl init`

const initShortDesc string = "Initialize a local .uidsl/ directory"

func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd.OutOrStdout())
		},
	}

	return cmd
}

func runInit(out io.Writer) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		fmt.Fprintf(out, "Already initialized: %s\n", dir)
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating .uidsl directory: %w", err)
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfger.SaveConfig(config.NewDefaultConfig()); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}

	fmt.Fprintf(out, "Initialized .uidsl directory: %s\n", dir)
	return nil
}
