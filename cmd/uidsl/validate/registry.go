package validatecmder

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/uidsl/cmd/uidsl/cmdinput"
	"github.com/papercomputeco/uidsl/pkg/cliui"
	"github.com/papercomputeco/uidsl/pkg/registry"
)

// ErrInvalid is returned when the validated document has errors.
var ErrInvalid = errors.New("validation failed")

type registryCommander struct {
	format string
	json   bool
}

const registryLongDesc string = `Validate a component registry document.

The format follows the file extension (.yaml, .yml or .json) unless
--format is given. Errors make the command fail; warnings are reported
only.

Examples:
  uidsl validate registry registry.json
  cat components.yaml | uidsl validate registry --format yaml -`

const registryShortDesc string = "Validate a registry document"

func newRegistryCmd() *cobra.Command {
	cmder := &registryCommander{}

	cmd := &cobra.Command{
		Use:   "registry <file>",
		Short: registryShortDesc,
		Long:  registryLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.OutOrStdout(), cmd.InOrStdin(), args[0])
		},
	}

	cmd.Flags().StringVar(&cmder.format, "format", "", "Document format: json or yaml (default: from the file extension)")
	cmd.Flags().BoolVar(&cmder.json, "json", false, "Print the result as JSON")

	return cmd
}

func (c *registryCommander) run(out io.Writer, in io.Reader, path string) error {
	data, err := cmdinput.ReadFile(path, in)
	if err != nil {
		return err
	}

	format := registry.Format(c.format)
	if format == "" {
		format = registry.FormatFromPath(path)
	}
	if format != registry.FormatJSON && format != registry.FormatYAML {
		return fmt.Errorf("unknown format %q", c.format)
	}

	reg, res, err := registry.Parse(data, format)
	if err != nil && !errors.Is(err, registry.ErrInvalidRegistry) {
		return err
	}

	if c.json {
		if err := cmdinput.WriteJSON(out, res); err != nil {
			return err
		}
	} else {
		printRegistryResult(out, path, reg, res)
	}

	if !res.Valid {
		return ErrInvalid
	}
	return nil
}

func printRegistryResult(out io.Writer, path string, reg *registry.Registry, res registry.Result) {
	fmt.Fprintf(out, "\n%s\n", cliui.KeyValue("Registry", path))
	if reg != nil {
		fmt.Fprintln(out, cliui.KeyValue("Version", reg.Version))
		fmt.Fprintln(out, cliui.KeyValue("Components", fmt.Sprintf("%d", len(reg.Components))))
	}
	fmt.Fprintln(out)

	for _, issue := range res.Errors {
		fmt.Fprintf(out, "  %s %s\n", cliui.ErrorStyle.Render("error"), issue)
	}
	for _, issue := range res.Warnings {
		fmt.Fprintf(out, "  %s %s\n", cliui.WarningStyle.Render("warning"), issue)
	}

	if res.Valid {
		fmt.Fprintf(out, "  %s registry is valid\n\n", cliui.SuccessMark)
	} else {
		fmt.Fprintf(out, "  %s registry is invalid\n\n", cliui.FailMark)
	}
}
