// Package cmdinput loads the files, registry and configuration that the
// local uidsl commands operate on.
package cmdinput

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/uidsl/cmd/uidsl/registrypath"
	"github.com/papercomputeco/uidsl/pkg/config"
	"github.com/papercomputeco/uidsl/pkg/dsl"
	"github.com/papercomputeco/uidsl/pkg/patch"
	"github.com/papercomputeco/uidsl/pkg/registry"
)

// Stdin is the path that reads from standard input.
const Stdin = "-"

// Config resolves the configuration for cmd through the viper precedence
// chain, binding the given DefaultFlags keys.
func Config(cmd *cobra.Command, flagKeys []string) (*config.Config, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")
	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, config.DefaultFlags, flagKeys)
	return config.FromViper(v), nil
}

// ReadFile reads path, or in when path is "-".
func ReadFile(path string, in io.Reader) ([]byte, error) {
	if path == Stdin {
		data, err := io.ReadAll(in)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// Tree reads a DSL document.
func Tree(path string, in io.Reader) (*dsl.Node, error) {
	data, err := ReadFile(path, in)
	if err != nil {
		return nil, err
	}
	return dsl.Parse(data)
}

// Patches reads a patch list. A single patch object is accepted as a list
// of one.
func Patches(path string, in io.Reader) ([]patch.Patch, error) {
	data, err := ReadFile(path, in)
	if err != nil {
		return nil, err
	}
	return ParsePatches(data)
}

// ParsePatches decodes a JSON array of patches or a single patch.
func ParsePatches(data []byte) ([]patch.Patch, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("no patches given")
	}

	if trimmed[0] == '{' {
		var p patch.Patch
		if err := json.Unmarshal(trimmed, &p); err != nil {
			return nil, fmt.Errorf("parsing patch: %w", err)
		}
		return []patch.Patch{p}, nil
	}

	var patches []patch.Patch
	if err := json.Unmarshal(trimmed, &patches); err != nil {
		return nil, fmt.Errorf("parsing patches: %w", err)
	}
	return patches, nil
}

// Registry loads the registry named by cfg. It returns nil without an
// error when no registry file can be found at the default location.
func Registry(cfg *config.Config) (*registry.Registry, error) {
	path, err := registrypath.Locate(cfg.Registry.Path, config.NewDefaultConfig().Registry.Path)
	if errors.Is(err, registrypath.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	reg, _, err := registry.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading registry %s: %w", path, err)
	}
	return reg, nil
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
