// Package configcmder provides the config command for managing persistent
// uidsl configuration stored in the .uidsl/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent uidsl configuration.

Configuration is stored as config.toml in the .uidsl/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  storage.provider, storage.sqlite_path, storage.postgres_dsn,
  sessions.provider, sessions.redis_addr, sessions.redis_db, sessions.recent_messages,
  registry.path, registry.watch,
  api.listen, api.rate_limit, api.rate_burst,
  events.provider, events.brokers, events.topic,
  codegen.include_imports, codegen.component_name,
  validation.forbidden_as_error

Use subcommands to get, set, or list configuration values:
  uidsl config set <key> <value>    Set a configuration value
  uidsl config get <key>            Get a configuration value
  uidsl config list                 List all configuration values

Examples:
  uidsl config set storage.provider sqlite
  uidsl config set events.brokers localhost:9092,localhost:9093
  uidsl config get api.listen
  uidsl config list`

const configShortDesc string = "Manage persistent uidsl configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
