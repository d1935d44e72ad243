package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --registry
// on "uidsl serve", "uidsl validate page" and "uidsl patch").
type Flag struct {
	// Name is the long flag name (e.g. "registry").
	Name string

	// Shorthand is the one-letter short flag (e.g. "r"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "registry.path").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddIntFlag, AddBoolFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagListen           = "listen"
	FlagRegistry         = "registry"
	FlagWatchRegistry    = "watch-registry"
	FlagStorageProvider  = "storage"
	FlagSQLite           = "sqlite"
	FlagPostgresDSN      = "postgres-dsn"
	FlagSessionsProvider = "sessions"
	FlagRedisAddr        = "redis-addr"
	FlagRedisDB          = "redis-db"
	FlagEventsProvider   = "events"
	FlagBrokers          = "brokers"
	FlagTopic            = "topic"
	FlagIncludeImports   = "include-imports"
	FlagComponentName    = "component-name"
	FlagForbiddenAsError = "forbidden-as-error"
)

// DefaultFlags is the FlagSet shared by every uidsl command.
var DefaultFlags = FlagSet{
	FlagListen:           {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for the API server to listen on"},
	FlagRegistry:         {Name: "registry", Shorthand: "r", ViperKey: "registry.path", Description: "Path to the component registry document (JSON or YAML)"},
	FlagWatchRegistry:    {Name: "watch-registry", ViperKey: "registry.watch", Description: "Reload the registry when its file changes"},
	FlagStorageProvider:  {Name: "storage", ViperKey: "storage.provider", Description: "Revision store: memory, sqlite or postgres"},
	FlagSQLite:           {Name: "sqlite", Shorthand: "s", ViperKey: "storage.sqlite_path", Description: "Path to the SQLite revision database"},
	FlagPostgresDSN:      {Name: "postgres-dsn", ViperKey: "storage.postgres_dsn", Description: "PostgreSQL connection string for the revision store"},
	FlagSessionsProvider: {Name: "sessions", ViperKey: "sessions.provider", Description: "Session store: memory or redis"},
	FlagRedisAddr:        {Name: "redis-addr", ViperKey: "sessions.redis_addr", Description: "Redis address for the session store"},
	FlagRedisDB:          {Name: "redis-db", ViperKey: "sessions.redis_db", Description: "Redis database number for the session store"},
	FlagEventsProvider:   {Name: "events", ViperKey: "events.provider", Description: "Revision event sink: none or kafka"},
	FlagBrokers:          {Name: "brokers", ViperKey: "events.brokers", Description: "Comma separated Kafka broker addresses"},
	FlagTopic:            {Name: "topic", ViperKey: "events.topic", Description: "Kafka topic for revision events"},
	FlagIncludeImports:   {Name: "include-imports", ViperKey: "codegen.include_imports", Description: "Emit import statements in generated code"},
	FlagComponentName:    {Name: "component-name", ViperKey: "codegen.component_name", Description: "Name of the generated component"},
	FlagForbiddenAsError: {Name: "forbidden-as-error", ViperKey: "validation.forbidden_as_error", Description: "Report forbidden raw elements as errors"},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaults().GetString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddIntFlag registers an int flag on cmd from the given FlagSet.
func AddIntFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *int) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaults().GetInt(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().IntVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().IntVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *bool) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaults().GetBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaults returns a viper holding only the values from NewDefaultConfig.
func defaults() *viper.Viper {
	v := viper.New()
	setViperDefaults(v)
	return v
}
