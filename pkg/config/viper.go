package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/uidsl/pkg/dotdir"
)

// EnvPrefix prefixes every environment variable viper binds.
const EnvPrefix = "UIDSL"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the UIDSL_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (UIDSL_API_LISTEN, UIDSL_STORAGE_PROVIDER, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}
	v.AddConfigPath(target)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper resolves a Config through the viper precedence chain.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Storage: StorageConfig{
			Provider:    v.GetString("storage.provider"),
			SQLitePath:  v.GetString("storage.sqlite_path"),
			PostgresDSN: v.GetString("storage.postgres_dsn"),
		},
		Sessions: SessionsConfig{
			Provider:       v.GetString("sessions.provider"),
			RedisAddr:      v.GetString("sessions.redis_addr"),
			RedisDB:        v.GetInt("sessions.redis_db"),
			RecentMessages: v.GetInt("sessions.recent_messages"),
		},
		Registry: RegistryConfig{
			Path:  v.GetString("registry.path"),
			Watch: v.GetBool("registry.watch"),
		},
		API: APIConfig{
			Listen:    v.GetString("api.listen"),
			RateLimit: v.GetFloat64("api.rate_limit"),
			RateBurst: v.GetInt("api.rate_burst"),
		},
		Events: EventsConfig{
			Provider: v.GetString("events.provider"),
			Brokers:  brokersFromViper(v),
			Topic:    v.GetString("events.topic"),
		},
		Codegen: CodegenConfig{
			IncludeImports: v.GetBool("codegen.include_imports"),
			ComponentName:  v.GetString("codegen.component_name"),
		},
		Validation: ValidationConfig{
			ForbiddenAsError: v.GetBool("validation.forbidden_as_error"),
		},
	}
}

// brokersFromViper accepts both a TOML array and a comma separated string,
// the latter being what UIDSL_EVENTS_BROKERS and --brokers produce.
func brokersFromViper(v *viper.Viper) []string {
	var out []string
	for _, b := range v.GetStringSlice("events.brokers") {
		out = append(out, splitList(b)...)
	}
	return out
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Storage
	v.SetDefault("storage.provider", d.Storage.Provider)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)

	// Sessions
	v.SetDefault("sessions.provider", d.Sessions.Provider)
	v.SetDefault("sessions.redis_addr", d.Sessions.RedisAddr)
	v.SetDefault("sessions.redis_db", d.Sessions.RedisDB)
	v.SetDefault("sessions.recent_messages", d.Sessions.RecentMessages)

	// Registry
	v.SetDefault("registry.path", d.Registry.Path)
	v.SetDefault("registry.watch", d.Registry.Watch)

	// API
	v.SetDefault("api.listen", d.API.Listen)
	v.SetDefault("api.rate_limit", d.API.RateLimit)
	v.SetDefault("api.rate_burst", d.API.RateBurst)

	// Events
	v.SetDefault("events.provider", d.Events.Provider)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)

	// Codegen
	v.SetDefault("codegen.include_imports", d.Codegen.IncludeImports)
	v.SetDefault("codegen.component_name", d.Codegen.ComponentName)

	// Validation
	v.SetDefault("validation.forbidden_as_error", d.Validation.ForbiddenAsError)
}
