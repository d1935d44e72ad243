package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent uidsl configuration stored as config.toml
// in the .uidsl/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version    int              `toml:"version"`
	Storage    StorageConfig    `toml:"storage"`
	Sessions   SessionsConfig   `toml:"sessions"`
	Registry   RegistryConfig   `toml:"registry"`
	API        APIConfig        `toml:"api"`
	Events     EventsConfig     `toml:"events"`
	Codegen    CodegenConfig    `toml:"codegen"`
	Validation ValidationConfig `toml:"validation"`
}

// StorageConfig selects the revision store.
type StorageConfig struct {
	// Provider is one of "memory", "sqlite" or "postgres".
	Provider    string `toml:"provider,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// SessionsConfig selects the chat session store.
type SessionsConfig struct {
	// Provider is one of "memory" or "redis".
	Provider       string `toml:"provider,omitempty"`
	RedisAddr      string `toml:"redis_addr,omitempty"`
	RedisDB        int    `toml:"redis_db,omitempty"`
	RecentMessages int    `toml:"recent_messages,omitempty"`
}

// RegistryConfig points at the component registry document.
type RegistryConfig struct {
	Path  string `toml:"path,omitempty"`
	Watch bool   `toml:"watch,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`

	// RateLimit is the sustained requests per second allowed per session.
	// Zero disables limiting.
	RateLimit float64 `toml:"rate_limit,omitempty"`
	RateBurst int     `toml:"rate_burst,omitempty"`
}

// EventsConfig selects where revision events are published.
type EventsConfig struct {
	// Provider is one of "none" or "kafka".
	Provider string   `toml:"provider,omitempty"`
	Brokers  []string `toml:"brokers,omitempty"`
	Topic    string   `toml:"topic,omitempty"`
}

// CodegenConfig holds code generation defaults.
type CodegenConfig struct {
	IncludeImports bool   `toml:"include_imports,omitempty"`
	ComponentName  string `toml:"component_name,omitempty"`
}

// ValidationConfig holds page validation settings.
type ValidationConfig struct {
	ForbiddenAsError bool `toml:"forbidden_as_error,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func parseBool(key, v string) (bool, error) {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return b, nil
}

func parseInt(key, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid value for %s: must not be negative", key)
	}
	return n, nil
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.provider": {
		get: func(c *Config) string { return c.Storage.Provider },
		set: func(c *Config, v string) error { c.Storage.Provider = v; return nil },
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"storage.postgres_dsn": {
		get: func(c *Config) string { return c.Storage.PostgresDSN },
		set: func(c *Config, v string) error { c.Storage.PostgresDSN = v; return nil },
	},
	"sessions.provider": {
		get: func(c *Config) string { return c.Sessions.Provider },
		set: func(c *Config, v string) error { c.Sessions.Provider = v; return nil },
	},
	"sessions.redis_addr": {
		get: func(c *Config) string { return c.Sessions.RedisAddr },
		set: func(c *Config, v string) error { c.Sessions.RedisAddr = v; return nil },
	},
	"sessions.redis_db": {
		get: func(c *Config) string { return strconv.Itoa(c.Sessions.RedisDB) },
		set: func(c *Config, v string) error {
			n, err := parseInt("sessions.redis_db", v)
			if err != nil {
				return err
			}
			c.Sessions.RedisDB = n
			return nil
		},
	},
	"sessions.recent_messages": {
		get: func(c *Config) string {
			if c.Sessions.RecentMessages == 0 {
				return ""
			}
			return strconv.Itoa(c.Sessions.RecentMessages)
		},
		set: func(c *Config, v string) error {
			n, err := parseInt("sessions.recent_messages", v)
			if err != nil {
				return err
			}
			c.Sessions.RecentMessages = n
			return nil
		},
	},
	"registry.path": {
		get: func(c *Config) string { return c.Registry.Path },
		set: func(c *Config, v string) error { c.Registry.Path = v; return nil },
	},
	"registry.watch": {
		get: func(c *Config) string { return strconv.FormatBool(c.Registry.Watch) },
		set: func(c *Config, v string) error {
			b, err := parseBool("registry.watch", v)
			if err != nil {
				return err
			}
			c.Registry.Watch = b
			return nil
		},
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"api.rate_limit": {
		get: func(c *Config) string { return strconv.FormatFloat(c.API.RateLimit, 'f', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for api.rate_limit: %w", err)
			}
			if f < 0 {
				return fmt.Errorf("invalid value for api.rate_limit: must not be negative")
			}
			c.API.RateLimit = f
			return nil
		},
	},
	"api.rate_burst": {
		get: func(c *Config) string { return strconv.Itoa(c.API.RateBurst) },
		set: func(c *Config, v string) error {
			n, err := parseInt("api.rate_burst", v)
			if err != nil {
				return err
			}
			c.API.RateBurst = n
			return nil
		},
	},
	"events.provider": {
		get: func(c *Config) string { return c.Events.Provider },
		set: func(c *Config, v string) error { c.Events.Provider = v; return nil },
	},
	"events.brokers": {
		get: func(c *Config) string { return strings.Join(c.Events.Brokers, ",") },
		set: func(c *Config, v string) error {
			c.Events.Brokers = splitList(v)
			return nil
		},
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
	"codegen.include_imports": {
		get: func(c *Config) string { return strconv.FormatBool(c.Codegen.IncludeImports) },
		set: func(c *Config, v string) error {
			b, err := parseBool("codegen.include_imports", v)
			if err != nil {
				return err
			}
			c.Codegen.IncludeImports = b
			return nil
		},
	},
	"codegen.component_name": {
		get: func(c *Config) string { return c.Codegen.ComponentName },
		set: func(c *Config, v string) error { c.Codegen.ComponentName = v; return nil },
	},
	"validation.forbidden_as_error": {
		get: func(c *Config) string { return strconv.FormatBool(c.Validation.ForbiddenAsError) },
		set: func(c *Config, v string) error {
			b, err := parseBool("validation.forbidden_as_error", v)
			if err != nil {
				return err
			}
			c.Validation.ForbiddenAsError = b
			return nil
		},
	},
}

// splitList splits a comma separated value, dropping empty entries.
func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
