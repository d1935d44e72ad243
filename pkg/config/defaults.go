package config

const (
	defaultStorageProvider  = "memory"
	defaultSQLitePath       = "uidsl.sqlite"
	defaultSessionsProvider = "memory"
	defaultRedisAddr        = "localhost:6379"
	defaultRecentMessages   = 6
	defaultRegistryPath     = "registry.json"
	defaultAPIListen        = ":8081"
	defaultRateLimit        = 10
	defaultRateBurst        = 20
	defaultEventsProvider   = "none"
	defaultEventsTopic      = "uidsl.revisions"
	defaultComponentName    = "GeneratedPage"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Provider:   defaultStorageProvider,
			SQLitePath: defaultSQLitePath,
		},
		Sessions: SessionsConfig{
			Provider:       defaultSessionsProvider,
			RedisAddr:      defaultRedisAddr,
			RecentMessages: defaultRecentMessages,
		},
		Registry: RegistryConfig{
			Path: defaultRegistryPath,
		},
		API: APIConfig{
			Listen:    defaultAPIListen,
			RateLimit: defaultRateLimit,
			RateBurst: defaultRateBurst,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
		Codegen: CodegenConfig{
			ComponentName: defaultComponentName,
		},
	}
}
