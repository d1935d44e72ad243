// Package servecmder provides the serve command that runs the HTTP API and
// MCP server.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/uidsl/api"
	"github.com/papercomputeco/uidsl/api/mcp"
	"github.com/papercomputeco/uidsl/cmd/uidsl/registrypath"
	"github.com/papercomputeco/uidsl/pkg/codegen"
	"github.com/papercomputeco/uidsl/pkg/config"
	"github.com/papercomputeco/uidsl/pkg/eventstream"
	"github.com/papercomputeco/uidsl/pkg/eventstream/kafka"
	"github.com/papercomputeco/uidsl/pkg/eventstream/nop"
	"github.com/papercomputeco/uidsl/pkg/logger"
	"github.com/papercomputeco/uidsl/pkg/registry"
	"github.com/papercomputeco/uidsl/pkg/session"
	sessionmem "github.com/papercomputeco/uidsl/pkg/session/inmemory"
	"github.com/papercomputeco/uidsl/pkg/session/redisstore"
	"github.com/papercomputeco/uidsl/pkg/storage"
	"github.com/papercomputeco/uidsl/pkg/storage/inmemory"
	"github.com/papercomputeco/uidsl/pkg/storage/postgres"
	"github.com/papercomputeco/uidsl/pkg/storage/sqlite"
	"github.com/papercomputeco/uidsl/pkg/studio"
	"github.com/papercomputeco/uidsl/pkg/worker"
)

type ServeCommander struct {
	listen           string
	registryPath     string
	watchRegistry    bool
	storageProvider  string
	sqlitePath       string
	postgresDSN      string
	sessionsProvider string
	redisAddr        string
	redisDB          int
	eventsProvider   string
	brokers          string
	topic            string
	includeImports   bool
	componentName    string
	forbiddenAsError bool

	logFile   string
	logJSON   bool
	logFormat string

	debug  bool
	cfg    *config.Config
	logger *slog.Logger
}

var serveFlags = []string{
	config.FlagListen,
	config.FlagRegistry,
	config.FlagWatchRegistry,
	config.FlagStorageProvider,
	config.FlagSQLite,
	config.FlagPostgresDSN,
	config.FlagSessionsProvider,
	config.FlagRedisAddr,
	config.FlagRedisDB,
	config.FlagEventsProvider,
	config.FlagBrokers,
	config.FlagTopic,
	config.FlagIncludeImports,
	config.FlagComponentName,
	config.FlagForbiddenAsError,
}

const serveLongDesc string = `Run the uidsl HTTP API server.

The server exposes the patch, validation and code generation pipeline over
HTTP, keeps editing sessions, stores every committed change as a revision
and serves MCP tools at /mcp.

Settings come from flags, then UIDSL_* environment variables, then
config.toml in the .uidsl/ directory, then built-in defaults.

Examples:
  uidsl serve
  uidsl serve --registry components.yaml --watch-registry
  uidsl serve --storage sqlite --sqlite ./uidsl.sqlite
  uidsl serve --sessions redis --redis-addr localhost:6379
  uidsl serve --events kafka --brokers localhost:9092`

const serveShortDesc string = "Run the uidsl API server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.DefaultFlags, serveFlags)
			cmder.cfg = config.FromViper(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagRegistry, &cmder.registryPath)
	config.AddBoolFlag(cmd, config.DefaultFlags, config.FlagWatchRegistry, &cmder.watchRegistry)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagStorageProvider, &cmder.storageProvider)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagPostgresDSN, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagSessionsProvider, &cmder.sessionsProvider)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagRedisAddr, &cmder.redisAddr)
	config.AddIntFlag(cmd, config.DefaultFlags, config.FlagRedisDB, &cmder.redisDB)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagEventsProvider, &cmder.eventsProvider)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagBrokers, &cmder.brokers)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagTopic, &cmder.topic)
	config.AddBoolFlag(cmd, config.DefaultFlags, config.FlagIncludeImports, &cmder.includeImports)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagComponentName, &cmder.componentName)
	config.AddBoolFlag(cmd, config.DefaultFlags, config.FlagForbiddenAsError, &cmder.forbiddenAsError)

	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write JSON logs to this file")
	cmd.Flags().BoolVar(&cmder.logJSON, "log-json", false, "Write JSON logs to stdout instead of pretty output (same as --log-format json)")
	cmd.Flags().StringVar(&cmder.logFormat, "log-format", string(logger.FormatPretty), "Stdout log format: text, pretty or json")

	return cmd
}

func (c *ServeCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log, closeLog, err := c.newLogger(os.Stdout)
	if err != nil {
		return err
	}
	defer closeLog()
	c.logger = log

	holder, regPath, err := c.loadRegistry()
	if err != nil {
		return err
	}

	driver, err := c.newStorageDriver(ctx)
	if err != nil {
		return err
	}
	defer driver.Close()

	store, err := c.newSessionStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	publisher, err := c.newPublisher()
	if err != nil {
		return err
	}
	defer publisher.Close()

	pool, err := worker.NewPool(&worker.Config{
		Publisher: publisher,
		Logger:    c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating event worker pool: %w", err)
	}
	// Runs before the publisher is closed.
	defer pool.Close()

	st, err := studio.New(studio.Config{
		Sessions: session.NewManager(store,
			session.WithLogger(c.logger),
			session.WithRecentMessages(c.cfg.Sessions.RecentMessages),
		),
		Revisions: driver,
		Registry:  holder,
		Codegen: codegen.Options{
			IncludeImports: c.cfg.Codegen.IncludeImports,
			ComponentName:  c.cfg.Codegen.ComponentName,
		},
		Validation: registry.ValidateOptions{
			ForbiddenAsError: c.cfg.Validation.ForbiddenAsError,
		},
		Events: pool,
		Logger: c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating studio: %w", err)
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		Studio: st,
		Logger: c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	server, err := api.NewServer(api.Config{
		ListenAddr: c.cfg.API.Listen,
		RateLimit:  c.cfg.API.RateLimit,
		RateBurst:  c.cfg.API.RateBurst,
	}, st, c.logger, api.WithMCP(mcpServer.Handler()))
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if c.cfg.Registry.Watch && regPath != "" {
		watcher := registry.NewWatcher(regPath, holder, c.logger)
		go func() {
			if err := watcher.Run(ctx); err != nil {
				c.logger.Error("registry watcher stopped", "error", err)
			}
		}()
		c.logger.Info("watching registry", "path", regPath)
	}

	// Channel to capture errors from the server goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		c.logger.Info("received signal, shutting down")
		return server.Shutdown()
	}
}

// loadRegistry loads the configured registry. An invalid registry stops
// the server; a missing one only when it was asked for explicitly.
func (c *ServeCommander) loadRegistry() (*registry.Holder, string, error) {
	path, err := registrypath.Locate(c.cfg.Registry.Path, config.NewDefaultConfig().Registry.Path)
	if errors.Is(err, registrypath.ErrNotFound) {
		c.logger.Warn("no component registry found, validating without one")
		return registry.NewHolder(nil), "", nil
	}
	if err != nil {
		return nil, "", err
	}

	reg, res, err := registry.Load(path)
	if err != nil {
		for _, issue := range res.Errors {
			c.logger.Error("registry issue", "path", issue.Path, "message", issue.Message)
		}
		return nil, "", fmt.Errorf("loading registry %s: %w", path, err)
	}
	for _, issue := range res.Warnings {
		c.logger.Warn("registry issue", "path", issue.Path, "message", issue.Message)
	}

	c.logger.Info("loaded component registry",
		"path", path,
		"version", reg.Version,
		"components", len(reg.Components),
	)
	return registry.NewHolder(reg), path, nil
}

func (c *ServeCommander) newStorageDriver(ctx context.Context) (storage.Driver, error) {
	switch c.cfg.Storage.Provider {
	case "sqlite":
		driver, err := sqlite.NewDriver(ctx, c.cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite driver: %w", err)
		}
		c.logger.Info("using SQLite storage", "path", c.cfg.Storage.SQLitePath)
		return driver, nil
	case "postgres":
		driver, err := postgres.NewDriver(ctx, c.cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL driver: %w", err)
		}
		c.logger.Info("using PostgreSQL storage")
		return driver, nil
	case "", "memory":
		c.logger.Info("using in-memory storage")
		return inmemory.NewDriver(), nil
	default:
		return nil, fmt.Errorf("unknown storage provider: %q", c.cfg.Storage.Provider)
	}
}

func (c *ServeCommander) newSessionStore(ctx context.Context) (session.Store, error) {
	switch c.cfg.Sessions.Provider {
	case "redis":
		store, err := redisstore.NewStore(ctx, c.cfg.Sessions.RedisAddr, os.Getenv("UIDSL_REDIS_PASSWORD"), c.cfg.Sessions.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis session store: %w", err)
		}
		c.logger.Info("using Redis sessions", "addr", c.cfg.Sessions.RedisAddr, "db", c.cfg.Sessions.RedisDB)
		return store, nil
	case "", "memory":
		c.logger.Info("using in-memory sessions")
		return sessionmem.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown sessions provider: %q", c.cfg.Sessions.Provider)
	}
}

func (c *ServeCommander) newPublisher() (eventstream.Publisher, error) {
	switch c.cfg.Events.Provider {
	case "kafka":
		publisher, err := kafka.NewPublisher(kafka.Config{
			Brokers: c.cfg.Events.Brokers,
			Topic:   c.cfg.Events.Topic,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka publisher: %w", err)
		}
		c.logger.Info("publishing revision events to Kafka",
			"brokers", c.cfg.Events.Brokers,
			"topic", c.cfg.Events.Topic,
		)
		return publisher, nil
	case "", "none":
		return nop.NewPublisher(), nil
	default:
		return nil, fmt.Errorf("unknown events provider: %q", c.cfg.Events.Provider)
	}
}

// newLogger builds the console logger and, when a log file is configured,
// fans records out to a JSON logger on that file as well.
func (c *ServeCommander) newLogger(w io.Writer) (*slog.Logger, func() error, error) {
	format := logger.FormatPretty
	if c.logFormat != "" {
		var err error
		if format, err = logger.ParseFormat(c.logFormat); err != nil {
			return nil, nil, err
		}
	}
	if c.logJSON {
		format = logger.FormatJSON
	}
	console := logger.New(
		logger.WithDebug(c.debug),
		logger.WithFormat(format),
		logger.WithOutput(w),
	)
	if c.logFile == "" {
		return console, func() error { return nil }, nil
	}

	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	file := logger.New(
		logger.WithDebug(c.debug),
		logger.WithFormat(logger.FormatJSON),
		logger.WithSource(c.debug),
		logger.WithComponent("serve"),
		logger.WithOutput(f),
	)
	return logger.Multi(console, file), f.Close, nil
}
