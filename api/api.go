package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/papercomputeco/uidsl/pkg/codegen"
	"github.com/papercomputeco/uidsl/pkg/session"
	"github.com/papercomputeco/uidsl/pkg/storage"
	"github.com/papercomputeco/uidsl/pkg/studio"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server is the API server for the editing pipeline.
type Server struct {
	config  Config
	studio  *studio.Studio
	logger  *slog.Logger
	limiter *sessionLimiter
	app     *fiber.App
}

// Option configures a Server.
type Option func(*Server)

// WithMCP mounts an MCP streamable HTTP handler at /mcp.
func WithMCP(h http.Handler) Option {
	return func(s *Server) {
		s.app.All("/mcp", adaptor.HTTPHandler(h))
	}
}

// NewServer creates a new API server around st.
func NewServer(config Config, st *studio.Studio, logger *slog.Logger, opts ...Option) (*Server, error) {
	if st == nil {
		return nil, errors.New("studio is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		// Session ids from params outlive the request in the stores.
		Immutable: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).JSON(ErrorResponse{Error: err.Error()})
		},
	})

	app.Use(fiberrecover.New())

	s := &Server{
		config:  config,
		studio:  st,
		logger:  logger,
		limiter: newSessionLimiter(config.RateLimit, config.RateBurst),
		app:     app,
	}

	app.Get("/ping", s.handlePing)

	app.Post("/dsl/patch", s.handlePreviewPatches)
	app.Post("/dsl/validate", s.handleValidateDSL)
	app.Post("/dsl/codegen", s.handleCodegen)
	app.Post("/registry/validate", s.handleValidateRegistry)

	app.Post("/sessions", s.handleCreateSession)
	app.Get("/sessions/:id", s.limited(s.handleGetSession))
	app.Delete("/sessions/:id", s.limited(s.handleDeleteSession))
	app.Post("/sessions/:id/patches", s.limited(s.handleApplyPatches))
	app.Post("/sessions/:id/chat", s.limited(s.handleChat))
	app.Get("/sessions/:id/messages", s.limited(s.handleRecentMessages))
	app.Post("/sessions/:id/undo", s.limited(s.handleUndo))
	app.Post("/sessions/:id/redo", s.limited(s.handleRedo))

	app.Get("/revisions/:id", s.handleGetRevision)
	app.Get("/revisions/:id/history", s.handleRevisionHistory)
	app.Get("/revisions/:id/children", s.handleRevisionChildren)
	app.Get("/assets/:id/revisions", s.handleAssetRevisions)

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// fail writes err with the status it maps to. Unexpected errors are logged
// and reported without detail.
func (s *Server) fail(c *fiber.Ctx, err error) error {
	var (
		sessionNotFound  session.NotFoundError
		revisionNotFound storage.NotFoundError
		blocking         *codegen.BlockingError
	)

	switch {
	case errors.As(err, &sessionNotFound), errors.As(err, &revisionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: err.Error()})

	case errors.Is(err, studio.ErrNoDSL),
		errors.Is(err, session.ErrNothingToUndo),
		errors.Is(err, session.ErrNothingToRedo):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Error: err.Error()})

	case errors.As(err, &blocking):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(BlockingResponse{
			Error:       err.Error(),
			Diagnostics: blocking.Diagnostics,
		})
	}

	s.logger.Error("request failed",
		"method", c.Method(),
		"path", c.Path(),
		"error", err,
	)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "internal error"})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: msg})
}
