// Package studio runs the chat-driven editing pipeline: patches are applied
// to a session's tree, the result is validated against the component
// registry and rendered to code, and every accepted change becomes a new
// revision.
package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/papercomputeco/uidsl/pkg/codegen"
	"github.com/papercomputeco/uidsl/pkg/dsl"
	"github.com/papercomputeco/uidsl/pkg/patch"
	"github.com/papercomputeco/uidsl/pkg/registry"
	"github.com/papercomputeco/uidsl/pkg/revision"
	"github.com/papercomputeco/uidsl/pkg/session"
	"github.com/papercomputeco/uidsl/pkg/storage"
	"github.com/papercomputeco/uidsl/pkg/worker"
)

const tracerName = "github.com/papercomputeco/uidsl/pkg/studio"

// Revision metadata actions.
const (
	ActionPatch = "patch"
	ActionChat  = "chat"
	ActionUndo  = "undo"
	ActionRedo  = "redo"
)

var (
	// ErrNoDSL is returned when patches target a session without a tree and
	// no base tree was supplied.
	ErrNoDSL = errors.New("session has no dsl and no base dsl was given")

	// ErrMissingSessions and ErrMissingRevisions are returned by New.
	ErrMissingSessions  = errors.New("studio requires a session manager")
	ErrMissingRevisions = errors.New("studio requires a revision driver")
)

// Enqueuer accepts revision event jobs. *worker.Pool satisfies it.
type Enqueuer interface {
	Enqueue(job worker.Job) bool
}

// Config wires a Studio.
type Config struct {
	Sessions  *session.Manager
	Revisions storage.Driver

	// Registry holds the current component registry. Nil validates
	// without one.
	Registry *registry.Holder

	// Engine defaults to a patch engine reading from Registry.
	Engine *patch.Engine

	// Generator defaults to the reference TSX generator.
	Generator codegen.Generator

	Codegen    codegen.Options
	Validation registry.ValidateOptions

	// Events receives one job per committed revision. Optional.
	Events Enqueuer

	Logger *slog.Logger
	Tracer trace.Tracer
}

// Studio is the editing pipeline.
type Studio struct {
	sessions   *session.Manager
	revisions  storage.Driver
	registry   *registry.Holder
	engine     *patch.Engine
	generator  codegen.Generator
	codegen    codegen.Options
	validation registry.ValidateOptions
	events     Enqueuer
	logger     *slog.Logger
	tracer     trace.Tracer
}

// New creates a Studio.
func New(c Config) (*Studio, error) {
	if c.Sessions == nil {
		return nil, ErrMissingSessions
	}
	if c.Revisions == nil {
		return nil, ErrMissingRevisions
	}

	s := &Studio{
		sessions:   c.Sessions,
		revisions:  c.Revisions,
		registry:   c.Registry,
		engine:     c.Engine,
		generator:  c.Generator,
		codegen:    c.Codegen,
		validation: c.Validation,
		events:     c.Events,
		logger:     c.Logger,
		tracer:     c.Tracer,
	}
	if s.registry == nil {
		s.registry = registry.NewHolder(nil)
	}
	if s.engine == nil {
		s.engine = patch.NewEngine(patch.WithRegistryHolder(s.registry))
	}
	if s.generator == nil {
		s.generator = codegen.NewTSX()
	}
	if s.codegen.ComponentName == "" {
		s.codegen.ComponentName = codegen.DefaultComponentName
	}
	s.codegen.Validation = s.validation
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	return s, nil
}

// Sessions returns the session manager.
func (s *Studio) Sessions() *session.Manager {
	return s.sessions
}

// Revisions returns the revision driver.
func (s *Studio) Revisions() storage.Driver {
	return s.revisions
}

// Registry returns the current registry, which may be nil.
func (s *Studio) Registry() *registry.Registry {
	return s.registry.Get()
}

// Validate checks tree against the current registry.
func (s *Studio) Validate(ctx context.Context, tree *dsl.Node) registry.PageResult {
	_, span := s.tracer.Start(ctx, "studio.Validate")
	defer span.End()

	res := registry.ValidatePage(tree, s.registry.Get(), s.validation)
	span.SetAttributes(
		attribute.Bool("uidsl.valid", res.Valid),
		attribute.Int("uidsl.diagnostics", len(res.Diagnostics)),
	)
	return res
}

// Generate renders tree with the configured generator. Zero-valued fields
// of opts fall back to the studio's codegen options.
func (s *Studio) Generate(ctx context.Context, tree *dsl.Node, opts *codegen.Options) (string, error) {
	_, span := s.tracer.Start(ctx, "studio.Generate")
	defer span.End()

	o := s.codegen
	if opts != nil {
		o.IncludeImports = opts.IncludeImports
		if opts.ComponentName != "" {
			o.ComponentName = opts.ComponentName
		}
	}

	code, err := s.generator.Generate(tree, s.registry.Get(), o)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return code, nil
}

// Preview applies patches to tree without touching any session and
// validates the result.
func (s *Studio) Preview(ctx context.Context, tree *dsl.Node, patches []patch.Patch, generateInverse bool) (patch.Batch, registry.PageResult) {
	_, span := s.tracer.Start(ctx, "studio.Preview",
		trace.WithAttributes(attribute.Int("uidsl.patches", len(patches))),
	)
	defer span.End()

	batch := s.engine.ApplyAll(tree, patches, patch.ApplyOptions{GenerateInverse: generateInverse})
	page := registry.ValidatePage(batch.DSL, s.registry.Get(), s.validation)
	return batch, page
}

// now is the timestamp used for history entries.
func (s *Studio) now() time.Time {
	return s.sessions.Now()
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// enqueue hands a committed revision to the event pool.
func (s *Studio) enqueue(rev *revision.Revision) {
	if s.events == nil || rev == nil {
		return
	}
	s.events.Enqueue(worker.Job{Revision: rev})
}

// persist creates and stores a revision for tree on top of the session's
// current revision. A prior attempt's revision is reused when it has the
// same parent and content, so a retried session update stores one
// revision, not two.
func (s *Studio) persist(ctx context.Context, cs *session.ChatSession, prior *revision.Revision, tree *dsl.Node, code string, patches []patch.Patch, meta map[string]any) (*revision.Revision, error) {
	ctx, span := s.tracer.Start(ctx, "studio.persist")
	var err error
	defer func() { endSpan(span, err) }()

	hash, err := dsl.Hash(tree)
	if err != nil {
		return nil, fmt.Errorf("hashing dsl: %w", err)
	}
	if prior != nil && prior.Parent() == cs.CurrentRevisionID && prior.ContentHash == hash {
		return prior, nil
	}

	assetID := cs.CurrentAssetID
	if assetID == "" {
		assetID = revision.NewAssetID()
	}

	rev, err := revision.New(revision.Params{
		AssetID:  assetID,
		ParentID: cs.CurrentRevisionID,
		DSL:      tree,
		Code:     code,
		Patches:  patches,
		Metadata: meta,
	})
	if err != nil {
		return nil, fmt.Errorf("creating revision: %w", err)
	}

	if _, err = s.revisions.Put(ctx, rev); err != nil {
		return nil, fmt.Errorf("storing revision %s: %w", rev.ID, err)
	}
	span.SetAttributes(
		attribute.String("uidsl.revision", rev.ID),
		attribute.String("uidsl.asset", rev.AssetID),
	)
	return rev, nil
}
