package studio

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/papercomputeco/uidsl/pkg/diagnostic"
	"github.com/papercomputeco/uidsl/pkg/dsl"
	"github.com/papercomputeco/uidsl/pkg/patch"
	"github.com/papercomputeco/uidsl/pkg/registry"
	"github.com/papercomputeco/uidsl/pkg/revision"
	"github.com/papercomputeco/uidsl/pkg/session"
)

// PatchOptions configures ApplyPatches.
type PatchOptions struct {
	// BaseDSL replaces the session's tree as the starting point.
	BaseDSL *dsl.Node `json:"baseDsl,omitempty"`

	// GenerateInverse requests inverse patches in the outcome.
	GenerateInverse bool `json:"generateInverse,omitempty"`

	// Description is recorded on every history entry of the batch.
	Description string `json:"description,omitempty"`

	// Action is stored as the revision's metadata action. Defaults to
	// ActionPatch.
	Action string `json:"-"`
}

// Outcome is the result of a pipeline run against a session.
type Outcome struct {
	Session     *session.ChatSession    `json:"session"`
	DSL         *dsl.Node               `json:"dsl"`
	Code        string                  `json:"code"`
	Diagnostics []diagnostic.Diagnostic `json:"diagnostics"`
	Inverses    []patch.Patch           `json:"inversePatches,omitempty"`
	Revision    *revision.Revision      `json:"revision,omitempty"`

	// Applied counts the patches that applied without a structural error.
	Applied int `json:"applied"`

	// Committed reports whether the session moved to a new revision.
	Committed bool `json:"committed"`
}

// ApplyPatches applies patches to the session's tree inside the session's
// serialized update. The batch is committed only when at least one patch
// applied and the resulting page has no blocking diagnostics: code is
// regenerated, a revision is stored and the session records one history
// entry per applied patch. Otherwise the session keeps its previous tree
// and code and the outcome carries the diagnostics.
//
// Structural and validation problems are diagnostics, not errors. A Go
// error means the session was left untouched: unknown session, no tree,
// code generation or storage failure.
func (s *Studio) ApplyPatches(ctx context.Context, sessionID string, patches []patch.Patch, opts PatchOptions) (*Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "studio.ApplyPatches",
		trace.WithAttributes(
			attribute.String("uidsl.session", sessionID),
			attribute.Int("uidsl.patches", len(patches)),
		),
	)
	var err error
	defer func() { endSpan(span, err) }()

	action := opts.Action
	if action == "" {
		action = ActionPatch
	}

	var (
		out   *Outcome
		prior *revision.Revision
	)
	cs, err := s.sessions.Update(ctx, sessionID, func(cs *session.ChatSession) error {
		out = &Outcome{Diagnostics: []diagnostic.Diagnostic{}}

		base := opts.BaseDSL
		if base == nil {
			base = cs.CurrentDSL
		}
		if base == nil {
			return ErrNoDSL
		}

		_, applySpan := s.tracer.Start(ctx, "patch.ApplyAll")
		batch := s.engine.ApplyAll(base, patches, patch.ApplyOptions{GenerateInverse: opts.GenerateInverse})
		applySpan.SetAttributes(attribute.Int("uidsl.applied", batch.AppliedCount()))
		applySpan.End()

		out.Applied = batch.AppliedCount()
		out.Inverses = batch.Inverses
		out.Diagnostics = append(out.Diagnostics, batch.Diagnostics...)

		_, validateSpan := s.tracer.Start(ctx, "registry.ValidatePage")
		page := registry.ValidatePage(batch.DSL, s.registry.Get(), s.validation)
		validateSpan.SetAttributes(attribute.Bool("uidsl.valid", page.Valid))
		validateSpan.End()
		out.Diagnostics = append(out.Diagnostics, page.Diagnostics...)

		if out.Applied == 0 || len(page.Blocking()) > 0 {
			out.DSL = cs.CurrentDSL
			out.Code = cs.CurrentCode
			return nil
		}

		code, err := s.generate(ctx, batch.DSL)
		if err != nil {
			return err
		}

		applied := make([]patch.Patch, 0, out.Applied)
		for _, step := range batch.Steps {
			if step.Applied() {
				applied = append(applied, step.Patch)
			}
		}

		rev, err := s.persist(ctx, cs, prior, batch.DSL, code, applied, map[string]any{
			revision.MetaAction:  action,
			revision.MetaSession: sessionID,
			revision.MetaSummary: summarize(out.Applied, len(patches)),
		})
		if err != nil {
			return err
		}
		prior = rev

		now := s.now()
		for _, step := range batch.Steps {
			if !step.Applied() {
				continue
			}
			cs.AppendPatch(session.PatchEntry{
				Patch:       step.Patch,
				Description: opts.Description,
				BeforeDSL:   step.Before,
				AfterDSL:    step.After,
				Timestamp:   now,
			})
		}
		cs.BindAsset(rev.AssetID, rev.ID, batch.DSL, &code)

		out.DSL = batch.DSL
		out.Code = code
		out.Revision = rev
		out.Committed = true
		return nil
	})
	if err != nil {
		s.logger.Error("applying patches",
			"session", sessionID,
			"patches", len(patches),
			"error", err,
		)
		return nil, err
	}

	out.Session = cs
	if out.Committed {
		s.enqueue(out.Revision)
		s.logger.Info("revision committed",
			"session", sessionID,
			"revision", out.Revision.ID,
			"asset", out.Revision.AssetID,
			"applied", out.Applied,
		)
	} else {
		s.logger.Debug("patches not committed",
			"session", sessionID,
			"applied", out.Applied,
			"diagnostics", len(out.Diagnostics),
		)
	}
	span.SetAttributes(attribute.Bool("uidsl.committed", out.Committed))
	return out, nil
}

// ChatTurn is one user message with the patch intents the classifier
// produced for it.
type ChatTurn struct {
	Message string        `json:"message"`
	Intent  string        `json:"intent,omitempty"`
	Patches []patch.Patch `json:"patches"`

	// Reply overrides the assistant message recorded after the patches.
	Reply string `json:"reply,omitempty"`

	// BaseDSL seeds a session that has no tree yet.
	BaseDSL *dsl.Node `json:"baseDsl,omitempty"`
}

// Chat records the user's message, applies the turn's patches and records
// the assistant's reply. The session is created on first use.
func (s *Studio) Chat(ctx context.Context, sessionID string, turn ChatTurn) (*Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "studio.Chat",
		trace.WithAttributes(attribute.String("uidsl.session", sessionID)),
	)
	var err error
	defer func() { endSpan(span, err) }()

	if _, err = s.sessions.GetOrCreateSession(ctx, sessionID); err != nil {
		return nil, err
	}
	if _, err = s.sessions.AddMessageToHistory(ctx, sessionID, session.Message{
		Role:    session.RoleUser,
		Content: turn.Message,
		Intent:  turn.Intent,
	}); err != nil {
		return nil, err
	}

	var out *Outcome
	if len(turn.Patches) > 0 {
		out, err = s.ApplyPatches(ctx, sessionID, turn.Patches, PatchOptions{
			BaseDSL:     turn.BaseDSL,
			Description: turn.Message,
			Action:      ActionChat,
		})
		if err != nil && !errors.Is(err, ErrNoDSL) {
			return nil, err
		}
	}

	reply := turn.Reply
	if reply == "" {
		reply = replyFor(out, err)
	}

	cs, err := s.sessions.AddMessageToHistory(ctx, sessionID, session.Message{
		Role:    session.RoleAssistant,
		Content: reply,
	})
	if err != nil {
		return nil, err
	}

	if out == nil {
		out = &Outcome{DSL: cs.CurrentDSL, Code: cs.CurrentCode, Diagnostics: []diagnostic.Diagnostic{}}
	}
	out.Session = cs
	return out, nil
}

// Undo moves the session back one history entry and records the restored
// tree as a new revision.
func (s *Studio) Undo(ctx context.Context, sessionID string) (*Outcome, error) {
	return s.navigate(ctx, sessionID, ActionUndo, (*session.ChatSession).Undo)
}

// Redo moves the session forward one history entry and records the
// restored tree as a new revision.
func (s *Studio) Redo(ctx context.Context, sessionID string) (*Outcome, error) {
	return s.navigate(ctx, sessionID, ActionRedo, (*session.ChatSession).Redo)
}

func (s *Studio) navigate(ctx context.Context, sessionID, action string, move func(*session.ChatSession) (session.PatchEntry, error)) (*Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "studio."+action,
		trace.WithAttributes(attribute.String("uidsl.session", sessionID)),
	)
	var err error
	defer func() { endSpan(span, err) }()

	var (
		out   *Outcome
		prior *revision.Revision
	)
	cs, err := s.sessions.Update(ctx, sessionID, func(cs *session.ChatSession) error {
		entry, err := move(cs)
		if err != nil {
			return err
		}

		tree := cs.CurrentDSL
		code, err := s.generate(ctx, tree)
		if err != nil {
			return err
		}

		rev, err := s.persist(ctx, cs, prior, tree, code, nil, map[string]any{
			revision.MetaAction:  action,
			revision.MetaSession: sessionID,
			revision.MetaSummary: fmt.Sprintf("%s %s on %s", action, entry.Patch.Op, entry.TargetID),
		})
		if err != nil {
			return err
		}
		prior = rev
		cs.BindAsset(rev.AssetID, rev.ID, tree, &code)

		out = &Outcome{
			DSL:         tree,
			Code:        code,
			Diagnostics: []diagnostic.Diagnostic{},
			Revision:    rev,
			Committed:   true,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out.Session = cs
	s.enqueue(out.Revision)
	s.logger.Info("session "+action,
		"session", sessionID,
		"revision", out.Revision.ID,
		"head", cs.Head,
	)
	return out, nil
}

func (s *Studio) generate(ctx context.Context, tree *dsl.Node) (string, error) {
	_, span := s.tracer.Start(ctx, "codegen.Generate")
	code, err := s.generator.Generate(tree, s.registry.Get(), s.codegen)
	endSpan(span, err)
	if err != nil {
		return "", fmt.Errorf("generating code: %w", err)
	}
	return code, nil
}

func summarize(applied, total int) string {
	return fmt.Sprintf("applied %d of %d patches", applied, total)
}

func replyFor(out *Outcome, err error) string {
	switch {
	case errors.Is(err, ErrNoDSL):
		return "There is no page to edit yet."
	case out == nil:
		return "No changes requested."
	case out.Committed:
		return fmt.Sprintf("Done: %s.", summarizeOutcome(out))
	case out.Applied == 0:
		return "I couldn't apply that change."
	default:
		return "That change would leave the page invalid, so I kept the previous version."
	}
}

func summarizeOutcome(out *Outcome) string {
	if out.Applied == 1 {
		return "applied 1 change"
	}
	return fmt.Sprintf("applied %d changes", out.Applied)
}
