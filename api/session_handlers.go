package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/uidsl/pkg/dsl"
	"github.com/papercomputeco/uidsl/pkg/patch"
	"github.com/papercomputeco/uidsl/pkg/session"
	"github.com/papercomputeco/uidsl/pkg/studio"
)

// CreateSessionRequest is the optional body of POST /sessions.
type CreateSessionRequest struct {
	// ID picks the session id. A fresh id is minted when empty; an existing
	// session with the same id is returned as is.
	ID string `json:"id,omitempty"`
}

// ApplyPatchesRequest is the body of POST /sessions/:id/patches.
type ApplyPatchesRequest struct {
	Patches         []patch.Patch `json:"patches"`
	BaseDSL         *dsl.Node     `json:"baseDsl,omitempty"`
	GenerateInverse bool          `json:"generateInverse,omitempty"`
	Description     string        `json:"description,omitempty"`
}

// MessagesResponse is the body of GET /sessions/:id/messages.
type MessagesResponse struct {
	SessionID string            `json:"sessionId"`
	Messages  []session.Message `json:"messages"`
}

// handleCreateSession handles POST /sessions.
func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	var req CreateSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
	}

	var (
		cs  *session.ChatSession
		err error
	)
	if req.ID == "" {
		cs, err = s.studio.Sessions().NewSession(c.Context())
	} else {
		cs, err = s.studio.Sessions().GetOrCreateSession(c.Context(), req.ID)
	}
	if err != nil {
		return s.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(cs)
}

// handleGetSession handles GET /sessions/:id.
func (s *Server) handleGetSession(c *fiber.Ctx) error {
	cs, err := s.studio.Sessions().GetSession(c.Context(), c.Params("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(cs)
}

// handleDeleteSession handles DELETE /sessions/:id.
func (s *Server) handleDeleteSession(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := s.studio.Sessions().Delete(c.Context(), id); err != nil {
		return s.fail(c, err)
	}
	s.limiter.forget(id)
	return c.SendStatus(fiber.StatusNoContent)
}

// handleApplyPatches handles POST /sessions/:id/patches.
func (s *Server) handleApplyPatches(c *fiber.Ctx) error {
	var req ApplyPatchesRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if len(req.Patches) == 0 {
		return badRequest(c, "at least one patch is required")
	}

	out, err := s.studio.ApplyPatches(c.Context(), c.Params("id"), req.Patches, studio.PatchOptions{
		BaseDSL:         req.BaseDSL,
		GenerateInverse: req.GenerateInverse,
		Description:     req.Description,
	})
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(out)
}

// handleChat handles POST /sessions/:id/chat.
func (s *Server) handleChat(c *fiber.Ctx) error {
	var turn studio.ChatTurn
	if err := c.BodyParser(&turn); err != nil {
		return badRequest(c, "invalid request body")
	}
	if turn.Message == "" {
		return badRequest(c, "message is required")
	}

	out, err := s.studio.Chat(c.Context(), c.Params("id"), turn)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(out)
}

// handleRecentMessages handles GET /sessions/:id/messages?last=N.
func (s *Server) handleRecentMessages(c *fiber.Ctx) error {
	n := 0
	if last := c.Query("last"); last != "" {
		parsed, err := strconv.Atoi(last)
		if err != nil || parsed <= 0 {
			return badRequest(c, "last must be a positive integer")
		}
		n = parsed
	}

	id := c.Params("id")
	msgs, err := s.studio.Sessions().RecentMessages(c.Context(), id, n)
	if err != nil {
		return s.fail(c, err)
	}
	if msgs == nil {
		msgs = []session.Message{}
	}
	return c.JSON(MessagesResponse{SessionID: id, Messages: msgs})
}

// handleUndo handles POST /sessions/:id/undo.
func (s *Server) handleUndo(c *fiber.Ctx) error {
	out, err := s.studio.Undo(c.Context(), c.Params("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(out)
}

// handleRedo handles POST /sessions/:id/redo.
func (s *Server) handleRedo(c *fiber.Ctx) error {
	out, err := s.studio.Redo(c.Context(), c.Params("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(out)
}
