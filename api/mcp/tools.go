package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/uidsl/pkg/diagnostic"
	"github.com/papercomputeco/uidsl/pkg/dsl"
	"github.com/papercomputeco/uidsl/pkg/patch"
	"github.com/papercomputeco/uidsl/pkg/studio"
)

var (
	applyPatchToolName    = "apply_patch"
	applyPatchDescription = "Apply UI-DSL patches. With a session_id the change is validated, rendered to code and committed to the session as a new revision when the page is valid. Without one the patches are applied to base_dsl and the result is returned without being stored."

	validateToolName    = "validate_dsl"
	validateDescription = "Validate a UI-DSL tree against the component registry and return its diagnostics."

	sessionStateToolName    = "session_state"
	sessionStateDescription = "Return a session's current UI-DSL tree, generated code, revision and most recent messages."
)

// PatchInput is the wire form of one patch.
type PatchInput struct {
	TargetID string         `json:"targetId" jsonschema:"id of the node to change"`
	Op       string         `json:"op" jsonschema:"one of setProp, setCopy, addNode, removeNode, toggleVariant, setToken"`
	Args     map[string]any `json:"args,omitempty" jsonschema:"operation arguments"`
}

// ApplyPatchInput represents the input arguments for the apply_patch tool.
type ApplyPatchInput struct {
	SessionID string         `json:"session_id,omitempty" jsonschema:"session to commit to; omit to preview against base_dsl"`
	Message   string         `json:"message,omitempty" jsonschema:"the user request the patches implement, recorded in the session conversation"`
	Patches   []PatchInput   `json:"patches" jsonschema:"patches to apply in order"`
	BaseDSL   map[string]any `json:"base_dsl,omitempty" jsonschema:"starting tree; required when the session has none"`
}

// ApplyPatchOutput represents the output of the apply_patch tool.
type ApplyPatchOutput struct {
	SessionID   string                  `json:"session_id,omitempty"`
	Committed   bool                    `json:"committed"`
	Applied     int                     `json:"applied"`
	RevisionID  string                  `json:"revision_id,omitempty"`
	DSL         map[string]any          `json:"dsl,omitempty"`
	Code        string                  `json:"code,omitempty"`
	Diagnostics []diagnostic.Diagnostic `json:"diagnostics"`
}

// ValidateInput represents the input arguments for the validate_dsl tool.
type ValidateInput struct {
	DSL map[string]any `json:"dsl" jsonschema:"the UI-DSL tree to validate"`
}

// ValidateOutput represents the output of the validate_dsl tool.
type ValidateOutput struct {
	Valid       bool                    `json:"valid"`
	Diagnostics []diagnostic.Diagnostic `json:"diagnostics"`
}

// SessionStateInput represents the input arguments for the session_state tool.
type SessionStateInput struct {
	SessionID string `json:"session_id" jsonschema:"the session to inspect"`
	Messages  int    `json:"messages,omitempty" jsonschema:"number of recent messages to return (default: 6)"`
}

// MessageOutput is one conversation message.
type MessageOutput struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SessionStateOutput represents the output of the session_state tool.
type SessionStateOutput struct {
	SessionID  string          `json:"session_id"`
	AssetID    string          `json:"asset_id,omitempty"`
	RevisionID string          `json:"revision_id,omitempty"`
	DSL        map[string]any  `json:"dsl,omitempty"`
	Code       string          `json:"code,omitempty"`
	Messages   []MessageOutput `json:"messages"`
	CanUndo    bool            `json:"can_undo"`
	CanRedo    bool            `json:"can_redo"`
}

// handleApplyPatch processes an apply_patch request.
func (s *Server) handleApplyPatch(ctx context.Context, _ *mcp.CallToolRequest, input ApplyPatchInput) (*mcp.CallToolResult, ApplyPatchOutput, error) {
	logger := s.config.Logger
	logger.Debug("MCP apply_patch request",
		"session", input.SessionID,
		"patches", len(input.Patches),
	)

	patches, err := toPatches(input.Patches)
	if err != nil {
		return errorResult(fmt.Sprintf("Invalid patches: %v", err)), ApplyPatchOutput{}, nil
	}

	var base *dsl.Node
	if input.BaseDSL != nil {
		if base, err = toNode(input.BaseDSL); err != nil {
			return errorResult(fmt.Sprintf("Invalid base_dsl: %v", err)), ApplyPatchOutput{}, nil
		}
	}

	if input.SessionID == "" {
		if base == nil {
			return errorResult("base_dsl is required without a session_id"), ApplyPatchOutput{}, nil
		}
		batch, page := s.config.Studio.Preview(ctx, base, patches, false)

		output := ApplyPatchOutput{
			Committed:   false,
			Applied:     batch.AppliedCount(),
			DSL:         fromNode(batch.DSL),
			Diagnostics: append(append([]diagnostic.Diagnostic{}, batch.Diagnostics...), page.Diagnostics...),
		}
		return jsonResult(output)
	}

	var out *studio.Outcome
	if input.Message != "" {
		out, err = s.config.Studio.Chat(ctx, input.SessionID, studio.ChatTurn{
			Message: input.Message,
			Patches: patches,
			BaseDSL: base,
		})
	} else {
		if _, err = s.config.Studio.Sessions().GetOrCreateSession(ctx, input.SessionID); err == nil {
			out, err = s.config.Studio.ApplyPatches(ctx, input.SessionID, patches, studio.PatchOptions{BaseDSL: base})
		}
	}
	if err != nil {
		logger.Error("MCP apply_patch failed", "session", input.SessionID, "error", err)
		return errorResult(fmt.Sprintf("Failed to apply patches: %v", err)), ApplyPatchOutput{}, nil
	}

	output := ApplyPatchOutput{
		SessionID:   input.SessionID,
		Committed:   out.Committed,
		Applied:     out.Applied,
		DSL:         fromNode(out.DSL),
		Code:        out.Code,
		Diagnostics: out.Diagnostics,
	}
	if out.Revision != nil {
		output.RevisionID = out.Revision.ID
	}
	return jsonResult(output)
}

// handleValidate processes a validate_dsl request.
func (s *Server) handleValidate(ctx context.Context, _ *mcp.CallToolRequest, input ValidateInput) (*mcp.CallToolResult, ValidateOutput, error) {
	tree, err := toNode(input.DSL)
	if err != nil {
		return errorResult(fmt.Sprintf("Invalid dsl: %v", err)), ValidateOutput{}, nil
	}

	res := s.config.Studio.Validate(ctx, tree)
	return jsonResult(ValidateOutput{Valid: res.Valid, Diagnostics: res.Diagnostics})
}

// handleSessionState processes a session_state request.
func (s *Server) handleSessionState(ctx context.Context, _ *mcp.CallToolRequest, input SessionStateInput) (*mcp.CallToolResult, SessionStateOutput, error) {
	sessions := s.config.Studio.Sessions()

	cs, err := sessions.GetSession(ctx, input.SessionID)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to load session: %v", err)), SessionStateOutput{}, nil
	}

	recent, err := sessions.RecentMessages(ctx, input.SessionID, input.Messages)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to load messages: %v", err)), SessionStateOutput{}, nil
	}

	msgs := make([]MessageOutput, len(recent))
	for i, m := range recent {
		msgs[i] = MessageOutput{Role: string(m.Role), Content: m.Content}
	}

	return jsonResult(SessionStateOutput{
		SessionID:  cs.ID,
		AssetID:    cs.CurrentAssetID,
		RevisionID: cs.CurrentRevisionID,
		DSL:        fromNode(cs.CurrentDSL),
		Code:       cs.CurrentCode,
		Messages:   msgs,
		CanUndo:    cs.CanUndo(),
		CanRedo:    cs.CanRedo(),
	})
}

// jsonResult returns output both as structured content and, per MCP
// convention, serialized in a TextContent block.
func jsonResult[T any](output T) (*mcp.CallToolResult, T, error) {
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		var zero T
		return errorResult(fmt.Sprintf("Failed to serialize results: %v", err)), zero, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}

func toPatches(in []PatchInput) ([]patch.Patch, error) {
	out := make([]patch.Patch, len(in))
	for i, p := range in {
		var args json.RawMessage
		if p.Args != nil {
			data, err := json.Marshal(p.Args)
			if err != nil {
				return nil, fmt.Errorf("patch %d: %w", i, err)
			}
			args = data
		}
		out[i] = patch.Patch{TargetID: p.TargetID, Op: patch.Op(p.Op), Args: args}
	}
	return out, nil
}

func toNode(m map[string]any) (*dsl.Node, error) {
	if m == nil {
		return nil, fmt.Errorf("tree is empty")
	}
	return dsl.FromValue(m)
}

func fromNode(n *dsl.Node) map[string]any {
	if n == nil {
		return nil
	}
	m, err := dsl.ToValue(n)
	if err != nil {
		return nil
	}
	return m
}
