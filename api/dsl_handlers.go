package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/uidsl/pkg/codegen"
	"github.com/papercomputeco/uidsl/pkg/diagnostic"
	"github.com/papercomputeco/uidsl/pkg/dsl"
	"github.com/papercomputeco/uidsl/pkg/patch"
	"github.com/papercomputeco/uidsl/pkg/registry"
)

// PreviewRequest is the body of POST /dsl/patch.
type PreviewRequest struct {
	DSL             *dsl.Node     `json:"dsl"`
	Patches         []patch.Patch `json:"patches"`
	GenerateInverse bool          `json:"generateInverse,omitempty"`
}

// PreviewResponse is the result of applying patches without a session.
type PreviewResponse struct {
	DSL         *dsl.Node               `json:"dsl"`
	Valid       bool                    `json:"valid"`
	Applied     int                     `json:"applied"`
	Diagnostics []diagnostic.Diagnostic `json:"diagnostics"`
	Inverses    []patch.Patch           `json:"inversePatches,omitempty"`
}

// DSLRequest is the body of POST /dsl/validate.
type DSLRequest struct {
	DSL *dsl.Node `json:"dsl"`
}

// CodegenRequest is the body of POST /dsl/codegen.
type CodegenRequest struct {
	DSL     *dsl.Node        `json:"dsl"`
	Options *codegen.Options `json:"options,omitempty"`
}

// CodegenResponse carries generated code.
type CodegenResponse struct {
	Code string `json:"code"`
}

// BlockingResponse is returned when code generation refuses a tree.
type BlockingResponse struct {
	Error       string                  `json:"error"`
	Diagnostics []diagnostic.Diagnostic `json:"diagnostics"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handlePreviewPatches handles POST /dsl/patch.
func (s *Server) handlePreviewPatches(c *fiber.Ctx) error {
	var req PreviewRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.DSL == nil {
		return badRequest(c, "dsl is required")
	}

	batch, page := s.studio.Preview(c.Context(), req.DSL, req.Patches, req.GenerateInverse)

	diags := make([]diagnostic.Diagnostic, 0, len(batch.Diagnostics)+len(page.Diagnostics))
	diags = append(diags, batch.Diagnostics...)
	diags = append(diags, page.Diagnostics...)

	return c.JSON(PreviewResponse{
		DSL:         batch.DSL,
		Valid:       page.Valid && !diagnostic.HasErrors(batch.Diagnostics),
		Applied:     batch.AppliedCount(),
		Diagnostics: diags,
		Inverses:    batch.Inverses,
	})
}

// handleValidateDSL handles POST /dsl/validate.
func (s *Server) handleValidateDSL(c *fiber.Ctx) error {
	var req DSLRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.DSL == nil {
		return badRequest(c, "dsl is required")
	}

	return c.JSON(s.studio.Validate(c.Context(), req.DSL))
}

// handleCodegen handles POST /dsl/codegen.
func (s *Server) handleCodegen(c *fiber.Ctx) error {
	var req CodegenRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.DSL == nil {
		return badRequest(c, "dsl is required")
	}

	code, err := s.studio.Generate(c.Context(), req.DSL, req.Options)
	if err != nil {
		var blocking *codegen.BlockingError
		if errors.As(err, &blocking) {
			return s.fail(c, err)
		}
		return badRequest(c, err.Error())
	}

	return c.JSON(CodegenResponse{Code: code})
}

// handleValidateRegistry handles POST /registry/validate. The body is the
// registry document itself, as JSON or (with a yaml content type or
// ?format=yaml) YAML. Structural problems are reported in the result, not
// as a failed request.
func (s *Server) handleValidateRegistry(c *fiber.Ctx) error {
	format := registry.FormatJSON
	if strings.Contains(string(c.Request().Header.ContentType()), "yaml") || c.Query("format") == "yaml" {
		format = registry.FormatYAML
	}

	_, res, err := registry.Parse(c.Body(), format)
	if err != nil && !errors.Is(err, registry.ErrInvalidRegistry) {
		return badRequest(c, err.Error())
	}

	return c.JSON(res)
}
