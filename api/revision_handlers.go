package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/uidsl/pkg/revision"
)

// HistoryResponse is the ancestry of a revision.
type HistoryResponse struct {
	// Revisions run from the root to the requested revision.
	Revisions []*revision.Revision `json:"revisions"`

	// HeadID is the revision that was requested.
	HeadID string `json:"headId"`

	// Depth is the number of ancestors of the head.
	Depth int `json:"depth"`
}

// RevisionsResponse lists revisions.
type RevisionsResponse struct {
	Count     int                  `json:"count"`
	Revisions []*revision.Revision `json:"revisions"`
}

// AssetRevisionsResponse lists an asset's revisions and its heads.
type AssetRevisionsResponse struct {
	AssetID   string               `json:"assetId"`
	Revisions []*revision.Revision `json:"revisions"`
	Heads     []string             `json:"heads"`
}

// handleGetRevision handles GET /revisions/:id.
func (s *Server) handleGetRevision(c *fiber.Ctx) error {
	rev, err := s.studio.Revisions().Get(c.Context(), c.Params("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(rev)
}

// handleRevisionHistory handles GET /revisions/:id/history.
func (s *Server) handleRevisionHistory(c *fiber.Ctx) error {
	id := c.Params("id")
	ancestry, err := s.studio.Revisions().Ancestry(c.Context(), id)
	if err != nil {
		return s.fail(c, err)
	}

	// Ancestry runs head first; the response is chronological.
	revs := make([]*revision.Revision, len(ancestry))
	for i, rev := range ancestry {
		revs[len(ancestry)-1-i] = rev
	}

	return c.JSON(HistoryResponse{
		Revisions: revs,
		HeadID:    id,
		Depth:     len(revs) - 1,
	})
}

// handleRevisionChildren handles GET /revisions/:id/children.
func (s *Server) handleRevisionChildren(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := s.studio.Revisions().Get(c.Context(), id); err != nil {
		return s.fail(c, err)
	}

	children, err := s.studio.Revisions().Children(c.Context(), id)
	if err != nil {
		return s.fail(c, err)
	}
	if children == nil {
		children = []*revision.Revision{}
	}
	return c.JSON(RevisionsResponse{Count: len(children), Revisions: children})
}

// handleAssetRevisions handles GET /assets/:id/revisions.
func (s *Server) handleAssetRevisions(c *fiber.Ctx) error {
	assetID := c.Params("id")
	revs, err := s.studio.Revisions().ListByAsset(c.Context(), assetID)
	if err != nil {
		return s.fail(c, err)
	}
	if len(revs) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "asset not found: " + assetID})
	}

	heads, err := s.studio.Revisions().Heads(c.Context(), assetID)
	if err != nil {
		return s.fail(c, err)
	}
	headIDs := make([]string, len(heads))
	for i, h := range heads {
		headIDs[i] = h.ID
	}

	return c.JSON(AssetRevisionsResponse{AssetID: assetID, Revisions: revs, Heads: headIDs})
}
