// Package revision defines immutable, parent-linked snapshots of a DSL tree
// together with the source generated from it.
package revision

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/uidsl/pkg/dsl"
	"github.com/papercomputeco/uidsl/pkg/patch"
)

var (
	// ErrMissingDSL is returned when a revision is created without a tree.
	ErrMissingDSL = errors.New("revision requires a dsl tree")

	// ErrMissingAsset is returned when neither the params nor the parent
	// name the asset a revision belongs to.
	ErrMissingAsset = errors.New("revision requires an asset id")
)

// Well known metadata keys.
const (
	MetaAction  = "action"
	MetaSession = "sessionId"
	MetaSummary = "summary"
)

// Revision is one snapshot in an asset's history. Revisions are never
// modified after creation; each knows its parent but not its children.
type Revision struct {
	// ID is a fresh UUID.
	ID string `json:"revisionId"`

	// AssetID names the asset this revision belongs to.
	AssetID string `json:"assetId"`

	// ParentID links to the previous revision. Nil for the first revision of
	// an asset.
	ParentID *string `json:"parentRevisionId,omitempty"`

	DSL  *dsl.Node `json:"dslJson"`
	Code string    `json:"tsxCode"`

	// Patches are the patches that produced DSL from the parent's tree.
	Patches []patch.Patch `json:"patches,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`

	// ContentHash is the canonical hash of DSL.
	ContentHash string `json:"contentHash"`

	CreatedAt time.Time `json:"createdAt"`
}

// IsRoot reports whether r has no parent.
func (r *Revision) IsRoot() bool {
	return r.ParentID == nil
}

// Parent returns the parent id, or "" for roots.
func (r *Revision) Parent() string {
	if r.ParentID == nil {
		return ""
	}
	return *r.ParentID
}

// Params are the inputs to New.
type Params struct {
	AssetID string

	// Parent, when set, supplies the parent link and a default AssetID.
	Parent *Revision

	// ParentID links to a parent that is not loaded. Ignored when Parent is
	// set.
	ParentID string

	DSL      *dsl.Node
	Code     string
	Patches  []patch.Patch
	Metadata map[string]any

	// CreatedAt defaults to the current time.
	CreatedAt time.Time
}

// New creates a revision. It never touches the parent.
func New(p Params) (*Revision, error) {
	if p.DSL == nil {
		return nil, ErrMissingDSL
	}

	assetID := p.AssetID
	var parentID *string
	switch {
	case p.Parent != nil:
		id := p.Parent.ID
		parentID = &id
		if assetID == "" {
			assetID = p.Parent.AssetID
		}
	case p.ParentID != "":
		id := p.ParentID
		parentID = &id
	}
	if assetID == "" {
		return nil, ErrMissingAsset
	}

	hash, err := dsl.Hash(p.DSL)
	if err != nil {
		return nil, fmt.Errorf("hashing revision dsl: %w", err)
	}

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	return &Revision{
		ID:          uuid.NewString(),
		AssetID:     assetID,
		ParentID:    parentID,
		DSL:         p.DSL,
		Code:        p.Code,
		Patches:     p.Patches,
		Metadata:    p.Metadata,
		ContentHash: hash,
		CreatedAt:   createdAt,
	}, nil
}

// NewAssetID mints an id for a new asset.
func NewAssetID() string {
	return "asset-" + uuid.NewString()
}
