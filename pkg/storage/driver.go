// Package storage persists revisions.
package storage

import (
	"context"

	"github.com/papercomputeco/uidsl/pkg/revision"
)

// Driver defines the interface for persisting and retrieving revisions.
// Revisions are immutable: drivers never update a stored revision.
//
// Driver satisfies revision.Loader, so a lineage can be loaded straight
// from any backend.
type Driver interface {
	// Put stores a revision. Returns true if the revision was newly inserted,
	// false if a revision with the same id already exists (a no-op).
	Put(ctx context.Context, rev *revision.Revision) (bool, error)

	// Get retrieves a revision by id.
	Get(ctx context.Context, id string) (*revision.Revision, error)

	// Has checks if a revision exists.
	Has(ctx context.Context, id string) (bool, error)

	// Children returns the revisions whose parent is id, oldest first.
	Children(ctx context.Context, id string) ([]*revision.Revision, error)

	// ListByAsset returns every revision of an asset, oldest first.
	ListByAsset(ctx context.Context, assetID string) ([]*revision.Revision, error)

	// Heads returns the revisions of an asset that have no children.
	Heads(ctx context.Context, assetID string) ([]*revision.Revision, error)

	// Ancestry returns the path from a revision back to its root (revision
	// first, root last).
	Ancestry(ctx context.Context, id string) ([]*revision.Revision, error)

	// Depth returns the number of ancestors of a revision (0 for roots).
	Depth(ctx context.Context, id string) (int, error)

	// Close releases any resources.
	Close() error
}

// Getter is the lookup Ancestry and Depth are built on.
type Getter interface {
	Get(ctx context.Context, id string) (*revision.Revision, error)
}

// Ancestry follows parent links from id to the root using g.
func Ancestry(ctx context.Context, g Getter, id string) ([]*revision.Revision, error) {
	var path []*revision.Revision
	seen := make(map[string]bool)
	current := id

	for {
		if seen[current] {
			return nil, CycleError{ID: current}
		}
		seen[current] = true

		rev, err := g.Get(ctx, current)
		if err != nil {
			return nil, err
		}
		path = append(path, rev)

		if rev.ParentID == nil {
			return path, nil
		}
		current = *rev.ParentID
	}
}

// Depth counts the ancestors of id using g.
func Depth(ctx context.Context, g Getter, id string) (int, error) {
	path, err := Ancestry(ctx, g, id)
	if err != nil {
		return 0, err
	}
	return len(path) - 1, nil
}

// Heads filters revs down to those that are nobody's parent.
func Heads(revs []*revision.Revision) []*revision.Revision {
	parents := make(map[string]bool, len(revs))
	for _, r := range revs {
		if r.ParentID != nil {
			parents[*r.ParentID] = true
		}
	}
	heads := []*revision.Revision{}
	for _, r := range revs {
		if !parents[r.ID] {
			heads = append(heads, r)
		}
	}
	return heads
}
