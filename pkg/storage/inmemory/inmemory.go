// Package inmemory provides a map-backed storage driver.
package inmemory

import (
	"context"
	"errors"
	"sync"

	"github.com/papercomputeco/uidsl/pkg/revision"
	"github.com/papercomputeco/uidsl/pkg/storage"
)

// Driver implements storage.Driver using in-memory maps.
type Driver struct {
	// mu guards every map below
	mu sync.RWMutex

	// revisions maps revision id to revision
	revisions map[string]*revision.Revision

	// children is the parent id -> child ids index
	children map[string][]string

	// assets maps asset id to revision ids in insertion order
	assets map[string][]string
}

// NewDriver creates a new in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		revisions: make(map[string]*revision.Revision),
		children:  make(map[string][]string),
		assets:    make(map[string][]string),
	}
}

// Put stores a revision. Returns false if the id is already stored.
func (d *Driver) Put(_ context.Context, rev *revision.Revision) (bool, error) {
	if rev == nil {
		return false, errors.New("cannot store nil revision")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.revisions[rev.ID]; ok {
		return false, nil
	}

	d.revisions[rev.ID] = rev
	if rev.ParentID != nil {
		d.children[*rev.ParentID] = append(d.children[*rev.ParentID], rev.ID)
	}
	d.assets[rev.AssetID] = append(d.assets[rev.AssetID], rev.ID)
	return true, nil
}

// Get retrieves a revision by id.
func (d *Driver) Get(_ context.Context, id string) (*revision.Revision, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rev, ok := d.revisions[id]
	if !ok {
		return nil, storage.NotFoundError{ID: id}
	}
	return rev, nil
}

// Has checks if a revision exists.
func (d *Driver) Has(_ context.Context, id string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	_, ok := d.revisions[id]
	return ok, nil
}

// Children returns the revisions whose parent is id.
func (d *Driver) Children(_ context.Context, id string) ([]*revision.Revision, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.collect(d.children[id]), nil
}

// ListByAsset returns every revision of an asset.
func (d *Driver) ListByAsset(_ context.Context, assetID string) ([]*revision.Revision, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.collect(d.assets[assetID]), nil
}

// Heads returns the childless revisions of an asset.
func (d *Driver) Heads(ctx context.Context, assetID string) ([]*revision.Revision, error) {
	revs, err := d.ListByAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}
	return storage.Heads(revs), nil
}

// Ancestry returns the path from a revision back to its root.
func (d *Driver) Ancestry(ctx context.Context, id string) ([]*revision.Revision, error) {
	return storage.Ancestry(ctx, d, id)
}

// Depth returns the depth of a revision (0 for roots).
func (d *Driver) Depth(ctx context.Context, id string) (int, error) {
	return storage.Depth(ctx, d, id)
}

// Count returns the number of stored revisions.
func (d *Driver) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.revisions)
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}

// collect resolves ids in creation order. Callers hold mu.
func (d *Driver) collect(ids []string) []*revision.Revision {
	out := make([]*revision.Revision, 0, len(ids))
	for _, id := range ids {
		out = append(out, d.revisions[id])
	}
	revision.SortByCreation(out)
	return out
}
