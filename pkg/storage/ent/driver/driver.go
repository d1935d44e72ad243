// Package entdriver implements revision storage over database/sql using the
// ent dialect query builders, so SQLite and PostgreSQL share one code path.
package entdriver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/papercomputeco/uidsl/pkg/dsl"
	"github.com/papercomputeco/uidsl/pkg/patch"
	"github.com/papercomputeco/uidsl/pkg/revision"
	"github.com/papercomputeco/uidsl/pkg/storage"
)

// Table is the revisions table name.
const Table = "revisions"

var columns = []string{
	"id",
	"asset_id",
	"parent_id",
	"dsl",
	"code",
	"patches",
	"metadata",
	"content_hash",
	"created_at",
}

// EntDriver provides storage operations on a *sql.DB. It is
// database-agnostic and is embedded by the sqlite and postgres drivers.
type EntDriver struct {
	DB      *sql.DB
	Dialect string
}

// New wraps db for the given ent dialect (dialect.SQLite or
// dialect.Postgres). It does not create the schema; see Migrate.
func New(db *sql.DB, dialectName string) (*EntDriver, error) {
	switch dialectName {
	case dialect.SQLite, dialect.Postgres:
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialectName)
	}
	return &EntDriver{DB: db, Dialect: dialectName}, nil
}

// Migrate creates the revisions table and its indexes if they do not exist.
// The schema is append-only.
func (ed *EntDriver) Migrate(ctx context.Context) error {
	for _, stmt := range schema() {
		if _, err := ed.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// schema is shared by both dialects; JSON columns are stored as text.
func schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS revisions (
			id TEXT PRIMARY KEY,
			asset_id TEXT NOT NULL,
			parent_id TEXT,
			dsl TEXT NOT NULL,
			code TEXT NOT NULL,
			patches TEXT,
			metadata TEXT,
			content_hash TEXT NOT NULL,
			created_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_revisions_parent_id ON revisions(parent_id)`,
		`CREATE INDEX IF NOT EXISTS idx_revisions_asset_id ON revisions(asset_id, created_at)`,
	}
}

func (ed *EntDriver) builder() *entsql.DialectBuilder {
	return entsql.Dialect(ed.Dialect)
}

// Put stores a revision. Returns false when the id already exists.
func (ed *EntDriver) Put(ctx context.Context, rev *revision.Revision) (bool, error) {
	if rev == nil {
		return false, errors.New("cannot store nil revision")
	}

	values, err := encode(rev)
	if err != nil {
		return false, err
	}

	query, args := ed.builder().
		Insert(Table).
		Columns(columns...).
		Values(values...).
		OnConflict(entsql.ConflictColumns("id"), entsql.DoNothing()).
		Query()

	res, err := ed.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to insert revision: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	return n > 0, nil
}

// Get retrieves a revision by id.
func (ed *EntDriver) Get(ctx context.Context, id string) (*revision.Revision, error) {
	b := ed.builder()
	query, args := b.Select(columns...).
		From(b.Table(Table)).
		Where(entsql.EQ("id", id)).
		Query()

	revs, err := ed.query(ctx, query, args)
	if err != nil {
		return nil, err
	}
	if len(revs) == 0 {
		return nil, storage.NotFoundError{ID: id}
	}
	return revs[0], nil
}

// Has checks if a revision exists.
func (ed *EntDriver) Has(ctx context.Context, id string) (bool, error) {
	b := ed.builder()
	query, args := b.Select("id").
		From(b.Table(Table)).
		Where(entsql.EQ("id", id)).
		Limit(1).
		Query()

	var found string
	err := ed.DB.QueryRowContext(ctx, query, args...).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return true, nil
}

// Children returns the revisions whose parent is id, oldest first.
func (ed *EntDriver) Children(ctx context.Context, id string) ([]*revision.Revision, error) {
	b := ed.builder()
	query, args := b.Select(columns...).
		From(b.Table(Table)).
		Where(entsql.EQ("parent_id", id)).
		OrderBy("created_at", "id").
		Query()
	return ed.query(ctx, query, args)
}

// ListByAsset returns every revision of an asset, oldest first.
func (ed *EntDriver) ListByAsset(ctx context.Context, assetID string) ([]*revision.Revision, error) {
	b := ed.builder()
	query, args := b.Select(columns...).
		From(b.Table(Table)).
		Where(entsql.EQ("asset_id", assetID)).
		OrderBy("created_at", "id").
		Query()
	return ed.query(ctx, query, args)
}

// Heads returns the childless revisions of an asset.
func (ed *EntDriver) Heads(ctx context.Context, assetID string) ([]*revision.Revision, error) {
	revs, err := ed.ListByAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}
	return storage.Heads(revs), nil
}

// Ancestry returns the path from a revision back to its root.
func (ed *EntDriver) Ancestry(ctx context.Context, id string) ([]*revision.Revision, error) {
	return storage.Ancestry(ctx, ed, id)
}

// Depth returns the depth of a revision (0 for roots).
func (ed *EntDriver) Depth(ctx context.Context, id string) (int, error) {
	return storage.Depth(ctx, ed, id)
}

// Close closes the underlying database.
func (ed *EntDriver) Close() error {
	return ed.DB.Close()
}

func (ed *EntDriver) query(ctx context.Context, query string, args []any) ([]*revision.Revision, error) {
	rows, err := ed.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query revisions: %w", err)
	}
	defer rows.Close()

	revs := []*revision.Revision{}
	for rows.Next() {
		rev, err := scan(rows)
		if err != nil {
			return nil, err
		}
		revs = append(revs, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate revisions: %w", err)
	}
	return revs, nil
}

func encode(rev *revision.Revision) ([]any, error) {
	dslJSON, err := json.Marshal(rev.DSL)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal dsl: %w", err)
	}

	var patches, metadata any
	if len(rev.Patches) > 0 {
		b, err := json.Marshal(rev.Patches)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal patches: %w", err)
		}
		patches = string(b)
	}
	if len(rev.Metadata) > 0 {
		b, err := json.Marshal(rev.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metadata = string(b)
	}

	var parent any
	if rev.ParentID != nil {
		parent = *rev.ParentID
	}

	return []any{
		rev.ID,
		rev.AssetID,
		parent,
		string(dslJSON),
		rev.Code,
		patches,
		metadata,
		rev.ContentHash,
		rev.CreatedAt.UnixNano(),
	}, nil
}

func scan(rows *sql.Rows) (*revision.Revision, error) {
	var (
		rev       revision.Revision
		parent    sql.NullString
		dslJSON   string
		patches   sql.NullString
		metadata  sql.NullString
		createdAt int64
	)

	err := rows.Scan(
		&rev.ID,
		&rev.AssetID,
		&parent,
		&dslJSON,
		&rev.Code,
		&patches,
		&metadata,
		&rev.ContentHash,
		&createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan revision: %w", err)
	}

	if parent.Valid {
		rev.ParentID = &parent.String
	}
	rev.CreatedAt = time.Unix(0, createdAt).UTC()

	tree, err := dsl.Parse([]byte(dslJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal dsl for %s: %w", rev.ID, err)
	}
	rev.DSL = tree

	if patches.Valid && patches.String != "" {
		var ps []patch.Patch
		if err := json.Unmarshal([]byte(patches.String), &ps); err != nil {
			return nil, fmt.Errorf("failed to unmarshal patches for %s: %w", rev.ID, err)
		}
		rev.Patches = ps
	}
	if metadata.Valid && metadata.String != "" {
		var m map[string]any
		if err := json.Unmarshal([]byte(metadata.String), &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata for %s: %w", rev.ID, err)
		}
		rev.Metadata = m
	}
	return &rev, nil
}
