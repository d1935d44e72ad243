package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/uidsl/pkg/revision"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeRevisionCreated is emitted after a revision is persisted.
	EventTypeRevisionCreated = "uidsl.revision.created"
)

// RevisionCreatedEvent is a transport-neutral event payload for a persisted
// revision.
type RevisionCreatedEvent struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	EventID       string       `json:"event_id"`
	EmittedAt     time.Time    `json:"emitted_at"`
	Source        EventSource  `json:"source"`
	Revision      RevisionMeta `json:"revision"`
}

// EventSource identifies what produced the revision.
type EventSource struct {
	SessionID string `json:"session_id,omitempty"`

	// Action is the revision's metadata action: patch, chat, undo, redo.
	Action string `json:"action,omitempty"`
}

// RevisionMeta describes the revision without carrying its tree or code.
type RevisionMeta struct {
	RevisionID       string    `json:"revision_id"`
	AssetID          string    `json:"asset_id"`
	ParentRevisionID *string   `json:"parent_revision_id,omitempty"`
	ContentHash      string    `json:"content_hash"`
	CreatedAt        time.Time `json:"created_at"`
	Ops              []string  `json:"ops,omitempty"`
}

// NewRevisionCreatedEvent builds the event for rev.
func NewRevisionCreatedEvent(rev *revision.Revision, now time.Time) *RevisionCreatedEvent {
	ops := make([]string, 0, len(rev.Patches))
	for _, p := range rev.Patches {
		ops = append(ops, string(p.Op))
	}

	sessionID, _ := rev.Metadata[revision.MetaSession].(string)
	action, _ := rev.Metadata[revision.MetaAction].(string)

	return &RevisionCreatedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeRevisionCreated,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     now,
		Source: EventSource{
			SessionID: sessionID,
			Action:    action,
		},
		Revision: RevisionMeta{
			RevisionID:       rev.ID,
			AssetID:          rev.AssetID,
			ParentRevisionID: rev.ParentID,
			ContentHash:      rev.ContentHash,
			CreatedAt:        rev.CreatedAt,
			Ops:              ops,
		},
	}
}
