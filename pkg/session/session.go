// Package session holds per-conversation editing state: the current tree
// and generated code, the asset/revision it is bound to, and the message
// and patch histories that drive undo and redo.
package session

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/uidsl/pkg/dsl"
	"github.com/papercomputeco/uidsl/pkg/patch"
)

var (
	// ErrNothingToUndo is returned when the head is already at the base.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo is returned when no history entry follows the head.
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Base is the head value of a session whose tree is not the result of any
// history entry.
const Base = -1

// Role is the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// Intent is the classifier label attached to user turns.
	Intent string `json:"intent,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// PatchEntry records one applied patch with the trees on either side of it.
type PatchEntry struct {
	Patch       patch.Patch `json:"patch"`
	Description string      `json:"description,omitempty"`
	TargetID    string      `json:"targetId"`
	BeforeDSL   *dsl.Node   `json:"beforeDSL"`
	AfterDSL    *dsl.Node   `json:"afterDSL"`
	Timestamp   time.Time   `json:"timestamp"`

	// Parent is the index of the entry this one was applied on top of, or
	// Base.
	Parent int `json:"parent"`
}

// ChatSession is the state of one editing conversation.
type ChatSession struct {
	ID                string    `json:"id"`
	CurrentDSL        *dsl.Node `json:"currentDSL,omitempty"`
	CurrentCode       string    `json:"currentCode,omitempty"`
	CurrentAssetID    string    `json:"currentAssetId,omitempty"`
	CurrentRevisionID string    `json:"currentRevisionId,omitempty"`

	ConversationHistory []Message    `json:"conversationHistory"`
	PatchHistory        []PatchEntry `json:"patchHistory"`

	// Head is the index in PatchHistory that CurrentDSL corresponds to.
	Head int `json:"head"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// New returns an empty session.
func New(id string, now time.Time) *ChatSession {
	return &ChatSession{
		ID:                  id,
		ConversationHistory: []Message{},
		PatchHistory:        []PatchEntry{},
		Head:                Base,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// NewID mints a session id.
func NewID() string {
	return "session-" + uuid.NewString()
}

// Clone copies s. Trees are immutable values and are shared.
func (s *ChatSession) Clone() *ChatSession {
	if s == nil {
		return nil
	}
	out := *s
	out.ConversationHistory = append([]Message{}, s.ConversationHistory...)
	out.PatchHistory = append([]PatchEntry{}, s.PatchHistory...)
	return &out
}

// BindAsset points the session at a persisted revision. A nil tree or code
// leaves the cached value alone.
func (s *ChatSession) BindAsset(assetID, revisionID string, tree *dsl.Node, code *string) {
	s.CurrentAssetID = assetID
	s.CurrentRevisionID = revisionID
	if tree != nil {
		s.CurrentDSL = tree
	}
	if code != nil {
		s.CurrentCode = *code
	}
}

// AppendMessage adds a turn to the conversation.
func (s *ChatSession) AppendMessage(m Message) {
	s.ConversationHistory = append(s.ConversationHistory, m)
}

// AppendPatch records e on top of the current head and moves the head to
// it. Entries after the old head stay in the history so they remain
// reachable for audit.
func (s *ChatSession) AppendPatch(e PatchEntry) {
	e.Parent = s.Head
	if e.TargetID == "" {
		e.TargetID = e.Patch.TargetID
	}
	s.PatchHistory = append(s.PatchHistory, e)
	s.Head = len(s.PatchHistory) - 1
}

// RecentMessages returns the last n messages, oldest first.
func (s *ChatSession) RecentMessages(n int) []Message {
	if n <= 0 || n >= len(s.ConversationHistory) {
		return append([]Message{}, s.ConversationHistory...)
	}
	return append([]Message{}, s.ConversationHistory[len(s.ConversationHistory)-n:]...)
}

// CanUndo reports whether the head can move back.
func (s *ChatSession) CanUndo() bool {
	return s.Head > Base && s.Head < len(s.PatchHistory)
}

// CanRedo reports whether an entry was applied on top of the head.
func (s *ChatSession) CanRedo() bool {
	return s.redoTarget() != Base
}

// Undo restores the tree from before the head entry and returns that entry.
func (s *ChatSession) Undo() (PatchEntry, error) {
	if !s.CanUndo() {
		return PatchEntry{}, ErrNothingToUndo
	}
	e := s.PatchHistory[s.Head]
	s.CurrentDSL = e.BeforeDSL
	s.Head = e.Parent
	return e, nil
}

// Redo moves the head to the most recent entry applied on top of it and
// restores that entry's tree.
func (s *ChatSession) Redo() (PatchEntry, error) {
	i := s.redoTarget()
	if i == Base {
		return PatchEntry{}, ErrNothingToRedo
	}
	e := s.PatchHistory[i]
	s.CurrentDSL = e.AfterDSL
	s.Head = i
	return e, nil
}

func (s *ChatSession) redoTarget() int {
	for i := len(s.PatchHistory) - 1; i >= 0; i-- {
		if s.PatchHistory[i].Parent == s.Head {
			return i
		}
	}
	return Base
}

// Reset clears the tree, code, asset binding and both histories.
func (s *ChatSession) Reset() {
	s.CurrentDSL = nil
	s.CurrentCode = ""
	s.CurrentAssetID = ""
	s.CurrentRevisionID = ""
	s.ConversationHistory = []Message{}
	s.PatchHistory = []PatchEntry{}
	s.Head = Base
}
