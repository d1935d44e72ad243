package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/papercomputeco/uidsl/pkg/dsl"
)

const (
	checkoutFile = "checkout.json"
)

// CheckoutState represents the persisted checkout state: a revision and
// the tree it holds, so offline commands do not need to reach the store.
type CheckoutState struct {
	// RevisionID is the id of the checked-out revision.
	RevisionID string `json:"revisionId"`

	// AssetID is the asset the revision belongs to.
	AssetID string `json:"assetId"`

	// SessionID optionally binds the checkout to a chat session.
	SessionID string `json:"sessionId,omitempty"`

	// DSL is the checked-out tree.
	DSL *dsl.Node `json:"dsl"`
}

// LoadCheckoutState loads the checkout state from a target .uidsl/checkout.json.
// Returns nil, nil if no checkout state exists.
// If overrideDir is non-empty, it is used instead of the default .uidsl/ location.
func (m *Manager) LoadCheckoutState(overrideDir string) (*CheckoutState, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, checkoutFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading checkout state: %w", err)
	}

	state := &CheckoutState{}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing checkout state: %w", err)
	}

	return state, nil
}

// SaveCheckout persists the checkout state to a target .uidsl/checkout.json.
func (m *Manager) SaveCheckout(state *CheckoutState, overrideDir string) error {
	if state == nil {
		return errors.New("cannot save nil checkout state")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling checkout state: %w", err)
	}

	path := filepath.Join(dir, checkoutFile)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing checkout state: %w", err)
	}

	return nil
}

// ClearCheckout removes the checkout state file.
// If overrideDir is non-empty, it is used instead of the default .uidsl/ location.
// Returns nil if the file doesn't exist (already cleared).
func (m *Manager) ClearCheckout(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, checkoutFile)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing checkout state: %w", err)
	}

	return nil
}
