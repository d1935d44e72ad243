// Package registry models the component registry: the catalog of components
// a UI-DSL tree may reference, with their props, variants and rules. It also
// validates registry documents and DSL pages against a registry.
package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// ErrInvalidRegistry is returned when a registry document fails structural
// validation. It is meant to halt startup rather than be handled per request.
var ErrInvalidRegistry = errors.New("invalid registry")

// Stability values.
const (
	StabilityStable       = "stable"
	StabilityExperimental = "experimental"
	StabilityDeprecated   = "deprecated"
)

// Registry is the component catalog.
type Registry struct {
	Version    string                   `json:"version" yaml:"version"`
	Components map[string]ComponentSpec `json:"components" yaml:"components"`
	Aliases    map[string]string        `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Rules      Rules                    `json:"rules,omitempty" yaml:"rules,omitempty"`
}

// ComponentSpec describes one component.
type ComponentSpec struct {
	// Import is the module specifier the component is imported from.
	Import string `json:"import" yaml:"import"`

	Props       map[string]PropSpec `json:"props,omitempty" yaml:"props,omitempty"`
	Variants    []Variant           `json:"variants,omitempty" yaml:"variants,omitempty"`
	Slots       []Slot              `json:"slots,omitempty" yaml:"slots,omitempty"`
	A11y        *A11y               `json:"a11y,omitempty" yaml:"a11y,omitempty"`
	Examples    []Example           `json:"examples,omitempty" yaml:"examples,omitempty"`
	Stability   string              `json:"stability,omitempty" yaml:"stability,omitempty"`
	Note        string              `json:"note,omitempty" yaml:"note,omitempty"`
	Description string              `json:"description,omitempty" yaml:"description,omitempty"`

	// CopyProp names the prop holding the component's text content, the
	// target of setCopy patches.
	CopyProp string `json:"copyProp,omitempty" yaml:"copyProp,omitempty"`
}

// PropSpec describes a component prop.
type PropSpec struct {
	Type        string   `json:"type,omitempty" yaml:"type,omitempty"`
	Required    bool     `json:"required,omitempty" yaml:"required,omitempty"`
	Default     any      `json:"default,omitempty" yaml:"default,omitempty"`
	Enum        []string `json:"enum,omitempty" yaml:"enum,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// Variant is a named visual variant.
type Variant struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Slot is a named child insertion point.
type Slot struct {
	Name     string `json:"name" yaml:"name"`
	Required bool   `json:"required,omitempty" yaml:"required,omitempty"`
}

// A11y carries accessibility metadata.
type A11y struct {
	Role  string `json:"role" yaml:"role"`
	Notes string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Example is a usage example.
type Example struct {
	Name string         `json:"name,omitempty" yaml:"name,omitempty"`
	Code string         `json:"code,omitempty" yaml:"code,omitempty"`
	DSL  map[string]any `json:"dsl,omitempty" yaml:"dsl,omitempty"`
}

// Rules restricts what a page may contain.
type Rules struct {
	// ForbiddenHTML lists raw elements (e.g. "div", "button") that must be
	// expressed through registry components instead.
	ForbiddenHTML []string `json:"forbiddenHtml,omitempty" yaml:"forbiddenHtml,omitempty"`

	// Preferred maps a raw element to the component that should replace it.
	Preferred map[string]string `json:"preferredComponents,omitempty" yaml:"preferredComponents,omitempty"`
}

// Resolve looks up a component by name, following one level of aliasing.
// It returns the component definition and the canonical component name.
func (r *Registry) Resolve(name string) (ComponentSpec, string, bool) {
	if r == nil || name == "" {
		return ComponentSpec{}, "", false
	}
	if spec, ok := r.Components[name]; ok {
		return spec, name, true
	}
	if target, ok := r.Aliases[name]; ok {
		if spec, ok := r.Components[target]; ok {
			return spec, target, true
		}
	}
	return ComponentSpec{}, "", false
}

// CopyProp returns the registry-declared copy prop for a component.
func (r *Registry) CopyProp(name string) (string, bool) {
	spec, _, ok := r.Resolve(name)
	if !ok || spec.CopyProp == "" {
		return "", false
	}
	return spec.CopyProp, true
}

// IsForbidden reports whether a raw element is forbidden, and the preferred
// replacement component if the rules name one. Element names compare
// case-insensitively in both lists.
func (r *Registry) IsForbidden(element string) (bool, string) {
	if r == nil {
		return false, ""
	}
	for _, f := range r.Rules.ForbiddenHTML {
		if strings.EqualFold(f, element) {
			return true, r.Rules.preferredFor(element)
		}
	}
	return false, ""
}

// preferredFor looks up the substitute for element. An exact key wins, then
// the lowercase key, then any key equal under case folding in sorted order.
func (rules Rules) preferredFor(element string) string {
	if p, ok := rules.Preferred[element]; ok {
		return p
	}
	if p, ok := rules.Preferred[strings.ToLower(element)]; ok {
		return p
	}
	keys := make([]string, 0, len(rules.Preferred))
	for k := range rules.Preferred {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.EqualFold(k, element) {
			return rules.Preferred[k]
		}
	}
	return ""
}

// ComponentNames returns the sorted component names.
func (r *Registry) ComponentNames() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.Components))
	for name := range r.Components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Format is a registry document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the document format from a file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load reads, validates and decodes a registry file.
func Load(path string) (*Registry, Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Result{}, fmt.Errorf("reading registry: %w", err)
	}
	return Parse(data, FormatFromPath(path))
}

// Parse validates and decodes a registry document. Structural errors are
// reported in the Result and wrapped in ErrInvalidRegistry.
func Parse(data []byte, format Format) (*Registry, Result, error) {
	doc, err := decodeDocument(data, format)
	if err != nil {
		return nil, Result{}, err
	}

	res := ValidateRegistry(doc)
	if !res.Valid {
		return nil, res, fmt.Errorf("%w: %s", ErrInvalidRegistry, res.Errors[0])
	}

	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, res, fmt.Errorf("encoding registry: %w", err)
	}

	reg := &Registry{}
	if err := json.Unmarshal(normalized, reg); err != nil {
		return nil, res, fmt.Errorf("decoding registry: %w", err)
	}
	return reg, res, nil
}

// decodeDocument decodes data into generic JSON values with json.Number
// numbers so that schema validation sees JSON-native types regardless of the
// source format.
func decodeDocument(data []byte, format Format) (any, error) {
	raw := data
	if format == FormatYAML {
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("parsing registry yaml: %w", err)
		}
		converted, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("converting registry yaml: %w", err)
		}
		raw = converted
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing registry json: %w", err)
	}
	return doc, nil
}

// Holder shares the current registry between request handlers and a
// Watcher that may swap it at any time.
type Holder struct {
	current atomic.Pointer[Registry]
}

// NewHolder creates a Holder for reg (which may be nil).
func NewHolder(reg *Registry) *Holder {
	h := &Holder{}
	h.current.Store(reg)
	return h
}

// Get returns the current registry, or nil when none is loaded.
func (h *Holder) Get() *Registry {
	if h == nil {
		return nil
	}
	return h.current.Load()
}

// Set replaces the current registry.
func (h *Holder) Set(reg *Registry) {
	h.current.Store(reg)
}
