package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Issue levels.
const (
	LevelError   = "error"
	LevelWarning = "warning"
)

// Issue is a single registry document problem.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Level   string `json:"level"`
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// Result is the outcome of ValidateRegistry.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

type collector struct {
	errors   []Issue
	warnings []Issue
}

func (c *collector) errorf(path, format string, args ...any) {
	c.errors = append(c.errors, Issue{Path: path, Message: fmt.Sprintf(format, args...), Level: LevelError})
}

func (c *collector) warnf(path, format string, args ...any) {
	c.warnings = append(c.warnings, Issue{Path: path, Message: fmt.Sprintf(format, args...), Level: LevelWarning})
}

func (c *collector) result() Result {
	res := Result{
		Valid:    len(c.errors) == 0,
		Errors:   c.errors,
		Warnings: c.warnings,
	}
	if res.Errors == nil {
		res.Errors = []Issue{}
	}
	if res.Warnings == nil {
		res.Warnings = []Issue{}
	}
	return res
}

// ValidateRegistryJSON decodes and validates a JSON registry document.
func ValidateRegistryJSON(data []byte) (Result, error) {
	doc, err := decodeDocument(data, FormatJSON)
	if err != nil {
		return Result{}, err
	}
	return ValidateRegistry(doc), nil
}

// ValidateRegistry checks a decoded registry document. Errors make the
// document unusable; warnings flag stale or incomplete metadata the system
// tolerates.
func ValidateRegistry(doc any) Result {
	c := &collector{}

	root, ok := doc.(map[string]any)
	if !ok {
		c.errorf("", "registry document must be an object")
		return c.result()
	}

	c.errors = append(c.errors, schemaIssues(root)...)

	switch v := root["version"].(type) {
	case nil:
		c.errorf("version", "version is required")
	case string:
		if _, err := semver.NewVersion(v); err != nil {
			c.warnf("version", "version %q is not a semantic version", v)
		}
	default:
		c.errorf("version", "version must be a string")
	}

	components, ok := root["components"].(map[string]any)
	switch {
	case root["components"] == nil:
		c.errorf("components", "components is required")
	case !ok:
		c.errorf("components", "components must be a mapping of name to component")
	default:
		for _, name := range sortedKeys(components) {
			validateComponent(c, "components."+name, components[name])
		}
	}

	if aliases, ok := root["aliases"].(map[string]any); ok {
		for _, alias := range sortedKeys(aliases) {
			target, _ := aliases[alias].(string)
			if target == "" {
				continue
			}
			if _, exists := components[target]; !exists {
				c.warnf("aliases."+alias, "alias target %q does not resolve to a component", target)
			}
		}
	}

	return c.result()
}

func validateComponent(c *collector, path string, raw any) {
	comp, ok := raw.(map[string]any)
	if !ok {
		c.errorf(path, "component must be an object")
		return
	}

	switch comp["import"].(type) {
	case nil:
		c.errorf(path+".import", "import is required")
	case string:
	default:
		c.errorf(path+".import", "import must be a string")
	}

	if rawVariants, present := comp["variants"]; present {
		variants, ok := rawVariants.([]any)
		if !ok {
			c.errorf(path+".variants", "variants must be a list")
		}
		for i, v := range variants {
			vp := fmt.Sprintf("%s.variants[%d]", path, i)
			entry, ok := v.(map[string]any)
			if !ok {
				c.errorf(vp, "variant must be an object")
				continue
			}
			if name, _ := entry["name"].(string); name == "" {
				c.errorf(vp+".name", "variant name is required")
			}
		}
	}

	if rawA11y, present := comp["a11y"]; present {
		a11y, ok := rawA11y.(map[string]any)
		if !ok {
			c.errorf(path+".a11y", "a11y must be an object")
		} else {
			if role, _ := a11y["role"].(string); role == "" {
				c.errorf(path+".a11y.role", "a11y.role is required")
			}
			if _, hasNotes := a11y["notes"]; !hasNotes {
				c.warnf(path+".a11y.notes", "a11y.notes is missing")
			}
		}
	}

	if rawStability, present := comp["stability"]; present {
		stability, _ := rawStability.(string)
		switch stability {
		case StabilityStable, StabilityExperimental:
		case StabilityDeprecated:
			note, _ := comp["note"].(string)
			desc, _ := comp["description"].(string)
			if strings.TrimSpace(note) == "" && strings.TrimSpace(desc) == "" {
				c.warnf(path, "deprecated component has no note or description")
			}
		default:
			c.errorf(path+".stability", "stability must be one of %s, %s, %s",
				StabilityStable, StabilityExperimental, StabilityDeprecated)
		}
	}

	if rawProps, present := comp["props"]; present {
		if _, ok := rawProps.(map[string]any); !ok {
			c.errorf(path+".props", "props must be a mapping of name to prop")
		}
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
