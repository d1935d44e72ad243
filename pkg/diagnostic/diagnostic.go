// Package diagnostic defines the finding shape shared by the patch engine,
// the page validator and code generation.
package diagnostic

import (
	"fmt"
	"strings"
)

// Level is the severity of a Diagnostic.
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// Structural patch error codes. These are always fatal to the single patch
// that produced them, never to the batch.
const (
	CodeTargetNotFound       = "TargetNotFound"
	CodeUnsupportedOperation = "UnsupportedOperation"
	CodeDuplicateID          = "DuplicateId"
	CodeCannotRemoveRoot     = "CannotRemoveRoot"
	CodeInvalidArgs          = "InvalidArgs"
)

// Page validation codes.
const (
	CodeInvalidComponent    = "INVALID_COMPONENT"
	CodeMissingRequiredProp = "MISSING_REQUIRED_PROP"
	CodeForbiddenElement    = "FORBIDDEN_ELEMENT"
	CodeInvalidRoot         = "INVALID_ROOT"
	CodeDuplicateNodeID     = "DUPLICATE_ID"
	CodeNullNode            = "NULL_NODE"
	CodeUnknownVariant      = "UNKNOWN_VARIANT"
	CodeUnknownProp         = "UNKNOWN_PROP"
)

// Diagnostic is a single finding.
type Diagnostic struct {
	Level   Level  `json:"level"`
	Code    string `json:"code"`
	Message string `json:"message"`

	// Path is a JSON-pointer-like location of the finding, when known.
	Path string `json:"path,omitempty"`

	// NodeID is the id of the DSL node the finding is about, when known.
	NodeID string `json:"nodeId,omitempty"`
}

func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %s", d.Level, d.Code, d.Message)
	if d.NodeID != "" {
		fmt.Fprintf(&b, " (node %s)", d.NodeID)
	}
	return b.String()
}

// Errorf builds an error-level diagnostic.
func Errorf(code, format string, args ...any) Diagnostic {
	return Diagnostic{Level: LevelError, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Warnf builds a warning-level diagnostic.
func Warnf(code, format string, args ...any) Diagnostic {
	return Diagnostic{Level: LevelWarning, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Infof builds an info-level diagnostic.
func Infof(code, format string, args ...any) Diagnostic {
	return Diagnostic{Level: LevelInfo, Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithNode returns a copy of d bound to the given node id and path.
func (d Diagnostic) WithNode(nodeID, path string) Diagnostic {
	d.NodeID = nodeID
	d.Path = path
	return d
}

// IsBlocking reports whether d must prevent code generation. Only unresolved
// components and missing required props block; everything else is advisory
// so a tree can converge through several individually impure edits.
func (d Diagnostic) IsBlocking() bool {
	if d.Level != LevelError {
		return false
	}
	return d.Code == CodeInvalidComponent || d.Code == CodeMissingRequiredProp
}

// Blocking returns the blocking subset of diags.
func Blocking(diags []Diagnostic) []Diagnostic {
	var out []Diagnostic
	for _, d := range diags {
		if d.IsBlocking() {
			out = append(out, d)
		}
	}
	return out
}

// HasErrors reports whether any diagnostic is error level.
func HasErrors(diags []Diagnostic) bool {
	return Count(diags, LevelError) > 0
}

// Count returns the number of diagnostics at the given level.
func Count(diags []Diagnostic, level Level) int {
	n := 0
	for _, d := range diags {
		if d.Level == level {
			n++
		}
	}
	return n
}

// HasCode reports whether any diagnostic carries code.
func HasCode(diags []Diagnostic, code string) bool {
	for _, d := range diags {
		if d.Code == code {
			return true
		}
	}
	return false
}
