package registry

import (
	_ "embed"
	"errors"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed registry.schema.json
var schemaSource string

const schemaURL = "https://uidsl.papercompute.co/registry.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	errSchema      error
)

func registrySchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(schemaURL, strings.NewReader(schemaSource)); err != nil {
			errSchema = err
			return
		}
		compiledSchema, errSchema = compiler.Compile(schemaURL)
	})
	return compiledSchema, errSchema
}

// schemaIssues checks the document shape of the optional sections. The
// required fields and per-component rules are checked by hand so that their
// messages stay stable.
func schemaIssues(doc map[string]any) []Issue {
	schema, err := registrySchema()
	if err != nil {
		return []Issue{{Message: "registry schema: " + err.Error(), Level: LevelError}}
	}

	err = schema.Validate(doc)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []Issue{{Message: err.Error(), Level: LevelError}}
	}

	var issues []Issue
	collectLeaves(ve, &issues)
	return issues
}

func collectLeaves(ve *jsonschema.ValidationError, issues *[]Issue) {
	if len(ve.Causes) == 0 {
		*issues = append(*issues, Issue{
			Path:    pointerToPath(ve.InstanceLocation),
			Message: ve.Message,
			Level:   LevelError,
		})
		return
	}
	for _, cause := range ve.Causes {
		collectLeaves(cause, issues)
	}
}

// pointerToPath turns a JSON pointer ("/rules/forbiddenHtml/0") into the
// dotted form used by issues ("rules.forbiddenHtml[0]").
func pointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}
	var b strings.Builder
	for i, seg := range strings.Split(ptr, "/") {
		seg = strings.NewReplacer("~1", "/", "~0", "~").Replace(seg)
		if isIndex(seg) {
			b.WriteString("[" + seg + "]")
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
