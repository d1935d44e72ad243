package codegen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/papercomputeco/uidsl/pkg/dsl"
	"github.com/papercomputeco/uidsl/pkg/registry"
)

// structuralTags maps built-in kinds to the element they render as.
var structuralTags = map[string]string{
	dsl.KindPage:      "main",
	dsl.KindContainer: "div",
	dsl.KindText:      "p",
}

// contentProps are rendered as element content instead of attributes.
var contentProps = map[string]bool{
	"children": true,
}

const indentUnit = "  "

type renderer struct {
	reg     *registry.Registry
	imports *importSet
}

func (r *renderer) node(b *strings.Builder, n *dsl.Node, depth int) error {
	tag, content := r.tag(n)
	pad := strings.Repeat(indentUnit, depth)

	attrs, err := r.attributes(n, content)
	if err != nil {
		return err
	}

	text, hasText, err := r.textContent(n, content)
	if err != nil {
		return err
	}

	open := tag
	if len(attrs) > 0 {
		open += " " + strings.Join(attrs, " ")
	}

	if !hasText && len(n.Children) == 0 {
		fmt.Fprintf(b, "%s<%s />\n", pad, open)
		return nil
	}

	fmt.Fprintf(b, "%s<%s>\n", pad, open)
	if hasText {
		fmt.Fprintf(b, "%s%s{%s}\n", pad, indentUnit, text)
	}
	for i, child := range n.Children {
		if child == nil {
			return fmt.Errorf("%w: child %d of %q", ErrNullChild, i, n.ID)
		}
		if err := r.node(b, child, depth+1); err != nil {
			return err
		}
	}
	fmt.Fprintf(b, "%s</%s>\n", pad, tag)
	return nil
}

// tag returns the element name for n and the prop rendered as its content.
func (r *renderer) tag(n *dsl.Node) (string, string) {
	if tag, ok := structuralTags[n.Type]; ok {
		if n.Type == dsl.KindText {
			return tag, "text"
		}
		return tag, ""
	}

	name := n.ComponentName()
	spec, canonical, ok := r.reg.Resolve(name)
	if !ok {
		if forbidden, _ := r.reg.IsForbidden(name); forbidden {
			return strings.ToLower(name), ""
		}
		return name, ""
	}
	r.imports.add(spec.Import, canonical)
	return canonical, ""
}

func (r *renderer) attributes(n *dsl.Node, content string) ([]string, error) {
	attrs := []string{fmt.Sprintf("data-node-id=%s", quoteAttr(n.ID))}

	var spread map[string]any
	for _, key := range sortedKeys(n.Props) {
		if key == content || contentProps[key] {
			continue
		}
		if !identifierRE.MatchString(key) {
			if spread == nil {
				spread = make(map[string]any)
			}
			spread[key] = n.Props[key]
			continue
		}
		attr, err := attribute(key, n.Props[key])
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)
	}

	if len(n.Layout) > 0 {
		lit, err := literal(n.Layout)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, "style={"+lit+"}")
	}

	if spread != nil {
		lit, err := literal(spread)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, "{..."+lit+"}")
	}
	return attrs, nil
}

func (r *renderer) textContent(n *dsl.Node, content string) (string, bool, error) {
	key := content
	if key == "" {
		key = "children"
	}
	v, ok := n.Props[key]
	if !ok || v == nil {
		return "", false, nil
	}
	lit, err := literal(v)
	if err != nil {
		return "", false, err
	}
	return lit, true, nil
}

func attribute(key string, v any) (string, error) {
	if s, ok := v.(string); ok && plainString(s) {
		return key + "=" + quoteAttr(s), nil
	}
	lit, err := literal(v)
	if err != nil {
		return "", err
	}
	return key + "={" + lit + "}", nil
}

// literal renders a JSON value as a canonical JavaScript literal.
func literal(v any) (string, error) {
	b, err := dsl.CanonicalValue(v)
	if err != nil {
		return "", fmt.Errorf("codegen: encoding literal: %w", err)
	}
	return string(b), nil
}

// plainString reports whether s can be written as a quoted JSX attribute
// without escaping.
func plainString(s string) bool {
	return !strings.ContainsAny(s, "\"\\{}<>\n\r\t")
}

func quoteAttr(s string) string {
	if plainString(s) {
		return `"` + s + `"`
	}
	lit, err := literal(s)
	if err != nil {
		return `""`
	}
	return "{" + lit + "}"
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
