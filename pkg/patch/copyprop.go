package patch

import "github.com/papercomputeco/uidsl/pkg/dsl"

// defaultCopyProps maps well known component names (and the text kind) to
// the prop holding their copy, for when the registry does not say.
var defaultCopyProps = map[string]string{
	"Button":    "label",
	"Badge":     "label",
	"Link":      "label",
	"Tab":       "label",
	"Heading":   "text",
	"Text":      "text",
	"Paragraph": "text",
	"Label":     "text",
	"Alert":     "title",
	"Card":      "title",
	"Input":     "placeholder",
	"Textarea":  "placeholder",

	dsl.KindText: "text",
}

// copyPropCandidates are checked in order against the node's existing props.
var copyPropCandidates = []string{"label", "text", "title", "children"}

const fallbackCopyProp = "label"

// copyProp resolves which prop setCopy writes for n: the registry's
// copyProp, then the default map, then a copy-like prop the node already
// has, then "label".
func (e *Engine) copyProp(n *dsl.Node) string {
	name := n.ComponentName()
	if name == "" {
		name = n.Type
	}

	reg := e.registry()
	if prop, ok := reg.CopyProp(name); ok {
		return prop
	}
	if _, canonical, ok := reg.Resolve(name); ok {
		name = canonical
	}
	if prop, ok := defaultCopyProps[name]; ok {
		return prop
	}

	for _, candidate := range copyPropCandidates {
		if _, ok := n.Props[candidate]; ok {
			return candidate
		}
	}
	return fallbackCopyProp
}
