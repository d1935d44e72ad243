package codegen

import (
	"sort"
	"strings"
)

// importSet collects named imports grouped by module.
type importSet struct {
	modules map[string]map[string]struct{}
}

func newImportSet() *importSet {
	return &importSet{modules: make(map[string]map[string]struct{})}
}

func (s *importSet) add(module, name string) {
	if module == "" || name == "" {
		return
	}
	names, ok := s.modules[module]
	if !ok {
		names = make(map[string]struct{})
		s.modules[module] = names
	}
	names[name] = struct{}{}
}

// render emits one import line per module, modules and names sorted.
func (s *importSet) render() string {
	modules := make([]string, 0, len(s.modules))
	for m := range s.modules {
		modules = append(modules, m)
	}
	sort.Strings(modules)

	var b strings.Builder
	for _, m := range modules {
		names := make([]string, 0, len(s.modules[m]))
		for n := range s.modules[m] {
			names = append(names, n)
		}
		sort.Strings(names)
		b.WriteString("import { " + strings.Join(names, ", ") + " } from \"" + m + "\";\n")
	}
	return b.String()
}
