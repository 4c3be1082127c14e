package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/parley/pkg/metamodel"
)

// GenerateMermaid produces a Mermaid class diagram from a list of specs.
// Value types are omitted unless a member refers to them, in which case
// they only appear as attribute types. Styling follows the kind:
//   - Entity: plain class
//   - View model: <<view_model>> stereotype
//   - Composite value: <<composite>> stereotype
//
// Collections become one-to-many associations; actions returning another
// entity become dotted dependencies.
func GenerateMermaid(specs []*metamodel.ObjectSpec) string {
	var sb strings.Builder
	sb.WriteString("classDiagram\n")

	known := make(map[string]bool)
	for _, s := range specs {
		if s.Kind != metamodel.KindValue {
			known[s.LogicalTypeName] = true
		}
	}

	for _, s := range specs {
		if !known[s.LogicalTypeName] {
			continue
		}
		safeID := sanitizeMermaidID(s.LogicalTypeName)

		sb.WriteString(fmt.Sprintf("    class %s[\"%s\"] {\n", safeID, s.LogicalTypeName))
		switch s.Kind {
		case metamodel.KindViewModel:
			sb.WriteString("        <<view_model>>\n")
		case metamodel.KindComposite:
			sb.WriteString("        <<composite>>\n")
		}
		for _, p := range s.Properties {
			sb.WriteString(fmt.Sprintf("        +%s %s\n", p.TypeName, p.ID))
		}
		for _, a := range s.Actions {
			params := make([]string, 0, len(a.Params))
			for _, p := range a.Params {
				t := p.TypeName
				if p.Plural {
					t += "[]"
				}
				params = append(params, t)
			}
			sb.WriteString(fmt.Sprintf("        +%s(%s) %s\n", a.ID, strings.Join(params, ", "), a.ReturnType))
		}
		sb.WriteString("    }\n")

		for _, c := range s.Collections {
			if known[c.ElementType] {
				sb.WriteString(fmt.Sprintf("    %s \"1\" --> \"*\" %s : %s\n", safeID, sanitizeMermaidID(c.ElementType), c.ID))
			}
		}
		for _, a := range s.Actions {
			if known[a.ReturnType] && a.ReturnType != s.LogicalTypeName {
				sb.WriteString(fmt.Sprintf("    %s ..> %s : %s\n", safeID, sanitizeMermaidID(a.ReturnType), a.ID))
			}
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
