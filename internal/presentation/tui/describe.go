package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/parley/pkg/metamodel"
)

// DescribeTypes renders the non-value specs as a markdown document.
func DescribeTypes(specs []*metamodel.ObjectSpec) string {
	var sb strings.Builder
	sb.WriteString("# Types\n")
	for _, s := range specs {
		if s.Kind == metamodel.KindValue {
			continue
		}
		fmt.Fprintf(&sb, "\n## %s\n\n_%s_\n", s.LogicalTypeName, s.Kind)

		if len(s.Properties) > 0 {
			sb.WriteString("\n| Property | Type | |\n|---|---|---|\n")
			for _, p := range s.Properties {
				fmt.Fprintf(&sb, "| %s | %s | %s |\n", p.ID, p.TypeName, flags(p.Optional, p.Set == nil, p.Choices != nil))
			}
		}
		if len(s.Collections) > 0 {
			sb.WriteString("\n| Collection | Elements |\n|---|---|\n")
			for _, c := range s.Collections {
				fmt.Fprintf(&sb, "| %s | %s |\n", c.ID, c.ElementType)
			}
		}
		if len(s.Actions) > 0 {
			sb.WriteString("\n")
			for _, a := range s.Actions {
				fmt.Fprintf(&sb, "- **%s**(%s) → `%s` _%s_\n", a.ID, params(a.Params), a.ReturnType, a.Semantics)
			}
		}
	}
	return sb.String()
}

func params(ps []*metamodel.ParameterDescriptor) string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		t := p.TypeName
		if p.Plural {
			t = "[]" + t
		}
		s := p.ID + " " + t
		if p.Optional {
			s += "?"
		}
		out = append(out, s)
	}
	return strings.Join(out, ", ")
}

func flags(optional, readonly, choices bool) string {
	var out []string
	if optional {
		out = append(out, "optional")
	}
	if readonly {
		out = append(out, "readonly")
	}
	if choices {
		out = append(out, "choices")
	}
	return strings.Join(out, ", ")
}
