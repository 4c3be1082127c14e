package graph_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/parley/internal/presentation/graph"
	"github.com/aretw0/parley/pkg/metamodel"
)

func TestGenerateMermaid(t *testing.T) {
	order := &metamodel.ObjectSpec{
		LogicalTypeName: "shop.Order",
		Kind:            metamodel.KindEntity,
		Properties:      []*metamodel.PropertyDescriptor{{ID: "quantity", TypeName: "int"}},
	}
	customer := &metamodel.ObjectSpec{
		LogicalTypeName: "shop.Customer",
		Kind:            metamodel.KindEntity,
		Collections:     []*metamodel.CollectionDescriptor{{ID: "orders", ElementType: "shop.Order"}},
		Actions: []*metamodel.ActionDescriptor{
			{ID: "placeOrder", ReturnType: "shop.Order", Params: []*metamodel.ParameterDescriptor{{TypeName: "string"}, {TypeName: "int"}}},
			{ID: "merge", ReturnType: "shop.Customer", Params: []*metamodel.ParameterDescriptor{{TypeName: "shop.Order", Plural: true}}},
		},
	}
	filter := &metamodel.ObjectSpec{LogicalTypeName: "shop.Filter", Kind: metamodel.KindViewModel}
	str := &metamodel.ObjectSpec{LogicalTypeName: "string", Kind: metamodel.KindValue}

	tests := []struct {
		name     string
		specs    []*metamodel.ObjectSpec
		contains []string
		excludes []string
	}{
		{
			name:     "Class With Attributes",
			specs:    []*metamodel.ObjectSpec{order},
			contains: []string{"class shop_Order[\"shop.Order\"] {", "+int quantity"},
		},
		{
			name:  "Associations",
			specs: []*metamodel.ObjectSpec{customer, order},
			contains: []string{
				"shop_Customer \"1\" --> \"*\" shop_Order : orders",
				"shop_Customer ..> shop_Order : placeOrder",
				"+placeOrder(string, int) shop.Order",
				"+merge(shop.Order[]) shop.Customer",
			},
			excludes: []string{"shop_Customer ..> shop_Customer"},
		},
		{
			name:     "Unknown Targets Are Not Linked",
			specs:    []*metamodel.ObjectSpec{customer},
			excludes: []string{"-->", "..>"},
		},
		{
			name:     "Stereotypes And Values",
			specs:    []*metamodel.ObjectSpec{filter, str},
			contains: []string{"<<view_model>>"},
			excludes: []string{"class string"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := graph.GenerateMermaid(tt.specs)
			assert.True(t, strings.HasPrefix(out, "classDiagram\n"))
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}
