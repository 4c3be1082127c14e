package tui_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/parley/internal/presentation/tui"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/metamodel"
)

func TestDescribeTypes(t *testing.T) {
	specs := []*metamodel.ObjectSpec{
		{LogicalTypeName: "int", Kind: metamodel.KindValue},
		{
			LogicalTypeName: "shop.Customer",
			Kind:            metamodel.KindEntity,
			Properties: []*metamodel.PropertyDescriptor{
				{ID: "frozen", TypeName: "bool"},
				{ID: "nick", TypeName: "string", Optional: true, Set: func(o, v any) (any, error) { return o, nil }},
			},
			Collections: []*metamodel.CollectionDescriptor{{ID: "orders", ElementType: "shop.Order"}},
			Actions: []*metamodel.ActionDescriptor{{
				ID: "placeOrder", ReturnType: "shop.Order", Semantics: domain.SemanticsNonIdempotent,
				Params: []*metamodel.ParameterDescriptor{{ID: "product", TypeName: "string"}, {ID: "tags", TypeName: "string", Plural: true, Optional: true}},
			}},
		},
	}

	md := tui.DescribeTypes(specs)

	assert.NotContains(t, md, "## int")
	assert.Contains(t, md, "## shop.Customer")
	assert.Contains(t, md, "| frozen | bool | readonly |")
	assert.Contains(t, md, "| nick | string | optional |")
	assert.Contains(t, md, "| orders | shop.Order |")
	assert.Contains(t, md, "**placeOrder**(product string, tags []string?)")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf)
	assert.Contains(t, buf.String(), "|___/")
}
