package dsl_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/dsl"
	"github.com/aretw0/parley/pkg/managed"
	"github.com/aretw0/parley/pkg/metamodel"
)

type Library struct {
	Name   string
	Closed bool
	Books  []*Book
}

type Book struct {
	Title  string
	Copies int
}

var catalogue = []any{"Dune", "Emma", "Ulysses"}

func library(t *testing.T) *parley.Framework {
	t.Helper()
	b := dsl.New()

	lib := dsl.Entity[*Library](b, "lib.Library").
		Title(func(l *Library) string { return fmt.Sprintf("%s (%d books)", l.Name, len(l.Books)) })

	lib.Property("name", "string", func(l *Library) any { return l.Name }).
		Set(func(l *Library, v any) (*Library, error) { l.Name = v.(string); return l, nil }).
		DisabledWhen(func(l *Library) bool { return l.Closed }, "library is closed").
		Validate(func(_ *Library, v any) string {
			if strings.TrimSpace(v.(string)) == "" {
				return "name is required"
			}
			return ""
		})

	lib.Collection("books", "lib.Book", func(l *Library) []any {
		out := make([]any, len(l.Books))
		for i, bk := range l.Books {
			out[i] = bk
		}
		return out
	}).HiddenWhen(func(l *Library) bool { return l.Closed }, "library is closed")

	acquire := lib.Action("acquire", "lib.Book").
		Validate(func(_ *Library, args []any) string {
			if args[0] == "Ulysses" && args[1].(int) > 1 {
				return "one Ulysses is enough"
			}
			return ""
		}).
		Invoke(func(l *Library, args []any) (any, error) {
			bk := &Book{Title: args[0].(string), Copies: args[1].(int)}
			l.Books = append(l.Books, bk)
			return bk, nil
		})
	acquire.Param("title", "string").
		AutoComplete(1, func(_ *Library, search string) []any {
			var out []any
			for _, c := range catalogue {
				if strings.HasPrefix(c.(string), search) {
					out = append(out, c)
				}
			}
			return out
		})
	acquire.Param("copies", "int").
		Default(func(_ *Library, earlier []any) any {
			if earlier[0] == nil {
				return 1
			}
			return len(earlier[0].(string))
		}).
		Validate(func(_ *Library, v any) string {
			if v.(int) <= 0 {
				return "copies must be positive"
			}
			return ""
		})

	lib.Action("count", "int").
		Semantics(domain.SemanticsSafe).
		Invoke(func(l *Library, args []any) (any, error) {
			total := 0
			for _, v := range args[0].([]any) {
				total += v.(*Book).Copies
			}
			return total, nil
		}).
		Param("books", "lib.Book").Plural()

	book := dsl.Entity[*Book](b, "lib.Book").Title(func(bk *Book) string { return bk.Title })
	book.Property("copies", "int", func(bk *Book) any { return bk.Copies })

	reg, err := b.Build()
	require.NoError(t, err)
	fw, err := parley.New(reg)
	require.NoError(t, err)
	return fw
}

func TestBuild(t *testing.T) {
	fw := library(t)

	spec, ok := fw.Registry().Spec("lib.Library")
	require.True(t, ok)
	assert.Equal(t, metamodel.KindEntity, spec.Kind)
	assert.Len(t, spec.Properties, 1)

	acquire, ok := spec.Action("acquire")
	require.True(t, ok)
	assert.Equal(t, domain.SemanticsNonIdempotent, acquire.Semantics)
	assert.True(t, acquire.Params[0].HasAutoComplete())
	assert.Equal(t, 1, acquire.Params[1].Index)

	count, _ := spec.Action("count")
	assert.True(t, count.Params[0].Plural)
}

func TestBuild_Duplicate(t *testing.T) {
	b := dsl.New()
	dsl.Entity[*Library](b, "lib.Library")
	dsl.ViewModel[Book](b, "lib.Library")

	_, err := b.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
	assert.Panics(t, func() { b.MustBuild() })
}

func TestProperty(t *testing.T) {
	fw := library(t)
	ctx := context.Background()

	t.Run("Validate", func(t *testing.T) {
		owner, err := fw.Adapt(&Library{Name: "City"})
		require.NoError(t, err)
		pi := fw.Property(ctx, owner, "name", domain.WhereObjectForms).
			CheckUsability(ctx).
			ModifyProperty(ctx, func(p *managed.Property) metamodel.ManagedObject {
				return metamodel.Of(p.ElementSpec(), "  ")
			})
		veto, vetoed := pi.Veto()
		require.True(t, vetoed)
		assert.Equal(t, domain.VetoInvalid, veto.Type())
		assert.Equal(t, "name is required", veto.ReasonAsString())
	})

	t.Run("Set", func(t *testing.T) {
		l := &Library{Name: "City"}
		owner, err := fw.Adapt(l)
		require.NoError(t, err)
		pi := fw.Property(ctx, owner, "name", domain.WhereObjectForms).
			CheckUsability(ctx).
			ModifyProperty(ctx, func(p *managed.Property) metamodel.ManagedObject {
				return metamodel.Of(p.ElementSpec(), "Town")
			})
		_, vetoed := pi.Veto()
		assert.False(t, vetoed)
		assert.Equal(t, "Town", l.Name)
	})

	t.Run("Disabled", func(t *testing.T) {
		owner, err := fw.Adapt(&Library{Name: "City", Closed: true})
		require.NoError(t, err)
		veto, vetoed := fw.Property(ctx, owner, "name", domain.WhereObjectForms).CheckUsability(ctx).Veto()
		require.True(t, vetoed)
		assert.Equal(t, domain.VetoReadOnly, veto.Type())
		assert.Equal(t, "library is closed", veto.ReasonAsString())
	})

	t.Run("Read Only Without Setter", func(t *testing.T) {
		owner, err := fw.Adapt(&Book{Title: "Emma", Copies: 2})
		require.NoError(t, err)
		veto, vetoed := fw.Property(ctx, owner, "copies", domain.WhereObjectForms).
			ModifyProperty(ctx, func(p *managed.Property) metamodel.ManagedObject {
				return metamodel.Of(p.ElementSpec(), 3)
			}).
			Veto()
		require.True(t, vetoed)
		assert.Equal(t, domain.VetoReadOnly, veto.Type())
	})
}

func TestCollection_Hidden(t *testing.T) {
	fw := library(t)
	ctx := context.Background()
	owner, err := fw.Adapt(&Library{Closed: true, Books: []*Book{{Title: "Emma"}}})
	require.NoError(t, err)

	ci := fw.Collection(ctx, owner, "books", domain.WhereObjectForms).CheckVisibility(ctx)
	veto, vetoed := ci.Veto()
	require.True(t, vetoed)
	assert.Equal(t, domain.VetoHidden, veto.Type())

	n := 0
	for range ci.StreamElements(ctx) {
		n++
	}
	assert.Zero(t, n)
}

func TestAction(t *testing.T) {
	fw := library(t)
	ctx := context.Background()
	l := &Library{Name: "City"}
	owner, err := fw.Adapt(l)
	require.NoError(t, err)

	t.Run("AutoComplete And Defaults", func(t *testing.T) {
		ai := fw.Action(ctx, owner, "acquire", domain.WhereObjectForms).CheckVisibility(ctx).CheckUsability(ctx)
		model := ai.StartParameterNegotiation(ctx)

		assert.Equal(t, 1, model.ParamModel(1).Value().Pojo, "default computed before a title is chosen")

		model.ParamModel(0).SetSearchArgument("E")
		choices := model.ParamModel(0).Choices()
		require.Len(t, choices, 1)
		assert.Equal(t, "Emma", choices[0].Pojo)

		require.NoError(t, model.ParamModel(0).SetParsableText("Emma"))
		rw, err := ai.InvokeWith(ctx, model)
		require.NoError(t, err)
		result, ok := rw.GetSuccess()
		require.True(t, ok)
		assert.Equal(t, "Emma", result.Title())
		assert.Len(t, l.Books, 1)
	})

	t.Run("Action Validation", func(t *testing.T) {
		ai := fw.Action(ctx, owner, "acquire", domain.WhereObjectForms).CheckVisibility(ctx).CheckUsability(ctx)
		model := ai.StartParameterNegotiation(ctx)
		require.NoError(t, model.ParamModel(0).SetParsableText("Ulysses"))
		require.NoError(t, model.ParamModel(1).SetParsableText("3"))

		rw, err := ai.InvokeWith(ctx, model)
		require.NoError(t, err)
		veto, vetoed := rw.GetVeto()
		require.True(t, vetoed)
		assert.Equal(t, "one Ulysses is enough", veto.ReasonAsString())
	})

	t.Run("Plural Parameter", func(t *testing.T) {
		shelf := &Library{Books: []*Book{{Title: "Dune", Copies: 2}, {Title: "Emma", Copies: 3}}}
		owner, err := fw.Adapt(shelf)
		require.NoError(t, err)
		ai := fw.Action(ctx, owner, "count", domain.WhereObjectForms).
			CheckVisibility(ctx).
			CheckSemanticConstraint(ctx, domain.ConstraintSafe)
		model := ai.StartParameterNegotiation(ctx)

		books := make([]metamodel.ManagedObject, len(shelf.Books))
		for i, bk := range shelf.Books {
			books[i], err = fw.Adapt(bk)
			require.NoError(t, err)
		}
		spec := model.ParamModel(0).ElementSpec()
		require.NoError(t, model.SetParamValue(0, metamodel.Packed(spec, books)))

		rw, err := ai.InvokeWith(ctx, model)
		require.NoError(t, err)
		result, ok := rw.GetSuccess()
		require.True(t, ok)
		assert.Equal(t, 5, result.Pojo)
	})
}
