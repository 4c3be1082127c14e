package railway

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/parley/pkg/domain"
)

func TestRailway_Success(t *testing.T) {
	r := Success(21)
	assert.True(t, r.IsSuccess())

	doubled := r.Chain(func(v int) Railway[int] { return Success(v * 2) })
	v, ok := doubled.GetSuccess()
	require.True(t, ok)
	assert.Equal(t, 42, v)

	_, vetoed := doubled.GetVeto()
	assert.False(t, vetoed)
}

func TestRailway_Update(t *testing.T) {
	pass := func(int) *domain.InteractionVeto { return nil }
	veto := domain.ReadOnly(domain.Veto("locked"))
	fail := func(int) *domain.InteractionVeto { return &veto }

	r := Success(1).Update(pass)
	assert.True(t, r.IsSuccess())

	r = r.Update(fail)
	assert.True(t, r.IsFailure())
	got, ok := r.GetVeto()
	require.True(t, ok)
	assert.Equal(t, veto, got)
}

func TestRailway_GetSuccessElseFail(t *testing.T) {
	sentinel := errors.New("vetoed")
	_, err := Failure[int](domain.Hidden(domain.Veto("nope"))).GetSuccessElseFail(func(v domain.InteractionVeto) error {
		assert.True(t, v.IsHidden())
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	v, err := Success("ok").GetSuccessElseFail(func(domain.InteractionVeto) error { return sentinel })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestRailway_MapAndFlatMap(t *testing.T) {
	r := Map(Success(3), func(v int) string { return "x" })
	assert.True(t, r.IsSuccess())

	failed := FlatMap(Failure[int](domain.NotFound(domain.MemberAction, "a")), func(int) Railway[string] {
		t.Fatal("must not be evaluated")
		return Success("")
	})
	veto, ok := failed.GetVeto()
	require.True(t, ok)
	assert.True(t, veto.IsNotFound())
}

func TestRailway_ShortCircuitProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	vetoOf := func(kind int, reason string) domain.InteractionVeto {
		c := domain.Veto(reason)
		switch kind % 4 {
		case 0:
			return domain.Hidden(c)
		case 1:
			return domain.ReadOnly(c)
		case 2:
			return domain.Invalid(c)
		default:
			return domain.ActionParamInvalid(c)
		}
	}

	properties.Property("chain on a failure never evaluates and preserves the veto", prop.ForAll(
		func(kind int, reason string, steps int) bool {
			original := vetoOf(kind, reason)
			r := Failure[string](original)
			evaluated := false
			for i := 0; i < steps; i++ {
				r = r.Chain(func(s string) Railway[string] {
					evaluated = true
					return Success(s)
				})
				r = r.Update(func(string) *domain.InteractionVeto {
					evaluated = true
					return nil
				})
			}
			got, ok := r.GetVeto()
			return !evaluated && ok && got == original
		},
		gen.IntRange(0, 3),
		gen.AlphaString(),
		gen.IntRange(0, 25),
	))

	properties.Property("the first veto wins", prop.ForAll(
		func(reasons []string) bool {
			r := Success(0)
			for _, reason := range reasons {
				v := domain.Invalid(domain.Veto(reason))
				r = r.Update(func(int) *domain.InteractionVeto { return &v })
			}
			if len(reasons) == 0 {
				return r.IsSuccess()
			}
			got, ok := r.GetVeto()
			return ok && got == domain.Invalid(domain.Veto(reasons[0]))
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
