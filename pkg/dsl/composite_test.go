package dsl_test

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/dsl"
	"github.com/aretw0/parley/pkg/interaction"
	"github.com/aretw0/parley/pkg/metamodel"
)

type Slot struct {
	Day  string
	Hour int
}

type Booking struct {
	Guest string
	Slot  Slot
}

func calendar(t *testing.T) *parley.Framework {
	t.Helper()
	b := dsl.New()

	slot := dsl.Composite[Slot](b, "cal.Slot")
	slot.Title(func(s Slot) string { return fmt.Sprintf("%s %02d:00", s.Day, s.Hour) })
	slot.Codec(
		func(s Slot) string { return s.Day + "@" + strconv.Itoa(s.Hour) },
		func(text string) (Slot, error) {
			day, hour, ok := strings.Cut(text, "@")
			if !ok {
				return Slot{}, fmt.Errorf("malformed slot %q", text)
			}
			h, err := strconv.Atoi(hour)
			return Slot{Day: day, Hour: h}, err
		},
	)
	move := slot.Mixin("move", func(s Slot, args []any) (Slot, error) {
		if args[0] != nil {
			s.Day = args[0].(string)
		}
		s.Hour = args[1].(int)
		return s, nil
	})
	move.Param("day", "string").Optional()
	move.Param("hour", "int").Validate(func(_ any, v any) string {
		if h := v.(int); h < 8 || h > 18 {
			return "outside opening hours"
		}
		return ""
	})

	booking := dsl.Entity[*Booking](b, "cal.Booking").Title(func(bk *Booking) string { return bk.Guest })
	booking.Property("slot", "cal.Slot", func(bk *Booking) any { return bk.Slot }).
		Set(func(bk *Booking, v any) (*Booking, error) { bk.Slot = v.(Slot); return bk, nil })

	fw, err := parley.New(b.MustBuild())
	require.NoError(t, err)
	return fw
}

func TestComposite_Spec(t *testing.T) {
	fw := calendar(t)

	spec, ok := fw.Registry().Spec("cal.Slot")
	require.True(t, ok)
	assert.Equal(t, metamodel.KindComposite, spec.Kind)
	assert.True(t, spec.IsComposite())
	assert.Equal(t, "move", spec.CompositeMixin)
	assert.Equal(t, Slot{}, spec.EmptyValue())

	move, ok := spec.Action("move")
	require.True(t, ok)
	assert.Equal(t, domain.SemanticsIdempotent, move.Semantics)
	assert.Equal(t, "cal.Slot", move.ReturnType)

	text, err := spec.Encode(Slot{Day: "Mon", Hour: 9})
	require.NoError(t, err)
	assert.Equal(t, "Mon@9", text)
	decoded, err := spec.Decode(text)
	require.NoError(t, err)
	assert.Equal(t, Slot{Day: "Mon", Hour: 9}, decoded)
}

func TestComposite_MixinEditsTarget(t *testing.T) {
	fw := calendar(t)
	ctx := context.Background()
	bk := &Booking{Guest: "Ada", Slot: Slot{Day: "Mon", Hour: 9}}
	owner, err := fw.Adapt(bk)
	require.NoError(t, err)

	prop := fw.Property(ctx, owner, "slot", domain.WhereObjectForms).MustManagedProperty()

	tests := []struct {
		name     string
		day      string
		hour     string
		want     Slot
		wantVeto domain.VetoType
	}{
		{"Keeps Day From Target", "", "11", Slot{Day: "Mon", Hour: 11}, -1},
		{"Moves Day", "Tue", "10", Slot{Day: "Tue", Hour: 10}, -1},
		{"Param Validation", "Wed", "22", Slot{Day: "Tue", Hour: 10}, domain.VetoActionParamInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ai := interaction.StartActionBoundToProperty(ctx, fw.Env(), prop, domain.WhereObjectForms)
			model := ai.StartParameterNegotiation(ctx)
			require.NotNil(t, model)
			if tt.day != "" {
				require.NoError(t, model.ParamModel(0).SetParsableText(tt.day))
			}
			require.NoError(t, model.ParamModel(1).SetParsableText(tt.hour))

			rw, err := ai.InvokeWith(ctx, model)
			require.NoError(t, err)
			if tt.wantVeto >= 0 {
				veto, ok := rw.GetVeto()
				require.True(t, ok)
				assert.Equal(t, tt.wantVeto, veto.Type())
			} else {
				result, ok := rw.GetSuccess()
				require.True(t, ok)
				assert.Same(t, bk, result.Pojo, "the edit hands back the owner")
			}
			assert.Equal(t, tt.want, bk.Slot)
		})
	}
}
