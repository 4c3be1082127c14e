package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsent(t *testing.T) {
	t.Run("Allow has no reason", func(t *testing.T) {
		c := Allow()
		assert.True(t, c.IsAllowed())
		_, ok := c.Reason()
		assert.False(t, ok)
		assert.Equal(t, "allowed (not vetoed)", c.ReasonAsString())
		assert.Equal(t, "allowed (not vetoed)", c.Description())
	})

	t.Run("Veto keeps its reason", func(t *testing.T) {
		c := Veto("no way")
		assert.True(t, c.IsVetoed())
		reason, ok := c.Reason()
		assert.True(t, ok)
		assert.Equal(t, "no way", reason)
	})

	t.Run("Veto without reason still has one", func(t *testing.T) {
		assert.NotEmpty(t, Veto("").ReasonAsString())
	})

	t.Run("Description overrides reason only in Description", func(t *testing.T) {
		c := Veto("short").WithDescription("the long story")
		assert.Equal(t, "short", c.ReasonAsString())
		assert.Equal(t, "the long story", c.Description())
	})

	t.Run("ConsentOf maps errors", func(t *testing.T) {
		assert.True(t, ConsentOf(nil).IsAllowed())
		assert.Equal(t, "boom", ConsentOf(errors.New("boom")).ReasonAsString())
	})
}

func TestInteractionVeto(t *testing.T) {
	tests := []struct {
		name     string
		veto     InteractionVeto
		wantType VetoType
		hidden   bool
	}{
		{"Not Found", NotFound(MemberAction, "placeOrder"), VetoNotFound, false},
		{"Hidden", Hidden(Veto("not for you")), VetoHidden, true},
		{"Read Only", ReadOnly(Veto("locked")), VetoReadOnly, false},
		{"Invalid", Invalid(Veto("too small")), VetoInvalid, false},
		{"Not Safe", ActionNotSafe("placeOrder"), VetoActionNotSafe, false},
		{"Not Idempotent", ActionNotIdempotent("placeOrder"), VetoActionNotIdempotent, false},
		{"Param Invalid", ActionParamInvalid(Veto("bad arg")), VetoActionParamInvalid, false},
		{"Invocation Exception", InvocationException(errors.New("db down")), VetoInvalid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.veto.Type())
			assert.Equal(t, tt.hidden, tt.veto.IsHidden())
			assert.NotEmpty(t, tt.veto.ReasonAsString())
			assert.True(t, tt.veto.Consent().IsVetoed())
		})
	}
}

func TestInteractionVeto_NeverWrapsAllow(t *testing.T) {
	v := Hidden(Allow())
	assert.True(t, v.Consent().IsVetoed())
	assert.Equal(t, "hidden", v.ReasonAsString())
}

func TestInteractionVeto_Reasons(t *testing.T) {
	assert.Contains(t, ActionNotSafe("placeOrder").ReasonAsString(), "placeOrder")
	assert.Contains(t, ActionNotSafe("placeOrder").ReasonAsString(), "does not have safe semantics")
	assert.Contains(t, NotFound(MemberProperty, "discount").ReasonAsString(), "discount")
	assert.Equal(t, "db down", InvocationException(errors.New("db down")).ReasonAsString())
}

func TestInteractionVeto_JSON(t *testing.T) {
	bytes, err := json.Marshal(ReadOnly(Veto("locked")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"READONLY","reason":"locked"}`, string(bytes))
}

func TestParseActionSemantics(t *testing.T) {
	s, err := ParseActionSemantics("SAFE")
	require.NoError(t, err)
	assert.True(t, s.IsSafeInNature())
	assert.True(t, s.IsIdempotentInNature())

	s, err = ParseActionSemantics("idempotent-are-you-sure")
	require.NoError(t, err)
	assert.False(t, s.IsSafeInNature())
	assert.True(t, s.IsIdempotentInNature())

	s, err = ParseActionSemantics("")
	require.NoError(t, err)
	assert.Equal(t, SemanticsNonIdempotent, s)

	_, err = ParseActionSemantics("sometimes")
	assert.Error(t, err)
}

func TestBookmark(t *testing.T) {
	b := Bookmark{LogicalTypeName: "shop.Order", Identifier: "a:b"}
	parsed, err := ParseBookmark(b.String())
	require.NoError(t, err)
	assert.Equal(t, b, parsed)

	_, err = ParseBookmark("nocolon")
	assert.Error(t, err)
}
