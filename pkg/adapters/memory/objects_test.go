package memory_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/metamodel"
)

type note struct {
	Body any
}

type card struct{ name string }

func (c *card) Identifier() string { return c.name }

func newObjects(t *testing.T) *memory.ObjectManager {
	t.Helper()
	reg := metamodel.NewRegistry()
	reg.MustRegister(
		&metamodel.ObjectSpec{LogicalTypeName: "test.Note", Kind: metamodel.KindViewModel, GoType: reflect.TypeOf(note{})},
		&metamodel.ObjectSpec{LogicalTypeName: "test.Card", Kind: metamodel.KindEntity, GoType: reflect.TypeOf(&card{})},
	)
	return memory.NewObjectManager(reg)
}

func TestObjectManager_Bookmark(t *testing.T) {
	tests := []struct {
		name    string
		pojo    any
		wantID  string
		wantErr error
	}{
		{"Identifiable Entity", &card{name: "ace"}, "ace", nil},
		{"Comparable View Model", note{Body: "hello"}, "", nil},
		{"Slice In Interface Field", note{Body: []string{"a"}}, "", domain.ErrNotBookmarkable},
		{"Map In Interface Field", note{Body: map[string]int{}}, "", domain.ErrNotBookmarkable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			objects := newObjects(t)

			var (
				b   domain.Bookmark
				err error
			)
			require.NotPanics(t, func() { _, b, err = objects.Put(tt.pojo) })
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.wantID != "" {
				assert.Equal(t, tt.wantID, b.Identifier)
			}

			obj, err := objects.Adapt(tt.pojo)
			require.NoError(t, err)
			again, err := objects.Bookmark(obj)
			require.NoError(t, err)
			assert.Equal(t, b, again, "the same instance keeps its bookmark")

			resolved, err := objects.Resolve(context.Background(), b)
			require.NoError(t, err)
			assert.Equal(t, tt.pojo, resolved.Pojo)
		})
	}
}
