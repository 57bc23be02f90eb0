package identity

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/dishgraph/pkg/dishgraph/internalerr"
	"github.com/cognicore/dishgraph/pkg/dishgraph/record"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"generated", KindGenerated, false},
		{"UUID", KindGenerated, false},
		{"", KindGenerated, false},
		{"natural", KindNatural, false},
		{" Natural-Key ", KindNatural, false},
		{"sequential", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, internalerr.ErrInvalidConfig, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestGeneratedAssign(t *testing.T) {
	id, err := Generated{}.Assign("Carrot")
	require.NoError(t, err)

	_, perr := uuid.Parse(id.Value)
	assert.NoError(t, perr)
	assert.Equal(t, "UUID", id.Field)
	assert.Equal(t, "constraint_UUID", id.ConstraintField)
}

func TestNaturalAssign(t *testing.T) {
	id, err := Natural{Field: "Name"}.Assign("Carrot")
	require.NoError(t, err)
	assert.Equal(t, record.Identity{Value: "Carrot", Field: "Name", ConstraintField: "constraint_Name"}, id)

	_, err = Natural{Field: "Name"}.Assign("  ")
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)
}

func TestGeneratedIdentitiesAreUnique(t *testing.T) {
	// identical attributes must still get distinct identities
	dishes := []record.Dish{{ID: "1", Name: record.Some("Soup")}, {ID: "1", Name: record.Some("Soup")}}
	got, err := ResolveDishes(dishes, New(KindGenerated, "id"))
	require.NoError(t, err)
	assert.NotEqual(t, got[0].Identity.Value, got[1].Identity.Value)
	assert.True(t, dishes[0].Identity.IsZero(), "input slice must not be mutated")
}

func TestNaturalIdentitiesAreStable(t *testing.T) {
	dishes := []record.Dish{{ID: "1"}, {ID: "2"}}
	s := New(KindNatural, "id")

	first, err := ResolveDishes(dishes, s)
	require.NoError(t, err)
	second, err := ResolveDishes(dishes, s)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "1", first[0].Identity.Value)
	assert.Equal(t, "constraint_id", first[0].Identity.ConstraintField)
}

func TestGeneratedIdentitiesAreNotStable(t *testing.T) {
	ings := []record.Ingredient{{Name: "Carrot"}}
	first, err := ResolveIngredients(ings, Generated{})
	require.NoError(t, err)
	second, err := ResolveIngredients(ings, Generated{})
	require.NoError(t, err)
	assert.NotEqual(t, first[0].Identity.Value, second[0].Identity.Value)
}

func TestGeneratedWithInjectedIDs(t *testing.T) {
	n := 0
	s := Generated{NewID: func() string { n++; return fmt.Sprintf("id-%d", n) }}
	got, err := ResolveIngredients([]record.Ingredient{{Name: "A"}, {Name: "B"}}, s)
	require.NoError(t, err)
	assert.Equal(t, "id-1", got[0].Identity.Value)
	assert.Equal(t, "id-2", got[1].Identity.Value)
}

func TestDuplicateNaturalKey(t *testing.T) {
	dishes := []record.Dish{{ID: "1"}, {ID: "2"}, {ID: "1"}}
	_, err := ResolveDishes(dishes, New(KindNatural, "id"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, internalerr.ErrDuplicateNaturalKey))

	var dup *DuplicateKeyError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "dishes", dup.Table)
	assert.Equal(t, "1", dup.Key)
	assert.Equal(t, []int{1, 3}, dup.Rows)
	assert.Contains(t, err.Error(), "rows 1,3")

	// generated dish identities tolerate repeated ids
	_, err = ResolveDishes(dishes, New(KindGenerated, "id"))
	assert.NoError(t, err)
}

func TestDuplicateIngredientNameRejectedForEveryStrategy(t *testing.T) {
	ings := []record.Ingredient{{Name: "Carrot"}, {Name: "Carrot"}}
	for _, s := range []Strategy{Generated{}, Natural{Field: "Name"}} {
		_, err := ResolveIngredients(ings, s)
		assert.ErrorIs(t, err, internalerr.ErrDuplicateNaturalKey, string(s.Kind()))
	}
}
