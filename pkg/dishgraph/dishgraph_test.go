package dishgraph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/dishgraph/pkg/dishgraph/identity"
	"github.com/cognicore/dishgraph/pkg/dishgraph/internalerr"
	"github.com/cognicore/dishgraph/pkg/dishgraph/join"
	"github.com/cognicore/dishgraph/pkg/dishgraph/source"
	"github.com/cognicore/dishgraph/pkg/dishgraph/store/memstore"
)

var (
	dishHeader  = []string{"id", "name", "filename", "Recipe URL", "type", "location", "cuisine", "contributor", "caption"}
	ingHeader   = []string{"Name", "other_names", "category", "subgroup", "macronutrient", "micronutrient"}
	assocHeader = []string{"dish_id", "ingredient_name"}
)

func tables(dishes, ings, assocs [][]string) source.Tables {
	return source.Tables{
		Dishes:       source.NewTable("dishes", dishHeader, dishes),
		Ingredients:  source.NewTable("ingredients", ingHeader, ings),
		Associations: source.NewTable("associations", assocHeader, assocs),
	}
}

func soupTables() source.Tables {
	return tables(
		[][]string{{"1", "Soup", "soup.jpg", "", "main", "", "french"}},
		[][]string{
			{"Carrot", "", "vegetable", "root"},
			{"Onion", "", "vegetable", "allium"},
		},
		[][]string{{"1", "Carrot"}, {"1", "Kale"}},
	)
}

func naturalPipeline(ts source.Tables) *Pipeline {
	return New(Options{
		Source:             memstore.NewWithTables(ts),
		DishStrategy:       identity.Natural{Field: "id"},
		IngredientStrategy: identity.Natural{Field: "Name"},
		Join:               join.Options{MediaURL: "https://cdn.example.com/img/{filename}"},
	})
}

func TestRunExampleScenario(t *testing.T) {
	res, err := naturalPipeline(soupTables()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Join.Rows)
	assert.Equal(t, 1, res.Join.MissingIngredient)
	require.Len(t, res.Dropped, 1)
	assert.Equal(t, "Kale", res.Dropped[0].Association.IngredientName)

	require.Len(t, res.Graph.Dishes, 1)
	assert.Equal(t, "1", res.Graph.Dishes[0].Identity.Value)

	// Unused ingredients are still emitted as entities.
	require.Len(t, res.Graph.Ingredients, 2)
	assert.Equal(t, "Carrot", res.Graph.Ingredients[0].Identity.Value)
	assert.Equal(t, "Onion", res.Graph.Ingredients[1].Identity.Value)

	require.Len(t, res.Graph.Connections, 1)
	c := res.Graph.Connections[0]
	assert.Equal(t, "1", c.From.Identity.Value)
	assert.Equal(t, "Carrot", c.To.Identity.Value)
	assert.Equal(t, "1_Carrot", c.ID)

	require.Len(t, res.Documents, 1)
	doc := res.Documents[0]
	assert.Equal(t, "1", doc.DishID)
	assert.Equal(t, "https://cdn.example.com/img/soup.jpg", doc.URL.String())
	require.Len(t, doc.Ingredients, 1)
	assert.Equal(t, "Carrot", doc.Ingredients[0].Name.String())
}

func TestRunLeftJoinCompleteness(t *testing.T) {
	ts := tables(
		[][]string{{"1", "Soup"}, {"2", "Bread"}, {"3", "Stew"}},
		[][]string{{"Carrot"}},
		[][]string{{"1", "Carrot"}, {"3", "Kale"}},
	)

	res, err := naturalPipeline(ts).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Documents, 3)
	require.Len(t, res.Graph.Dishes, 3)
	for _, doc := range res.Documents[1:] {
		assert.NotNil(t, doc.Ingredients, doc.DishID)
		assert.Empty(t, doc.Ingredients, doc.DishID)
	}
	assert.Equal(t, 2, res.Join.EmptyDishes)

	data, err := json.Marshal(res.Documents[1])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"ingredients":[]`)
}

func TestRunDropsMissingDish(t *testing.T) {
	ts := tables(
		[][]string{{"1", "Soup"}},
		[][]string{{"Carrot"}},
		[][]string{{"9", "Carrot"}, {"1", "Carrot"}},
	)

	res, err := naturalPipeline(ts).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Join.MissingDish)
	require.Len(t, res.Graph.Connections, 1)
	assert.Equal(t, "1", res.Graph.Connections[0].From.Identity.Value)
}

func TestRunGeneratedIdentitiesAreUnique(t *testing.T) {
	ts := tables(
		[][]string{{"1", "Soup"}, {"1", "Soup"}},
		[][]string{{"Carrot"}, {"Onion"}},
		nil,
	)

	res, err := New(Options{Source: memstore.NewWithTables(ts)}).Run(context.Background())
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, e := range append(res.Graph.Dishes, res.Graph.Ingredients...) {
		assert.False(t, seen[e.Identity.Value], "duplicate identity %s", e.Identity.Value)
		seen[e.Identity.Value] = true
		assert.Equal(t, identity.UUIDField, e.Identity.Field)
		assert.Equal(t, "constraint_UUID", e.Identity.ConstraintField)
	}
	assert.Len(t, seen, 4)
}

func identities(res *Result) []string {
	var ids []string
	for _, e := range append(res.Graph.Dishes, res.Graph.Ingredients...) {
		ids = append(ids, e.Identity.Value+"/"+e.Identity.ConstraintField)
	}
	for _, c := range res.Graph.Connections {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestRunNaturalKeysAreStable(t *testing.T) {
	p := naturalPipeline(soupTables())

	first, err := p.Run(context.Background())
	require.NoError(t, err)
	second, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, identities(first), identities(second))
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRunGeneratedKeysChangeBetweenRuns(t *testing.T) {
	p := New(Options{Source: memstore.NewWithTables(soupTables())})

	first, err := p.Run(context.Background())
	require.NoError(t, err)
	second, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, identities(first), identities(second))
}

func TestRunPrunesIngredientFields(t *testing.T) {
	ts := tables(
		[][]string{{"1", "Soup"}},
		[][]string{
			{"Carrot", "", "NaN", "root", "carbohydrate"},
			{"Onion", "scallion", "vegetable", "", "null"},
		},
		[][]string{{"1", "Carrot"}, {"1", "Onion"}},
	)

	res, err := naturalPipeline(ts).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Documents, 1)

	data, err := json.Marshal(res.Documents[0].Ingredients)
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 2)
	assert.Equal(t, map[string]any{"Name": "Carrot", "subgroup": "root", "macronutrient": "carbohydrate"}, got[0])
	assert.Equal(t, map[string]any{"Name": "Onion", "other_names": "scallion", "category": "vegetable"}, got[1])

	for _, ing := range got {
		for k, v := range ing {
			assert.NotEmpty(t, v, "key %s", k)
		}
	}
}

func TestRunGroupsRowsInOrder(t *testing.T) {
	ts := tables(
		[][]string{{"1", "Soup", "soup.jpg"}, {"2", "Salad", "salad.jpg"}},
		[][]string{{"Onion", "", "allium"}, {"Carrot", "", "root"}},
		[][]string{{"1", "Carrot"}, {"2", "Onion"}, {"1", "Onion"}},
	)

	res, err := naturalPipeline(ts).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Documents, 2)
	soup := res.Documents[0]
	assert.Equal(t, "1", soup.DishID)
	require.Len(t, soup.Ingredients, 2)
	assert.Equal(t, "Carrot", soup.Ingredients[0].Name.String())
	assert.Equal(t, "Onion", soup.Ingredients[1].Name.String())
	assert.Empty(t, res.Nested.SplitDishes)
}

func TestRunRejectsDuplicateNaturalKeys(t *testing.T) {
	ts := tables(
		[][]string{{"1", "Soup"}, {"1.0", "Stew"}},
		[][]string{{"Carrot"}},
		nil,
	)

	_, err := naturalPipeline(ts).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, internalerr.ErrDuplicateNaturalKey))

	var dup *identity.DuplicateKeyError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "1", dup.Key)
}

func TestRunRejectsDuplicateIngredientNamesUnderGeneratedIdentity(t *testing.T) {
	ts := tables(
		[][]string{{"1", "Soup"}},
		[][]string{{"Carrot"}, {"Carrot"}},
		nil,
	)

	_, err := New(Options{Source: memstore.NewWithTables(ts)}).Run(context.Background())
	assert.True(t, errors.Is(err, internalerr.ErrDuplicateNaturalKey))
}

type failingSource struct{}

func (failingSource) Load(context.Context) (source.Tables, error) {
	return source.Tables{}, fmt.Errorf("fetch dishes: %w", internalerr.ErrSourceUnavailable)
}

func TestRunSourceUnavailable(t *testing.T) {
	res, err := New(Options{Source: failingSource{}}).Run(context.Background())
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, internalerr.ErrSourceUnavailable))
}

func TestRunMissingDishID(t *testing.T) {
	ts := tables(
		[][]string{{"1", "Soup"}, {"", "Stew"}},
		[][]string{{"Carrot"}},
		nil,
	)

	_, err := naturalPipeline(ts).Run(context.Background())
	assert.True(t, errors.Is(err, internalerr.ErrInvalidInput))
}

func TestRunRejectsAmbiguousConnectionIDs(t *testing.T) {
	ts := tables(
		[][]string{{"a_b", "Soup"}, {"a", "Stew"}},
		[][]string{{"c"}, {"b_c"}},
		[][]string{{"a_b", "c"}, {"a", "b_c"}},
	)

	_, err := naturalPipeline(ts).Run(context.Background())
	assert.True(t, errors.Is(err, internalerr.ErrDuplicateNaturalKey))
}

func TestRunKeepsLargeNumericIDsDistinct(t *testing.T) {
	ts := tables(
		[][]string{{"12345678901234567", "Soup"}, {"12345678901234568", "Stew"}, {"007", "Toast"}},
		[][]string{{"Carrot"}},
		[][]string{{"12345678901234567", "Carrot"}, {"007", "Carrot"}},
	)

	res, err := naturalPipeline(ts).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Documents, 3)
	assert.Equal(t, "12345678901234567", res.Documents[0].DishID)
	assert.Len(t, res.Documents[0].Ingredients, 1)
	assert.Equal(t, "12345678901234568", res.Documents[1].DishID)
	assert.Empty(t, res.Documents[1].Ingredients)
	assert.Equal(t, "007", res.Documents[2].DishID)
	assert.Len(t, res.Documents[2].Ingredients, 1)
}
