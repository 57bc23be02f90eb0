package docjson

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/dishgraph/pkg/dishgraph/nested"
	"github.com/cognicore/dishgraph/pkg/dishgraph/record"
)

func TestEncodeNil(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	docs := []nested.Document{{
		DishID:    "1",
		Name:      record.Some("Soup"),
		RecipeURL: record.Some("https://example.com/soup?a=1&b=2"),
		Ingredients: []nested.IngredientDoc{
			{Name: record.Some("Carrot"), Category: record.None()},
		},
	}}

	require.NoError(t, Write(path, docs))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n    {")
	assert.Contains(t, string(data), "a=1&b=2", "URLs are not HTML-escaped")

	var back []map[string]any
	require.NoError(t, json.Unmarshal(data, &back))
	require.Len(t, back, 1)
	assert.Equal(t, "1", back[0]["dish_id"])
	assert.Nil(t, back[0]["caption"])
	ings := back[0]["ingredients"].([]any)
	assert.Equal(t, map[string]any{"Name": "Carrot"}, ings[0])
}
