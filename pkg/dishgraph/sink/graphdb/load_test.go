package graphdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/dishgraph/pkg/dishgraph/graph"
	"github.com/cognicore/dishgraph/pkg/dishgraph/internalerr"
	"github.com/cognicore/dishgraph/pkg/dishgraph/record"
)

func naturalOutput() graph.Output {
	dish := record.Identity{Value: "1", Field: "id", ConstraintField: "constraint_id"}
	carrot := record.Identity{Value: "Carrot", Field: "Name", ConstraintField: "constraint_Name"}
	onion := record.Identity{Value: "Onion", Field: "Name", ConstraintField: "constraint_Name"}
	from := graph.Endpoint{Class: "Dish", Identity: dish}
	return graph.Output{
		Dishes: []graph.Entity{{Class: "Dish", Identity: dish, Attributes: []record.Attr{{Name: "name", Value: record.Some("Soup")}}}},
		Ingredients: []graph.Entity{
			{Class: "Ingredient", Identity: carrot},
			{Class: "Ingredient", Identity: onion},
		},
		Connections: []graph.Connection{
			{Class: "HasIngredient", From: from, To: graph.Endpoint{Class: "Ingredient", Identity: carrot}, ID: "1_Carrot"},
			{Class: "HasIngredient", From: from, To: graph.Endpoint{Class: "Ingredient", Identity: onion}, ID: "1_Onion"},
		},
	}
}

func TestSanitizeLabel(t *testing.T) {
	assert.Equal(t, "_Image", sanitizeLabel("_Image"))
	assert.Equal(t, "HasIngredient", sanitizeLabel("Has Ingredient!"))
	assert.Equal(t, "Entity", sanitizeLabel("`;"))
}

func TestConstraintStatements(t *testing.T) {
	stmts := ConstraintStatements(naturalOutput())
	require.Len(t, stmts, 2)
	assert.Equal(t,
		"CREATE CONSTRAINT `dish_constraint_id` IF NOT EXISTS FOR (n:`Dish`) REQUIRE n.`constraint_id` IS UNIQUE",
		stmts[0].Cypher)
	assert.Contains(t, stmts[1].Cypher, "(n:`Ingredient`)")
}

func TestEntityStatementsBatching(t *testing.T) {
	out := naturalOutput()
	stmts := EntityStatements(out.Ingredients, 1)
	require.Len(t, stmts, 2)
	assert.Equal(t, "UNWIND $rows AS row\nMERGE (n:`Ingredient` {`constraint_Name`: row.key})\nSET n += row.props", stmts[0].Cypher)

	rows := stmts[1].Params["rows"].([]any)
	require.Len(t, rows, 1)
	row := rows[0].(map[string]any)
	assert.Equal(t, "Onion", row["key"])
	props := row["props"].(map[string]any)
	assert.Equal(t, "Onion", props["constraint_Name"])

	assert.Len(t, EntityStatements(out.Ingredients, 0), 1)
}

func TestConnectionStatementsAddressable(t *testing.T) {
	stmts := ConnectionStatements(naturalOutput().Connections, 10)
	require.Len(t, stmts, 1)
	assert.Equal(t, 2, stmts[0].Rows)
	assert.Contains(t, stmts[0].Cypher, "MATCH (a:`Dish` {`constraint_id`: row.from})")
	assert.Contains(t, stmts[0].Cypher, "MATCH (b:`Ingredient` {`constraint_Name`: row.to})")
	assert.Contains(t, stmts[0].Cypher, "MERGE (a)-[r:`HasIngredient` {`constraint_ConnectionID`: row.id}]->(b)")

	row := stmts[0].Params["rows"].([]any)[1].(map[string]any)
	assert.Equal(t, "1_Onion", row["id"])
}

func TestConnectionStatementsPlain(t *testing.T) {
	conns := naturalOutput().Connections
	for i := range conns {
		conns[i].ID = ""
	}
	stmts := ConnectionStatements(conns, 10)
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0].Cypher, "MERGE (a)-[r:`HasIngredient`]->(b)")
	_, hasID := stmts[0].Params["rows"].([]any)[0].(map[string]any)["id"]
	assert.False(t, hasID)
}

func TestNewClientRequiresURI(t *testing.T) {
	_, err := NewClient(context.Background(), Config{}, nil)
	assert.ErrorIs(t, err, internalerr.ErrInvalidConfig)
}

func TestPasswordFromEnv(t *testing.T) {
	t.Setenv("NEO4J_PASSWORD", "secret")
	cfg := Config{}
	cfg.PasswordFromEnv()
	assert.Equal(t, "secret", cfg.Password)

	cfg = Config{Password: "given"}
	cfg.PasswordFromEnv()
	assert.Equal(t, "given", cfg.Password)
}
