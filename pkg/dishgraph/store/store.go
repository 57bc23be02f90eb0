package store

import (
	"context"

	"github.com/cognicore/dishgraph/pkg/dishgraph/graph"
	"github.com/cognicore/dishgraph/pkg/dishgraph/source"
)

// Store holds the source tables of a dataset and the graph projected from
// them. Graph records are upserted on their constraint value, the same
// way the downstream graph database merges a bulk load.
type Store interface {
	Close() error

	// Source tables. A Store is also a source.Source.
	ReplaceTables(ctx context.Context, ts source.Tables) error
	Load(ctx context.Context) (source.Tables, error)

	// Graph
	UpsertEntity(ctx context.Context, e graph.Entity) error
	UpsertConnection(ctx context.Context, c graph.Connection) error
	SaveGraph(ctx context.Context, out graph.Output) error
	Entities(ctx context.Context, class string) ([]Entity, error)
	Connections(ctx context.Context, class string) ([]Connection, error)
}

// Entity is a stored node.
type Entity struct {
	Class           string
	IdentityField   string
	ConstraintField string
	Constraint      string
	Properties      map[string]string
}

// Connection is a stored edge.
type Connection struct {
	Class     string
	Key       string // ConnectionID, or "from\x1fto" when not addressable
	FromClass string
	From      string
	ToClass   string
	To        string
}

// ConnectionKey returns the upsert key of a connection.
func ConnectionKey(c graph.Connection) string {
	if c.Addressable() {
		return c.ID
	}
	return c.From.Identity.Value + "\x1f" + c.To.Identity.Value
}

// FromEntity converts a projected entity into its stored form. Unset
// attributes are not stored.
func FromEntity(e graph.Entity) Entity {
	props := make(map[string]string, len(e.Attributes))
	for _, a := range e.Attributes {
		if v, ok := a.Value.Get(); ok {
			props[a.Name] = v
		}
	}
	return Entity{
		Class:           e.Class,
		IdentityField:   e.Identity.Field,
		ConstraintField: e.Identity.ConstraintField,
		Constraint:      e.Identity.Value,
		Properties:      props,
	}
}

// FromConnection converts a projected connection into its stored form.
func FromConnection(c graph.Connection) Connection {
	return Connection{
		Class:     c.Class,
		Key:       ConnectionKey(c),
		FromClass: c.From.Class,
		From:      c.From.Identity.Value,
		ToClass:   c.To.Class,
		To:        c.To.Identity.Value,
	}
}
