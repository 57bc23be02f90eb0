// Package graph projects joined rows into bulk-load entity and
// connection records for a graph database.
package graph

import (
	"github.com/cognicore/dishgraph/pkg/dishgraph/identity"
	"github.com/cognicore/dishgraph/pkg/dishgraph/join"
	"github.com/cognicore/dishgraph/pkg/dishgraph/record"
)

// Classes names the entity and connection classes.
type Classes struct {
	Dish       string `yaml:"dish"`
	Ingredient string `yaml:"ingredient"`
	Connection string `yaml:"connection"`
	// Addressable writes ConnectionID and its constraint column on every
	// connection. Natural-key runs always do.
	Addressable bool `yaml:"addressable"`
}

// DefaultClasses returns the class tags used by the dish graph.
func DefaultClasses() Classes {
	return Classes{Dish: "Dish", Ingredient: "Ingredient", Connection: "HasIngredient"}
}

// Entity is one node record.
type Entity struct {
	Class      string
	Identity   record.Identity
	Attributes []record.Attr
}

// Header returns the bulk-load columns: class, identity, constraint,
// then the source attributes.
func (e Entity) Header() []string {
	h := []string{"EntityClass", e.Identity.Field, e.Identity.ConstraintField}
	for _, a := range e.columns() {
		h = append(h, a.Name)
	}
	return h
}

// Values returns the row matching Header.
func (e Entity) Values() []string {
	v := []string{e.Class, e.Identity.Value, e.Identity.Value}
	for _, a := range e.columns() {
		v = append(v, a.Value.String())
	}
	return v
}

// columns drops the attribute already written as the identity column
// under the natural strategy.
func (e Entity) columns() []record.Attr {
	out := make([]record.Attr, 0, len(e.Attributes))
	for _, a := range e.Attributes {
		if a.Name == e.Identity.Field {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Properties returns the attributes that carry a value, keyed by column,
// with the identity and constraint columns included.
func (e Entity) Properties() map[string]any {
	props := make(map[string]any, len(e.Attributes)+2)
	for _, a := range e.Attributes {
		if s, ok := a.Value.Get(); ok {
			props[a.Name] = s
		}
	}
	props[e.Identity.Field] = e.Identity.Value
	props[e.Identity.ConstraintField] = e.Identity.Value
	return props
}

// Endpoint references an entity by class and identity.
type Endpoint struct {
	Class    string
	Identity record.Identity
}

// Column is the bulk-load reference column, e.g. "Dish@UUID".
func (e Endpoint) Column() string { return e.Class + "@" + e.Identity.Field }

// ConnectionIDField is the column carrying the synthetic connection id.
const ConnectionIDField = "ConnectionID"

// Connection is one edge record.
type Connection struct {
	Class string
	From  Endpoint
	To    Endpoint
	// ID is the synthetic composite id; empty when not addressable.
	ID string
}

// Addressable reports whether the connection carries its own id.
func (c Connection) Addressable() bool { return c.ID != "" }

// Header returns the bulk-load columns for the connection.
func (c Connection) Header() []string {
	h := []string{"ConnectionClass", c.From.Column(), c.To.Column()}
	if c.Addressable() {
		h = append(h, ConnectionIDField, "constraint_"+ConnectionIDField)
	}
	return h
}

// Values returns the row matching Header.
func (c Connection) Values() []string {
	v := []string{c.Class, c.From.Identity.Value, c.To.Identity.Value}
	if c.Addressable() {
		v = append(v, c.ID, c.ID)
	}
	return v
}

// Output is the projected graph.
type Output struct {
	Dishes      []Entity
	Ingredients []Entity
	Connections []Connection
}

// Project emits one entity per distinct dish and ingredient identity,
// taken from the source tables so unused ingredients are kept, and one
// connection per joined row that carries an ingredient.
func Project(rows []join.Row, dishes []record.Dish, ingredients []record.Ingredient, classes Classes) Output {
	var out Output

	// Entities come from the joined dishes where possible so the derived
	// URL is carried.
	joined := make(map[string]record.Dish, len(rows))
	for _, r := range rows {
		if _, ok := joined[r.Dish.Identity.Value]; !ok {
			joined[r.Dish.Identity.Value] = r.Dish
		}
	}

	seen := make(map[string]struct{})
	for _, d := range dishes {
		if _, ok := seen[d.Identity.Value]; ok {
			continue
		}
		seen[d.Identity.Value] = struct{}{}
		if jd, ok := joined[d.Identity.Value]; ok {
			d = jd
		}
		out.Dishes = append(out.Dishes, Entity{Class: classes.Dish, Identity: d.Identity, Attributes: d.Attrs()})
	}

	seen = make(map[string]struct{})
	for _, ing := range ingredients {
		if _, ok := seen[ing.Identity.Value]; ok {
			continue
		}
		seen[ing.Identity.Value] = struct{}{}
		out.Ingredients = append(out.Ingredients, Entity{Class: classes.Ingredient, Identity: ing.Identity, Attributes: ing.Attrs()})
	}

	for _, r := range rows {
		if r.Ingredient == nil {
			continue
		}
		c := Connection{
			Class: classes.Connection,
			From:  Endpoint{Class: classes.Dish, Identity: r.Dish.Identity},
			To:    Endpoint{Class: classes.Ingredient, Identity: r.Ingredient.Identity},
		}
		if classes.Addressable || isNatural(r.Dish.Identity) {
			c.ID = r.ConnectionID
		}
		out.Connections = append(out.Connections, c)
	}

	return out
}

func isNatural(id record.Identity) bool {
	return id.Field != "" && id.Field != identity.UUIDField
}
