package graphdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/cognicore/dishgraph/pkg/dishgraph/graph"
)

// Statement is a parameterised Cypher statement.
type Statement struct {
	Cypher string
	Params map[string]any
	Rows   int
}

// Summary counts what Load sent.
type Summary struct {
	Constraints int
	Entities    int
	Connections int
	Statements  int
}

// Load creates uniqueness constraints, then merges entities and
// connections in batches. It stops at the first failing statement.
func (c *Client) Load(ctx context.Context, out graph.Output) (Summary, error) {
	var sum Summary

	stmts := ConstraintStatements(out)
	sum.Constraints = len(stmts)

	for _, list := range [][]graph.Entity{out.Dishes, out.Ingredients} {
		es := EntityStatements(list, c.batch)
		for _, s := range es {
			sum.Entities += s.Rows
		}
		stmts = append(stmts, es...)
	}
	cs := ConnectionStatements(out.Connections, c.batch)
	for _, s := range cs {
		sum.Connections += s.Rows
	}
	stmts = append(stmts, cs...)

	for i, st := range stmts {
		if err := c.run(ctx, st); err != nil {
			return sum, fmt.Errorf("graphdb: statement %d/%d: %w", i+1, len(stmts), err)
		}
		sum.Statements++
		c.log.Debug("statement applied", "index", i+1, "rows", st.Rows)
	}

	c.log.Info("graph loaded",
		"entities", sum.Entities,
		"connections", sum.Connections,
		"statements", sum.Statements,
	)
	return sum, nil
}

// sanitizeLabel keeps alphanumerics and underscores.
func sanitizeLabel(label string) string {
	var b strings.Builder
	for _, c := range label {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			b.WriteRune(c)
		}
	}
	if b.Len() == 0 {
		return "Entity"
	}
	return b.String()
}

// quote backticks a property or label name.
func quote(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// ConstraintStatements returns one uniqueness constraint per distinct
// (class, constraint field) pair, in first-seen order.
func ConstraintStatements(out graph.Output) []Statement {
	type key struct{ class, field string }
	seen := make(map[key]struct{})
	var stmts []Statement

	add := func(class, field string) {
		k := key{sanitizeLabel(class), field}
		if _, ok := seen[k]; ok || field == "" {
			return
		}
		seen[k] = struct{}{}
		name := strings.ToLower(k.class) + "_" + strings.ToLower(sanitizeLabel(field))
		stmts = append(stmts, Statement{Cypher: fmt.Sprintf(
			"CREATE CONSTRAINT %s IF NOT EXISTS FOR (n:%s) REQUIRE n.%s IS UNIQUE",
			quote(name), quote(k.class), quote(field))})
	}

	for _, e := range out.Dishes {
		add(e.Class, e.Identity.ConstraintField)
	}
	for _, e := range out.Ingredients {
		add(e.Class, e.Identity.ConstraintField)
	}
	return stmts
}

// EntityStatements merges entities on their constraint field. Entities
// are grouped by class and constraint field, preserving order.
func EntityStatements(entities []graph.Entity, batch int) []Statement {
	if batch <= 0 {
		batch = DefaultBatchSize
	}

	type group struct {
		class, field string
		rows         []map[string]any
	}
	var groups []*group
	index := make(map[string]*group)
	for _, e := range entities {
		k := e.Class + "\x00" + e.Identity.ConstraintField
		g, ok := index[k]
		if !ok {
			g = &group{class: e.Class, field: e.Identity.ConstraintField}
			index[k] = g
			groups = append(groups, g)
		}
		g.rows = append(g.rows, map[string]any{
			"key":   e.Identity.Value,
			"props": e.Properties(),
		})
	}

	var stmts []Statement
	for _, g := range groups {
		cypher := fmt.Sprintf(`UNWIND $rows AS row
MERGE (n:%s {%s: row.key})
SET n += row.props`, quote(sanitizeLabel(g.class)), quote(g.field))
		stmts = append(stmts, chunk(cypher, g.rows, batch)...)
	}
	return stmts
}

// ConnectionStatements matches both endpoints on their constraint fields
// and merges the relationship, on ConnectionID when it is addressable.
func ConnectionStatements(conns []graph.Connection, batch int) []Statement {
	if batch <= 0 {
		batch = DefaultBatchSize
	}

	type group struct {
		cypher string
		rows   []map[string]any
	}
	var groups []*group
	index := make(map[string]*group)
	for _, c := range conns {
		cypher := connectionCypher(c)
		g, ok := index[cypher]
		if !ok {
			g = &group{cypher: cypher}
			index[cypher] = g
			groups = append(groups, g)
		}
		row := map[string]any{
			"from": c.From.Identity.Value,
			"to":   c.To.Identity.Value,
		}
		if c.Addressable() {
			row["id"] = c.ID
		}
		g.rows = append(g.rows, row)
	}

	var stmts []Statement
	for _, g := range groups {
		stmts = append(stmts, chunk(g.cypher, g.rows, batch)...)
	}
	return stmts
}

func connectionCypher(c graph.Connection) string {
	var b strings.Builder
	b.WriteString("UNWIND $rows AS row\n")
	fmt.Fprintf(&b, "MATCH (a:%s {%s: row.from})\n", quote(sanitizeLabel(c.From.Class)), quote(c.From.Identity.ConstraintField))
	fmt.Fprintf(&b, "MATCH (b:%s {%s: row.to})\n", quote(sanitizeLabel(c.To.Class)), quote(c.To.Identity.ConstraintField))
	rel := quote(sanitizeLabel(c.Class))
	if c.Addressable() {
		fmt.Fprintf(&b, "MERGE (a)-[r:%s {%s: row.id}]->(b)\n", rel, quote("constraint_"+graph.ConnectionIDField))
		fmt.Fprintf(&b, "SET r.%s = row.id", quote(graph.ConnectionIDField))
	} else {
		fmt.Fprintf(&b, "MERGE (a)-[r:%s]->(b)", rel)
	}
	return b.String()
}

func chunk(cypher string, rows []map[string]any, batch int) []Statement {
	var stmts []Statement
	for start := 0; start < len(rows); start += batch {
		end := min(start+batch, len(rows))
		part := make([]any, 0, end-start)
		for _, r := range rows[start:end] {
			part = append(part, r)
		}
		stmts = append(stmts, Statement{
			Cypher: cypher,
			Params: map[string]any{"rows": part},
			Rows:   len(part),
		})
	}
	return stmts
}
