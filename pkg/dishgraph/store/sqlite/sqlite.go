package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/cognicore/dishgraph/pkg/dishgraph/graph"
	"github.com/cognicore/dishgraph/pkg/dishgraph/internalerr"
	"github.com/cognicore/dishgraph/pkg/dishgraph/source"
	"github.com/cognicore/dishgraph/pkg/dishgraph/store"
)

// Table names under which the source tables are kept.
const (
	TableDishes       = "dishes"
	TableIngredients  = "ingredients"
	TableAssociations = "associations"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %w", path, internalerr.ErrStoreUnavailable, err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w: %w", path, internalerr.ErrStoreUnavailable, err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist. Source tables are held
// cell by cell so sparse sheets with arbitrary columns round-trip.
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS source_columns (
	table_name TEXT NOT NULL,
	position INTEGER NOT NULL,
	column_name TEXT NOT NULL,
	PRIMARY KEY(table_name, position)
);

CREATE TABLE IF NOT EXISTS source_cells (
	table_name TEXT NOT NULL,
	row_index INTEGER NOT NULL,
	column_name TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY(table_name, row_index, column_name)
);

CREATE TABLE IF NOT EXISTS source_rows (
	table_name TEXT NOT NULL,
	row_index INTEGER NOT NULL,
	PRIMARY KEY(table_name, row_index)
);

CREATE TABLE IF NOT EXISTS entities (
	class TEXT NOT NULL,
	constraint_value TEXT NOT NULL,
	identity_field TEXT NOT NULL,
	constraint_field TEXT NOT NULL,
	properties TEXT NOT NULL,
	PRIMARY KEY(class, constraint_value)
);

CREATE TABLE IF NOT EXISTS connections (
	class TEXT NOT NULL,
	connection_key TEXT NOT NULL,
	from_class TEXT NOT NULL,
	from_id TEXT NOT NULL,
	to_class TEXT NOT NULL,
	to_id TEXT NOT NULL,
	PRIMARY KEY(class, connection_key)
);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// ReplaceTables stores ts, dropping whatever was held before.
func (s *sqliteStore) ReplaceTables(ctx context.Context, ts source.Tables) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{`DELETE FROM source_columns`, `DELETE FROM source_cells`, `DELETE FROM source_rows`} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return err
		}
	}

	for name, t := range map[string]source.Table{
		TableDishes:       ts.Dishes,
		TableIngredients:  ts.Ingredients,
		TableAssociations: ts.Associations,
	} {
		if err := insertTable(ctx, tx, name, t); err != nil {
			return fmt.Errorf("store %s: %w", name, err)
		}
	}

	return tx.Commit()
}

func insertTable(ctx context.Context, tx *sql.Tx, name string, t source.Table) error {
	colStmt, err := tx.PrepareContext(ctx, `INSERT INTO source_columns (table_name, position, column_name) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer colStmt.Close()
	for i, c := range t.Columns {
		if _, err := colStmt.ExecContext(ctx, name, i, c); err != nil {
			return err
		}
	}

	rowStmt, err := tx.PrepareContext(ctx, `INSERT INTO source_rows (table_name, row_index) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer rowStmt.Close()

	cellStmt, err := tx.PrepareContext(ctx, `INSERT INTO source_cells (table_name, row_index, column_name, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer cellStmt.Close()

	for i, row := range t.Rows {
		if _, err := rowStmt.ExecContext(ctx, name, i); err != nil {
			return err
		}
		for _, c := range t.Columns {
			v, ok := row[c]
			if !ok || v == "" {
				continue
			}
			if _, err := cellStmt.ExecContext(ctx, name, i, c, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// Load implements source.Source. A database that never stored a dishes
// table is ErrNotFound.
func (s *sqliteStore) Load(ctx context.Context) (source.Tables, error) {
	var ts source.Tables
	var err error
	if ts.Dishes, err = s.loadTable(ctx, TableDishes); err != nil {
		return source.Tables{}, fmt.Errorf("load %s: %w: %w", TableDishes, internalerr.ErrSourceUnavailable, err)
	}
	if len(ts.Dishes.Columns) == 0 {
		return source.Tables{}, fmt.Errorf("load %s: %w: %w", TableDishes, internalerr.ErrSourceUnavailable, internalerr.ErrNotFound)
	}
	if ts.Ingredients, err = s.loadTable(ctx, TableIngredients); err != nil {
		return source.Tables{}, fmt.Errorf("load %s: %w: %w", TableIngredients, internalerr.ErrSourceUnavailable, err)
	}
	if ts.Associations, err = s.loadTable(ctx, TableAssociations); err != nil {
		return source.Tables{}, fmt.Errorf("load %s: %w: %w", TableAssociations, internalerr.ErrSourceUnavailable, err)
	}
	return ts, nil
}

func (s *sqliteStore) loadTable(ctx context.Context, name string) (source.Table, error) {
	t := source.Table{Name: name}

	cols, err := s.db.QueryContext(ctx, `SELECT column_name FROM source_columns WHERE table_name=? ORDER BY position`, name)
	if err != nil {
		return t, err
	}
	for cols.Next() {
		var c string
		if err := cols.Scan(&c); err != nil {
			cols.Close()
			return t, err
		}
		t.Columns = append(t.Columns, c)
	}
	cols.Close()
	if err := cols.Err(); err != nil {
		return t, err
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM source_rows WHERE table_name=?`, name).Scan(&n); err != nil {
		return t, err
	}
	t.Rows = make([]source.Row, n)
	for i := range t.Rows {
		row := make(source.Row, len(t.Columns))
		for _, c := range t.Columns {
			row[c] = ""
		}
		t.Rows[i] = row
	}

	cells, err := s.db.QueryContext(ctx, `SELECT row_index, column_name, value FROM source_cells WHERE table_name=?`, name)
	if err != nil {
		return t, err
	}
	defer cells.Close()
	for cells.Next() {
		var (
			idx    int
			col, v string
		)
		if err := cells.Scan(&idx, &col, &v); err != nil {
			return t, err
		}
		if idx >= 0 && idx < n {
			t.Rows[idx][col] = v
		}
	}
	return t, cells.Err()
}

// UpsertEntity inserts or updates an entity keyed by class and constraint value.
func (s *sqliteStore) UpsertEntity(ctx context.Context, e graph.Entity) error {
	return upsertEntity(ctx, s.db, store.FromEntity(e))
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertEntity(ctx context.Context, db execer, e store.Entity) error {
	props, err := json.Marshal(e.Properties)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
INSERT INTO entities (class, constraint_value, identity_field, constraint_field, properties)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(class, constraint_value) DO UPDATE SET
	identity_field=excluded.identity_field,
	constraint_field=excluded.constraint_field,
	properties=excluded.properties;
`, e.Class, e.Constraint, e.IdentityField, e.ConstraintField, string(props))
	return err
}

// UpsertConnection inserts or updates a connection keyed by class and connection key.
func (s *sqliteStore) UpsertConnection(ctx context.Context, c graph.Connection) error {
	return upsertConnection(ctx, s.db, store.FromConnection(c))
}

func upsertConnection(ctx context.Context, db execer, c store.Connection) error {
	_, err := db.ExecContext(ctx, `
INSERT INTO connections (class, connection_key, from_class, from_id, to_class, to_id)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(class, connection_key) DO UPDATE SET
	from_class=excluded.from_class,
	from_id=excluded.from_id,
	to_class=excluded.to_class,
	to_id=excluded.to_id;
`, c.Class, c.Key, c.FromClass, c.From, c.ToClass, c.To)
	return err
}

// SaveGraph upserts a whole projection in one transaction.
func (s *sqliteStore) SaveGraph(ctx context.Context, out graph.Output) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, list := range [][]graph.Entity{out.Dishes, out.Ingredients} {
		for _, e := range list {
			if err := upsertEntity(ctx, tx, store.FromEntity(e)); err != nil {
				return fmt.Errorf("upsert %s %q: %w", e.Class, e.Identity.Value, err)
			}
		}
	}
	for _, c := range out.Connections {
		if err := upsertConnection(ctx, tx, store.FromConnection(c)); err != nil {
			return fmt.Errorf("upsert %s %q: %w", c.Class, store.ConnectionKey(c), err)
		}
	}

	return tx.Commit()
}

// Entities returns the stored entities of a class.
func (s *sqliteStore) Entities(ctx context.Context, class string) ([]store.Entity, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT constraint_value, identity_field, constraint_field, properties
FROM entities WHERE class=? ORDER BY rowid`, class)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Entity
	for rows.Next() {
		e := store.Entity{Class: class}
		var props string
		if err := rows.Scan(&e.Constraint, &e.IdentityField, &e.ConstraintField, &props); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(props), &e.Properties); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Connections returns the stored connections of a class.
func (s *sqliteStore) Connections(ctx context.Context, class string) ([]store.Connection, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT connection_key, from_class, from_id, to_class, to_id
FROM connections WHERE class=? ORDER BY rowid`, class)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Connection
	for rows.Next() {
		c := store.Connection{Class: class}
		if err := rows.Scan(&c.Key, &c.FromClass, &c.From, &c.ToClass, &c.To); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
