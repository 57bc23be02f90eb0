package memstore

import (
	"context"
	"maps"
	"sync"

	"github.com/cognicore/dishgraph/pkg/dishgraph/graph"
	"github.com/cognicore/dishgraph/pkg/dishgraph/source"
	"github.com/cognicore/dishgraph/pkg/dishgraph/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu          sync.RWMutex
	tables      source.Tables
	entities    map[string]store.Entity // class + constraint
	entityOrder []string
	conns       map[string]store.Connection // class + key
	connOrder   []string
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		entities: make(map[string]store.Entity),
		conns:    make(map[string]store.Connection),
	}
}

// NewWithTables creates a store preloaded with source tables.
func NewWithTables(ts source.Tables) *Store {
	s := New()
	s.tables = copyTables(ts)
	return s
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// ReplaceTables swaps the held source tables.
func (s *Store) ReplaceTables(ctx context.Context, ts source.Tables) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = copyTables(ts)
	return nil
}

// Load implements source.Source.
func (s *Store) Load(ctx context.Context) (source.Tables, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyTables(s.tables), nil
}

// UpsertEntity inserts or replaces an entity, keyed by class and constraint.
func (s *Store) UpsertEntity(ctx context.Context, e graph.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertEntity(store.FromEntity(e))
	return nil
}

func (s *Store) upsertEntity(e store.Entity) {
	k := e.Class + "\x00" + e.Constraint
	if _, ok := s.entities[k]; !ok {
		s.entityOrder = append(s.entityOrder, k)
	}
	s.entities[k] = e
}

// UpsertConnection inserts or replaces a connection, keyed by class and key.
func (s *Store) UpsertConnection(ctx context.Context, c graph.Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertConnection(store.FromConnection(c))
	return nil
}

func (s *Store) upsertConnection(c store.Connection) {
	k := c.Class + "\x00" + c.Key
	if _, ok := s.conns[k]; !ok {
		s.connOrder = append(s.connOrder, k)
	}
	s.conns[k] = c
}

// SaveGraph upserts every entity and connection of out.
func (s *Store) SaveGraph(ctx context.Context, out graph.Output) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range out.Dishes {
		s.upsertEntity(store.FromEntity(e))
	}
	for _, e := range out.Ingredients {
		s.upsertEntity(store.FromEntity(e))
	}
	for _, c := range out.Connections {
		s.upsertConnection(store.FromConnection(c))
	}
	return nil
}

// Entities returns the stored entities of a class in insertion order.
func (s *Store) Entities(ctx context.Context, class string) ([]store.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []store.Entity
	for _, k := range s.entityOrder {
		e := s.entities[k]
		if e.Class != class {
			continue
		}
		e.Properties = maps.Clone(e.Properties)
		out = append(out, e)
	}
	return out, nil
}

// Connections returns the stored connections of a class in insertion order.
func (s *Store) Connections(ctx context.Context, class string) ([]store.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []store.Connection
	for _, k := range s.connOrder {
		if c := s.conns[k]; c.Class == class {
			out = append(out, c)
		}
	}
	return out, nil
}

func copyTables(ts source.Tables) source.Tables {
	return source.Tables{
		Dishes:       copyTable(ts.Dishes),
		Ingredients:  copyTable(ts.Ingredients),
		Associations: copyTable(ts.Associations),
	}
}

func copyTable(t source.Table) source.Table {
	out := source.Table{Name: t.Name, Columns: append([]string(nil), t.Columns...)}
	for _, r := range t.Rows {
		out.Rows = append(out.Rows, maps.Clone(r))
	}
	return out
}
