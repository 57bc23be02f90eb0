// Package dishgraph turns the dish, ingredient and association tables into
// graph bulk-load records and nested dish documents.
package dishgraph

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/dishgraph/internal/logger"
	"github.com/cognicore/dishgraph/pkg/dishgraph/graph"
	"github.com/cognicore/dishgraph/pkg/dishgraph/identity"
	"github.com/cognicore/dishgraph/pkg/dishgraph/join"
	"github.com/cognicore/dishgraph/pkg/dishgraph/nested"
	"github.com/cognicore/dishgraph/pkg/dishgraph/source"
)

// Pipeline is the main facade: one Run is one full regeneration.
type Pipeline struct {
	src         source.Source
	dishes      identity.Strategy
	ingredients identity.Strategy
	columns     source.Columns
	join        join.Options
	classes     graph.Classes
	log         *logger.Logger

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Options configures a Pipeline
type Options struct {
	Source             source.Source
	DishStrategy       identity.Strategy
	IngredientStrategy identity.Strategy
	Columns            source.Columns
	Join               join.Options
	Classes            graph.Classes
	Logger             *logger.Logger
}

// New creates a Pipeline. Unset strategies default to generated
// identities, unset columns and classes to their defaults.
func New(opts Options) *Pipeline {
	p := &Pipeline{
		src:         opts.Source,
		dishes:      opts.DishStrategy,
		ingredients: opts.IngredientStrategy,
		columns:     opts.Columns,
		join:        opts.Join,
		classes:     opts.Classes,
		log:         opts.Logger,
		entropy:     ulid.Monotonic(rand.Reader, 0),
	}
	if p.dishes == nil {
		p.dishes = identity.Generated{}
	}
	if p.ingredients == nil {
		p.ingredients = identity.Generated{}
	}
	if p.columns == (source.Columns{}) {
		p.columns = source.DefaultColumns()
	}
	if p.classes == (graph.Classes{}) {
		p.classes = graph.DefaultClasses()
	}
	if p.log == nil {
		p.log = logger.Nop()
	}
	return p
}

// Result is everything one run produced.
type Result struct {
	RunID string

	Graph     graph.Output
	Documents []nested.Document

	Join                join.Stats
	Dropped             []join.Dropped
	Nested              nested.Stats
	SkippedAssociations int
}

// Run loads the tables and derives both outputs. Any error aborts the
// run; nothing partial is returned.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	runID := p.newRunID()
	log := p.log.With("run", runID)

	tables, err := p.src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}
	tables = tables.DropEmpty()
	p.logUnknownColumns(log, tables)

	ds, err := source.Decode(tables, p.columns)
	if err != nil {
		return nil, fmt.Errorf("decode tables: %w", err)
	}
	log.Debug("tables decoded",
		"dishes", len(ds.Dishes),
		"ingredients", len(ds.Ingredients),
		"associations", len(ds.Associations),
		"skipped", ds.SkippedAssociations)

	dishes, err := identity.ResolveDishes(ds.Dishes, p.dishes)
	if err != nil {
		return nil, fmt.Errorf("resolve dish identities: %w", err)
	}
	ingredients, err := identity.ResolveIngredients(ds.Ingredients, p.ingredients)
	if err != nil {
		return nil, fmt.Errorf("resolve ingredient identities: %w", err)
	}

	joined := join.Join(dishes, ingredients, ds.Associations, p.join)
	if err := join.CheckConnectionIDs(joined.Rows); err != nil {
		return nil, err
	}
	for _, d := range joined.Dropped {
		log.Warn("association dropped",
			"reason", string(d.Reason),
			"row", d.Index+1,
			"dish_id", d.Association.DishID,
			"ingredient", d.Association.IngredientName)
	}

	out := graph.Project(joined.Rows, dishes, ingredients, p.classes)
	docs, nstats := nested.Aggregate(joined.Rows)
	for _, id := range nstats.SplitDishes {
		log.Warn("dish split across documents", "dish_id", id)
	}

	log.Info("run complete",
		"rows", joined.Stats.Rows,
		"edges", joined.Stats.Edges,
		"dropped", len(joined.Dropped),
		"dish_entities", len(out.Dishes),
		"ingredient_entities", len(out.Ingredients),
		"connections", len(out.Connections),
		"documents", nstats.Documents)

	return &Result{
		RunID:               runID,
		Graph:               out,
		Documents:           docs,
		Join:                joined.Stats,
		Dropped:             joined.Dropped,
		Nested:              nstats,
		SkippedAssociations: ds.SkippedAssociations,
	}, nil
}

func (p *Pipeline) newRunID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ulid.MustNew(ulid.Now(), p.entropy).String()
}

func (p *Pipeline) logUnknownColumns(log *logger.Logger, ts source.Tables) {
	dish, ing, assoc := p.columns.Known()
	for _, c := range []struct {
		t     source.Table
		known []string
	}{
		{ts.Dishes, dish},
		{ts.Ingredients, ing},
		{ts.Associations, assoc},
	} {
		if extra := source.UnknownColumns(c.t, c.known...); len(extra) > 0 {
			log.Debug("ignoring columns", "table", c.t.Name, "columns", extra)
		}
	}
}
