package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cognicore/dishgraph/pkg/dishgraph/identity"
	"github.com/cognicore/dishgraph/pkg/dishgraph/internalerr"
	"github.com/cognicore/dishgraph/pkg/dishgraph/join"
	"github.com/cognicore/dishgraph/pkg/dishgraph/source"
	"github.com/cognicore/dishgraph/pkg/dishgraph/source/csvdir"
	"github.com/cognicore/dishgraph/pkg/dishgraph/source/sheets"
	"github.com/cognicore/dishgraph/pkg/dishgraph/store/sqlite"
)

// Components holds everything a pipeline run needs, built from a Config.
type Components struct {
	Source             source.Source
	DishStrategy       identity.Strategy
	IngredientStrategy identity.Strategy
	Join               join.Options

	// close releases the source, if it holds resources.
	close func() error
}

// Close releases resources held by the components.
func (c *Components) Close() error {
	if c.close == nil {
		return nil
	}
	return c.close()
}

// Build constructs the source and identity strategies for cfg.
func (c *Config) Build(ctx context.Context) (*Components, error) {
	kind, err := identity.ParseKind(c.Identity)
	if err != nil {
		return nil, err
	}

	comp := &Components{
		DishStrategy:       identity.New(kind, c.Columns.Dish.ID),
		IngredientStrategy: identity.New(kind, c.Columns.Ingredient.Name),
		Join:               join.Options{MediaURL: c.MediaURL, Separator: c.Separator},
	}

	switch c.Source.Kind {
	case SourceCSV:
		comp.Source = csvdir.New(csvdir.Options{
			Dir:            c.Source.Dir,
			Layout:         c.Source.Layout,
			Dishes:         c.Source.Tables.Dishes,
			Ingredients:    c.Source.Tables.Ingredients,
			Associations:   c.Source.Tables.Associations,
			PairDishColumn: c.Source.PairDishColumn,
			PairNameColumn: c.Source.PairNameColumn,
			Columns:        c.Columns,
		})
	case SourceSheets:
		comp.Source = sheets.New(sheets.Options{
			Base:         c.Source.URL,
			URLTemplate:  c.Source.URLTemplate,
			Format:       c.Source.Format,
			Dishes:       c.Source.Tables.Dishes,
			Ingredients:  c.Source.Tables.Ingredients,
			Associations: c.Source.Tables.Associations,
			Timeout:      c.Source.Timeout,
		}, nil)
	case SourceSQLite:
		st, err := sqlite.OpenSQLite(ctx, c.Source.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite source: %w", err)
		}
		comp.Source = st
		comp.close = st.Close
	default:
		return nil, fmt.Errorf("source kind %q: %w", c.Source.Kind, internalerr.ErrInvalidConfig)
	}

	return comp, nil
}

// OutputPath joins name onto the output directory.
func (c *Config) OutputPath(name string) string {
	return filepath.Join(c.Output.Dir, name)
}
