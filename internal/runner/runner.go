// Package runner holds the setup shared by the command line tools.
package runner

import (
	"context"
	"fmt"

	"github.com/cognicore/dishgraph/internal/logger"
	"github.com/cognicore/dishgraph/pkg/dishgraph"
	"github.com/cognicore/dishgraph/pkg/dishgraph/config"
	"github.com/cognicore/dishgraph/pkg/dishgraph/store/sqlite"
)

// LoadConfig returns base when path is empty, otherwise base overlaid
// with the YAML file at path.
func LoadConfig(path string, base config.Config) (*config.Config, error) {
	if path == "" {
		cfg := base
		cfg.Neo4j.PasswordFromEnv()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	return config.Load(path, base)
}

// Run builds the pipeline described by cfg and runs it once.
func Run(ctx context.Context, cfg *config.Config, log *logger.Logger) (*dishgraph.Result, error) {
	comp, err := cfg.Build(ctx)
	if err != nil {
		return nil, err
	}
	defer comp.Close()

	p := dishgraph.New(dishgraph.Options{
		Source:             comp.Source,
		DishStrategy:       comp.DishStrategy,
		IngredientStrategy: comp.IngredientStrategy,
		Columns:            cfg.Columns,
		Join:               comp.Join,
		Classes:            cfg.Classes,
		Logger:             log,
	})
	return p.Run(ctx)
}

// SaveSQLite upserts the graph into the database configured under
// output.sqlite. It is a no-op when none is set.
func SaveSQLite(ctx context.Context, cfg *config.Config, res *dishgraph.Result) error {
	if cfg.Output.SQLite == "" {
		return nil
	}
	st, err := sqlite.OpenSQLite(ctx, cfg.Output.SQLite)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.Output.SQLite, err)
	}
	defer st.Close()

	if err := st.SaveGraph(ctx, res.Graph); err != nil {
		return fmt.Errorf("save graph: %w", err)
	}
	return nil
}
