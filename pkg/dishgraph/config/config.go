package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/dishgraph/pkg/dishgraph/graph"
	"github.com/cognicore/dishgraph/pkg/dishgraph/identity"
	"github.com/cognicore/dishgraph/pkg/dishgraph/internalerr"
	"github.com/cognicore/dishgraph/pkg/dishgraph/join"
	"github.com/cognicore/dishgraph/pkg/dishgraph/sink/adb"
	"github.com/cognicore/dishgraph/pkg/dishgraph/sink/docjson"
	"github.com/cognicore/dishgraph/pkg/dishgraph/sink/graphdb"
	"github.com/cognicore/dishgraph/pkg/dishgraph/source"
	"github.com/cognicore/dishgraph/pkg/dishgraph/source/csvdir"
	"github.com/cognicore/dishgraph/pkg/dishgraph/source/sheets"
)

// Source kinds
const (
	SourceCSV    = "csv"
	SourceSheets = "sheets"
	SourceSQLite = "sqlite"
)

// Config is the full pipeline configuration.
type Config struct {
	// Identity is "generated" or "natural".
	Identity  string         `yaml:"identity"`
	Source    Source         `yaml:"source"`
	Columns   source.Columns `yaml:"columns"`
	MediaURL  string         `yaml:"media_url"`
	Separator string         `yaml:"separator"`
	Classes   graph.Classes  `yaml:"classes"`
	Output    Output         `yaml:"output"`
	Neo4j     graphdb.Config `yaml:"neo4j"`
	Log       Log            `yaml:"log"`
}

// Source selects and configures the table source.
type Source struct {
	Kind string `yaml:"kind"`

	// csv
	Dir            string        `yaml:"dir"`
	Layout         csvdir.Layout `yaml:"layout"`
	PairDishColumn string        `yaml:"pair_dish_column"`
	PairNameColumn string        `yaml:"pair_name_column"`

	// sheets
	URL         string        `yaml:"url"`
	URLTemplate string        `yaml:"url_template"`
	Format      sheets.Format `yaml:"format"`
	Timeout     time.Duration `yaml:"timeout"`

	// sqlite
	Path string `yaml:"path"`

	// File names (csv) or sheet names (sheets) per table.
	Tables Tables `yaml:"tables"`
}

// Tables names the three input tables.
type Tables struct {
	Dishes       string `yaml:"dishes"`
	Ingredients  string `yaml:"ingredients"`
	Associations string `yaml:"associations"`
}

// Output configures where results are written.
type Output struct {
	Dir       string    `yaml:"dir"`
	ADB       adb.Files `yaml:"adb"`
	Documents string    `yaml:"documents"`
	// SQLite, when set, also upserts the graph into this database.
	SQLite string `yaml:"sqlite"`
}

// Log configures the logger.
type Log struct {
	Mode string `yaml:"mode"`
}

// DefaultADB reproduces the bulk-load export: generated UUIDs, the
// images/ingredients CSV pair, and dishes tagged _Image.
func DefaultADB() Config {
	classes := graph.DefaultClasses()
	classes.Dish = "_Image"
	return Config{
		Identity: string(identity.KindGenerated),
		Source: Source{
			Kind:           SourceCSV,
			Dir:            "..",
			Layout:         csvdir.LayoutPair,
			PairDishColumn: "id",
			PairNameColumn: "ingredient_name",
			Tables:         Tables{Dishes: "images.adb.csv", Ingredients: "ingredients.csv"},
		},
		Columns:   source.DefaultColumns(),
		Separator: join.DefaultSeparator,
		Classes:   classes,
		Output:    Output{Dir: ".", ADB: adb.DefaultFiles(), Documents: docjson.DefaultFile},
		Log:       Log{Mode: "dev"},
	}
}

// DefaultNested reproduces the nested document export from the same
// CSV pair, keyed by the natural dish id.
func DefaultNested() Config {
	cfg := DefaultADB()
	cfg.Identity = string(identity.KindNatural)
	cfg.Classes = graph.DefaultClasses()
	return cfg
}

// Load reads a YAML file on top of base. Fields absent from the file keep
// their base values.
func Load(path string, base Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w: %w", path, internalerr.ErrInvalidConfig, err)
	}
	cfg.Neo4j.PasswordFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the pipeline cannot run without.
func (c *Config) Validate() error {
	if _, err := identity.ParseKind(c.Identity); err != nil {
		return err
	}
	switch c.Source.Kind {
	case SourceCSV:
		if c.Source.Tables.Dishes == "" || c.Source.Tables.Ingredients == "" {
			return fmt.Errorf("csv source needs dishes and ingredients files: %w", internalerr.ErrInvalidConfig)
		}
		if c.Source.Layout == csvdir.LayoutThreeFile && c.Source.Tables.Associations == "" {
			return fmt.Errorf("three-file layout needs an associations file: %w", internalerr.ErrInvalidConfig)
		}
	case SourceSheets:
		if c.Source.URL == "" {
			return fmt.Errorf("sheets source needs url: %w", internalerr.ErrInvalidConfig)
		}
		t := c.Source.Tables
		if t.Dishes == "" || t.Ingredients == "" || t.Associations == "" {
			return fmt.Errorf("sheets source needs three sheet names: %w", internalerr.ErrInvalidConfig)
		}
	case SourceSQLite:
		if c.Source.Path == "" {
			return fmt.Errorf("sqlite source needs path: %w", internalerr.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("source kind %q: %w", c.Source.Kind, internalerr.ErrInvalidConfig)
	}
	if c.Columns.Dish.ID == "" || c.Columns.Ingredient.Name == "" {
		return fmt.Errorf("dish id and ingredient name columns are required: %w", internalerr.ErrInvalidConfig)
	}
	if c.Classes.Dish == "" || c.Classes.Ingredient == "" || c.Classes.Connection == "" {
		return fmt.Errorf("entity and connection classes are required: %w", internalerr.ErrInvalidConfig)
	}
	return nil
}
