// Package csvdir reads the input tables from CSV files in one directory.
package csvdir

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cognicore/dishgraph/pkg/dishgraph/internalerr"
	"github.com/cognicore/dishgraph/pkg/dishgraph/record"
	"github.com/cognicore/dishgraph/pkg/dishgraph/source"
)

// Layout selects how the tables are spread over files.
type Layout string

const (
	// LayoutThreeFile keeps dishes, ingredients and associations apart.
	LayoutThreeFile Layout = "three-file"
	// LayoutPair has a dishes file and an ingredients file whose rows each
	// name their owning dish. Ingredient and association tables are both
	// derived from the second file.
	LayoutPair Layout = "pair"
)

// Options configures a directory source.
type Options struct {
	Dir          string
	Layout       Layout
	Dishes       string // file names, relative to Dir
	Ingredients  string
	Associations string

	// Pair layout: columns of the ingredients file holding the owning
	// dish id and the ingredient name.
	PairDishColumn string
	PairNameColumn string

	Columns source.Columns
}

// DefaultOptions mirrors the original export: images.adb.csv plus
// ingredients.csv keyed by dish id.
func DefaultOptions(dir string) Options {
	return Options{
		Dir:            dir,
		Layout:         LayoutPair,
		Dishes:         "images.adb.csv",
		Ingredients:    "ingredients.csv",
		Associations:   "associations.csv",
		PairDishColumn: "id",
		PairNameColumn: "ingredient_name",
		Columns:        source.DefaultColumns(),
	}
}

// Source implements source.Source over a directory.
type Source struct {
	opts Options
}

// New creates a directory source.
func New(opts Options) *Source {
	return &Source{opts: opts}
}

// Load reads every table. A missing or unreadable file aborts the load.
func (s *Source) Load(ctx context.Context) (source.Tables, error) {
	var ts source.Tables
	var err error

	if ts.Dishes, err = s.read(ctx, "dishes", s.opts.Dishes); err != nil {
		return source.Tables{}, err
	}

	switch s.opts.Layout {
	case LayoutPair:
		pair, err := s.read(ctx, "ingredients", s.opts.Ingredients)
		if err != nil {
			return source.Tables{}, err
		}
		ts.Ingredients, ts.Associations = Split(pair, s.opts.PairDishColumn, s.opts.PairNameColumn, s.opts.Columns)
	case LayoutThreeFile, "":
		if ts.Ingredients, err = s.read(ctx, "ingredients", s.opts.Ingredients); err != nil {
			return source.Tables{}, err
		}
		if ts.Associations, err = s.read(ctx, "associations", s.opts.Associations); err != nil {
			return source.Tables{}, err
		}
	default:
		return source.Tables{}, fmt.Errorf("csvdir layout %q: %w", s.opts.Layout, internalerr.ErrInvalidConfig)
	}

	return ts, nil
}

func (s *Source) read(ctx context.Context, name, file string) (source.Table, error) {
	if err := ctx.Err(); err != nil {
		return source.Table{}, err
	}
	path := filepath.Join(s.opts.Dir, file)
	f, err := os.Open(path)
	if err != nil {
		return source.Table{}, fmt.Errorf("open %s: %w: %w", path, internalerr.ErrSourceUnavailable, err)
	}
	defer f.Close()

	t, err := ReadTable(name, f)
	if err != nil {
		return source.Table{}, fmt.Errorf("read %s: %w: %w", path, internalerr.ErrSourceUnavailable, err)
	}
	return t, nil
}

// ReadTable parses CSV with a header row. Ragged rows are allowed.
func ReadTable(name string, r io.Reader) (source.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return source.Table{Name: name}, nil
	}
	if err != nil {
		return source.Table{}, err
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	records, err := cr.ReadAll()
	if err != nil {
		return source.Table{}, err
	}
	return source.NewTable(name, header, records), nil
}

// Split derives the ingredient and association tables from a pair-layout
// ingredients table. Ingredients keep the first row seen for each name.
func Split(pair source.Table, dishCol, nameCol string, cols source.Columns) (ingredients, associations source.Table) {
	assocCols := []string{cols.Association.DishID, cols.Association.IngredientName}
	associations = source.Table{Name: "associations", Columns: assocCols}

	ingCols := make([]string, 0, len(pair.Columns))
	for _, c := range pair.Columns {
		switch c {
		case dishCol:
			continue
		case nameCol:
			ingCols = append(ingCols, cols.Ingredient.Name)
		default:
			ingCols = append(ingCols, c)
		}
	}
	ingredients = source.Table{Name: "ingredients", Columns: ingCols}

	seen := make(map[string]struct{})
	for _, row := range pair.Rows {
		name := record.Parse(row[nameCol]).String()
		associations.Rows = append(associations.Rows, source.Row{
			cols.Association.DishID:         row[dishCol],
			cols.Association.IngredientName: row[nameCol],
		})

		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		ing := make(source.Row, len(ingCols))
		for _, c := range pair.Columns {
			switch c {
			case dishCol:
			case nameCol:
				ing[cols.Ingredient.Name] = row[c]
			default:
				ing[c] = row[c]
			}
		}
		ingredients.Rows = append(ingredients.Rows, ing)
	}
	return ingredients, associations
}
