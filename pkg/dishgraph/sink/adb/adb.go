// Package adb writes the graph projection as bulk-load CSV files: one
// file per entity class and one for connections.
package adb

import (
	"encoding/csv"
	"io"
	"path/filepath"

	"github.com/cognicore/dishgraph/pkg/dishgraph/graph"
	"github.com/cognicore/dishgraph/pkg/dishgraph/sink"
)

// Files names the output files inside the output directory.
type Files struct {
	Dishes      string `yaml:"dishes"`
	Ingredients string `yaml:"ingredients"`
	Connections string `yaml:"connections"`
}

// DefaultFiles returns the file names of the original bulk load.
func DefaultFiles() Files {
	return Files{
		Dishes:      "dishes.adb.csv",
		Ingredients: "ingredients.adb.csv",
		Connections: "dish_ingredients.adb.csv",
	}
}

// Write writes all three files to dir and returns their paths. The files
// are replaced together: if any of them fails, none is changed.
func Write(dir string, files Files, out graph.Output) ([]string, error) {
	set := []sink.File{
		{Path: filepath.Join(dir, files.Dishes), Write: func(w io.Writer) error { return WriteEntities(w, out.Dishes) }},
		{Path: filepath.Join(dir, files.Ingredients), Write: func(w io.Writer) error { return WriteEntities(w, out.Ingredients) }},
		{Path: filepath.Join(dir, files.Connections), Write: func(w io.Writer) error { return WriteConnections(w, out.Connections) }},
	}
	if err := sink.WriteAtomicSet(set); err != nil {
		return nil, err
	}

	paths := make([]string, len(set))
	for i, f := range set {
		paths[i] = f.Path
	}
	return paths, nil
}

type row interface {
	Header() []string
	Values() []string
}

func writeRows[T row](w io.Writer, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(rows[0].Header()); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.Values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEntities writes one class of entities with a header row. All
// entities of a class share the same columns.
func WriteEntities(w io.Writer, entities []graph.Entity) error {
	return writeRows(w, entities)
}

// WriteConnections writes connections with a header row.
func WriteConnections(w io.Writer, conns []graph.Connection) error {
	return writeRows(w, conns)
}
