package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/dishgraph/pkg/dishgraph/identity"
	"github.com/cognicore/dishgraph/pkg/dishgraph/internalerr"
	"github.com/cognicore/dishgraph/pkg/dishgraph/source/csvdir"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	adbCfg := DefaultADB()
	if err := adbCfg.Validate(); err != nil {
		t.Fatalf("DefaultADB invalid: %v", err)
	}
	if adbCfg.Classes.Dish != "_Image" {
		t.Errorf("Expected dish class _Image, got %s", adbCfg.Classes.Dish)
	}

	nested := DefaultNested()
	if err := nested.Validate(); err != nil {
		t.Fatalf("DefaultNested invalid: %v", err)
	}
	if nested.Identity != string(identity.KindNatural) {
		t.Errorf("Expected natural identity, got %s", nested.Identity)
	}
	if nested.Classes.Dish != "Dish" {
		t.Errorf("Expected dish class Dish, got %s", nested.Classes.Dish)
	}
}

func TestLoadOverridesBase(t *testing.T) {
	path := writeConfig(t, `identity: natural
media_url: https://cdn.example.com/{filename}
source:
  kind: csv
  dir: data
  layout: three-file
  tables:
    dishes: dishes.csv
    ingredients: ingredients.csv
    associations: links.csv
columns:
  dish:
    id: dish_key
classes:
  connection: Contains
`)

	cfg, err := Load(path, DefaultADB())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Identity != "natural" {
		t.Errorf("Expected natural identity, got %s", cfg.Identity)
	}
	if cfg.Source.Layout != csvdir.LayoutThreeFile {
		t.Errorf("Expected three-file layout, got %s", cfg.Source.Layout)
	}
	if cfg.Columns.Dish.ID != "dish_key" {
		t.Errorf("Expected dish id column dish_key, got %s", cfg.Columns.Dish.ID)
	}
	// Untouched nested fields keep their base values.
	if cfg.Columns.Dish.Name != "name" {
		t.Errorf("Expected dish name column to stay name, got %s", cfg.Columns.Dish.Name)
	}
	if cfg.Classes.Connection != "Contains" || cfg.Classes.Ingredient != "Ingredient" {
		t.Errorf("Unexpected classes: %+v", cfg.Classes)
	}
	if cfg.Output.ADB.Dishes != "dishes.adb.csv" {
		t.Errorf("Expected default adb file names, got %+v", cfg.Output.ADB)
	}
}

func TestLoadPasswordFromEnv(t *testing.T) {
	t.Setenv("NEO4J_PASSWORD", "secret")
	path := writeConfig(t, "neo4j:\n  uri: bolt://localhost:7687\n")

	cfg, err := Load(path, DefaultNested())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Neo4j.Password != "secret" {
		t.Errorf("Expected password from env, got %q", cfg.Neo4j.Password)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad identity", "identity: sequential\n"},
		{"bad source", "source:\n  kind: ftp\n"},
		{"sheets without url", "source:\n  kind: sheets\n"},
		{"sqlite without path", "source:\n  kind: sqlite\n"},
		{"three-file without links", "source:\n  layout: three-file\n"},
		{"empty class", "classes:\n  dish: \"\"\n"},
		{"malformed", "identity: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content), DefaultADB())
			if !errors.Is(err, internalerr.ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), DefaultADB()); err == nil {
		t.Fatal("Expected error for missing file")
	}
}
