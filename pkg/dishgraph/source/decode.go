package source

import (
	"fmt"

	"github.com/cognicore/dishgraph/pkg/dishgraph/internalerr"
	"github.com/cognicore/dishgraph/pkg/dishgraph/record"
)

// DishColumns names the source column behind each dish field.
type DishColumns struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Filename    string `yaml:"filename"`
	RecipeURL   string `yaml:"recipe_url"`
	Type        string `yaml:"type"`
	Location    string `yaml:"location"`
	Cuisine     string `yaml:"cuisine"`
	Contributor string `yaml:"contributor"`
	Caption     string `yaml:"caption"`
}

// IngredientColumns names the source column behind each ingredient field.
type IngredientColumns struct {
	Name          string `yaml:"name"`
	OtherNames    string `yaml:"other_names"`
	Category      string `yaml:"category"`
	Subgroup      string `yaml:"subgroup"`
	Macronutrient string `yaml:"macronutrient"`
	Micronutrient string `yaml:"micronutrient"`
}

// AssociationColumns names the two endpoint columns of the link table.
type AssociationColumns struct {
	DishID         string `yaml:"dish_id"`
	IngredientName string `yaml:"ingredient_name"`
}

// Columns maps source columns onto record fields.
type Columns struct {
	Dish        DishColumns        `yaml:"dish"`
	Ingredient  IngredientColumns  `yaml:"ingredient"`
	Association AssociationColumns `yaml:"association"`
}

// DefaultColumns returns the column names used by the dish spreadsheet.
func DefaultColumns() Columns {
	return Columns{
		Dish: DishColumns{
			ID:          "id",
			Name:        "name",
			Filename:    "filename",
			RecipeURL:   "Recipe URL",
			Type:        "type",
			Location:    "location",
			Cuisine:     "cuisine",
			Contributor: "contributor",
			Caption:     "caption",
		},
		Ingredient: IngredientColumns{
			Name:          "Name",
			OtherNames:    "other_names",
			Category:      "category",
			Subgroup:      "subgroup",
			Macronutrient: "macronutrient",
			Micronutrient: "micronutrient",
		},
		Association: AssociationColumns{
			DishID:         "dish_id",
			IngredientName: "ingredient_name",
		},
	}
}

// Dataset is the typed form of Tables.
type Dataset struct {
	Dishes       []record.Dish
	Ingredients  []record.Ingredient
	Associations []record.Association

	// SkippedAssociations counts link rows with a blank endpoint.
	SkippedAssociations int
}

// Decode converts raw tables into typed records. Columns not named in
// cols are ignored; a column missing from a table decodes as unset.
func Decode(ts Tables, cols Columns) (Dataset, error) {
	var ds Dataset

	dc := cols.Dish
	for i, row := range ts.Dishes.Rows {
		id := record.Parse(row[dc.ID])
		if !id.Valid() {
			return Dataset{}, fmt.Errorf("%s row %d: missing %q: %w", ts.Dishes.Name, i+1, dc.ID, internalerr.ErrInvalidInput)
		}
		ds.Dishes = append(ds.Dishes, record.Dish{
			ID:          record.CanonicalKey(id.String()),
			Name:        record.Parse(row[dc.Name]),
			Filename:    record.Parse(row[dc.Filename]),
			RecipeURL:   record.Parse(row[dc.RecipeURL]),
			Type:        record.Parse(row[dc.Type]),
			Location:    record.Parse(row[dc.Location]),
			Cuisine:     record.Parse(row[dc.Cuisine]),
			Contributor: record.Parse(row[dc.Contributor]),
			Caption:     record.Parse(row[dc.Caption]),
		})
	}

	ic := cols.Ingredient
	for i, row := range ts.Ingredients.Rows {
		name := record.Parse(row[ic.Name])
		if !name.Valid() {
			return Dataset{}, fmt.Errorf("%s row %d: missing %q: %w", ts.Ingredients.Name, i+1, ic.Name, internalerr.ErrInvalidInput)
		}
		ds.Ingredients = append(ds.Ingredients, record.Ingredient{
			Name:          name.String(),
			OtherNames:    record.Parse(row[ic.OtherNames]),
			Category:      record.Parse(row[ic.Category]),
			Subgroup:      record.Parse(row[ic.Subgroup]),
			Macronutrient: record.Parse(row[ic.Macronutrient]),
			Micronutrient: record.Parse(row[ic.Micronutrient]),
		})
	}

	ac := cols.Association
	for _, row := range ts.Associations.Rows {
		dish := record.Parse(row[ac.DishID])
		ing := record.Parse(row[ac.IngredientName])
		if !dish.Valid() || !ing.Valid() {
			ds.SkippedAssociations++
			continue
		}
		ds.Associations = append(ds.Associations, record.Association{
			DishID:         record.CanonicalKey(dish.String()),
			IngredientName: ing.String(),
		})
	}

	return ds, nil
}

// UnknownColumns lists columns of t that cols does not map. Used for
// debug logging only.
func UnknownColumns(t Table, known ...string) []string {
	set := make(map[string]struct{}, len(known))
	for _, k := range known {
		set[k] = struct{}{}
	}
	var out []string
	for _, c := range t.Columns {
		if _, ok := set[c]; !ok {
			out = append(out, c)
		}
	}
	return out
}

// Known returns every dish, ingredient and association column in cols.
func (c Columns) Known() (dish, ingredient, association []string) {
	d := c.Dish
	i := c.Ingredient
	a := c.Association
	return []string{d.ID, d.Name, d.Filename, d.RecipeURL, d.Type, d.Location, d.Cuisine, d.Contributor, d.Caption},
		[]string{i.Name, i.OtherNames, i.Category, i.Subgroup, i.Macronutrient, i.Micronutrient},
		[]string{a.DishID, a.IngredientName}
}
