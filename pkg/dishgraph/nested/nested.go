// Package nested folds joined rows into one document per dish with its
// ingredients embedded inline.
package nested

import (
	"github.com/cognicore/dishgraph/pkg/dishgraph/join"
	"github.com/cognicore/dishgraph/pkg/dishgraph/record"
)

// IngredientDoc is an embedded ingredient. Unset fields are omitted.
type IngredientDoc struct {
	Name          record.Opt `json:"Name,omitzero"`
	OtherNames    record.Opt `json:"other_names,omitzero"`
	Category      record.Opt `json:"category,omitzero"`
	Subgroup      record.Opt `json:"subgroup,omitzero"`
	Macronutrient record.Opt `json:"macronutrient,omitzero"`
	Micronutrient record.Opt `json:"micronutrient,omitzero"`
}

// Document is a dish with its ingredient list. Unset dish fields are
// written as null.
type Document struct {
	DishID      string          `json:"dish_id"`
	Name        record.Opt      `json:"name"`
	Filename    record.Opt      `json:"filename"`
	URL         record.Opt      `json:"url"`
	Type        record.Opt      `json:"type"`
	Location    record.Opt      `json:"location"`
	Cuisine     record.Opt      `json:"cuisine"`
	RecipeURL   record.Opt      `json:"recipe_url"`
	Contributor record.Opt      `json:"contributor"`
	Caption     record.Opt      `json:"caption"`
	Ingredients []IngredientDoc `json:"ingredients"`
}

// groupKey is the full dish tuple. Two rows share a document only when
// every field matches.
type groupKey struct {
	identity    string
	url         record.Opt
	typ         record.Opt
	location    record.Opt
	cuisine     record.Opt
	recipeURL   record.Opt
	contributor record.Opt
	caption     record.Opt
	name        record.Opt
}

func keyOf(d record.Dish) groupKey {
	return groupKey{
		identity:    d.Identity.Value + "\x00" + d.ID,
		url:         d.URL,
		typ:         d.Type,
		location:    d.Location,
		cuisine:     d.Cuisine,
		recipeURL:   d.RecipeURL,
		contributor: d.Contributor,
		caption:     d.Caption,
		name:        d.Name,
	}
}

// Stats summarises an aggregation.
type Stats struct {
	Documents   int
	Ingredients int
	// SplitDishes lists dish ids that ended up in more than one document
	// because a dish-level field differed between their rows.
	SplitDishes []string
}

// Aggregate groups rows by dish tuple in first-seen order and embeds each
// group's ingredients in row order. A group with only a nil-ingredient
// row gets an empty, non-nil list.
func Aggregate(rows []join.Row) ([]Document, Stats) {
	var (
		docs  []Document
		stats Stats
	)
	index := make(map[groupKey]int)
	docsPerDish := make(map[string]int)

	for _, r := range rows {
		k := keyOf(r.Dish)
		i, ok := index[k]
		if !ok {
			i = len(docs)
			index[k] = i
			docs = append(docs, newDocument(r.Dish))
			docsPerDish[k.identity]++
			if docsPerDish[k.identity] == 2 {
				stats.SplitDishes = append(stats.SplitDishes, r.Dish.ID)
			}
		}
		if r.Ingredient == nil {
			continue
		}
		docs[i].Ingredients = append(docs[i].Ingredients, embed(*r.Ingredient))
		stats.Ingredients++
	}

	stats.Documents = len(docs)
	return docs, stats
}

func newDocument(d record.Dish) Document {
	return Document{
		DishID:      d.ID,
		Name:        d.Name,
		Filename:    d.Filename,
		URL:         d.URL,
		Type:        d.Type,
		Location:    d.Location,
		Cuisine:     d.Cuisine,
		RecipeURL:   d.RecipeURL,
		Contributor: d.Contributor,
		Caption:     d.Caption,
		Ingredients: []IngredientDoc{},
	}
}

// embed copies an ingredient, re-parsing every field so a value set to
// blank or a not-a-number spelling is pruned like a missing one.
func embed(ing record.Ingredient) IngredientDoc {
	return IngredientDoc{
		Name:          record.Parse(ing.Name),
		OtherNames:    record.Parse(ing.OtherNames.String()),
		Category:      record.Parse(ing.Category.String()),
		Subgroup:      record.Parse(ing.Subgroup.String()),
		Macronutrient: record.Parse(ing.Macronutrient.String()),
		Micronutrient: record.Parse(ing.Micronutrient.String()),
	}
}

// Fields returns the set fields of an embedded ingredient, in output
// order. Handy for sinks that do not go through encoding/json.
func (d IngredientDoc) Fields() []record.Attr {
	all := []record.Attr{
		{Name: "Name", Value: d.Name},
		{Name: "other_names", Value: d.OtherNames},
		{Name: "category", Value: d.Category},
		{Name: "subgroup", Value: d.Subgroup},
		{Name: "macronutrient", Value: d.Macronutrient},
		{Name: "micronutrient", Value: d.Micronutrient},
	}
	out := all[:0]
	for _, a := range all {
		if a.Value.Valid() {
			out = append(out, a)
		}
	}
	return out
}
