// Package join merges dishes, associations and ingredients into one row
// per dish-ingredient edge.
//
// Dishes are left-joined to associations on the dish id, and associations
// are inner-joined to ingredients on name. Every dish yields at least one
// row; a row whose Ingredient is nil stands for "no ingredients".
package join

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/cognicore/dishgraph/pkg/dishgraph/internalerr"
	"github.com/cognicore/dishgraph/pkg/dishgraph/record"
)

// FilenamePlaceholder is replaced with the dish filename in Options.MediaURL.
const FilenamePlaceholder = "{filename}"

// DefaultSeparator joins the two endpoint identities of a connection id.
const DefaultSeparator = "_"

// Options controls the derived fields.
type Options struct {
	// MediaURL is a template such as "https://cdn.example.com/dishes/{filename}".
	// Empty leaves Dish.URL untouched.
	MediaURL string
	// Separator between dish and ingredient identity in ConnectionID.
	Separator string
}

// Row is one joined (dish, association, ingredient) triple.
type Row struct {
	Dish         record.Dish
	Ingredient   *record.Ingredient
	ConnectionID string
}

// Reason says why an association was dropped.
type Reason string

const (
	MissingDish       Reason = "missing dish"
	MissingIngredient Reason = "missing ingredient"
)

// Dropped is an association that did not survive the join.
type Dropped struct {
	Association record.Association
	Index       int // position in the association table
	Reason      Reason
}

// Stats summarises a join.
type Stats struct {
	Rows              int
	Edges             int
	EmptyDishes       int // dishes emitted with a nil ingredient row
	MissingDish       int
	MissingIngredient int
}

// Result is the output of Join.
type Result struct {
	Rows    []Row
	Dropped []Dropped
	Stats   Stats
}

// Join merges the three tables. Row order follows dishes, then
// associations, then ingredients, each in input order. Repeated
// associations produce repeated rows.
func Join(dishes []record.Dish, ingredients []record.Ingredient, associations []record.Association, opts Options) Result {
	sep := opts.Separator
	if sep == "" {
		sep = DefaultSeparator
	}

	byName := make(map[string][]int, len(ingredients))
	for i, ing := range ingredients {
		byName[ing.Name] = append(byName[ing.Name], i)
	}

	byDish := make(map[string][]int, len(dishes))
	for i, a := range associations {
		byDish[a.DishID] = append(byDish[a.DishID], i)
	}

	var res Result
	known := make(map[string]struct{}, len(dishes))

	for _, d := range dishes {
		known[d.ID] = struct{}{}
		d.URL = mediaURL(d, opts.MediaURL)

		emitted := false
		for _, ai := range byDish[d.ID] {
			a := associations[ai]
			matches := byName[a.IngredientName]
			if len(matches) == 0 {
				res.Dropped = append(res.Dropped, Dropped{Association: a, Index: ai, Reason: MissingIngredient})
				res.Stats.MissingIngredient++
				continue
			}
			for _, ii := range matches {
				ing := ingredients[ii]
				res.Rows = append(res.Rows, Row{
					Dish:         d,
					Ingredient:   &ing,
					ConnectionID: connectionID(d.Identity, ing.Identity, sep),
				})
				res.Stats.Edges++
				emitted = true
			}
		}

		if !emitted {
			res.Rows = append(res.Rows, Row{Dish: d})
			res.Stats.EmptyDishes++
		}
	}

	for i, a := range associations {
		if _, ok := known[a.DishID]; !ok {
			res.Dropped = append(res.Dropped, Dropped{Association: a, Index: i, Reason: MissingDish})
			res.Stats.MissingDish++
		}
	}

	res.Stats.Rows = len(res.Rows)
	return res
}

func mediaURL(d record.Dish, tmpl string) record.Opt {
	if tmpl == "" {
		return d.URL
	}
	name, ok := d.Filename.Get()
	if !ok {
		return record.None()
	}
	return record.Some(strings.ReplaceAll(tmpl, FilenamePlaceholder, url.PathEscape(name)))
}

func connectionID(dish, ing record.Identity, sep string) string {
	if dish.IsZero() || ing.IsZero() {
		return ""
	}
	return dish.Value + sep + ing.Value
}

// CheckConnectionIDs fails when two different dish-ingredient pairs share
// a connection id. That happens when an identity contains the separator,
// e.g. "a_b"+"c" and "a"+"b_c". Repeated associations of the same pair
// are not a collision.
func CheckConnectionIDs(rows []Row) error {
	type pair struct{ dish, ing string }
	seen := make(map[string]pair)
	for _, r := range rows {
		if r.Ingredient == nil || r.ConnectionID == "" {
			continue
		}
		p := pair{r.Dish.Identity.Value, r.Ingredient.Identity.Value}
		prev, ok := seen[r.ConnectionID]
		if !ok {
			seen[r.ConnectionID] = p
			continue
		}
		if prev != p {
			return fmt.Errorf("connection id %q names both %s/%s and %s/%s, choose another separator: %w",
				r.ConnectionID, prev.dish, prev.ing, p.dish, p.ing, internalerr.ErrDuplicateNaturalKey)
		}
	}
	return nil
}
