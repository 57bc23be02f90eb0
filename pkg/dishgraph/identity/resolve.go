package identity

import (
	"fmt"
	"strings"

	"github.com/cognicore/dishgraph/pkg/dishgraph/internalerr"
	"github.com/cognicore/dishgraph/pkg/dishgraph/record"
)

// DuplicateKeyError reports a natural key shared by several rows.
type DuplicateKeyError struct {
	Table string
	Key   string
	Rows  []int // 1-based
}

func (e *DuplicateKeyError) Error() string {
	rows := make([]string, len(e.Rows))
	for i, r := range e.Rows {
		rows[i] = fmt.Sprint(r)
	}
	return fmt.Sprintf("%s: key %q appears on rows %s", e.Table, e.Key, strings.Join(rows, ","))
}

func (e *DuplicateKeyError) Unwrap() error { return internalerr.ErrDuplicateNaturalKey }

// checkUnique returns the first duplicated key in keys, by first occurrence.
func checkUnique(table string, keys []string) error {
	seen := make(map[string][]int, len(keys))
	var order []string
	for i, k := range keys {
		if _, ok := seen[k]; !ok {
			order = append(order, k)
		}
		seen[k] = append(seen[k], i+1)
	}
	for _, k := range order {
		if rows := seen[k]; len(rows) > 1 {
			return &DuplicateKeyError{Table: table, Key: k, Rows: rows}
		}
	}
	return nil
}

// ResolveDishes returns a copy of dishes with identities assigned.
// Under the natural strategy dish ids must be unique.
func ResolveDishes(dishes []record.Dish, s Strategy) ([]record.Dish, error) {
	if s.Kind() == KindNatural {
		keys := make([]string, len(dishes))
		for i, d := range dishes {
			keys[i] = d.ID
		}
		if err := checkUnique("dishes", keys); err != nil {
			return nil, err
		}
	}

	out := make([]record.Dish, len(dishes))
	for i, d := range dishes {
		id, err := s.Assign(d.ID)
		if err != nil {
			return nil, fmt.Errorf("dish row %d: %w", i+1, err)
		}
		d.Identity = id
		out[i] = d
	}
	return out, nil
}

// ResolveIngredients returns a copy of ingredients with identities
// assigned. Names must be unique under every strategy: the join matches
// associations to ingredients by name.
func ResolveIngredients(ingredients []record.Ingredient, s Strategy) ([]record.Ingredient, error) {
	keys := make([]string, len(ingredients))
	for i, ing := range ingredients {
		keys[i] = ing.Name
	}
	if err := checkUnique("ingredients", keys); err != nil {
		return nil, err
	}

	out := make([]record.Ingredient, len(ingredients))
	for i, ing := range ingredients {
		id, err := s.Assign(ing.Name)
		if err != nil {
			return nil, fmt.Errorf("ingredient row %d: %w", i+1, err)
		}
		ing.Identity = id
		out[i] = ing
	}
	return out, nil
}
