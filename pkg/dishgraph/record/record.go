// Package record holds the typed rows that flow through the pipeline.
package record

// Identity is the graph identity assigned to an entity.
type Identity struct {
	Value           string
	Field           string // column carrying Value, e.g. "UUID" or "id"
	ConstraintField string // column the store matches on for upserts
}

// IsZero reports whether no identity has been assigned.
func (i Identity) IsZero() bool { return i.Value == "" }

// Dish is one row of the dishes table.
type Dish struct {
	ID          string // natural identifier
	Name        Opt
	Filename    Opt
	URL         Opt // derived from Filename
	RecipeURL   Opt
	Type        Opt
	Location    Opt
	Cuisine     Opt
	Contributor Opt
	Caption     Opt

	Identity Identity
}

// Attr is a named attribute value.
type Attr struct {
	Name  string
	Value Opt
}

// Attrs returns the dish's source attributes in output column order.
func (d Dish) Attrs() []Attr {
	return []Attr{
		{"id", Some(d.ID)},
		{"name", d.Name},
		{"filename", d.Filename},
		{"url", d.URL},
		{"Recipe URL", d.RecipeURL},
		{"type", d.Type},
		{"location", d.Location},
		{"cuisine", d.Cuisine},
		{"contributor", d.Contributor},
		{"caption", d.Caption},
	}
}

// Ingredient is one row of the ingredients table.
type Ingredient struct {
	Name          string
	OtherNames    Opt
	Category      Opt
	Subgroup      Opt
	Macronutrient Opt
	Micronutrient Opt

	Identity Identity
}

// Attrs returns the ingredient's source attributes in output column order.
func (i Ingredient) Attrs() []Attr {
	return []Attr{
		{"Name", Some(i.Name)},
		{"other_names", i.OtherNames},
		{"category", i.Category},
		{"subgroup", i.Subgroup},
		{"macronutrient", i.Macronutrient},
		{"micronutrient", i.Micronutrient},
	}
}

// Association links a dish to an ingredient by name.
type Association struct {
	DishID         string
	IngredientName string
}
