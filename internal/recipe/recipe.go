package recipe

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Recipe is a dish with its ingredient lines and, optionally, other recipes
// it includes as components (a taco recipe including a salsa recipe).
type Recipe struct {
	ID           int64                `json:"id"`
	Name         string               `json:"name"`
	CookTime     string               `json:"cook_time,omitempty"`
	Servings     int                  `json:"servings,omitempty"`
	Instructions string               `json:"instructions,omitempty"`
	Favorite     bool                 `json:"favorite,omitempty"`
	SourceID     string               `json:"source_id,omitempty"`
	Ingredients  []IngredientLine     `json:"ingredients"`
	Components   []SubRecipeComponent `json:"components,omitempty"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// Ingredient is the identity of an ingredient. ID is zero until the name has
// been resolved against the ingredient table.
type Ingredient struct {
	ID    int64  `json:"id,omitempty"`
	Name  string `json:"name"`
	FdcID int64  `json:"fdc_id,omitempty"`
}

// IsUSDA reports whether the ingredient was sourced from FoodData Central.
func (i Ingredient) IsUSDA() bool {
	return i.FdcID != 0
}

// Key is the grouping key for the ingredient: its id when resolved, else
// its normalized name. An ingredient with neither has an empty key.
func (i Ingredient) Key() string {
	if i.ID != 0 {
		return fmt.Sprintf("id:%d", i.ID)
	}
	if name := NormalizeName(i.Name); name != "" {
		return "name:" + name
	}
	return ""
}

// NormalizeName lower-cases an ingredient name and collapses whitespace.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// IngredientLine is one line of a recipe's ingredient list. Quantity is kept
// as entered ("1 1/2", "0.25", "to taste").
type IngredientLine struct {
	Quantity             string     `json:"quantity"`
	Unit                 string     `json:"unit,omitempty"`
	Size                 string     `json:"size,omitempty"`
	Descriptor           string     `json:"descriptor,omitempty"`
	AdditionalDescriptor string     `json:"additional_descriptor,omitempty"`
	Ingredient           Ingredient `json:"ingredient"`
}

// String renders the line back into the free-text form ParseIngredientLine
// accepts.
func (l IngredientLine) String() string {
	var parts []string
	for _, p := range []string{l.Quantity, l.Unit, l.Size, l.Descriptor, l.Ingredient.Name} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	s := strings.Join(parts, " ")
	if l.AdditionalDescriptor != "" {
		s += ", " + l.AdditionalDescriptor
	}
	return s
}

// ComponentUnit says how a component quantity is counted.
type ComponentUnit string

const (
	UnitServing ComponentUnit = "serving"
	UnitWhole   ComponentUnit = "whole"
	UnitHalf    ComponentUnit = "half"
	UnitQuarter ComponentUnit = "quarter"
)

// Factor is the multiplier contributed by the unit. Unknown units count as 1.
func (u ComponentUnit) Factor() float64 {
	switch ComponentUnit(strings.ToLower(string(u))) {
	case UnitHalf:
		return 0.5
	case UnitQuarter:
		return 0.25
	default:
		return 1
	}
}

// SubRecipeComponent includes another recipe inside a recipe.
type SubRecipeComponent struct {
	RecipeID int64         `json:"recipe_id"`
	Quantity float64       `json:"quantity"`
	Unit     ComponentUnit `json:"unit,omitempty"`
}

// Multiplier is the scale applied to the included recipe. A missing or
// non-positive quantity counts as one.
func (c SubRecipeComponent) Multiplier() float64 {
	q := c.Quantity
	if q <= 0 {
		q = 1
	}
	return q * c.Unit.Factor()
}

// Catalog looks up recipes by id. Implementations return nil, nil when the
// recipe does not exist.
type Catalog interface {
	GetRecipe(ctx context.Context, id int64) (*Recipe, error)
}

// CatalogFunc adapts a function to the Catalog interface.
type CatalogFunc func(ctx context.Context, id int64) (*Recipe, error)

func (f CatalogFunc) GetRecipe(ctx context.Context, id int64) (*Recipe, error) {
	return f(ctx, id)
}
