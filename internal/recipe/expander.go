package recipe

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"meal-planner/internal/quantity"
)

// DefaultMaxDepth bounds how deep sub-recipe expansion may nest.
const DefaultMaxDepth = 50

// DefaultMaxRecipes bounds how many recipes one top-level recipe may expand
// into. Shared sub-recipes are counted every time they are included.
const DefaultMaxRecipes = 10000

// ErrCircularComponent is returned when a component would make a recipe
// contain itself.
var ErrCircularComponent = errors.New("recipe component would create a cycle")

// WarningKind classifies a problem found while expanding recipes.
type WarningKind string

const (
	WarningCycle         WarningKind = "cycle"
	WarningMissingRecipe WarningKind = "missing_recipe"
	WarningDepthExceeded WarningKind = "depth_exceeded"
	WarningLookupFailed  WarningKind = "lookup_failed"
	WarningTooLarge      WarningKind = "too_large"
	WarningCancelled     WarningKind = "cancelled"
)

// Warning describes a branch that was skipped during expansion.
type Warning struct {
	Kind     WarningKind `json:"kind"`
	RecipeID int64       `json:"recipe_id"`
	Path     []int64     `json:"path,omitempty"`
	Message  string      `json:"message"`
}

func (w Warning) String() string {
	return w.Message
}

// ExpandedIngredient is one ingredient line after scaling, tagged with where
// it came from.
type ExpandedIngredient struct {
	Key                  string  `json:"key"`
	IngredientID         int64   `json:"ingredient_id,omitempty"`
	Name                 string  `json:"name"`
	Quantity             float64 `json:"quantity"`
	QuantityText         string  `json:"quantity_text"`
	Unit                 string  `json:"unit,omitempty"`
	Size                 string  `json:"size,omitempty"`
	Descriptor           string  `json:"descriptor,omitempty"`
	AdditionalDescriptor string  `json:"additional_descriptor,omitempty"`
	Advisory             bool    `json:"advisory,omitempty"`
	IsUSDA               bool    `json:"is_usda,omitempty"`
	Source               string  `json:"source"`
	Recipe               string  `json:"recipe"`
	Day                  string  `json:"day,omitempty"`
	MealType             string  `json:"meal_type,omitempty"`
}

// MealRef points a plan slot at a recipe. RecipeID 0 means the slot is empty.
type MealRef struct {
	Day      string
	MealType string
	RecipeID int64
}

// Expansion is the flat result of expanding one or more recipes.
type Expansion struct {
	Ingredients []ExpandedIngredient
	Warnings    []Warning
	// Recipes counts every recipe visited, sub-recipes included.
	Recipes int

	stopped bool
}

// Expander flattens recipes and their sub-recipes into ingredient lines.
type Expander struct {
	catalog    Catalog
	maxDepth   int
	maxRecipes int
}

// NewExpander creates an Expander. A maxDepth <= 0 selects DefaultMaxDepth.
func NewExpander(catalog Catalog, maxDepth int) *Expander {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Expander{catalog: catalog, maxDepth: maxDepth, maxRecipes: DefaultMaxRecipes}
}

// Expand scales every line of r by multiplier and recurses into its
// components. path holds the ids of the recipes currently being expanded
// above r; r itself is added when missing. A component already on the path
// is a cycle and is skipped with a warning.
func (e *Expander) Expand(ctx context.Context, r *Recipe, multiplier float64, path []int64) *Expansion {
	out := &Expansion{}
	if r == nil {
		return out
	}
	if r.ID != 0 && !slices.Contains(path, r.ID) {
		path = append(slices.Clone(path), r.ID)
	}
	e.expand(ctx, r, multiplier, path, r.Name, out)
	return out
}

func (e *Expander) expand(ctx context.Context, r *Recipe, multiplier float64, path []int64, top string, out *Expansion) {
	out.Recipes++
	for _, line := range r.Ingredients {
		out.Ingredients = append(out.Ingredients, expandLine(line, multiplier, r.Name, top))
	}

	for _, c := range r.Components {
		if e.stop(ctx, top, out) {
			return
		}
		if slices.Contains(path, c.RecipeID) {
			out.Warnings = append(out.Warnings, Warning{
				Kind:     WarningCycle,
				RecipeID: c.RecipeID,
				Path:     slices.Clone(path),
				Message:  fmt.Sprintf("recipe %q includes recipe %d which is already being expanded (%s); skipped", r.Name, c.RecipeID, formatPath(path)),
			})
			continue
		}
		if len(path) >= e.maxDepth {
			out.Warnings = append(out.Warnings, Warning{
				Kind:     WarningDepthExceeded,
				RecipeID: c.RecipeID,
				Path:     slices.Clone(path),
				Message:  fmt.Sprintf("sub-recipes of %q nest deeper than %d levels; recipe %d skipped", top, e.maxDepth, c.RecipeID),
			})
			continue
		}

		sub, err := e.catalog.GetRecipe(ctx, c.RecipeID)
		if err != nil {
			out.Warnings = append(out.Warnings, Warning{
				Kind:     WarningLookupFailed,
				RecipeID: c.RecipeID,
				Message:  fmt.Sprintf("failed to load sub-recipe %d of %q: %v", c.RecipeID, r.Name, err),
			})
			continue
		}
		if sub == nil {
			out.Warnings = append(out.Warnings, Warning{
				Kind:     WarningMissingRecipe,
				RecipeID: c.RecipeID,
				Message:  fmt.Sprintf("sub-recipe %d of %q not found; skipped", c.RecipeID, r.Name),
			})
			continue
		}

		childPath := append(slices.Clone(path), c.RecipeID)
		e.expand(ctx, sub, multiplier*c.Multiplier(), childPath, top, out)
	}
}

// stop reports whether expansion must end, adding one warning the first time
// the context is done or the recipe budget is spent.
func (e *Expander) stop(ctx context.Context, top string, out *Expansion) bool {
	if out.stopped {
		return true
	}
	switch {
	case ctx.Err() != nil:
		out.Warnings = append(out.Warnings, Warning{
			Kind:    WarningCancelled,
			Message: fmt.Sprintf("expansion of %q stopped: %v", top, ctx.Err()),
		})
	case out.Recipes >= e.maxRecipes:
		out.Warnings = append(out.Warnings, Warning{
			Kind:    WarningTooLarge,
			Message: fmt.Sprintf("%q expands into more than %d recipes; the rest is skipped", top, e.maxRecipes),
		})
	default:
		return false
	}
	out.stopped = true
	return true
}

// ExpandPlan expands every filled meal slot with multiplier 1 and tags the
// resulting lines with the slot's day and meal type. Slots whose recipe
// cannot be loaded contribute a warning and nothing else.
func (e *Expander) ExpandPlan(ctx context.Context, meals []MealRef) *Expansion {
	out := &Expansion{}
	for _, m := range meals {
		if m.RecipeID == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			out.Warnings = append(out.Warnings, Warning{
				Kind:     WarningCancelled,
				RecipeID: m.RecipeID,
				Message:  fmt.Sprintf("plan expansion stopped at %s %s: %v", m.Day, m.MealType, err),
			})
			break
		}

		r, err := e.catalog.GetRecipe(ctx, m.RecipeID)
		if err != nil {
			out.Warnings = append(out.Warnings, Warning{
				Kind:     WarningLookupFailed,
				RecipeID: m.RecipeID,
				Message:  fmt.Sprintf("failed to load recipe %d for %s %s: %v", m.RecipeID, m.Day, m.MealType, err),
			})
			continue
		}
		if r == nil {
			out.Warnings = append(out.Warnings, Warning{
				Kind:     WarningMissingRecipe,
				RecipeID: m.RecipeID,
				Message:  fmt.Sprintf("recipe %d for %s %s not found; skipped", m.RecipeID, m.Day, m.MealType),
			})
			continue
		}

		sub := &Expansion{}
		e.expand(ctx, r, 1, []int64{m.RecipeID}, r.Name, sub)
		for i := range sub.Ingredients {
			sub.Ingredients[i].Day = m.Day
			sub.Ingredients[i].MealType = m.MealType
		}
		out.Ingredients = append(out.Ingredients, sub.Ingredients...)
		out.Warnings = append(out.Warnings, sub.Warnings...)
		out.Recipes += sub.Recipes
	}
	return out
}

func expandLine(line IngredientLine, multiplier float64, source, top string) ExpandedIngredient {
	exp := ExpandedIngredient{
		Key:                  line.Ingredient.Key(),
		IngredientID:         line.Ingredient.ID,
		Name:                 strings.TrimSpace(line.Ingredient.Name),
		Unit:                 strings.TrimSpace(line.Unit),
		Size:                 line.Size,
		Descriptor:           line.Descriptor,
		AdditionalDescriptor: line.AdditionalDescriptor,
		IsUSDA:               line.Ingredient.IsUSDA(),
		Source:               source,
		Recipe:               top,
	}

	q, ok := quantity.ParseStrict(line.Quantity)
	if !ok {
		exp.Advisory = true
		exp.QuantityText = strings.TrimSpace(line.Quantity)
		return exp
	}
	exp.Quantity = q * multiplier
	exp.QuantityText = quantity.Format(exp.Quantity)
	return exp
}

func formatPath(path []int64) string {
	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, " > ")
}

// WouldCreateCycle reports whether adding childID as a component of parentID
// would let parentID reach itself through the component graph.
func WouldCreateCycle(ctx context.Context, catalog Catalog, parentID, childID int64) (bool, error) {
	if parentID == 0 {
		return false, nil
	}
	if parentID == childID {
		return true, nil
	}

	seen := map[int64]bool{}
	stack := []int64{childID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true

		r, err := catalog.GetRecipe(ctx, id)
		if err != nil {
			return false, fmt.Errorf("failed to load recipe %d: %w", id, err)
		}
		if r == nil {
			continue
		}
		for _, c := range r.Components {
			if c.RecipeID == parentID {
				return true, nil
			}
			stack = append(stack, c.RecipeID)
		}
	}
	return false, nil
}
