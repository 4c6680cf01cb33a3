package planner

import (
	"errors"
	"fmt"
	"time"

	"meal-planner/internal/recipe"
)

// ErrNoMeals is returned when a plan has no filled meal slot.
var ErrNoMeals = errors.New("meal plan has no meals")

// DefaultDays are the days a new plan is laid out over.
var DefaultDays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// DefaultMealTypes are the meal types offered per day. Meal types are free
// text; these are only the defaults.
var DefaultMealTypes = []string{"Breakfast", "Lunch", "Dinner"}

// MealSlot is one meal of a plan. RecipeID 0 means nothing is planned.
type MealSlot struct {
	Day         string `json:"day"`
	MealType    string `json:"meal_type"`
	RecipeID    int64  `json:"recipe_id,omitempty"`
	RecipeTitle string `json:"recipe_title,omitempty"`
	Note        string `json:"note,omitempty"`
}

// WeeklyPlan is an ordered list of meal slots.
type WeeklyPlan struct {
	ID        int64      `json:"id,omitempty"`
	Name      string     `json:"name"`
	Meals     []MealSlot `json:"meals"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// DefaultName is the name given to a plan created without one.
func DefaultName(now time.Time) string {
	return fmt.Sprintf("My Weekly Plan (%s)", now.Format("2006-01-02 15:04"))
}

// MealRefs returns the slots in the form the recipe expander consumes.
func (p *WeeklyPlan) MealRefs() []recipe.MealRef {
	refs := make([]recipe.MealRef, 0, len(p.Meals))
	for _, m := range p.Meals {
		refs = append(refs, recipe.MealRef{Day: m.Day, MealType: m.MealType, RecipeID: m.RecipeID})
	}
	return refs
}

// RecipeIDs returns the distinct recipe ids planned, in slot order.
func (p *WeeklyPlan) RecipeIDs() []int64 {
	seen := map[int64]bool{}
	var ids []int64
	for _, m := range p.Meals {
		if m.RecipeID == 0 || seen[m.RecipeID] {
			continue
		}
		seen[m.RecipeID] = true
		ids = append(ids, m.RecipeID)
	}
	return ids
}

// Validate returns ErrNoMeals when no slot has a recipe.
func (p *WeeklyPlan) Validate() error {
	if len(p.RecipeIDs()) == 0 {
		return ErrNoMeals
	}
	return nil
}
