// Package grocery turns a weekly plan into a shopping list: it combines the
// expanded ingredient lines and groups them by store section.
package grocery

import (
	"strings"

	"meal-planner/internal/quantity"
	"meal-planner/internal/recipe"
)

// Quantity is one contribution to a list item, kept so the shopper can see
// where an amount came from.
type Quantity struct {
	Text     string `json:"text"`
	Unit     string `json:"unit,omitempty"`
	Source   string `json:"source"`
	Recipe   string `json:"recipe,omitempty"`
	Day      string `json:"day,omitempty"`
	MealType string `json:"meal_type,omitempty"`
	Advisory bool   `json:"advisory,omitempty"`
}

// AggregatedIngredient is one line of the grocery list. CombinedQuantity and
// CombinedText are only set when every numeric contribution uses the same
// unit.
type AggregatedIngredient struct {
	Key              string     `json:"key"`
	IngredientID     int64      `json:"ingredient_id,omitempty"`
	Name             string     `json:"name"`
	CombinedQuantity float64    `json:"combined_value,omitempty"`
	CombinedText     string     `json:"combined_quantity,omitempty"`
	Unit             string     `json:"unit,omitempty"`
	HasMultipleUnits bool       `json:"has_multiple_units"`
	Quantities       []Quantity `json:"quantities"`
	IsUSDA           bool       `json:"is_usda"`
}

// Aggregate merges entries that refer to the same ingredient. Entries are
// grouped by key; entries without one are dropped. Items come out in the
// order their key was first seen.
func Aggregate(entries []recipe.ExpandedIngredient) []AggregatedIngredient {
	var items []AggregatedIngredient
	index := map[string]int{}
	units := map[string]map[string]bool{}

	for _, e := range entries {
		if e.Key == "" {
			continue
		}

		i, ok := index[e.Key]
		if !ok {
			i = len(items)
			index[e.Key] = i
			units[e.Key] = map[string]bool{}
			items = append(items, AggregatedIngredient{
				Key:          e.Key,
				IngredientID: e.IngredientID,
				Name:         e.Name,
			})
		}
		item := &items[i]

		unit := quantity.NormalizeUnit(e.Unit)
		item.Quantities = append(item.Quantities, Quantity{
			Text:     e.QuantityText,
			Unit:     unit,
			Source:   e.Source,
			Recipe:   e.Recipe,
			Day:      e.Day,
			MealType: e.MealType,
			Advisory: e.Advisory,
		})
		item.IsUSDA = item.IsUSDA || e.IsUSDA

		if e.Advisory {
			continue
		}
		units[e.Key][unit] = true
		if len(units[e.Key]) == 1 {
			item.CombinedQuantity += e.Quantity
			item.Unit = unit
		} else {
			item.HasMultipleUnits = true
		}
	}

	for i := range items {
		item := &items[i]
		numeric := len(units[item.Key]) > 0
		switch {
		case item.HasMultipleUnits:
			item.CombinedQuantity = 0
			item.CombinedText = ""
			item.Unit = ""
		case numeric:
			item.CombinedText = quantity.Format(item.CombinedQuantity)
		}
	}
	return items
}

// Display renders the amount to buy, e.g. "1 1/2 cup", "2 cup + 1 bag" or
// "to taste".
func (i AggregatedIngredient) Display() string {
	var parts, advisory []string
	if i.CombinedText != "" {
		parts = append(parts, quantity.FormatWithUnit(i.CombinedQuantity, i.Unit))
	}
	for _, q := range i.Quantities {
		text := strings.TrimSpace(q.Text + " " + q.Unit)
		switch {
		case q.Advisory:
			if text != "" {
				advisory = append(advisory, text)
			}
		case i.HasMultipleUnits:
			parts = append(parts, text)
		}
	}

	out := strings.Join(parts, " + ")
	if len(advisory) == 0 {
		return out
	}
	if out == "" {
		return strings.Join(advisory, ", ")
	}
	return out + " (" + strings.Join(advisory, ", ") + ")"
}
