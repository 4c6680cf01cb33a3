package grocery

import (
	"sort"
	"strings"

	"meal-planner/internal/store"
)

// Uncategorized is the section for items the store layout does not place.
const Uncategorized = "Uncategorized"

// Section is a named group of list items in store order.
type Section struct {
	ID    int64                  `json:"id,omitempty"`
	Name  string                 `json:"section"`
	Items []AggregatedIngredient `json:"items"`
}

// AssignSections groups items by the section the layout maps them to.
// Ordered sections come first in their configured order, then other named
// sections by name, then Uncategorized. Items keep their input order within
// a section and empty sections are left out. A nil layout puts everything
// in Uncategorized.
func AssignSections(items []AggregatedIngredient, layout *store.Layout) []Section {
	buckets := map[int64]*Section{}
	uncategorized := &Section{Name: Uncategorized}

	for _, item := range items {
		id, name, ok := layout.SectionFor(item.IngredientID)
		if !ok || strings.EqualFold(strings.TrimSpace(name), Uncategorized) {
			uncategorized.Items = append(uncategorized.Items, item)
			continue
		}
		b, exists := buckets[id]
		if !exists {
			b = &Section{ID: id, Name: name}
			buckets[id] = b
		}
		b.Items = append(b.Items, item)
	}

	var sections []Section
	if layout != nil {
		for _, id := range layout.Order {
			if b, ok := buckets[id]; ok {
				sections = append(sections, *b)
				delete(buckets, id)
			}
		}
	}

	var rest []Section
	for _, b := range buckets {
		rest = append(rest, *b)
	}
	sort.Slice(rest, func(i, j int) bool {
		a, b := strings.ToLower(rest[i].Name), strings.ToLower(rest[j].Name)
		if a != b {
			return a < b
		}
		return rest[i].ID < rest[j].ID
	})
	sections = append(sections, rest...)

	if len(uncategorized.Items) > 0 {
		sections = append(sections, *uncategorized)
	}
	return sections
}
