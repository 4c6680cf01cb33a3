package grocery

import (
	"context"
	"fmt"
	"log"
	"time"

	"meal-planner/internal/planner"
	"meal-planner/internal/recipe"
	"meal-planner/internal/store"

	"github.com/google/uuid"
)

// WarningLayoutUnavailable marks a list generated without its store layout.
const WarningLayoutUnavailable recipe.WarningKind = "layout_unavailable"

// LayoutSource loads a store layout. It returns nil, nil for unknown stores.
type LayoutSource interface {
	Layout(ctx context.Context, storeID int64) (*store.Layout, error)
}

// Stats summarises one generation.
type Stats struct {
	Recipes  int           `json:"recipes"`
	Items    int           `json:"items"`
	Sections int           `json:"sections"`
	Warnings int           `json:"warnings"`
	Latency  time.Duration `json:"latency"`
}

// List is a generated grocery list.
type List struct {
	ID          string           `json:"id"`
	PlanID      int64            `json:"plan_id"`
	PlanName    string           `json:"plan_name"`
	StoreID     int64            `json:"store_id,omitempty"`
	StoreName   string           `json:"store_name,omitempty"`
	Sections    []Section        `json:"sections"`
	Warnings    []recipe.Warning `json:"warnings,omitempty"`
	Stats       Stats            `json:"stats"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// ItemCount returns the number of items across all sections.
func (l *List) ItemCount() int {
	n := 0
	for _, s := range l.Sections {
		n += len(s.Items)
	}
	return n
}

// Generator builds grocery lists from weekly plans.
type Generator struct {
	expander *recipe.Expander
	layouts  LayoutSource
	now      func() time.Time
}

// NewGenerator creates a Generator. layouts may be nil, in which case every
// item lands in Uncategorized.
func NewGenerator(catalog recipe.Catalog, layouts LayoutSource, maxDepth int) *Generator {
	return &Generator{
		expander: recipe.NewExpander(catalog, maxDepth),
		layouts:  layouts,
		now:      time.Now,
	}
}

// Generate expands every meal of the plan, aggregates the ingredients and
// groups them by the sections of storeID (0 for no store). It does not
// fail: lookup errors, cycles, missing recipes and a missing layout are
// reported as warnings on the list.
func (g *Generator) Generate(ctx context.Context, plan *planner.WeeklyPlan, storeID int64) *List {
	start := g.now()
	list := &List{
		ID:          uuid.NewString(),
		StoreID:     storeID,
		GeneratedAt: start.UTC(),
	}
	if plan == nil {
		return list
	}
	list.PlanID = plan.ID
	list.PlanName = plan.Name

	exp := g.expander.ExpandPlan(ctx, plan.MealRefs())
	list.Warnings = append(list.Warnings, exp.Warnings...)

	items := Aggregate(exp.Ingredients)

	var layout *store.Layout
	if storeID != 0 && g.layouts != nil {
		l, err := g.layouts.Layout(ctx, storeID)
		switch {
		case err != nil:
			list.Warnings = append(list.Warnings, recipe.Warning{
				Kind:    WarningLayoutUnavailable,
				Message: fmt.Sprintf("failed to load layout for store %d: %v; items are uncategorized", storeID, err),
			})
		case l == nil:
			list.Warnings = append(list.Warnings, recipe.Warning{
				Kind:    WarningLayoutUnavailable,
				Message: fmt.Sprintf("store %d not found; items are uncategorized", storeID),
			})
		default:
			layout = l
			list.StoreName = l.StoreName
		}
	}

	list.Sections = AssignSections(items, layout)

	for _, w := range list.Warnings {
		log.Printf("Warning: plan %d: %s", plan.ID, w.Message)
	}

	list.Stats = Stats{
		Recipes:  exp.Recipes,
		Items:    len(items),
		Sections: len(list.Sections),
		Warnings: len(list.Warnings),
		Latency:  g.now().Sub(start),
	}
	return list
}
