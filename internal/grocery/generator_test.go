package grocery

import (
	"context"
	"errors"
	"testing"

	"meal-planner/internal/planner"
	"meal-planner/internal/recipe"
	"meal-planner/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type layoutFunc func(ctx context.Context, storeID int64) (*store.Layout, error)

func (f layoutFunc) Layout(ctx context.Context, storeID int64) (*store.Layout, error) {
	return f(ctx, storeID)
}

func ingredientLine(qty, unit string, id int64, name string) recipe.IngredientLine {
	return recipe.IngredientLine{Quantity: qty, Unit: unit, Ingredient: recipe.Ingredient{ID: id, Name: name}}
}

// tacoNight is the Tacos/Nachos/Salsa catalog: salsa is included whole in
// tacos and halved in nachos.
func tacoNight() recipe.Catalog {
	recipes := map[int64]*recipe.Recipe{
		1: {
			ID:          1,
			Name:        "Tacos",
			Ingredients: []recipe.IngredientLine{ingredientLine("2", "cups", 100, "Cheese")},
			Components:  []recipe.SubRecipeComponent{{RecipeID: 3, Quantity: 1, Unit: recipe.UnitWhole}},
		},
		2: {
			ID:          2,
			Name:        "Nachos",
			Ingredients: []recipe.IngredientLine{ingredientLine("1", "cup", 100, "Cheese")},
			Components:  []recipe.SubRecipeComponent{{RecipeID: 3, Quantity: 0.5, Unit: recipe.UnitWhole}},
		},
		3: {
			ID:   3,
			Name: "Salsa",
			Ingredients: []recipe.IngredientLine{
				ingredientLine("1", "", 101, "Tomato"),
				ingredientLine("1", "tsp", 102, "Salt"),
			},
		},
	}
	return recipe.CatalogFunc(func(ctx context.Context, id int64) (*recipe.Recipe, error) {
		return recipes[id], nil
	})
}

func tacoPlan() *planner.WeeklyPlan {
	return &planner.WeeklyPlan{
		ID:   5,
		Name: "Taco week",
		Meals: []planner.MealSlot{
			{Day: "Monday", MealType: "Dinner", RecipeID: 1},
			{Day: "Tuesday", MealType: "Dinner", RecipeID: 2},
		},
	}
}

func findItem(t *testing.T, list *List, name string) AggregatedIngredient {
	t.Helper()
	for _, s := range list.Sections {
		for _, it := range s.Items {
			if it.Name == name {
				return it
			}
		}
	}
	t.Fatalf("item %q not found", name)
	return AggregatedIngredient{}
}

func TestGenerate_TacoNight(t *testing.T) {
	layouts := layoutFunc(func(ctx context.Context, storeID int64) (*store.Layout, error) {
		return &store.Layout{
			StoreID:   storeID,
			StoreName: "Grocer",
			Names:     map[int64]string{1: "Produce", 2: "Dairy"},
			Order:     []int64{1, 2},
			Mapping:   map[int64]int64{100: 2, 101: 1},
		}, nil
	})

	list := NewGenerator(tacoNight(), layouts, 0).Generate(context.Background(), tacoPlan(), 9)

	assert.NotEmpty(t, list.ID)
	assert.Equal(t, int64(5), list.PlanID)
	assert.Equal(t, "Taco week", list.PlanName)
	assert.Equal(t, "Grocer", list.StoreName)
	assert.Empty(t, list.Warnings)
	assert.Equal(t, []string{"Produce", "Dairy", Uncategorized}, names(list.Sections))

	cheese := findItem(t, list, "Cheese")
	assert.Equal(t, "3", cheese.CombinedText)
	assert.Equal(t, "cup", cheese.Unit)
	require.Len(t, cheese.Quantities, 2)
	assert.Equal(t, "Tacos", cheese.Quantities[0].Source)
	assert.Equal(t, "Nachos", cheese.Quantities[1].Source)
	assert.Equal(t, "Monday", cheese.Quantities[0].Day)

	tomato := findItem(t, list, "Tomato")
	assert.Equal(t, "1 1/2", tomato.CombinedText)
	assert.Empty(t, tomato.Unit)

	salt := findItem(t, list, "Salt")
	assert.Equal(t, "1 1/2", salt.CombinedText)
	assert.Equal(t, "tsp", salt.Unit)
	assert.Equal(t, "Salsa", salt.Quantities[0].Source)
	assert.Equal(t, "Tacos", salt.Quantities[0].Recipe)

	assert.Equal(t, 4, list.Stats.Recipes)
	assert.Equal(t, 3, list.Stats.Items)
	assert.Equal(t, 3, list.ItemCount())
}

func TestGenerate_Degrades(t *testing.T) {
	ctx := context.Background()

	t.Run("layout error", func(t *testing.T) {
		layouts := layoutFunc(func(ctx context.Context, storeID int64) (*store.Layout, error) {
			return nil, errors.New("disk I/O error")
		})
		list := NewGenerator(tacoNight(), layouts, 0).Generate(ctx, tacoPlan(), 9)

		assert.Equal(t, []string{Uncategorized}, names(list.Sections))
		require.Len(t, list.Warnings, 1)
		assert.Equal(t, WarningLayoutUnavailable, list.Warnings[0].Kind)
	})

	t.Run("unknown store", func(t *testing.T) {
		layouts := layoutFunc(func(ctx context.Context, storeID int64) (*store.Layout, error) {
			return nil, nil
		})
		list := NewGenerator(tacoNight(), layouts, 0).Generate(ctx, tacoPlan(), 9)
		require.Len(t, list.Warnings, 1)
		assert.Contains(t, list.Warnings[0].Message, "store 9 not found")
	})

	t.Run("no store requested", func(t *testing.T) {
		list := NewGenerator(tacoNight(), nil, 0).Generate(ctx, tacoPlan(), 0)
		assert.Empty(t, list.Warnings)
		assert.Equal(t, []string{Uncategorized}, names(list.Sections))
	})

	t.Run("missing recipe", func(t *testing.T) {
		plan := tacoPlan()
		plan.Meals = append(plan.Meals, planner.MealSlot{Day: "Friday", MealType: "Dinner", RecipeID: 77})
		list := NewGenerator(tacoNight(), nil, 0).Generate(ctx, plan, 0)

		require.Len(t, list.Warnings, 1)
		assert.Equal(t, recipe.WarningMissingRecipe, list.Warnings[0].Kind)
		assert.Equal(t, 3, list.ItemCount())
	})

	t.Run("nil plan", func(t *testing.T) {
		list := NewGenerator(tacoNight(), nil, 0).Generate(ctx, nil, 0)
		assert.Empty(t, list.Sections)
	})
}
