package planner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"meal-planner/internal/llm"
	"meal-planner/internal/recipe"
	"meal-planner/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticRecipes []recipe.Recipe

func (s staticRecipes) List(ctx context.Context) ([]recipe.Recipe, error) {
	return s, nil
}

type MockTextGenerator struct {
	response string
	prompt   string
}

func (m *MockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.prompt = prompt
	return llm.ContentResponse{
		Content: m.response,
		Usage:   shared.TokenUsage{PromptTokens: 50, CompletionTokens: 20, Model: "mock"},
	}, nil
}

func TestDraft(t *testing.T) {
	ctx := context.Background()
	recipes := staticRecipes{
		{ID: 1, Name: "Pasta", CookTime: "15 mins", Favorite: true},
		{ID: 2, Name: "Salad"},
	}

	t.Run("Success", func(t *testing.T) {
		gen := &MockTextGenerator{response: `{"meals": [
			{"day": "Monday", "recipe_id": 1, "note": "Quick"},
			{"day": "Tuesday", "recipe_id": 99, "note": "Unknown"},
			{"day": "Wednesday", "recipe_id": 2}
		]}`}

		result, err := NewPlanner(recipes, gen).Draft(ctx, "I want pasta")
		require.NoError(t, err)

		assert.True(t, strings.Contains(gen.prompt, "id 1: Pasta (15 mins) [favorite]"))
		assert.True(t, strings.Contains(gen.prompt, "I want pasta"))
		require.Len(t, result.Plan.Meals, 2)
		assert.Equal(t, MealSlot{Day: "Monday", MealType: "Dinner", RecipeID: 1, RecipeTitle: "Pasta", Note: "Quick"}, result.Plan.Meals[0])
		assert.Equal(t, int64(2), result.Plan.Meals[1].RecipeID)
		assert.Equal(t, "Planner", result.Meta.AgentName)
		assert.Equal(t, 50, result.Meta.Usage.PromptTokens)
	})

	t.Run("NoUsableMeals", func(t *testing.T) {
		gen := &MockTextGenerator{response: `{"meals": [{"day": "Monday", "recipe_id": 42}]}`}
		_, err := NewPlanner(recipes, gen).Draft(ctx, "anything")
		assert.True(t, errors.Is(err, ErrNoMeals))
	})

	t.Run("EmptyCatalog", func(t *testing.T) {
		_, err := NewPlanner(staticRecipes{}, &MockTextGenerator{}).Draft(ctx, "anything")
		assert.Error(t, err)
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		_, err := NewPlanner(recipes, &MockTextGenerator{response: "nope"}).Draft(ctx, "anything")
		require.Error(t, err)
		assert.True(t, strings.HasPrefix(err.Error(), "failed to parse meal plan JSON"))
	})
}

func TestWeeklyPlan(t *testing.T) {
	plan := WeeklyPlan{Meals: []MealSlot{
		{Day: "Monday", MealType: "Dinner", RecipeID: 3},
		{Day: "Tuesday", MealType: "Dinner"},
		{Day: "Wednesday", MealType: "Lunch", RecipeID: 3},
		{Day: "Thursday", MealType: "Dinner", RecipeID: 5},
	}}

	assert.Equal(t, []int64{3, 5}, plan.RecipeIDs())
	assert.NoError(t, plan.Validate())

	refs := plan.MealRefs()
	require.Len(t, refs, 4)
	assert.Equal(t, recipe.MealRef{Day: "Wednesday", MealType: "Lunch", RecipeID: 3}, refs[2])

	empty := WeeklyPlan{Meals: []MealSlot{{Day: "Monday", MealType: "Dinner"}}}
	assert.ErrorIs(t, empty.Validate(), ErrNoMeals)
}
