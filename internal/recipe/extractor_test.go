package recipe

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"meal-planner/internal/llm"
	"meal-planner/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTextGenerator is a mock implementation of llm.TextGenerator for testing.
type mockTextGenerator struct {
	response   string
	err        error
	lastPrompt string
}

func (m *mockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.lastPrompt = prompt
	if m.err != nil {
		return llm.ContentResponse{}, m.err
	}
	return llm.ContentResponse{
		Content: m.response,
		Usage:   shared.TokenUsage{PromptTokens: 100, CompletionTokens: 40, Model: "mock"},
	}, nil
}

func TestExtractor_ExtractRecipe(t *testing.T) {
	ctx := context.Background()
	updated := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	post := PostData{
		SourceID:  "ghost:1",
		Title:     "Test Chili",
		UpdatedAt: updated,
		HTML:      "<h1>Test Chili</h1><ul><li>2 cups beans</li></ul>",
	}

	t.Run("Success", func(t *testing.T) {
		gen := &mockTextGenerator{response: "```json\n" + `{
			"name": "Weeknight Chili",
			"servings": 6,
			"cook_time": "45 mins",
			"instructions": "Simmer everything.",
			"ingredients": ["2 cups beans, rinsed", "1 large onion", ""]
		}` + "\n```"}

		result, err := NewExtractor(gen).ExtractRecipe(ctx, post)
		require.NoError(t, err)

		assert.True(t, strings.Contains(gen.lastPrompt, "Test Chili"))
		assert.Equal(t, "Weeknight Chili", result.Recipe.Name)
		assert.Equal(t, 6, result.Recipe.Servings)
		assert.Equal(t, "ghost:1", result.Recipe.SourceID)
		assert.Equal(t, updated, result.Recipe.UpdatedAt)
		require.Len(t, result.Recipe.Ingredients, 2)
		assert.Equal(t, "2", result.Recipe.Ingredients[0].Quantity)
		assert.Equal(t, "cups", result.Recipe.Ingredients[0].Unit)
		assert.Equal(t, "beans", result.Recipe.Ingredients[0].Ingredient.Name)
		assert.Equal(t, "rinsed", result.Recipe.Ingredients[0].AdditionalDescriptor)
		assert.Equal(t, "Extractor", result.Meta.AgentName)
		assert.Equal(t, 100, result.Meta.Usage.PromptTokens)
	})

	t.Run("FallsBackToTitle", func(t *testing.T) {
		gen := &mockTextGenerator{response: `{"ingredients": ["1 cup rice"]}`}
		result, err := NewExtractor(gen).ExtractRecipe(ctx, post)
		require.NoError(t, err)
		assert.Equal(t, "Test Chili", result.Recipe.Name)
	})

	t.Run("LLMError", func(t *testing.T) {
		gen := &mockTextGenerator{err: errors.New("LLM error")}
		_, err := NewExtractor(gen).ExtractRecipe(ctx, post)
		assert.EqualError(t, err, "failed to get LLM response: LLM error")
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		gen := &mockTextGenerator{response: "this is not json"}
		result, err := NewExtractor(gen).ExtractRecipe(ctx, post)
		require.Error(t, err)
		assert.True(t, strings.HasPrefix(err.Error(), "failed to unmarshal LLM response"))
		assert.Equal(t, 100, result.Meta.Usage.PromptTokens, "usage is reported even on failure")
	})
}
