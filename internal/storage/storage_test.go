package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"meal-planner/internal/recipe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "pico-de-gallo", Key("Pico de Gallo"))
	assert.Equal(t, "mom-s-chili-2", Key("  Mom's Chili #2! "))
	assert.Equal(t, "", Key("!!!"))
}

func TestRecipeStore(t *testing.T) {
	tempDir := t.TempDir()
	store, err := NewRecipeStore(filepath.Join(tempDir, "recipes"))
	require.NoError(t, err)

	salsa := recipe.Recipe{
		ID:   3,
		Name: "Salsa",
		Ingredients: []recipe.IngredientLine{
			recipe.ParseIngredientLine("1 tomato"),
		},
	}

	t.Run("Exists-False", func(t *testing.T) {
		assert.False(t, store.Exists("salsa"))
	})

	t.Run("Load-NotFound", func(t *testing.T) {
		rec, err := store.Load("salsa")
		require.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("SaveAndLoad", func(t *testing.T) {
		require.NoError(t, store.Save(Key(salsa.Name), salsa))
		assert.True(t, store.Exists("salsa"))

		rec, err := store.Load("salsa")
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, "Salsa", rec.Name)
		require.Len(t, rec.Ingredients, 1)
		assert.Equal(t, "tomato", rec.Ingredients[0].Ingredient.Name)

		leftovers, _ := filepath.Glob(filepath.Join(tempDir, "recipes", "*.tmp"))
		assert.Empty(t, leftovers)
	})

	t.Run("SaveRequiresKey", func(t *testing.T) {
		assert.Error(t, store.Save("", salsa))
	})

	t.Run("ListAllSkipsBrokenFiles", func(t *testing.T) {
		tacos := recipe.Recipe{ID: 1, Name: "Tacos", Components: []recipe.SubRecipeComponent{{RecipeID: 3, Quantity: 1}}}
		require.NoError(t, store.Save("tacos", tacos))
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, "recipes", "broken.json"), []byte("{"), 0644))

		all, err := store.ListAll()
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "salsa", all[0].Key)
		assert.Equal(t, "tacos", all[1].Key)
		assert.Equal(t, int64(3), all[1].Recipe.Components[0].RecipeID)
	})

	t.Run("GetRecipe", func(t *testing.T) {
		var catalog recipe.Catalog = store

		rec, err := catalog.GetRecipe(context.Background(), 1)
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, "Tacos", rec.Name)

		missing, err := catalog.GetRecipe(context.Background(), 99)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("Remove", func(t *testing.T) {
		require.NoError(t, store.Remove("tacos"))
		require.NoError(t, store.Remove("tacos"))
		assert.False(t, store.Exists("tacos"))
	})
}
