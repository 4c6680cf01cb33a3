package grocery

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"meal-planner/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "grocery.db"))
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db.SQL)
	base := time.Date(2024, 5, 6, 18, 0, 0, 0, time.UTC)

	first := NewGenerator(tacoNight(), nil, 0).Generate(ctx, tacoPlan(), 0)
	first.GeneratedAt = base
	second := NewGenerator(tacoNight(), nil, 0).Generate(ctx, tacoPlan(), 0)
	second.GeneratedAt = base.Add(time.Hour)

	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))

	t.Run("Get", func(t *testing.T) {
		got, err := repo.Get(ctx, first.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, first.PlanName, got.PlanName)
		assert.Equal(t, first.ItemCount(), got.ItemCount())
		assert.Equal(t, "3", findItem(t, got, "Cheese").CombinedText)
	})

	t.Run("Get missing", func(t *testing.T) {
		got, err := repo.Get(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("LatestForPlan", func(t *testing.T) {
		got, err := repo.LatestForPlan(ctx, first.PlanID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, second.ID, got.ID)
	})

	t.Run("ListForPlan", func(t *testing.T) {
		lists, err := repo.ListForPlan(ctx, first.PlanID, 0)
		require.NoError(t, err)
		require.Len(t, lists, 2)
		assert.Equal(t, second.ID, lists[0].ID)
	})

	t.Run("DeleteForPlan", func(t *testing.T) {
		require.NoError(t, repo.DeleteForPlan(ctx, first.PlanID))
		got, err := repo.LatestForPlan(ctx, first.PlanID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
