package store

import (
	"context"
	"path/filepath"
	"testing"

	"meal-planner/internal/database"
	"meal-planner/internal/recipe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	repo    *Repository
	recipes *recipe.Repository
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "stores.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return fixture{repo: NewRepository(db.SQL), recipes: recipe.NewRepository(db.SQL)}
}

func sectionNames(sections []Section) []string {
	var names []string
	for _, s := range sections {
		names = append(names, s.Name)
	}
	return names
}

func TestCreateStore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	t.Run("seeds default sections", func(t *testing.T) {
		s, err := f.repo.CreateStore(ctx, "Corner Shop", false, nil)
		require.NoError(t, err)

		sections, err := f.repo.Sections(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, DefaultSections, sectionNames(sections))
		require.NotNil(t, sections[0].Position)
		assert.Equal(t, 0, *sections[0].Position)
	})

	t.Run("dedupes sections case-insensitively", func(t *testing.T) {
		s, err := f.repo.CreateStore(ctx, "Market", false, []string{"Produce", "Dairy", "produce", " ", "Bakery"})
		require.NoError(t, err)

		sections, err := f.repo.Sections(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"Produce", "Dairy", "Bakery"}, sectionNames(sections))
	})

	t.Run("requires a name", func(t *testing.T) {
		_, err := f.repo.CreateStore(ctx, "", false, nil)
		assert.Error(t, err)
	})
}

func TestDefaultStore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	none, err := f.repo.DefaultStore(ctx)
	require.NoError(t, err)
	assert.Nil(t, none)

	first, err := f.repo.CreateStore(ctx, "First", false, nil)
	require.NoError(t, err)

	got, err := f.repo.DefaultStore(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID, "falls back to the first store")

	second, err := f.repo.CreateStore(ctx, "Second", true, nil)
	require.NoError(t, err)
	got, err = f.repo.DefaultStore(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	require.NoError(t, f.repo.SetDefault(ctx, first.ID))
	got, err = f.repo.DefaultStore(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	assert.ErrorIs(t, f.repo.SetDefault(ctx, 999), ErrNoStore)

	stores, err := f.repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, stores, 2)
	assert.Equal(t, "First", stores[0].Name)
}

func TestLayout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	s, err := f.repo.CreateStore(ctx, "Grocer", true, []string{"Produce", "Dairy"})
	require.NoError(t, err)
	sections, err := f.repo.Sections(ctx, s.ID)
	require.NoError(t, err)
	produce, dairy := sections[0], sections[1]

	spices, err := f.repo.AddSection(ctx, s.ID, "Spices")
	require.NoError(t, err)

	tomato, err := f.recipes.ResolveIngredient(ctx, "Tomato")
	require.NoError(t, err)
	cheese, err := f.recipes.ResolveIngredient(ctx, "Cheese")
	require.NoError(t, err)
	cumin, err := f.recipes.ResolveIngredient(ctx, "Cumin")
	require.NoError(t, err)

	require.NoError(t, f.repo.AssignIngredient(ctx, s.ID, tomato.ID, produce.ID))
	require.NoError(t, f.repo.AssignIngredient(ctx, s.ID, cheese.ID, produce.ID))
	require.NoError(t, f.repo.AssignIngredient(ctx, s.ID, cheese.ID, dairy.ID), "reassignment replaces")
	require.NoError(t, f.repo.AssignIngredient(ctx, s.ID, cumin.ID, spices.ID))

	t.Run("snapshot", func(t *testing.T) {
		layout, err := f.repo.Layout(ctx, s.ID)
		require.NoError(t, err)
		require.NotNil(t, layout)

		assert.Equal(t, "Grocer", layout.StoreName)
		assert.Equal(t, []int64{produce.ID, dairy.ID}, layout.Order)
		assert.Len(t, layout.Names, 3)

		id, name, ok := layout.SectionFor(cheese.ID)
		assert.True(t, ok)
		assert.Equal(t, dairy.ID, id)
		assert.Equal(t, "Dairy", name)

		_, name, ok = layout.SectionFor(cumin.ID)
		assert.True(t, ok)
		assert.Equal(t, "Spices", name)

		_, _, ok = layout.SectionFor(12345)
		assert.False(t, ok)
	})

	t.Run("reordering keeps mappings", func(t *testing.T) {
		require.NoError(t, f.repo.SaveSections(ctx, s.ID, []string{"dairy", "Frozen"}))

		got, err := f.repo.Sections(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"Dairy", "Frozen", "Produce", "Spices"}, sectionNames(got))
		assert.Nil(t, got[2].Position)

		layout, err := f.repo.Layout(ctx, s.ID)
		require.NoError(t, err)
		_, name, ok := layout.SectionFor(tomato.ID)
		assert.True(t, ok)
		assert.Equal(t, "Produce", name)
	})

	t.Run("rejects foreign section", func(t *testing.T) {
		other, err := f.repo.CreateStore(ctx, "Other", false, nil)
		require.NoError(t, err)
		assert.Error(t, f.repo.AssignIngredient(ctx, other.ID, tomato.ID, produce.ID))
	})

	t.Run("unassign", func(t *testing.T) {
		require.NoError(t, f.repo.UnassignIngredient(ctx, s.ID, tomato.ID))
		mapping, err := f.repo.Mapping(ctx, s.ID)
		require.NoError(t, err)
		_, ok := mapping[tomato.ID]
		assert.False(t, ok)
	})

	t.Run("missing store", func(t *testing.T) {
		layout, err := f.repo.Layout(ctx, 999)
		require.NoError(t, err)
		assert.Nil(t, layout)
	})

	t.Run("delete cascades", func(t *testing.T) {
		require.NoError(t, f.repo.Delete(ctx, s.ID))
		mapping, err := f.repo.Mapping(ctx, s.ID)
		require.NoError(t, err)
		assert.Empty(t, mapping)
	})
}

func TestNilLayout(t *testing.T) {
	var l *Layout
	_, _, ok := l.SectionFor(1)
	assert.False(t, ok)
}
