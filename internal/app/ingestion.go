package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"meal-planner/internal/clipper"
	"meal-planner/internal/ghost"
	"meal-planner/internal/recipe"
	"meal-planner/internal/storage"
)

const ghostSourcePrefix = "ghost:"

// ImportReport summarises an import run.
type ImportReport struct {
	Fetched  int
	Imported int
	Skipped  int
	Failed   int
	Removed  int
}

// ImportFromGhost extracts every blog post into the recipe catalog. Posts
// that have not changed since the last import are skipped and recipes whose
// post disappeared from the blog are removed. progress, if set, is called
// after each post.
func (a *App) ImportFromGhost(ctx context.Context, progress func(done, total int)) (ImportReport, error) {
	var report ImportReport
	if a.ghost == nil {
		return report, ErrNoGhost
	}
	if a.extractor == nil {
		return report, ErrNoLLM
	}

	posts, err := a.ghost.FetchRecipes(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to fetch recipes from ghost: %w", err)
	}
	report.Fetched = len(posts)
	log.Printf("Fetched %d recipe posts from Ghost", len(posts))

	seen := make(map[string]bool, len(posts))
	for i, post := range posts {
		sourceID := ghostSourcePrefix + post.ID
		seen[sourceID] = true

		imported, err := a.importPost(ctx, sourceID, post)
		switch {
		case err != nil:
			log.Printf("Warning: failed to import '%s': %v", post.Title, err)
			report.Failed++
		case imported:
			report.Imported++
		default:
			report.Skipped++
		}

		if progress != nil {
			progress(i+1, len(posts))
		}

		// Stay under the free tier request rate between LLM calls.
		if imported && i < len(posts)-1 && a.importDelay > 0 {
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-time.After(a.importDelay):
			}
		}
	}

	removed, err := a.removeOrphans(ctx, seen)
	report.Removed = removed
	if err != nil {
		return report, err
	}
	return report, nil
}

func (a *App) importPost(ctx context.Context, sourceID string, post ghost.Post) (bool, error) {
	existing, err := a.recipes.FindBySource(ctx, sourceID)
	if err != nil {
		return false, err
	}
	if existing != nil && !post.UpdatedAt.After(existing.UpdatedAt) {
		return false, nil
	}

	res, err := a.extractor.ExtractRecipe(ctx, recipe.PostData{
		SourceID:  sourceID,
		Title:     post.Title,
		UpdatedAt: post.UpdatedAt,
		HTML:      post.HTML,
	})
	a.recordMeta(ctx, res.Meta)
	if err != nil {
		return false, err
	}

	rec := res.Recipe
	if existing != nil {
		rec.ID = existing.ID
		rec.Favorite = existing.Favorite
		rec.Components = existing.Components
	}
	if err := a.recipes.Save(ctx, &rec); err != nil {
		return false, fmt.Errorf("failed to save recipe: %w", err)
	}
	log.Printf("Imported '%s' (%d ingredients)", rec.Name, len(rec.Ingredients))
	return true, nil
}

func (a *App) removeOrphans(ctx context.Context, seen map[string]bool) (int, error) {
	all, err := a.recipes.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list recipes: %w", err)
	}
	removed := 0
	for _, rec := range all {
		if !strings.HasPrefix(rec.SourceID, ghostSourcePrefix) || seen[rec.SourceID] {
			continue
		}
		if err := a.recipes.Delete(ctx, rec.ID); err != nil {
			return removed, fmt.Errorf("failed to remove recipe %d: %w", rec.ID, err)
		}
		log.Printf("Removed '%s': its post is no longer on the blog", rec.Name)
		removed++
	}
	return removed, nil
}

// ClipRecipe saves the recipe found at url. Clipping the same url again
// updates the earlier recipe. With publish set, the recipe is also posted to
// the blog.
func (a *App) ClipRecipe(ctx context.Context, url string, publish bool) (*recipe.Recipe, error) {
	res, err := a.clipper.ClipURL(ctx, url)
	if err != nil {
		return nil, err
	}
	a.recordMeta(ctx, res.Meta)

	rec := res.Recipe
	if rec.Name == "" {
		rec.Name = url
	}
	existing, err := a.recipes.FindBySource(ctx, rec.SourceID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		rec.ID = existing.ID
		rec.Favorite = existing.Favorite
		rec.Components = existing.Components
	}
	rec.UpdatedAt = time.Now().UTC()

	if err := a.recipes.Save(ctx, &rec); err != nil {
		return nil, fmt.Errorf("failed to save recipe: %w", err)
	}
	log.Printf("Clipped '%s' via %s", rec.Name, res.Method)

	if publish {
		if a.ghost == nil {
			log.Printf("Warning: not publishing '%s': %v", rec.Name, ErrNoGhost)
		} else if _, err := a.ghost.CreatePost(ctx, rec.Name, clipper.ToHTML(rec, url), true); err != nil {
			log.Printf("Warning: failed to publish '%s': %v", rec.Name, err)
		}
	}
	return &rec, nil
}

// SeedFromDir loads recipe files written by ExportToDir (or by hand) into
// the catalog. Component ids in the files refer to the ids in the files and
// are remapped to the saved recipes. Components that cannot be resolved are
// dropped with a warning. Seeding is idempotent per file key.
func (a *App) SeedFromDir(ctx context.Context, dir string) (int, error) {
	rs, err := storage.NewRecipeStore(dir)
	if err != nil {
		return 0, err
	}
	files, err := rs.ListAll()
	if err != nil {
		return 0, err
	}

	fileIDs := make(map[int64]bool, len(files))
	for _, f := range files {
		if f.Recipe.ID != 0 {
			fileIDs[f.Recipe.ID] = true
		}
	}

	saved := make(map[int64]int64, len(files))
	pending := files
	count := 0
	for len(pending) > 0 {
		var next []storage.StoredRecipe
		for _, f := range pending {
			if !componentsReady(f.Recipe, fileIDs, saved) {
				next = append(next, f)
				continue
			}
			if err := a.seedOne(ctx, f, saved); err != nil {
				log.Printf("Warning: failed to seed %s: %v", f.Key, err)
				continue
			}
			count++
		}

		if len(next) == len(pending) {
			// Everything left includes something else that is left.
			log.Printf("Warning: %s has circular components, seeding it without them", next[0].Key)
			next[0].Recipe.Components = nil
		}
		pending = next
	}
	return count, nil
}

func componentsReady(rec recipe.Recipe, fileIDs map[int64]bool, saved map[int64]int64) bool {
	for _, c := range rec.Components {
		if _, ok := saved[c.RecipeID]; !ok && fileIDs[c.RecipeID] {
			return false
		}
	}
	return true
}

func (a *App) seedOne(ctx context.Context, f storage.StoredRecipe, saved map[int64]int64) error {
	rec := f.Recipe
	fileID := rec.ID

	var components []recipe.SubRecipeComponent
	for _, c := range rec.Components {
		id, ok := saved[c.RecipeID]
		if !ok {
			log.Printf("Warning: %s: component recipe %d is not in the seed set, dropping it", f.Key, c.RecipeID)
			continue
		}
		c.RecipeID = id
		components = append(components, c)
	}
	rec.Components = components

	if rec.SourceID == "" {
		rec.SourceID = "file:" + f.Key
	}
	existing, err := a.recipes.FindBySource(ctx, rec.SourceID)
	if err != nil {
		return err
	}
	rec.ID = 0
	if existing != nil {
		rec.ID = existing.ID
	}
	for i := range rec.Ingredients {
		rec.Ingredients[i].Ingredient.ID = 0
	}

	if err := a.recipes.Save(ctx, &rec); err != nil {
		return err
	}
	if fileID != 0 {
		saved[fileID] = rec.ID
	}
	return nil
}

// ExportToDir writes every recipe in the catalog to dir, one file per
// recipe, keyed by name.
func (a *App) ExportToDir(ctx context.Context, dir string) (int, error) {
	rs, err := storage.NewRecipeStore(dir)
	if err != nil {
		return 0, err
	}
	all, err := a.recipes.List(ctx)
	if err != nil {
		return 0, err
	}
	used := make(map[string]bool, len(all))
	for _, rec := range all {
		key := storage.Key(rec.Name)
		if key == "" || used[key] {
			key = strings.TrimPrefix(fmt.Sprintf("%s-%d", key, rec.ID), "-")
		}
		used[key] = true
		if err := rs.Save(key, rec); err != nil {
			return 0, err
		}
	}
	return len(all), nil
}
