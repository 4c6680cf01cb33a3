package recipe

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// Repository is a database-backed repository for recipes and the
// ingredient identities their lines refer to.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Save inserts the recipe when its ID is zero and updates it otherwise.
// Ingredient names are resolved to ids, creating identities on first use.
// Components must reference existing recipes and must not make the recipe
// contain itself.
func (r *Repository) Save(ctx context.Context, rec *Recipe) error {
	if strings.TrimSpace(rec.Name) == "" {
		return fmt.Errorf("recipe name is required")
	}

	for _, c := range rec.Components {
		child, err := r.Get(ctx, c.RecipeID)
		if err != nil {
			return err
		}
		if child == nil {
			return fmt.Errorf("component recipe %d not found", c.RecipeID)
		}
		cyclic, err := WouldCreateCycle(ctx, r, rec.ID, c.RecipeID)
		if err != nil {
			return fmt.Errorf("failed to check component %d: %w", c.RecipeID, err)
		}
		if cyclic {
			return fmt.Errorf("recipe %d cannot include recipe %d: %w", rec.ID, c.RecipeID, ErrCircularComponent)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range rec.Ingredients {
		ing := &rec.Ingredients[i].Ingredient
		if ing.ID != 0 || strings.TrimSpace(ing.Name) == "" {
			continue
		}
		resolved, err := resolveIngredient(ctx, tx, ing.Name, ing.FdcID)
		if err != nil {
			return err
		}
		*ing = *resolved
	}

	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}

	if rec.ID == 0 {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO recipes (name, source_id, data, updated_at) VALUES (?, ?, '{}', ?)`,
			rec.Name, rec.SourceID, rec.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert recipe: %w", err)
		}
		if rec.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read recipe id: %w", err)
		}
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal recipe to JSON: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE recipes SET name = ?, source_id = ?, data = ?, updated_at = ? WHERE id = ?`,
		rec.Name, rec.SourceID, string(data), rec.UpdatedAt, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to update recipe: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("recipe %d not found", rec.ID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recipe: %w", err)
	}
	return nil
}

// Get retrieves a recipe by its ID.
func (r *Repository) Get(ctx context.Context, id int64) (*Recipe, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM recipes WHERE id = ?`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Recipe not found
		}
		return nil, fmt.Errorf("failed to get recipe by ID: %w", err)
	}

	var rec Recipe
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipe JSON: %w", err)
	}
	rec.ID = id
	return &rec, nil
}

// GetRecipe implements Catalog.
func (r *Repository) GetRecipe(ctx context.Context, id int64) (*Recipe, error) {
	return r.Get(ctx, id)
}

// FindBySource retrieves the recipe imported from sourceID (a blog post id
// or a clipped URL).
func (r *Repository) FindBySource(ctx context.Context, sourceID string) (*Recipe, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM recipes WHERE source_id = ?`, sourceID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find recipe by source: %w", err)
	}
	return r.Get(ctx, id)
}

// List retrieves all recipes ordered by name.
func (r *Repository) List(ctx context.Context) ([]Recipe, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, data FROM recipes ORDER BY name COLLATE NOCASE, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	var recipes []Recipe
	for rows.Next() {
		var (
			id   int64
			data string
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		var rec Recipe
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			log.Printf("Warning: Failed to unmarshal recipe JSON for ID %d: %v", id, err)
			continue
		}
		rec.ID = id
		recipes = append(recipes, rec)
	}
	return recipes, rows.Err()
}

// Delete removes a recipe. Recipes that include it as a component keep the
// reference; expansion reports it as missing.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete recipe %d: %w", id, err)
	}
	return nil
}

// Count returns the number of recipes in the database.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	return count, nil
}

// FindIngredient looks an ingredient up by name, ignoring case.
func (r *Repository) FindIngredient(ctx context.Context, name string) (*Ingredient, error) {
	var ing Ingredient
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, fdc_id FROM ingredients WHERE name = ?`,
		cleanName(name)).Scan(&ing.ID, &ing.Name, &ing.FdcID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find ingredient: %w", err)
	}
	return &ing, nil
}

// ResolveIngredient returns the identity for name, creating it if needed.
func (r *Repository) ResolveIngredient(ctx context.Context, name string) (*Ingredient, error) {
	return resolveIngredient(ctx, r.db, name, 0)
}

// ListIngredients returns every known ingredient ordered by name.
func (r *Repository) ListIngredients(ctx context.Context) ([]Ingredient, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, fdc_id FROM ingredients ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	defer rows.Close()

	var out []Ingredient
	for rows.Next() {
		var ing Ingredient
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.FdcID); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		out = append(out, ing)
	}
	return out, rows.Err()
}

type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func resolveIngredient(ctx context.Context, q execQuerier, name string, fdcID int64) (*Ingredient, error) {
	name = cleanName(name)
	if name == "" {
		return nil, fmt.Errorf("ingredient name is required")
	}

	if _, err := q.ExecContext(ctx,
		`INSERT INTO ingredients (name, fdc_id) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
		name, fdcID); err != nil {
		return nil, fmt.Errorf("failed to insert ingredient %q: %w", name, err)
	}

	var ing Ingredient
	if err := q.QueryRowContext(ctx,
		`SELECT id, name, fdc_id FROM ingredients WHERE name = ?`, name,
	).Scan(&ing.ID, &ing.Name, &ing.FdcID); err != nil {
		return nil, fmt.Errorf("failed to resolve ingredient %q: %w", name, err)
	}
	return &ing, nil
}

func cleanName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
