package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"meal-planner/internal/recipe"
)

// RecipeStore keeps recipes as one JSON file per recipe. It doubles as a
// recipe.Catalog so grocery lists can be generated without a database.
type RecipeStore struct {
	basePath string
}

// NewRecipeStore creates a new RecipeStore and ensures the base directory exists.
func NewRecipeStore(basePath string) (*RecipeStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &RecipeStore{basePath: basePath}, nil
}

// Key turns a recipe name into a file-safe key ("Pico de Gallo" -> "pico-de-gallo").
func Key(name string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			dash = false
			continue
		}
		if !dash && sb.Len() > 0 {
			sb.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(sb.String(), "-")
}

func (s *RecipeStore) path(key string) string {
	return filepath.Join(s.basePath, key+".json")
}

// Save writes a recipe under key, replacing any previous version.
func (s *RecipeStore) Save(key string, rec recipe.Recipe) error {
	if key == "" {
		return fmt.Errorf("recipe key is required")
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal recipe: %w", err)
	}

	tmp, err := os.CreateTemp(s.basePath, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write recipe file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write recipe file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return fmt.Errorf("failed to write recipe file: %w", err)
	}
	return nil
}

// Load reads the recipe stored under key. Returns nil, nil when there is none.
func (s *RecipeStore) Load(key string) (*recipe.Recipe, error) {
	return readRecipe(s.path(key))
}

// Exists checks if a recipe is stored under key.
func (s *RecipeStore) Exists(key string) bool {
	_, err := os.Stat(s.path(key))
	return err == nil
}

// Remove deletes the recipe stored under key, if any.
func (s *RecipeStore) Remove(key string) error {
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove recipe file: %w", err)
	}
	return nil
}

// StoredRecipe is a recipe together with the key it is stored under.
type StoredRecipe struct {
	Key    string
	Recipe recipe.Recipe
}

// ListAll reads every recipe file, ordered by key. Files that fail to parse
// are logged and skipped.
func (s *RecipeStore) ListAll() ([]StoredRecipe, error) {
	matches, err := filepath.Glob(filepath.Join(s.basePath, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list recipe files: %w", err)
	}
	sort.Strings(matches)

	out := make([]StoredRecipe, 0, len(matches))
	for _, m := range matches {
		rec, err := readRecipe(m)
		if err != nil {
			log.Printf("Warning: skipping %s: %v", m, err)
			continue
		}
		if rec == nil {
			continue
		}
		out = append(out, StoredRecipe{
			Key:    strings.TrimSuffix(filepath.Base(m), ".json"),
			Recipe: *rec,
		})
	}
	return out, nil
}

// GetRecipe finds a stored recipe by its ID field.
func (s *RecipeStore) GetRecipe(ctx context.Context, id int64) (*recipe.Recipe, error) {
	all, err := s.ListAll()
	if err != nil {
		return nil, err
	}
	for _, sr := range all {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if sr.Recipe.ID == id {
			rec := sr.Recipe
			return &rec, nil
		}
	}
	return nil, nil
}

func readRecipe(path string) (*recipe.Recipe, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe file: %w", err)
	}

	var rec recipe.Recipe
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipe: %w", err)
	}
	return &rec, nil
}
