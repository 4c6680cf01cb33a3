// Package store keeps grocery stores, their ordered sections and which
// section each ingredient is shelved in.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoStore is returned when a store is required but none exists.
var ErrNoStore = errors.New("store not found")

// DefaultSections are seeded into a store created without sections.
var DefaultSections = []string{"Produce", "Dairy", "Meat", "Bakery", "Frozen", "Canned Goods"}

// Store is a grocery store whose sections define the list order.
type Store struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
}

// Section is an aisle or department of a store. Position is nil for
// sections that are not part of the configured order.
type Section struct {
	ID       int64  `json:"id"`
	StoreID  int64  `json:"store_id"`
	Name     string `json:"name"`
	Position *int   `json:"position,omitempty"`
}

// Repository persists stores, sections and ingredient mappings.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new store Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// CreateStore inserts a store with the given sections in order, or with
// DefaultSections when none are given. Making it the default clears the
// flag on every other store.
func (r *Repository) CreateStore(ctx context.Context, name string, isDefault bool, sections []string) (*Store, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("store name is required")
	}
	if len(sections) == 0 {
		sections = DefaultSections
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if isDefault {
		if _, err := tx.ExecContext(ctx, `UPDATE stores SET is_default = 0`); err != nil {
			return nil, fmt.Errorf("failed to clear default store: %w", err)
		}
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO stores (name, is_default, created_at) VALUES (?, ?, ?)`,
		name, isDefault, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert store: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read store id: %w", err)
	}

	if err := saveSections(ctx, tx, id, sections); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit store: %w", err)
	}

	return &Store{ID: id, Name: name, IsDefault: isDefault, CreatedAt: now}, nil
}

// SaveSections sets the store's section order. Names are matched
// case-insensitively; duplicates keep their first position. Existing sections
// missing from names stay, unordered, with their ingredient mappings.
func (r *Repository) SaveSections(ctx context.Context, storeID int64, names []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := saveSections(ctx, tx, storeID, names); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sections: %w", err)
	}
	return nil
}

func saveSections(ctx context.Context, tx *sql.Tx, storeID int64, names []string) error {
	if _, err := tx.ExecContext(ctx, `UPDATE sections SET position = NULL WHERE store_id = ?`, storeID); err != nil {
		return fmt.Errorf("failed to reset section order: %w", err)
	}

	seen := map[string]bool{}
	position := 0
	for _, name := range names {
		name = strings.Join(strings.Fields(name), " ")
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sections (store_id, name, position) VALUES (?, ?, ?)
			 ON CONFLICT(store_id, name) DO UPDATE SET position = excluded.position`,
			storeID, name, position); err != nil {
			return fmt.Errorf("failed to save section %q: %w", name, err)
		}
		position++
	}
	return nil
}

// AddSection adds a section outside the configured order.
func (r *Repository) AddSection(ctx context.Context, storeID int64, name string) (*Section, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return nil, fmt.Errorf("section name is required")
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO sections (store_id, name, position) VALUES (?, ?, NULL)`, storeID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to insert section %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read section id: %w", err)
	}
	return &Section{ID: id, StoreID: storeID, Name: name}, nil
}

// Sections lists a store's sections, ordered ones first.
func (r *Repository) Sections(ctx context.Context, storeID int64) ([]Section, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, store_id, name, position FROM sections
		 WHERE store_id = ?
		 ORDER BY position IS NULL, position, name COLLATE NOCASE`, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections for store %d: %w", storeID, err)
	}
	defer rows.Close()

	var sections []Section
	for rows.Next() {
		var (
			s   Section
			pos sql.NullInt64
		)
		if err := rows.Scan(&s.ID, &s.StoreID, &s.Name, &pos); err != nil {
			return nil, fmt.Errorf("failed to scan section: %w", err)
		}
		if pos.Valid {
			p := int(pos.Int64)
			s.Position = &p
		}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

// AssignIngredient shelves an ingredient in a section of the store,
// replacing any previous assignment in that store.
func (r *Repository) AssignIngredient(ctx context.Context, storeID, ingredientID, sectionID int64) error {
	var owner int64
	err := r.db.QueryRowContext(ctx, `SELECT store_id FROM sections WHERE id = ?`, sectionID).Scan(&owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("section %d not found", sectionID)
		}
		return fmt.Errorf("failed to look up section %d: %w", sectionID, err)
	}
	if owner != storeID {
		return fmt.Errorf("section %d belongs to store %d, not %d", sectionID, owner, storeID)
	}

	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO ingredient_sections (store_id, ingredient_id, section_id) VALUES (?, ?, ?)
		 ON CONFLICT(store_id, ingredient_id) DO UPDATE SET section_id = excluded.section_id`,
		storeID, ingredientID, sectionID); err != nil {
		return fmt.Errorf("failed to assign ingredient %d: %w", ingredientID, err)
	}
	return nil
}

// UnassignIngredient removes an ingredient's section in the store.
func (r *Repository) UnassignIngredient(ctx context.Context, storeID, ingredientID int64) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM ingredient_sections WHERE store_id = ? AND ingredient_id = ?`,
		storeID, ingredientID); err != nil {
		return fmt.Errorf("failed to unassign ingredient %d: %w", ingredientID, err)
	}
	return nil
}

// Mapping returns ingredient id to section id for the store.
func (r *Repository) Mapping(ctx context.Context, storeID int64) (map[int64]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT ingredient_id, section_id FROM ingredient_sections WHERE store_id = ?`, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load mapping for store %d: %w", storeID, err)
	}
	defer rows.Close()

	mapping := map[int64]int64{}
	for rows.Next() {
		var ingredientID, sectionID int64
		if err := rows.Scan(&ingredientID, &sectionID); err != nil {
			return nil, fmt.Errorf("failed to scan mapping: %w", err)
		}
		mapping[ingredientID] = sectionID
	}
	return mapping, rows.Err()
}

// Get retrieves a store by id. It returns nil, nil when it does not exist.
func (r *Repository) Get(ctx context.Context, id int64) (*Store, error) {
	return r.queryStore(ctx, `SELECT id, name, is_default, created_at FROM stores WHERE id = ?`, id)
}

// DefaultStore returns the store flagged as default, else the first store
// created. It returns nil, nil when there are no stores.
func (r *Repository) DefaultStore(ctx context.Context) (*Store, error) {
	return r.queryStore(ctx, `SELECT id, name, is_default, created_at FROM stores ORDER BY is_default DESC, id LIMIT 1`)
}

func (r *Repository) queryStore(ctx context.Context, query string, args ...any) (*Store, error) {
	var s Store
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&s.ID, &s.Name, &s.IsDefault, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get store: %w", err)
	}
	return &s, nil
}

// List returns every store, the default first.
func (r *Repository) List(ctx context.Context) ([]Store, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, is_default, created_at FROM stores ORDER BY is_default DESC, name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	defer rows.Close()

	var stores []Store
	for rows.Next() {
		var s Store
		if err := rows.Scan(&s.ID, &s.Name, &s.IsDefault, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan store: %w", err)
		}
		stores = append(stores, s)
	}
	return stores, rows.Err()
}

// SetDefault makes the store the default one.
func (r *Repository) SetDefault(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var found int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM stores WHERE id = ?`, id).Scan(&found); err != nil {
		return fmt.Errorf("failed to check store %d: %w", id, err)
	}
	if found == 0 {
		return ErrNoStore
	}

	if _, err := tx.ExecContext(ctx, `UPDATE stores SET is_default = (id = ?)`, id); err != nil {
		return fmt.Errorf("failed to set default store: %w", err)
	}
	return tx.Commit()
}

// Delete removes a store with its sections and mappings.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM stores WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete store %d: %w", id, err)
	}
	return nil
}
