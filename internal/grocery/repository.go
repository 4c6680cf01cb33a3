package grocery

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Repository handles persistence of generated grocery lists. Lists are
// stored as snapshots; regenerating a plan adds a new one.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new grocery list repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Save stores a grocery list snapshot.
func (r *Repository) Save(ctx context.Context, list *List) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to marshal grocery list: %w", err)
	}

	createdAt := list.GeneratedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO grocery_lists (id, plan_id, store_id, data, created_at) VALUES (?, ?, ?, ?, ?)`,
		list.ID, list.PlanID, list.StoreID, string(data), createdAt); err != nil {
		return fmt.Errorf("failed to insert grocery list: %w", err)
	}
	return nil
}

// Get retrieves a grocery list by id. It returns nil, nil when not found.
func (r *Repository) Get(ctx context.Context, id string) (*List, error) {
	return r.queryOne(ctx, `SELECT data FROM grocery_lists WHERE id = ?`, id)
}

// LatestForPlan retrieves the most recent list generated for a plan.
func (r *Repository) LatestForPlan(ctx context.Context, planID int64) (*List, error) {
	return r.queryOne(ctx,
		`SELECT data FROM grocery_lists WHERE plan_id = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, planID)
}

func (r *Repository) queryOne(ctx context.Context, query string, args ...any) (*List, error) {
	var data string
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No grocery list found
		}
		return nil, fmt.Errorf("failed to get grocery list: %w", err)
	}

	var list List
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		return nil, fmt.Errorf("failed to unmarshal grocery list: %w", err)
	}
	return &list, nil
}

// ListForPlan returns up to limit snapshots for a plan, newest first.
func (r *Repository) ListForPlan(ctx context.Context, planID int64, limit int) ([]List, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT data FROM grocery_lists WHERE plan_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		planID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list grocery lists for plan %d: %w", planID, err)
	}
	defer rows.Close()

	var lists []List
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan grocery list: %w", err)
		}
		var list List
		if err := json.Unmarshal([]byte(data), &list); err != nil {
			return nil, fmt.Errorf("failed to unmarshal grocery list: %w", err)
		}
		lists = append(lists, list)
	}
	return lists, rows.Err()
}

// DeleteForPlan deletes every snapshot of a plan.
func (r *Repository) DeleteForPlan(ctx context.Context, planID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM grocery_lists WHERE plan_id = ?`, planID); err != nil {
		return fmt.Errorf("failed to delete grocery lists for plan %d: %w", planID, err)
	}
	return nil
}
