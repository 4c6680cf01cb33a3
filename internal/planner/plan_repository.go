package planner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// PlanRepository is a database-backed repository for weekly plans.
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(d *sql.DB) *PlanRepository {
	return &PlanRepository{db: d}
}

// Create inserts a new plan. An empty name gets DefaultName.
func (r *PlanRepository) Create(ctx context.Context, plan *WeeklyPlan) error {
	now := time.Now().UTC()
	if strings.TrimSpace(plan.Name) == "" {
		plan.Name = DefaultName(now)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO weekly_plans (name, created_at, updated_at) VALUES (?, ?, ?)`,
		plan.Name, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert meal plan: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read meal plan id: %w", err)
	}

	if err := insertSlots(ctx, tx, id, plan.Meals); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit meal plan: %w", err)
	}

	plan.ID = id
	plan.CreatedAt = now
	plan.UpdatedAt = now
	return nil
}

// Update replaces the plan's name and slots.
func (r *PlanRepository) Update(ctx context.Context, plan *WeeklyPlan) error {
	now := time.Now().UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE weekly_plans SET name = ?, updated_at = ? WHERE id = ?`,
		plan.Name, now, plan.ID)
	if err != nil {
		return fmt.Errorf("failed to update meal plan %d: %w", plan.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("meal plan %d not found", plan.ID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM meal_slots WHERE plan_id = ?`, plan.ID); err != nil {
		return fmt.Errorf("failed to clear meal slots: %w", err)
	}
	if err := insertSlots(ctx, tx, plan.ID, plan.Meals); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit meal plan: %w", err)
	}

	plan.UpdatedAt = now
	return nil
}

func insertSlots(ctx context.Context, tx *sql.Tx, planID int64, meals []MealSlot) error {
	for i, m := range meals {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO meal_slots (plan_id, position, day, meal_type, recipe_id) VALUES (?, ?, ?, ?, ?)`,
			planID, i, m.Day, m.MealType, m.RecipeID); err != nil {
			return fmt.Errorf("failed to insert meal slot: %w", err)
		}
	}
	return nil
}

// Get retrieves a plan with its slots. It returns nil, nil when the plan
// does not exist.
func (r *PlanRepository) Get(ctx context.Context, id int64) (*WeeklyPlan, error) {
	plan := WeeklyPlan{ID: id}
	err := r.db.QueryRowContext(ctx,
		`SELECT name, created_at, updated_at FROM weekly_plans WHERE id = ?`, id,
	).Scan(&plan.Name, &plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get meal plan %d: %w", id, err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT day, meal_type, recipe_id FROM meal_slots WHERE plan_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list meal slots for plan %d: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var m MealSlot
		if err := rows.Scan(&m.Day, &m.MealType, &m.RecipeID); err != nil {
			return nil, fmt.Errorf("failed to scan meal slot: %w", err)
		}
		plan.Meals = append(plan.Meals, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read meal slots: %w", err)
	}
	return &plan, nil
}

// List returns the most recently updated plans without their slots.
func (r *PlanRepository) List(ctx context.Context, limit int) ([]WeeklyPlan, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, created_at, updated_at FROM weekly_plans ORDER BY updated_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list meal plans: %w", err)
	}
	defer rows.Close()

	var plans []WeeklyPlan
	for rows.Next() {
		var p WeeklyPlan
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan meal plan: %w", err)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// Delete removes a plan and its slots.
func (r *PlanRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM weekly_plans WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete meal plan %d: %w", id, err)
	}
	return nil
}
