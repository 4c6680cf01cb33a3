package telegram

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Preference is what the bot remembers per chat between messages.
type Preference struct {
	ChatID     int64
	StoreID    int64
	LastPlanID int64
	UpdatedAt  time.Time
}

// PreferenceRepository persists chat preferences.
type PreferenceRepository struct {
	db *sql.DB
}

// NewPreferenceRepository creates a new PreferenceRepository.
func NewPreferenceRepository(db *sql.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// Get returns the preferences of a chat, or nil, nil if none were saved.
func (r *PreferenceRepository) Get(ctx context.Context, chatID int64) (*Preference, error) {
	p := Preference{ChatID: chatID}
	err := r.db.QueryRowContext(ctx,
		`SELECT store_id, last_plan_id, updated_at FROM chat_preferences WHERE chat_id = ?`, chatID,
	).Scan(&p.StoreID, &p.LastPlanID, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get chat preferences: %w", err)
	}
	return &p, nil
}

// SetStore saves the store a chat organizes its grocery lists for.
func (r *PreferenceRepository) SetStore(ctx context.Context, chatID, storeID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO chat_preferences (chat_id, store_id, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(chat_id) DO UPDATE SET store_id = excluded.store_id, updated_at = excluded.updated_at`,
		chatID, storeID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save preferred store: %w", err)
	}
	return nil
}

// SetLastPlan remembers the plan a chat worked with most recently.
func (r *PreferenceRepository) SetLastPlan(ctx context.Context, chatID, planID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO chat_preferences (chat_id, last_plan_id, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(chat_id) DO UPDATE SET last_plan_id = excluded.last_plan_id, updated_at = excluded.updated_at`,
		chatID, planID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save last plan: %w", err)
	}
	return nil
}
