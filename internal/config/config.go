package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the configuration for the application.
type Config struct {
	DatabasePath      string
	RecipeStoragePath string
	DefaultStoreID    int64
	MaxExpansionDepth int

	GhostURL        string
	GhostContentKey string
	GhostAdminKey   string

	GeminiAPIKey string
	GeminiModel  string
	GroqAPIKey   string
	GroqModel    string

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64
	Port                   string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database_path", "data/db/planner.db")
	v.SetDefault("recipe_storage_path", "data/recipes")
	v.SetDefault("default_store_id", 0)
	v.SetDefault("max_expansion_depth", 50)
	v.SetDefault("gemini_model", "gemini-1.5-flash")
	v.SetDefault("groq_model", "llama-3.3-70b-versatile")
	v.SetDefault("port", "8080")
}

// Load reads configuration from the optional file at path and from the
// environment. Environment variables win over file values; keys are the
// upper-cased setting names (DATABASE_PATH, GHOST_API_URL, ...).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	allowed, err := parseIDs(v.GetString("telegram_allowed_user_ids"))
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_ALLOWED_USER_IDS: %w", err)
	}
	// Single-user setups only set TELEGRAM_ALLOW_USER_ID.
	if legacy := v.GetInt64("telegram_allow_user_id"); legacy != 0 {
		allowed = append(allowed, legacy)
	}

	ghostAdminKey := v.GetString("ghost_admin_api_key")
	if ghostAdminKey == "" {
		// Fallback to content key if only one is provided
		ghostAdminKey = v.GetString("ghost_content_api_key")
	}

	cfg := &Config{
		DatabasePath:           v.GetString("database_path"),
		RecipeStoragePath:      v.GetString("recipe_storage_path"),
		DefaultStoreID:         v.GetInt64("default_store_id"),
		MaxExpansionDepth:      v.GetInt("max_expansion_depth"),
		GhostURL:               v.GetString("ghost_api_url"),
		GhostContentKey:        v.GetString("ghost_content_api_key"),
		GhostAdminKey:          ghostAdminKey,
		GeminiAPIKey:           v.GetString("gemini_api_key"),
		GeminiModel:            v.GetString("gemini_model"),
		GroqAPIKey:             v.GetString("groq_api_key"),
		GroqModel:              v.GetString("groq_model"),
		TelegramBotToken:       v.GetString("telegram_bot_token"),
		TelegramWebhookURL:     v.GetString("telegram_webhook_url"),
		TelegramAllowedUserIDs: allowed,
		AdminTelegramID:        v.GetInt64("admin_telegram_id"),
		Port:                   v.GetString("port"),
	}

	if cfg.DatabasePath == "" {
		return nil, fmt.Errorf("DATABASE_PATH must not be empty")
	}
	if cfg.MaxExpansionDepth <= 0 {
		return nil, fmt.Errorf("MAX_EXPANSION_DEPTH must be positive, got %d", cfg.MaxExpansionDepth)
	}
	return cfg, nil
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	return Load("")
}

// HasLLM reports whether any LLM provider is configured.
func (c *Config) HasLLM() bool {
	return c.GeminiAPIKey != "" || c.GroqAPIKey != ""
}

// RequireGhost checks the settings needed to talk to the Ghost blog.
func (c *Config) RequireGhost() error {
	if c.GhostURL == "" {
		return fmt.Errorf("GHOST_API_URL environment variable not set")
	}
	if c.GhostContentKey == "" {
		return fmt.Errorf("GHOST_CONTENT_API_KEY environment variable not set")
	}
	return nil
}

// RequireTelegram checks the settings needed to run the bot.
func (c *Config) RequireTelegram() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable not set")
	}
	if c.TelegramWebhookURL == "" {
		return fmt.Errorf("TELEGRAM_WEBHOOK_URL environment variable not set")
	}
	return nil
}

// IsAllowedUser reports whether a Telegram user may talk to the bot. An
// empty allow list admits everyone.
func (c *Config) IsAllowedUser(id int64) bool {
	if len(c.TelegramAllowedUserIDs) == 0 || id == c.AdminTelegramID {
		return true
	}
	for _, allowed := range c.TelegramAllowedUserIDs {
		if allowed == id {
			return true
		}
	}
	return false
}

func parseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse user id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
