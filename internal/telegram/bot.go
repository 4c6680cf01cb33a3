package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"meal-planner/internal/app"
	"meal-planner/internal/config"
	"meal-planner/internal/grocery"
	"meal-planner/internal/planner"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const helpText = `Send me a recipe link to save it, or use:
/plans - recent meal plans
/plan <request> - draft a week of dinners
/grocery [plan] [store] - grocery list for a plan
/store [id] - show stores or pick yours`

// maxMessageLen is Telegram's limit for a single text message.
const maxMessageLen = 4096

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot answers Telegram webhook updates on top of the application services.
type Bot struct {
	api   sender
	app   *app.App
	prefs *PreferenceRepository
	cfg   *config.Config
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, a *app.App, prefs *PreferenceRepository) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	log.Printf("Authorized on account %s", api.Self.UserName)

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url: %w", err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	return newBot(api, cfg, a, prefs), nil
}

func newBot(api sender, cfg *config.Config, a *app.App, prefs *PreferenceRepository) *Bot {
	return &Bot{api: api, app: a, prefs: prefs, cfg: cfg}
}

// RegisterHandlers registers the webhook and health endpoints on mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Printf("Error parsing update: %v", err)
		http.Error(w, "bad update", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	if !b.cfg.IsAllowedUser(msg.From.ID) {
		log.Printf("⚠️ Unauthorized access attempt from UserID: %d (@%s)", msg.From.ID, msg.From.UserName)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		b.processMessage(ctx, msg)
	}()
}

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)

	if msg.IsCommand() {
		args := strings.Fields(msg.CommandArguments())
		switch msg.Command() {
		case "start", "help":
			b.reply(msg.Chat.ID, helpText)
		case "plans":
			b.handlePlans(ctx, msg.Chat.ID)
		case "plan":
			b.handleDraft(ctx, msg.Chat.ID, msg.CommandArguments())
		case "grocery":
			b.handleGrocery(ctx, msg.Chat.ID, args)
		case "store":
			b.handleStore(ctx, msg.Chat.ID, args)
		case "metrics":
			b.handleMetrics(ctx, msg)
		default:
			b.reply(msg.Chat.ID, helpText)
		}
		return
	}

	if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		b.handleClip(ctx, msg.Chat.ID, text)
		return
	}

	b.handleDraft(ctx, msg.Chat.ID, text)
}

func (b *Bot) handlePlans(ctx context.Context, chatID int64) {
	plans, err := b.app.Plans().List(ctx, 10)
	if err != nil {
		b.replyError(chatID, "listing plans", err)
		return
	}
	if len(plans) == 0 {
		b.reply(chatID, "No meal plans yet. Send /plan with what you feel like eating.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📅 Recent meal plans\n\n")
	for _, p := range plans {
		fmt.Fprintf(&sb, "#%d %s\n", p.ID, p.Name)
	}
	sb.WriteString("\nUse /grocery <number> for a grocery list.")
	b.reply(chatID, sb.String())
}

func (b *Bot) handleDraft(ctx context.Context, chatID int64, request string) {
	request = strings.TrimSpace(request)
	if request == "" {
		b.reply(chatID, helpText)
		return
	}

	b.reply(chatID, "🧑‍🍳 Thinking...")
	plan, err := b.app.DraftPlan(ctx, request)
	if err != nil {
		if errors.Is(err, app.ErrNoLLM) {
			b.reply(chatID, "Plan drafting is not available. "+helpText)
			return
		}
		b.replyError(chatID, "drafting a plan", err)
		return
	}

	if err := b.prefs.SetLastPlan(ctx, chatID, plan.ID); err != nil {
		log.Printf("Warning: %v", err)
	}
	b.reply(chatID, formatPlan(plan))
}

func (b *Bot) handleGrocery(ctx context.Context, chatID int64, args []string) {
	pref, err := b.prefs.Get(ctx, chatID)
	if err != nil {
		log.Printf("Warning: %v", err)
	}
	if pref == nil {
		pref = &Preference{ChatID: chatID}
	}

	planID, storeID := pref.LastPlanID, pref.StoreID
	if len(args) > 0 {
		if planID, err = parseID(args[0]); err != nil {
			b.reply(chatID, "Usage: /grocery [plan] [store]")
			return
		}
	}
	if len(args) > 1 {
		if storeID, err = parseID(args[1]); err != nil {
			b.reply(chatID, "Usage: /grocery [plan] [store]")
			return
		}
	}
	if planID == 0 {
		b.reply(chatID, "Which plan? Use /plans to see them, then /grocery <number>.")
		return
	}

	list, err := b.app.GenerateGroceryList(ctx, planID, storeID)
	if err != nil {
		if errors.Is(err, app.ErrPlanNotFound) {
			b.reply(chatID, fmt.Sprintf("Plan #%d does not exist.", planID))
			return
		}
		b.replyError(chatID, "building the grocery list", err)
		return
	}

	if err := b.prefs.SetLastPlan(ctx, chatID, planID); err != nil {
		log.Printf("Warning: %v", err)
	}
	b.reply(chatID, grocery.PlainText(list))
}

func (b *Bot) handleStore(ctx context.Context, chatID int64, args []string) {
	if len(args) == 0 {
		stores, err := b.app.Stores().List(ctx)
		if err != nil {
			b.replyError(chatID, "listing stores", err)
			return
		}
		if len(stores) == 0 {
			b.reply(chatID, "No stores set up yet.")
			return
		}
		pref, _ := b.prefs.Get(ctx, chatID)

		var sb strings.Builder
		sb.WriteString("🏪 Stores\n\n")
		for _, s := range stores {
			marker := ""
			if pref != nil && pref.StoreID == s.ID {
				marker = " ✅"
			} else if s.IsDefault {
				marker = " (default)"
			}
			fmt.Fprintf(&sb, "#%d %s%s\n", s.ID, s.Name, marker)
		}
		sb.WriteString("\nUse /store <number> to pick yours.")
		b.reply(chatID, sb.String())
		return
	}

	storeID, err := parseID(args[0])
	if err != nil {
		b.reply(chatID, "Usage: /store <number>")
		return
	}
	st, err := b.app.Stores().Get(ctx, storeID)
	if err != nil {
		b.replyError(chatID, "looking up the store", err)
		return
	}
	if st == nil {
		b.reply(chatID, fmt.Sprintf("Store #%d does not exist.", storeID))
		return
	}
	if err := b.prefs.SetStore(ctx, chatID, st.ID); err != nil {
		b.replyError(chatID, "saving your store", err)
		return
	}
	b.reply(chatID, fmt.Sprintf("Grocery lists will follow the aisles of %s.", st.Name))
}

func (b *Bot) handleClip(ctx context.Context, chatID int64, url string) {
	b.reply(chatID, "✂️ Clipping recipe...")
	rec, err := b.app.ClipRecipe(ctx, url, b.cfg.GhostAdminKey != "")
	if err != nil {
		b.replyError(chatID, "clipping the recipe", err)
		return
	}
	b.reply(chatID, fmt.Sprintf("✅ Saved %s (#%d) with %d ingredients.", rec.Name, rec.ID, len(rec.Ingredients)))
}

func (b *Bot) handleMetrics(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.From.ID != b.cfg.AdminTelegramID {
		b.reply(msg.Chat.ID, "⛔ Access denied: admin only.")
		return
	}
	report, err := b.app.MetricsReport(ctx, 7)
	if err != nil {
		b.replyError(msg.Chat.ID, "fetching metrics", err)
		return
	}
	b.reply(msg.Chat.ID, formatReport(report))
}

func (b *Bot) reply(chatID int64, text string) {
	for _, part := range splitMessage(text, maxMessageLen) {
		if _, err := b.api.Send(tgbotapi.NewMessage(chatID, part)); err != nil {
			log.Printf("Failed to send message to chat %d: %v", chatID, err)
			return
		}
	}
}

func (b *Bot) replyError(chatID int64, doing string, err error) {
	log.Printf("Error %s for chat %d: %v", doing, chatID, err)
	b.reply(chatID, fmt.Sprintf("❌ Something went wrong %s: %v", doing, err))
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
}

func formatPlan(plan *planner.WeeklyPlan) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 %s (#%d)\n\n", plan.Name, plan.ID)
	for _, m := range plan.Meals {
		title := m.RecipeTitle
		if title == "" {
			title = fmt.Sprintf("recipe #%d", m.RecipeID)
		}
		fmt.Fprintf(&sb, "%s %s: %s\n", m.Day, m.MealType, title)
		if m.Note != "" {
			fmt.Fprintf(&sb, "   %s\n", m.Note)
		}
	}
	fmt.Fprintf(&sb, "\nUse /grocery %d for the grocery list.", plan.ID)
	return sb.String()
}

func formatReport(r *app.Report) string {
	var sb strings.Builder
	sb.WriteString("📊 Usage & Health Report\n\n")

	sb.WriteString("🗓 Recent LLM activity\n")
	if len(r.Usage) == 0 {
		sb.WriteString("No data yet\n")
	}
	for _, d := range r.Usage {
		fmt.Fprintf(&sb, "• %s: %d tokens (%d calls)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution)
	}

	sb.WriteString("\n🛒 Grocery lists\n")
	fmt.Fprintf(&sb, "• Generated: %d\n", r.Generations.Count)
	if r.Generations.Count > 0 {
		fmt.Fprintf(&sb, "• Avg items: %.1f\n", r.Generations.AvgItems)
		fmt.Fprintf(&sb, "• Avg latency: %.0fms\n", r.Generations.AvgLatencyMS)
		fmt.Fprintf(&sb, "• Warnings: %d\n", r.Generations.Warnings)
	}

	sb.WriteString("\n🧠 System health\n")
	fmt.Fprintf(&sb, "• RAM: %dMB (Alloc) / %dMB (Sys)\n", r.Health.AllocMB, r.Health.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", r.Health.Goroutines)
	fmt.Fprintf(&sb, "• Disk data: %s\n", r.Health.DataDiskSize)
	fmt.Fprintf(&sb, "• Uptime: %s\n", r.Health.Uptime)
	return sb.String()
}

// splitMessage breaks text into chunks of at most limit bytes, preferring
// line boundaries.
func splitMessage(text string, limit int) []string {
	var parts []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n")
		if cut <= 0 {
			cut = limit
		}
		parts = append(parts, text[:cut])
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}
