package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"meal-planner/internal/clipper"
	"meal-planner/internal/config"
	"meal-planner/internal/ghost"
	"meal-planner/internal/grocery"
	"meal-planner/internal/llm"
	"meal-planner/internal/metrics"
	"meal-planner/internal/planner"
	"meal-planner/internal/recipe"
	"meal-planner/internal/shared"
	"meal-planner/internal/store"
)

var (
	// ErrPlanNotFound is returned when a weekly plan id does not exist.
	ErrPlanNotFound = errors.New("plan not found")
	// ErrListNotFound is returned when a saved grocery list id does not exist.
	ErrListNotFound = errors.New("grocery list not found")
	// ErrNoLLM is returned by operations that need a text generator when
	// none is configured.
	ErrNoLLM = errors.New("no LLM configured")
	// ErrNoGhost is returned by blog operations when no Ghost client is
	// configured.
	ErrNoGhost = errors.New("ghost is not configured")
)

const defaultImportDelay = 4 * time.Second

// App holds the application's dependencies.
type App struct {
	cfg *config.Config

	recipes *recipe.Repository
	plans   *planner.PlanRepository
	stores  *store.Repository
	lists   *grocery.Repository
	metrics *metrics.Store

	generator *grocery.Generator
	suggester *store.Suggester
	clipper   *clipper.Clipper
	planner   *planner.Planner
	extractor *recipe.Extractor
	ghost     ghost.Client

	importDelay time.Duration
}

// New wires the repositories and services on top of db. textGen and
// ghostClient may be nil; the operations that need them then fail with
// ErrNoLLM or ErrNoGhost.
func New(cfg *config.Config, db *sql.DB, textGen llm.TextGenerator, ghostClient ghost.Client) *App {
	recipes := recipe.NewRepository(db)
	stores := store.NewRepository(db)

	a := &App{
		cfg:         cfg,
		recipes:     recipes,
		plans:       planner.NewPlanRepository(db),
		stores:      stores,
		lists:       grocery.NewRepository(db),
		metrics:     metrics.NewStore(db),
		generator:   grocery.NewGenerator(recipes, stores, cfg.MaxExpansionDepth),
		suggester:   store.NewSuggester(textGen),
		ghost:       ghostClient,
		importDelay: defaultImportDelay,
	}
	if textGen != nil {
		a.planner = planner.NewPlanner(recipes, textGen)
		a.extractor = recipe.NewExtractor(textGen)
	}
	a.clipper = clipper.NewClipper(a.extractor)
	return a
}

// Recipes exposes the recipe repository.
func (a *App) Recipes() *recipe.Repository { return a.recipes }

// Plans exposes the weekly plan repository.
func (a *App) Plans() *planner.PlanRepository { return a.plans }

// Stores exposes the store repository.
func (a *App) Stores() *store.Repository { return a.stores }

// ResolveStore picks the store a list is organized for. An explicit id is
// looked up as is and yields nil when unknown. Without one, the configured
// default is used, then the store flagged as default. It returns nil when
// there is no store at all.
func (a *App) ResolveStore(ctx context.Context, storeID int64) (*store.Store, error) {
	if storeID != 0 {
		return a.stores.Get(ctx, storeID)
	}
	if id := a.cfg.DefaultStoreID; id != 0 {
		s, err := a.stores.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if s != nil {
			return s, nil
		}
		log.Printf("Warning: configured default store %d not found, falling back to the default store", id)
	}
	return a.stores.DefaultStore(ctx)
}

// GenerateGroceryList builds the grocery list for a saved plan, records a
// generation metric and stores a snapshot of the result.
func (a *App) GenerateGroceryList(ctx context.Context, planID, storeID int64) (*grocery.List, error) {
	plan, err := a.plans.Get(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan %d: %w", planID, err)
	}
	if plan == nil {
		return nil, fmt.Errorf("plan %d: %w", planID, ErrPlanNotFound)
	}

	st, err := a.ResolveStore(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve store: %w", err)
	}
	// An unknown explicit store still goes to the generator so the list
	// carries the layout warning.
	resolvedID := storeID
	if st != nil {
		resolvedID = st.ID
	}

	list := a.generator.Generate(ctx, plan, resolvedID)

	if err := a.metrics.RecordGeneration(ctx, metrics.GenerationMetric{
		PlanID:    list.PlanID,
		StoreID:   list.StoreID,
		Recipes:   list.Stats.Recipes,
		Items:     list.Stats.Items,
		Sections:  list.Stats.Sections,
		Warnings:  list.Stats.Warnings,
		LatencyMS: list.Stats.Latency.Milliseconds(),
	}); err != nil {
		log.Printf("Warning: failed to record generation metric: %v", err)
	}

	if err := a.lists.Save(ctx, list); err != nil {
		log.Printf("Warning: failed to save grocery list snapshot: %v", err)
	}

	return list, nil
}

// GroceryList returns a saved grocery list snapshot.
func (a *App) GroceryList(ctx context.Context, id string) (*grocery.List, error) {
	list, err := a.lists.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return nil, fmt.Errorf("list %s: %w", id, ErrListNotFound)
	}
	return list, nil
}

// DraftPlan asks the planner for a week of dinners and saves the result.
func (a *App) DraftPlan(ctx context.Context, request string) (*planner.WeeklyPlan, error) {
	if a.planner == nil {
		return nil, ErrNoLLM
	}

	res, err := a.planner.Draft(ctx, request)
	a.recordMeta(ctx, res.Meta)
	if err != nil {
		return nil, err
	}

	if err := a.plans.Create(ctx, res.Plan); err != nil {
		return nil, fmt.Errorf("failed to save plan: %w", err)
	}
	return res.Plan, nil
}

// OrganizeStore proposes sections for the ingredients the store has not
// mapped yet. With apply set, the proposals are saved as assignments.
func (a *App) OrganizeStore(ctx context.Context, storeID int64, apply bool) ([]store.Suggestion, error) {
	st, err := a.ResolveStore(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve store: %w", err)
	}
	if st == nil {
		return nil, store.ErrNoStore
	}

	sections, err := a.stores.Sections(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	mapping, err := a.stores.Mapping(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	all, err := a.recipes.ListIngredients(ctx)
	if err != nil {
		return nil, err
	}

	var unmapped []recipe.Ingredient
	for _, ing := range all {
		if _, ok := mapping[ing.ID]; !ok {
			unmapped = append(unmapped, ing)
		}
	}
	if len(unmapped) == 0 {
		return nil, nil
	}

	suggestions, meta, err := a.suggester.Suggest(ctx, unmapped, sections)
	a.recordMeta(ctx, meta)
	if err != nil {
		log.Printf("Warning: LLM section suggestions failed, keeping keyword matches: %v", err)
	}

	if apply {
		for _, s := range suggestions {
			if err := a.stores.AssignIngredient(ctx, st.ID, s.IngredientID, s.SectionID); err != nil {
				log.Printf("Warning: failed to assign %s to %s: %v", s.Ingredient, s.Section, err)
			}
		}
	}
	return suggestions, nil
}

// PublishGroceryList posts a saved grocery list to the blog as a draft.
func (a *App) PublishGroceryList(ctx context.Context, listID string) (*ghost.Post, error) {
	if a.ghost == nil {
		return nil, ErrNoGhost
	}
	list, err := a.GroceryList(ctx, listID)
	if err != nil {
		return nil, err
	}

	title := fmt.Sprintf("Grocery list: %s", list.PlanName)
	post, err := a.ghost.CreatePost(ctx, title, grocery.HTML(list), false)
	if err != nil {
		return nil, fmt.Errorf("failed to publish grocery list: %w", err)
	}
	return post, nil
}

// Report is the usage and health summary shown to admins.
type Report struct {
	Usage       []metrics.DailyUsage
	Generations metrics.GenerationSummary
	Health      metrics.SysHealth
}

// MetricsReport summarises the last days of LLM usage and list generation.
func (a *App) MetricsReport(ctx context.Context, days int) (*Report, error) {
	usage, err := a.metrics.GetDailyUsage(ctx, days)
	if err != nil {
		return nil, err
	}
	gens, err := a.metrics.GetGenerationSummary(ctx, days)
	if err != nil {
		return nil, err
	}
	return &Report{
		Usage:       usage,
		Generations: gens,
		Health:      metrics.GetSysHealth(a.cfg.DatabasePath, a.cfg.RecipeStoragePath),
	}, nil
}

// CleanupMetrics deletes metrics older than the given number of days.
func (a *App) CleanupMetrics(ctx context.Context, olderThanDays int) (int64, error) {
	return a.metrics.Cleanup(ctx, olderThanDays)
}

func (a *App) recordMeta(ctx context.Context, meta shared.AgentMeta) {
	if meta.AgentName == "" {
		return
	}
	if err := a.metrics.RecordMeta(ctx, meta); err != nil {
		log.Printf("Warning: failed to record metrics for %s: %v", meta.AgentName, err)
	}
}
