package planner

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"text/template"
	"time"

	"meal-planner/internal/llm"
	"meal-planner/internal/recipe"
	"meal-planner/internal/shared"
)

//go:embed planner_prompt.md
var plannerPrompt string

var plannerTemplate = template.Must(template.New("planner").Parse(plannerPrompt))

// RecipeLister lists the recipes a plan may draw from.
type RecipeLister interface {
	List(ctx context.Context) ([]recipe.Recipe, error)
}

type promptData struct {
	UserRequest string
	Days        []string
	Recipes     []recipe.Recipe
}

type rawPlan struct {
	Meals []struct {
		Day      string `json:"day"`
		RecipeID int64  `json:"recipe_id"`
		Note     string `json:"note"`
	} `json:"meals"`
}

// DraftResult is a proposed plan plus the cost of producing it.
type DraftResult struct {
	Plan *WeeklyPlan
	Meta shared.AgentMeta
}

// Planner drafts weekly plans from the recipe catalog with an LLM.
type Planner struct {
	recipes RecipeLister
	textGen llm.TextGenerator
}

// NewPlanner creates a new Planner instance.
func NewPlanner(recipes RecipeLister, textGen llm.TextGenerator) *Planner {
	return &Planner{recipes: recipes, textGen: textGen}
}

// Draft asks the model to fill one dinner slot per default day. Suggested
// recipe ids the catalog does not know are dropped. The returned plan is not
// saved.
func (p *Planner) Draft(ctx context.Context, userRequest string) (DraftResult, error) {
	start := time.Now()

	recipes, err := p.recipes.List(ctx)
	if err != nil {
		return DraftResult{}, fmt.Errorf("failed to list recipes: %w", err)
	}
	if len(recipes) == 0 {
		return DraftResult{}, fmt.Errorf("no recipes found to create a plan")
	}

	var buf bytes.Buffer
	if err := plannerTemplate.Execute(&buf, promptData{
		UserRequest: userRequest,
		Days:        DefaultDays,
		Recipes:     recipes,
	}); err != nil {
		return DraftResult{}, fmt.Errorf("failed to build planner prompt: %w", err)
	}

	resp, err := p.textGen.GenerateContent(ctx, buf.String())
	if err != nil {
		return DraftResult{}, fmt.Errorf("failed to generate meal plan from LLM: %w", err)
	}

	meta := shared.AgentMeta{AgentName: "Planner", Usage: resp.Usage, Latency: time.Since(start)}

	var raw rawPlan
	if err := json.Unmarshal([]byte(llm.StripCodeFence(resp.Content)), &raw); err != nil {
		return DraftResult{Meta: meta}, fmt.Errorf("failed to parse meal plan JSON: %w. Response: %s", err, resp.Content)
	}

	byID := make(map[int64]recipe.Recipe, len(recipes))
	for _, r := range recipes {
		byID[r.ID] = r
	}

	plan := &WeeklyPlan{Name: DefaultName(time.Now())}
	for _, m := range raw.Meals {
		r, ok := byID[m.RecipeID]
		if !ok {
			continue
		}
		plan.Meals = append(plan.Meals, MealSlot{
			Day:         m.Day,
			MealType:    "Dinner",
			RecipeID:    r.ID,
			RecipeTitle: r.Name,
			Note:        m.Note,
		})
	}

	if err := plan.Validate(); err != nil {
		return DraftResult{Meta: meta}, err
	}
	return DraftResult{Plan: plan, Meta: meta}, nil
}
