package store

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"meal-planner/internal/llm"
	"meal-planner/internal/recipe"
	"meal-planner/internal/shared"
)

//go:embed suggester_prompt.md
var suggesterPrompt string

var suggesterTemplate = template.Must(template.New("suggester").Parse(suggesterPrompt))

// keywordRule sends ingredients whose name contains keyword to the first
// store section whose name contains one of the section fragments.
type keywordRule struct {
	keyword  string
	sections []string
}

var keywordRules = []keywordRule{
	{"ice cream", []string{"dessert", "frozen"}},
	{"milk", []string{"dairy"}},
	{"cheese", []string{"dairy"}},
	{"butter", []string{"dairy"}},
	{"yogurt", []string{"dairy"}},
	{"egg", []string{"dairy"}},
	{"bread", []string{"bakery"}},
	{"tortilla", []string{"bakery"}},
	{"flour", []string{"baking", "condiment"}},
	{"sugar", []string{"baking", "condiment"}},
	{"salt", []string{"baking", "condiment", "spice"}},
	{"pepper", []string{"baking", "condiment", "spice"}},
	{"chicken", []string{"meat"}},
	{"beef", []string{"meat"}},
	{"pork", []string{"meat"}},
	{"fish", []string{"seafood", "meat"}},
	{"shrimp", []string{"seafood"}},
	{"apple", []string{"produce"}},
	{"banana", []string{"produce"}},
	{"carrot", []string{"produce"}},
	{"lettuce", []string{"produce"}},
	{"potato", []string{"produce"}},
	{"tomato", []string{"produce"}},
	{"onion", []string{"produce"}},
	{"garlic", []string{"produce"}},
	{"cereal", []string{"breakfast"}},
	{"juice", []string{"snack", "beverage"}},
	{"frozen", []string{"frozen"}},
	{"canned", []string{"canned"}},
	{"beans", []string{"canned"}},
}

// Suggestion proposes a section for an unmapped ingredient.
type Suggestion struct {
	IngredientID int64  `json:"ingredient_id"`
	Ingredient   string `json:"ingredient"`
	SectionID    int64  `json:"section_id"`
	Section      string `json:"section"`
	Source       string `json:"source"`
}

// Suggester proposes sections for ingredients: keyword rules first, then an
// optional LLM pass for whatever the rules did not place.
type Suggester struct {
	textGen llm.TextGenerator
}

// NewSuggester creates a Suggester. textGen may be nil to use keyword rules
// only.
func NewSuggester(textGen llm.TextGenerator) *Suggester {
	return &Suggester{textGen: textGen}
}

// Suggest proposes sections for ingredients. The returned meta is zero when
// the LLM was not consulted.
func (s *Suggester) Suggest(ctx context.Context, ingredients []recipe.Ingredient, sections []Section) ([]Suggestion, shared.AgentMeta, error) {
	var (
		suggestions []Suggestion
		remaining   []recipe.Ingredient
	)
	for _, ing := range ingredients {
		if sec, ok := matchKeyword(ing.Name, sections); ok {
			suggestions = append(suggestions, Suggestion{
				IngredientID: ing.ID,
				Ingredient:   ing.Name,
				SectionID:    sec.ID,
				Section:      sec.Name,
				Source:       "keyword",
			})
			continue
		}
		remaining = append(remaining, ing)
	}

	if s.textGen == nil || len(remaining) == 0 || len(sections) == 0 {
		return suggestions, shared.AgentMeta{}, nil
	}

	fromLLM, meta, err := s.askLLM(ctx, remaining, sections)
	if err != nil {
		return suggestions, meta, err
	}
	return append(suggestions, fromLLM...), meta, nil
}

func matchKeyword(name string, sections []Section) (Section, bool) {
	lower := strings.ToLower(name)
	for _, rule := range keywordRules {
		if !strings.Contains(lower, rule.keyword) {
			continue
		}
		for _, fragment := range rule.sections {
			for _, sec := range sections {
				if strings.Contains(strings.ToLower(sec.Name), fragment) {
					return sec, true
				}
			}
		}
	}
	return Section{}, false
}

func (s *Suggester) askLLM(ctx context.Context, ingredients []recipe.Ingredient, sections []Section) ([]Suggestion, shared.AgentMeta, error) {
	start := time.Now()

	var buf bytes.Buffer
	if err := suggesterTemplate.Execute(&buf, struct {
		Sections    []Section
		Ingredients []recipe.Ingredient
	}{sections, ingredients}); err != nil {
		return nil, shared.AgentMeta{}, fmt.Errorf("failed to build suggester prompt: %w", err)
	}

	resp, err := s.textGen.GenerateContent(ctx, buf.String())
	if err != nil {
		return nil, shared.AgentMeta{}, fmt.Errorf("failed to get LLM response: %w", err)
	}
	meta := shared.AgentMeta{AgentName: "SectionSuggester", Usage: resp.Usage, Latency: time.Since(start)}

	var raw struct {
		Assignments []struct {
			Ingredient string `json:"ingredient"`
			Section    string `json:"section"`
		} `json:"assignments"`
	}
	if err := json.Unmarshal([]byte(llm.StripCodeFence(resp.Content)), &raw); err != nil {
		return nil, meta, fmt.Errorf("failed to unmarshal LLM response: %w", err)
	}

	byName := make(map[string]recipe.Ingredient, len(ingredients))
	for _, ing := range ingredients {
		byName[recipe.NormalizeName(ing.Name)] = ing
	}
	sectionByName := make(map[string]Section, len(sections))
	for _, sec := range sections {
		sectionByName[strings.ToLower(sec.Name)] = sec
	}

	var suggestions []Suggestion
	for _, a := range raw.Assignments {
		ing, ok := byName[recipe.NormalizeName(a.Ingredient)]
		if !ok {
			continue
		}
		sec, ok := sectionByName[strings.ToLower(strings.TrimSpace(a.Section))]
		if !ok {
			continue
		}
		delete(byName, recipe.NormalizeName(a.Ingredient))
		suggestions = append(suggestions, Suggestion{
			IngredientID: ing.ID,
			Ingredient:   ing.Name,
			SectionID:    sec.ID,
			Section:      sec.Name,
			Source:       "llm",
		})
	}
	return suggestions, meta, nil
}
