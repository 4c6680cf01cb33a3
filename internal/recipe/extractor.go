package recipe

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
	"meal-planner/internal/shared"
)

//go:embed extractor_prompt.md
var extractorPrompt string

var extractorTemplate = template.Must(template.New("extractor").Parse(extractorPrompt))

// PostData is the raw material a recipe is extracted from.
type PostData struct {
	SourceID  string
	Title     string
	UpdatedAt time.Time
	HTML      string
}

// ExtractorResult is an extracted recipe plus the cost of producing it.
type ExtractorResult struct {
	Recipe Recipe
	Meta   shared.AgentMeta
}

type extractedRecipe struct {
	Name         string   `json:"name"`
	Servings     int      `json:"servings"`
	CookTime     string   `json:"cook_time"`
	Instructions string   `json:"instructions"`
	Ingredients  []string `json:"ingredients"`
}

// Extractor turns free-form recipe posts into structured recipes using an LLM.
type Extractor struct {
	textGen llm.TextGenerator
}

// NewExtractor creates a new Extractor.
func NewExtractor(textGen llm.TextGenerator) *Extractor {
	return &Extractor{textGen: textGen}
}

// ExtractRecipe asks the model for the recipe's name, servings and
// ingredient lines, then parses each line into quantity, unit and name.
func (e *Extractor) ExtractRecipe(ctx context.Context, data PostData) (ExtractorResult, error) {
	start := time.Now()

	var buf bytes.Buffer
	if err := extractorTemplate.Execute(&buf, data); err != nil {
		return ExtractorResult{}, fmt.Errorf("failed to build extractor prompt: %w", err)
	}

	llmResp, err := e.textGen.GenerateContent(ctx, buf.String())
	if err != nil {
		return ExtractorResult{}, fmt.Errorf("failed to get LLM response: %w", err)
	}

	meta := shared.AgentMeta{
		AgentName: "Extractor",
		Usage:     llmResp.Usage,
		Latency:   time.Since(start),
	}

	var extracted extractedRecipe
	if err := json.Unmarshal([]byte(llm.StripCodeFence(llmResp.Content)), &extracted); err != nil {
		return ExtractorResult{Meta: meta}, fmt.Errorf("failed to unmarshal LLM response: %w", err)
	}

	name := strings.TrimSpace(extracted.Name)
	if name == "" {
		name = strings.TrimSpace(data.Title)
	}

	rec := Recipe{
		Name:         name,
		Servings:     extracted.Servings,
		CookTime:     extracted.CookTime,
		Instructions: extracted.Instructions,
		SourceID:     data.SourceID,
		UpdatedAt:    data.UpdatedAt,
	}
	for _, text := range extracted.Ingredients {
		line := ParseIngredientLine(text)
		if line.Ingredient.Name == "" {
			continue
		}
		rec.Ingredients = append(rec.Ingredients, line)
	}

	return ExtractorResult{Recipe: rec, Meta: meta}, nil
}
