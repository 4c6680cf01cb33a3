package clipper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"meal-planner/internal/recipe"
	"meal-planner/internal/shared"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoIngredients is returned when a page has no recognizable ingredient
// list and no extractor is configured to read it.
var ErrNoIngredients = errors.New("no ingredients found on page")

// Extraction methods reported in Result.Method.
const (
	MethodJSONLD = "json-ld"
	MethodMarkup = "markup"
	MethodLLM    = "llm"
)

// ingredientSelectors are tried in order; the first one that matches wins.
var ingredientSelectors = []string{
	"[itemprop=recipeIngredient]",
	".wprm-recipe-ingredient",
	".tasty-recipes-ingredients li",
	".ingredients li",
}

const noiseSelector = "script, style, nav, footer, iframe, ads, .ads, #ads"

// Result is a clipped recipe and how it was obtained.
type Result struct {
	Recipe recipe.Recipe
	Method string
	Meta   shared.AgentMeta
}

// Clipper turns recipe web pages into recipes.
type Clipper struct {
	httpClient *http.Client
	extractor  *recipe.Extractor
}

// NewClipper creates a Clipper. extractor may be nil, in which case pages
// without recipe markup are rejected.
func NewClipper(extractor *recipe.Extractor) *Clipper {
	return &Clipper{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		extractor:  extractor,
	}
}

// ClipURL fetches the page at url and extracts its recipe.
func (c *Clipper) ClipURL(ctx context.Context, url string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "meal-planner/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch url: status %d", resp.StatusCode)
	}

	return c.Extract(ctx, url, resp.Body)
}

// Extract reads a recipe from an HTML document. Structured data is
// preferred, then known ingredient markup, then the LLM extractor.
func (c *Clipper) Extract(ctx context.Context, sourceURL string, r io.Reader) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	if rec, ok := fromJSONLD(doc); ok {
		rec.SourceID = sourceURL
		return &Result{Recipe: rec, Method: MethodJSONLD}, nil
	}

	title := pageTitle(doc)

	if lines := fromMarkup(doc); len(lines) > 0 {
		rec := recipe.Recipe{Name: title, SourceID: sourceURL}
		rec.Ingredients = parseLines(lines)
		return &Result{Recipe: rec, Method: MethodMarkup}, nil
	}

	if c.extractor == nil {
		return nil, ErrNoIngredients
	}

	doc.Find(noiseSelector).Remove()
	res, err := c.extractor.ExtractRecipe(ctx, recipe.PostData{
		SourceID:  sourceURL,
		Title:     title,
		UpdatedAt: time.Now().UTC(),
		HTML:      collapse(doc.Find("body").Text()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to extract recipe: %w", err)
	}
	if len(res.Recipe.Ingredients) == 0 {
		return nil, ErrNoIngredients
	}
	return &Result{Recipe: res.Recipe, Method: MethodLLM, Meta: res.Meta}, nil
}

func pageTitle(doc *goquery.Document) string {
	if t, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(t) != "" {
		return strings.TrimSpace(t)
	}
	if t := strings.TrimSpace(doc.Find("h1").First().Text()); t != "" {
		return t
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func fromMarkup(doc *goquery.Document) []string {
	for _, sel := range ingredientSelectors {
		var lines []string
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if text := collapse(s.Text()); text != "" {
				lines = append(lines, text)
			}
		})
		if len(lines) > 0 {
			return lines
		}
	}
	return nil
}

type ldRecipe struct {
	Type              any               `json:"@type"`
	Name              string            `json:"name"`
	RecipeIngredient  []string          `json:"recipeIngredient"`
	RecipeYield       any               `json:"recipeYield"`
	TotalTime         string            `json:"totalTime"`
	RecipeInstruction any               `json:"recipeInstructions"`
	Graph             []json.RawMessage `json:"@graph"`
}

// fromJSONLD looks for a schema.org Recipe in the page's ld+json blocks,
// including ones nested in an @graph or a top-level array.
func fromJSONLD(doc *goquery.Document) (recipe.Recipe, bool) {
	var found *ldRecipe
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		found = findLDRecipe([]byte(s.Text()))
		return found == nil
	})
	if found == nil || len(found.RecipeIngredient) == 0 {
		return recipe.Recipe{}, false
	}

	rec := recipe.Recipe{
		Name:         html.UnescapeString(strings.TrimSpace(found.Name)),
		Servings:     yieldServings(found.RecipeYield),
		CookTime:     found.TotalTime,
		Instructions: instructionsText(found.RecipeInstruction),
	}
	lines := make([]string, 0, len(found.RecipeIngredient))
	for _, l := range found.RecipeIngredient {
		lines = append(lines, html.UnescapeString(l))
	}
	rec.Ingredients = parseLines(lines)
	return rec, len(rec.Ingredients) > 0
}

func findLDRecipe(raw []byte) *ldRecipe {
	raw = []byte(strings.TrimSpace(string(raw)))
	if len(raw) == 0 {
		return nil
	}
	if raw[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil
		}
		for _, item := range items {
			if r := findLDRecipe(item); r != nil {
				return r
			}
		}
		return nil
	}

	var node ldRecipe
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil
	}
	if isRecipeType(node.Type) {
		return &node
	}
	for _, item := range node.Graph {
		if r := findLDRecipe(item); r != nil {
			return r
		}
	}
	return nil
}

func isRecipeType(t any) bool {
	switch v := t.(type) {
	case string:
		return v == "Recipe"
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s == "Recipe" {
				return true
			}
		}
	}
	return false
}

func yieldServings(y any) int {
	switch v := y.(type) {
	case float64:
		return int(v)
	case string:
		var n int
		fmt.Sscanf(strings.TrimSpace(v), "%d", &n)
		return n
	case []any:
		for _, item := range v {
			if n := yieldServings(item); n > 0 {
				return n
			}
		}
	}
	return 0
}

func instructionsText(in any) string {
	switch v := in.(type) {
	case string:
		return strings.TrimSpace(html.UnescapeString(v))
	case []any:
		var steps []string
		for _, item := range v {
			switch step := item.(type) {
			case string:
				steps = append(steps, strings.TrimSpace(step))
			case map[string]any:
				if text, ok := step["text"].(string); ok {
					steps = append(steps, strings.TrimSpace(html.UnescapeString(text)))
				}
			}
		}
		return strings.Join(steps, "\n")
	}
	return ""
}

func parseLines(lines []string) []recipe.IngredientLine {
	var out []recipe.IngredientLine
	for _, text := range lines {
		line := recipe.ParseIngredientLine(text)
		if line.Ingredient.Name == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ToHTML renders a recipe as a blog post body.
func ToHTML(rec recipe.Recipe, sourceURL string) string {
	var sb strings.Builder
	if sourceURL != "" {
		esc := html.EscapeString(sourceURL)
		fmt.Fprintf(&sb, "<p><i>Imported from: <a href=\"%s\">%s</a></i></p>", esc, esc)
	}

	sb.WriteString("<h2>Ingredients</h2><ul>")
	for _, line := range rec.Ingredients {
		fmt.Fprintf(&sb, "<li>%s</li>", html.EscapeString(line.String()))
	}
	sb.WriteString("</ul>")

	if rec.Instructions != "" {
		sb.WriteString("<h2>Instructions</h2><ol>")
		for _, step := range strings.Split(rec.Instructions, "\n") {
			if step = strings.TrimSpace(step); step != "" {
				fmt.Fprintf(&sb, "<li>%s</li>", html.EscapeString(step))
			}
		}
		sb.WriteString("</ol>")
	}

	if rec.CookTime != "" || rec.Servings > 0 {
		sb.WriteString("<hr>")
		fmt.Fprintf(&sb, "<p><strong>Cook Time:</strong> %s | <strong>Servings:</strong> %d</p>", html.EscapeString(rec.CookTime), rec.Servings)
	}

	return sb.String()
}
