package clipper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"meal-planner/internal/llm"
	"meal-planner/internal/recipe"
	"meal-planner/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockTextGenerator struct {
	response   string
	err        error
	lastPrompt string
}

func (m *mockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.lastPrompt = prompt
	if m.err != nil {
		return llm.ContentResponse{}, m.err
	}
	return llm.ContentResponse{Content: m.response, Usage: shared.TokenUsage{PromptTokens: 10, CompletionTokens: 5}}, nil
}

const jsonLDPage = `<html><head>
<script type="application/ld+json">
{"@context": "https://schema.org", "@graph": [
  {"@type": "WebPage", "name": "Blog"},
  {"@type": ["Recipe"], "name": "Pico de Gallo", "recipeYield": ["4", "4 servings"],
   "totalTime": "PT15M",
   "recipeIngredient": ["2 medium tomatoes, diced", "1/2 cup chopped onion", "1 tsp salt"],
   "recipeInstructions": [{"@type": "HowToStep", "text": "Chop."}, {"@type": "HowToStep", "text": "Mix."}]}
]}
</script></head><body><h1>Ignored</h1></body></html>`

const markupPage = `<html><head><meta property="og:title" content="Simple Nachos"></head>
<body>
<h1>Nachos</h1>
<ul class="ingredients">
  <li>1   bag tortilla chips</li>
  <li>1 cup shredded cheese</li>
  <li>  </li>
</ul>
</body></html>`

const plainPage = `<html><head><title>Grandma's Soup</title><script>track()</script></head>
<body><nav>Home</nav><p>Boil 2 carrots with water.</p><footer>Copyright</footer></body></html>`

func TestExtract(t *testing.T) {
	ctx := context.Background()

	t.Run("JSONLD", func(t *testing.T) {
		res, err := NewClipper(nil).Extract(ctx, "https://example.com/pico", strings.NewReader(jsonLDPage))
		require.NoError(t, err)

		assert.Equal(t, MethodJSONLD, res.Method)
		assert.Equal(t, "Pico de Gallo", res.Recipe.Name)
		assert.Equal(t, 4, res.Recipe.Servings)
		assert.Equal(t, "PT15M", res.Recipe.CookTime)
		assert.Equal(t, "Chop.\nMix.", res.Recipe.Instructions)
		assert.Equal(t, "https://example.com/pico", res.Recipe.SourceID)
		require.Len(t, res.Recipe.Ingredients, 3)
		assert.Equal(t, "tomatoes", res.Recipe.Ingredients[0].Ingredient.Name)
		assert.Equal(t, "medium", res.Recipe.Ingredients[0].Size)
		assert.Equal(t, "1/2", res.Recipe.Ingredients[1].Quantity)
		assert.Equal(t, "cup", res.Recipe.Ingredients[1].Unit)
	})

	t.Run("Markup", func(t *testing.T) {
		res, err := NewClipper(nil).Extract(ctx, "https://example.com/nachos", strings.NewReader(markupPage))
		require.NoError(t, err)

		assert.Equal(t, MethodMarkup, res.Method)
		assert.Equal(t, "Simple Nachos", res.Recipe.Name)
		require.Len(t, res.Recipe.Ingredients, 2)
		assert.Equal(t, "bag", res.Recipe.Ingredients[0].Unit)
		assert.Equal(t, "tortilla chips", res.Recipe.Ingredients[0].Ingredient.Name)
		assert.Equal(t, "shredded", res.Recipe.Ingredients[1].Descriptor)
	})

	t.Run("LLMFallback", func(t *testing.T) {
		gen := &mockTextGenerator{response: `{"name": "", "servings": 2, "ingredients": ["2 carrots", "4 cups water"]}`}
		c := NewClipper(recipe.NewExtractor(gen))

		res, err := c.Extract(ctx, "https://example.com/soup", strings.NewReader(plainPage))
		require.NoError(t, err)

		assert.Equal(t, MethodLLM, res.Method)
		assert.Equal(t, "Grandma's Soup", res.Recipe.Name)
		assert.Len(t, res.Recipe.Ingredients, 2)
		assert.Equal(t, "Extractor", res.Meta.AgentName)

		assert.Contains(t, gen.lastPrompt, "Boil 2 carrots")
		assert.NotContains(t, gen.lastPrompt, "track()")
		assert.NotContains(t, gen.lastPrompt, "Copyright")
	})

	t.Run("NoExtractor", func(t *testing.T) {
		_, err := NewClipper(nil).Extract(ctx, "", strings.NewReader(plainPage))
		assert.ErrorIs(t, err, ErrNoIngredients)
	})

	t.Run("ExtractorError", func(t *testing.T) {
		c := NewClipper(recipe.NewExtractor(&mockTextGenerator{err: errors.New("quota")}))
		_, err := c.Extract(ctx, "", strings.NewReader(plainPage))
		assert.ErrorContains(t, err, "quota")
	})
}

func TestClipURL(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(markupPage))
		}))
		defer ts.Close()

		res, err := NewClipper(nil).ClipURL(context.Background(), ts.URL)
		require.NoError(t, err)
		assert.Equal(t, ts.URL, res.Recipe.SourceID)
		assert.Len(t, res.Recipe.Ingredients, 2)
	})

	t.Run("NotFound", func(t *testing.T) {
		ts := httptest.NewServer(http.NotFoundHandler())
		defer ts.Close()

		_, err := NewClipper(nil).ClipURL(context.Background(), ts.URL)
		assert.ErrorContains(t, err, "status 404")
	})
}

func TestToHTML(t *testing.T) {
	rec := recipe.Recipe{
		Name:         "Pancakes",
		Servings:     2,
		CookTime:     "10m",
		Instructions: "Mix\nFry",
		Ingredients: []recipe.IngredientLine{
			recipe.ParseIngredientLine("1 cup flour"),
			recipe.ParseIngredientLine("milk & butter"),
		},
	}

	out := ToHTML(rec, "http://test.com")

	for _, sub := range []string{
		`Imported from: <a href="http://test.com">http://test.com</a>`,
		"<li>1 cup flour</li>",
		"<li>milk &amp; butter</li>",
		"<li>Fry</li>",
		"<strong>Cook Time:</strong> 10m",
	} {
		assert.Contains(t, out, sub)
	}
}
