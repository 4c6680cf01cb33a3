package grocery

import (
	"context"
	"strings"
	"testing"

	"meal-planner/internal/recipe"

	"github.com/stretchr/testify/assert"
)

func TestMarkdown(t *testing.T) {
	list := NewGenerator(tacoNight(), nil, 0).Generate(context.Background(), tacoPlan(), 0)
	list.StoreName = "Grocer"
	list.Warnings = append(list.Warnings, recipe.Warning{Message: "recipe 77 not found"})

	md := Markdown(list)

	assert.True(t, strings.HasPrefix(md, "# Grocery list: Taco week\n"))
	assert.Contains(t, md, "_Store: Grocer_")
	assert.Contains(t, md, "## Uncategorized")
	assert.Contains(t, md, "- [ ] Cheese: 3 cup\n")
	assert.Contains(t, md, "- [ ] Tomato: 1 1/2\n")
	assert.Contains(t, md, "- [ ] Salt: 1 1/2 tsp\n")
	assert.Contains(t, md, "## Warnings\n\n- recipe 77 not found\n")
}

func TestMarkdown_Empty(t *testing.T) {
	md := Markdown(&List{PlanID: 3})
	assert.Contains(t, md, "# Grocery list: Plan 3")
	assert.Contains(t, md, "Nothing to buy.")
}

func TestPlainText(t *testing.T) {
	list := NewGenerator(tacoNight(), nil, 0).Generate(context.Background(), tacoPlan(), 0)
	text := PlainText(list)

	assert.Contains(t, text, "Taco week")
	assert.Contains(t, text, "UNCATEGORIZED")
	assert.Contains(t, text, "• Cheese: 3 cup")
	assert.NotContains(t, text, "warning")
}

func TestHTML(t *testing.T) {
	list := NewGenerator(tacoNight(), nil, 0).Generate(context.Background(), tacoPlan(), 0)
	list.StoreName = "Fish & Chips"

	out := HTML(list)

	assert.Contains(t, out, "<p><i>Store: Fish &amp; Chips</i></p>")
	assert.Contains(t, out, "<h2>Uncategorized</h2><ul>")
	assert.Contains(t, out, "<li>Cheese: 3 cup</li>")
}
