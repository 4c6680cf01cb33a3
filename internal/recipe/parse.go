package recipe

import (
	"strings"

	"meal-planner/internal/quantity"
)

var sizeWords = map[string]bool{
	"small":       true,
	"medium":      true,
	"large":       true,
	"extra-large": true,
	"jumbo":       true,
}

var descriptorWords = map[string]bool{
	"chopped":  true,
	"diced":    true,
	"minced":   true,
	"sliced":   true,
	"grated":   true,
	"shredded": true,
	"crushed":  true,
	"ground":   true,
	"fresh":    true,
	"frozen":   true,
	"dried":    true,
	"melted":   true,
	"softened": true,
	"cooked":   true,
	"canned":   true,
	"packed":   true,
}

// ParseIngredientLine splits free text such as "1 1/2 cups flour, sifted"
// into quantity, unit, size, descriptors and ingredient name. Text after the
// first comma becomes the additional descriptor. A line without a leading
// quantity keeps an empty Quantity.
func ParseIngredientLine(text string) IngredientLine {
	var line IngredientLine

	s := strings.TrimSpace(text)
	s = strings.TrimLeft(s, "-*•· \t")

	if head, rest, found := strings.Cut(s, ","); found {
		s = head
		line.AdditionalDescriptor = strings.TrimSpace(rest)
	}

	if open := strings.Index(s, "("); open >= 0 {
		if end := strings.Index(s[open:], ")"); end > 0 {
			line.Size = strings.TrimSpace(s[open+1 : open+end])
			s = s[:open] + " " + s[open+end+1:]
		}
	}

	tokens := strings.Fields(s)
	tokens, line.Quantity = takeQuantity(tokens)

	switch {
	case len(tokens) > 2 && quantity.IsUnit(tokens[0]+" "+tokens[1]):
		line.Unit = tokens[0] + " " + strings.TrimSuffix(tokens[1], ".")
		tokens = tokens[2:]
	case len(tokens) > 1 && quantity.IsUnit(tokens[0]):
		line.Unit = strings.TrimSuffix(tokens[0], ".")
		tokens = tokens[1:]
	}
	if len(tokens) > 1 && strings.EqualFold(tokens[0], "of") {
		tokens = tokens[1:]
	}

	var descriptors []string
	for len(tokens) > 1 {
		word := strings.ToLower(tokens[0])
		if sizeWords[word] && line.Size == "" {
			line.Size = word
		} else if descriptorWords[word] {
			descriptors = append(descriptors, word)
		} else {
			break
		}
		tokens = tokens[1:]
	}

	line.Descriptor = strings.Join(descriptors, " ")
	line.Ingredient.Name = strings.Join(tokens, " ")
	return line
}

// takeQuantity consumes a leading number, fraction or mixed number.
func takeQuantity(tokens []string) ([]string, string) {
	if len(tokens) >= 2 {
		candidate := tokens[0] + " " + tokens[1]
		if _, ok := quantity.ParseStrict(candidate); ok {
			return tokens[2:], candidate
		}
	}
	if len(tokens) >= 1 {
		if _, ok := quantity.ParseStrict(tokens[0]); ok {
			return tokens[1:], tokens[0]
		}
	}
	return tokens, ""
}
