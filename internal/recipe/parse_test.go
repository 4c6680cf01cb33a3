package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIngredientLine(t *testing.T) {
	tests := []struct {
		in   string
		want IngredientLine
	}{
		{
			in:   "1 1/2 cups flour, sifted",
			want: IngredientLine{Quantity: "1 1/2", Unit: "cups", AdditionalDescriptor: "sifted", Ingredient: Ingredient{Name: "flour"}},
		},
		{
			in:   "2 large eggs",
			want: IngredientLine{Quantity: "2", Size: "large", Ingredient: Ingredient{Name: "eggs"}},
		},
		{
			in:   "1 (15 oz) can black beans, drained",
			want: IngredientLine{Quantity: "1", Size: "15 oz", Unit: "can", AdditionalDescriptor: "drained", Ingredient: Ingredient{Name: "black beans"}},
		},
		{
			in:   "- 1/4 cup chopped fresh cilantro",
			want: IngredientLine{Quantity: "1/4", Unit: "cup", Descriptor: "chopped fresh", Ingredient: Ingredient{Name: "cilantro"}},
		},
		{
			in:   "½ tsp. of salt",
			want: IngredientLine{Quantity: "½", Unit: "tsp", Ingredient: Ingredient{Name: "salt"}},
		},
		{
			in:   "Salt and pepper to taste",
			want: IngredientLine{Ingredient: Ingredient{Name: "Salt and pepper to taste"}},
		},
		{
			in:   "8 fl oz milk",
			want: IngredientLine{Quantity: "8", Unit: "fl oz", Ingredient: Ingredient{Name: "milk"}},
		},
		{
			in:   "1 oz cheese",
			want: IngredientLine{Quantity: "1", Unit: "oz", Ingredient: Ingredient{Name: "cheese"}},
		},
		{
			in:   "3 cups",
			want: IngredientLine{Quantity: "3", Ingredient: Ingredient{Name: "cups"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseIngredientLine(tt.in))
		})
	}
}

func TestIngredientLine_String(t *testing.T) {
	for _, in := range []string{
		"1 1/2 cup flour, sifted",
		"2 large eggs",
		"1/4 cup chopped fresh cilantro",
		"Salt and pepper to taste",
	} {
		t.Run(in, func(t *testing.T) {
			line := ParseIngredientLine(in)
			assert.Equal(t, in, line.String())
			assert.Equal(t, line, ParseIngredientLine(line.String()))
		})
	}
}
