package quantity

import "strings"

// unitAliases folds spelling variants of one unit onto a canonical form.
// Count words ("each", "whole") mean "no unit".
var unitAliases = map[string]string{
	"cup":         "cup",
	"cups":        "cup",
	"c":           "cup",
	"tbsp":        "tbsp",
	"tbsps":       "tbsp",
	"tbs":         "tbsp",
	"tablespoon":  "tbsp",
	"tablespoons": "tbsp",
	"tsp":         "tsp",
	"tsps":        "tsp",
	"teaspoon":    "tsp",
	"teaspoons":   "tsp",
	"oz":          "oz",
	"ounce":       "oz",
	"ounces":      "oz",
	"fl oz":       "fl oz",
	"lb":          "lb",
	"lbs":         "lb",
	"pound":       "lb",
	"pounds":      "lb",
	"g":           "g",
	"gram":        "g",
	"grams":       "g",
	"kg":          "kg",
	"kilogram":    "kg",
	"kilograms":   "kg",
	"ml":          "ml",
	"milliliter":  "ml",
	"milliliters": "ml",
	"l":           "l",
	"liter":       "l",
	"liters":      "l",
	"pinch":       "pinch",
	"pinches":     "pinch",
	"dash":        "dash",
	"dashes":      "dash",
	"clove":       "clove",
	"cloves":      "clove",
	"slice":       "slice",
	"slices":      "slice",
	"can":         "can",
	"cans":        "can",
	"jar":         "jar",
	"jars":        "jar",
	"bag":         "bag",
	"bags":        "bag",
	"package":     "package",
	"packages":    "package",
	"pkg":         "package",
	"bunch":       "bunch",
	"bunches":     "bunch",
	"stick":       "stick",
	"sticks":      "stick",
	"head":        "head",
	"heads":       "head",
	"bottle":      "bottle",
	"bottles":     "bottle",
	"each":        "",
	"whole":       "",
	"unit":        "",
	"units":       "",
}

// NormalizeUnit lower-cases and trims a unit and folds known variants
// ("Cups" becomes "cup"). Unknown units are returned cleaned but otherwise
// unchanged. Different units are never converted into each other.
func NormalizeUnit(unit string) string {
	u := strings.ToLower(strings.Join(strings.Fields(unit), " "))
	u = strings.TrimSuffix(u, ".")
	if canonical, ok := unitAliases[u]; ok {
		return canonical
	}
	return u
}

// IsUnit reports whether word is a recognised unit of measure.
func IsUnit(word string) bool {
	u := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(word)), ".")
	canonical, ok := unitAliases[u]
	return ok && canonical != ""
}
