// Package quantity converts ingredient quantities between their decimal value
// and the fraction text a shopper reads ("1/2", "1 1/2").
package quantity

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Tolerance is how far a value may sit from a common fraction and still be
// rendered as that fraction.
const Tolerance = 0.01

type commonFraction struct {
	value float64
	text  string
}

var commonFractions = []commonFraction{
	{0.25, "1/4"},
	{1.0 / 3, "1/3"},
	{0.5, "1/2"},
	{2.0 / 3, "2/3"},
	{0.75, "3/4"},
}

var vulgarFractions = map[rune]string{
	'¼': "1/4",
	'½': "1/2",
	'¾': "3/4",
	'⅓': "1/3",
	'⅔': "2/3",
	'⅛': "1/8",
	'⅜': "3/8",
	'⅝': "5/8",
	'⅞': "7/8",
}

// Parse returns the decimal value of a plain number ("2", "0.5"), a simple
// fraction ("1/2") or a mixed number ("1 1/2"). Empty or unparseable text
// yields 0.
func Parse(text string) float64 {
	v, _ := ParseStrict(text)
	return v
}

// ParseStrict is Parse that also reports whether the text was understood.
// Negative, non-finite and zero-denominator values are rejected.
func ParseStrict(text string) (float64, bool) {
	s := expandVulgar(strings.TrimSpace(text))
	fields := strings.Fields(s)

	switch len(fields) {
	case 1:
		return parseTerm(fields[0])
	case 2:
		if strings.Contains(fields[0], "/") || !strings.Contains(fields[1], "/") {
			return 0, false
		}
		whole, ok := parseNumber(fields[0])
		if !ok {
			return 0, false
		}
		frac, ok := parseFraction(fields[1])
		if !ok {
			return 0, false
		}
		return whole + frac, true
	default:
		return 0, false
	}
}

func parseTerm(s string) (float64, bool) {
	if strings.Contains(s, "/") {
		return parseFraction(s)
	}
	return parseNumber(s)
}

func parseFraction(s string) (float64, bool) {
	num, den, found := strings.Cut(s, "/")
	if !found {
		return 0, false
	}
	n, ok := parseNumber(num)
	if !ok {
		return 0, false
	}
	d, ok := parseNumber(den)
	if !ok || d == 0 {
		return 0, false
	}
	return n / d, true
}

// parseNumber accepts digits with at most one decimal point. Signs,
// exponents and hex floats are not quantities.
func parseNumber(s string) (float64, bool) {
	if s == "" || s == "." || strings.Count(s, ".") > 1 ||
		strings.ContainsFunc(s, func(r rune) bool { return r != '.' && (r < '0' || r > '9') }) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

// expandVulgar rewrites unicode fraction glyphs so "1½" reads as "1 1/2".
func expandVulgar(s string) string {
	if !strings.ContainsFunc(s, func(r rune) bool { _, ok := vulgarFractions[r]; return ok }) {
		return s
	}

	var sb strings.Builder
	var prev rune
	for _, r := range s {
		if text, ok := vulgarFractions[r]; ok {
			if unicode.IsDigit(prev) {
				sb.WriteByte(' ')
			}
			sb.WriteString(text)
		} else {
			sb.WriteRune(r)
		}
		prev = r
	}
	return sb.String()
}

// Format renders v for display. Whole numbers print as integers, values near
// a quarter, third or half print as fractions, mixed numbers as
// "<whole> <fraction>", and anything else as a decimal rounded to two places.
// Negative and non-finite values print as "0", positive values too small to
// show as "<0.01".
func Format(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return "0"
	}
	if v < Tolerance {
		return "<0.01"
	}

	whole := math.Floor(v)
	frac := v - whole
	switch {
	case frac < Tolerance:
		return formatWhole(whole)
	case 1-frac < Tolerance:
		return formatWhole(whole + 1)
	}

	text, ok := formatFraction(frac)
	if !ok {
		return formatDecimal(v)
	}
	if whole == 0 {
		return text
	}
	return formatWhole(whole) + " " + text
}

// FormatWithUnit renders a quantity followed by its unit, e.g. "1 1/2 cup".
func FormatWithUnit(v float64, unit string) string {
	return strings.TrimSpace(Format(v) + " " + unit)
}

func formatFraction(frac float64) (string, bool) {
	for _, cf := range commonFractions {
		if math.Abs(frac-cf.value) < Tolerance {
			return cf.text, true
		}
	}
	return "", false
}

func formatWhole(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatDecimal(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
