package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	unitGrams       = "g"
	unitMillilitres = "ml"
	unitPieces      = "pcs"
)

// ingredientPattern matches "100g paneer", "2 eggs", "1.5 cups rice".
var ingredientPattern = regexp.MustCompile(`^(\d+(?:[.,]\d+)?)\s*(?:(kg|g|ml|l|cups?|tbsp|tsp|pcs|pc|pieces?)\b)?\s*(.+)$`)

// parseIngredient extracts name, quantity and unit from free text. Text
// without a leading number is one piece of the whole string.
func parseIngredient(text string) (name string, quantity float64, unit string) {
	text = strings.TrimSpace(text)
	matches := ingredientPattern.FindStringSubmatch(strings.ToLower(text))
	if matches == nil {
		return text, 1, unitPieces
	}
	qty, _ := strconv.ParseFloat(strings.Replace(matches[1], ",", ".", 1), 64)
	unit = matches[2]
	if unit == "" {
		unit = unitPieces
	}
	return strings.TrimSpace(matches[3]), qty, unit
}

func isLiquid(name string) bool {
	name = strings.ToLower(name)
	for _, w := range []string{"milk", "water", "juice", "stock", "broth", "oil"} {
		if strings.Contains(name, w) {
			return true
		}
	}
	return false
}

// toBaseUnit converts a quantity to grams, millilitres or pieces. A cup is
// 240 ml of a liquid and 150 g of anything else. Unknown units pass through.
func toBaseUnit(quantity float64, unit, name string) (float64, string) {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "g", "gram", "grams":
		return quantity, unitGrams
	case "kg":
		return quantity * 1000, unitGrams
	case "ml":
		return quantity, unitMillilitres
	case "l":
		return quantity * 1000, unitMillilitres
	case "cup", "cups":
		if isLiquid(name) {
			return quantity * 240, unitMillilitres
		}
		return quantity * 150, unitGrams
	case "tbsp":
		return quantity * 15, unitMillilitres
	case "tsp":
		return quantity * 5, unitMillilitres
	case "pcs", "pc", "piece", "pieces", "":
		return quantity, unitPieces
	default:
		return quantity, strings.ToLower(strings.TrimSpace(unit))
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
