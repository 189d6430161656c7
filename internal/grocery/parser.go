package grocery

import (
	"regexp"
	"strconv"
	"strings"
)

// ParsedIngredient is the structured form of one free-text ingredient line.
type ParsedIngredient struct {
	Amount float64
	Unit   string
	Name   string
}

// Canonical units the parser emits. Everything else is normalized onto these.
const (
	UnitCup   = "cup"
	UnitTbsp  = "tbsp"
	UnitTsp   = "tsp"
	UnitML    = "ml"
	UnitL     = "l"
	UnitG     = "g"
	UnitKG    = "kg"
	UnitLB    = "lb"
	UnitOZ    = "oz"
	UnitPiece = "piece"
	UnitBunch = "bunch"
	UnitHead  = "head"
	UnitClove = "clove"
	UnitCount = "count"
)

var unitSynonyms = map[string]string{
	"cup": UnitCup, "cups": UnitCup, "c": UnitCup,
	"tablespoon": UnitTbsp, "tablespoons": UnitTbsp, "tbsp": UnitTbsp, "tbsps": UnitTbsp, "tbs": UnitTbsp,
	"teaspoon": UnitTsp, "teaspoons": UnitTsp, "tsp": UnitTsp, "tsps": UnitTsp,
	"milliliter": UnitML, "milliliters": UnitML, "millilitre": UnitML, "millilitres": UnitML, "ml": UnitML,
	"liter": UnitL, "liters": UnitL, "litre": UnitL, "litres": UnitL, "l": UnitL,
	"gram": UnitG, "grams": UnitG, "g": UnitG, "gm": UnitG, "gms": UnitG, "gr": UnitG,
	"kilogram": UnitKG, "kilograms": UnitKG, "kg": UnitKG, "kgs": UnitKG,
	"pound": UnitLB, "pounds": UnitLB, "lb": UnitLB, "lbs": UnitLB,
	"ounce": UnitOZ, "ounces": UnitOZ, "oz": UnitOZ,
	"piece": UnitPiece, "pieces": UnitPiece, "pc": UnitPiece, "pcs": UnitPiece,
	"bunch": UnitBunch, "bunches": UnitBunch,
	"head": UnitHead, "heads": UnitHead,
	"clove": UnitClove, "cloves": UnitClove,
}

// Phrases that mean "no discrete quantity". Lines matching these are skipped
// entirely; they never reach the grocery list.
var noQuantityPhrases = []string{
	"to taste", "as needed", "as required", "pinch", "a pinch",
	"for garnish", "garnish", "optional", "a dash", "dash of",
}

var amountRe = regexp.MustCompile(`^(\d+\s+\d+/\d+|\d+/\d+|\d*\.\d+|\d+)\s*(.*)$`)

// ParseIngredient parses a free-text ingredient line into amount, unit and
// name. It returns nil for phrases that carry no discrete quantity.
//
// Recognized grammars, in order:
//
//	<number|fraction> <unit> <name>
//	<number> <name>          (unit inferred as count or grams)
//	<name>                   (category-based default quantity)
func ParseIngredient(text string) *ParsedIngredient {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return nil
	}
	for _, phrase := range noQuantityPhrases {
		if strings.Contains(s, phrase) {
			return nil
		}
	}

	if m := amountRe.FindStringSubmatch(s); m != nil {
		amount, ok := parseAmount(m[1])
		rest := strings.TrimSpace(m[2])
		if ok && rest != "" {
			if unit, name, found := splitUnit(rest); found {
				if name == "" {
					return nil
				}
				return &ParsedIngredient{Amount: amount, Unit: unit, Name: name}
			}
			return &ParsedIngredient{Amount: amount, Unit: inferBareUnit(amount, rest), Name: rest}
		}
	}

	return defaultQuantity(s)
}

// parseAmount accepts decimals, fractions and mixed numbers ("1 1/2").
func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if whole, frac, ok := strings.Cut(s, " "); ok {
		w, wok := parseAmount(whole)
		f, fok := parseAmount(frac)
		if wok && fok {
			return w + f, true
		}
		return 0, false
	}
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, errN := strconv.ParseFloat(num, 64)
		d, errD := strconv.ParseFloat(den, 64)
		if errN != nil || errD != nil || d == 0 {
			return 0, false
		}
		return n / d, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// splitUnit detects a leading unit word (plus an optional "of") in rest.
func splitUnit(rest string) (unit, name string, found bool) {
	word, tail, _ := strings.Cut(rest, " ")
	canonical, ok := unitSynonyms[strings.TrimSuffix(word, ".")]
	if !ok {
		return "", "", false
	}
	tail = strings.TrimSpace(strings.TrimPrefix(tail, "of "))
	return canonical, tail, true
}

// inferBareUnit decides between count and grams for "<number> <name>" lines.
// Small whole numbers with a digit-free name read as discrete items
// ("2 eggs"); anything else reads as grams ("250 chicken breast").
func inferBareUnit(amount float64, name string) string {
	if amount == float64(int(amount)) && amount >= 1 && amount <= 20 && !strings.ContainsAny(name, "0123456789") {
		return UnitCount
	}
	return UnitG
}

// defaultQuantity assigns a category-based amount to name-only lines.
func defaultQuantity(name string) *ParsedIngredient {
	switch {
	case matchesAny(name, spiceKeywords):
		return &ParsedIngredient{Amount: 1, Unit: UnitTsp, Name: name}
	case matchesAny(name, seedKeywords):
		return &ParsedIngredient{Amount: 1, Unit: UnitTbsp, Name: name}
	case matchesAny(name, grainLegumeKeywords):
		return &ParsedIngredient{Amount: 1, Unit: UnitCup, Name: name}
	case matchesAny(name, produceKeywords):
		return &ParsedIngredient{Amount: 200, Unit: UnitG, Name: name}
	}
	return &ParsedIngredient{Amount: 100, Unit: UnitG, Name: name}
}

func matchesAny(name string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(name, k) {
			return true
		}
	}
	return false
}
