package grocery

import "strings"

// Base units every quantity converts to before summing.
const (
	BaseML    = "ml"
	BaseG     = "g"
	BaseCount = "count"
)

// Volume-to-milliliter factors.
var volumeToML = map[string]float64{
	UnitCup:  240,
	UnitTbsp: 15,
	UnitTsp:  5,
	UnitL:    1000,
	UnitML:   1,
	UnitOZ:   30,
}

// Mass-to-gram factors.
var massToG = map[string]float64{
	UnitG:  1,
	UnitKG: 1000,
	UnitLB: 454,
}

// cupToGram overrides the generic cup→ml path for dry goods that shop by
// weight. Keyed by ingredient keyword, value is grams per cup.
var cupToGram = map[string]float64{
	"flour":    120,
	"semolina": 167,
	"rice":     200,
	"sugar":    200,
	"oats":     90,
	"quinoa":   170,
}

// cookedToDry scales a "cooked" quantity back to the dry-goods amount a
// grocery list must carry. Keyed by grain/legume keyword.
var cookedToDry = map[string]float64{
	"rice":     0.5,
	"quinoa":   0.33,
	"lentil":   0.33,
	"chickpea": 0.33,
	"bean":     0.33,
}

var prepDescriptors = []string{
	"chopped", "diced", "minced", "sliced", "grated", "shredded", "crushed",
	"finely", "roughly", "thinly", "freshly", "fresh", "frozen", "boiled",
	"steamed", "roasted", "toasted", "peeled", "cubed", "julienned", "ground",
	"ripe", "large", "medium", "small", "raw", "dried", "dry", "whole",
	"boneless", "skinless", "lean", "low-fat", "unsalted", "organic",
}

// NormalizeName lower-cases and collapses whitespace. This is the grouping
// key for aggregation.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// StripDescriptors removes prep adjectives so "finely chopped red onion" and
// "red onion" group and match as the same ingredient.
func StripDescriptors(name string) string {
	words := strings.Fields(strings.ToLower(name))
	out := words[:0]
	for _, w := range words {
		w = strings.Trim(w, ",")
		skip := false
		for _, d := range prepDescriptors {
			if w == d {
				skip = true
				break
			}
		}
		if !skip && w != "" {
			out = append(out, w)
		}
	}
	return strings.Join(out, " ")
}

// CoreName strips prep descriptors and the cooked/dry qualifiers, yielding
// the name the grocery-completeness check matches on.
func CoreName(name string) string {
	s := StripDescriptors(name)
	s = strings.ReplaceAll(s, "cooked ", "")
	s = strings.TrimPrefix(s, "cooked")
	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}

// applyCookedToDry strips a "cooked" qualifier on grains/legumes and scales
// the amount by the cooked→dry ratio. Amounts stay untouched for everything
// else.
func applyCookedToDry(p *ParsedIngredient) {
	name := NormalizeName(p.Name)
	if !strings.Contains(name, "cooked") {
		return
	}
	for keyword, ratio := range cookedToDry {
		if strings.Contains(name, keyword) {
			p.Amount *= ratio
			p.Name = strings.TrimSpace(strings.Join(strings.Fields(strings.ReplaceAll(name, "cooked", "")), " "))
			return
		}
	}
}

// toBase converts a parsed quantity to (amount, base unit). Dry goods
// measured in cups convert straight to grams via their ingredient-specific
// factor instead of the generic volume path.
func toBase(p *ParsedIngredient) (float64, string) {
	name := NormalizeName(p.Name)

	if p.Unit == UnitCup {
		for keyword, gramsPerCup := range cupToGram {
			if strings.Contains(name, keyword) {
				return p.Amount * gramsPerCup, BaseG
			}
		}
	}

	if factor, ok := volumeToML[p.Unit]; ok {
		return p.Amount * factor, BaseML
	}
	if factor, ok := massToG[p.Unit]; ok {
		return p.Amount * factor, BaseG
	}
	// piece, bunch, head, clove and bare counts all shop as discrete items.
	return p.Amount, BaseCount
}
