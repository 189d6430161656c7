package grocery

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"mealplan-engine/internal/plan"
)

// AggregatedIngredient is one grouped, unit-normalized grocery entry. Built
// fresh on every aggregation pass and never mutated in place.
type AggregatedIngredient struct {
	CanonicalName   string
	TotalBaseAmount float64
	BaseUnit        string
}

// Plain-water and friends never appear on a shopping list. Quantity-less
// phrases ("to taste") are already dropped by the parser.
var excludedNames = []string{
	"water", "warm water", "cold water", "hot water", "lukewarm water",
	"boiling water", "ice", "ice cubes",
}

// Aggregate walks every meal and snack ingredient across all days and
// re-derives the canonical grocery list. The pass is idempotent: it reads
// only meal content, never the existing grocery list, so re-running it after
// a repair round cannot drift.
func Aggregate(p *plan.MealPlan) map[string][]string {
	groups := make(map[string]*AggregatedIngredient)
	var order []string

	for _, day := range p.Days {
		for _, meal := range day.Meals.All() {
			for _, line := range meal.Ingredients {
				parsed := ParseIngredient(line)
				if parsed == nil {
					continue
				}
				if isExcluded(parsed.Name) {
					continue
				}
				applyCookedToDry(parsed)
				amount, baseUnit := toBase(parsed)

				name := NormalizeName(parsed.Name)
				key := baseUnit + "|" + name
				if g, ok := groups[key]; ok {
					g.TotalBaseAmount += amount
				} else {
					groups[key] = &AggregatedIngredient{
						CanonicalName:   name,
						TotalBaseAmount: amount,
						BaseUnit:        baseUnit,
					}
					order = append(order, key)
				}
			}
		}
	}

	merged := mergeNearDuplicates(groups, order)

	out := make(map[string][]string)
	for _, g := range merged {
		category := CategoryOf(g.CanonicalName)
		out[category] = append(out[category], Render(g))
	}
	for _, items := range out {
		sort.Strings(items)
	}
	return out
}

func isExcluded(name string) bool {
	n := NormalizeName(name)
	for _, ex := range excludedNames {
		if n == ex {
			return true
		}
	}
	return false
}

// mergeNearDuplicates folds entries whose core name is a substring of a more
// specific one in the same category and base unit ("onion" into "red onion"),
// keeping the longer label.
func mergeNearDuplicates(groups map[string]*AggregatedIngredient, order []string) []*AggregatedIngredient {
	absorbed := make(map[string]bool)
	for _, shortKey := range order {
		short := groups[shortKey]
		if absorbed[shortKey] {
			continue
		}
		for _, longKey := range order {
			if shortKey == longKey || absorbed[longKey] {
				continue
			}
			long := groups[longKey]
			if short.BaseUnit != long.BaseUnit {
				continue
			}
			if CategoryOf(short.CanonicalName) != CategoryOf(long.CanonicalName) {
				continue
			}
			shortCore := CoreName(short.CanonicalName)
			longCore := CoreName(long.CanonicalName)
			if shortCore == "" || shortCore == longCore {
				continue
			}
			if len(longCore) > len(shortCore) && strings.Contains(" "+longCore+" ", " "+shortCore+" ") {
				long.TotalBaseAmount += short.TotalBaseAmount
				absorbed[shortKey] = true
				break
			}
		}
	}

	out := make([]*AggregatedIngredient, 0, len(order))
	for _, key := range order {
		if !absorbed[key] {
			out = append(out, groups[key])
		}
	}
	return out
}

// Render turns an aggregated group back into a shopping-friendly string.
func Render(g *AggregatedIngredient) string {
	switch g.BaseUnit {
	case BaseCount:
		return fmt.Sprintf("%d %s", int(math.Ceil(g.TotalBaseAmount)), g.CanonicalName)
	case BaseML:
		return renderVolume(g.TotalBaseAmount, g.CanonicalName)
	default:
		return renderMass(g.TotalBaseAmount, g.CanonicalName)
	}
}

// renderVolume greedily decomposes milliliters into cups, tbsp and tsp.
// Amounts below one teaspoon render as raw milliliters.
func renderVolume(ml float64, name string) string {
	if ml < 5 {
		return fmt.Sprintf("%d ml %s", int(math.Ceil(ml)), name)
	}

	cups := int(ml / 240)
	rem := ml - float64(cups)*240
	tbsp := int(rem / 15)
	rem -= float64(tbsp) * 15
	tsp := int(math.Round(rem / 5))
	// Carry rounding overflow upward so "3 tsp" never appears.
	if tsp >= 3 {
		tbsp++
		tsp = 0
	}
	if tbsp >= 16 {
		cups++
		tbsp -= 16
	}

	var parts []string
	if cups > 0 {
		unit := "cup"
		if cups > 1 {
			unit = "cups"
		}
		parts = append(parts, fmt.Sprintf("%d %s", cups, unit))
	}
	if tbsp > 0 {
		parts = append(parts, fmt.Sprintf("%d tbsp", tbsp))
	}
	if tsp > 0 {
		parts = append(parts, fmt.Sprintf("%d tsp", tsp))
	}
	if len(parts) == 0 {
		parts = append(parts, "1 tsp")
	}
	return strings.Join(parts, " ") + " " + name
}

// renderMass renders grams as kg+g above a kilogram, as "1 packet" for
// sub-tablespoon spice quantities, and otherwise rounded up to 10 g.
func renderMass(grams float64, name string) string {
	if grams >= 1000 {
		kg := int(grams / 1000)
		rem := int(math.Ceil((grams - float64(kg)*1000) / 10)) * 10
		// Rounding can push the remainder to a full kilogram.
		if rem >= 1000 {
			kg++
			rem = 0
		}
		if rem == 0 {
			return fmt.Sprintf("%d kg %s", kg, name)
		}
		return fmt.Sprintf("%d kg %d g %s", kg, rem, name)
	}
	if grams < 15 && IsSpiceOrPowder(name) {
		return fmt.Sprintf("1 packet %s", name)
	}
	rounded := int(math.Ceil(grams/10)) * 10
	if rounded == 0 {
		rounded = 10
	}
	return fmt.Sprintf("%d g %s", rounded, name)
}
