package validate

import (
	"fmt"
	"regexp"
	"strings"

	"mealplan-engine/internal/grocery"
	"mealplan-engine/internal/plan"
)

// Kitchen staples whose absence from a grocery list is never flagged.
var stapleExemptions = []string{
	"salt", "black pepper", "pepper", "water", "ice", "oil", "cooking spray",
}

// Grocery entries lead with quantity tokens ("2 cups", "450 g", "1 packet").
// leadingQuantityRe strips them so the ingredient name remains.
var leadingQuantityRe = regexp.MustCompile(`^((\d+(\.\d+)?|\d+/\d+)\s*(kg|g|ml|l|cups?|tbsp|tsp|oz|lb|packets?|pieces?|bunche?s?|heads?|cloves?)?\s*)+`)

// groceryItemName strips the leading quantity decomposition from a rendered
// grocery entry.
func groceryItemName(item string) string {
	name := leadingQuantityRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(item)), "")
	return grocery.CoreName(name)
}

// checkGroceryList runs the grocery-side rules: completeness against the
// meals' ingredients, category correctness, and duplicate detection.
func checkGroceryList(p *plan.MealPlan) []Violation {
	var out []Violation

	listed := make([]string, 0, 16)
	for _, items := range p.GroceryList {
		for _, item := range items {
			if name := groceryItemName(item); name != "" {
				listed = append(listed, name)
			}
		}
	}

	// Completeness: every distinct meal ingredient must fuzzy-match a list
	// entry on its core name.
	seen := make(map[string]bool)
	for i, day := range p.Days {
		for _, meal := range day.Meals.All() {
			for _, line := range meal.Ingredients {
				parsed := grocery.ParseIngredient(line)
				if parsed == nil {
					continue
				}
				core := grocery.CoreName(parsed.Name)
				if core == "" || seen[core] || isStaple(core) {
					continue
				}
				seen[core] = true
				if !matchesAnyListed(core, listed) {
					out = append(out, Violation{
						Severity:     SeverityCritical,
						Code:         CodeMissingGroceryItem,
						Message:      fmt.Sprintf("ingredient %q has no grocery list entry", core),
						FieldPath:    fmt.Sprintf("grocery_list (first used in days[%d])", i),
						SuggestedFix: fmt.Sprintf("add %q to the grocery list", core),
					})
				}
			}
		}
	}

	out = append(out, checkGroceryCategories(p)...)
	out = append(out, checkGroceryDuplicates(p)...)
	return out
}

func isStaple(core string) bool {
	for _, s := range stapleExemptions {
		if core == s {
			return true
		}
	}
	return false
}

// matchesAnyListed fuzzy-matches a core ingredient name against list entries:
// substring containment either way, or any shared significant word.
func matchesAnyListed(core string, listed []string) bool {
	for _, l := range listed {
		if l == "" {
			continue
		}
		if strings.Contains(l, core) || strings.Contains(core, l) {
			return true
		}
		if wordOverlap(core, l) {
			return true
		}
	}
	return false
}

func wordOverlap(a, b string) bool {
	bWords := make(map[string]bool)
	for _, w := range strings.Fields(b) {
		if len(w) > 3 {
			bWords[w] = true
		}
	}
	for _, w := range strings.Fields(a) {
		if len(w) > 3 && bWords[w] {
			return true
		}
	}
	return false
}

// Misclassification table: grocery entries containing the keyword must not
// sit under the named category.
var misclassifications = []struct {
	keyword  string
	badIn    string
	belongIn string
}{
	{"peanut butter", grocery.CategoryDairy, grocery.CategoryPantry},
	{"almond butter", grocery.CategoryDairy, grocery.CategoryPantry},
	{"cashew butter", grocery.CategoryDairy, grocery.CategoryPantry},
	{"coconut milk", grocery.CategoryDairy, grocery.CategoryPantry},
	{"almond milk", grocery.CategoryDairy, grocery.CategoryBeverages},
	{"oat milk", grocery.CategoryDairy, grocery.CategoryBeverages},
	{"soy milk", grocery.CategoryDairy, grocery.CategoryBeverages},
	{"tofu", grocery.CategoryDairy, grocery.CategoryProtein},
	{"egg", grocery.CategoryDairy, grocery.CategoryProtein},
	{"honey", grocery.CategorySpices, grocery.CategoryPantry},
}

func checkGroceryCategories(p *plan.MealPlan) []Violation {
	var out []Violation
	for category, items := range p.GroceryList {
		for _, item := range items {
			lower := strings.ToLower(item)
			for _, rule := range misclassifications {
				if category == rule.badIn && strings.Contains(lower, rule.keyword) {
					out = append(out, Violation{
						Severity:     SeverityCritical,
						Code:         CodeGroceryCategory,
						Message:      fmt.Sprintf("%q listed under %s, belongs under %s", item, category, rule.belongIn),
						FieldPath:    "grocery_list." + category,
						SuggestedFix: fmt.Sprintf("move %q to %s", item, rule.belongIn),
					})
				}
			}
		}
	}
	return out
}

func checkGroceryDuplicates(p *plan.MealPlan) []Violation {
	var out []Violation
	seen := make(map[string]string)
	for category, items := range p.GroceryList {
		for _, item := range items {
			core := groceryItemName(item)
			if core == "" {
				continue
			}
			if first, ok := seen[core]; ok && first != item {
				out = append(out, Violation{
					Severity:     SeverityWarning,
					Code:         CodeGroceryDuplicate,
					Message:      fmt.Sprintf("%q and %q refer to the same ingredient", first, item),
					FieldPath:    "grocery_list." + category,
					SuggestedFix: "merge duplicate entries into one quantity",
				})
				continue
			}
			seen[core] = item
		}
	}
	return out
}
