package grocery

import "strings"

// Shopping sections. Every rendered item lands in exactly one.
const (
	CategoryProduce   = "produce"
	CategoryProtein   = "protein"
	CategoryDairy     = "dairy"
	CategoryPantry    = "pantry"
	CategorySpices    = "spices"
	CategoryBeverages = "beverages"
)

var spiceKeywords = []string{
	"salt", "pepper", "cumin", "turmeric", "paprika", "coriander powder",
	"chili powder", "chilli powder", "cinnamon", "cardamom", "clove powder",
	"nutmeg", "oregano", "thyme", "rosemary", "basil", "bay leaf", "bay leaves",
	"garam masala", "curry powder", "cayenne", "saffron", "sumac", "za'atar",
	"allspice", "fennel seed", "mustard seed", "fenugreek", "asafoetida",
	"vanilla extract", "baking powder", "baking soda", "masala",
}

var seedKeywords = []string{
	"chia seed", "flax seed", "flaxseed", "sesame seed", "pumpkin seed",
	"sunflower seed", "hemp seed", "poppy seed",
}

var grainLegumeKeywords = []string{
	"rice", "quinoa", "oats", "oatmeal", "barley", "couscous", "bulgur",
	"lentil", "chickpea", "bean", "pasta", "noodle", "semolina", "millet",
	"buckwheat", "farro", "split pea", "dal", "flour",
}

var produceKeywords = []string{
	"tomato", "onion", "garlic", "ginger", "potato", "carrot", "spinach",
	"kale", "lettuce", "cucumber", "zucchini", "courgette", "eggplant",
	"aubergine", "broccoli", "cauliflower", "cabbage", "pepper", "capsicum",
	"mushroom", "celery", "apple", "banana", "orange", "lemon", "lime",
	"berry", "berries", "strawberr", "blueberr", "mango", "avocado", "grape",
	"pear", "peach", "pineapple", "melon", "cilantro", "coriander leaves",
	"parsley", "mint", "dill", "scallion", "spring onion", "leek", "beet",
	"radish", "squash", "pumpkin", "sweet potato", "green bean", "peas",
	"corn", "okra", "asparagus", "herb",
}

// Items that collide with a spice keyword but belong in produce.
var produceOverrides = []string{"bell pepper", "capsicum", "fresh basil", "fresh thyme", "fresh rosemary"}

var proteinKeywords = []string{
	"chicken", "beef", "lamb", "pork", "turkey", "duck", "fish", "salmon",
	"tuna", "cod", "tilapia", "shrimp", "prawn", "crab", "egg", "tofu",
	"tempeh", "seitan", "mutton", "sardine", "mackerel", "anchovy",
}

var dairyKeywords = []string{
	"milk", "yogurt", "yoghurt", "curd", "cheese", "paneer", "butter",
	"ghee", "cream", "kefir", "labneh", "mozzarella", "cheddar", "feta",
	"parmesan", "ricotta",
}

var beverageKeywords = []string{
	"juice", "coffee", "tea", "smoothie", "coconut water", "kombucha",
	"sparkling water", "almond milk", "oat milk", "soy milk",
}

// Dairy-sounding items that do not belong under dairy. Used by the grocery
// category-correctness check.
var notDairy = []string{
	"peanut butter", "almond butter", "cashew butter", "nut butter",
	"coconut milk", "almond milk", "oat milk", "soy milk", "rice milk",
}

// CategoryOf assigns a shopping section via keyword membership. Order
// matters: the more specific tables run before the broad produce table, and
// anything unmatched defaults to pantry.
func CategoryOf(name string) string {
	n := strings.ToLower(name)

	for _, k := range notDairy {
		if strings.Contains(n, k) {
			return CategoryPantry
		}
	}
	if matchesAny(n, produceOverrides) {
		return CategoryProduce
	}
	if matchesAny(n, beverageKeywords) {
		return CategoryBeverages
	}
	if matchesAny(n, dairyKeywords) {
		return CategoryDairy
	}
	if matchesAny(n, proteinKeywords) {
		return CategoryProtein
	}
	if matchesAny(n, spiceKeywords) || matchesAny(n, seedKeywords) {
		return CategorySpices
	}
	if matchesAny(n, produceKeywords) {
		return CategoryProduce
	}
	return CategoryPantry
}

// IsSpiceOrPowder reports whether a gram-quantity item should render as a
// packet when the amount is below a tablespoon's worth.
func IsSpiceOrPowder(name string) bool {
	n := strings.ToLower(name)
	return matchesAny(n, spiceKeywords) || strings.Contains(n, "powder")
}
