package nutrition

import (
	"strings"

	"github.com/noot-app/foodlens/internal/types"
)

// Keyword lists for DietaryInfo. Matching is a case-insensitive substring test on
// ingredient names, so "eggplant" reads as egg and "vegetable stock" reads as
// vegetarian. Treat the flags as hints.
var (
	nonVegKeywords = []string{"chicken", "mutton", "meat", "egg", "fish", "prawn"}
	dairyKeywords  = []string{"butter", "ghee", "cream", "milk", "cheese", "paneer", "curd", "yogurt"}
	glutenKeywords = []string{"wheat", "flour", "bread", "maida"}
)

// DietaryInfo derives dietary flags from the items' ingredient lists and totals
func DietaryInfo(items []types.ProcessedItem) types.DietaryInfo {
	hasNonVeg := anyIngredient(items, nonVegKeywords)
	hasDairy := anyIngredient(items, dairyKeywords)
	hasGluten := anyIngredient(items, glutenKeywords)

	var protein float64
	for _, item := range items {
		protein += item.TotalNutrition.Protein
	}

	return types.DietaryInfo{
		IsVegetarian:  !hasNonVeg,
		IsVegan:       !hasNonVeg && !hasDairy,
		IsGlutenFree:  !hasGluten,
		IsHighProtein: protein > 20,
		IsBalanced:    len(items) >= 2,
	}
}

func anyIngredient(items []types.ProcessedItem, keywords []string) bool {
	for _, item := range items {
		for _, ing := range item.Ingredients {
			lower := strings.ToLower(ing)
			for _, kw := range keywords {
				if strings.Contains(lower, kw) {
					return true
				}
			}
		}
	}
	return false
}

// Ingredients merges the items' ingredients, keeping first-seen order and at most
// eight entries. Duplicates are detected case-insensitively.
func Ingredients(items []types.ProcessedItem) []string {
	const limit = 8
	seen := make(map[string]bool)
	out := []string{}
	for _, item := range items {
		for _, ing := range item.Ingredients {
			key := strings.ToLower(strings.TrimSpace(ing))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, ing)
			if len(out) == limit {
				return out
			}
		}
	}
	return out
}
