package nutrition

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/noot-app/foodlens/internal/types"
)

const (
	// MethodAI tags results built from a model detection
	MethodAI = "Gemini Complete Analysis"
	// MethodFallback tags the estimate returned when recognition failed
	MethodFallback = "Fallback"

	defaultUnitWeight  = 100
	defaultConfidence  = 0.9
	defaultHealthScore = 6
	defaultCategory    = "Food Item"
	defaultItemTips    = "Enjoy as part of a balanced diet"
	unknownFoodName    = "Unknown Food"
)

// ErrNoItems is returned when a detection has nothing to aggregate
var ErrNoItems = errors.New("no items detected")

// BuildOptions carries the context-dependent inputs of BuildScanResult
type BuildOptions struct {
	UserInput string
	Now       time.Time
}

// ProcessItem scales one detected item to its visible count and fills defaults
func ProcessItem(raw types.DetectedItem, userProvided bool) types.ProcessedItem {
	count := int(raw.VisibleCount.Value)
	if !raw.VisibleCount.Valid || count < 1 {
		count = 1
	}

	perUnitWeight := strings.TrimSpace(string(raw.PerUnitWeight))
	if perUnitWeight == "" {
		perUnitWeight = fmt.Sprintf("%dg", defaultUnitWeight)
	}
	unitGrams, ok := types.LeadingInt(perUnitWeight)
	if !ok {
		unitGrams = defaultUnitWeight
	}
	totalWeight := fmt.Sprintf("%dg", unitGrams*count)

	perUnit := raw.NutrientSet()

	name := strings.TrimSpace(string(raw.FoodName))
	if name == "" {
		name = unknownFoodName
	}
	category := strings.TrimSpace(string(raw.Category))
	if category == "" {
		category = defaultCategory
	}
	tips := strings.TrimSpace(string(raw.Tips))
	if tips == "" {
		tips = defaultItemTips
	}
	ingredients := []string(raw.Ingredients)
	if len(ingredients) == 0 {
		ingredients = []string{"mixed ingredients"}
	}

	return types.ProcessedItem{
		Name:             name,
		VisibleCount:     count,
		PerUnitWeight:    perUnitWeight,
		TotalWeight:      totalWeight,
		PerUnitNutrition: perUnit,
		TotalNutrition:   Scale(perUnit, count),
		Category:         category,
		HealthScore:      clampScore(raw.HealthScore.Or(defaultHealthScore)),
		Ingredients:      ingredients,
		Tips:             tips,
		UserProvided:     userProvided,
		Portion: types.Portion{
			Size:     portionSize(count),
			Quantity: fmt.Sprintf("%d piece%s", count, plural(count)),
			Weight:   totalWeight,
		},
	}
}

// BuildScanResult aggregates a model detection into a ScanResult
func BuildScanResult(d *types.Detection, opts BuildOptions) (*types.ScanResult, error) {
	if d == nil || len(d.DetectedItems) == 0 {
		return nil, ErrNoItems
	}

	userAssisted := strings.TrimSpace(opts.UserInput) != ""
	items := make([]types.ProcessedItem, 0, len(d.DetectedItems))
	totals := make([]types.NutrientSet, 0, len(d.DetectedItems))
	grams := 0
	for _, raw := range d.DetectedItems {
		item := ProcessItem(raw, userAssisted)
		items = append(items, item)
		totals = append(totals, item.TotalNutrition)
		if g, ok := types.LeadingInt(item.TotalWeight); ok {
			grams += g
		}
	}

	total := Sum(totals...)
	pieces := totalPieces(items)

	category := items[0].Category
	if len(items) > 1 {
		category = "Combo Meal"
	}

	confidence := d.Confidence.Or(defaultConfidence)
	confidence = math.Max(0, math.Min(1, confidence))

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	return &types.ScanResult{
		FoodName:                ComposeName(items),
		IsComboMeal:             len(items) > 1,
		ItemCount:               len(items),
		TotalFoodPieces:         pieces,
		IndividualItems:         items,
		Confidence:              confidence,
		Category:                category,
		ServingSize:             fmt.Sprintf("%d piece%s total (%dg)", pieces, plural(pieces), grams),
		Nutrition:               total,
		HealthScore:             HealthScore(total),
		DietaryInfo:             DietaryInfo(items),
		Ingredients:             Ingredients(items),
		Tips:                    BuildTips(items, total),
		Method:                  MethodAI,
		Timestamp:               now,
		UserAssisted:            userAssisted,
		HasAIGeneratedNutrition: true,
		UserInput:               strings.TrimSpace(opts.UserInput),
	}, nil
}

// fallbackNutrition is the placeholder used when no model produced a detection
var fallbackNutrition = types.NutrientSet{
	Calories: 300, Protein: 10, Carbs: 40, Fat: 10, Fiber: 5,
	Sugar: 5, Sodium: 300, Iron: 2, Calcium: 50, VitaminC: 5,
}

// FallbackResult is the success-shaped estimate returned when recognition failed.
// It is marked IsEstimate and carries no AI-generated nutrition.
func FallbackResult(opts BuildOptions) *types.ScanResult {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	item := types.ProcessedItem{
		Name:             "Mixed Food",
		VisibleCount:     1,
		PerUnitWeight:    "200g",
		TotalWeight:      "200g",
		PerUnitNutrition: fallbackNutrition,
		TotalNutrition:   fallbackNutrition,
		Category:         "Food",
		HealthScore:      defaultHealthScore,
		Ingredients:      []string{"mixed"},
		Tips:             "Unable to analyze - estimate only",
		Portion:          types.Portion{Size: "Small", Quantity: "1 piece", Weight: "200g"},
	}
	userInput := strings.TrimSpace(opts.UserInput)

	return &types.ScanResult{
		FoodName:        "Mixed Meal",
		ItemCount:       1,
		TotalFoodPieces: 1,
		IndividualItems: []types.ProcessedItem{item},
		Confidence:      0.5,
		Category:        "Food",
		ServingSize:     "1 piece (200g)",
		Nutrition:       fallbackNutrition,
		HealthScore:     defaultHealthScore,
		DietaryInfo: types.DietaryInfo{
			IsVegetarian: true,
		},
		Ingredients:             []string{"mixed"},
		Tips:                    "Analysis failed - these values are estimates, please verify",
		Method:                  MethodFallback,
		Timestamp:               now,
		UserAssisted:            userInput != "",
		UserInput:               userInput,
		IsEstimate:              true,
		HasAIGeneratedNutrition: false,
	}
}

func portionSize(count int) string {
	switch {
	case count > 3:
		return "Large"
	case count > 1:
		return "Medium"
	default:
		return "Small"
	}
}

func clampScore(v float64) float64 {
	return math.Max(1, math.Min(10, v))
}
