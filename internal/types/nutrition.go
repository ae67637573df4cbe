package types

import (
	"strings"
	"time"
)

// NutrientSet holds the ten tracked nutrients for a food, a meal or a day.
// Calories, sodium and calcium are whole numbers; everything else carries one decimal.
type NutrientSet struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
	Sugar    float64 `json:"sugar"`
	Sodium   float64 `json:"sodium"`
	Iron     float64 `json:"iron"`
	Calcium  float64 `json:"calcium"`
	VitaminC float64 `json:"vitaminC"`
}

// NutrientKeys lists the JSON keys of a NutrientSet in a fixed order
var NutrientKeys = []string{
	"calories", "protein", "carbs", "fat", "fiber",
	"sugar", "sodium", "iron", "calcium", "vitaminC",
}

// Get returns the value stored under a JSON key, or 0 for unknown keys
func (n NutrientSet) Get(key string) float64 {
	switch key {
	case "calories":
		return n.Calories
	case "protein":
		return n.Protein
	case "carbs":
		return n.Carbs
	case "fat":
		return n.Fat
	case "fiber":
		return n.Fiber
	case "sugar":
		return n.Sugar
	case "sodium":
		return n.Sodium
	case "iron":
		return n.Iron
	case "calcium":
		return n.Calcium
	case "vitaminC":
		return n.VitaminC
	}
	return 0
}

// Set stores a value under a JSON key. Unknown keys are ignored.
func (n *NutrientSet) Set(key string, v float64) {
	switch key {
	case "calories":
		n.Calories = v
	case "protein":
		n.Protein = v
	case "carbs":
		n.Carbs = v
	case "fat":
		n.Fat = v
	case "fiber":
		n.Fiber = v
	case "sugar":
		n.Sugar = v
	case "sodium":
		n.Sodium = v
	case "iron":
		n.Iron = v
	case "calcium":
		n.Calcium = v
	case "vitaminC":
		n.VitaminC = v
	}
}

// IsIntegerNutrient reports whether a key is stored as a whole number
func IsIntegerNutrient(key string) bool {
	return key == "calories" || key == "sodium" || key == "calcium"
}

// Portion describes how big a detected item is
type Portion struct {
	Size     string `json:"size"`
	Quantity string `json:"quantity"`
	Weight   string `json:"weight"`
}

// ProcessedItem is one detected dish after per-unit values were scaled to the visible count
type ProcessedItem struct {
	Name             string      `json:"name"`
	VisibleCount     int         `json:"visibleCount"`
	PerUnitWeight    string      `json:"perUnitWeight"`
	TotalWeight      string      `json:"totalWeight"`
	PerUnitNutrition NutrientSet `json:"perUnitNutrition"`
	TotalNutrition   NutrientSet `json:"totalNutrition"`
	Category         string      `json:"category"`
	HealthScore      float64     `json:"healthScore"`
	Ingredients      []string    `json:"ingredients"`
	Tips             string      `json:"tips"`
	UserProvided     bool        `json:"userProvided"`
	Portion          Portion     `json:"portion"`
}

// DietaryInfo is a keyword heuristic, not a certified classification
type DietaryInfo struct {
	IsVegetarian  bool `json:"isVegetarian"`
	IsVegan       bool `json:"isVegan"`
	IsGlutenFree  bool `json:"isGlutenFree"`
	IsHighProtein bool `json:"isHighProtein"`
	IsBalanced    bool `json:"isBalanced"`
	IsLowCarb     bool `json:"isLowCarb,omitempty"`
}

// ScanResult is the normalized output of a recognition or barcode lookup.
// It is the unit stored in a meal slot and is not modified after creation.
type ScanResult struct {
	FoodName                string          `json:"foodName"`
	IsComboMeal             bool            `json:"isComboMeal"`
	ItemCount               int             `json:"itemCount"`
	TotalFoodPieces         int             `json:"totalFoodPieces"`
	IndividualItems         []ProcessedItem `json:"individualItems,omitempty"`
	Confidence              float64         `json:"confidence"`
	Category                string          `json:"category"`
	ServingSize             string          `json:"servingSize"`
	Nutrition               NutrientSet     `json:"nutrition"`
	HealthScore             float64         `json:"healthScore"`
	DietaryInfo             DietaryInfo     `json:"dietaryInfo"`
	Ingredients             []string        `json:"ingredients"`
	Tips                    string          `json:"tips"`
	Method                  string          `json:"method"`
	Timestamp               time.Time       `json:"timestamp"`
	UserAssisted            bool            `json:"userAssisted"`
	HasAIGeneratedNutrition bool            `json:"hasAIGeneratedNutrition"`

	IsEstimate       bool   `json:"isEstimate,omitempty"`
	UsedModel        string `json:"usedModel,omitempty"`
	ProcessingTimeMs int64  `json:"processingTimeMs,omitempty"`
	ImageRef         string `json:"imageRef,omitempty"`
	UserInput        string `json:"userInput,omitempty"`
	Barcode          string `json:"barcode,omitempty"`
	Brand            string `json:"brand,omitempty"`
}

// FoodEntry is a ScanResult logged into a meal slot. The embedded Timestamp is the
// time the entry was logged.
type FoodEntry struct {
	ID        string     `json:"id"`
	ScannedAt *time.Time `json:"scannedAt,omitempty"`
	ScanResult
}

// MealType names one of the four meal slots of a day
type MealType string

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Snacks    MealType = "snacks"
	Dinner    MealType = "dinner"
)

// MealTypes lists the slots in the order they are shown and summed
var MealTypes = []MealType{Breakfast, Lunch, Snacks, Dinner}

// ParseMealType validates a meal slot name (case-insensitive)
func ParseMealType(s string) (MealType, bool) {
	m := MealType(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case Breakfast, Lunch, Snacks, Dinner:
		return m, true
	}
	return "", false
}

// MealTypeForHour suggests the slot for a local hour of day
func MealTypeForHour(hour int) MealType {
	switch {
	case hour < 10:
		return Breakfast
	case hour < 14:
		return Lunch
	case hour < 18:
		return Snacks
	default:
		return Dinner
	}
}

// DailyLedger is the per-calendar-day record of logged meals.
// TotalNutrition is always derived from the four meal arrays.
type DailyLedger struct {
	Date           string      `json:"date"`
	Breakfast      []FoodEntry `json:"breakfast"`
	Lunch          []FoodEntry `json:"lunch"`
	Snacks         []FoodEntry `json:"snacks"`
	Dinner         []FoodEntry `json:"dinner"`
	TotalNutrition NutrientSet `json:"totalNutrition"`
	WaterGlasses   int         `json:"waterGlasses"`
}

// NewDailyLedger returns an empty ledger for a date key
func NewDailyLedger(date string) *DailyLedger {
	return &DailyLedger{
		Date:      date,
		Breakfast: []FoodEntry{},
		Lunch:     []FoodEntry{},
		Snacks:    []FoodEntry{},
		Dinner:    []FoodEntry{},
	}
}

// Meal returns the entries of a slot
func (d *DailyLedger) Meal(m MealType) []FoodEntry {
	switch m {
	case Breakfast:
		return d.Breakfast
	case Lunch:
		return d.Lunch
	case Snacks:
		return d.Snacks
	case Dinner:
		return d.Dinner
	}
	return nil
}

// Append adds an entry to a slot. It does not touch TotalNutrition.
func (d *DailyLedger) Append(m MealType, e FoodEntry) {
	switch m {
	case Breakfast:
		d.Breakfast = append(d.Breakfast, e)
	case Lunch:
		d.Lunch = append(d.Lunch, e)
	case Snacks:
		d.Snacks = append(d.Snacks, e)
	case Dinner:
		d.Dinner = append(d.Dinner, e)
	}
}

// Entries returns every entry of the day in slot order
func (d *DailyLedger) Entries() []FoodEntry {
	var all []FoodEntry
	for _, m := range MealTypes {
		all = append(all, d.Meal(m)...)
	}
	return all
}

// MealsCount counts the non-empty slots (0-4)
func (d *DailyLedger) MealsCount() int {
	count := 0
	for _, m := range MealTypes {
		if len(d.Meal(m)) > 0 {
			count++
		}
	}
	return count
}

// Normalize replaces nil slices left by older or hand-written records
func (d *DailyLedger) Normalize() {
	if d.Breakfast == nil {
		d.Breakfast = []FoodEntry{}
	}
	if d.Lunch == nil {
		d.Lunch = []FoodEntry{}
	}
	if d.Snacks == nil {
		d.Snacks = []FoodEntry{}
	}
	if d.Dinner == nil {
		d.Dinner = []FoodEntry{}
	}
}
