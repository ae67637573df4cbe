package types

import "time"

// UserGoals are the daily targets a ledger is compared against
type UserGoals struct {
	DailyCalories float64 `json:"dailyCalories" validate:"gt=0"`
	DailyProtein  float64 `json:"dailyProtein" validate:"gt=0"`
	DailyCarbs    float64 `json:"dailyCarbs" validate:"gt=0"`
	DailyFat      float64 `json:"dailyFat" validate:"gt=0"`
	DailyFiber    float64 `json:"dailyFiber" validate:"gt=0"`
	WaterGlasses  int     `json:"waterGlasses" validate:"gt=0"`
	MealsPerDay   int     `json:"mealsPerDay" validate:"gt=0"`
}

// DefaultGoals returns the goals used until the user saves their own
func DefaultGoals() UserGoals {
	return UserGoals{
		DailyCalories: 2200,
		DailyProtein:  80,
		DailyCarbs:    275,
		DailyFat:      73,
		DailyFiber:    25,
		WaterGlasses:  8,
		MealsPerDay:   4,
	}
}

// goalPresets map an activity level to calorie and macro targets
var goalPresets = map[string]UserGoals{
	"sedentary": {DailyCalories: 1800, DailyProtein: 65, DailyCarbs: 225, DailyFat: 60},
	"moderate":  {DailyCalories: 2200, DailyProtein: 80, DailyCarbs: 275, DailyFat: 73},
	"active":    {DailyCalories: 2600, DailyProtein: 95, DailyCarbs: 325, DailyFat: 87},
}

// ApplyPreset overwrites calories, protein, carbs and fat with the named preset.
// Fiber, water and meals per day are kept.
func (g UserGoals) ApplyPreset(name string) (UserGoals, bool) {
	p, ok := goalPresets[name]
	if !ok {
		return g, false
	}
	g.DailyCalories = p.DailyCalories
	g.DailyProtein = p.DailyProtein
	g.DailyCarbs = p.DailyCarbs
	g.DailyFat = p.DailyFat
	return g, true
}

// UserProfile is the single local user record
type UserProfile struct {
	Name          string     `json:"name" validate:"required"`
	Age           int        `json:"age" validate:"gt=0,lt=150"`
	HeightCm      float64    `json:"height_cm" validate:"gt=0"`
	WeightKg      float64    `json:"weight_kg" validate:"gt=0"`
	Gender        string     `json:"gender" validate:"oneof=male female"`
	ActivityLevel string     `json:"activityLevel" validate:"oneof=sedentary moderate active"`
	Goal          string     `json:"goal" validate:"oneof=maintain lose gain"`
	JoinDate      *time.Time `json:"joinDate,omitempty"`
}

// DefaultProfile returns the profile shown before the user edits theirs
func DefaultProfile() UserProfile {
	return UserProfile{
		Name:          "User",
		Age:           25,
		HeightCm:      170,
		WeightKg:      70,
		Gender:        "male",
		ActivityLevel: "moderate",
		Goal:          "maintain",
	}
}

// BMI returns body mass index rounded to one decimal, or 0 without a height
func (p UserProfile) BMI() float64 {
	if p.HeightCm <= 0 {
		return 0
	}
	m := p.HeightCm / 100
	bmi := p.WeightKg / (m * m)
	return float64(int64(bmi*10+0.5)) / 10
}

// BMICategory buckets a BMI value
func BMICategory(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "Underweight"
	case bmi < 25:
		return "Normal"
	case bmi < 30:
		return "Overweight"
	default:
		return "Obese"
	}
}
