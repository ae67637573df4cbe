// Package notify carries ledger events (meals logged, goals reached, missed meals)
// from the stores to notification sinks without coupling the two.
package notify

import (
	"fmt"
	"math"

	"github.com/noot-app/foodlens/internal/types"
)

// Notification is what a sink delivers
type Notification struct {
	Type  string            `json:"type"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Event is anything the bus can carry
type Event interface {
	Notification() Notification
}

// MealLogged is published after an entry is persisted
type MealLogged struct {
	Date      string
	MealType  types.MealType
	FoodName  string
	Nutrition types.NutrientSet
}

func (e MealLogged) Notification() Notification {
	return Notification{
		Type:  "meal_logged",
		Title: "Meal Logged",
		Body:  fmt.Sprintf("Added %s to %s (%.0f kcal)", e.FoodName, e.MealType, e.Nutrition.Calories),
		Data: map[string]string{
			"date":     e.Date,
			"mealType": string(e.MealType),
		},
	}
}

// Goal kinds
const (
	CalorieGoal   = "calorie_goal"
	ProteinGoal   = "protein_goal"
	OverCalories  = "over_calories"
	DailyComplete = "daily_complete"
)

var goalTitles = map[string]string{
	CalorieGoal:   "Calorie Goal Reached",
	ProteinGoal:   "Protein Target Hit",
	OverCalories:  "Calorie Goal Exceeded",
	DailyComplete: "Daily Goals Complete",
}

// GoalReached reports a threshold crossed by a day's totals
type GoalReached struct {
	Kind    string
	Message string
	Date    string
}

func (e GoalReached) Notification() Notification {
	return Notification{
		Type:  "goal",
		Title: goalTitles[e.Kind],
		Body:  e.Message,
		Data:  map[string]string{"goalType": e.Kind, "date": e.Date},
	}
}

// EvaluateGoals returns the goal events a day's totals trigger, in a fixed order
func EvaluateGoals(total types.NutrientSet, goals types.UserGoals) []GoalReached {
	var out []GoalReached
	if goals.DailyCalories <= 0 || goals.DailyProtein <= 0 {
		return out
	}

	cal := total.Calories
	if cal >= goals.DailyCalories*0.9 && cal <= goals.DailyCalories*1.1 {
		out = append(out, GoalReached{
			Kind:    CalorieGoal,
			Message: fmt.Sprintf("Perfect! You've reached %.0f%% of your calorie goal.", math.Round(cal/goals.DailyCalories*100)),
		})
	}
	if total.Protein >= goals.DailyProtein {
		out = append(out, GoalReached{
			Kind:    ProteinGoal,
			Message: fmt.Sprintf("Excellent! You've hit your protein target with %gg.", total.Protein),
		})
	}
	if cal > goals.DailyCalories*1.2 {
		out = append(out, GoalReached{
			Kind:    OverCalories,
			Message: fmt.Sprintf("You've exceeded your calorie goal by %.0f calories.", math.Round(cal-goals.DailyCalories)),
		})
	}

	caloriePct := cal / goals.DailyCalories * 100
	proteinPct := total.Protein / goals.DailyProtein * 100
	if caloriePct >= 90 && proteinPct >= 90 {
		out = append(out, GoalReached{
			Kind:    DailyComplete,
			Message: "Amazing! You've completed your daily nutrition goals. Keep it up!",
		})
	}
	return out
}
