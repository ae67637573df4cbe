// Package nutrition turns raw model detections into scan results. Everything here is
// pure: no I/O, no clock reads except through BuildOptions.
package nutrition

import (
	"math"

	"github.com/noot-app/foodlens/internal/types"
)

// Round applies the precision policy for one nutrient: whole numbers for calories,
// sodium and calcium, one decimal for the rest. Ties round away from zero.
func Round(key string, v float64) float64 {
	if types.IsIntegerNutrient(key) {
		return math.Round(v)
	}
	return math.Round(v*10) / 10
}

// RoundSet applies Round to every field
func RoundSet(n types.NutrientSet) types.NutrientSet {
	var out types.NutrientSet
	for _, key := range types.NutrientKeys {
		out.Set(key, Round(key, n.Get(key)))
	}
	return out
}

// Sanitize clamps negative fields to zero and rounds the set
func Sanitize(n types.NutrientSet) types.NutrientSet {
	for _, key := range types.NutrientKeys {
		if n.Get(key) < 0 {
			n.Set(key, 0)
		}
	}
	return RoundSet(n)
}

// Scale multiplies a per-unit set by a count and rounds each field
func Scale(perUnit types.NutrientSet, count int) types.NutrientSet {
	var out types.NutrientSet
	for _, key := range types.NutrientKeys {
		out.Set(key, Round(key, perUnit.Get(key)*float64(count)))
	}
	return out
}

// Sum adds sets field by field and rounds the result once. Summing already rounded
// sets can differ from rounding each addend by at most one rounding unit.
func Sum(sets ...types.NutrientSet) types.NutrientSet {
	var total types.NutrientSet
	for _, s := range sets {
		for _, key := range types.NutrientKeys {
			total.Set(key, total.Get(key)+s.Get(key))
		}
	}
	return RoundSet(total)
}

// HealthScore rates a total from 1 to 10 in half-point steps
func HealthScore(total types.NutrientSet) float64 {
	score := 6.0
	if total.Protein > 15 {
		score += 1
	}
	if total.Fiber > 8 {
		score += 1
	}
	if total.Iron > 3 {
		score += 0.5
	}
	if total.VitaminC > 10 {
		score += 0.5
	}
	if total.Sodium > 800 {
		score -= 1
	}
	if total.Calories > 800 {
		score -= 0.5
	}
	if total.Fat > 30 {
		score -= 0.5
	}
	if total.Sugar > 25 {
		score -= 0.5
	}
	return math.Max(1, math.Min(10, math.Round(score*2)/2))
}
