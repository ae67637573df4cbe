package ledger

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/noot-app/foodlens/internal/nutrition"
	"github.com/noot-app/foodlens/internal/types"
)

// DaySummary is one day of the weekly view: the day's totals flattened, plus the
// number of non-empty meal slots
type DaySummary struct {
	Date string `json:"date"`
	types.NutrientSet
	MealsCount int `json:"mealsCount"`
}

// GetWeeklyData summarizes the seven days ending at ref, oldest first. It only reads.
func (s *Store) GetWeeklyData(ctx context.Context, ref time.Time) ([]DaySummary, error) {
	days := make([]DaySummary, 7)
	g, gctx := errgroup.WithContext(ctx)
	for i := range days {
		date := DateKey(ref.AddDate(0, 0, i-6))
		g.Go(func() error {
			ledger, err := s.readDay(gctx, date)
			if err != nil {
				return err
			}
			days[i] = DaySummary{
				Date:        date,
				NutrientSet: ledger.TotalNutrition,
				MealsCount:  ledger.MealsCount(),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return days, nil
}

// WeeklyAverage is the per-day mean over a set of summaries
type WeeklyAverage struct {
	types.NutrientSet
	MealsCount float64 `json:"mealsCount"`
	Days       int     `json:"days"`
}

// Average computes per-day means. Nutrients follow the usual rounding policy and the
// meal count keeps one decimal.
func Average(days []DaySummary) WeeklyAverage {
	if len(days) == 0 {
		return WeeklyAverage{}
	}
	var sum types.NutrientSet
	meals := 0
	for _, d := range days {
		for _, key := range types.NutrientKeys {
			sum.Set(key, sum.Get(key)+d.Get(key))
		}
		meals += d.MealsCount
	}

	n := float64(len(days))
	var avg types.NutrientSet
	for _, key := range types.NutrientKeys {
		avg.Set(key, sum.Get(key)/n)
	}
	return WeeklyAverage{
		NutrientSet: nutrition.RoundSet(avg),
		MealsCount:  math.Round(float64(meals)/n*10) / 10,
		Days:        len(days),
	}
}
