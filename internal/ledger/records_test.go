package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noot-app/foodlens/internal/types"
)

func TestGoals(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestStore(t)

	goals, err := s.GetGoals(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultGoals(), goals)

	bad := goals
	bad.DailyProtein = 0
	assert.Error(t, s.SaveGoals(ctx, bad))

	goals.DailyCalories = 1800
	require.NoError(t, s.SaveGoals(ctx, goals))
	got, err := s.GetGoals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1800.0, got.DailyCalories)

	// records written by older versions may lack fields
	require.NoError(t, kv.Set(ctx, GoalsKey, `{"dailyCalories": 1500, "unknown": true}`))
	got, err = s.GetGoals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1500.0, got.DailyCalories)
	assert.Equal(t, 80.0, got.DailyProtein)

	kv.SetError(errors.New("locked"))
	_, err = s.GetGoals(ctx)
	assert.Error(t, err)
	assert.Error(t, s.SaveGoals(ctx, types.DefaultGoals()))
}

func TestProfile(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	p, err := s.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "User", p.Name)
	assert.Nil(t, p.JoinDate)

	p.Name = "Asha"
	p.Gender = "female"
	require.NoError(t, s.SaveProfile(ctx, p))

	got, err := s.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Asha", got.Name)
	require.NotNil(t, got.JoinDate)
	assert.True(t, got.JoinDate.Equal(day))

	p.Gender = "other"
	assert.Error(t, s.SaveProfile(ctx, p))
}

func TestRecentScans_CapAndLimit(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	for i := 0; i < RecentScansCap+5; i++ {
		_, err := s.AddFoodToMeal(ctx, scan("Idli", idli), types.Snacks, day)
		require.NoError(t, err)
	}

	all, err := s.GetRecentScans(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, all, RecentScansCap)

	def, err := s.GetRecentScans(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, def, DefaultRecentLimit)

	four, err := s.GetRecentScans(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, all[:4], four)
}

func TestGetWeeklyData_OneLoggedDay(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	logged := day.AddDate(0, 0, -2)
	_, err := s.AddFoodToMeal(ctx, scan("Idli", idli), types.Breakfast, logged)
	require.NoError(t, err)
	_, err = s.AddFoodToMeal(ctx, scan("Sambar", sambar), types.Dinner, logged)
	require.NoError(t, err)
	// outside the window
	_, err = s.AddFoodToMeal(ctx, scan("Idli", idli), types.Lunch, day.AddDate(0, 0, 1))
	require.NoError(t, err)

	week, err := s.GetWeeklyData(ctx, day)
	require.NoError(t, err)
	require.Len(t, week, 7)

	assert.Equal(t, "2026-03-04", week[0].Date)
	assert.Equal(t, "2026-03-10", week[6].Date)

	withMeals := 0
	for i, d := range week {
		if i > 0 {
			assert.Less(t, week[i-1].Date, d.Date)
		}
		if d.MealsCount > 0 {
			withMeals++
			assert.Equal(t, "2026-03-08", d.Date)
			assert.Equal(t, 2, d.MealsCount)
			assert.Equal(t, 168.0, d.Calories)
		}
	}
	assert.Equal(t, 1, withMeals)

	dates, err := s.LoggedDates(ctx)
	require.NoError(t, err)
	assert.Len(t, dates, 2, "weekly read never writes")
}

func TestGetWeeklyData_StorageFailure(t *testing.T) {
	s, kv := newTestStore(t)
	kv.SetError(errors.New("io"))
	week, err := s.GetWeeklyData(context.Background(), day)
	assert.Error(t, err)
	assert.Nil(t, week)
}

func TestAverage(t *testing.T) {
	assert.Equal(t, WeeklyAverage{}, Average(nil))

	days := []DaySummary{
		{Date: "a", NutrientSet: types.NutrientSet{Calories: 2000, Protein: 60.5}, MealsCount: 3},
		{Date: "b", NutrientSet: types.NutrientSet{Calories: 1001, Protein: 40}, MealsCount: 4},
		{Date: "c", MealsCount: 0},
	}
	avg := Average(days)
	assert.Equal(t, 1000.0, avg.Calories)
	assert.Equal(t, 33.5, avg.Protein)
	assert.Equal(t, 2.3, avg.MealsCount)
	assert.Equal(t, 3, avg.Days)
}

func TestParseDate(t *testing.T) {
	now := time.Date(2026, 1, 5, 8, 0, 0, 0, time.Local)

	d, err := ParseDate("", now)
	require.NoError(t, err)
	assert.Equal(t, now, d)

	d, err = ParseDate("2025-12-31", now)
	require.NoError(t, err)
	assert.Equal(t, "2025-12-31", DateKey(d))

	_, err = ParseDate("31/12/2025", now)
	assert.Error(t, err)
}
