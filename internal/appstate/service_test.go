package appstate

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noot-app/foodlens/internal/ledger"
	"github.com/noot-app/foodlens/internal/storage"
	"github.com/noot-app/foodlens/internal/types"
)

func newTestService(t *testing.T) (*Service, *storage.MemoryStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	kv := storage.NewMemoryStore()
	return NewService(ledger.New(kv, nil, logger), kv, logger), kv
}

func next(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case snap := <-ch:
		return snap
	case <-time.After(time.Second):
		t.Fatal("no snapshot received")
		return Snapshot{}
	}
}

func TestService_DefaultsBeforeRefresh(t *testing.T) {
	s, _ := newTestService(t)
	snap := s.Snapshot()
	assert.Equal(t, types.DefaultGoals(), snap.Goals)
	assert.Empty(t, snap.RecentScans)
	assert.Equal(t, Light, snap.Theme)
	require.NotNil(t, snap.Ledger)
	assert.Equal(t, ledger.DateKey(time.Now()), snap.Ledger.Date)
}

func TestService_AddFoodToMeal(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	ch, cancel := s.Subscribe()
	defer cancel()

	for i := 0; i < 6; i++ {
		ok := s.AddFoodToMeal(ctx, &types.ScanResult{FoodName: "Dosa", Nutrition: types.NutrientSet{Calories: 133}}, types.Breakfast)
		require.True(t, ok)
	}

	snap := next(t, ch)
	assert.Len(t, snap.Ledger.Breakfast, 6)
	assert.Equal(t, 798.0, snap.Ledger.TotalNutrition.Calories)
	assert.Len(t, snap.RecentScans, RecentLimit)

	assert.False(t, s.AddFoodToMeal(ctx, &types.ScanResult{FoodName: "x"}, types.MealType("tea")))
}

func TestService_FailuresReturnFalse(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestService(t)
	kv.SetError(errors.New("storage offline"))

	assert.False(t, s.AddFoodToMeal(ctx, &types.ScanResult{FoodName: "Dosa"}, types.Lunch))
	assert.False(t, s.UpdateGoals(ctx, types.DefaultGoals()))
	assert.False(t, s.SaveProfile(ctx, types.DefaultProfile()))
	assert.False(t, s.UpdateWaterIntake(ctx, 3))
	assert.False(t, s.SetDarkMode(ctx, true))

	err := s.Refresh(ctx)
	assert.Error(t, err)
	snap := s.Snapshot()
	assert.Equal(t, types.DefaultGoals(), snap.Goals, "failed refresh falls back to defaults")
	assert.Empty(t, snap.Ledger.Entries())
}

func TestService_UpdateGoalsAndWater(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)

	goals := types.DefaultGoals()
	goals.DailyCalories = 1900
	require.True(t, s.UpdateGoals(ctx, goals))
	assert.Equal(t, 1900.0, s.Snapshot().Goals.DailyCalories)

	goals.WaterGlasses = 0
	assert.False(t, s.UpdateGoals(ctx, goals))
	assert.Equal(t, 8, s.Snapshot().Goals.WaterGlasses)

	require.True(t, s.UpdateWaterIntake(ctx, 5))
	assert.Equal(t, 5, s.Snapshot().Ledger.WaterGlasses)
	assert.False(t, s.UpdateWaterIntake(ctx, -2))
}

func TestService_RefreshLoadsPersistedState(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestService(t)

	goals := types.DefaultGoals()
	goals.DailyProtein = 120
	require.True(t, s.UpdateGoals(ctx, goals))
	require.True(t, s.SetDarkMode(ctx, true))
	require.True(t, s.AddFoodToMeal(ctx, &types.ScanResult{FoodName: "Poha"}, types.Breakfast))

	other := NewService(ledger.New(kv, nil, s.log), kv, s.log)
	require.NoError(t, other.Refresh(ctx))

	snap := other.Snapshot()
	assert.Equal(t, 120.0, snap.Goals.DailyProtein)
	assert.Equal(t, Dark, snap.Theme)
	require.Len(t, snap.RecentScans, 1)
	assert.Equal(t, "Poha", snap.RecentScans[0].FoodName)
	assert.Len(t, snap.Ledger.Breakfast, 1)
}

func TestService_SubscribeCancel(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)

	ch, cancel := s.Subscribe()
	require.True(t, s.SetDarkMode(ctx, true))
	assert.Equal(t, Dark, next(t, ch).Theme)

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)

	// publishing after cancel must not panic
	assert.True(t, s.SetDarkMode(ctx, false))
}

func TestTheme(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestService(t)

	mode, err := LoadTheme(ctx, kv)
	require.NoError(t, err)
	assert.Equal(t, Light, mode)

	assert.Equal(t, Dark, s.ToggleTheme(ctx))
	raw, err := kv.Get(ctx, ThemeKey)
	require.NoError(t, err)
	assert.Equal(t, "true", raw)
	assert.Equal(t, Light, s.ToggleTheme(ctx))

	require.NoError(t, kv.Set(ctx, ThemeKey, "garbage"))
	mode, err = LoadTheme(ctx, kv)
	require.NoError(t, err)
	assert.Equal(t, Light, mode)

	light, dark := Light.Colors(), Dark.Colors()
	assert.Equal(t, "#4CAF50", light.Primary)
	assert.Equal(t, "#45a049", light.PrimaryDark)
	assert.Equal(t, "#2E7D32", dark.PrimaryDark)
	assert.Equal(t, "#121212", dark.Background)
	assert.Equal(t, light.Secondary, dark.Secondary)
	assert.Equal(t, "dark", Dark.String())
}

func TestService_OtherDaysLeaveSnapshot(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	yesterday := time.Now().AddDate(0, 0, -1)

	l := s.LogFood(ctx, &types.ScanResult{FoodName: "Upma", Nutrition: types.NutrientSet{Calories: 250}}, types.Breakfast, yesterday)
	require.NotNil(t, l)
	assert.Equal(t, ledger.DateKey(yesterday), l.Date)
	assert.Len(t, l.Breakfast, 1)

	snap := s.Snapshot()
	assert.Empty(t, snap.Ledger.Breakfast, "today's ledger is untouched")
	require.Len(t, snap.RecentScans, 1, "recent scans span every day")

	w := s.SetWater(ctx, 4, yesterday)
	require.NotNil(t, w)
	assert.Equal(t, 4, w.WaterGlasses)
	assert.Zero(t, s.Snapshot().Ledger.WaterGlasses)

	assert.Nil(t, s.LogFood(ctx, &types.ScanResult{FoodName: "x"}, types.MealType("tea"), yesterday))
	assert.Nil(t, s.SetWater(ctx, -1, yesterday))
}

func TestService_ClearAll(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestService(t)

	require.True(t, s.AddFoodToMeal(ctx, &types.ScanResult{FoodName: "Poha"}, types.Breakfast))
	require.True(t, s.SetDarkMode(ctx, true))
	require.True(t, s.ClearAll(ctx))

	snap := s.Snapshot()
	assert.Empty(t, snap.Ledger.Breakfast)
	assert.Empty(t, snap.RecentScans)
	assert.Equal(t, Light, snap.Theme)

	kv.SetError(errors.New("storage offline"))
	assert.False(t, s.ClearAll(ctx))
}

func TestSnapshot_ThemeByName(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	require.True(t, s.SetDarkMode(ctx, true))

	data, err := json.Marshal(s.Snapshot())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"theme":"dark"`)

	var back Snapshot
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, Dark, back.Theme)

	var mode ThemeMode
	assert.Error(t, json.Unmarshal([]byte(`"sepia"`), &mode))
}
