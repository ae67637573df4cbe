package ledger

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/noot-app/foodlens/internal/storage"
	"github.com/noot-app/foodlens/internal/types"
)

const (
	RecentScansCap     = 50
	DefaultRecentLimit = 10
)

var validate = validator.New()

// GetGoals returns the saved goals. Fields missing from the record keep their defaults.
func (s *Store) GetGoals(ctx context.Context) (types.UserGoals, error) {
	goals := types.DefaultGoals()
	if _, err := storage.GetJSON(ctx, s.kv, GoalsKey, &goals); err != nil {
		return types.UserGoals{}, fmt.Errorf("failed to read goals: %w", err)
	}
	return goals, nil
}

// SaveGoals validates and replaces the goals record
func (s *Store) SaveGoals(ctx context.Context, goals types.UserGoals) error {
	if err := validate.Struct(goals); err != nil {
		return fmt.Errorf("invalid goals: %w", err)
	}
	if err := storage.SetJSON(ctx, s.kv, GoalsKey, goals); err != nil {
		return fmt.Errorf("failed to save goals: %w", err)
	}
	s.log.Info("goals saved", "calories", goals.DailyCalories, "protein", goals.DailyProtein)
	return nil
}

// GetProfile returns the saved profile or the default one
func (s *Store) GetProfile(ctx context.Context) (types.UserProfile, error) {
	profile := types.DefaultProfile()
	if _, err := storage.GetJSON(ctx, s.kv, ProfileKey, &profile); err != nil {
		return types.UserProfile{}, fmt.Errorf("failed to read profile: %w", err)
	}
	return profile, nil
}

// SaveProfile validates and replaces the profile. A missing join date is set to now.
func (s *Store) SaveProfile(ctx context.Context, profile types.UserProfile) error {
	if err := validate.Struct(profile); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}
	if profile.JoinDate == nil {
		now := s.now()
		profile.JoinDate = &now
	}
	if err := storage.SetJSON(ctx, s.kv, ProfileKey, profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// GetRecentScans returns up to limit entries, most recent first.
// limit <= 0 means DefaultRecentLimit.
func (s *Store) GetRecentScans(ctx context.Context, limit int) ([]types.FoodEntry, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	scans, err := s.readRecent(ctx)
	if err != nil {
		return nil, err
	}
	if len(scans) > limit {
		scans = scans[:limit]
	}
	return scans, nil
}

func (s *Store) readRecent(ctx context.Context) ([]types.FoodEntry, error) {
	scans := []types.FoodEntry{}
	if _, err := storage.GetJSON(ctx, s.kv, RecentScansKey, &scans); err != nil {
		return nil, fmt.Errorf("failed to read recent scans: %w", err)
	}
	return scans, nil
}

func (s *Store) pushRecent(ctx context.Context, entry types.FoodEntry) error {
	s.recentMu.Lock()
	defer s.recentMu.Unlock()

	scans, err := s.readRecent(ctx)
	if err != nil {
		return err
	}
	scans = append([]types.FoodEntry{entry}, scans...)
	if len(scans) > RecentScansCap {
		scans = scans[:RecentScansCap]
	}
	return storage.SetJSON(ctx, s.kv, RecentScansKey, scans)
}
