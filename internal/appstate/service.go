// Package appstate is the single owner of what a client shows: today's ledger, the
// goals, the latest scans and the theme. Consumers get it injected and either read a
// Snapshot or subscribe to changes; mutations report plain success flags.
package appstate

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/noot-app/foodlens/internal/ledger"
	"github.com/noot-app/foodlens/internal/storage"
	"github.com/noot-app/foodlens/internal/types"
)

// RecentLimit is how many scans a snapshot carries
const RecentLimit = 4

// Snapshot is an immutable view of the application state
type Snapshot struct {
	Ledger      *types.DailyLedger `json:"ledger"`
	Goals       types.UserGoals    `json:"goals"`
	RecentScans []types.FoodEntry  `json:"recentScans"`
	Theme       ThemeMode          `json:"theme"`
	LoadedAt    time.Time          `json:"loadedAt"`
}

// Service holds the current Snapshot
type Service struct {
	store *ledger.Store
	kv    storage.Store
	now   func() time.Time
	log   *slog.Logger

	mu   sync.RWMutex
	snap Snapshot

	subMu  sync.Mutex
	subs   map[int]chan Snapshot
	nextID int
}

// NewService creates a service with a default snapshot. Call Refresh to load.
func NewService(store *ledger.Store, kv storage.Store, logger *slog.Logger) *Service {
	s := &Service{
		store: store,
		kv:    kv,
		now:   time.Now,
		log:   logger,
		subs:  make(map[int]chan Snapshot),
	}
	s.snap = s.fallback()
	return s
}

func (s *Service) fallback() Snapshot {
	return Snapshot{
		Ledger:      types.NewDailyLedger(ledger.DateKey(s.now())),
		Goals:       types.DefaultGoals(),
		RecentScans: []types.FoodEntry{},
		Theme:       Light,
		LoadedAt:    s.now(),
	}
}

// Snapshot returns the current state
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Subscribe returns a channel that receives every new snapshot and a func that ends
// the subscription. Slow subscribers only see the latest snapshot.
func (s *Service) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

func (s *Service) set(update func(*Snapshot)) {
	s.mu.Lock()
	update(&s.snap)
	s.snap.LoadedAt = s.now()
	snap := s.snap
	s.mu.Unlock()

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// Refresh reloads everything. Parts that fail to load fall back to defaults and the
// joined error is returned.
func (s *Service) Refresh(ctx context.Context) error {
	next := s.fallback()
	var errs []error

	if l, err := s.store.GetDailyIntake(ctx, s.now()); err != nil {
		errs = append(errs, err)
	} else {
		next.Ledger = l
	}
	if g, err := s.store.GetGoals(ctx); err != nil {
		errs = append(errs, err)
	} else {
		next.Goals = g
	}
	if scans, err := s.store.GetRecentScans(ctx, RecentLimit); err != nil {
		errs = append(errs, err)
	} else {
		next.RecentScans = scans
	}
	if mode, err := LoadTheme(ctx, s.kv); err != nil {
		errs = append(errs, err)
	} else {
		next.Theme = mode
	}

	err := errors.Join(errs...)
	if err != nil {
		s.log.Error("state refresh incomplete, using defaults", "error", err)
	}
	s.set(func(snap *Snapshot) { *snap = next })
	return err
}

// isToday reports whether date falls on the snapshot's day
func (s *Service) isToday(date time.Time) bool {
	return ledger.DateKey(date) == ledger.DateKey(s.now())
}

// LogFood adds a scan to the ledger of date and returns that ledger, or nil when
// it could not be saved. The snapshot follows only changes to today.
func (s *Service) LogFood(ctx context.Context, scan *types.ScanResult, meal types.MealType, date time.Time) *types.DailyLedger {
	l, err := s.store.AddFoodToMeal(ctx, scan, meal, date)
	if err != nil {
		s.log.Error("failed to add food", "meal", meal, "date", ledger.DateKey(date), "error", err)
		return nil
	}
	scans, err := s.store.GetRecentScans(ctx, RecentLimit)
	if err != nil {
		s.log.Warn("could not reload recent scans", "error", err)
	}
	today := s.isToday(date)
	s.set(func(snap *Snapshot) {
		if today {
			snap.Ledger = l
		}
		if err == nil {
			snap.RecentScans = scans
		}
	})
	return l
}

// AddFoodToMeal logs a scan into today's ledger
func (s *Service) AddFoodToMeal(ctx context.Context, scan *types.ScanResult, meal types.MealType) bool {
	return s.LogFood(ctx, scan, meal, s.now()) != nil
}

// UpdateGoals validates and saves goals
func (s *Service) UpdateGoals(ctx context.Context, goals types.UserGoals) bool {
	if err := s.store.SaveGoals(ctx, goals); err != nil {
		s.log.Error("failed to update goals", "error", err)
		return false
	}
	s.set(func(snap *Snapshot) { snap.Goals = goals })
	return true
}

// SaveProfile validates and saves the profile. Profiles are not part of the snapshot.
func (s *Service) SaveProfile(ctx context.Context, profile types.UserProfile) bool {
	if err := s.store.SaveProfile(ctx, profile); err != nil {
		s.log.Error("failed to save profile", "error", err)
		return false
	}
	return true
}

// SetWater sets the water count of date and returns that ledger, or nil on failure
func (s *Service) SetWater(ctx context.Context, glasses int, date time.Time) *types.DailyLedger {
	l, err := s.store.UpdateWaterIntake(ctx, glasses, date)
	if err != nil {
		s.log.Error("failed to update water intake", "glasses", glasses, "date", ledger.DateKey(date), "error", err)
		return nil
	}
	if s.isToday(date) {
		s.set(func(snap *Snapshot) { snap.Ledger = l })
	}
	return l
}

// UpdateWaterIntake sets today's water count
func (s *Service) UpdateWaterIntake(ctx context.Context, glasses int) bool {
	return s.SetWater(ctx, glasses, s.now()) != nil
}

// ClearAll wipes every record and resets the snapshot to defaults
func (s *Service) ClearAll(ctx context.Context) bool {
	if err := s.store.ClearAll(ctx); err != nil {
		s.log.Error("failed to clear data", "error", err)
		return false
	}
	next := s.fallback()
	s.set(func(snap *Snapshot) { *snap = next })
	return true
}

// SetDarkMode persists the theme preference
func (s *Service) SetDarkMode(ctx context.Context, dark bool) bool {
	mode := Light
	if dark {
		mode = Dark
	}
	if err := SaveTheme(ctx, s.kv, mode); err != nil {
		s.log.Error("failed to save theme", "error", err)
		return false
	}
	s.set(func(snap *Snapshot) { snap.Theme = mode })
	return true
}

// ToggleTheme flips the theme and returns the new mode
func (s *Service) ToggleTheme(ctx context.Context) ThemeMode {
	s.SetDarkMode(ctx, s.Snapshot().Theme != Dark)
	return s.Snapshot().Theme
}
