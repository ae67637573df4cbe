// Package ledger keeps the per-day meal ledgers and the small single-record stores
// (goals, profile, recent scans) on top of a key-value store.
//
// Every read-modify-write of a day's ledger runs under that day's lock, so concurrent
// adds for the same date never lose entries. Recent scans have their own lock.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noot-app/foodlens/internal/notify"
	"github.com/noot-app/foodlens/internal/nutrition"
	"github.com/noot-app/foodlens/internal/storage"
	"github.com/noot-app/foodlens/internal/types"
)

var (
	ErrInvalidMealType = errors.New("invalid meal type")
	ErrInvalidWater    = errors.New("water glasses must not be negative")
	ErrNilScan         = errors.New("scan result is required")
)

// Publisher receives ledger events. notify.Bus satisfies it.
type Publisher interface {
	Publish(e notify.Event) bool
}

// Store is the ledger and record store
type Store struct {
	kv       storage.Store
	events   Publisher
	dayLocks sync.Map // date -> *sync.Mutex
	recentMu sync.Mutex
	now      func() time.Time
	newID    func() string
	log      *slog.Logger
}

// New creates a Store. events may be nil.
func New(kv storage.Store, events Publisher, logger *slog.Logger) *Store {
	return &Store{
		kv:     kv,
		events: events,
		now:    time.Now,
		newID:  uuid.NewString,
		log:    logger,
	}
}

func (s *Store) lockDay(date string) func() {
	mu, _ := s.dayLocks.LoadOrStore(date, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// GetDailyIntake returns the ledger for the local calendar day of date, or a zero
// ledger when nothing was logged. Storage failures are returned with a nil ledger.
func (s *Store) GetDailyIntake(ctx context.Context, date time.Time) (*types.DailyLedger, error) {
	return s.readDay(ctx, DateKey(date))
}

func (s *Store) readDay(ctx context.Context, date string) (*types.DailyLedger, error) {
	ledger := types.NewDailyLedger(date)
	found, err := storage.GetJSON(ctx, s.kv, DailyKey(date), ledger)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger %s: %w", date, err)
	}
	if found {
		ledger.Normalize()
		ledger.Date = date
	}
	return ledger, nil
}

// Totals recomputes a ledger's nutrition from its four meal slots
func Totals(ledger *types.DailyLedger) types.NutrientSet {
	entries := ledger.Entries()
	sets := make([]types.NutrientSet, 0, len(entries))
	for _, e := range entries {
		sets = append(sets, e.Nutrition)
	}
	return nutrition.Sum(sets...)
}

// AddFoodToMeal appends scan to a meal slot of the given day, recomputes the day's
// totals and persists the ledger. On error nothing was written.
// After the write the entry is pushed onto recent scans and events are published;
// neither can fail the call.
func (s *Store) AddFoodToMeal(ctx context.Context, scan *types.ScanResult, meal types.MealType, date time.Time) (*types.DailyLedger, error) {
	if scan == nil {
		return nil, ErrNilScan
	}
	slot, ok := types.ParseMealType(string(meal))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMealType, meal)
	}
	meal = slot

	day := DateKey(date)
	now := s.now()
	entry := types.FoodEntry{ID: s.newID(), ScanResult: *scan}
	entry.Timestamp = now

	unlock := s.lockDay(day)
	ledger, err := s.readDay(ctx, day)
	if err != nil {
		unlock()
		return nil, err
	}
	ledger.Append(meal, entry)
	ledger.TotalNutrition = Totals(ledger)
	if err := storage.SetJSON(ctx, s.kv, DailyKey(day), ledger); err != nil {
		unlock()
		return nil, fmt.Errorf("failed to save ledger %s: %w", day, err)
	}
	unlock()

	s.log.Info("food logged", "date", day, "meal", meal, "food", scan.FoodName, "entry_id", entry.ID, "calories", scan.Nutrition.Calories)

	recent := entry
	recent.ScannedAt = &now
	if err := s.pushRecent(ctx, recent); err != nil {
		s.log.Warn("failed to update recent scans", "entry_id", entry.ID, "error", err)
	}

	s.publish(ctx, day, meal, scan, ledger.TotalNutrition)
	return ledger, nil
}

func (s *Store) publish(ctx context.Context, day string, meal types.MealType, scan *types.ScanResult, total types.NutrientSet) {
	if s.events == nil {
		return
	}
	s.events.Publish(notify.MealLogged{
		Date:      day,
		MealType:  meal,
		FoodName:  scan.FoodName,
		Nutrition: scan.Nutrition,
	})

	goals, err := s.GetGoals(ctx)
	if err != nil {
		s.log.Warn("skipping goal check", "error", err)
		return
	}
	for _, g := range notify.EvaluateGoals(total, goals) {
		g.Date = day
		s.events.Publish(g)
	}
}

// UpdateWaterIntake overwrites the water count of a day
func (s *Store) UpdateWaterIntake(ctx context.Context, glasses int, date time.Time) (*types.DailyLedger, error) {
	if glasses < 0 {
		return nil, ErrInvalidWater
	}
	day := DateKey(date)
	defer s.lockDay(day)()

	ledger, err := s.readDay(ctx, day)
	if err != nil {
		return nil, err
	}
	ledger.WaterGlasses = glasses
	if err := storage.SetJSON(ctx, s.kv, DailyKey(day), ledger); err != nil {
		return nil, fmt.Errorf("failed to save ledger %s: %w", day, err)
	}
	return ledger, nil
}

// LoggedDates lists the days that have a stored ledger, oldest first
func (s *Store) LoggedDates(ctx context.Context) ([]string, error) {
	keys, err := s.kv.Keys(ctx, dailyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledgers: %w", err)
	}
	dates := make([]string, 0, len(keys))
	for _, k := range keys {
		dates = append(dates, k[len(dailyPrefix):])
	}
	return dates, nil
}

// ClearAll wipes every record
func (s *Store) ClearAll(ctx context.Context) error {
	if err := s.kv.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear data: %w", err)
	}
	s.log.Warn("all data cleared")
	return nil
}
