package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/noot-app/foodlens/internal/storage"
	"github.com/noot-app/foodlens/internal/types"
)

// InitKey stores the date reminders were last set up
const InitKey = "notifications_initialized_today"

// missedAfter is the hour from which an empty slot counts as missed
var missedAfter = []struct {
	meal types.MealType
	hour int
}{
	{types.Breakfast, 10},
	{types.Lunch, 15},
	{types.Dinner, 21},
}

var missedText = map[types.MealType][2]string{
	types.Breakfast: {"Missed Breakfast?", "Don't skip the most important meal! Track it now if you had something."},
	types.Lunch:     {"Lunch Missing!", "Your body needs fuel. Add your lunch to complete your nutrition tracking."},
	types.Dinner:    {"Dinner Not Logged", "Complete your day by tracking your dinner for better nutrition insights."},
}

// MissedMeal asks the user to log a slot they left empty
type MissedMeal struct {
	MealType types.MealType
}

func (e MissedMeal) Notification() Notification {
	text := missedText[e.MealType]
	return Notification{
		Type:  "missed_meal",
		Title: text[0],
		Body:  text[1],
		Data:  map[string]string{"mealType": string(e.MealType)},
	}
}

// MissedMeals lists the empty slots whose time has passed at the given hour
func MissedMeals(ledger *types.DailyLedger, hour int) []types.MealType {
	var out []types.MealType
	for _, m := range missedAfter {
		if hour >= m.hour && len(ledger.Meal(m.meal)) == 0 {
			out = append(out, m.meal)
		}
	}
	return out
}

// Reminders tracks the once-a-day reminder setup and missed-meal nudges
type Reminders struct {
	store storage.Store
	bus   *Bus
	now   func() time.Time
	log   *slog.Logger
}

func NewReminders(store storage.Store, bus *Bus, logger *slog.Logger) *Reminders {
	return &Reminders{store: store, bus: bus, now: time.Now, log: logger}
}

// CheckMissedMeals publishes a reminder for the first missed slot only and
// returns all of them
func (r *Reminders) CheckMissedMeals(ledger *types.DailyLedger) []types.MealType {
	missed := MissedMeals(ledger, r.now().Hour())
	if len(missed) > 0 && r.bus != nil {
		r.bus.Publish(MissedMeal{MealType: missed[0]})
	}
	return missed
}

// ShouldInitialize reports whether reminders have not been set up today.
// An unreadable marker counts as not set up.
func (r *Reminders) ShouldInitialize(ctx context.Context) bool {
	last, err := r.store.Get(ctx, InitKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			r.log.Warn("failed to read reminder marker", "error", err)
		}
		return true
	}
	return last != r.today()
}

// MarkInitialized records that reminders were set up today
func (r *Reminders) MarkInitialized(ctx context.Context) error {
	return r.store.Set(ctx, InitKey, r.today())
}

// Reset forgets the marker so the next start sets reminders up again
func (r *Reminders) Reset(ctx context.Context) error {
	return r.store.Delete(ctx, InitKey)
}

func (r *Reminders) today() string {
	return r.now().Format(time.DateOnly)
}
