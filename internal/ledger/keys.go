package ledger

import "time"

// Storage keys
const (
	GoalsKey       = "user_goals"
	ProfileKey     = "user_profile"
	RecentScansKey = "recent_scans"
	dailyPrefix    = "daily_intake_"
)

// DateKey is the local calendar day of t as YYYY-MM-DD
func DateKey(t time.Time) string {
	return t.Local().Format(time.DateOnly)
}

// DailyKey is the storage key of a day's ledger
func DailyKey(date string) string {
	return dailyPrefix + date
}

// ParseDate reads a YYYY-MM-DD day in the local time zone. An empty string means today.
func ParseDate(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return now, nil
	}
	return time.ParseInLocation(time.DateOnly, s, time.Local)
}
