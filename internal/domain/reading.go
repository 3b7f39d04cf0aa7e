package domain

import "time"

// User is the owner of all biometric data. Device id is the natural key used
// to resolve repeat syncs from the same physical wearable; UserID is the
// stable internal key used everywhere else.
type User struct {
	ID          string
	DeviceID    string
	DisplayName string
	CreatedAt   time.Time
	LastSyncAt  *time.Time
}

// Reading is one timestamped biometric sample. Every metric is optional; a
// reading need not carry more than its owner and timestamp. Readings are
// immutable once written.
type Reading struct {
	ID              string
	UserID          string
	RecordedAt      time.Time
	HeartRate       *float64
	HRV             *float64
	ActiveEnergy    *float64
	Steps           *float64
	ExerciseMinutes *float64
	MinHeartRate    *float64
	MaxHeartRate    *float64
	AvgHeartRate    *float64
	WellnessScore   *float64
	CreatedAt       time.Time
}

// RecoveryStatus is the qualitative label derived from average HRV.
type RecoveryStatus string

const (
	RecoveryExcellent RecoveryStatus = "excellent"
	RecoveryGood      RecoveryStatus = "good"
	RecoveryModerate  RecoveryStatus = "moderate"
	RecoveryLow       RecoveryStatus = "low"
	RecoveryUnknown   RecoveryStatus = "unknown"
)

// DailySummary is the fully recomputed per-day aggregate. Exactly one row per
// (user, day); every field is replaced on each recompute.
type DailySummary struct {
	UserID               string
	Day                  time.Time
	AvgHeartRate         *float64
	AvgHRV               *float64
	TotalSteps           *float64
	TotalCalories        *float64
	TotalExerciseMinutes *float64
	AvgWellnessScore     *float64
	RecoveryStatus       RecoveryStatus
	UpdatedAt            time.Time
}

// HeartRateZones holds the five per-day zone counters. Counters only ever go
// up, one unit per qualifying reading. A reading stands in for one elapsed
// minute in its zone; the counters are a sample count, not a continuous-time
// integral.
type HeartRateZones struct {
	UserID          string
	Day             time.Time
	RestingMinutes  int
	NormalMinutes   int
	ElevatedMinutes int
	HighMinutes     int
	MaxMinutes      int
}

// BreathingSession is a write-once log entry for a guided breathing exercise.
type BreathingSession struct {
	ID            string
	UserID        string
	StartedAt     time.Time
	DurationSec   int
	PreHeartRate  *float64
	PostHeartRate *float64
}

// HeartRateDelta is the pre-minus-post change across a breathing session.
// Nil when either side was not captured.
func (s BreathingSession) HeartRateDelta() *float64 {
	if s.PreHeartRate == nil || s.PostHeartRate == nil {
		return nil
	}
	delta := *s.PreHeartRate - *s.PostHeartRate
	return &delta
}

// HeartRatePoint is one day of heart-rate stats in a trend series.
type HeartRatePoint struct {
	Day time.Time
	Avg float64
	Min float64
	Max float64
}

// ValuePoint is one day of a single-valued trend series.
type ValuePoint struct {
	Day   time.Time
	Value float64
}

// TrendBundle groups the day-bucketed series over a recent window. Days with
// no readings are absent, never zero-filled.
type TrendBundle struct {
	HeartRate []HeartRatePoint
	HRV       []ValuePoint
	Steps     []ValuePoint
	Wellness  []ValuePoint
}

// Insight is one qualitative observation over a user's recent readings.
type Insight struct {
	Type     string
	Category string
	Message  string
	Value    float64
}

// DayOf truncates a timestamp to its UTC calendar day.
func DayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
