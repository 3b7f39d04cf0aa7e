package domain

import "time"

// Aggregation selects how same-day samples of a metric combine into the
// daily summary.
type Aggregation string

const (
	AggregateAvg Aggregation = "avg"
	AggregateMax Aggregation = "max"
	AggregateSum Aggregation = "sum"
)

// summaryField binds one DailySummary column to its source metric and
// aggregation strategy. Steps, calories and exercise minutes arrive as
// cumulative-to-date counters from the device, so their daily "total" is the
// largest value seen that day, not a running sum.
type summaryField struct {
	agg    Aggregation
	sample func(Reading) *float64
	assign func(*DailySummary, *float64)
}

var summaryPolicy = []summaryField{
	{AggregateAvg, func(r Reading) *float64 { return r.HeartRate }, func(s *DailySummary, v *float64) { s.AvgHeartRate = v }},
	{AggregateAvg, func(r Reading) *float64 { return r.HRV }, func(s *DailySummary, v *float64) { s.AvgHRV = v }},
	{AggregateMax, func(r Reading) *float64 { return r.Steps }, func(s *DailySummary, v *float64) { s.TotalSteps = v }},
	{AggregateMax, func(r Reading) *float64 { return r.ActiveEnergy }, func(s *DailySummary, v *float64) { s.TotalCalories = v }},
	{AggregateMax, func(r Reading) *float64 { return r.ExerciseMinutes }, func(s *DailySummary, v *float64) { s.TotalExerciseMinutes = v }},
	{AggregateAvg, func(r Reading) *float64 { return r.WellnessScore }, func(s *DailySummary, v *float64) { s.AvgWellnessScore = v }},
}

// ComputeDailySummary recomputes the summary row for one calendar day from
// every reading that landed on that day. Recomputing from the same reading
// set always yields the same row, which is what keeps repeated syncs and
// out-of-order timestamps correct.
func ComputeDailySummary(userID string, day time.Time, readings []Reading, now time.Time) DailySummary {
	summary := DailySummary{
		UserID:    userID,
		Day:       DayOf(day),
		UpdatedAt: now.UTC(),
	}

	for _, field := range summaryPolicy {
		var values []float64
		for _, r := range readings {
			if v := field.sample(r); v != nil {
				values = append(values, *v)
			}
		}
		field.assign(&summary, aggregate(field.agg, values))
	}

	summary.RecoveryStatus = ClassifyRecovery(summary.AvgHRV)
	return summary
}

func aggregate(agg Aggregation, values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	var out float64
	switch agg {
	case AggregateMax:
		out = values[0]
		for _, v := range values[1:] {
			if v > out {
				out = v
			}
		}
	case AggregateSum:
		for _, v := range values {
			out += v
		}
	default:
		for _, v := range values {
			out += v
		}
		out /= float64(len(values))
	}
	return &out
}

// ClassifyRecovery maps average HRV to a recovery label using fixed
// breakpoints. A missing average means no HRV reading landed that day.
func ClassifyRecovery(avgHRV *float64) RecoveryStatus {
	switch {
	case avgHRV == nil:
		return RecoveryUnknown
	case *avgHRV > 65:
		return RecoveryExcellent
	case *avgHRV > 50:
		return RecoveryGood
	case *avgHRV > 35:
		return RecoveryModerate
	default:
		return RecoveryLow
	}
}
