package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }

func TestComputeDailySummaryAveragesAndCumulativeMax(t *testing.T) {
	day := time.Date(2025, time.June, 3, 0, 0, 0, 0, time.UTC)
	now := day.Add(20 * time.Hour)

	readings := []Reading{
		{HeartRate: fp(60), HRV: fp(40), Steps: fp(2000), ActiveEnergy: fp(120), ExerciseMinutes: fp(5), WellnessScore: fp(70)},
		{HeartRate: fp(80), HRV: fp(80), Steps: fp(9000), ActiveEnergy: fp(340), ExerciseMinutes: fp(25)},
		{Steps: fp(4000)}, // cumulative counters can arrive out of order
	}

	summary := ComputeDailySummary("user-1", day, readings, now)

	require.Equal(t, "user-1", summary.UserID)
	require.Equal(t, day, summary.Day)
	require.NotNil(t, summary.AvgHeartRate)
	require.InDelta(t, 70, *summary.AvgHeartRate, 1e-9)
	require.NotNil(t, summary.AvgHRV)
	require.InDelta(t, 60, *summary.AvgHRV, 1e-9)
	require.NotNil(t, summary.TotalSteps)
	require.InDelta(t, 9000, *summary.TotalSteps, 1e-9)
	require.NotNil(t, summary.TotalCalories)
	require.InDelta(t, 340, *summary.TotalCalories, 1e-9)
	require.NotNil(t, summary.TotalExerciseMinutes)
	require.InDelta(t, 25, *summary.TotalExerciseMinutes, 1e-9)
	require.NotNil(t, summary.AvgWellnessScore)
	require.InDelta(t, 70, *summary.AvgWellnessScore, 1e-9)
	require.Equal(t, RecoveryGood, summary.RecoveryStatus)
}

func TestComputeDailySummaryIsIdempotent(t *testing.T) {
	day := time.Date(2025, time.June, 3, 0, 0, 0, 0, time.UTC)
	now := day.Add(time.Hour)

	readings := []Reading{
		{HeartRate: fp(55), HRV: fp(70), Steps: fp(12000)},
		{HeartRate: fp(95)},
	}

	first := ComputeDailySummary("user-1", day, readings, now)
	second := ComputeDailySummary("user-1", day, readings, now)
	require.Equal(t, first, second)
}

func TestComputeDailySummaryEmptyDay(t *testing.T) {
	day := time.Date(2025, time.June, 3, 0, 0, 0, 0, time.UTC)

	summary := ComputeDailySummary("user-1", day, nil, day)

	require.Nil(t, summary.AvgHeartRate)
	require.Nil(t, summary.AvgHRV)
	require.Nil(t, summary.TotalSteps)
	require.Nil(t, summary.TotalCalories)
	require.Nil(t, summary.TotalExerciseMinutes)
	require.Nil(t, summary.AvgWellnessScore)
	require.Equal(t, RecoveryUnknown, summary.RecoveryStatus)
}

func TestClassifyRecovery(t *testing.T) {
	cases := []struct {
		name   string
		avgHRV *float64
		want   RecoveryStatus
	}{
		{"absent", nil, RecoveryUnknown},
		{"excellent", fp(70), RecoveryExcellent},
		{"just above excellent threshold", fp(65.1), RecoveryExcellent},
		{"boundary 65 is good", fp(65), RecoveryGood},
		{"good", fp(60), RecoveryGood},
		{"boundary 50 is moderate", fp(50), RecoveryModerate},
		{"moderate", fp(40), RecoveryModerate},
		{"boundary 35 is low", fp(35), RecoveryLow},
		{"low", fp(20), RecoveryLow},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ClassifyRecovery(tc.avgHRV))
		})
	}
}

func TestAggregateSum(t *testing.T) {
	got := aggregate(AggregateSum, []float64{1, 2, 3})
	require.NotNil(t, got)
	require.InDelta(t, 6, *got, 1e-9)
}
