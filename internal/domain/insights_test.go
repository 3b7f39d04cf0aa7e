package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildInsightsEmpty(t *testing.T) {
	insights := BuildInsights(nil)
	require.NotNil(t, insights)
	require.Empty(t, insights)
}

func TestBuildInsightsHRVCountsMissingAsZero(t *testing.T) {
	// Two readings at HRV 80 would average 80, but the third reading has no
	// HRV sample and drags the mean to 53.3: no recovery insight either way.
	recent := []Reading{
		{HRV: fp(80)},
		{HRV: fp(80)},
		{},
	}

	insights := BuildInsights(recent)
	for _, insight := range insights {
		require.NotEqual(t, "recovery", insight.Category)
	}
}

func TestBuildInsightsPositiveRecovery(t *testing.T) {
	recent := []Reading{{HRV: fp(75)}, {HRV: fp(65)}}

	insights := BuildInsights(recent)
	require.Len(t, insights, 1)
	require.Equal(t, "positive", insights[0].Type)
	require.Equal(t, "recovery", insights[0].Category)
	require.InDelta(t, 70, insights[0].Value, 1e-9)
}

func TestBuildInsightsAttentionRecovery(t *testing.T) {
	recent := []Reading{{HRV: fp(20)}, {HRV: fp(25)}}

	insights := BuildInsights(recent)
	require.Len(t, insights, 1)
	require.Equal(t, "attention", insights[0].Type)
	require.Equal(t, "recovery", insights[0].Category)
}

func TestBuildInsightsFitnessUsesLowHeartRateSubset(t *testing.T) {
	// Only readings below 70 bpm feed the resting mean; the 150 bpm workout
	// sample must not disqualify the user.
	recent := []Reading{
		{HeartRate: fp(55), HRV: fp(50)},
		{HeartRate: fp(58), HRV: fp(50)},
		{HeartRate: fp(150), HRV: fp(50)},
	}

	insights := BuildInsights(recent)
	require.Len(t, insights, 1)
	require.Equal(t, "fitness", insights[0].Category)
	require.InDelta(t, 56.5, insights[0].Value, 1e-9)
}

func TestBuildInsightsNoFitnessWhenSubsetEmpty(t *testing.T) {
	recent := []Reading{{HeartRate: fp(120)}, {HeartRate: fp(95)}}

	insights := BuildInsights(recent)
	require.Empty(t, insights)
}

func TestBuildInsightsStepGoal(t *testing.T) {
	recent := []Reading{
		{Steps: fp(12000), HRV: fp(50)}, // newest first
		{Steps: fp(2000), HRV: fp(50)},
	}

	insights := BuildInsights(recent)
	require.Len(t, insights, 1)
	require.Equal(t, "achievement", insights[0].Type)
	require.Equal(t, "activity", insights[0].Category)
	require.Equal(t, "Step goal achieved", insights[0].Message)
	require.InDelta(t, 12000, insights[0].Value, 1e-9)
}

func TestBuildInsightsStepGoalUsesLatestReadingOnly(t *testing.T) {
	recent := []Reading{
		{Steps: fp(500), HRV: fp(50)},
		{Steps: fp(15000), HRV: fp(50)},
	}

	insights := BuildInsights(recent)
	require.Empty(t, insights)
}

func TestBuildInsightsWindowCap(t *testing.T) {
	// 150 readings: the first 100 carry HRV 80, the tail carries zeros that
	// must be ignored by the window cap.
	recent := make([]Reading, 150)
	for i := range recent {
		if i < insightWindow {
			recent[i] = Reading{HRV: fp(80)}
		} else {
			recent[i] = Reading{HRV: fp(0)}
		}
	}

	insights := BuildInsights(recent)
	require.Len(t, insights, 1)
	require.Equal(t, "positive", insights[0].Type)
	require.InDelta(t, 80, insights[0].Value, 1e-9)
}

func TestBuildInsightsRuleOrderIsFixed(t *testing.T) {
	recent := []Reading{
		{HRV: fp(80), HeartRate: fp(55), Steps: fp(12000)},
	}

	insights := BuildInsights(recent)
	require.Len(t, insights, 3)
	require.Equal(t, "recovery", insights[0].Category)
	require.Equal(t, "fitness", insights[1].Category)
	require.Equal(t, "activity", insights[2].Category)
}
