package domain

// insightWindow caps how many recent readings the heuristics look at.
const insightWindow = 100

// Fixed heuristic thresholds.
const (
	hrvHighWater     = 60
	hrvLowWater      = 30
	restingHRCutoff  = 70
	restingHRHealthy = 60
	stepGoal         = 10000
)

// BuildInsights classifies the user's most recent readings (newest first)
// into qualitative observations. Rules run independently in a fixed order
// and never remove each other's output.
//
// The HRV mean deliberately divides by the full window, counting readings
// without an HRV sample as zero. Switching to a null-excluding mean would
// change which users cross the thresholds.
func BuildInsights(recent []Reading) []Insight {
	if len(recent) == 0 {
		return []Insight{}
	}
	if len(recent) > insightWindow {
		recent = recent[:insightWindow]
	}

	insights := []Insight{}

	var hrvSum float64
	for _, r := range recent {
		if r.HRV != nil {
			hrvSum += *r.HRV
		}
	}
	hrvMean := hrvSum / float64(len(recent))
	switch {
	case hrvMean > hrvHighWater:
		insights = append(insights, Insight{
			Type:     "positive",
			Category: "recovery",
			Message:  "Your HRV trend shows excellent recovery",
			Value:    hrvMean,
		})
	case hrvMean < hrvLowWater:
		insights = append(insights, Insight{
			Type:     "attention",
			Category: "recovery",
			Message:  "Your HRV is below your usual range, consider prioritizing rest",
			Value:    hrvMean,
		})
	}

	var restingSum float64
	var restingCount int
	for _, r := range recent {
		if r.HeartRate != nil && *r.HeartRate < restingHRCutoff {
			restingSum += *r.HeartRate
			restingCount++
		}
	}
	if restingCount > 0 {
		restingMean := restingSum / float64(restingCount)
		if restingMean < restingHRHealthy {
			insights = append(insights, Insight{
				Type:     "positive",
				Category: "fitness",
				Message:  "Your resting heart rate indicates strong cardiovascular fitness",
				Value:    restingMean,
			})
		}
	}

	latest := recent[0]
	if latest.Steps != nil && *latest.Steps >= stepGoal {
		insights = append(insights, Insight{
			Type:     "achievement",
			Category: "activity",
			Message:  "Step goal achieved",
			Value:    *latest.Steps,
		})
	}

	return insights
}
