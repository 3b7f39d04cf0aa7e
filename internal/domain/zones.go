package domain

// Zone is one of the five heart-rate bands.
type Zone string

const (
	ZoneResting  Zone = "resting"
	ZoneNormal   Zone = "normal"
	ZoneElevated Zone = "elevated"
	ZoneHigh     Zone = "high"
	ZoneMax      Zone = "max"
)

// ClassifyZone buckets a heart-rate value into exactly one zone. Boundaries
// are half-open, so 60 is normal, 140 is high and 170 is max.
func ClassifyZone(heartRate float64) Zone {
	switch {
	case heartRate < 60:
		return ZoneResting
	case heartRate < 100:
		return ZoneNormal
	case heartRate < 140:
		return ZoneElevated
	case heartRate < 170:
		return ZoneHigh
	default:
		return ZoneMax
	}
}

// Bump increments the counter for the given zone by one reading.
func (z *HeartRateZones) Bump(zone Zone) {
	switch zone {
	case ZoneResting:
		z.RestingMinutes++
	case ZoneNormal:
		z.NormalMinutes++
	case ZoneElevated:
		z.ElevatedMinutes++
	case ZoneHigh:
		z.HighMinutes++
	case ZoneMax:
		z.MaxMinutes++
	}
}
