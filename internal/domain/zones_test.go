package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyZoneBoundaries(t *testing.T) {
	cases := []struct {
		heartRate float64
		want      Zone
	}{
		{0, ZoneResting},
		{55, ZoneResting},
		{59.9, ZoneResting},
		{60, ZoneNormal},
		{99, ZoneNormal},
		{100, ZoneElevated},
		{139, ZoneElevated},
		{140, ZoneHigh},
		{169, ZoneHigh},
		{170, ZoneMax},
		{180, ZoneMax},
		{220, ZoneMax},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, ClassifyZone(tc.heartRate), "heart rate %v", tc.heartRate)
	}
}

func TestBumpIncrementsExactlyOneCounter(t *testing.T) {
	for _, zone := range []Zone{ZoneResting, ZoneNormal, ZoneElevated, ZoneHigh, ZoneMax} {
		var z HeartRateZones
		z.Bump(zone)

		total := z.RestingMinutes + z.NormalMinutes + z.ElevatedMinutes + z.HighMinutes + z.MaxMinutes
		require.Equal(t, 1, total, "zone %s", zone)
	}
}

func TestBumpNeverDecreases(t *testing.T) {
	var z HeartRateZones
	for i := 0; i < 5; i++ {
		before := z.MaxMinutes
		z.Bump(ZoneMax)
		require.Equal(t, before+1, z.MaxMinutes)
	}
}
