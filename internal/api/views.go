package api

import (
	"time"

	"example.com/biometrics/internal/domain"
)

// UserView exposes a stored user.
type UserView struct {
	UserID    string     `json:"user_id"`
	DeviceID  string     `json:"device_id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	LastSync  *time.Time `json:"last_sync,omitempty"`
}

// ReadingView exposes one stored reading.
type ReadingView struct {
	ReadingID       string    `json:"reading_id"`
	UserID          string    `json:"user_id"`
	Timestamp       time.Time `json:"timestamp"`
	HeartRate       *float64  `json:"heart_rate,omitempty"`
	HRV             *float64  `json:"hrv,omitempty"`
	ActiveEnergy    *float64  `json:"active_energy,omitempty"`
	Steps           *float64  `json:"steps,omitempty"`
	ExerciseMinutes *float64  `json:"exercise_minutes,omitempty"`
	MinHeartRate    *float64  `json:"min_heart_rate,omitempty"`
	MaxHeartRate    *float64  `json:"max_heart_rate,omitempty"`
	AvgHeartRate    *float64  `json:"avg_heart_rate,omitempty"`
	WellnessScore   *float64  `json:"wellness_score,omitempty"`
}

// SummaryView exposes one daily summary row.
type SummaryView struct {
	Date                 string   `json:"date"`
	AvgHeartRate         *float64 `json:"avg_heart_rate,omitempty"`
	AvgHRV               *float64 `json:"avg_hrv,omitempty"`
	TotalSteps           *float64 `json:"total_steps,omitempty"`
	TotalCalories        *float64 `json:"total_calories,omitempty"`
	TotalExerciseMinutes *float64 `json:"total_exercise_minutes,omitempty"`
	AvgWellnessScore     *float64 `json:"avg_wellness_score,omitempty"`
	RecoveryStatus       string   `json:"recovery_status"`
}

// ZonesView exposes one day's zone counters.
type ZonesView struct {
	Date            string `json:"date"`
	RestingMinutes  int    `json:"resting_minutes"`
	NormalMinutes   int    `json:"normal_minutes"`
	ElevatedMinutes int    `json:"elevated_minutes"`
	HighMinutes     int    `json:"high_minutes"`
	MaxMinutes      int    `json:"max_minutes"`
}

// HeartRatePointView is one day of heart-rate trend data.
type HeartRatePointView struct {
	Date string  `json:"date"`
	Avg  float64 `json:"avg"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// ValuePointView is one day of a single-valued trend series.
type ValuePointView struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// BreathingSessionView exposes one breathing session.
type BreathingSessionView struct {
	SessionID     string    `json:"session_id"`
	UserID        string    `json:"user_id"`
	StartedAt     time.Time `json:"started_at"`
	DurationSec   int       `json:"duration_sec"`
	PreHeartRate  *float64  `json:"pre_heart_rate,omitempty"`
	PostHeartRate *float64  `json:"post_heart_rate,omitempty"`
	HRDelta       *float64  `json:"hr_delta,omitempty"`
}

// InsightView exposes one insight.
type InsightView struct {
	Type     string  `json:"type"`
	Category string  `json:"category"`
	Message  string  `json:"message"`
	Value    float64 `json:"value"`
}

func toUserView(user domain.User) UserView {
	return UserView{
		UserID:    user.ID,
		DeviceID:  user.DeviceID,
		Name:      user.DisplayName,
		CreatedAt: user.CreatedAt,
		LastSync:  user.LastSyncAt,
	}
}

func toReadingView(r domain.Reading) ReadingView {
	return ReadingView{
		ReadingID:       r.ID,
		UserID:          r.UserID,
		Timestamp:       r.RecordedAt,
		HeartRate:       r.HeartRate,
		HRV:             r.HRV,
		ActiveEnergy:    r.ActiveEnergy,
		Steps:           r.Steps,
		ExerciseMinutes: r.ExerciseMinutes,
		MinHeartRate:    r.MinHeartRate,
		MaxHeartRate:    r.MaxHeartRate,
		AvgHeartRate:    r.AvgHeartRate,
		WellnessScore:   r.WellnessScore,
	}
}

func toSummaryView(s domain.DailySummary) SummaryView {
	return SummaryView{
		Date:                 s.Day.Format(dateLayout),
		AvgHeartRate:         s.AvgHeartRate,
		AvgHRV:               s.AvgHRV,
		TotalSteps:           s.TotalSteps,
		TotalCalories:        s.TotalCalories,
		TotalExerciseMinutes: s.TotalExerciseMinutes,
		AvgWellnessScore:     s.AvgWellnessScore,
		RecoveryStatus:       string(s.RecoveryStatus),
	}
}

func toZonesView(z domain.HeartRateZones) ZonesView {
	return ZonesView{
		Date:            z.Day.Format(dateLayout),
		RestingMinutes:  z.RestingMinutes,
		NormalMinutes:   z.NormalMinutes,
		ElevatedMinutes: z.ElevatedMinutes,
		HighMinutes:     z.HighMinutes,
		MaxMinutes:      z.MaxMinutes,
	}
}

func toBreathingView(s domain.BreathingSession) BreathingSessionView {
	return BreathingSessionView{
		SessionID:     s.ID,
		UserID:        s.UserID,
		StartedAt:     s.StartedAt,
		DurationSec:   s.DurationSec,
		PreHeartRate:  s.PreHeartRate,
		PostHeartRate: s.PostHeartRate,
		HRDelta:       s.HeartRateDelta(),
	}
}
