package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"example.com/biometrics/internal/domain"
)

// batchSyncer is the slice of the domain service the handler needs.
type batchSyncer interface {
	SyncBatch(ctx context.Context, input domain.SyncInput, items []domain.BatchItem) (int, *domain.User, error)
}

// BatchHandler turns consumed messages into batch syncs.
type BatchHandler struct {
	service batchSyncer
}

// NewBatchHandler constructs a handler backed by the domain service.
func NewBatchHandler(service batchSyncer) *BatchHandler {
	return &BatchHandler{service: service}
}

type batchPayload struct {
	UserID   string `json:"user_id"`
	DeviceID string `json:"device_id"`
	Name     string `json:"name"`
	Readings []struct {
		Timestamp       *time.Time `json:"timestamp"`
		HeartRate       *float64   `json:"heart_rate"`
		HRV             *float64   `json:"hrv"`
		ActiveEnergy    *float64   `json:"active_energy"`
		Steps           *float64   `json:"steps"`
		ExerciseMinutes *float64   `json:"exercise_minutes"`
		MinHeartRate    *float64   `json:"min_heart_rate"`
		MaxHeartRate    *float64   `json:"max_heart_rate"`
		AvgHeartRate    *float64   `json:"avg_heart_rate"`
		WellnessScore   *float64   `json:"wellness_score"`
	} `json:"readings"`
}

// Handle decodes one batch payload and commits it through the service. The
// device_id header wins over the payload field when both are present.
func (h *BatchHandler) Handle(ctx context.Context, msg Message) error {
	var payload batchPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return err
	}
	if msg.DeviceID != "" {
		payload.DeviceID = msg.DeviceID
	}
	if payload.Readings == nil {
		return errors.New("payload readings must be a list")
	}

	items := make([]domain.BatchItem, 0, len(payload.Readings))
	for _, r := range payload.Readings {
		items = append(items, domain.BatchItem{
			RecordedAt: r.Timestamp,
			Metrics: domain.MetricFields{
				HeartRate:       r.HeartRate,
				HRV:             r.HRV,
				ActiveEnergy:    r.ActiveEnergy,
				Steps:           r.Steps,
				ExerciseMinutes: r.ExerciseMinutes,
				MinHeartRate:    r.MinHeartRate,
				MaxHeartRate:    r.MaxHeartRate,
				AvgHeartRate:    r.AvgHeartRate,
				WellnessScore:   r.WellnessScore,
			},
		})
	}

	_, _, err := h.service.SyncBatch(ctx, domain.SyncInput{
		UserID:   payload.UserID,
		DeviceID: payload.DeviceID,
		Name:     payload.Name,
	}, items)
	return err
}
