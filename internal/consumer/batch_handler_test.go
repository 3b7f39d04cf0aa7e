package consumer

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/biometrics/internal/domain"
)

type stubSyncer struct {
	input domain.SyncInput
	items []domain.BatchItem
	calls int
	err   error
}

func (s *stubSyncer) SyncBatch(_ context.Context, input domain.SyncInput, items []domain.BatchItem) (int, *domain.User, error) {
	s.input = input
	s.items = items
	s.calls++
	if s.err != nil {
		return 0, nil, s.err
	}
	return len(items), &domain.User{ID: "user-1"}, nil
}

func TestBatchHandlerDecodesPayload(t *testing.T) {
	syncer := &stubSyncer{}
	handler := NewBatchHandler(syncer)

	payload := `{"device_id":"watch-1","name":"Alex","readings":[{"heart_rate":72,"steps":100},{"hrv":45}]}`
	err := handler.Handle(context.Background(), Message{Payload: json.RawMessage(payload)})
	require.NoError(t, err)

	require.Equal(t, 1, syncer.calls)
	require.Equal(t, "watch-1", syncer.input.DeviceID)
	require.Equal(t, "Alex", syncer.input.Name)
	require.Len(t, syncer.items, 2)
	require.NotNil(t, syncer.items[0].Metrics.HeartRate)
	require.InDelta(t, 72, *syncer.items[0].Metrics.HeartRate, 1e-9)
	require.Nil(t, syncer.items[1].Metrics.HeartRate)
	require.NotNil(t, syncer.items[1].Metrics.HRV)
}

func TestBatchHandlerHeaderDeviceWins(t *testing.T) {
	syncer := &stubSyncer{}
	handler := NewBatchHandler(syncer)

	payload := `{"device_id":"payload-device","readings":[{}]}`
	err := handler.Handle(context.Background(), Message{
		DeviceID: "header-device",
		Payload:  json.RawMessage(payload),
	})
	require.NoError(t, err)
	require.Equal(t, "header-device", syncer.input.DeviceID)
}

func TestBatchHandlerRejectsMissingReadings(t *testing.T) {
	syncer := &stubSyncer{}
	handler := NewBatchHandler(syncer)

	err := handler.Handle(context.Background(), Message{Payload: json.RawMessage(`{"device_id":"watch-1"}`)})
	require.Error(t, err)
	require.Equal(t, 0, syncer.calls)
}
