package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"example.com/biometrics/internal/domain"
)

func TestSyncOneCreatesReading(t *testing.T) {
	repo := newMockRepo()
	handler := NewHandler(domain.NewService(repo, domain.Options{}))

	body := `{"device_id":"watch-1","heart_rate":55,"hrv":70,"steps":12000}`
	req := httptest.NewRequest(http.MethodPost, "/v1/sync", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.syncOne(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp SyncResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ReadingID == "" {
		t.Fatal("expected a reading id")
	}
	if resp.UserID == "" {
		t.Fatal("expected a user id")
	}
	if len(repo.appended) != 1 {
		t.Fatalf("expected 1 appended reading got %d", len(repo.appended))
	}
	if !repo.lastOpts.Rollup {
		t.Fatal("single sync must request rollups")
	}
}

func TestSyncOneRequiresIdentity(t *testing.T) {
	handler := NewHandler(domain.NewService(newMockRepo(), domain.Options{}))

	req := httptest.NewRequest(http.MethodPost, "/v1/sync", strings.NewReader(`{"heart_rate":70}`))
	rr := httptest.NewRecorder()
	handler.syncOne(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

func TestSyncOneUnknownUserIs404(t *testing.T) {
	handler := NewHandler(domain.NewService(newMockRepo(), domain.Options{}))

	req := httptest.NewRequest(http.MethodPost, "/v1/sync", strings.NewReader(`{"user_id":"ghost"}`))
	rr := httptest.NewRecorder()
	handler.syncOne(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rr.Code)
	}
}

func TestSyncBatchRequiresReadingsList(t *testing.T) {
	handler := NewHandler(domain.NewService(newMockRepo(), domain.Options{}))

	req := httptest.NewRequest(http.MethodPost, "/v1/sync/batch", strings.NewReader(`{"device_id":"watch-1"}`))
	rr := httptest.NewRecorder()
	handler.syncBatch(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestSyncBatchCountsReadings(t *testing.T) {
	repo := newMockRepo()
	handler := NewHandler(domain.NewService(repo, domain.Options{}))

	body := `{"device_id":"watch-1","readings":[{"heart_rate":60},{"steps":500},{}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/sync/batch", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.syncBatch(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp BatchSyncResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 3 {
		t.Fatalf("expected count 3 got %d", resp.Count)
	}
	if repo.batchCalls != 1 {
		t.Fatalf("expected one batch call got %d", repo.batchCalls)
	}
	if repo.lastOpts.Rollup {
		t.Fatal("batch sync must not request rollups")
	}
}

func TestDailySummaryAbsentDayIsNull(t *testing.T) {
	handler := NewHandler(domain.NewService(newMockRepo(), domain.Options{}))

	req := httptest.NewRequest(http.MethodGet, "/v1/summary/daily?user_id=user-1&date=2025-06-03", nil)
	rr := httptest.NewRecorder()
	handler.dailySummary(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}

	var resp DailySummaryResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Summary != nil || resp.Zones != nil {
		t.Fatalf("expected null summary and zones, got %+v", resp)
	}
}

func TestDailySummaryReturnsStoredRow(t *testing.T) {
	repo := newMockRepo()
	avg := 62.5
	repo.summary = &domain.DailySummary{
		UserID:         "user-1",
		Day:            time.Date(2025, time.June, 3, 0, 0, 0, 0, time.UTC),
		AvgHRV:         &avg,
		RecoveryStatus: domain.RecoveryGood,
	}
	repo.zones = &domain.HeartRateZones{
		UserID:         "user-1",
		Day:            repo.summary.Day,
		RestingMinutes: 1,
	}
	handler := NewHandler(domain.NewService(repo, domain.Options{}))

	req := httptest.NewRequest(http.MethodGet, "/v1/summary/daily?user_id=user-1&date=2025-06-03", nil)
	rr := httptest.NewRecorder()
	handler.dailySummary(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}

	var resp DailySummaryResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Summary == nil || resp.Summary.RecoveryStatus != "good" {
		t.Fatalf("unexpected summary %+v", resp.Summary)
	}
	if resp.Summary.Date != "2025-06-03" {
		t.Fatalf("unexpected date %s", resp.Summary.Date)
	}
	if resp.Zones == nil || resp.Zones.RestingMinutes != 1 {
		t.Fatalf("unexpected zones %+v", resp.Zones)
	}
}

func TestTrendsBadDaysFallsBackToSeven(t *testing.T) {
	repo := newMockRepo()
	handler := NewHandler(domain.NewService(repo, domain.Options{}))

	req := httptest.NewRequest(http.MethodGet, "/v1/trends?user_id=user-1&days=banana", nil)
	rr := httptest.NewRecorder()
	handler.trends(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}

	wantSince := time.Now().UTC().AddDate(0, 0, -7)
	if repo.trendsSince.Before(wantSince.Add(-time.Minute)) || repo.trendsSince.After(wantSince.Add(time.Minute)) {
		t.Fatalf("expected since ≈ now-7d, got %v", repo.trendsSince)
	}
}

func TestTrendsAbsentDaysStayAbsent(t *testing.T) {
	repo := newMockRepo()
	repo.trends = &domain.TrendBundle{
		Steps: []domain.ValuePoint{{Day: time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC), Value: 9000}},
	}
	handler := NewHandler(domain.NewService(repo, domain.Options{}))

	req := httptest.NewRequest(http.MethodGet, "/v1/trends?user_id=user-1", nil)
	rr := httptest.NewRecorder()
	handler.trends(rr, req)

	var resp TrendsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Steps) != 1 {
		t.Fatalf("expected 1 steps entry got %d", len(resp.Steps))
	}
	if len(resp.HeartRate) != 0 {
		t.Fatalf("expected no heart rate entries got %d", len(resp.HeartRate))
	}
}

func TestInsightsRequiresUserID(t *testing.T) {
	handler := NewHandler(domain.NewService(newMockRepo(), domain.Options{}))

	req := httptest.NewRequest(http.MethodGet, "/v1/insights", nil)
	rr := httptest.NewRecorder()
	handler.insights(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

func TestLogBreathingReturnsDelta(t *testing.T) {
	handler := NewHandler(domain.NewService(newMockRepo(), domain.Options{}))

	body := `{"user_id":"user-1","duration_sec":300,"pre_heart_rate":78,"post_heart_rate":66}`
	req := httptest.NewRequest(http.MethodPost, "/v1/breathing", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.breathing(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp BreathingResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.HRDelta == nil || *resp.HRDelta != 12 {
		t.Fatalf("unexpected delta %v", resp.HRDelta)
	}
}

func TestRegisterUserRequiresDeviceID(t *testing.T) {
	handler := NewHandler(domain.NewService(newMockRepo(), domain.Options{}))

	req := httptest.NewRequest(http.MethodPost, "/v1/users", strings.NewReader(`{"name":"Sam"}`))
	rr := httptest.NewRecorder()
	handler.registerUser(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

type mockRepo struct {
	users       map[string]*domain.User
	appended    []domain.Reading
	lastOpts    domain.RollupOptions
	batchCalls  int
	summary     *domain.DailySummary
	zones       *domain.HeartRateZones
	trends      *domain.TrendBundle
	trendsSince time.Time
	recent      []domain.Reading
}

func newMockRepo() *mockRepo {
	return &mockRepo{users: map[string]*domain.User{}}
}

func (m *mockRepo) UpsertUserByDevice(_ context.Context, deviceID, displayName string) (*domain.User, error) {
	user := &domain.User{ID: "user-" + deviceID, DeviceID: deviceID, DisplayName: displayName, CreatedAt: time.Now().UTC()}
	m.users[user.ID] = user
	return user, nil
}

func (m *mockRepo) GetUser(_ context.Context, userID string) (*domain.User, error) {
	return m.users[userID], nil
}

func (m *mockRepo) AppendReading(_ context.Context, reading domain.Reading, opts domain.RollupOptions) error {
	m.appended = append(m.appended, reading)
	m.lastOpts = opts
	return nil
}

func (m *mockRepo) AppendBatch(_ context.Context, _ string, readings []domain.Reading, opts domain.RollupOptions) error {
	m.appended = append(m.appended, readings...)
	m.lastOpts = opts
	m.batchCalls++
	return nil
}

func (m *mockRepo) ListReadings(_ context.Context, _ string, _ *time.Time, limit int) ([]domain.Reading, error) {
	if limit < len(m.recent) {
		return m.recent[:limit], nil
	}
	return m.recent, nil
}

func (m *mockRepo) LatestReading(_ context.Context, _ string) (*domain.Reading, error) {
	if len(m.recent) == 0 {
		return nil, nil
	}
	return &m.recent[0], nil
}

func (m *mockRepo) DailySummary(context.Context, string, time.Time) (*domain.DailySummary, error) {
	return m.summary, nil
}

func (m *mockRepo) HeartRateZones(context.Context, string, time.Time) (*domain.HeartRateZones, error) {
	return m.zones, nil
}

func (m *mockRepo) SummariesSince(context.Context, string, time.Time) ([]domain.DailySummary, error) {
	if m.summary == nil {
		return nil, nil
	}
	return []domain.DailySummary{*m.summary}, nil
}

func (m *mockRepo) Trends(_ context.Context, _ string, since time.Time) (*domain.TrendBundle, error) {
	m.trendsSince = since
	if m.trends == nil {
		return &domain.TrendBundle{}, nil
	}
	return m.trends, nil
}

func (m *mockRepo) CreateBreathingSession(context.Context, domain.BreathingSession) error {
	return nil
}

func (m *mockRepo) ListBreathingSessions(context.Context, string, int) ([]domain.BreathingSession, error) {
	return nil, nil
}
