// Package api exposes HTTP handlers for the biometrics service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/biometrics/internal/domain"
)

const dateLayout = "2006-01-02"

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/users", h.registerUser)
	mux.HandleFunc("/v1/sync", h.syncOne)
	mux.HandleFunc("/v1/sync/batch", h.syncBatch)
	mux.HandleFunc("/v1/readings", h.listReadings)
	mux.HandleFunc("/v1/readings/latest", h.latestReading)
	mux.HandleFunc("/v1/summary/daily", h.dailySummary)
	mux.HandleFunc("/v1/summary/weekly", h.weeklySummaries)
	mux.HandleFunc("/v1/trends", h.trends)
	mux.HandleFunc("/v1/breathing", h.breathing)
	mux.HandleFunc("/v1/insights", h.insights)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// RegisterUserRequest is the payload for POST /v1/users.
type RegisterUserRequest struct {
	DeviceID string `json:"device_id"`
	Name     string `json:"name"`
}

func (h *Handler) registerUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	var req RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if strings.TrimSpace(req.DeviceID) == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "device_id is required")
		return
	}

	user, err := h.service.RegisterUser(r.Context(), req.DeviceID, req.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserView(*user))
}

// SyncRequest is the payload for POST /v1/sync. Every metric is optional.
type SyncRequest struct {
	UserID          string     `json:"user_id"`
	DeviceID        string     `json:"device_id"`
	Name            string     `json:"name"`
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
}

func (r SyncRequest) metrics() domain.MetricFields {
	return domain.MetricFields{
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

// SyncResponse describes the response body for a single sync.
type SyncResponse struct {
	ReadingID string `json:"reading_id"`
	UserID    string `json:"user_id"`
}

func (h *Handler) syncOne(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	reading, user, err := h.service.SyncOne(r.Context(), domain.SyncInput{
		UserID:     req.UserID,
		DeviceID:   req.DeviceID,
		Name:       req.Name,
		RecordedAt: req.Timestamp,
		Metrics:    req.metrics(),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, SyncResponse{ReadingID: reading.ID, UserID: user.ID})
}

// BatchSyncRequest is the payload for POST /v1/sync/batch.
type BatchSyncRequest struct {
	UserID   string             `json:"user_id"`
	DeviceID string             `json:"device_id"`
	Name     string             `json:"name"`
	Readings []BatchReadingItem `json:"readings"`
}

// BatchReadingItem is one reading inside a batch payload.
type BatchReadingItem struct {
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
}

// BatchSyncResponse describes the response body for a batch sync.
type BatchSyncResponse struct {
	Count  int    `json:"count"`
	UserID string `json:"user_id"`
}

func (h *Handler) syncBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	var req BatchSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if req.Readings == nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "readings must be a list")
		return
	}

	items := make([]domain.BatchItem, 0, len(req.Readings))
	for _, item := range req.Readings {
		items = append(items, domain.BatchItem{
			RecordedAt: item.Timestamp,
			Metrics: domain.MetricFields{
				HeartRate:       item.HeartRate,
				HRV:             item.HRV,
				ActiveEnergy:    item.ActiveEnergy,
				Steps:           item.Steps,
				ExerciseMinutes: item.ExerciseMinutes,
				MinHeartRate:    item.MinHeartRate,
				MaxHeartRate:    item.MaxHeartRate,
				AvgHeartRate:    item.AvgHeartRate,
				WellnessScore:   item.WellnessScore,
			},
		})
	}

	count, user, err := h.service.SyncBatch(r.Context(), domain.SyncInput{
		UserID:   req.UserID,
		DeviceID: req.DeviceID,
		Name:     req.Name,
	}, items)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, BatchSyncResponse{Count: count, UserID: user.ID})
}

func (h *Handler) listReadings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	var since *time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", "since must be an RFC 3339 timestamp")
			return
		}
		since = &parsed
	}

	readings, err := h.service.Readings(r.Context(), userID, since, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	views := make([]ReadingView, 0, len(readings))
	for _, reading := range readings {
		views = append(views, toReadingView(reading))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) latestReading(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	reading, err := h.service.Latest(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if reading == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, toReadingView(*reading))
}

// DailySummaryResponse pairs the summary row with the day's zone counters.
// Both are null for a day with no readings.
type DailySummaryResponse struct {
	Summary *SummaryView `json:"summary"`
	Zones   *ZonesView   `json:"zones"`
}

func (h *Handler) dailySummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	day := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	summary, zones, err := h.service.DailySummary(r.Context(), userID, day)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := DailySummaryResponse{}
	if summary != nil {
		view := toSummaryView(*summary)
		resp.Summary = &view
	}
	if zones != nil {
		view := toZonesView(*zones)
		resp.Zones = &view
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) weeklySummaries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	summaries, err := h.service.WeeklySummaries(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	views := make([]SummaryView, 0, len(summaries))
	for _, summary := range summaries {
		views = append(views, toSummaryView(summary))
	}
	writeJSON(w, http.StatusOK, views)
}

// TrendsResponse groups the day-bucketed series.
type TrendsResponse struct {
	HeartRate []HeartRatePointView `json:"heart_rate"`
	HRV       []ValuePointView     `json:"hrv"`
	Steps     []ValuePointView     `json:"steps"`
	Wellness  []ValuePointView     `json:"wellness"`
}

func (h *Handler) trends(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	// Anything unparsable falls back to the default window.
	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			days = parsed
		}
	}

	bundle, err := h.service.Trends(r.Context(), userID, days)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := TrendsResponse{
		HeartRate: make([]HeartRatePointView, 0, len(bundle.HeartRate)),
		HRV:       make([]ValuePointView, 0, len(bundle.HRV)),
		Steps:     make([]ValuePointView, 0, len(bundle.Steps)),
		Wellness:  make([]ValuePointView, 0, len(bundle.Wellness)),
	}
	for _, p := range bundle.HeartRate {
		resp.HeartRate = append(resp.HeartRate, HeartRatePointView{Date: p.Day.Format(dateLayout), Avg: p.Avg, Min: p.Min, Max: p.Max})
	}
	for _, p := range bundle.HRV {
		resp.HRV = append(resp.HRV, ValuePointView{Date: p.Day.Format(dateLayout), Value: p.Value})
	}
	for _, p := range bundle.Steps {
		resp.Steps = append(resp.Steps, ValuePointView{Date: p.Day.Format(dateLayout), Value: p.Value})
	}
	for _, p := range bundle.Wellness {
		resp.Wellness = append(resp.Wellness, ValuePointView{Date: p.Day.Format(dateLayout), Value: p.Value})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) breathing(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.logBreathing(w, r)
	case http.MethodGet:
		h.breathingHistory(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

// BreathingRequest is the payload for POST /v1/breathing.
type BreathingRequest struct {
	UserID        string   `json:"user_id"`
	DurationSec   int      `json:"duration_sec"`
	PreHeartRate  *float64 `json:"pre_heart_rate"`
	PostHeartRate *float64 `json:"post_heart_rate"`
}

// BreathingResponse describes the response body for a logged session.
type BreathingResponse struct {
	SessionID string   `json:"session_id"`
	HRDelta   *float64 `json:"hr_delta"`
}

func (h *Handler) logBreathing(w http.ResponseWriter, r *http.Request) {
	var req BreathingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "user_id is required")
		return
	}
	if req.DurationSec <= 0 {
		writeError(w, http.StatusBadRequest, "validation_failed", "duration_sec must be > 0")
		return
	}

	session, err := h.service.LogBreathingSession(r.Context(), req.UserID, req.DurationSec, req.PreHeartRate, req.PostHeartRate)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, BreathingResponse{SessionID: session.ID, HRDelta: session.HeartRateDelta()})
}

func (h *Handler) breathingHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	limit := 30
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	sessions, err := h.service.BreathingHistory(r.Context(), userID, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	views := make([]BreathingSessionView, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, toBreathingView(session))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) insights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	insights, err := h.service.Insights(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	views := make([]InsightView, 0, len(insights))
	for _, insight := range insights {
		views = append(views, InsightView(insight))
	}
	writeJSON(w, http.StatusOK, views)
}

func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "missing user_id parameter")
		return "", false
	}
	return userID, true
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNoIdentity), errors.Is(err, domain.ErrEmptyBatch):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
