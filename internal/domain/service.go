// Package domain defines the business logic for the biometrics service.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUserNotFound is returned when neither a user nor a device can be resolved.
	ErrUserNotFound = errors.New("user not found")
	// ErrNoIdentity indicates the caller supplied neither a user id nor a device id.
	ErrNoIdentity = errors.New("user_id or device_id is required")
	// ErrEmptyBatch indicates a batch sync carried no readings.
	ErrEmptyBatch = errors.New("batch contains no readings")
)

// ZoneDatePolicy selects which calendar day a zone increment lands on.
type ZoneDatePolicy string

const (
	// ZoneDateProcessing files zone increments under the ingestion day,
	// matching the original device behavior.
	ZoneDateProcessing ZoneDatePolicy = "processing"
	// ZoneDateReading files zone increments under the reading's own
	// timestamp day, consistent with the daily summary.
	ZoneDateReading ZoneDatePolicy = "reading"
)

// DayFor resolves the zone day for one reading under this policy.
func (p ZoneDatePolicy) DayFor(r Reading, now time.Time) time.Time {
	if p == ZoneDateReading {
		return DayOf(r.RecordedAt)
	}
	return DayOf(now)
}

// RollupOptions carries the per-write rollup decisions into the repository
// transaction.
type RollupOptions struct {
	Rollup     bool
	ZonePolicy ZoneDatePolicy
	Now        time.Time
}

// Repository captures persistence operations. Append methods run as a single
// transaction: the reading insert, the last_sync update and any rollup writes
// commit or roll back together.
type Repository interface {
	UpsertUserByDevice(ctx context.Context, deviceID, displayName string) (*User, error)
	GetUser(ctx context.Context, userID string) (*User, error)
	AppendReading(ctx context.Context, reading Reading, opts RollupOptions) error
	AppendBatch(ctx context.Context, userID string, readings []Reading, opts RollupOptions) error
	ListReadings(ctx context.Context, userID string, since *time.Time, limit int) ([]Reading, error)
	LatestReading(ctx context.Context, userID string) (*Reading, error)
	DailySummary(ctx context.Context, userID string, day time.Time) (*DailySummary, error)
	HeartRateZones(ctx context.Context, userID string, day time.Time) (*HeartRateZones, error)
	SummariesSince(ctx context.Context, userID string, since time.Time) ([]DailySummary, error)
	Trends(ctx context.Context, userID string, since time.Time) (*TrendBundle, error)
	CreateBreathingSession(ctx context.Context, session BreathingSession) error
	ListBreathingSessions(ctx context.Context, userID string, limit int) ([]BreathingSession, error)
}

// Options tunes the documented behavioral choices of the pipeline.
type Options struct {
	// RollupOnBatch forces summary/zone recomputation inside batch syncs.
	// Off by default: batch is the backfill path and skips rollups.
	RollupOnBatch bool
	// ZonePolicy selects the zone-day convention, see ZoneDatePolicy.
	ZonePolicy ZoneDatePolicy
}

// Service orchestrates ingestion and the read-side queries.
type Service struct {
	repo Repository
	opts Options
}

// NewService constructs a Service.
func NewService(repo Repository, opts Options) *Service {
	if opts.ZonePolicy == "" {
		opts.ZonePolicy = ZoneDateProcessing
	}
	return &Service{repo: repo, opts: opts}
}

// MetricFields is the optional-field payload of one sync. Nil members simply
// were not measured.
type MetricFields struct {
	HeartRate       *float64
	HRV             *float64
	ActiveEnergy    *float64
	Steps           *float64
	ExerciseMinutes *float64
	MinHeartRate    *float64
	MaxHeartRate    *float64
	AvgHeartRate    *float64
	WellnessScore   *float64
}

// SyncInput identifies the user (by internal id or device id) and carries one
// reading's worth of metrics.
type SyncInput struct {
	UserID     string
	DeviceID   string
	Name       string
	RecordedAt *time.Time
	Metrics    MetricFields
}

// RegisterUser creates or returns the user for a device. Idempotent by
// device id.
func (s *Service) RegisterUser(ctx context.Context, deviceID, displayName string) (*User, error) {
	if deviceID == "" {
		return nil, ErrNoIdentity
	}
	return s.repo.UpsertUserByDevice(ctx, deviceID, displayName)
}

// resolveUser maps the caller-supplied identity to a stored user, creating
// one on first contact with an unknown device.
func (s *Service) resolveUser(ctx context.Context, input SyncInput) (*User, error) {
	switch {
	case input.UserID != "":
		user, err := s.repo.GetUser(ctx, input.UserID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, ErrUserNotFound
		}
		return user, nil
	case input.DeviceID != "":
		return s.repo.UpsertUserByDevice(ctx, input.DeviceID, input.Name)
	default:
		return nil, ErrNoIdentity
	}
}

// SyncOne appends a single reading and runs both rollups in the same
// transaction. A failure anywhere leaves nothing behind: no reading without
// its rollup update, no rollup update without its reading.
func (s *Service) SyncOne(ctx context.Context, input SyncInput) (*Reading, *User, error) {
	user, err := s.resolveUser(ctx, input)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	reading := newReading(user.ID, input.RecordedAt, input.Metrics, now)

	opts := RollupOptions{Rollup: true, ZonePolicy: s.opts.ZonePolicy, Now: now}
	if err := s.repo.AppendReading(ctx, reading, opts); err != nil {
		return nil, nil, err
	}
	return &reading, user, nil
}

// BatchItem is one reading inside a batch sync payload.
type BatchItem struct {
	RecordedAt *time.Time
	Metrics    MetricFields
}

// SyncBatch appends many readings atomically with exactly one last_sync
// update. Rollups are skipped unless RollupOnBatch is set; the batch path
// exists for backfill and bulk import, where aggregates are recomputed by the
// next single sync anyway.
func (s *Service) SyncBatch(ctx context.Context, input SyncInput, items []BatchItem) (int, *User, error) {
	if len(items) == 0 {
		return 0, nil, ErrEmptyBatch
	}
	user, err := s.resolveUser(ctx, input)
	if err != nil {
		return 0, nil, err
	}

	now := time.Now().UTC()
	readings := make([]Reading, 0, len(items))
	for _, item := range items {
		readings = append(readings, newReading(user.ID, item.RecordedAt, item.Metrics, now))
	}

	opts := RollupOptions{Rollup: s.opts.RollupOnBatch, ZonePolicy: s.opts.ZonePolicy, Now: now}
	if err := s.repo.AppendBatch(ctx, user.ID, readings, opts); err != nil {
		return 0, nil, err
	}
	return len(readings), user, nil
}

func newReading(userID string, recordedAt *time.Time, metrics MetricFields, now time.Time) Reading {
	ts := now
	if recordedAt != nil {
		ts = recordedAt.UTC()
	}
	return Reading{
		ID:              uuid.NewString(),
		UserID:          userID,
		RecordedAt:      ts,
		HeartRate:       metrics.HeartRate,
		HRV:             metrics.HRV,
		ActiveEnergy:    metrics.ActiveEnergy,
		Steps:           metrics.Steps,
		ExerciseMinutes: metrics.ExerciseMinutes,
		MinHeartRate:    metrics.MinHeartRate,
		MaxHeartRate:    metrics.MaxHeartRate,
		AvgHeartRate:    metrics.AvgHeartRate,
		WellnessScore:   metrics.WellnessScore,
		CreatedAt:       now,
	}
}

// Readings lists a user's readings, newest first.
func (s *Service) Readings(ctx context.Context, userID string, since *time.Time, limit int) ([]Reading, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.repo.ListReadings(ctx, userID, since, limit)
}

// Latest returns the most recent reading, nil when the user has none.
func (s *Service) Latest(ctx context.Context, userID string) (*Reading, error) {
	return s.repo.LatestReading(ctx, userID)
}

// DailySummary returns the summary and zone rows for one day. Either may be
// nil: a day with no readings is an absence, not an error.
func (s *Service) DailySummary(ctx context.Context, userID string, day time.Time) (*DailySummary, *HeartRateZones, error) {
	summary, err := s.repo.DailySummary(ctx, userID, DayOf(day))
	if err != nil {
		return nil, nil, err
	}
	zones, err := s.repo.HeartRateZones(ctx, userID, DayOf(day))
	if err != nil {
		return nil, nil, err
	}
	return summary, zones, nil
}

// WeeklySummaries returns the summary rows for the last seven calendar days.
func (s *Service) WeeklySummaries(ctx context.Context, userID string) ([]DailySummary, error) {
	since := DayOf(time.Now().UTC()).AddDate(0, 0, -6)
	return s.repo.SummariesSince(ctx, userID, since)
}

// Trends computes day-bucketed series over the last `days` days. Non-positive
// input falls back to seven.
func (s *Service) Trends(ctx context.Context, userID string, days int) (*TrendBundle, error) {
	if days <= 0 {
		days = 7
	}
	since := time.Now().UTC().AddDate(0, 0, -days)
	return s.repo.Trends(ctx, userID, since)
}

// Insights evaluates the fixed heuristics over the user's most recent
// readings.
func (s *Service) Insights(ctx context.Context, userID string) ([]Insight, error) {
	recent, err := s.repo.ListReadings(ctx, userID, nil, insightWindow)
	if err != nil {
		return nil, err
	}
	return BuildInsights(recent), nil
}

// LogBreathingSession records one completed breathing exercise.
func (s *Service) LogBreathingSession(ctx context.Context, userID string, durationSec int, preHR, postHR *float64) (*BreathingSession, error) {
	if userID == "" {
		return nil, ErrNoIdentity
	}
	session := BreathingSession{
		ID:            uuid.NewString(),
		UserID:        userID,
		StartedAt:     time.Now().UTC(),
		DurationSec:   durationSec,
		PreHeartRate:  preHR,
		PostHeartRate: postHR,
	}
	if err := s.repo.CreateBreathingSession(ctx, session); err != nil {
		return nil, err
	}
	return &session, nil
}

// BreathingHistory lists recent sessions, newest first.
func (s *Service) BreathingHistory(ctx context.Context, userID string, limit int) ([]BreathingSession, error) {
	if limit <= 0 {
		limit = 30
	}
	return s.repo.ListBreathingSessions(ctx, userID, limit)
}
