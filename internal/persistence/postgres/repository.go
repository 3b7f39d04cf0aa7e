package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/biometrics/internal/domain"
	"example.com/biometrics/internal/observability"
)

// Repository provides Postgres-backed persistence for readings and their
// derived aggregates.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const readingColumns = `reading_id, user_id, recorded_at, heart_rate, hrv, active_energy, steps, exercise_minutes,
        min_heart_rate, max_heart_rate, avg_heart_rate, wellness_score, created_at`

// UpsertUserByDevice creates the user on first contact and returns the
// existing row on every later sync from the same device.
func (r *Repository) UpsertUserByDevice(ctx context.Context, deviceID, displayName string) (*domain.User, error) {
	const query = `INSERT INTO users (user_id, device_id, display_name, created_at)
        VALUES (gen_random_uuid(), $1, $2, now())
        ON CONFLICT (device_id) DO UPDATE
            SET display_name = CASE WHEN EXCLUDED.display_name <> '' THEN EXCLUDED.display_name ELSE users.display_name END
        RETURNING user_id, device_id, display_name, created_at, last_sync_at`

	row := r.pool.QueryRow(ctx, query, deviceID, displayName)
	var user domain.User
	if err := row.Scan(&user.ID, &user.DeviceID, &user.DisplayName, &user.CreatedAt, &user.LastSyncAt); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUser fetches a user by internal id. Returns nil when absent.
func (r *Repository) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	const query = `SELECT user_id, COALESCE(device_id, ''), display_name, created_at, last_sync_at
        FROM users WHERE user_id = $1`

	row := r.pool.QueryRow(ctx, query, userID)
	var user domain.User
	if err := row.Scan(&user.ID, &user.DeviceID, &user.DisplayName, &user.CreatedAt, &user.LastSyncAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// AppendReading commits one reading, the owner's last_sync update and both
// rollups in a single transaction. Nothing is observable until everything is.
func (r *Repository) AppendReading(ctx context.Context, reading domain.Reading, opts domain.RollupOptions) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = insertReading(ctx, tx, reading); err != nil {
		return err
	}
	if err = touchLastSync(ctx, tx, reading.UserID, opts.Now); err != nil {
		return err
	}

	if opts.Rollup {
		if err = r.recomputeSummary(ctx, tx, reading.UserID, domain.DayOf(reading.RecordedAt), opts.Now); err != nil {
			return err
		}
		if reading.HeartRate != nil {
			if err = bumpZone(ctx, tx, reading.UserID, opts.ZonePolicy.DayFor(reading, opts.Now), *reading.HeartRate); err != nil {
				return err
			}
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return err
	}
	observability.RecordReadingPersisted(reading.RecordedAt)
	return nil
}

// AppendBatch commits all readings in one transaction with exactly one
// last_sync update. A malformed row fails the whole batch. Rollups run only
// when opts.Rollup is set, once per affected day.
func (r *Repository) AppendBatch(ctx context.Context, userID string, readings []domain.Reading, opts domain.RollupOptions) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	for _, reading := range readings {
		if err = insertReading(ctx, tx, reading); err != nil {
			return err
		}
	}
	if err = touchLastSync(ctx, tx, userID, opts.Now); err != nil {
		return err
	}

	if opts.Rollup {
		days := map[time.Time]struct{}{}
		for _, reading := range readings {
			days[domain.DayOf(reading.RecordedAt)] = struct{}{}
		}
		for day := range days {
			if err = r.recomputeSummary(ctx, tx, userID, day, opts.Now); err != nil {
				return err
			}
		}
		for _, reading := range readings {
			if reading.HeartRate == nil {
				continue
			}
			if err = bumpZone(ctx, tx, userID, opts.ZonePolicy.DayFor(reading, opts.Now), *reading.HeartRate); err != nil {
				return err
			}
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return err
	}
	if n := len(readings); n > 0 {
		observability.RecordReadingPersisted(readings[n-1].RecordedAt)
		observability.RecordBatchIngested(n)
	}
	return nil
}

func insertReading(ctx context.Context, tx pgx.Tx, reading domain.Reading) error {
	const stmt = `INSERT INTO readings (` + readingColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`

	_, err := tx.Exec(ctx, stmt,
		reading.ID,
		reading.UserID,
		reading.RecordedAt,
		reading.HeartRate,
		reading.HRV,
		reading.ActiveEnergy,
		reading.Steps,
		reading.ExerciseMinutes,
		reading.MinHeartRate,
		reading.MaxHeartRate,
		reading.AvgHeartRate,
		reading.WellnessScore,
		reading.CreatedAt,
	)
	return err
}

func touchLastSync(ctx context.Context, tx pgx.Tx, userID string, now time.Time) error {
	_, err := tx.Exec(ctx, `UPDATE users SET last_sync_at = $2 WHERE user_id = $1`, userID, now)
	return err
}

// recomputeSummary rebuilds the daily summary row from every reading on that
// day. Full replace rather than an incremental patch keeps repeated syncs and
// out-of-order arrivals convergent.
func (r *Repository) recomputeSummary(ctx context.Context, tx pgx.Tx, userID string, day time.Time, now time.Time) error {
	start := time.Now()

	readings, err := readingsForDay(ctx, tx, userID, day)
	if err != nil {
		return err
	}
	summary := domain.ComputeDailySummary(userID, day, readings, now)

	const stmt = `INSERT INTO daily_summaries
            (user_id, day, avg_heart_rate, avg_hrv, total_steps, total_calories, total_exercise_minutes, avg_wellness_score, recovery_status, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        ON CONFLICT (user_id, day) DO UPDATE SET
            avg_heart_rate = EXCLUDED.avg_heart_rate,
            avg_hrv = EXCLUDED.avg_hrv,
            total_steps = EXCLUDED.total_steps,
            total_calories = EXCLUDED.total_calories,
            total_exercise_minutes = EXCLUDED.total_exercise_minutes,
            avg_wellness_score = EXCLUDED.avg_wellness_score,
            recovery_status = EXCLUDED.recovery_status,
            updated_at = EXCLUDED.updated_at`

	_, err = tx.Exec(ctx, stmt,
		summary.UserID,
		summary.Day,
		summary.AvgHeartRate,
		summary.AvgHRV,
		summary.TotalSteps,
		summary.TotalCalories,
		summary.TotalExerciseMinutes,
		summary.AvgWellnessScore,
		string(summary.RecoveryStatus),
		summary.UpdatedAt,
	)
	if err != nil {
		return err
	}
	observability.ObserveRollup(time.Since(start))
	return nil
}

func readingsForDay(ctx context.Context, tx pgx.Tx, userID string, day time.Time) ([]domain.Reading, error) {
	dayStart := domain.DayOf(day)
	dayEnd := dayStart.AddDate(0, 0, 1)

	const query = `SELECT ` + readingColumns + ` FROM readings
        WHERE user_id = $1 AND recorded_at >= $2 AND recorded_at < $3`

	rows, err := tx.Query(ctx, query, userID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReadings(rows)
}

// zoneColumns maps each zone to its counter column. The column name is
// interpolated into SQL, so the set stays closed here.
var zoneColumns = map[domain.Zone]string{
	domain.ZoneResting:  "resting_minutes",
	domain.ZoneNormal:   "normal_minutes",
	domain.ZoneElevated: "elevated_minutes",
	domain.ZoneHigh:     "high_minutes",
	domain.ZoneMax:      "max_minutes",
}

func bumpZone(ctx context.Context, tx pgx.Tx, userID string, day time.Time, heartRate float64) error {
	column, ok := zoneColumns[domain.ClassifyZone(heartRate)]
	if !ok {
		return fmt.Errorf("unmapped heart-rate zone for value %f", heartRate)
	}

	stmt := fmt.Sprintf(`INSERT INTO heart_rate_zones (user_id, day, %[1]s)
        VALUES ($1, $2, 1)
        ON CONFLICT (user_id, day) DO UPDATE SET %[1]s = heart_rate_zones.%[1]s + 1`, column)

	_, err := tx.Exec(ctx, stmt, userID, day)
	return err
}

// ListReadings returns readings newest first, optionally bounded by a since
// timestamp.
func (r *Repository) ListReadings(ctx context.Context, userID string, since *time.Time, limit int) ([]domain.Reading, error) {
	query := `SELECT ` + readingColumns + ` FROM readings WHERE user_id = $1`
	args := []interface{}{userID, limit}
	if since != nil {
		query += ` AND recorded_at >= $3`
		args = append(args, *since)
	}
	query += ` ORDER BY recorded_at DESC, reading_id DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReadings(rows)
}

// LatestReading returns the newest reading, nil when the user has none.
func (r *Repository) LatestReading(ctx context.Context, userID string) (*domain.Reading, error) {
	readings, err := r.ListReadings(ctx, userID, nil, 1)
	if err != nil {
		return nil, err
	}
	if len(readings) == 0 {
		return nil, nil
	}
	return &readings[0], nil
}

// DailySummary fetches one summary row. Nil means no reading landed that day.
func (r *Repository) DailySummary(ctx context.Context, userID string, day time.Time) (*domain.DailySummary, error) {
	const query = `SELECT user_id, day, avg_heart_rate, avg_hrv, total_steps, total_calories, total_exercise_minutes,
            avg_wellness_score, recovery_status, updated_at
        FROM daily_summaries WHERE user_id = $1 AND day = $2`

	row := r.pool.QueryRow(ctx, query, userID, domain.DayOf(day))
	summary, err := scanSummary(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return summary, nil
}

// HeartRateZones fetches one zone row. Nil means no qualifying reading landed
// that day.
func (r *Repository) HeartRateZones(ctx context.Context, userID string, day time.Time) (*domain.HeartRateZones, error) {
	const query = `SELECT user_id, day, resting_minutes, normal_minutes, elevated_minutes, high_minutes, max_minutes
        FROM heart_rate_zones WHERE user_id = $1 AND day = $2`

	row := r.pool.QueryRow(ctx, query, userID, domain.DayOf(day))
	var zones domain.HeartRateZones
	if err := row.Scan(&zones.UserID, &zones.Day, &zones.RestingMinutes, &zones.NormalMinutes, &zones.ElevatedMinutes, &zones.HighMinutes, &zones.MaxMinutes); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &zones, nil
}

// SummariesSince lists summary rows from the given day forward, newest first.
func (r *Repository) SummariesSince(ctx context.Context, userID string, since time.Time) ([]domain.DailySummary, error) {
	const query = `SELECT user_id, day, avg_heart_rate, avg_hrv, total_steps, total_calories, total_exercise_minutes,
            avg_wellness_score, recovery_status, updated_at
        FROM daily_summaries WHERE user_id = $1 AND day >= $2 ORDER BY day DESC`

	rows, err := r.pool.Query(ctx, query, userID, domain.DayOf(since))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []domain.DailySummary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}
	return summaries, rows.Err()
}

// Trends groups readings by calendar day at query time. Days with no samples
// simply do not appear.
func (r *Repository) Trends(ctx context.Context, userID string, since time.Time) (*domain.TrendBundle, error) {
	bundle := &domain.TrendBundle{}

	const heartRateQuery = `SELECT (recorded_at AT TIME ZONE 'UTC')::date AS day, AVG(heart_rate), MIN(heart_rate), MAX(heart_rate)
        FROM readings WHERE user_id = $1 AND recorded_at >= $2 AND heart_rate IS NOT NULL
        GROUP BY day ORDER BY day`

	rows, err := r.pool.Query(ctx, heartRateQuery, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p domain.HeartRatePoint
		if err := rows.Scan(&p.Day, &p.Avg, &p.Min, &p.Max); err != nil {
			return nil, err
		}
		bundle.HeartRate = append(bundle.HeartRate, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if bundle.HRV, err = r.valueSeries(ctx, userID, since, "hrv", "AVG(hrv)"); err != nil {
		return nil, err
	}
	if bundle.Steps, err = r.valueSeries(ctx, userID, since, "steps", "MAX(steps)"); err != nil {
		return nil, err
	}
	if bundle.Wellness, err = r.valueSeries(ctx, userID, since, "wellness_score", "AVG(wellness_score)"); err != nil {
		return nil, err
	}
	return bundle, nil
}

func (r *Repository) valueSeries(ctx context.Context, userID string, since time.Time, column, expr string) ([]domain.ValuePoint, error) {
	query := fmt.Sprintf(`SELECT (recorded_at AT TIME ZONE 'UTC')::date AS day, %s
        FROM readings WHERE user_id = $1 AND recorded_at >= $2 AND %s IS NOT NULL
        GROUP BY day ORDER BY day`, expr, column)

	rows, err := r.pool.Query(ctx, query, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []domain.ValuePoint
	for rows.Next() {
		var p domain.ValuePoint
		if err := rows.Scan(&p.Day, &p.Value); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// CreateBreathingSession persists one session.
func (r *Repository) CreateBreathingSession(ctx context.Context, session domain.BreathingSession) error {
	const stmt = `INSERT INTO breathing_sessions (session_id, user_id, started_at, duration_sec, pre_heart_rate, post_heart_rate)
        VALUES ($1,$2,$3,$4,$5,$6)`

	_, err := r.pool.Exec(ctx, stmt,
		session.ID,
		session.UserID,
		session.StartedAt,
		session.DurationSec,
		session.PreHeartRate,
		session.PostHeartRate,
	)
	return err
}

// ListBreathingSessions returns sessions newest first.
func (r *Repository) ListBreathingSessions(ctx context.Context, userID string, limit int) ([]domain.BreathingSession, error) {
	const query = `SELECT session_id, user_id, started_at, duration_sec, pre_heart_rate, post_heart_rate
        FROM breathing_sessions WHERE user_id = $1 ORDER BY started_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.BreathingSession
	for rows.Next() {
		var s domain.BreathingSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.StartedAt, &s.DurationSec, &s.PreHeartRate, &s.PostHeartRate); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func scanReadings(rows pgx.Rows) ([]domain.Reading, error) {
	var readings []domain.Reading
	for rows.Next() {
		var r domain.Reading
		if err := rows.Scan(&r.ID, &r.UserID, &r.RecordedAt, &r.HeartRate, &r.HRV, &r.ActiveEnergy, &r.Steps,
			&r.ExerciseMinutes, &r.MinHeartRate, &r.MaxHeartRate, &r.AvgHeartRate, &r.WellnessScore, &r.CreatedAt); err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

func scanSummary(row pgx.Row) (*domain.DailySummary, error) {
	var s domain.DailySummary
	var status string
	if err := row.Scan(&s.UserID, &s.Day, &s.AvgHeartRate, &s.AvgHRV, &s.TotalSteps, &s.TotalCalories,
		&s.TotalExerciseMinutes, &s.AvgWellnessScore, &status, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.RecoveryStatus = domain.RecoveryStatus(status)
	return &s, nil
}
