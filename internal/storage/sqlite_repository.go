package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sandeepkv93/healthd/internal/model"
)

// Fixed-width UTC layout so that text columns sort chronologically.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

// OpenSQLite opens the database at path and applies pending migrations.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection serialises read-modify-write access to each record.
	db.SetMaxOpenConns(1)
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) CreateProfile(ctx context.Context, in model.Profile) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO profiles (id, name, created_at) VALUES (?, ?, ?)`,
		in.ID, in.Name, mustTime(in.CreatedAt))
	return err
}

func (r *SQLiteRepository) GetProfile(ctx context.Context, id string) (model.Profile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM profiles WHERE id = ?`, id)
	item, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Profile{}, ErrNotFound
		}
		return model.Profile{}, err
	}
	return item, nil
}

func (r *SQLiteRepository) DeleteProfile(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListProfiles(ctx context.Context, filter ProfileListFilter) ([]model.Profile, error) {
	args := make([]any, 0, 2)
	query := `SELECT id, name, created_at FROM profiles ORDER BY created_at DESC, rowid DESC` +
		applyPagination(&args, filter.Limit, filter.Offset)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Profile, 0)
	for rows.Next() {
		item, scanErr := scanProfile(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

const scheduleColumns = `id, profile_id, kind, name, dosage, notes, times_per_day, cadence_type, time_of_day, interval_hours,
	total_days, total_reminders, start_date, is_active, is_paused, reminders_sent, last_fired_at, created_at, updated_at`

func (r *SQLiteRepository) CreateSchedule(ctx context.Context, in model.Schedule) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO schedules (`+scheduleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.ProfileID, string(in.Kind), in.Name, in.Dosage, in.Notes, in.TimesPerDay,
		string(in.Cadence.Type), in.Cadence.TimeOfDay, in.Cadence.IntervalHours,
		in.Bounds.TotalDays, in.Bounds.TotalReminders, mustTime(in.StartDate),
		boolInt(in.IsActive), boolInt(in.IsPaused), in.RemindersSent, nullTime(in.LastFiredAt),
		mustTime(in.CreatedAt), mustTime(in.UpdatedAt),
	)
	return err
}

func (r *SQLiteRepository) GetSchedule(ctx context.Context, id string) (model.Schedule, error) {
	return getSchedule(ctx, r.db, id)
}

func getSchedule(ctx context.Context, q queryer, id string) (model.Schedule, error) {
	row := q.QueryRowContext(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE id = ?`, id)
	item, err := scanSchedule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Schedule{}, ErrNotFound
		}
		return model.Schedule{}, err
	}
	return item, nil
}

// UpdateSchedule never touches id, profile_id, kind, created_at, reminders_sent or last_fired_at.
func (r *SQLiteRepository) UpdateSchedule(ctx context.Context, in model.Schedule) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE schedules
		SET name = ?, dosage = ?, notes = ?, times_per_day = ?, cadence_type = ?, time_of_day = ?, interval_hours = ?,
			total_days = ?, total_reminders = ?, start_date = ?, is_active = ?, is_paused = ?, updated_at = ?
		WHERE id = ?`,
		in.Name, in.Dosage, in.Notes, in.TimesPerDay, string(in.Cadence.Type), in.Cadence.TimeOfDay, in.Cadence.IntervalHours,
		in.Bounds.TotalDays, in.Bounds.TotalReminders, mustTime(in.StartDate), boolInt(in.IsActive), boolInt(in.IsPaused),
		mustTime(in.UpdatedAt), in.ID,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) DeleteSchedule(ctx context.Context, id string, cascade bool) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	removed := 0
	if cascade {
		for _, table := range []string{"medicine_logs", "feeding_logs"} {
			res, execErr := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE schedule_id = ?`, id)
			if execErr != nil {
				return 0, execErr
			}
			n, affErr := res.RowsAffected()
			if affErr != nil {
				return 0, affErr
			}
			removed += int(n)
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM schedules WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	if err := checkRowsAffected(res); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return removed, nil
}

func (r *SQLiteRepository) ListSchedules(ctx context.Context, filter ScheduleListFilter) ([]model.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules`
	clauses := make([]string, 0, 3)
	args := make([]any, 0, 5)
	if filter.ProfileID != "" {
		clauses = append(clauses, "profile_id = ?")
		args = append(args, filter.ProfileID)
	}
	if filter.Kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if filter.Active != nil {
		clauses = append(clauses, "is_active = ?")
		args = append(args, boolInt(*filter.Active))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY created_at DESC, rowid DESC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Schedule, 0)
	for rows.Next() {
		item, scanErr := scanSchedule(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) RecordOccurrence(ctx context.Context, scheduleID string, at time.Time, log *model.MedicineLog) (model.Schedule, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Schedule{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE schedules SET reminders_sent = reminders_sent + 1, last_fired_at = ?, updated_at = ?
		WHERE id = ?`, mustTime(at), mustTime(at), scheduleID)
	if err != nil {
		return model.Schedule{}, err
	}
	if err := checkRowsAffected(res); err != nil {
		return model.Schedule{}, err
	}
	if log != nil {
		if err := insertMedicineLog(ctx, tx, *log); err != nil {
			return model.Schedule{}, err
		}
	}
	updated, err := getSchedule(ctx, tx, scheduleID)
	if err != nil {
		return model.Schedule{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Schedule{}, err
	}
	return updated, nil
}

const medicineLogColumns = `id, schedule_id, profile_id, status, snooze_count, snooze_until, completed_at, created_at, updated_at`

func (r *SQLiteRepository) CreateMedicineLog(ctx context.Context, in model.MedicineLog) error {
	return insertMedicineLog(ctx, r.db, in)
}

func insertMedicineLog(ctx context.Context, e execer, in model.MedicineLog) error {
	_, err := e.ExecContext(ctx, `
		INSERT INTO medicine_logs (`+medicineLogColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.ScheduleID, in.ProfileID, string(in.Status), in.SnoozeCount,
		nullTime(in.SnoozeUntil), nullTime(in.CompletedAt), mustTime(in.CreatedAt), mustTime(in.UpdatedAt),
	)
	return err
}

func (r *SQLiteRepository) GetMedicineLog(ctx context.Context, id string) (model.MedicineLog, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+medicineLogColumns+` FROM medicine_logs WHERE id = ?`, id)
	item, err := scanMedicineLog(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.MedicineLog{}, ErrNotFound
		}
		return model.MedicineLog{}, err
	}
	return item, nil
}

// UpdateMedicineLog only writes a log that is still pending or snoozed. A log that has
// reached taken or missed in the meantime yields ErrLogClosed.
func (r *SQLiteRepository) UpdateMedicineLog(ctx context.Context, in model.MedicineLog) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE medicine_logs
		SET status = ?, snooze_count = ?, snooze_until = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND status IN ('pending', 'snoozed')`,
		string(in.Status), in.SnoozeCount, nullTime(in.SnoozeUntil), nullTime(in.CompletedAt), mustTime(in.UpdatedAt), in.ID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}
	if _, err := r.GetMedicineLog(ctx, in.ID); err != nil {
		return err
	}
	return ErrLogClosed
}

func (r *SQLiteRepository) DeleteMedicineLog(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM medicine_logs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListMedicineLogs(ctx context.Context, filter MedicineLogListFilter) ([]model.MedicineLog, error) {
	query := `SELECT ` + medicineLogColumns + ` FROM medicine_logs`
	clauses := make([]string, 0, 4)
	args := make([]any, 0, 8)
	if filter.ProfileID != "" {
		clauses = append(clauses, "profile_id = ?")
		args = append(args, filter.ProfileID)
	}
	if filter.ScheduleID != "" {
		clauses = append(clauses, "schedule_id = ?")
		args = append(args, filter.ScheduleID)
	}
	if len(filter.Statuses) > 0 {
		marks := make([]string, 0, len(filter.Statuses))
		for _, st := range filter.Statuses {
			marks = append(marks, "?")
			args = append(args, string(st))
		}
		clauses = append(clauses, "status IN ("+strings.Join(marks, ", ")+")")
	}
	if filter.Since != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, mustTime(*filter.Since))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY created_at DESC, rowid DESC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.MedicineLog, 0)
	for rows.Next() {
		item, scanErr := scanMedicineLog(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

const feedingLogColumns = `id, schedule_id, profile_id, status, amount, notes, snooze_until, completed_at, created_at`

func (r *SQLiteRepository) CreateFeedingLog(ctx context.Context, in model.FeedingLog) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO feeding_logs (`+feedingLogColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, nullString(in.ScheduleID), in.ProfileID, string(in.Status), in.Amount, in.Notes,
		nullTime(in.SnoozeUntil), nullTime(in.CompletedAt), mustTime(in.CreatedAt),
	)
	return err
}

func (r *SQLiteRepository) GetFeedingLog(ctx context.Context, id string) (model.FeedingLog, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+feedingLogColumns+` FROM feeding_logs WHERE id = ?`, id)
	item, err := scanFeedingLog(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.FeedingLog{}, ErrNotFound
		}
		return model.FeedingLog{}, err
	}
	return item, nil
}

func (r *SQLiteRepository) DeleteFeedingLog(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM feeding_logs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListFeedingLogs(ctx context.Context, filter FeedingLogListFilter) ([]model.FeedingLog, error) {
	query := `SELECT ` + feedingLogColumns + ` FROM feeding_logs`
	clauses := make([]string, 0, 3)
	args := make([]any, 0, 5)
	if filter.ProfileID != "" {
		clauses = append(clauses, "profile_id = ?")
		args = append(args, filter.ProfileID)
	}
	if filter.ScheduleID != "" {
		clauses = append(clauses, "schedule_id = ?")
		args = append(args, filter.ScheduleID)
	}
	if filter.Since != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, mustTime(*filter.Since))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY created_at DESC, rowid DESC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.FeedingLog, 0)
	for rows.Next() {
		item, scanErr := scanFeedingLog(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateScreenTimeSession(ctx context.Context, in model.ScreenTimeSession) error {
	return insertSession(ctx, r.db, in)
}

func insertSession(ctx context.Context, e execer, in model.ScreenTimeSession) error {
	_, err := e.ExecContext(ctx, `
		INSERT INTO screen_time_sessions (id, profile_id, started_at, ended_at, recovered)
		VALUES (?, ?, ?, ?, ?)`,
		in.ID, in.ProfileID, mustTime(in.StartedAt), mustTime(in.EndedAt), boolInt(in.Recovered),
	)
	return err
}

// ListScreenTimeSessions returns sessions overlapping [From, To).
func (r *SQLiteRepository) ListScreenTimeSessions(ctx context.Context, filter SessionListFilter) ([]model.ScreenTimeSession, error) {
	query := `SELECT id, profile_id, started_at, ended_at, recovered FROM screen_time_sessions`
	clauses := make([]string, 0, 3)
	args := make([]any, 0, 5)
	if filter.ProfileID != "" {
		clauses = append(clauses, "profile_id = ?")
		args = append(args, filter.ProfileID)
	}
	if filter.From != nil {
		clauses = append(clauses, "ended_at > ?")
		args = append(args, mustTime(*filter.From))
	}
	if filter.To != nil {
		clauses = append(clauses, "started_at < ?")
		args = append(args, mustTime(*filter.To))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY started_at DESC, rowid DESC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.ScreenTimeSession, 0)
	for rows.Next() {
		item, scanErr := scanSession(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetTrackerState(ctx context.Context) (model.TrackerState, error) {
	row := r.db.QueryRowContext(ctx, `SELECT profile_id, active, started_at, updated_at FROM tracker_state WHERE id = 1`)
	var out model.TrackerState
	var active int
	var started, updated string
	if err := row.Scan(&out.ProfileID, &active, &started, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.TrackerState{}, ErrNotFound
		}
		return model.TrackerState{}, err
	}
	startedAt, err := parseRequiredTime(started)
	if err != nil {
		return model.TrackerState{}, err
	}
	updatedAt, err := parseRequiredTime(updated)
	if err != nil {
		return model.TrackerState{}, err
	}
	out.Active = active == 1
	out.StartedAt = startedAt
	out.UpdatedAt = updatedAt
	return out, nil
}

func (r *SQLiteRepository) SaveTrackerState(ctx context.Context, in model.TrackerState) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tracker_state (id, profile_id, active, started_at, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			profile_id = excluded.profile_id,
			active = excluded.active,
			started_at = excluded.started_at,
			updated_at = excluded.updated_at`,
		in.ProfileID, boolInt(in.Active), mustTime(in.StartedAt), mustTime(in.UpdatedAt),
	)
	return err
}

func (r *SQLiteRepository) CloseTrackerSession(ctx context.Context, session model.ScreenTimeSession) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertSession(ctx, tx, session); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tracker_state WHERE id = 1`); err != nil {
		return err
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func nullTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC().Format(sqliteTimeLayout)
}

func nullString(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseNullableTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	tm, err := time.Parse(time.RFC3339Nano, v.String)
	if err != nil {
		return nil, err
	}
	return &tm, nil
}

func parseRequiredTime(v string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, v)
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func applyPagination(args *[]any, limit, offset int) string {
	sql := ""
	if limit > 0 {
		sql += " LIMIT ?"
		*args = append(*args, limit)
	}
	if offset > 0 {
		if limit <= 0 {
			sql += " LIMIT -1"
		}
		sql += " OFFSET ?"
		*args = append(*args, offset)
	}
	return sql
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(s scanner) (model.Profile, error) {
	var out model.Profile
	var created string
	if err := s.Scan(&out.ID, &out.Name, &created); err != nil {
		return model.Profile{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return model.Profile{}, err
	}
	out.CreatedAt = createdAt
	return out, nil
}

func scanSchedule(s scanner) (model.Schedule, error) {
	var out model.Schedule
	var kind, cadenceType string
	var start, created, updated string
	var lastFired sql.NullString
	var active, paused int
	if err := s.Scan(&out.ID, &out.ProfileID, &kind, &out.Name, &out.Dosage, &out.Notes, &out.TimesPerDay,
		&cadenceType, &out.Cadence.TimeOfDay, &out.Cadence.IntervalHours,
		&out.Bounds.TotalDays, &out.Bounds.TotalReminders, &start, &active, &paused, &out.RemindersSent,
		&lastFired, &created, &updated); err != nil {
		return model.Schedule{}, err
	}
	lastFiredAt, err := parseNullableTime(lastFired)
	if err != nil {
		return model.Schedule{}, err
	}
	startDate, err := parseRequiredTime(start)
	if err != nil {
		return model.Schedule{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return model.Schedule{}, err
	}
	updatedAt, err := parseRequiredTime(updated)
	if err != nil {
		return model.Schedule{}, err
	}
	out.Kind = model.ScheduleKind(kind)
	out.Cadence.Type = model.CadenceType(cadenceType)
	out.StartDate = startDate
	out.LastFiredAt = lastFiredAt
	out.IsActive = active == 1
	out.IsPaused = paused == 1
	out.CreatedAt = createdAt
	out.UpdatedAt = updatedAt
	return out, nil
}

func scanMedicineLog(s scanner) (model.MedicineLog, error) {
	var out model.MedicineLog
	var status string
	var snoozeUntil, completed sql.NullString
	var created, updated string
	if err := s.Scan(&out.ID, &out.ScheduleID, &out.ProfileID, &status, &out.SnoozeCount,
		&snoozeUntil, &completed, &created, &updated); err != nil {
		return model.MedicineLog{}, err
	}
	until, err := parseNullableTime(snoozeUntil)
	if err != nil {
		return model.MedicineLog{}, err
	}
	completedAt, err := parseNullableTime(completed)
	if err != nil {
		return model.MedicineLog{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return model.MedicineLog{}, err
	}
	updatedAt, err := parseRequiredTime(updated)
	if err != nil {
		return model.MedicineLog{}, err
	}
	out.Status = model.MedicineStatus(status)
	out.SnoozeUntil = until
	out.CompletedAt = completedAt
	out.CreatedAt = createdAt
	out.UpdatedAt = updatedAt
	return out, nil
}

func scanFeedingLog(s scanner) (model.FeedingLog, error) {
	var out model.FeedingLog
	var scheduleID sql.NullString
	var status string
	var snoozeUntil, completed sql.NullString
	var created string
	if err := s.Scan(&out.ID, &scheduleID, &out.ProfileID, &status, &out.Amount, &out.Notes,
		&snoozeUntil, &completed, &created); err != nil {
		return model.FeedingLog{}, err
	}
	until, err := parseNullableTime(snoozeUntil)
	if err != nil {
		return model.FeedingLog{}, err
	}
	completedAt, err := parseNullableTime(completed)
	if err != nil {
		return model.FeedingLog{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return model.FeedingLog{}, err
	}
	out.ScheduleID = scheduleID.String
	out.Status = model.FeedingStatus(status)
	out.SnoozeUntil = until
	out.CompletedAt = completedAt
	out.CreatedAt = createdAt
	return out, nil
}

func scanSession(s scanner) (model.ScreenTimeSession, error) {
	var out model.ScreenTimeSession
	var started, ended string
	var recovered int
	if err := s.Scan(&out.ID, &out.ProfileID, &started, &ended, &recovered); err != nil {
		return model.ScreenTimeSession{}, err
	}
	startedAt, err := parseRequiredTime(started)
	if err != nil {
		return model.ScreenTimeSession{}, err
	}
	endedAt, err := parseRequiredTime(ended)
	if err != nil {
		return model.ScreenTimeSession{}, err
	}
	out.StartedAt = startedAt
	out.EndedAt = endedAt
	out.Recovered = recovered == 1
	return out, nil
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
