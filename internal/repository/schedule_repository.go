package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/Q1zin/laundry-appointment-app/internal/model"
)

// ScheduleRepo provides persistence for the 'schedules' table and its
// 'schedule_machines' association. One schedule row exists per calendar
// date; the association set is always replaced wholesale
// (delete-all-then-insert) so a schedule update can never leave a
// partial machine set behind.
type ScheduleRepo struct {
	db *sql.DB
}

// NewScheduleRepo returns a new ScheduleRepo bound to the given database.
func NewScheduleRepo(db *sql.DB) *ScheduleRepo { return &ScheduleRepo{db: db} }

const scheduleColumns = "id, date, is_open, created_at"

func scanSchedule(row interface{ Scan(...any) error }) (model.Schedule, error) {
	var s model.Schedule
	err := row.Scan(&s.ID, &s.Date, &s.IsOpen, &s.CreatedAt)
	return s, err
}

// GetByDate returns the schedule row for a calendar date. sql.ErrNoRows
// is passed through when no schedule has been configured for the date.
func (r *ScheduleRepo) GetByDate(ctx context.Context, date time.Time) (model.Schedule, error) {
	return scanSchedule(r.db.QueryRowContext(ctx,
		"SELECT "+scheduleColumns+" FROM schedules WHERE date=? LIMIT 1",
		date.Format("2006-01-02")))
}

// GetByDateTx is the transactional variant of GetByDate with a row lock
// so concurrent schedule updates for the same date serialize.
func (r *ScheduleRepo) GetByDateTx(ctx context.Context, tx *sql.Tx, date time.Time) (model.Schedule, error) {
	return scanSchedule(tx.QueryRowContext(ctx,
		"SELECT "+scheduleColumns+" FROM schedules WHERE date=? LIMIT 1 FOR UPDATE",
		date.Format("2006-01-02")))
}

// GetByID returns a schedule row by primary key.
func (r *ScheduleRepo) GetByID(ctx context.Context, id uint64) (model.Schedule, error) {
	return scanSchedule(r.db.QueryRowContext(ctx,
		"SELECT "+scheduleColumns+" FROM schedules WHERE id=? LIMIT 1", id))
}

// List returns all schedule rows ordered by date.
func (r *ScheduleRepo) List(ctx context.Context) ([]model.Schedule, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+scheduleColumns+" FROM schedules ORDER BY date")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	schedules := make([]model.Schedule, 0)
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}

// UpsertByDateTx finds or creates the schedule row for a date and sets
// its is_open flag, returning the resulting row. The caller must commit
// or roll back the transaction.
func (r *ScheduleRepo) UpsertByDateTx(ctx context.Context, tx *sql.Tx, date time.Time, isOpen bool) (model.Schedule, error) {
	s, err := r.GetByDateTx(ctx, tx, date)
	if err == sql.ErrNoRows {
		res, insErr := tx.ExecContext(ctx,
			"INSERT INTO schedules (date, is_open) VALUES (?, ?)",
			date.Format("2006-01-02"), isOpen)
		if insErr != nil {
			return model.Schedule{}, insErr
		}
		id, idErr := res.LastInsertId()
		if idErr != nil {
			return model.Schedule{}, idErr
		}
		return scanSchedule(tx.QueryRowContext(ctx,
			"SELECT "+scheduleColumns+" FROM schedules WHERE id=? LIMIT 1", id))
	}
	if err != nil {
		return model.Schedule{}, err
	}
	if s.IsOpen != isOpen {
		if _, err := tx.ExecContext(ctx,
			"UPDATE schedules SET is_open=? WHERE id=?", isOpen, s.ID); err != nil {
			return model.Schedule{}, err
		}
		s.IsOpen = isOpen
	}
	return s, nil
}

// MachineIDs returns the set of machine ids enabled for a schedule.
func (r *ScheduleRepo) MachineIDs(ctx context.Context, scheduleID uint64) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT machine_id FROM schedule_machines WHERE schedule_id=?", scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]uint64, 0)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ReplaceMachinesTx replaces a schedule's machine association set
// wholesale: all existing links are removed, then one link per given
// machine id is inserted. Passing an empty slice leaves the schedule
// with no machines enabled.
func (r *ScheduleRepo) ReplaceMachinesTx(ctx context.Context, tx *sql.Tx, scheduleID uint64, machineIDs []uint64) error {
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM schedule_machines WHERE schedule_id=?", scheduleID); err != nil {
		return err
	}
	if len(machineIDs) == 0 {
		return nil
	}
	query := "INSERT INTO schedule_machines (schedule_id, machine_id) VALUES "
	args := make([]interface{}, 0, len(machineIDs)*2)
	placeholders := make([]string, 0, len(machineIDs))
	for _, mid := range machineIDs {
		placeholders = append(placeholders, "(?, ?)")
		args = append(args, scheduleID, mid)
	}
	_, err := tx.ExecContext(ctx, query+strings.Join(placeholders, ","), args...)
	return err
}

// DeleteTx removes a schedule row and its machine links within a
// transaction.
func (r *ScheduleRepo) DeleteTx(ctx context.Context, tx *sql.Tx, scheduleID uint64) error {
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM schedule_machines WHERE schedule_id=?", scheduleID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM schedules WHERE id=?", scheduleID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteLinksByMachineTx removes every schedule link referencing a
// machine. Called before the machine row itself is deleted.
func (r *ScheduleRepo) DeleteLinksByMachineTx(ctx context.Context, tx *sql.Tx, machineID uint64) error {
	_, err := tx.ExecContext(ctx,
		"DELETE FROM schedule_machines WHERE machine_id=?", machineID)
	return err
}
