package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/Q1zin/laundry-appointment-app/internal/model"
)

// TimeslotRepo provides persistence for the 'timeslots' table. It does
// not enforce any cross-slot invariants itself; the reservation and
// schedule services are responsible for pairing availability updates
// with the booking writes that justify them. All timestamp fields are
// stored in UTC.
type TimeslotRepo struct {
	db *sql.DB
}

// NewTimeslotRepo returns a new TimeslotRepo bound to the given database.
func NewTimeslotRepo(db *sql.DB) *TimeslotRepo { return &TimeslotRepo{db: db} }

const slotColumns = "id, machine_id, start_time, end_time, is_available, created_at"

func scanSlot(row interface{ Scan(...any) error }) (model.Timeslot, error) {
	var s model.Timeslot
	err := row.Scan(&s.ID, &s.MachineID, &s.StartTime, &s.EndTime, &s.IsAvailable, &s.CreatedAt)
	return s, err
}

// GetByID returns a single slot. sql.ErrNoRows is passed through when
// the slot does not exist.
func (r *TimeslotRepo) GetByID(ctx context.Context, id uint64) (model.Timeslot, error) {
	return scanSlot(r.db.QueryRowContext(ctx,
		"SELECT "+slotColumns+" FROM timeslots WHERE id=? LIMIT 1", id))
}

// GetForUpdateTx returns a slot with an exclusive row lock held for the
// remainder of the transaction. The reservation engine takes this lock
// before re-validating availability so that two concurrent bookings of
// the same slot serialize instead of both observing is_available=1.
func (r *TimeslotRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Timeslot, error) {
	return scanSlot(tx.QueryRowContext(ctx,
		"SELECT "+slotColumns+" FROM timeslots WHERE id=? LIMIT 1 FOR UPDATE", id))
}

// ListByDate returns all slots whose window starts on the given
// calendar date, ordered by machine then start time.
func (r *TimeslotRepo) ListByDate(ctx context.Context, date time.Time) ([]model.Timeslot, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+slotColumns+" FROM timeslots WHERE DATE(start_time)=? ORDER BY machine_id, start_time",
		date.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSlots(rows)
}

// ListByMachineAndDate returns a machine's slots for one date ordered
// by start time.
func (r *TimeslotRepo) ListByMachineAndDate(ctx context.Context, machineID uint64, date time.Time) ([]model.Timeslot, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+slotColumns+" FROM timeslots WHERE machine_id=? AND DATE(start_time)=? ORDER BY start_time",
		machineID, date.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSlots(rows)
}

func collectSlots(rows *sql.Rows) ([]model.Timeslot, error) {
	slots := make([]model.Timeslot, 0)
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// CreateBulkTx inserts multiple slots in a single statement within the
// provided transaction. Passing an empty slice has no effect and
// returns nil. Times are normalized to UTC before insertion.
func (r *TimeslotRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, slots []model.Timeslot) error {
	if len(slots) == 0 {
		return nil
	}
	query := `INSERT INTO timeslots (machine_id, start_time, end_time, is_available) VALUES `
	args := make([]interface{}, 0, len(slots)*4)
	placeholders := make([]string, 0, len(slots))
	for _, s := range slots {
		placeholders = append(placeholders, "(?, ?, ?, ?)")
		args = append(args, s.MachineID, s.StartTime.UTC(), s.EndTime.UTC(), s.IsAvailable)
	}
	_, err := tx.ExecContext(ctx, query+strings.Join(placeholders, ","), args...)
	return err
}

// SetAvailabilityTx flips a single slot's availability flag inside the
// given transaction. Callers pair this with the booking write that
// justifies the flip.
func (r *TimeslotRepo) SetAvailabilityTx(ctx context.Context, tx *sql.Tx, slotID uint64, available bool) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE timeslots SET is_available=? WHERE id=?", available, slotID)
	return err
}

// SetAvailabilityByDateTx sets the availability flag of every slot on a
// date. Used when a date's schedule is opened or closed wholesale.
func (r *TimeslotRepo) SetAvailabilityByDateTx(ctx context.Context, tx *sql.Tx, date time.Time, available bool) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE timeslots SET is_available=? WHERE DATE(start_time)=?",
		available, date.Format("2006-01-02"))
	return err
}

// MarkUnbookedAvailableByDateTx makes every slot on a date available
// again, except slots still referenced by an active booking. Reopening
// a date must not mark occupied slots bookable.
func (r *TimeslotRepo) MarkUnbookedAvailableByDateTx(ctx context.Context, tx *sql.Tx, date time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE timeslots t SET t.is_available=1
		 WHERE DATE(t.start_time)=?
		 AND NOT EXISTS (SELECT 1 FROM bookings b WHERE b.slot_id=t.id AND b.state='active')`,
		date.Format("2006-01-02"))
	return err
}

// DeleteByMachineAndDateTx removes all of a machine's slots on a date.
// Regeneration deletes before inserting so stale windows never survive
// a schedule update.
func (r *TimeslotRepo) DeleteByMachineAndDateTx(ctx context.Context, tx *sql.Tx, machineID uint64, date time.Time) error {
	_, err := tx.ExecContext(ctx,
		"DELETE FROM timeslots WHERE machine_id=? AND DATE(start_time)=?",
		machineID, date.Format("2006-01-02"))
	return err
}
