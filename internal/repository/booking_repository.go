package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/Q1zin/laundry-appointment-app/internal/model"
)

// BookingRepo provides persistence for the 'bookings' table. Bookings
// only ever soft-transition state; rows are inserted once and then
// updated. The ExistsBySlotAndState check is the authoritative
// double-booking guard and must be consulted inside the same
// transaction as the insert it protects.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = "id, user_id, machine_id, slot_id, state, created_at"

func scanBooking(row interface{ Scan(...any) error }) (model.Booking, error) {
	var b model.Booking
	err := row.Scan(&b.ID, &b.UserID, &b.MachineID, &b.SlotID, &b.State, &b.CreatedAt)
	return b, err
}

// GetByID returns a single booking. sql.ErrNoRows is passed through
// when the booking does not exist.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (model.Booking, error) {
	return scanBooking(r.db.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE id=? LIMIT 1", id))
}

// GetForUpdateTx returns a booking with an exclusive row lock so that
// concurrent cancel/reschedule calls on the same booking serialize.
func (r *BookingRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Booking, error) {
	return scanBooking(tx.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE id=? LIMIT 1 FOR UPDATE", id))
}

// ListByUserAndState returns a user's bookings in the given state,
// newest first.
func (r *BookingRepo) ListByUserAndState(ctx context.Context, userID uint64, state model.BookingState) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE user_id=? AND state=? ORDER BY created_at DESC",
		userID, state)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// ListByDate returns every booking whose slot starts on the given
// calendar date, regardless of state. The projector uses this to
// render occupancy on the schedule grid.
func (r *BookingRepo) ListByDate(ctx context.Context, date time.Time) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT b.id, b.user_id, b.machine_id, b.slot_id, b.state, b.created_at
		 FROM bookings b
		 JOIN timeslots t ON t.id = b.slot_id
		 WHERE DATE(t.start_time) = ?
		 ORDER BY t.start_time`,
		date.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

func collectBookings(rows *sql.Rows) ([]model.Booking, error) {
	bookings := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// ExistsBySlotAndState reports whether any booking in the given state
// references the slot.
func (r *BookingRepo) ExistsBySlotAndState(ctx context.Context, slotID uint64, state model.BookingState) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM bookings WHERE slot_id=? AND state=? LIMIT 1", slotID, state).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ExistsBySlotAndStateTx is the transactional variant of
// ExistsBySlotAndState, evaluated under the caller's locks.
func (r *BookingRepo) ExistsBySlotAndStateTx(ctx context.Context, tx *sql.Tx, slotID uint64, state model.BookingState) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx,
		"SELECT 1 FROM bookings WHERE slot_id=? AND state=? LIMIT 1", slotID, state).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CountFutureActive counts a user's active bookings whose slot has not
// yet ended. Past-dated active bookings do not count against the quota.
func (r *BookingRepo) CountFutureActive(ctx context.Context, userID uint64, now time.Time) (int, error) {
	return r.countFutureActive(ctx, r.db.QueryRowContext, userID, now)
}

// CountFutureActiveTx is the transactional variant of CountFutureActive.
// The engine calls it immediately before the booking insert, after the
// user row lock is held, to close the check-then-write window.
func (r *BookingRepo) CountFutureActiveTx(ctx context.Context, tx *sql.Tx, userID uint64, now time.Time) (int, error) {
	return r.countFutureActive(ctx, tx.QueryRowContext, userID, now)
}

type queryRowFn func(ctx context.Context, query string, args ...any) *sql.Row

func (r *BookingRepo) countFutureActive(ctx context.Context, queryRow queryRowFn, userID uint64, now time.Time) (int, error) {
	var n int
	err := queryRow(ctx,
		`SELECT COUNT(*) FROM bookings b
		 JOIN timeslots t ON t.id = b.slot_id
		 WHERE b.user_id=? AND b.state=? AND t.end_time > ?`,
		userID, model.BookingActive, now.UTC()).Scan(&n)
	return n, err
}

// CreateTx inserts a new booking within the provided transaction and
// populates the generated ID on the record. The caller must commit or
// roll back.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO bookings (user_id, machine_id, slot_id, state) VALUES (?,?,?,?)",
		b.UserID, b.MachineID, b.SlotID, b.State)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// UpdateStateTx sets the booking's lifecycle state within a transaction.
func (r *BookingRepo) UpdateStateTx(ctx context.Context, tx *sql.Tx, id uint64, state model.BookingState) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE bookings SET state=? WHERE id=?", state, id)
	return err
}

// UpdateSlotTx repoints the booking at a new slot (and the machine that
// owns it) within a transaction. Used only by reschedule, together with
// availability flips on both the old and new slots.
func (r *BookingRepo) UpdateSlotTx(ctx context.Context, tx *sql.Tx, id, newSlotID, machineID uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE bookings SET slot_id=?, machine_id=? WHERE id=?", newSlotID, machineID, id)
	return err
}

// BookingDetail is a booking joined with its machine name and slot
// window for display to the owning user.
type BookingDetail struct {
	ID          uint64    `json:"id"`
	MachineID   uint64    `json:"machine_id"`
	MachineName string    `json:"machine_name"`
	SlotID      uint64    `json:"slot_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	State       string    `json:"state"`
	CreatedAt   time.Time `json:"created_at"`
}

// AdminBookingDetail extends BookingDetail with the owning user's
// identity for the admin panel.
type AdminBookingDetail struct {
	BookingDetail
	UserID   uint64 `json:"user_id"`
	UserName string `json:"user_name"`
	FullName string `json:"full_name"`
	Room     string `json:"room"`
}

// ListDetailsByUserAndState returns a user's bookings in the given
// state joined with machine and slot information, newest first.
func (r *BookingRepo) ListDetailsByUserAndState(ctx context.Context, userID uint64, state model.BookingState) ([]BookingDetail, error) {
	const q = `SELECT b.id, b.machine_id, m.name, b.slot_id, t.start_time, t.end_time, b.state, b.created_at
	           FROM bookings b
	           JOIN machines m ON m.id = b.machine_id
	           JOIN timeslots t ON t.id = b.slot_id
	           WHERE b.user_id = ? AND b.state = ?
	           ORDER BY b.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID, state)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]BookingDetail, 0)
	for rows.Next() {
		var d BookingDetail
		if err := rows.Scan(&d.ID, &d.MachineID, &d.MachineName, &d.SlotID,
			&d.StartTime, &d.EndTime, &d.State, &d.CreatedAt); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// ListAllDetails returns every booking joined with user, machine and
// slot information for the admin panel, newest first.
func (r *BookingRepo) ListAllDetails(ctx context.Context) ([]AdminBookingDetail, error) {
	const q = `SELECT b.id, b.machine_id, m.name, b.slot_id, t.start_time, t.end_time, b.state, b.created_at,
	                  u.id, u.name, u.full_name, u.room
	           FROM bookings b
	           JOIN machines m ON m.id = b.machine_id
	           JOIN timeslots t ON t.id = b.slot_id
	           JOIN users u ON u.id = b.user_id
	           ORDER BY b.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]AdminBookingDetail, 0)
	for rows.Next() {
		var d AdminBookingDetail
		if err := rows.Scan(&d.ID, &d.MachineID, &d.MachineName, &d.SlotID,
			&d.StartTime, &d.EndTime, &d.State, &d.CreatedAt,
			&d.UserID, &d.UserName, &d.FullName, &d.Room); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}
