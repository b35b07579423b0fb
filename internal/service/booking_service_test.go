package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/Q1zin/laundry-appointment-app/internal/repository"
)

// Query fragments matched against the engine's SQL. sqlmock treats the
// expectation as an unanchored regular expression.
const (
	qUserForUpdate    = `FROM users WHERE id=\? LIMIT 1 FOR UPDATE`
	qCountActive      = `SELECT COUNT\(\*\) FROM bookings`
	qSlotForUpdate    = `FROM timeslots WHERE id=\? LIMIT 1 FOR UPDATE`
	qSlotByID         = `FROM timeslots WHERE id=\? LIMIT 1`
	qActiveBySlot     = `SELECT 1 FROM bookings WHERE slot_id=\? AND state=\?`
	qBookingForUpdate = `FROM bookings WHERE id=\? LIMIT 1 FOR UPDATE`
	qInsertBooking    = `INSERT INTO bookings`
	qUpdateBookingSt  = `UPDATE bookings SET state=\? WHERE id=\?`
	qUpdateBookingSl  = `UPDATE bookings SET slot_id=\?, machine_id=\? WHERE id=\?`
	qFlipSlot         = `UPDATE timeslots SET is_available=\? WHERE id=\?`
)

func newBookingServiceMock(t *testing.T) (*BookingService, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	svc := NewBookingService(db,
		repository.NewUserRepo(db),
		repository.NewTimeslotRepo(db),
		repository.NewBookingRepo(db),
		2)
	return svc, mock, func() { _ = db.Close() }
}

func userRows(id uint64, blocked bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "password_hash", "email", "full_name", "room", "contract", "role", "is_blocked", "created_at"}).
		AddRow(id, "resident", "hash", "r@example.com", "Resident One", "101", "C-7", "user", blocked, time.Now())
}

func slotRows(id, machineID uint64, available bool) *sqlmock.Rows {
	start := time.Now().UTC().Add(24 * time.Hour)
	return sqlmock.NewRows([]string{"id", "machine_id", "start_time", "end_time", "is_available", "created_at"}).
		AddRow(id, machineID, start, start.Add(2*time.Hour), available, time.Now())
}

func bookingRows(id, userID, machineID, slotID uint64, state string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "machine_id", "slot_id", "state", "created_at"}).
		AddRow(id, userID, machineID, slotID, state, time.Now())
}

func countRows(n int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"cnt"}).AddRow(n)
}

func TestCreateBookingSuccess(t *testing.T) {
	svc, mock, closeFn := newBookingServiceMock(t)
	defer closeFn()

	mock.ExpectBegin()
	mock.ExpectQuery(qUserForUpdate).WithArgs(uint64(1)).WillReturnRows(userRows(1, false))
	mock.ExpectQuery(qCountActive).WillReturnRows(countRows(0))
	mock.ExpectQuery(qSlotForUpdate).WithArgs(uint64(10)).WillReturnRows(slotRows(10, 3, true))
	mock.ExpectQuery(qActiveBySlot).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(qCountActive).WillReturnRows(countRows(0))
	mock.ExpectExec(qInsertBooking).WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec(qFlipSlot).WithArgs(false, uint64(10)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.CreateBooking(context.Background(), 1, 3, 10)
	require.NoError(t, err)
	require.True(t, res.OK)
	require.Equal(t, uint64(7), res.BookingID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingSlotOccupied(t *testing.T) {
	svc, mock, closeFn := newBookingServiceMock(t)
	defer closeFn()

	mock.ExpectBegin()
	mock.ExpectQuery(qUserForUpdate).WithArgs(uint64(1)).WillReturnRows(userRows(1, false))
	mock.ExpectQuery(qCountActive).WillReturnRows(countRows(0))
	mock.ExpectQuery(qSlotForUpdate).WithArgs(uint64(10)).WillReturnRows(slotRows(10, 3, true))
	// another active booking already references the slot
	mock.ExpectQuery(qActiveBySlot).WillReturnRows(sqlmock.NewRows([]string{"one"}).AddRow(1))
	mock.ExpectRollback()

	res, err := svc.CreateBooking(context.Background(), 1, 3, 10)
	require.NoError(t, err)
	require.False(t, res.OK)
	require.Equal(t, "slot is not available", res.Message)
	require.Zero(t, res.BookingID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingUnavailableFlag(t *testing.T) {
	svc, mock, closeFn := newBookingServiceMock(t)
	defer closeFn()

	mock.ExpectBegin()
	mock.ExpectQuery(qUserForUpdate).WithArgs(uint64(1)).WillReturnRows(userRows(1, false))
	mock.ExpectQuery(qCountActive).WillReturnRows(countRows(0))
	mock.ExpectQuery(qSlotForUpdate).WithArgs(uint64(10)).WillReturnRows(slotRows(10, 3, false))
	mock.ExpectRollback()

	res, err := svc.CreateBooking(context.Background(), 1, 3, 10)
	require.NoError(t, err)
	require.False(t, res.OK)
	require.Equal(t, "slot is not available", res.Message)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingWrongMachine(t *testing.T) {
	svc, mock, closeFn := newBookingServiceMock(t)
	defer closeFn()

	mock.ExpectBegin()
	mock.ExpectQuery(qUserForUpdate).WithArgs(uint64(1)).WillReturnRows(userRows(1, false))
	mock.ExpectQuery(qCountActive).WillReturnRows(countRows(0))
	// slot belongs to machine 4, request names machine 3
	mock.ExpectQuery(qSlotForUpdate).WithArgs(uint64(10)).WillReturnRows(slotRows(10, 4, true))
	mock.ExpectRollback()

	res, err := svc.CreateBooking(context.Background(), 1, 3, 10)
	require.NoError(t, err)
	require.False(t, res.OK)
	require.Equal(t, "slot is not available", res.Message)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingQuotaReached(t *testing.T) {
	svc, mock, closeFn := newBookingServiceMock(t)
	defer closeFn()

	mock.ExpectBegin()
	mock.ExpectQuery(qUserForUpdate).WithArgs(uint64(1)).WillReturnRows(userRows(1, false))
	mock.ExpectQuery(qCountActive).WillReturnRows(countRows(2))
	mock.ExpectRollback()

	res, err := svc.CreateBooking(context.Background(), 1, 3, 10)
	require.NoError(t, err)
	require.False(t, res.OK)
	require.Equal(t, "active booking limit reached (maximum 2)", res.Message)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingQuotaRecheckLoses(t *testing.T) {
	svc, mock, closeFn := newBookingServiceMock(t)
	defer closeFn()

	mock.ExpectBegin()
	mock.ExpectQuery(qUserForUpdate).WithArgs(uint64(1)).WillReturnRows(userRows(1, false))
	mock.ExpectQuery(qCountActive).WillReturnRows(countRows(1))
	mock.ExpectQuery(qSlotForUpdate).WithArgs(uint64(10)).WillReturnRows(slotRows(10, 3, true))
	mock.ExpectQuery(qActiveBySlot).WillReturnError(sql.ErrNoRows)
	// the recount under the user lock sees the quota filled
	mock.ExpectQuery(qCountActive).WillReturnRows(countRows(2))
	mock.ExpectRollback()

	res, err := svc.CreateBooking(context.Background(), 1, 3, 10)
	require.NoError(t, err)
	require.False(t, res.OK)
	require.Equal(t, "active booking limit reached (maximum 2)", res.Message)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingBlockedUser(t *testing.T) {
	svc, mock, closeFn := newBookingServiceMock(t)
	defer closeFn()

	mock.ExpectBegin()
	mock.ExpectQuery(qUserForUpdate).WithArgs(uint64(1)).WillReturnRows(userRows(1, true))
	mock.ExpectRollback()

	res, err := svc.CreateBooking(context.Background(), 1, 3, 10)
	require.NoError(t, err)
	require.False(t, res.OK)
	require.Equal(t, "user is blocked", res.Message)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBookingSuccess(t *testing.T) {
	svc, mock, closeFn := newBookingServiceMock(t)
	defer closeFn()

	mock.ExpectBegin()
	mock.ExpectQuery(qBookingForUpdate).WithArgs(uint64(7)).WillReturnRows(bookingRows(7, 1, 3, 10, "active"))
	mock.ExpectExec(qUpdateBookingSt).WithArgs("canceled", uint64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(qFlipSlot).WithArgs(true, uint64(10)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.CancelBooking(context.Background(), 7, 1)
	require.NoError(t, err)
	require.True(t, res.OK)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBookingNotOwner(t *testing.T) {
	svc, mock, closeFn := newBookingServiceMock(t)
	defer closeFn()

	mock.ExpectBegin()
	mock.ExpectQuery(qBookingForUpdate).WithArgs(uint64(7)).WillReturnRows(bookingRows(7, 99, 3, 10, "active"))
	mock.ExpectRollback()

	res, err := svc.CancelBooking(context.Background(), 7, 1)
	require.NoError(t, err)
	require.False(t, res.OK)
	require.Equal(t, "cannot cancel this booking", res.Message)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBookingAlreadyCanceled(t *testing.T) {
	svc, mock, closeFn := newBookingServiceMock(t)
	defer closeFn()

	mock.ExpectBegin()
	mock.ExpectQuery(qBookingForUpdate).WithArgs(uint64(7)).WillReturnRows(bookingRows(7, 1, 3, 10, "canceled"))
	mock.ExpectRollback()

	res, err := svc.CancelBooking(context.Background(), 7, 1)
	require.NoError(t, err)
	require.False(t, res.OK)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRescheduleBookingSuccess(t *testing.T) {
	svc, mock, closeFn := newBookingServiceMock(t)
	defer closeFn()

	mock.ExpectBegin()
	mock.ExpectQuery(qBookingForUpdate).WithArgs(uint64(7)).WillReturnRows(bookingRows(7, 1, 3, 10, "active"))
	mock.ExpectQuery(qSlotForUpdate).WithArgs(uint64(11)).WillReturnRows(slotRows(11, 4, true))
	mock.ExpectQuery(qActiveBySlot).WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(qFlipSlot).WithArgs(true, uint64(10)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(qFlipSlot).WithArgs(false, uint64(11)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(qUpdateBookingSl).WithArgs(uint64(11), uint64(4), uint64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.RescheduleBooking(context.Background(), 7, 11, 1)
	require.NoError(t, err)
	require.True(t, res.OK)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRescheduleBookingNewSlotTaken(t *testing.T) {
	svc, mock, closeFn := newBookingServiceMock(t)
	defer closeFn()

	mock.ExpectBegin()
	mock.ExpectQuery(qBookingForUpdate).WithArgs(uint64(7)).WillReturnRows(bookingRows(7, 1, 3, 10, "active"))
	mock.ExpectQuery(qSlotForUpdate).WithArgs(uint64(11)).WillReturnRows(slotRows(11, 4, true))
	mock.ExpectQuery(qActiveBySlot).WillReturnRows(sqlmock.NewRows([]string{"one"}).AddRow(1))
	mock.ExpectRollback()

	res, err := svc.RescheduleBooking(context.Background(), 7, 11, 1)
	require.NoError(t, err)
	require.False(t, res.OK)
	require.Equal(t, "new slot is not available", res.Message)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIsSlotAvailable(t *testing.T) {
	svc, mock, closeFn := newBookingServiceMock(t)
	defer closeFn()

	mock.ExpectQuery(qSlotByID).WithArgs(uint64(10)).WillReturnRows(slotRows(10, 3, true))
	mock.ExpectQuery(qActiveBySlot).WillReturnError(sql.ErrNoRows)

	available, err := svc.IsSlotAvailable(context.Background(), 3, 10)
	require.NoError(t, err)
	require.True(t, available)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIsSlotAvailableWrongMachine(t *testing.T) {
	svc, mock, closeFn := newBookingServiceMock(t)
	defer closeFn()

	mock.ExpectQuery(qSlotByID).WithArgs(uint64(10)).WillReturnRows(slotRows(10, 4, true))

	available, err := svc.IsSlotAvailable(context.Background(), 3, 10)
	require.NoError(t, err)
	require.False(t, available)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCanUserBookUnderQuota(t *testing.T) {
	svc, mock, closeFn := newBookingServiceMock(t)
	defer closeFn()

	mock.ExpectQuery(`FROM users WHERE id=\? LIMIT 1`).WithArgs(uint64(1)).WillReturnRows(userRows(1, false))
	mock.ExpectQuery(qCountActive).WillReturnRows(countRows(1))

	ok, err := svc.CanUserBook(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}
