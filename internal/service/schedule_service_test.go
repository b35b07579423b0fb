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

const (
	qMachineList     = `FROM machines ORDER BY name`
	qScheduleByDate  = `FROM schedules WHERE date=\? LIMIT 1`
	qScheduleByID    = `FROM schedules WHERE id=\? LIMIT 1`
	qSlotsByDate     = `SELECT id, machine_id, start_time, end_time, is_available, created_at FROM timeslots WHERE DATE\(start_time\)=\?`
	qScheduleLinks   = `SELECT machine_id FROM schedule_machines WHERE schedule_id=\?`
	qBookingsByDate  = `WHERE DATE\(t.start_time\) = \?`
	qInsertSchedule  = `INSERT INTO schedules`
	qDeleteLinks     = `DELETE FROM schedule_machines WHERE schedule_id=\?`
	qInsertLinks     = `INSERT INTO schedule_machines`
	qDeleteSlots     = `DELETE FROM timeslots WHERE machine_id=\? AND DATE\(start_time\)=\?`
	qInsertSlots     = `INSERT INTO timeslots`
	qReopenUnbooked  = `UPDATE timeslots t SET t.is_available=1`
	qCloseSlotsByDay = `UPDATE timeslots SET is_available=\? WHERE DATE\(start_time\)=\?`
)

func newScheduleServiceMock(t *testing.T) (*ScheduleService, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	svc := NewScheduleService(db,
		repository.NewMachineRepo(db),
		repository.NewTimeslotRepo(db),
		repository.NewBookingRepo(db),
		repository.NewScheduleRepo(db))
	return svc, mock, func() { _ = db.Close() }
}

func machineListRows(rows ...[2]interface{}) *sqlmock.Rows {
	r := sqlmock.NewRows([]string{"id", "name", "status", "created_at"})
	for _, row := range rows {
		r.AddRow(row[0], "Machine", row[1], time.Now())
	}
	return r
}

func scheduleRows(id uint64, date time.Time, isOpen bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "date", "is_open", "created_at"}).
		AddRow(id, date, isOpen, time.Now())
}

func daySlotRows(specs ...[2]uint64) *sqlmock.Rows {
	r := sqlmock.NewRows([]string{"id", "machine_id", "start_time", "end_time", "is_available", "created_at"})
	start := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	for _, s := range specs {
		r.AddRow(s[0], s[1], start, start.Add(2*time.Hour), true, time.Now())
	}
	return r
}

func dayBookingRows(specs ...[3]uint64) *sqlmock.Rows {
	r := sqlmock.NewRows([]string{"id", "user_id", "machine_id", "slot_id", "state", "created_at"})
	for _, s := range specs {
		r.AddRow(s[0], s[1], 3, s[2], "active", time.Now())
	}
	return r
}

var testDate = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func TestGetScheduleNoConfiguration(t *testing.T) {
	svc, mock, closeFn := newScheduleServiceMock(t)
	defer closeFn()

	mock.ExpectQuery(qMachineList).WillReturnRows(machineListRows(
		[2]interface{}{uint64(1), "available"},
		[2]interface{}{uint64(2), "blocked"},
	))
	mock.ExpectQuery(qScheduleByDate).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(qSlotsByDate).WillReturnRows(daySlotRows([2]uint64{10, 1}, [2]uint64{11, 2}))
	mock.ExpectQuery(qBookingsByDate).WillReturnRows(dayBookingRows([3]uint64{7, 1, 10}))

	data, err := svc.GetSchedule(context.Background(), testDate)
	require.NoError(t, err)
	// blocked machine hidden, every slot on the date visible
	require.Len(t, data.Machines, 1)
	require.Equal(t, uint64(1), data.Machines[0].ID)
	require.Len(t, data.Slots, 2)
	require.Len(t, data.Bookings, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetScheduleClosedDateHidesEverything(t *testing.T) {
	svc, mock, closeFn := newScheduleServiceMock(t)
	defer closeFn()

	mock.ExpectQuery(qMachineList).WillReturnRows(machineListRows(
		[2]interface{}{uint64(1), "available"},
	))
	mock.ExpectQuery(qScheduleByDate).WillReturnRows(scheduleRows(5, testDate, false))

	data, err := svc.GetSchedule(context.Background(), testDate)
	require.NoError(t, err)
	require.Empty(t, data.Machines)
	require.Empty(t, data.Slots)
	require.Empty(t, data.Bookings)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetScheduleOpenWithMachineSet(t *testing.T) {
	svc, mock, closeFn := newScheduleServiceMock(t)
	defer closeFn()

	mock.ExpectQuery(qMachineList).WillReturnRows(machineListRows(
		[2]interface{}{uint64(1), "available"},
		[2]interface{}{uint64(2), "available"},
	))
	mock.ExpectQuery(qScheduleByDate).WillReturnRows(scheduleRows(5, testDate, true))
	mock.ExpectQuery(qScheduleLinks).WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"machine_id"}).AddRow(1))
	mock.ExpectQuery(qSlotsByDate).WillReturnRows(daySlotRows([2]uint64{10, 1}, [2]uint64{11, 2}))
	mock.ExpectQuery(qBookingsByDate).WillReturnRows(dayBookingRows())

	data, err := svc.GetSchedule(context.Background(), testDate)
	require.NoError(t, err)
	// machine 2 and its slot are outside the enabled set
	require.Len(t, data.Machines, 1)
	require.Equal(t, uint64(1), data.Machines[0].ID)
	require.Len(t, data.Slots, 1)
	require.Equal(t, uint64(10), data.Slots[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetScheduleOpenEmptyMachineSet(t *testing.T) {
	svc, mock, closeFn := newScheduleServiceMock(t)
	defer closeFn()

	mock.ExpectQuery(qMachineList).WillReturnRows(machineListRows(
		[2]interface{}{uint64(1), "available"},
	))
	mock.ExpectQuery(qScheduleByDate).WillReturnRows(scheduleRows(5, testDate, true))
	mock.ExpectQuery(qScheduleLinks).WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"machine_id"}))
	mock.ExpectQuery(qBookingsByDate).WillReturnRows(dayBookingRows([3]uint64{7, 1, 10}))

	data, err := svc.GetSchedule(context.Background(), testDate)
	require.NoError(t, err)
	// nothing bookable, but occupancy still reported
	require.Empty(t, data.Machines)
	require.Empty(t, data.Slots)
	require.Len(t, data.Bookings, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenDateCreatesScheduleAndFreesUnbookedSlots(t *testing.T) {
	svc, mock, closeFn := newScheduleServiceMock(t)
	defer closeFn()

	mock.ExpectBegin()
	mock.ExpectQuery(qScheduleByDate).WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(qInsertSchedule).WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectQuery(qScheduleByID).WithArgs(int64(5)).WillReturnRows(scheduleRows(5, testDate, true))
	mock.ExpectExec(qReopenUnbooked).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	res, err := svc.OpenDate(context.Background(), testDate)
	require.NoError(t, err)
	require.True(t, res.OK)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseDateAlreadyClosed(t *testing.T) {
	svc, mock, closeFn := newScheduleServiceMock(t)
	defer closeFn()

	mock.ExpectBegin()
	mock.ExpectQuery(qScheduleByDate).WillReturnRows(scheduleRows(5, testDate, false))
	mock.ExpectRollback()

	res, err := svc.CloseDate(context.Background(), testDate)
	require.NoError(t, err)
	require.False(t, res.OK)
	require.Equal(t, "date is already closed", res.Message)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseDateHidesSlots(t *testing.T) {
	svc, mock, closeFn := newScheduleServiceMock(t)
	defer closeFn()

	mock.ExpectBegin()
	mock.ExpectQuery(qScheduleByDate).WillReturnRows(scheduleRows(5, testDate, true))
	// UpsertByDateTx re-reads the row under lock before flipping is_open
	mock.ExpectQuery(qScheduleByDate).WillReturnRows(scheduleRows(5, testDate, true))
	mock.ExpectExec(`UPDATE schedules SET is_open=\? WHERE id=\?`).WithArgs(false, uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(qCloseSlotsByDay).WithArgs(false, "2025-03-10").
		WillReturnResult(sqlmock.NewResult(0, 7))
	mock.ExpectCommit()

	res, err := svc.CloseDate(context.Background(), testDate)
	require.NoError(t, err)
	require.True(t, res.OK)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetScheduleRejectsBadWindow(t *testing.T) {
	svc, mock, closeFn := newScheduleServiceMock(t)
	defer closeFn()

	res, err := svc.SetSchedule(context.Background(), testDate, true, []uint64{1}, []string{"22:00-08:00"})
	require.NoError(t, err)
	require.False(t, res.OK)
	require.Contains(t, res.Message, "invalid time window")
	// nothing touched the database
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetScheduleRegeneratesSlots(t *testing.T) {
	svc, mock, closeFn := newScheduleServiceMock(t)
	defer closeFn()

	mock.ExpectBegin()
	mock.ExpectQuery(qScheduleByDate).WillReturnRows(scheduleRows(5, testDate, true))
	mock.ExpectExec(qDeleteLinks).WithArgs(uint64(5)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(qInsertLinks).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(qDeleteSlots).WithArgs(uint64(1), "2025-03-10").WillReturnResult(sqlmock.NewResult(0, 7))
	mock.ExpectExec(qInsertSlots).WillReturnResult(sqlmock.NewResult(0, 7))
	mock.ExpectCommit()

	res, err := svc.SetSchedule(context.Background(), testDate, true, []uint64{1}, nil)
	require.NoError(t, err)
	require.True(t, res.OK)
	require.NoError(t, mock.ExpectationsWereMet())
}
