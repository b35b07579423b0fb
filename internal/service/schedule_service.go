package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Q1zin/laundry-appointment-app/internal/model"
	"github.com/Q1zin/laundry-appointment-app/internal/repository"
)

// ScheduleService owns per-date booking configuration (the gate) and
// the read-only schedule view served to clients (the projector).
// Gate mutations run in a single transaction: the schedule upsert, the
// wholesale machine-set replacement and any slot regeneration commit
// together or not at all.
type ScheduleService struct {
	db        *sql.DB
	machines  *repository.MachineRepo
	slots     *repository.TimeslotRepo
	bookings  *repository.BookingRepo
	schedules *repository.ScheduleRepo
}

// NewScheduleService constructs the service. All dependencies must be non-nil.
func NewScheduleService(db *sql.DB, machines *repository.MachineRepo, slots *repository.TimeslotRepo, bookings *repository.BookingRepo, schedules *repository.ScheduleRepo) *ScheduleService {
	if db == nil || machines == nil || slots == nil || bookings == nil || schedules == nil {
		panic("nil dependency passed to NewScheduleService")
	}
	return &ScheduleService{
		db:        db,
		machines:  machines,
		slots:     slots,
		bookings:  bookings,
		schedules: schedules,
	}
}

// OpenDate finds or creates the schedule row for a date, marks it open
// and makes the date's existing slots bookable again. Slots still held
// by an active booking stay unavailable.
func (s *ScheduleService) OpenDate(ctx context.Context, date time.Time) (Result, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := s.schedules.UpsertByDateTx(ctx, tx, date, true); err != nil {
		return Result{}, err
	}
	if err := s.slots.MarkUnbookedAvailableByDateTx(ctx, tx, date); err != nil {
		return Result{}, err
	}
	if err := tx.Commit(); err != nil {
		return Result{}, err
	}
	committed = true
	return success("date opened for booking"), nil
}

// CloseDate marks an existing schedule row closed and hides the date's
// slots. Existing bookings are untouched; closing only blocks new ones.
// Closing a date with no schedule row, or one already closed, fails.
func (s *ScheduleService) CloseDate(ctx context.Context, date time.Time) (Result, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	sched, err := s.schedules.GetByDateTx(ctx, tx, date)
	if errors.Is(err, sql.ErrNoRows) {
		return failure("schedule not found"), nil
	}
	if err != nil {
		return Result{}, err
	}
	if !sched.IsOpen {
		return failure("date is already closed"), nil
	}
	if _, err := s.schedules.UpsertByDateTx(ctx, tx, date, false); err != nil {
		return Result{}, err
	}
	if err := s.slots.SetAvailabilityByDateTx(ctx, tx, date, false); err != nil {
		return Result{}, err
	}
	if err := tx.Commit(); err != nil {
		return Result{}, err
	}
	committed = true
	return success("date closed for booking"), nil
}

// SetSchedule upserts the schedule row for a date, replaces its machine
// association set wholesale and, when the date is open and machines are
// named, regenerates timeslots for those machines: prior slots for each
// (machine, date) pair are deleted, then one slot per window is created
// from the explicit "HH:MM-HH:MM" windows or the default seven.
func (s *ScheduleService) SetSchedule(ctx context.Context, date time.Time, isOpen bool, machineIDs []uint64, windows []string) (Result, error) {
	generated, err := slotWindows(date, windows)
	if err != nil {
		return failure(err.Error()), nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	sched, err := s.schedules.UpsertByDateTx(ctx, tx, date, isOpen)
	if err != nil {
		return Result{}, err
	}
	if err := s.schedules.ReplaceMachinesTx(ctx, tx, sched.ID, machineIDs); err != nil {
		return Result{}, err
	}

	if isOpen && len(machineIDs) > 0 {
		for _, machineID := range machineIDs {
			if err := s.slots.DeleteByMachineAndDateTx(ctx, tx, machineID, date); err != nil {
				return Result{}, err
			}
			slots := make([]model.Timeslot, 0, len(generated))
			for _, w := range generated {
				slots = append(slots, model.Timeslot{
					MachineID:   machineID,
					StartTime:   w.start,
					EndTime:     w.end,
					IsAvailable: true,
				})
			}
			if err := s.slots.CreateBulkTx(ctx, tx, slots); err != nil {
				return Result{}, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return Result{}, err
	}
	committed = true
	return success("schedule saved"), nil
}

// DeleteSchedule removes a schedule row and its machine links.
func (s *ScheduleService) DeleteSchedule(ctx context.Context, scheduleID uint64) (Result, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := s.schedules.DeleteTx(ctx, tx, scheduleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return failure("schedule not found"), nil
		}
		return Result{}, err
	}
	if err := tx.Commit(); err != nil {
		return Result{}, err
	}
	committed = true
	return success("schedule deleted"), nil
}

// ScheduleInfo is a schedule row together with its enabled machine ids,
// as shown in the admin panel.
type ScheduleInfo struct {
	ID         uint64    `json:"id"`
	Date       string    `json:"date"`
	IsOpen     bool      `json:"is_open"`
	MachineIDs []uint64  `json:"machine_ids"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListSchedules returns all configured schedules with their machine sets.
func (s *ScheduleService) ListSchedules(ctx context.Context) ([]ScheduleInfo, error) {
	schedules, err := s.schedules.List(ctx)
	if err != nil {
		return nil, err
	}
	infos := make([]ScheduleInfo, 0, len(schedules))
	for _, sched := range schedules {
		ids, err := s.schedules.MachineIDs(ctx, sched.ID)
		if err != nil {
			return nil, err
		}
		infos = append(infos, ScheduleInfo{
			ID:         sched.ID,
			Date:       sched.Date.Format("2006-01-02"),
			IsOpen:     sched.IsOpen,
			MachineIDs: ids,
			CreatedAt:  sched.CreatedAt,
		})
	}
	return infos, nil
}

// MachineView is a machine as rendered on the booking grid.
type MachineView struct {
	ID     uint64 `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// SlotView is a timeslot as rendered on the booking grid.
type SlotView struct {
	ID          uint64    `json:"id"`
	MachineID   uint64    `json:"machine_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	IsAvailable bool      `json:"is_available"`
}

// BookingView is a booking as rendered on the booking grid, used for
// occupancy display only.
type BookingView struct {
	ID     uint64 `json:"id"`
	UserID uint64 `json:"user_id"`
	SlotID uint64 `json:"slot_id"`
	State  string `json:"state"`
}

// ScheduleData is the projected view of one date: visible machines,
// visible slots and the date's bookings.
type ScheduleData struct {
	Machines []MachineView `json:"machines"`
	Slots    []SlotView    `json:"timeslots"`
	Bookings []BookingView `json:"bookings"`
}

// GetSchedule projects the booking grid for a date.
//
// Visibility rules: with no schedule row every unblocked machine and
// every slot on the date is visible (legacy default-open behavior); a
// closed schedule hides everything; an open schedule with an empty
// machine set shows no machines or slots; an open schedule with
// machines shows the unblocked machines of that set and the date's
// slots restricted to them. Except on a fully hidden (closed) date,
// bookings for the date are always included unfiltered so occupancy
// can be rendered on whatever grid remains.
func (s *ScheduleService) GetSchedule(ctx context.Context, date time.Time) (ScheduleData, error) {
	data := ScheduleData{
		Machines: make([]MachineView, 0),
		Slots:    make([]SlotView, 0),
		Bookings: make([]BookingView, 0),
	}

	allMachines, err := s.machines.List(ctx)
	if err != nil {
		return ScheduleData{}, err
	}

	sched, err := s.schedules.GetByDate(ctx, date)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// No configuration: every unblocked machine and all of the
		// date's slots are visible.
		for _, m := range allMachines {
			if m.Status == model.MachineAvailable {
				data.Machines = append(data.Machines, machineView(m))
			}
		}
		slots, err := s.slots.ListByDate(ctx, date)
		if err != nil {
			return ScheduleData{}, err
		}
		for _, sl := range slots {
			data.Slots = append(data.Slots, slotView(sl))
		}
	case err != nil:
		return ScheduleData{}, err
	case !sched.IsOpen:
		// Closed date: machines, slots and bookings are all hidden.
		return data, nil
	default:
		enabled, err := s.schedules.MachineIDs(ctx, sched.ID)
		if err != nil {
			return ScheduleData{}, err
		}
		if len(enabled) > 0 {
			enabledSet := make(map[uint64]struct{}, len(enabled))
			for _, id := range enabled {
				enabledSet[id] = struct{}{}
			}
			for _, m := range allMachines {
				if _, ok := enabledSet[m.ID]; ok && m.Status == model.MachineAvailable {
					data.Machines = append(data.Machines, machineView(m))
				}
			}
			slots, err := s.slots.ListByDate(ctx, date)
			if err != nil {
				return ScheduleData{}, err
			}
			for _, sl := range slots {
				if _, ok := enabledSet[sl.MachineID]; ok {
					data.Slots = append(data.Slots, slotView(sl))
				}
			}
		}
		// Open with an empty machine set: nothing is bookable, but the
		// date is not hidden, so bookings below are still reported.
	}

	bookings, err := s.bookings.ListByDate(ctx, date)
	if err != nil {
		return ScheduleData{}, err
	}
	for _, b := range bookings {
		data.Bookings = append(data.Bookings, BookingView{
			ID:     b.ID,
			UserID: b.UserID,
			SlotID: b.SlotID,
			State:  string(b.State),
		})
	}
	return data, nil
}

func machineView(m model.Machine) MachineView {
	return MachineView{ID: m.ID, Name: m.Name, Status: string(m.Status)}
}

func slotView(s model.Timeslot) SlotView {
	return SlotView{
		ID:          s.ID,
		MachineID:   s.MachineID,
		StartTime:   s.StartTime,
		EndTime:     s.EndTime,
		IsAvailable: s.IsAvailable,
	}
}
