package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Q1zin/laundry-appointment-app/internal/model"
	"github.com/Q1zin/laundry-appointment-app/internal/repository"
)

// AdminService implements the administrative mutations that carry
// business rules: machine blocking, user blocking and booking removal.
// Plain list/create reads go straight through the repositories from
// the handlers.
type AdminService struct {
	db        *sql.DB
	machines  *repository.MachineRepo
	users     *repository.UserRepo
	slots     *repository.TimeslotRepo
	bookings  *repository.BookingRepo
	schedules *repository.ScheduleRepo
}

// NewAdminService constructs the service. All dependencies must be non-nil.
func NewAdminService(db *sql.DB, machines *repository.MachineRepo, users *repository.UserRepo, slots *repository.TimeslotRepo, bookings *repository.BookingRepo, schedules *repository.ScheduleRepo) *AdminService {
	if db == nil || machines == nil || users == nil || slots == nil || bookings == nil || schedules == nil {
		panic("nil dependency passed to NewAdminService")
	}
	return &AdminService{
		db:        db,
		machines:  machines,
		users:     users,
		slots:     slots,
		bookings:  bookings,
		schedules: schedules,
	}
}

// BlockMachine sets a machine's status to blocked. Blocking an already
// blocked machine fails.
func (s *AdminService) BlockMachine(ctx context.Context, machineID uint64) (Result, error) {
	m, err := s.machines.GetByID(ctx, machineID)
	if errors.Is(err, repository.ErrMachineNotFound) {
		return failure("machine not found"), nil
	}
	if err != nil {
		return Result{}, err
	}
	if m.Status == model.MachineBlocked {
		return failure("machine is already blocked"), nil
	}
	if err := s.machines.UpdateStatus(ctx, machineID, model.MachineBlocked); err != nil {
		return Result{}, err
	}
	return success("machine blocked"), nil
}

// UnblockMachine sets a machine's status back to available.
func (s *AdminService) UnblockMachine(ctx context.Context, machineID uint64) (Result, error) {
	_, err := s.machines.GetByID(ctx, machineID)
	if errors.Is(err, repository.ErrMachineNotFound) {
		return failure("machine not found"), nil
	}
	if err != nil {
		return Result{}, err
	}
	if err := s.machines.UpdateStatus(ctx, machineID, model.MachineAvailable); err != nil {
		return Result{}, err
	}
	return success("machine unblocked"), nil
}

// DeleteMachine removes a machine together with its schedule links.
// Timeslots and bookings cascade at the database level.
func (s *AdminService) DeleteMachine(ctx context.Context, machineID uint64) (Result, error) {
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

	if err := s.schedules.DeleteLinksByMachineTx(ctx, tx, machineID); err != nil {
		return Result{}, err
	}
	if err := s.machines.DeleteTx(ctx, tx, machineID); err != nil {
		if errors.Is(err, repository.ErrMachineNotFound) {
			return failure("machine not found"), nil
		}
		return Result{}, err
	}
	if err := tx.Commit(); err != nil {
		return Result{}, err
	}
	committed = true
	return success("machine deleted"), nil
}

// DeleteBooking is the administrative purge: the booking transitions to
// state deleted and its slot is freed, both in one transaction. Any
// state may be purged; freeing an already free slot is a no-op.
func (s *AdminService) DeleteBooking(ctx context.Context, bookingID uint64) (Result, error) {
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

	b, err := s.bookings.GetForUpdateTx(ctx, tx, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return failure("booking not found"), nil
	}
	if err != nil {
		return Result{}, err
	}
	if err := s.bookings.UpdateStateTx(ctx, tx, bookingID, model.BookingDeleted); err != nil {
		return Result{}, err
	}
	if err := s.slots.SetAvailabilityTx(ctx, tx, b.SlotID, true); err != nil {
		return Result{}, err
	}
	if err := tx.Commit(); err != nil {
		return Result{}, err
	}
	committed = true
	return success("booking deleted"), nil
}

// BlockUser bars a user from booking and logging in. Admin accounts
// and already blocked users cannot be blocked.
func (s *AdminService) BlockUser(ctx context.Context, userID uint64) (Result, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return failure("user not found"), nil
	}
	if err != nil {
		return Result{}, err
	}
	if u.IsBlocked {
		return failure("user is already blocked"), nil
	}
	if u.Role == model.RoleAdmin {
		return failure("cannot block an administrator"), nil
	}
	if err := s.users.SetBlocked(ctx, userID, true); err != nil {
		return Result{}, err
	}
	return success("user blocked"), nil
}

// UnblockUser lifts a user's block. Unblocking a user who is not
// blocked fails.
func (s *AdminService) UnblockUser(ctx context.Context, userID uint64) (Result, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return failure("user not found"), nil
	}
	if err != nil {
		return Result{}, err
	}
	if !u.IsBlocked {
		return failure("user is not blocked"), nil
	}
	if err := s.users.SetBlocked(ctx, userID, false); err != nil {
		return Result{}, err
	}
	return success("user unblocked"), nil
}
