package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Q1zin/laundry-appointment-app/internal/model"
	"github.com/Q1zin/laundry-appointment-app/internal/repository"
)

// BookingService is the reservation engine. Every mutating operation
// (create, cancel, reschedule) runs inside a single transaction that
// locks the rows it is about to judge: the user row serializes quota
// checks by the same user, the slot row serializes competing bookings
// of the same slot. The availability/quota predicates are re-evaluated
// under those locks immediately before the writes, so two concurrent
// requests can never both pass a stale check.
type BookingService struct {
	db       *sql.DB
	users    *repository.UserRepo
	slots    *repository.TimeslotRepo
	bookings *repository.BookingRepo

	// maxActiveBookings is the per-user quota of future active
	// bookings (MAX_ACTIVE_BOOKINGS in the configuration).
	maxActiveBookings int
}

// NewBookingService constructs the engine. All dependencies must be non-nil.
func NewBookingService(db *sql.DB, users *repository.UserRepo, slots *repository.TimeslotRepo, bookings *repository.BookingRepo, maxActiveBookings int) *BookingService {
	if db == nil || users == nil || slots == nil || bookings == nil {
		panic("nil dependency passed to NewBookingService")
	}
	if maxActiveBookings < 1 {
		maxActiveBookings = 1
	}
	return &BookingService{
		db:                db,
		users:             users,
		slots:             slots,
		bookings:          bookings,
		maxActiveBookings: maxActiveBookings,
	}
}

// CreateBooking reserves a slot for a user. Preconditions are checked
// in order and the first failure wins: the user must exist, not be
// blocked and be under quota; the slot must exist, belong to the stated
// machine, be flagged available and carry no active booking; the quota
// is then counted once more under the user row lock before the insert.
// On success the booking row insert and the slot availability flip
// commit as one unit.
func (s *BookingService) CreateBooking(ctx context.Context, userID, machineID, slotID uint64) (Result, error) {
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

	u, err := s.users.GetForUpdateTx(ctx, tx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return failure("user not found"), nil
	}
	if err != nil {
		return Result{}, err
	}
	if u.IsBlocked {
		return failure("user is blocked"), nil
	}
	now := time.Now().UTC()
	count, err := s.bookings.CountFutureActiveTx(ctx, tx, userID, now)
	if err != nil {
		return Result{}, err
	}
	if count >= s.maxActiveBookings {
		return failure(s.quotaMessage()), nil
	}

	slot, err := s.slots.GetForUpdateTx(ctx, tx, slotID)
	if errors.Is(err, sql.ErrNoRows) {
		return failure("slot is not available"), nil
	}
	if err != nil {
		return Result{}, err
	}
	if slot.MachineID != machineID || !slot.IsAvailable {
		return failure("slot is not available"), nil
	}
	occupied, err := s.bookings.ExistsBySlotAndStateTx(ctx, tx, slotID, model.BookingActive)
	if err != nil {
		return Result{}, err
	}
	if occupied {
		return failure("slot is not available"), nil
	}

	// Quota is counted a second time after the availability check so
	// the value used for the final decision is the one observed under
	// the user row lock, not the advisory one.
	count, err = s.bookings.CountFutureActiveTx(ctx, tx, userID, now)
	if err != nil {
		return Result{}, err
	}
	if count >= s.maxActiveBookings {
		return failure(s.quotaMessage()), nil
	}

	booking := &model.Booking{
		UserID:    userID,
		MachineID: machineID,
		SlotID:    slotID,
		State:     model.BookingActive,
	}
	if err := s.bookings.CreateTx(ctx, tx, booking); err != nil {
		return Result{}, err
	}
	if err := s.slots.SetAvailabilityTx(ctx, tx, slotID, false); err != nil {
		return Result{}, err
	}
	if err := tx.Commit(); err != nil {
		return Result{}, err
	}
	committed = true
	res := success("booking created")
	res.BookingID = booking.ID
	return res, nil
}

// CancelBooking cancels an active booking owned by the calling user and
// releases its slot. State transition and slot release commit as one
// unit. Non-owned or non-active bookings fail without side effects.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, userID uint64) (Result, error) {
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
	if b.UserID != userID || b.State != model.BookingActive {
		return failure("cannot cancel this booking"), nil
	}

	if err := s.bookings.UpdateStateTx(ctx, tx, bookingID, model.BookingCanceled); err != nil {
		return Result{}, err
	}
	if err := s.slots.SetAvailabilityTx(ctx, tx, b.SlotID, true); err != nil {
		return Result{}, err
	}
	if err := tx.Commit(); err != nil {
		return Result{}, err
	}
	committed = true
	return success("booking canceled"), nil
}

// RescheduleBooking moves an active booking owned by the calling user
// to a new slot. Freeing the old slot, reserving the new one and
// repointing the booking are three writes that commit as one unit; if
// the new slot turns out to be taken, nothing changes.
func (s *BookingService) RescheduleBooking(ctx context.Context, bookingID, newSlotID, userID uint64) (Result, error) {
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
	if b.UserID != userID || b.State != model.BookingActive {
		return failure("cannot reschedule this booking"), nil
	}

	newSlot, err := s.slots.GetForUpdateTx(ctx, tx, newSlotID)
	if errors.Is(err, sql.ErrNoRows) {
		return failure("new slot is not available"), nil
	}
	if err != nil {
		return Result{}, err
	}
	if !newSlot.IsAvailable {
		return failure("new slot is not available"), nil
	}
	occupied, err := s.bookings.ExistsBySlotAndStateTx(ctx, tx, newSlotID, model.BookingActive)
	if err != nil {
		return Result{}, err
	}
	if occupied {
		return failure("new slot is not available"), nil
	}

	if err := s.slots.SetAvailabilityTx(ctx, tx, b.SlotID, true); err != nil {
		return Result{}, err
	}
	if err := s.slots.SetAvailabilityTx(ctx, tx, newSlotID, false); err != nil {
		return Result{}, err
	}
	if err := s.bookings.UpdateSlotTx(ctx, tx, bookingID, newSlotID, newSlot.MachineID); err != nil {
		return Result{}, err
	}
	if err := tx.Commit(); err != nil {
		return Result{}, err
	}
	committed = true
	return success("booking rescheduled"), nil
}

// IsSlotAvailable reports whether a slot exists, belongs to the stated
// machine, is flagged available and has no active booking against it.
// Pure predicate with no side effects; the engine re-evaluates the same
// conditions under locks before any write, so this read is advisory.
func (s *BookingService) IsSlotAvailable(ctx context.Context, machineID, slotID uint64) (bool, error) {
	slot, err := s.slots.GetByID(ctx, slotID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if slot.MachineID != machineID || !slot.IsAvailable {
		return false, nil
	}
	occupied, err := s.bookings.ExistsBySlotAndState(ctx, slotID, model.BookingActive)
	if err != nil {
		return false, err
	}
	return !occupied, nil
}

// CanUserBook reports whether a user exists, is not blocked and is
// under the future-active-booking quota.
func (s *BookingService) CanUserBook(ctx context.Context, userID uint64) (bool, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if u.IsBlocked {
		return false, nil
	}
	count, err := s.bookings.CountFutureActive(ctx, userID, time.Now().UTC())
	if err != nil {
		return false, err
	}
	return count < s.maxActiveBookings, nil
}

// GetUserBookings returns the user's active bookings joined with
// machine and slot details. Bookings whose slot has already ended are
// labeled "past" in the view; the stored state is untouched.
func (s *BookingService) GetUserBookings(ctx context.Context, userID uint64) ([]repository.BookingDetail, error) {
	details, err := s.bookings.ListDetailsByUserAndState(ctx, userID, model.BookingActive)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	for i := range details {
		if details[i].EndTime.Before(now) {
			details[i].State = "past"
		}
	}
	return details, nil
}

func (s *BookingService) quotaMessage() string {
	return fmt.Sprintf("active booking limit reached (maximum %d)", s.maxActiveBookings)
}
