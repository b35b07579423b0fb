package model

import "time"

// BookingState enumerates the lifecycle states of a booking. Bookings
// only ever soft-transition between these states; rows are not removed.
type BookingState string

const (
    // BookingActive is the only state that occupies a slot. At most one
    // active booking may reference a given slot at any time.
    BookingActive BookingState = "active"
    // BookingCanceled is set when the owning user cancels; the slot is
    // released in the same transaction.
    BookingCanceled BookingState = "canceled"
    // BookingDeleted is set by an administrative delete; like cancel it
    // releases the slot but is kept distinct for audit purposes.
    BookingDeleted BookingState = "deleted"
)

// Booking records a user's reservation of one timeslot on one machine.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – user who made the booking.
//  MachineID – machine being reserved.
//  SlotID    – timeslot being reserved.
//  State     – lifecycle state (active, canceled, deleted).
//  CreatedAt – creation timestamp.
type Booking struct {
    ID        uint64       // bookings.id
    UserID    uint64       // bookings.user_id
    MachineID uint64       // bookings.machine_id
    SlotID    uint64       // bookings.slot_id
    State     BookingState // bookings.state
    CreatedAt time.Time    // bookings.created_at
}
