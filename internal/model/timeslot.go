package model

import "time"

// Timeslot is a fixed, pre-generated booking window on a specific
// machine. Slots are created in bulk when an administrator opens a
// date; they are never resized or moved afterwards.
//
// The IsAvailable flag is the slot half of the central invariant:
// it is true iff no booking in state `active` references the slot.
// The reservation engine flips it together with booking writes
// inside one transaction.
//
// Fields:
//  ID          – primary key identifier.
//  MachineID   – machine that owns this window.
//  StartTime   – inclusive start of the window (UTC).
//  EndTime     – exclusive end of the window (UTC).
//  IsAvailable – whether the slot can currently be booked.
//  CreatedAt   – timestamp of creation.
type Timeslot struct {
    ID          uint64    // timeslots.id
    MachineID   uint64    // timeslots.machine_id
    StartTime   time.Time // timeslots.start_time
    EndTime     time.Time // timeslots.end_time
    IsAvailable bool      // timeslots.is_available
    CreatedAt   time.Time // timeslots.created_at
}
