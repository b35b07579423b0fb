package model

import "time"

// Schedule gates booking for a single calendar date. When no row
// exists for a date the service falls back to its legacy default:
// every unblocked machine is bookable. When a row exists, IsOpen
// decides whether the date accepts bookings at all and the
// schedule_machines association decides which machines participate.
//
// Fields:
//  ID        – primary key identifier.
//  Date      – calendar date this row governs (one row per date).
//  IsOpen    – whether booking is open for the date.
//  CreatedAt – timestamp of creation.
type Schedule struct {
    ID        uint64    // schedules.id
    Date      time.Time // schedules.date (date only, time part zero)
    IsOpen    bool      // schedules.is_open
    CreatedAt time.Time // schedules.created_at
}

// ScheduleMachine links a schedule date to a machine enabled on that
// date. The association set is replaced wholesale on every schedule
// update. An empty set under an open schedule means no machine is
// bookable that date, which is distinct from having no schedule row.
//
// Fields:
//  ID         – primary key identifier.
//  ScheduleID – schedule the machine is enabled for.
//  MachineID  – machine enabled on the schedule's date.
type ScheduleMachine struct {
    ID         uint64 // schedule_machines.id
    ScheduleID uint64 // schedule_machines.schedule_id
    MachineID  uint64 // schedule_machines.machine_id
}
