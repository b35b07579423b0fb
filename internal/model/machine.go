package model

import "time"

// MachineStatus enumerates the lifecycle states of a laundry machine.
// The set is closed: repositories and services must only ever write one
// of the constants below and switch exhaustively when reading.
type MachineStatus string

const (
    // MachineAvailable marks a machine that may appear in schedules
    // and accept bookings.
    MachineAvailable MachineStatus = "available"
    // MachineBlocked marks a machine taken out of service by an
    // administrator. Blocked machines are excluded from every
    // projected schedule regardless of date configuration.
    MachineBlocked MachineStatus = "blocked"
)

// Machine represents a physical laundry machine as stored in the
// `machines` table. The json tags are omitted here because these
// structs are primarily used internally by the repository layer;
// handlers define separate response types where needed.
//
// Fields:
//  ID        – primary key identifier of the machine.
//  Name      – display name shown in the booking grid.
//  Status    – availability status (available, blocked).
//  CreatedAt – timestamp of creation.
type Machine struct {
    ID        uint64        // machines.id
    Name      string        // machines.name
    Status    MachineStatus // machines.status
    CreatedAt time.Time     // machines.created_at
}
