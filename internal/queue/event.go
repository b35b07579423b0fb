// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingCreatedEvent is published when a booking is successfully
// created. It contains enough information for downstream consumers to
// log, notify, or trigger analytics without querying the primary
// database.
type BookingCreatedEvent struct {
	BookingID   uint64 `json:"booking_id"`
	UserID      uint64 `json:"user_id"`
	UserName    string `json:"user_name"`
	MachineID   uint64 `json:"machine_id"`
	MachineName string `json:"machine_name"`
	SlotID      uint64 `json:"slot_id"`
	StartsAt    string `json:"starts_at"`
	EndsAt      string `json:"ends_at"`
	CreatedAt   string `json:"created_at"`
}
