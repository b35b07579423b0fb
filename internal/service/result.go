// Package service implements the business core of the laundry
// reservation system: the reservation engine, the schedule gate and
// projector, and the admin operations. Business-rule violations are
// reported as Result values, never as errors; only infrastructure
// failures (store unavailable, transaction abort) surface as errors.
package service

// Result is the outcome of an engine or gate operation. Message is a
// human-readable reason intended for display; callers must never parse
// it. BookingID is populated only by a successful create.
type Result struct {
	OK        bool   `json:"result"`
	Message   string `json:"message"`
	BookingID uint64 `json:"booking_id,omitempty"`
}

func success(msg string) Result { return Result{OK: true, Message: msg} }
func failure(msg string) Result { return Result{OK: false, Message: msg} }
