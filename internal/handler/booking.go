package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Q1zin/laundry-appointment-app/internal/queue"
	"github.com/Q1zin/laundry-appointment-app/internal/repository"
	"github.com/Q1zin/laundry-appointment-app/internal/service"
)

// BookingHandler exposes the reservation engine over HTTP. All routes
// assume JWT authentication has already populated user_id in the
// context. Business rule failures come back as Result values with
// result=false and a 409 status; only infrastructure errors produce 500.
type BookingHandler struct {
	Bookings *service.BookingService
	Users    *repository.UserRepo
	Machines *repository.MachineRepo
	Slots    *repository.TimeslotRepo
}

// NewBookingHandler constructs the handler. All dependencies must be non-nil.
func NewBookingHandler(b *service.BookingService, u *repository.UserRepo, m *repository.MachineRepo, s *repository.TimeslotRepo) *BookingHandler {
	if b == nil || u == nil || m == nil || s == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Bookings: b, Users: u, Machines: m, Slots: s}
}

type createBookingReq struct {
	MachineID uint64 `json:"machine_id"`
	SlotID    uint64 `json:"slot_id"`
}

type rescheduleReq struct {
	NewSlotID uint64 `json:"new_slot_id"`
}

// Create handles POST /v1/bookings. On success a booking.created event
// is published in the background; publish failures never affect the
// response.
func (h *BookingHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.MachineID == 0 || req.SlotID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "machine_id and slot_id are required"})
	}

	res, err := h.Bookings.CreateBooking(c.Request().Context(), userID, req.MachineID, req.SlotID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
	}
	if !res.OK {
		return c.JSON(http.StatusConflict, res)
	}

	go h.publishCreated(res.BookingID, userID, req.MachineID, req.SlotID)

	return c.JSON(http.StatusCreated, res)
}

// publishCreated loads the details referenced by a fresh booking and
// publishes the event. Best effort: every failure is logged and dropped.
func (h *BookingHandler) publishCreated(bookingID, userID, machineID, slotID uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		log.Printf("booking event: load user %d failed: %v", userID, err)
		return
	}
	m, err := h.Machines.GetByID(ctx, machineID)
	if err != nil {
		log.Printf("booking event: load machine %d failed: %v", machineID, err)
		return
	}
	slot, err := h.Slots.GetByID(ctx, slotID)
	if err != nil {
		log.Printf("booking event: load slot %d failed: %v", slotID, err)
		return
	}

	_ = queue.PublishBookingCreated(ctx, queue.BookingCreatedEvent{
		BookingID:   bookingID,
		UserID:      u.ID,
		UserName:    u.Name,
		MachineID:   m.ID,
		MachineName: m.Name,
		SlotID:      slot.ID,
		StartsAt:    slot.StartTime.UTC().Format(time.RFC3339),
		EndsAt:      slot.EndTime.UTC().Format(time.RFC3339),
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	})
}

// Cancel handles POST /v1/bookings/:id/cancel.
func (h *BookingHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	res, err := h.Bookings.CancelBooking(c.Request().Context(), bookingID, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}
	if !res.OK {
		return c.JSON(http.StatusConflict, res)
	}
	return c.JSON(http.StatusOK, res)
}

// Reschedule handles POST /v1/bookings/:id/reschedule.
func (h *BookingHandler) Reschedule(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req rescheduleReq
	if err := c.Bind(&req); err != nil || req.NewSlotID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "new_slot_id is required"})
	}
	res, err := h.Bookings.RescheduleBooking(c.Request().Context(), bookingID, req.NewSlotID, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reschedule failed"})
	}
	if !res.OK {
		return c.JSON(http.StatusConflict, res)
	}
	return c.JSON(http.StatusOK, res)
}

// My handles GET /v1/bookings/my: active bookings of the caller with
// machine and slot details.
func (h *BookingHandler) My(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Bookings.GetUserBookings(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// CanBook handles GET /v1/bookings/can-book: a pre-flight quota check.
func (h *BookingHandler) CanBook(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ok, err := h.Bookings.CanUserBook(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "check failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"can_book": ok})
}

// SlotAvailable handles GET /v1/machines/:machineId/slots/:slotId/available.
// Advisory only: the engine re-checks under locks before writing.
func (h *BookingHandler) SlotAvailable(c echo.Context) error {
	machineID, ok := pathID(c, "machineId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid machine id"})
	}
	slotID, ok := pathID(c, "slotId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot id"})
	}
	available, err := h.Bookings.IsSlotAvailable(c.Request().Context(), machineID, slotID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "check failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"available": available})
}
