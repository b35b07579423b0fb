package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Q1zin/laundry-appointment-app/internal/repository"
	"github.com/Q1zin/laundry-appointment-app/internal/service"
)

// AdminHandler exposes the management surface: machines, schedules,
// bookings and users. Every route is behind RequireRole("admin").
type AdminHandler struct {
	Admin     *service.AdminService
	Schedules *service.ScheduleService
	Machines  *repository.MachineRepo
	Bookings  *repository.BookingRepo
	Users     *repository.UserRepo
}

// NewAdminHandler constructs the handler. All dependencies must be non-nil.
func NewAdminHandler(a *service.AdminService, s *service.ScheduleService, m *repository.MachineRepo, b *repository.BookingRepo, u *repository.UserRepo) *AdminHandler {
	if a == nil || s == nil || m == nil || b == nil || u == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{Admin: a, Schedules: s, Machines: m, Bookings: b, Users: u}
}

// resultStatus maps a service Result to an HTTP response: 200 for
// success, 409 for a business rule failure.
func resultStatus(c echo.Context, res service.Result) error {
	if !res.OK {
		return c.JSON(http.StatusConflict, res)
	}
	return c.JSON(http.StatusOK, res)
}

// ----- machines -----

type machineResp struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ListMachines handles GET /v1/admin/machines.
func (h *AdminHandler) ListMachines(c echo.Context) error {
	machines, err := h.Machines.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load machines"})
	}
	items := make([]machineResp, 0, len(machines))
	for _, m := range machines {
		items = append(items, machineResp{ID: m.ID, Name: m.Name, Status: string(m.Status), CreatedAt: m.CreatedAt})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// CreateMachine handles POST /v1/admin/machines.
func (h *AdminHandler) CreateMachine(c echo.Context) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	m, err := h.Machines.Create(c.Request().Context(), strings.TrimSpace(req.Name))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create machine failed"})
	}
	return c.JSON(http.StatusCreated, machineResp{ID: m.ID, Name: m.Name, Status: string(m.Status), CreatedAt: m.CreatedAt})
}

// DeleteMachine handles DELETE /v1/admin/machines/:id.
func (h *AdminHandler) DeleteMachine(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid machine id"})
	}
	res, err := h.Admin.DeleteMachine(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete machine failed"})
	}
	return resultStatus(c, res)
}

// BlockMachine handles POST /v1/admin/machines/:id/block.
func (h *AdminHandler) BlockMachine(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid machine id"})
	}
	res, err := h.Admin.BlockMachine(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "block machine failed"})
	}
	return resultStatus(c, res)
}

// UnblockMachine handles POST /v1/admin/machines/:id/unblock.
func (h *AdminHandler) UnblockMachine(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid machine id"})
	}
	res, err := h.Admin.UnblockMachine(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unblock machine failed"})
	}
	return resultStatus(c, res)
}

// ----- schedules -----

// ListSchedules handles GET /v1/admin/schedules.
func (h *AdminHandler) ListSchedules(c echo.Context) error {
	items, err := h.Schedules.ListSchedules(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load schedules"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

type setScheduleReq struct {
	Date       string   `json:"date"`
	IsOpen     bool     `json:"is_open"`
	MachineIDs []uint64 `json:"machine_ids"`
	Windows    []string `json:"windows"` // optional "HH:MM-HH:MM" strings
}

// SetSchedule handles POST /v1/admin/schedules: upsert the date's
// configuration and regenerate slots when open machines are named.
func (h *AdminHandler) SetSchedule(c echo.Context) error {
	var req setScheduleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	date, ok := parseDate(req.Date)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
	}
	res, err := h.Schedules.SetSchedule(c.Request().Context(), date, req.IsOpen, req.MachineIDs, req.Windows)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "set schedule failed"})
	}
	return resultStatus(c, res)
}

// DeleteSchedule handles DELETE /v1/admin/schedules/:id.
func (h *AdminHandler) DeleteSchedule(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}
	res, err := h.Schedules.DeleteSchedule(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete schedule failed"})
	}
	return resultStatus(c, res)
}

// OpenDate handles POST /v1/admin/schedules/:date/open.
func (h *AdminHandler) OpenDate(c echo.Context) error {
	date, ok := parseDate(c.Param("date"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
	}
	res, err := h.Schedules.OpenDate(c.Request().Context(), date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "open date failed"})
	}
	return resultStatus(c, res)
}

// CloseDate handles POST /v1/admin/schedules/:date/close.
func (h *AdminHandler) CloseDate(c echo.Context) error {
	date, ok := parseDate(c.Param("date"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
	}
	res, err := h.Schedules.CloseDate(c.Request().Context(), date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "close date failed"})
	}
	return resultStatus(c, res)
}

// ----- bookings -----

// ListBookings handles GET /v1/admin/bookings.
func (h *AdminHandler) ListBookings(c echo.Context) error {
	items, err := h.Bookings.ListAllDetails(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// DeleteBooking handles DELETE /v1/admin/bookings/:id: soft transition
// to deleted plus slot release.
func (h *AdminHandler) DeleteBooking(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	res, err := h.Admin.DeleteBooking(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete booking failed"})
	}
	return resultStatus(c, res)
}

// ----- users -----

type userResp struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Room      string    `json:"room"`
	Contract  string    `json:"contract"`
	Role      string    `json:"role"`
	IsBlocked bool      `json:"is_blocked"`
	CreatedAt time.Time `json:"created_at"`
}

// ListUsers handles GET /v1/admin/users.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.Users.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load users"})
	}
	items := make([]userResp, 0, len(users))
	for _, u := range users {
		items = append(items, userResp{
			ID:        u.ID,
			Name:      u.Name,
			Email:     u.Email,
			FullName:  u.FullName,
			Room:      u.Room,
			Contract:  u.Contract,
			Role:      string(u.Role),
			IsBlocked: u.IsBlocked,
			CreatedAt: u.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// BlockUser handles POST /v1/admin/users/:id/block.
func (h *AdminHandler) BlockUser(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	res, err := h.Admin.BlockUser(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "block user failed"})
	}
	return resultStatus(c, res)
}

// UnblockUser handles POST /v1/admin/users/:id/unblock.
func (h *AdminHandler) UnblockUser(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	res, err := h.Admin.UnblockUser(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unblock user failed"})
	}
	return resultStatus(c, res)
}
