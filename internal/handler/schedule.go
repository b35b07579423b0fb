package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Q1zin/laundry-appointment-app/internal/service"
)

// ScheduleHandler serves the projected booking grid.
type ScheduleHandler struct {
	Schedules *service.ScheduleService
}

func NewScheduleHandler(s *service.ScheduleService) *ScheduleHandler {
	if s == nil {
		panic("nil dependency passed to NewScheduleHandler")
	}
	return &ScheduleHandler{Schedules: s}
}

// parseDate accepts the YYYY-MM-DD format used across the API.
func parseDate(raw string) (time.Time, bool) {
	d, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// Get handles GET /v1/schedule?date=YYYY-MM-DD. Missing date defaults
// to today (UTC).
func (h *ScheduleHandler) Get(c echo.Context) error {
	raw := c.QueryParam("date")
	var date time.Time
	if raw == "" {
		now := time.Now().UTC()
		date = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	} else {
		var ok bool
		date, ok = parseDate(raw)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
		}
	}
	data, err := h.Schedules.GetSchedule(c.Request().Context(), date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load schedule"})
	}
	return c.JSON(http.StatusOK, data)
}
