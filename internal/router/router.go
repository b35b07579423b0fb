package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/Q1zin/laundry-appointment-app/internal/handler"    // import the handlers that implement business logic
	"github.com/Q1zin/laundry-appointment-app/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication‑related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Create a route group under the /v1/auth prefix for operations that do
	// not require an existing session (register, login, refresh).  Each of
	// these handlers is responsible for generating or exchanging tokens.
	g := e.Group("/v1/auth")
	// Register a POST endpoint to handle user registration at /v1/auth/register.
	g.POST("/register", a.Register)
	// Register a POST endpoint to handle user login at /v1/auth/login.
	g.POST("/login", a.Login)
    // Register a POST endpoint to refresh access tokens at /v1/auth/refresh. This rotates the refresh token.
    g.POST("/refresh", a.Refresh)
    // Register a POST endpoint to issue a new access token without rotating the refresh token.
    g.POST("/refresh-access", a.RefreshAccess)
	// Register a POST endpoint to log out using a refresh token.  Logout does
	// not require JWT authentication: the handler accepts a JSON body
	// containing a `refresh_token` and will invalidate that token.  If the
	// token is valid, a 204 response is returned; otherwise 400/401/500 are
	// possible depending on the error.
	g.POST("/logout", a.Logout)

	// Create another group for routes that require a valid access token.  All
	// handlers registered on this group will execute the JWTAuth middleware
	// before being invoked.  Protected endpoints live under /v1.
	auth := e.Group("/v1")
	// Apply the JWTAuth middleware to the protected group using the provided secret.
	auth.Use(middleware.JWTAuth(jwtSecret))
	// Both residents and admins may call the generic authenticated endpoints.
	auth.Use(middleware.RequireRole("user", "admin"))
	// Register a GET endpoint at /v1/me that returns the authenticated user's information.
	auth.GET("/me", a.Me)

	// Additionally map POST /v1/logout to the same handler.  This route lives
	// at the top level (outside of the protected group) so it does not
	// require a JWT.  Clients can therefore call either /v1/auth/logout or
	// /v1/logout with a valid refresh token in the body to terminate a
	// session.
	e.POST("/v1/logout", a.Logout)
}

// RegisterBooking registers the reservation endpoints under /v1.  All
// routes require a valid JWT; both residents and admins may book.
func RegisterBooking(e *echo.Echo, h *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("user", "admin"),
	)
	g.POST("/bookings", h.Create)
	g.POST("/bookings/:id/cancel", h.Cancel)
	g.POST("/bookings/:id/reschedule", h.Reschedule)
	g.GET("/bookings/my", h.My)
	g.GET("/bookings/can-book", h.CanBook)
	g.GET("/machines/:machineId/slots/:slotId/available", h.SlotAvailable)
}

// RegisterSchedule registers the projected booking grid under /v1.  The
// schedule view is read-heavy, so cacheMW (the Redis response cache, or
// a pass-through when Redis is unavailable) wraps it.
func RegisterSchedule(e *echo.Echo, h *handler.ScheduleHandler, jwtSecret string, cacheMW echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("user", "admin"),
	)
	if cacheMW != nil {
		g.GET("/schedule", h.Get, cacheMW)
	} else {
		g.GET("/schedule", h.Get)
	}
}

// RegisterAdmin registers the management endpoints under /v1/admin.
// Every route requires a valid JWT carrying the admin role.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("admin"),
	)

	// machines
	g.GET("/machines", h.ListMachines)
	g.POST("/machines", h.CreateMachine)
	g.DELETE("/machines/:id", h.DeleteMachine)
	g.POST("/machines/:id/block", h.BlockMachine)
	g.POST("/machines/:id/unblock", h.UnblockMachine)

	// schedules
	g.GET("/schedules", h.ListSchedules)
	g.POST("/schedules", h.SetSchedule)
	g.DELETE("/schedules/:id", h.DeleteSchedule)
	g.POST("/schedules/:date/open", h.OpenDate)
	g.POST("/schedules/:date/close", h.CloseDate)

	// bookings
	g.GET("/bookings", h.ListBookings)
	g.DELETE("/bookings/:id", h.DeleteBooking)

	// users
	g.GET("/users", h.ListUsers)
	g.POST("/users/:id/block", h.BlockUser)
	g.POST("/users/:id/unblock", h.UnblockUser)
}
