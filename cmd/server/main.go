package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/Q1zin/laundry-appointment-app/internal/config"     // Internal config loader
	"github.com/Q1zin/laundry-appointment-app/internal/database"   // MySQL pool setup
	"github.com/Q1zin/laundry-appointment-app/internal/handler"    // HTTP handlers
	"github.com/Q1zin/laundry-appointment-app/internal/middleware" // Rate limit and cache middleware
	"github.com/Q1zin/laundry-appointment-app/internal/queue"      // Booking event consumer
	"github.com/Q1zin/laundry-appointment-app/internal/repository" // Data access layer
	"github.com/Q1zin/laundry-appointment-app/internal/router"     // Route registration
	"github.com/Q1zin/laundry-appointment-app/internal/service"    // Business core
)

func main() {
	// Load .env when present; real deployments set variables directly.
	if err := godotenv.Load(); err != nil {
		log.Printf(".env not loaded: %v", err)
	}

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Repositories
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	machineRepo := repository.NewMachineRepo(db)
	slotRepo := repository.NewTimeslotRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	scheduleRepo := repository.NewScheduleRepo(db)

	// Services
	bookingSvc := service.NewBookingService(db, userRepo, slotRepo, bookingRepo, cfg.MaxActiveBookings)
	scheduleSvc := service.NewScheduleService(db, machineRepo, slotRepo, bookingRepo, scheduleRepo)
	adminSvc := service.NewAdminService(db, machineRepo, userRepo, slotRepo, bookingRepo, scheduleRepo)

	// Handlers
	authH := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	bookingH := handler.NewBookingHandler(bookingSvc, userRepo, machineRepo, slotRepo)
	scheduleH := handler.NewScheduleHandler(scheduleSvc)
	adminH := handler.NewAdminHandler(adminSvc, scheduleSvc, machineRepo, bookingRepo, userRepo)

	e := echo.New() // Create Echo instance

	// Redis-backed middleware; both degrade to pass-through when Redis is down.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable: rate limiting and response cache disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	// Background consumer for booking.created events.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	router.RegisterRoutes(e) // Register application routes
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterBooking(e, bookingH, cfg.JWTSecret)
	router.RegisterSchedule(e, scheduleH, cfg.JWTSecret, cacheMW)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
