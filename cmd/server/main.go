package main // Entry point package

import (
	"log"  // Logging library
	"time" // Offer window duration

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/mgarsanz/unisport/internal/booking"
	"github.com/mgarsanz/unisport/internal/config"
	"github.com/mgarsanz/unisport/internal/database"
	"github.com/mgarsanz/unisport/internal/handler"
	"github.com/mgarsanz/unisport/internal/middleware"
	"github.com/mgarsanz/unisport/internal/notify"
	"github.com/mgarsanz/unisport/internal/queue"
	"github.com/mgarsanz/unisport/internal/repository"
	"github.com/mgarsanz/unisport/internal/router"
	"github.com/mgarsanz/unisport/internal/scheduler"
)

func main() {
	// Load .env if present; real deployments set env vars directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs rate limiting and the public catalog cache. A nil
	// client disables both; the API still works without Redis.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and caching disabled")
	}

	// Wiring: MySQL store -> booking engine, with notifications going
	// to the inbox + broker and timeout checks deferred via RabbitMQ.
	store := repository.NewStore(db)
	notifications := repository.NewNotificationRepo(db)
	notifier := notify.New(notifications)
	timeouts := scheduler.NewRabbit(cfg.RabbitURL)
	offerWindow := time.Duration(cfg.WaitlistNotifyMin) * time.Minute
	svc := booking.NewService(store, notifier, timeouts, offerWindow)

	users := repository.NewUserRepo(db)
	catalog := repository.NewCatalogRepo(db)
	bonuses := repository.NewBonusRepo(db)
	reservations := repository.NewReservationRepo(db)

	// Background consumers: the event logger and the waiting-list
	// timeout checker. Both run reconnect loops and never return under
	// normal operation.
	go func() {
		if err := queue.StartEventConsumer(cfg.RabbitURL); err != nil {
			log.Printf("event consumer stopped: %v", err)
		}
	}()
	go func() {
		if err := scheduler.StartTimeoutConsumer(cfg.RabbitURL, svc); err != nil {
			log.Printf("timeout consumer stopped: %v", err)
		}
	}()

	e := echo.New()

	rl := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	authHandler := handler.NewAuthHandler(cfg, users)
	bookingHandler := handler.NewBookingHandler(svc, store, reservations)
	waitlistHandler := handler.NewWaitlistHandler(svc)
	bonusHandler := handler.NewBonusHandler(svc, bonuses, users)
	notificationHandler := handler.NewNotificationHandler(notifications)
	catalogHandler := handler.NewCatalogHandler(catalog, bonuses, svc)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterPublic(e, catalogHandler, bonusHandler, cache)
	router.RegisterUser(e, bookingHandler, waitlistHandler, bonusHandler, notificationHandler, cfg.JWTSecret, rl)
	router.RegisterAdmin(e, catalogHandler, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
