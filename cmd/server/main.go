// cmd/server/main.go
// Entry point for the Pitstop API server. It wires configuration, the Postgres club
// database, the upstream F1 data client (with its SQLite cache and worker pool), the
// websocket hub and the HTTP routes, then serves until SIGINT/SIGTERM.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/nashfy/pitstop/internal/config"
	"github.com/nashfy/pitstop/internal/database"
	"github.com/nashfy/pitstop/internal/f1data"
	"github.com/nashfy/pitstop/internal/f1data/cache"
	"github.com/nashfy/pitstop/internal/handlers"
	"github.com/nashfy/pitstop/internal/notify"
	"github.com/nashfy/pitstop/internal/racedata"
	"github.com/nashfy/pitstop/internal/season"
	"github.com/nashfy/pitstop/internal/websocket"
	"github.com/nashfy/pitstop/internal/worker"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Club database. Migrations run on every start so the schema is always current.
	db, err := database.Connect(cfg.DatabaseURL, database.Options{Verbose: !cfg.IsProduction()})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Upstream F1 data: one cache for the process lifetime, closed on the way out.
	var opts []f1data.Option
	if cfg.CachePath != "" {
		store, err := cache.Open(cfg.CachePath, cfg.CacheTTL)
		if err != nil {
			log.Fatal("Failed to open response cache:", err)
		}
		defer store.Close()
		if n, err := store.Purge(cfg.CacheTTL); err != nil {
			log.Printf("cache purge: %v", err)
		} else if n > 0 {
			log.Printf("cache purge: removed %d stale responses", n)
		}
		opts = append(opts, f1data.WithCache(store))
	}
	source := f1data.NewClient(cfg.ErgastBaseURL, cfg.OpenF1BaseURL, opts...)

	clock, err := season.NewClock(cfg.LocalZone(), cfg.FallbackRaceTime)
	if err != nil {
		log.Fatal("Invalid FALLBACK_RACE_TIME:", err)
	}
	pool := worker.New(cfg.WorkerPoolSize, cfg.FetchTimeout)
	svc := racedata.New(source, pool, clock)

	notifier, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramAdminChatIDs)
	if err != nil {
		// Signups still work without notifications.
		log.Printf("telegram notifications disabled: %v", err)
		notifier = notify.New(nil)
	}
	defer notifier.Wait()

	hub := websocket.NewHub()
	go hub.Run(ctx)

	app := fiber.New(fiber.Config{
		AppName:      "NashfyPitStop API",
		ErrorHandler: handlers.ErrorHandler(cfg.IsProduction()),
		ReadTimeout:  30 * time.Second,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: "GET,POST,PATCH,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	handlers.Register(app, handlers.Deps{
		RaceData:     svc,
		DB:           db,
		Hub:          hub,
		Notifier:     notifier,
		AdminSecret:  cfg.AdminJWTSecret,
		RateLimitMax: cfg.RateLimitMax,
	})
	if cfg.AdminJWTSecret == "" {
		log.Printf("ADMIN_JWT_SECRET is not set; admin routes will reject every request")
	}

	go func() {
		<-ctx.Done()
		log.Printf("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("Starting server on port %s (local zone %s, UTC%+d)", cfg.Port, cfg.LocalZoneName, cfg.LocalUTCOffset)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Printf("listen: %v", err)
	}
}
