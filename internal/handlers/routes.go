package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/nashfy/pitstop/internal/middleware"
	"github.com/nashfy/pitstop/internal/websocket"
)

// Deps is everything the routes are built from.
type Deps struct {
	RaceData     RaceData
	DB           *gorm.DB
	Hub          *websocket.Hub
	Notifier     SignupNotifier
	AdminSecret  string
	RateLimitMax int
}

// Register mounts every route on app. The club routes are only mounted when a database
// is configured, and the websocket route only when a hub is.
func Register(app *fiber.App, d Deps) {
	app.Get("/", HealthCheck)
	app.Get("/health", HealthCheck)

	api := app.Group("/api")

	// F1 data
	api.Get("/race-schedule", GetRaceSchedule(d.RaceData))
	api.Get("/race-results", GetRaceResults(d.RaceData))
	api.Get("/driver-standings", GetDriverStandings(d.RaceData))
	api.Get("/constructor-standings", GetConstructorStandings(d.RaceData))
	api.Get("/telemetry", GetTelemetry(d.RaceData))
	api.Get("/lap-times", GetLapTimes(d.RaceData))
	api.Get("/race-info", GetRaceInfo(d.RaceData))
	api.Get("/track-status", GetTrackStatus(d.RaceData))
	api.Get("/next-race", GetNextRace(d.RaceData))

	if d.DB == nil {
		return
	}

	// Fan club. Writes are rate limited per IP.
	writes := middleware.WriteLimiter(d.RateLimitMax)
	var broadcaster ReactionBroadcaster
	if d.Hub != nil {
		broadcaster = d.Hub
	}
	api.Post("/club-members", writes, CreateClubMember(d.DB, d.Notifier))
	api.Get("/club-members/check", CheckClubMember(d.DB))
	api.Post("/race-reactions", writes, CreateRaceReaction(d.DB, broadcaster))
	api.Get("/race-reactions", ListRaceReactions(d.DB))

	// Admin approval, behind a signed admin token.
	admin := api.Group("/admin", middleware.Auth(d.AdminSecret), middleware.RequireRole(middleware.RoleAdmin))
	admin.Get("/club-members", ListClubMembers(d.DB))
	admin.Patch("/club-members/:id", UpdateClubMember(d.DB))

	if d.Hub != nil {
		app.Get("/ws/race-reactions", websocket.Upgrade(), websocket.Serve(d.Hub))
	}
}
