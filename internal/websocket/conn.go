package websocket

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
)

// Upgrade guards the websocket route: it rejects plain HTTP requests and requests
// without a valid race_year and race_round, and records the race for Serve.
func Upgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !fiberws.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		year, err := strconv.Atoi(c.Query("race_year"))
		if err != nil || year <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid race_year")
		}
		round, err := strconv.Atoi(c.Query("race_round"))
		if err != nil || round <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid race_round")
		}
		c.Locals("race", RaceKey(year, round))
		return c.Next()
	}
}

// Serve streams the hub's broadcasts for the race chosen in Upgrade to the connection.
// Incoming messages are read only to notice when the client goes away.
func Serve(h *Hub) fiber.Handler {
	return fiberws.New(func(conn *fiberws.Conn) {
		race, _ := conn.Locals("race").(string)
		client := NewClient(race)
		if !h.Register(client) {
			return
		}
		defer h.Unregister(client)

		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					h.Unregister(client)
					return
				}
			}
		}()

		for msg := range client.Send {
			if err := conn.WriteMessage(fiberws.TextMessage, msg); err != nil {
				log.Printf("ws %s: write: %v", race, err)
				return
			}
		}
	})
}
