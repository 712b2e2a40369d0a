package ws

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/saturnino-fabrica-de-software/facegate/internal/audit"
)

const (
	localClientIP = "ws_client_ip"
	maxFrameSize  = 10 * 1024 * 1024
)

func Handler(hub *Hub, matcher Matcher, logger *slog.Logger) fiber.Handler {
	logger = logger.With("component", "ws")

	return websocket.New(func(conn *websocket.Conn) {
		conn.SetReadLimit(maxFrameSize)

		ip, _ := conn.Locals(localClientIP).(string)
		ctx := audit.WithIPAddress(context.Background(), ip)

		client := NewClient(ctx, hub, conn, matcher, logger)
		hub.Register(client)

		go client.WritePump()
		client.ReadPump()
	})
}

func UpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals(localClientIP, c.IP())
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}
