package handler

import (
	"go-warehouse-ws/internal/middleware"
	"go-warehouse-ws/internal/permission"
	"go-warehouse-ws/internal/service"
	"go-warehouse-ws/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// RegisterSocket mounts the change feed at /ws. The upgrade is
// authenticated and each client only receives the events its actor may see.
func RegisterSocket(r fiber.Router, auth service.AuthService, hub *ws.Hub) {
	r.Use("/ws", middleware.RequireSocketAuth(auth), func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	r.Get("/ws", websocket.New(func(c *websocket.Conn) {
		actor, _ := c.Locals(middleware.ActorKey).(permission.Actor)
		hub.Serve(c, actor)
	}))
}
