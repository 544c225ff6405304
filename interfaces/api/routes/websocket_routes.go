package routes

import (
	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"

	"eventphoto-api/infrastructure/websocket"
	"eventphoto-api/interfaces/api/middleware"
	websocketHandler "eventphoto-api/interfaces/api/websocket"
)

func SetupWebSocketRoutes(app *fiber.App, manager *websocket.Manager, jwtSecret string) {
	wsHandler := websocketHandler.NewWebSocketHandler(manager)

	// Browsers cannot set headers on upgrade, so the token may come as ?token=
	app.Use("/ws", middleware.OptionalWithQueryToken(jwtSecret), wsHandler.WebSocketUpgrade)
	app.Get("/ws", fiberws.New(wsHandler.HandleWebSocket))
}
