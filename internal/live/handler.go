package live

import (
	"context"
	"log"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// NewHandler returns the fiber handler for the live websocket endpoint.
// Each connection gets its own session and read loop; the shared registry
// and ingest service are injected by the server.
func NewHandler(registry *Registry, svc *Service) fiber.Handler {
	ws := websocket.New(func(c *websocket.Conn) {
		serveConn(c, registry, svc)
	})

	return func(ctx *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(ctx) {
			return ws(ctx)
		}
		return fiber.ErrUpgradeRequired
	}
}

func serveConn(conn *websocket.Conn, registry *Registry, svc *Service) {
	sess := NewSession(conn, registry, svc)
	log.Printf("live WS: client connected")

	defer func() {
		sess.Close()
		registry.Deregister(sess)
		conn.Close()
		log.Printf("live WS: client disconnected")
	}()

	// Frames from one connection are handled to completion in order, so
	// two updates from the same producer broadcast in the order their
	// persistence calls finished.
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		sess.HandleMessage(context.Background(), data)
	}
}
