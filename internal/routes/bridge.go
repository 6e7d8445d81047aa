package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/congo_bridge/internal/bridge"
)

// RegisterBridgeRoutes wires the bridge endpoints consumed by the wallet app.
func RegisterBridgeRoutes(r fiber.Router, h *bridge.Handler) {
	r.Get("/bridge/balance/:address", h.Balance)
	r.Post("/bridge/process", h.Process)
	r.Get("/bridge/status/:address", h.Status)
	r.Get("/bridge/intent/:id", h.Intent)
}
