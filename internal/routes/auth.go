package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kivu-mc/kivu_mc/internal/auth"
)

// RegisterAuthRoutes wires the public login and token refresh endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter fiber.Handler) {
	g := r.Group("/auth")
	g.Post("/login", rateLimiter, h.Login)
	g.Post("/refresh", h.Refresh)
}
