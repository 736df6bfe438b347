package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kivu-mc/kivu_mc/internal/identity"
	"github.com/kivu-mc/kivu_mc/internal/middleware"
)

// RegisterUserRoutes wires staff account management. Creating accounts is
// reserved for admin; everyone can read their own profile.
func RegisterUserRoutes(r fiber.Router, h *identity.Handler) {
	r.Get("/me", h.Me)

	g := r.Group("/users")
	g.Post("", middleware.RequireRoles(identity.RoleAdmin), h.Register)
	g.Get("", middleware.RequireRoles(identity.RoleAdmin, identity.RoleChefOperation), h.List)
	g.Get("/:id", middleware.RequireRoles(identity.RoleAdmin, identity.RoleChefOperation), h.Get)
	g.Put("/:id", middleware.RequireRoles(identity.RoleAdmin), h.Update)
}
