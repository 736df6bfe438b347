package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kivu-mc/kivu_mc/internal/identity"
	"github.com/kivu-mc/kivu_mc/internal/loan"
	"github.com/kivu-mc/kivu_mc/internal/middleware"
)

// RegisterLoanRoutes wires loan origination and repayment. Agents originate
// loans in the field; repayments go through the caisse.
func RegisterLoanRoutes(r fiber.Router, h *loan.Handler) {
	canRepay := middleware.RequireRoles(identity.RoleAdmin, identity.RoleChefOperation, identity.RoleCaissier)

	g := r.Group("/loans")
	g.Post("", h.Create)
	g.Get("", h.List)
	g.Get("/active", h.ListActive)
	g.Get("/client/:clientId", h.ListByClient)
	g.Get("/:id", h.Get)
	g.Post("/:id/repayment", canRepay, h.Repay)
}
