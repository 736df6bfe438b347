package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kivu-mc/kivu_mc/internal/identity"
	"github.com/kivu-mc/kivu_mc/internal/ledger"
	"github.com/kivu-mc/kivu_mc/internal/middleware"
	"github.com/kivu-mc/kivu_mc/internal/wallet"
)

// RegisterTransactionRoutes wires the transaction lifecycle. Caissiers and
// above record transactions; only admin and chef_operation validate or
// cancel them.
func RegisterTransactionRoutes(r fiber.Router, h *ledger.Handler, wallets *wallet.Handler) {
	canCreate := middleware.RequireRoles(identity.RoleAdmin, identity.RoleChefOperation, identity.RoleCaissier)
	canValidate := middleware.RequireRoles(identity.RoleAdmin, identity.RoleChefOperation)

	g := r.Group("/transactions")
	g.Post("", canCreate, h.Create)
	g.Post("/check-balance", canCreate, wallets.CheckBalance)
	g.Get("", h.List)
	g.Get("/pending", h.ListPending)
	g.Get("/:id", h.Get)
	g.Post("/:id/validate", canValidate, h.Validate)
	g.Post("/:id/cancel", canValidate, h.Cancel)
}
