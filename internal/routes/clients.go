package routes

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/kivu-mc/kivu_mc/internal/client"
	"github.com/kivu-mc/kivu_mc/internal/identity"
	"github.com/kivu-mc/kivu_mc/internal/ledger"
	"github.com/kivu-mc/kivu_mc/internal/loan"
	"github.com/kivu-mc/kivu_mc/internal/middleware"
)

// RegisterClientRoutes wires client onboarding and management. Agents and
// above may onboard and read clients; deleting is reserved for admin.
func RegisterClientRoutes(r fiber.Router, h *client.Handler, loans *loan.Handler, clients *client.Service, transactions *ledger.Service) {
	g := r.Group("/clients")
	g.Post("", h.Create)
	g.Get("", h.List)
	g.Get("/:id", h.Get)
	g.Put("/:id", h.Update)
	g.Delete("/:id", middleware.RequireRoles(identity.RoleAdmin), h.Delete)
	g.Get("/:id/loans", loans.ListByClient)
	g.Get("/:id/transactions", func(c *fiber.Ctx) error {
		cl, err := clients.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			if errors.Is(err, client.ErrNotFound) {
				return fiber.NewError(http.StatusNotFound, err.Error())
			}
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
		out, err := transactions.ListByWallet(c.UserContext(), cl.WalletAddress)
		if err != nil {
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
		return c.Status(http.StatusOK).JSON(out)
	})
}
