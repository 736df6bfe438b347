package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kivu-mc/kivu_mc/internal/ledger"
	"github.com/kivu-mc/kivu_mc/internal/wallet"
)

// RegisterWalletRoutes wires wallet lookups and per-wallet history.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler, transactions *ledger.Handler) {
	g := r.Group("/wallets")
	g.Get("/:address", h.Get)
	g.Get("/:address/balance", h.Balance)
	g.Get("/:address/check", h.CheckFunds)
	g.Get("/:address/transactions", transactions.ListByWallet)
}
