package wallet

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	store Store
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// Get returns a wallet by address.
func (h *Handler) Get(c *fiber.Ctx) error {
	w, err := h.store.Get(c.UserContext(), c.Params("address"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "wallet not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(w)
}

// Balance returns the wallet balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	address := c.Params("address")
	balance, err := h.store.Balance(c.UserContext(), address)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "wallet not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"address": address,
		"balance": balance,
	})
}

// CheckFunds reports whether the wallet can cover a prospective debit.
// Callers use it to pre-check a transfer before recording it.
func (h *Handler) CheckFunds(c *fiber.Ctx) error {
	address := c.Params("address")
	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil || !amount.IsPositive() {
		return fiber.NewError(http.StatusBadRequest, "amount must be a positive number")
	}
	return h.checkFunds(c, address, amount)
}

type checkBalanceRequest struct {
	WalletAddress string `json:"wallet_address"`
	Amount        string `json:"amount"`
}

// CheckBalance is the body-based variant of CheckFunds used by the
// transaction entry form before it records a pending transfer.
func (h *Handler) CheckBalance(c *fiber.Ctx) error {
	var req checkBalanceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return fiber.NewError(http.StatusBadRequest, "amount must be a positive number")
	}
	return h.checkFunds(c, req.WalletAddress, amount)
}

func (h *Handler) checkFunds(c *fiber.Ctx, address string, amount decimal.Decimal) error {
	balance, err := h.store.Balance(c.UserContext(), address)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "wallet not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"address":    address,
		"balance":    balance,
		"amount":     amount,
		"sufficient": balance.GreaterThanOrEqual(amount),
	})
}
