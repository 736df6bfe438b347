package loan

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/kivu-mc/kivu_mc/internal/client"
	"github.com/kivu-mc/kivu_mc/internal/interest"
	"github.com/kivu-mc/kivu_mc/internal/wallet"
)

// Handler exposes loan HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a loan handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	ClientID       string `json:"client_id"`
	Principal      string `json:"principal"`
	InterestRate   string `json:"interest_rate"`
	DurationMonths int    `json:"duration_months"`
}

// Create originates a loan.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	principal, err := decimal.NewFromString(req.Principal)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "principal must be a number")
	}
	rate, err := decimal.NewFromString(req.InterestRate)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "interest_rate must be a number")
	}
	uid, _ := c.Locals("user_id").(string)

	l, err := h.service.Create(c.UserContext(), CreateInput{
		ClientID:       req.ClientID,
		Principal:      principal,
		InterestRate:   rate,
		DurationMonths: req.DurationMonths,
		CreatedBy:      uid,
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(l)
}

type repayRequest struct {
	Amount string `json:"amount"`
}

// Repay applies a repayment to a loan.
func (h *Handler) Repay(c *fiber.Ctx) error {
	var req repayRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "amount must be a number")
	}
	uid, _ := c.Locals("user_id").(string)

	l, err := h.service.Repay(c.UserContext(), c.Params("id"), amount, uid)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(l)
}

// Get returns one loan.
func (h *Handler) Get(c *fiber.Ctx) error {
	l, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(l)
}

// List returns all loans.
func (h *Handler) List(c *fiber.Ctx) error {
	out, err := h.service.List(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(out)
}

// ListActive returns active loans ordered by remaining balance.
func (h *Handler) ListActive(c *fiber.Ctx) error {
	out, err := h.service.ListActive(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(out)
}

// ListByClient returns the loans of one client.
func (h *Handler) ListByClient(c *fiber.Ctx) error {
	clientID := c.Params("clientId")
	if clientID == "" {
		clientID = c.Params("id")
	}
	out, err := h.service.ListByClient(c.UserContext(), clientID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(out)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, client.ErrNotFound), errors.Is(err, wallet.ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrOverpayment),
		errors.Is(err, wallet.ErrInsufficientFunds),
		errors.Is(err, wallet.ErrInvalidAmount),
		errors.Is(err, interest.ErrRateOutOfRange):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
