package ledger

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/kivu-mc/kivu_mc/internal/interest"
	"github.com/kivu-mc/kivu_mc/internal/wallet"
)

// Handler exposes transaction HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a transaction handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	FromWallet   string `json:"from_wallet"`
	ToWallet     string `json:"to_wallet"`
	Amount       string `json:"amount"`
	Kind         string `json:"kind"`
	InterestRate string `json:"interest_rate"`
	Description  string `json:"description"`
}

// Create records a pending transaction.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "amount must be a number")
	}
	kind, err := ParseKind(req.Kind)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	rate := decimal.Zero
	if req.InterestRate != "" {
		if rate, err = decimal.NewFromString(req.InterestRate); err != nil {
			return fiber.NewError(http.StatusBadRequest, "interest_rate must be a number")
		}
	}
	uid, _ := c.Locals("user_id").(string)

	t, err := h.service.Create(c.UserContext(), CreateInput{
		FromWallet:   req.FromWallet,
		ToWallet:     req.ToWallet,
		Amount:       amount,
		Kind:         kind,
		InterestRate: rate,
		Description:  req.Description,
		CreatedBy:    uid,
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(t)
}

// Validate settles a pending transaction.
func (h *Handler) Validate(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	t, err := h.service.Validate(c.UserContext(), c.Params("id"), uid)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(t)
}

// Cancel voids a pending transaction.
func (h *Handler) Cancel(c *fiber.Ctx) error {
	t, err := h.service.Cancel(c.UserContext(), c.Params("id"))
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(t)
}

// Get returns one transaction.
func (h *Handler) Get(c *fiber.Ctx) error {
	t, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(t)
}

// List returns transactions filtered by the status, kind and date query
// parameters.
func (h *Handler) List(c *fiber.Ctx) error {
	var f Filter
	if v := c.Query("status"); v != "" {
		status, err := ParseStatus(v)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		f.Status = status
	}
	if v := c.Query("kind"); v != "" {
		kind, err := ParseKind(v)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		f.Kind = kind
	}
	f.Date = c.Query("date")

	out, err := h.service.List(c.UserContext(), f)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(out)
}

// ListPending returns the validation queue.
func (h *Handler) ListPending(c *fiber.Ctx) error {
	out, err := h.service.List(c.UserContext(), Filter{Status: StatusPending})
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(out)
}

// ListByWallet returns the full history of one wallet.
func (h *Handler) ListByWallet(c *fiber.Ctx) error {
	out, err := h.service.ListByWallet(c.UserContext(), c.Params("address"))
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(out)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, wallet.ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidStateTransition):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, wallet.ErrInsufficientFunds),
		errors.Is(err, wallet.ErrInvalidAmount),
		errors.Is(err, interest.ErrNegativeRate),
		errors.Is(err, interest.ErrRateOutOfRange):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
