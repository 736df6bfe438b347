package client

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes client HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a client handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type clientRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	CIN           string `json:"cin"`
	Phone         string `json:"phone"`
	PostalAddress string `json:"postal_address"`
}

// Create registers a client and provisions their wallet.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req clientRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	created, err := h.service.Create(c.UserContext(), CreateInput{
		Name:          req.Name,
		Email:         req.Email,
		CIN:           req.CIN,
		Phone:         req.Phone,
		PostalAddress: req.PostalAddress,
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(created)
}

// Get returns one client.
func (h *Handler) Get(c *fiber.Ctx) error {
	found, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(found)
}

// List returns all clients.
func (h *Handler) List(c *fiber.Ctx) error {
	out, err := h.service.List(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(out)
}

// Update edits a client's contact details.
func (h *Handler) Update(c *fiber.Ctx) error {
	var req clientRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	updated, err := h.service.Update(c.UserContext(), c.Params("id"), UpdateInput{
		Name:          req.Name,
		Email:         req.Email,
		CIN:           req.CIN,
		Phone:         req.Phone,
		PostalAddress: req.PostalAddress,
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(updated)
}

// Delete removes a client record.
func (h *Handler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return mapError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicate):
		return fiber.NewError(http.StatusConflict, err.Error())
	default:
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
}
