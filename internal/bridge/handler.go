package bridge

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/congo_bridge/internal/withdraw"
)

// Handler exposes bridge HTTP endpoints.
type Handler struct {
	service  *Service
	decimals int
}

// NewHandler builds a bridge HTTP handler.
func NewHandler(service *Service, decimals int) *Handler {
	return &Handler{service: service, decimals: decimals}
}

type withdrawRequest struct {
	UserAddress string      `json:"userAddress"`
	Amount      json.Number `json:"amount"`
	FromNetwork string      `json:"fromNetwork"`
}

// Balance returns the bridged balance for an address.
func (h *Handler) Balance(c *fiber.Ctx) error {
	address := c.Params("address")
	balance, err := h.service.Balance(c.UserContext(), address)
	if err != nil {
		if errors.Is(err, ErrInvalidAddress) {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to get bridge balance"})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"balance": FormatAmount(balance, h.decimals),
	})
}

// Process handles a withdrawal request: debit the bridge balance and mint the
// equivalent value on Chain B.
func (h *Handler) Process(c *fiber.Ctx) error {
	var req withdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if req.UserAddress == "" || req.Amount == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "missing required parameters"})
	}

	amount, err := ParseAmount(req.Amount.String(), h.decimals)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	result, err := h.service.Withdraw(c.UserContext(), req.UserAddress, amount)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAddress), errors.Is(err, ErrInvalidAmount),
			errors.Is(err, withdraw.ErrInsufficientBalance):
			// Normal rejection: the UI should not offer a retry.
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		default:
			// Network or processing failure; the balance was released and a
			// retry is safe.
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success":    true,
		"message":    "bridge request processed successfully",
		"intentId":   result.IntentID,
		"txHash":     result.TxHash,
		"newBalance": FormatAmount(result.NewBalance, h.decimals),
	})
}

// Intent returns a stored withdrawal intent by identifier.
func (h *Handler) Intent(c *fiber.Ctx) error {
	intent, err := h.service.Intent(c.UserContext(), c.Params("id"))
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "intent not found"})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"id":        intent.ID,
		"address":   intent.Address,
		"amount":    FormatAmount(intent.Amount, h.decimals),
		"state":     string(intent.State),
		"txHash":    intent.TxHash,
		"reason":    intent.Reason,
		"createdAt": intent.CreatedAt,
		"updatedAt": intent.UpdatedAt,
	})
}

// Status reports the bridge balance and liveness for an address.
func (h *Handler) Status(c *fiber.Ctx) error {
	address := c.Params("address")
	status, err := h.service.Status(c.UserContext(), address)
	if err != nil {
		if errors.Is(err, ErrInvalidAddress) {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to get bridge status"})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"balance":  FormatAmount(status.Balance, h.decimals),
		"isActive": status.Active,
	})
}
