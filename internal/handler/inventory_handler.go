package handler

import (
	"errors"

	"go-stock-approval/internal/apperr"
	"go-stock-approval/internal/model"
	"go-stock-approval/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type InventoryHandler struct {
	service service.InventoryService
}

func NewInventoryHandler(s service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: s}
}

// Helper to read user id from JWT context (set by auth middleware)
func getUserID(c *fiber.Ctx) uuid.UUID {
	raw, ok := c.Locals("user_id").(string)
	if !ok {
		return uuid.Nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// statusFromErr maps domain errors to HTTP statuses.
func statusFromErr(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperr.ErrAlreadyReviewed):
		return fiber.StatusConflict
	case errors.Is(err, apperr.ErrInvalidPayload),
		errors.Is(err, apperr.ErrInsufficientStock),
		errors.Is(err, apperr.ErrDuplicateSKU),
		errors.Is(err, apperr.ErrDuplicateName):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// SubmitTransaction creates a Pending stock-movement request.
func (h *InventoryHandler) SubmitTransaction(c *fiber.Ctx) error {
	var req model.Transaction
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	created, err := h.service.SubmitTransaction(c.UserContext(), &req, getUserID(c))
	if err != nil {
		return c.Status(statusFromErr(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(201).JSON(fiber.Map{
		"message":     "Request submitted and awaiting review",
		"transaction": created,
	})
}

type reviewRequest struct {
	Status          model.TransactionStatus `json:"status"`
	RejectionReason string                  `json:"rejection_reason"`
}

// ReviewTransaction approves or rejects a Pending request.
func (h *InventoryHandler) ReviewTransaction(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid transaction ID"})
	}

	var req reviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	updated, err := h.service.ReviewTransaction(c.UserContext(), id, req.Status, req.RejectionReason, getUserID(c))
	if err != nil {
		return c.Status(statusFromErr(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"message":     "Transaction reviewed",
		"transaction": updated,
	})
}

func (h *InventoryHandler) GetTransactions(c *fiber.Ctx) error {
	transactions, err := h.service.ListTransactions(c.UserContext())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(transactions)
}

func (h *InventoryHandler) GetTransaction(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid transaction ID"})
	}

	tx, err := h.service.GetTransaction(c.UserContext(), id)
	if err != nil {
		return c.Status(statusFromErr(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(tx)
}
