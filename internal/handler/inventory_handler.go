package handler

import (
	"time"

	"go-warehouse-ws/internal/middleware"
	"go-warehouse-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type InventoryHandler struct {
	service service.InventoryService
	loc     *time.Location
}

func NewInventoryHandler(s service.InventoryService, loc *time.Location) *InventoryHandler {
	return &InventoryHandler{service: s, loc: loc}
}

func (h *InventoryHandler) CreateProduct(c *fiber.Ctx) error {
	var req service.ProductRequest
	if err := parseBody(c, &req); err != nil {
		return middleware.Fail(c, err)
	}

	result, err := h.service.CreateProduct(c.UserContext(), actorOf(c), &req)
	if err != nil {
		return middleware.Fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Product created", "data": result})
}

func (h *InventoryHandler) UpdateProduct(c *fiber.Ctx) error {
	productID, err := parseID(c, "product")
	if err != nil {
		return middleware.Fail(c, err)
	}

	var req service.ProductRequest
	if err := parseBody(c, &req); err != nil {
		return middleware.Fail(c, err)
	}

	result, err := h.service.UpdateProduct(c.UserContext(), actorOf(c), productID, &req)
	if err != nil {
		return middleware.Fail(c, err)
	}

	return c.JSON(fiber.Map{"message": "Product updated", "data": result})
}

func (h *InventoryHandler) DeleteProduct(c *fiber.Ctx) error {
	productID, err := parseID(c, "product")
	if err != nil {
		return middleware.Fail(c, err)
	}

	if err := h.service.DeleteProduct(c.UserContext(), actorOf(c), productID); err != nil {
		return middleware.Fail(c, err)
	}

	return c.JSON(fiber.Map{"message": "Product deleted"})
}

// GetProducts lists products. Query params: search
func (h *InventoryHandler) GetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetProducts(c.UserContext(), actorOf(c), c.Query("search"))
	if err != nil {
		return middleware.Fail(c, err)
	}
	return c.JSON(products)
}

func (h *InventoryHandler) GetProduct(c *fiber.Ctx) error {
	productID, err := parseID(c, "product")
	if err != nil {
		return middleware.Fail(c, err)
	}

	product, err := h.service.GetProduct(c.UserContext(), actorOf(c), productID)
	if err != nil {
		return middleware.Fail(c, err)
	}
	return c.JSON(product)
}

// RecordMovement books stock in or out of one product.
// POST /api/v1/products/:id/movements
func (h *InventoryHandler) RecordMovement(c *fiber.Ctx) error {
	productID, err := parseID(c, "product")
	if err != nil {
		return middleware.Fail(c, err)
	}

	var req service.MovementRequest
	if err := parseBody(c, &req); err != nil {
		return middleware.Fail(c, err)
	}

	result, err := h.service.RecordMovement(c.UserContext(), actorOf(c), productID, &req)
	if err != nil {
		return middleware.Fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Movement recorded", "data": result})
}

func (h *InventoryHandler) CreateTransaction(c *fiber.Ctx) error {
	var req service.TransactionRequest
	if err := parseBody(c, &req); err != nil {
		return middleware.Fail(c, err)
	}

	result, err := h.service.RecordTransaction(c.UserContext(), actorOf(c), &req)
	if err != nil {
		return middleware.Fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Transaction recorded", "data": result})
}

// GetTransactions lists ledger rows, newest first.
// Query params: from, to (YYYY-MM-DD, inclusive), product_id, company
func (h *InventoryHandler) GetTransactions(c *fiber.Ctx) error {
	filter, err := filterFromQuery(c, h.loc)
	if err != nil {
		return middleware.Fail(c, err)
	}

	rows, err := h.service.GetTransactions(c.UserContext(), actorOf(c), filter)
	if err != nil {
		return middleware.Fail(c, err)
	}
	return c.JSON(rows)
}

func (h *InventoryHandler) GetTransaction(c *fiber.Ctx) error {
	txID, err := parseID(c, "transaction")
	if err != nil {
		return middleware.Fail(c, err)
	}

	row, err := h.service.GetTransactionByID(c.UserContext(), actorOf(c), txID)
	if err != nil {
		return middleware.Fail(c, err)
	}
	return c.JSON(row)
}

// ReconcileProduct compares stored quantity against the ledger and repairs
// the product unless dry_run=true.
func (h *InventoryHandler) ReconcileProduct(c *fiber.Ctx) error {
	productID, err := parseID(c, "product")
	if err != nil {
		return middleware.Fail(c, err)
	}

	result, err := h.service.ReconcileProduct(c.UserContext(), actorOf(c), productID, c.QueryBool("dry_run"))
	if err != nil {
		return middleware.Fail(c, err)
	}
	return c.JSON(result)
}

func (h *InventoryHandler) ReconcileAll(c *fiber.Ctx) error {
	results, err := h.service.ReconcileAll(c.UserContext(), actorOf(c), c.QueryBool("dry_run"))
	if err != nil {
		return middleware.Fail(c, err)
	}
	return c.JSON(fiber.Map{"count": len(results), "data": results})
}
