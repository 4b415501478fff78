package handler

import (
	"strings"
	"time"

	"go-warehouse-ws/internal/apperror"
	"go-warehouse-ws/internal/middleware"
	"go-warehouse-ws/internal/permission"
	"go-warehouse-ws/internal/report"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// actorOf returns the actor set by RequireAuth. Routes without the
// middleware run as an anonymous actor that every gate rejects.
func actorOf(c *fiber.Ctx) permission.Actor {
	actor, _ := middleware.Actor(c)
	return actor
}

func parseID(c *fiber.Ctx, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, apperror.Validation("INVALID_ID", "Invalid "+what+" ID")
	}
	return id, nil
}

func parseBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return apperror.Validation("INVALID_JSON", "Invalid JSON")
	}
	return nil
}

// filterFromQuery reads from, to, product_id and company.
func filterFromQuery(c *fiber.Ctx, loc *time.Location) (report.Filter, error) {
	var f report.Filter
	var err error
	if f.From, err = report.ParseDay(c.Query("from"), loc); err != nil {
		return f, apperror.Validation("INVALID_DATE", "from must be YYYY-MM-DD")
	}
	if f.To, err = report.ParseDay(c.Query("to"), loc); err != nil {
		return f, apperror.Validation("INVALID_DATE", "to must be YYYY-MM-DD")
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return f, apperror.Validation("INVALID_DATE", "to must not be before from")
	}
	if raw := c.Query("product_id"); raw != "" {
		if f.ProductID, err = uuid.Parse(raw); err != nil {
			return f, apperror.Validation("INVALID_ID", "Invalid product ID")
		}
	}
	f.Company = strings.TrimSpace(c.Query("company"))
	return f, nil
}
