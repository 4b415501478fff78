package handler

import (
	"bytes"
	"time"

	"go-warehouse-ws/internal/middleware"
	"go-warehouse-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	service service.ReportService
	loc     *time.Location
}

func NewReportHandler(s service.ReportService, loc *time.Location) *ReportHandler {
	return &ReportHandler{service: s, loc: loc}
}

// GetReport aggregates the ledger.
// Query params: from, to, product_id, company
func (h *ReportHandler) GetReport(c *fiber.Ctx) error {
	filter, err := filterFromQuery(c, h.loc)
	if err != nil {
		return middleware.Fail(c, err)
	}

	rep, err := h.service.GetReport(c.UserContext(), actorOf(c), filter)
	if err != nil {
		return middleware.Fail(c, err)
	}
	return c.JSON(rep)
}

// Export streams the filtered report as an xlsx attachment.
func (h *ReportHandler) Export(c *fiber.Ctx) error {
	filter, err := filterFromQuery(c, h.loc)
	if err != nil {
		return middleware.Fail(c, err)
	}

	var buf bytes.Buffer
	name, err := h.service.Export(c.UserContext(), actorOf(c), filter, &buf)
	if err != nil {
		return middleware.Fail(c, err)
	}

	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Attachment(name)
	return c.Send(buf.Bytes())
}
