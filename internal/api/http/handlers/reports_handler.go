package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/deskflow/helpdesk/internal/service"
)

const idempotencyHeader = "Idempotency-Key"

// ReportsHandler serves PDF reports.
type ReportsHandler struct {
	reports *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reports *service.ReportService) *ReportsHandler {
	return &ReportsHandler{reports: reports}
}

// StatsPDF GET /reportes/pdf-estadisticas/.
func (h *ReportsHandler) StatsPDF(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	loc := localeOf(c)
	doc, err := h.reports.StatsPDF(c.UserContext(), user, loc, c.Get(idempotencyHeader))
	if err != nil {
		return err
	}
	return sendPDF(c, fmt.Sprintf("reporte_tickets_%s.pdf", loc), doc)
}

// TicketPDF GET /reportes/pdf-ticket/:id/.
func (h *ReportsHandler) TicketPDF(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	doc, err := h.reports.TicketPDF(c.UserContext(), user, id, localeOf(c), c.Get(idempotencyHeader))
	if err != nil {
		return err
	}
	return sendPDF(c, fmt.Sprintf("ticket_%d.pdf", id), doc)
}

func sendPDF(c *fiber.Ctx, filename string, doc []byte) error {
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(doc)
}
