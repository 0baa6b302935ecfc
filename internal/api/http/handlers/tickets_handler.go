package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/deskflow/helpdesk/internal/api/dto"
	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/service"
	apperrors "github.com/deskflow/helpdesk/pkg/errorutil"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets/.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.CreateTicket(c.UserContext(), user, service.TicketCreateInput{
		DepartmentID: req.DepartmentID,
		ReasonID:     req.ReasonID,
		Subject:      req.Subject,
		Body:         req.Body,
		Priority:     req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(ticketResponse(ticket, localeOf(c)))
}

// ListTickets GET /tickets/.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	filter, err := parseTicketQuery(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListTickets(c.UserContext(), user, filter)
	if err != nil {
		return err
	}
	loc := localeOf(c)
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i], loc))
	}
	return c.JSON(items)
}

// GetTicket GET /tickets/:id/.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ticket, err := h.service.GetTicket(c.UserContext(), user, id)
	if err != nil {
		return err
	}
	return c.JSON(ticketResponse(ticket, localeOf(c)))
}

// ListHistory GET /tickets/:id/historial/.
func (h *TicketsHandler) ListHistory(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	entries, err := h.service.ListHistory(c.UserContext(), user, id)
	if err != nil {
		return err
	}
	return c.JSON(historyResponses(entries))
}

// UpdateStatus POST /tickets/:id/update_estado/.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.UpdateStatus(c.UserContext(), user, id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(ticketResponse(ticket, localeOf(c)))
}

// UpdatePriority POST /tickets/:id/update_prioridad/.
func (h *TicketsHandler) UpdatePriority(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdatePriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.UpdatePriority(c.UserContext(), user, id, req.Priority)
	if err != nil {
		return err
	}
	return c.JSON(ticketResponse(ticket, localeOf(c)))
}

// UpdateResolution POST /tickets/:id/update_solucion/.
func (h *TicketsHandler) UpdateResolution(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateResolutionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.UpdateResolution(c.UserContext(), user, id, service.ResolutionInput{
		Text:   req.Text,
		Images: req.Images,
	})
	if err != nil {
		return err
	}
	return c.JSON(ticketResponse(ticket, localeOf(c)))
}

func parseTicketQuery(c *fiber.Ctx) (service.TicketListFilter, error) {
	filter := service.TicketListFilter{}
	if statusStr := c.Query("estado"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			status, ok := domain.ParseTicketStatus(part)
			if !ok {
				return filter, apperrors.NewValidationError("Estado inválido", map[string]any{"estado": part})
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	if priorityStr := c.Query("prioridad"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			priority, ok := domain.ParseTicketPriority(part)
			if !ok {
				return filter, apperrors.NewValidationError("Prioridad inválida", map[string]any{"prioridad": part})
			}
			filter.Priorities = append(filter.Priorities, priority)
		}
	}
	if raw := c.Query("departamento"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, apperrors.NewValidationError("invalid department filter", map[string]any{"departamento": raw})
		}
		filter.DepartmentID = &id
	}
	if term := strings.TrimSpace(c.Query("search")); term != "" {
		filter.SearchTerm = &term
	}
	from, err := parseTime(c.Query("fecha_desde"))
	if err != nil {
		return filter, apperrors.NewValidationError("Fecha inválida", map[string]any{"fecha_desde": c.Query("fecha_desde")})
	}
	to, err := parseTime(c.Query("fecha_hasta"))
	if err != nil {
		return filter, apperrors.NewValidationError("Fecha inválida", map[string]any{"fecha_hasta": c.Query("fecha_hasta")})
	}
	filter.CreatedFrom, filter.CreatedTo = from, to
	filter.Limit = parseInt(c.Query("limit"), 0)
	filter.Offset = parseInt(c.Query("offset"), 0)
	return filter, nil
}

// parseTime accepts RFC 3339 timestamps or plain YYYY-MM-DD dates (UTC midnight).
func parseTime(val string) (*time.Time, error) {
	val = strings.TrimSpace(val)
	if val == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, val)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func ticketResponse(ticket *domain.TicketDetail, loc domain.Locale) dto.TicketResponse {
	images := ticket.ResolutionImages
	if images == nil {
		images = []string{}
	}
	return dto.TicketResponse{
		ID:               ticket.ID,
		CreatorID:        ticket.CreatorID,
		CreatorName:      ticket.CreatorName,
		DepartmentID:     ticket.DepartmentID,
		DepartmentName:   ticket.DepartmentName,
		ReasonID:         ticket.ReasonID,
		ReasonName:       ticket.ReasonLabel(loc),
		Subject:          ticket.Subject,
		Body:             ticket.Body,
		Priority:         string(ticket.Priority),
		PriorityDisplay:  ticket.Priority.Label(loc),
		Status:           string(ticket.Status),
		StatusDisplay:    ticket.Status.Label(loc),
		CreatedAt:        ticket.CreatedAt,
		ClosedAt:         ticket.ClosedAt,
		ResolutionText:   ticket.ResolutionText,
		ResolutionImages: images,
	}
}

func historyResponses(entries []domain.TicketHistory) []dto.TicketHistoryResponse {
	resp := make([]dto.TicketHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, dto.TicketHistoryResponse{
			ID:          entry.ID,
			ChangeType:  string(entry.ChangeType),
			ChangedByID: entry.ChangedByID,
			OldValue:    entry.OldValue,
			NewValue:    entry.NewValue,
			CreatedAt:   entry.CreatedAt,
		})
	}
	return resp
}
