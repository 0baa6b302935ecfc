package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/events"
	"github.com/deskflow/helpdesk/internal/observability"
	"github.com/deskflow/helpdesk/internal/repository"
	apperrors "github.com/deskflow/helpdesk/pkg/errorutil"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets     repository.TicketRepository
	departments repository.DepartmentRepository
	reasons     repository.ReasonRepository
	history     repository.TicketHistoryRepository
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	metrics     *observability.Metrics
	now         func() time.Time
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	DepartmentRepo repository.DepartmentRepository
	ReasonRepo     repository.ReasonRepository
	HistoryRepo    repository.TicketHistoryRepository
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
	Metrics        *observability.Metrics
	Clock          func() time.Time
}

// TicketCreateInput describes ticket creation payload. An empty Priority means the default.
type TicketCreateInput struct {
	DepartmentID int64
	ReasonID     *int64
	Subject      string
	Body         string
	Priority     string
}

// TicketListFilter narrows a listing on top of the visibility rule.
type TicketListFilter struct {
	DepartmentID *int64
	Statuses     []domain.TicketStatus
	Priorities   []domain.TicketPriority
	SearchTerm   *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// ResolutionInput replaces the resolution of a ticket.
type ResolutionInput struct {
	Text   *string
	Images []string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		departments: repository.UncachedDepartments(deps.DepartmentRepo),
		reasons:     repository.UncachedReasons(deps.ReasonRepo),
		history:     deps.HistoryRepo,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		metrics:     deps.Metrics,
		now:         clock,
	}
}

// CreateTicket files a ticket on behalf of creator. Superusers may not create tickets.
func (s *TicketService) CreateTicket(ctx context.Context, creator *domain.User, input TicketCreateInput) (*domain.TicketDetail, error) {
	if creator == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if creator.IsSuperuser() {
		return nil, apperrors.NewForbidden("Los administradores no pueden crear tickets")
	}

	subject := strings.TrimSpace(input.Subject)
	body := strings.TrimSpace(input.Body)
	fieldErrors := map[string]any{}
	switch {
	case subject == "":
		fieldErrors["asunto"] = "required"
	case utf8.RuneCountInString(subject) > domain.MaxSubjectLength:
		fieldErrors["asunto"] = "too long"
	}
	if body == "" {
		fieldErrors["contenido"] = "required"
	}
	priority := domain.DefaultTicketPriority
	if strings.TrimSpace(input.Priority) != "" {
		parsed, ok := domain.ParseTicketPriority(input.Priority)
		if !ok {
			fieldErrors["prioridad"] = "invalid"
		}
		priority = parsed
	}
	if input.DepartmentID <= 0 {
		fieldErrors["departamento"] = "required"
	}
	if len(fieldErrors) > 0 {
		return nil, apperrors.NewValidationError("invalid ticket", fieldErrors)
	}

	dept, err := s.departments.GetByID(ctx, input.DepartmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("department does not exist", map[string]any{"departamento": input.DepartmentID})
		}
		return nil, apperrors.MapError(err)
	}
	if !dept.IsActive {
		return nil, apperrors.NewValidationError("department is disabled", map[string]any{"departamento": input.DepartmentID})
	}

	if input.ReasonID != nil {
		reason, err := s.reasons.GetByID(ctx, *input.ReasonID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewValidationError("reason does not exist", map[string]any{"motivo": *input.ReasonID})
			}
			return nil, apperrors.MapError(err)
		}
		if reason.DepartmentID != dept.ID {
			return nil, apperrors.NewValidationError("reason does not belong to the department", map[string]any{
				"motivo":       reason.ID,
				"departamento": dept.ID,
			})
		}
	}

	ticket := &domain.Ticket{
		CreatorID:        creator.ID,
		DepartmentID:     dept.ID,
		ReasonID:         input.ReasonID,
		Subject:          subject,
		Body:             body,
		Priority:         priority,
		Status:           domain.TicketStatusOpen,
		ResolutionImages: []string{},
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrInvalidReference) {
			return nil, apperrors.NewValidationError("department or reason no longer exists", map[string]any{
				"departamento": dept.ID,
				"motivo":       input.ReasonID,
			})
		}
		return nil, apperrors.MapError(err)
	}
	s.metrics.RecordMutation("create")

	detail, err := s.tickets.GetByID(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.EventTicketCreated, detail.ID, creator, events.TicketCreatedPayload{
		Ticket: events.SnapshotOf(detail),
	})
	return detail, nil
}

// ListTickets returns every ticket to superusers and only their own to everyone else, newest first.
func (s *TicketService) ListTickets(ctx context.Context, user *domain.User, filter TicketListFilter) ([]domain.TicketDetail, error) {
	if user == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	repoFilter := repository.TicketFilter{
		DepartmentID: filter.DepartmentID,
		Statuses:     filter.Statuses,
		Priorities:   filter.Priorities,
		SearchTerm:   filter.SearchTerm,
		CreatedFrom:  filter.CreatedFrom,
		CreatedTo:    filter.CreatedTo,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	}
	if !user.IsSuperuser() {
		repoFilter.CreatorID = &user.ID
	}
	tickets, err := s.tickets.List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if tickets == nil {
		tickets = []domain.TicketDetail{}
	}
	return tickets, nil
}

// GetTicket returns a ticket visible to user. Invisible tickets are reported as missing.
func (s *TicketService) GetTicket(ctx context.Context, user *domain.User, ticketID int64) (*domain.TicketDetail, error) {
	if user == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	detail, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if !user.IsSuperuser() && detail.CreatorID != user.ID {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
	}
	return detail, nil
}

// UpdateStatus moves a ticket to any status. Only superusers may call it.
func (s *TicketService) UpdateStatus(ctx context.Context, user *domain.User, ticketID int64, rawStatus string) (*domain.TicketDetail, error) {
	if !user.IsSuperuser() {
		return nil, apperrors.NewForbidden("No tienes permisos para actualizar el estado")
	}
	if strings.TrimSpace(rawStatus) == "" {
		return nil, apperrors.NewValidationError("El estado es requerido", map[string]any{"estado": "required"})
	}
	newStatus, ok := domain.ParseTicketStatus(rawStatus)
	if !ok {
		return nil, apperrors.NewValidationError("Estado inválido", map[string]any{"estado": rawStatus})
	}

	detail, err := s.GetTicket(ctx, user, ticketID)
	if err != nil {
		return nil, err
	}
	ticket := detail.Ticket
	oldStatus := ticket.Status
	hadClosure := ticket.ClosedAt != nil
	changed := ticket.ApplyStatus(newStatus, s.now())
	if !changed && hadClosure == (ticket.ClosedAt != nil) {
		return detail, nil
	}

	if err := s.tickets.Update(ctx, &ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	detail.Ticket = ticket
	s.metrics.RecordMutation("status")
	if !changed {
		return detail, nil
	}

	s.recordHistory(ctx, user, ticket.ID, domain.ChangeTypeStatus,
		map[string]any{"estado": string(oldStatus)},
		map[string]any{"estado": string(newStatus)})
	s.publishEvent(ctx, events.EventTicketStatusChanged, ticket.ID, user, events.TicketStatusChangedPayload{
		Ticket:    events.SnapshotOf(detail),
		OldStatus: oldStatus,
		NewStatus: newStatus,
	})
	return detail, nil
}

// UpdatePriority changes the priority of a ticket. Only superusers may call it.
func (s *TicketService) UpdatePriority(ctx context.Context, user *domain.User, ticketID int64, rawPriority string) (*domain.TicketDetail, error) {
	if !user.IsSuperuser() {
		return nil, apperrors.NewForbidden("No tienes permisos para actualizar la prioridad")
	}
	if strings.TrimSpace(rawPriority) == "" {
		return nil, apperrors.NewValidationError("La prioridad es requerida", map[string]any{"prioridad": "required"})
	}
	newPriority, ok := domain.ParseTicketPriority(rawPriority)
	if !ok {
		return nil, apperrors.NewValidationError("Prioridad inválida", map[string]any{"prioridad": rawPriority})
	}

	detail, err := s.GetTicket(ctx, user, ticketID)
	if err != nil {
		return nil, err
	}
	oldPriority := detail.Priority
	if oldPriority == newPriority {
		return detail, nil
	}

	ticket := detail.Ticket
	ticket.Priority = newPriority
	if err := s.tickets.Update(ctx, &ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	detail.Ticket = ticket
	s.metrics.RecordMutation("priority")

	s.recordHistory(ctx, user, ticket.ID, domain.ChangeTypePriority,
		map[string]any{"prioridad": string(oldPriority)},
		map[string]any{"prioridad": string(newPriority)})
	s.publishEvent(ctx, events.EventTicketPriorityChanged, ticket.ID, user, events.TicketPriorityChangedPayload{
		Ticket:      events.SnapshotOf(detail),
		OldPriority: oldPriority,
		NewPriority: newPriority,
	})
	return detail, nil
}

// UpdateResolution replaces the resolution text and image references. Only superusers may call it.
func (s *TicketService) UpdateResolution(ctx context.Context, user *domain.User, ticketID int64, input ResolutionInput) (*domain.TicketDetail, error) {
	if !user.IsSuperuser() {
		return nil, apperrors.NewForbidden("No tienes permisos para actualizar la solución")
	}

	var text *string
	if input.Text != nil {
		if trimmed := strings.TrimSpace(*input.Text); trimmed != "" {
			text = &trimmed
		}
	}
	images := make([]string, 0, len(input.Images))
	for _, ref := range input.Images {
		if ref = strings.TrimSpace(ref); ref != "" {
			images = append(images, ref)
		}
	}

	detail, err := s.GetTicket(ctx, user, ticketID)
	if err != nil {
		return nil, err
	}
	ticket := detail.Ticket
	old := resolutionValue(ticket.ResolutionText, ticket.ResolutionImages)
	ticket.ResolutionText = text
	ticket.ResolutionImages = images
	if err := s.tickets.Update(ctx, &ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	detail.Ticket = ticket
	s.metrics.RecordMutation("resolution")

	s.recordHistory(ctx, user, ticket.ID, domain.ChangeTypeResolution, old, resolutionValue(text, images))
	return detail, nil
}

// ListHistory returns the audit trail of a ticket visible to user.
func (s *TicketService) ListHistory(ctx context.Context, user *domain.User, ticketID int64) ([]domain.TicketHistory, error) {
	if _, err := s.GetTicket(ctx, user, ticketID); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if entries == nil {
		entries = []domain.TicketHistory{}
	}
	return entries, nil
}

func resolutionValue(text *string, images []string) map[string]any {
	value := map[string]any{"solucion_imagenes": images}
	if text != nil {
		value["solucion_texto"] = *text
	} else {
		value["solucion_texto"] = nil
	}
	return value
}

// recordHistory is best effort; the ticket write has already succeeded.
func (s *TicketService) recordHistory(ctx context.Context, user *domain.User, ticketID int64, change domain.TicketChangeType, oldValue, newValue map[string]any) {
	if s.history == nil {
		return
	}
	entry := &domain.TicketHistory{
		TicketID:    ticketID,
		ChangedByID: user.ID,
		ChangeType:  change,
		OldValue:    oldValue,
		NewValue:    newValue,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Error("ticket history write failed",
			zap.Int64("ticket_id", ticketID),
			zap.String("change_type", string(change)),
			zap.Error(err))
	}
}

// publishEvent hands the event to the dispatcher. Failures are logged and never returned.
func (s *TicketService) publishEvent(ctx context.Context, eventType events.EventType, ticketID int64, actor *domain.User, payload any) {
	if s.dispatcher == nil {
		return
	}
	event, err := events.NewEvent(eventType, ticketID, events.ActorFor(actor), payload)
	if err != nil {
		s.logger.Error("event encoding failed", zap.String("event_type", string(eventType)), zap.Error(err))
		return
	}
	if err := s.dispatcher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Warn("event publish failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(eventType)),
			zap.Int64("ticket_id", ticketID),
			zap.Error(err))
	}
}
