package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/deskflow/helpdesk/internal/config"
	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/events"
	"github.com/deskflow/helpdesk/internal/notify"
	"github.com/deskflow/helpdesk/internal/observability"
	"github.com/deskflow/helpdesk/internal/repository"
)

// NotificationService turns ticket events into outbound messages.
type NotificationService struct {
	dispatcher events.Dispatcher
	users      repository.UserRepository
	renderer   *notify.Renderer
	mailers    []notify.Mailer
	logger     *zap.Logger
	metrics    *observability.Metrics
	cfg        config.NotificationConfig
	locale     domain.Locale
}

// NotificationDependencies bundles collaborators of NotificationService.
type NotificationDependencies struct {
	Dispatcher events.Dispatcher
	UserRepo   repository.UserRepository
	Renderer   *notify.Renderer
	Mailers    []notify.Mailer
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// NewNotificationService creates the service.
func NewNotificationService(cfg config.NotificationConfig, deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: deps.Dispatcher,
		users:      deps.UserRepo,
		renderer:   deps.Renderer,
		mailers:    deps.Mailers,
		logger:     logger,
		metrics:    deps.Metrics,
		cfg:        cfg,
		locale:     domain.Locale(strings.ToLower(strings.TrimSpace(cfg.Locale))).OrDefault(),
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreatedCreator)
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreatedStaff)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketPriorityChanged, n.handleTicketPriorityChanged)
}

// The creator and staff messages are separate subscriptions so a failed
// staff delivery is retried without mailing the creator again.
func (n *NotificationService) handleTicketCreatedCreator(ctx context.Context, event events.Event) error {
	var payload events.TicketCreatedPayload
	if err := event.Decode(&payload); err != nil {
		n.logger.Error("undecodable ticket_created payload", zap.String("event_id", event.ID), zap.Error(err))
		return nil
	}
	if payload.Ticket.CreatorEmail == "" {
		return nil
	}
	data := n.templateData(event.TicketID, payload.Ticket)
	return n.send(ctx, event, notify.KindTicketCreatedUser, data, []string{payload.Ticket.CreatorEmail})
}

func (n *NotificationService) handleTicketCreatedStaff(ctx context.Context, event events.Event) error {
	var payload events.TicketCreatedPayload
	if err := event.Decode(&payload); err != nil {
		return nil
	}
	staff, err := n.users.ListNotifiableStaff(ctx)
	if err != nil {
		return err
	}
	recipients := make([]string, 0, len(staff))
	for _, member := range staff {
		if member.Email != "" {
			recipients = append(recipients, member.Email)
		}
	}
	if len(recipients) == 0 {
		n.logger.Info("no staff with email to notify", zap.Int64("ticket_id", event.TicketID))
		return nil
	}
	data := n.templateData(event.TicketID, payload.Ticket)
	return n.send(ctx, event, notify.KindTicketCreatedStaff, data, recipients)
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	var payload events.TicketStatusChangedPayload
	if err := event.Decode(&payload); err != nil {
		n.logger.Error("undecodable ticket_status_changed payload", zap.String("event_id", event.ID), zap.Error(err))
		return nil
	}
	if payload.Ticket.CreatorEmail == "" {
		return nil
	}
	data := n.templateData(event.TicketID, payload.Ticket)
	data.Previous = payload.OldStatus.Label(n.locale)
	data.Current = payload.NewStatus.Label(n.locale)
	return n.send(ctx, event, notify.KindStatusChanged, data, []string{payload.Ticket.CreatorEmail})
}

func (n *NotificationService) handleTicketPriorityChanged(ctx context.Context, event events.Event) error {
	var payload events.TicketPriorityChangedPayload
	if err := event.Decode(&payload); err != nil {
		n.logger.Error("undecodable ticket_priority_changed payload", zap.String("event_id", event.ID), zap.Error(err))
		return nil
	}
	if payload.Ticket.CreatorEmail == "" {
		return nil
	}
	data := n.templateData(event.TicketID, payload.Ticket)
	data.Previous = payload.OldPriority.Label(n.locale)
	data.Current = payload.NewPriority.Label(n.locale)
	return n.send(ctx, event, notify.KindPriorityChanged, data, []string{payload.Ticket.CreatorEmail})
}

func (n *NotificationService) templateData(ticketID int64, snap events.TicketSnapshot) notify.TemplateData {
	data := notify.TemplateData{
		TicketID:       ticketID,
		Subject:        snap.Subject,
		Body:           snap.Body,
		Priority:       snap.Priority.Label(n.locale),
		Status:         snap.Status.Label(n.locale),
		DepartmentName: snap.DepartmentName,
		CreatorName:    snap.CreatorName,
		CreatorEmail:   snap.CreatorEmail,
	}
	if snap.ReasonName != nil {
		data.ReasonName = domain.ReasonLabel(*snap.ReasonName, snap.ReasonNameEN, n.locale)
	}
	return data
}

// send renders kind and hands it to every mailer. Each failure is logged and counted.
func (n *NotificationService) send(ctx context.Context, event events.Event, kind notify.Kind, data notify.TemplateData, to []string) error {
	subject, body, err := n.renderer.Render(kind, n.locale, data)
	if err != nil {
		n.logger.Error("notification render failed", zap.String("kind", string(kind)), zap.Error(err))
		return nil
	}
	msg := notify.Message{
		From:      n.cfg.EmailFrom,
		To:        to,
		Subject:   subject,
		Body:      body,
		EventID:   event.ID,
		EventType: string(event.Type),
		TicketID:  event.TicketID,
	}

	var errs []error
	for _, mailer := range n.mailers {
		if err := mailer.Send(ctx, msg); err != nil {
			n.metrics.RecordNotification(mailer.Channel(), "failed")
			n.logger.Warn("notification delivery failed",
				zap.String("channel", mailer.Channel()),
				zap.String("event_id", event.ID),
				zap.Int64("ticket_id", event.TicketID),
				zap.Error(err))
			errs = append(errs, err)
			continue
		}
		n.metrics.RecordNotification(mailer.Channel(), "sent")
	}
	return errors.Join(errs...)
}
