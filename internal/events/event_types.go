package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/deskflow/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated         EventType = "ticket_created"
	EventTicketStatusChanged   EventType = "ticket_status_changed"
	EventTicketPriorityChanged EventType = "ticket_priority_changed"
)

// Actor identifies who caused an event.
type Actor struct {
	UserID int64       `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// ActorFor builds the actor of user.
func ActorFor(user *domain.User) Actor {
	if user == nil {
		return Actor{}
	}
	return Actor{UserID: user.ID, Role: user.Role}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	TicketID  int64           `json:"ticket_id"`
	Actor     Actor           `json:"actor"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// NewEvent stamps an id and timestamp and encodes payload.
func NewEvent(eventType EventType, ticketID int64, actor Actor, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   raw,
	}, nil
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// TicketSnapshot is the ticket state captured when the event was raised.
type TicketSnapshot struct {
	Subject        string                `json:"subject"`
	Body           string                `json:"body"`
	DepartmentID   int64                 `json:"department_id"`
	DepartmentName string                `json:"department_name"`
	ReasonName     *string               `json:"reason_name,omitempty"`
	ReasonNameEN   *string               `json:"reason_name_en,omitempty"`
	Priority       domain.TicketPriority `json:"priority"`
	Status         domain.TicketStatus   `json:"status"`
	CreatorID      int64                 `json:"creator_id"`
	CreatorName    string                `json:"creator_name"`
	CreatorEmail   string                `json:"creator_email"`
	CreatedAt      time.Time             `json:"created_at"`
	ClosedAt       *time.Time            `json:"closed_at,omitempty"`
}

// SnapshotOf copies the fields notifications need from detail.
func SnapshotOf(detail *domain.TicketDetail) TicketSnapshot {
	return TicketSnapshot{
		Subject:        detail.Subject,
		Body:           detail.Body,
		DepartmentID:   detail.DepartmentID,
		DepartmentName: detail.DepartmentName,
		ReasonName:     detail.ReasonName,
		ReasonNameEN:   detail.ReasonNameEN,
		Priority:       detail.Priority,
		Status:         detail.Status,
		CreatorID:      detail.CreatorID,
		CreatorName:    detail.CreatorName,
		CreatorEmail:   detail.CreatorEmail,
		CreatedAt:      detail.CreatedAt,
		ClosedAt:       detail.ClosedAt,
	}
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Ticket TicketSnapshot `json:"ticket"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	Ticket    TicketSnapshot      `json:"ticket"`
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketPriorityChangedPayload payload.
type TicketPriorityChangedPayload struct {
	Ticket      TicketSnapshot        `json:"ticket"`
	OldPriority domain.TicketPriority `json:"old_priority"`
	NewPriority domain.TicketPriority `json:"new_priority"`
}
