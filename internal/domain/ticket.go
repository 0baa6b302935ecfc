package domain

import (
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "abierto"
	TicketStatusInProgress TicketStatus = "en_proceso"
	TicketStatusResolved   TicketStatus = "resuelto"
	TicketStatusClosed     TicketStatus = "cerrado"
)

// TicketStatuses lists statuses in workflow order.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusResolved,
	TicketStatusClosed,
}

var statusLabels = map[TicketStatus]localized{
	TicketStatusOpen:       {es: "Abierto", en: "Open"},
	TicketStatusInProgress: {es: "En Proceso", en: "In Progress"},
	TicketStatusResolved:   {es: "Resuelto", en: "Resolved"},
	TicketStatusClosed:     {es: "Cerrado", en: "Closed"},
}

// ParseTicketStatus validates a status value.
func ParseTicketStatus(raw string) (TicketStatus, bool) {
	status := TicketStatus(strings.TrimSpace(raw))
	_, ok := statusLabels[status]
	return status, ok
}

// Label returns the display label for loc. Unknown values are returned verbatim.
func (s TicketStatus) Label(loc Locale) string {
	if l, ok := statusLabels[s]; ok {
		return l.in(loc)
	}
	return string(s)
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "baja"
	TicketPriorityMedium TicketPriority = "media"
	TicketPriorityHigh   TicketPriority = "alta"
	TicketPriorityUrgent TicketPriority = "urgente"
)

// DefaultTicketPriority applies when a ticket is created without one.
const DefaultTicketPriority = TicketPriorityMedium

// TicketPriorities lists priorities from lowest to highest.
var TicketPriorities = []TicketPriority{
	TicketPriorityLow,
	TicketPriorityMedium,
	TicketPriorityHigh,
	TicketPriorityUrgent,
}

var priorityLabels = map[TicketPriority]localized{
	TicketPriorityLow:    {es: "Baja", en: "Low"},
	TicketPriorityMedium: {es: "Media", en: "Medium"},
	TicketPriorityHigh:   {es: "Alta", en: "High"},
	TicketPriorityUrgent: {es: "Urgente", en: "Urgent"},
}

// ParseTicketPriority validates a priority value.
func ParseTicketPriority(raw string) (TicketPriority, bool) {
	priority := TicketPriority(strings.TrimSpace(raw))
	_, ok := priorityLabels[priority]
	return priority, ok
}

// Label returns the display label for loc. Unknown values are returned verbatim.
func (p TicketPriority) Label(loc Locale) string {
	if l, ok := priorityLabels[p]; ok {
		return l.in(loc)
	}
	return string(p)
}

// MaxSubjectLength bounds Ticket.Subject.
const MaxSubjectLength = 200

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID               int64
	CreatorID        int64
	DepartmentID     int64
	ReasonID         *int64
	Subject          string
	Body             string
	Priority         TicketPriority
	Status           TicketStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ClosedAt         *time.Time
	ResolutionText   *string
	ResolutionImages []string
}

// ApplyStatus sets the status and stamps ClosedAt the first time the ticket is closed.
// It reports whether the status changed.
func (t *Ticket) ApplyStatus(status TicketStatus, now time.Time) bool {
	changed := t.Status != status
	t.Status = status
	if status == TicketStatusClosed && t.ClosedAt == nil {
		stamp := now
		t.ClosedAt = &stamp
	}
	return changed
}

// TicketDetail is a ticket joined with the display fields of its relations.
type TicketDetail struct {
	Ticket
	CreatorName    string
	CreatorEmail   string
	DepartmentName string
	ReasonName     *string
	ReasonNameEN   *string
}

// ReasonLabel returns the reason name for loc, or nil when the ticket has no reason.
func (d *TicketDetail) ReasonLabel(loc Locale) *string {
	if d.ReasonName == nil {
		return nil
	}
	label := ReasonLabel(*d.ReasonName, d.ReasonNameEN, loc)
	return &label
}
