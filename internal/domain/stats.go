package domain

import "time"

// CountEntry is one row of an aggregate breakdown.
type CountEntry struct {
	Key   string
	Label string
	Count int64
}

// TicketBreakdown aggregates tickets created within a period.
type TicketBreakdown struct {
	Total        int64
	ByStatus     []CountEntry
	ByPriority   []CountEntry
	ByDepartment []CountEntry
	ByReason     []CountEntry
	TopUsers     []CountEntry
}

// TicketStats holds the weekly window and the all-time totals.
type TicketStats struct {
	GeneratedAt time.Time
	WindowStart time.Time
	Window      TicketBreakdown
	AllTime     TicketBreakdown
}
