package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/repository"
)

type ticketRepo struct{ s *Store }

func (r *ticketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[ticket.CreatorID]; !ok {
		return repository.ErrInvalidReference
	}
	if _, ok := r.s.departments[ticket.DepartmentID]; !ok {
		return repository.ErrInvalidReference
	}
	if ticket.ReasonID != nil {
		if _, ok := r.s.reasons[*ticket.ReasonID]; !ok {
			return repository.ErrInvalidReference
		}
	}
	ticket.ID = r.s.nextID()
	ticket.CreatedAt = r.s.now()
	ticket.UpdatedAt = ticket.CreatedAt
	r.s.tickets[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (r *ticketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.tickets[ticket.ID]
	if !ok {
		return repository.ErrNotFound
	}
	ticket.CreatorID = current.CreatorID
	ticket.CreatedAt = current.CreatedAt
	ticket.UpdatedAt = r.s.now()
	r.s.tickets[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (r *ticketRepo) GetByID(_ context.Context, id int64) (*domain.TicketDetail, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ticket, ok := r.s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	detail := r.detail(ticket)
	return &detail, nil
}

func (r *ticketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.TicketDetail, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []domain.Ticket
	for _, ticket := range r.s.tickets {
		if matches(ticket, filter) {
			matched = append(matched, ticket)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		if offset >= len(matched) {
			matched = nil
		} else {
			end := offset + filter.Limit
			if end > len(matched) {
				end = len(matched)
			}
			matched = matched[offset:end]
		}
	}

	result := make([]domain.TicketDetail, 0, len(matched))
	for _, ticket := range matched {
		result = append(result, r.detail(ticket))
	}
	return result, nil
}

func matches(t domain.Ticket, f repository.TicketFilter) bool {
	if f.CreatorID != nil && t.CreatorID != *f.CreatorID {
		return false
	}
	if f.DepartmentID != nil && t.DepartmentID != *f.DepartmentID {
		return false
	}
	if len(f.Statuses) > 0 && !contains(f.Statuses, t.Status) {
		return false
	}
	if len(f.Priorities) > 0 && !contains(f.Priorities, t.Priority) {
		return false
	}
	if f.CreatedFrom != nil && t.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && t.CreatedAt.After(*f.CreatedTo) {
		return false
	}
	if f.SearchTerm != nil {
		term := strings.ToLower(strings.TrimSpace(*f.SearchTerm))
		if term != "" && !strings.Contains(strings.ToLower(t.Subject), term) && !strings.Contains(strings.ToLower(t.Body), term) {
			return false
		}
	}
	return true
}

func contains[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// detail must be called with the read lock held.
func (r *ticketRepo) detail(ticket domain.Ticket) domain.TicketDetail {
	detail := domain.TicketDetail{Ticket: cloneTicket(ticket)}
	if creator, ok := r.s.users[ticket.CreatorID]; ok {
		detail.CreatorName = creator.DisplayName()
		detail.CreatorEmail = creator.Email
	}
	if dept, ok := r.s.departments[ticket.DepartmentID]; ok {
		detail.DepartmentName = dept.Name
	}
	if ticket.ReasonID != nil {
		if reason, ok := r.s.reasons[*ticket.ReasonID]; ok {
			name := reason.Name
			detail.ReasonName = &name
			detail.ReasonNameEN = reason.NameEN
		}
	}
	return detail
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	if t.ResolutionImages != nil {
		t.ResolutionImages = append([]string(nil), t.ResolutionImages...)
	}
	if t.ClosedAt != nil {
		closed := *t.ClosedAt
		t.ClosedAt = &closed
	}
	return t
}

type historyRepo struct{ s *Store }

func (r *historyRepo) Create(_ context.Context, history *domain.TicketHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tickets[history.TicketID]; !ok {
		return repository.ErrNotFound
	}
	history.ID = r.s.nextID()
	history.CreatedAt = r.s.now()
	r.s.history = append(r.s.history, *history)
	return nil
}

func (r *historyRepo) ListByTicket(_ context.Context, ticketID int64) ([]domain.TicketHistory, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.TicketHistory
	for _, entry := range r.s.history {
		if entry.TicketID == ticketID {
			result = append(result, entry)
		}
	}
	return result, nil
}

type reportRepo struct{ s *Store }

func (r *reportRepo) Aggregate(_ context.Context, since *time.Time, topUsers int) (*repository.TicketAggregate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if topUsers <= 0 {
		topUsers = 10
	}

	agg := &repository.TicketAggregate{
		ByStatus:   map[domain.TicketStatus]int64{},
		ByPriority: map[domain.TicketPriority]int64{},
	}
	departments := map[string]int64{}
	users := map[int64]int64{}
	type reasonKey struct{ id int64 }
	reasons := map[reasonKey]int64{}

	for _, ticket := range r.s.tickets {
		if since != nil && ticket.CreatedAt.Before(*since) {
			continue
		}
		agg.Total++
		agg.ByStatus[ticket.Status]++
		agg.ByPriority[ticket.Priority]++
		departments[r.s.departments[ticket.DepartmentID].Name]++
		users[ticket.CreatorID]++
		key := reasonKey{}
		if ticket.ReasonID != nil {
			key.id = *ticket.ReasonID
		}
		reasons[key]++
	}

	for name, n := range departments {
		agg.ByDepartment = append(agg.ByDepartment, repository.NamedCount{Name: name, Count: n})
	}
	sortNamed(agg.ByDepartment)

	for key, n := range reasons {
		rc := repository.ReasonCount{Count: n}
		if reason, ok := r.s.reasons[key.id]; ok {
			name := reason.Name
			rc.Name = &name
			rc.NameEN = reason.NameEN
		}
		agg.ByReason = append(agg.ByReason, rc)
	}
	sort.Slice(agg.ByReason, func(i, j int) bool {
		a, b := agg.ByReason[i], agg.ByReason[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.Name == nil || b.Name == nil {
			return b.Name == nil && a.Name != nil
		}
		return *a.Name < *b.Name
	})

	for id, n := range users {
		user := r.s.users[id]
		agg.TopUsers = append(agg.TopUsers, repository.NamedCount{Name: user.DisplayName(), Count: n})
	}
	sortNamed(agg.TopUsers)
	if len(agg.TopUsers) > topUsers {
		agg.TopUsers = agg.TopUsers[:topUsers]
	}
	return agg, nil
}

func sortNamed(items []repository.NamedCount) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}
		return items[i].Name < items[j].Name
	})
}
