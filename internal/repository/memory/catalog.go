package memory

import (
	"context"
	"sort"

	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/repository"
)

type departmentRepo struct{ s *Store }

func (r *departmentRepo) Create(_ context.Context, dept *domain.Department) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.departments {
		if existing.Name == dept.Name {
			return repository.ErrDuplicate
		}
	}
	dept.ID = r.s.nextID()
	dept.CreatedAt = r.s.now()
	r.s.departments[dept.ID] = *dept
	return nil
}

func (r *departmentRepo) Update(_ context.Context, dept *domain.Department) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.departments[dept.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, existing := range r.s.departments {
		if id != dept.ID && existing.Name == dept.Name {
			return repository.ErrDuplicate
		}
	}
	dept.CreatedAt = current.CreatedAt
	r.s.departments[dept.ID] = *dept
	return nil
}

func (r *departmentRepo) GetByID(_ context.Context, id int64) (*domain.Department, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	dept, ok := r.s.departments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &dept, nil
}

func (r *departmentRepo) GetByName(_ context.Context, name string) (*domain.Department, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, dept := range r.s.departments {
		if dept.Name == name {
			return &dept, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *departmentRepo) List(_ context.Context, includeInactive bool) ([]domain.Department, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.Department
	for _, dept := range r.s.departments {
		if dept.IsActive || includeInactive {
			result = append(result, dept)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

type reasonRepo struct{ s *Store }

func (r *reasonRepo) Create(_ context.Context, reason *domain.Reason) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.checkUnique(reason); err != nil {
		return err
	}
	reason.ID = r.s.nextID()
	r.s.reasons[reason.ID] = *reason
	return nil
}

func (r *reasonRepo) Update(_ context.Context, reason *domain.Reason) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.reasons[reason.ID]; !ok {
		return repository.ErrNotFound
	}
	if err := r.checkUnique(reason); err != nil {
		return err
	}
	r.s.reasons[reason.ID] = *reason
	return nil
}

func (r *reasonRepo) checkUnique(reason *domain.Reason) error {
	for id, existing := range r.s.reasons {
		if id != reason.ID && existing.DepartmentID == reason.DepartmentID && existing.Name == reason.Name {
			return repository.ErrDuplicate
		}
	}
	return nil
}

// Delete mirrors ON DELETE SET NULL on tickets.
func (r *reasonRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.reasons[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.reasons, id)
	for tid, ticket := range r.s.tickets {
		if ticket.ReasonID != nil && *ticket.ReasonID == id {
			ticket.ReasonID = nil
			r.s.tickets[tid] = ticket
		}
	}
	return nil
}

func (r *reasonRepo) GetByID(_ context.Context, id int64) (*domain.Reason, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	reason, ok := r.s.reasons[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &reason, nil
}

func (r *reasonRepo) List(_ context.Context, departmentID *int64) ([]domain.Reason, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.Reason
	for _, reason := range r.s.reasons {
		if departmentID == nil || reason.DepartmentID == *departmentID {
			result = append(result, reason)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DepartmentID != result[j].DepartmentID {
			return result[i].DepartmentID < result[j].DepartmentID
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}
