// Package memory holds map-backed implementations of the repository
// interfaces. They are used when no Postgres DSN is configured and by tests.
package memory

import (
	"sync"
	"time"

	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/repository"
)

// Store shares one set of tables between the repositories it hands out.
type Store struct {
	mu          sync.RWMutex
	now         func() time.Time
	seq         int64
	departments map[int64]domain.Department
	reasons     map[int64]domain.Reason
	users       map[int64]domain.User
	tickets     map[int64]domain.Ticket
	history     []domain.TicketHistory
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		now:         time.Now,
		departments: map[int64]domain.Department{},
		reasons:     map[int64]domain.Reason{},
		users:       map[int64]domain.User{},
		tickets:     map[int64]domain.Ticket{},
	}
}

// WithClock overrides the clock used for generated timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

// Departments returns the department repository.
func (s *Store) Departments() repository.DepartmentRepository { return &departmentRepo{s} }

// Reasons returns the reason repository.
func (s *Store) Reasons() repository.ReasonRepository { return &reasonRepo{s} }

// Users returns the user repository.
func (s *Store) Users() repository.UserRepository { return &userRepo{s} }

// Tickets returns the ticket repository.
func (s *Store) Tickets() repository.TicketRepository { return &ticketRepo{s} }

// History returns the ticket history repository.
func (s *Store) History() repository.TicketHistoryRepository { return &historyRepo{s} }

// Reports returns the aggregate repository.
func (s *Store) Reports() repository.ReportRepository { return &reportRepo{s} }
