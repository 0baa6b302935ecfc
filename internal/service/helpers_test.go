package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/events"
	"github.com/deskflow/helpdesk/internal/repository/memory"
	apperrors "github.com/deskflow/helpdesk/pkg/errorutil"
)

// recordingDispatcher captures published events and optionally fails.
type recordingDispatcher struct {
	mu       sync.Mutex
	events   []events.Event
	handlers map[events.EventType][]events.EventHandler
	fail     bool
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{handlers: map[events.EventType][]events.EventHandler{}}
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	if d.fail {
		return errors.New("queue unavailable")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {
	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

func (d *recordingDispatcher) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (d *recordingDispatcher) published() []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]events.Event(nil), d.events...)
}

// deliver runs the subscribed handlers synchronously.
func (d *recordingDispatcher) deliver(ctx context.Context, event events.Event) error {
	var errs []error
	for _, h := range d.handlers[event.Type] {
		errs = append(errs, h(ctx, event))
	}
	return errors.Join(errs...)
}

type world struct {
	store      *memory.Store
	dispatcher *recordingDispatcher
	tickets    *TicketService
	catalog    *CatalogService

	finanzas domain.Department
	ti       domain.Department
	disabled domain.Department
	software domain.Reason
	invoices domain.Reason

	alice domain.User
	bob   domain.User
	admin domain.User
	root  domain.User
}

func newWorld(t *testing.T) *world {
	t.Helper()
	ctx := context.Background()
	w := &world{store: memory.NewStore(), dispatcher: newRecordingDispatcher()}

	w.finanzas = domain.Department{Name: "Finanzas", IsActive: true}
	w.ti = domain.Department{Name: "Tecnologias de la Informacion", IsActive: true}
	w.disabled = domain.Department{Name: "Archivo", IsActive: false}
	for _, d := range []*domain.Department{&w.finanzas, &w.ti, &w.disabled} {
		require.NoError(t, w.store.Departments().Create(ctx, d))
	}

	en := "Software"
	w.software = domain.Reason{Name: "Programas", NameEN: &en, DepartmentID: w.ti.ID}
	w.invoices = domain.Reason{Name: "Facturas", DepartmentID: w.finanzas.ID}
	for _, r := range []*domain.Reason{&w.software, &w.invoices} {
		require.NoError(t, w.store.Reasons().Create(ctx, r))
	}

	w.alice = domain.User{Username: "alice", Email: "alice@empresa.com", FirstName: "Alice", LastName: "Soto", Role: domain.RoleUser, IsActive: true}
	w.bob = domain.User{Username: "bob", Email: "bob@empresa.com", Role: domain.RoleUser, IsActive: true}
	w.admin = domain.User{Username: "admin", Email: "admin@empresa.com", Role: domain.RoleAdmin, IsActive: true}
	w.root = domain.User{Username: "root", Email: "root@empresa.com", Role: domain.RoleSuperuser, IsActive: true}
	for _, u := range []*domain.User{&w.alice, &w.bob, &w.admin, &w.root} {
		require.NoError(t, w.store.Users().Create(ctx, u))
	}

	w.tickets = NewTicketService(TicketDependencies{
		TicketRepo:     w.store.Tickets(),
		DepartmentRepo: w.store.Departments(),
		ReasonRepo:     w.store.Reasons(),
		HistoryRepo:    w.store.History(),
		Dispatcher:     w.dispatcher,
	})
	w.catalog = NewCatalogService(w.store.Departments(), w.store.Reasons())
	return w
}

func (w *world) createTicket(t *testing.T, creator domain.User, subject string) *domain.TicketDetail {
	t.Helper()
	detail, err := w.tickets.CreateTicket(context.Background(), &creator, TicketCreateInput{
		DepartmentID: w.finanzas.ID,
		Subject:      subject,
		Body:         "details for " + subject,
	})
	require.NoError(t, err)
	return detail
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, apperrors.HasCode(err, code), "expected %s, got %v", code, err)
}
