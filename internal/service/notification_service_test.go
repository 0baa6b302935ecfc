package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskflow/helpdesk/internal/config"
	"github.com/deskflow/helpdesk/internal/events"
	"github.com/deskflow/helpdesk/internal/notify"
	"github.com/deskflow/helpdesk/internal/observability"
)

const notificationsHeader = `# HELP helpdesk_notifications_total Outbound notifications by channel and outcome.
# TYPE helpdesk_notifications_total counter`

type captureMailer struct {
	mu   sync.Mutex
	name string
	fail bool
	sent []notify.Message
}

func (m *captureMailer) Channel() string { return m.name }

func (m *captureMailer) Send(_ context.Context, msg notify.Message) error {
	if m.fail {
		return errors.New("smtp unavailable")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func newNotificationFixture(t *testing.T, locale string, mailers ...notify.Mailer) (*world, *prometheus.Registry) {
	t.Helper()
	w := newWorld(t)
	renderer, err := notify.NewRenderer()
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	svc := NewNotificationService(config.NotificationConfig{Locale: locale, EmailFrom: "helpdesk@empresa.com"}, NotificationDependencies{
		Dispatcher: w.dispatcher,
		UserRepo:   w.store.Users(),
		Renderer:   renderer,
		Mailers:    mailers,
		Metrics:    metrics,
	})
	svc.RegisterHandlers()
	return w, reg
}

func TestTicketCreatedNotifiesCreatorAndStaff(t *testing.T) {
	mailer := &captureMailer{name: "capture"}
	w, reg := newNotificationFixture(t, "es", mailer)
	ticket := w.createTicket(t, w.alice, "Printer down")

	published := w.dispatcher.published()
	require.Len(t, published, 1)
	require.NoError(t, w.dispatcher.deliver(context.Background(), published[0]))

	require.Len(t, mailer.sent, 2)
	user, staff := mailer.sent[0], mailer.sent[1]
	assert.Equal(t, []string{"alice@empresa.com"}, user.To)
	assert.Equal(t, "helpdesk@empresa.com", user.From)
	assert.Equal(t, fmt.Sprintf("Nuevo Ticket Creado #%d: Printer down", ticket.ID), user.Subject)
	assert.Contains(t, user.Body, "Prioridad: Media")
	assert.Contains(t, user.Body, "Departamento: Finanzas")
	assert.Equal(t, []string{"admin@empresa.com", "root@empresa.com"}, staff.To)
	assert.Equal(t, ticket.ID, staff.TicketID)
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(notificationsHeader+`
helpdesk_notifications_total{channel="capture",outcome="sent"} 2
`), "helpdesk_notifications_total"))
}

func TestStatusChangeNotifiesCreatorOnly(t *testing.T) {
	mailer := &captureMailer{name: "capture"}
	w, _ := newNotificationFixture(t, "en", mailer)
	ctx := context.Background()
	ticket := w.createTicket(t, w.alice, "VPN")
	_, err := w.tickets.UpdateStatus(ctx, &w.root, ticket.ID, "cerrado")
	require.NoError(t, err)
	_, err = w.tickets.UpdatePriority(ctx, &w.root, ticket.ID, "urgente")
	require.NoError(t, err)

	published := w.dispatcher.published()
	require.Len(t, published, 3)
	for _, event := range published[1:] {
		require.NoError(t, w.dispatcher.deliver(ctx, event))
	}

	require.Len(t, mailer.sent, 2)
	status, priority := mailer.sent[0], mailer.sent[1]
	assert.Equal(t, []string{"alice@empresa.com"}, status.To)
	assert.Equal(t, fmt.Sprintf("Ticket #%d - Status Updated", ticket.ID), status.Subject)
	assert.Contains(t, status.Body, "Open")
	assert.Contains(t, status.Body, "Closed")
	assert.Equal(t, []string{"alice@empresa.com"}, priority.To)
	assert.Contains(t, priority.Body, "Urgent")
}

func TestMailerFailureIsReportedAndCounted(t *testing.T) {
	broken := &captureMailer{name: "broken", fail: true}
	working := &captureMailer{name: "working"}
	w, reg := newNotificationFixture(t, "es", broken, working)
	w.createTicket(t, w.alice, "x")

	err := w.dispatcher.deliver(context.Background(), w.dispatcher.published()[0])
	require.Error(t, err)
	assert.Len(t, working.sent, 2, "other channels still deliver")
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(notificationsHeader+`
helpdesk_notifications_total{channel="broken",outcome="failed"} 2
helpdesk_notifications_total{channel="working",outcome="sent"} 2
`), "helpdesk_notifications_total"))
}

// flakyStaffMailer rejects every message addressed to staff and records the rest.
type flakyStaffMailer struct {
	mu            sync.Mutex
	staffAttempts int
	creatorSent   int
}

func (m *flakyStaffMailer) Channel() string { return "flaky" }

func (m *flakyStaffMailer) Send(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, to := range msg.To {
		if to == "admin@empresa.com" {
			m.staffAttempts++
			return errors.New("staff relay down")
		}
	}
	m.creatorSent++
	return nil
}

func (m *flakyStaffMailer) counts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.staffAttempts, m.creatorSent
}

func TestStaffRetryDoesNotResendCreatorMail(t *testing.T) {
	w := newWorld(t)
	renderer, err := notify.NewRenderer()
	require.NoError(t, err)
	mailer := &flakyStaffMailer{}
	dispatcher := events.NewMemoryDispatcher(4, 1, events.RetryPolicy{MaxAttempts: 3, BaseBackoff: time.Millisecond}, nil, nil)
	NewNotificationService(config.NotificationConfig{Locale: "es"}, NotificationDependencies{
		Dispatcher: dispatcher,
		UserRepo:   w.store.Users(),
		Renderer:   renderer,
		Mailers:    []notify.Mailer{mailer},
	}).RegisterHandlers()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = dispatcher.Run(ctx)
	}()

	w.createTicket(t, w.alice, "Printer down")
	require.NoError(t, dispatcher.Publish(ctx, w.dispatcher.published()[0]))

	assert.Eventually(t, func() bool {
		staff, _ := mailer.counts()
		return staff == 3
	}, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done

	staff, creator := mailer.counts()
	assert.Equal(t, 3, staff)
	assert.Equal(t, 1, creator)
}
