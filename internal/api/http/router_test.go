package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	httptransport "github.com/deskflow/helpdesk/internal/api/http"
	"github.com/deskflow/helpdesk/internal/api/http/handlers"
	"github.com/deskflow/helpdesk/internal/auth"
	"github.com/deskflow/helpdesk/internal/config"
	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/events"
	"github.com/deskflow/helpdesk/internal/observability"
	"github.com/deskflow/helpdesk/internal/repository/memory"
	"github.com/deskflow/helpdesk/internal/service"
)

const testPassword = "password1"

type testServer struct {
	app        *fiber.App
	store      *memory.Store
	dispatcher *events.MemoryDispatcher
	finanzas   domain.Department
	ti         domain.Department
	software   domain.Reason
	alice      domain.User
	bob        domain.User
	root       domain.User
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	s := &testServer{store: memory.NewStore()}

	s.finanzas = domain.Department{Name: "Finanzas", IsActive: true}
	s.ti = domain.Department{Name: "TI", IsActive: true}
	require.NoError(t, s.store.Departments().Create(ctx, &s.finanzas))
	require.NoError(t, s.store.Departments().Create(ctx, &s.ti))
	en := "Software"
	s.software = domain.Reason{Name: "Programas", NameEN: &en, DepartmentID: s.ti.ID}
	require.NoError(t, s.store.Reasons().Create(ctx, &s.software))
	other := domain.Reason{Name: "Facturas", DepartmentID: s.finanzas.ID}
	require.NoError(t, s.store.Reasons().Create(ctx, &other))

	hash, err := auth.HashPassword(testPassword, bcrypt.MinCost)
	require.NoError(t, err)
	s.alice = domain.User{Username: "alice", Email: "alice@empresa.com", FirstName: "Alice", LastName: "Soto", PasswordHash: hash, Role: domain.RoleUser, IsActive: true, DepartmentID: &s.finanzas.ID}
	s.bob = domain.User{Username: "bob", Email: "bob@empresa.com", PasswordHash: hash, Role: domain.RoleAdmin, IsActive: true}
	s.root = domain.User{Username: "root", Email: "root@empresa.com", PasswordHash: hash, Role: domain.RoleSuperuser, IsActive: true}
	for _, u := range []*domain.User{&s.alice, &s.bob, &s.root} {
		require.NoError(t, s.store.Users().Create(ctx, u))
	}

	logger := zap.NewNop()
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	s.dispatcher = events.NewMemoryDispatcher(64, 1, events.RetryPolicy{MaxAttempts: 1}, logger, metrics)
	sessions := auth.NewMemorySessionStore()

	authService := service.NewAuthService(config.AuthConfig{
		JWTSecret:             "router-test",
		AccessTokenTTLMinutes: 30,
		BcryptCost:            bcrypt.MinCost,
	}, service.AuthDependencies{
		UserRepo:       s.store.Users(),
		DepartmentRepo: s.store.Departments(),
		Sessions:       sessions,
		Logger:         logger,
	})
	catalog := service.NewCatalogService(s.store.Departments(), s.store.Reasons())
	tickets := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     s.store.Tickets(),
		DepartmentRepo: s.store.Departments(),
		ReasonRepo:     s.store.Reasons(),
		HistoryRepo:    s.store.History(),
		Dispatcher:     s.dispatcher,
		Logger:         logger,
		Metrics:        metrics,
	})
	reports := service.NewReportService(config.ReportConfig{WindowDays: 7, TopUsers: 10}, service.ReportDependencies{
		ReportRepo:    s.store.Reports(),
		TicketService: tickets,
		Logger:        logger,
		Metrics:       metrics,
	})

	s.app = fiber.New()
	httptransport.RegisterMiddlewares(s.app, logger, metrics, 0)
	httptransport.RegisterRoutes(s.app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler("helpdesk", "test", nil, nil),
		Users:          handlers.NewUsersHandler(authService, catalog),
		Catalog:        handlers.NewCatalogHandler(catalog),
		Tickets:        handlers.NewTicketsHandler(tickets),
		Reports:        handlers.NewReportsHandler(reports),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), sessions, s.store.Users()),
	})
	return s
}

func (s *testServer) do(t *testing.T, method, path, token string, body any, headers ...string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (s *testServer) login(t *testing.T, email string) string {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/login/", "", map[string]string{"email": email, "password": testPassword})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Token string `json:"token"`
	}
	decode(t, resp, &body)
	require.NotEmpty(t, body.Token)
	return body.Token
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func requireError(t *testing.T, resp *http.Response, status int, code string) errorEnvelope {
	t.Helper()
	require.Equal(t, status, resp.StatusCode)
	var env errorEnvelope
	decode(t, resp, &env)
	assert.Equal(t, code, env.Error.Code)
	return env
}

type ticketJSON struct {
	ID               int64    `json:"id"`
	Usuario          int64    `json:"usuario"`
	UsuarioNombre    string   `json:"usuario_nombre"`
	Departamento     int64    `json:"departamento"`
	DepartamentoNom  string   `json:"departamento_nombre"`
	Motivo           *int64   `json:"motivo"`
	MotivoNombre     *string  `json:"motivo_nombre"`
	Asunto           string   `json:"asunto"`
	Prioridad        string   `json:"prioridad"`
	PrioridadDisplay string   `json:"prioridad_display"`
	Estado           string   `json:"estado"`
	EstadoDisplay    string   `json:"estado_display"`
	FechaCierre      *string  `json:"fecha_cierre"`
	SolucionImagenes []string `json:"solucion_imagenes"`
}

func TestLoginAndSessionReplacement(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodPost, "/login/", "", map[string]string{"email": "alice@empresa.com", "password": testPassword})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Token string `json:"token"`
		User  struct {
			ID             int64   `json:"id"`
			Email          string  `json:"email"`
			Rol            string  `json:"rol"`
			DepartmentName *string `json:"departamento_nombre"`
		} `json:"user"`
	}
	decode(t, resp, &body)
	assert.Equal(t, s.alice.ID, body.User.ID)
	assert.Equal(t, "user", body.User.Rol)
	require.NotNil(t, body.User.DepartmentName)
	assert.Equal(t, "Finanzas", *body.User.DepartmentName)
	first := body.Token

	second := s.login(t, "alice@empresa.com")
	requireError(t, s.do(t, http.MethodGet, "/tickets/", first, nil), http.StatusUnauthorized, "UNAUTHORIZED")
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/tickets/", second, nil).StatusCode)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/logout/", second, nil).StatusCode)
	requireError(t, s.do(t, http.MethodGet, "/tickets/", second, nil), http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestLoginErrors(t *testing.T) {
	s := newTestServer(t)
	requireError(t, s.do(t, http.MethodPost, "/login/", "", map[string]string{"email": "alice@empresa.com", "password": "nope-nope"}),
		http.StatusUnauthorized, "UNAUTHORIZED")
	requireError(t, s.do(t, http.MethodPost, "/login/", "", map[string]string{"email": "alice@empresa.com"}),
		http.StatusBadRequest, "VALIDATION_FAILED")
	requireError(t, s.do(t, http.MethodGet, "/tickets/", "", nil), http.StatusUnauthorized, "UNAUTHORIZED")
	requireError(t, s.do(t, http.MethodGet, "/tickets/", "garbage", nil), http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, http.MethodPost, "/registro/", "", map[string]any{
		"username": "nuevo", "email": "nuevo@empresa.com", "password": "password9", "password2": "password9",
		"departamento": s.ti.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var body struct {
		Token   string `json:"token"`
		Message string `json:"message"`
		User    struct {
			Rol string `json:"rol"`
		} `json:"user"`
	}
	decode(t, resp, &body)
	assert.NotEmpty(t, body.Token)
	assert.Equal(t, "user", body.User.Rol)
	assert.Equal(t, "Usuario registrado exitosamente", body.Message)

	requireError(t, s.do(t, http.MethodPost, "/registro/", "", map[string]any{
		"username": "otro", "email": "nuevo@empresa.com", "password": "password9",
	}), http.StatusConflict, "CONFLICT")
}

func TestCreateTicketScenario(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "alice@empresa.com")

	resp := s.do(t, http.MethodPost, "/tickets/", token, map[string]any{
		"departamento": s.finanzas.ID, "asunto": "Printer down", "contenido": "No imprime",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created ticketJSON
	decode(t, resp, &created)
	assert.Equal(t, "media", created.Prioridad)
	assert.Equal(t, "Media", created.PrioridadDisplay)
	assert.Equal(t, "abierto", created.Estado)
	assert.Equal(t, "Abierto", created.EstadoDisplay)
	assert.Nil(t, created.FechaCierre)
	assert.Equal(t, s.alice.ID, created.Usuario)
	assert.Equal(t, "Alice Soto", created.UsuarioNombre)
	assert.Equal(t, "Finanzas", created.DepartamentoNom)
	assert.NotNil(t, created.SolucionImagenes)

	resp = s.do(t, http.MethodGet, fmt.Sprintf("/tickets/%d/?lang=en", created.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got ticketJSON
	decode(t, resp, &got)
	assert.Equal(t, "Medium", got.PrioridadDisplay)
	assert.Equal(t, "Open", got.EstadoDisplay)

	resp = s.do(t, http.MethodGet, fmt.Sprintf("/tickets/%d/", created.ID), token, nil, "Accept-Language", "en-US,en;q=0.9")
	decode(t, resp, &got)
	assert.Equal(t, "Medium", got.PrioridadDisplay)
}

func TestCreateTicketRejections(t *testing.T) {
	s := newTestServer(t)
	rootToken := s.login(t, "root@empresa.com")
	aliceToken := s.login(t, "alice@empresa.com")

	env := requireError(t, s.do(t, http.MethodPost, "/tickets/", rootToken, map[string]any{
		"departamento": s.finanzas.ID, "asunto": "x", "contenido": "y",
	}), http.StatusForbidden, "FORBIDDEN")
	assert.Equal(t, "Los administradores no pueden crear tickets", env.Error.Message)

	resp := s.do(t, http.MethodGet, "/tickets/", rootToken, nil)
	var list []ticketJSON
	decode(t, resp, &list)
	assert.Empty(t, list)

	env = requireError(t, s.do(t, http.MethodPost, "/tickets/", aliceToken, map[string]any{
		"departamento": s.finanzas.ID, "motivo": s.software.ID, "asunto": "x", "contenido": "y",
	}), http.StatusBadRequest, "VALIDATION_FAILED")
	assert.Contains(t, env.Error.Details, "motivo")

	requireError(t, s.do(t, http.MethodPost, "/tickets/", aliceToken, map[string]any{
		"departamento": s.finanzas.ID, "contenido": "y",
	}), http.StatusBadRequest, "VALIDATION_FAILED")
}

func TestTicketVisibilityAndUpdates(t *testing.T) {
	s := newTestServer(t)
	aliceToken := s.login(t, "alice@empresa.com")
	bobToken := s.login(t, "bob@empresa.com")
	rootToken := s.login(t, "root@empresa.com")

	resp := s.do(t, http.MethodPost, "/tickets/", aliceToken, map[string]any{
		"departamento": s.ti.ID, "motivo": s.software.ID, "asunto": "Excel", "contenido": "crash", "prioridad": "baja",
	})
	var ticket ticketJSON
	decode(t, resp, &ticket)
	path := fmt.Sprintf("/tickets/%d/", ticket.ID)

	requireError(t, s.do(t, http.MethodGet, path, bobToken, nil), http.StatusNotFound, "NOT_FOUND")
	var bobList []ticketJSON
	decode(t, s.do(t, http.MethodGet, "/tickets/", bobToken, nil), &bobList)
	assert.Empty(t, bobList)

	requireError(t, s.do(t, http.MethodPost, path+"update_estado/", bobToken, map[string]string{"estado": "cerrado"}),
		http.StatusForbidden, "FORBIDDEN")
	requireError(t, s.do(t, http.MethodPost, path+"update_prioridad/", aliceToken, map[string]string{"prioridad": "urgente"}),
		http.StatusForbidden, "FORBIDDEN")
	requireError(t, s.do(t, http.MethodPost, path+"update_estado/", rootToken, map[string]string{"estado": "pendiente"}),
		http.StatusBadRequest, "VALIDATION_FAILED")
	requireError(t, s.do(t, http.MethodPost, path+"update_estado/", rootToken, map[string]string{}),
		http.StatusBadRequest, "VALIDATION_FAILED")

	var unchanged ticketJSON
	decode(t, s.do(t, http.MethodGet, path, aliceToken, nil), &unchanged)
	assert.Equal(t, "abierto", unchanged.Estado)
	assert.Equal(t, "baja", unchanged.Prioridad)

	resp = s.do(t, http.MethodPost, path+"update_estado/", rootToken, map[string]string{"estado": "cerrado"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var closed ticketJSON
	decode(t, resp, &closed)
	assert.Equal(t, "cerrado", closed.Estado)
	require.NotNil(t, closed.FechaCierre)

	resp = s.do(t, http.MethodPost, path+"update_estado/", rootToken, map[string]string{"estado": "abierto"})
	var reopened ticketJSON
	decode(t, resp, &reopened)
	require.NotNil(t, reopened.FechaCierre)
	assert.Equal(t, *closed.FechaCierre, *reopened.FechaCierre)

	resp = s.do(t, http.MethodPost, path+"update_prioridad/?lang=en", rootToken, map[string]string{"prioridad": "urgente"})
	var urgent ticketJSON
	decode(t, resp, &urgent)
	assert.Equal(t, "Urgent", urgent.PrioridadDisplay)
	require.NotNil(t, urgent.MotivoNombre)
	assert.Equal(t, "Software", *urgent.MotivoNombre)

	resp = s.do(t, http.MethodPost, path+"update_solucion/", rootToken, map[string]any{
		"solucion_texto": "Reinstalado", "solucion_imagenes": []string{"a.png"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var history []map[string]any
	decode(t, s.do(t, http.MethodGet, path+"historial/", aliceToken, nil), &history)
	assert.Len(t, history, 4)

	var all []ticketJSON
	decode(t, s.do(t, http.MethodGet, "/tickets/?estado=abierto&prioridad=urgente", rootToken, nil), &all)
	require.Len(t, all, 1)
	requireError(t, s.do(t, http.MethodGet, "/tickets/?estado=nope", rootToken, nil), http.StatusBadRequest, "VALIDATION_FAILED")
}

func TestTicketListDateFilters(t *testing.T) {
	s := newTestServer(t)
	aliceToken := s.login(t, "alice@empresa.com")
	resp := s.do(t, http.MethodPost, "/tickets/", aliceToken, map[string]any{
		"departamento": s.finanzas.ID, "asunto": "Printer down", "contenido": "no toner",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var list []ticketJSON
	decode(t, s.do(t, http.MethodGet, "/tickets/?fecha_desde=2000-01-01", aliceToken, nil), &list)
	assert.Len(t, list, 1)
	decode(t, s.do(t, http.MethodGet, "/tickets/?fecha_hasta=2000-01-01T00:00:00Z", aliceToken, nil), &list)
	assert.Empty(t, list)

	env := requireError(t, s.do(t, http.MethodGet, "/tickets/?fecha_desde=ayer", aliceToken, nil),
		http.StatusBadRequest, "VALIDATION_FAILED")
	assert.Equal(t, "ayer", env.Error.Details["fecha_desde"])
	env = requireError(t, s.do(t, http.MethodGet, "/tickets/?fecha_hasta=2026-13-40", aliceToken, nil),
		http.StatusBadRequest, "VALIDATION_FAILED")
	assert.Contains(t, env.Error.Details, "fecha_hasta")
}

func TestCatalogEndpoints(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, "/departamentos/", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var depts []map[string]any
	decode(t, resp, &depts)
	assert.Len(t, depts, 2)

	requireError(t, s.do(t, http.MethodGet, "/motivos/", "", nil), http.StatusUnauthorized, "UNAUTHORIZED")

	token := s.login(t, "alice@empresa.com")
	var reasons []struct {
		ID           int64  `json:"id"`
		Nombre       string `json:"nombre"`
		Display      string `json:"nombre_display"`
		Departamento int64  `json:"departamento"`
		DeptName     string `json:"departamento_nombre"`
	}
	decode(t, s.do(t, http.MethodGet, fmt.Sprintf("/motivos/?departamento=%d&lang=en", s.ti.ID), token, nil), &reasons)
	require.Len(t, reasons, 1)
	assert.Equal(t, "Programas", reasons[0].Nombre)
	assert.Equal(t, "Software", reasons[0].Display)
	assert.Equal(t, "TI", reasons[0].DeptName)

	decode(t, s.do(t, http.MethodGet, "/motivos/", token, nil), &reasons)
	assert.Len(t, reasons, 2)

	requireError(t, s.do(t, http.MethodGet, "/motivos/?departamento=abc", token, nil), http.StatusBadRequest, "VALIDATION_FAILED")
	requireError(t, s.do(t, http.MethodGet, "/departamentos/9999/", token, nil), http.StatusNotFound, "NOT_FOUND")
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, fmt.Sprintf("/departamentos/%d/", s.ti.ID), token, nil).StatusCode)
}

func TestReportEndpoints(t *testing.T) {
	s := newTestServer(t)
	aliceToken := s.login(t, "alice@empresa.com")
	rootToken := s.login(t, "root@empresa.com")

	var ticket ticketJSON
	decode(t, s.do(t, http.MethodPost, "/tickets/", aliceToken, map[string]any{
		"departamento": s.finanzas.ID, "asunto": "Reporte", "contenido": "detalle",
	}), &ticket)

	requireError(t, s.do(t, http.MethodGet, "/reportes/pdf-estadisticas/", aliceToken, nil), http.StatusForbidden, "FORBIDDEN")

	resp := s.do(t, http.MethodGet, "/reportes/pdf-estadisticas/?lang=en", rootToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))

	resp = s.do(t, http.MethodGet, fmt.Sprintf("/reportes/pdf-ticket/%d/", ticket.ID), rootToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), fmt.Sprintf("ticket_%d.pdf", ticket.ID))

	requireError(t, s.do(t, http.MethodGet, "/reportes/pdf-ticket/424242/", rootToken, nil), http.StatusNotFound, "NOT_FOUND")
}

func TestHealthMetricsAndUnknownRoutes(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health/live", "", nil).StatusCode)
	resp := s.do(t, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ready struct {
		Dependencies map[string]string `json:"dependencies"`
	}
	decode(t, resp, &ready)
	assert.Equal(t, "disabled", ready.Dependencies["postgres"])

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/metrics", "", nil).StatusCode)
	requireError(t, s.do(t, http.MethodGet, "/no-such-route", "", nil), http.StatusNotFound, "NOT_FOUND")
}
