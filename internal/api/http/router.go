package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/deskflow/helpdesk/internal/api/http/handlers"
	"github.com/deskflow/helpdesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Catalog        *handlers.CatalogHandler
	Tickets        *handlers.TicketsHandler
	Reports        *handlers.ReportsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Paths keep their trailing slash, which
// existing clients send.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Post("/login/", cfg.Users.Login)
	app.Post("/registro/", cfg.Users.Register)
	app.Get("/departamentos/", cfg.Catalog.ListDepartments)

	authn := cfg.AuthMiddleware.Handle
	app.Post("/logout/", authn, cfg.Users.Logout)
	app.Get("/departamentos/:id/", authn, cfg.Catalog.GetDepartment)

	reasons := app.Group("/motivos", authn, auth.RequireAuthenticated())
	reasons.Get("/", cfg.Catalog.ListReasons)
	reasons.Get("/:id/", cfg.Catalog.GetReason)

	tickets := app.Group("/tickets", authn, auth.RequireAuthenticated())
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/:id/", cfg.Tickets.GetTicket)
	tickets.Get("/:id/historial/", cfg.Tickets.ListHistory)
	tickets.Post("/:id/update_estado/", cfg.Tickets.UpdateStatus)
	tickets.Post("/:id/update_prioridad/", cfg.Tickets.UpdatePriority)
	tickets.Post("/:id/update_solucion/", cfg.Tickets.UpdateResolution)

	reports := app.Group("/reportes", authn, auth.RequireSuperuser())
	reports.Get("/pdf-estadisticas/", cfg.Reports.StatsPDF)
	reports.Get("/pdf-ticket/:id/", cfg.Reports.TicketPDF)
}
