package i18n

import "github.com/deskflow/helpdesk/internal/domain"

// Message keys used by reports and notifications.
const (
	KeyWeeklyReportTitle = "report.weekly.title"
	KeyTicketReportTitle = "report.ticket.title"
	KeyGeneratedAt       = "report.generated_at"
	KeyWindowSection     = "report.window"
	KeyAllTimeSection    = "report.all_time"
	KeyTotal             = "report.total"
	KeyByStatus          = "report.by_status"
	KeyByPriority        = "report.by_priority"
	KeyByDepartment      = "report.by_department"
	KeyByReason          = "report.by_reason"
	KeyTopUsers          = "report.top_users"
	KeyNoData            = "report.no_data"
	KeyTicket            = "ticket.number"
	KeySubject           = "ticket.subject"
	KeyCreatedBy         = "ticket.created_by"
	KeyDepartment        = "ticket.department"
	KeyReason            = "ticket.reason"
	KeyStatus            = "ticket.status"
	KeyPriority          = "ticket.priority"
	KeyCreatedAt         = "ticket.created_at"
	KeyClosedAt          = "ticket.closed_at"
	KeyBody              = "ticket.body"
	KeyResolution        = "ticket.resolution"
	KeyResolutionImages  = "ticket.resolution_images"
	KeyNotAvailable      = "common.na"
	KeyNoReason          = "ticket.no_reason"
)

var catalog = map[domain.Locale]map[string]string{
	domain.LocaleES: {
		KeyWeeklyReportTitle: "Reporte Semanal de Tickets",
		KeyTicketReportTitle: "Detalle de Ticket",
		KeyGeneratedAt:       "Generado",
		KeyWindowSection:     "Últimos %d días",
		KeyAllTimeSection:    "Totales históricos",
		KeyTotal:             "Total de tickets",
		KeyByStatus:          "Por estado",
		KeyByPriority:        "Por prioridad",
		KeyByDepartment:      "Por departamento",
		KeyByReason:          "Por motivo",
		KeyTopUsers:          "Usuarios con más tickets",
		KeyNoData:            "Sin datos",
		KeyTicket:            "Ticket",
		KeySubject:           "Asunto",
		KeyCreatedBy:         "Creado por",
		KeyDepartment:        "Departamento",
		KeyReason:            "Motivo",
		KeyStatus:            "Estado",
		KeyPriority:          "Prioridad",
		KeyCreatedAt:         "Fecha de creación",
		KeyClosedAt:          "Fecha de cierre",
		KeyBody:              "Descripción",
		KeyResolution:        "Solución",
		KeyResolutionImages:  "Imágenes de la solución",
		KeyNotAvailable:      "N/A",
		KeyNoReason:          "Sin motivo",
	},
	domain.LocaleEN: {
		KeyWeeklyReportTitle: "Weekly Ticket Report",
		KeyTicketReportTitle: "Ticket Detail",
		KeyGeneratedAt:       "Generated",
		KeyWindowSection:     "Last %d days",
		KeyAllTimeSection:    "All-time totals",
		KeyTotal:             "Total tickets",
		KeyByStatus:          "By status",
		KeyByPriority:        "By priority",
		KeyByDepartment:      "By department",
		KeyByReason:          "By reason",
		KeyTopUsers:          "Top users",
		KeyNoData:            "No data",
		KeyTicket:            "Ticket",
		KeySubject:           "Subject",
		KeyCreatedBy:         "Created by",
		KeyDepartment:        "Department",
		KeyReason:            "Reason",
		KeyStatus:            "Status",
		KeyPriority:          "Priority",
		KeyCreatedAt:         "Created",
		KeyClosedAt:          "Closed",
		KeyBody:              "Description",
		KeyResolution:        "Resolution",
		KeyResolutionImages:  "Resolution images",
		KeyNotAvailable:      "N/A",
		KeyNoReason:          "No reason",
	},
}

// T returns the translation of key for loc, falling back to the default locale and then to the key.
func T(loc domain.Locale, key string) string {
	if msgs, ok := catalog[loc.OrDefault()]; ok {
		if msg, ok := msgs[key]; ok {
			return msg
		}
	}
	if msg, ok := catalog[domain.DefaultLocale][key]; ok {
		return msg
	}
	return key
}
