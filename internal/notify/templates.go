package notify

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/deskflow/helpdesk/internal/domain"
)

// Kind selects a notification template.
type Kind string

const (
	KindTicketCreatedUser  Kind = "ticket_created_user"
	KindTicketCreatedStaff Kind = "ticket_created_staff"
	KindStatusChanged      Kind = "ticket_status_changed"
	KindPriorityChanged    Kind = "ticket_priority_changed"
)

// TemplateData feeds the notification templates. Labels are already localized.
type TemplateData struct {
	TicketID       int64
	Subject        string
	Body           string
	Priority       string
	Status         string
	DepartmentName string
	ReasonName     string
	CreatorName    string
	CreatorEmail   string
	Previous       string
	Current        string
}

type messageTemplate struct {
	subject string
	body    string
}

const footerES = `
---
Este correo ha sido enviado automáticamente por el Sistema de Gestión de Tickets.`

const footerEN = `
---
This message was sent automatically by the Ticket Management System.`

var sources = map[domain.Locale]map[Kind]messageTemplate{
	domain.LocaleES: {
		KindTicketCreatedUser: {
			subject: `Nuevo Ticket Creado #{{.TicketID}}: {{.Subject}}`,
			body: `Nuevo Ticket Creado

Número de Ticket: #{{.TicketID}}
Asunto: {{.Subject}}
Prioridad: {{.Priority}}
Estado: {{.Status}}
Departamento: {{.DepartmentName}}
{{if .ReasonName}}Motivo: {{.ReasonName}}
{{end}}
Descripción:
{{.Body}}
` + footerES,
		},
		KindTicketCreatedStaff: {
			subject: `Nuevo Ticket Creado #{{.TicketID}}: {{.Subject}}`,
			body: `Nuevo Ticket Recibido

Número de Ticket: #{{.TicketID}}
Creado por: {{.CreatorName}}
Email del usuario: {{.CreatorEmail}}

Asunto: {{.Subject}}
Prioridad: {{.Priority}}
Estado: {{.Status}}
Departamento destino: {{.DepartmentName}}
{{if .ReasonName}}Motivo: {{.ReasonName}}
{{end}}
Descripción del Problema:
{{.Body}}
` + footerES + `
Por favor, ingresa al sistema para gestionar este ticket.`,
		},
		KindStatusChanged: {
			subject: `Ticket #{{.TicketID}} - Estado Actualizado`,
			body: `Estado del Ticket Actualizado

Número de Ticket: #{{.TicketID}}
Asunto: {{.Subject}}
Estado anterior: {{.Previous}}
Estado actual: {{.Current}}
Prioridad: {{.Priority}}
` + footerES,
		},
		KindPriorityChanged: {
			subject: `Ticket #{{.TicketID}} - Prioridad Actualizada`,
			body: `Prioridad del Ticket Actualizada

Número de Ticket: #{{.TicketID}}
Asunto: {{.Subject}}
Prioridad anterior: {{.Previous}}
Prioridad actual: {{.Current}}
Estado: {{.Status}}
` + footerES,
		},
	},
	domain.LocaleEN: {
		KindTicketCreatedUser: {
			subject: `New Ticket Created #{{.TicketID}}: {{.Subject}}`,
			body: `New Ticket Created

Ticket number: #{{.TicketID}}
Subject: {{.Subject}}
Priority: {{.Priority}}
Status: {{.Status}}
Department: {{.DepartmentName}}
{{if .ReasonName}}Reason: {{.ReasonName}}
{{end}}
Description:
{{.Body}}
` + footerEN,
		},
		KindTicketCreatedStaff: {
			subject: `New Ticket Created #{{.TicketID}}: {{.Subject}}`,
			body: `New Ticket Received

Ticket number: #{{.TicketID}}
Created by: {{.CreatorName}}
User email: {{.CreatorEmail}}

Subject: {{.Subject}}
Priority: {{.Priority}}
Status: {{.Status}}
Target department: {{.DepartmentName}}
{{if .ReasonName}}Reason: {{.ReasonName}}
{{end}}
Problem description:
{{.Body}}
` + footerEN + `
Please sign in to manage this ticket.`,
		},
		KindStatusChanged: {
			subject: `Ticket #{{.TicketID}} - Status Updated`,
			body: `Ticket Status Updated

Ticket number: #{{.TicketID}}
Subject: {{.Subject}}
Previous status: {{.Previous}}
Current status: {{.Current}}
Priority: {{.Priority}}
` + footerEN,
		},
		KindPriorityChanged: {
			subject: `Ticket #{{.TicketID}} - Priority Updated`,
			body: `Ticket Priority Updated

Ticket number: #{{.TicketID}}
Subject: {{.Subject}}
Previous priority: {{.Previous}}
Current priority: {{.Current}}
Status: {{.Status}}
` + footerEN,
		},
	},
}

type compiled struct {
	subject *template.Template
	body    *template.Template
}

// Renderer turns TemplateData into subject and body text.
type Renderer struct {
	templates map[domain.Locale]map[Kind]compiled
}

// NewRenderer parses the built-in templates.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: map[domain.Locale]map[Kind]compiled{}}
	for loc, kinds := range sources {
		r.templates[loc] = map[Kind]compiled{}
		for kind, src := range kinds {
			name := fmt.Sprintf("%s.%s", loc, kind)
			subject, err := template.New(name + ".subject").Parse(src.subject)
			if err != nil {
				return nil, err
			}
			body, err := template.New(name + ".body").Parse(src.body)
			if err != nil {
				return nil, err
			}
			r.templates[loc][kind] = compiled{subject: subject, body: body}
		}
	}
	return r, nil
}

// Render produces the subject and body of kind in loc.
func (r *Renderer) Render(kind Kind, loc domain.Locale, data TemplateData) (string, string, error) {
	tpl, ok := r.templates[loc.OrDefault()][kind]
	if !ok {
		return "", "", fmt.Errorf("unknown notification template %q", kind)
	}
	var subject, body bytes.Buffer
	if err := tpl.subject.Execute(&subject, data); err != nil {
		return "", "", err
	}
	if err := tpl.body.Execute(&body, data); err != nil {
		return "", "", err
	}
	return subject.String(), body.String(), nil
}
