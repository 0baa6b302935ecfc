package dto

import "time"

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	DepartmentID int64  `json:"departamento"`
	ReasonID     *int64 `json:"motivo"`
	Subject      string `json:"asunto"`
	Body         string `json:"contenido"`
	Priority     string `json:"prioridad"`
}

// UpdateStatusRequest payload for update_estado.
type UpdateStatusRequest struct {
	Status string `json:"estado"`
}

// UpdatePriorityRequest payload for update_prioridad.
type UpdatePriorityRequest struct {
	Priority string `json:"prioridad"`
}

// UpdateResolutionRequest payload for update_solucion.
type UpdateResolutionRequest struct {
	Text   *string  `json:"solucion_texto"`
	Images []string `json:"solucion_imagenes"`
}

// TicketResponse is the ticket representation shared by every ticket endpoint.
type TicketResponse struct {
	ID               int64      `json:"id"`
	CreatorID        int64      `json:"usuario"`
	CreatorName      string     `json:"usuario_nombre"`
	DepartmentID     int64      `json:"departamento"`
	DepartmentName   string     `json:"departamento_nombre"`
	ReasonID         *int64     `json:"motivo"`
	ReasonName       *string    `json:"motivo_nombre"`
	Subject          string     `json:"asunto"`
	Body             string     `json:"contenido"`
	Priority         string     `json:"prioridad"`
	PriorityDisplay  string     `json:"prioridad_display"`
	Status           string     `json:"estado"`
	StatusDisplay    string     `json:"estado_display"`
	CreatedAt        time.Time  `json:"fecha_creacion"`
	ClosedAt         *time.Time `json:"fecha_cierre"`
	ResolutionText   *string    `json:"solucion_texto"`
	ResolutionImages []string   `json:"solucion_imagenes"`
}

// TicketHistoryResponse is one audit entry.
type TicketHistoryResponse struct {
	ID          int64          `json:"id"`
	ChangeType  string         `json:"tipo"`
	ChangedByID int64          `json:"usuario"`
	OldValue    map[string]any `json:"valor_anterior"`
	NewValue    map[string]any `json:"valor_nuevo"`
	CreatedAt   time.Time      `json:"fecha"`
}
