package dto

// DepartmentResponse mirrors the department resource.
type DepartmentResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"nombre"`
	Manager     string `json:"gerente"`
	Email       string `json:"email"`
	Description string `json:"descripcion"`
	IsActive    bool   `json:"activo"`
}

// ReasonResponse mirrors the reason resource. Display is the name in the negotiated locale.
type ReasonResponse struct {
	ID             int64   `json:"id"`
	Name           string  `json:"nombre"`
	NameEN         *string `json:"nombre_en"`
	Display        string  `json:"nombre_display"`
	Description    string  `json:"descripcion"`
	DepartmentID   int64   `json:"departamento"`
	DepartmentName string  `json:"departamento_nombre"`
}
