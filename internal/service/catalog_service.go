package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/repository"
	apperrors "github.com/deskflow/helpdesk/pkg/errorutil"
)

// CatalogService exposes departments and reasons.
type CatalogService struct {
	departments repository.DepartmentRepository
	reasons     repository.ReasonRepository
}

// NewCatalogService builds the service.
func NewCatalogService(departments repository.DepartmentRepository, reasons repository.ReasonRepository) *CatalogService {
	return &CatalogService{departments: departments, reasons: reasons}
}

// DepartmentInput creates a department.
type DepartmentInput struct {
	Name        string
	Manager     string
	Email       string
	Description string
}

// ReasonInput creates a reason.
type ReasonInput struct {
	Name         string
	NameEN       *string
	Description  string
	DepartmentID int64
}

// ListDepartments returns the active departments ordered by name.
func (s *CatalogService) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	depts, err := s.departments.List(ctx, false)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if depts == nil {
		depts = []domain.Department{}
	}
	return depts, nil
}

// GetDepartment returns an active department.
func (s *CatalogService) GetDepartment(ctx context.Context, id int64) (*domain.Department, error) {
	dept, err := s.departments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("department", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	if !dept.IsActive {
		return nil, apperrors.NewNotFound("department", map[string]any{"id": id})
	}
	return dept, nil
}

// ListReasons returns all reasons, or only those of departmentID when given.
func (s *CatalogService) ListReasons(ctx context.Context, departmentID *int64) ([]domain.Reason, error) {
	reasons, err := s.reasons.List(ctx, departmentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if reasons == nil {
		reasons = []domain.Reason{}
	}
	return reasons, nil
}

// GetReason returns a reason by id.
func (s *CatalogService) GetReason(ctx context.Context, id int64) (*domain.Reason, error) {
	reason, err := s.reasons.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("reason", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return reason, nil
}

// DepartmentName resolves the name of any department, active or not. Lookup
// failures yield an empty name.
func (s *CatalogService) DepartmentName(ctx context.Context, id *int64) string {
	if id == nil {
		return ""
	}
	dept, err := s.departments.GetByID(ctx, *id)
	if err != nil {
		return ""
	}
	return dept.Name
}

// CreateDepartment adds an active department.
func (s *CatalogService) CreateDepartment(ctx context.Context, input DepartmentInput) (*domain.Department, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("department name is required", map[string]any{"nombre": "required"})
	}
	dept := &domain.Department{
		Name:        name,
		Manager:     strings.TrimSpace(input.Manager),
		Email:       strings.TrimSpace(input.Email),
		Description: strings.TrimSpace(input.Description),
		IsActive:    true,
	}
	if err := s.departments.Create(ctx, dept); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("department already exists", map[string]any{"nombre": name})
		}
		return nil, apperrors.MapError(err)
	}
	return dept, nil
}

// SetDepartmentActive enables or disables a department. Departments are never deleted.
func (s *CatalogService) SetDepartmentActive(ctx context.Context, id int64, active bool) (*domain.Department, error) {
	dept, err := s.departments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("department", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	dept.IsActive = active
	if err := s.departments.Update(ctx, dept); err != nil {
		return nil, apperrors.MapError(err)
	}
	return dept, nil
}

// CreateReason adds a reason to an existing department.
func (s *CatalogService) CreateReason(ctx context.Context, input ReasonInput) (*domain.Reason, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("reason name is required", map[string]any{"nombre": "required"})
	}
	if _, err := s.departments.GetByID(ctx, input.DepartmentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("department does not exist", map[string]any{"departamento": input.DepartmentID})
		}
		return nil, apperrors.MapError(err)
	}
	var nameEN *string
	if input.NameEN != nil {
		if trimmed := strings.TrimSpace(*input.NameEN); trimmed != "" {
			nameEN = &trimmed
		}
	}
	reason := &domain.Reason{
		Name:         name,
		NameEN:       nameEN,
		Description:  strings.TrimSpace(input.Description),
		DepartmentID: input.DepartmentID,
	}
	if err := s.reasons.Create(ctx, reason); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("reason already exists in department", map[string]any{"nombre": name})
		}
		return nil, apperrors.MapError(err)
	}
	return reason, nil
}

// DeleteReason removes a reason; tickets that used it keep no reason.
func (s *CatalogService) DeleteReason(ctx context.Context, id int64) error {
	if err := s.reasons.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("reason", map[string]any{"id": id})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// EnsureDepartment returns the department named input.Name, creating it when missing.
func (s *CatalogService) EnsureDepartment(ctx context.Context, input DepartmentInput) (*domain.Department, bool, error) {
	name := strings.TrimSpace(input.Name)
	dept, err := s.departments.GetByName(ctx, name)
	if err == nil {
		return dept, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, apperrors.MapError(err)
	}
	dept, err = s.CreateDepartment(ctx, input)
	if err != nil {
		return nil, false, err
	}
	return dept, true, nil
}
