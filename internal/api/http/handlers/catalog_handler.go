package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/deskflow/helpdesk/internal/api/dto"
	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/service"
	apperrors "github.com/deskflow/helpdesk/pkg/errorutil"
)

// CatalogHandler serves departments and reasons.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListDepartments GET /departamentos/.
func (h *CatalogHandler) ListDepartments(c *fiber.Ctx) error {
	depts, err := h.catalog.ListDepartments(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.DepartmentResponse, 0, len(depts))
	for i := range depts {
		items = append(items, departmentResponse(&depts[i]))
	}
	return c.JSON(items)
}

// GetDepartment GET /departamentos/:id/.
func (h *CatalogHandler) GetDepartment(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	dept, err := h.catalog.GetDepartment(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(departmentResponse(dept))
}

// ListReasons GET /motivos/?departamento=<id>.
func (h *CatalogHandler) ListReasons(c *fiber.Ctx) error {
	var departmentID *int64
	if raw := c.Query("departamento"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return apperrors.NewValidationError("invalid department filter", map[string]any{"departamento": raw})
		}
		departmentID = &id
	}
	reasons, err := h.catalog.ListReasons(c.UserContext(), departmentID)
	if err != nil {
		return err
	}
	loc := localeOf(c)
	items := make([]dto.ReasonResponse, 0, len(reasons))
	for i := range reasons {
		items = append(items, h.reasonResponse(c.UserContext(), &reasons[i], loc))
	}
	return c.JSON(items)
}

// GetReason GET /motivos/:id/.
func (h *CatalogHandler) GetReason(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	reason, err := h.catalog.GetReason(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(h.reasonResponse(c.UserContext(), reason, localeOf(c)))
}

func departmentResponse(dept *domain.Department) dto.DepartmentResponse {
	return dto.DepartmentResponse{
		ID:          dept.ID,
		Name:        dept.Name,
		Manager:     dept.Manager,
		Email:       dept.Email,
		Description: dept.Description,
		IsActive:    dept.IsActive,
	}
}

func (h *CatalogHandler) reasonResponse(ctx context.Context, reason *domain.Reason, loc domain.Locale) dto.ReasonResponse {
	return dto.ReasonResponse{
		ID:             reason.ID,
		Name:           reason.Name,
		NameEN:         reason.NameEN,
		Display:        reason.LocalizedName(loc),
		Description:    reason.Description,
		DepartmentID:   reason.DepartmentID,
		DepartmentName: h.catalog.DepartmentName(ctx, &reason.DepartmentID),
	}
}
