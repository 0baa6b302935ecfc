package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/deskflow/helpdesk/internal/api/dto"
	"github.com/deskflow/helpdesk/internal/auth"
	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/service"
	apperrors "github.com/deskflow/helpdesk/pkg/errorutil"
)

// UsersHandler exposes login, registration and logout.
type UsersHandler struct {
	auth    *service.AuthService
	catalog *service.CatalogService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, catalog *service.CatalogService) *UsersHandler {
	return &UsersHandler{auth: authService, catalog: catalog}
}

// Register handles POST /registro/.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.Password2,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		DepartmentID:    req.DepartmentID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.AuthResponse{
		Token:   result.Token,
		User:    h.userResponse(c.UserContext(), result.User),
		Message: "Usuario registrado exitosamente",
	})
}

// Login handles POST /login/.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.AuthResponse{
		Token: result.Token,
		User:  h.userResponse(c.UserContext(), result.User),
	})
}

// Logout handles POST /logout/. Only the caller's session ends.
func (h *UsersHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.auth.Logout(c.UserContext(), principal); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Sesión cerrada exitosamente"})
}

func (h *UsersHandler) userResponse(ctx context.Context, user *domain.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		DepartmentID: user.DepartmentID,
		Role:         string(user.Role),
	}
	if name := h.catalog.DepartmentName(ctx, user.DepartmentID); name != "" {
		resp.DepartmentName = &name
	}
	return resp
}
