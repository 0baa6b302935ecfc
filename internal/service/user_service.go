package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/deskflow/helpdesk/internal/auth"
	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/repository"
	apperrors "github.com/deskflow/helpdesk/pkg/errorutil"
)

// UserAdminService manages accounts from the admin CLI.
type UserAdminService struct {
	users       repository.UserRepository
	departments repository.DepartmentRepository
	bcryptCost  int
}

// NewUserAdminService constructs the service.
func NewUserAdminService(users repository.UserRepository, departments repository.DepartmentRepository, bcryptCost int) *UserAdminService {
	return &UserAdminService{users: users, departments: departments, bcryptCost: bcryptCost}
}

// CreateUserInput describes an account created by an operator.
type CreateUserInput struct {
	Username     string
	Email        string
	Password     string
	FirstName    string
	LastName     string
	DepartmentID *int64
	Role         string
}

// CreateUser creates an account with an explicit role.
func (s *UserAdminService) CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	role := domain.RoleUser
	if strings.TrimSpace(input.Role) != "" {
		parsed, ok := domain.ParseRole(input.Role)
		if !ok {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"rol": input.Role})
		}
		role = parsed
	}
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)
	if username == "" || email == "" {
		return nil, apperrors.NewValidationError("username and email are required", nil)
	}
	if len(input.Password) < auth.MinPasswordLength {
		return nil, apperrors.NewValidationError("password too short", map[string]any{"password": "too short"})
	}
	if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, apperrors.NewConflict("email already exists", map[string]any{"email": email})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}
	if input.DepartmentID != nil {
		if _, err := s.departments.GetByID(ctx, *input.DepartmentID); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		Username:     username,
		Email:        email,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		PasswordHash: hash,
		DepartmentID: input.DepartmentID,
		Role:         role,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("username or email already exists", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// ReconcileRoles folds the legacy platform superuser flag into the role column once.
func (s *UserAdminService) ReconcileRoles(ctx context.Context) (int64, error) {
	n, err := s.users.ReconcilePlatformRoles(ctx)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return n, nil
}
