package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/deskflow/helpdesk/internal/auth"
	"github.com/deskflow/helpdesk/internal/config"
	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/repository"
	apperrors "github.com/deskflow/helpdesk/pkg/errorutil"
)

// AuthService coordinates registration, login and logout.
type AuthService struct {
	users       repository.UserRepository
	departments repository.DepartmentRepository
	sessions    auth.SessionStore
	tokenMgr    *auth.TokenManager
	bcryptCost  int
	logger      *zap.Logger
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo       repository.UserRepository
	DepartmentRepo repository.DepartmentRepository
	Sessions       auth.SessionStore
	Tokens         *auth.TokenManager
	Logger         *zap.Logger
}

// AuthResult is returned by successful logins and registrations.
type AuthResult struct {
	User    *domain.User
	Token   string
	Session domain.Session
}

// RegisterInput describes a self-service account.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm *string
	FirstName       string
	LastName        string
	DepartmentID    *int64
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	tokens := deps.Tokens
	if tokens == nil {
		tokens = auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:       deps.UserRepo,
		departments: deps.DepartmentRepo,
		sessions:    deps.Sessions,
		tokenMgr:    tokens,
		bcryptCost:  cfg.BcryptCost,
		logger:      logger,
	}
}

// Login authenticates by email and password and replaces the user's active session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("Por favor proporciona email y contraseña", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("Credenciales inválidas")
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("Credenciales inválidas")
	}
	if !user.IsActive {
		return nil, apperrors.NewUnauthorized("Credenciales inválidas")
	}
	return s.openSession(ctx, user)
}

// Register creates a user-role account and signs it in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)

	fieldErrors := map[string]any{}
	if username == "" {
		fieldErrors["username"] = "required"
	}
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		fieldErrors["email"] = "invalid"
	}
	if len(input.Password) < auth.MinPasswordLength {
		fieldErrors["password"] = "too short"
	}
	if input.PasswordConfirm != nil && *input.PasswordConfirm != input.Password {
		fieldErrors["password2"] = "does not match"
	}
	if len(fieldErrors) > 0 {
		return nil, apperrors.NewValidationError("invalid registration", fieldErrors)
	}

	if input.DepartmentID != nil {
		if _, err := s.departments.GetByID(ctx, *input.DepartmentID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewValidationError("department does not exist", map[string]any{"departamento": *input.DepartmentID})
			}
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
		Role:         domain.RoleUser,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("username or email already registered", nil)
		}
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("user registered", zap.Int64("user_id", user.ID))
	return s.openSession(ctx, user)
}

// Logout ends the caller's session. Other sessions are untouched.
func (s *AuthService) Logout(ctx context.Context, principal *auth.Principal) error {
	if principal == nil || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := s.sessions.Delete(ctx, principal.User.ID, principal.Session.ID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *AuthService) openSession(ctx context.Context, user *domain.User) (*AuthResult, error) {
	token, session, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, apperrors.MapError(err)
	}
	return &AuthResult{User: user, Token: token, Session: session}, nil
}

// TokenManager exposes the token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
