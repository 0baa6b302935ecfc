package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/deskflow/helpdesk/internal/auth"
	"github.com/deskflow/helpdesk/internal/config"
	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/repository"
	"github.com/deskflow/helpdesk/internal/repository/memory"
	apperrors "github.com/deskflow/helpdesk/pkg/errorutil"
)

func newAuthFixture(t *testing.T) (*AuthService, *auth.MemorySessionStore, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	sessions := auth.NewMemorySessionStore()
	svc := NewAuthService(config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 60,
		BcryptCost:            bcrypt.MinCost,
	}, AuthDependencies{
		UserRepo:       store.Users(),
		DepartmentRepo: store.Departments(),
		Sessions:       sessions,
	})
	return svc, sessions, store
}

func TestRegisterAndLogin(t *testing.T) {
	svc, sessions, _ := newAuthFixture(t)
	ctx := context.Background()
	confirm := "s3cret-pass"

	registered, err := svc.Register(ctx, RegisterInput{
		Username:        "maria",
		Email:           "maria@empresa.com",
		Password:        "s3cret-pass",
		PasswordConfirm: &confirm,
		FirstName:       "María",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, registered.User.Role)
	assert.NotEqual(t, "s3cret-pass", registered.User.PasswordHash)
	assert.NotEmpty(t, registered.Token)

	claims, err := svc.TokenManager().ParseToken(registered.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.UserID)
	assert.Equal(t, registered.Session.ID, claims.ID)

	login, err := svc.Login(ctx, " maria@empresa.com ", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, registered.Session.ID, login.Session.ID)

	active, err := sessions.Get(ctx, login.User.ID)
	require.NoError(t, err)
	assert.Equal(t, login.Session.ID, active.ID, "a new login replaces the previous session")
}

func TestLoginFailures(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Username: "u", Email: "u@empresa.com", Password: "password1"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "", "password1")
	requireCode(t, err, apperrors.CodeValidation)
	_, err = svc.Login(ctx, "u@empresa.com", "")
	requireCode(t, err, apperrors.CodeValidation)
	_, err = svc.Login(ctx, "u@empresa.com", "wrong-password")
	requireCode(t, err, apperrors.CodeUnauthorized)
	_, err = svc.Login(ctx, "nobody@empresa.com", "password1")
	requireCode(t, err, apperrors.CodeUnauthorized)
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	svc, _, store := newAuthFixture(t)
	ctx := context.Background()
	hash, err := auth.HashPassword("password1", bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, store.Users().Create(ctx, &domain.User{
		Username: "gone", Email: "gone@empresa.com", PasswordHash: hash, Role: domain.RoleUser,
	}))

	_, err = svc.Login(ctx, "gone@empresa.com", "password1")
	requireCode(t, err, apperrors.CodeUnauthorized)
}

func TestRegisterValidation(t *testing.T) {
	svc, _, store := newAuthFixture(t)
	ctx := context.Background()
	mismatch := "other-pass"
	missingDept := int64(77)

	tests := []struct {
		name  string
		input RegisterInput
		code  string
	}{
		{"missing username", RegisterInput{Email: "a@b.com", Password: "password1"}, apperrors.CodeValidation},
		{"bad email", RegisterInput{Username: "a", Email: "not-an-email", Password: "password1"}, apperrors.CodeValidation},
		{"short password", RegisterInput{Username: "a", Email: "a@b.com", Password: "short"}, apperrors.CodeValidation},
		{"confirmation mismatch", RegisterInput{Username: "a", Email: "a@b.com", Password: "password1", PasswordConfirm: &mismatch}, apperrors.CodeValidation},
		{"unknown department", RegisterInput{Username: "a", Email: "a@b.com", Password: "password1", DepartmentID: &missingDept}, apperrors.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.input)
			requireCode(t, err, tt.code)
		})
	}

	_, err := svc.Register(ctx, RegisterInput{Username: "dup", Email: "dup@b.com", Password: "password1"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterInput{Username: "dup", Email: "other@b.com", Password: "password1"})
	requireCode(t, err, apperrors.CodeConflict)

	_, err = store.Users().GetByEmail(ctx, "other@b.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLogoutEndsOnlyCurrentSession(t *testing.T) {
	svc, sessions, _ := newAuthFixture(t)
	ctx := context.Background()
	first, err := svc.Register(ctx, RegisterInput{Username: "u", Email: "u@empresa.com", Password: "password1"})
	require.NoError(t, err)
	second, err := svc.Login(ctx, "u@empresa.com", "password1")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, &auth.Principal{User: first.User, Session: first.Session}))
	active, err := sessions.Get(ctx, second.User.ID)
	require.NoError(t, err)
	assert.Equal(t, second.Session.ID, active.ID)

	require.NoError(t, svc.Logout(ctx, &auth.Principal{User: second.User, Session: second.Session}))
	_, err = sessions.Get(ctx, second.User.ID)
	assert.ErrorIs(t, err, auth.ErrNoSession)

	requireCode(t, svc.Logout(ctx, nil), apperrors.CodeUnauthorized)
}
