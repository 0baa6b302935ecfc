package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/repository/memory"
	"github.com/deskflow/helpdesk/internal/service"
	apperrors "github.com/deskflow/helpdesk/pkg/errorutil"
)

// useMemoryEnv points every command at a fresh in-memory store.
func useMemoryEnv(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	env = &Env{
		DSN:     "postgres://test",
		Logger:  zap.NewNop(),
		Catalog: service.NewCatalogService(store.Departments(), store.Reasons()),
		Users:   service.NewUserAdminService(store.Users(), store.Departments(), bcrypt.MinCost),
	}
	t.Cleanup(func() {
		env = nil
		deptManager, deptEmail, deptDescription = "", "", ""
		reasonNameEN, reasonDescription, reasonDepartmentID = "", "", 0
		userEmail, userPassword, userFirstName, userLastName = "", "", "", ""
		userRole, userDepartmentID = "user", 0
		migrateSteps = 1
	})
	return store
}

func newCmd() (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{}
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetContext(context.Background())
	return cmd, buf
}

func TestSeedIsIdempotent(t *testing.T) {
	store := useMemoryEnv(t)
	ctx := context.Background()

	cmd, buf := newCmd()
	require.NoError(t, runSeed(cmd, nil))
	assert.Contains(t, buf.String(), "seeded 10 department(s) and 4 reason(s)")

	cmd, buf = newCmd()
	require.NoError(t, runSeed(cmd, nil))
	assert.Contains(t, buf.String(), "seeded 0 department(s) and 0 reason(s)")

	depts, err := store.Departments().List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, depts, 10)

	it, err := store.Departments().GetByName(ctx, itDepartment)
	require.NoError(t, err)
	reasons, err := store.Reasons().List(ctx, &it.ID)
	require.NoError(t, err)
	require.Len(t, reasons, 4)
	byName := map[string]domain.Reason{}
	for _, r := range reasons {
		byName[r.Name] = r
	}
	assert.Equal(t, "Software", byName["Programas"].LocalizedName(domain.LocaleEN))
	assert.Equal(t, "Passwords", byName["Contraseñas"].LocalizedName(domain.LocaleEN))
}

func TestDepartmentCommands(t *testing.T) {
	store := useMemoryEnv(t)
	ctx := context.Background()

	deptEmail = "soporte@empresa.com"
	cmd, buf := newCmd()
	require.NoError(t, runDepartmentsCreate(cmd, []string{"Soporte"}))
	assert.Contains(t, buf.String(), `"Soporte"`)

	dept, err := store.Departments().GetByName(ctx, "Soporte")
	require.NoError(t, err)
	assert.Equal(t, "soporte@empresa.com", dept.Email)

	cmd, _ = newCmd()
	err = runDepartmentsCreate(cmd, []string{"Soporte"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	cmd, buf = newCmd()
	require.NoError(t, runDepartmentsSetActive(false)(cmd, []string{"1"}))
	assert.Contains(t, buf.String(), "disabled department 1")
	dept, err = store.Departments().GetByID(ctx, 1)
	require.NoError(t, err)
	assert.False(t, dept.IsActive)

	cmd, _ = newCmd()
	assert.Error(t, runDepartmentsSetActive(true)(cmd, []string{"abc"}))

	cmd, _ = newCmd()
	err = runDepartmentsSetActive(true)(cmd, []string{"99"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestReasonCommands(t *testing.T) {
	store := useMemoryEnv(t)
	ctx := context.Background()

	cmd, _ := newCmd()
	require.NoError(t, runDepartmentsCreate(cmd, []string{"Finanzas"}))

	reasonDepartmentID = 1
	reasonNameEN = "Invoices"
	cmd, buf := newCmd()
	require.NoError(t, runReasonsCreate(cmd, []string{"Facturas"}))
	assert.Contains(t, buf.String(), "in department 1")

	reason, err := store.Reasons().GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Invoices", reason.LocalizedName(domain.LocaleEN))

	reasonDepartmentID = 42
	cmd, _ = newCmd()
	err = runReasonsCreate(cmd, []string{"Otro"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	cmd, buf = newCmd()
	require.NoError(t, runReasonsDelete(cmd, []string{"2"}))
	assert.Contains(t, buf.String(), "deleted reason 2")
}

func TestUserCommands(t *testing.T) {
	store := useMemoryEnv(t)
	ctx := context.Background()

	userEmail = "root@empresa.com"
	userPassword = "s3cretpass"
	userRole = "superuser"
	cmd, buf := newCmd()
	require.NoError(t, runUsersCreate(cmd, []string{"root"}))
	assert.Contains(t, buf.String(), `created superuser 1 "root"`)

	user, err := store.Users().GetByEmail(ctx, "root@empresa.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSuperuser, user.Role)

	userRole = "staff"
	userEmail = "other@empresa.com"
	cmd, _ = newCmd()
	err = runUsersCreate(cmd, []string{"other"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	legacy := &domain.User{Username: "legacy", Email: "legacy@empresa.com", Role: domain.RoleUser, IsActive: true, PlatformSuperuser: true}
	require.NoError(t, store.Users().Create(ctx, legacy))

	cmd, buf = newCmd()
	require.NoError(t, runUsersReconcile(cmd, nil))
	assert.Contains(t, buf.String(), "promoted 1 account(s)")

	cmd, buf = newCmd()
	require.NoError(t, runUsersReconcile(cmd, nil))
	assert.Contains(t, buf.String(), "promoted 0 account(s)")
}

func TestMigrateCommands(t *testing.T) {
	useMemoryEnv(t)

	var gotDSN string
	var gotSteps int
	origUp, origDown := migrateUp, migrateDown
	migrateUp = func(dsn string, _ *zap.Logger) error {
		gotDSN = dsn
		return nil
	}
	migrateDown = func(dsn string, steps int, _ *zap.Logger) error {
		gotSteps = steps
		return nil
	}
	t.Cleanup(func() { migrateUp, migrateDown = origUp, origDown })

	cmd, buf := newCmd()
	require.NoError(t, runMigrateUp(cmd, nil))
	assert.Equal(t, "postgres://test", gotDSN)
	assert.Contains(t, buf.String(), "migrations applied")

	migrateSteps = 2
	cmd, buf = newCmd()
	require.NoError(t, runMigrateDown(cmd, nil))
	assert.Equal(t, 2, gotSteps)
	assert.Contains(t, buf.String(), "rolled back 2 migration(s)")

	migrateSteps = 0
	cmd, _ = newCmd()
	assert.Error(t, runMigrateDown(cmd, nil))
}

func TestOpenEnvRequiresDSN(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	_, err := openEnv(context.Background())
	assert.ErrorIs(t, err, errDSNRequired)
}
