package repository_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/observability"
	"github.com/deskflow/helpdesk/internal/repository"
	"github.com/deskflow/helpdesk/internal/repository/memory"
)

func TestCachedDepartmentsInvalidateOnUpdate(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	dept := domain.Department{Name: "Ventas", IsActive: true}
	require.NoError(t, store.Departments().Create(ctx, &dept))

	reg := prometheus.NewRegistry()
	cached := repository.NewCachedDepartments(store.Departments(), 8, time.Minute, observability.NewMetrics(reg))
	got, err := cached.GetByID(ctx, dept.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)

	// A write behind the cache's back is not observed until the entry expires.
	stale := dept
	stale.IsActive = false
	require.NoError(t, store.Departments().Update(ctx, &stale))
	got, err = cached.GetByID(ctx, dept.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)

	fresh, err := cached.Source().GetByID(ctx, dept.ID)
	require.NoError(t, err)
	assert.False(t, fresh.IsActive)
	assert.False(t, mustGet(t, repository.UncachedDepartments(cached), dept.ID).IsActive)

	require.NoError(t, cached.Update(ctx, &stale))
	got, err = cached.GetByID(ctx, dept.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	const expected = `
# HELP helpdesk_catalog_cache_lookups_total Department and reason lookups by result (hit or miss).
# TYPE helpdesk_catalog_cache_lookups_total counter
helpdesk_catalog_cache_lookups_total{kind="department",result="hit"} 1
helpdesk_catalog_cache_lookups_total{kind="department",result="miss"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "helpdesk_catalog_cache_lookups_total"))
}

func mustGet(t *testing.T, repo repository.DepartmentRepository, id int64) *domain.Department {
	t.Helper()
	dept, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	return dept
}

func TestUncachedPassesPlainRepositories(t *testing.T) {
	store := memory.NewStore()
	assert.Equal(t, store.Reasons(), repository.UncachedReasons(store.Reasons()))
	cached := repository.NewCachedReasons(store.Reasons(), 8, time.Minute, nil)
	assert.Equal(t, cached.Source(), repository.UncachedReasons(cached))
}

func TestCachedReasonsDelete(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	dept := domain.Department{Name: "Compras", IsActive: true}
	require.NoError(t, store.Departments().Create(ctx, &dept))
	reason := domain.Reason{Name: "Proveedores", DepartmentID: dept.ID}
	require.NoError(t, store.Reasons().Create(ctx, &reason))

	cached := repository.NewCachedReasons(store.Reasons(), 8, time.Minute, nil)
	_, err := cached.GetByID(ctx, reason.ID)
	require.NoError(t, err)

	require.NoError(t, cached.Delete(ctx, reason.ID))
	_, err = cached.GetByID(ctx, reason.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
