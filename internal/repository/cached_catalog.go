package repository

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/observability"
)

// CachedDepartments serves GetByID from an expiring LRU and invalidates on writes.
// Writes made by other processes are only observed once an entry expires, so
// code that enforces invariants reads through Source instead.
type CachedDepartments struct {
	DepartmentRepository
	cache   *expirable.LRU[int64, domain.Department]
	metrics *observability.Metrics
}

// NewCachedDepartments wraps next with a cache of maxSize entries living for ttl.
func NewCachedDepartments(next DepartmentRepository, maxSize int, ttl time.Duration, metrics *observability.Metrics) *CachedDepartments {
	return &CachedDepartments{
		DepartmentRepository: next,
		cache:                expirable.NewLRU[int64, domain.Department](maxSize, nil, ttl),
		metrics:              metrics,
	}
}

// Source returns the uncached repository.
func (c *CachedDepartments) Source() DepartmentRepository {
	return c.DepartmentRepository
}

func (c *CachedDepartments) GetByID(ctx context.Context, id int64) (*domain.Department, error) {
	if dept, ok := c.cache.Get(id); ok {
		c.metrics.RecordCacheLookup("department", true)
		return &dept, nil
	}
	c.metrics.RecordCacheLookup("department", false)
	dept, err := c.DepartmentRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.Add(id, *dept)
	return dept, nil
}

func (c *CachedDepartments) Update(ctx context.Context, dept *domain.Department) error {
	c.cache.Remove(dept.ID)
	return c.DepartmentRepository.Update(ctx, dept)
}

// CachedReasons serves GetByID from an expiring LRU and invalidates on writes.
type CachedReasons struct {
	ReasonRepository
	cache   *expirable.LRU[int64, domain.Reason]
	metrics *observability.Metrics
}

// NewCachedReasons wraps next with a cache of maxSize entries living for ttl.
func NewCachedReasons(next ReasonRepository, maxSize int, ttl time.Duration, metrics *observability.Metrics) *CachedReasons {
	return &CachedReasons{
		ReasonRepository: next,
		cache:            expirable.NewLRU[int64, domain.Reason](maxSize, nil, ttl),
		metrics:          metrics,
	}
}

// Source returns the uncached repository.
func (c *CachedReasons) Source() ReasonRepository {
	return c.ReasonRepository
}

func (c *CachedReasons) GetByID(ctx context.Context, id int64) (*domain.Reason, error) {
	if reason, ok := c.cache.Get(id); ok {
		c.metrics.RecordCacheLookup("reason", true)
		return &reason, nil
	}
	c.metrics.RecordCacheLookup("reason", false)
	reason, err := c.ReasonRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.Add(id, *reason)
	return reason, nil
}

func (c *CachedReasons) Update(ctx context.Context, reason *domain.Reason) error {
	c.cache.Remove(reason.ID)
	return c.ReasonRepository.Update(ctx, reason)
}

func (c *CachedReasons) Delete(ctx context.Context, id int64) error {
	c.cache.Remove(id)
	return c.ReasonRepository.Delete(ctx, id)
}

// UncachedDepartments strips a caching decorator from repo.
func UncachedDepartments(repo DepartmentRepository) DepartmentRepository {
	if cached, ok := repo.(*CachedDepartments); ok {
		return cached.Source()
	}
	return repo
}

// UncachedReasons strips a caching decorator from repo.
func UncachedReasons(repo ReasonRepository) ReasonRepository {
	if cached, ok := repo.(*CachedReasons); ok {
		return cached.Source()
	}
	return repo
}
