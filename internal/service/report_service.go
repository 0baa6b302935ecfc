package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/deskflow/helpdesk/internal/config"
	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/i18n"
	"github.com/deskflow/helpdesk/internal/observability"
	"github.com/deskflow/helpdesk/internal/report"
	"github.com/deskflow/helpdesk/internal/repository"
	apperrors "github.com/deskflow/helpdesk/pkg/errorutil"
)

// ReportService aggregates ticket statistics and renders PDF reports.
type ReportService struct {
	reports repository.ReportRepository
	tickets *TicketService
	cache   report.Cache
	cfg     config.ReportConfig
	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// ReportDependencies bundles collaborators of ReportService. Cache may be nil.
type ReportDependencies struct {
	ReportRepo    repository.ReportRepository
	TicketService *TicketService
	Cache         report.Cache
	Logger        *zap.Logger
	Metrics       *observability.Metrics
	Clock         func() time.Time
}

// NewReportService builds the service.
func NewReportService(cfg config.ReportConfig, deps ReportDependencies) *ReportService {
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = 7
	}
	if cfg.TopUsers <= 0 {
		cfg.TopUsers = 10
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &ReportService{
		reports: deps.ReportRepo,
		tickets: deps.TicketService,
		cache:   deps.Cache,
		cfg:     cfg,
		logger:  logger,
		metrics: deps.Metrics,
		now:     clock,
	}
}

// Stats computes the trailing window and all-time breakdowns with labels in loc.
func (s *ReportService) Stats(ctx context.Context, user *domain.User, loc domain.Locale) (*domain.TicketStats, error) {
	if !user.IsSuperuser() {
		return nil, apperrors.NewForbidden("superuser role required")
	}
	loc = loc.OrDefault()
	now := s.now()
	windowStart := now.AddDate(0, 0, -s.cfg.WindowDays)

	window, err := s.reports.Aggregate(ctx, &windowStart, s.cfg.TopUsers)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	allTime, err := s.reports.Aggregate(ctx, nil, s.cfg.TopUsers)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &domain.TicketStats{
		GeneratedAt: now,
		WindowStart: windowStart,
		Window:      breakdown(window, loc),
		AllTime:     breakdown(allTime, loc),
	}, nil
}

// StatsPDF renders the statistics report. A non-empty idempotencyKey reuses a cached document.
func (s *ReportService) StatsPDF(ctx context.Context, user *domain.User, loc domain.Locale, idempotencyKey string) ([]byte, error) {
	if !user.IsSuperuser() {
		return nil, apperrors.NewForbidden("superuser role required")
	}
	loc = loc.OrDefault()
	key := cacheKey("stats", user.ID, 0, loc, idempotencyKey)
	return s.cached(ctx, "stats", key, func() ([]byte, error) {
		stats, err := s.Stats(ctx, user, loc)
		if err != nil {
			return nil, err
		}
		return report.RenderStats(*stats, s.cfg.WindowDays, loc)
	})
}

// TicketPDF renders the detail sheet of one ticket.
func (s *ReportService) TicketPDF(ctx context.Context, user *domain.User, ticketID int64, loc domain.Locale, idempotencyKey string) ([]byte, error) {
	if !user.IsSuperuser() {
		return nil, apperrors.NewForbidden("superuser role required")
	}
	loc = loc.OrDefault()
	key := cacheKey("ticket", user.ID, ticketID, loc, idempotencyKey)
	return s.cached(ctx, "ticket", key, func() ([]byte, error) {
		detail, err := s.tickets.GetTicket(ctx, user, ticketID)
		if err != nil {
			return nil, err
		}
		return report.RenderTicket(detail, loc, s.now())
	})
}

func (s *ReportService) cached(ctx context.Context, kind, key string, render func() ([]byte, error)) ([]byte, error) {
	useCache := s.cache != nil && key != ""
	if useCache {
		doc, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("report cache read failed", zap.String("kind", kind), zap.Error(err))
		} else if ok {
			s.metrics.RecordReport(kind, "hit")
			return doc, nil
		}
	}

	doc, err := render()
	if err != nil {
		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, apperrors.NewInternalError(fmt.Errorf("render %s report: %w", kind, err))
	}
	s.metrics.RecordReport(kind, "miss")

	if useCache {
		if err := s.cache.Set(ctx, key, doc, s.cfg.CacheTTL()); err != nil {
			s.logger.Warn("report cache write failed", zap.String("kind", kind), zap.Error(err))
		}
	}
	return doc, nil
}

func cacheKey(kind string, userID, ticketID int64, loc domain.Locale, idempotencyKey string) string {
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if idempotencyKey == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d:%s:%s", kind, userID, ticketID, loc, idempotencyKey)
}

func breakdown(agg *repository.TicketAggregate, loc domain.Locale) domain.TicketBreakdown {
	b := domain.TicketBreakdown{Total: agg.Total}
	for _, status := range domain.TicketStatuses {
		b.ByStatus = append(b.ByStatus, domain.CountEntry{Key: string(status), Label: status.Label(loc), Count: agg.ByStatus[status]})
	}
	for _, priority := range domain.TicketPriorities {
		b.ByPriority = append(b.ByPriority, domain.CountEntry{Key: string(priority), Label: priority.Label(loc), Count: agg.ByPriority[priority]})
	}
	for _, dept := range agg.ByDepartment {
		b.ByDepartment = append(b.ByDepartment, domain.CountEntry{Key: dept.Name, Label: dept.Name, Count: dept.Count})
	}
	for _, reason := range agg.ByReason {
		entry := domain.CountEntry{Label: i18n.T(loc, i18n.KeyNoReason), Count: reason.Count}
		if reason.Name != nil {
			entry.Key = *reason.Name
			entry.Label = domain.ReasonLabel(*reason.Name, reason.NameEN, loc)
		}
		b.ByReason = append(b.ByReason, entry)
	}
	for i, user := range agg.TopUsers {
		b.TopUsers = append(b.TopUsers, domain.CountEntry{Key: strconv.Itoa(i + 1), Label: user.Name, Count: user.Count})
	}
	return b
}
