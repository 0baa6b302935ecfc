package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deskflow/helpdesk/internal/domain"
)

// NamedCount is a labelled count.
type NamedCount struct {
	Name  string
	Count int64
}

// ReasonCount counts tickets per reason. A nil Name groups tickets without a reason.
type ReasonCount struct {
	Name   *string
	NameEN *string
	Count  int64
}

// TicketAggregate is the raw breakdown of tickets created since a point in time.
type TicketAggregate struct {
	Total        int64
	ByStatus     map[domain.TicketStatus]int64
	ByPriority   map[domain.TicketPriority]int64
	ByDepartment []NamedCount
	ByReason     []ReasonCount
	TopUsers     []NamedCount
}

// ReportRepository computes read-only aggregates for reports.
type ReportRepository interface {
	// Aggregate counts tickets created at or after since; a nil since covers all time.
	Aggregate(ctx context.Context, since *time.Time, topUsers int) (*TicketAggregate, error)
}

type reportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository builds the repository.
func NewReportRepository(pool *pgxpool.Pool) ReportRepository {
	return &reportRepository{pool: pool}
}

const sinceClause = `($1::timestamptz IS NULL OR t.created_at >= $1)`

func (r *reportRepository) Aggregate(ctx context.Context, since *time.Time, topUsers int) (*TicketAggregate, error) {
	agg := &TicketAggregate{
		ByStatus:   map[domain.TicketStatus]int64{},
		ByPriority: map[domain.TicketPriority]int64{},
	}

	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets t WHERE `+sinceClause, since).Scan(&agg.Total); err != nil {
		return nil, err
	}

	if err := r.groupCounts(ctx, `SELECT t.status, COUNT(*) FROM tickets t WHERE `+sinceClause+` GROUP BY t.status`, since,
		func(key string, n int64) { agg.ByStatus[domain.TicketStatus(key)] = n }); err != nil {
		return nil, err
	}
	if err := r.groupCounts(ctx, `SELECT t.priority, COUNT(*) FROM tickets t WHERE `+sinceClause+` GROUP BY t.priority`, since,
		func(key string, n int64) { agg.ByPriority[domain.TicketPriority(key)] = n }); err != nil {
		return nil, err
	}
	if err := r.groupCounts(ctx, `
        SELECT d.name, COUNT(*) FROM tickets t JOIN departments d ON d.id = t.department_id
        WHERE `+sinceClause+` GROUP BY d.name ORDER BY COUNT(*) DESC, d.name`, since,
		func(key string, n int64) { agg.ByDepartment = append(agg.ByDepartment, NamedCount{Name: key, Count: n}) }); err != nil {
		return nil, err
	}

	reasons, err := r.reasonCounts(ctx, since)
	if err != nil {
		return nil, err
	}
	agg.ByReason = reasons

	users, err := r.topUsers(ctx, since, topUsers)
	if err != nil {
		return nil, err
	}
	agg.TopUsers = users
	return agg, nil
}

func (r *reportRepository) groupCounts(ctx context.Context, query string, since *time.Time, add func(string, int64)) error {
	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			key string
			n   int64
		)
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		add(key, n)
	}
	return rows.Err()
}

func (r *reportRepository) reasonCounts(ctx context.Context, since *time.Time) ([]ReasonCount, error) {
	query := `
        SELECT r.name, r.name_en, COUNT(*) FROM tickets t LEFT JOIN reasons r ON r.id = t.reason_id
        WHERE ` + sinceClause + `
        GROUP BY r.id, r.name, r.name_en ORDER BY COUNT(*) DESC, r.name NULLS LAST`
	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ReasonCount
	for rows.Next() {
		var rc ReasonCount
		if err := rows.Scan(&rc.Name, &rc.NameEN, &rc.Count); err != nil {
			return nil, err
		}
		result = append(result, rc)
	}
	return result, rows.Err()
}

func (r *reportRepository) topUsers(ctx context.Context, since *time.Time, limit int) ([]NamedCount, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
        SELECT u.username, u.first_name, u.last_name, COUNT(*) FROM tickets t JOIN users u ON u.id = t.creator_id
        WHERE ` + sinceClause + `
        GROUP BY u.id, u.username, u.first_name, u.last_name
        ORDER BY COUNT(*) DESC, u.username
        LIMIT $2`
	rows, err := r.pool.Query(ctx, query, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []NamedCount
	for rows.Next() {
		var (
			u domain.User
			n int64
		)
		if err := rows.Scan(&u.Username, &u.FirstName, &u.LastName, &n); err != nil {
			return nil, err
		}
		result = append(result, NamedCount{Name: u.DisplayName(), Count: n})
	}
	return result, rows.Err()
}
