package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deskflow/helpdesk/internal/domain"
)

// TicketFilter captures listing parameters. A zero Limit means no limit.
type TicketFilter struct {
	CreatorID    *int64
	DepartmentID *int64
	Statuses     []domain.TicketStatus
	Priorities   []domain.TicketPriority
	SearchTerm   *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.TicketDetail, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.TicketDetail, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketDetailSelect = `
        SELECT t.id, t.creator_id, t.department_id, t.reason_id, t.subject, t.body, t.priority, t.status,
               t.created_at, t.updated_at, t.closed_at, t.resolution_text, t.resolution_images,
               u.username, u.first_name, u.last_name, u.email, d.name, r.name, r.name_en
        FROM tickets t
        JOIN users u ON u.id = t.creator_id
        JOIN departments d ON d.id = t.department_id
        LEFT JOIN reasons r ON r.id = t.reason_id`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (creator_id, department_id, reason_id, subject, body, priority, status, resolution_text, resolution_images)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.CreatorID,
		ticket.DepartmentID,
		ticket.ReasonID,
		ticket.Subject,
		ticket.Body,
		ticket.Priority,
		ticket.Status,
		ticket.ResolutionText,
		imagesOrEmpty(ticket.ResolutionImages),
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
	return translateWriteError(err)
}

// Update persists the mutable fields. creator_id and created_at are never written.
func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET department_id=$1, reason_id=$2, subject=$3, body=$4, priority=$5, status=$6,
            closed_at=$7, resolution_text=$8, resolution_images=$9, updated_at=NOW()
        WHERE id=$10
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.DepartmentID,
		ticket.ReasonID,
		ticket.Subject,
		ticket.Body,
		ticket.Priority,
		ticket.Status,
		ticket.ClosedAt,
		ticket.ResolutionText,
		imagesOrEmpty(ticket.ResolutionImages),
		ticket.ID,
	).Scan(&ticket.UpdatedAt)
	return err
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.TicketDetail, error) {
	return scanTicketDetail(r.pool.QueryRow(ctx, ticketDetailSelect+` WHERE t.id=$1`, id))
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.TicketDetail, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CreatorID != nil {
		args = append(args, *filter.CreatorID)
		clauses = append(clauses, fmt.Sprintf("t.creator_id=$%d", len(args)))
	}
	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		clauses = append(clauses, fmt.Sprintf("t.department_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("t.status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("t.priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("t.created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("t.created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(t.subject) LIKE %s OR LOWER(t.body) LIKE %s)", placeholder, placeholder))
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY t.created_at DESC, t.id DESC`,
		ticketDetailSelect, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketDetail
	for rows.Next() {
		detail, err := scanTicketDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *detail)
	}
	return result, rows.Err()
}

func scanTicketDetail(row pgx.Row) (*domain.TicketDetail, error) {
	var (
		detail  domain.TicketDetail
		creator domain.User
		images  []string
	)
	if err := row.Scan(
		&detail.ID,
		&detail.CreatorID,
		&detail.DepartmentID,
		&detail.ReasonID,
		&detail.Subject,
		&detail.Body,
		&detail.Priority,
		&detail.Status,
		&detail.CreatedAt,
		&detail.UpdatedAt,
		&detail.ClosedAt,
		&detail.ResolutionText,
		&images,
		&creator.Username,
		&creator.FirstName,
		&creator.LastName,
		&creator.Email,
		&detail.DepartmentName,
		&detail.ReasonName,
		&detail.ReasonNameEN,
	); err != nil {
		return nil, err
	}
	detail.ResolutionImages = images
	detail.CreatorName = creator.DisplayName()
	detail.CreatorEmail = creator.Email
	return &detail, nil
}

func imagesOrEmpty(images []string) []string {
	if images == nil {
		return []string{}
	}
	return images
}
