package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deskflow/helpdesk/internal/domain"
)

// ReasonRepository manages reason persistence.
type ReasonRepository interface {
	Create(ctx context.Context, reason *domain.Reason) error
	Update(ctx context.Context, reason *domain.Reason) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Reason, error)
	// List returns all reasons, narrowed to one department when departmentID is set.
	List(ctx context.Context, departmentID *int64) ([]domain.Reason, error)
}

type reasonRepository struct {
	pool *pgxpool.Pool
}

// NewReasonRepository builds the repository.
func NewReasonRepository(pool *pgxpool.Pool) ReasonRepository {
	return &reasonRepository{pool: pool}
}

func (r *reasonRepository) Create(ctx context.Context, reason *domain.Reason) error {
	const query = `
        INSERT INTO reasons (name, name_en, description, department_id)
        VALUES ($1,$2,$3,$4)
        RETURNING id`
	err := r.pool.QueryRow(ctx, query,
		reason.Name,
		reason.NameEN,
		reason.Description,
		reason.DepartmentID,
	).Scan(&reason.ID)
	return translateWriteError(err)
}

func (r *reasonRepository) Update(ctx context.Context, reason *domain.Reason) error {
	const query = `
        UPDATE reasons SET name=$1, name_en=$2, description=$3, department_id=$4
        WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query,
		reason.Name,
		reason.NameEN,
		reason.Description,
		reason.DepartmentID,
		reason.ID,
	)
	if err != nil {
		return translateWriteError(err)
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes a reason; tickets referencing it keep existing with no reason.
func (r *reasonRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM reasons WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *reasonRepository) GetByID(ctx context.Context, id int64) (*domain.Reason, error) {
	const query = `
        SELECT id, name, name_en, description, department_id
        FROM reasons WHERE id=$1`
	var reason domain.Reason
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&reason.ID,
		&reason.Name,
		&reason.NameEN,
		&reason.Description,
		&reason.DepartmentID,
	); err != nil {
		return nil, err
	}
	return &reason, nil
}

func (r *reasonRepository) List(ctx context.Context, departmentID *int64) ([]domain.Reason, error) {
	const query = `
        SELECT id, name, name_en, description, department_id
        FROM reasons
        WHERE ($1::bigint IS NULL OR department_id = $1)
        ORDER BY department_id, name`
	rows, err := r.pool.Query(ctx, query, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Reason
	for rows.Next() {
		var reason domain.Reason
		if err := rows.Scan(&reason.ID, &reason.Name, &reason.NameEN, &reason.Description, &reason.DepartmentID); err != nil {
			return nil, err
		}
		result = append(result, reason)
	}
	return result, rows.Err()
}
