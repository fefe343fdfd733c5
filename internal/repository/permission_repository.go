package repository

import (
	"context"
	"errors"

	"github.com/examportal/examportal-backend/internal/model"
	"github.com/examportal/examportal-backend/internal/service"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PermissionRepository handles assignment window data access.
type PermissionRepository struct {
	pool *pgxpool.Pool
}

// NewPermissionRepository creates a new PermissionRepository.
func NewPermissionRepository(pool *pgxpool.Pool) *PermissionRepository {
	return &PermissionRepository{pool: pool}
}

// Create inserts a new assignment window.
func (r *PermissionRepository) Create(ctx context.Context, p *model.Permission) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO permissions (id, user_id, exam_id, start_at, end_at, completed)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at`,
		p.ID, p.UserID, p.ExamID, p.StartAt, p.EndAt, p.Completed,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

// GetByID retrieves an assignment window by id.
func (r *PermissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Permission, error) {
	p := &model.Permission{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, exam_id, start_at, end_at, completed, created_at, updated_at
		 FROM permissions WHERE id = $1`, id,
	).Scan(&p.ID, &p.UserID, &p.ExamID, &p.StartAt, &p.EndAt, &p.Completed, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// ListByUserExam retrieves all windows for a (user, exam) pair.
func (r *PermissionRepository) ListByUserExam(ctx context.Context, userID int, examID uuid.UUID) ([]model.Permission, error) {
	return r.list(ctx,
		`SELECT id, user_id, exam_id, start_at, end_at, completed, created_at, updated_at
		 FROM permissions WHERE user_id = $1 AND exam_id = $2 ORDER BY start_at ASC`,
		userID, examID)
}

// ListByUser retrieves all windows assigned to a participant.
func (r *PermissionRepository) ListByUser(ctx context.Context, userID int) ([]model.Permission, error) {
	return r.list(ctx,
		`SELECT id, user_id, exam_id, start_at, end_at, completed, created_at, updated_at
		 FROM permissions WHERE user_id = $1 ORDER BY start_at ASC`,
		userID)
}

// List retrieves every assignment window.
func (r *PermissionRepository) List(ctx context.Context) ([]model.Permission, error) {
	return r.list(ctx,
		`SELECT id, user_id, exam_id, start_at, end_at, completed, created_at, updated_at
		 FROM permissions ORDER BY start_at ASC`)
}

// Update modifies an existing window.
func (r *PermissionRepository) Update(ctx context.Context, p *model.Permission) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE permissions
		 SET start_at = $1, end_at = $2, completed = $3, updated_at = NOW()
		 WHERE id = $4`,
		p.StartAt, p.EndAt, p.Completed, p.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return service.ErrNotFound
	}
	return nil
}

// Delete removes a window.
func (r *PermissionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return service.ErrNotFound
	}
	return nil
}

// DeleteByUser removes all windows assigned to a participant.
func (r *PermissionRepository) DeleteByUser(ctx context.Context, userID int) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM permissions WHERE user_id = $1`, userID)
	return err
}

func (r *PermissionRepository) list(ctx context.Context, query string, args ...any) ([]model.Permission, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []model.Permission
	for rows.Next() {
		var p model.Permission
		if err := rows.Scan(&p.ID, &p.UserID, &p.ExamID, &p.StartAt, &p.EndAt, &p.Completed, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}
