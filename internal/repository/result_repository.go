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

// ResultRepository reads finalized results. Rows are written inside
// AttemptRepository.Finalize and never updated afterwards.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// GetByID retrieves a result by id.
func (r *ResultRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Result, error) {
	return r.scanOne(r.pool.QueryRow(ctx, selectResult+` WHERE id = $1`, id))
}

// GetByAttempt retrieves the result produced by an attempt.
func (r *ResultRepository) GetByAttempt(ctx context.Context, attemptID uuid.UUID) (*model.Result, error) {
	return r.scanOne(r.pool.QueryRow(ctx, selectResult+` WHERE attempt_id = $1`, attemptID))
}

// GetByPermission retrieves the result produced against a window.
func (r *ResultRepository) GetByPermission(ctx context.Context, permissionID uuid.UUID) (*model.Result, error) {
	return r.scanOne(r.pool.QueryRow(ctx, selectResult+` WHERE permission_id = $1`, permissionID))
}

// List retrieves every result, newest first.
func (r *ResultRepository) List(ctx context.Context) ([]model.Result, error) {
	return r.list(ctx, selectResult+` ORDER BY submitted_at DESC`)
}

// ListByExam retrieves all results of one exam, newest first.
func (r *ResultRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Result, error) {
	return r.list(ctx, selectResult+` WHERE exam_id = $1 ORDER BY submitted_at DESC`, examID)
}

// DeleteByUser removes every result of a participant.
func (r *ResultRepository) DeleteByUser(ctx context.Context, userID int) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM results WHERE user_id = $1`, userID)
	return err
}

const selectResult = `SELECT id, attempt_id, permission_id, user_id, exam_id, raw_score, total_marks, percentage, answers, trigger, submitted_at
	FROM results`

func (r *ResultRepository) list(ctx context.Context, query string, args ...any) ([]model.Result, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.Result
	for rows.Next() {
		var res model.Result
		if err := rows.Scan(&res.ID, &res.AttemptID, &res.PermissionID, &res.UserID, &res.ExamID,
			&res.RawScore, &res.TotalMarks, &res.Percentage, &res.Answers, &res.Trigger, &res.SubmittedAt); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

func (r *ResultRepository) scanOne(row pgx.Row) (*model.Result, error) {
	res := &model.Result{}
	err := row.Scan(&res.ID, &res.AttemptID, &res.PermissionID, &res.UserID, &res.ExamID,
		&res.RawScore, &res.TotalMarks, &res.Percentage, &res.Answers, &res.Trigger, &res.SubmittedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrNotFound
		}
		return nil, err
	}
	return res, nil
}
