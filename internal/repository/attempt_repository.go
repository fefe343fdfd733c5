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

// AttemptRepository handles in-progress attempt data access.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// Create inserts a new attempt. The unique index on (user_id, exam_id)
// guards the one-attempt-per-pair rule (finalized attempts are deleted, so
// only a live attempt can occupy the pair); a racing insert comes back as
// ErrAttemptExists instead of a duplicate row.
func (r *AttemptRepository) Create(ctx context.Context, a *model.Attempt) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO attempts (id, permission_id, user_id, exam_id, started_at, deadline, status, answers)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_id, exam_id) DO NOTHING
		 RETURNING id`,
		a.ID, a.PermissionID, a.UserID, a.ExamID, a.StartedAt, a.Deadline, a.Status, a.Answers,
	).Scan(&a.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return service.ErrAttemptExists
	}
	return err
}

// GetByID retrieves an attempt by id.
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	return r.scanOne(r.pool.QueryRow(ctx,
		`SELECT id, permission_id, user_id, exam_id, started_at, deadline, status, answers
		 FROM attempts WHERE id = $1`, id))
}

// GetByUserExam retrieves the attempt for a (user, exam) pair.
func (r *AttemptRepository) GetByUserExam(ctx context.Context, userID int, examID uuid.UUID) (*model.Attempt, error) {
	return r.scanOne(r.pool.QueryRow(ctx,
		`SELECT id, permission_id, user_id, exam_id, started_at, deadline, status, answers
		 FROM attempts WHERE user_id = $1 AND exam_id = $2`, userID, examID))
}

// GetByPermission retrieves the attempt started against a window.
func (r *AttemptRepository) GetByPermission(ctx context.Context, permissionID uuid.UUID) (*model.Attempt, error) {
	return r.scanOne(r.pool.QueryRow(ctx,
		`SELECT id, permission_id, user_id, exam_id, started_at, deadline, status, answers
		 FROM attempts WHERE permission_id = $1`, permissionID))
}

// UpdateAnswers replaces the persisted answer snapshot of an attempt.
func (r *AttemptRepository) UpdateAnswers(ctx context.Context, id uuid.UUID, answers map[string]string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE attempts SET answers = $1 WHERE id = $2`, answers, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return service.ErrNotFound
	}
	return nil
}

// Finalize stores the result, marks the window completed, and discards the
// attempt in a single transaction. If any step fails the attempt is left in
// progress and a retry sees it untouched.
func (r *AttemptRepository) Finalize(ctx context.Context, attemptID uuid.UUID, status model.AttemptStatus, res *model.Result) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO results (id, attempt_id, permission_id, user_id, exam_id, raw_score, total_marks, percentage, answers, trigger, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id`,
		res.ID, res.AttemptID, res.PermissionID, res.UserID, res.ExamID,
		res.RawScore, res.TotalMarks, res.Percentage, res.Answers, res.Trigger, res.SubmittedAt,
	).Scan(&res.ID)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx,
		`UPDATE permissions SET completed = TRUE, updated_at = NOW() WHERE id = $1`, res.PermissionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return service.ErrNotFound
	}

	tag, err = tx.Exec(ctx, `DELETE FROM attempts WHERE id = $1`, attemptID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return service.ErrNotFound
	}

	return tx.Commit(ctx)
}

func (r *AttemptRepository) scanOne(row pgx.Row) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := row.Scan(&a.ID, &a.PermissionID, &a.UserID, &a.ExamID, &a.StartedAt, &a.Deadline, &a.Status, &a.Answers)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}
