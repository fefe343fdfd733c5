package service

import (
	"context"

	"github.com/examportal/examportal-backend/internal/model"
	"github.com/google/uuid"
)

// Store interfaces consumed by the service layer. The pgx repositories in
// internal/repository and the in-memory implementations in
// internal/repository/memory both satisfy them. Stores return ErrNotFound
// for missing rows; reads observe the latest committed writes for the
// (user, exam) pair being serialized.

// UserStore persists accounts.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id int) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ListByRole(ctx context.Context, role model.Role) ([]model.User, error)
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
	Delete(ctx context.Context, id int) error
}

// ExamStore persists exams.
type ExamStore interface {
	Create(ctx context.Context, e *model.Exam) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
	ListByCreator(ctx context.Context, creatorID int) ([]model.Exam, error)
	Update(ctx context.Context, e *model.Exam) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// QuestionStore persists exam questions.
type QuestionStore interface {
	Create(ctx context.Context, q *model.Question) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error)
	ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error)
	Update(ctx context.Context, q *model.Question) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// PermissionStore persists assignment windows.
type PermissionStore interface {
	Create(ctx context.Context, p *model.Permission) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Permission, error)
	ListByUserExam(ctx context.Context, userID int, examID uuid.UUID) ([]model.Permission, error)
	ListByUser(ctx context.Context, userID int) ([]model.Permission, error)
	List(ctx context.Context) ([]model.Permission, error)
	Update(ctx context.Context, p *model.Permission) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByUser(ctx context.Context, userID int) error
}

// AttemptStore persists in-progress attempts. Create must be conflict-safe:
// it returns ErrAttemptExists when an attempt already exists for the same
// (user, exam) pair, so concurrent starts cannot both succeed. Finalize
// atomically stores the result, marks the originating permission completed,
// and discards the attempt row; on failure the attempt stays in progress.
type AttemptStore interface {
	Create(ctx context.Context, a *model.Attempt) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error)
	GetByUserExam(ctx context.Context, userID int, examID uuid.UUID) (*model.Attempt, error)
	GetByPermission(ctx context.Context, permissionID uuid.UUID) (*model.Attempt, error)
	Finalize(ctx context.Context, attemptID uuid.UUID, status model.AttemptStatus, res *model.Result) error
}

// ResultStore reads finalized results. Results are written only through
// AttemptStore.Finalize and are immutable afterwards.
type ResultStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Result, error)
	GetByAttempt(ctx context.Context, attemptID uuid.UUID) (*model.Result, error)
	GetByPermission(ctx context.Context, permissionID uuid.UUID) (*model.Result, error)
	List(ctx context.Context) ([]model.Result, error)
	ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Result, error)
	DeleteByUser(ctx context.Context, userID int) error
}

// SettingStore persists key/value application settings.
type SettingStore interface {
	Get(ctx context.Context, key string) (string, error)
	GetAll(ctx context.Context) (map[string]string, error)
	Set(ctx context.Context, key, value string) error
}
