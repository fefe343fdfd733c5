package service_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/examportal/examportal-backend/internal/clock"
	"github.com/examportal/examportal-backend/internal/config"
	"github.com/examportal/examportal-backend/internal/model"
	"github.com/examportal/examportal-backend/internal/repository/memory"
	"github.com/examportal/examportal-backend/internal/service"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// baseTime is the frozen instant every test environment starts at.
var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type env struct {
	users       *memory.UserStore
	exams       *memory.ExamStore
	questions   *memory.QuestionStore
	permissions *memory.PermissionStore
	attempts    *memory.AttemptStore
	results     *memory.ResultStore
	rdb         *redis.Client
	clk         *clock.Mock

	auth        *service.AuthService
	access      *service.AccessService
	attemptSvc  *service.AttemptService
	assignments *service.AssignmentService
	userSvc     *service.UserService
	examSvc     *service.ExamService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	users := memory.NewUserStore()
	exams := memory.NewExamStore()
	questions := memory.NewQuestionStore()
	permissions := memory.NewPermissionStore()
	results := memory.NewResultStore()
	attempts := memory.NewAttemptStore(permissions, results)

	clk := clock.NewMock(baseTime)
	log := zerolog.Nop()
	cfg := &config.Config{
		JWTSecret:  "test-secret",
		JWTExpiry:  time.Hour,
		BcryptCost: bcrypt.MinCost,
	}

	auth := service.NewAuthService(cfg, users)
	access := service.NewAccessService(users, exams, questions, permissions, results, clk)
	attemptSvc := service.NewAttemptService(permissions, attempts, results, exams, questions, access, rdb, clk, log)
	assignments := service.NewAssignmentService(users, exams, permissions, attempts, rdb, clk, log)
	userSvc := service.NewUserService(users, permissions, results, auth, rdb, clk, log)
	examSvc := service.NewExamService(exams, questions, rdb, log)

	return &env{
		users:       users,
		exams:       exams,
		questions:   questions,
		permissions: permissions,
		attempts:    attempts,
		results:     results,
		rdb:         rdb,
		clk:         clk,
		auth:        auth,
		access:      access,
		attemptSvc:  attemptSvc,
		assignments: assignments,
		userSvc:     userSvc,
		examSvc:     examSvc,
	}
}

func (e *env) createParticipant(t *testing.T, username string) *model.User {
	t.Helper()
	u := &model.User{
		Username: username,
		Email:    username + "@example.com",
		Role:     model.RoleParticipant,
	}
	if err := e.users.Create(context.Background(), u); err != nil {
		t.Fatalf("create participant: %v", err)
	}
	return u
}

func (e *env) createAdmin(t *testing.T, username string) *model.User {
	t.Helper()
	u := &model.User{
		Username: username,
		Email:    username + "@example.com",
		Role:     model.RoleAdmin,
	}
	if err := e.users.Create(context.Background(), u); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	return u
}

// createExam creates an exam with the given duration and a set of questions
// whose correct option is always "A", each worth the given marks.
func (e *env) createExam(t *testing.T, creatorID int, durationMinutes int, marks ...int) (*model.Exam, []model.Question) {
	t.Helper()
	exam := &model.Exam{
		ID:              uuid.New(),
		Title:           "Test Exam",
		DurationMinutes: durationMinutes,
		CreatedBy:       creatorID,
	}
	if err := e.exams.Create(context.Background(), exam); err != nil {
		t.Fatalf("create exam: %v", err)
	}

	questions := make([]model.Question, len(marks))
	for i, m := range marks {
		q := model.Question{
			ID:            uuid.New(),
			ExamID:        exam.ID,
			QuestionText:  "Question",
			OptionA:       "right",
			OptionB:       "wrong",
			OptionC:       "wrong",
			OptionD:       "wrong",
			CorrectOption: "A",
			Marks:         m,
		}
		if err := e.questions.Create(context.Background(), &q); err != nil {
			t.Fatalf("create question: %v", err)
		}
		questions[i] = q
	}
	return exam, questions
}

// assign creates a raw window directly in the store, bypassing the
// assignment service's validation.
func (e *env) assign(t *testing.T, userID int, examID uuid.UUID, start, end time.Time) *model.Permission {
	t.Helper()
	p := &model.Permission{
		ID:      uuid.New(),
		UserID:  userID,
		ExamID:  examID,
		StartAt: start,
		EndAt:   end,
	}
	if err := e.permissions.Create(context.Background(), p); err != nil {
		t.Fatalf("create permission: %v", err)
	}
	return p
}
