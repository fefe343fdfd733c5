package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/examportal/examportal-backend/internal/clock"
	"github.com/examportal/examportal-backend/internal/handler"
	"github.com/examportal/examportal-backend/internal/middleware"
	"github.com/examportal/examportal-backend/internal/model"
	"github.com/examportal/examportal-backend/internal/repository/memory"
	"github.com/examportal/examportal-backend/internal/service"
	"github.com/examportal/examportal-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var portalBase = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type portalEnv struct {
	users       *memory.UserStore
	attempts    *memory.AttemptStore
	permissions *memory.PermissionStore
	attemptSvc  *service.AttemptService
	portal      *handler.PortalHandler
	clk         *clock.Mock
	examID      uuid.UUID
}

// newPortalEnv wires the portal handler over memory stores and miniredis,
// with the caller's identity injected per request instead of a real JWT.
func newPortalEnv(t *testing.T) *portalEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validator.Setup()

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

	clk := clock.NewMock(portalBase)
	log := zerolog.Nop()

	access := service.NewAccessService(users, exams, questions, permissions, results, clk)
	attemptSvc := service.NewAttemptService(permissions, attempts, results, exams, questions, access, rdb, clk, log)
	examSvc := service.NewExamService(exams, questions, rdb, log)

	exam := &model.Exam{ID: uuid.New(), Title: "Exam", DurationMinutes: 30, CreatedBy: 1}
	if err := exams.Create(context.Background(), exam); err != nil {
		t.Fatalf("create exam: %v", err)
	}
	q := &model.Question{
		ID: uuid.New(), ExamID: exam.ID, QuestionText: "q",
		OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d",
		CorrectOption: "A", Marks: 1,
	}
	if err := questions.Create(context.Background(), q); err != nil {
		t.Fatalf("create question: %v", err)
	}

	return &portalEnv{
		users:       users,
		attempts:    attempts,
		permissions: permissions,
		attemptSvc:  attemptSvc,
		portal:      handler.NewPortalHandler(access, attemptSvc, examSvc),
		clk:         clk,
		examID:      exam.ID,
	}
}

func (e *portalEnv) startAttempt(t *testing.T, username string) (int, *model.Attempt) {
	t.Helper()
	ctx := context.Background()

	u := &model.User{Username: username, Email: username + "@example.com", Role: model.RoleParticipant}
	if err := e.users.Create(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	p := &model.Permission{
		ID: uuid.New(), UserID: u.ID, ExamID: e.examID,
		StartAt: portalBase.Add(-time.Hour), EndAt: portalBase.Add(time.Hour),
	}
	if err := e.permissions.Create(ctx, p); err != nil {
		t.Fatalf("create permission: %v", err)
	}
	attempt, err := e.attemptSvc.Start(ctx, u.ID, e.examID)
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}
	return u.ID, attempt
}

// do performs a request as the given user by planting their claims the way
// the JWT middleware would.
func (e *portalEnv) do(userID int, method, path, body string) *httptest.ResponseRecorder {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.ContextKeyClaims, &service.Claims{UserID: userID, Role: model.RoleParticipant})
	})
	router.POST("/api/v1/portal/attempts/:attempt_id/submit", e.portal.Submit)
	router.GET("/api/v1/portal/attempts/:attempt_id", e.portal.State)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSubmitRefusesForeignAttemptWithoutFinalizing(t *testing.T) {
	e := newPortalEnv(t)
	ctx := context.Background()

	_, victimAttempt := e.startAttempt(t, "victim")
	attackerID, _ := e.startAttempt(t, "attacker")

	rec := e.do(attackerID, "POST", "/api/v1/portal/attempts/"+victimAttempt.ID.String()+"/submit", `{"trigger":"MANUAL"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}

	// The victim's session must still be running.
	got, err := e.attempts.GetByID(ctx, victimAttempt.ID)
	if err != nil {
		t.Fatalf("victim attempt gone after foreign submit: %v", err)
	}
	if got.Status != model.AttemptStatusInProgress {
		t.Fatalf("victim attempt no longer in progress: %s", got.Status)
	}
	perm, err := e.permissions.GetByID(ctx, victimAttempt.PermissionID)
	if err != nil {
		t.Fatalf("get permission: %v", err)
	}
	if perm.Completed {
		t.Fatalf("victim window marked completed by foreign submit")
	}
}

func TestSubmitFinalizedForeignAttemptStaysHidden(t *testing.T) {
	e := newPortalEnv(t)
	ctx := context.Background()

	victimID, victimAttempt := e.startAttempt(t, "victim")
	attackerID, _ := e.startAttempt(t, "attacker")

	if _, err := e.attemptSvc.Submit(ctx, victimAttempt.ID, model.SubmitTriggerManual); err != nil {
		t.Fatalf("victim submit: %v", err)
	}

	// The idempotent path resolves the stored result, but it never leaves
	// the handler for a different caller.
	rec := e.do(attackerID, "POST", "/api/v1/portal/attempts/"+victimAttempt.ID.String()+"/submit", `{"trigger":"MANUAL"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = e.do(victimID, "POST", "/api/v1/portal/attempts/"+victimAttempt.ID.String()+"/submit", `{"trigger":"MANUAL"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner resubmit: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestOwnerSubmitSucceeds(t *testing.T) {
	e := newPortalEnv(t)

	userID, attempt := e.startAttempt(t, "alice")

	rec := e.do(userID, "POST", "/api/v1/portal/attempts/"+attempt.ID.String()+"/submit", `{"trigger":"MANUAL"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestStateRefusesForeignAttempt(t *testing.T) {
	e := newPortalEnv(t)

	_, victimAttempt := e.startAttempt(t, "victim")
	attackerID, _ := e.startAttempt(t, "attacker")

	rec := e.do(attackerID, "GET", "/api/v1/portal/attempts/"+victimAttempt.ID.String(), "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
}
