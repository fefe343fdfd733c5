package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/examportal/examportal-backend/internal/config"
	"github.com/examportal/examportal-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// NotifierWorker consumes the notify queue and delivers email for
// assignment, completion, and credential events. SMTP configuration lives
// in the settings table so admins can change it without a restart.
type NotifierWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger

	// send is swappable in tests.
	send func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

// NewNotifierWorker creates a new NotifierWorker.
func NewNotifierWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *NotifierWorker {
	return &NotifierWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "notifier_worker").Logger(),
		send: smtp.SendMail,
	}
}

type eventPayload struct {
	Type       string            `json:"type"`
	OccurredAt time.Time         `json:"occurred_at"`
	UserID     int               `json:"user_id,omitempty"`
	ExamID     string            `json:"exam_id,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *NotifierWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *NotifierWorker) processNext(ctx context.Context) {
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.NotifyQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	var ev eventPayload
	if err := json.Unmarshal([]byte(result[1]), &ev); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return
	}

	// Delivery is best effort: a failed notification is logged and dropped,
	// never requeued, so a bad SMTP config cannot wedge the queue.
	if err := w.deliver(ctx, &ev); err != nil {
		w.log.Error().Err(err).
			Str("type", ev.Type).
			Int("user_id", ev.UserID).
			Msg("Notification delivery failed")
	}
}

func (w *NotifierWorker) deliver(ctx context.Context, ev *eventPayload) error {
	to := ev.Fields["email"]
	if to == "" {
		if err := w.pool.QueryRow(ctx,
			`SELECT email FROM users WHERE id = $1`, ev.UserID).Scan(&to); err != nil {
			return fmt.Errorf("resolve recipient: %w", err)
		}
	}

	subject, body := w.compose(ev)
	if subject == "" {
		w.log.Warn().Str("type", ev.Type).Msg("Unknown event type, dropping")
		return nil
	}

	return w.sendMail(ctx, to, subject, body)
}

func (w *NotifierWorker) compose(ev *eventPayload) (subject, body string) {
	switch ev.Type {
	case "USER_CREDENTIALS":
		subject = "Your exam portal account"
		body = fmt.Sprintf(
			"Hello %s,\n\nAn account has been created for you.\n\nUsername: %s\nPassword: %s\n\nPlease change your password after your first login.\n",
			ev.Fields["username"], ev.Fields["username"], ev.Fields["password"])
	case "ASSIGNMENT_CREATED":
		subject = fmt.Sprintf("New exam scheduled: %s", ev.Fields["exam_title"])
		body = fmt.Sprintf(
			"Hello %s,\n\nYou have been scheduled for the exam %q.\n\nOpens:  %s\nCloses: %s\n\nThe exam becomes available on your dashboard when the window opens.\n",
			ev.Fields["username"], ev.Fields["exam_title"], ev.Fields["start_at"], ev.Fields["end_at"])
	case "EXAM_COMPLETED":
		subject = "Your exam has been submitted"
		body = fmt.Sprintf(
			"Hello,\n\nYour exam submission was recorded.\n\nScore: %s / %s (%s%%)\n",
			ev.Fields["raw_score"], ev.Fields["total_marks"], ev.Fields["percentage"])
	}
	return subject, body
}

func (w *NotifierWorker) sendMail(ctx context.Context, to, subject, body string) error {
	cfg, err := w.mailSettings(ctx)
	if err != nil {
		return err
	}
	if cfg[model.SettingMailServer] == "" {
		return fmt.Errorf("mail server not configured")
	}

	from := cfg[model.SettingMailDefaultSender]
	if from == "" {
		from = cfg[model.SettingMailUsername]
	}
	addr := cfg[model.SettingMailServer] + ":" + cfg[model.SettingMailPort]

	var auth smtp.Auth
	if cfg[model.SettingMailUsername] != "" {
		auth = smtp.PlainAuth("", cfg[model.SettingMailUsername], cfg[model.SettingMailPassword], cfg[model.SettingMailServer])
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	return w.send(addr, auth, from, []string{to}, []byte(msg.String()))
}

func (w *NotifierWorker) mailSettings(ctx context.Context) (map[string]string, error) {
	rows, err := w.pool.Query(ctx,
		`SELECT key, value FROM settings WHERE key = ANY($1)`,
		[]string{
			model.SettingMailServer,
			model.SettingMailPort,
			model.SettingMailUsername,
			model.SettingMailPassword,
			model.SettingMailDefaultSender,
		})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cfg := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		cfg[k] = v
	}
	return cfg, rows.Err()
}
