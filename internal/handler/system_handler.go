package handler

import (
	"net/http"
	"time"

	"github.com/examportal/examportal-backend/internal/config"
	"github.com/examportal/examportal-backend/internal/response"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// SystemHandler exposes liveness and dependency health.
type SystemHandler struct {
	pool      *pgxpool.Pool
	rdb       *redis.Client
	startTime time.Time
	log       zerolog.Logger
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		pool:      pool,
		rdb:       rdb,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

// Live godoc
// GET /health
// Liveness probe. Always 200 while the process accepts requests.
func (h *SystemHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Health godoc
// GET /api/v1/admin/system/health
// Checks Postgres and Redis connectivity and reports worker queue depths.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()

	dbStatus := "ok"
	if err := h.pool.Ping(ctx); err != nil {
		h.log.Error().Err(err).Msg("Postgres ping failed")
		dbStatus = "down"
	}

	redisStatus := "ok"
	var queueAnswers, queueNotify int64
	if err := h.rdb.Ping(ctx).Err(); err != nil {
		h.log.Error().Err(err).Msg("Redis ping failed")
		redisStatus = "down"
	} else {
		pipe := h.rdb.Pipeline()
		answersCmd := pipe.LLen(ctx, config.WorkerKey.PersistAnswersQueue)
		notifyCmd := pipe.LLen(ctx, config.WorkerKey.NotifyQueue)
		if _, err := pipe.Exec(ctx); err == nil {
			queueAnswers, _ = answersCmd.Result()
			queueNotify, _ = notifyCmd.Result()
		}
	}

	status := http.StatusOK
	if dbStatus != "ok" || redisStatus != "ok" {
		status = http.StatusServiceUnavailable
	}

	response.Success(c, status, gin.H{
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
		"postgres":       dbStatus,
		"redis":          redisStatus,
		"queue_answers":  queueAnswers,
		"queue_notify":   queueNotify,
	})
}
