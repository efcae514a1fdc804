package handler

import (
	"context"
	"net/http"
	"time"

	"distribuidora/internal/infra"
	"distribuidora/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// RedisPinger is the part of the Redis client the health check uses.
type RedisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
	LLen(ctx context.Context, key string) *redis.IntCmd
}

// EstadoNotificador reports the notification gateway breaker state.
type EstadoNotificador interface {
	Estado() infra.CBState
}

// Health returns a JSON health check response.
// Checks DB and Redis connectivity; never exposes credentials or internals.
// Dead-letter queue sizes are reported so stuck reconciliations are visible.
// An open notification breaker degrades the report but keeps 200, since
// notifications are best effort.
func Health(db *gorm.DB, rdb RedisPinger, notif EstadoNotificador) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		dlq := make(map[string]int64, len(worker.Colas))
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		} else {
			for _, q := range worker.Colas {
				if n, err := worker.DLQLength(ctx, rdb, q); err == nil {
					dlq[q] = n
				}
			}
		}

		notifStatus := "disabled"
		if notif != nil {
			notifStatus = notif.Estado().String()
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"ok":             status == http.StatusOK,
			"db":             dbStatus,
			"redis":          redisStatus,
			"notificaciones": notifStatus,
			"dlq":            dlq,
		})
	}
}
