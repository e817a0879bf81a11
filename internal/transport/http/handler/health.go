package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Nikcet/ycla-ai-chat/internal/bootstrap"
)

const healthCheckTimeout = 2 * time.Second

type HealthHandler struct {
	app *bootstrap.App
}

type checkResult struct {
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

func NewHealthHandler(app *bootstrap.App) *HealthHandler {
	return &HealthHandler{app: app}
}

// Check pings every backing store. The endpoint answers 503 as soon as one
// store is unreachable so an orchestrator can rotate the instance out.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	checks := gin.H{
		"mysql":    h.result(h.pingMySQL(ctx)),
		"redis":    h.result(h.app.Redis.Ping(ctx).Err()),
		"rabbitmq": h.result(h.pingRabbitMQ()),
		"index": checkResult{
			OK:     true,
			Detail: fmt.Sprintf("%d chunks", h.app.Index.Count()),
		},
	}

	status := "ok"
	code := http.StatusOK
	for _, v := range checks {
		if result, ok := v.(checkResult); ok && !result.OK {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	c.JSON(code, gin.H{
		"status":     status,
		"service":    h.app.Config.App.Name,
		"uptime_sec": int(time.Since(h.app.StartedAt).Seconds()),
		"checks":     checks,
	})
}

func (h *HealthHandler) result(err error) checkResult {
	if err != nil {
		return checkResult{OK: false, Detail: err.Error()}
	}
	return checkResult{OK: true}
}

func (h *HealthHandler) pingMySQL(ctx context.Context) error {
	sqlDB, err := h.app.MySQL.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (h *HealthHandler) pingRabbitMQ() error {
	if h.app.MQConn == nil || h.app.MQConn.IsClosed() {
		return fmt.Errorf("connection closed")
	}
	return nil
}
