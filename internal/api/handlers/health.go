package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"channel-chat/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/process"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	hub     *websocket.Hub
	db      Pinger
	started time.Time
}

// NewHealthHandler builds the liveness handler. db may be nil.
func NewHealthHandler(hub *websocket.Hub, db Pinger) *HealthHandler {
	return &HealthHandler{hub: hub, db: db, started: time.Now()}
}

type processStats struct {
	CPUPercent    float64 `json:"cpuPercent"`
	MemoryPercent float32 `json:"memoryPercent"`
	Threads       int32   `json:"threads"`
}

// Healthcheck godoc
// @Summary Liveness
// @Description Service status with live connection counters
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{} "Service is up"
// @Failure 503 {object} map[string]interface{} "Database unreachable"
// @Router /healthcheck [get]
func (h *HealthHandler) Healthcheck(c *gin.Context) {
	status, code := "ok", http.StatusOK
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			slog.Warn("Database ping failed", "error", err)
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}

	c.JSON(code, gin.H{
		"status":  status,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
		"hub":     h.hub.Stats(),
		"process": currentProcess(),
	})
}

func currentProcess() *processStats {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		slog.Debug("Error while retrieving process", "error", err)
		return nil
	}
	stats := &processStats{}
	if cpu, err := p.CPUPercent(); err == nil {
		stats.CPUPercent = cpu
	}
	if mem, err := p.MemoryPercent(); err == nil {
		stats.MemoryPercent = mem
	}
	if threads, err := p.NumThreads(); err == nil {
		stats.Threads = threads
	}
	return stats
}
