package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/client"
)

// readyCheckTimeout 单项就绪检查的超时
const readyCheckTimeout = 3 * time.Second

// ComponentStatus 就绪检查的单项结果
type ComponentStatus struct {
	Component string `json:"component"`
	Healthy   bool   `json:"healthy"`
	LatencyMs int    `json:"latency_ms,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HealthHandler 健康检查处理器
type HealthHandler struct {
	db          *gorm.DB
	redisClient redis.UniversalClient
	clients     *client.Manager
}

// NewHealthHandler 创建健康检查处理器, redisClient 与 clients 可为空
func NewHealthHandler(db *gorm.DB, redisClient redis.UniversalClient, clients *client.Manager) *HealthHandler {
	return &HealthHandler{
		db:          db,
		redisClient: redisClient,
		clients:     clients,
	}
}

// Live 存活探针
// @Summary 存活探针
// @Tags 健康检查
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "doc-admin",
	})
}

// Ready 就绪探针, 逐项检查数据库、Redis 与下游服务
// @Summary 就绪探针
// @Tags 健康检查
// @Success 200 {object} map[string]any
// @Failure 503 {object} map[string]any
// @Router /health/ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx := c.Request.Context()

	components := []*ComponentStatus{
		h.checkDatabase(ctx),
	}
	if h.redisClient != nil {
		components = append(components, h.checkRedis(ctx))
	}
	if h.clients != nil {
		if ec := h.clients.Extraction(); ec.Configured() {
			components = append(components, h.checkService(ctx, ec.ServiceClient))
		}
		if mc := h.clients.Mapping(); mc.Configured() {
			components = append(components, h.checkService(ctx, mc.ServiceClient))
		}
	}

	ready := true
	for _, comp := range components {
		if !comp.Healthy {
			ready = false
			break
		}
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"ready":      ready,
		"components": components,
	})
}

// checkDatabase 检查数据库连接
func (h *HealthHandler) checkDatabase(ctx context.Context) *ComponentStatus {
	start := time.Now()
	status := &ComponentStatus{Component: "postgres"}

	sqlDB, err := h.db.DB()
	if err != nil {
		status.Error = err.Error()
		return status
	}

	pingCtx, cancel := context.WithTimeout(ctx, readyCheckTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		status.Error = err.Error()
		return status
	}

	status.Healthy = true
	status.LatencyMs = int(time.Since(start).Milliseconds())
	return status
}

// checkRedis 检查 Redis 连接
func (h *HealthHandler) checkRedis(ctx context.Context) *ComponentStatus {
	start := time.Now()
	status := &ComponentStatus{Component: "redis"}

	pingCtx, cancel := context.WithTimeout(ctx, readyCheckTimeout)
	defer cancel()
	if err := h.redisClient.Ping(pingCtx).Err(); err != nil {
		status.Error = err.Error()
		return status
	}

	status.Healthy = true
	status.LatencyMs = int(time.Since(start).Milliseconds())
	return status
}

// checkService 检查下游服务的健康端点
func (h *HealthHandler) checkService(ctx context.Context, sc *client.ServiceClient) *ComponentStatus {
	start := time.Now()
	status := &ComponentStatus{Component: sc.Name()}

	checkCtx, cancel := context.WithTimeout(ctx, readyCheckTimeout)
	defer cancel()
	if err := sc.Health(checkCtx); err != nil {
		status.Error = err.Error()
		return status
	}

	status.Healthy = true
	status.LatencyMs = int(time.Since(start).Milliseconds())
	return status
}
