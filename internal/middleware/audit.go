package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/model"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/service"
)

// AuditMiddleware 审计中间件, 为写操作记录操作人与结果
// 配置变更本身由 AuditNotifier 记录更细的前后值, 这里只补齐其余管理动作
func AuditMiddleware(auditService *service.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if shouldSkipAudit(c.Request.Method, c.Request.URL.Path) {
			c.Next()
			return
		}

		c.Next()

		adminID := GetAdminID(c)
		username := GetUsername(c)

		// 未认证的请求不落审计
		if adminID == 0 {
			return
		}

		auditLog := &model.AuditLog{
			AdminID:       adminID,
			AdminUsername: username,
			IPAddress:     c.ClientIP(),
			UserAgent:     c.Request.UserAgent(),
			Action:        determineAction(c.Request.Method),
			ResourceType:  determineResourceType(c.Request.URL.Path),
			ResourceID:    extractResourceID(c),
			Description:   c.Request.Method + " " + c.Request.URL.Path,
			Status:        model.AuditStatusSuccess,
		}

		if len(c.Errors) > 0 {
			auditLog.Status = model.AuditStatusFailed
			auditLog.ErrorMessage = c.Errors.String()
		}
		if c.Writer.Status() >= 400 {
			auditLog.Status = model.AuditStatusFailed
		}

		// 异步写入, 不阻塞响应; 请求上下文此时可能已取消, 用独立上下文
		go func() {
			_ = auditService.Create(context.Background(), auditLog)
		}()
	}
}

// shouldSkipAudit 只审计写操作, 读请求与探活跳过
func shouldSkipAudit(method, path string) bool {
	if method == "GET" || method == "HEAD" || method == "OPTIONS" {
		return true
	}

	skipPaths := []string{
		"/health",
		"/health/ready",
		"/metrics",
		"/admin/v1/auth/login",
	}
	for _, p := range skipPaths {
		if path == p {
			return true
		}
	}
	return false
}

// determineAction 根据 HTTP 方法确定操作类型
func determineAction(method string) model.AuditAction {
	switch method {
	case "POST":
		return model.AuditActionCreate
	case "PUT", "PATCH":
		return model.AuditActionUpdate
	case "DELETE":
		return model.AuditActionDelete
	default:
		return model.AuditAction(strings.ToLower(method))
	}
}

// determineResourceType 根据路径确定资源类型
func determineResourceType(path string) model.ResourceType {
	switch {
	case strings.Contains(path, "/admins"):
		return model.ResourceTypeAdmin
	case strings.Contains(path, "/configs"):
		return model.ResourceTypeSystemConfig
	case strings.Contains(path, "/workflows"):
		return model.ResourceTypeWorkflow
	case strings.Contains(path, "/mail-rules"):
		return model.ResourceTypeMailRule
	case strings.Contains(path, "/auth"):
		return model.ResourceTypeAdmin
	default:
		return model.ResourceTypeService
	}
}

// extractResourceID 提取资源 ID
func extractResourceID(c *gin.Context) string {
	if key := c.Param("key"); key != "" {
		return key
	}
	if id := c.Param("id"); id != "" {
		return id
	}
	return ""
}
