package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/handler"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/middleware"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/model"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/service"
)

// Handlers 所有处理器
type Handlers struct {
	Auth     *handler.AuthHandler
	Admin    *handler.AdminHandler
	Config   *handler.ConfigHandler
	Workflow *handler.WorkflowHandler
	MailRule *handler.MailRuleHandler
	Audit    *handler.AuditHandler
	Health   *handler.HealthHandler
}

// SetupRouter 设置路由
func SetupRouter(r *gin.Engine, h *Handlers, authMiddleware *middleware.AuthMiddleware, auditService *service.AuditService) {
	// 健康检查与指标
	r.GET("/health", h.Health.Live)
	r.GET("/health/ready", h.Health.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1
	v1 := r.Group("/admin/v1")
	{
		// 认证相关 (无需登录)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
		}

		// 需要登录的接口
		authenticated := v1.Group("")
		authenticated.Use(authMiddleware.Required())
		authenticated.Use(middleware.AuditMiddleware(auditService))
		{
			// 认证相关 (需要登录)
			authGroup := authenticated.Group("/auth")
			{
				authGroup.POST("/refresh", h.Auth.Refresh)
				authGroup.POST("/logout", h.Auth.Logout)
				authGroup.PUT("/password", h.Auth.ChangePassword)
				authGroup.GET("/profile", h.Auth.GetProfile)
			}

			// 管理员管理 (需要 admin:read/admin:write 权限)
			admins := authenticated.Group("/admins")
			{
				admins.GET("", middleware.RequirePermission(model.PermAdminRead), h.Admin.List)
				admins.GET("/:id", middleware.RequirePermission(model.PermAdminRead), h.Admin.Get)
				admins.POST("", middleware.RequirePermission(model.PermAdminWrite), h.Admin.Create)
				admins.PUT("/:id", middleware.RequirePermission(model.PermAdminWrite), h.Admin.Update)
				admins.PUT("/:id/status", middleware.RequirePermission(model.PermAdminWrite), h.Admin.UpdateStatus)
				admins.PUT("/:id/password", middleware.RequirePermission(model.PermAdminWrite), h.Admin.ResetPassword)
			}

			// 配置中心 (需要 config:read/config:write 权限, 密钥轮换需要 system:admin)
			configs := authenticated.Group("/configs")
			{
				configs.GET("", middleware.RequirePermission(model.PermConfigRead), h.Config.List)
				configs.GET("/versions", middleware.RequirePermission(model.PermConfigRead), h.Config.GetVersions)
				configs.GET("/:key", middleware.RequirePermission(model.PermConfigRead), h.Config.Get)
				configs.GET("/:key/history", middleware.RequirePermission(model.PermConfigRead), h.Config.History)
				configs.GET("/:key/history/verify", middleware.RequirePermission(model.PermConfigRead), h.Config.VerifyHistory)
				configs.PUT("/:key", middleware.RequirePermission(model.PermConfigWrite), h.Config.Update)
				configs.POST("/:key/rollback", middleware.RequirePermission(model.PermConfigWrite), h.Config.Rollback)
				configs.POST("/:key/reset", middleware.RequirePermission(model.PermConfigWrite), h.Config.Reset)
				configs.POST("/reload", middleware.RequirePermission(model.PermConfigWrite), h.Config.Reload)
				configs.POST("/rotate-key", middleware.RequirePermission(model.PermSystemAdmin), h.Config.RotateKey)
			}

			// 工作流看板 (需要 workflow:read/workflow:write 权限)
			workflows := authenticated.Group("/workflows")
			{
				workflows.GET("", middleware.RequirePermission(model.PermWorkflowRead), h.Workflow.List)
				workflows.GET("/stats", middleware.RequirePermission(model.PermWorkflowRead), h.Workflow.Stats)
				workflows.GET("/pipeline", middleware.RequirePermission(model.PermWorkflowRead), h.Workflow.Pipeline)
				workflows.GET("/:id", middleware.RequirePermission(model.PermWorkflowRead), h.Workflow.Get)
				workflows.POST("/:id/retry", middleware.RequirePermission(model.PermWorkflowWrite), h.Workflow.Retry)
				workflows.POST("/:id/review", middleware.RequirePermission(model.PermWorkflowWrite), h.Workflow.Review)
			}

			// 邮箱监控规则 (需要 rule:read/rule:write 权限)
			rules := authenticated.Group("/mail-rules")
			{
				rules.GET("", middleware.RequirePermission(model.PermRuleRead), h.MailRule.List)
				rules.GET("/sync", middleware.RequirePermission(model.PermRuleRead), h.MailRule.Sync)
				rules.GET("/:id", middleware.RequirePermission(model.PermRuleRead), h.MailRule.Get)
				rules.POST("", middleware.RequirePermission(model.PermRuleWrite), h.MailRule.Create)
				rules.PUT("/:id", middleware.RequirePermission(model.PermRuleWrite), h.MailRule.Update)
				rules.PUT("/:id/status", middleware.RequirePermission(model.PermRuleWrite), h.MailRule.UpdateEnabled)
				rules.DELETE("/:id", middleware.RequirePermission(model.PermRuleWrite), h.MailRule.Delete)
			}

			// 审计日志查询 (需要 audit:read 权限)
			audits := authenticated.Group("/audits")
			audits.Use(middleware.RequirePermission(model.PermAuditRead))
			{
				audits.GET("", h.Audit.List)
				audits.GET("/actions", h.Audit.GetActions)
				audits.GET("/resource-types", h.Audit.GetResourceTypes)
				audits.GET("/export", h.Audit.Export)
				audits.GET("/resource/:resource_type/:resource_id", h.Audit.GetByResource)
				audits.GET("/:id", h.Audit.Get)
			}
		}
	}
}
