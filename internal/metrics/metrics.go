// Package metrics 提供 doc-admin 服务的 Prometheus 监控指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "doc_admin"

// HTTP 请求指标
var (
	// HTTPRequestsTotal HTTP 请求总数
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP 请求总数",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration HTTP 请求耗时
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP 请求耗时(秒)",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)
)

// 认证指标
var (
	// LoginAttemptsTotal 登录尝试总数
	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "登录尝试总数",
		},
		[]string{"result"}, // success, failed, locked
	)

	// TokenValidationsTotal Token 验证总数
	TokenValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_validations_total",
			Help:      "Token 验证总数",
		},
		[]string{"result"}, // valid, invalid, expired
	)
)

// 系统配置指标
var (
	// ConfigOperationsTotal 配置操作总数
	ConfigOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_operations_total",
			Help:      "系统配置操作总数",
		},
		[]string{"operation", "category"}, // operation: update/rollback/reset/reload/rotate
	)

	// ConfigsGauge 配置项总数
	ConfigsGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "configs_total",
			Help:      "系统配置项总数",
		},
		[]string{"category"},
	)

	// ConfigVersionGauge 配置分类版本号
	ConfigVersionGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "config_version",
			Help:      "配置分类版本号",
		},
		[]string{"category"},
	)

	// KeyRotationsTotal 主密钥轮换总数
	KeyRotationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "key_rotations_total",
			Help:      "主密钥轮换总数",
		},
		[]string{"result"}, // success, failed, conflict
	)

	// KeyRotationDuration 主密钥轮换耗时
	KeyRotationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "key_rotation_duration_seconds",
			Help:      "主密钥轮换耗时(秒)",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)

// 配置缓存指标
var (
	// CacheHitsTotal 缓存命中总数
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_cache_hits_total",
			Help:      "配置缓存命中总数",
		},
	)

	// CacheMissesTotal 缓存未命中总数
	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_cache_misses_total",
			Help:      "配置缓存未命中总数",
		},
	)

	// CacheRefreshesTotal 缓存刷新总数
	CacheRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_cache_refreshes_total",
			Help:      "配置缓存刷新总数",
		},
		[]string{"mode"}, // full, single
	)
)

// 配置变更通知指标
var (
	// ConfigEventsPublishedTotal 配置变更事件发布总数
	ConfigEventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_events_published_total",
			Help:      "配置变更事件发布总数",
		},
		[]string{"sink", "result"}, // sink: kafka/redis/alert/audit, result: success/failed
	)
)

// 管理员操作指标
var (
	// AdminOperationsTotal 管理员操作总数
	AdminOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admin_operations_total",
			Help:      "管理员操作总数",
		},
		[]string{"operation", "resource"},
	)
)

// 审计日志指标
var (
	// AuditLogsTotal 审计日志总数
	AuditLogsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_logs_total",
			Help:      "审计日志总数",
		},
		[]string{"action", "resource_type", "status"},
	)

	// AuditLogQueriesTotal 审计日志查询总数
	AuditLogQueriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_log_queries_total",
			Help:      "审计日志查询总数",
		},
	)
)

// 权限检查指标
var (
	// PermissionChecksTotal 权限检查总数
	PermissionChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "permission_checks_total",
			Help:      "权限检查总数",
		},
		[]string{"permission", "result"}, // result: allowed, denied
	)
)

// 工作流指标
var (
	// WorkflowOperationsTotal 工作流操作总数
	WorkflowOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_operations_total",
			Help:      "工作流管理操作总数",
		},
		[]string{"operation"}, // retry, review
	)

	// WorkflowExecutionsGauge 工作流执行数
	WorkflowExecutionsGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workflow_executions_total",
			Help:      "工作流执行总数",
		},
		[]string{"status"},
	)
)

// 邮箱规则指标
var (
	// MailRuleOperationsTotal 邮箱规则操作总数
	MailRuleOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mail_rule_operations_total",
			Help:      "邮箱规则操作总数",
		},
		[]string{"operation"}, // create, update, enable, disable, delete
	)

	// MailRulesGauge 邮箱规则总数
	MailRulesGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mail_rules_total",
			Help:      "邮箱规则总数",
		},
		[]string{"enabled"}, // true, false
	)
)

// 下游服务调用指标
var (
	// ServiceClientRequestsTotal 下游服务请求总数
	ServiceClientRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "service_client_requests_total",
			Help:      "下游服务请求总数",
		},
		[]string{"service", "status"},
	)

	// ServiceClientRequestDuration 下游服务请求耗时
	ServiceClientRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "service_client_request_duration_seconds",
			Help:      "下游服务请求耗时(秒)",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"service"},
	)
)

// 数据库指标
var (
	// DBConnectionsGauge 数据库连接数
	DBConnectionsGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections",
			Help:      "数据库连接数",
		},
		[]string{"state"}, // idle, in_use
	)
)

// Helper functions

// RecordHTTPRequest 记录 HTTP 请求
func RecordHTTPRequest(method, path, status string, durationSeconds float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(durationSeconds)
}

// RecordLogin 记录登录
func RecordLogin(result string) {
	LoginAttemptsTotal.WithLabelValues(result).Inc()
}

// RecordTokenValidation 记录 Token 验证
func RecordTokenValidation(result string) {
	TokenValidationsTotal.WithLabelValues(result).Inc()
}

// RecordConfigOperation 记录配置操作
func RecordConfigOperation(operation, category string) {
	ConfigOperationsTotal.WithLabelValues(operation, category).Inc()
}

// RecordKeyRotation 记录主密钥轮换
func RecordKeyRotation(result string, durationSeconds float64) {
	KeyRotationsTotal.WithLabelValues(result).Inc()
	if result == "success" {
		KeyRotationDuration.Observe(durationSeconds)
	}
}

// RecordCacheHit 记录缓存命中
func RecordCacheHit() {
	CacheHitsTotal.Inc()
}

// RecordCacheMiss 记录缓存未命中
func RecordCacheMiss() {
	CacheMissesTotal.Inc()
}

// RecordCacheRefresh 记录缓存刷新
func RecordCacheRefresh(mode string) {
	CacheRefreshesTotal.WithLabelValues(mode).Inc()
}

// RecordConfigEventPublished 记录配置变更事件发布
func RecordConfigEventPublished(sink string, success bool) {
	result := "success"
	if !success {
		result = "failed"
	}
	ConfigEventsPublishedTotal.WithLabelValues(sink, result).Inc()
}

// RecordAdminOperation 记录管理员操作
func RecordAdminOperation(operation, resource string) {
	AdminOperationsTotal.WithLabelValues(operation, resource).Inc()
}

// RecordAuditLog 记录审计日志
func RecordAuditLog(action, resourceType, status string) {
	AuditLogsTotal.WithLabelValues(action, resourceType, status).Inc()
}

// RecordPermissionCheck 记录权限检查
func RecordPermissionCheck(permission string, allowed bool) {
	result := "allowed"
	if !allowed {
		result = "denied"
	}
	PermissionChecksTotal.WithLabelValues(permission, result).Inc()
}

// RecordWorkflowOperation 记录工作流管理操作
func RecordWorkflowOperation(operation string) {
	WorkflowOperationsTotal.WithLabelValues(operation).Inc()
}

// RecordMailRuleOperation 记录邮箱规则操作
func RecordMailRuleOperation(operation string) {
	MailRuleOperationsTotal.WithLabelValues(operation).Inc()
}

// RecordServiceClientRequest 记录下游服务请求
func RecordServiceClientRequest(service, status string, durationSeconds float64) {
	ServiceClientRequestsTotal.WithLabelValues(service, status).Inc()
	ServiceClientRequestDuration.WithLabelValues(service).Observe(durationSeconds)
}

// UpdateConfigVersion 更新配置分类版本号
func UpdateConfigVersion(category string, version float64) {
	ConfigVersionGauge.WithLabelValues(category).Set(version)
}

// UpdateConfigsGauge 更新配置项数量
func UpdateConfigsGauge(category string, count float64) {
	ConfigsGauge.WithLabelValues(category).Set(count)
}

// UpdateWorkflowGauge 更新工作流执行数量
func UpdateWorkflowGauge(status string, count float64) {
	WorkflowExecutionsGauge.WithLabelValues(status).Set(count)
}

// UpdateMailRulesGauge 更新邮箱规则数量
func UpdateMailRulesGauge(enabled bool, count float64) {
	enabledStr := "false"
	if enabled {
		enabledStr = "true"
	}
	MailRulesGauge.WithLabelValues(enabledStr).Set(count)
}
