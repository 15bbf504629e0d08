package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/handler"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/middleware"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/model"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/repository"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/service"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/validator"
	"github.com/laitim2001/ai-document-extraction-project-sub002/pkg/crypto"
)

const (
	handlerTestMasterKey = "handler-test-master-key"
	handlerTestKDFSalt   = "handler-test-salt"
)

// handlerTestDBCounter 用于生成唯一的数据库名
var handlerTestDBCounter int64

// 集成测试环境
type testEnv struct {
	db      *gorm.DB
	engine  *gin.Engine
	enc     *crypto.Encryptor
	token   string
	adminID int64
}

func setupTestEnv(t *testing.T) *testEnv {
	gin.SetMode(gin.TestMode)

	// 命名共享内存数据库, 并发测试时多个连接看到同一份数据
	counter := atomic.AddInt64(&handlerTestDBCounter, 1)
	dsn := fmt.Sprintf("file:handlertest_%d?mode=memory&cache=shared&_busy_timeout=5000", counter)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	// 迁移
	err = db.AutoMigrate(
		&model.Admin{},
		&model.AuditLog{},
		&model.ConfigEntry{},
		&model.ConfigVersion{},
		&model.HistoryRecord{},
		&model.WorkflowExecution{},
		&model.MailRule{},
	)
	require.NoError(t, err)

	// 创建测试管理员
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	admin := &model.Admin{
		Username:     "admin",
		PasswordHash: string(hash),
		Nickname:     "Test Admin",
		Email:        "admin@test.com",
		Role:         model.RoleSuperAdmin,
		Status:       model.AdminStatusActive,
		CreatedBy:    "seed",
		UpdatedBy:    "seed",
	}
	require.NoError(t, db.Create(admin).Error)

	// 初始化仓储
	adminRepo := repository.NewAdminRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	configRepo := repository.NewConfigRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	workflowRepo := repository.NewWorkflowRepository(db)
	ruleRepo := repository.NewMailRuleRepository(db)

	// 初始化服务
	enc, err := crypto.NewEncryptor(handlerTestMasterKey, handlerTestKDFSalt)
	require.NoError(t, err)
	factory := func(masterKey string) (service.Encryptor, error) {
		return crypto.NewEncryptor(masterKey, handlerTestKDFSalt)
	}

	authSvc := service.NewAuthService(adminRepo, auditRepo, &service.AuthConfig{
		JWTSecret:    "test-secret-key",
		JWTExpire:    24 * time.Hour,
		MaxAttempts:  5,
		LockDuration: 30 * time.Minute,
	})
	adminSvc := service.NewAdminService(adminRepo, auditRepo)
	configSvc := service.NewConfigService(configRepo, historyRepo, validator.New(), enc, factory, nil, nil, time.Minute)
	auditSvc := service.NewAuditService(auditRepo)
	workflowSvc := service.NewWorkflowService(workflowRepo, auditRepo, configSvc)
	ruleSvc := service.NewMailRuleService(ruleRepo, auditRepo)

	// 初始化处理器
	authHandler := handler.NewAuthHandler(authSvc)
	adminHandler := handler.NewAdminHandler(adminSvc)
	configHandler := handler.NewConfigHandler(configSvc)
	auditHandler := handler.NewAuditHandler(auditSvc)
	workflowHandler := handler.NewWorkflowHandler(workflowSvc, nil)
	ruleHandler := handler.NewMailRuleHandler(ruleSvc)
	healthHandler := handler.NewHealthHandler(db, nil, nil)

	// 初始化中间件
	authMiddleware := middleware.NewAuthMiddleware(authSvc)

	// 创建路由 (与生产路由保持一致, 内联注册避免引入循环依赖)
	engine := gin.New()

	engine.GET("/health", healthHandler.Live)
	engine.GET("/health/ready", healthHandler.Ready)

	v1 := engine.Group("/admin/v1")
	{
		// 认证相关 (无需登录)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
		}

		// 需要登录的接口
		authenticated := v1.Group("")
		authenticated.Use(authMiddleware.Required())
		{
			authGroup := authenticated.Group("/auth")
			{
				authGroup.POST("/refresh", authHandler.Refresh)
				authGroup.POST("/logout", authHandler.Logout)
				authGroup.PUT("/password", authHandler.ChangePassword)
				authGroup.GET("/profile", authHandler.GetProfile)
			}

			admins := authenticated.Group("/admins")
			{
				admins.GET("", middleware.RequirePermission(model.PermAdminRead), adminHandler.List)
				admins.GET("/:id", middleware.RequirePermission(model.PermAdminRead), adminHandler.Get)
				admins.POST("", middleware.RequirePermission(model.PermAdminWrite), adminHandler.Create)
				admins.PUT("/:id", middleware.RequirePermission(model.PermAdminWrite), adminHandler.Update)
				admins.PUT("/:id/status", middleware.RequirePermission(model.PermAdminWrite), adminHandler.UpdateStatus)
				admins.PUT("/:id/password", middleware.RequirePermission(model.PermAdminWrite), adminHandler.ResetPassword)
			}

			configs := authenticated.Group("/configs")
			{
				configs.GET("", middleware.RequirePermission(model.PermConfigRead), configHandler.List)
				configs.GET("/versions", middleware.RequirePermission(model.PermConfigRead), configHandler.GetVersions)
				configs.GET("/:key", middleware.RequirePermission(model.PermConfigRead), configHandler.Get)
				configs.GET("/:key/history", middleware.RequirePermission(model.PermConfigRead), configHandler.History)
				configs.GET("/:key/history/verify", middleware.RequirePermission(model.PermConfigRead), configHandler.VerifyHistory)
				configs.PUT("/:key", middleware.RequirePermission(model.PermConfigWrite), configHandler.Update)
				configs.POST("/:key/rollback", middleware.RequirePermission(model.PermConfigWrite), configHandler.Rollback)
				configs.POST("/:key/reset", middleware.RequirePermission(model.PermConfigWrite), configHandler.Reset)
				configs.POST("/reload", middleware.RequirePermission(model.PermConfigWrite), configHandler.Reload)
				configs.POST("/rotate-key", middleware.RequirePermission(model.PermSystemAdmin), configHandler.RotateKey)
			}

			workflows := authenticated.Group("/workflows")
			{
				workflows.GET("", middleware.RequirePermission(model.PermWorkflowRead), workflowHandler.List)
				workflows.GET("/stats", middleware.RequirePermission(model.PermWorkflowRead), workflowHandler.Stats)
				workflows.GET("/pipeline", middleware.RequirePermission(model.PermWorkflowRead), workflowHandler.Pipeline)
				workflows.GET("/:id", middleware.RequirePermission(model.PermWorkflowRead), workflowHandler.Get)
				workflows.POST("/:id/retry", middleware.RequirePermission(model.PermWorkflowWrite), workflowHandler.Retry)
				workflows.POST("/:id/review", middleware.RequirePermission(model.PermWorkflowWrite), workflowHandler.Review)
			}

			rules := authenticated.Group("/mail-rules")
			{
				rules.GET("", middleware.RequirePermission(model.PermRuleRead), ruleHandler.List)
				rules.GET("/sync", middleware.RequirePermission(model.PermRuleRead), ruleHandler.Sync)
				rules.GET("/:id", middleware.RequirePermission(model.PermRuleRead), ruleHandler.Get)
				rules.POST("", middleware.RequirePermission(model.PermRuleWrite), ruleHandler.Create)
				rules.PUT("/:id", middleware.RequirePermission(model.PermRuleWrite), ruleHandler.Update)
				rules.PUT("/:id/status", middleware.RequirePermission(model.PermRuleWrite), ruleHandler.UpdateEnabled)
				rules.DELETE("/:id", middleware.RequirePermission(model.PermRuleWrite), ruleHandler.Delete)
			}

			audits := authenticated.Group("/audits")
			audits.Use(middleware.RequirePermission(model.PermAuditRead))
			{
				audits.GET("", auditHandler.List)
				audits.GET("/actions", auditHandler.GetActions)
				audits.GET("/resource-types", auditHandler.GetResourceTypes)
				audits.GET("/export", auditHandler.Export)
				audits.GET("/resource/:resource_type/:resource_id", auditHandler.GetByResource)
				audits.GET("/:id", auditHandler.Get)
			}
		}
	}

	// 登录获取 token
	loginResp, err := authSvc.Login(context.Background(), &service.LoginRequest{
		Username: "admin",
		Password: "password123",
	}, "127.0.0.1", "TestAgent")
	require.NoError(t, err)

	return &testEnv{
		db:      db,
		engine:  engine,
		enc:     enc,
		token:   loginResp.Token,
		adminID: loginResp.Admin.ID,
	}
}

func (e *testEnv) request(method, path string, body interface{}) *httptest.ResponseRecorder {
	return e.do(method, path, body, e.token)
}

func (e *testEnv) requestNoAuth(method, path string, body interface{}) *httptest.ResponseRecorder {
	return e.do(method, path, body, "")
}

func (e *testEnv) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

// loginAs 以指定角色创建管理员并返回其 token
func (e *testEnv) loginAs(t *testing.T, username string, role model.Role) string {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	require.NoError(t, err)
	require.NoError(t, e.db.Create(&model.Admin{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		Status:       model.AdminStatusActive,
		CreatedBy:    "seed",
		UpdatedBy:    "seed",
	}).Error)

	w := e.requestNoAuth("POST", "/admin/v1/auth/login", map[string]string{
		"username": username,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	return data["token"].(string)
}

// seedThreshold 写入一条数值型配置
func (e *testEnv) seedThreshold(t *testing.T) *model.ConfigEntry {
	t.Helper()
	entry := &model.ConfigEntry{
		ConfigKey:    "ocr.confidence_threshold",
		ConfigValue:  "0.8",
		DefaultValue: "0.8",
		ValueType:    model.ValueTypeNumber,
		EffectType:   model.EffectImmediate,
		Validation:   model.ValidationRules{Min: ptrFloat(0), Max: ptrFloat(1)},
		Category:     model.CategoryOCR,
		Version:      1,
	}
	require.NoError(t, e.db.Create(entry).Error)
	return entry
}

// seedSecret 写入一条加密配置
func (e *testEnv) seedSecret(t *testing.T, plaintext string) *model.ConfigEntry {
	t.Helper()
	envelope, err := e.enc.Encrypt(plaintext)
	require.NoError(t, err)
	entry := &model.ConfigEntry{
		ConfigKey:   "ocr.api_key",
		ConfigValue: envelope,
		ValueType:   model.ValueTypeSecret,
		EffectType:  model.EffectRestartRequired,
		IsEncrypted: true,
		Category:    model.CategoryOCR,
		Version:     1,
	}
	require.NoError(t, e.db.Create(entry).Error)
	return entry
}

func ptrFloat(v float64) *float64 { return &v }

// decode 解析统一响应体
func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func dataObject(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	resp := decode(t, w)
	require.NotNil(t, resp["data"], "response has no data: %s", w.Body.String())
	return resp["data"].(map[string]interface{})
}

func dataList(t *testing.T, w *httptest.ResponseRecorder) []interface{} {
	t.Helper()
	resp := decode(t, w)
	require.NotNil(t, resp["data"], "response has no data: %s", w.Body.String())
	return resp["data"].([]interface{})
}

// ========== Health Check Tests ==========

func TestHealthCheck(t *testing.T) {
	env := setupTestEnv(t)

	w := env.requestNoAuth("GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, "ok", resp["status"])
}

func TestHealthReady(t *testing.T) {
	env := setupTestEnv(t)

	w := env.requestNoAuth("GET", "/health/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, true, resp["ready"])

	components := resp["components"].([]interface{})
	require.Len(t, components, 1) // 只接了数据库
	first := components[0].(map[string]interface{})
	assert.Equal(t, "postgres", first["component"])
	assert.Equal(t, true, first["healthy"])
}

// ========== Auth Handler Tests ==========

func TestAuthHandler_Login_Success(t *testing.T) {
	env := setupTestEnv(t)

	w := env.requestNoAuth("POST", "/admin/v1/auth/login", map[string]string{
		"username": "admin",
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	data := dataObject(t, w)
	assert.NotEmpty(t, data["token"])
	assert.NotNil(t, data["admin"])
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	env := setupTestEnv(t)

	w := env.requestNoAuth("POST", "/admin/v1/auth/login", map[string]string{
		"username": "admin",
		"password": "wrongpassword",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	resp := decode(t, w)
	assert.Equal(t, "INVALID_CREDENTIALS", resp["error"])
}

func TestAuthHandler_Login_UserNotFound(t *testing.T) {
	env := setupTestEnv(t)

	w := env.requestNoAuth("POST", "/admin/v1/auth/login", map[string]string{
		"username": "nonexistent",
		"password": "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_Refresh(t *testing.T) {
	env := setupTestEnv(t)

	w := env.request("POST", "/admin/v1/auth/refresh", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	data := dataObject(t, w)
	assert.NotEmpty(t, data["token"])
}

func TestAuthHandler_GetProfile(t *testing.T) {
	env := setupTestEnv(t)

	w := env.request("GET", "/admin/v1/auth/profile", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	data := dataObject(t, w)
	assert.Equal(t, "admin", data["username"])
	assert.Equal(t, string(model.RoleSuperAdmin), data["role"])
	assert.NotEmpty(t, data["permissions"])
}

func TestAuthHandler_Logout(t *testing.T) {
	env := setupTestEnv(t)

	w := env.request("POST", "/admin/v1/auth/logout", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	env := setupTestEnv(t)

	w := env.request("PUT", "/admin/v1/auth/password", map[string]string{
		"old_password": "password123",
		"new_password": "newpassword456",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// 新密码可登录
	w = env.requestNoAuth("POST", "/admin/v1/auth/login", map[string]string{
		"username": "admin",
		"password": "newpassword456",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

// ========== Admin Handler Tests ==========

func TestAdminHandler_List(t *testing.T) {
	env := setupTestEnv(t)

	w := env.request("GET", "/admin/v1/admins", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, dataList(t, w))
}

func TestAdminHandler_Create(t *testing.T) {
	env := setupTestEnv(t)

	w := env.request("POST", "/admin/v1/admins", map[string]interface{}{
		"username": "newadmin",
		"password": "password123",
		"nickname": "New Admin",
		"email":    "newadmin@test.com",
		"role":     "operator",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	data := dataObject(t, w)
	assert.Equal(t, "newadmin", data["username"])
	assert.Empty(t, data["password_hash"], "哈希不能出现在响应里")
}

func TestAdminHandler_Get(t *testing.T) {
	env := setupTestEnv(t)

	w := env.request("GET", fmt.Sprintf("/admin/v1/admins/%d", env.adminID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin", dataObject(t, w)["username"])

	w = env.request("GET", "/admin/v1/admins/9999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminHandler_Update(t *testing.T) {
	env := setupTestEnv(t)

	w := env.request("PUT", fmt.Sprintf("/admin/v1/admins/%d", env.adminID), map[string]interface{}{
		"nickname": "Updated Nickname",
		"email":    "updated@test.com",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Updated Nickname", dataObject(t, w)["nickname"])
}

func TestAdminHandler_UpdateStatus(t *testing.T) {
	env := setupTestEnv(t)

	// 创建一个可停用的管理员
	w := env.request("POST", "/admin/v1/admins", map[string]interface{}{
		"username": "tempadmin",
		"password": "password123",
		"role":     "viewer",
	})
	require.Equal(t, http.StatusOK, w.Code)
	id := int64(dataObject(t, w)["id"].(float64))

	w = env.request("PUT", fmt.Sprintf("/admin/v1/admins/%d/status", id), map[string]interface{}{
		"status": model.AdminStatusDisabled,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// 被停用后无法登录
	w = env.requestNoAuth("POST", "/admin/v1/auth/login", map[string]string{
		"username": "tempadmin",
		"password": "password123",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminHandler_ResetPassword(t *testing.T) {
	env := setupTestEnv(t)

	w := env.request("POST", "/admin/v1/admins", map[string]interface{}{
		"username": "resetme",
		"password": "password123",
		"role":     "viewer",
	})
	require.Equal(t, http.StatusOK, w.Code)
	id := int64(dataObject(t, w)["id"].(float64))

	w = env.request("PUT", fmt.Sprintf("/admin/v1/admins/%d/password", id), map[string]string{
		"new_password": "freshpassword",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.requestNoAuth("POST", "/admin/v1/auth/login", map[string]string{
		"username": "resetme",
		"password": "freshpassword",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

// ========== Config Handler Tests ==========

func TestConfigHandler_GetByKey(t *testing.T) {
	env := setupTestEnv(t)
	env.seedThreshold(t)

	w := env.request("GET", "/admin/v1/configs/ocr.confidence_threshold", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	data := dataObject(t, w)
	assert.Equal(t, "0.8", data["config_value"])
	assert.Equal(t, float64(1), data["version"])
}

func TestConfigHandler_GetNotFound(t *testing.T) {
	env := setupTestEnv(t)

	w := env.request("GET", "/admin/v1/configs/no.such.key", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	resp := decode(t, w)
	assert.Equal(t, "CONFIG_NOT_FOUND", resp["error"])
}

func TestConfigHandler_List(t *testing.T) {
	env := setupTestEnv(t)
	env.seedThreshold(t)

	w := env.request("GET", "/admin/v1/configs?category=ocr", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, dataList(t, w), 1)

	w = env.request("GET", "/admin/v1/configs?search=confidence", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, dataList(t, w), 1)
}

func TestConfigHandler_Update(t *testing.T) {
	env := setupTestEnv(t)
	env.seedThreshold(t)

	w := env.request("PUT", "/admin/v1/configs/ocr.confidence_threshold", map[string]string{
		"config_value":  "0.95",
		"change_reason": "降低人工复核量",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	data := dataObject(t, w)
	assert.Equal(t, "0.95", data["config_value"])
	assert.Equal(t, float64(2), data["version"])

	// 历史追加了一条变更记录
	w = env.request("GET", "/admin/v1/configs/ocr.confidence_threshold/history", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	records := dataList(t, w)
	require.Len(t, records, 1)
	record := records[0].(map[string]interface{})
	assert.Equal(t, "0.8", record["previous_value"])
	assert.Equal(t, "0.95", record["new_value"])
	assert.Equal(t, "admin", record["changed_by"])
}

func TestConfigHandler_UpdateValidationError(t *testing.T) {
	env := setupTestEnv(t)
	env.seedThreshold(t)

	w := env.request("PUT", "/admin/v1/configs/ocr.confidence_threshold", map[string]string{
		"config_value": "1.01",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	resp := decode(t, w)
	assert.Equal(t, "VALIDATION_ERROR", resp["error"])
}

func TestConfigHandler_UpdateReadOnly(t *testing.T) {
	env := setupTestEnv(t)
	require.NoError(t, env.db.Create(&model.ConfigEntry{
		ConfigKey:   "system.version",
		ConfigValue: "2.1.0",
		ValueType:   model.ValueTypeString,
		IsReadOnly:  true,
		Category:    model.CategoryGeneral,
		Version:     1,
	}).Error)

	w := env.request("PUT", "/admin/v1/configs/system.version", map[string]string{
		"config_value": "9.9.9",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	resp := decode(t, w)
	assert.Equal(t, "READ_ONLY_VIOLATION", resp["error"])
}

func TestConfigHandler_SecretMasked(t *testing.T) {
	env := setupTestEnv(t)
	env.seedSecret(t, "sk-issuer-abcd1234")

	w := env.request("GET", "/admin/v1/configs/ocr.api_key", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	data := dataObject(t, w)
	assert.Equal(t, "••••••1234", data["config_value"], "HTTP 响应只能出现掩码值")
}

func TestConfigHandler_Rollback(t *testing.T) {
	env := setupTestEnv(t)
	env.seedThreshold(t)

	w := env.request("PUT", "/admin/v1/configs/ocr.confidence_threshold", map[string]string{
		"config_value": "0.9",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// 取最近一条历史
	w = env.request("GET", "/admin/v1/configs/ocr.confidence_threshold/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	records := dataList(t, w)
	require.NotEmpty(t, records)
	historyID := int64(records[0].(map[string]interface{})["id"].(float64))

	w = env.request("POST", "/admin/v1/configs/ocr.confidence_threshold/rollback", map[string]interface{}{
		"history_id": historyID,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	data := dataObject(t, w)
	assert.Equal(t, "0.8", data["config_value"])
	assert.Equal(t, float64(3), data["version"], "回滚追加新版本而不是覆盖")
}

func TestConfigHandler_RollbackHistoryMismatch(t *testing.T) {
	env := setupTestEnv(t)
	env.seedThreshold(t)

	w := env.request("POST", "/admin/v1/configs/ocr.confidence_threshold/rollback", map[string]interface{}{
		"history_id": int64(9999),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConfigHandler_Reset(t *testing.T) {
	env := setupTestEnv(t)
	env.seedThreshold(t)

	w := env.request("PUT", "/admin/v1/configs/ocr.confidence_threshold", map[string]string{
		"config_value": "0.5",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.request("POST", "/admin/v1/configs/ocr.confidence_threshold/reset", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0.8", dataObject(t, w)["config_value"])
}

func TestConfigHandler_VerifyHistory(t *testing.T) {
	env := setupTestEnv(t)
	env.seedThreshold(t)

	env.request("PUT", "/admin/v1/configs/ocr.confidence_threshold", map[string]string{"config_value": "0.9"})
	env.request("PUT", "/admin/v1/configs/ocr.confidence_threshold", map[string]string{"config_value": "0.95"})

	w := env.request("GET", "/admin/v1/configs/ocr.confidence_threshold/history/verify", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	data := dataObject(t, w)
	assert.Equal(t, true, data["consistent"])
}

func TestConfigHandler_Versions(t *testing.T) {
	env := setupTestEnv(t)
	env.seedThreshold(t)

	env.request("PUT", "/admin/v1/configs/ocr.confidence_threshold", map[string]string{"config_value": "0.9"})

	w := env.request("GET", "/admin/v1/configs/versions", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, dataList(t, w))
}

func TestConfigHandler_Reload(t *testing.T) {
	env := setupTestEnv(t)

	w := env.request("POST", "/admin/v1/configs/reload", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestConfigHandler_RotateKey(t *testing.T) {
	env := setupTestEnv(t)
	env.seedSecret(t, "sk-issuer-abcd1234")

	// 密钥太短被参数校验拦截
	w := env.request("POST", "/admin/v1/configs/rotate-key", map[string]string{
		"new_master_key": "short",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.request("POST", "/admin/v1/configs/rotate-key", map[string]string{
		"new_master_key": "a-brand-new-master-key",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// 轮换后明文不变, 响应仍是掩码
	w = env.request("GET", "/admin/v1/configs/ocr.api_key", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "••••••1234", dataObject(t, w)["config_value"])
}

func TestConfigHandler_RotateKeyRequiresSystemAdmin(t *testing.T) {
	env := setupTestEnv(t)
	operatorToken := env.loginAs(t, "ops", model.RoleOperator)

	w := env.do("POST", "/admin/v1/configs/rotate-key", map[string]string{
		"new_master_key": "a-brand-new-master-key",
	}, operatorToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// ========== Workflow Handler Tests ==========

func seedExecutionRow(t *testing.T, db *gorm.DB, docID string, status model.WorkflowStatus) *model.WorkflowExecution {
	t.Helper()
	exec := &model.WorkflowExecution{
		DocumentID:   docID,
		WorkflowType: "invoice",
		Status:       status,
	}
	require.NoError(t, db.Create(exec).Error)
	return exec
}

func TestWorkflowHandler_ListAndGet(t *testing.T) {
	env := setupTestEnv(t)
	exec := seedExecutionRow(t, env.db, "doc-1", model.WorkflowStatusCompleted)
	seedExecutionRow(t, env.db, "doc-2", model.WorkflowStatusFailed)

	w := env.request("GET", "/admin/v1/workflows?status=failed", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	list := dataList(t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "doc-2", list[0].(map[string]interface{})["document_id"])

	w = env.request("GET", fmt.Sprintf("/admin/v1/workflows/%d", exec.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "doc-1", dataObject(t, w)["document_id"])

	w = env.request("GET", "/admin/v1/workflows?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWorkflowHandler_Stats(t *testing.T) {
	env := setupTestEnv(t)
	seedExecutionRow(t, env.db, "doc-1", model.WorkflowStatusCompleted)
	seedExecutionRow(t, env.db, "doc-2", model.WorkflowStatusNeedsReview)

	w := env.request("GET", "/admin/v1/workflows/stats", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	data := dataObject(t, w)
	assert.Equal(t, float64(2), data["total_executions"])
	assert.Equal(t, float64(1), data["needs_review_count"])
}

func TestWorkflowHandler_Retry(t *testing.T) {
	env := setupTestEnv(t)
	exec := seedExecutionRow(t, env.db, "doc-1", model.WorkflowStatusFailed)

	w := env.request("POST", fmt.Sprintf("/admin/v1/workflows/%d/retry", exec.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	data := dataObject(t, w)
	assert.Equal(t, string(model.WorkflowStatusPending), data["status"])
	assert.Equal(t, float64(1), data["retry_count"])

	// 非失败状态不可重试
	w = env.request("POST", fmt.Sprintf("/admin/v1/workflows/%d/retry", exec.ID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWorkflowHandler_Review(t *testing.T) {
	env := setupTestEnv(t)
	exec := seedExecutionRow(t, env.db, "doc-1", model.WorkflowStatusNeedsReview)

	w := env.request("POST", fmt.Sprintf("/admin/v1/workflows/%d/review", exec.ID), map[string]bool{
		"approve": true,
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(model.WorkflowStatusCompleted), dataObject(t, w)["status"])

	// 已是终态, 再次复核被拒
	w = env.request("POST", fmt.Sprintf("/admin/v1/workflows/%d/review", exec.ID), map[string]bool{
		"approve": false,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWorkflowHandler_PipelineUnconfigured(t *testing.T) {
	env := setupTestEnv(t)

	w := env.request("GET", "/admin/v1/workflows/pipeline", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

// ========== Mail Rule Handler Tests ==========

func TestMailRuleHandler_CRUD(t *testing.T) {
	env := setupTestEnv(t)

	// 创建
	w := env.request("POST", "/admin/v1/mail-rules", map[string]interface{}{
		"name":             "acme-invoices",
		"folder":           "Inbox/Invoices",
		"sender_whitelist": []string{"billing@acme.com"},
		"subject_pattern":  `(?i)invoice\s+#\d+`,
		"target_workflow":  "invoice",
		"priority":         100,
		"enabled":          true,
	})
	require.Equal(t, http.StatusOK, w.Code)
	id := int64(dataObject(t, w)["id"].(float64))

	// 重名冲突
	w = env.request("POST", "/admin/v1/mail-rules", map[string]interface{}{
		"name":            "acme-invoices",
		"target_workflow": "invoice",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// 非法正则
	w = env.request("POST", "/admin/v1/mail-rules", map[string]interface{}{
		"name":            "broken",
		"subject_pattern": "invoice(",
		"target_workflow": "invoice",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 更新
	w = env.request("PUT", fmt.Sprintf("/admin/v1/mail-rules/%d", id), map[string]interface{}{
		"priority": 50,
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(50), dataObject(t, w)["priority"])

	// 停用
	w = env.request("PUT", fmt.Sprintf("/admin/v1/mail-rules/%d/status", id), map[string]interface{}{
		"enabled": false,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.request("GET", fmt.Sprintf("/admin/v1/mail-rules/%d", id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, dataObject(t, w)["enabled"])

	// 删除
	w = env.request("DELETE", fmt.Sprintf("/admin/v1/mail-rules/%d", id), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.request("GET", fmt.Sprintf("/admin/v1/mail-rules/%d", id), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMailRuleHandler_Sync(t *testing.T) {
	env := setupTestEnv(t)

	for i, name := range []string{"rule-a", "rule-b", "rule-c"} {
		w := env.request("POST", "/admin/v1/mail-rules", map[string]interface{}{
			"name":            name,
			"target_workflow": "invoice",
			"priority":        100 * (i + 1),
			"enabled":         name != "rule-b",
		})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := env.request("GET", "/admin/v1/mail-rules/sync", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	list := dataList(t, w)
	require.Len(t, list, 2, "停用的规则不下发")
	assert.Equal(t, "rule-c", list[0].(map[string]interface{})["name"], "按优先级从高到低")
}

// ========== Audit Handler Tests ==========

func TestAuditHandler_List(t *testing.T) {
	env := setupTestEnv(t)
	env.seedThreshold(t)

	// 产生一条配置变更审计
	w := env.request("PUT", "/admin/v1/configs/ocr.confidence_threshold", map[string]string{
		"config_value": "0.9",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.request("GET", "/admin/v1/audits?action=login", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, dataList(t, w), "登录应留下审计记录")
}

func TestAuditHandler_GetAndMeta(t *testing.T) {
	env := setupTestEnv(t)

	w := env.request("GET", "/admin/v1/audits", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := dataList(t, w)
	require.NotEmpty(t, list)
	id := int64(list[0].(map[string]interface{})["id"].(float64))

	w = env.request("GET", fmt.Sprintf("/admin/v1/audits/%d", id), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.request("GET", "/admin/v1/audits/9999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.request("GET", "/admin/v1/audits/actions", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "rotate_key")

	w = env.request("GET", "/admin/v1/audits/resource-types", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "system_config")
}

func TestAuditHandler_Export(t *testing.T) {
	env := setupTestEnv(t)

	now := time.Now().UnixMilli()
	path := fmt.Sprintf("/admin/v1/audits/export?start_time=%d&end_time=%d", now-time.Hour.Milliseconds(), now+time.Hour.Milliseconds())

	w := env.request("GET", path, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "audit_logs.csv")
	assert.Contains(t, w.Body.String(), "admin_username")

	// 缺少时间窗被拒
	w = env.request("GET", "/admin/v1/audits/export", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 不支持的格式被拒
	w = env.request("GET", path+"&format=xml", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ========== Authorization Tests ==========

func TestUnauthorizedAccess(t *testing.T) {
	env := setupTestEnv(t)

	w := env.requestNoAuth("GET", "/admin/v1/admins", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestInvalidToken(t *testing.T) {
	env := setupTestEnv(t)
	env.token = "invalid-token"

	w := env.request("GET", "/admin/v1/admins", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPermissionDenied(t *testing.T) {
	env := setupTestEnv(t)
	viewerToken := env.loginAs(t, "watcher", model.RoleViewer)

	// viewer 只读, 不能改配置
	w := env.do("PUT", "/admin/v1/configs/ocr.confidence_threshold", map[string]string{
		"config_value": "0.9",
	}, viewerToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// 也不能管理管理员
	w = env.do("GET", "/admin/v1/admins", nil, viewerToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// ========== Concurrent Access Tests ==========

func TestConcurrentRequests(t *testing.T) {
	env := setupTestEnv(t)

	done := make(chan bool, 10)

	for i := 0; i < 10; i++ {
		go func() {
			w := env.request("GET", "/admin/v1/auth/profile", nil)
			assert.Equal(t, http.StatusOK, w.Code)
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}
