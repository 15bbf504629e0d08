package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/middleware"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/model"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/service"
)

// ConfigHandler 配置中心处理器
type ConfigHandler struct {
	configService *service.ConfigService
}

// NewConfigHandler 创建配置处理器
func NewConfigHandler(configService *service.ConfigService) *ConfigHandler {
	return &ConfigHandler{
		configService: configService,
	}
}

// List 获取配置列表
// @Summary 获取配置列表
// @Tags 系统配置
// @Security Bearer
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Param category query string false "配置分类"
// @Param search query string false "按键或描述搜索"
// @Success 200 {object} PagedResponse{data=[]model.ConfigEntry}
// @Router /admin/v1/configs [get]
func (h *ConfigHandler) List(c *gin.Context) {
	var page model.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		BadRequest(c, "参数错误")
		return
	}

	category := c.Query("category")
	search := c.Query("search")

	configs, err := h.configService.List(c.Request.Context(), &page, category, search)
	if err != nil {
		RespondError(c, err)
		return
	}

	SuccessPaged(c, configs, page.Page, page.PageSize, page.Total)
}

// Get 根据键获取配置, 加密配置返回掩码值
// @Summary 根据键获取配置
// @Tags 系统配置
// @Security Bearer
// @Param key path string true "配置键"
// @Success 200 {object} Response{data=model.ConfigEntry}
// @Router /admin/v1/configs/{key} [get]
func (h *ConfigHandler) Get(c *gin.Context) {
	key := c.Param("key")
	if key == "" {
		BadRequest(c, "配置键不能为空")
		return
	}

	config, err := h.configService.Get(c.Request.Context(), key)
	if err != nil {
		RespondError(c, err)
		return
	}

	Success(c, config)
}

// Update 更新配置值
// @Summary 更新配置值
// @Tags 系统配置
// @Security Bearer
// @Accept json
// @Produce json
// @Param key path string true "配置键"
// @Param request body service.UpdateConfigRequest true "更新配置请求"
// @Success 200 {object} Response{data=model.ConfigEntry}
// @Router /admin/v1/configs/{key} [put]
func (h *ConfigHandler) Update(c *gin.Context) {
	key := c.Param("key")
	if key == "" {
		BadRequest(c, "配置键不能为空")
		return
	}

	var req service.UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	req.ConfigKey = key
	req.Actor = middleware.GetUsername(c)

	config, err := h.configService.Update(c.Request.Context(), &req)
	if err != nil {
		RespondError(c, err)
		return
	}

	Success(c, config)
}

// RollbackRequest 回滚请求
type RollbackRequest struct {
	HistoryID int64 `json:"history_id" binding:"required"`
}

// Rollback 回滚配置到指定历史记录的变更前值
// @Summary 回滚配置
// @Tags 系统配置
// @Security Bearer
// @Accept json
// @Produce json
// @Param key path string true "配置键"
// @Param request body RollbackRequest true "回滚请求"
// @Success 200 {object} Response{data=model.ConfigEntry}
// @Router /admin/v1/configs/{key}/rollback [post]
func (h *ConfigHandler) Rollback(c *gin.Context) {
	key := c.Param("key")
	if key == "" {
		BadRequest(c, "配置键不能为空")
		return
	}

	var req RollbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	config, err := h.configService.Rollback(c.Request.Context(), key, req.HistoryID, middleware.GetUsername(c))
	if err != nil {
		RespondError(c, err)
		return
	}

	Success(c, config)
}

// Reset 重置配置为默认值, 当前值已是默认值时为幂等空操作
// @Summary 重置配置为默认值
// @Tags 系统配置
// @Security Bearer
// @Param key path string true "配置键"
// @Success 200 {object} Response{data=model.ConfigEntry}
// @Router /admin/v1/configs/{key}/reset [post]
func (h *ConfigHandler) Reset(c *gin.Context) {
	key := c.Param("key")
	if key == "" {
		BadRequest(c, "配置键不能为空")
		return
	}

	config, err := h.configService.ResetToDefault(c.Request.Context(), key, middleware.GetUsername(c))
	if err != nil {
		RespondError(c, err)
		return
	}

	Success(c, config)
}

// History 获取配置变更历史, 最新在前
// @Summary 获取配置变更历史
// @Tags 系统配置
// @Security Bearer
// @Param key path string true "配置键"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} PagedResponse{data=[]model.HistoryRecord}
// @Router /admin/v1/configs/{key}/history [get]
func (h *ConfigHandler) History(c *gin.Context) {
	key := c.Param("key")
	if key == "" {
		BadRequest(c, "配置键不能为空")
		return
	}

	var page model.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		BadRequest(c, "参数错误")
		return
	}

	records, err := h.configService.History(c.Request.Context(), key, &page)
	if err != nil {
		RespondError(c, err)
		return
	}

	SuccessPaged(c, records, page.Page, page.PageSize, page.Total)
}

// HistoryVerifyResponse 历史链校验结果
type HistoryVerifyResponse struct {
	ConfigKey  string `json:"config_key"`
	Consistent bool   `json:"consistent"`
}

// VerifyHistory 校验配置历史链的前后衔接
// @Summary 校验配置历史链
// @Tags 系统配置
// @Security Bearer
// @Param key path string true "配置键"
// @Success 200 {object} Response{data=HistoryVerifyResponse}
// @Router /admin/v1/configs/{key}/history/verify [get]
func (h *ConfigHandler) VerifyHistory(c *gin.Context) {
	key := c.Param("key")
	if key == "" {
		BadRequest(c, "配置键不能为空")
		return
	}

	consistent, err := h.configService.VerifyHistory(c.Request.Context(), key)
	if err != nil {
		RespondError(c, err)
		return
	}

	Success(c, HistoryVerifyResponse{ConfigKey: key, Consistent: consistent})
}

// GetVersions 获取各分类的配置版本号
// @Summary 获取各分类配置版本
// @Tags 系统配置
// @Security Bearer
// @Success 200 {object} Response{data=[]model.ConfigVersion}
// @Router /admin/v1/configs/versions [get]
func (h *ConfigHandler) GetVersions(c *gin.Context) {
	versions, err := h.configService.GetVersions(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}

	Success(c, versions)
}

// Reload 失效本地缓存并广播重载事件
// @Summary 重载配置
// @Tags 系统配置
// @Security Bearer
// @Success 200 {object} Response
// @Router /admin/v1/configs/reload [post]
func (h *ConfigHandler) Reload(c *gin.Context) {
	h.configService.Reload(c.Request.Context(), middleware.GetUsername(c))
	SuccessWithMessage(c, "配置缓存已重载", nil)
}

// RotateKeyRequest 主密钥轮换请求
type RotateKeyRequest struct {
	NewMasterKey string `json:"new_master_key" binding:"required,min=16"`
}

// RotateKey 轮换主密钥, 重新加密所有加密配置
// @Summary 轮换配置主密钥
// @Tags 系统配置
// @Security Bearer
// @Accept json
// @Produce json
// @Param request body RotateKeyRequest true "轮换请求"
// @Success 200 {object} Response
// @Router /admin/v1/configs/rotate-key [post]
func (h *ConfigHandler) RotateKey(c *gin.Context) {
	var req RotateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	if err := h.configService.RotateMasterKey(c.Request.Context(), req.NewMasterKey, middleware.GetUsername(c)); err != nil {
		RespondError(c, err)
		return
	}

	SuccessWithMessage(c, "主密钥轮换完成", nil)
}
