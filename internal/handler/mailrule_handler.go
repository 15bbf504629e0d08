package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/middleware"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/model"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/service"
)

// MailRuleHandler 邮箱监控规则处理器
type MailRuleHandler struct {
	ruleService *service.MailRuleService
}

// NewMailRuleHandler 创建邮箱规则处理器
func NewMailRuleHandler(ruleService *service.MailRuleService) *MailRuleHandler {
	return &MailRuleHandler{
		ruleService: ruleService,
	}
}

// List 获取规则列表
// @Summary 获取规则列表
// @Tags 邮箱规则
// @Security Bearer
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Param enabled query bool false "仅启用/仅停用"
// @Success 200 {object} PagedResponse{data=[]model.MailRule}
// @Router /admin/v1/mail-rules [get]
func (h *MailRuleHandler) List(c *gin.Context) {
	var page model.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		BadRequest(c, "参数错误")
		return
	}

	var enabled *bool
	if raw := c.Query("enabled"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			BadRequest(c, "enabled 参数错误")
			return
		}
		enabled = &v
	}

	rules, err := h.ruleService.List(c.Request.Context(), &page, enabled)
	if err != nil {
		RespondError(c, err)
		return
	}

	SuccessPaged(c, rules, page.Page, page.PageSize, page.Total)
}

// Get 获取规则详情
// @Summary 获取规则详情
// @Tags 邮箱规则
// @Security Bearer
// @Param id path int true "规则ID"
// @Success 200 {object} Response{data=model.MailRule}
// @Router /admin/v1/mail-rules/{id} [get]
func (h *MailRuleHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	rule, err := h.ruleService.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}

	Success(c, rule)
}

// Create 创建规则
// @Summary 创建规则
// @Tags 邮箱规则
// @Security Bearer
// @Param request body service.CreateMailRuleRequest true "规则内容"
// @Success 200 {object} Response{data=model.MailRule}
// @Router /admin/v1/mail-rules [post]
func (h *MailRuleHandler) Create(c *gin.Context) {
	var req service.CreateMailRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	req.OperatorID = middleware.GetAdminID(c)
	req.Operator = middleware.GetUsername(c)

	rule, err := h.ruleService.Create(c.Request.Context(), &req)
	if err != nil {
		RespondError(c, err)
		return
	}

	SuccessWithMessage(c, "规则创建成功", rule)
}

// Update 更新规则
// @Summary 更新规则
// @Tags 邮箱规则
// @Security Bearer
// @Param id path int true "规则ID"
// @Param request body service.UpdateMailRuleRequest true "待更新字段"
// @Success 200 {object} Response{data=model.MailRule}
// @Router /admin/v1/mail-rules/{id} [put]
func (h *MailRuleHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var req service.UpdateMailRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	req.ID = id
	req.OperatorID = middleware.GetAdminID(c)
	req.Operator = middleware.GetUsername(c)

	rule, err := h.ruleService.Update(c.Request.Context(), &req)
	if err != nil {
		RespondError(c, err)
		return
	}

	SuccessWithMessage(c, "规则更新成功", rule)
}

// UpdateEnabledRequest 启停规则请求
type UpdateEnabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// UpdateEnabled 启用或停用规则
// @Summary 启用或停用规则
// @Tags 邮箱规则
// @Security Bearer
// @Param id path int true "规则ID"
// @Param request body UpdateEnabledRequest true "启停状态"
// @Success 200 {object} Response
// @Router /admin/v1/mail-rules/{id}/status [put]
func (h *MailRuleHandler) UpdateEnabled(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var req UpdateEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	operatorID := middleware.GetAdminID(c)
	operator := middleware.GetUsername(c)

	if err := h.ruleService.UpdateEnabled(c.Request.Context(), id, *req.Enabled, operatorID, operator); err != nil {
		RespondError(c, err)
		return
	}

	message := "规则已启用"
	if !*req.Enabled {
		message = "规则已停用"
	}
	SuccessWithMessage(c, message, nil)
}

// Delete 删除规则
// @Summary 删除规则
// @Tags 邮箱规则
// @Security Bearer
// @Param id path int true "规则ID"
// @Success 200 {object} Response
// @Router /admin/v1/mail-rules/{id} [delete]
func (h *MailRuleHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	operatorID := middleware.GetAdminID(c)
	operator := middleware.GetUsername(c)

	if err := h.ruleService.Delete(c.Request.Context(), id, operatorID, operator); err != nil {
		RespondError(c, err)
		return
	}

	SuccessWithMessage(c, "规则已删除", nil)
}

// Sync 获取启用的规则, 供采集服务全量同步
// @Summary 获取启用的规则
// @Tags 邮箱规则
// @Security Bearer
// @Success 200 {object} Response{data=[]model.MailRule}
// @Router /admin/v1/mail-rules/sync [get]
func (h *MailRuleHandler) Sync(c *gin.Context) {
	rules, err := h.ruleService.ListEnabled(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}

	Success(c, rules)
}
