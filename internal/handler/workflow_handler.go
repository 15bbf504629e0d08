package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/client"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/middleware"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/model"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/service"
	apperrors "github.com/laitim2001/ai-document-extraction-project-sub002/pkg/errors"
)

// WorkflowHandler 工作流看板处理器
type WorkflowHandler struct {
	workflowService *service.WorkflowService
	extraction      *client.ExtractionClient
}

// NewWorkflowHandler 创建工作流看板处理器, extraction 可为空
func NewWorkflowHandler(workflowService *service.WorkflowService, extraction *client.ExtractionClient) *WorkflowHandler {
	return &WorkflowHandler{
		workflowService: workflowService,
		extraction:      extraction,
	}
}

// List 获取执行记录列表
// @Summary 获取执行记录列表
// @Tags 工作流
// @Security Bearer
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Param document_id query string false "文档ID"
// @Param workflow_type query string false "工作流类型"
// @Param status query string false "执行状态"
// @Param start_time query int false "开始时间戳(毫秒)"
// @Param end_time query int false "结束时间戳(毫秒)"
// @Success 200 {object} PagedResponse{data=[]model.WorkflowExecution}
// @Router /admin/v1/workflows [get]
func (h *WorkflowHandler) List(c *gin.Context) {
	var page model.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		BadRequest(c, "参数错误")
		return
	}

	var query service.WorkflowQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		BadRequest(c, "筛选参数错误")
		return
	}

	execs, err := h.workflowService.List(c.Request.Context(), &page, &query)
	if err != nil {
		RespondError(c, err)
		return
	}

	SuccessPaged(c, execs, page.Page, page.PageSize, page.Total)
}

// Get 获取执行记录详情
// @Summary 获取执行记录详情
// @Tags 工作流
// @Security Bearer
// @Param id path int true "执行记录ID"
// @Success 200 {object} Response{data=model.WorkflowExecution}
// @Router /admin/v1/workflows/{id} [get]
func (h *WorkflowHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	exec, err := h.workflowService.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}

	Success(c, exec)
}

// Stats 获取工作流总览统计
// @Summary 获取工作流总览统计
// @Tags 工作流
// @Security Bearer
// @Success 200 {object} Response{data=model.WorkflowStats}
// @Router /admin/v1/workflows/stats [get]
func (h *WorkflowHandler) Stats(c *gin.Context) {
	stats, err := h.workflowService.Stats(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}

	Success(c, stats)
}

// Pipeline 获取提取管道的实时统计
// @Summary 获取提取管道的实时统计
// @Tags 工作流
// @Security Bearer
// @Success 200 {object} Response{data=client.PipelineStats}
// @Router /admin/v1/workflows/pipeline [get]
func (h *WorkflowHandler) Pipeline(c *gin.Context) {
	if h.extraction == nil || !h.extraction.Configured() {
		RespondError(c, apperrors.ErrServiceUnavailable.WithMessage("提取服务未配置"))
		return
	}

	stats, err := h.extraction.Stats(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}

	Success(c, stats)
}

// Retry 重试失败的执行
// @Summary 重试失败的执行
// @Tags 工作流
// @Security Bearer
// @Param id path int true "执行记录ID"
// @Success 200 {object} Response{data=model.WorkflowExecution}
// @Router /admin/v1/workflows/{id}/retry [post]
func (h *WorkflowHandler) Retry(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	operatorID := middleware.GetAdminID(c)
	operator := middleware.GetUsername(c)

	exec, err := h.workflowService.Retry(c.Request.Context(), id, operatorID, operator)
	if err != nil {
		RespondError(c, err)
		return
	}

	SuccessWithMessage(c, "已重新排队", exec)
}

// ReviewRequest 人工复核请求
type ReviewRequest struct {
	Approve bool `json:"approve"`
}

// Review 人工复核待复核的执行
// @Summary 人工复核待复核的执行
// @Tags 工作流
// @Security Bearer
// @Param id path int true "执行记录ID"
// @Param request body ReviewRequest true "复核结论"
// @Success 200 {object} Response{data=model.WorkflowExecution}
// @Router /admin/v1/workflows/{id}/review [post]
func (h *WorkflowHandler) Review(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	operatorID := middleware.GetAdminID(c)
	operator := middleware.GetUsername(c)

	exec, err := h.workflowService.Review(c.Request.Context(), id, req.Approve, operatorID, operator)
	if err != nil {
		RespondError(c, err)
		return
	}

	message := "复核通过"
	if !req.Approve {
		message = "复核驳回"
	}
	SuccessWithMessage(c, message, exec)
}
